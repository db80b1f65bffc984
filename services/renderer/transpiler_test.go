package renderer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slackdigest/clients/slack"
	"slackdigest/core"
)

func newTestTranspiler() *Transpiler {
	return NewTranspiler(slack.NewMockSlackClient())
}

func TestRenderPlainText(t *testing.T) {
	t.Run("Success_PlainProseIsUntouched", func(t *testing.T) {
		transpiler := newTestTranspiler()

		inputs := []string{
			"Hello world, this is plain prose.",
			"numbers 123 and punctuation!?",
			"",
		}
		for _, input := range inputs {
			out, err := transpiler.Render(context.Background(), input)
			require.NoError(t, err)
			assert.Equal(t, input, out)
		}
	})
}

func TestRenderMentions(t *testing.T) {
	t.Run("Success_MentionWithoutHint", func(t *testing.T) {
		transpiler := newTestTranspiler()

		out, err := transpiler.Render(context.Background(), "<@U1> hello")
		require.NoError(t, err)
		assert.Equal(t, `<font color="#2a80b9">@alice</font> hello`, out)
	})

	t.Run("Success_StaleHintIsIgnored", func(t *testing.T) {
		transpiler := newTestTranspiler()

		// the embedded hint is stale; the current display name wins
		out, err := transpiler.Render(context.Background(), "<@U1|old-alice-handle>")
		require.NoError(t, err)
		assert.Equal(t, `<font color="#2a80b9">@alice</font>`, out)
	})

	t.Run("Error_UnknownUserIsFatal", func(t *testing.T) {
		transpiler := newTestTranspiler()

		_, err := transpiler.Render(context.Background(), "before <@U999> after")
		require.Error(t, err)
		assert.True(t, core.IsNotFoundError(err))
	})
}

func TestRenderChannelRefs(t *testing.T) {
	t.Run("Success_ChannelRef", func(t *testing.T) {
		transpiler := newTestTranspiler()

		out, err := transpiler.Render(context.Background(), "see <#C1>")
		require.NoError(t, err)
		assert.Equal(t, `see <font color="#2a80b9">#general</font>`, out)
	})

	t.Run("Success_ChannelRefWithHint", func(t *testing.T) {
		transpiler := newTestTranspiler()

		out, err := transpiler.Render(context.Background(), "see <#C1|old-name>")
		require.NoError(t, err)
		assert.Equal(t, `see <font color="#2a80b9">#general</font>`, out)
	})

	t.Run("Error_UnknownChannelIsFatal", func(t *testing.T) {
		transpiler := newTestTranspiler()

		_, err := transpiler.Render(context.Background(), "see <#C999>")
		require.Error(t, err)
		assert.True(t, core.IsNotFoundError(err))
	})
}

func TestRenderLinks(t *testing.T) {
	t.Run("Success_LabeledLink", func(t *testing.T) {
		transpiler := newTestTranspiler()

		out, err := transpiler.Render(context.Background(), "<https://example.com|click here>")
		require.NoError(t, err)
		assert.Equal(t, `<a href="https://example.com">click here</a>`, out)
	})

	t.Run("Success_BareLinkLabelEqualsURL", func(t *testing.T) {
		transpiler := newTestTranspiler()

		out, err := transpiler.Render(context.Background(), "<https://example.com>")
		require.NoError(t, err)
		assert.Equal(t, `<a href="https://example.com">https://example.com</a>`, out)
	})

	t.Run("Success_NoSchemeValidation", func(t *testing.T) {
		transpiler := newTestTranspiler()

		out, err := transpiler.Render(context.Background(), "<example.com>")
		require.NoError(t, err)
		assert.Equal(t, `<a href="example.com">example.com</a>`, out)
	})
}

func TestRenderEmphasis(t *testing.T) {
	t.Run("Success_Bold", func(t *testing.T) {
		transpiler := newTestTranspiler()

		out, err := transpiler.Render(context.Background(), "*bold*")
		require.NoError(t, err)
		assert.Equal(t, "<b>bold</b>", out)
	})

	t.Run("Success_UnmatchedDelimiterIsLeftAlone", func(t *testing.T) {
		transpiler := newTestTranspiler()

		out, err := transpiler.Render(context.Background(), "te*st")
		require.NoError(t, err)
		assert.Equal(t, "te*st", out)
	})

	t.Run("Success_StrayBulletAsteriskDoesNotToggle", func(t *testing.T) {
		transpiler := newTestTranspiler()

		// opening delimiter must be followed by a word character
		out, err := transpiler.Render(context.Background(), "* item one and * item two")
		require.NoError(t, err)
		assert.Equal(t, "* item one and * item two", out)
	})

	t.Run("Success_Italic", func(t *testing.T) {
		transpiler := newTestTranspiler()

		out, err := transpiler.Render(context.Background(), "some _italic_ text")
		require.NoError(t, err)
		assert.Equal(t, "some <i>italic</i> text", out)
	})

	t.Run("Success_Strikethrough", func(t *testing.T) {
		transpiler := newTestTranspiler()

		out, err := transpiler.Render(context.Background(), "~strike~")
		require.NoError(t, err)
		assert.Equal(t, "<strike>strike</strike>", out)
	})

	t.Run("Success_InlineCode", func(t *testing.T) {
		transpiler := newTestTranspiler()

		out, err := transpiler.Render(context.Background(), "run `make all` now")
		require.NoError(t, err)
		assert.Equal(t,
			`run <code style="color: #c25; border: 1px solid #e1e1e8">make all</code> now`,
			out)
	})
}

func TestRenderBlocks(t *testing.T) {
	t.Run("Success_FencedCode", func(t *testing.T) {
		transpiler := newTestTranspiler()

		out, err := transpiler.Render(context.Background(), "```\nx := 1\n```")
		require.NoError(t, err)
		// the newline pass runs after the fence pass, so breaks appear inside
		// the pre block as well
		assert.Equal(t,
			`<pre style="margin: .5rem 0 .2rem; border: 1px solid rgba(0, 0, 0, .15);">x := 1<br></pre>`,
			out)
	})

	t.Run("Success_FencedCodeIsNonGreedy", func(t *testing.T) {
		transpiler := newTestTranspiler()

		out, err := transpiler.Render(context.Background(), "```a``` and ```b```")
		require.NoError(t, err)
		assert.Equal(t, 2, strings.Count(out, "<pre"))
	})

	t.Run("Success_MultilineQuote", func(t *testing.T) {
		transpiler := newTestTranspiler()

		// Slack pre-escapes angle brackets, so the marker arrives as &gt;
		out, err := transpiler.Render(context.Background(), "&gt;&gt;&gt;quoted\nstill quoted")
		require.NoError(t, err)
		assert.Equal(t, "<blockquote>quoted<br>still quoted</blockquote>", out)
	})

	t.Run("Success_SingleLineQuote", func(t *testing.T) {
		transpiler := newTestTranspiler()

		out, err := transpiler.Render(context.Background(), "before\n&gt; quoted words\nafter")
		require.NoError(t, err)
		assert.Equal(t, "before<blockquote> quoted words</blockquote>after", out)
	})

	t.Run("Success_QuoteNeedsWordCharacter", func(t *testing.T) {
		transpiler := newTestTranspiler()

		out, err := transpiler.Render(context.Background(), "&gt; !!!")
		require.NoError(t, err)
		assert.NotContains(t, out, "<blockquote>")
	})
}

func TestRenderWhitespace(t *testing.T) {
	t.Run("Success_NewlinesBecomeBreaks", func(t *testing.T) {
		transpiler := newTestTranspiler()

		out, err := transpiler.Render(context.Background(), "a\nb")
		require.NoError(t, err)
		assert.Equal(t, "a<br>b", out)
	})

	t.Run("Success_DoubleSpacesArePreserved", func(t *testing.T) {
		transpiler := newTestTranspiler()

		out, err := transpiler.Render(context.Background(), "col1  col2")
		require.NoError(t, err)
		assert.Equal(t, "col1&nbsp;&nbsp;col2", out)
	})
}

func TestRenderEmoji(t *testing.T) {
	t.Run("Success_StandardEmojiGetsTooltip", func(t *testing.T) {
		transpiler := newTestTranspiler()

		out, err := transpiler.Render(context.Background(), "good morning :smile:")
		require.NoError(t, err)
		assert.Contains(t, out, "<span title=':smile:'>")
		assert.NotContains(t, out, colonSentinel)
	})

	t.Run("Success_UnknownShortcodeStaysLiteral", func(t *testing.T) {
		transpiler := newTestTranspiler()

		out, err := transpiler.Render(context.Background(), "so :unknownemojicode: much")
		require.NoError(t, err)
		assert.Equal(t, "so :unknownemojicode: much", out)
	})

	t.Run("Success_CustomEmojiAloneRendersLarge", func(t *testing.T) {
		transpiler := newTestTranspiler()

		out, err := transpiler.Render(context.Background(), ":partyparrot:")
		require.NoError(t, err)
		assert.Equal(t,
			`<img width="32" src="https://emoji.example.com/partyparrot.gif" title=":partyparrot:">`,
			out)
	})

	t.Run("Success_CustomEmojiInlineRendersSmall", func(t *testing.T) {
		transpiler := newTestTranspiler()

		out, err := transpiler.Render(context.Background(), "such wow :partyparrot:")
		require.NoError(t, err)
		assert.Equal(t,
			`such wow <img width="20" src="https://emoji.example.com/partyparrot.gif" title=":partyparrot:">`,
			out)
	})

	t.Run("Success_EmittedTitlesAreNotReprocessed", func(t *testing.T) {
		transpiler := newTestTranspiler()

		// the large pass emits a title containing colons; the small pass must
		// not resolve the shortcode inside that title a second time
		out, err := transpiler.Render(context.Background(), ":partyparrot:")
		require.NoError(t, err)
		assert.Equal(t, 1, strings.Count(out, "<img"))
		assert.NotContains(t, out, colonSentinel)
	})
}
