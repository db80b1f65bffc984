package renderer

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slackdigest/clients/slack"
	"slackdigest/models"
)

func newTestComposer() *DigestComposer {
	client := slack.NewMockSlackClient()
	return NewDigestComposer(NewMessageRenderer(NewTranspiler(client), client))
}

func TestRenderDigest(t *testing.T) {
	// 2016-08-02 00:00:00 UTC
	const aug2 = 1470096000.0

	t.Run("Success_SeparatorAtConversationGap", func(t *testing.T) {
		composer := newTestComposer()

		msgs := []models.Message{
			{TS: aug2 + 1000, UserID: "U1", Text: "first"},
			{TS: aug2 + 1100, UserID: "U2", Text: "second"},
			{TS: aug2 + 4000, UserID: "U1", Text: "third"},
		}
		out, err := composer.RenderDigest(context.Background(), msgs, 0, 1, mo.None[time.Time]())
		require.NoError(t, err)

		require.Equal(t, 1, strings.Count(out, "<hr>"))
		hr := strings.Index(out, "<hr>")
		assert.Less(t, strings.Index(out, "second"), hr)
		assert.Greater(t, strings.Index(out, "third"), hr)
	})

	t.Run("Success_GapJustUnderThresholdHasNoSeparator", func(t *testing.T) {
		composer := newTestComposer()

		msgs := []models.Message{
			{TS: aug2 + 1000, UserID: "U1", Text: "first"},
			{TS: aug2 + 1000 + 30*60 - 1, UserID: "U2", Text: "second"},
		}
		out, err := composer.RenderDigest(context.Background(), msgs, 0, 1, mo.None[time.Time]())
		require.NoError(t, err)
		assert.NotContains(t, out, "<hr>")
	})

	t.Run("Success_EmptyDigestSaysNoActivity", func(t *testing.T) {
		composer := newTestComposer()

		hint := time.Date(2016, 8, 2, 0, 0, 0, 0, time.UTC)
		out, err := composer.RenderDigest(context.Background(), nil, 0, 1, mo.Some(hint))
		require.NoError(t, err)
		assert.Contains(t, out, "There was no Slack activity")
		assert.Contains(t, out, "Slack Digest for Tuesday, August 02, 2016 (UTC)")
	})

	t.Run("Success_OneBadMessageBecomesPlaceholder", func(t *testing.T) {
		composer := newTestComposer()

		msgs := []models.Message{
			{TS: aug2 + 1000, UserID: "U1", Text: "survives"},
			{TS: aug2 + 1001, Text: "no author shape at all"},
		}
		out, err := composer.RenderDigest(context.Background(), msgs, 0, 1, mo.None[time.Time]())
		require.NoError(t, err)
		assert.Contains(t, out, "survives")
		assert.Contains(t, out, "[message could not be rendered]")
	})

	t.Run("Error_EmptyWithoutDateHint", func(t *testing.T) {
		composer := newTestComposer()

		_, err := composer.RenderDigest(context.Background(), nil, 0, 1, mo.None[time.Time]())
		require.Error(t, err)
	})

	t.Run("Success_FooterLinks", func(t *testing.T) {
		composer := newTestComposer()
		composer.SetLinks("https://team.slack.com/messages/general/", "https://team.example/invite")

		msgs := []models.Message{{TS: aug2 + 1000, UserID: "U1", Text: "hi"}}
		out, err := composer.RenderDigest(context.Background(), msgs, 0, 1, mo.None[time.Time]())
		require.NoError(t, err)
		assert.Contains(t, out, `<a href="https://team.slack.com/messages/general/">View this conversation live</a>`)
		assert.Contains(t, out, `<a href="https://team.example/invite">Join the Slack</a>`)
	})

	t.Run("Success_NoFooterWithoutLinks", func(t *testing.T) {
		composer := newTestComposer()

		msgs := []models.Message{{TS: aug2 + 1000, UserID: "U1", Text: "hi"}}
		out, err := composer.RenderDigest(context.Background(), msgs, 0, 1, mo.None[time.Time]())
		require.NoError(t, err)
		assert.NotContains(t, out, "View this conversation live")
		assert.NotContains(t, out, "Join the Slack")
	})
}
