package renderer

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark-emoji/definition"

	"slackdigest/clients"
)

// Slack message markup is an ad-hoc grammar whose rules interact: an emphasis
// pass must not fire inside an already-emitted HTML tag, and an emoji
// shortcode must not be re-read by a later pass. The transpiler therefore
// applies a fixed, ordered chain of named rewrite rules - the order is
// semantically load-bearing and is pinned by tests.
type Transpiler struct {
	directory clients.Directory
	emojis    definition.Emojis
}

// NewTranspiler creates a transpiler resolving names through the given directory
func NewTranspiler(directory clients.Directory) *Transpiler {
	return &Transpiler{
		directory: directory,
		emojis:    definition.Github(),
	}
}

const (
	mentionTemplate    = `<font color="#2a80b9">@%s</font>`
	channelRefTemplate = `<font color="#2a80b9">#%s</font>`
	inlineCodeTemplate = `<code style="color: #c25; border: 1px solid #e1e1e8">${1}</code>${2}`
	preTemplate        = `<pre style="margin: .5rem 0 .2rem; border: 1px solid rgba(0, 0, 0, .15);">${1}</pre>`
)

var (
	// user/channel reference tokens, with and without an embedded stale name hint
	mentionPattern         = regexp.MustCompile(`<@(\w+)>`)
	mentionWithHintPattern = regexp.MustCompile(`<@(\w+)\|[^>]+>`)
	channelPattern         = regexp.MustCompile(`<#(\w+)>`)
	channelWithHintPattern = regexp.MustCompile(`<#(\w+)\|[^>]+>`)

	// <url|label> and <url> link tokens. The bare form excludes a leading "/"
	// so it can never re-match a closing tag emitted by an earlier rule.
	labeledLinkPattern = regexp.MustCompile(`<([^| ]+)\|([^>]+)>`)
	bareLinkPattern    = regexp.MustCompile(`<([^/])([^> ]+)>`)

	// leading triple marker quotes the rest of the text; fenced code is
	// non-greedy up to the next fence
	multilineQuotePattern = regexp.MustCompile(`(?s)&gt;&gt;&gt;(.*)`)
	fencedCodePattern     = regexp.MustCompile("(?s)```\n?(.*?)```")

	// emphasis delimiters require a word character right after the opener and
	// a boundary after the closer, so a stray delimiter in prose never toggles
	boldPattern       = regexp.MustCompile(`\*(\w[^*]+)\*(\b|\W|$)`)
	italicPattern     = regexp.MustCompile(`_(\w[^_]+)_(\b|\W|$)`)
	strikePattern     = regexp.MustCompile(`~(\w[^~]+\w)~(\b|\W|$)`)
	inlineCodePattern = regexp.MustCompile("`(\\w[^`]+)`(\\b|\\W|$)")

	// single-line quote needs at least one word character and consumes the
	// trailing newline(s)
	lineQuotePattern = regexp.MustCompile(`\n?&gt;(.*\w.*)\n?\n?`)

	emojiCodePattern     = regexp.MustCompile(`(:[a-zA-Z0-9+\-_&.]+:)`)
	soleEmojiCodePattern = regexp.MustCompile(`^\W*(:[a-zA-Z0-9+\-_&.]+:)\W*$`)
)

// colonSentinel protects colons inside already-emitted emoji titles from being
// re-read as shortcodes by a later emoji pass. Restored once all rules have run.
const colonSentinel = "\x01__colon__\x01"

func protectColons(s string) string {
	return strings.ReplaceAll(s, ":", colonSentinel)
}

func restoreColons(s string) string {
	return strings.ReplaceAll(s, colonSentinel, ":")
}

// rewriteRule is one named, ordered transformation over the whole text
type rewriteRule struct {
	name  string
	apply func(ctx context.Context, text string) (string, error)
}

func (t *Transpiler) rules() []rewriteRule {
	return []rewriteRule{
		{"mentions", t.resolveMentions},
		{"channel references", t.resolveChannelRefs},
		{"links", resolveLinks},
		{"multiline blockquote", rewriteMultilineQuote},
		{"fenced code", rewriteFencedCode},
		{"emphasis", rewriteEmphasis},
		{"line blockquote", rewriteLineQuote},
		{"whitespace", rewriteWhitespace},
		{"standard emoji", t.resolveStandardEmoji},
		{"custom emoji", t.resolveCustomEmoji},
	}
}

// Render converts one message's raw markup into a safe, styled HTML fragment.
// Unresolvable user/channel ids fail the whole call - there is no silent
// fallback for a stale directory.
func (t *Transpiler) Render(ctx context.Context, text string) (string, error) {
	for _, rule := range t.rules() {
		out, err := rule.apply(ctx, text)
		if err != nil {
			return "", fmt.Errorf("failed to apply %s rule: %w", rule.name, err)
		}
		text = out
	}
	return restoreColons(text), nil
}

// resolveMentions rewrites <@U123> and <@U123|stale-hint> into mention spans,
// always looking up the current display name even when a hint is embedded
func (t *Transpiler) resolveMentions(ctx context.Context, text string) (string, error) {
	for _, pattern := range []*regexp.Regexp{mentionPattern, mentionWithHintPattern} {
		out, err := replaceResolved(pattern, text, func(id string) (string, error) {
			name, err := t.directory.GetUserName(ctx, id)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf(mentionTemplate, name), nil
		})
		if err != nil {
			return "", err
		}
		text = out
	}
	return text, nil
}

// resolveChannelRefs rewrites <#C123> and <#C123|stale-hint> into channel
// reference spans
func (t *Transpiler) resolveChannelRefs(ctx context.Context, text string) (string, error) {
	for _, pattern := range []*regexp.Regexp{channelPattern, channelWithHintPattern} {
		out, err := replaceResolved(pattern, text, func(id string) (string, error) {
			name, err := t.directory.GetChannelName(ctx, id)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf(channelRefTemplate, name), nil
		})
		if err != nil {
			return "", err
		}
		text = out
	}
	return text, nil
}

// replaceResolved substitutes every match of pattern through resolve, keeping
// the first lookup error. ReplaceAllStringFunc cannot propagate errors, so the
// closure captures it.
func replaceResolved(pattern *regexp.Regexp, text string, resolve func(id string) (string, error)) (string, error) {
	var firstErr error
	out := pattern.ReplaceAllStringFunc(text, func(match string) string {
		id := pattern.FindStringSubmatch(match)[1]
		resolved, err := resolve(id)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return match
		}
		return resolved
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}

// resolveLinks rewrites bracketed link tokens into anchors. A token without a
// label uses the URL itself as the label. No scheme validation: unknown link
// syntax is linkified verbatim.
func resolveLinks(_ context.Context, text string) (string, error) {
	text = labeledLinkPattern.ReplaceAllString(text, `<a href="${1}">${2}</a>`)
	text = bareLinkPattern.ReplaceAllString(text, `<a href="${1}${2}">${1}${2}</a>`)
	return text, nil
}

func rewriteMultilineQuote(_ context.Context, text string) (string, error) {
	return multilineQuotePattern.ReplaceAllString(text, `<blockquote>${1}</blockquote>`), nil
}

func rewriteFencedCode(_ context.Context, text string) (string, error) {
	return fencedCodePattern.ReplaceAllString(text, preTemplate), nil
}

func rewriteEmphasis(_ context.Context, text string) (string, error) {
	text = boldPattern.ReplaceAllString(text, `<b>${1}</b>${2}`)
	text = italicPattern.ReplaceAllString(text, `<i>${1}</i>${2}`)
	text = strikePattern.ReplaceAllString(text, `<strike>${1}</strike>${2}`)
	text = inlineCodePattern.ReplaceAllString(text, inlineCodeTemplate)
	return text, nil
}

func rewriteLineQuote(_ context.Context, text string) (string, error) {
	return lineQuotePattern.ReplaceAllString(text, `<blockquote>${1}</blockquote>`), nil
}

// rewriteWhitespace turns newlines into line breaks and collapses double
// spaces into non-breaking pairs, preserving the alignment of pasted
// code/tables that aren't inside a pre block
func rewriteWhitespace(_ context.Context, text string) (string, error) {
	text = strings.ReplaceAll(text, "\n", "<br>")
	text = strings.ReplaceAll(text, "  ", "&nbsp;&nbsp;")
	return text, nil
}

// resolveStandardEmoji replaces known shortcodes with their unicode glyph,
// wrapped in a tooltip span carrying the original code. Unknown codes are left
// untouched so the custom-emoji pass can try them.
func (t *Transpiler) resolveStandardEmoji(_ context.Context, text string) (string, error) {
	return emojiCodePattern.ReplaceAllStringFunc(text, func(code string) string {
		em, ok := t.emojis.Get(strings.Trim(code, ":"))
		if !ok || !em.IsUnicode() {
			return code
		}
		return fmt.Sprintf("<span title='%s'>%s</span>", protectColons(code), string(em.Unicode))
	}), nil
}

// resolveCustomEmoji replaces workspace emoji shortcodes with inline images.
// A shortcode that is the entire trimmed text renders large, otherwise small.
// Unknown codes stay literal text.
func (t *Transpiler) resolveCustomEmoji(ctx context.Context, text string) (string, error) {
	out, err := t.substituteCustomEmoji(ctx, soleEmojiCodePattern, text, 32)
	if err != nil {
		return "", err
	}
	return t.substituteCustomEmoji(ctx, emojiCodePattern, out, 20)
}

func (t *Transpiler) substituteCustomEmoji(
	ctx context.Context,
	pattern *regexp.Regexp,
	text string,
	width int,
) (string, error) {
	var firstErr error
	out := pattern.ReplaceAllStringFunc(text, func(match string) string {
		code := pattern.FindStringSubmatch(match)[1]
		maybeURL, err := t.directory.GetCustomEmojiURL(ctx, strings.Trim(code, ":"))
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return match
		}
		if !maybeURL.IsPresent() {
			return code
		}
		return fmt.Sprintf(`<img width="%d" src="%s" title="%s">`, width, maybeURL.MustGet(), protectColons(code))
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}
