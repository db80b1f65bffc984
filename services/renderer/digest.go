package renderer

import (
	"context"
	"fmt"
	"html"
	"log"
	"strings"
	"time"

	"github.com/samber/mo"

	"slackdigest/models"
)

// conversationGapSeconds is the silence between two consecutive messages that
// gets a visual separator in the digest
const conversationGapSeconds = 30 * 60

const (
	fullDocumentTemplate = `<div style="font-family: Slack-Lato,appleLogo,sans-serif; font-size: .9375rem; line-height: 1.375rem;">
<h2>%s</h2>
%s%s
</div>`

	noActivityBody = "<h2>There was no Slack activity</h2>"

	// a failed message still occupies its slot so the reader can see
	// something went missing there
	errorPlaceholderTemplate = `<table><tr><td valign="top"><img width="32"></td>
  <td><b>[message could not be rendered]</b><br>
  <span style='color: #c00'>%s</span>
  </td>
</table>`
)

// DigestComposer renders an ordered message list into one full HTML document.
// The caller guarantees chronological order; the composer never re-sorts.
type DigestComposer struct {
	renderer   *MessageRenderer
	liveLink   string
	inviteLink string
}

// NewDigestComposer creates a composer over the given message renderer
func NewDigestComposer(renderer *MessageRenderer) *DigestComposer {
	return &DigestComposer{renderer: renderer}
}

// SetLinks installs the optional "view live" and invite links rendered in the
// document footer
func (c *DigestComposer) SetLinks(liveLink, inviteLink string) {
	c.liveLink = liveLink
	c.inviteLink = inviteLink
}

// RenderDigest renders the messages into the full document, inserting a
// horizontal separator wherever a conversational gap of thirty minutes or more
// occurs. A message that fails to render is logged and replaced with a visible
// placeholder - one bad message never loses the rest of the digest.
func (c *DigestComposer) RenderDigest(
	ctx context.Context,
	msgs []models.Message,
	part, parts int,
	dateHint mo.Option[time.Time],
) (string, error) {
	header, err := c.renderer.RenderHeaderText(msgs, part, parts, dateHint)
	if err != nil {
		return "", err
	}

	if len(msgs) == 0 {
		return fmt.Sprintf(fullDocumentTemplate, header, noActivityBody, c.footer()), nil
	}

	bits := make([]string, 0, len(msgs))
	lastTS := msgs[0].TS
	for i := range msgs {
		msg := &msgs[i]
		if msg.TS-lastTS >= conversationGapSeconds {
			bits = append(bits, "<hr>")
		}
		lastTS = msg.TS

		rendered, err := c.renderer.RenderMessage(ctx, msg)
		if err != nil {
			log.Printf("⚠️ Failed to render message ts=%.6f: %v", msg.TS, err)
			rendered = fmt.Sprintf(errorPlaceholderTemplate, html.EscapeString(err.Error()))
		}
		bits = append(bits, rendered)
	}

	return fmt.Sprintf(fullDocumentTemplate, header, strings.Join(bits, "\n"), c.footer()), nil
}

func (c *DigestComposer) footer() string {
	if c.liveLink == "" && c.inviteLink == "" {
		return ""
	}

	var links []string
	if c.liveLink != "" {
		links = append(links, fmt.Sprintf(`<a href="%s">View this conversation live</a>`, c.liveLink))
	}
	if c.inviteLink != "" {
		links = append(links, fmt.Sprintf(`<a href="%s">Join the Slack</a>`, c.inviteLink))
	}
	return fmt.Sprintf("\n<p style=\"color: #7f7f7f\">%s</p>", strings.Join(links, " | "))
}
