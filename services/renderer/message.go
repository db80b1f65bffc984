package renderer

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/samber/mo"

	"slackdigest/clients"
	"slackdigest/core"
	"slackdigest/models"
)

// DefaultRedactedAuthor is redacted by default so the digest never re-exports
// content the email-to-Slack bridge posted from a previous digest.
const DefaultRedactedAuthor = "mailclark"

const (
	messageTemplate = `<table><tr><td valign="top">%s</td>
  <td><b>%s</b> <font color="#7f7f7f">%s</font><br>
  %s
  </td>
</table>`

	redactedBodyText       = "<i>[redacted]</i>"
	redactedAttachmentNote = "<br><br><span style='color: #777'>Attachments redacted.</span>"

	headerTextFormat = "Slack Digest for %s"
	headerDateFormat = "Monday, January 02, 2006"
	messageClockTime = "03:04 PM"
)

// MessageRenderer turns one structured message record into a complete HTML
// snippet, delegating the text body to the transpiler and attachment/reaction
// sub-rendering to itself.
type MessageRenderer struct {
	transpiler *Transpiler
	directory  clients.Directory
	avatars    map[string]string
	redacted   map[string]bool
	loc        *time.Location
}

// NewMessageRenderer creates a renderer with the default redaction policy and
// UTC header timestamps
func NewMessageRenderer(transpiler *Transpiler, directory clients.Directory) *MessageRenderer {
	return &MessageRenderer{
		transpiler: transpiler,
		directory:  directory,
		avatars:    map[string]string{},
		redacted:   map[string]bool{DefaultRedactedAuthor: true},
		loc:        time.UTC,
	}
}

// SetAvatars installs the display name -> avatar URL map used in message headers
func (r *MessageRenderer) SetAvatars(avatars map[string]string) {
	r.avatars = avatars
}

// SetRedactedAuthors replaces the set of authors whose content is redacted
func (r *MessageRenderer) SetRedactedAuthors(authors []string) {
	r.redacted = make(map[string]bool, len(authors))
	for _, author := range authors {
		r.redacted[author] = true
	}
}

// SetLocation sets the timezone used for header dates
func (r *MessageRenderer) SetLocation(loc *time.Location) {
	r.loc = loc
}

// RenderMessage renders a message. Also called recursively with synthetic
// messages carrying an AuthorOverride to render unfurled attachments as
// quoted fragments.
func (r *MessageRenderer) RenderMessage(ctx context.Context, msg *models.Message) (string, error) {
	author, err := r.resolveAuthor(ctx, msg)
	if err != nil {
		return "", err
	}

	// Announcement subtypes are informational and never redacted, whoever
	// posted them.
	redact := !msg.Subtype.IsAnnouncement() && r.redacted[author]

	text := msg.Text
	if redact {
		text = redactedBodyText
	}

	// Reactions stay visible on redacted messages: they are other users'
	// content, and their reactor references go through mention resolution so
	// stale names self-correct.
	if len(msg.Reactions) > 0 {
		text += "\n" + reactionSummary("Reactions", msg.Reactions)
	}

	html, err := r.transpiler.Render(ctx, text)
	if err != nil {
		return "", err
	}

	if redact {
		html += redactedAttachmentNote
	} else {
		for i := range msg.Attachments {
			attHTML, err := r.renderAttachment(ctx, &msg.Attachments[i])
			if err != nil {
				return "", err
			}
			html += attHTML
		}
		if msg.File != nil && msg.Subtype == models.SubtypeFileShare {
			fileHTML, err := r.renderFile(ctx, msg.File)
			if err != nil {
				return "", err
			}
			html += fileHTML
		}
	}

	return fmt.Sprintf(messageTemplate,
		r.avatarTag(author),
		author,
		tsTime(msg.TS).UTC().Format(messageClockTime),
		html,
	), nil
}

// resolveAuthor applies the author-resolution order: explicit override, user
// id, bot id (inline username fallback, bot marker suffix), file-comment
// commenter. Any other shape is unrenderable.
func (r *MessageRenderer) resolveAuthor(ctx context.Context, msg *models.Message) (string, error) {
	switch {
	case msg.AuthorOverride != "":
		return msg.AuthorOverride, nil
	case msg.UserID != "":
		return r.directory.GetUserName(ctx, msg.UserID)
	case msg.BotID != "":
		name := msg.Username
		if name == "" {
			botName, err := r.directory.GetBotName(ctx, msg.BotID)
			if err != nil {
				return "", err
			}
			name = botName
		}
		return name + " (BOT)", nil
	case msg.Comment != nil:
		return r.directory.GetUserName(ctx, msg.Comment.UserID)
	default:
		return "", fmt.Errorf("message at ts=%.6f: %w", msg.TS, core.ErrUnrenderableMessage)
	}
}

// renderAttachment renders one attachment after the main text. A message
// unfurl recurses into RenderMessage with a synthetic message and is wrapped
// as a quoted block; a normal attachment renders service branding, a linked
// title, body text and an optional image.
func (r *MessageRenderer) renderAttachment(ctx context.Context, att *models.Attachment) (string, error) {
	out := "<br><br><span style='color: #777'>Attachment:</span>"

	if att.IsMsgUnfurl {
		quoted, err := r.RenderMessage(ctx, &models.Message{
			Text:           att.Text,
			TS:             att.TS,
			AuthorOverride: att.AuthorSubname,
		})
		if err != nil {
			return "", err
		}
		return out + "<blockquote>" + quoted + "</blockquote>", nil
	}

	text := att.Text
	// attachment text is markup only when the posting service says so
	if text != "" && att.IsMarkdownEnabled("text") {
		rendered, err := r.transpiler.Render(ctx, text)
		if err != nil {
			return "", err
		}
		text = rendered
	}

	var b strings.Builder
	if att.Title != "" {
		if att.ServiceIcon != "" {
			fmt.Fprintf(&b, `<img src="%s" width=16>`, att.ServiceIcon)
		}
		if att.ServiceName != "" {
			b.WriteString("&nbsp;" + att.ServiceName + "<br>")
		}
		if att.TitleLink != "" {
			fmt.Fprintf(&b, `<a href="%s">`, att.TitleLink)
		}
		b.WriteString("<b>" + att.Title + "</b>")
		if att.TitleLink != "" {
			b.WriteString("</a>")
		}
		b.WriteString("<br>")
	}
	if text != "" {
		b.WriteString(text + "<br>")
	}
	if att.ImageURL != "" {
		if att.ImageWidth > 0 && att.ImageHeight > 0 {
			fmt.Fprintf(&b, `<img src="%s" width="%d" height="%d">`, att.ImageURL, att.ImageWidth, att.ImageHeight)
		} else {
			fmt.Fprintf(&b, `<img src="%s">`, att.ImageURL)
		}
	}

	return out + "<br>" + b.String(), nil
}

// renderFile renders a shared file's preview block and the file's own
// reactions, labeled apart from the message's reactions
func (r *MessageRenderer) renderFile(ctx context.Context, file *models.FileInfo) (string, error) {
	title := file.Title
	if title == "" {
		title = file.Name
	}

	var b strings.Builder
	b.WriteString("<br><br><span style='color: #777'>File:</span> ")
	if file.URL != "" {
		fmt.Fprintf(&b, `<a href="%s"><b>%s</b></a>`, file.URL, title)
	} else {
		b.WriteString("<b>" + title + "</b>")
	}

	if file.Preview != "" {
		preview, err := r.transpiler.Render(ctx, file.Preview)
		if err != nil {
			return "", err
		}
		b.WriteString("<blockquote>" + preview + "</blockquote>")
	}

	if len(file.Reactions) > 0 {
		summary, err := r.transpiler.Render(ctx, reactionSummary("File reactions", file.Reactions))
		if err != nil {
			return "", err
		}
		b.WriteString("<br>" + summary)
	}

	return b.String(), nil
}

// RenderHeaderText renders the digest header / subject line for a message
// list. The date range spans min to max timestamp; when the covered messages
// cross a calendar day the header shows "<start> to <end>". The timezone
// abbreviation at the start boundary is always suffixed, and a part indicator
// is appended only when there is more than one part.
func (r *MessageRenderer) RenderHeaderText(
	msgs []models.Message,
	part, parts int,
	dateHint mo.Option[time.Time],
) (string, error) {
	if len(msgs) == 0 {
		if !dateHint.IsPresent() {
			return "", fmt.Errorf("failed to render header text: %w", core.ErrEmptyDigest)
		}
		hint := dateHint.MustGet().In(r.loc)
		dateStr := fmt.Sprintf("%s (%s)", hint.Format(headerDateFormat), hint.Format("MST"))
		return headerText(dateStr, part, parts), nil
	}

	minTS, maxTS := msgs[0].TS, msgs[0].TS
	for _, msg := range msgs[1:] {
		minTS = math.Min(minTS, msg.TS)
		maxTS = math.Max(maxTS, msg.TS)
	}

	startAt := tsTime(minTS).In(r.loc)
	// a window closing exactly at midnight still belongs to the previous day
	endAt := tsTime(maxTS - 1).In(r.loc)

	start := startAt.Format(headerDateFormat)
	end := endAt.Format(headerDateFormat)

	dateStr := start
	if start != end {
		dateStr = fmt.Sprintf("%s to %s", start, end)
	}
	dateStr = fmt.Sprintf("%s (%s)", dateStr, startAt.Format("MST"))

	return headerText(dateStr, part, parts), nil
}

func headerText(dateStr string, part, parts int) string {
	header := fmt.Sprintf(headerTextFormat, dateStr)
	if parts > 1 {
		header += fmt.Sprintf(" [Part %d of %d]", part+1, parts)
	}
	return header
}

// reactionSummary renders reactions as a parenthetical summary in raw markup;
// the emoji codes and reactor references are resolved by the transpiler
// afterwards. The count multiplier is omitted for a single reactor.
func reactionSummary(label string, reactions []models.Reaction) string {
	entries := make([]string, 0, len(reactions))
	for _, reaction := range reactions {
		count := ""
		if len(reaction.UserIDs) > 1 {
			count = fmt.Sprintf("x%d ", len(reaction.UserIDs))
		}
		refs := make([]string, 0, len(reaction.UserIDs))
		for _, userID := range reaction.UserIDs {
			refs = append(refs, "<@"+userID+">")
		}
		entries = append(entries, fmt.Sprintf(":%s: %sfrom %s", reaction.Name, count, strings.Join(refs, ", ")))
	}
	return fmt.Sprintf("<span style='color: #777;'>(%s: %s)</span>", label, strings.Join(entries, ", "))
}

// avatarTag builds the header image cell; bot authors won't have an avatar
func (r *MessageRenderer) avatarTag(author string) string {
	if url, ok := r.avatars[author]; ok {
		return fmt.Sprintf(`<img src="%s" width="32">`, url)
	}
	return `<img width="32">`
}

// tsTime converts a fractional epoch timestamp to a time.Time
func tsTime(ts float64) time.Time {
	sec, frac := math.Modf(ts)
	return time.Unix(int64(sec), int64(frac*1e9))
}
