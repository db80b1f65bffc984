package models

import (
	"fmt"
	"time"

	"github.com/samber/mo"
)

// ThreadContext carries everything needed to thread a digest's parts as email
// replies: the digest date plus the team and channel the messages came from.
// Message-IDs are pure functions of these fields, so re-running the same day
// produces byte-identical ids and the next day's run can reference today's
// last part without any persisted state.
type ThreadContext struct {
	Date      time.Time
	TeamID    string
	ChannelID string

	// ReplyTo, when present, overrides the derived previous-day reference for
	// the first part's In-Reply-To header.
	ReplyTo mo.Option[string]
}

// MessageID returns the deterministic Message-ID for a part slug
func (tc ThreadContext) MessageID(slug string) string {
	return fmt.Sprintf("<digest-%s-%s@%s.%s.slack-email-digest.com>",
		tc.Date.Format("20060102"), slug, tc.TeamID, tc.ChannelID)
}

// PartMessageID returns the Message-ID for part i of total. The final part is
// always labeled "last" so the next day's digest can reference it knowing
// nothing about how many parts today's digest was split into.
func (tc ThreadContext) PartMessageID(i, total int) string {
	if i == total-1 {
		return tc.MessageID("last")
	}
	return tc.MessageID(fmt.Sprintf("part%d", i))
}

// FirstInReplyTo returns the id the digest's first part should reply to:
// the explicit override when supplied, otherwise the previous day's "last" id.
func (tc ThreadContext) FirstInReplyTo() string {
	if tc.ReplyTo.IsPresent() {
		return tc.ReplyTo.MustGet()
	}
	prev := ThreadContext{Date: tc.Date.AddDate(0, 0, -1), TeamID: tc.TeamID, ChannelID: tc.ChannelID}
	return prev.MessageID("last")
}
