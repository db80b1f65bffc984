package models

// MessageSubtype identifies the special rendering cases a Slack message may carry
type MessageSubtype string

const (
	SubtypeNone         MessageSubtype = ""
	SubtypeChannelJoin  MessageSubtype = "channel_join"
	SubtypeFileShare    MessageSubtype = "file_share"
	SubtypeChannelTopic MessageSubtype = "channel_topic"
	SubtypeFileComment  MessageSubtype = "file_comment"
)

// announcementSubtypes are never redacted regardless of author
var announcementSubtypes = map[MessageSubtype]bool{
	SubtypeChannelJoin:  true,
	SubtypeFileShare:    true,
	SubtypeChannelTopic: true,
}

// IsAnnouncement returns true for subtypes that are exempt from author redaction
func (s MessageSubtype) IsAnnouncement() bool {
	return announcementSubtypes[s]
}

// Message is one Slack message within the export window. TS is fractional
// seconds since the epoch and is the sole order key - comparisons are always
// numeric, never string.
type Message struct {
	TS          float64        `json:"ts"`
	UserID      string         `json:"user,omitempty"`
	BotID       string         `json:"bot_id,omitempty"`
	Username    string         `json:"username,omitempty"`
	Text        string         `json:"text"`
	Subtype     MessageSubtype `json:"subtype,omitempty"`
	Reactions   []Reaction     `json:"reactions,omitempty"`
	Attachments []Attachment   `json:"attachments,omitempty"`
	File        *FileInfo      `json:"file,omitempty"`
	Comment     *FileComment   `json:"comment,omitempty"`

	// AuthorOverride replaces author lookup entirely. It is set when a message
	// unfurl is re-rendered as a quoted fragment through the normal render path.
	AuthorOverride string `json:"-"`
}

// Reaction is one emoji reaction with the users who added it
type Reaction struct {
	Name    string   `json:"name"`
	UserIDs []string `json:"users"`
}

// Attachment is one message attachment. TS and AuthorSubname are only set on
// message unfurls, which recurse into the message renderer as quoted fragments.
type Attachment struct {
	Title         string   `json:"title,omitempty"`
	TitleLink     string   `json:"title_link,omitempty"`
	Text          string   `json:"text,omitempty"`
	MarkdownIn    []string `json:"mrkdwn_in,omitempty"`
	ImageURL      string   `json:"image_url,omitempty"`
	ImageWidth    int      `json:"image_width,omitempty"`
	ImageHeight   int      `json:"image_height,omitempty"`
	ServiceName   string   `json:"service_name,omitempty"`
	ServiceIcon   string   `json:"service_icon,omitempty"`
	IsMsgUnfurl   bool     `json:"is_msg_unfurl,omitempty"`
	TS            float64  `json:"ts,omitempty"`
	AuthorSubname string   `json:"author_subname,omitempty"`
}

// IsMarkdownEnabled reports whether the named attachment field was declared
// markdown-enabled by the posting service
func (a *Attachment) IsMarkdownEnabled(field string) bool {
	for _, f := range a.MarkdownIn {
		if f == field {
			return true
		}
	}
	return false
}

// FileInfo describes a shared file on a file_share message
type FileInfo struct {
	Title     string     `json:"title,omitempty"`
	Name      string     `json:"name,omitempty"`
	Preview   string     `json:"preview,omitempty"`
	URL       string     `json:"url_private,omitempty"`
	Reactions []Reaction `json:"reactions,omitempty"`
}

// FileComment carries the nested commenter of a file_comment message
type FileComment struct {
	UserID string `json:"user"`
	Text   string `json:"comment,omitempty"`
}
