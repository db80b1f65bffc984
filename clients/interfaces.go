package clients

import (
	"context"

	"github.com/samber/mo"

	"slackdigest/models"
)

// Directory resolves opaque Slack ids to current display names. Lookup misses
// return errors wrapping core.ErrNotFound; the renderer treats those as fatal
// for the single message being rendered.
type Directory interface {
	GetUserName(ctx context.Context, userID string) (string, error)
	GetChannelName(ctx context.Context, channelID string) (string, error)
	GetBotName(ctx context.Context, botID string) (string, error)
	// GetCustomEmojiURL returns the image URL for a workspace emoji shortcode,
	// or None for shortcodes the workspace doesn't define.
	GetCustomEmojiURL(ctx context.Context, shortcode string) (mo.Option[string], error)
}

// SlackHistoryClient is the full message-source contract: directory lookups
// plus channel history and workspace metadata. The history it returns is in
// fetch order, not necessarily sorted; callers re-sort by timestamp.
type SlackHistoryClient interface {
	Directory

	GetTeamID(ctx context.Context) (string, error)
	GetChannelID(ctx context.Context, channelName string) (string, error)
	GetChannelHistory(ctx context.Context, channelID string, oldest, latest float64) ([]models.Message, error)
	// GetAvatarURLs returns display name -> avatar image URL for every known user
	GetAvatarURLs(ctx context.Context) (map[string]string, error)
}

// URLShortener shortens a URL. Caching and persistence are entirely the
// implementation's concern.
type URLShortener interface {
	Shorten(rawURL string) (string, error)
}

// DeliverySink consumes one rendered digest part at a time and is responsible
// for actual transport. The core has no knowledge of transport mechanics.
type DeliverySink interface {
	Deliver(ctx context.Context, part *models.RenderedPart) error
}
