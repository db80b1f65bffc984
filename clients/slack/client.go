package slack

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/samber/mo"
	"github.com/slack-go/slack"

	"slackdigest/core"
	"slackdigest/models"
)

// defaultRequestPause is how long to wait between paginated history calls so
// we stay clear of the Slack API rate limits.
const defaultRequestPause = 500 * time.Millisecond

// Client implements the clients.SlackHistoryClient interface using the
// slack-go/slack SDK. The user, channel and emoji directories are fetched once
// on first use and memoized for the lifetime of the client; bot names are
// memoized per id since they require one API call each.
type Client struct {
	api          *slack.Client
	requestPause time.Duration

	mu             sync.Mutex
	usersByID      map[string]slack.User
	channelsByID   map[string]string
	channelsByName map[string]string
	emojis         map[string]string
	botNames       map[string]string
	teamID         string
}

// NewClient creates a new Slack client with the provided auth token
func NewClient(authToken string) *Client {
	return &Client{
		api:          slack.New(authToken),
		requestPause: defaultRequestPause,
		botNames:     make(map[string]string),
	}
}

// GetTeamID returns the id of the team the auth token belongs to
func (c *Client) GetTeamID(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.teamID != "" {
		return c.teamID, nil
	}

	info, err := c.api.GetTeamInfoContext(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get team info: %w", err)
	}
	c.teamID = info.ID
	return c.teamID, nil
}

// GetUserName resolves a user id to the best available display name
func (c *Client) GetUserName(ctx context.Context, userID string) (string, error) {
	if err := c.ensureUsers(ctx); err != nil {
		return "", err
	}

	c.mu.Lock()
	user, ok := c.usersByID[userID]
	c.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("user %s: %w", userID, core.ErrNotFound)
	}
	return userDisplayName(user), nil
}

// GetChannelName resolves a channel id to its name
func (c *Client) GetChannelName(ctx context.Context, channelID string) (string, error) {
	if err := c.ensureChannels(ctx); err != nil {
		return "", err
	}

	c.mu.Lock()
	name, ok := c.channelsByID[channelID]
	c.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("channel %s: %w", channelID, core.ErrNotFound)
	}
	return name, nil
}

// GetChannelID resolves a channel name to its id
func (c *Client) GetChannelID(ctx context.Context, channelName string) (string, error) {
	if err := c.ensureChannels(ctx); err != nil {
		return "", err
	}

	c.mu.Lock()
	id, ok := c.channelsByName[channelName]
	c.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("channel %q: %w", channelName, core.ErrNotFound)
	}
	return id, nil
}

// GetBotName resolves a bot id to its name, memoizing per id
func (c *Client) GetBotName(ctx context.Context, botID string) (string, error) {
	c.mu.Lock()
	if name, ok := c.botNames[botID]; ok {
		c.mu.Unlock()
		return name, nil
	}
	c.mu.Unlock()

	bot, err := c.api.GetBotInfoContext(ctx, slack.GetBotInfoParameters{Bot: botID})
	if err != nil {
		return "", fmt.Errorf("bot %s: %w: %v", botID, core.ErrNotFound, err)
	}

	c.mu.Lock()
	c.botNames[botID] = bot.Name
	c.mu.Unlock()
	return bot.Name, nil
}

// GetCustomEmojiURL returns the image URL of a workspace emoji, or None when
// the workspace doesn't define the shortcode
func (c *Client) GetCustomEmojiURL(ctx context.Context, shortcode string) (mo.Option[string], error) {
	if err := c.ensureEmojis(ctx); err != nil {
		return mo.None[string](), err
	}

	c.mu.Lock()
	url, ok := c.emojis[shortcode]
	c.mu.Unlock()
	if !ok {
		return mo.None[string](), nil
	}
	return mo.Some(url), nil
}

// GetAvatarURLs returns display name -> avatar image URL for every known user
func (c *Client) GetAvatarURLs(ctx context.Context) (map[string]string, error) {
	if err := c.ensureUsers(ctx); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	avatars := make(map[string]string, len(c.usersByID))
	for _, user := range c.usersByID {
		if user.Profile.Image72 != "" {
			avatars[userDisplayName(user)] = user.Profile.Image72
		}
	}
	return avatars, nil
}

// GetChannelHistory fetches the channel's messages between oldest (inclusive)
// and latest (exclusive), paginating until exhausted. Messages are returned in
// fetch order; callers sort by timestamp before use.
func (c *Client) GetChannelHistory(
	ctx context.Context,
	channelID string,
	oldest, latest float64,
) ([]models.Message, error) {
	params := &slack.GetConversationHistoryParameters{
		ChannelID: channelID,
		Inclusive: true,
		Limit:     1000,
	}
	if oldest > 0 {
		params.Oldest = formatTS(oldest)
	}
	if latest > 0 {
		// back off a fraction to exclude a message right on the boundary
		params.Latest = formatTS(latest - 0.1)
	}

	var messages []models.Message
	for {
		resp, err := c.api.GetConversationHistoryContext(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("failed to get channel history: %w", err)
		}

		for _, msg := range resp.Messages {
			converted, err := convertMessage(msg)
			if err != nil {
				return nil, err
			}
			messages = append(messages, converted)
		}
		log.Printf("📥 Retrieved %d messages from channel %s", len(messages), channelID)

		if !resp.HasMore {
			break
		}
		params.Cursor = resp.ResponseMetaData.NextCursor
		time.Sleep(c.requestPause)
	}

	return messages, nil
}

// ensureUsers loads the user directory once
func (c *Client) ensureUsers(ctx context.Context) error {
	c.mu.Lock()
	loaded := c.usersByID != nil
	c.mu.Unlock()
	if loaded {
		return nil
	}

	users, err := c.api.GetUsersContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	byID := make(map[string]slack.User, len(users))
	for _, user := range users {
		byID[user.ID] = user
	}

	c.mu.Lock()
	c.usersByID = byID
	c.mu.Unlock()
	return nil
}

// ensureChannels loads the channel directory once, paginating the
// conversations list
func (c *Client) ensureChannels(ctx context.Context) error {
	c.mu.Lock()
	loaded := c.channelsByID != nil
	c.mu.Unlock()
	if loaded {
		return nil
	}

	byID := make(map[string]string)
	byName := make(map[string]string)
	params := &slack.GetConversationsParameters{
		ExcludeArchived: true,
		Limit:           1000,
		Types:           []string{"public_channel", "private_channel"},
	}
	for {
		channels, nextCursor, err := c.api.GetConversationsContext(ctx, params)
		if err != nil {
			return fmt.Errorf("failed to list channels: %w", err)
		}
		for _, ch := range channels {
			byID[ch.ID] = ch.Name
			byName[ch.Name] = ch.ID
		}
		if nextCursor == "" {
			break
		}
		params.Cursor = nextCursor
		time.Sleep(c.requestPause)
	}

	c.mu.Lock()
	c.channelsByID = byID
	c.channelsByName = byName
	c.mu.Unlock()
	return nil
}

// ensureEmojis loads the workspace emoji directory once
func (c *Client) ensureEmojis(ctx context.Context) error {
	c.mu.Lock()
	loaded := c.emojis != nil
	c.mu.Unlock()
	if loaded {
		return nil
	}

	emojis, err := c.api.GetEmojiContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to list emojis: %w", err)
	}

	c.mu.Lock()
	c.emojis = emojis
	c.mu.Unlock()
	return nil
}

// userDisplayName extracts the best available display name from a Slack user object
func userDisplayName(user slack.User) string {
	// Priority: DisplayName > RealName > Name > ID
	if user.Profile.DisplayName != "" {
		return user.Profile.DisplayName
	}
	if user.Profile.RealName != "" {
		return user.Profile.RealName
	}
	if user.Name != "" {
		return user.Name
	}
	return user.ID
}

// convertMessage maps an SDK message to our message record
func convertMessage(msg slack.Message) (models.Message, error) {
	ts, err := strconv.ParseFloat(msg.Timestamp, 64)
	if err != nil {
		return models.Message{}, fmt.Errorf("failed to parse message timestamp %q: %w", msg.Timestamp, err)
	}

	converted := models.Message{
		TS:       ts,
		UserID:   msg.User,
		BotID:    msg.BotID,
		Username: msg.Username,
		Text:     msg.Text,
		Subtype:  models.MessageSubtype(msg.SubType),
	}

	for _, reaction := range msg.Reactions {
		converted.Reactions = append(converted.Reactions, models.Reaction{
			Name:    reaction.Name,
			UserIDs: reaction.Users,
		})
	}

	for _, att := range msg.Attachments {
		attTS := 0.0
		if att.Ts != "" {
			if v, err := att.Ts.Float64(); err == nil {
				attTS = v
			}
		}
		converted.Attachments = append(converted.Attachments, models.Attachment{
			Title:       att.Title,
			TitleLink:   att.TitleLink,
			Text:        att.Text,
			MarkdownIn:  att.MarkdownIn,
			ImageURL:    att.ImageURL,
			ServiceName: att.ServiceName,
			ServiceIcon: att.ServiceIcon,
			// the SDK doesn't surface is_msg_unfurl; an attachment carrying
			// both a message timestamp and an author subname is an unfurl
			IsMsgUnfurl:   attTS > 0 && att.AuthorSubname != "",
			TS:            attTS,
			AuthorSubname: att.AuthorSubname,
		})
	}

	if len(msg.Files) > 0 {
		file := msg.Files[0]
		converted.File = &models.FileInfo{
			Title:   file.Title,
			Name:    file.Name,
			Preview: file.Preview,
			URL:     file.URLPrivate,
		}
	}

	if msg.Comment != nil {
		converted.Comment = &models.FileComment{
			UserID: msg.Comment.User,
			Text:   msg.Comment.Comment,
		}
	}

	return converted, nil
}

// formatTS renders a fractional epoch timestamp the way the Slack API expects
func formatTS(ts float64) string {
	return strconv.FormatFloat(ts, 'f', 6, 64)
}
