package slack

import (
	"context"
	"fmt"

	"github.com/samber/mo"

	"slackdigest/core"
	"slackdigest/models"
)

// MockSlackClient implements the SlackHistoryClient interface for testing
type MockSlackClient struct {
	// Workspace metadata
	MockGetTeamID    func(ctx context.Context) (string, error)
	MockGetChannelID func(ctx context.Context, channelName string) (string, error)

	// Directory lookups
	MockGetUserName       func(ctx context.Context, userID string) (string, error)
	MockGetChannelName    func(ctx context.Context, channelID string) (string, error)
	MockGetBotName        func(ctx context.Context, botID string) (string, error)
	MockGetCustomEmojiURL func(ctx context.Context, shortcode string) (mo.Option[string], error)
	MockGetAvatarURLs     func(ctx context.Context) (map[string]string, error)

	// History
	MockGetChannelHistory func(ctx context.Context, channelID string, oldest, latest float64) ([]models.Message, error)
}

// NewMockSlackClient creates a new mock Slack client
func NewMockSlackClient() *MockSlackClient {
	return &MockSlackClient{}
}

// GetTeamID implements SlackHistoryClient for testing
func (m *MockSlackClient) GetTeamID(ctx context.Context) (string, error) {
	if m.MockGetTeamID != nil {
		return m.MockGetTeamID(ctx)
	}
	return "T123456789", nil
}

// GetChannelID implements SlackHistoryClient for testing
func (m *MockSlackClient) GetChannelID(ctx context.Context, channelName string) (string, error) {
	if m.MockGetChannelID != nil {
		return m.MockGetChannelID(ctx, channelName)
	}
	return "C123456789", nil
}

// GetUserName implements SlackHistoryClient for testing
func (m *MockSlackClient) GetUserName(ctx context.Context, userID string) (string, error) {
	if m.MockGetUserName != nil {
		return m.MockGetUserName(ctx, userID)
	}
	switch userID {
	case "U1":
		return "alice", nil
	case "U2":
		return "bob", nil
	}
	return "", fmt.Errorf("user %s: %w", userID, core.ErrNotFound)
}

// GetChannelName implements SlackHistoryClient for testing
func (m *MockSlackClient) GetChannelName(ctx context.Context, channelID string) (string, error) {
	if m.MockGetChannelName != nil {
		return m.MockGetChannelName(ctx, channelID)
	}
	if channelID == "C1" {
		return "general", nil
	}
	return "", fmt.Errorf("channel %s: %w", channelID, core.ErrNotFound)
}

// GetBotName implements SlackHistoryClient for testing
func (m *MockSlackClient) GetBotName(ctx context.Context, botID string) (string, error) {
	if m.MockGetBotName != nil {
		return m.MockGetBotName(ctx, botID)
	}
	if botID == "B1" {
		return "deploybot", nil
	}
	return "", fmt.Errorf("bot %s: %w", botID, core.ErrNotFound)
}

// GetCustomEmojiURL implements SlackHistoryClient for testing
func (m *MockSlackClient) GetCustomEmojiURL(ctx context.Context, shortcode string) (mo.Option[string], error) {
	if m.MockGetCustomEmojiURL != nil {
		return m.MockGetCustomEmojiURL(ctx, shortcode)
	}
	if shortcode == "partyparrot" {
		return mo.Some("https://emoji.example.com/partyparrot.gif"), nil
	}
	return mo.None[string](), nil
}

// GetAvatarURLs implements SlackHistoryClient for testing
func (m *MockSlackClient) GetAvatarURLs(ctx context.Context) (map[string]string, error) {
	if m.MockGetAvatarURLs != nil {
		return m.MockGetAvatarURLs(ctx)
	}
	return map[string]string{
		"alice": "https://avatars.example.com/alice_72.png",
		"bob":   "https://avatars.example.com/bob_72.png",
	}, nil
}

// GetChannelHistory implements SlackHistoryClient for testing
func (m *MockSlackClient) GetChannelHistory(
	ctx context.Context,
	channelID string,
	oldest, latest float64,
) ([]models.Message, error) {
	if m.MockGetChannelHistory != nil {
		return m.MockGetChannelHistory(ctx, channelID, oldest, latest)
	}
	return []models.Message{}, nil
}
