package clients

import (
	"context"

	"slackdigest/models"
)

// MockDeliverySink implements DeliverySink for testing, recording every part
// it is handed in order
type MockDeliverySink struct {
	MockDeliver func(ctx context.Context, part *models.RenderedPart) error

	Delivered []models.RenderedPart
}

// NewMockDeliverySink creates a new mock delivery sink
func NewMockDeliverySink() *MockDeliverySink {
	return &MockDeliverySink{}
}

// Deliver implements DeliverySink for testing
func (m *MockDeliverySink) Deliver(ctx context.Context, part *models.RenderedPart) error {
	if m.MockDeliver != nil {
		return m.MockDeliver(ctx, part)
	}
	m.Delivered = append(m.Delivered, *part)
	return nil
}

// MockURLShortener implements URLShortener for testing
type MockURLShortener struct {
	MockShorten func(rawURL string) (string, error)
}

// NewMockURLShortener creates a new mock URL shortener
func NewMockURLShortener() *MockURLShortener {
	return &MockURLShortener{}
}

// Shorten implements URLShortener for testing
func (m *MockURLShortener) Shorten(rawURL string) (string, error) {
	if m.MockShorten != nil {
		return m.MockShorten(rawURL)
	}
	return "https://short.example/x", nil
}
