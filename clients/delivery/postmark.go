package delivery

import (
	"context"
	"fmt"
	"log"

	"github.com/mrz1836/postmark"

	"slackdigest/models"
)

// PostmarkConfig carries the transactional-API credentials and addressing
type PostmarkConfig struct {
	ServerToken  string
	AccountToken string
	From         string
	To           string
	Tag          string
}

// postmarkAPI is the slice of the Postmark client the sink uses; narrowed so
// tests can substitute it
type postmarkAPI interface {
	SendEmail(ctx context.Context, email postmark.Email) (postmark.EmailResponse, error)
}

// PostmarkSink sends rendered parts through the Postmark transactional API,
// carrying the threading headers along
type PostmarkSink struct {
	client postmarkAPI
	cfg    PostmarkConfig
}

// NewPostmarkSink creates a Postmark sink
func NewPostmarkSink(cfg PostmarkConfig) *PostmarkSink {
	return &PostmarkSink{
		client: postmark.NewClient(cfg.ServerToken, cfg.AccountToken),
		cfg:    cfg,
	}
}

// Deliver implements clients.DeliverySink
func (s *PostmarkSink) Deliver(ctx context.Context, part *models.RenderedPart) error {
	headers := make([]postmark.Header, 0, len(part.CustomHeaders))
	for _, h := range part.CustomHeaders {
		headers = append(headers, postmark.Header{Name: h.Key, Value: h.Value})
	}

	resp, err := s.client.SendEmail(ctx, postmark.Email{
		From:     s.cfg.From,
		To:       s.cfg.To,
		Subject:  part.Subject,
		HTMLBody: part.HTMLBody,
		TextBody: part.TextBody,
		Tag:      s.cfg.Tag,
		Headers:  headers,
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if resp.ErrorCode > 0 {
		return fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message)
	}

	log.Printf("📧 Sent %q to %s via Postmark", part.Subject, s.cfg.To)
	return nil
}
