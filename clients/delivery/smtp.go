package delivery

import (
	"context"
	"fmt"
	"log"
	"net/smtp"
	"strings"
	"time"

	"slackdigest/models"
)

// defaultSendPause spaces out consecutive sends so a provider's rate limiting
// doesn't reorder or drop parts
const defaultSendPause = 20 * time.Second

// SMTPConfig carries everything the SMTP sink needs to send
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	To       string

	// MaxEmailSize re-checks the final serialized message before sending;
	// <= 0 disables the check (the partitioner already bounded the estimate)
	MaxEmailSize int
	// SendPause overrides the pause between consecutive parts; 0 = default
	SendPause time.Duration
}

// SMTPSink sends each rendered part as one multipart/alternative email over
// SMTP with STARTTLS
type SMTPSink struct {
	cfg  SMTPConfig
	sent int
}

// NewSMTPSink creates an SMTP sink
func NewSMTPSink(cfg SMTPConfig) *SMTPSink {
	if cfg.SendPause == 0 {
		cfg.SendPause = defaultSendPause
	}
	return &SMTPSink{cfg: cfg}
}

// Deliver implements clients.DeliverySink. An oversized message is a hard
// failure: the receiving side is assumed to reject or mangle it, so there is
// no best-effort send.
func (s *SMTPSink) Deliver(_ context.Context, part *models.RenderedPart) error {
	message := s.assemble(part)
	if s.cfg.MaxEmailSize > 0 && len(message) > s.cfg.MaxEmailSize {
		return fmt.Errorf("message is %d bytes, exceeds size limit of %d", len(message), s.cfg.MaxEmailSize)
	}

	if s.sent > 0 {
		log.Printf("⏳ Pausing %s before sending next part", s.cfg.SendPause)
		time.Sleep(s.cfg.SendPause)
	}

	log.Printf("📧 Sending %q (%.2f kB) to %s", part.Subject, float64(len(message))/1024.0, s.cfg.To)
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	addr := s.cfg.Host + ":" + s.cfg.Port
	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{s.cfg.To}, []byte(message)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	s.sent++

	return nil
}

// assemble builds the full RFC 822 message: envelope headers, the part's
// custom threading headers, then the multipart body (which carries its own
// Content-Type line)
func (s *SMTPSink) assemble(part *models.RenderedPart) string {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", s.cfg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", part.Subject)
	for _, h := range part.CustomHeaders {
		fmt.Fprintf(&b, "%s: %s\r\n", h.Key, h.Value)
	}
	b.WriteString(part.MultipartBody())
	return b.String()
}
