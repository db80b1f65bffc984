package delivery

import (
	"context"
	"fmt"
	"io"
	"os"

	"slackdigest/models"
)

// ConsoleSink prints rendered parts to a writer. The default output for quick
// inspection of a digest without sending anything anywhere.
type ConsoleSink struct {
	w io.Writer
}

// NewConsoleSink creates a sink printing to stdout
func NewConsoleSink() *ConsoleSink {
	return &ConsoleSink{w: os.Stdout}
}

// Deliver implements clients.DeliverySink
func (s *ConsoleSink) Deliver(_ context.Context, part *models.RenderedPart) error {
	if _, err := fmt.Fprintf(s.w, "Subject: %s\n\n%s\n", part.Subject, part.HTMLBody); err != nil {
		return fmt.Errorf("failed to print digest part: %w", err)
	}
	return nil
}
