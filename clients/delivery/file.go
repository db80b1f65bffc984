package delivery

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"slackdigest/models"
)

// FileSink writes each rendered part as an HTML file named
// <prefix>-part<N>.html, numbered in delivery order
type FileSink struct {
	dir    string
	prefix string
	next   int
}

// NewFileSink creates a sink writing into dir; an empty prefix defaults to
// "digest"
func NewFileSink(dir, prefix string) *FileSink {
	if prefix == "" {
		prefix = "digest"
	}
	return &FileSink{dir: dir, prefix: prefix}
}

// Deliver implements clients.DeliverySink
func (s *FileSink) Deliver(_ context.Context, part *models.RenderedPart) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(s.dir, fmt.Sprintf("%s-part%d.html", s.prefix, s.next))
	if err := os.WriteFile(path, []byte(part.HTMLBody), 0o644); err != nil {
		return fmt.Errorf("failed to write digest part: %w", err)
	}
	s.next++

	log.Printf("💾 Wrote %s (%.2f kB)", path, float64(len(part.HTMLBody))/1024.0)
	return nil
}
