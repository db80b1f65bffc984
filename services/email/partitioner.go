package email

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/samber/mo"

	"slackdigest/core"
	"slackdigest/models"
	"slackdigest/services/renderer"
	"slackdigest/utils"
)

const (
	// DefaultMaxEmailSize is the byte ceiling one rendered email may occupy
	DefaultMaxEmailSize = 64000

	// defaultHeaderAllowance is the fixed byte budget reserved for transport
	// headers on top of the serialized body
	defaultHeaderAllowance = 4500
)

// Partitioner splits an ordered message list into the minimum number of
// contiguous, even-sized parts such that every part's estimated email size
// stays under the ceiling, and threads the parts together as email replies.
type Partitioner struct {
	composer        *renderer.DigestComposer
	renderer        *renderer.MessageRenderer
	maxEmailSize    int
	headerAllowance int
}

// NewPartitioner creates a partitioner; maxEmailSize <= 0 selects the default
func NewPartitioner(composer *renderer.DigestComposer, msgRenderer *renderer.MessageRenderer, maxEmailSize int) *Partitioner {
	if maxEmailSize <= 0 {
		maxEmailSize = DefaultMaxEmailSize
	}
	return &Partitioner{
		composer:        composer,
		renderer:        msgRenderer,
		maxEmailSize:    maxEmailSize,
		headerAllowance: defaultHeaderAllowance,
	}
}

// RenderDigestEmails renders the messages into one or more email payloads,
// splitting into evenly-sized contiguous chunks until every chunk fits. The
// search is monotonic and always terminates: one message per part is the worst
// case, and if even that does not fit, splitting further cannot help.
//
// Threading is deterministic: each part gets a Message-ID derived from the
// digest date, every part after the first replies to its predecessor, and the
// first part replies to the previous day's last part - computed without the
// previous day's run ever having happened.
func (p *Partitioner) RenderDigestEmails(
	ctx context.Context,
	msgs []models.Message,
	tc models.ThreadContext,
) ([]models.RenderedPart, error) {
	if len(msgs) == 0 {
		return nil, fmt.Errorf("cannot render digest emails: %w", core.ErrEmptyDigest)
	}

	var parts []models.RenderedPart
	for numParts := 1; ; numParts++ {
		if numParts > len(msgs) {
			return nil, fmt.Errorf(
				"a single message does not fit the %d byte limit: %w",
				p.maxEmailSize, core.ErrPartitionInfeasible,
			)
		}

		rendered, err := p.renderParts(ctx, msgs, numParts)
		if err != nil {
			return nil, err
		}
		if p.allWithinLimit(rendered) {
			parts = rendered
			break
		}
	}

	for i := range parts {
		parts[i].SetHeader("Message-ID", tc.PartMessageID(i, len(parts)))
		if i == 0 {
			parts[i].SetHeader("In-Reply-To", tc.FirstInReplyTo())
		} else {
			parts[i].SetHeader("In-Reply-To", tc.PartMessageID(i-1, len(parts)))
		}
	}

	return parts, nil
}

// EstimateEmailSize is the byte estimate for one part: the serialized
// multipart body plus the fixed header allowance
func (p *Partitioner) EstimateEmailSize(part *models.RenderedPart) int {
	return len(part.MultipartBody()) + p.headerAllowance
}

func (p *Partitioner) allWithinLimit(parts []models.RenderedPart) bool {
	for i := range parts {
		if p.EstimateEmailSize(&parts[i]) > p.maxEmailSize {
			return false
		}
	}
	return true
}

func (p *Partitioner) renderParts(ctx context.Context, msgs []models.Message, numParts int) ([]models.RenderedPart, error) {
	chunks := evenChunks(msgs, numParts)
	parts := make([]models.RenderedPart, 0, numParts)
	for i, chunk := range chunks {
		part, err := p.renderPart(ctx, chunk, i, numParts)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}
	return parts, nil
}

func (p *Partitioner) renderPart(ctx context.Context, msgs []models.Message, part, parts int) (models.RenderedPart, error) {
	header, err := p.renderer.RenderHeaderText(msgs, part, parts, mo.None[time.Time]())
	if err != nil {
		return models.RenderedPart{}, err
	}
	// subjects travel through transport headers untouched, so they must
	// already be 7-bit clean when they reach this point
	if !isASCII(header) {
		return models.RenderedPart{}, fmt.Errorf("subject contains non-transportable characters: %q", header)
	}

	html, err := p.composer.RenderDigest(ctx, msgs, part, parts, mo.None[time.Time]())
	if err != nil {
		return models.RenderedPart{}, err
	}

	return models.RenderedPart{
		Subject: header,
		// the header text doubles as the plain-text fallback: mail clients use
		// it for the snippet and it costs almost nothing
		TextBody: header,
		HTMLBody: xmlCharRefReplace(html),
	}, nil
}

// evenChunks splits msgs into n contiguous chunks of as-equal-as-possible
// size, with chunk boundary i at round(i*len/n)
func evenChunks(msgs []models.Message, n int) [][]models.Message {
	utils.AssertInvariant(n > 0, "chunk count must be positive")

	chunks := make([][]models.Message, 0, n)
	last := 0
	for i := 1; i <= n; i++ {
		cur := int(math.Round(float64(i) * float64(len(msgs)) / float64(n)))
		chunks = append(chunks, msgs[last:cur])
		last = cur
	}
	return chunks
}

// xmlCharRefReplace substitutes every character outside the 7-bit range with
// its numeric XML character reference, so downstream transport never deals
// with multi-byte encoding
func xmlCharRefReplace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r > unicode.MaxASCII {
			fmt.Fprintf(&b, "&#%d;", r)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}
