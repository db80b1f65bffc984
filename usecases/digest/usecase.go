package digest

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/gammazero/workerpool"

	"slackdigest/clients"
	"slackdigest/models"
	"slackdigest/services/email"
	"slackdigest/services/renderer"
)

// defaultAvatarWorkers bounds concurrent avatar-shortening requests
const defaultAvatarWorkers = 4

// RunParams selects what one digest run covers
type RunParams struct {
	ChannelName string
	// OldestTS is inclusive, LatestTS exclusive, fractional epoch seconds
	OldestTS float64
	LatestTS float64
	// Date is the digest date the threading ids derive from
	Date time.Time
}

// Options tunes a digest use case; zero values select defaults
type Options struct {
	RedactedAuthors []string
	Location        *time.Location
	MaxEmailSize    int
	ChannelLiveLink string
	InviteLink      string
	AvatarWorkers   int
}

// DigestUseCase orchestrates one digest run: fetch the channel history, sort
// it, render and partition it, and hand each part to the delivery sink in
// order. The shortener is optional; without one avatars keep their full URLs.
type DigestUseCase struct {
	slackClient clients.SlackHistoryClient
	shortener   clients.URLShortener
	sink        clients.DeliverySink
	opts        Options
}

// NewDigestUseCase creates a digest use case
func NewDigestUseCase(
	slackClient clients.SlackHistoryClient,
	shortener clients.URLShortener,
	sink clients.DeliverySink,
	opts Options,
) *DigestUseCase {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.AvatarWorkers <= 0 {
		opts.AvatarWorkers = defaultAvatarWorkers
	}
	return &DigestUseCase{
		slackClient: slackClient,
		shortener:   shortener,
		sink:        sink,
		opts:        opts,
	}
}

// Run exports one channel's window as a digest and delivers every part.
// Partition-level failures abort the whole run; per-message render failures
// were already isolated during composition.
func (u *DigestUseCase) Run(ctx context.Context, params RunParams) error {
	channelID, err := u.slackClient.GetChannelID(ctx, params.ChannelName)
	if err != nil {
		return fmt.Errorf("failed to resolve channel %q: %w", params.ChannelName, err)
	}

	msgs, err := u.slackClient.GetChannelHistory(ctx, channelID, params.OldestTS, params.LatestTS)
	if err != nil {
		return fmt.Errorf("failed to fetch channel history: %w", err)
	}
	// the source returns fetch order; everything downstream requires
	// ascending numeric timestamps and never re-sorts
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].TS < msgs[j].TS })
	log.Printf("📋 Fetched %d messages from #%s", len(msgs), params.ChannelName)

	teamID, err := u.slackClient.GetTeamID(ctx)
	if err != nil {
		return fmt.Errorf("failed to get team id: %w", err)
	}

	avatars, err := u.loadAvatars(ctx)
	if err != nil {
		return fmt.Errorf("failed to load avatars: %w", err)
	}

	transpiler := renderer.NewTranspiler(u.slackClient)
	msgRenderer := renderer.NewMessageRenderer(transpiler, u.slackClient)
	msgRenderer.SetAvatars(avatars)
	msgRenderer.SetLocation(u.opts.Location)
	if len(u.opts.RedactedAuthors) > 0 {
		msgRenderer.SetRedactedAuthors(u.opts.RedactedAuthors)
	}
	composer := renderer.NewDigestComposer(msgRenderer)
	composer.SetLinks(u.opts.ChannelLiveLink, u.opts.InviteLink)
	partitioner := email.NewPartitioner(composer, msgRenderer, u.opts.MaxEmailSize)

	tc := models.ThreadContext{
		Date:      params.Date,
		TeamID:    teamID,
		ChannelID: channelID,
	}
	parts, err := partitioner.RenderDigestEmails(ctx, msgs, tc)
	if err != nil {
		return fmt.Errorf("failed to render digest emails: %w", err)
	}

	for i := range parts {
		log.Printf("📤 Delivering part %d of %d: %q (%.2f kB)",
			i+1, len(parts), parts[i].Subject, float64(len(parts[i].HTMLBody))/1024.0)
		if err := u.sink.Deliver(ctx, &parts[i]); err != nil {
			return fmt.Errorf("failed to deliver part %d of %d: %w", i+1, len(parts), err)
		}
	}

	log.Printf("✅ Digest run complete - %d part(s) delivered", len(parts))
	return nil
}

// loadAvatars fetches every user's avatar URL and shortens them through a
// bounded worker pool. A failed shorten keeps the full URL - avatars are
// cosmetic and never block a run.
func (u *DigestUseCase) loadAvatars(ctx context.Context) (map[string]string, error) {
	avatarURLs, err := u.slackClient.GetAvatarURLs(ctx)
	if err != nil {
		return nil, err
	}
	if u.shortener == nil {
		return avatarURLs, nil
	}

	shortened := make(map[string]string, len(avatarURLs))
	var mu sync.Mutex
	wp := workerpool.New(u.opts.AvatarWorkers)
	for name, avatarURL := range avatarURLs {
		name, avatarURL := name, avatarURL
		wp.Submit(func() {
			short, err := u.shortener.Shorten(avatarURL)
			if err != nil {
				log.Printf("⚠️ Failed to shorten avatar URL for %s: %v", name, err)
				short = avatarURL
			}
			mu.Lock()
			shortened[name] = short
			mu.Unlock()
		})
	}
	wp.StopWait()

	return shortened, nil
}
