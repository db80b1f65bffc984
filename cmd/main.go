package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jessevdk/go-flags"

	"slackdigest/clients"
	"slackdigest/clients/delivery"
	"slackdigest/clients/shortener"
	slackclient "slackdigest/clients/slack"
	"slackdigest/config"
	"slackdigest/usecases/digest"
)

type Options struct {
	Channel string  `short:"c" long:"channel"  description:"Channel to export"                           default:"general"`
	StartTS float64 `short:"s" long:"start-ts" description:"UTC timestamp of the first message to include. Defaults to the start of yesterday in the local timezone."`
	EndTS   float64 `short:"e" long:"end-ts"   description:"UTC timestamp of the last message to include. Defaults to 1 day after --start-ts."`
	OutDir  string  `short:"o" long:"out-dir"  description:"Directory digest part files are written to"  default:"."`
	Deliver string  `short:"d" long:"deliver"  description:"Delivery method: console, file, smtp or postmark" default:"console"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid TIMEZONE %q: %v\n", cfg.Timezone, err)
		os.Exit(1)
	}

	// Default window: the whole of yesterday in the local timezone
	if opts.StartTS == 0 {
		yesterday := time.Now().AddDate(0, 0, -1)
		start := time.Date(yesterday.Year(), yesterday.Month(), yesterday.Day(), 0, 0, 0, 0, time.Local)
		opts.StartTS = float64(start.Unix())
	}
	if opts.EndTS == 0 {
		opts.EndTS = opts.StartTS + 24*60*60
	}

	method, err := delivery.ParseMethod(opts.Deliver)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	sink, err := buildSink(method, opts, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	useCase := digest.NewDigestUseCase(
		slackclient.NewClient(cfg.SlackToken),
		shortener.NewShortener(cfg.ShortenerCacheFile, ""),
		sink,
		digest.Options{
			RedactedAuthors: cfg.RedactedAuthors,
			Location:        loc,
			MaxEmailSize:    cfg.MaxEmailSize,
			ChannelLiveLink: cfg.ChannelLiveLink,
			InviteLink:      cfg.InviteLink,
		},
	)

	err = useCase.Run(context.Background(), digest.RunParams{
		ChannelName: opts.Channel,
		OldestTS:    opts.StartTS,
		LatestTS:    opts.EndTS,
		Date:        time.Unix(int64(opts.StartTS), 0).In(loc),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running digest: %v\n", err)
		os.Exit(1)
	}
}

// buildSink selects the delivery mechanism by explicit enum dispatch
func buildSink(method delivery.Method, opts Options, cfg *config.AppConfig) (clients.DeliverySink, error) {
	switch method {
	case delivery.MethodConsole:
		return delivery.NewConsoleSink(), nil
	case delivery.MethodFile:
		return delivery.NewFileSink(opts.OutDir, "digest"), nil
	case delivery.MethodSMTP:
		if !cfg.SMTPConfig.IsConfigured() {
			return nil, fmt.Errorf("SMTP delivery requested but not fully configured")
		}
		return delivery.NewSMTPSink(delivery.SMTPConfig{
			Host:         cfg.SMTPConfig.Host,
			Port:         cfg.SMTPConfig.Port,
			Username:     cfg.SMTPConfig.Username,
			Password:     cfg.SMTPConfig.Password,
			From:         cfg.SMTPConfig.From,
			To:           cfg.SMTPConfig.To,
			MaxEmailSize: cfg.MaxEmailSize,
		}), nil
	case delivery.MethodPostmark:
		if !cfg.PostmarkConfig.IsConfigured() {
			return nil, fmt.Errorf("postmark delivery requested but not fully configured")
		}
		return delivery.NewPostmarkSink(delivery.PostmarkConfig{
			ServerToken:  cfg.PostmarkConfig.ServerToken,
			AccountToken: cfg.PostmarkConfig.AccountToken,
			From:         cfg.PostmarkConfig.From,
			To:           cfg.PostmarkConfig.To,
			Tag:          "slack-digest",
		}), nil
	default:
		return nil, fmt.Errorf("unknown delivery method %q", method)
	}
}
