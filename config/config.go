package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	To       string
}

// IsConfigured returns true if all required SMTP configuration is present
func (c SMTPConfig) IsConfigured() bool {
	return c.Host != "" &&
		c.Username != "" &&
		c.Password != "" &&
		c.From != "" &&
		c.To != ""
	// Note: Port defaults to 587
}

type PostmarkConfig struct {
	ServerToken  string
	AccountToken string
	From         string
	To           string
}

// IsConfigured returns true if all required Postmark configuration is present
func (c PostmarkConfig) IsConfigured() bool {
	return c.ServerToken != "" &&
		c.AccountToken != "" &&
		c.From != "" &&
		c.To != ""
}

type AppConfig struct {
	// Core configuration (always required)
	SlackToken string

	// Rendering configuration
	Timezone        string   // Optional with default "UTC"
	RedactedAuthors []string // Optional with default ["mailclark"]
	ChannelLiveLink string   // Optional footer link to the live conversation
	InviteLink      string   // Optional footer invite link

	// Email sizing
	MaxEmailSize int // Optional with default 64000

	// URL shortener cache file
	ShortenerCacheFile string // Optional with default "shortened_url_cache.json"

	// Delivery configurations (grouped, each optional)
	SMTPConfig     SMTPConfig
	PostmarkConfig PostmarkConfig
}

func LoadConfig() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("⚠️ Could not load .env file, continuing with system env vars")
	}

	slackToken, err := getEnvRequired("SLACK_TOKEN")
	if err != nil {
		return nil, err
	}

	maxEmailSize, err := getEnvInt("MAX_EMAIL_SIZE", 64000)
	if err != nil {
		return nil, err
	}

	config := &AppConfig{
		SlackToken: slackToken,

		Timezone:        getEnvWithDefault("TIMEZONE", "UTC"),
		RedactedAuthors: splitAndTrim(getEnvWithDefault("REDACTED_AUTHORS", "mailclark")),
		ChannelLiveLink: getEnvWithDefault("CHANNEL_LIVE_LINK", ""),
		InviteLink:      getEnvWithDefault("INVITE_LINK", ""),

		MaxEmailSize: maxEmailSize,

		ShortenerCacheFile: getEnvWithDefault("SHORTENER_CACHE_FILE", "shortened_url_cache.json"),

		SMTPConfig: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getEnvWithDefault("SMTP_PORT", "587"),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     os.Getenv("SMTP_FROM"),
			To:       os.Getenv("SMTP_TO"),
		},

		PostmarkConfig: PostmarkConfig{
			ServerToken:  os.Getenv("POSTMARK_SERVER_TOKEN"),
			AccountToken: os.Getenv("POSTMARK_ACCOUNT_TOKEN"),
			From:         os.Getenv("POSTMARK_FROM"),
			To:           os.Getenv("POSTMARK_TO"),
		},
	}

	// Log which delivery mechanisms are configured
	if config.SMTPConfig.IsConfigured() {
		log.Printf("✅ SMTP delivery configured")
	} else {
		log.Printf("⚠️ SMTP delivery not configured - --deliver=smtp will be unavailable")
	}

	if config.PostmarkConfig.IsConfigured() {
		log.Printf("✅ Postmark delivery configured")
	} else {
		log.Printf("⚠️ Postmark delivery not configured - --deliver=postmark will be unavailable")
	}

	return config, nil
}

func getEnvRequired(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("%s is not set", key)
	}
	return value, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return parsed, nil
}

func splitAndTrim(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
