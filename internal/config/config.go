package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`
	DBDSN    string `envconfig:"DB_DSN" default:"courts.db"`
	LogFile  string `envconfig:"LOG_FILE"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Upstream venue API
	UpstreamBaseURL string        `envconfig:"UPSTREAM_BASE_URL" default:"https://better-admin.org.uk/api/activities"`
	UpstreamTimeout time.Duration `envconfig:"UPSTREAM_TIMEOUT" default:"15s"`
	VenueSlug       string        `envconfig:"VENUE_SLUG" default:"sugden-sports-centre"`
	CategorySlugs   []string      `envconfig:"CATEGORY_SLUGS" default:"badminton-40min,badminton-60min"`
	VenueTimezone   string        `envconfig:"VENUE_TIMEZONE" default:"Europe/London"`
	LookaheadDays   int           `envconfig:"LOOKAHEAD_DAYS" default:"6"`
	FetchWorkers    int           `envconfig:"FETCH_WORKERS" default:"6"`

	RefreshInterval time.Duration `envconfig:"REFRESH_INTERVAL" default:"300s"`
	SubscribersFile string        `envconfig:"SUBSCRIBERS_FILE" default:"bot_config.toml"`
	ICSPath         string        `envconfig:"ICS_PATH" default:"data/courts.ics"`

	// Notification transport: console | telegram | webhook | amqp
	NotifyTransport    string `envconfig:"NOTIFY_TRANSPORT" default:"console"`
	TelegramBotToken   string `envconfig:"TELEGRAM_BOT_TOKEN"`
	NotifyWebhookURL   string `envconfig:"NOTIFY_WEBHOOK_URL"`
	NotifyWebhookToken string `envconfig:"NOTIFY_WEBHOOK_TOKEN"`
	AMQPURL            string `envconfig:"AMQP_URL"`
	AMQPExchange       string `envconfig:"AMQP_EXCHANGE" default:"courtwatch"`

	Location *time.Location `ignored:"true"`
}

// Load reads an optional .env file, then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("[config] could not read .env: %v", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	log.Printf("[config] HTTP_ADDR=%s DB_DSN=%s VENUE=%s CATEGORIES=%s TZ=%s REFRESH=%s TRANSPORT=%s",
		cfg.HTTPAddr, cfg.DBDSN, cfg.VenueSlug, strings.Join(cfg.CategorySlugs, ","),
		cfg.VenueTimezone, cfg.RefreshInterval, cfg.NotifyTransport)
	return cfg, nil
}

func (c *Config) validate() error {
	loc, err := time.LoadLocation(c.VenueTimezone)
	if err != nil {
		return fmt.Errorf("VENUE_TIMEZONE: %w", err)
	}
	c.Location = loc

	if strings.TrimSpace(c.VenueSlug) == "" {
		return errors.New("VENUE_SLUG must not be empty")
	}
	var cats []string
	for _, s := range c.CategorySlugs {
		if s = strings.TrimSpace(s); s != "" {
			cats = append(cats, s)
		}
	}
	if len(cats) == 0 {
		return errors.New("CATEGORY_SLUGS must list at least one category")
	}
	c.CategorySlugs = cats

	if c.LookaheadDays < 1 {
		return fmt.Errorf("LOOKAHEAD_DAYS must be positive (got %d)", c.LookaheadDays)
	}
	if c.FetchWorkers < 1 {
		return fmt.Errorf("FETCH_WORKERS must be positive (got %d)", c.FetchWorkers)
	}
	if c.RefreshInterval <= 0 {
		return fmt.Errorf("REFRESH_INTERVAL must be positive (got %s)", c.RefreshInterval)
	}

	c.NotifyTransport = strings.ToLower(strings.TrimSpace(c.NotifyTransport))
	switch c.NotifyTransport {
	case "console":
	case "telegram":
		if c.TelegramBotToken == "" {
			return errors.New("TELEGRAM_BOT_TOKEN is required for the telegram transport")
		}
	case "webhook":
		if c.NotifyWebhookURL == "" {
			return errors.New("NOTIFY_WEBHOOK_URL is required for the webhook transport")
		}
	case "amqp":
		if c.AMQPURL == "" {
			return errors.New("AMQP_URL is required for the amqp transport")
		}
	default:
		return fmt.Errorf("unknown NOTIFY_TRANSPORT %q", c.NotifyTransport)
	}
	return nil
}
