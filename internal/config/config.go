package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Zendesk
	Zendesk ZendeskConfig

	// Slack
	Slack SlackConfig

	// Scan behavior
	Scan ScanConfig

	// Shift rules
	RulesFile string
	Region    string

	// Operational
	DryRun           bool
	Verbose          bool
	LogFormat        string
	Stats            bool
	CheckConnections bool
	ShowVersion      bool
}

type ZendeskConfig struct {
	BaseURL  string
	Email    string
	APIToken string
	Timeout  time.Duration
}

type SlackConfig struct {
	WebhookURL    string
	Timeout       time.Duration
	RetryAttempts int
}

type ScanConfig struct {
	PageSize      int
	PageDelay     time.Duration
	MaxPages      int
	RetryAttempts int
	BackoffBase   time.Duration
	BackoffCap    time.Duration
}

func ParseFlags() *Config {
	cfg := &Config{}

	envFile := flag.String("env-file", "", "Path to .env file with credentials (optional)")

	// Zendesk flags - credentials come from the environment, never flags
	flag.StringVar(&cfg.Zendesk.BaseURL, "zendesk-url", "", "Zendesk base URL, e.g. https://example.zendesk.com (required)")
	flag.DurationVar(&cfg.Zendesk.Timeout, "zendesk-timeout", 30*time.Second, "Zendesk request timeout")

	// Slack flags
	flag.StringVar(&cfg.Slack.WebhookURL, "slack-webhook", "", "Slack webhook URL (required unless dry run)")
	flag.DurationVar(&cfg.Slack.Timeout, "slack-timeout", 10*time.Second, "Slack request timeout")
	flag.IntVar(&cfg.Slack.RetryAttempts, "slack-retry-attempts", 3, "Slack retry attempts")

	// Scan flags
	flag.IntVar(&cfg.Scan.PageSize, "page-size", 100, "Tickets per page")
	flag.DurationVar(&cfg.Scan.PageDelay, "page-delay", 250*time.Millisecond, "Delay between page fetches")
	flag.IntVar(&cfg.Scan.MaxPages, "max-pages", 200, "Hard ceiling on pages per scan")
	flag.IntVar(&cfg.Scan.RetryAttempts, "retry-attempts", 5, "Retry attempts per page on rate limiting")
	flag.DurationVar(&cfg.Scan.BackoffBase, "backoff-base", 500*time.Millisecond, "Base backoff when no Retry-After hint")
	flag.DurationVar(&cfg.Scan.BackoffCap, "backoff-cap", 30*time.Second, "Backoff ceiling")

	// Shift rules
	flag.StringVar(&cfg.RulesFile, "rules-file", "./shift-rules.yaml", "Path to YAML shift rules file")
	flag.StringVar(&cfg.Region, "region", "", "Active shift region key from the rules file (required)")

	// Operational flags
	flag.BoolVar(&cfg.DryRun, "dry-run", false, "Build the report but don't post it")
	flag.BoolVar(&cfg.Verbose, "verbose", false, "Enable verbose logging")
	flag.StringVar(&cfg.LogFormat, "log-format", "text", "Log format (text or json)")
	flag.BoolVar(&cfg.Stats, "stats", false, "Print run statistics at end")
	flag.BoolVar(&cfg.CheckConnections, "check-connections", false, "Test connections and exit")
	flag.BoolVar(&cfg.ShowVersion, "version", false, "Print version and exit")

	flag.Parse()

	cfg.loadEnv(*envFile)

	return cfg
}

// loadEnv pulls credentials from the environment, optionally seeded from a
// .env file. Flags win over environment for non-secret settings.
func (c *Config) loadEnv(envFile string) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading env file: %v\n", err)
			os.Exit(1)
		}
	} else {
		// Best effort: a local .env is optional
		_ = godotenv.Load()
	}

	c.Zendesk.Email = strings.TrimSpace(os.Getenv("ZENDESK_EMAIL"))
	c.Zendesk.APIToken = strings.TrimSpace(os.Getenv("ZENDESK_API_TOKEN"))

	if c.Zendesk.BaseURL == "" {
		c.Zendesk.BaseURL = strings.TrimSpace(os.Getenv("ZENDESK_URL"))
	}
	if c.Slack.WebhookURL == "" {
		c.Slack.WebhookURL = strings.TrimSpace(os.Getenv("SLACK_WEBHOOK_URL"))
	}
}

func (c *Config) Validate() error {
	if c.Zendesk.BaseURL == "" {
		return fmt.Errorf("--zendesk-url or ZENDESK_URL is required")
	}
	if !strings.HasPrefix(c.Zendesk.BaseURL, "http://") && !strings.HasPrefix(c.Zendesk.BaseURL, "https://") {
		return fmt.Errorf("--zendesk-url must include a scheme, e.g. https://example.zendesk.com")
	}
	if c.Zendesk.Email == "" {
		return fmt.Errorf("ZENDESK_EMAIL is required")
	}
	if c.Zendesk.APIToken == "" {
		return fmt.Errorf("ZENDESK_API_TOKEN is required")
	}
	if c.Slack.WebhookURL == "" && !c.DryRun && !c.CheckConnections {
		return fmt.Errorf("--slack-webhook or SLACK_WEBHOOK_URL is required")
	}
	if c.Region == "" && !c.CheckConnections {
		return fmt.Errorf("--region is required")
	}
	if c.Scan.PageSize < 1 || c.Scan.PageSize > 100 {
		return fmt.Errorf("--page-size must be 1-100")
	}
	if c.Scan.MaxPages < 1 {
		return fmt.Errorf("--max-pages must be positive")
	}
	if c.Scan.RetryAttempts < 1 {
		return fmt.Errorf("--retry-attempts must be positive")
	}
	return nil
}
