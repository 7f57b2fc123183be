package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/supportops/zendesk-shift-report/internal/config"
	"github.com/supportops/zendesk-shift-report/internal/logging"
	"github.com/supportops/zendesk-shift-report/internal/models"
	"github.com/supportops/zendesk-shift-report/internal/reporter"
	"github.com/supportops/zendesk-shift-report/internal/slack"
	"github.com/supportops/zendesk-shift-report/internal/zendesk"
)

// Version information - these will be set at build time via ldflags
var (
	Version   = "dev"     // Version number
	GitCommit = "unknown" // Git commit hash
	BuildDate = "unknown" // Build date
)

func main() {
	// Parse command line flags
	cfg := config.ParseFlags()

	// Check for version flag before other validation
	if cfg.ShowVersion {
		printVersion()
		os.Exit(0)
	}

	runID := uuid.NewString()
	logger := logging.NewLogger(cfg.LogFormat, cfg.Verbose, nil, Version, runID)

	// Validate configuration before touching the network
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("configuration error")
	}

	ctx := context.Background()

	// Load shift rules
	rules, err := config.LoadRules(cfg.RulesFile)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load shift rules")
	}
	if err := rules.Validate(cfg.Region); err != nil {
		logger.Fatal().Err(err).Msg("invalid shift rules")
	}

	zd := zendesk.NewClient(cfg.Zendesk, rules.CustomFields, logger)
	zd.SetPageSize(cfg.Scan.PageSize)

	// Check connections mode
	if cfg.CheckConnections {
		if err := checkConnections(ctx, cfg, zd, logger); err != nil {
			logger.Error().Err(err).Msg("connection check failed")
			os.Exit(1)
		}
		fmt.Println("All connections successful!")
		os.Exit(0)
	}

	sink := slack.NewClient(cfg.Slack)

	r := reporter.New(cfg, rules, zd, sink, runID, logger)

	stats, err := r.Run(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("shift report run failed")
		os.Exit(1)
	}

	if cfg.Stats || cfg.Verbose {
		printRunStats(stats, logger)
	}
}

func printVersion() {
	fmt.Printf("Zendesk Shift Report\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Git Commit: %s\n", GitCommit)
	fmt.Printf("Build Date: %s\n", BuildDate)
}

func checkConnections(ctx context.Context, cfg *config.Config, zd *zendesk.Client, logger zerolog.Logger) error {
	logger.Info().Msg("checking connections...")

	logger.Info().Msg("testing Zendesk API access...")
	if err := zd.CheckConnection(ctx); err != nil {
		return fmt.Errorf("zendesk connection failed: %w", err)
	}
	logger.Info().Msg("Zendesk API access successful")

	if cfg.Slack.WebhookURL != "" {
		logger.Info().Msg("testing Slack webhook...")
		if err := slack.TestWebhook(ctx, cfg.Slack.WebhookURL); err != nil {
			return fmt.Errorf("slack webhook test failed: %w", err)
		}
		logger.Info().Msg("Slack webhook test successful")
	}

	return nil
}

func printRunStats(stats *models.RunStats, logger zerolog.Logger) {
	logger.Info().
		Int("pages_fetched", stats.PagesFetched).
		Int("tickets_scanned", stats.TicketsScanned).
		Int("throttles", stats.Throttles).
		Int("errors", stats.Errors).
		Dur("duration", stats.Duration).
		Msg("run_completed")

	// Also print human-readable format for console output
	fmt.Printf("\n=== Run Statistics ===\n")
	fmt.Printf("Pages fetched: %d\n", stats.PagesFetched)
	fmt.Printf("Tickets scanned: %d\n", stats.TicketsScanned)
	fmt.Printf("Throttled fetches: %d\n", stats.Throttles)
	fmt.Printf("New this shift: %d\n", stats.NewTickets)
	fmt.Printf("SLA pending (high): %d\n", stats.SLAHigh)
	fmt.Printf("SLA pending (low): %d\n", stats.SLALow)
	fmt.Printf("Aged: %d\n", stats.Aged)
	fmt.Printf("Pending handoff: %d\n", stats.Handoff)
	fmt.Printf("Community open: %d\n", stats.Community)
	fmt.Printf("Errors: %d\n", stats.Errors)
	fmt.Printf("Duration: %s\n", stats.Duration)
}
