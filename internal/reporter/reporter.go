package reporter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/supportops/zendesk-shift-report/internal/aggregate"
	"github.com/supportops/zendesk-shift-report/internal/classify"
	"github.com/supportops/zendesk-shift-report/internal/config"
	"github.com/supportops/zendesk-shift-report/internal/identity"
	"github.com/supportops/zendesk-shift-report/internal/models"
	"github.com/supportops/zendesk-shift-report/internal/report"
	"github.com/supportops/zendesk-shift-report/internal/scanner"
	"github.com/supportops/zendesk-shift-report/internal/shiftwindow"
)

// Source is the upstream ticket API surface the reporter consumes.
type Source interface {
	FetchPage(ctx context.Context, cursor string) (models.Page, error)
	ListUsers(ctx context.Context) (map[int64]string, error)
}

// Sink receives the finished report text.
type Sink interface {
	SendMessage(ctx context.Context, text string) error
}

// Reporter runs the whole batch job: compute the shift window, scan twice,
// aggregate, render, send. Strictly sequential; nothing survives the run.
type Reporter struct {
	cfg        *config.Config
	rules      config.Rules
	source     Source
	sink       Sink
	windows    *shiftwindow.Calculator
	classifier *classify.Classifier
	log        zerolog.Logger
	runID      string

	// now is swappable for tests
	now func() time.Time
}

func New(cfg *config.Config, rules config.Rules, source Source, sink Sink, runID string, log zerolog.Logger) *Reporter {
	return &Reporter{
		cfg:        cfg,
		rules:      rules,
		source:     source,
		sink:       sink,
		windows:    shiftwindow.NewCalculator(rules.Regions),
		classifier: classify.New(rules),
		log:        log,
		runID:      runID,
		now:        time.Now,
	}
}

func (r *Reporter) Run(ctx context.Context) (*models.RunStats, error) {
	start := r.now()
	stats := &models.RunStats{}
	defer func() { stats.Duration = time.Since(start) }()

	window, err := r.windows.WindowFor(r.cfg.Region, start)
	if err != nil {
		return stats, fmt.Errorf("failed to compute shift window: %w", err)
	}
	r.log.Info().
		Str("region", r.cfg.Region).
		Time("window_start", window.Start).
		Time("window_end", window.End).
		Msg("starting shift report run")

	// The directory is best effort: a broken user API must not cost us the
	// report, only the pretty names.
	directory := identity.Build(ctx, r.source, r.log)

	// Scan A: enumerate tickets created inside the shift window.
	windowSet := aggregate.NewWindowSet(window)
	sc := scanner.New(r.source.FetchPage, r.cfg.Scan, r.log.With().Str("scan", "window").Logger())
	resA, err := sc.Scan(ctx, scanner.WindowStop{Start: window.Start}, windowSet)
	r.applyScanResult(stats, resA)
	if err != nil {
		return stats, fmt.Errorf("window scan failed: %w", err)
	}

	roster := r.rules.Regions[r.cfg.Region].Roster
	breakdown := aggregate.BreakdownByRoster(windowSet.Tickets(), roster, directory.Resolve, r.rules.RosterChannel)

	// Scan B: classify the current queue state down to the lookback horizon.
	buckets := aggregate.NewBuckets(r.classifier, start)
	horizon := time.Duration(r.rules.LookbackDays) * 24 * time.Hour
	sc = scanner.New(r.source.FetchPage, r.cfg.Scan, r.log.With().Str("scan", "classify").Logger())
	resB, err := sc.Scan(ctx, scanner.NewHorizonStop(start, horizon), buckets)
	r.applyScanResult(stats, resB)
	if err != nil {
		return stats, fmt.Errorf("classification scan failed: %w", err)
	}

	stats.NewTickets = windowSet.Count()
	stats.SLAHigh = buckets.Count(models.TagSLAHigh)
	stats.SLALow = buckets.Count(models.TagSLALow)
	stats.Aged = buckets.Count(models.TagAged)
	stats.Handoff = buckets.Count(models.TagHandoff)
	stats.Community = buckets.Count(models.TagCommunity)

	text := report.Render(report.Data{
		Region:        r.cfg.Region,
		Window:        window,
		RunID:         r.runID,
		NewCount:      windowSet.Count(),
		Roster:        breakdown,
		SLAHigh:       stats.SLAHigh,
		SLALow:        stats.SLALow,
		Aged:          buckets.AgedOrdered(),
		Handoff:       buckets.Details(models.TagHandoff),
		Community:     stats.Community,
		RosterChannel: r.rules.RosterChannel,
		HighPairLabel: strings.Join(r.rules.HighTierPair, "/"),
		LowPairLabel:  strings.Join(r.rules.LowTierPair, "/"),
	}, directory)

	if r.cfg.DryRun {
		r.log.Info().Msg("dry run, not posting report")
		fmt.Println(text)
		return stats, nil
	}

	if err := r.sink.SendMessage(ctx, text); err != nil {
		stats.Errors++
		return stats, fmt.Errorf("failed to post report: %w", err)
	}
	r.log.Info().Msg("report posted")

	return stats, nil
}

func (r *Reporter) applyScanResult(stats *models.RunStats, res scanner.Result) {
	stats.PagesFetched += res.Pages
	stats.TicketsScanned += res.Tickets
	stats.Throttles += res.Throttles
	if res.CursorLoop || res.OrderBroken {
		stats.Errors++
	}
}
