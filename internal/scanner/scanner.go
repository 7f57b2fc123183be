package scanner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/supportops/zendesk-shift-report/internal/config"
	"github.com/supportops/zendesk-shift-report/internal/models"
)

// FetchFunc retrieves one page of tickets. An empty cursor requests the
// first page.
type FetchFunc func(ctx context.Context, cursor string) (models.Page, error)

// Accumulator receives every fetched ticket. Sizes feeds the per-page
// progress log and has no other contract.
type Accumulator interface {
	Add(t models.Ticket)
	Sizes() map[string]int
}

// Result summarizes one scan for run statistics.
type Result struct {
	Pages       int
	Tickets     int
	Throttles   int
	CursorLoop  bool
	OrderBroken bool
}

// Scanner drives a cursor-paginated listing one page at a time: retry on
// throttling, feed the accumulator, consult the stop policy, and guard
// against upstream protocol anomalies.
type Scanner struct {
	fetch FetchFunc
	cfg   config.ScanConfig
	log   zerolog.Logger

	// sleep is swappable so tests don't wait out real backoff delays
	sleep func(time.Duration)
}

func New(fetch FetchFunc, cfg config.ScanConfig, log zerolog.Logger) *Scanner {
	return &Scanner{
		fetch: fetch,
		cfg:   cfg,
		log:   log,
		sleep: time.Sleep,
	}
}

func (s *Scanner) Scan(ctx context.Context, stop StopPolicy, acc Accumulator) (Result, error) {
	var res Result

	cursor := ""
	seen := make(map[string]bool)
	orderTrusted := true
	var prevMin time.Time

	for page := 0; ; page++ {
		if page >= s.cfg.MaxPages {
			s.log.Warn().Int("page", page).Msg("page ceiling reached, stopping scan")
			break
		}

		p, err := s.fetchWithRetry(ctx, cursor, page, &res)
		if err != nil {
			return res, err
		}
		res.Pages++
		res.Tickets += len(p.Tickets)

		var pageMin, pageMax time.Time
		for _, t := range p.Tickets {
			acc.Add(t)
			if t.CreatedAt.IsZero() {
				continue
			}
			if pageMin.IsZero() || t.CreatedAt.Before(pageMin) {
				pageMin = t.CreatedAt
			}
			if t.CreatedAt.After(pageMax) {
				pageMax = t.CreatedAt
			}
		}

		ev := s.log.Debug().Int("page", page).Int("fetched", len(p.Tickets))
		for name, n := range acc.Sizes() {
			ev = ev.Int("bucket_"+name, n)
		}
		ev.Msg("page processed")

		// The early-stop policies assume non-increasing creation order
		// across pages. A violation means the optimization would silently
		// under-count, so report it and scan out the full listing instead.
		if orderTrusted && !prevMin.IsZero() && !pageMax.IsZero() && pageMax.After(prevMin) {
			s.log.Error().
				Int("page", page).
				Time("page_max", pageMax).
				Time("prev_min", prevMin).
				Msg("upstream returned tickets out of creation order; disabling early stop")
			orderTrusted = false
			res.OrderBroken = true
		}
		if !pageMin.IsZero() {
			prevMin = pageMin
		}

		if orderTrusted && stop != nil && !pageMin.IsZero() && stop.ShouldStop(pageMin) {
			s.log.Debug().
				Int("page", page).
				Time("page_min", pageMin).
				Str("policy", stop.Name()).
				Msg("early stop")
			break
		}

		if !p.HasMore || p.AfterCursor == "" {
			break
		}
		if seen[p.AfterCursor] {
			// Upstream bug, not ours: break the loop and report what we
			// have rather than paging forever.
			s.log.Error().
				Int("page", page).
				Str("cursor", p.AfterCursor).
				Msg("pagination cursor repeated, stopping scan")
			res.CursorLoop = true
			break
		}
		seen[p.AfterCursor] = true
		cursor = p.AfterCursor

		s.sleep(s.cfg.PageDelay)
	}

	return res, nil
}

func (s *Scanner) fetchWithRetry(ctx context.Context, cursor string, page int, res *Result) (models.Page, error) {
	var lastErr error

	for attempt := 0; attempt < s.cfg.RetryAttempts; attempt++ {
		p, err := s.fetch(ctx, cursor)
		if err == nil {
			return p, nil
		}

		var rl *models.RateLimitError
		if !errors.As(err, &rl) {
			// Anything other than throttling is fatal for the scan.
			return models.Page{}, fmt.Errorf("page %d: %w", page, err)
		}

		res.Throttles++
		wait := rl.RetryAfter
		if wait <= 0 {
			wait = s.backoff(attempt)
		}
		s.log.Warn().
			Int("page", page).
			Int("attempt", attempt+1).
			Dur("wait", wait).
			Msg("rate limited, backing off")
		lastErr = err
		s.sleep(wait)
	}

	return models.Page{}, fmt.Errorf("page %d: giving up after %d attempts: %w", page, s.cfg.RetryAttempts, lastErr)
}

func (s *Scanner) backoff(attempt int) time.Duration {
	d := s.cfg.BackoffBase << uint(attempt)
	if d > s.cfg.BackoffCap {
		d = s.cfg.BackoffCap
	}
	return d
}
