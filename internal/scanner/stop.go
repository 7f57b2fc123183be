package scanner

import "time"

// StopPolicy decides after each page whether deeper pages can still matter.
// Both implementations are monotonic predicates over the page's minimum
// creation time, which is only sound while the upstream keeps returning
// tickets in non-increasing creation order.
type StopPolicy interface {
	ShouldStop(pageMin time.Time) bool
	Name() string
}

// WindowStop halts a bounded scan once a page dips below the window start:
// no later page can contain a ticket created at or after it.
type WindowStop struct {
	Start time.Time
}

func (w WindowStop) ShouldStop(pageMin time.Time) bool {
	return pageMin.Before(w.Start)
}

func (w WindowStop) Name() string { return "window" }

// HorizonStop bounds an open-ended classification scan: once a page is older
// than the lookback horizon the remaining backlog is out of interest.
type HorizonStop struct {
	Cutoff time.Time
}

func NewHorizonStop(now time.Time, horizon time.Duration) HorizonStop {
	return HorizonStop{Cutoff: now.Add(-horizon)}
}

func (h HorizonStop) ShouldStop(pageMin time.Time) bool {
	return pageMin.Before(h.Cutoff)
}

func (h HorizonStop) Name() string { return "horizon" }
