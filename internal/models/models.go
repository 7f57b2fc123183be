package models

import (
	"fmt"
	"time"
)

// Ticket is one conversation retrieved from the Zendesk ticket API.
// CreatedRaw keeps the upstream timestamp string so that downstream sorting
// can distinguish "missing" from "unparsable".
type Ticket struct {
	ID          int64
	Number      int64
	Subject     string
	State       string
	SeverityRaw string
	GroupID     *int64
	AssigneeID  *int64
	Channel     string
	CreatedAt   time.Time
	CreatedRaw  string
	Attributes  map[string]any
}

// Page is one slice of a cursor-paginated ticket listing.
type Page struct {
	Tickets     []Ticket
	HasMore     bool
	AfterCursor string
}

// Window is a half-open interval [Start, End) in UTC.
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Tag names one reported bucket. A ticket can carry several tags.
type Tag string

const (
	TagSLAHigh   Tag = "sla_high"
	TagSLALow    Tag = "sla_low"
	TagAged      Tag = "aged"
	TagHandoff   Tag = "handoff"
	TagCommunity Tag = "community"
)

// Detail is the fixed projection stored for buckets that render line items.
type Detail struct {
	ID              int64
	Number          int64
	Tier            string
	AssigneeID      *int64
	Subject         string
	HandoffLabel    string
	MeetingRequired bool
	CreatedAt       time.Time
	CreatedOK       bool
}

// RateLimitError is the distinguished "too many requests" condition from the
// upstream API. RetryAfter is zero when the server sent no delay hint.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
	}
	return "rate limited"
}

type RunStats struct {
	PagesFetched   int
	TicketsScanned int
	Throttles      int
	NewTickets     int
	SLAHigh        int
	SLALow         int
	Aged           int
	Handoff        int
	Community      int
	Errors         int
	Duration       time.Duration
}
