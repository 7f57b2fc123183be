package aggregate

import (
	"sort"
	"time"

	"github.com/supportops/zendesk-shift-report/internal/classify"
	"github.com/supportops/zendesk-shift-report/internal/models"
)

// Buckets accumulates classified tickets into deduplicated per-bucket id
// sets plus detail records for the buckets that render line items. Feeding
// the same ticket twice (a re-fetched page) is a no-op: first detail wins.
type Buckets struct {
	classifier *classify.Classifier
	now        time.Time
	ids        map[models.Tag]map[int64]bool
	details    map[models.Tag][]models.Detail
}

func NewBuckets(c *classify.Classifier, now time.Time) *Buckets {
	return &Buckets{
		classifier: c,
		now:        now,
		ids:        make(map[models.Tag]map[int64]bool),
		details:    make(map[models.Tag][]models.Detail),
	}
}

// Add classifies one ticket and inserts it into every bucket it belongs to.
// Implements scanner.Accumulator.
func (b *Buckets) Add(t models.Ticket) {
	tags := b.classifier.Classify(t, b.now)
	for tag := range tags {
		b.insert(tag, t)
	}
}

func (b *Buckets) insert(tag models.Tag, t models.Ticket) {
	set := b.ids[tag]
	if set == nil {
		set = make(map[int64]bool)
		b.ids[tag] = set
	}
	if set[t.ID] {
		return
	}
	set[t.ID] = true

	d := models.Detail{
		ID:              t.ID,
		Number:          t.Number,
		Tier:            b.classifier.Tier(t.SeverityRaw),
		AssigneeID:      t.AssigneeID,
		Subject:         t.Subject,
		MeetingRequired: b.classifier.MeetingRequired(t),
		CreatedAt:       t.CreatedAt,
		CreatedOK:       !t.CreatedAt.IsZero(),
	}
	if tag == models.TagHandoff {
		d.HandoffLabel = b.classifier.HandoffLabel(t)
	}
	b.details[tag] = append(b.details[tag], d)
}

func (b *Buckets) Count(tag models.Tag) int {
	return len(b.ids[tag])
}

func (b *Buckets) Details(tag models.Tag) []models.Detail {
	return b.details[tag]
}

// Sizes reports running bucket sizes for scan progress logging.
func (b *Buckets) Sizes() map[string]int {
	out := make(map[string]int, len(b.ids))
	for tag, set := range b.ids {
		out[string(tag)] = len(set)
	}
	return out
}

// AgedOrdered returns the aged bucket sorted for rendering: severity tier
// ascending (unknown last), creation time ascending within a tier, and
// items without a usable creation time after everything in their tier.
func (b *Buckets) AgedOrdered() []models.Detail {
	aged := append([]models.Detail(nil), b.details[models.TagAged]...)
	sort.SliceStable(aged, func(i, j int) bool {
		ri, rj := b.classifier.TierRank(aged[i].Tier), b.classifier.TierRank(aged[j].Tier)
		if ri != rj {
			return ri < rj
		}
		if aged[i].CreatedOK != aged[j].CreatedOK {
			return aged[i].CreatedOK
		}
		return aged[i].CreatedAt.Before(aged[j].CreatedAt)
	})
	return aged
}

// WindowSet collects the tickets created inside a shift window, deduplicated
// by id and kept in fetch order. Implements scanner.Accumulator.
type WindowSet struct {
	window  models.Window
	ids     map[int64]bool
	tickets []models.Ticket
}

func NewWindowSet(w models.Window) *WindowSet {
	return &WindowSet{
		window: w,
		ids:    make(map[int64]bool),
	}
}

func (s *WindowSet) Add(t models.Ticket) {
	if s.ids[t.ID] || t.CreatedAt.IsZero() || !s.window.Contains(t.CreatedAt) {
		return
	}
	s.ids[t.ID] = true
	s.tickets = append(s.tickets, t)
}

func (s *WindowSet) Count() int {
	return len(s.ids)
}

func (s *WindowSet) Tickets() []models.Ticket {
	return s.tickets
}

func (s *WindowSet) Sizes() map[string]int {
	return map[string]int{"new": len(s.ids)}
}

// RosterBreakdown splits a set of tickets across the active region's roster.
// Counts are keyed by roster name; tickets whose assignee doesn't resolve to
// a roster member are dropped from the breakdown (they still count in the
// bucket total).
type RosterBreakdown struct {
	Names   []string
	Primary map[string]int
	Other   map[string]int
}

func (rb RosterBreakdown) Total(name string) int {
	return rb.Primary[name] + rb.Other[name]
}

// BreakdownByRoster partitions tickets by resolved assignee name, splitting
// each roster member's count into the designated channel vs everything else.
func BreakdownByRoster(tickets []models.Ticket, roster []string, resolve func(int64) (string, bool), primaryChannel string) RosterBreakdown {
	rb := RosterBreakdown{
		Names:   roster,
		Primary: make(map[string]int),
		Other:   make(map[string]int),
	}
	members := make(map[string]bool, len(roster))
	for _, name := range roster {
		members[name] = true
	}

	for _, t := range tickets {
		if t.AssigneeID == nil {
			continue
		}
		name, ok := resolve(*t.AssigneeID)
		if !ok || !members[name] {
			continue
		}
		if t.Channel == primaryChannel {
			rb.Primary[name]++
		} else {
			rb.Other[name]++
		}
	}
	return rb
}
