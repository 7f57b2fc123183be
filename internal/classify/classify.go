package classify

import (
	"strings"
	"time"

	"github.com/supportops/zendesk-shift-report/internal/config"
	"github.com/supportops/zendesk-shift-report/internal/models"
)

// Tags is the set of buckets one ticket belongs to.
type Tags map[models.Tag]bool

func (t Tags) Has(tag models.Tag) bool { return t[tag] }

// Classifier evaluates the fixed bucket predicates against one ticket.
// All lookup tables come from the rules file so tests can swap them freely.
type Classifier struct {
	targetGroup      int64
	openStates       map[string]bool
	tiers            map[string]string
	tierRank         map[string]int
	unknownTier      string
	highPair         map[string]bool
	lowPair          map[string]bool
	communityChannel string
	handoffField     string
	meetingField     string
	handoffLabels    map[string]string
	agedAfter        time.Duration
}

func New(rules config.Rules) *Classifier {
	c := &Classifier{
		targetGroup:      rules.TargetGroupID,
		openStates:       make(map[string]bool, len(rules.OpenStates)),
		tiers:            rules.SeverityTiers,
		tierRank:         make(map[string]int, len(rules.TierOrder)),
		unknownTier:      rules.UnknownTier,
		highPair:         make(map[string]bool, len(rules.HighTierPair)),
		lowPair:          make(map[string]bool, len(rules.LowTierPair)),
		communityChannel: rules.CommunityChannel,
		handoffField:     rules.HandoffField,
		meetingField:     rules.MeetingField,
		handoffLabels:    rules.HandoffLabels,
		agedAfter:        time.Duration(rules.AgedAfterDays) * 24 * time.Hour,
	}
	for _, st := range rules.OpenStates {
		c.openStates[st] = true
	}
	for i, tier := range rules.TierOrder {
		c.tierRank[tier] = i
	}
	for _, tier := range rules.HighTierPair {
		c.highPair[tier] = true
	}
	for _, tier := range rules.LowTierPair {
		c.lowPair[tier] = true
	}
	return c
}

// Classify maps one ticket to its bucket tags. Predicates are independent;
// a ticket can land in several buckets or none.
func (c *Classifier) Classify(t models.Ticket, now time.Time) Tags {
	tags := make(Tags)

	inTeam := t.GroupID != nil && *t.GroupID == c.targetGroup
	open := c.openStates[t.State]
	tier := c.Tier(t.SeverityRaw)

	// SLA-pending wants a stricter state than generic open: only "new"
	// tickets are still awaiting first response.
	if inTeam && t.State == "new" {
		if c.highPair[tier] {
			tags[models.TagSLAHigh] = true
		} else if c.lowPair[tier] {
			tags[models.TagSLALow] = true
		}
		if !t.CreatedAt.IsZero() && now.Sub(t.CreatedAt) > c.agedAfter {
			tags[models.TagAged] = true
		}
	}

	if inTeam && open {
		if c.handoffSlug(t) != "" {
			tags[models.TagHandoff] = true
		}
	}

	// Community visibility deliberately ignores team scope.
	if open && t.Channel == c.communityChannel {
		tags[models.TagCommunity] = true
	}

	return tags
}

// Tier maps a raw severity value to its tier label, with an explicit
// fallback for anything outside the table.
func (c *Classifier) Tier(raw string) string {
	if tier, ok := c.tiers[raw]; ok {
		return tier
	}
	return c.unknownTier
}

// TierRank orders tier labels for rendering; unknown sorts last.
func (c *Classifier) TierRank(tier string) int {
	if r, ok := c.tierRank[tier]; ok {
		return r
	}
	return len(c.tierRank)
}

// HandoffLabel maps a handoff-region slug to its display label.
func (c *Classifier) HandoffLabel(t models.Ticket) string {
	slug := c.handoffSlug(t)
	if slug == "" {
		return ""
	}
	if label, ok := c.handoffLabels[slug]; ok {
		return label
	}
	return "Unknown"
}

func (c *Classifier) handoffSlug(t models.Ticket) string {
	return strings.TrimSpace(StringAttr(t.Attributes, c.handoffField))
}

// MeetingRequired reads the meeting-required custom attribute with the
// strict boolean normalization.
func (c *Classifier) MeetingRequired(t models.Ticket) bool {
	return BoolAttr(t.Attributes, c.meetingField)
}

// StringAttr reads a loosely-typed custom attribute as a string, returning
// "" for anything that isn't one.
func StringAttr(attrs map[string]any, key string) string {
	if attrs == nil {
		return ""
	}
	if s, ok := attrs[key].(string); ok {
		return s
	}
	return ""
}

// BoolAttr normalizes a boolean-or-equivalent-text custom attribute: true
// only for boolean true or the exact text "true", false for everything
// else including absence.
func BoolAttr(attrs map[string]any, key string) bool {
	if attrs == nil {
		return false
	}
	switch v := attrs[key].(type) {
	case bool:
		return v
	case string:
		return v == "true"
	default:
		return false
	}
}
