package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Rules holds the classification tables and per-region shift definitions.
// Everything here is static for the life of one run; tests substitute their
// own fixture instead of reading a file.
type Rules struct {
	TargetGroupID int64    `yaml:"target_group_id"`
	OpenStates    []string `yaml:"open_states"`

	LookbackDays  int `yaml:"lookback_days"`
	AgedAfterDays int `yaml:"aged_after_days"`

	SeverityTiers map[string]string `yaml:"severity_tiers"`
	TierOrder     []string          `yaml:"tier_order"`
	UnknownTier   string            `yaml:"unknown_tier"`
	HighTierPair  []string          `yaml:"high_tier_pair"`
	LowTierPair   []string          `yaml:"low_tier_pair"`

	CommunityChannel string `yaml:"community_channel"`
	RosterChannel    string `yaml:"roster_channel"`

	HandoffField  string            `yaml:"handoff_field"`
	MeetingField  string            `yaml:"meeting_field"`
	HandoffLabels map[string]string `yaml:"handoff_labels"`

	// Zendesk custom field ids keyed by the attribute name used above
	CustomFields map[string]int64 `yaml:"custom_fields"`

	Regions map[string]Region `yaml:"regions"`
}

// Region is one shift definition. Start/end hours are offsets from local
// midnight in the region's zone; end < start marks a cross-midnight shift.
type Region struct {
	Timezone  string   `yaml:"timezone"`
	StartHour int      `yaml:"start_hour"`
	EndHour   int      `yaml:"end_hour"`
	Roster    []string `yaml:"roster"`
}

func LoadRules(filename string) (Rules, error) {
	var r Rules

	data, err := os.ReadFile(filename)
	if err != nil {
		return r, fmt.Errorf("failed to read rules file: %w", err)
	}
	if err := yaml.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("failed to parse rules file: %w", err)
	}
	r.applyDefaults()
	return r, nil
}

func (r *Rules) applyDefaults() {
	if r.LookbackDays <= 0 {
		r.LookbackDays = 30
	}
	if r.AgedAfterDays <= 0 {
		r.AgedAfterDays = 7
	}
	if r.UnknownTier == "" {
		r.UnknownTier = "Unknown"
	}
}

func (r *Rules) Validate(region string) error {
	if r.TargetGroupID == 0 {
		return fmt.Errorf("rules: target_group_id is required")
	}
	if len(r.OpenStates) == 0 {
		return fmt.Errorf("rules: open_states must not be empty")
	}
	if len(r.SeverityTiers) == 0 {
		return fmt.Errorf("rules: severity_tiers must not be empty")
	}
	if len(r.HighTierPair) == 0 || len(r.LowTierPair) == 0 {
		return fmt.Errorf("rules: high_tier_pair and low_tier_pair must not be empty")
	}
	if len(r.Regions) == 0 {
		return fmt.Errorf("rules: at least one region is required")
	}
	if region != "" {
		reg, ok := r.Regions[region]
		if !ok {
			return fmt.Errorf("rules: unknown region %q", region)
		}
		if err := reg.validate(region); err != nil {
			return err
		}
	}
	return nil
}

func (reg Region) validate(key string) error {
	if reg.Timezone == "" {
		return fmt.Errorf("rules: region %q has no timezone", key)
	}
	if reg.StartHour < 0 || reg.StartHour > 23 {
		return fmt.Errorf("rules: region %q start_hour must be 0-23", key)
	}
	if reg.EndHour < 0 || reg.EndHour > 23 {
		return fmt.Errorf("rules: region %q end_hour must be 0-23", key)
	}
	if reg.StartHour == reg.EndHour {
		return fmt.Errorf("rules: region %q has a zero-length shift", key)
	}
	return nil
}
