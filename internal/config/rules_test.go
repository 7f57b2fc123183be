package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rulesFixture = `
target_group_id: 360001234
open_states: [new, open, pending, hold]
severity_tiers:
  urgent: Sev-1
  high: Sev-2
  medium: Sev-3
  low: Sev-4
tier_order: [Sev-1, Sev-2, Sev-3, Sev-4]
high_tier_pair: [Sev-1, Sev-2]
low_tier_pair: [Sev-3, Sev-4]
community_channel: community
roster_channel: email
handoff_field: handoff_region
meeting_field: meeting_required
handoff_labels:
  emea: EMEA
  apac: APAC
  amer: Americas
custom_fields:
  handoff_region: 900100
  meeting_required: 900200
regions:
  emea:
    timezone: Europe/London
    start_hour: 8
    end_hour: 16
    roster: [Alice, Bob]
  apac:
    timezone: Australia/Sydney
    start_hour: 18
    end_hour: 3
    roster: [Carol]
`

func writeRules(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shift-rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadRules(t *testing.T) {
	rules, err := LoadRules(writeRules(t, rulesFixture))
	require.NoError(t, err)

	assert.Equal(t, int64(360001234), rules.TargetGroupID)
	assert.Equal(t, []string{"new", "open", "pending", "hold"}, rules.OpenStates)
	assert.Equal(t, "Sev-1", rules.SeverityTiers["urgent"])
	assert.Equal(t, int64(900100), rules.CustomFields["handoff_region"])
	assert.Equal(t, 3, rules.Regions["apac"].EndHour)
	assert.Equal(t, []string{"Alice", "Bob"}, rules.Regions["emea"].Roster)

	// Defaults
	assert.Equal(t, 30, rules.LookbackDays)
	assert.Equal(t, 7, rules.AgedAfterDays)
	assert.Equal(t, "Unknown", rules.UnknownTier)

	require.NoError(t, rules.Validate("emea"))
	require.NoError(t, rules.Validate("apac"))
}

func TestLoadRulesMissingFile(t *testing.T) {
	_, err := LoadRules(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadRulesBadYAML(t *testing.T) {
	_, err := LoadRules(writeRules(t, "regions: ["))
	assert.Error(t, err)
}

func TestRulesValidateUnknownRegion(t *testing.T) {
	rules, err := LoadRules(writeRules(t, rulesFixture))
	require.NoError(t, err)
	assert.Error(t, rules.Validate("mars"))
}

func TestRulesValidateZeroLengthShift(t *testing.T) {
	r := Rules{
		TargetGroupID: 1,
		OpenStates:    []string{"new"},
		SeverityTiers: map[string]string{"urgent": "Sev-1"},
		HighTierPair:  []string{"Sev-1"},
		LowTierPair:   []string{"Sev-4"},
		Regions: map[string]Region{
			"flat": {Timezone: "UTC", StartHour: 9, EndHour: 9},
		},
	}
	assert.Error(t, r.Validate("flat"))
}

func TestRulesValidateRequiredTables(t *testing.T) {
	r := Rules{}
	assert.Error(t, r.Validate(""))

	r.TargetGroupID = 1
	assert.Error(t, r.Validate(""))

	r.OpenStates = []string{"new"}
	assert.Error(t, r.Validate(""))

	r.SeverityTiers = map[string]string{"urgent": "Sev-1"}
	assert.Error(t, r.Validate(""))

	r.HighTierPair = []string{"Sev-1"}
	r.LowTierPair = []string{"Sev-4"}
	assert.Error(t, r.Validate(""), "still no regions")

	r.Regions = map[string]Region{"emea": {Timezone: "UTC", StartHour: 1, EndHour: 2}}
	assert.NoError(t, r.Validate(""))
}
