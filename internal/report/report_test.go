package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/supportops/zendesk-shift-report/internal/aggregate"
	"github.com/supportops/zendesk-shift-report/internal/identity"
	"github.com/supportops/zendesk-shift-report/internal/models"
)

func assigneeID(id int64) *int64 { return &id }

func TestRender(t *testing.T) {
	now := time.Date(2026, 8, 27, 16, 0, 0, 0, time.UTC)
	dir := identity.NewDirectory(map[int64]string{1: "Alice"})

	text := Render(Data{
		Region: "emea",
		Window: models.Window{Start: now.Add(-8 * time.Hour), End: now},
		RunID:  "run-xyz",
		NewCount: 4,
		Roster: aggregate.RosterBreakdown{
			Names:   []string{"Alice", "Bob"},
			Primary: map[string]int{"Alice": 3},
			Other:   map[string]int{"Alice": 1},
		},
		SLAHigh: 2,
		SLALow:  5,
		Aged: []models.Detail{
			{Number: 101, Tier: "Sev-2", Subject: "vpn broken", AssigneeID: assigneeID(1), MeetingRequired: true, CreatedAt: now.Add(-9 * 24 * time.Hour), CreatedOK: true},
			{Number: 102, Tier: "Sev-4", Subject: "slow wifi"},
		},
		Handoff: []models.Detail{
			{Number: 103, HandoffLabel: "APAC", Subject: "follow the sun", AssigneeID: assigneeID(9)},
		},
		Community:     6,
		RosterChannel: "email",
		HighPairLabel: "Sev-1/Sev-2",
		LowPairLabel:  "Sev-3/Sev-4",
	}, dir)

	assert.Contains(t, text, "Shift report — EMEA")
	assert.Contains(t, text, "*New tickets this shift:* 4")
	assert.Contains(t, text, "Alice: 4 (email 3 / other 1)")
	assert.NotContains(t, text, "Bob:", "zero-count roster members are omitted")
	assert.Contains(t, text, "*SLA pending — Sev-1/Sev-2:* 2")
	assert.Contains(t, text, "*SLA pending — Sev-3/Sev-4:* 5")
	assert.Contains(t, text, "#101 [Sev-2] vpn broken — Alice")
	assert.Contains(t, text, "(meeting requested)")
	assert.Contains(t, text, "#102 [Sev-4] slow wifi — unassigned, age unknown")
	assert.Contains(t, text, "#103 → APAC — follow the sun (user-9)")
	assert.Contains(t, text, "*Community open:* 6")
	assert.True(t, strings.HasSuffix(text, "_run run-xyz_"))
}
