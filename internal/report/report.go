package report

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/supportops/zendesk-shift-report/internal/aggregate"
	"github.com/supportops/zendesk-shift-report/internal/identity"
	"github.com/supportops/zendesk-shift-report/internal/models"
)

// Data is everything the renderer needs for one report. The renderer has no
// opinion on delivery; the result is one opaque text block.
type Data struct {
	Region   string
	Window   models.Window
	RunID    string
	NewCount int
	Roster   aggregate.RosterBreakdown

	SLAHigh   int
	SLALow    int
	Aged      []models.Detail
	Handoff   []models.Detail
	Community int

	RosterChannel string
	HighPairLabel string
	LowPairLabel  string
}

// Render formats the whole shift report as Slack-flavored text, in the same
// hand-built style the rest of our Slack messages use.
func Render(d Data, dir *identity.Directory) string {
	var b strings.Builder

	fmt.Fprintf(&b, "📋 *Shift report — %s*\n", strings.ToUpper(d.Region))
	fmt.Fprintf(&b, "_Window: %s → %s UTC_\n\n",
		d.Window.Start.Format("Jan 02 15:04"),
		d.Window.End.Format("Jan 02 15:04"))

	fmt.Fprintf(&b, "*New tickets this shift:* %d\n", d.NewCount)
	for _, name := range d.Roster.Names {
		total := d.Roster.Total(name)
		if total == 0 {
			continue
		}
		fmt.Fprintf(&b, "  • %s: %d (%s %d / other %d)\n",
			name, total, d.RosterChannel, d.Roster.Primary[name], d.Roster.Other[name])
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "*SLA pending — %s:* %d\n", d.HighPairLabel, d.SLAHigh)
	fmt.Fprintf(&b, "*SLA pending — %s:* %d\n", d.LowPairLabel, d.SLALow)

	fmt.Fprintf(&b, "*Aged (still new):* %d\n", len(d.Aged))
	for _, item := range d.Aged {
		marker := ""
		if item.MeetingRequired {
			marker = " (meeting requested)"
		}
		fmt.Fprintf(&b, "  • #%d [%s] %s — %s, %s%s\n",
			item.Number, item.Tier, item.Subject, assignee(item, dir), age(item), marker)
	}

	fmt.Fprintf(&b, "*Pending handoff:* %d\n", len(d.Handoff))
	for _, item := range d.Handoff {
		fmt.Fprintf(&b, "  • #%d → %s — %s (%s)\n",
			item.Number, item.HandoffLabel, item.Subject, assignee(item, dir))
	}

	fmt.Fprintf(&b, "*Community open:* %d\n", d.Community)

	fmt.Fprintf(&b, "\n_run %s_", d.RunID)

	return b.String()
}

func assignee(d models.Detail, dir *identity.Directory) string {
	if d.AssigneeID == nil {
		return "unassigned"
	}
	return dir.DisplayName(*d.AssigneeID)
}

func age(d models.Detail) string {
	if !d.CreatedOK {
		return "age unknown"
	}
	return humanize.Time(d.CreatedAt)
}
