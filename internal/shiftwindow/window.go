package shiftwindow

import (
	"fmt"
	"time"

	"github.com/supportops/zendesk-shift-report/internal/config"
	"github.com/supportops/zendesk-shift-report/internal/models"
)

// Calculator turns a region's shift definition into a concrete UTC window
// for the current run. All comparisons against ticket timestamps happen in
// UTC; local-clock arithmetic is confined to this package.
type Calculator struct {
	regions map[string]config.Region
}

func NewCalculator(regions map[string]config.Region) *Calculator {
	return &Calculator{regions: regions}
}

// WindowFor computes the shift window for the given region relative to now.
//
// A region whose end hour is numerically below its start hour (say 18:00 to
// 03:00) crosses local midnight. For those the end instant is anchored on
// today's midnight and the start is derived by subtracting the shift's fixed
// span, which keeps the window from landing a day off.
func (c *Calculator) WindowFor(key string, now time.Time) (models.Window, error) {
	reg, ok := c.regions[key]
	if !ok {
		return models.Window{}, fmt.Errorf("unknown region %q", key)
	}

	loc, err := time.LoadLocation(reg.Timezone)
	if err != nil {
		return models.Window{}, fmt.Errorf("region %q: %w", key, err)
	}

	local := now.In(loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	var start, end time.Time
	if reg.EndHour < reg.StartHour {
		end = midnight.Add(time.Duration(reg.EndHour) * time.Hour)
		span := time.Duration(24-reg.StartHour+reg.EndHour) * time.Hour
		start = end.Add(-span)
	} else {
		start = midnight.Add(time.Duration(reg.StartHour) * time.Hour)
		end = midnight.Add(time.Duration(reg.EndHour) * time.Hour)
	}

	return models.Window{Start: start.UTC(), End: end.UTC()}, nil
}
