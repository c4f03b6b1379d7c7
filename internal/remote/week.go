package remote

import (
	"time"

	"github.com/gatepass/gatepass/internal/models"
)

// WeekBounds returns the Sunday and Saturday of the calendar week containing
// now, as YYYY-MM-DD in now's location. Both ends are inclusive.
func WeekBounds(now time.Time) (start, end string) {
	y, m, d := now.Date()
	sunday := time.Date(y, m, d-int(now.Weekday()), 0, 0, 0, 0, now.Location())
	return sunday.Format(models.DateLayout), sunday.AddDate(0, 0, 6).Format(models.DateLayout)
}

// Histogram buckets visit dates by weekday (0=Sunday) for the week
// containing now. Dates outside the week or not in YYYY-MM-DD form are
// ignored.
func Histogram(dates []string, now time.Time) [7]int {
	var out [7]int
	start, end := WeekBounds(now)
	for _, d := range dates {
		if d < start || d > end {
			continue
		}
		t, err := time.Parse(models.DateLayout, d)
		if err != nil {
			continue
		}
		out[t.Weekday()]++
	}
	return out
}
