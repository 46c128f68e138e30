package gaps

import (
	"time"

	"github.com/jinzhu/now"
)

// walkDays calls fn with a midday time of every local calendar day touched by [startMs, endMs] in
// loc, starting extraDaysBefore days earlier. Days are stepped on the calendar from midday, so
// DST transitions and missing midnights never skip or repeat a day.
func walkDays(startMs, endMs int64, loc *time.Location, extraDaysBefore int, fn func(day time.Time) error) error {
	last := now.With(time.UnixMilli(endMs).In(loc)).EndOfDay()
	day := now.With(time.UnixMilli(startMs).In(loc)).BeginningOfDay().Add(12 * time.Hour).AddDate(0, 0, -extraDaysBefore)

	for !day.After(last) {
		if err := fn(day); err != nil {
			return err
		}

		day = day.AddDate(0, 0, 1)
	}

	return nil
}
