package gaps

import (
	"fmt"
	"time"
)

// Segment is a merged exclusion span [StartReal, EndReal) in real milliseconds.
// CumulativeGap is the total gap duration of all segments before it.
type Segment struct {
	StartReal     int64 `json:"start_real" yaml:"start_real"`
	EndReal       int64 `json:"end_real" yaml:"end_real"`
	CumulativeGap int64 `json:"cumulative_gap" yaml:"cumulative_gap"`
}

func (s Segment) Duration() int64 {
	return s.EndReal - s.StartReal
}

type Horizon struct {
	Start int64 `json:"start" yaml:"start"`
	End   int64 `json:"end" yaml:"end"`
}

func (h Horizon) Span() int64 {
	return h.End - h.Start
}

func (h Horizon) IsZero() bool {
	return h.Start == 0 && h.End == 0
}

func (h Horizon) Covers(start, end int64) bool {
	return start >= h.Start && end <= h.End
}

// ClockTime is a wall-clock time of day. 24:00:00 is accepted as an end boundary only.
type ClockTime struct {
	Hour   int `json:"hour" yaml:"hour"`
	Minute int `json:"minute" yaml:"minute"`
	Second int `json:"second" yaml:"second"`
}

func Clock(hour, minute int) ClockTime {
	return ClockTime{Hour: hour, Minute: minute}
}

func (c ClockTime) seconds() int {
	return c.Hour*3600 + c.Minute*60 + c.Second
}

func (c ClockTime) valid(allowEndOfDay bool) bool {
	if c.Hour == 24 {
		return allowEndOfDay && c.Minute == 0 && c.Second == 0
	}

	return c.Hour >= 0 && c.Hour < 24 && c.Minute >= 0 && c.Minute < 60 && c.Second >= 0 && c.Second < 60
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", c.Hour, c.Minute, c.Second)
}

func (c ClockTime) on(year int, month time.Month, day int, loc *time.Location) time.Time {
	return time.Date(year, month, day, c.Hour, c.Minute, c.Second, 0, loc)
}
