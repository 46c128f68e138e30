package gaps

import (
	"math"
	"time"

	"github.com/spf13/cast"
)

const MaxSegmentsPerRule = 1 << 20

type rawSpan struct {
	start int64
	end   int64
}

//
// Fixed
//

type Fixed struct {
	Start int64 `json:"start" yaml:"start"`
	End   int64 `json:"end" yaml:"end"`
}

func (r Fixed) Kind() string {
	return "fixed"
}

func (r Fixed) Validate() error {
	if r.End <= r.Start {
		return newValidationError(r, "end <= start")
	}

	return nil
}

func (r Fixed) expand(h Horizon, out []rawSpan) ([]rawSpan, error) {
	if r.Start < h.End && r.End > h.Start {
		out = append(out, rawSpan{start: r.Start, end: r.End})
	}

	return out, nil
}

//
// RecurringTemporal
//

// RecurringTemporal excludes [Start, End) of local wall-clock time on each listed day.
// End before Start wraps past midnight into the following day.
type RecurringTemporal struct {
	Days     []time.Weekday `json:"days" yaml:"days"`
	Start    ClockTime      `json:"start" yaml:"start"`
	End      ClockTime      `json:"end" yaml:"end"`
	Timezone string         `json:"timezone" yaml:"timezone"`
}

func (r RecurringTemporal) Kind() string {
	return "weekly"
}

func (r RecurringTemporal) Validate() error {
	if len(r.Days) == 0 {
		return newValidationError(r, "no days")
	}

	seen := make(map[time.Weekday]bool)

	for _, day := range r.Days {
		if day < time.Sunday || day > time.Saturday {
			return newValidationError(r, "invalid weekday "+cast.ToString(int(day)))
		}

		if seen[day] {
			return newValidationError(r, "duplicate weekday "+day.String())
		}

		seen[day] = true
	}

	if !r.Start.valid(false) {
		return newValidationError(r, "invalid start time "+r.Start.String())
	}

	if !r.End.valid(true) {
		return newValidationError(r, "invalid end time "+r.End.String())
	}

	if r.Start.seconds() == r.End.seconds() {
		return newValidationError(r, "empty weekly window")
	}

	if _, err := r.location(); err != nil {
		return newValidationError(r, "unknown timezone "+r.Timezone)
	}

	return nil
}

func (r RecurringTemporal) location() (*time.Location, error) {
	if r.Timezone == "" {
		return time.UTC, nil
	}

	return time.LoadLocation(r.Timezone)
}

func (r RecurringTemporal) wraps() bool {
	return r.End.seconds() < r.Start.seconds()
}

func (r RecurringTemporal) expand(h Horizon, out []rawSpan) ([]rawSpan, error) {
	loc, err := r.location()
	if err != nil {
		return out, err
	}

	days := make(map[time.Weekday]bool, len(r.Days))
	for _, day := range r.Days {
		days[day] = true
	}

	count := 0

	// one extra day back so an overnight span starting before the horizon is caught
	err = walkDays(h.Start, h.End, loc, 1, func(midday time.Time) error {
		if !days[midday.Weekday()] {
			return nil
		}

		year, month, day := midday.Date()

		s := r.Start.on(year, month, day, loc)

		endDay := day
		if r.wraps() {
			endDay++
		}

		e := r.End.on(year, month, endDay, loc)

		sMs, eMs := s.UnixMilli(), e.UnixMilli()
		if eMs <= sMs {
			// a DST jump swallowed the whole window
			return nil
		}

		if sMs < h.End && eMs > h.Start {
			count++
			if count > MaxSegmentsPerRule {
				return ErrTooManySegments
			}

			out = append(out, rawSpan{start: sMs, end: eMs})
		}

		return nil
	})

	return out, err
}

//
// RecurringNumeric
//

// RecurringNumeric excludes [k*Modulo+Offset, k*Modulo+Offset+Width) for every integer k.
type RecurringNumeric struct {
	Modulo float64 `json:"modulo" yaml:"modulo"`
	Offset float64 `json:"offset" yaml:"offset"`
	Width  float64 `json:"width" yaml:"width"`
}

func (r RecurringNumeric) Kind() string {
	return "numeric"
}

func (r RecurringNumeric) Validate() error {
	for _, v := range []float64{r.Modulo, r.Offset, r.Width} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return newValidationError(r, "non-finite parameter")
		}
	}

	if r.Modulo <= 0 {
		return newValidationError(r, "modulo <= 0")
	}

	if r.Width <= 0 {
		return newValidationError(r, "width <= 0")
	}

	if r.Width >= r.Modulo {
		return newValidationError(r, "width >= modulo")
	}

	return nil
}

func (r RecurringNumeric) expand(h Horizon, out []rawSpan) ([]rawSpan, error) {
	firstK := math.Floor((float64(h.Start) - r.Offset) / r.Modulo)
	lastK := math.Ceil((float64(h.End) - r.Offset) / r.Modulo)

	if lastK-firstK > MaxSegmentsPerRule {
		return out, ErrTooManySegments
	}

	for k := firstK; k <= lastK; k++ {
		s := int64(math.Floor(k*r.Modulo + r.Offset))
		e := int64(math.Floor(k*r.Modulo + r.Offset + r.Width))

		if e > s && s < h.End && e > h.Start {
			out = append(out, rawSpan{start: s, end: e})
		}
	}

	return out, nil
}
