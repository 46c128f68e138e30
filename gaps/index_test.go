package gaps

import (
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/sgostarter/i/commerr"
	"github.com/stretchr/testify/assert"
)

func TestFixedGapMapping(t *testing.T) {
	idx, err := Build([]Rule{Fixed{Start: 1000, End: 2000}}, Horizon{Start: 0, End: 10000})
	assert.Nil(t, err)
	assert.Equal(t, 1, idx.Len())

	assert.EqualValues(t, 500, idx.ToLogical(500))
	assert.EqualValues(t, 1000, idx.ToLogical(1000))
	assert.EqualValues(t, 1000, idx.ToLogical(1500))
	assert.EqualValues(t, 1000, idx.ToLogical(2000))
	assert.EqualValues(t, 1500, idx.ToLogical(2500))

	assert.EqualValues(t, 500, idx.ToReal(500))
	assert.EqualValues(t, 2000, idx.ToReal(1000))
	assert.EqualValues(t, 2500, idx.ToReal(1500))

	assert.True(t, idx.IsInside(1500))
	assert.False(t, idx.IsInside(2000))
	assert.False(t, idx.IsInside(999))

	assert.InDelta(t, 1500.5, idx.ToLogicalF(2500.5), 1e-9)
	assert.InDelta(t, 2500.5, idx.ToRealF(1500.5), 1e-9)
}

func TestNilIndexIsIdentity(t *testing.T) {
	var idx *Index

	assert.EqualValues(t, 42, idx.ToLogical(42))
	assert.EqualValues(t, 42, idx.ToReal(42))
	assert.Equal(t, 0, idx.GapOrdinal(42))
	assert.Equal(t, [][2]int64{{0, 10}}, idx.SplitRange(0, 10))
	assert.EqualValues(t, 0, idx.TotalGap())
}

func TestMergeOverlappingAndTouching(t *testing.T) {
	idx, err := Build([]Rule{
		Fixed{Start: 15, End: 30},
		Fixed{Start: 0, End: 10},
		Fixed{Start: 10, End: 20},
		Fixed{Start: 50, End: 60},
	}, Horizon{Start: -100, End: 100})
	assert.Nil(t, err)

	assert.Equal(t, []Segment{
		{StartReal: 0, EndReal: 30, CumulativeGap: 0},
		{StartReal: 50, EndReal: 60, CumulativeGap: 30},
	}, idx.Segments())
	assert.EqualValues(t, 40, idx.TotalGap())
	assert.EqualValues(t, 30, idx.ToLogical(70))
}

func TestNumericRule(t *testing.T) {
	idx, err := Build([]Rule{RecurringNumeric{Modulo: 7, Offset: 5, Width: 2}}, Horizon{Start: 0, End: 30})
	assert.Nil(t, err)

	assert.Equal(t, []Segment{
		{StartReal: 5, EndReal: 7, CumulativeGap: 0},
		{StartReal: 12, EndReal: 14, CumulativeGap: 2},
		{StartReal: 19, EndReal: 21, CumulativeGap: 4},
		{StartReal: 26, EndReal: 28, CumulativeGap: 6},
	}, idx.Segments())

	assert.EqualValues(t, 10, idx.ToLogical(14))
	assert.EqualValues(t, 14, idx.ToReal(10))
}

func TestOvernightWeeklyRule(t *testing.T) {
	rule := RecurringTemporal{
		Days:  []time.Weekday{time.Monday},
		Start: Clock(22, 0),
		End:   Clock(2, 0),
	}

	monday := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tuesday := monday.Add(24 * time.Hour)

	expected := Segment{
		StartReal: monday.Add(22 * time.Hour).UnixMilli(),
		EndReal:   tuesday.Add(2 * time.Hour).UnixMilli(),
	}

	idx, err := Build([]Rule{rule}, Horizon{Start: monday.UnixMilli(), End: monday.Add(48 * time.Hour).UnixMilli()})
	assert.Nil(t, err)
	assert.Equal(t, []Segment{expected}, idx.Segments())

	// horizon starts inside the overnight span
	idx, err = Build([]Rule{rule}, Horizon{Start: tuesday.UnixMilli(), End: tuesday.Add(24 * time.Hour).UnixMilli()})
	assert.Nil(t, err)
	assert.Equal(t, []Segment{expected}, idx.Segments())
}

func TestWeeklyRuleAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	assert.Nil(t, err)

	rule := RecurringTemporal{
		Days:     []time.Weekday{time.Sunday},
		Start:    Clock(0, 0),
		End:      Clock(6, 0),
		Timezone: "America/New_York",
	}

	from := time.Date(2024, 3, 9, 0, 0, 0, 0, loc)
	to := time.Date(2024, 3, 12, 0, 0, 0, 0, loc)

	idx, err := Build([]Rule{rule}, Horizon{Start: from.UnixMilli(), End: to.UnixMilli()})
	assert.Nil(t, err)
	assert.Equal(t, 1, idx.Len())

	seg := idx.Segments()[0]
	assert.EqualValues(t, time.Date(2024, 3, 10, 0, 0, 0, 0, loc).UnixMilli(), seg.StartReal)
	// clocks jump from 02:00 to 03:00, so six wall-clock hours last five real hours
	assert.EqualValues(t, (5 * time.Hour).Milliseconds(), seg.Duration())
}

func TestWeekendRule(t *testing.T) {
	rule := RecurringTemporal{
		Days:  []time.Weekday{time.Saturday, time.Sunday},
		Start: Clock(0, 0),
		End:   Clock(24, 0),
	}

	// 2024-01-01 is a Monday; two full weeks
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 14)

	idx, err := Build([]Rule{rule}, Horizon{Start: from.UnixMilli(), End: to.UnixMilli()})
	assert.Nil(t, err)

	// Saturday and Sunday touch and merge
	assert.Equal(t, 2, idx.Len())
	assert.EqualValues(t, (96 * time.Hour).Milliseconds(), idx.TotalGap())

	friday := time.Date(2024, 1, 5, 23, 0, 0, 0, time.UTC)
	monday := time.Date(2024, 1, 8, 1, 0, 0, 0, time.UTC)
	assert.EqualValues(t, (2 * time.Hour).Milliseconds(), idx.ToLogical(monday.UnixMilli())-idx.ToLogical(friday.UnixMilli()))
}

func TestRoundTripAndMonotonic(t *testing.T) {
	idx, err := Build([]Rule{
		RecurringNumeric{Modulo: 100, Offset: 10, Width: 30},
		Fixed{Start: 555, End: 777},
	}, Horizon{Start: 0, End: 2000})
	assert.Nil(t, err)

	prev := idx.ToLogical(0)

	for r := int64(0); r < 2000; r++ {
		lv := idx.ToLogical(r)
		assert.True(t, lv >= prev)
		prev = lv

		if !idx.IsInside(r) {
			assert.EqualValues(t, r, idx.ToReal(lv))
		}
	}
}

func TestCursorMatchesIndex(t *testing.T) {
	idx, err := Build([]Rule{RecurringNumeric{Modulo: 10, Offset: 3, Width: 4}}, Horizon{Start: 0, End: 200})
	assert.Nil(t, err)

	cursor := idx.Cursor()

	inputs := []float64{0, 1, 3, 5.5, 7, 8, 13, 40, 41.5, 20, 21, 199, 2}
	for _, v := range inputs {
		assert.Equal(t, idx.ToLogicalF(v), cursor.ToLogical(v))
		assert.Equal(t, idx.GapOrdinal(v), cursor.GapOrdinal(v))
		assert.Equal(t, idx.ToRealF(v), cursor.ToReal(v))
	}

	cursor.Reset()
	assert.Equal(t, idx.ToLogicalF(150), cursor.ToLogical(150))
}

func TestSplitRange(t *testing.T) {
	idx, err := Build([]Rule{Fixed{Start: 10, End: 20}, Fixed{Start: 30, End: 40}}, Horizon{Start: 0, End: 100})
	assert.Nil(t, err)

	assert.Equal(t, [][2]int64{{0, 10}, {20, 30}, {40, 50}}, idx.SplitRange(0, 50))
	assert.Equal(t, [][2]int64{{20, 25}}, idx.SplitRange(15, 25))
	assert.Nil(t, idx.SplitRange(12, 18))
}

func TestGapOrdinal(t *testing.T) {
	idx, err := Build([]Rule{Fixed{Start: 4, End: 6}}, Horizon{Start: 0, End: 10})
	assert.Nil(t, err)

	assert.Equal(t, 0, idx.GapOrdinal(3.9))
	assert.Equal(t, 0, idx.GapOrdinal(5))
	assert.Equal(t, 1, idx.GapOrdinal(6))
	assert.Equal(t, 1, idx.GapOrdinal(9))
}

func TestAnchorKeepsLogicalCoordinates(t *testing.T) {
	rules := []Rule{RecurringNumeric{Modulo: 100, Offset: 0, Width: 20}}

	small, err := BuildWithAnchor(rules, Horizon{Start: 1000, End: 2000}, 1500, 1500)
	assert.Nil(t, err)

	large, err := BuildWithAnchor(rules, Horizon{Start: 0, End: 5000}, 1500, 1500)
	assert.Nil(t, err)

	for r := int64(1000); r < 2000; r += 7 {
		assert.Equal(t, small.ToLogical(r), large.ToLogical(r))
	}

	assert.EqualValues(t, 1500, large.ToLogical(1500))

	shifted, err := BuildWithAnchor(rules, Horizon{Start: 0, End: 5000}, 1530, 0)
	assert.Nil(t, err)
	assert.EqualValues(t, 0, shifted.ToLogical(1530))
	assert.EqualValues(t, 1530, shifted.ToReal(0))
}

func TestValidation(t *testing.T) {
	_, err := Build([]Rule{Fixed{Start: 0, End: 10}, Fixed{Start: 10, End: 10}}, Horizon{Start: 0, End: 100})

	var vErr *ValidationError
	assert.True(t, errors.As(err, &vErr))
	assert.Equal(t, 1, vErr.Index)
	assert.Equal(t, "fixed", vErr.Rule)
	assert.True(t, errors.Is(err, commerr.ErrInvalidArgument))

	bad := []Rule{
		RecurringTemporal{Start: Clock(1, 0), End: Clock(2, 0)},
		RecurringTemporal{Days: []time.Weekday{time.Monday, time.Monday}, Start: Clock(1, 0), End: Clock(2, 0)},
		RecurringTemporal{Days: []time.Weekday{7}, Start: Clock(1, 0), End: Clock(2, 0)},
		RecurringTemporal{Days: []time.Weekday{time.Monday}, Start: Clock(25, 0), End: Clock(2, 0)},
		RecurringTemporal{Days: []time.Weekday{time.Monday}, Start: Clock(24, 0), End: Clock(2, 0)},
		RecurringTemporal{Days: []time.Weekday{time.Monday}, Start: Clock(2, 0), End: Clock(2, 0)},
		RecurringTemporal{Days: []time.Weekday{time.Monday}, Start: Clock(1, 0), End: Clock(2, 0), Timezone: "Nowhere/Nothing"},
		RecurringNumeric{Modulo: 0, Width: 1},
		RecurringNumeric{Modulo: 10, Width: 0},
		RecurringNumeric{Modulo: 10, Width: 10},
	}

	for _, rule := range bad {
		_, err = Build([]Rule{rule}, Horizon{Start: 0, End: 100})
		assert.True(t, errors.As(err, &vErr), rule)
		assert.Equal(t, 0, vErr.Index)
	}

	_, err = Build(nil, Horizon{Start: 10, End: 10})
	assert.Equal(t, ErrBadHorizon, err)
}

func TestTooManySegments(t *testing.T) {
	_, err := Build([]Rule{RecurringNumeric{Modulo: 1, Width: 0.5}}, Horizon{Start: 0, End: 10 * MaxSegmentsPerRule})
	assert.True(t, errors.Is(err, ErrTooManySegments))
}

func TestWalkDaysAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	assert.Nil(t, err)

	// 2018-11-04 started at 01:00 in Sao Paulo, midnight did not exist
	start := time.Date(2018, 11, 3, 18, 0, 0, 0, loc).UnixMilli()
	end := time.Date(2018, 11, 6, 1, 0, 0, 0, loc).UnixMilli()

	var days []int

	assert.Nil(t, walkDays(start, end, loc, 1, func(day time.Time) error {
		days = append(days, day.Day())

		return nil
	}))
	assert.Equal(t, []int{2, 3, 4, 5, 6}, days)

	stop := errors.New("stop")

	count := 0
	assert.ErrorIs(t, walkDays(start, end, loc, 0, func(time.Time) error {
		count++

		return stop
	}), stop)
	assert.Equal(t, 1, count)
}
