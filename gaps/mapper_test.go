package gaps

import (
	"errors"
	"testing"
	"time"

	"github.com/sgostarter/i/l"
	"github.com/stretchr/testify/assert"
)

func TestMapperKeepsIndexOnBadRules(t *testing.T) {
	m, err := NewMapper([]Rule{Fixed{Start: 1000, End: 2000}}, MapperConfig{
		Horizon: Horizon{Start: 0, End: 10000},
	}, l.NewConsoleLoggerWrapper())
	assert.Nil(t, err)

	before := m.Index()
	version := m.Version()
	assert.Equal(t, 1, before.Len())

	err = m.SetRules([]Rule{Fixed{Start: 5, End: 1}})

	var vErr *ValidationError
	assert.True(t, errors.As(err, &vErr))
	assert.True(t, before == m.Index())
	assert.Equal(t, version, m.Version())
	assert.Len(t, m.Rules(), 1)

	assert.Nil(t, m.SetRules(nil))
	assert.Nil(t, m.Index())
	assert.EqualValues(t, 2500, m.Index().ToLogical(2500))
}

func TestMapperEnsureHorizon(t *testing.T) {
	day := (24 * time.Hour).Milliseconds()

	m, err := NewMapper([]Rule{RecurringNumeric{Modulo: float64(day), Offset: 0, Width: float64(day / 2)}}, MapperConfig{
		Horizon:    Horizon{Start: 0, End: 10 * day},
		Padding:    1,
		MinPadding: day,
	}, nil)
	assert.Nil(t, err)

	instant := 8*day + day*3/4
	logicalBefore := m.Index().ToLogical(instant)

	// well inside the horizon
	assert.False(t, m.EnsureHorizon(float64(4*day), float64(6*day)))

	// close to the end
	assert.True(t, m.EnsureHorizon(float64(8*day), float64(10*day)))
	h := m.Horizon()
	assert.EqualValues(t, 6*day, h.Start)
	assert.EqualValues(t, 12*day, h.End)

	// logical coordinates stay where they were
	assert.Equal(t, logicalBefore, m.Index().ToLogical(instant))

	assert.True(t, m.EnsureHorizon(0, float64(100*day)))
	assert.EqualValues(t, 300*day, m.Horizon().Span())

	// zoomed far in: the oversized horizon is shrunk
	assert.True(t, m.EnsureHorizon(float64(7*day), float64(7*day+1000)))
	assert.False(t, m.EnsureHorizon(float64(7*day), float64(7*day+1000)))
}
