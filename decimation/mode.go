package decimation

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownMode = errors.New("unknown aggregation mode")

type Mode int

const (
	ModeM4 Mode = iota
	ModeMinMax
	ModeLTTB
)

func (m Mode) String() string {
	switch m {
	case ModeM4:
		return "m4"
	case ModeMinMax:
		return "minmax"
	case ModeLTTB:
		return "lttb"
	}

	return fmt.Sprintf("mode(%d)", int(m))
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "m4":
		return ModeM4, nil
	case "minmax", "min_max", "min-max":
		return ModeMinMax, nil
	case "lttb":
		return ModeLTTB, nil
	}

	return ModeM4, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(text []byte) (err error) {
	*m, err = ParseMode(string(text))

	return
}
