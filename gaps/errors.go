package gaps

import (
	"errors"
	"fmt"

	"github.com/sgostarter/i/commerr"
)

var (
	ErrBadHorizon       = errors.New("bad horizon")
	ErrTooManySegments  = errors.New("too many segments")
	ErrUnknownRuleKind  = errors.New("unknown rule kind")
	ErrBadClockTime     = errors.New("bad clock time")
	ErrBadWeekday       = errors.New("bad weekday")
	ErrMissingRuleField = errors.New("missing rule field")
)

// ValidationError reports a rule rejected at build time. The index that was in effect stays.
type ValidationError struct {
	Index  int
	Rule   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("rule #%d (%s): %s", e.Index, e.Rule, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return commerr.ErrInvalidArgument
}

func newValidationError(rule Rule, reason string) *ValidationError {
	return &ValidationError{
		Index:  -1,
		Rule:   rule.Kind(),
		Reason: reason,
	}
}
