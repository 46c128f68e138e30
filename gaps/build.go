package gaps

import (
	"errors"
	"fmt"
	"sort"
)

// Build expands rules over the horizon and merges the result into an Index. Every rule is
// validated before anything is expanded.
func Build(rules []Rule, horizon Horizon) (*Index, error) {
	return build(rules, horizon, nil)
}

// BuildWithAnchor is Build with the logical origin shifted so that
// ToLogical(anchorReal) == anchorLogical.
func BuildWithAnchor(rules []Rule, horizon Horizon, anchorReal, anchorLogical int64) (*Index, error) {
	return build(rules, horizon, &[2]int64{anchorReal, anchorLogical})
}

func build(rules []Rule, horizon Horizon, anchor *[2]int64) (*Index, error) {
	if horizon.End <= horizon.Start {
		return nil, ErrBadHorizon
	}

	if err := ValidateRules(rules); err != nil {
		return nil, err
	}

	var (
		spans []rawSpan
		err   error
	)

	for i, rule := range rules {
		spans, err = rule.expand(horizon, spans)
		if err != nil {
			return nil, fmt.Errorf("rule #%d (%s): %w", i, rule.Kind(), err)
		}
	}

	idx := newIndex(mergeSpans(spans), 0)

	if anchor != nil {
		idx.shift = idx.ToLogical(anchor[0]) - anchor[1]
	}

	return idx, nil
}

// ValidateRules checks every rule and reports the first failure with its position.
func ValidateRules(rules []Rule) error {
	for i, rule := range rules {
		if rule == nil {
			return &ValidationError{Index: i, Rule: "nil", Reason: "nil rule"}
		}

		err := rule.Validate()
		if err == nil {
			continue
		}

		var vErr *ValidationError
		if errors.As(err, &vErr) {
			vErr.Index = i

			return vErr
		}

		return &ValidationError{Index: i, Rule: rule.Kind(), Reason: err.Error()}
	}

	return nil
}

func mergeSpans(spans []rawSpan) []Segment {
	if len(spans) == 0 {
		return nil
	}

	sort.Slice(spans, func(i, j int) bool {
		if spans[i].start == spans[j].start {
			return spans[i].end < spans[j].end
		}

		return spans[i].start < spans[j].start
	})

	segments := make([]Segment, 0, len(spans))

	for _, span := range spans {
		if span.end <= span.start {
			continue
		}

		if n := len(segments); n > 0 && span.start <= segments[n-1].EndReal {
			if span.end > segments[n-1].EndReal {
				segments[n-1].EndReal = span.end
			}

			continue
		}

		segments = append(segments, Segment{StartReal: span.start, EndReal: span.end})
	}

	return segments
}
