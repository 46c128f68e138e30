package gaps

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// RuleConfig is one rule as written in YAML: a kind plus loosely typed parameters.
//
//	rules:
//	  - kind: fixed
//	    start: 2024-03-01T00:00:00Z
//	    end: 2024-03-02T00:00:00Z
//	  - kind: weekly
//	    days: [sat, sun]
//	    start: "00:00"
//	    end: "24:00"
//	    timezone: America/New_York
//	  - kind: numeric
//	    modulo: 7
//	    offset: 5
//	    width: 2
type RuleConfig struct {
	Kind   string                 `yaml:"kind"`
	Params map[string]interface{} `yaml:",inline"`
}

type RulesConfig struct {
	Rules []RuleConfig `yaml:"rules"`
}

func ParseRulesYAML(d []byte) ([]Rule, error) {
	var cfg RulesConfig

	if err := yaml.Unmarshal(d, &cfg); err != nil {
		return nil, err
	}

	return cfg.ToRules()
}

func (cfg RulesConfig) ToRules() ([]Rule, error) {
	rules := make([]Rule, 0, len(cfg.Rules))

	for i, rc := range cfg.Rules {
		rule, err := rc.ToRule()
		if err != nil {
			return nil, fmt.Errorf("rule #%d: %w", i, err)
		}

		rules = append(rules, rule)
	}

	return rules, nil
}

func (rc RuleConfig) ToRule() (Rule, error) {
	switch strings.ToLower(rc.Kind) {
	case "fixed":
		start, err := rc.instant("start")
		if err != nil {
			return nil, err
		}

		end, err := rc.instant("end")
		if err != nil {
			return nil, err
		}

		return Fixed{Start: start, End: end}, nil
	case "weekly", "temporal":
		return rc.temporal()
	case "numeric":
		var vs [3]float64

		for i, key := range []string{"modulo", "offset", "width"} {
			v, ok := rc.Params[key]
			if !ok {
				if key == "offset" {
					continue
				}

				return nil, fmt.Errorf("%w: %s", ErrMissingRuleField, key)
			}

			f, err := cast.ToFloat64E(v)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}

			vs[i] = f
		}

		return RecurringNumeric{Modulo: vs[0], Offset: vs[1], Width: vs[2]}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownRuleKind, rc.Kind)
	}
}

func (rc RuleConfig) instant(key string) (int64, error) {
	v, ok := rc.Params[key]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingRuleField, key)
	}

	if t, ok := v.(time.Time); ok {
		return t.UnixMilli(), nil
	}

	if n, err := cast.ToInt64E(v); err == nil {
		return n, nil
	}

	t, err := cast.ToTimeE(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}

	return t.UnixMilli(), nil
}

func (rc RuleConfig) temporal() (Rule, error) {
	rawDays, ok := rc.Params["days"]
	if !ok {
		return nil, fmt.Errorf("%w: days", ErrMissingRuleField)
	}

	items, err := cast.ToSliceE(rawDays)
	if err != nil {
		items = []interface{}{rawDays}
	}

	days := make([]time.Weekday, 0, len(items))

	for _, item := range items {
		day, err := ParseWeekday(item)
		if err != nil {
			return nil, err
		}

		days = append(days, day)
	}

	rule := RecurringTemporal{
		Days:     days,
		Timezone: cast.ToString(rc.Params["timezone"]),
	}

	for key, dst := range map[string]*ClockTime{"start": &rule.Start, "end": &rule.End} {
		v, ok := rc.Params[key]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingRuleField, key)
		}

		if *dst, err = ParseClockTime(cast.ToString(v)); err != nil {
			return nil, err
		}
	}

	return rule, nil
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// ParseWeekday accepts a weekday name or abbreviation, or a number with 0 as Sunday.
func ParseWeekday(v interface{}) (time.Weekday, error) {
	s := strings.ToLower(strings.TrimSpace(cast.ToString(v)))

	if day, ok := weekdayNames[s]; ok {
		return day, nil
	}

	n, err := cast.ToIntE(v)
	if err != nil || n < 0 || n > 6 {
		return 0, fmt.Errorf("%w: %v", ErrBadWeekday, v)
	}

	return time.Weekday(n), nil
}

// ParseClockTime parses HH:MM or HH:MM:SS; 24:00 is accepted.
func ParseClockTime(s string) (c ClockTime, err error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		err = fmt.Errorf("%w: %q", ErrBadClockTime, s)

		return
	}

	var vs [3]int

	for i, part := range parts {
		// cast parses with base 0, so "08" would be read as octal
		part = strings.TrimLeft(part, "0")
		if part == "" {
			part = "0"
		}

		if vs[i], err = cast.ToIntE(part); err != nil {
			err = fmt.Errorf("%w: %q", ErrBadClockTime, s)

			return
		}
	}

	c = ClockTime{Hour: vs[0], Minute: vs[1], Second: vs[2]}

	if !c.valid(true) {
		err = fmt.Errorf("%w: %q", ErrBadClockTime, s)
	}

	return
}
