package gaps

// Rule is the closed set of exclusion rules: Fixed, RecurringTemporal and RecurringNumeric.
type Rule interface {
	Kind() string
	Validate() error

	expand(h Horizon, out []rawSpan) ([]rawSpan, error)
}
