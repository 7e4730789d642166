package scoring

// DefaultSpamThreshold is the reputation floor: authors at or above
// -DefaultSpamThreshold are admissible.
const DefaultSpamThreshold = 10

// SpamFilter is a binary admission predicate over author reputation.
// It is applied before scoring, so suppressed authors' posts never enter
// the ranked set at all - this is an exclusion, not a score penalty.
type SpamFilter struct {
	Threshold int
}

// DefaultSpamFilter returns the filter with the production threshold.
func DefaultSpamFilter() SpamFilter {
	return SpamFilter{Threshold: DefaultSpamThreshold}
}

// Admissible reports whether an author with the given reputation may appear
// in feeds. The boundary is inclusive: reputation == -Threshold passes.
func (f SpamFilter) Admissible(reputation int) bool {
	return reputation >= -f.Threshold
}
