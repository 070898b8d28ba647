package receive

import "math"

// FreshnessFilter rejects envelopes older than the newest accepted one.
// Equal timestamps are accepted. The zero value is not ready; use
// NewFreshnessFilter.
type FreshnessFilter struct {
	last float64
}

// NewFreshnessFilter returns a filter that accepts any first timestamp.
func NewFreshnessFilter() *FreshnessFilter {
	return &FreshnessFilter{last: math.Inf(-1)}
}

// Accept reports whether ts is fresh and, if so, records it.
func (f *FreshnessFilter) Accept(ts float64) bool {
	if ts != ts || ts < f.last {
		return false
	}
	f.last = ts
	return true
}

// Last returns the newest accepted timestamp, or -Inf before the first.
func (f *FreshnessFilter) Last() float64 { return f.last }
