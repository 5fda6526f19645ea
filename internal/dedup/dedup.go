// Package dedup suppresses a notification identical to the previous one.
package dedup

// ShouldEmit decides whether candidate goes out given the last emitted text.
// It returns the new last value: candidate when emitting, last otherwise.
func ShouldEmit(candidate, last string) (emit bool, newLast string) {
	if candidate == last {
		return false, last
	}
	return true, candidate
}

// Last tracks the most recently emitted text for a single flow of control.
// It is not safe for concurrent use.
type Last struct {
	text string
}

// Offer applies ShouldEmit against the tracked value and records the result.
func (l *Last) Offer(candidate string) bool {
	emit, next := ShouldEmit(candidate, l.text)
	l.text = next
	return emit
}

// Value returns the last emitted text ("" before the first emit).
func (l *Last) Value() string { return l.text }
