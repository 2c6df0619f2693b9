// Package session holds the manual-entry list for one user session.
// The list is an explicit state object owned by the caller and passed into
// add/clear/calculate operations; nothing here is process-wide.
package session

import (
	"fmt"

	"github.com/ka7788158-png/IIT-MADRAS/estimate"
)

// List accumulates manual intervention entries for the duration of a session.
// It is mutated only through Add and Clear and is not safe for concurrent
// use; each session owns its list exclusively.
type List struct {
	entries []estimate.ManualEntry
}

// NewList creates an empty manual-entry list.
func NewList() *List {
	return &List{entries: make([]estimate.ManualEntry, 0)}
}

// Add appends an entry. The quantity must be positive.
func (l *List) Add(entry estimate.ManualEntry) error {
	if entry.Key == "" {
		return fmt.Errorf("manual entry requires an intervention key")
	}
	if entry.Quantity <= 0 {
		return fmt.Errorf("manual entry for %q: quantity must be positive, got %g", entry.Key, entry.Quantity)
	}
	l.entries = append(l.entries, entry)
	return nil
}

// Entries returns a copy of the current entries in insertion order.
func (l *List) Entries() []estimate.ManualEntry {
	out := make([]estimate.ManualEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries.
func (l *List) Len() int {
	return len(l.entries)
}

// Clear discards all entries.
func (l *List) Clear() {
	l.entries = l.entries[:0]
}
