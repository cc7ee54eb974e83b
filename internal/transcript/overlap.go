package transcript

import (
	"strings"
	"sync"
)

// RollingView holds the longest displayed transcript text seen so far and
// reconciles each new snapshot against it. Providers sometimes resend
// cumulative text instead of an incremental fragment; Merge computes the
// minimal unseen suffix so the display transcript never repeats itself.
//
// The running text only grows. When a new snapshot repeats a phrase that
// already appears anywhere in the running text and shares no boundary
// overlap, it is treated as already shown and dropped.
type RollingView struct {
	mu   sync.Mutex
	last string
}

// Merge reconciles a new text snapshot against the running text and
// returns the display delta, which is empty when nothing new arrived.
// Rules, first match wins:
//
//	equal (case-insensitive)        -> nothing new
//	new extends running             -> the extension
//	new is a prefix of running      -> nothing new
//	boundary overlap of length k    -> new's tail after k
//	new appears inside running      -> nothing new
//	unrelated                       -> line break + new
func (v *RollingView) Merge(n string) string {
	v.mu.Lock()
	defer v.mu.Unlock()

	p := v.last

	if strings.EqualFold(n, p) {
		return ""
	}

	if strings.HasPrefix(n, p) {
		delta := n[len(p):]
		v.last = n
		return delta
	}

	if strings.HasPrefix(p, n) {
		return ""
	}

	// Longest suffix of the running text that prefixes the new text
	max := len(p)
	if len(n) < max {
		max = len(n)
	}
	for k := max; k >= 1; k-- {
		if strings.HasPrefix(n, p[len(p)-k:]) {
			delta := n[k:]
			v.last = p + delta
			return delta
		}
	}

	if strings.Contains(p, n) {
		return ""
	}

	delta := "\n" + n
	v.last = p + delta
	return delta
}

// Text returns the running display text
func (v *RollingView) Text() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.last
}

// Reset clears the running text. Called at session start, not at turn
// boundaries.
func (v *RollingView) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.last = ""
}
