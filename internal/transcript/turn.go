package transcript

import (
	"strings"
	"sync"
)

// TurnBuffer accumulates transcript fragments for the current speaking turn.
// Fragments are appended verbatim; the finalized turn is the trimmed
// concatenation of everything appended since the last drain.
type TurnBuffer struct {
	mu  sync.Mutex
	buf strings.Builder
}

// Append adds a fragment to the current turn
func (b *TurnBuffer) Append(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.WriteString(text)
}

// DrainAndClear returns the trimmed turn contents and resets the buffer.
// An empty string means the turn carried no content.
func (b *TurnBuffer) DrainAndClear() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	turn := strings.TrimSpace(b.buf.String())
	b.buf.Reset()
	return turn
}

// Clear discards any accumulated fragments
func (b *TurnBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Reset()
}

// Len returns the number of buffered bytes
func (b *TurnBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Len()
}
