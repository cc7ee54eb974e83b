package transcript

// Assembler turns a stream of transcript fragments into a clean display
// transcript and discrete finalized turns.
//
// Fragments accumulate verbatim into the current turn while the rolling
// view independently computes non-duplicated display deltas. The rolling
// view spans the whole session; it survives turn boundaries.
type Assembler struct {
	turn TurnBuffer
	view RollingView
}

// NewAssembler creates an assembler with empty state
func NewAssembler() *Assembler {
	return &Assembler{}
}

// AddDelta records a transcript fragment and returns the display delta,
// which is empty when the fragment carried nothing new.
func (a *Assembler) AddDelta(text string) string {
	a.turn.Append(text)
	return a.view.Merge(text)
}

// CompleteTurn finalizes the current turn and returns its trimmed text.
// An empty result is still a valid turn boundary.
func (a *Assembler) CompleteTurn() string {
	return a.turn.DrainAndClear()
}

// AbandonTurn discards the partial turn, e.g. before a reconnection
// attempt where the provider will not resume the interrupted turn.
func (a *Assembler) AbandonTurn() {
	a.turn.Clear()
}

// DisplayText returns the full display transcript so far
func (a *Assembler) DisplayText() string {
	return a.view.Text()
}

// Reset clears both the partial turn and the rolling view.
// Used at session start.
func (a *Assembler) Reset() {
	a.turn.Clear()
	a.view.Reset()
}
