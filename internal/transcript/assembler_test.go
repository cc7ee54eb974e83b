package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssembler_TurnIsConcatenationTrimmed(t *testing.T) {
	a := NewAssembler()

	a.AddDelta(" hello ")
	a.AddDelta("world, ")
	a.AddDelta("how are you? ")

	assert.Equal(t, "hello world, how are you?", a.CompleteTurn())
}

func TestAssembler_EmptyTurnStillEmitted(t *testing.T) {
	a := NewAssembler()

	assert.Equal(t, "", a.CompleteTurn())

	a.AddDelta("   ")
	assert.Equal(t, "", a.CompleteTurn())
}

func TestAssembler_TurnClearedAfterComplete(t *testing.T) {
	a := NewAssembler()

	a.AddDelta("first turn")
	a.CompleteTurn()

	a.AddDelta("second turn")
	assert.Equal(t, "second turn", a.CompleteTurn())
}

func TestAssembler_AbandonTurn(t *testing.T) {
	a := NewAssembler()

	a.AddDelta("partial text lost to a reconnect")
	a.AbandonTurn()

	assert.Equal(t, "", a.CompleteTurn())
}

func TestAssembler_DisplaySurvivesTurnBoundary(t *testing.T) {
	a := NewAssembler()

	a.AddDelta("first turn.")
	a.CompleteTurn()
	a.AddDelta("first turn. second turn.")

	assert.Equal(t, "first turn. second turn.", a.DisplayText())
}

func TestAssembler_DisplayDeltaDeduplicated(t *testing.T) {
	a := NewAssembler()

	assert.Equal(t, "hello wor", a.AddDelta("hello wor"))
	assert.Equal(t, "ld", a.AddDelta("hello world"))
	assert.Empty(t, a.AddDelta("hello world"))

	// The turn still holds every fragment verbatim
	assert.Equal(t, "hello worhello worldhello world", a.CompleteTurn())
}

func TestAssembler_Reset(t *testing.T) {
	a := NewAssembler()

	a.AddDelta("old text")
	a.Reset()

	assert.Equal(t, "", a.DisplayText())
	assert.Equal(t, "", a.CompleteTurn())
}
