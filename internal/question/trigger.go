package question

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/alexan1/livescribe/internal/observability"
)

// AnswerFunc streams an answer for a question, invoking onChunk for each
// received text fragment.
type AnswerFunc func(ctx context.Context, question string, onChunk func(string)) error

// Callbacks notify the caller about question detection and answer progress.
// Nil callbacks are skipped.
type Callbacks struct {
	OnQuestion    func(question string)
	OnAnswerChunk func(question, chunk string)
	OnAnswerDone  func(question string, err error)
}

// Trigger watches finalized turns for questions and streams answers.
// Each detected question is answered at most once per session; answer
// streams run concurrently and never block turn processing.
type Trigger struct {
	answer    AnswerFunc
	set       *AnsweredSet
	callbacks Callbacks
	logger    zerolog.Logger
	metrics   *observability.SessionMetrics

	wg sync.WaitGroup
}

// NewTrigger creates a question trigger
func NewTrigger(answer AnswerFunc, callbacks Callbacks, logger zerolog.Logger, metrics *observability.SessionMetrics) *Trigger {
	return &Trigger{
		answer:    answer,
		set:       NewAnsweredSet(),
		callbacks: callbacks,
		logger:    logger,
		metrics:   metrics,
	}
}

// HandleTurn inspects one finalized turn and, when it carries a new
// question, notifies the caller and starts an answer stream. Repeated
// questions are skipped silently.
func (t *Trigger) HandleTurn(ctx context.Context, turn string) {
	q, ok := Extract(turn)
	if !ok {
		return
	}

	if !t.set.MarkIfNew(q) {
		t.logger.Debug().Str("question", q).Msg("Question already answered, skipping")
		return
	}

	t.logger.Info().Str("question", q).Msg("Question detected")
	if t.metrics != nil {
		t.metrics.RecordQuestionDetected()
	}

	if t.callbacks.OnQuestion != nil {
		t.callbacks.OnQuestion(q)
	}

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		t.streamAnswer(ctx, q)
	}()
}

func (t *Trigger) streamAnswer(ctx context.Context, q string) {
	if t.metrics != nil {
		t.metrics.RecordAnswerStart()
	}

	err := t.answer(ctx, q, func(chunk string) {
		if t.callbacks.OnAnswerChunk != nil {
			t.callbacks.OnAnswerChunk(q, chunk)
		}
	})

	if err != nil {
		t.logger.Warn().Err(err).Str("question", q).Msg("Answer stream failed")
	}
	if t.metrics != nil {
		t.metrics.RecordAnswerEnd(err == nil)
	}
	if t.callbacks.OnAnswerDone != nil {
		t.callbacks.OnAnswerDone(q, err)
	}
}

// Wait blocks until all in-flight answer streams finish
func (t *Trigger) Wait() {
	t.wg.Wait()
}

// Reset clears the answered-question set for a fresh session
func (t *Trigger) Reset() {
	t.set.Reset()
}
