package session

import (
	"context"
	"sync"
	"time"
)

// setupSignal delivers the setup acknowledgement exactly once.
// The first call to complete wins; later calls are ignored.
type setupSignal struct {
	once sync.Once
	done chan struct{}
	err  error
}

func newSetupSignal() *setupSignal {
	return &setupSignal{done: make(chan struct{})}
}

func (s *setupSignal) complete(err error) {
	s.once.Do(func() {
		s.err = err
		close(s.done)
	})
}

// wait blocks until the signal fires, the context is cancelled, or the
// timeout elapses. A zero timeout means no deadline.
func (s *setupSignal) wait(ctx context.Context, timeout time.Duration) error {
	var timeoutC <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timeoutC = timer.C
	}

	select {
	case <-s.done:
		return s.err
	case <-ctx.Done():
		return ctx.Err()
	case <-timeoutC:
		return &Error{Kind: ErrSetupTimeout, Detail: "no setup acknowledgement before deadline"}
	}
}
