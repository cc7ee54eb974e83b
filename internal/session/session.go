package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/alexan1/livescribe/internal/audio"
	"github.com/alexan1/livescribe/internal/observability"
	"github.com/alexan1/livescribe/internal/protocol"
	"github.com/alexan1/livescribe/internal/resilience"
	"github.com/alexan1/livescribe/internal/transcript"
)

// Conn is the transport the session owns exclusively. No other component
// sends or receives on it.
type Conn interface {
	Send(data []byte) error
	Receive() ([]byte, error)
	SetReadDeadline(t time.Time) error
	Close() error
}

// DialFunc opens a new transport connection
type DialFunc func(ctx context.Context) (Conn, error)

// Options configures a session
type Options struct {
	SessionID            string
	Setup                protocol.SetupConfig
	TargetFormat         audio.Format
	SetupTimeout         time.Duration
	ReconnectMaxAttempts int
	ReconnectBackoff     time.Duration
	ReconnectMaxBackoff  time.Duration
	DisconnectGrace      time.Duration
}

// Callbacks notify the caller about session events. Nil callbacks are
// skipped. Delivery is sequential: callbacks run on the receive loop.
type Callbacks struct {
	OnInputTranscriptChunk func(text string)
	OnTurnComplete         func(turn string)
	OnModelOutput          func(text string)
	OnClosed               func(err error)
}

// Session manages one live connection to the provider: setup handshake,
// audio transmission, transcript reassembly, and bounded reconnection.
type Session struct {
	dial    DialFunc
	opts    Options
	cb      Callbacks
	logger  zerolog.Logger
	metrics *observability.SessionMetrics

	ctx    context.Context
	cancel context.CancelFunc

	state atomic.Int32

	connMu sync.Mutex
	conn   Conn

	asm   *transcript.Assembler
	setup *setupSignal

	lastErrMu     sync.RWMutex
	lastServerErr string

	disconnecting atomic.Bool
	closeOnce     sync.Once
	endOnce       sync.Once
	runDone       chan struct{}
}

// NewSession creates a session that will connect through dial
func NewSession(dial DialFunc, opts Options, cb Callbacks) *Session {
	if opts.SessionID == "" {
		opts.SessionID = observability.NewSessionID()
	}
	if opts.SetupTimeout <= 0 {
		opts.SetupTimeout = 10 * time.Second
	}
	if opts.ReconnectMaxAttempts <= 0 {
		opts.ReconnectMaxAttempts = 5
	}
	if opts.ReconnectBackoff <= 0 {
		opts.ReconnectBackoff = 2 * time.Second
	}
	if opts.ReconnectMaxBackoff <= 0 {
		opts.ReconnectMaxBackoff = 30 * time.Second
	}
	if opts.DisconnectGrace <= 0 {
		opts.DisconnectGrace = 2 * time.Second
	}
	if opts.TargetFormat.SampleRateHz <= 0 {
		opts.TargetFormat = audio.DefaultFormat
	}

	return &Session{
		dial:    dial,
		opts:    opts,
		logger:  observability.WithSessionID(opts.SessionID),
		metrics: observability.NewSessionMetrics(opts.SessionID),
		cb:      cb,
		asm:     transcript.NewAssembler(),
		setup:   newSetupSignal(),
	}
}

// State returns the current lifecycle state
func (s *Session) State() State {
	return State(s.state.Load())
}

func (s *Session) setState(st State) {
	s.state.Store(int32(st))
	s.metrics.RecordStateTransition(st.String())
	s.logger.Debug().Str("state", st.String()).Msg("Session state changed")
}

// LastServerError returns the most recent provider-reported error detail,
// or an empty string when none occurred.
func (s *Session) LastServerError() string {
	s.lastErrMu.RLock()
	defer s.lastErrMu.RUnlock()
	return s.lastServerErr
}

func (s *Session) setLastServerError(detail string) {
	s.lastErrMu.Lock()
	s.lastServerErr = detail
	s.lastErrMu.Unlock()
}

func (s *Session) currentConn() Conn {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	return s.conn
}

func (s *Session) setConn(conn Conn) {
	s.connMu.Lock()
	s.conn = conn
	s.connMu.Unlock()
}

// Connect dials the provider, sends the setup message, and starts the
// receive loop. Valid once per session.
func (s *Session) Connect(ctx context.Context) error {
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateConnecting)) {
		return &Error{Kind: ErrClosed, Detail: "connect is only valid on a fresh session"}
	}
	s.metrics.RecordSessionStart()
	s.metrics.RecordStateTransition(StateConnecting.String())
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.asm.Reset()

	conn, err := s.dial(s.ctx)
	if err != nil {
		terr := newTransportError(err)
		s.failConnect(terr)
		return terr
	}

	setupMsg, err := protocol.EncodeSetup(s.opts.Setup)
	if err != nil {
		_ = conn.Close()
		s.failConnect(err)
		return err
	}
	if err := conn.Send(setupMsg); err != nil {
		_ = conn.Close()
		terr := newTransportError(err)
		s.failConnect(terr)
		return terr
	}

	s.setConn(conn)
	s.setState(StateAwaitingSetup)
	s.runDone = make(chan struct{})
	go s.run()

	s.logger.Info().Msg("Connected, awaiting setup acknowledgement")
	return nil
}

// failConnect closes a session that never reached the receive loop.
// The Connect error is the caller's signal; no terminal event fires.
func (s *Session) failConnect(err error) {
	if s.cancel != nil {
		s.cancel()
	}
	s.setState(StateClosed)
	s.setup.complete(err)
	s.endOnce.Do(func() { s.metrics.RecordSessionEnd() })
}

// WaitForSetupComplete blocks until the provider acknowledges setup,
// a provider error arrives, the context is cancelled, or the timeout
// elapses. A zero timeout uses the configured setup timeout.
func (s *Session) WaitForSetupComplete(ctx context.Context, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = s.opts.SetupTimeout
	}
	return s.setup.wait(ctx, timeout)
}

// SendAudio transmits one audio frame. Outside the streaming state the
// frame is dropped silently; send failures are logged and dropped, never
// fatal to the session.
func (s *Session) SendAudio(frame audio.Frame) {
	if s.State() != StateStreaming {
		s.metrics.RecordFrameDropped("not_streaming")
		return
	}

	data, err := audio.ConvertFrame(frame, s.opts.TargetFormat)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Audio conversion failed, frame dropped")
		s.metrics.RecordFrameDropped("convert_error")
		return
	}

	msg, err := protocol.EncodeAudioChunk(data, s.opts.TargetFormat.MimeType())
	if err != nil {
		s.metrics.RecordFrameDropped("encode_error")
		return
	}

	conn := s.currentConn()
	if conn == nil {
		s.metrics.RecordFrameDropped("not_streaming")
		return
	}

	if err := conn.Send(msg); err != nil {
		s.logger.Warn().Err(err).Msg("Audio send failed, frame dropped")
		s.metrics.RecordFrameDropped("send_error")
		return
	}
	s.metrics.RecordAudioBytes(len(data))
}

// Disconnect tears the session down. Safe to call from any state and
// more than once; cleanup errors are swallowed.
func (s *Session) Disconnect() {
	s.closeOnce.Do(func() {
		s.disconnecting.Store(true)
		if s.cancel != nil {
			s.cancel()
		}
		if conn := s.currentConn(); conn != nil {
			_ = conn.Close()
		}
		if s.runDone != nil {
			select {
			case <-s.runDone:
			case <-time.After(s.opts.DisconnectGrace):
				s.logger.Warn().Msg("Receive loop did not stop within grace period")
			}
		}
		s.terminal(nil)
		s.logger.Info().Msg("Session disconnected")
	})
}

// terminal moves the session to its final state and notifies the caller
// exactly once.
func (s *Session) terminal(err error) {
	s.setState(StateClosed)
	if err != nil {
		s.setup.complete(err)
	} else {
		s.setup.complete(&Error{Kind: ErrClosed, Detail: "session closed"})
	}
	s.endOnce.Do(func() {
		s.metrics.RecordSessionEnd()
		if s.cb.OnClosed != nil {
			s.cb.OnClosed(err)
		}
	})
}

// run is the session's receive loop. On an unexpected transport failure
// it drives bounded reconnection; it exits only into the terminal state.
func (s *Session) run() {
	defer close(s.runDone)

	for {
		err := s.readPump()

		if s.disconnecting.Load() || s.ctx.Err() != nil {
			s.terminal(nil)
			return
		}

		s.logger.Warn().Err(err).Msg("Connection lost, starting reconnection")
		s.metrics.RecordError("transport", "session")
		if conn := s.currentConn(); conn != nil {
			_ = conn.Close()
			s.setConn(nil)
		}
		s.setState(StateReconnecting)

		recErr := resilience.Reconnect(s.ctx, s.establish, &resilience.ReconnectConfig{
			MaxAttempts: s.opts.ReconnectMaxAttempts,
			Backoff:     s.opts.ReconnectBackoff,
			Multiplier:  2.0,
			MaxBackoff:  s.opts.ReconnectMaxBackoff,
		}, s.isTransient)

		if recErr != nil {
			if s.disconnecting.Load() || errors.Is(recErr, context.Canceled) {
				s.terminal(nil)
				return
			}
			s.metrics.RecordReconnectsExhausted()
			s.logger.Error().Err(recErr).Msg("Reconnection failed, closing session")
			s.terminal(recErr)
			return
		}
	}
}

func (s *Session) readPump() error {
	conn := s.currentConn()
	if conn == nil {
		return errors.New("no active connection")
	}

	for {
		raw, err := conn.Receive()
		if err != nil {
			return newTransportError(err)
		}
		s.dispatch(raw)
	}
}

// dispatch processes one server message. Decode failures are logged and
// skipped; they never stop the receive loop.
func (s *Session) dispatch(raw []byte) {
	for _, ev := range protocol.Decode(raw) {
		switch ev.Kind {
		case protocol.EventSetupComplete:
			s.setState(StateStreaming)
			s.setup.complete(nil)
			s.logger.Info().Msg("Setup acknowledged, streaming")

		case protocol.EventTranscriptDelta:
			s.metrics.RecordTranscriptDelta()
			if delta := s.asm.AddDelta(ev.Text); delta != "" && s.cb.OnInputTranscriptChunk != nil {
				s.cb.OnInputTranscriptChunk(delta)
			}

		case protocol.EventModelOutput:
			if s.cb.OnModelOutput != nil {
				s.cb.OnModelOutput(ev.Text)
			}

		case protocol.EventTurnComplete:
			s.metrics.RecordTurnComplete()
			turn := s.asm.CompleteTurn()
			if s.cb.OnTurnComplete != nil {
				s.cb.OnTurnComplete(turn)
			}

		case protocol.EventProviderError:
			s.metrics.RecordProviderError()
			s.setLastServerError(ev.Detail)
			s.setup.complete(newProviderError(ev.Detail))
			s.logger.Error().Str("detail", ev.Detail).Msg("Provider reported an error")

		case protocol.EventDecodeFailure:
			s.metrics.RecordDecodeFailure()
			s.logger.Warn().Str("detail", ev.Detail).Msg("Dropping undecodable message")

		case protocol.EventUnrecognized:
			s.logger.Debug().Msg("Ignoring unrecognized message")
		}
	}
}

// establish performs one reconnection attempt: dial, send setup, and wait
// for the acknowledgement under the setup timeout. The interrupted turn is
// abandoned first since the provider will not resume it.
func (s *Session) establish(ctx context.Context, attempt int) error {
	s.metrics.RecordReconnectAttempt()
	s.asm.AbandonTurn()
	s.logger.Info().Int("attempt", attempt).Msg("Reconnecting")

	conn, err := s.dial(ctx)
	if err != nil {
		return newTransportError(err)
	}

	setupMsg, err := protocol.EncodeSetup(s.opts.Setup)
	if err != nil {
		_ = conn.Close()
		return err
	}
	if err := conn.Send(setupMsg); err != nil {
		_ = conn.Close()
		return newTransportError(err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(s.opts.SetupTimeout))
	for {
		raw, err := conn.Receive()
		if err != nil {
			_ = conn.Close()
			return newTransportError(err)
		}
		for _, ev := range protocol.Decode(raw) {
			switch ev.Kind {
			case protocol.EventSetupComplete:
				_ = conn.SetReadDeadline(time.Time{})
				s.setConn(conn)
				s.setState(StateStreaming)
				return nil
			case protocol.EventProviderError:
				_ = conn.Close()
				s.setLastServerError(ev.Detail)
				return newProviderError(ev.Detail)
			}
		}
	}
}

// isTransient decides whether a reconnection attempt error is worth
// another attempt. Provider errors are permanent; transport failures
// and timeouts are transient.
func (s *Session) isTransient(err error) bool {
	var serr *Error
	if errors.As(err, &serr) && serr.Kind == ErrProvider {
		return false
	}
	return !errors.Is(err, context.Canceled)
}
