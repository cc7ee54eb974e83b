package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Session metrics
	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "livescribe_active_sessions",
		Help: "Number of active live sessions",
	})

	totalSessions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "livescribe_sessions_total",
		Help: "Total number of live sessions started",
	})

	sessionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "livescribe_session_duration_seconds",
		Help:    "Duration of live sessions in seconds",
		Buckets: []float64{10, 30, 60, 300, 600, 1800, 3600},
	})

	stateTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "livescribe_session_state_transitions_total",
		Help: "Total session state transitions",
	}, []string{"state"})

	reconnectAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "livescribe_reconnect_attempts_total",
		Help: "Total reconnection attempts",
	})

	reconnectsExhausted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "livescribe_reconnects_exhausted_total",
		Help: "Total sessions closed after exhausting reconnection attempts",
	})

	// Audio metrics
	audioBytesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "livescribe_audio_bytes_sent_total",
		Help: "Total audio bytes transmitted to the provider",
	})

	framesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "livescribe_frames_dropped_total",
		Help: "Total audio frames dropped before transmission",
	}, []string{"reason"}) // reason: "not_streaming", "silence", "send_error"

	// Transcript metrics
	transcriptDeltas = promauto.NewCounter(prometheus.CounterOpts{
		Name: "livescribe_transcript_deltas_total",
		Help: "Total transcript delta events received",
	})

	transcriptTurns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "livescribe_transcript_turns_total",
		Help: "Total completed transcript turns",
	})

	// Question / answer metrics
	questionsDetected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "livescribe_questions_detected_total",
		Help: "Total unique questions dispatched for answering",
	})

	answerRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "livescribe_answer_requests_total",
		Help: "Total answer-generation requests",
	}, []string{"status"})

	answerLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "livescribe_answer_latency_seconds",
		Help:    "Answer-generation stream duration in seconds",
		Buckets: []float64{0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
	})

	// Error metrics
	decodeFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "livescribe_decode_failures_total",
		Help: "Total malformed provider messages",
	})

	providerErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "livescribe_provider_errors_total",
		Help: "Total provider-reported errors",
	})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "livescribe_errors_total",
		Help: "Total number of errors",
	}, []string{"type", "component"})
)

// SessionMetrics tracks metrics for a single live session
type SessionMetrics struct {
	sessionID       string
	startTime       time.Time
	answerStartTime time.Time
	mu              sync.Mutex
}

// NewSessionMetrics creates a new metrics tracker for a session
func NewSessionMetrics(sessionID string) *SessionMetrics {
	return &SessionMetrics{
		sessionID: sessionID,
		startTime: time.Now(),
	}
}

// RecordSessionStart records the start of a session
func (m *SessionMetrics) RecordSessionStart() {
	activeSessions.Inc()
	totalSessions.Inc()
}

// RecordSessionEnd records the end of a session
func (m *SessionMetrics) RecordSessionEnd() {
	activeSessions.Dec()
	sessionDuration.Observe(time.Since(m.startTime).Seconds())
}

// RecordStateTransition records a session state transition
func (m *SessionMetrics) RecordStateTransition(state string) {
	stateTransitions.WithLabelValues(state).Inc()
}

// RecordReconnectAttempt records a single reconnection attempt
func (m *SessionMetrics) RecordReconnectAttempt() {
	reconnectAttempts.Inc()
}

// RecordReconnectsExhausted records a session giving up on reconnection
func (m *SessionMetrics) RecordReconnectsExhausted() {
	reconnectsExhausted.Inc()
}

// RecordAudioBytes records transmitted audio bytes
func (m *SessionMetrics) RecordAudioBytes(n int) {
	audioBytesSent.Add(float64(n))
}

// RecordFrameDropped records a dropped audio frame
func (m *SessionMetrics) RecordFrameDropped(reason string) {
	framesDropped.WithLabelValues(reason).Inc()
}

// RecordTranscriptDelta records a transcript delta event
func (m *SessionMetrics) RecordTranscriptDelta() {
	transcriptDeltas.Inc()
}

// RecordTurnComplete records a completed transcript turn
func (m *SessionMetrics) RecordTurnComplete() {
	transcriptTurns.Inc()
}

// RecordQuestionDetected records a newly dispatched question
func (m *SessionMetrics) RecordQuestionDetected() {
	questionsDetected.Inc()
}

// RecordAnswerStart records the start of an answer stream
func (m *SessionMetrics) RecordAnswerStart() {
	m.mu.Lock()
	m.answerStartTime = time.Now()
	m.mu.Unlock()
}

// RecordAnswerEnd records the end of an answer stream
func (m *SessionMetrics) RecordAnswerEnd(success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.answerStartTime.IsZero() {
		answerLatency.Observe(time.Since(m.answerStartTime).Seconds())
	}

	status := "success"
	if !success {
		status = "error"
	}
	answerRequests.WithLabelValues(status).Inc()
}

// RecordDecodeFailure records a malformed provider message
func (m *SessionMetrics) RecordDecodeFailure() {
	decodeFailures.Inc()
}

// RecordProviderError records a provider-reported error
func (m *SessionMetrics) RecordProviderError() {
	providerErrors.Inc()
}

// RecordError records a generic error by type and component
func (m *SessionMetrics) RecordError(errorType, component string) {
	errorsTotal.WithLabelValues(errorType, component).Inc()
}
