package protocol

// EventKind identifies a decoded server event
type EventKind int

const (
	// EventSetupComplete means the provider acknowledged the setup message
	EventSetupComplete EventKind = iota
	// EventTranscriptDelta carries an incremental input transcription fragment
	EventTranscriptDelta
	// EventModelOutput carries model-generated text from the live connection
	EventModelOutput
	// EventTurnComplete marks the end of the current speaking turn
	EventTurnComplete
	// EventProviderError carries an error reported by the provider
	EventProviderError
	// EventUnrecognized is a well-formed message of an unknown shape
	EventUnrecognized
	// EventDecodeFailure is a message that could not be parsed
	EventDecodeFailure
)

func (k EventKind) String() string {
	switch k {
	case EventSetupComplete:
		return "setup_complete"
	case EventTranscriptDelta:
		return "transcript_delta"
	case EventModelOutput:
		return "model_output"
	case EventTurnComplete:
		return "turn_complete"
	case EventProviderError:
		return "provider_error"
	case EventUnrecognized:
		return "unrecognized"
	case EventDecodeFailure:
		return "decode_failure"
	default:
		return "unknown"
	}
}

// Event is a single decoded server event.
// Text holds transcript or model text, Detail holds error detail,
// and Raw preserves the original payload for diagnostics.
type Event struct {
	Kind   EventKind
	Text   string
	Detail string
	Raw    []byte
}
