package protocol

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// SetupConfig configures the live session handshake
type SetupConfig struct {
	Model             string
	SystemInstruction string
	Modalities        []string
}

type part struct {
	Text string `json:"text,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

type setupPayload struct {
	Model                   string           `json:"model"`
	GenerationConfig        generationConfig `json:"generationConfig"`
	SystemInstruction       *content         `json:"systemInstruction,omitempty"`
	InputAudioTranscription struct{}         `json:"inputAudioTranscription"`
}

// EncodeSetup builds the session setup message sent immediately after connecting
func EncodeSetup(cfg SetupConfig) ([]byte, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("setup requires a model")
	}

	modalities := cfg.Modalities
	if len(modalities) == 0 {
		modalities = []string{"TEXT"}
	}

	payload := setupPayload{
		Model:            cfg.Model,
		GenerationConfig: generationConfig{ResponseModalities: modalities},
	}
	if cfg.SystemInstruction != "" {
		payload.SystemInstruction = &content{Parts: []part{{Text: cfg.SystemInstruction}}}
	}

	return json.Marshal(struct {
		Setup setupPayload `json:"setup"`
	}{Setup: payload})
}

type mediaChunk struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// EncodeAudioChunk builds a realtime input message carrying one PCM chunk
func EncodeAudioChunk(pcm []byte, mimeType string) ([]byte, error) {
	if len(pcm) == 0 {
		return nil, fmt.Errorf("empty audio chunk")
	}

	return json.Marshal(struct {
		RealtimeInput struct {
			MediaChunks []mediaChunk `json:"mediaChunks"`
		} `json:"realtimeInput"`
	}{
		RealtimeInput: struct {
			MediaChunks []mediaChunk `json:"mediaChunks"`
		}{
			MediaChunks: []mediaChunk{{
				MimeType: mimeType,
				Data:     base64.StdEncoding.EncodeToString(pcm),
			}},
		},
	})
}

// EncodeAnswerRequest builds the request body for the answer-generation endpoint
func EncodeAnswerRequest(question, systemPrompt string) ([]byte, error) {
	if question == "" {
		return nil, fmt.Errorf("empty question")
	}

	body := struct {
		Contents          []content `json:"contents"`
		SystemInstruction *content  `json:"systemInstruction,omitempty"`
	}{
		Contents: []content{{Role: "user", Parts: []part{{Text: question}}}},
	}
	if systemPrompt != "" {
		body.SystemInstruction = &content{Parts: []part{{Text: systemPrompt}}}
	}

	return json.Marshal(body)
}

type serverMessage struct {
	SetupComplete *struct{} `json:"setupComplete"`
	ServerContent *struct {
		InputTranscription *struct {
			Text string `json:"text"`
		} `json:"inputTranscription"`
		ModelTurn *struct {
			Parts []part `json:"parts"`
		} `json:"modelTurn"`
		TurnComplete bool `json:"turnComplete"`
	} `json:"serverContent"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Decode parses one server message into its events.
// A single message can carry several, e.g. a transcript fragment together
// with a turn boundary; the transcript event always precedes the boundary.
func Decode(raw []byte) []Event {
	var msg serverMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return []Event{{Kind: EventDecodeFailure, Detail: err.Error(), Raw: raw}}
	}

	var events []Event

	if msg.SetupComplete != nil {
		events = append(events, Event{Kind: EventSetupComplete, Raw: raw})
	}

	if msg.ServerContent != nil {
		sc := msg.ServerContent
		if sc.InputTranscription != nil {
			events = append(events, Event{Kind: EventTranscriptDelta, Text: sc.InputTranscription.Text, Raw: raw})
		}
		if sc.ModelTurn != nil {
			text := ""
			for _, p := range sc.ModelTurn.Parts {
				text += p.Text
			}
			if text != "" {
				events = append(events, Event{Kind: EventModelOutput, Text: text, Raw: raw})
			}
		}
		if sc.TurnComplete {
			events = append(events, Event{Kind: EventTurnComplete, Raw: raw})
		}
	}

	if msg.Error != nil {
		detail := fmt.Sprintf("%s (code %d, status %s)", msg.Error.Message, msg.Error.Code, msg.Error.Status)
		events = append(events, Event{Kind: EventProviderError, Detail: detail, Raw: raw})
	}

	if len(events) == 0 {
		events = append(events, Event{Kind: EventUnrecognized, Raw: raw})
	}

	return events
}

// DecodeAnswerChunk extracts generated text from one SSE data payload
// of the answer-generation endpoint.
func DecodeAnswerChunk(data []byte) (string, error) {
	var chunk struct {
		Candidates []struct {
			Content struct {
				Parts []part `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(data, &chunk); err != nil {
		return "", fmt.Errorf("decode answer chunk: %w", err)
	}

	if len(chunk.Candidates) == 0 {
		return "", nil
	}

	text := ""
	for _, p := range chunk.Candidates[0].Content.Parts {
		text += p.Text
	}
	return text, nil
}
