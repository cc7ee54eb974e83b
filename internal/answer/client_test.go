package answer

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexan1/livescribe/internal/config"
)

func testConfig(endpoint string) *config.Config {
	return &config.Config{
		APIKey:                     "test-key",
		AnswerEndpoint:             endpoint,
		AnswerModel:                "models/test",
		AnswerSystemPrompt:         "Answer briefly.",
		AnswerRetryAttempts:        3,
		AnswerRetryBackoffMs:       1,
		CircuitBreakerMaxFailures:  5,
		CircuitBreakerResetTimeout: 1,
	}
}

func sseChunk(text string) string {
	return fmt.Sprintf(`data: {"candidates":[{"content":{"parts":[{"text":%q}]}}]}`+"\n\n", text)
}

func TestStreamAnswer_ForwardsChunks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, sseChunk("The capital "))
		fmt.Fprint(w, sseChunk("is Paris."))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), zerolog.Nop())

	var chunks []string
	err := client.StreamAnswer(context.Background(), "What is the capital of France?", func(chunk string) {
		chunks = append(chunks, chunk)
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"The capital ", "is Paris."}, chunks)
}

func TestStreamAnswer_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, "try again", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, sseChunk("recovered"))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), zerolog.Nop())

	var chunks []string
	err := client.StreamAnswer(context.Background(), "are you up?", func(chunk string) {
		chunks = append(chunks, chunk)
	})

	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, []string{"recovered"}, chunks)
}

func TestStreamAnswer_ClientErrorNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), zerolog.Nop())

	err := client.StreamAnswer(context.Background(), "malformed?", func(string) {})

	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestStreamAnswer_SkipsMalformedChunks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {broken json\n\n")
		fmt.Fprint(w, sseChunk("still fine"))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), zerolog.Nop())

	var chunks []string
	err := client.StreamAnswer(context.Background(), "resilient?", func(chunk string) {
		chunks = append(chunks, chunk)
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"still fine"}, chunks)
}

func TestStreamAnswer_RejectsEmptyQuestion(t *testing.T) {
	client := NewClient(testConfig("http://127.0.0.1:0"), zerolog.Nop())

	err := client.StreamAnswer(context.Background(), "", func(string) {})
	assert.Error(t, err)
}
