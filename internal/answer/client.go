package answer

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/alexan1/livescribe/internal/config"
	"github.com/alexan1/livescribe/internal/protocol"
	"github.com/alexan1/livescribe/internal/resilience"
)

const maxSSELineSize = 1024 * 1024

// Client streams answers from the generation endpoint.
// Each question is one HTTP request with a server-sent-event response;
// requests are independent of the live session and run concurrently
// with audio streaming.
type Client struct {
	endpoint     string
	systemPrompt string

	httpClient *http.Client
	breaker    *resilience.CircuitBreaker
	retryCfg   *resilience.RetryConfig
	logger     zerolog.Logger
}

// NewClient creates an answer client from configuration
func NewClient(cfg *config.Config, logger zerolog.Logger) *Client {
	return &Client{
		endpoint:     cfg.AnswerURL(),
		systemPrompt: cfg.AnswerSystemPrompt,
		httpClient:   &http.Client{},
		breaker: resilience.NewCircuitBreaker(
			"answer",
			cfg.CircuitBreakerMaxFailures,
			time.Duration(cfg.CircuitBreakerResetTimeout)*time.Second,
		),
		retryCfg: &resilience.RetryConfig{
			MaxAttempts:       cfg.AnswerRetryAttempts,
			InitialBackoff:    time.Duration(cfg.AnswerRetryBackoffMs) * time.Millisecond,
			MaxBackoff:        5 * time.Second,
			BackoffMultiplier: 2.0,
			Jitter:            true,
		},
		logger: logger,
	}
}

// StreamAnswer requests an answer for the question and forwards each text
// chunk to onChunk as it arrives. Returns once the stream ends.
func (c *Client) StreamAnswer(ctx context.Context, question string, onChunk func(string)) error {
	body, err := protocol.EncodeAnswerRequest(question, c.systemPrompt)
	if err != nil {
		return fmt.Errorf("encode answer request: %w", err)
	}

	var resp *http.Response
	err = c.breaker.Call(func() error {
		return resilience.Retry(func() error {
			r, reqErr := c.send(ctx, body)
			if reqErr != nil {
				return reqErr
			}
			resp = r
			return nil
		}, c.retryCfg, isRetryableRequestError)
	})
	if err != nil {
		return fmt.Errorf("answer request failed: %w", err)
	}
	defer resp.Body.Close()

	return c.consume(resp.Body, onChunk)
}

func (c *Client) send(ctx context.Context, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		statusErr := fmt.Errorf("answer endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, resilience.NewRetryableError(statusErr)
		}
		return nil, statusErr
	}

	return resp, nil
}

func isRetryableRequestError(err error) bool {
	return resilience.IsRetryable(err) || resilience.IsRetryableNetworkError(err)
}

// consume reads server-sent events and forwards decoded text chunks
func (c *Client) consume(r io.Reader, onChunk func(string)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxSSELineSize)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" {
			continue
		}

		text, err := protocol.DecodeAnswerChunk([]byte(payload))
		if err != nil {
			c.logger.Warn().Err(err).Msg("Skipping malformed answer chunk")
			continue
		}
		if text != "" {
			onChunk(text)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("answer stream read failed: %w", err)
	}
	return nil
}
