package resilience

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// ReconnectConfig holds configuration for reconnection logic
type ReconnectConfig struct {
	MaxAttempts int           // Maximum number of reconnection attempts
	Backoff     time.Duration // Backoff duration before the first attempt
	Multiplier  float64       // Backoff multiplier for exponential backoff
	MaxBackoff  time.Duration // Maximum backoff duration
}

// DefaultReconnectConfig returns a default reconnection configuration
func DefaultReconnectConfig() *ReconnectConfig {
	return &ReconnectConfig{
		MaxAttempts: 5,
		Backoff:     2 * time.Second,
		Multiplier:  2.0,
		MaxBackoff:  30 * time.Second,
	}
}

// AttemptFunc is a single reconnection attempt. The attempt number is 1-based.
type AttemptFunc func(ctx context.Context, attempt int) error

// Reconnect attempts to re-establish a connection with exponential backoff.
// A backoff wait precedes every attempt, including the first. When isTransient
// is non-nil and reports an error as permanent, reconnection stops immediately
// and that error is returned.
func Reconnect(ctx context.Context, fn AttemptFunc, config *ReconnectConfig, isTransient IsRetryableError) error {
	if config == nil {
		config = DefaultReconnectConfig()
	}

	backoff := config.Backoff
	var lastErr error

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		err := fn(ctx, attempt)
		if err == nil {
			log.Info().Int("attempt", attempt).Msg("Reconnection successful")
			return nil
		}

		lastErr = err

		if isTransient != nil && !isTransient(err) {
			log.Warn().Err(err).Int("attempt", attempt).Msg("Reconnection aborted on permanent error")
			return err
		}

		log.Warn().
			Err(err).
			Int("attempt", attempt).
			Int("max_attempts", config.MaxAttempts).
			Dur("next_backoff", backoff).
			Msg("Reconnection attempt failed")

		backoff = time.Duration(float64(backoff) * config.Multiplier)
		if backoff > config.MaxBackoff {
			backoff = config.MaxBackoff
		}
	}

	return fmt.Errorf("failed to reconnect after %d attempts: %w", config.MaxAttempts, lastErr)
}
