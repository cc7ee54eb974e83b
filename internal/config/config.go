package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the livescribe pipeline
type Config struct {
	// Provider credentials and endpoints
	APIKey       string `envconfig:"GEMINI_API_KEY" required:"true"`
	LiveEndpoint string `envconfig:"LIVE_ENDPOINT" default:"wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"`
	LiveModel    string `envconfig:"LIVE_MODEL" default:"models/gemini-2.0-flash-exp"`

	// System instruction sent with the setup message
	SystemInstruction string `envconfig:"SYSTEM_INSTRUCTION" default:"Transcribe the incoming audio."`

	// Answer generation (separate request/response streaming endpoint)
	AnswerEndpoint     string `envconfig:"ANSWER_ENDPOINT" default:"https://generativelanguage.googleapis.com/v1beta"`
	AnswerModel        string `envconfig:"ANSWER_MODEL" default:"models/gemini-2.0-flash"`
	AnswerSystemPrompt string `envconfig:"ANSWER_SYSTEM_PROMPT" default:"Answer the question concisely and directly."`

	// Audio capture configuration (frames delivered as mono 16-bit PCM)
	SampleRate       int    `envconfig:"SAMPLE_RATE" default:"16000"`
	Channels         int    `envconfig:"CHANNELS" default:"1"`
	ChunkSize        int    `envconfig:"AUDIO_CHUNK_SIZE" default:"3200"` // bytes per frame, 100ms at 16kHz mono s16le
	FFmpegCommand    string `envconfig:"FFMPEG_COMMAND" default:"ffmpeg"`
	AudioInputFormat string `envconfig:"AUDIO_INPUT_FORMAT" default:"pulse"`
	AudioInputDevice string `envconfig:"AUDIO_INPUT_DEVICE" default:"default"`

	// Voice activity detection (optional silence gate in the capture pump)
	VADEnabled         bool    `envconfig:"VAD_ENABLED" default:"false"`
	VADEnergyThreshold float64 `envconfig:"VAD_ENERGY_THRESHOLD" default:"500.0"` // RMS energy threshold
	VADSilenceFrames   int     `envconfig:"VAD_SILENCE_FRAMES" default:"10"`      // Frames of silence to mark speech end

	// Session resilience configuration
	SetupTimeoutSec      int `envconfig:"SETUP_TIMEOUT" default:"10"`         // Seconds to wait for setup acknowledgement
	ReconnectMaxAttempts int `envconfig:"RECONNECT_MAX_ATTEMPTS" default:"5"` // Maximum reconnection attempts
	ReconnectBackoffMs   int `envconfig:"RECONNECT_BACKOFF" default:"2000"`   // Initial reconnection backoff in milliseconds
	ReconnectMaxBackoffS int `envconfig:"RECONNECT_MAX_BACKOFF" default:"30"` // Backoff cap in seconds
	DisconnectGraceMs    int `envconfig:"DISCONNECT_GRACE" default:"2000"`    // Milliseconds to wait for the receive loop on disconnect
	AnswerRetryAttempts  int `envconfig:"ANSWER_RETRY_ATTEMPTS" default:"3"`  // Retry attempts for the answer-stream connection
	AnswerRetryBackoffMs int `envconfig:"ANSWER_RETRY_BACKOFF" default:"250"` // Initial answer retry backoff in milliseconds

	// Circuit breaker protecting the answer endpoint
	CircuitBreakerMaxFailures  int `envconfig:"CIRCUIT_BREAKER_MAX_FAILURES" default:"5"`
	CircuitBreakerResetTimeout int `envconfig:"CIRCUIT_BREAKER_RESET_TIMEOUT" default:"30"` // seconds

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`   // Log level: debug, info, warn, error
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"` // Pretty print logs (for development)
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"`
	MetricsPort    string `envconfig:"METRICS_PORT" default:"9090"`
}

// Load reads configuration from environment variables
// It first attempts to load from .env file if it exists, then from environment
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	return LoadFromEnv()
}

// LoadFromEnv loads configuration directly from environment variables
// without attempting to load .env file (useful for containerized deployments)
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("SAMPLE_RATE must be positive, got %d", cfg.SampleRate)
	}
	if cfg.ChunkSize <= 0 {
		return nil, fmt.Errorf("AUDIO_CHUNK_SIZE must be positive, got %d", cfg.ChunkSize)
	}

	return &cfg, nil
}

// LiveURL returns the full live websocket endpoint including the credential
func (c *Config) LiveURL() string {
	return fmt.Sprintf("%s?key=%s", c.LiveEndpoint, url.QueryEscape(c.APIKey))
}

// AnswerURL returns the streaming answer-generation endpoint including the credential
func (c *Config) AnswerURL() string {
	return fmt.Sprintf("%s/%s:streamGenerateContent?alt=sse&key=%s",
		c.AnswerEndpoint, c.AnswerModel, url.QueryEscape(c.APIKey))
}

// SetupTimeout returns the setup acknowledgement deadline as a duration
func (c *Config) SetupTimeout() time.Duration {
	return time.Duration(c.SetupTimeoutSec) * time.Second
}

// ReconnectBackoff returns the initial reconnect backoff as a duration
func (c *Config) ReconnectBackoff() time.Duration {
	return time.Duration(c.ReconnectBackoffMs) * time.Millisecond
}

// ReconnectMaxBackoff returns the reconnect backoff cap as a duration
func (c *Config) ReconnectMaxBackoff() time.Duration {
	return time.Duration(c.ReconnectMaxBackoffS) * time.Second
}

// DisconnectGrace returns the receive-loop shutdown grace period as a duration
func (c *Config) DisconnectGrace() time.Duration {
	return time.Duration(c.DisconnectGraceMs) * time.Millisecond
}

// GetEnv returns the value of an environment variable or a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
