package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alexan1/livescribe/internal/answer"
	"github.com/alexan1/livescribe/internal/audio"
	"github.com/alexan1/livescribe/internal/config"
	"github.com/alexan1/livescribe/internal/observability"
	"github.com/alexan1/livescribe/internal/protocol"
	"github.com/alexan1/livescribe/internal/question"
	"github.com/alexan1/livescribe/internal/session"
	"github.com/alexan1/livescribe/internal/transport"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Use fmt for fatal errors before logger is initialized
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	logger := observability.GetLogger()

	logger.Info().
		Str("live_model", cfg.LiveModel).
		Str("answer_model", cfg.AnswerModel).
		Int("sample_rate", cfg.SampleRate).
		Bool("vad_enabled", cfg.VADEnabled).
		Msg("livescribe starting")

	// Metrics and health endpoints
	var metricsServer *http.Server
	if cfg.MetricsEnabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/health", observability.HealthCheckHandler())
		mux.HandleFunc("/ready", observability.ReadinessHandler(func() (string, bool, string) {
			if _, err := exec.LookPath(cfg.FFmpegCommand); err != nil {
				return "ffmpeg", false, "ffmpeg binary not found"
			}
			return "ffmpeg", true, ""
		}))

		metricsServer = &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.MetricsPort),
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		}
		go func() {
			logger.Info().Str("port", cfg.MetricsPort).Msg("Metrics listening")
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error().Err(err).Msg("Metrics server failed")
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sessionID := observability.NewSessionID()
	metrics := observability.NewSessionMetrics(sessionID)

	// Answer streaming for detected questions
	answerClient := answer.NewClient(cfg, observability.WithSessionID(sessionID))
	trig := question.NewTrigger(answerClient.StreamAnswer, question.Callbacks{
		OnQuestion: func(q string) {
			fmt.Printf("\n\n>>> %s\n", q)
		},
		OnAnswerChunk: func(q, chunk string) {
			fmt.Print(chunk)
		},
		OnAnswerDone: func(q string, err error) {
			if err == nil {
				fmt.Println()
			}
		},
	}, observability.WithSessionID(sessionID), metrics)

	// Live session
	targetFormat := audio.Format{SampleRateHz: cfg.SampleRate, BitDepth: 16, Channels: cfg.Channels}
	dial := func(ctx context.Context) (session.Conn, error) {
		conn, err := transport.Dial(ctx, cfg.LiveURL(), nil)
		if err != nil {
			return nil, err
		}
		return conn, nil
	}

	sess := session.NewSession(dial, session.Options{
		SessionID: sessionID,
		Setup: protocol.SetupConfig{
			Model:             cfg.LiveModel,
			SystemInstruction: cfg.SystemInstruction,
		},
		TargetFormat:         targetFormat,
		SetupTimeout:         cfg.SetupTimeout(),
		ReconnectMaxAttempts: cfg.ReconnectMaxAttempts,
		ReconnectBackoff:     cfg.ReconnectBackoff(),
		ReconnectMaxBackoff:  cfg.ReconnectMaxBackoff(),
		DisconnectGrace:      cfg.DisconnectGrace(),
	}, session.Callbacks{
		OnInputTranscriptChunk: func(text string) {
			fmt.Print(text)
		},
		OnTurnComplete: func(turn string) {
			if turn != "" {
				fmt.Println()
			}
			trig.HandleTurn(ctx, turn)
		},
		OnModelOutput: func(text string) {
			fmt.Print(text)
		},
		OnClosed: func(err error) {
			if err != nil {
				logger.Error().Err(err).Msg("Session closed after exhausting recovery")
			}
			cancel()
		},
	})

	if err := sess.Connect(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect")
	}
	if err := sess.WaitForSetupComplete(ctx, cfg.SetupTimeout()); err != nil {
		sess.Disconnect()
		logger.Fatal().Err(err).Msg("Setup was not acknowledged")
	}
	logger.Info().Msg("Live session established")

	// Audio capture
	source := audio.NewFFmpegSource(audio.CaptureConfig{
		Command:     cfg.FFmpegCommand,
		InputFormat: cfg.AudioInputFormat,
		InputDevice: cfg.AudioInputDevice,
		Format:      targetFormat,
		ChunkSize:   cfg.ChunkSize,
	})
	frames, err := source.Start(ctx)
	if err != nil {
		sess.Disconnect()
		logger.Fatal().Err(err).Msg("Failed to start audio capture")
	}

	go pumpAudio(ctx, cfg, frames, sess, metrics)

	// Wait for interrupt or session termination
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
		logger.Info().Msg("Shutting down...")
	case <-ctx.Done():
	}

	if err := source.Stop(); err != nil {
		logger.Warn().Err(err).Msg("Audio capture stop reported an error")
	}
	sess.Disconnect()
	trig.Wait()

	if metricsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}

	logger.Info().Msg("livescribe exited")
}

// pumpAudio forwards captured frames to the session, optionally gating
// silence when VAD is enabled.
func pumpAudio(ctx context.Context, cfg *config.Config, frames <-chan audio.Frame, sess *session.Session, metrics *observability.SessionMetrics) {
	var vad *audio.VADDetector
	if cfg.VADEnabled {
		vad = audio.NewVADDetector(&audio.VADConfig{
			EnergyThreshold: cfg.VADEnergyThreshold,
			SilenceFrames:   cfg.VADSilenceFrames,
		})
	}

	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-frames:
			if !ok {
				return
			}
			if vad != nil && !vad.ProcessPCM(frame.Data) {
				metrics.RecordFrameDropped("silence")
				continue
			}
			sess.SendAudio(frame)
		}
	}
}
