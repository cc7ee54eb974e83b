package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// CaptureConfig configures an ffmpeg capture source
type CaptureConfig struct {
	Command     string // ffmpeg binary, defaults to "ffmpeg"
	InputFormat string // e.g. "pulse", "alsa", "avfoundation"
	InputDevice string // device name, e.g. "default"
	Format      Format // PCM format ffmpeg is asked to produce
	ChunkSize   int    // bytes per emitted frame
}

// FFmpegSource captures PCM audio by running ffmpeg as a subprocess
// and carving its s16le stdout stream into fixed-size frames.
type FFmpegSource struct {
	cfg CaptureConfig

	process *os.Process
	stdout  io.ReadCloser
	stderr  *bytes.Buffer
	waitErr <-chan error

	stopOnce sync.Once
	stopErr  error
}

// NewFFmpegSource creates a capture source with the given configuration
func NewFFmpegSource(cfg CaptureConfig) *FFmpegSource {
	if cfg.Command == "" {
		cfg.Command = "ffmpeg"
	}
	if cfg.InputFormat == "" {
		cfg.InputFormat = "pulse"
	}
	if cfg.InputDevice == "" {
		cfg.InputDevice = "default"
	}
	if cfg.Format.SampleRateHz <= 0 {
		cfg.Format = DefaultFormat
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 3200
	}
	return &FFmpegSource{cfg: cfg}
}

// Start launches ffmpeg and returns a channel of captured frames.
// The channel is closed when capture stops or ffmpeg exits.
func (s *FFmpegSource) Start(ctx context.Context) (<-chan Frame, error) {
	args := []string{
		"-nostdin",
		"-hide_banner",
		"-loglevel", "warning",
		"-f", s.cfg.InputFormat,
		"-i", s.cfg.InputDevice,
		"-ac", strconv.Itoa(s.cfg.Format.Channels),
		"-ar", strconv.Itoa(s.cfg.Format.SampleRateHz),
		"-f", "s16le",
		"-",
	}

	cmd := exec.CommandContext(ctx, s.cfg.Command, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create ffmpeg stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- cmd.Wait()
		close(waitErr)
	}()

	// Give ffmpeg a moment to fail fast on a bad device
	select {
	case err := <-waitErr:
		if err != nil {
			return nil, fmt.Errorf("ffmpeg exited before capture started: %w: %s", err, strings.TrimSpace(stderr.String()))
		}
		return nil, errors.New("ffmpeg exited before capture started")
	case <-time.After(250 * time.Millisecond):
	}

	s.process = cmd.Process
	s.stdout = stdout
	s.stderr = &stderr
	s.waitErr = waitErr

	frames := make(chan Frame, 32)
	go s.readLoop(frames)

	return frames, nil
}

// readLoop buffers ffmpeg's stdout into a ring and carves it into
// fixed-size frames.
func (s *FFmpegSource) readLoop(frames chan<- Frame) {
	defer close(frames)

	ring := NewRingBuffer(s.cfg.ChunkSize * 8)
	raw := make([]byte, 4096)

	for {
		n, err := s.stdout.Read(raw)
		if n > 0 {
			if written := ring.Write(raw[:n]); written < n {
				log.Warn().Msg("Capture buffer full, dropping audio")
			}
			for ring.Available() >= s.cfg.ChunkSize {
				buf := make([]byte, s.cfg.ChunkSize)
				ring.Read(buf)
				select {
				case frames <- Frame{Data: buf, Format: s.cfg.Format}:
				default:
					log.Warn().Msg("Capture frame dropped, consumer too slow")
				}
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				log.Warn().Err(err).Msg("Audio capture read failed")
			}
			return
		}
	}
}

// Stop terminates the ffmpeg process and releases the capture.
// Safe to call more than once.
func (s *FFmpegSource) Stop() error {
	s.stopOnce.Do(func() {
		if s.process == nil {
			return
		}

		_ = s.process.Signal(os.Interrupt)

		select {
		case err, ok := <-s.waitErr:
			if ok {
				s.stopErr = normalizeExitErr(err)
			}
		case <-time.After(1200 * time.Millisecond):
			_ = s.process.Kill()
			err, ok := <-s.waitErr
			if ok {
				s.stopErr = normalizeExitErr(err)
			}
		}

		if closeErr := s.stdout.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
			if s.stopErr == nil {
				s.stopErr = closeErr
			}
		}

		if s.stopErr != nil && s.stderr != nil && s.stderr.Len() > 0 {
			s.stopErr = fmt.Errorf("%w: %s", s.stopErr, strings.TrimSpace(s.stderr.String()))
		}
	})

	return s.stopErr
}

// normalizeExitErr treats a nonzero exit after an interrupt as a clean stop
func normalizeExitErr(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}
