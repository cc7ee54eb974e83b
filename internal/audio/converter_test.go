package audio

import (
	"testing"
)

func TestConvertFrame_PassThroughWhenFormatsMatch(t *testing.T) {
	frame := Frame{Data: []byte{1, 2, 3, 4}, Format: DefaultFormat}

	out, err := ConvertFrame(frame, DefaultFormat)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(out) != len(frame.Data) {
		t.Errorf("Expected %d bytes, got %d", len(frame.Data), len(out))
	}
}

func TestConvertFrame_OddLength(t *testing.T) {
	frame := Frame{
		Data:   []byte{1, 2, 3},
		Format: Format{SampleRateHz: 48000, BitDepth: 16, Channels: 1},
	}

	_, err := ConvertFrame(frame, DefaultFormat)
	if err == nil {
		t.Error("Expected error for odd-length PCM data")
	}
}

func TestConvertFrame_DownmixStereo(t *testing.T) {
	// Two stereo sample frames: (100, 200) and (-100, -200)
	samples := []int16{100, 200, -100, -200}
	frame := Frame{
		Data:   encodeSamples(samples),
		Format: Format{SampleRateHz: 16000, BitDepth: 16, Channels: 2},
	}

	out, err := ConvertFrame(frame, DefaultFormat)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	mono := decodeSamples(out)
	if len(mono) != 2 {
		t.Fatalf("Expected 2 mono samples, got %d", len(mono))
	}
	if mono[0] != 150 {
		t.Errorf("Expected averaged sample 150, got %d", mono[0])
	}
	if mono[1] != -150 {
		t.Errorf("Expected averaged sample -150, got %d", mono[1])
	}
}

func TestConvertFrame_Resample(t *testing.T) {
	// 480 samples at 48kHz should become roughly 160 at 16kHz
	samples := make([]int16, 480)
	for i := range samples {
		samples[i] = int16(i)
	}
	frame := Frame{
		Data:   encodeSamples(samples),
		Format: Format{SampleRateHz: 48000, BitDepth: 16, Channels: 1},
	}

	out, err := ConvertFrame(frame, DefaultFormat)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	resampled := decodeSamples(out)
	if len(resampled) != 160 {
		t.Errorf("Expected 160 samples, got %d", len(resampled))
	}
}

func TestCalculateRMS(t *testing.T) {
	if rms := CalculateRMS(nil); rms != 0.0 {
		t.Errorf("Expected 0 RMS for empty input, got %f", rms)
	}

	silence := make([]int16, 160)
	if rms := CalculateRMS(silence); rms != 0.0 {
		t.Errorf("Expected 0 RMS for silence, got %f", rms)
	}

	loud := []int16{1000, -1000, 1000, -1000}
	if rms := CalculateRMS(loud); rms != 1000.0 {
		t.Errorf("Expected 1000 RMS, got %f", rms)
	}
}

func TestMimeType(t *testing.T) {
	if mime := DefaultFormat.MimeType(); mime != "audio/pcm;rate=16000" {
		t.Errorf("Expected audio/pcm;rate=16000, got %s", mime)
	}
}
