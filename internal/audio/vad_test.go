package audio

import (
	"testing"
)

func loudFrame() []int16 {
	frame := make([]int16, 160)
	for i := range frame {
		frame[i] = 2000
	}
	return frame
}

func silentFrame() []int16 {
	return make([]int16, 160)
}

func TestVADDetector_SpeechStarts(t *testing.T) {
	vad := NewVADDetector(nil)

	if vad.ProcessFrame(silentFrame()) {
		t.Error("Expected no speech on silence")
	}
	if !vad.ProcessFrame(loudFrame()) {
		t.Error("Expected speech on loud frame")
	}
	if !vad.IsSpeaking() {
		t.Error("Expected detector to report speaking")
	}
}

func TestVADDetector_HangoverThroughBriefPause(t *testing.T) {
	vad := NewVADDetector(&VADConfig{EnergyThreshold: 500.0, SilenceFrames: 3})

	vad.ProcessFrame(loudFrame())

	// Two silent frames are within the hangover window
	if !vad.ProcessFrame(silentFrame()) {
		t.Error("Expected speech to persist through brief pause")
	}
	if !vad.ProcessFrame(silentFrame()) {
		t.Error("Expected speech to persist through brief pause")
	}

	// Third consecutive silent frame ends speech
	if vad.ProcessFrame(silentFrame()) {
		t.Error("Expected speech to end after sustained silence")
	}
}

func TestVADDetector_Reset(t *testing.T) {
	vad := NewVADDetector(nil)
	vad.ProcessFrame(loudFrame())

	vad.Reset()
	if vad.IsSpeaking() {
		t.Error("Expected detector to be idle after reset")
	}
}
