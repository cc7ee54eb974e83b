package audio

// VADConfig holds configuration for voice activity detection
type VADConfig struct {
	EnergyThreshold float64 // RMS energy threshold for speech detection
	SilenceFrames   int     // Consecutive silence frames to mark end of speech
}

// DefaultVADConfig returns a default VAD configuration
func DefaultVADConfig() *VADConfig {
	return &VADConfig{
		EnergyThreshold: 500.0,
		SilenceFrames:   10,
	}
}

// VADDetector performs energy-based voice activity detection
type VADDetector struct {
	config         *VADConfig
	silenceCounter int
	isSpeaking     bool
}

// NewVADDetector creates a new VAD detector
func NewVADDetector(config *VADConfig) *VADDetector {
	if config == nil {
		config = DefaultVADConfig()
	}
	return &VADDetector{config: config}
}

// ProcessFrame processes an audio frame and returns whether speech is active.
// Speech remains active through brief pauses shorter than SilenceFrames.
func (v *VADDetector) ProcessFrame(samples []int16) bool {
	rms := CalculateRMS(samples)

	if rms > v.config.EnergyThreshold {
		v.silenceCounter = 0
		v.isSpeaking = true
		return true
	}

	v.silenceCounter++
	if v.isSpeaking && v.silenceCounter >= v.config.SilenceFrames {
		v.isSpeaking = false
		v.silenceCounter = 0
	}

	return v.isSpeaking
}

// ProcessPCM processes a raw little-endian 16-bit PCM chunk
func (v *VADDetector) ProcessPCM(data []byte) bool {
	return v.ProcessFrame(decodeSamples(data))
}

// Reset resets the detector state
func (v *VADDetector) Reset() {
	v.silenceCounter = 0
	v.isSpeaking = false
}

// IsSpeaking returns whether speech is currently detected
func (v *VADDetector) IsSpeaking() bool {
	return v.isSpeaking
}
