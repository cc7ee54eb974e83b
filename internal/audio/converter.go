package audio

import (
	"fmt"
	"math"
)

// ConvertFrame converts a PCM frame to the target format.
// Sample rate and channel count are converted; only 16-bit depth is
// supported, frames with any other depth pass through unchanged.
func ConvertFrame(frame Frame, target Format) ([]byte, error) {
	if frame.Format == target || frame.Format.BitDepth != 16 || target.BitDepth != 16 {
		return frame.Data, nil
	}
	if len(frame.Data) == 0 {
		return nil, fmt.Errorf("empty PCM data")
	}
	if len(frame.Data)%2 != 0 {
		return nil, fmt.Errorf("PCM data length must be even (16-bit samples)")
	}

	samples := decodeSamples(frame.Data)

	if frame.Format.Channels > 1 && target.Channels == 1 {
		samples = downmix(samples, frame.Format.Channels)
	}

	if frame.Format.SampleRateHz != target.SampleRateHz {
		samples = resample(samples, frame.Format.SampleRateHz, target.SampleRateHz)
	}

	return encodeSamples(samples), nil
}

// decodeSamples decodes little-endian 16-bit signed PCM
func decodeSamples(data []byte) []int16 {
	samples := make([]int16, len(data)/2)
	for i := 0; i < len(samples); i++ {
		samples[i] = int16(data[i*2]) | int16(data[i*2+1])<<8
	}
	return samples
}

// encodeSamples encodes samples as little-endian 16-bit signed PCM
func encodeSamples(samples []int16) []byte {
	data := make([]byte, len(samples)*2)
	for i, sample := range samples {
		data[i*2] = byte(sample)
		data[i*2+1] = byte(sample >> 8)
	}
	return data
}

// downmix averages interleaved channels into mono
func downmix(samples []int16, channels int) []int16 {
	frames := len(samples) / channels
	mono := make([]int16, frames)
	for i := 0; i < frames; i++ {
		sum := 0
		for ch := 0; ch < channels; ch++ {
			sum += int(samples[i*channels+ch])
		}
		mono[i] = int16(sum / channels)
	}
	return mono
}

// resample performs simple linear interpolation resampling
func resample(samples []int16, inputRate, outputRate int) []int16 {
	if inputRate == outputRate || len(samples) == 0 {
		return samples
	}

	ratio := float64(outputRate) / float64(inputRate)
	outputLength := int(float64(len(samples)) * ratio)
	output := make([]int16, outputLength)

	for i := 0; i < outputLength; i++ {
		srcPos := float64(i) / ratio

		idx0 := int(srcPos)
		idx1 := idx0 + 1
		if idx1 >= len(samples) {
			idx1 = len(samples) - 1
		}

		fraction := srcPos - float64(idx0)
		output[i] = int16(float64(samples[idx0])*(1.0-fraction) + float64(samples[idx1])*fraction)
	}

	return output
}

// CalculateRMS calculates the root mean square of audio samples.
// Useful for detecting audio levels and silence.
func CalculateRMS(samples []int16) float64 {
	if len(samples) == 0 {
		return 0.0
	}

	sum := 0.0
	for _, sample := range samples {
		sum += float64(sample) * float64(sample)
	}

	return math.Sqrt(sum / float64(len(samples)))
}
