package audio

import "fmt"

// Format describes raw PCM audio
type Format struct {
	SampleRateHz int
	BitDepth     int
	Channels     int
}

// DefaultFormat is 16 kHz mono 16-bit PCM, the format the live provider expects
var DefaultFormat = Format{SampleRateHz: 16000, BitDepth: 16, Channels: 1}

// MimeType returns the MIME type string for this format, e.g. "audio/pcm;rate=16000"
func (f Format) MimeType() string {
	return fmt.Sprintf("audio/pcm;rate=%d", f.SampleRateHz)
}

// BytesPerSecond returns the raw byte rate of this format
func (f Format) BytesPerSecond() int {
	return f.SampleRateHz * (f.BitDepth / 8) * f.Channels
}

// Frame is a chunk of PCM audio in a known format
type Frame struct {
	Data   []byte
	Format Format
}
