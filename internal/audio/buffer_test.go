package audio

import (
	"bytes"
	"testing"
)

func TestRingBuffer_WriteRead(t *testing.T) {
	rb := NewRingBuffer(16)

	data := []byte{1, 2, 3, 4, 5}
	written := rb.Write(data)
	if written != 5 {
		t.Errorf("Expected 5 bytes written, got %d", written)
	}
	if rb.Available() != 5 {
		t.Errorf("Expected 5 bytes available, got %d", rb.Available())
	}

	out := make([]byte, 5)
	read := rb.Read(out)
	if read != 5 {
		t.Errorf("Expected 5 bytes read, got %d", read)
	}
	if !bytes.Equal(out, data) {
		t.Errorf("Expected %v, got %v", data, out)
	}
	if !rb.IsEmpty() {
		t.Error("Expected empty buffer after draining")
	}
}

func TestRingBuffer_FullBufferTruncatesWrite(t *testing.T) {
	rb := NewRingBuffer(8)

	written := rb.Write([]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})
	// Capacity is size-1 to keep full and empty distinguishable
	if written != 7 {
		t.Errorf("Expected 7 bytes written, got %d", written)
	}
	if rb.Space() != 0 {
		t.Errorf("Expected 0 space, got %d", rb.Space())
	}
}

func TestRingBuffer_Wraparound(t *testing.T) {
	rb := NewRingBuffer(8)

	rb.Write([]byte{1, 2, 3, 4, 5})
	out := make([]byte, 4)
	rb.Read(out)

	rb.Write([]byte{6, 7, 8, 9})

	remaining := make([]byte, 5)
	read := rb.Read(remaining)
	if read != 5 {
		t.Fatalf("Expected 5 bytes read, got %d", read)
	}
	if !bytes.Equal(remaining, []byte{5, 6, 7, 8, 9}) {
		t.Errorf("Expected [5 6 7 8 9], got %v", remaining)
	}
}

func TestRingBuffer_Clear(t *testing.T) {
	rb := NewRingBuffer(8)
	rb.Write([]byte{1, 2, 3})

	rb.Clear()
	if !rb.IsEmpty() {
		t.Error("Expected empty buffer after clear")
	}
	if rb.Available() != 0 {
		t.Errorf("Expected 0 available, got %d", rb.Available())
	}
}
