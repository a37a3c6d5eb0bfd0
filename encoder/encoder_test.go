package encoder

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestNewUnknownFormat(t *testing.T) {
	if _, err := New("ogg"); err == nil {
		t.Fatal("expected error for unknown format")
	}
	for _, format := range []string{"flac", "wav"} {
		if _, err := New(format); err != nil {
			t.Errorf("New(%q): %v", format, err)
		}
	}
}

func TestInt16FromFloat32(t *testing.T) {
	for _, tt := range []struct {
		in   float32
		want int16
	}{
		{0, 0},
		{0.5, 16384},
		{-0.5, -16384},
		{1.5, 32767},   // clipped
		{-1.5, -32768}, // clipped
	} {
		got := Int16FromFloat32([]float32{tt.in})
		if got[0] != tt.want {
			t.Errorf("Int16FromFloat32(%v) = %d, want %d", tt.in, got[0], tt.want)
		}
	}
}

func TestEncodeSpansBlocks(t *testing.T) {
	samples := make([]int16, BlockSize*2+100)
	for i := range samples {
		samples[i] = int16(1000 * math.Sin(float64(i)/20))
	}
	for _, format := range []string{"flac", "wav"} {
		data, err := Encode(format, samples)
		if err != nil {
			t.Fatalf("Encode(%q): %v", format, err)
		}
		if len(data) == 0 {
			t.Fatalf("Encode(%q) returned no bytes", format)
		}
	}
}

func TestWAVEncoderHeader(t *testing.T) {
	enc := NewWAV()
	samples := []int16{0, 100, -100, 32767, -32768}
	if err := enc.EncodeBlock(samples); err != nil {
		t.Fatalf("EncodeBlock: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data := enc.Bytes()
	if len(data) != WAVHeaderSize+len(samples)*2 {
		t.Fatalf("output size = %d, want %d", len(data), WAVHeaderSize+len(samples)*2)
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Fatal("missing RIFF/WAVE magic")
	}
	if got := binary.LittleEndian.Uint32(data[24:28]); got != SampleRate {
		t.Errorf("sample rate = %d, want %d", got, SampleRate)
	}
	if got := binary.LittleEndian.Uint16(data[22:24]); got != Channels {
		t.Errorf("channels = %d, want %d", got, Channels)
	}
	if got := binary.LittleEndian.Uint16(data[34:36]); got != BitsPerSample {
		t.Errorf("bits per sample = %d, want %d", got, BitsPerSample)
	}
	if got := binary.LittleEndian.Uint32(data[40:44]); got != uint32(len(samples)*2) {
		t.Errorf("data size = %d, want %d", got, len(samples)*2)
	}
	// samples survive unmodified
	if got := int16(binary.LittleEndian.Uint16(data[WAVHeaderSize+2:])); got != 100 {
		t.Errorf("sample 1 = %d, want 100", got)
	}
	if enc.TotalFrames() != uint64(len(samples)) {
		t.Errorf("TotalFrames = %d, want %d", enc.TotalFrames(), len(samples))
	}
}

func TestWAVEncoderEmpty(t *testing.T) {
	enc := NewWAV()
	if err := enc.Close(); err != nil {
		t.Fatalf("Close on empty encoder: %v", err)
	}
	data := enc.Bytes()
	if len(data) != WAVHeaderSize {
		t.Errorf("empty WAV size = %d, want header only (%d)", len(data), WAVHeaderSize)
	}
}

func TestFlacEncoder(t *testing.T) {
	samples := make([]int16, BlockSize+BlockSize/4)
	for i := range samples {
		samples[i] = int16(1000 * math.Sin(float64(i)/20))
	}

	enc, err := NewFlac()
	if err != nil {
		t.Fatalf("NewFlac: %v", err)
	}

	var totalFed uint64
	for i := 0; i < len(samples); i += BlockSize {
		end := i + BlockSize
		if end > len(samples) {
			end = len(samples)
		}
		block := samples[i:end]
		if err := enc.EncodeBlock(block); err != nil {
			t.Fatalf("EncodeBlock at offset %d: %v", i, err)
		}
		totalFed += uint64(len(block))
	}

	if err := enc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if enc.TotalFrames() != totalFed {
		t.Errorf("TotalFrames = %d, want %d", enc.TotalFrames(), totalFed)
	}

	flacData := enc.Bytes()
	if len(flacData) < 4 || string(flacData[:4]) != "fLaC" {
		t.Fatal("output does not start with FLAC magic")
	}
}

func TestFlacEncoderEmpty(t *testing.T) {
	enc, err := NewFlac()
	if err != nil {
		t.Fatalf("NewFlac: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close on empty encoder: %v", err)
	}
	if enc.TotalFrames() != 0 {
		t.Errorf("TotalFrames = %d, want 0", enc.TotalFrames())
	}
	if len(enc.Bytes()) == 0 {
		t.Error("expected non-empty FLAC output (at least header)")
	}
}
