package encoder

const (
	SampleRate    = 16000
	Channels      = 1
	BitsPerSample = 16
	BlockSize     = 4096
)

// Encoder turns blocks of 16-bit mono PCM into an upload payload.
type Encoder interface {
	EncodeBlock(block []int16) error
	Close() error
	Bytes() []byte
	TotalFrames() uint64
}

// New returns the encoder for the given payload format ("flac" or "wav").
func New(format string) (Encoder, error) {
	switch format {
	case "flac":
		return NewFlac()
	case "wav":
		return NewWAV(), nil
	}
	return nil, &UnknownFormatError{Format: format}
}

type UnknownFormatError struct {
	Format string
}

func (e *UnknownFormatError) Error() string {
	return "unknown audio format " + e.Format + " (use flac or wav)"
}

// Int16FromFloat32 converts normalized [-1,1] samples back to s16 PCM,
// clipping out-of-range values.
func Int16FromFloat32(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		v := s * 32768.0
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		out[i] = int16(v)
	}
	return out
}

// Encode runs a full sample buffer through a fresh encoder.
func Encode(format string, samples []int16) ([]byte, error) {
	enc, err := New(format)
	if err != nil {
		return nil, err
	}
	for pos := 0; pos < len(samples); pos += BlockSize {
		end := pos + BlockSize
		if end > len(samples) {
			end = len(samples)
		}
		if err := enc.EncodeBlock(samples[pos:end]); err != nil {
			return nil, err
		}
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return enc.Bytes(), nil
}
