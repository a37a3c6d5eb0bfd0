package encoder

import (
	"bytes"
	"encoding/binary"
	"sync"
)

const WAVHeaderSize = 44

// WAVEncoder accumulates s16le PCM and prepends a RIFF header on Close.
type WAVEncoder struct {
	pcm         bytes.Buffer
	out         []byte
	totalFrames uint64
	mu          sync.Mutex
}

func NewWAV() *WAVEncoder {
	return &WAVEncoder{}
}

func (e *WAVEncoder) EncodeBlock(block []int16) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, s := range block {
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], uint16(s))
		e.pcm.Write(b[:])
	}
	e.totalFrames += uint64(len(block))
	return nil
}

func (e *WAVEncoder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	dataSize := e.pcm.Len()
	header := make([]byte, WAVHeaderSize)
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(WAVHeaderSize-8+dataSize))
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(header[22:24], Channels)
	binary.LittleEndian.PutUint32(header[24:28], SampleRate)
	binary.LittleEndian.PutUint32(header[28:32], SampleRate*Channels*BitsPerSample/8)
	binary.LittleEndian.PutUint16(header[32:34], Channels*BitsPerSample/8)
	binary.LittleEndian.PutUint16(header[34:36], BitsPerSample)
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(dataSize))

	e.out = append(header, e.pcm.Bytes()...)
	return nil
}

func (e *WAVEncoder) Bytes() []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.out
}

func (e *WAVEncoder) TotalFrames() uint64 {
	return e.totalFrames
}
