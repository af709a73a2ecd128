package media

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/go-audio/wav"
)

// Canonical PCM format every engine adapter relies on.
const (
	SampleRate     = 16000
	Channels       = 1
	BitDepth       = 16
	BytesPerSample = BitDepth / 8

	wavFormatPCM = 1
)

// ErrNoPCMData is returned when a WAV stream has no data chunk.
var ErrNoPCMData = errors.New("wav: no data chunk")

// AudioBuffer is 16 kHz mono signed 16-bit little-endian PCM. The transcoder is
// its only producer; adapters may assume the format without checking it.
// A buffer is never mutated after creation.
type AudioBuffer struct {
	pcm []byte
}

// NewAudioBuffer wraps raw canonical PCM. The slice is copied.
func NewAudioBuffer(pcm []byte) AudioBuffer {
	n := len(pcm) - len(pcm)%BytesPerSample
	cp := make([]byte, n)
	copy(cp, pcm[:n])
	return AudioBuffer{pcm: cp}
}

// PCM returns the sample bytes. Callers must not modify them.
func (b AudioBuffer) PCM() []byte { return b.pcm }

// Len is the payload size in bytes.
func (b AudioBuffer) Len() int { return len(b.pcm) }

func (b AudioBuffer) NumSamples() int { return len(b.pcm) / (BytesPerSample * Channels) }

func (b AudioBuffer) Duration() time.Duration {
	return time.Duration(b.NumSamples()) * time.Second / SampleRate
}

// Frames splits the buffer into consecutive chunks of samplesPerFrame samples.
// The last chunk may be shorter. Chunks share memory with the buffer.
func (b AudioBuffer) Frames(samplesPerFrame int) [][]byte {
	if samplesPerFrame <= 0 || len(b.pcm) == 0 {
		return nil
	}
	step := samplesPerFrame * BytesPerSample * Channels
	frames := make([][]byte, 0, (len(b.pcm)+step-1)/step)
	for off := 0; off < len(b.pcm); off += step {
		end := off + step
		if end > len(b.pcm) {
			end = len(b.pcm)
		}
		frames = append(frames, b.pcm[off:end:end])
	}
	return frames
}

// WAV returns the buffer wrapped in a canonical RIFF/WAVE container.
func (b AudioBuffer) WAV() []byte {
	return EncodeWAV(b.pcm)
}

// EncodeWAV converts raw 16-bit PCM audio to WAV format
func EncodeWAV(rawAudio []byte) []byte {
	var buf bytes.Buffer

	const byteRate = SampleRate * Channels * BitDepth / 8
	const blockAlign = Channels * BitDepth / 8

	dataSize := len(rawAudio)
	fileSize := 36 + dataSize

	// WAV header
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(fileSize))
	buf.WriteString("WAVE")

	// fmt chunk
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))           // fmt chunk size
	binary.Write(&buf, binary.LittleEndian, uint16(wavFormatPCM)) // PCM format
	binary.Write(&buf, binary.LittleEndian, uint16(Channels))     // number of channels
	binary.Write(&buf, binary.LittleEndian, uint32(SampleRate))   // sample rate
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))     // byte rate
	binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))   // block align
	binary.Write(&buf, binary.LittleEndian, uint16(BitDepth))     // bits per sample

	// data chunk
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataSize))
	buf.Write(rawAudio)

	return buf.Bytes()
}

// FormatError reports a WAV stream that is not canonical PCM.
type FormatError struct {
	SampleRate uint32
	Channels   uint16
	BitDepth   uint16
	Format     uint16
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("wav: got %d Hz, %d ch, %d-bit (format %d); want %d Hz, %d ch, %d-bit PCM",
		e.SampleRate, e.Channels, e.BitDepth, e.Format, SampleRate, Channels, BitDepth)
}

// DecodeWAV validates a WAV stream produced by the transcoder and extracts its
// PCM payload. The stream may come from a pipe, so the RIFF and data sizes are
// allowed to be zero or 0xFFFFFFFF; in that case the payload runs to the end.
func DecodeWAV(data []byte) (AudioBuffer, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	dec.ReadInfo()
	if err := dec.Err(); err != nil {
		return AudioBuffer{}, fmt.Errorf("wav: read header: %w", err)
	}
	if dec.SampleRate != SampleRate || dec.NumChans != Channels ||
		dec.BitDepth != BitDepth || dec.WavAudioFormat != wavFormatPCM {
		return AudioBuffer{}, &FormatError{
			SampleRate: dec.SampleRate,
			Channels:   dec.NumChans,
			BitDepth:   dec.BitDepth,
			Format:     dec.WavAudioFormat,
		}
	}

	pcm, err := dataChunk(data)
	if err != nil {
		return AudioBuffer{}, err
	}
	return NewAudioBuffer(pcm), nil
}

// dataChunk walks the RIFF chunk list and returns the data payload.
func dataChunk(data []byte) ([]byte, error) {
	const headerLen = 12
	if len(data) < headerLen {
		return nil, ErrNoPCMData
	}

	off := headerLen
	for off+8 <= len(data) {
		id := string(data[off : off+4])
		size := binary.LittleEndian.Uint32(data[off+4 : off+8])
		body := off + 8

		if id == "data" {
			rest := data[body:]
			if size != 0 && size != 0xFFFFFFFF && int(size) <= len(rest) {
				rest = rest[:size]
			}
			return rest, nil
		}

		next := body + int(size) + int(size&1)
		if next <= off || next > len(data) {
			break
		}
		off = next
	}
	return nil, ErrNoPCMData
}
