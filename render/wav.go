package render

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	wavChannels      = 2
	wavBitsPerSample = 16
	wavHeaderSize    = 44
	wavFormatPCM     = 1
)

// WAVSize is the file size WriteWAV produces for a
func WAVSize(a *Audio) int64 {
	return wavHeaderSize + int64(a.Frames())*wavChannels*wavBitsPerSample/8
}

// EncodeWAV returns a as a 16-bit stereo PCM RIFF file
func EncodeWAV(a *Audio) ([]byte, error) {
	if len(a.Left) != len(a.Right) {
		return nil, fmt.Errorf("render: channel length mismatch %d/%d", len(a.Left), len(a.Right))
	}

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: wavChannels, SampleRate: a.SampleRate},
		Data:           make([]int, 0, 2*a.Frames()),
		SourceBitDepth: wavBitsPerSample,
	}
	for i := range a.Left {
		buf.Data = append(buf.Data, int(toPCM16(a.Left[i])), int(toPCM16(a.Right[i])))
	}

	// the encoder seeks back to patch chunk sizes on Close
	out := &seekBuffer{}
	enc := wav.NewEncoder(out, a.SampleRate, wavBitsPerSample, wavChannels, wavFormatPCM)
	if err := enc.Write(buf); err != nil {
		return nil, fmt.Errorf("render: wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("render: wav: %w", err)
	}
	return out.buf, nil
}

// WriteWAV writes a as a 16-bit stereo PCM RIFF file
func WriteWAV(w io.Writer, a *Audio) error {
	b, err := EncodeWAV(a)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// toPCM16 clips to [-1, 1] and scales
func toPCM16(v float32) int16 {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	return int16(math.Round(float64(v) * math.MaxInt16))
}

// seekBuffer is an in-memory io.WriteSeeker
type seekBuffer struct {
	buf []byte
	pos int
}

func (s *seekBuffer) Write(p []byte) (int, error) {
	if end := s.pos + len(p); end > len(s.buf) {
		s.buf = append(s.buf, make([]byte, end-len(s.buf))...)
	}
	n := copy(s.buf[s.pos:], p)
	s.pos += n
	return n, nil
}

func (s *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = int64(s.pos) + offset
	case io.SeekEnd:
		abs = int64(len(s.buf)) + offset
	default:
		return 0, errors.New("render: bad whence")
	}
	if abs < 0 {
		return 0, errors.New("render: negative seek")
	}
	s.pos = int(abs)
	return abs, nil
}
