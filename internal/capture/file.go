package capture

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/wav"
	"github.com/rotisserie/eris"
)

// File replays a WAV or MP3 file as if it were a live input, which makes it
// possible to rehearse a show without a sound card.
type File struct {
	streamer  beep.Streamer
	closer    func() error
	format    beep.Format
	frameSize int
	realtime  bool
	logger    *slog.Logger
}

// OpenFile decodes the file at path. The decoder is picked by extension.
func OpenFile(path string, frameSize int, logger *slog.Logger) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open audio file %s", path)
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		streamer, format, err = wav.Decode(f)
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	default:
		f.Close()
		return nil, eris.Errorf("unsupported audio file %s", path)
	}
	if err != nil {
		f.Close()
		return nil, eris.Wrapf(err, "decode audio file %s", path)
	}

	file := NewStream(streamer, format, frameSize, logger)
	file.closer = streamer.Close
	file.realtime = true
	logger.Info("replaying audio file",
		slog.String("path", path),
		slog.Int("sample_rate", int(format.SampleRate)),
		slog.Duration("length", format.SampleRate.D(streamer.Len())))
	return file, nil
}

// NewStream wraps an already decoded stream. Frames are produced as fast as
// the consumer accepts them.
func NewStream(s beep.Streamer, format beep.Format, frameSize int, logger *slog.Logger) *File {
	return &File{streamer: s, format: format, frameSize: frameSize, logger: logger}
}

func (f *File) SampleRate() float64 { return float64(f.format.SampleRate) }

// Channels is always two; beep decodes to stereo.
func (f *File) Channels() int { return 2 }

// Close releases the decoder.
func (f *File) Close() error {
	if f.closer == nil {
		return nil
	}
	return eris.Wrap(f.closer(), "close audio file")
}

// Run streams the file frame by frame. It returns nil once the file is
// exhausted; a trailing partial frame is dropped.
func (f *File) Run(ctx context.Context, out chan []float32) error {
	samples := make([][2]float64, f.frameSize)

	var ticker *time.Ticker
	if f.realtime {
		ticker = time.NewTicker(f.format.SampleRate.D(f.frameSize))
		defer ticker.Stop()
	}

	for {
		n := fill(f.streamer, samples)
		if n < f.frameSize {
			if err := f.streamer.Err(); err != nil {
				return eris.Wrap(err, "decode audio")
			}
			f.logger.Info("audio file finished")
			return nil
		}

		frame := make([]float32, 2*n)
		for i, s := range samples[:n] {
			frame[2*i] = float32(s[0])
			frame[2*i+1] = float32(s[1])
		}

		if ticker != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
			offer(out, frame)
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case out <- frame:
		}
	}
}

// fill reads until buf is full or the streamer is drained.
func fill(s beep.Streamer, buf [][2]float64) int {
	total := 0
	for total < len(buf) {
		n, ok := s.Stream(buf[total:])
		total += n
		if !ok {
			break
		}
	}
	return total
}
