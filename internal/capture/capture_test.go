package capture

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type constStreamer struct {
	left, right float64
	remaining   int
}

func (c *constStreamer) Stream(samples [][2]float64) (int, bool) {
	if c.remaining <= 0 {
		return 0, false
	}
	n := min(len(samples), c.remaining)
	for i := range samples[:n] {
		samples[i] = [2]float64{c.left, c.right}
	}
	c.remaining -= n
	return n, true
}

func (c *constStreamer) Err() error { return nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func drain(out chan []float32) [][]float32 {
	var frames [][]float32
	for {
		select {
		case f := <-out:
			frames = append(frames, f)
		default:
			return frames
		}
	}
}

func TestOfferDropsOldest(t *testing.T) {
	out := make(chan []float32, 2)
	offer(out, []float32{1})
	offer(out, []float32{2})
	offer(out, []float32{3})

	frames := drain(out)
	require.Len(t, frames, 2)
	assert.Equal(t, []float32{2}, frames[0])
	assert.Equal(t, []float32{3}, frames[1])
}

func TestStreamFramesInterleaved(t *testing.T) {
	format := beep.Format{SampleRate: 8000, NumChannels: 2, Precision: 2}
	src := NewStream(&constStreamer{left: 0.25, right: -0.5, remaining: 160}, format, 64, testLogger())

	out := make(chan []float32, 8)
	require.NoError(t, src.Run(context.Background(), out))

	frames := drain(out)
	require.Len(t, frames, 2, "trailing partial frame is dropped")
	for _, f := range frames {
		require.Len(t, f, 128)
		assert.Equal(t, float32(0.25), f[0])
		assert.Equal(t, float32(-0.5), f[1])
	}
	assert.Equal(t, 8000.0, src.SampleRate())
	assert.Equal(t, 2, src.Channels())
	assert.NoError(t, src.Close())
}

func TestStreamHonoursCancel(t *testing.T) {
	format := beep.Format{SampleRate: 8000, NumChannels: 2, Precision: 2}
	src := NewStream(&constStreamer{remaining: 1 << 20}, format, 64, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := src.Run(ctx, make(chan []float32))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpenFileDecodesWav(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kick.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	format := beep.Format{SampleRate: 22050, NumChannels: 2, Precision: 2}
	require.NoError(t, wav.Encode(f, &constStreamer{left: 0.5, right: 0.5, remaining: 512}, format))
	require.NoError(t, f.Close())

	src, err := OpenFile(path, 256, testLogger())
	require.NoError(t, err)
	defer src.Close()
	src.realtime = false

	out := make(chan []float32, 4)
	require.NoError(t, src.Run(context.Background(), out))

	frames := drain(out)
	require.Len(t, frames, 2)
	assert.InDelta(t, 0.5, frames[0][0], 1e-3)
	assert.Equal(t, 22050.0, src.SampleRate())
}

func TestOpenFileRejectsUnknownFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "set.ogg")
	require.NoError(t, os.WriteFile(path, []byte("OggS"), 0o644))

	_, err := OpenFile(path, 256, testLogger())
	require.Error(t, err)
	assert.ErrorContains(t, err, "unsupported audio file")
}

func TestOpenFileMissing(t *testing.T) {
	_, err := OpenFile(filepath.Join(t.TempDir(), "nope.wav"), 256, testLogger())
	assert.Error(t, err)
}
