package controller

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cybre/blaulicht/internal/dsp"
	"github.com/cybre/blaulicht/internal/engine"
	"github.com/cybre/blaulicht/internal/fixture"
	"github.com/cybre/blaulicht/internal/signals"
	"github.com/cybre/blaulicht/internal/ui"
)

type recordingSink struct {
	mu     sync.Mutex
	frames [][]byte
	err    error
}

func (s *recordingSink) Write(frame []byte) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, slices.Clone(frame))
	return nil
}

func (s *recordingSink) Close() error { return nil }

func (s *recordingSink) last() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

type fakeSurface struct {
	events chan engine.ControlEvent
	mu     sync.Mutex
	sent   []engine.FeedbackEvent
	err    error
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{events: make(chan engine.ControlEvent, 16)}
}

func (s *fakeSurface) Events() <-chan engine.ControlEvent { return s.events }

func (s *fakeSurface) Send(events []engine.FeedbackEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, events...)
	return s.err
}

func (s *fakeSurface) feedback() []engine.FeedbackEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.sent)
}

type recordingViz struct {
	frames []ui.VisualizerFrame
}

func (v *recordingViz) Update(frame ui.VisualizerFrame) {
	v.frames = append(v.frames, frame)
}

func newTestRunner(sink *recordingSink, surface Surface, viz Visualizer) *Runner {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	table := fixture.Default()
	eng := engine.New(table, engine.Options{}, logger)
	return NewRunner(eng, sink, surface, viz, logger, Options{FrameLength: table.FrameLength})
}

func reloadLED(on bool) engine.FeedbackEvent {
	ev := engine.FeedbackEvent{Status: engine.ReloopLeft.Status, Kind: engine.ReloopLeft.Kind}
	if on {
		ev.Value = 127
	}
	return ev
}

func TestRunnerFirstStepInitializes(t *testing.T) {
	sink := &recordingSink{}
	surface := newFakeSurface()
	viz := &recordingViz{}
	r := newTestRunner(sink, surface, viz)

	require.NoError(t, r.step(time.Now()))

	require.Len(t, sink.frames, 1)
	frame := sink.last()
	for _, s := range fixture.Default().Static {
		assert.Equal(t, s.Value, frame[s.Channel], "static channel %d", s.Channel)
	}
	assert.Contains(t, surface.feedback(), reloadLED(true))
	assert.True(t, r.engine.Initialized())
	require.Len(t, viz.frames, 1)
	assert.Equal(t, "wheel", viz.frames[0].ColorMode)
}

func TestRunnerTimeIsRelativeToFirstTick(t *testing.T) {
	sink := &recordingSink{}
	surface := newFakeSurface()
	r := newTestRunner(sink, surface, nil)

	start := time.Now()
	require.NoError(t, r.step(start))
	require.NoError(t, r.step(start.Add(500*time.Millisecond)))
	assert.NotContains(t, surface.feedback(), reloadLED(false))

	require.NoError(t, r.step(start.Add(1500*time.Millisecond)))
	assert.Contains(t, surface.feedback(), reloadLED(false))
	assert.Equal(t, int64(1500), r.engine.Registers().System.CurrentTime)
}

func TestRunnerDeliversPendingEventsOnce(t *testing.T) {
	sink := &recordingSink{}
	r := newTestRunner(sink, nil, nil)
	fog := fixture.Default().Fog

	start := time.Now()
	require.NoError(t, r.step(start))

	r.pending = append(r.pending, engine.ControlEvent{Status: engine.FogTrigger.Status, Kind: engine.FogTrigger.Kind, Value: 127})
	require.NoError(t, r.step(start.Add(25*time.Millisecond)))
	assert.Empty(t, r.pending)
	assert.True(t, r.engine.Registers().Fog.Active)
	assert.Equal(t, byte(255), sink.last()[fog])

	require.NoError(t, r.step(start.Add(50*time.Millisecond)))
	assert.True(t, r.engine.Registers().Fog.Active)
}

func TestRunnerSinkFailureStops(t *testing.T) {
	sink := &recordingSink{err: errors.New("unplugged")}
	r := newTestRunner(sink, nil, nil)

	err := r.step(time.Now())
	require.Error(t, err)
	assert.ErrorContains(t, err, "write dmx frame")
}

func TestRunnerSurfaceFailureIsNotFatal(t *testing.T) {
	sink := &recordingSink{}
	surface := newFakeSurface()
	surface.err = errors.New("port closed")
	r := newTestRunner(sink, surface, nil)

	require.NoError(t, r.step(time.Now()))
	assert.Len(t, sink.frames, 1)
}

func TestRunnerStopsWhenFeaturesClose(t *testing.T) {
	r := newTestRunner(&recordingSink{}, nil, nil)
	in := make(chan dsp.Features)
	close(in)

	err := r.Run(context.Background(), in, signals.NewTracker(signals.Options{}))
	assert.NoError(t, err)
}

func TestRunnerRunAppliesSurfaceEvents(t *testing.T) {
	sink := &recordingSink{}
	surface := newFakeSurface()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	table := fixture.Default()
	eng := engine.New(table, engine.Options{}, logger)
	r := NewRunner(eng, sink, surface, nil, logger, Options{Tick: time.Millisecond, FrameLength: table.FrameLength})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan dsp.Features)
	done := make(chan error, 1)
	go func() {
		done <- r.Run(ctx, in, signals.NewTracker(signals.Options{}))
	}()

	surface.events <- engine.ControlEvent{Status: engine.FogTrigger.Status, Kind: engine.FogTrigger.Kind, Value: 127}

	assert.Eventually(t, func() bool {
		frame := sink.last()
		return frame != nil && frame[table.Fog] == 255
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("runner did not stop")
	}
}

func TestRunnerHoldsEventsUntilInitialized(t *testing.T) {
	r := newTestRunner(&recordingSink{}, nil, nil)
	r.pending = append(r.pending, engine.ControlEvent{Status: engine.FogTrigger.Status, Kind: engine.FogTrigger.Kind, Value: 127})

	start := time.Now()
	require.NoError(t, r.step(start))
	assert.Len(t, r.pending, 1)
	assert.False(t, r.engine.Registers().Fog.Active)

	require.NoError(t, r.step(start.Add(25*time.Millisecond)))
	assert.Empty(t, r.pending)
	assert.True(t, r.engine.Registers().Fog.Active)
}

func TestRunnerSnapshotCarriesSpectrum(t *testing.T) {
	viz := &recordingViz{}
	r := newTestRunner(&recordingSink{}, nil, viz)
	r.spectrum = dsp.Features{
		BandEnergyNormalized: [3]float64{0.6, 0.3, 0.1},
		SpectralCentroidNorm: 0.2,
		PeakFrequency:        90,
	}

	require.NoError(t, r.step(time.Now()))

	require.Len(t, viz.frames, 1)
	frame := viz.frames[0]
	assert.Equal(t, [3]float64{0.6, 0.3, 0.1}, frame.Bands)
	assert.Equal(t, 0.2, frame.Centroid)
	assert.Equal(t, 90.0, frame.PeakHz)
}
