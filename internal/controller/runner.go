package controller

import (
	"context"
	"log/slog"
	"time"

	"github.com/rotisserie/eris"

	"github.com/cybre/blaulicht/internal/dmxout"
	"github.com/cybre/blaulicht/internal/dsp"
	"github.com/cybre/blaulicht/internal/engine"
	"github.com/cybre/blaulicht/internal/signals"
	"github.com/cybre/blaulicht/internal/ui"
)

// Surface is the control surface the runner reads events from and sends
// indicator updates to.
type Surface interface {
	Events() <-chan engine.ControlEvent
	Send(events []engine.FeedbackEvent) error
}

// Visualizer receives a snapshot of the rig after every tick.
type Visualizer interface {
	Update(frame ui.VisualizerFrame)
}

// Options configures a Runner. Zero values select defaults.
type Options struct {
	// Tick is the engine update interval. Defaults to 25ms.
	Tick time.Duration
	// FrameLength is the size of the DMX frame. Defaults to 513.
	FrameLength int
}

// Runner drives the lighting engine at a fixed rate from tracked audio
// signals and control surface events, and ships the result to the DMX sink.
type Runner struct {
	engine  *engine.Engine
	sink    dmxout.Sink
	surface Surface
	viz     Visualizer
	logger  *slog.Logger
	tick    time.Duration

	frame    []byte
	latest   signals.Signals
	spectrum dsp.Features
	pending  []engine.ControlEvent
	start    time.Time
	ticks    int64
}

// NewRunner wires a runner. surface and viz may be nil.
func NewRunner(eng *engine.Engine, sink dmxout.Sink, surface Surface, viz Visualizer, logger *slog.Logger, opts Options) *Runner {
	if opts.Tick <= 0 {
		opts.Tick = 25 * time.Millisecond
	}
	if opts.FrameLength <= 0 {
		opts.FrameLength = 513
	}
	if sink == nil {
		sink = dmxout.Discard{}
	}

	return &Runner{
		engine:  eng,
		sink:    sink,
		surface: surface,
		viz:     viz,
		logger:  logger,
		tick:    opts.Tick,
		frame:   make([]byte, opts.FrameLength),
	}
}

// Run ticks the engine until ctx is cancelled or the feature stream closes.
func (r *Runner) Run(ctx context.Context, in <-chan dsp.Features, tracker *signals.Tracker) error {
	ticker := time.NewTicker(r.tick)
	defer ticker.Stop()
	debugTicker := time.NewTicker(2 * time.Second)
	defer debugTicker.Stop()

	var controls <-chan engine.ControlEvent
	if r.surface != nil {
		controls = r.surface.Events()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case features, ok := <-in:
			if !ok {
				return nil
			}
			r.latest = tracker.Process(features)
			r.spectrum = features
		case ev := <-controls:
			r.pending = append(r.pending, ev)
		case now := <-ticker.C:
			if err := r.step(now); err != nil {
				return err
			}
		case <-debugTicker.C:
			regs := r.engine.Registers()
			r.logger.Debug("rig state",
				slog.Int64("ticks", r.ticks),
				slog.Int("bass", int(r.latest.Bass)),
				slog.Int("bass_avg", int(r.latest.BassAvg)),
				slog.Int("bpm", int(r.latest.BPM)),
				slog.String("strobe", r.engine.Outcome().String()),
				slog.Bool("armed", regs.Strobe.Armed),
				slog.Int("hue", regs.Color.Hue),
				slog.Bool("fog", regs.Fog.Active))
		}
	}
}

// step runs one engine tick at wall-clock time now.
func (r *Runner) step(now time.Time) error {
	initial := !r.engine.Initialized()
	if initial {
		r.start = now
	}

	tc := engine.TickContext{
		Time:       now.Sub(r.start).Milliseconds(),
		Volume:     r.latest.Volume,
		BeatVolume: r.latest.BeatVolume,
		Bass:       r.latest.Bass,
		BassAvg:    r.latest.BassAvg,
		BPM:        r.latest.BPM,
		Initial:    initial,
	}

	// Events queued before initialization are held for the first Process.
	feedback := r.engine.Tick(tc, r.pending, r.frame)
	if !initial {
		r.pending = r.pending[:0]
	}
	r.ticks++

	if r.surface != nil && len(feedback) > 0 {
		if err := r.surface.Send(feedback); err != nil {
			r.logger.Warn("failed to update control surface", slog.Any("error", err))
		}
	}

	if err := r.sink.Write(r.frame); err != nil {
		return eris.Wrap(err, "write dmx frame")
	}

	if r.viz != nil {
		r.viz.Update(r.snapshot())
	}
	return nil
}

func (r *Runner) snapshot() ui.VisualizerFrame {
	regs := r.engine.Registers()

	panels := make([]bool, len(regs.Panels.Panels))
	for i, p := range regs.Panels.Panels {
		panels[i] = p.Lit || regs.Panels.Solid
	}

	return ui.VisualizerFrame{
		Hue:        regs.Color.Hue,
		Level:      regs.Color.Level,
		ColorMode:  regs.Color.Mode.String(),
		White:      regs.Strobe.White,
		Armed:      regs.Strobe.Armed,
		ConstantOn: regs.Strobe.ConstantOn,
		Strobe:     r.engine.Outcome().String(),
		Fog:        regs.Fog.Active,
		Panels:     panels,
		Volume:     r.latest.Volume,
		BeatVolume: r.latest.BeatVolume,
		Bass:       r.latest.Bass,
		BassAvg:    r.latest.BassAvg,
		BPM:        r.latest.BPM,
		Bands:      r.spectrum.BandEnergyNormalized,
		Centroid:   r.spectrum.SpectralCentroidNorm,
		PeakHz:     r.spectrum.PeakFrequency,
	}
}
