package engine

import (
	"fmt"
	"log/slog"

	"github.com/cybre/blaulicht/internal/fixture"
	"github.com/cybre/blaulicht/internal/utils"
)

// Options tunes the behaviour of the Engine.
type Options struct {
	// SlowStrobe enables the panel bank. The house show runs without it.
	SlowStrobe bool
}

// Engine turns control events and audio signals into DMX frames. It is not
// safe for concurrent use; the host owns it on a single goroutine.
type Engine struct {
	opts   Options
	table  fixture.Table
	logger *slog.Logger
	router map[Control]handler

	regs        Registers
	initialized bool
	outcome     Outcome

	out []FeedbackEvent
}

// New returns an Engine rendering into the given fixture table. It panics if
// the table does not validate.
func New(table fixture.Table, opts Options, logger *slog.Logger) *Engine {
	if err := table.Validate(); err != nil {
		panic(fmt.Sprintf("engine: invalid fixture table: %v", err))
	}
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		opts:   opts,
		table:  table,
		logger: logger,
	}
	e.router = e.routes()
	return e
}

// Tick runs Initialize when tc.Initial is set and Process otherwise.
func (e *Engine) Tick(tc TickContext, events []ControlEvent, dmx []byte) []FeedbackEvent {
	if tc.Initial {
		return e.Initialize(tc, dmx)
	}
	return e.Process(tc, events, dmx)
}

// Initialize loads the default register values, writes the static channels
// and returns the feedback that brings every surface indicator in line.
func (e *Engine) Initialize(tc TickContext, dmx []byte) []FeedbackEvent {
	e.checkFrame(dmx)
	if e.initialized {
		e.logger.Error("engine initialized twice, restoring defaults", slog.Int64("time", tc.Time))
	}

	e.out = e.out[:0]
	now := tc.Time
	e.regs = Registers{
		System: SystemRegisters{InitTime: now, CurrentTime: now},
		Panels: PanelRegisters{Panels: make([]PanelState, len(e.table.Panels))},
	}
	e.initialized = true
	e.outcome = OutcomeIdle
	e.emit(led(ReloopLeft, true))

	r := &e.regs
	r.Strobe.Armed = true
	e.emit(led(CueLeft, true))
	r.Strobe.FlashBrightness = 255
	r.Color.Active = true
	e.emit(led(CueRight, true))
	r.Color.NormalBrightness = 255

	e.setStrobeSpeed(64)
	r.Color.HueSpeed = utils.MapRange(64, 0, 127, 1, 255)

	r.Strobe.ToMusic = true
	e.emit(led(StrobeToMusicPad, true))
	r.Color.ToMusic = true
	e.emit(led(ColorToMusicPad, true))

	r.Color.BeatStep = 64
	r.Color.BeatSpeed = utils.MapRange(64, 0, 127, -4, 4)
	r.Color.Animation = AnimationOff
	e.emitSelector(animationPads, int(r.Color.Animation))
	r.Color.Mode = ColorWheel
	e.emitSelector(colorPads, int(r.Color.Mode))

	r.Color.AnimateToBeat = true
	e.emit(led(AnimateToBeat, true))
	r.Fog.AutoOn = true
	e.emit(led(FogAutoOn, true))
	e.emit(led(FogTrigger, false))

	r.Strobe.Primary = true
	e.emit(led(PrimaryStrobePad, true))
	e.logger.Info("primary strobe enabled")
	r.Strobe.Secondary = true
	e.emit(led(SecondaryStrobePad, true))
	e.logger.Info("secondary strobe enabled")
	r.Strobe.AutoActivate = true
	e.emit(led(AutoStrobePad, true))
	e.logger.Info("strobe auto activation enabled")
	e.emit(led(ConstantOnPad, false))

	r.Strobe.ArmStart = now
	r.Strobe.AutoDisarmed = true
	r.Head.Position = utils.MapRange(50, 0, 127, 0, 255)
	r.Panels.Multiplier = utils.MapRange(64, 0, 127, 1, 5)
	r.Panels.Cursor = len(e.table.Panels) - 1

	for _, s := range e.table.Static {
		dmx[s.Channel] = s.Value
	}
	e.logger.Debug("engine initialized", slog.Int("feedback", len(e.out)))
	return e.feedback()
}

// Process advances the rig by one tick: it applies the control events,
// steps every subsystem and renders the frame.
func (e *Engine) Process(tc TickContext, events []ControlEvent, dmx []byte) []FeedbackEvent {
	e.checkFrame(dmx)
	if !e.initialized {
		panic("engine: process called before initialize")
	}

	e.out = e.out[:0]
	now := tc.Time
	e.regs.System.CurrentTime = now

	e.updateIndicators(tc)
	for _, ev := range events {
		e.dispatch(ev)
	}

	e.expireFog(now)
	e.resolveColor(tc)

	s := e.stepStrobe(tc)
	e.outcome = s.Outcome
	e.reactFog(s)
	e.cyclePanels(now, s.Edge)
	if s.Outcome != OutcomeImpulse {
		e.trackBass(tc)
		e.sweepPanels(now)
		e.animateHue(tc)
	}

	e.render(dmx)
	return e.feedback()
}

// Registers returns a copy of the current register bank.
func (e *Engine) Registers() Registers {
	return e.regs.Clone()
}

// Outcome returns the strobe outcome of the last processed tick.
func (e *Engine) Outcome() Outcome {
	return e.outcome
}

// Initialized reports whether Initialize has run.
func (e *Engine) Initialized() bool {
	return e.initialized
}

func (e *Engine) checkFrame(dmx []byte) {
	if len(dmx) != e.table.FrameLength {
		panic(fmt.Sprintf("engine: dmx frame length mismatch: got %d, want %d", len(dmx), e.table.FrameLength))
	}
}

func (e *Engine) emit(ev FeedbackEvent) {
	e.out = append(e.out, ev)
}

func (e *Engine) feedback() []FeedbackEvent {
	if len(e.out) == 0 {
		return nil
	}
	out := make([]FeedbackEvent, len(e.out))
	copy(out, e.out)
	return out
}

// updateIndicators drives the reload LED and the level meter.
func (e *Engine) updateIndicators(tc TickContext) {
	since := tc.Time - e.regs.System.InitTime
	if !e.regs.System.InitComplete && since > 1000 && since < 2000 {
		e.regs.System.InitComplete = true
		e.emit(led(ReloopLeft, false))
	}

	var level int
	if e.regs.Color.AnimateToBeat {
		level = 60
		if s := e.regs.Color.BeatSpeed; s != 0 {
			level = utils.MapRange(max(s, -s), 1, 4, 60, 110)
		}
	} else {
		level = utils.MapRange(utils.Clamp(int(tc.Volume), 0, 150), 0, 150, 0, 127)
	}
	if level != e.regs.System.LastMeter {
		e.regs.System.LastMeter = level
		e.emit(feedback(RightMeter, uint8(level)))
	}
}

// speedMeter renders a signed speed multiplier on a meter whose resting
// point is 60.
func speedMeter(m int) int {
	switch {
	case m < 0:
		return utils.MapRange(-m, 1, 4, 60, 110)
	case m > 0:
		return utils.MapRange(m, 1, 2, 60, 70)
	default:
		return 60
	}
}
