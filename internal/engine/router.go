package engine

import (
	"log/slog"

	"github.com/cybre/blaulicht/internal/utils"
)

type handler func(value uint8)

// Exclusive pad groups; the first pad selects mode 1, the second mode 2.
var (
	colorPads     = [2]Control{PalettePad, HoldHuePad}
	animationPads = [2]Control{SweepPad, OscillatePad}
)

func (e *Engine) routes() map[Control]handler {
	r := &e.regs
	return map[Control]handler{
		Crossfader: func(v uint8) { r.Color.Crossfader = int(v) },
		LeftFader:  e.fader(&r.Strobe.FlashBrightness, 0, 255),
		RightFader: e.fader(&r.Color.NormalBrightness, 0, 255),
		LeftTempo:  e.fader(&r.Head.Position, 0, 255),

		LeftFilter: func(v uint8) { e.setStrobeSpeed(v) },
		LeftLowFilter: func(v uint8) {
			r.Panels.Multiplier = utils.MapRange(int(v), 0, 127, 1, 5)
			e.emit(feedback(LeftMeter, v))
		},
		RightFilter:    e.fader(&r.Color.HueSpeed, 1, 255),
		RightLowFilter: func(v uint8) { r.Color.BeatStep = int(v) },
		RightMidFilter: func(v uint8) { r.Color.BeatSpeed = snapSpeed(utils.MapRange(int(v), 0, 127, -4, 4)) },

		CueLeft:            e.manualArm(e.toggle(CueLeft, &r.Strobe.Armed, "strobe")),
		CueRight:           e.toggle(CueRight, &r.Color.Active, "color wash"),
		StrobeToMusicPad:   e.toggle(StrobeToMusicPad, &r.Strobe.ToMusic, "strobe to music"),
		ConstantOnPad:      e.toggle(ConstantOnPad, &r.Strobe.ConstantOn, "constant strobe"),
		PrimaryStrobePad:   e.toggle(PrimaryStrobePad, &r.Strobe.Primary, "primary strobe"),
		SecondaryStrobePad: e.toggle(SecondaryStrobePad, &r.Strobe.Secondary, "secondary strobe"),
		AutoStrobePad:      e.toggle(AutoStrobePad, &r.Strobe.AutoActivate, "automatic strobe driver"),
		ColorToMusicPad:    e.toggle(ColorToMusicPad, &r.Color.ToMusic, "color to music"),
		AnimateToBeat:      e.toggle(AnimateToBeat, &r.Color.AnimateToBeat, "animate to beat"),
		FogAutoOn:          e.toggle(FogAutoOn, &r.Fog.AutoOn, "fog machine on drop"),
		FogTrigger: func(v uint8) {
			if v == 127 {
				e.setFog(!r.Fog.Active)
			}
		},

		PalettePad:   e.selector(colorPads, 0, (*int)(&r.Color.Mode)),
		HoldHuePad:   e.selector(colorPads, 1, (*int)(&r.Color.Mode)),
		SweepPad:     e.selector(animationPads, 0, (*int)(&r.Color.Animation)),
		OscillatePad: e.selector(animationPads, 1, (*int)(&r.Color.Animation)),

		ReleaseFX: func(v uint8) {
			if v != 127 {
				return
			}
			r.Strobe.Armed = !r.Strobe.Armed
			e.emit(led(CueLeft, r.Strobe.Armed))
			e.takeOverArming()
			r.Color.Active = !r.Color.Active
			e.emit(led(CueRight, r.Color.Active))
		},
	}
}

func (e *Engine) dispatch(ev ControlEvent) {
	h, ok := e.router[ev.Control()]
	if !ok {
		e.logger.Debug("unmapped control",
			slog.Int("status", int(ev.Status)),
			slog.Int("kind", int(ev.Kind)),
			slog.Int("value", int(ev.Value)),
		)
		return
	}
	h(ev.Value)
}

// fader rescales the 0..127 control value onto [lo, hi].
func (e *Engine) fader(dst *int, lo, hi int) handler {
	return func(v uint8) {
		*dst = utils.MapRange(int(v), 0, 127, lo, hi)
	}
}

// toggle flips flag on a full press and mirrors it on the control's LED.
// Releases and intermediate values are ignored.
func (e *Engine) toggle(c Control, flag *bool, name string) handler {
	return func(v uint8) {
		if v != 127 {
			return
		}
		*flag = !*flag
		e.emit(led(c, *flag))
		if *flag {
			e.logger.Info("enabled", slog.String("feature", name))
		} else {
			e.logger.Info("disabled", slog.String("feature", name))
		}
	}
}

// manualArm hands the strobe arming back to the performer: automatic
// re-arming only undoes an automatic disarm.
func (e *Engine) manualArm(h handler) handler {
	return func(v uint8) {
		h(v)
		if v == 127 {
			e.takeOverArming()
		}
	}
}

func (e *Engine) takeOverArming() {
	e.regs.Strobe.AutoDisarmed = false
	e.regs.Strobe.ArmStart = e.regs.System.CurrentTime
}

// selector chooses mode idx+1 of an exclusive pad group, or returns to mode
// 0 when that mode is already selected.
func (e *Engine) selector(group [2]Control, idx int, m *int) handler {
	return func(v uint8) {
		if v != 127 {
			return
		}
		if *m == idx+1 {
			*m = 0
		} else {
			*m = idx + 1
		}
		e.emitSelector(group, *m)
	}
}

func (e *Engine) emitSelector(group [2]Control, mode int) {
	for i, c := range group {
		e.emit(led(c, mode == i+1))
	}
}

func (e *Engine) setStrobeSpeed(v uint8) {
	m := snapSpeed(utils.MapRange(int(v), 0, 127, -4, 2))
	e.regs.Strobe.SpeedMultiplier = m
	e.emit(feedback(LeftMeter, uint8(speedMeter(m))))
}

// snapSpeed folds a multiplier of -3 onto -2.
func snapSpeed(m int) int {
	if m == -3 {
		return -2
	}
	return m
}
