package engine

import (
	"github.com/crazy3lf/colorconv"

	"github.com/cybre/blaulicht/internal/utils"
)

const (
	paletteCyan    = 180
	paletteMagenta = 300
	// flashHold is how long the wash stays dark after a strobe flash while
	// the color wash is switched off.
	flashHold        = 1000
	fullVolume       = 150
	hueAnimationBase = 10000
)

// HueToRGB converts a hue in degrees at full saturation and value. Hues
// outside [0, 360) wrap around.
func HueToRGB(hue int) (r, g, b uint8) {
	hue %= 360
	if hue < 0 {
		hue += 360
	}
	r, g, b, err := colorconv.HSVToRGB(float64(hue), 1, 1)
	if err != nil {
		return 0, 0, 0
	}
	return r, g, b
}

// resolveColor derives the hue from the crossfader and the wash level from
// the volume.
func (e *Engine) resolveColor(tc TickContext) {
	c := &e.regs.Color
	switch c.Mode {
	case ColorWheel:
		c.Hue = utils.MapRange(c.Crossfader, 0, 127, 0, 360)
	case ColorPalette:
		if c.Crossfader > 127/2 {
			c.Hue = paletteCyan
		} else {
			c.Hue = paletteMagenta
		}
	}

	c.Level = 0
	if e.SinceLastFlash(tc.Time) > flashHold || c.Active {
		volume := fullVolume
		if c.ToMusic {
			volume = int(tc.Volume)
		}
		c.Level = utils.Clamp(utils.MapRange(volume, 0, fullVolume, 0, c.NormalBrightness), 0, 255)
	}
}

// animateHue moves the crossfader when a hue animation is selected, either
// on the beat or free running at the hue speed.
func (e *Engine) animateHue(tc TickContext) {
	c := &e.regs.Color
	if c.Animation == AnimationOff {
		return
	}
	now := tc.Time
	elapsed := now - c.LastAnimate

	if c.AnimateToBeat {
		bpm := e.strobeBPM(tc)
		if bpm > 0 && elapsed > FlashInterval(bpm, c.BeatSpeed) {
			c.LastAnimate = now
			e.advanceHue(1)
		}
		return
	}

	if elapsed > int64(hueAnimationBase/max(c.HueSpeed, 1)) {
		e.advanceHue(2)
		c.LastAnimate = now
	}
}

// advanceHue applies the selected animation; sweeps take steps forward.
func (e *Engine) advanceHue(steps int) {
	c := &e.regs.Color
	switch c.Animation {
	case AnimationSweep:
		step := utils.MapRange(c.BeatStep, 1, 127, 1, 50)
		for j := 0; j < steps; j++ {
			c.Crossfader = (c.Crossfader + step) % 127
		}
	case AnimationOscillate:
		if c.Crossfader == 127 {
			c.Crossfader = 0
		} else {
			c.Crossfader = 127
		}
	}
}
