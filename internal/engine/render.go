package engine

import (
	"github.com/cybre/blaulicht/internal/fixture"
	"github.com/cybre/blaulicht/internal/utils"
)

// render writes the register state into the frame at the addresses of the
// fixture table.
func (e *Engine) render(dmx []byte) {
	r := &e.regs
	t := e.table

	dmx[t.MovingHead] = byte(r.Head.Position)

	red, green, blue := HueToRGB(r.Color.Hue)
	level := byte(r.Color.Level)
	for _, w := range t.Washes {
		renderWash(dmx, w, red, green, blue, level)
	}

	var strobe byte
	if r.Strobe.White && r.Strobe.Primary {
		strobe = byte(r.Strobe.FlashBrightness)
	}
	dmx[t.Strobe] = strobe

	var fog byte
	if r.Fog.Active {
		fog = 255
	}
	dmx[t.Fog] = fog

	if !e.opts.SlowStrobe {
		return
	}
	for i, addr := range t.Panels {
		level := r.Panels.Panels[i].Level
		if r.Panels.Solid {
			level = r.Panels.SolidLevel
		}
		dmx[addr] = byte(level)
		dmx[addr+1] = 255
	}
}

func renderWash(dmx []byte, w fixture.Wash, r, g, b, level byte) {
	s := w.Start
	switch w.Layout {
	case fixture.LayoutDimmerRGB:
		dmx[s], dmx[s+1], dmx[s+2], dmx[s+3] = level, r, g, b
	case fixture.LayoutScaledRGB:
		dmx[s] = scale(r, level)
		dmx[s+1] = scale(g, level)
		dmx[s+2] = scale(b, level)
		dmx[s+3], dmx[s+4] = 0, 0
	default:
		dmx[s], dmx[s+1], dmx[s+2], dmx[s+3] = r, g, b, level
	}
}

func scale(c, level byte) byte {
	return byte(utils.MapRange(int(c), 0, 255, 0, int(level)))
}
