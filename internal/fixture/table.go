package fixture

import (
	"github.com/rotisserie/eris"
)

// FrameLength is the DMX buffer length the engine works on: the start code
// followed by one 512 channel universe. It is also the largest frame an
// output widget accepts.
const FrameLength = 513

// WashLayout names the channel order of a color wash fixture.
type WashLayout string

const (
	// LayoutRGBDimmer is red, green, blue, dimmer.
	LayoutRGBDimmer WashLayout = "rgb-dimmer"
	// LayoutDimmerRGB is dimmer, red, green, blue.
	LayoutDimmerRGB WashLayout = "dimmer-rgb"
	// LayoutScaledRGB has no dimmer channel: red, green and blue are scaled by
	// the brightness and the two trailing channels (white, amber) are zeroed.
	LayoutScaledRGB WashLayout = "scaled-rgb"
)

// Wash is a color wash fixture patched at Start.
type Wash struct {
	Name   string     `yaml:"name"`
	Start  int        `yaml:"start"`
	Layout WashLayout `yaml:"layout"`
}

// Width returns the number of channels the fixture occupies.
func (w Wash) Width() int {
	if w.Layout == LayoutScaledRGB {
		return 5
	}
	return 4
}

// StaticChannel is written once when the rig is initialized.
type StaticChannel struct {
	Channel int  `yaml:"channel"`
	Value   byte `yaml:"value"`
}

// Table is the physical wiring of the rig. The engine renders into the
// addresses it names but never decides them.
type Table struct {
	FrameLength int             `yaml:"frame_length"`
	Strobe      int             `yaml:"strobe"`
	Fog         int             `yaml:"fog"`
	MovingHead  int             `yaml:"moving_head"`
	Washes      []Wash          `yaml:"washes"`
	Panels      []int           `yaml:"panels"`
	Static      []StaticChannel `yaml:"static"`
}

// Default returns the wiring of the house rig.
func Default() Table {
	return Table{
		FrameLength: FrameLength,
		Strobe:      101,
		Fog:         200,
		MovingHead:  105,
		Washes: []Wash{
			{Name: "front", Start: 21, Layout: LayoutRGBDimmer},
		},
		// Panel order is the physical left-to-right order, not address order.
		Panels: []int{1, 17, 33, 49, 81, 129, 65, 161},
		Static: []StaticChannel{
			{Channel: 109, Value: 255},
			{Channel: 110, Value: 255},
			{Channel: 111, Value: 255},
			{Channel: 112, Value: 255},
		},
	}
}

// Validate checks that every patched address fits in the frame.
func (t Table) Validate() error {
	if t.FrameLength < 2 {
		return eris.Errorf("frame length %d is too short", t.FrameLength)
	}
	if t.FrameLength > FrameLength {
		return eris.Errorf("frame length %d exceeds one universe (%d)", t.FrameLength, FrameLength)
	}

	check := func(name string, addr, width int) error {
		if addr < 1 || addr+width > t.FrameLength {
			return eris.Errorf("%s address %d (width %d) outside frame of length %d", name, addr, width, t.FrameLength)
		}
		return nil
	}

	if err := check("strobe", t.Strobe, 1); err != nil {
		return err
	}
	if err := check("fog", t.Fog, 1); err != nil {
		return err
	}
	if err := check("moving head", t.MovingHead, 1); err != nil {
		return err
	}
	if len(t.Washes) == 0 {
		return eris.New("at least one wash fixture is required")
	}
	for _, w := range t.Washes {
		switch w.Layout {
		case LayoutRGBDimmer, LayoutDimmerRGB, LayoutScaledRGB:
		default:
			return eris.Errorf("wash %q has unknown layout %q", w.Name, w.Layout)
		}
		if err := check("wash "+w.Name, w.Start, w.Width()); err != nil {
			return err
		}
	}
	if len(t.Panels) == 0 {
		return eris.New("at least one slow strobe panel is required")
	}
	for _, p := range t.Panels {
		if err := check("panel", p, 2); err != nil {
			return err
		}
	}
	for _, s := range t.Static {
		if err := check("static channel", s.Channel, 1); err != nil {
			return err
		}
	}

	return nil
}
