package engine

import "slices"

// ColorMode selects where the wash hue comes from.
type ColorMode int

const (
	// ColorWheel maps the crossfader onto the full hue circle.
	ColorWheel ColorMode = iota
	// ColorPalette picks cyan or magenta by crossfader half.
	ColorPalette
	// ColorHold freezes the last hue.
	ColorHold
)

func (m ColorMode) String() string {
	switch m {
	case ColorWheel:
		return "wheel"
	case ColorPalette:
		return "palette"
	case ColorHold:
		return "hold"
	default:
		return "unknown"
	}
}

// AnimationMode selects how the crossfader is animated.
type AnimationMode int

const (
	// AnimationOff leaves the crossfader where the operator put it.
	AnimationOff AnimationMode = iota
	// AnimationSweep walks the crossfader forward and wraps.
	AnimationSweep
	// AnimationOscillate bounces the crossfader between its ends.
	AnimationOscillate
)

// Registers is the persistent state of the rig, grouped by subsystem.
type Registers struct {
	System SystemRegisters
	Strobe StrobeRegisters
	Panels PanelRegisters
	Fog    FogRegisters
	Color  ColorRegisters
	Head   HeadRegisters
}

// SystemRegisters tracks engine time.
type SystemRegisters struct {
	InitTime    int64
	CurrentTime int64
	// InitComplete is set once the reload indicator has been switched off.
	InitComplete bool
	// LastMeter is the last value written to the right level meter.
	LastMeter int
}

// StrobeRegisters holds the strobe switches, its flash state and the
// timestamps the arming logic measures from.
type StrobeRegisters struct {
	Armed        bool
	ToMusic      bool
	ConstantOn   bool
	Primary      bool
	Secondary    bool
	AutoActivate bool

	FlashBrightness int
	// SpeedMultiplier is -4..2; negative values slow the strobe down by
	// that factor, positive values speed it up.
	SpeedMultiplier int

	White     bool
	LastFlash int64

	Impulse      bool
	ImpulseStart int64

	// ArmStart is when the current armed period began; auto-disarm measures
	// from here.
	ArmStart int64
	// AutoDisarmed is set while the strobe is off because auto-disarm turned
	// it off. It guards both auto-disarm and auto-rearm.
	AutoDisarmed bool
	LastBass     int64

	// ConstantOnLevel is the flash brightness the constant-on state was last
	// rendered with.
	ConstantOnLevel int
}

// PanelState is one slow strobe panel.
type PanelState struct {
	Lit           bool
	Level         int
	ActivatedAt   int64
	DeactivatedAt int64
}

// PanelRegisters drives the slow strobe panel bank. Cursor is the last
// panel lit and stays within [0, len(Panels)).
type PanelRegisters struct {
	// Multiplier is 1..5 and scales the slow strobe timing exponentially.
	Multiplier     int
	Cursor         int
	LastActivation int64
	// Solid is set while constant-on drives every panel.
	Solid      bool
	SolidLevel int
	Panels     []PanelState
}

// FogRegisters holds the fog machine state. Start is when it was last
// switched on.
type FogRegisters struct {
	Active bool
	AutoOn bool
	Start  int64
}

// ColorRegisters holds the wash color source, animation and brightness.
type ColorRegisters struct {
	Active  bool
	ToMusic bool

	Crossfader       int
	Hue              int
	Mode             ColorMode
	NormalBrightness int
	// Level is the wash dimmer value resolved for the current tick.
	Level int

	Animation     AnimationMode
	AnimateToBeat bool
	HueSpeed      int
	BeatStep      int
	BeatSpeed     int
	LastAnimate   int64
}

// HeadRegisters holds the moving head position, 0..255.
type HeadRegisters struct {
	Position int
}

// Clone returns a deep copy of the registers.
func (r Registers) Clone() Registers {
	r.Panels.Panels = slices.Clone(r.Panels.Panels)
	return r
}
