package engine

import "fmt"

// Control identifies a physical control on the surface by its MIDI status
// byte and first data byte.
type Control struct {
	Status uint8
	Kind   uint8
}

func (c Control) String() string {
	return fmt.Sprintf("%d/%d", c.Status, c.Kind)
}

// Pioneer DDJ-400 mapping.
var (
	// Hue fader.
	Crossfader = Control{182, 31}
	// Strobe brightness.
	LeftFader = Control{176, 19}
	// Wash brightness.
	RightFader = Control{177, 19}
	// Moving head position.
	LeftTempo = Control{176, 0}

	// Strobe armed.
	CueLeft = Control{144, 84}
	// Wash active.
	CueRight = Control{145, 84}
	// Toggles both cues.
	ReleaseFX = Control{148, 71}

	// Strobe speed multiplier.
	LeftFilter = Control{182, 23}
	// Slow strobe duration multiplier.
	LeftLowFilter = Control{176, 15}
	// Free running hue animation speed.
	RightFilter = Control{182, 24}
	// Hue animation step size.
	RightLowFilter = Control{177, 15}
	// Beat hue animation speed multiplier.
	RightMidFilter = Control{177, 11}

	StrobeToMusicPad   = Control{151, 0}
	ConstantOnPad      = Control{151, 1}
	PrimaryStrobePad   = Control{151, 4}
	SecondaryStrobePad = Control{151, 5}
	AutoStrobePad      = Control{151, 7}

	ColorToMusicPad = Control{153, 0}
	PalettePad      = Control{153, 1}
	HoldHuePad      = Control{153, 2}
	SweepPad        = Control{153, 4}
	OscillatePad    = Control{153, 5}

	AnimateToBeat = Control{145, 12}
	FogTrigger    = Control{144, 11}
	FogAutoOn     = Control{144, 12}

	// Lit while the rig is reloading.
	ReloopLeft = Control{144, 77}

	// Level meters driven by feedback only.
	LeftMeter  = Control{0xb0, 2}
	RightMeter = Control{0xb1, 2}
)
