package engine

// TickContext carries the audio signals for one tick. Signal values are on
// the 0..255 scale produced by the analyzer.
type TickContext struct {
	// Time is a monotonic timestamp in milliseconds.
	Time       int64
	Volume     uint8
	BeatVolume uint8
	Bass       uint8
	BassAvg    uint8
	BPM        uint8
	// Initial is set on exactly the first tick of the process.
	Initial bool
}

// ControlEvent is a raw status/kind/value triple from the control surface.
type ControlEvent struct {
	Status uint8
	Kind   uint8
	Value  uint8
}

// Control returns the control the event originates from.
func (e ControlEvent) Control() Control {
	return Control{Status: e.Status, Kind: e.Kind}
}

// FeedbackEvent updates an indicator on the control surface.
type FeedbackEvent struct {
	Status uint8
	Kind   uint8
	Value  uint8
}

func feedback(c Control, value uint8) FeedbackEvent {
	return FeedbackEvent{Status: c.Status, Kind: c.Kind, Value: value}
}

func led(c Control, on bool) FeedbackEvent {
	if on {
		return feedback(c, 127)
	}
	return feedback(c, 0)
}

// Outcome describes which strobe source governed a tick.
type Outcome int

const (
	// OutcomeIdle means no strobe source changed the flash state.
	OutcomeIdle Outcome = iota
	// OutcomeImpulse means a bass impulse flipped the strobe.
	OutcomeImpulse
	// OutcomeConstantOn means the strobe is held solid white.
	OutcomeConstantOn
	// OutcomeBeat means the rhythmic driver started a flash.
	OutcomeBeat
)

// String returns a human-friendly name for the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeIdle:
		return "idle"
	case OutcomeImpulse:
		return "impulse"
	case OutcomeConstantOn:
		return "constant-on"
	case OutcomeBeat:
		return "beat"
	default:
		return "unknown"
	}
}
