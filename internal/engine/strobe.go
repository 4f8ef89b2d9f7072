package engine

import (
	"log/slog"
)

const (
	// impulseWindow is how long a bass impulse keeps re-flipping the strobe
	// while the room stays loud.
	impulseWindow = 60
	armWindow     = 5000
	rearmDelay    = 1000
	defaultBPM    = 160
)

// panelEdge tells the slow strobe cycler what the strobe did this tick.
type panelEdge int

const (
	edgeNone panelEdge = iota
	edgeWhite
	edgeSolid
	edgeRelease
)

type strobeResult struct {
	Outcome Outcome
	Edge    panelEdge
}

// FlashInterval returns the half period in milliseconds for bpm scaled by
// a speed multiplier: negative multipliers slow down by that factor and
// positive ones speed up. bpm must be positive.
func FlashInterval(bpm, mult int) int64 {
	base := 60000.0 / float64(bpm)
	switch {
	case mult < 0:
		base *= float64(-mult)
	case mult > 0:
		base /= float64(mult)
	}
	return int64(base)
}

// White reports whether the strobe is currently lit.
func (e *Engine) White() bool {
	return e.regs.Strobe.White
}

// SinceLastFlash returns the milliseconds since the last strobe flash.
func (e *Engine) SinceLastFlash(now int64) int64 {
	return now - e.regs.Strobe.LastFlash
}

func (e *Engine) stepStrobe(tc TickContext) strobeResult {
	s := &e.regs.Strobe
	now := tc.Time

	if s.Armed && e.impulse(tc) {
		if !s.Impulse {
			s.Impulse = true
			s.ImpulseStart = now
		}
		s.White = !s.White
		s.LastFlash = now
		s.ArmStart = now
		s.AutoDisarmed = false
		e.logger.Debug("bass impulse", slog.Bool("white", s.White))
		return strobeResult{Outcome: OutcomeImpulse}
	}
	if s.Impulse && now-s.ImpulseStart >= impulseWindow {
		s.Impulse = false
	}

	if !s.ConstantOn && s.White {
		s.White = false
		s.Impulse = false
		return strobeResult{Outcome: OutcomeIdle}
	}

	if s.ConstantOn {
		if !s.White || s.ConstantOnLevel != s.FlashBrightness {
			s.White = true
			s.ConstantOnLevel = s.FlashBrightness
			return strobeResult{Outcome: OutcomeConstantOn, Edge: edgeSolid}
		}
		return strobeResult{Outcome: OutcomeConstantOn}
	}
	if e.regs.Panels.Solid {
		return strobeResult{Outcome: OutcomeIdle, Edge: edgeRelease}
	}

	return e.rhythmic(tc)
}

func (e *Engine) impulse(tc TickContext) bool {
	s := &e.regs.Strobe
	if !s.Impulse {
		return tc.BassAvg < 50 && tc.Bass > 100
	}
	return tc.Time-s.ImpulseStart < impulseWindow && tc.Volume > 70
}

func (e *Engine) rhythmic(tc TickContext) strobeResult {
	s := &e.regs.Strobe
	now := tc.Time

	if s.ToMusic && tc.BassAvg < 100 && tc.Bass < 100 {
		return strobeResult{Outcome: OutcomeIdle}
	}
	if !s.Armed {
		return strobeResult{Outcome: OutcomeIdle}
	}

	if s.AutoActivate && s.ToMusic && tc.BassAvg > 100 && now-s.ArmStart > armWindow && !s.AutoDisarmed {
		s.Armed = false
		s.AutoDisarmed = true
		e.emit(led(CueLeft, false))
		e.logger.Info("strobe disarmed automatically", slog.Int64("armed_for", now-s.ArmStart))
	}

	bpm := e.strobeBPM(tc)
	if bpm == 0 {
		return strobeResult{Outcome: OutcomeIdle}
	}
	if now-s.LastFlash > FlashInterval(bpm, s.SpeedMultiplier) && !s.White {
		s.White = true
		s.LastFlash = now
		return strobeResult{Outcome: OutcomeBeat, Edge: edgeWhite}
	}
	return strobeResult{Outcome: OutcomeIdle}
}

// strobeBPM substitutes a fixed tempo when the strobe runs free of the music
// and no beat has been detected.
func (e *Engine) strobeBPM(tc TickContext) int {
	if !e.regs.Strobe.ToMusic && tc.BPM == 0 {
		return defaultBPM
	}
	return int(tc.BPM)
}

// trackBass records strong bass and re-arms a strobe that was disarmed
// automatically once the bass has been gone for a while.
func (e *Engine) trackBass(tc TickContext) {
	s := &e.regs.Strobe
	now := tc.Time
	if tc.BassAvg > 100 {
		s.LastBass = now
	}
	if s.AutoActivate && s.ToMusic && !s.Armed && s.AutoDisarmed && now-s.LastBass > rearmDelay {
		s.Armed = true
		s.AutoDisarmed = false
		s.ArmStart = now
		e.emit(led(CueLeft, true))
		e.logger.Info("strobe re-armed automatically")
	}
}
