package engine

import "log/slog"

const fogDuration = 5000

func (e *Engine) setFog(on bool) {
	f := &e.regs.Fog
	f.Active = on
	if on {
		f.Start = e.regs.System.CurrentTime
	}
	e.emit(led(FogTrigger, on))
	e.logger.Info("fog machine", slog.Bool("on", on))
}

// expireFog turns the fog machine off once it has run for fogDuration.
func (e *Engine) expireFog(now int64) {
	if e.regs.Fog.Active && now-e.regs.Fog.Start > fogDuration {
		e.setFog(false)
	}
}

// reactFog starts the fog machine on a bass impulse when fog on drop is
// enabled.
func (e *Engine) reactFog(s strobeResult) {
	if s.Outcome == OutcomeImpulse && e.regs.Fog.AutoOn && !e.regs.Fog.Active {
		e.setFog(true)
	}
}
