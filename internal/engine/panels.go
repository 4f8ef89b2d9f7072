package engine

// Slow strobe timing in milliseconds for a multiplier m is 50 * 2^m. A
// multiplier of 1 runs a short on time and a fixed off time.
const (
	shortOnTime  = 10
	shortOffTime = 100
)

func panelOnTime(mult int) int64 {
	if mult == 1 {
		return shortOnTime
	}
	return 50 << mult
}

func panelOffTime(mult int) int64 {
	if mult == 1 {
		return shortOffTime
	}
	return 50 << mult
}

// cyclePanels lights the panel bank one panel at a time on each white edge
// of the strobe, and drives it solid while the strobe is held on.
func (e *Engine) cyclePanels(now int64, edge panelEdge) {
	if !e.opts.SlowStrobe || edge == edgeNone {
		return
	}
	p := &e.regs.Panels

	// Releasing the solid state must not depend on the secondary strobe, or
	// turning it off while held would leave the bank solid for good.
	if edge == edgeRelease {
		p.Solid = false
		p.SolidLevel = 0
		return
	}
	if !e.regs.Strobe.Secondary {
		return
	}
	if edge == edgeSolid {
		p.Solid = true
		p.SolidLevel = e.regs.Strobe.FlashBrightness
		return
	}

	n := len(p.Panels)
	gap := panelOffTime(p.Multiplier) / int64(n)
	if now-p.LastActivation <= gap {
		return
	}
	p.Cursor = (p.Cursor + 1) % n

	panel := &p.Panels[p.Cursor]
	if panel.Lit || now-panel.DeactivatedAt <= gap {
		return
	}
	panel.Lit = true
	panel.Level = e.regs.Strobe.FlashBrightness
	panel.ActivatedAt = now
	p.LastActivation = now
}

// sweepPanels turns off every panel that has been lit for longer than the
// on time.
func (e *Engine) sweepPanels(now int64) {
	p := &e.regs.Panels
	on := panelOnTime(p.Multiplier)
	for i := range p.Panels {
		panel := &p.Panels[i]
		if panel.Lit && now-panel.ActivatedAt > on {
			panel.Lit = false
			panel.Level = 0
			panel.DeactivatedAt = now
		}
	}
}
