package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cybre/blaulicht/internal/fixture"
)

func TestHueToRGB(t *testing.T) {
	tests := []struct {
		hue     int
		r, g, b uint8
	}{
		{hue: 0, r: 255},
		{hue: 120, g: 255},
		{hue: 240, b: 255},
		{hue: 180, g: 255, b: 255},
		{hue: 300, r: 255, b: 255},
		{hue: 360, r: 255},
		{hue: -120, b: 255},
	}
	for _, tt := range tests {
		r, g, b := HueToRGB(tt.hue)
		assert.Equal(t, [3]uint8{tt.r, tt.g, tt.b}, [3]uint8{r, g, b}, "hue %d", tt.hue)
	}
}

func TestWheelWash(t *testing.T) {
	e, dmx := warm(t, Options{})

	e.Process(TickContext{Time: initTime + 50, Volume: 150}, []ControlEvent{move(Crossfader, 127)}, dmx)
	assert.Equal(t, 360, e.Registers().Color.Hue)
	assert.Equal(t, []byte{255, 0, 0, 255}, dmx[21:25])

	e.Process(TickContext{Time: initTime + 75, Volume: 75}, []ControlEvent{move(Crossfader, 0)}, dmx)
	assert.Equal(t, []byte{255, 0, 0, 127}, dmx[21:25])
}

func TestPaletteWash(t *testing.T) {
	e, dmx := warm(t, Options{})

	e.Process(TickContext{Time: initTime + 50, Volume: 150}, []ControlEvent{press(PalettePad), move(Crossfader, 100)}, dmx)
	assert.Equal(t, []byte{0, 255, 255}, dmx[21:24])

	e.Process(TickContext{Time: initTime + 75, Volume: 150}, []ControlEvent{move(Crossfader, 63)}, dmx)
	assert.Equal(t, []byte{255, 0, 255}, dmx[21:24])
}

func TestHoldFreezesHue(t *testing.T) {
	e, dmx := warm(t, Options{})
	e.Process(TickContext{Time: initTime + 50}, []ControlEvent{move(Crossfader, 127)}, dmx)
	e.Process(TickContext{Time: initTime + 75}, []ControlEvent{press(HoldHuePad), move(Crossfader, 40)}, dmx)
	assert.Equal(t, 360, e.Registers().Color.Hue)
}

func TestWashLevel(t *testing.T) {
	e, dmx := warm(t, Options{})

	e.Process(TickContext{Time: initTime + 50, Volume: 150}, []ControlEvent{move(RightFader, 64)}, dmx)
	assert.Equal(t, byte(128), dmx[24])

	e.Process(TickContext{Time: initTime + 75, Volume: 0}, []ControlEvent{press(ColorToMusicPad)}, dmx)
	assert.Equal(t, byte(128), dmx[24])
}

func TestWashDarkAfterFlashWhenInactive(t *testing.T) {
	e, dmx := warm(t, Options{})

	e.Process(TickContext{Time: initTime + 50, Volume: 100, Bass: 200, BassAvg: 20}, []ControlEvent{press(CueRight)}, dmx)
	assert.Equal(t, OutcomeImpulse, e.Outcome())

	e.Process(TickContext{Time: initTime + 75, Volume: 150}, nil, dmx)
	assert.Equal(t, byte(0), dmx[24])

	e.Process(TickContext{Time: initTime + 1100, Volume: 150}, nil, dmx)
	assert.Equal(t, byte(255), dmx[24])
}

func TestFreeRunningSweep(t *testing.T) {
	e, dmx := warm(t, Options{})

	e.Process(TickContext{Time: initTime + 50}, []ControlEvent{press(AnimateToBeat), press(SweepPad)}, dmx)
	assert.Equal(t, 50, e.Registers().Color.Crossfader)

	e.Process(TickContext{Time: initTime + 75}, nil, dmx)
	assert.Equal(t, 50, e.Registers().Color.Crossfader)

	e.Process(TickContext{Time: initTime + 150}, nil, dmx)
	assert.Equal(t, 100, e.Registers().Color.Crossfader)

	e.Process(TickContext{Time: initTime + 250}, nil, dmx)
	assert.Equal(t, 23, e.Registers().Color.Crossfader)
}

func TestBeatOscillation(t *testing.T) {
	e, dmx := warm(t, Options{})

	e.Process(TickContext{Time: initTime + 50, BPM: 120}, []ControlEvent{press(OscillatePad)}, dmx)
	assert.Equal(t, 127, e.Registers().Color.Crossfader)

	e.Process(TickContext{Time: initTime + 500, BPM: 120}, nil, dmx)
	assert.Equal(t, 127, e.Registers().Color.Crossfader)

	e.Process(TickContext{Time: initTime + 575, BPM: 120}, nil, dmx)
	assert.Equal(t, 0, e.Registers().Color.Crossfader)
}

func TestBeatAnimationNeedsTempo(t *testing.T) {
	e, dmx := warm(t, Options{})
	e.Process(TickContext{Time: initTime + 50}, []ControlEvent{press(SweepPad)}, dmx)
	e.Process(TickContext{Time: initTime + 2000}, nil, dmx)
	assert.Equal(t, 0, e.Registers().Color.Crossfader)
}

func TestWashLayouts(t *testing.T) {
	dmx := make([]byte, 16)
	for i := range dmx {
		dmx[i] = 9
	}
	renderWash(dmx, fixture.Wash{Start: 2, Layout: fixture.LayoutScaledRGB}, 255, 128, 0, 128)
	assert.Equal(t, []byte{128, 64, 0, 0, 0}, dmx[2:7])

	renderWash(dmx, fixture.Wash{Start: 8, Layout: fixture.LayoutDimmerRGB}, 255, 128, 0, 128)
	assert.Equal(t, []byte{128, 255, 128, 0}, dmx[8:12])
	assert.Equal(t, byte(9), dmx[12])
}
