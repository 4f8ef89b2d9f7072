package surface

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2/drivers"

	"github.com/cybre/blaulicht/internal/engine"
)

type fakePort struct {
	name      string
	open      bool
	openErr   error
	listenErr error
	onMsg     func([]byte, int32)
	sent      [][]byte
}

func (p *fakePort) Open() error {
	if p.openErr != nil {
		return p.openErr
	}
	p.open = true
	return nil
}

func (p *fakePort) Close() error {
	p.open = false
	return nil
}

func (p *fakePort) IsOpen() bool            { return p.open }
func (p *fakePort) Number() int             { return 0 }
func (p *fakePort) String() string          { return p.name }
func (p *fakePort) Underlying() interface{} { return nil }

func (p *fakePort) Listen(onMsg func(msg []byte, milliseconds int32), _ drivers.ListenConfig) (func(), error) {
	if p.listenErr != nil {
		return nil, p.listenErr
	}
	p.onMsg = onMsg
	return func() { p.onMsg = nil }, nil
}

func (p *fakePort) Send(data []byte) error {
	p.sent = append(p.sent, append([]byte(nil), data...))
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestConnectRoundTrip(t *testing.T) {
	in := &fakePort{name: "DDJ-400 in"}
	out := &fakePort{name: "DDJ-400 out"}

	s, err := connect(in, out, testLogger())
	require.NoError(t, err)
	require.NotNil(t, in.onMsg)

	in.onMsg([]byte{144, 11, 127}, 0)
	select {
	case ev := <-s.Events():
		assert.Equal(t, engine.ControlEvent{Status: 144, Kind: 11, Value: 127}, ev)
	case <-time.After(time.Second):
		t.Fatal("no control event")
	}

	require.NoError(t, s.Send([]engine.FeedbackEvent{{Status: 144, Kind: 77, Value: 0}}))
	assert.Equal(t, [][]byte{{144, 77, 0}}, out.sent)

	require.NoError(t, s.Close())
	assert.False(t, in.IsOpen())
	assert.False(t, out.IsOpen())
	assert.NoError(t, s.Close())
}

func TestConnectClosesPortsOnListenFailure(t *testing.T) {
	in := &fakePort{name: "in", listenErr: errors.New("busy")}
	out := &fakePort{name: "out"}

	_, err := connect(in, out, testLogger())
	require.Error(t, err)
	assert.ErrorContains(t, err, "listen on in")
	assert.False(t, in.IsOpen())
	assert.False(t, out.IsOpen())
}

func TestConnectOutputFailure(t *testing.T) {
	in := &fakePort{name: "in"}
	out := &fakePort{name: "out", openErr: errors.New("denied")}

	_, err := connect(in, out, testLogger())
	require.Error(t, err)
	assert.False(t, in.IsOpen())
	assert.False(t, out.IsOpen())
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		msg  []byte
		want engine.ControlEvent
		ok   bool
	}{
		{"note on", []byte{144, 84, 127}, engine.ControlEvent{Status: 144, Kind: 84, Value: 127}, true},
		{"note release", []byte{145, 84, 0}, engine.ControlEvent{Status: 145, Kind: 84, Value: 0}, true},
		{"control change", []byte{182, 31, 64}, engine.ControlEvent{Status: 182, Kind: 31, Value: 64}, true},
		{"short", []byte{192, 1}, engine.ControlEvent{}, false},
		{"sysex", []byte{0xF0, 1, 2}, engine.ControlEvent{}, false},
		{"running status", []byte{84, 127, 0}, engine.ControlEvent{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Decode(tt.msg)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncode(t *testing.T) {
	msg := Encode(engine.FeedbackEvent{Status: 0xb1, Kind: 2, Value: 110})
	assert.Equal(t, []byte{0xb1, 2, 110}, msg.Bytes())

	ev, ok := Decode(msg.Bytes())
	assert.True(t, ok)
	assert.Equal(t, engine.ControlEvent{Status: 0xb1, Kind: 2, Value: 110}, ev)
}

func TestGuess(t *testing.T) {
	assert.Equal(t, "DDJ-400 MIDI 1", Guess([]string{"Midi Through", "DDJ-400 MIDI 1"}))
	assert.Equal(t, "Midi Through", Guess([]string{"Midi Through"}))
	assert.Empty(t, Guess(nil))
}
