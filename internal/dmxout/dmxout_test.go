package dmxout

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bufferPort struct {
	bytes.Buffer
	closed bool
	err    error
}

func (b *bufferPort) Write(p []byte) (int, error) {
	if b.err != nil {
		return 0, b.err
	}
	return b.Buffer.Write(p)
}

func (b *bufferPort) Close() error {
	b.closed = true
	return nil
}

func TestEnttecProFraming(t *testing.T) {
	port := &bufferPort{}
	sink := NewEnttecPro(port)

	frame := make([]byte, 513)
	frame[1] = 255
	frame[512] = 7
	require.NoError(t, sink.Write(frame))

	out := port.Bytes()
	require.Len(t, out, 513+5)
	assert.Equal(t, []byte{0x7E, 6, 0x01, 0x02}, out[:4])
	assert.Equal(t, byte(0), out[4])
	assert.Equal(t, byte(255), out[5])
	assert.Equal(t, byte(7), out[516])
	assert.Equal(t, byte(0xE7), out[517])

	require.NoError(t, sink.Close())
	assert.True(t, port.closed)
}

func TestEnttecProRejectsOversizedFrames(t *testing.T) {
	sink := NewEnttecPro(&bufferPort{})
	assert.Error(t, sink.Write(make([]byte, 600)))
	assert.Error(t, sink.Write(nil))
}

func TestEnttecProWriteError(t *testing.T) {
	boom := errors.New("unplugged")
	sink := NewEnttecPro(&bufferPort{err: boom})
	err := sink.Write(make([]byte, 513))
	require.Error(t, err)
	assert.ErrorContains(t, err, "unplugged")
}

func TestDiscard(t *testing.T) {
	var s Sink = Discard{}
	assert.NoError(t, s.Write(make([]byte, 513)))
	assert.NoError(t, s.Close())
}
