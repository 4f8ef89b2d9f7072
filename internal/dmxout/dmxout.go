package dmxout

import (
	"io"

	"github.com/rotisserie/eris"
	serial "github.com/tarm/goserial"

	"github.com/cybre/blaulicht/internal/fixture"
)

// Sink receives one rendered frame per tick. Frames start with the DMX start
// code followed by the channel values.
type Sink interface {
	Write(frame []byte) error
	Close() error
}

const (
	proStart       = 0x7E
	proEnd         = 0xE7
	proLabelOutput = 6
	// DefaultBaud is what the USB Pro widget's virtual COM port expects.
	DefaultBaud = 57600
	maxFrame    = fixture.FrameLength
)

// EnttecPro writes frames to an Enttec DMX USB Pro compatible widget using
// its "output only send DMX packet" request.
type EnttecPro struct {
	port io.WriteCloser
	buf  []byte
}

// OpenEnttecPro opens the serial device at name.
func OpenEnttecPro(name string, baud int) (*EnttecPro, error) {
	if baud <= 0 {
		baud = DefaultBaud
	}
	port, err := serial.OpenPort(&serial.Config{Name: name, Baud: baud})
	if err != nil {
		return nil, eris.Wrapf(err, "open dmx widget %s", name)
	}
	return NewEnttecPro(port), nil
}

// NewEnttecPro wraps an already open port.
func NewEnttecPro(port io.WriteCloser) *EnttecPro {
	return &EnttecPro{port: port, buf: make([]byte, 0, maxFrame+5)}
}

// Write sends frame as a single widget message.
func (e *EnttecPro) Write(frame []byte) error {
	if len(frame) == 0 || len(frame) > maxFrame {
		return eris.Errorf("dmx frame of %d bytes does not fit a universe", len(frame))
	}
	n := len(frame)
	e.buf = append(e.buf[:0], proStart, proLabelOutput, byte(n&0xFF), byte(n>>8))
	e.buf = append(e.buf, frame...)
	e.buf = append(e.buf, proEnd)

	if _, err := e.port.Write(e.buf); err != nil {
		return eris.Wrap(err, "write dmx frame")
	}
	return nil
}

// Close closes the serial port.
func (e *EnttecPro) Close() error {
	return eris.Wrap(e.port.Close(), "close dmx widget")
}

// Discard drops every frame. It stands in for a widget when running without
// hardware.
type Discard struct{}

func (Discard) Write([]byte) error { return nil }
func (Discard) Close() error       { return nil }
