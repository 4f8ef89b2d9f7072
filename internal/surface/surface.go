package surface

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"github.com/cybre/blaulicht/internal/engine"
)

// ErrPortNotFound is returned when no MIDI port matches the requested name.
var ErrPortNotFound = eris.New("midi port not found")

// Surface is a DJ controller connected over MIDI. Control events are decoded
// into engine events; feedback is encoded back onto the output port.
type Surface struct {
	logger *slog.Logger

	in   drivers.In
	out  drivers.Out
	stop func()
	send func(gomidi.Message) error

	events chan engine.ControlEvent

	mu     sync.Mutex
	closed bool
}

// Open connects to the input and output ports whose names contain inName and
// outName. An empty outName reuses inName.
func Open(inName, outName string, logger *slog.Logger) (*Surface, error) {
	if outName == "" {
		outName = inName
	}

	in, err := gomidi.FindInPort(inName)
	if err != nil {
		return nil, eris.Wrapf(ErrPortNotFound, "input %q", inName)
	}
	out, err := gomidi.FindOutPort(outName)
	if err != nil {
		return nil, eris.Wrapf(ErrPortNotFound, "output %q", outName)
	}

	return connect(in, out, logger)
}

// connect opens both ports and starts listening. Any port opened here is
// closed again when a later step fails.
func connect(in drivers.In, out drivers.Out, logger *slog.Logger) (*Surface, error) {
	s := &Surface{
		logger: logger,
		in:     in,
		out:    out,
		events: make(chan engine.ControlEvent, 256),
	}

	send, err := gomidi.SendTo(out)
	if err != nil {
		closePort(out)
		return nil, eris.Wrapf(err, "open output %s", out.String())
	}
	s.send = send

	stop, err := gomidi.ListenTo(in, func(msg gomidi.Message, _ int32) {
		ev, ok := Decode(msg.Bytes())
		if !ok {
			return
		}
		select {
		case s.events <- ev:
		default:
			s.logger.Warn("control event dropped", slog.String("control", ev.Control().String()))
		}
	})
	if err != nil {
		closePort(in)
		closePort(out)
		return nil, eris.Wrapf(err, "listen on %s", in.String())
	}
	s.stop = stop

	logger.Info("control surface connected", slog.String("in", in.String()), slog.String("out", out.String()))
	return s, nil
}

func closePort(p drivers.Port) {
	if p.IsOpen() {
		_ = p.Close()
	}
}

// Events returns the decoded control events.
func (s *Surface) Events() <-chan engine.ControlEvent {
	return s.events
}

// Send writes feedback events to the surface.
func (s *Surface) Send(events []engine.FeedbackEvent) error {
	for _, ev := range events {
		if err := s.send(Encode(ev)); err != nil {
			return eris.Wrapf(err, "send %d/%d", ev.Status, ev.Kind)
		}
	}
	return nil
}

// Close stops listening and closes both ports.
func (s *Surface) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	if s.stop != nil {
		s.stop()
	}
	var errs []error
	if err := s.in.Close(); err != nil {
		errs = append(errs, eris.Wrap(err, "close input"))
	}
	if err := s.out.Close(); err != nil {
		errs = append(errs, eris.Wrap(err, "close output"))
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// Ports lists the names of the available input and output ports.
func Ports() (in, out []string) {
	for _, p := range gomidi.GetInPorts() {
		in = append(in, p.String())
	}
	for _, p := range gomidi.GetOutPorts() {
		out = append(out, p.String())
	}
	return in, out
}

// Guess returns the first port name that looks like a Pioneer DDJ
// controller, or the first port when none does.
func Guess(ports []string) string {
	for _, p := range ports {
		if strings.Contains(strings.ToLower(p), "ddj") {
			return p
		}
	}
	if len(ports) > 0 {
		return ports[0]
	}
	return ""
}

// Decode turns a raw three byte channel message into a control event.
// System messages and short messages are rejected.
func Decode(msg []byte) (engine.ControlEvent, bool) {
	if len(msg) != 3 {
		return engine.ControlEvent{}, false
	}
	if msg[0] < 0x80 || msg[0] >= 0xF0 {
		return engine.ControlEvent{}, false
	}
	return engine.ControlEvent{Status: msg[0], Kind: msg[1], Value: msg[2]}, true
}

// Encode turns a feedback event into a raw MIDI message.
func Encode(ev engine.FeedbackEvent) gomidi.Message {
	return gomidi.Message([]byte{ev.Status, ev.Kind & 0x7F, ev.Value & 0x7F})
}
