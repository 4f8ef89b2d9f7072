package capture

import (
	"context"
	"log/slog"
	"time"

	"github.com/gordonklaus/portaudio"
	"github.com/rotisserie/eris"
)

// Source produces interleaved sample frames until its context is cancelled
// or the input runs out.
type Source interface {
	Run(ctx context.Context, out chan []float32) error
	SampleRate() float64
	Channels() int
}

// Config describes the capture format.
type Config struct {
	SampleRate float64
	FrameSize  int
	Channels   int
	Latency    time.Duration
}

// Device captures from a PortAudio input device. PortAudio must be
// initialized by the caller.
type Device struct {
	info   *portaudio.DeviceInfo
	cfg    Config
	logger *slog.Logger
}

// NewDevice returns a Device capturing from info.
func NewDevice(info *portaudio.DeviceInfo, cfg Config, logger *slog.Logger) *Device {
	return &Device{info: info, cfg: cfg, logger: logger}
}

func (d *Device) SampleRate() float64 { return d.cfg.SampleRate }
func (d *Device) Channels() int       { return d.cfg.Channels }

// Run streams frames into out. When the consumer falls behind the oldest
// queued frame is dropped.
func (d *Device) Run(ctx context.Context, out chan []float32) error {
	if d.info == nil {
		return eris.New("audio device is not specified")
	}

	d.logger.Info("using audio input device",
		slog.String("name", d.info.Name),
		slog.Float64("sample_rate", d.cfg.SampleRate),
		slog.Int("channels", d.cfg.Channels),
		slog.Int("frame_size", d.cfg.FrameSize))

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   d.info,
			Channels: d.cfg.Channels,
			Latency:  d.info.DefaultLowInputLatency,
		},
		SampleRate:      d.cfg.SampleRate,
		FramesPerBuffer: d.cfg.FrameSize,
	}
	if d.cfg.Latency > 0 {
		params.Input.Latency = d.cfg.Latency
	}

	stream, err := portaudio.OpenStream(params, func(in []float32) {
		frame := make([]float32, len(in))
		copy(frame, in)
		offer(out, frame)
	})
	if err != nil {
		return eris.Wrap(err, "open audio stream")
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return eris.Wrap(err, "start audio stream")
	}
	defer stream.Stop()

	<-ctx.Done()
	return ctx.Err()
}

// offer queues frame without blocking, evicting the oldest frame if needed.
func offer(out chan []float32, frame []float32) {
	select {
	case out <- frame:
	default:
		select {
		case <-out:
		default:
		}
		select {
		case out <- frame:
		default:
		}
	}
}
