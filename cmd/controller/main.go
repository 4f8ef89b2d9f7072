package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gordonklaus/portaudio"
	"github.com/rotisserie/eris"
	gomidi "gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
	"golang.org/x/sync/errgroup"

	"github.com/cybre/blaulicht/internal/capture"
	"github.com/cybre/blaulicht/internal/config"
	"github.com/cybre/blaulicht/internal/controller"
	"github.com/cybre/blaulicht/internal/dmxout"
	"github.com/cybre/blaulicht/internal/dsp"
	"github.com/cybre/blaulicht/internal/engine"
	"github.com/cybre/blaulicht/internal/signals"
	"github.com/cybre/blaulicht/internal/surface"
	"github.com/cybre/blaulicht/internal/ui"
)

type loopConfig struct {
	Rig       *config.Config
	Source    capture.Source
	FrameSize int
	Surface   string
	Visualize bool
}

func main() {
	cfg := parseCLIFlags()

	if cfg.initConfig {
		if err := config.Default().Save(cfg.configPath); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		fmt.Printf("wrote house rig to %s\n", cfg.configPath)
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := runController(ctx, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func runController(ctx context.Context, cfg runtimeOptions) error {
	logger := setupLogger(cfg.debug, cfg.visualize)

	rig, err := config.Load(cfg.configPath)
	if err != nil {
		return err
	}
	applyOverrides(rig, cfg)
	if err := rig.Validate(); err != nil {
		return err
	}

	defer gomidi.CloseDriver()
	surfaces, _ := surface.Ports()

	var (
		devices       []*portaudio.DeviceInfo
		defaultDevice = -1
	)
	if cfg.audioFile == "" {
		if err := portaudio.Initialize(); err != nil {
			return eris.Wrap(err, "initialize PortAudio")
		}
		defer portaudio.Terminate()

		devices, err = portaudio.Devices()
		if err != nil {
			return eris.Wrap(err, "enumerate audio devices")
		}

		def, err := portaudio.DefaultInputDevice()
		if err != nil {
			return eris.Wrap(err, "resolve default audio input device")
		}
		defaultDevice = def.Index
	}

	sel, err := selectDeviceAndSurface(devices, defaultDevice, surfaces, rig, cfg)
	if err != nil {
		return eris.Wrap(err, "select device/surface")
	}

	loopCfg := loopConfig{
		Rig:       rig,
		FrameSize: effectiveFrameSize(cfg.frameSize),
		Surface:   sel.Surface,
		Visualize: cfg.visualize,
	}

	if cfg.audioFile != "" {
		file, err := capture.OpenFile(cfg.audioFile, loopCfg.FrameSize, logger)
		if err != nil {
			return err
		}
		defer file.Close()
		loopCfg.Source = file
	} else {
		if sel.Device.MaxInputChannels < 1 {
			return eris.Errorf("device %s has no input channels; select a loopback/monitor device", sel.Device.Name)
		}
		captureCfg := buildCaptureConfig(sel.Device, cfg)
		if cfg.channels > 0 && cfg.channels > int(sel.Device.MaxInputChannels) {
			logger.Warn("requested channels exceed device capabilities",
				slog.Int("requested", cfg.channels),
				slog.Int("max", int(sel.Device.MaxInputChannels)),
				slog.Int("using", captureCfg.Channels),
			)
		}
		loopCfg.FrameSize = captureCfg.FrameSize
		loopCfg.Source = capture.NewDevice(sel.Device, captureCfg, logger)
	}

	if err := run(ctx, logger, loopCfg); err != nil && !eris.Is(err, context.Canceled) {
		logger.Error("lighting loop failed", slog.Any("error", err))
		return err
	}

	return nil
}

func setupLogger(debug, visualize bool) *slog.Logger {
	logOutput := os.Stdout
	logLevel := slog.LevelInfo
	if debug {
		logLevel = slog.LevelDebug
	}
	if visualize && !debug {
		logLevel = slog.LevelWarn
	}
	if visualize {
		logOutput = os.Stderr
	}

	logger := slog.New(slog.NewTextHandler(logOutput, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	return logger
}

// run opens the rig outputs and drives the show until ctx is done.
func run(ctx context.Context, logger *slog.Logger, cfg loopConfig) error {
	sink, err := openSink(logger, cfg.Rig.DMX)
	if err != nil {
		return err
	}
	defer func() {
		if err := sink.Write(make([]byte, cfg.Rig.Fixtures.FrameLength)); err != nil {
			logger.Warn("failed to black out the rig", slog.Any("error", err))
		}
		if err := sink.Close(); err != nil {
			logger.Warn("failed to close dmx output", slog.Any("error", err))
		}
	}()

	var surf controller.Surface
	if cfg.Surface != "" {
		s, err := surface.Open(cfg.Surface, cfg.Rig.MIDI.Out, logger)
		switch {
		case err == nil:
			defer s.Close()
			surf = s
		case eris.Is(err, surface.ErrPortNotFound):
			logger.Warn("running without a control surface", slog.String("port", cfg.Surface), slog.Any("error", err))
		default:
			return err
		}
	} else {
		logger.Warn("no control surface connected")
	}

	return runLightingLoop(ctx, logger, sink, surf, cfg)
}

func openSink(logger *slog.Logger, cfg config.DMX) (dmxout.Sink, error) {
	if cfg.Port == "" {
		logger.Warn("no dmx port configured, frames are discarded")
		return dmxout.Discard{}, nil
	}

	sink, err := dmxout.OpenEnttecPro(cfg.Port, cfg.Baud)
	if err != nil {
		return nil, err
	}
	logger.Info("dmx widget connected", slog.String("port", cfg.Port))
	return sink, nil
}

func runLightingLoop(ctx context.Context, logger *slog.Logger, sink dmxout.Sink, surf controller.Surface, cfg loopConfig) error {
	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	frameCh := make(chan []float32, 32)
	featuresCh := make(chan dsp.Features, 32)
	analyzer := dsp.NewAnalyzer(cfg.Source.SampleRate(), cfg.FrameSize, dsp.DefaultBands())
	tracker := signals.NewTracker(signals.Options{})
	channels := cfg.Source.Channels()

	eng := engine.New(cfg.Rig.Fixtures, engine.Options{SlowStrobe: cfg.Rig.SlowStrobe.Enabled}, logger)

	var viz controller.Visualizer
	if cfg.Visualize {
		v := ui.NewVisualizer(cancel)
		defer v.Close()
		viz = v
	}

	runner := controller.NewRunner(eng, sink, surf, viz, logger, controller.Options{
		Tick:        cfg.Rig.Tick(),
		FrameLength: cfg.Rig.Fixtures.FrameLength,
	})

	g, gctx := errgroup.WithContext(loopCtx)

	g.Go(func() error {
		defer close(frameCh)
		return cfg.Source.Run(gctx, frameCh)
	})

	g.Go(func() error {
		defer close(featuresCh)
		var mono []float64
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case frame, ok := <-frameCh:
				if !ok {
					return nil
				}
				mono = dsp.ToMono(frame, channels, mono)
				features := analyzer.Process(mono, time.Now())
				select {
				case featuresCh <- features:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
		}
	})

	g.Go(func() error {
		return runner.Run(gctx, featuresCh, tracker)
	})

	if err := g.Wait(); err != nil {
		if eris.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	return nil
}
