package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gordonklaus/portaudio"
	"github.com/rotisserie/eris"

	"github.com/cybre/blaulicht/internal/capture"
	"github.com/cybre/blaulicht/internal/config"
	"github.com/cybre/blaulicht/internal/surface"
	"github.com/cybre/blaulicht/internal/ui"
)

// selection is the outcome of the setup step. Device is nil when a file is
// replayed; Surface is empty when no control surface is attached.
type selection struct {
	Device  *portaudio.DeviceInfo
	Surface string
}

func selectDeviceAndSurface(
	devices []*portaudio.DeviceInfo,
	defaultDeviceIndex int,
	surfaces []string,
	rig *config.Config,
	opts runtimeOptions,
) (selection, error) {
	var (
		sel         selection
		deviceIndex = -1
	)

	needDevice := opts.audioFile == ""
	if needDevice && len(devices) == 0 {
		return sel, eris.New("no input devices available")
	}
	if needDevice && opts.deviceIndex >= 0 {
		if opts.deviceIndex >= len(devices) {
			return sel, eris.Errorf("invalid device index %d", opts.deviceIndex)
		}
		sel.Device = devices[opts.deviceIndex]
		deviceIndex = opts.deviceIndex
		needDevice = false
	}

	surfaceIndex := matchPort(surfaces, rig.MIDI.In)
	needSurface := opts.midiIn == "" && surfaceIndex < 0 && len(surfaces) > 0
	if !needSurface {
		sel.Surface = rig.MIDI.In
	}
	if surfaceIndex < 0 {
		surfaceIndex = matchPort(surfaces, surface.Guess(surfaces))
	}

	if !needDevice && !needSurface {
		return sel, nil
	}

	initialDevice := effectiveInitialDeviceIndex(deviceIndex, defaultDeviceIndex, len(devices))
	initialSurface := max(surfaceIndex, 0)

	result, err := ui.RunSetup(
		buildDeviceOptions(devices),
		buildSurfaceOptions(surfaces),
		ui.SetupConfig{
			RequireDevice:  needDevice,
			RequireSurface: needSurface,
			InitialDevice:  initialDevice,
			InitialSurface: initialSurface,
		},
	)
	if err != nil {
		if eris.Is(err, ui.ErrNoInteractiveTTY) {
			if needDevice {
				sel.Device = devices[initialDevice]
			}
			if needSurface {
				sel.Surface = surfaces[initialSurface]
			}
			return sel, nil
		}
		return sel, err
	}

	if needDevice {
		sel.Device = devices[result.DeviceIndex]
	}
	if needSurface {
		sel.Surface = surfaces[result.SurfaceIndex]
	}

	return sel, nil
}

// matchPort returns the index of the first port containing name, ignoring
// case, or -1.
func matchPort(ports []string, name string) int {
	if name == "" {
		return -1
	}
	name = strings.ToLower(name)
	return slices.IndexFunc(ports, func(p string) bool {
		return strings.Contains(strings.ToLower(p), name)
	})
}

func buildSurfaceOptions(ports []string) []ui.Option {
	options := make([]ui.Option, len(ports))
	for i, p := range ports {
		options[i] = ui.Option{Label: fmt.Sprintf("[%d] %s", i, p)}
	}
	return options
}

func buildDeviceOptions(devices []*portaudio.DeviceInfo) []ui.Option {
	options := make([]ui.Option, len(devices))
	for i, dev := range devices {
		options[i] = ui.Option{
			Label: fmt.Sprintf(
				"[%d] %s · %.0fHz · in:%d · latency:%.1fms",
				i,
				dev.Name,
				dev.DefaultSampleRate,
				dev.MaxInputChannels,
				dev.DefaultLowInputLatency.Seconds()*1000,
			),
		}
	}
	return options
}

func effectiveInitialDeviceIndex(requested, fallback, length int) int {
	if length == 0 {
		return 0
	}
	if requested >= 0 && requested < length {
		return requested
	}
	if fallback >= 0 && fallback < length {
		return fallback
	}
	return 0
}

// applyOverrides folds command line overrides into the rig file.
func applyOverrides(rig *config.Config, opts runtimeOptions) {
	if opts.midiIn != "" {
		rig.MIDI.In = opts.midiIn
	}
	if opts.midiOut != "" {
		rig.MIDI.Out = opts.midiOut
	}
	if opts.dmxPort != "" {
		rig.DMX.Port = opts.dmxPort
	}
	if opts.tickMS > 0 {
		rig.TickMS = opts.tickMS
	}
}

func buildCaptureConfig(device *portaudio.DeviceInfo, opts runtimeOptions) capture.Config {
	return capture.Config{
		SampleRate: effectiveSampleRate(opts.sampleRate, device.DefaultSampleRate),
		FrameSize:  effectiveFrameSize(opts.frameSize),
		Channels:   sanitizeChannelCount(opts.channels, int(device.MaxInputChannels)),
		Latency:    opts.latency,
	}
}

func sanitizeChannelCount(requested, max int) int {
	if requested <= 0 {
		return 1
	}

	if max > 0 && requested > max {
		return max
	}

	return requested
}

func effectiveSampleRate(requested, deviceDefault float64) float64 {
	if requested > 0 {
		return requested
	}

	if deviceDefault > 0 {
		return deviceDefault
	}

	return 44100
}

func effectiveFrameSize(requested int) int {
	if requested > 0 {
		return requested
	}

	return 1024
}
