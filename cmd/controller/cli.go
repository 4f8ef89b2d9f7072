package main

import (
	"flag"
	"time"
)

type runtimeOptions struct {
	configPath  string
	initConfig  bool
	deviceIndex int
	audioFile   string
	sampleRate  float64
	frameSize   int
	channels    int
	latency     time.Duration
	midiIn      string
	midiOut     string
	dmxPort     string
	tickMS      int
	visualize   bool
	debug       bool
}

func parseCLIFlags() runtimeOptions {
	var (
		cfg       runtimeOptions
		latencyMs int
	)

	flag.StringVar(&cfg.configPath, "config", "rig.yaml", "rig file with fixture wiring and port names (missing file = house rig)")
	flag.BoolVar(&cfg.initConfig, "init-config", false, "write the house rig to -config and exit")
	flag.IntVar(&cfg.deviceIndex, "device", -1, "audio input device index (leave blank to choose interactively)")
	flag.StringVar(&cfg.audioFile, "audio-file", "", "replay a wav/mp3 file instead of capturing from a device")
	flag.Float64Var(&cfg.sampleRate, "sample-rate", 0, "capture sample rate (0 = device default)")
	flag.IntVar(&cfg.frameSize, "frame-size", 1024, "analysis frame size in samples")
	flag.IntVar(&cfg.channels, "channels", 2, "number of input channels to capture (<= device max)")
	flag.IntVar(&latencyMs, "latency-ms", 0, "override input latency in milliseconds (0 = device default)")
	flag.StringVar(&cfg.midiIn, "midi-in", "", "control surface input port (substring match, overrides the rig file)")
	flag.StringVar(&cfg.midiOut, "midi-out", "", "control surface output port (defaults to the input name)")
	flag.StringVar(&cfg.dmxPort, "dmx-port", "", "serial device of the DMX widget (overrides the rig file)")
	flag.IntVar(&cfg.tickMS, "tick-ms", 0, "engine tick interval in milliseconds (0 = rig file)")
	flag.BoolVar(&cfg.debug, "debug", false, "enable debug logging")
	flag.BoolVar(&cfg.visualize, "visualize", false, "render the rig state in the terminal (logs go to stderr)")
	flag.Parse()

	cfg.latency = time.Duration(latencyMs) * time.Millisecond

	return cfg
}
