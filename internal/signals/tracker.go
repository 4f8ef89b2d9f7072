package signals

import (
	"time"

	"github.com/cybre/blaulicht/internal/dsp"
	"github.com/cybre/blaulicht/internal/utils"
)

// Signals is the per-frame summary the lighting engine reacts to. Every value
// is on a 0..255 scale except Volume, which reaches VolumeScale at full level.
type Signals struct {
	Time       time.Time
	Volume     uint8
	BeatVolume uint8
	Bass       uint8
	BassAvg    uint8
	BPM        uint8
	// Peak is set on frames where a bass peak was detected.
	Peak bool
}

// Options tunes the behaviour of the Tracker.
type Options struct {
	// BassWindow is the number of frames in the rolling bass average.
	BassWindow int
	// BeatWindow is the number of frames the beat volume is normalised over.
	BeatWindow int
	// MaxPeaks bounds the bass peak history used for tempo estimation.
	MaxPeaks int
	// PeakFloor is the bass average below which no peaks or tempo are reported.
	PeakFloor float64
	// PeakRatio scales twice the bass average into the peak threshold.
	PeakRatio       float64
	MinPeakInterval time.Duration
	MinBPM          float64
	MaxBPM          float64
	// EnvelopeDecay is the per-frame decay of the auto gain peak envelopes.
	EnvelopeDecay float64
	VolumeAlpha   float64
	VolumeScale   float64
}

// Tracker turns DSP features into lighting signals: a bass level with its
// rolling average, a tempo estimate from bass peak spacing, beat volume and
// overall volume. It is not safe for concurrent use.
type Tracker struct {
	opts Options

	bassPeak   float64
	volumePeak float64
	volume     *dsp.Smoother

	bassHistory []float64
	bassSum     float64
	bassIndex   int
	bassCount   int

	beatHistory []int
	beatIndex   int
	beatCount   int

	peaks []time.Time
}

// NewTracker returns a Tracker with defaults tuned for ~40 frames per second.
func NewTracker(opts Options) *Tracker {
	if opts.BassWindow <= 0 {
		opts.BassWindow = 400
	}
	if opts.BeatWindow <= 0 {
		opts.BeatWindow = 100
	}
	if opts.MaxPeaks <= 0 {
		opts.MaxPeaks = 64
	}
	if opts.PeakFloor <= 0 {
		opts.PeakFloor = 30
	}
	if opts.PeakRatio <= 0 {
		opts.PeakRatio = 0.65
	}
	if opts.MinPeakInterval <= 0 {
		opts.MinPeakInterval = 300 * time.Millisecond
	}
	if opts.MinBPM <= 0 {
		opts.MinBPM = 90
	}
	if opts.MaxBPM <= 0 {
		opts.MaxBPM = 200
	}
	if opts.EnvelopeDecay <= 0 || opts.EnvelopeDecay >= 1 {
		opts.EnvelopeDecay = 0.999
	}
	if opts.VolumeAlpha <= 0 {
		opts.VolumeAlpha = 0.3
	}
	if opts.VolumeScale <= 0 {
		opts.VolumeScale = 150
	}

	return &Tracker{
		opts:        opts,
		volume:      dsp.NewSmoother(opts.VolumeAlpha),
		bassHistory: make([]float64, opts.BassWindow),
		beatHistory: make([]int, opts.BeatWindow),
	}
}

// Process ingests the latest features and returns the resulting signals.
func (t *Tracker) Process(features dsp.Features) Signals {
	ts := features.Timestamp

	t.bassPeak = envelope(t.bassPeak, features.BassLevel, t.opts.EnvelopeDecay)
	bass := 0.0
	if t.bassPeak > 1e-9 {
		bass = utils.Clamp(features.BassLevel/t.bassPeak, 0.0, 1.0) * 255
	}

	t.bassSum -= t.bassHistory[t.bassIndex]
	t.bassHistory[t.bassIndex] = bass
	t.bassSum += bass
	t.bassIndex = (t.bassIndex + 1) % len(t.bassHistory)
	if t.bassCount < len(t.bassHistory) {
		t.bassCount++
	}
	bassAvg := t.bassSum / float64(t.bassCount)

	peak := false
	if bassAvg >= t.opts.PeakFloor && bass >= bassAvg*2*t.opts.PeakRatio && t.sinceLastPeak(ts) > t.opts.MinPeakInterval {
		t.peaks = append(t.peaks, ts)
		if len(t.peaks) > t.opts.MaxPeaks {
			t.peaks = t.peaks[1:]
		}
		peak = true
	}

	var bpm float64
	if bassAvg > t.opts.PeakFloor {
		bpm = t.tempo()
	}

	t.volumePeak = envelope(t.volumePeak, features.RMS, t.opts.EnvelopeDecay)
	level := 0.0
	if t.volumePeak > 1e-9 {
		level = utils.Clamp(features.RMS/t.volumePeak, 0.0, 1.0)
	}
	volume := t.volume.Step(level) * t.opts.VolumeScale

	return Signals{
		Time:       ts,
		Volume:     uint8(utils.Clamp(volume, 0, 255)),
		BeatVolume: t.beatVolume(int(bass)),
		Bass:       uint8(bass),
		BassAvg:    uint8(bassAvg),
		BPM:        uint8(utils.Clamp(bpm, 0, 255)),
		Peak:       peak,
	}
}

func (t *Tracker) sinceLastPeak(ts time.Time) time.Duration {
	if len(t.peaks) == 0 {
		return time.Hour
	}
	return ts.Sub(t.peaks[len(t.peaks)-1])
}

// tempo averages the spacing of consecutive bass peaks that fall inside the
// plausible tempo range.
func (t *Tracker) tempo() float64 {
	shortest := time.Duration(float64(time.Minute) / t.opts.MaxBPM)
	longest := time.Duration(float64(time.Minute) / t.opts.MinBPM)

	var sum time.Duration
	var n int
	for i := 1; i < len(t.peaks); i++ {
		d := t.peaks[i].Sub(t.peaks[i-1])
		if d > shortest && d < longest {
			sum += d
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return time.Minute.Seconds() / (sum.Seconds() / float64(n))
}

// beatVolume rescales the bass level between the quietest and loudest value
// of the recent window.
func (t *Tracker) beatVolume(bass int) uint8 {
	t.beatHistory[t.beatIndex] = bass
	t.beatIndex = (t.beatIndex + 1) % len(t.beatHistory)
	if t.beatCount < len(t.beatHistory) {
		t.beatCount++
	}

	lo, hi := bass, bass
	for _, v := range t.beatHistory[:t.beatCount] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	if hi == lo {
		return 0
	}
	return uint8(utils.MapRange(bass, lo, hi, 0, 255))
}

func envelope(peak, value, decay float64) float64 {
	return max(value, peak*decay)
}
