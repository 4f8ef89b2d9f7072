package dsp

import (
	"math"
	"math/cmplx"
	"time"

	"github.com/mjibson/go-dsp/fft"

	"github.com/cybre/blaulicht/internal/utils"
)

// FrequencyBand represents an inclusive frequency span in Hz used for energy bucketing.
type FrequencyBand struct {
	Low  float64
	High float64
}

// Band indexes into Features.BandEnergyNormalized.
const (
	BandBass = iota
	BandMid
	BandHigh
)

// DefaultBands splits the spectrum into kick/bass, body and top end.
func DefaultBands() [3]FrequencyBand {
	return [3]FrequencyBand{
		{Low: 20, High: 150},
		{Low: 150, High: 2000},
		{Low: 2000, High: 8000},
	}
}

// Features is the set of per-frame DSP metrics the signal tracker consumes.
type Features struct {
	Timestamp            time.Time
	RMS                  float64
	BandEnergyNormalized [3]float64
	// BassLevel is the RMS amplitude of the bass band.
	BassLevel            float64
	SpectralCentroidNorm float64
	PeakFrequency        float64
}

// Analyzer transforms mono frames into spectral features. It reuses scratch buffers to
// keep allocations predictable for real-time processing.
type Analyzer struct {
	sampleRate    float64
	frameSize     int
	bands         [3]FrequencyBand
	window        []float64
	windowedFrame []float64
	magnitudes    []float64
	bandWidth     float64
}

// NewAnalyzer constructs an Analyzer configured for a given sample rate/frame size.
// A zero bands value selects DefaultBands.
func NewAnalyzer(sampleRate float64, frameSize int, bands [3]FrequencyBand) *Analyzer {
	if frameSize <= 0 {
		panic("dsp: frameSize must be > 0")
	}
	if sampleRate <= 0 {
		panic("dsp: sampleRate must be > 0")
	}
	if bands == ([3]FrequencyBand{}) {
		bands = DefaultBands()
	}

	return &Analyzer{
		sampleRate:    sampleRate,
		frameSize:     frameSize,
		bands:         bands,
		window:        HannWindow(frameSize),
		windowedFrame: make([]float64, frameSize),
		magnitudes:    make([]float64, frameSize/2+1),
		bandWidth:     sampleRate / float64(frameSize),
	}
}

// FrameSize returns the number of samples Process expects.
func (a *Analyzer) FrameSize() int {
	return a.frameSize
}

// Process computes spectral features for the supplied mono frame. The frame length must
// match the configured frameSize.
func (a *Analyzer) Process(frame []float64, ts time.Time) Features {
	if len(frame) != a.frameSize {
		panic("dsp: frame length mismatch")
	}

	copy(a.windowedFrame, frame)
	ApplyWindowInPlace(a.windowedFrame, a.window)

	spectrum := fft.FFTReal(a.windowedFrame)
	half := len(spectrum)/2 + 1
	if len(a.magnitudes) != half {
		a.magnitudes = make([]float64, half)
	}

	var totalEnergy, centroidNumerator, magnitudeSum, peakMagnitude, peakFreq float64
	for i := 0; i < half; i++ {
		mag := cmplx.Abs(spectrum[i])
		a.magnitudes[i] = mag
		totalEnergy += mag * mag

		freq := float64(i) * a.bandWidth
		centroidNumerator += freq * mag
		magnitudeSum += mag

		if mag > peakMagnitude {
			peakMagnitude = mag
			peakFreq = freq
		}
	}

	centroidNorm := 0.0
	if magnitudeSum > 1e-9 {
		centroidNorm = utils.Clamp(centroidNumerator/magnitudeSum/(a.sampleRate/2), 0.0, 1.0)
	}

	bandEnergy, bandNorm := a.computeBandEnergy(totalEnergy)

	return Features{
		Timestamp:            ts,
		RMS:                  RootMeanSquare(frame),
		BandEnergyNormalized: bandNorm,
		BassLevel:            math.Sqrt(bandEnergy[BandBass]) / float64(a.frameSize),
		SpectralCentroidNorm: centroidNorm,
		PeakFrequency:        peakFreq,
	}
}

func (a *Analyzer) computeBandEnergy(totalEnergy float64) ([3]float64, [3]float64) {
	var energies [3]float64
	for i, band := range a.bands {
		lower := max(band.Low, 0)
		upper := math.Max(band.High, lower)
		start := max(int(math.Floor(lower/a.bandWidth)), 0)
		end := min(int(math.Ceil(upper/a.bandWidth)), len(a.magnitudes)-1)
		var bandTotal float64
		for bin := start; bin <= end; bin++ {
			mag := a.magnitudes[bin]
			bandTotal += mag * mag
		}
		energies[i] = bandTotal
	}

	var normalized [3]float64
	if totalEnergy > 1e-9 {
		for i := range energies {
			normalized[i] = utils.Clamp(energies[i]/totalEnergy, 0.0, 1.0)
		}
	}
	return energies, normalized
}

// RootMeanSquare computes the RMS value of a frame.
func RootMeanSquare(frame []float64) float64 {
	if len(frame) == 0 {
		return 0
	}
	var sumSquares float64
	for _, sample := range frame {
		sumSquares += sample * sample
	}
	return math.Sqrt(sumSquares / float64(len(frame)))
}

// ToMono averages interleaved multi-channel data into a mono frame.
func ToMono(samples []float32, channels int, dst []float64) []float64 {
	if channels <= 0 {
		channels = 1
	}
	frameLen := len(samples) / channels
	if cap(dst) < frameLen {
		dst = make([]float64, frameLen)
	} else {
		dst = dst[:frameLen]
	}
	idx := 0
	for i := 0; i < frameLen; i++ {
		sum := 0.0
		for j := 0; j < channels; j++ {
			sum += float64(samples[idx])
			idx++
		}
		dst[i] = sum / float64(channels)
	}
	return dst
}

// HannWindow returns a precomputed Hann window for the requested size.
func HannWindow(n int) []float64 {
	if n <= 0 {
		return nil
	}
	window := make([]float64, n)
	if n == 1 {
		window[0] = 1
		return window
	}
	for i := 0; i < n; i++ {
		window[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return window
}

// ApplyWindowInPlace multiplies samples by a window function in-place.
func ApplyWindowInPlace(samples []float64, window []float64) {
	switch {
	case len(samples) == 0:
		return
	case len(samples) != len(window):
		panic("dsp: window length mismatch")
	}
	for i := range samples {
		samples[i] *= window[i]
	}
}

// Smoother implements a simple exponential moving average.
type Smoother struct {
	alpha       float64
	initialized bool
	value       float64
}

// NewSmoother constructs a Smoother using the supplied alpha (0..1).
// Smaller values produce heavier smoothing.
func NewSmoother(alpha float64) *Smoother {
	return &Smoother{alpha: utils.Clamp(alpha, 0.0, 1.0)}
}

// Step updates the internal state and returns the smoothed value.
func (s *Smoother) Step(v float64) float64 {
	if !s.initialized {
		s.value = v
		s.initialized = true
		return v
	}
	s.value += s.alpha * (v - s.value)
	return s.value
}

// Value returns the current smoothed value without updating it.
func (s *Smoother) Value() float64 {
	return s.value
}
