package pitch

import (
	"fmt"
	"math"

	"github.com/mjibson/go-dsp/fft"
)

// DetectOptions configures the F0 trackers.
type DetectOptions struct {
	Algorithm     Algorithm
	HopMs         float64
	FrameSize     int
	FminHz        float64
	FmaxHz        float64
	MinConfidence float64
}

// DefaultDetectOptions covers the vocal range with a 10 ms hop.
func DefaultDetectOptions() DetectOptions {
	return DetectOptions{
		Algorithm:     AlgorithmACF,
		HopMs:         10,
		FrameSize:     2048,
		FminHz:        50,
		FmaxHz:        2000,
		MinConfidence: 0.5,
	}
}

// Detect extracts a pitch contour from mono samples using the configured
// tracker. Frames are spaced exactly HopMs apart; frames whose confidence
// falls below MinConfidence keep their confidence but report frequency 0.
func Detect(samples []float64, sampleRate int, opts DetectOptions) (*Contour, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	if opts.FrameSize <= 0 {
		opts.FrameSize = 2048
	}
	if opts.HopMs <= 0 {
		opts.HopMs = 10
	}

	var frameFn func(frame []float64, sampleRate int, opts DetectOptions) (float64, float64)
	switch opts.Algorithm {
	case AlgorithmACF, "":
		opts.Algorithm = AlgorithmACF
		frameFn = acfPitch
	case AlgorithmAMDF:
		frameFn = amdfPitch
	default:
		return nil, fmt.Errorf("unknown pitch algorithm %q", opts.Algorithm)
	}

	hopSamples := int(float64(sampleRate) * opts.HopMs / 1000)
	if hopSamples < 1 {
		hopSamples = 1
	}

	var frames []Frame
	idx := 0
	for start := 0; start+opts.FrameSize <= len(samples); start += hopSamples {
		freq, conf := frameFn(samples[start:start+opts.FrameSize], sampleRate, opts)
		if conf < opts.MinConfidence {
			freq = 0
		}
		frames = append(frames, Frame{
			TimestampMs: float64(idx) * opts.HopMs,
			FrequencyHz: freq,
			Confidence:  conf,
		})
		idx++
	}

	return &Contour{
		Frames:     frames,
		Algorithm:  opts.Algorithm,
		SampleRate: sampleRate,
		HopMs:      opts.HopMs,
	}, nil
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// acfPitch estimates F0 from the normalized autocorrelation peak. The
// autocorrelation is computed in the frequency domain via go-dsp's FFT.
func acfPitch(frame []float64, sampleRate int, opts DetectOptions) (float64, float64) {
	n := len(frame)

	mean := 0.0
	for _, s := range frame {
		mean += s
	}
	mean /= float64(n)

	nfft := nextPow2(2 * n)
	padded := make([]float64, nfft)
	for i, s := range frame {
		padded[i] = s - mean
	}

	spectrum := fft.FFTReal(padded)
	power := make([]complex128, nfft)
	for i, c := range spectrum {
		re := real(c)
		im := imag(c)
		power[i] = complex(re*re+im*im, 0)
	}
	acfC := fft.IFFT(power)

	acf := make([]float64, n)
	for i := 0; i < n; i++ {
		acf[i] = real(acfC[i])
	}

	energy := acf[0]
	if energy < 1e-9 {
		return 0, 0
	}

	minLag := int(float64(sampleRate) / opts.FmaxHz)
	maxLag := int(float64(sampleRate) / opts.FminHz)
	if minLag < 2 {
		minLag = 2
	}
	if maxLag >= n {
		maxLag = n - 1
	}
	if minLag >= maxLag {
		return 0, 0
	}

	bestLag := minLag
	bestVal := acf[minLag]
	for lag := minLag + 1; lag <= maxLag; lag++ {
		if acf[lag] > bestVal {
			bestVal = acf[lag]
			bestLag = lag
		}
	}

	confidence := bestVal / energy
	if confidence < 0 {
		confidence = 0
	} else if confidence > 1 {
		confidence = 1
	}

	lag := refineLag(acf, bestLag)
	return float64(sampleRate) / lag, confidence
}

// amdfPitch estimates F0 from the cumulative-mean-normalized difference
// function (the YIN normalization applied to an average magnitude
// difference), picking the first lag under threshold or the global minimum.
func amdfPitch(frame []float64, sampleRate int, opts DetectOptions) (float64, float64) {
	n := len(frame)
	w := n / 2

	minLag := int(float64(sampleRate) / opts.FmaxHz)
	maxLag := int(float64(sampleRate) / opts.FminHz)
	if minLag < 2 {
		minLag = 2
	}
	if maxLag >= w {
		maxLag = w - 1
	}
	if minLag >= maxLag {
		return 0, 0
	}

	diff := make([]float64, maxLag+1)
	for tau := 1; tau <= maxLag; tau++ {
		sum := 0.0
		for i := 0; i < w; i++ {
			sum += math.Abs(frame[i] - frame[i+tau])
		}
		diff[tau] = sum
	}

	// Cumulative mean normalization keeps the function near 1 for aperiodic
	// lags and dips toward 0 at the true period.
	norm := make([]float64, maxLag+1)
	norm[0] = 1
	running := 0.0
	for tau := 1; tau <= maxLag; tau++ {
		running += diff[tau]
		if running == 0 {
			norm[tau] = 1
		} else {
			norm[tau] = diff[tau] * float64(tau) / running
		}
	}

	const threshold = 0.15
	bestLag := -1
	for tau := minLag; tau <= maxLag; tau++ {
		if norm[tau] < threshold {
			// Descend to the local minimum of the dip.
			for tau+1 <= maxLag && norm[tau+1] < norm[tau] {
				tau++
			}
			bestLag = tau
			break
		}
	}
	if bestLag < 0 {
		bestLag = minLag
		for tau := minLag + 1; tau <= maxLag; tau++ {
			if norm[tau] < norm[bestLag] {
				bestLag = tau
			}
		}
	}

	confidence := 1 - norm[bestLag]
	if confidence < 0 {
		confidence = 0
	} else if confidence > 1 {
		confidence = 1
	}

	lag := refineLag(negate(norm), bestLag)
	return float64(sampleRate) / lag, confidence
}

func negate(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = -v
	}
	return out
}

// refineLag applies parabolic interpolation around a peak for sub-sample
// period accuracy.
func refineLag(curve []float64, lag int) float64 {
	if lag <= 0 || lag >= len(curve)-1 {
		return float64(lag)
	}
	y0 := curve[lag-1]
	y1 := curve[lag]
	y2 := curve[lag+1]
	denom := y0 - 2*y1 + y2
	if denom == 0 {
		return float64(lag)
	}
	delta := 0.5 * (y0 - y2) / denom
	if delta > 0.5 || delta < -0.5 {
		return float64(lag)
	}
	return float64(lag) + delta
}
