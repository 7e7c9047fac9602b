package pitch

import "math"

// Segment is a windowed slice of a contour, ready for gamaka analysis.
// CentsFromSa holds one entry per frame in the window; unvoiced frames carry
// NaN rather than zero so downstream statistics can skip them explicitly.
type Segment struct {
	StartMs       float64
	EndMs         float64
	Frequencies   []float64
	ReferenceSaHz float64
	CentsFromSa   []float64
}

// DurationMs returns the segment length in milliseconds.
func (s *Segment) DurationMs() float64 { return s.EndMs - s.StartMs }

// NumFrames returns the number of frames in the segment.
func (s *Segment) NumFrames() int { return len(s.Frequencies) }

// SegmentOptions configures contour windowing.
type SegmentOptions struct {
	WindowMs            float64
	HopMs               float64
	MinVoicedRatio      float64
	ConfidenceThreshold float64
	ReferenceSaHz       float64
}

// DefaultSegmentOptions mirrors the windowing used for vocal gamaka analysis.
func DefaultSegmentOptions() SegmentOptions {
	return SegmentOptions{
		WindowMs:            300,
		HopMs:               100,
		MinVoicedRatio:      0.7,
		ConfidenceThreshold: 0.5,
		ReferenceSaHz:       261.63,
	}
}

func freqToCents(freqHz, referenceSaHz float64) float64 {
	if freqHz <= 0 || referenceSaHz <= 0 {
		return math.NaN()
	}
	return 1200 * math.Log2(freqHz/referenceSaHz)
}

// SegmentContour slides a window of WindowMs across the contour in steps of
// HopMs and emits a Segment per window position. Windows where fewer than
// MinVoicedRatio of the frames reach ConfidenceThreshold are skipped;
// skipping never halts the scan. An empty contour yields no segments.
func SegmentContour(contour *Contour, opts SegmentOptions) []Segment {
	if len(contour.Frames) == 0 {
		return nil
	}

	totalDuration := contour.Frames[len(contour.Frames)-1].TimestampMs
	var segments []Segment

	for start := contour.Frames[0].TimestampMs; start+opts.WindowMs <= totalDuration+contour.HopMs; start += opts.HopMs {
		end := start + opts.WindowMs

		var window []Frame
		for _, f := range contour.Frames {
			if f.TimestampMs >= start && f.TimestampMs < end {
				window = append(window, f)
			}
		}
		if len(window) == 0 {
			continue
		}

		voiced := 0
		for _, f := range window {
			if f.Confidence >= opts.ConfidenceThreshold {
				voiced++
			}
		}
		if float64(voiced)/float64(len(window)) < opts.MinVoicedRatio {
			continue
		}

		freqs := make([]float64, len(window))
		cents := make([]float64, len(window))
		for i, f := range window {
			freqs[i] = f.FrequencyHz
			if f.Confidence >= opts.ConfidenceThreshold {
				cents[i] = freqToCents(f.FrequencyHz, opts.ReferenceSaHz)
			} else {
				cents[i] = math.NaN()
			}
		}

		segments = append(segments, Segment{
			StartMs:       start,
			EndMs:         end,
			Frequencies:   freqs,
			ReferenceSaHz: opts.ReferenceSaHz,
			CentsFromSa:   cents,
		})
	}

	return segments
}
