// Package pitch holds the melodic contour model, the native F0 trackers, the
// contour segmenter, and the rule-based gamaka classifier.
package pitch

// Algorithm identifies which F0 tracker produced a contour.
type Algorithm string

const (
	// AlgorithmACF is the FFT-autocorrelation tracker.
	AlgorithmACF Algorithm = "acf"
	// AlgorithmAMDF is the average-magnitude-difference tracker.
	AlgorithmAMDF Algorithm = "amdf"
)

// Frame is a single sample of pitch-tracker output. A non-positive frequency
// marks the frame unvoiced.
type Frame struct {
	TimestampMs float64
	FrequencyHz float64
	Confidence  float64
}

// Contour is the complete pitch track of one recording. Frames are strictly
// time-ordered with a constant hop. The contour is never mutated by the
// pipeline; stages derive filtered copies instead.
type Contour struct {
	Frames     []Frame
	Algorithm  Algorithm
	SampleRate int
	HopMs      float64
}

// DurationMs returns the timestamp of the final frame.
func (c *Contour) DurationMs() float64 {
	if len(c.Frames) == 0 {
		return 0
	}
	return c.Frames[len(c.Frames)-1].TimestampMs
}

// FilterByConfidence returns a new contour holding only frames at or above
// the threshold. The receiver is left untouched.
func (c *Contour) FilterByConfidence(minConfidence float64) *Contour {
	filtered := make([]Frame, 0, len(c.Frames))
	for _, f := range c.Frames {
		if f.Confidence >= minConfidence {
			filtered = append(filtered, f)
		}
	}
	return &Contour{
		Frames:     filtered,
		Algorithm:  c.Algorithm,
		SampleRate: c.SampleRate,
		HopMs:      c.HopMs,
	}
}
