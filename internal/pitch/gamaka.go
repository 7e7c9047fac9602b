package pitch

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// GamakaType labels the ornament detected in a segment.
type GamakaType string

const (
	// Kampita is an oscillation / vibrato around a note.
	Kampita GamakaType = "kampita"
	// Jaru is a smooth glide between two notes.
	Jaru GamakaType = "jaru"
	// Sphuritham is a quick touch of an adjacent note and return.
	Sphuritham GamakaType = "sphuritham"
	// Steady is a sustained note with no ornament.
	Steady GamakaType = "steady"
)

// GamakaResult is the classification outcome for a single segment.
type GamakaResult struct {
	Type       GamakaType
	Confidence float64
	Details    map[string]any
}

// cleanCents returns a copy with NaN entries filled by linear interpolation
// between the surrounding voiced values, so occasional unvoiced frames do not
// disrupt the derivative. Leading/trailing NaN runs take the nearest voiced
// value. An all-NaN input is returned unchanged.
func cleanCents(cents []float64) []float64 {
	clean := make([]float64, len(cents))
	copy(clean, cents)

	firstValid := -1
	for i, v := range clean {
		if !math.IsNaN(v) {
			firstValid = i
			break
		}
	}
	if firstValid < 0 {
		return clean
	}

	lastValid := firstValid
	for i := firstValid; i < len(clean); i++ {
		if !math.IsNaN(clean[i]) {
			lastValid = i
		}
	}

	for i := 0; i < firstValid; i++ {
		clean[i] = clean[firstValid]
	}
	for i := lastValid + 1; i < len(clean); i++ {
		clean[i] = clean[lastValid]
	}

	prev := firstValid
	for i := firstValid + 1; i <= lastValid; i++ {
		if math.IsNaN(clean[i]) {
			continue
		}
		if i > prev+1 {
			for j := prev + 1; j < i; j++ {
				t := float64(j-prev) / float64(i-prev)
				clean[j] = clean[prev] + t*(clean[i]-clean[prev])
			}
		}
		prev = i
	}

	return clean
}

// firstDerivative returns the frame-to-frame difference, same length as the
// input with a leading zero.
func firstDerivative(cents []float64) []float64 {
	deriv := make([]float64, len(cents))
	for i := 1; i < len(cents); i++ {
		deriv[i] = cents[i] - cents[i-1]
	}
	return deriv
}

// zeroCrossings counts sign changes. An exact zero continues the prior sign
// so it never double-counts a crossing.
func zeroCrossings(signal []float64) int {
	if len(signal) < 2 {
		return 0
	}
	sign := func(v float64) int {
		if v < 0 {
			return -1
		}
		return 1
	}
	count := 0
	prev := sign(signal[0])
	for _, v := range signal[1:] {
		s := sign(v)
		if s != prev {
			count++
		}
		prev = s
	}
	return count
}

func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }

// detectSphuritham looks for a brief spike (> 50 cents off the segment
// median, < 100 ms) after which the contour settles back to within 25 cents
// of the median. Oscillatory segments (3+ derivative zero-crossings) are left
// for the Kampita detector. When several spike runs qualify, the one with the
// largest peak deviation wins; the tie-break is deliberate and load-bearing.
func detectSphuritham(cents []float64, hopMs, pitchRange float64, zc int) *GamakaResult {
	if len(cents) < 4 {
		return nil
	}
	if zc >= 3 {
		return nil
	}

	basePitch := median(cents)
	deviation := make([]float64, len(cents))
	for i, c := range cents {
		deviation[i] = c - basePitch
	}

	type run struct{ start, end int }
	var runs []run
	inRun := false
	var runStart int
	for i, d := range deviation {
		if math.Abs(d) > 50 {
			if !inRun {
				runStart = i
				inRun = true
			}
		} else if inRun {
			runs = append(runs, run{runStart, i - 1})
			inRun = false
		}
	}
	if inRun {
		runs = append(runs, run{runStart, len(deviation) - 1})
	}
	if len(runs) == 0 {
		return nil
	}

	bestPeak := -1.0
	bestDuration := 0.0
	bestTailDev := 0.0
	for _, r := range runs {
		runDuration := float64(r.end-r.start+1) * hopMs
		if runDuration >= 100 {
			continue
		}

		peak := 0.0
		for i := r.start; i <= r.end; i++ {
			if a := math.Abs(deviation[i]); a > peak {
				peak = a
			}
		}

		// The region after the spike must return to base; a terminal spike
		// is judged by the region before it instead.
		var tailMeanDev float64
		if r.end+1 < len(cents) {
			tailMeanDev = meanAbs(deviation[r.end+1:])
		} else if r.start > 0 {
			tailMeanDev = meanAbs(deviation[:r.start])
		} else {
			tailMeanDev = 999
		}
		if tailMeanDev > 25 {
			continue
		}

		if peak > bestPeak {
			bestPeak = peak
			bestDuration = runDuration
			bestTailDev = tailMeanDev
		}
	}
	if bestPeak < 0 {
		return nil
	}

	spikeClarity := math.Min(1, bestPeak/100)
	returnQuality := math.Max(0, 1-bestTailDev/25)
	confidence := 0.5*spikeClarity + 0.5*returnQuality

	return &GamakaResult{
		Type:       Sphuritham,
		Confidence: round3(confidence),
		Details: map[string]any{
			"peak_deviation_cents": round2(bestPeak),
			"spike_duration_ms":    round2(bestDuration),
			"base_pitch_cents":     round2(basePitch),
		},
	}
}

func meanAbs(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	abs := make([]float64, len(values))
	for i, v := range values {
		abs[i] = math.Abs(v)
	}
	return stat.Mean(abs, nil)
}

// detectKampita requires a segment of at least 150 ms with a pitch range in
// (20, 250) cents and at least 3 derivative zero-crossings (roughly two
// oscillation cycles).
func detectKampita(zc int, pitchRange, durationMs float64) *GamakaResult {
	if durationMs < 150 {
		return nil
	}
	if pitchRange < 20 || pitchRange > 250 {
		return nil
	}
	if zc < 3 {
		return nil
	}

	oscScore := math.Min(1, float64(zc)/10)
	rangeScore := 1 - math.Abs(pitchRange-80)/200 // peak confidence near 80 cents
	rangeScore = math.Max(0, math.Min(1, rangeScore))
	confidence := 0.6*oscScore + 0.4*rangeScore

	return &GamakaResult{
		Type:       Kampita,
		Confidence: round3(confidence),
		Details: map[string]any{
			"zero_crossings":    zc,
			"pitch_range_cents": round2(pitchRange),
			"duration_ms":       round2(durationMs),
		},
	}
}

// detectJaru requires a net change of at least 50 cents that dominates the
// pitch range (monotonicity >= 0.5) with at most 6 zero-crossings.
func detectJaru(cents []float64, zc int, pitchRange float64) *GamakaResult {
	if len(cents) < 3 {
		return nil
	}

	netChange := cents[len(cents)-1] - cents[0]
	absNet := math.Abs(netChange)
	if absNet < 50 {
		return nil
	}

	monotonicity := absNet / math.Max(pitchRange, 1e-6)
	if monotonicity < 0.5 {
		return nil
	}
	if zc > 6 {
		return nil
	}

	direction := "ascending"
	if netChange < 0 {
		direction = "descending"
	}
	confidence := math.Min(1, monotonicity) * math.Min(1, absNet/100)
	confidence = math.Max(0, math.Min(1, confidence))

	return &GamakaResult{
		Type:       Jaru,
		Confidence: round3(confidence),
		Details: map[string]any{
			"net_change_cents":  round2(netChange),
			"direction":         direction,
			"monotonicity":      round3(monotonicity),
			"pitch_range_cents": round2(pitchRange),
		},
	}
}

// ClassifyGamaka labels the ornament present in a segment. Detectors run in
// strict priority order (Sphuritham, Kampita, Jaru, then Steady) and the
// first match wins. Sphuritham and Kampita shapes can both satisfy the looser
// Jaru conditions, so the most specific pattern is tested first.
func ClassifyGamaka(segment *Segment, hopMs float64) GamakaResult {
	cents := cleanCents(segment.CentsFromSa)

	allNaN := true
	for _, c := range cents {
		if !math.IsNaN(c) {
			allNaN = false
			break
		}
	}
	if allNaN {
		return GamakaResult{
			Type:       Steady,
			Confidence: 0,
			Details:    map[string]any{"reason": "all_unvoiced"},
		}
	}

	deriv := firstDerivative(cents)
	zc := zeroCrossings(deriv)

	minC, maxC := cents[0], cents[0]
	for _, c := range cents[1:] {
		minC = math.Min(minC, c)
		maxC = math.Max(maxC, c)
	}
	pitchRange := maxC - minC
	durationMs := segment.DurationMs()

	if r := detectSphuritham(cents, hopMs, pitchRange, zc); r != nil {
		return *r
	}
	if r := detectKampita(zc, pitchRange, durationMs); r != nil {
		return *r
	}
	if r := detectJaru(cents, zc, pitchRange); r != nil {
		return *r
	}

	return GamakaResult{
		Type:       Steady,
		Confidence: round3(math.Max(0, 1-pitchRange/20)),
		Details: map[string]any{
			"pitch_range_cents": round2(pitchRange),
			"zero_crossings":    zc,
		},
	}
}
