// Package swara maps frequencies to Western notes and Indian swarasthanas.
package swara

import (
	"math"

	"github.com/shrutilabs/ragasense/internal/reference"
)

// Western note names in chromatic order.
var westernNotes = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// DefaultA4Hz is the standard concert pitch for Western note rounding.
const DefaultA4Hz = 440.0

// WesternNote is the nearest 12-TET note for a frequency.
type WesternNote struct {
	Name           string
	Octave         int
	FrequencyHz    float64
	CentsDeviation float64
}

// Match is a frequency resolved to its nearest swarasthana.
type Match struct {
	SwaraID        string
	CentsFromSa    float64
	CentsDeviation float64
	FrequencyHz    float64
	Names          map[string]string
	FullNames      map[string]string
	Aliases        []string
	Confidence     float64
}

// FrequencyToWestern rounds a frequency to the nearest Western note relative
// to the given A4 reference. Non-positive frequencies yield a placeholder.
func FrequencyToWestern(freqHz, a4Hz float64) WesternNote {
	if freqHz <= 0 {
		return WesternNote{Name: "-"}
	}

	semitonesFromA4 := 12 * math.Log2(freqHz/a4Hz)
	midi := int(math.Round(semitonesFromA4)) + 69

	noteIndex := ((midi % 12) + 12) % 12
	octave := midi/12 - 1
	if midi < 0 && midi%12 != 0 {
		octave--
	}

	exactFreq := a4Hz * math.Pow(2, float64(midi-69)/12)
	deviation := 1200 * math.Log2(freqHz/exactFreq)

	return WesternNote{
		Name:           westernNotes[noteIndex],
		Octave:         octave,
		FrequencyHz:    freqHz,
		CentsDeviation: deviation,
	}
}

// FrequencyToSwara resolves a frequency to the nearest swarasthana within
// toleranceCents of its octave-reduced position. Returns nil when the
// frequency is non-positive or no table entry is within tolerance.
//
// Distances are measured on a 1200-cent circle: a raw difference beyond ±600
// wraps around, so 1190 cents is 10 cents from Sa, not 1190. An exact tie
// between two entries resolves to the one earlier in the table; the tie-break
// is arbitrary but reproducible.
func FrequencyToSwara(freqHz, referenceSaHz, toleranceCents float64, table []reference.Swarasthana) *Match {
	if freqHz <= 0 || referenceSaHz <= 0 {
		return nil
	}

	centsFromSa := 1200 * math.Log2(freqHz/referenceSaHz)
	centsInOctave := math.Mod(centsFromSa, 1200)
	if centsInOctave < 0 {
		centsInOctave += 1200
	}

	var best *reference.Swarasthana
	bestAbs := math.Inf(1)
	bestDeviation := 0.0

	for i := range table {
		deviation := centsInOctave - table[i].Cents
		if deviation > 600 {
			deviation -= 1200
		} else if deviation < -600 {
			deviation += 1200
		}
		if abs := math.Abs(deviation); abs < bestAbs {
			bestAbs = abs
			best = &table[i]
			bestDeviation = deviation
		}
	}

	if best == nil || bestAbs > toleranceCents {
		return nil
	}

	// Linear confidence: 1.0 at exact match, 0.0 at the tolerance boundary.
	confidence := math.Max(0, 1-bestAbs/toleranceCents)

	return &Match{
		SwaraID:        best.ID,
		CentsFromSa:    centsInOctave,
		CentsDeviation: bestDeviation,
		FrequencyHz:    freqHz,
		Names:          best.Names,
		FullNames:      best.FullNames,
		Aliases:        best.Aliases,
		Confidence:     confidence,
	}
}
