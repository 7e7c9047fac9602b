// Package notation turns pitch contours into swara notation: run-length
// transcription into notes and phrases, plus text rendering with Unicode
// octave marks in any of the supported scripts.
package notation

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/shrutilabs/ragasense/internal/pitch"
	"github.com/shrutilabs/ragasense/internal/reference"
	"github.com/shrutilabs/ragasense/internal/swara"
)

// Octave names the three sthayi registers.
type Octave string

const (
	// OctaveMandra is the lower register, below -300 cents from Sa.
	OctaveMandra Octave = "mandra"
	// OctaveMadhya is the middle register.
	OctaveMadhya Octave = "madhya"
	// OctaveTara is the upper register, above +900 cents from Sa.
	OctaveTara Octave = "tara"
)

// TranscribedNote is a single note with timing and swara info.
type TranscribedNote struct {
	StartMs        float64 `json:"start_ms"`
	EndMs          float64 `json:"end_ms"`
	SwaraID        string  `json:"swara_id"`
	Octave         Octave  `json:"octave"`
	FrequencyHz    float64 `json:"frequency_hz"`
	CentsDeviation float64 `json:"cents_deviation"`
	Confidence     float64 `json:"confidence"`
}

// DurationMs returns the note length in milliseconds.
func (n TranscribedNote) DurationMs() float64 {
	return n.EndMs - n.StartMs
}

// Phrase is a group of consecutive notes separated from its neighbors by
// silence.
type Phrase struct {
	Notes   []TranscribedNote `json:"notes"`
	StartMs float64           `json:"start_ms"`
	EndMs   float64           `json:"end_ms"`
}

// Transcription is the complete swara transcription of a recording.
type Transcription struct {
	Phrases       []Phrase `json:"phrases"`
	ReferenceSaHz float64  `json:"reference_sa_hz"`
	DurationS     float64  `json:"duration_s"`
	UniqueSwaras  []string `json:"unique_swaras"`
}

// TranscribeOptions tunes contour-to-notation conversion.
type TranscribeOptions struct {
	ReferenceSaHz  float64
	ToleranceCents float64
	MinConfidence  float64
	MinNoteMs      float64
	PhraseGapMs    float64
}

// DefaultTranscribeOptions uses middle C as Sa, a 40 cent matching band,
// 80 ms minimum notes and 300 ms phrase gaps.
func DefaultTranscribeOptions() TranscribeOptions {
	return TranscribeOptions{
		ReferenceSaHz:  261.63,
		ToleranceCents: 40,
		MinConfidence:  0.3,
		MinNoteMs:      80,
		PhraseGapMs:    300,
	}
}

// freqToOctave places a frequency into a sthayi register relative to Sa.
func freqToOctave(freqHz, referenceSaHz float64) Octave {
	if freqHz <= 0 || referenceSaHz <= 0 {
		return OctaveMadhya
	}
	cents := 1200 * math.Log2(freqHz/referenceSaHz)
	switch {
	case cents < -300:
		return OctaveMandra
	case cents > 900:
		return OctaveTara
	}
	return OctaveMadhya
}

// TranscribeContour converts a pitch contour into swara notation. Consecutive
// frames mapping to the same swara merge into one note; runs shorter than
// MinNoteMs are dropped as transients; gaps longer than PhraseGapMs split
// phrases.
func TranscribeContour(contour *pitch.Contour, table []reference.Swarasthana, opts TranscribeOptions) *Transcription {
	hopMs := contour.HopMs

	type frameSwara struct {
		timestampMs float64
		match       *swara.Match
		confidence  float64
	}

	frames := make([]frameSwara, 0, len(contour.Frames))
	for _, frame := range contour.Frames {
		fs := frameSwara{timestampMs: frame.TimestampMs, confidence: frame.Confidence}
		if frame.FrequencyHz > 0 && frame.Confidence >= opts.MinConfidence {
			fs.match = swara.FrequencyToSwara(frame.FrequencyHz, opts.ReferenceSaHz, opts.ToleranceCents, table)
		}
		frames = append(frames, fs)
	}

	var rawNotes []TranscribedNote
	for i := 0; i < len(frames); {
		if frames[i].match == nil {
			i++
			continue
		}

		id := frames[i].match.SwaraID
		startMs := frames[i].timestampMs
		octave := freqToOctave(frames[i].match.FrequencyHz, opts.ReferenceSaHz)
		var freqs, devs, confs []float64
		freqs = append(freqs, frames[i].match.FrequencyHz)
		devs = append(devs, frames[i].match.CentsDeviation)
		confs = append(confs, frames[i].confidence)

		j := i + 1
		for j < len(frames) && frames[j].match != nil && frames[j].match.SwaraID == id {
			freqs = append(freqs, frames[j].match.FrequencyHz)
			devs = append(devs, frames[j].match.CentsDeviation)
			confs = append(confs, frames[j].confidence)
			j++
		}

		endMs := frames[j-1].timestampMs + hopMs
		if endMs-startMs >= opts.MinNoteMs {
			rawNotes = append(rawNotes, TranscribedNote{
				StartMs:        startMs,
				EndMs:          endMs,
				SwaraID:        id,
				Octave:         octave,
				FrequencyHz:    stat.Mean(freqs, nil),
				CentsDeviation: stat.Mean(devs, nil),
				Confidence:     stat.Mean(confs, nil),
			})
		}
		i = j
	}

	var phrases []Phrase
	if len(rawNotes) > 0 {
		current := []TranscribedNote{rawNotes[0]}
		for _, note := range rawNotes[1:] {
			if note.StartMs-current[len(current)-1].EndMs > opts.PhraseGapMs {
				phrases = append(phrases, newPhrase(current))
				current = []TranscribedNote{note}
			} else {
				current = append(current, note)
			}
		}
		phrases = append(phrases, newPhrase(current))
	}

	seen := make(map[string]bool)
	var unique []string
	for _, phrase := range phrases {
		for _, note := range phrase.Notes {
			if !seen[note.SwaraID] {
				seen[note.SwaraID] = true
				unique = append(unique, note.SwaraID)
			}
		}
	}
	sort.Strings(unique)

	durationS := 0.0
	if len(contour.Frames) > 0 {
		durationS = contour.Frames[len(contour.Frames)-1].TimestampMs / 1000
	}

	return &Transcription{
		Phrases:       phrases,
		ReferenceSaHz: opts.ReferenceSaHz,
		DurationS:     durationS,
		UniqueSwaras:  unique,
	}
}

func newPhrase(notes []TranscribedNote) Phrase {
	p := Phrase{Notes: notes}
	if len(notes) > 0 {
		p.StartMs = notes[0].StartMs
		p.EndMs = notes[len(notes)-1].EndMs
	}
	return p
}

// SwaraSequence flattens a transcription into the ordered list of swara ids,
// the shape the raga matcher consumes.
func (t *Transcription) SwaraSequence() []string {
	var seq []string
	for _, phrase := range t.Phrases {
		for _, note := range phrase.Notes {
			seq = append(seq, note.SwaraID)
		}
	}
	return seq
}

// NumNotes counts the notes across all phrases.
func (t *Transcription) NumNotes() int {
	n := 0
	for _, phrase := range t.Phrases {
		n += len(phrase.Notes)
	}
	return n
}
