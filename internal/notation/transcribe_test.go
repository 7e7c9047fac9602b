package notation

import (
	"math"
	"testing"

	"github.com/shrutilabs/ragasense/internal/pitch"
	"github.com/shrutilabs/ragasense/internal/reference"
)

func loadTable(t *testing.T) []reference.Swarasthana {
	t.Helper()
	store, err := reference.Load()
	if err != nil {
		t.Fatalf("Failed to load reference tables: %v", err)
	}
	return store.Swarasthanas
}

// contourFromFreqs builds a contour at a 10 ms hop, one entry per frame.
// Zero frequencies become unvoiced frames.
func contourFromFreqs(freqs []float64) *pitch.Contour {
	frames := make([]pitch.Frame, len(freqs))
	for i, f := range freqs {
		conf := 1.0
		if f <= 0 {
			conf = 0
		}
		frames[i] = pitch.Frame{TimestampMs: float64(i) * 10, FrequencyHz: f, Confidence: conf}
	}
	return &pitch.Contour{Frames: frames, Algorithm: pitch.AlgorithmACF, SampleRate: 16000, HopMs: 10}
}

func repeatFreq(freqHz float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = freqHz
	}
	return out
}

func TestTranscribeSteadyTone(t *testing.T) {
	table := loadTable(t)
	contour := contourFromFreqs(repeatFreq(261.63, 100))

	tr := TranscribeContour(contour, table, DefaultTranscribeOptions())
	if len(tr.Phrases) != 1 {
		t.Fatalf("Expected 1 phrase, got %d", len(tr.Phrases))
	}
	notes := tr.Phrases[0].Notes
	if len(notes) != 1 {
		t.Fatalf("Expected 1 note, got %d", len(notes))
	}

	note := notes[0]
	if note.SwaraID != "Sa" {
		t.Errorf("Expected Sa, got %s", note.SwaraID)
	}
	if note.Octave != OctaveMadhya {
		t.Errorf("Expected madhya octave, got %s", note.Octave)
	}
	if math.Abs(note.DurationMs()-1000) > 10 {
		t.Errorf("Expected about 1000 ms duration, got %g", note.DurationMs())
	}
	if len(tr.UniqueSwaras) != 1 || tr.UniqueSwaras[0] != "Sa" {
		t.Errorf("Expected unique swaras [Sa], got %v", tr.UniqueSwaras)
	}
}

func TestTranscribeDropsShortTransients(t *testing.T) {
	table := loadTable(t)

	// 500 ms of Sa, a 50 ms blip of Pa, 500 ms of Sa again: the blip is
	// under the 80 ms minimum and disappears, leaving two Sa notes.
	pa := 261.63 * math.Pow(2, 700.0/1200)
	freqs := append(repeatFreq(261.63, 50), repeatFreq(pa, 5)...)
	freqs = append(freqs, repeatFreq(261.63, 50)...)

	tr := TranscribeContour(contourFromFreqs(freqs), table, DefaultTranscribeOptions())
	for _, phrase := range tr.Phrases {
		for _, note := range phrase.Notes {
			if note.SwaraID == "Pa" {
				t.Errorf("Expected 50 ms transient to be dropped, found Pa note")
			}
		}
	}
}

func TestTranscribePhraseGap(t *testing.T) {
	table := loadTable(t)

	// Two half-second notes separated by 500 ms of silence.
	ri2 := 261.63 * math.Pow(2, 200.0/1200)
	freqs := append(repeatFreq(261.63, 50), repeatFreq(0, 50)...)
	freqs = append(freqs, repeatFreq(ri2, 50)...)

	tr := TranscribeContour(contourFromFreqs(freqs), table, DefaultTranscribeOptions())
	if len(tr.Phrases) != 2 {
		t.Fatalf("Expected 2 phrases across a 500 ms gap, got %d", len(tr.Phrases))
	}
	if tr.Phrases[0].Notes[0].SwaraID != "Sa" {
		t.Errorf("Expected first phrase to open with Sa, got %s", tr.Phrases[0].Notes[0].SwaraID)
	}
	if tr.Phrases[1].Notes[0].SwaraID != "Ri2" {
		t.Errorf("Expected second phrase to open with Ri2, got %s", tr.Phrases[1].Notes[0].SwaraID)
	}
}

func TestTranscribeOctaveRegisters(t *testing.T) {
	table := loadTable(t)

	tests := []struct {
		freqHz float64
		want   Octave
	}{
		{261.63, OctaveMadhya},
		{261.63 / 2, OctaveMandra},
		{261.63 * 2, OctaveTara},
	}

	for _, tt := range tests {
		tr := TranscribeContour(contourFromFreqs(repeatFreq(tt.freqHz, 50)), table, DefaultTranscribeOptions())
		if len(tr.Phrases) == 0 || len(tr.Phrases[0].Notes) == 0 {
			t.Fatalf("No notes transcribed at %g Hz", tt.freqHz)
		}
		note := tr.Phrases[0].Notes[0]
		if note.SwaraID != "Sa" {
			t.Errorf("Expected Sa at %g Hz, got %s", tt.freqHz, note.SwaraID)
		}
		if note.Octave != tt.want {
			t.Errorf("Expected %s octave at %g Hz, got %s", tt.want, tt.freqHz, note.Octave)
		}
	}
}

func TestTranscribeEmptyContour(t *testing.T) {
	table := loadTable(t)
	tr := TranscribeContour(contourFromFreqs(nil), table, DefaultTranscribeOptions())
	if len(tr.Phrases) != 0 {
		t.Errorf("Expected no phrases for empty contour, got %d", len(tr.Phrases))
	}
	if tr.NumNotes() != 0 {
		t.Errorf("Expected no notes, got %d", tr.NumNotes())
	}
}

func TestSwaraSequence(t *testing.T) {
	table := loadTable(t)

	ri2 := 261.63 * math.Pow(2, 200.0/1200)
	ga3 := 261.63 * math.Pow(2, 400.0/1200)
	freqs := append(repeatFreq(261.63, 20), repeatFreq(ri2, 20)...)
	freqs = append(freqs, repeatFreq(ga3, 20)...)

	tr := TranscribeContour(contourFromFreqs(freqs), table, DefaultTranscribeOptions())
	seq := tr.SwaraSequence()
	want := []string{"Sa", "Ri2", "Ga3"}
	if len(seq) != len(want) {
		t.Fatalf("Expected sequence %v, got %v", want, seq)
	}
	for i := range want {
		if seq[i] != want[i] {
			t.Errorf("Sequence[%d]: expected %s, got %s", i, want[i], seq[i])
		}
	}
}
