package notation

import (
	"strings"
	"testing"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	return NewRenderer(loadTable(t))
}

func TestRenderSwaraOctaveMarks(t *testing.T) {
	r := newTestRenderer(t)

	if got := r.RenderSwara("Sa", OctaveMadhya, "iast"); got != "Sa" {
		t.Errorf("Expected unmarked Sa in madhya, got %q", got)
	}
	if got := r.RenderSwara("Sa", OctaveMandra, "iast"); got != "Ṣa" {
		t.Errorf("Expected dot below for mandra, got %q", got)
	}
	if got := r.RenderSwara("Sa", OctaveTara, "iast"); got != "Ṡa" {
		t.Errorf("Expected dot above for tara, got %q", got)
	}
}

func TestRenderSwaraSpecialSymbols(t *testing.T) {
	r := newTestRenderer(t)

	if got := r.RenderSwara("-", OctaveMandra, "iast"); got != "-" {
		t.Errorf("Expected rest to pass through, got %q", got)
	}
	if got := r.RenderSwara(",", OctaveTara, "iast"); got != "," {
		t.Errorf("Expected sustain to pass through, got %q", got)
	}
	// Unknown ids render as-is rather than failing.
	if got := r.RenderSwara("Xx", OctaveMadhya, "iast"); got != "Xx" {
		t.Errorf("Expected unknown id to render as-is, got %q", got)
	}
}

func TestRenderSwaraScripts(t *testing.T) {
	r := newTestRenderer(t)

	// Devanagari Sa starts with a multi-byte rune; the octave mark must
	// follow the first rune, not the first byte.
	got := r.RenderSwara("Sa", OctaveTara, "devanagari")
	runes := []rune(got)
	if len(runes) < 2 || runes[1] != '̇' {
		t.Errorf("Expected combining mark after first rune, got %q", got)
	}
}

func makeTranscription(notes []TranscribedNote) *Transcription {
	return &Transcription{
		Phrases:       []Phrase{newPhrase(notes)},
		ReferenceSaHz: 261.63,
	}
}

func TestRenderTranscriptionCompact(t *testing.T) {
	r := newTestRenderer(t)

	tr := makeTranscription([]TranscribedNote{
		{StartMs: 0, EndMs: 250, SwaraID: "Sa", Octave: OctaveMadhya},
		{StartMs: 250, EndMs: 750, SwaraID: "Ri2", Octave: OctaveMadhya},
	})

	got := r.RenderTranscriptionCompact(tr, "iast")
	// Ri2 spans two beats, so it gains one sustain comma.
	want := "Sa Ri2 ,"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestRenderTranscriptionCompactPhraseSeparator(t *testing.T) {
	r := newTestRenderer(t)

	tr := &Transcription{
		Phrases: []Phrase{
			newPhrase([]TranscribedNote{{StartMs: 0, EndMs: 250, SwaraID: "Sa", Octave: OctaveMadhya}}),
			newPhrase([]TranscribedNote{{StartMs: 1000, EndMs: 1250, SwaraID: "Pa", Octave: OctaveMadhya}}),
		},
		ReferenceSaHz: 261.63,
	}

	got := r.RenderTranscriptionCompact(tr, "iast")
	if got != "Sa  ||  Pa" {
		t.Errorf("Expected phrase separator, got %q", got)
	}
}

func TestRenderTranscriptionFull(t *testing.T) {
	r := newTestRenderer(t)

	tr := makeTranscription([]TranscribedNote{
		{StartMs: 0, EndMs: 250, SwaraID: "Sa", Octave: OctaveMadhya},
		{StartMs: 250, EndMs: 500, SwaraID: "Ri2", Octave: OctaveMadhya},
		{StartMs: 500, EndMs: 750, SwaraID: "Ga3", Octave: OctaveMadhya},
	})

	got := r.RenderTranscription(tr, "iast", 8, true)
	if !strings.Contains(got, "Phrase 1") {
		t.Errorf("Expected phrase header, got %q", got)
	}
	if !strings.Contains(got, "[0.0s - 0.8s]") {
		t.Errorf("Expected timing header, got %q", got)
	}
	if !strings.Contains(got, "Sa  Ri2  Ga3") {
		t.Errorf("Expected note row, got %q", got)
	}
}

func TestRenderTranscriptionBarLine(t *testing.T) {
	r := newTestRenderer(t)

	notes := make([]TranscribedNote, 6)
	ids := []string{"Sa", "Ri2", "Ga3", "Ma1", "Pa", "Dha2"}
	for i := range notes {
		notes[i] = TranscribedNote{
			StartMs: float64(i) * 250,
			EndMs:   float64(i+1) * 250,
			SwaraID: ids[i],
			Octave:  OctaveMadhya,
		}
	}

	got := r.RenderTranscription(makeTranscription(notes), "iast", 8, false)
	if !strings.Contains(got, "|") {
		t.Errorf("Expected a bar line for a 6 note row, got %q", got)
	}
}

func TestSustainBeats(t *testing.T) {
	tests := []struct {
		durationMs float64
		want       int
	}{
		{100, 1},
		{250, 1},
		{500, 2},
		{1000, 4},
	}
	for _, tt := range tests {
		if got := sustainBeats(tt.durationMs); got != tt.want {
			t.Errorf("sustainBeats(%g) = %d, want %d", tt.durationMs, got, tt.want)
		}
	}
}
