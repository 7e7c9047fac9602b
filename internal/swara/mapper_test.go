package swara

import (
	"math"
	"testing"

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

func TestFrequencyToWestern(t *testing.T) {
	tests := []struct {
		freqHz     float64
		wantName   string
		wantOctave int
	}{
		{440.0, "A", 4},
		{261.63, "C", 4},
		{523.25, "C", 5},
		{293.66, "D", 4},
		{27.5, "A", 0},
	}

	for _, tt := range tests {
		note := FrequencyToWestern(tt.freqHz, DefaultA4Hz)
		if note.Name != tt.wantName || note.Octave != tt.wantOctave {
			t.Errorf("FrequencyToWestern(%g) = %s%d, want %s%d",
				tt.freqHz, note.Name, note.Octave, tt.wantName, tt.wantOctave)
		}
	}
}

func TestFrequencyToWesternDeviation(t *testing.T) {
	// 10 cents above A4
	freq := 440 * math.Pow(2, 10.0/1200)
	note := FrequencyToWestern(freq, DefaultA4Hz)
	if note.Name != "A" || note.Octave != 4 {
		t.Fatalf("Expected A4, got %s%d", note.Name, note.Octave)
	}
	if math.Abs(note.CentsDeviation-10) > 0.01 {
		t.Errorf("Expected deviation 10 cents, got %g", note.CentsDeviation)
	}
}

func TestFrequencyToWesternUnvoiced(t *testing.T) {
	note := FrequencyToWestern(0, DefaultA4Hz)
	if note.Name != "-" {
		t.Errorf("Expected placeholder for non-positive frequency, got %q", note.Name)
	}
}

func TestFrequencyToSwaraExact(t *testing.T) {
	table := loadTable(t)

	match := FrequencyToSwara(261.63, 261.63, 40, table)
	if match == nil {
		t.Fatal("Expected a match at the tonic")
	}
	if match.SwaraID != "Sa" {
		t.Errorf("Expected Sa at the tonic, got %s", match.SwaraID)
	}
	if math.Abs(match.CentsDeviation) > 0.01 {
		t.Errorf("Expected zero deviation at the tonic, got %g", match.CentsDeviation)
	}
	if math.Abs(match.Confidence-1.0) > 0.001 {
		t.Errorf("Expected confidence 1.0 at the tonic, got %g", match.Confidence)
	}
}

func TestFrequencyToSwaraDeviation(t *testing.T) {
	table := loadTable(t)

	// 210 cents above Sa: Ri2 with +10 deviation
	freq := 261.63 * math.Pow(2, 210.0/1200)
	match := FrequencyToSwara(freq, 261.63, 40, table)
	if match == nil {
		t.Fatal("Expected a match at 210 cents")
	}
	if match.SwaraID != "Ri2" {
		t.Errorf("Expected Ri2, got %s", match.SwaraID)
	}
	if math.Abs(match.CentsDeviation-10) > 0.1 {
		t.Errorf("Expected +10 cents deviation, got %g", match.CentsDeviation)
	}
	if match.Confidence < 0.7 || match.Confidence > 0.8 {
		t.Errorf("Expected confidence 0.75 at 10/40 cents, got %g", match.Confidence)
	}
}

func TestFrequencyToSwaraOctaveFolding(t *testing.T) {
	table := loadTable(t)

	// One octave above Sa folds back to Sa
	match := FrequencyToSwara(523.26, 261.63, 40, table)
	if match == nil || match.SwaraID != "Sa" {
		t.Fatalf("Expected Sa one octave up, got %+v", match)
	}

	// Just below the tonic wraps around the cents circle
	freq := 261.63 * math.Pow(2, -5.0/1200)
	match = FrequencyToSwara(freq, 261.63, 40, table)
	if match == nil || match.SwaraID != "Sa" {
		t.Fatalf("Expected Sa just below the tonic, got %+v", match)
	}
	if math.Abs(match.CentsDeviation+5) > 0.1 {
		t.Errorf("Expected -5 cents deviation, got %g", match.CentsDeviation)
	}
}

func TestFrequencyToSwaraOutOfTolerance(t *testing.T) {
	table := loadTable(t)

	// Quarter-tone between Sa and Ri1
	freq := 261.63 * math.Pow(2, 50.0/1200)
	if match := FrequencyToSwara(freq, 261.63, 40, table); match != nil {
		t.Errorf("Expected no match at 50 cents with 40 cent tolerance, got %s", match.SwaraID)
	}

	// Same frequency passes with a wider band
	if match := FrequencyToSwara(freq, 261.63, 60, table); match == nil {
		t.Error("Expected a match at 50 cents with 60 cent tolerance")
	}
}

func TestFrequencyToSwaraInvalidInput(t *testing.T) {
	table := loadTable(t)

	if match := FrequencyToSwara(0, 261.63, 40, table); match != nil {
		t.Error("Expected nil for zero frequency")
	}
	if match := FrequencyToSwara(-100, 261.63, 40, table); match != nil {
		t.Error("Expected nil for negative frequency")
	}
}
