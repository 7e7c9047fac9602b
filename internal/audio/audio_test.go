package audio

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestCentsToFrequency(t *testing.T) {
	tests := []struct {
		cents  float64
		refHz  float64
		wantHz float64
	}{
		{0, 261.63, 261.63},
		{1200, 261.63, 523.26},
		{-1200, 261.63, 130.815},
		{700, 261.63, 391.99},
	}
	for _, tt := range tests {
		got := CentsToFrequency(tt.cents, tt.refHz)
		if math.Abs(got-tt.wantHz) > 0.01 {
			t.Errorf("CentsToFrequency(%g, %g) = %g, want %g", tt.cents, tt.refHz, got, tt.wantHz)
		}
	}
}

func TestGenerateTone(t *testing.T) {
	samples := GenerateTone(440, 500, 16000, 0.8)
	if len(samples) != 8000 {
		t.Fatalf("Expected 8000 samples for 500 ms at 16 kHz, got %d", len(samples))
	}

	// Fades bring the edges to silence.
	if samples[0] != 0 {
		t.Errorf("Expected silent first sample, got %g", samples[0])
	}

	peak := 0.0
	for _, s := range samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	if peak > 0.81 || peak < 0.7 {
		t.Errorf("Expected peak near 0.8, got %g", peak)
	}
}

func TestWriteAndReadWavRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tone.wav")

	original := GenerateTone(261.63, 300, 16000, 0.5)
	if err := WriteWav(path, original, 16000); err != nil {
		t.Fatalf("WriteWav failed: %v", err)
	}

	samples, sampleRate, err := ReadWavAsFloat64(path)
	if err != nil {
		t.Fatalf("ReadWavAsFloat64 failed: %v", err)
	}
	if sampleRate != 16000 {
		t.Errorf("Expected sample rate 16000, got %d", sampleRate)
	}
	if len(samples) != len(original) {
		t.Fatalf("Expected %d samples, got %d", len(original), len(samples))
	}

	// 16-bit quantization keeps samples within one LSB of the original.
	for i := range samples {
		if math.Abs(samples[i]-original[i]) > 1.0/16384 {
			t.Fatalf("Sample %d differs: wrote %g, read %g", i, original[i], samples[i])
		}
	}
}

func TestGenerateScale(t *testing.T) {
	cents := []float64{0, 200, 400}
	samples := GenerateScale(cents, 261.63, 100, 16000)

	wantLen := 3 * 1600
	if len(samples) != wantLen {
		t.Errorf("Expected %d samples for 3 notes of 100 ms, got %d", wantLen, len(samples))
	}
}

func TestReadWavMissingFile(t *testing.T) {
	if _, _, err := ReadWavAsFloat64(filepath.Join(t.TempDir(), "missing.wav")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestReadWavRejectsGarbage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "garbage.wav")
	if err := os.WriteFile(path, []byte("not a wav file at all"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := ReadWavAsFloat64(path); err == nil {
		t.Error("Expected error for non-WAV content")
	}
}
