package pitch

import (
	"math"
	"testing"
)

// sineWave makes a mono sine of the given length.
func sineWave(freqHz float64, durationS float64, sampleRate int) []float64 {
	n := int(durationS * float64(sampleRate))
	samples := make([]float64, n)
	for i := range samples {
		t := float64(i) / float64(sampleRate)
		samples[i] = 0.8 * math.Sin(2*math.Pi*freqHz*t)
	}
	return samples
}

func checkTrackedFrequency(t *testing.T, contour *Contour, wantHz float64) {
	t.Helper()
	if len(contour.Frames) == 0 {
		t.Fatal("Expected frames from a 1 s tone")
	}

	voiced := 0
	for _, f := range contour.Frames {
		if f.FrequencyHz <= 0 {
			continue
		}
		voiced++
		if math.Abs(f.FrequencyHz-wantHz) > wantHz*0.02 {
			t.Errorf("Frame at %g ms tracked %g Hz, want about %g",
				f.TimestampMs, f.FrequencyHz, wantHz)
		}
	}
	if voiced < len(contour.Frames)/2 {
		t.Errorf("Expected most frames voiced, got %d of %d", voiced, len(contour.Frames))
	}
}

func TestDetectACF(t *testing.T) {
	samples := sineWave(220, 1.0, 16000)
	opts := DefaultDetectOptions()
	opts.Algorithm = AlgorithmACF

	contour, err := Detect(samples, 16000, opts)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if contour.Algorithm != AlgorithmACF {
		t.Errorf("Expected algorithm acf, got %s", contour.Algorithm)
	}
	checkTrackedFrequency(t, contour, 220)
}

func TestDetectAMDF(t *testing.T) {
	samples := sineWave(220, 1.0, 16000)
	opts := DefaultDetectOptions()
	opts.Algorithm = AlgorithmAMDF

	contour, err := Detect(samples, 16000, opts)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	checkTrackedFrequency(t, contour, 220)
}

func TestDetectConstantHop(t *testing.T) {
	samples := sineWave(261.63, 0.5, 16000)
	contour, err := Detect(samples, 16000, DefaultDetectOptions())
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}

	for i, f := range contour.Frames {
		want := float64(i) * contour.HopMs
		if math.Abs(f.TimestampMs-want) > 1e-9 {
			t.Fatalf("Frame %d at %g ms, want %g", i, f.TimestampMs, want)
		}
	}
}

func TestDetectSilenceIsUnvoiced(t *testing.T) {
	samples := make([]float64, 16000)
	contour, err := Detect(samples, 16000, DefaultDetectOptions())
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}

	for _, f := range contour.Frames {
		if f.FrequencyHz > 0 {
			t.Errorf("Frame at %g ms reported %g Hz for silence", f.TimestampMs, f.FrequencyHz)
		}
	}
}

func TestDetectInvalidInput(t *testing.T) {
	if _, err := Detect(nil, 0, DefaultDetectOptions()); err == nil {
		t.Error("Expected error for zero sample rate")
	}

	opts := DefaultDetectOptions()
	opts.Algorithm = "cepstrum"
	if _, err := Detect(sineWave(220, 0.2, 16000), 16000, opts); err == nil {
		t.Error("Expected error for unknown algorithm")
	}
}

func TestDetectShortInputYieldsNoFrames(t *testing.T) {
	samples := sineWave(220, 0.05, 16000) // shorter than one frame
	contour, err := Detect(samples, 16000, DefaultDetectOptions())
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(contour.Frames) != 0 {
		t.Errorf("Expected no frames for sub-frame input, got %d", len(contour.Frames))
	}
}
