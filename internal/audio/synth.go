package audio

import (
	"fmt"
	"math"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// CentsToFrequency converts a cents offset from a reference frequency back
// to Hz.
func CentsToFrequency(cents, referenceHz float64) float64 {
	return referenceHz * math.Pow(2, cents/1200)
}

// GenerateTone synthesizes a sine tone. Short linear fades at both ends
// avoid clicks at note boundaries.
func GenerateTone(freqHz float64, durationMs float64, sampleRate int, amplitude float64) []float64 {
	n := int(float64(sampleRate) * durationMs / 1000)
	samples := make([]float64, n)
	for i := range samples {
		t := float64(i) / float64(sampleRate)
		samples[i] = amplitude * math.Sin(2*math.Pi*freqHz*t)
	}

	fade := int(float64(sampleRate) * 0.02)
	if fade > n/2 {
		fade = n / 2
	}
	for i := 0; i < fade; i++ {
		gain := float64(i) / float64(fade)
		samples[i] *= gain
		samples[n-1-i] *= gain
	}
	return samples
}

// GenerateScale synthesizes one tone per cents offset from Sa, concatenated
// in order. Useful for demos and pipeline tests.
func GenerateScale(centsFromSa []float64, referenceSaHz float64, noteDurationMs float64, sampleRate int) []float64 {
	var samples []float64
	for _, cents := range centsFromSa {
		freq := CentsToFrequency(cents, referenceSaHz)
		samples = append(samples, GenerateTone(freq, noteDurationMs, sampleRate, 0.8)...)
	}
	return samples
}

// WriteWav saves mono float64 samples in [-1, 1] as a 16-bit PCM WAV file.
func WriteWav(path string, samples []float64, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	encoder := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: 1,
			SampleRate:  sampleRate,
		},
		Data:           make([]int, len(samples)),
		SourceBitDepth: 16,
	}
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		buf.Data[i] = int(s * 32767)
	}

	if err := encoder.Write(buf); err != nil {
		return fmt.Errorf("writing PCM samples: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("finalizing WAV file: %w", err)
	}
	return nil
}
