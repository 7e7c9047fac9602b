// Package audio decodes WAV files into normalized mono samples and
// synthesizes reference tones for demos and tests.
package audio

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-audio/wav"
)

// ReadWavAsFloat64 reads a PCM WAV file and returns mono samples normalized
// to [-1, 1] plus the sample rate. Stereo input is mixed down by averaging
// the channels.
func ReadWavAsFloat64(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, 0, fmt.Errorf("not a valid WAV file: %s", path)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("reading PCM samples: %w", err)
	}
	if buf.Format == nil || len(buf.Data) == 0 {
		return nil, 0, errors.New("no samples in WAV file")
	}

	numChannels := buf.Format.NumChannels
	sampleRate := buf.Format.SampleRate
	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = 16
	}
	scale := 1.0 / float64(int(1)<<(uint(bitDepth)-1))

	switch numChannels {
	case 1:
		samples := make([]float64, len(buf.Data))
		for i, v := range buf.Data {
			samples[i] = float64(v) * scale
		}
		return samples, sampleRate, nil
	case 2:
		frames := len(buf.Data) / 2
		samples := make([]float64, frames)
		for i := 0; i < frames; i++ {
			l := float64(buf.Data[2*i]) * scale
			r := float64(buf.Data[2*i+1]) * scale
			samples[i] = (l + r) * 0.5
		}
		return samples, sampleRate, nil
	default:
		return nil, 0, fmt.Errorf("unsupported channel count %d: only mono/stereo supported", numChannels)
	}
}
