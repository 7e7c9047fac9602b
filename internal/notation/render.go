package notation

import (
	"fmt"
	"math"
	"strings"

	"github.com/shrutilabs/ragasense/internal/reference"
)

// Carnatic octave marks as Unicode combining characters. The mark sits on
// the first character of the swara name.
const (
	dotBelow = "̣" // mandra sthayi
	dotAbove = "̇" // tara sthayi
	barLine  = "|"
)

// Renderer formats transcriptions as notation text using the display names
// from the swarasthana table.
type Renderer struct {
	names map[string]map[string]string
}

// NewRenderer indexes a swarasthana table by id for script lookups.
func NewRenderer(table []reference.Swarasthana) *Renderer {
	names := make(map[string]map[string]string, len(table))
	for _, s := range table {
		names[s.ID] = s.Names
	}
	return &Renderer{names: names}
}

// applyOctaveMark inserts the combining mark after the first rune. Rests and
// sustain symbols pass through unmarked.
func applyOctaveMark(text string, octave Octave) string {
	if text == "" || text == "-" || text == "," {
		return text
	}
	runes := []rune(text)
	switch octave {
	case OctaveMandra:
		return string(runes[0]) + dotBelow + string(runes[1:])
	case OctaveTara:
		return string(runes[0]) + dotAbove + string(runes[1:])
	}
	return text
}

// RenderSwara renders one swara with its octave mark in the given script.
// Unknown ids and special symbols ("-", ",") render as-is.
func (r *Renderer) RenderSwara(swaraID string, octave Octave, script string) string {
	if swaraID == "-" || swaraID == "," {
		return swaraID
	}
	display := swaraID
	if scripts, ok := r.names[swaraID]; ok {
		if name, ok := scripts[script]; ok {
			display = name
		}
	}
	return applyOctaveMark(display, octave)
}

// RenderTranscription renders multi-line notation with one block per phrase.
// Notes sustained past a quarter-second gain trailing commas; lines longer
// than four notes get a bar line at the midpoint.
func (r *Renderer) RenderTranscription(t *Transcription, script string, notesPerLine int, showTiming bool) string {
	if notesPerLine <= 0 {
		notesPerLine = 8
	}

	var lines []string
	for pi, phrase := range t.Phrases {
		if showTiming {
			lines = append(lines, fmt.Sprintf("  Phrase %d  [%.1fs - %.1fs]",
				pi+1, phrase.StartMs/1000, phrase.EndMs/1000))
		} else {
			lines = append(lines, fmt.Sprintf("  Phrase %d", pi+1))
		}

		noteStrs := make([]string, 0, len(phrase.Notes))
		for _, note := range phrase.Notes {
			rendered := r.RenderSwara(note.SwaraID, note.Octave, script)
			beats := sustainBeats(note.DurationMs())
			if beats > 1 {
				rendered += " " + strings.Repeat(",  ", beats-1)
			}
			noteStrs = append(noteStrs, strings.TrimSpace(rendered))
		}

		for i := 0; i < len(noteStrs); i += notesPerLine {
			end := i + notesPerLine
			if end > len(noteStrs) {
				end = len(noteStrs)
			}
			chunk := noteStrs[i:end]
			if len(chunk) > 4 {
				mid := len(chunk) / 2
				lines = append(lines, fmt.Sprintf("    %s  %s  %s",
					strings.Join(chunk[:mid], "  "), barLine, strings.Join(chunk[mid:], "  ")))
			} else {
				lines = append(lines, "    "+strings.Join(chunk, "  "))
			}
		}

		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}

// RenderTranscriptionCompact renders a single line per phrase, with commas
// for sustains and " || " between phrases.
func (r *Renderer) RenderTranscriptionCompact(t *Transcription, script string) string {
	parts := make([]string, 0, len(t.Phrases))
	for _, phrase := range t.Phrases {
		var phraseNotes []string
		for _, note := range phrase.Notes {
			phraseNotes = append(phraseNotes, r.RenderSwara(note.SwaraID, note.Octave, script))
			for b := sustainBeats(note.DurationMs()); b > 1; b-- {
				phraseNotes = append(phraseNotes, ",")
			}
		}
		parts = append(parts, strings.Join(phraseNotes, " "))
	}
	return strings.Join(parts, "  ||  ")
}

// sustainBeats converts a note duration into beat counts at 250 ms per beat.
func sustainBeats(durationMs float64) int {
	beats := int(math.Round(durationMs / 250))
	if beats < 1 {
		beats = 1
	}
	return beats
}
