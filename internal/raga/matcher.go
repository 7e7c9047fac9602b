// Package raga scores detected swara sequences against the 72 Melakarta
// parent ragas and resolves enharmonic swara names by raga context.
package raga

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/shrutilabs/ragasense/internal/reference"
)

// swaraPosition maps each swara id to its chromatic position (0-11).
// Enharmonic pairs collide on purpose: Ri2/Ga1, Ga2/Ri3, Dha2/Ni1, Ni2/Dha3.
var swaraPosition = map[string]int{
	"Sa": 0, "Ri1": 1, "Ri2": 2, "Ga1": 2, "Ga2": 3, "Ri3": 3,
	"Ga3": 4, "Ma1": 5, "Ma2": 6, "Pa": 7, "Dha1": 8, "Dha2": 9,
	"Ni1": 9, "Ni2": 10, "Dha3": 10, "Ni3": 11,
}

// enharmonicMap lists the valid swara names at each chromatic position, in
// canonical order. The first entry is the deterministic fallback when raga
// context cannot disambiguate.
var enharmonicMap = map[int][]string{
	0: {"Sa"}, 1: {"Ri1"}, 2: {"Ri2", "Ga1"}, 3: {"Ga2", "Ri3"},
	4: {"Ga3"}, 5: {"Ma1"}, 6: {"Ma2"}, 7: {"Pa"},
	8: {"Dha1"}, 9: {"Dha2", "Ni1"}, 10: {"Ni2", "Dha3"}, 11: {"Ni3"},
}

// MatchDetails carries the per-raga scoring breakdown for diagnostics.
type MatchDetails struct {
	SetScore          float64 `json:"set_score"`
	SequenceBonus     float64 `json:"sequence_bonus"`
	DetectedPositions []int   `json:"detected_positions"`
	RagaPositions     []int   `json:"raga_positions"`
}

// Candidate is a scored raga match.
type Candidate struct {
	Raga       *reference.RagaDefinition `json:"raga"`
	Confidence float64                   `json:"confidence"`
	Details    MatchDetails              `json:"details"`
}

// Matcher identifies ragas by comparing detected swara sets and sequences
// against arohana/avarohana scales.
type Matcher struct {
	ragas []reference.RagaDefinition
}

// NewMatcher builds a matcher over a loaded raga table.
func NewMatcher(ragas []reference.RagaDefinition) *Matcher {
	return &Matcher{ragas: ragas}
}

// normalizeSwara converts a swara name to its chromatic position. The upper
// octave marker "Sa'" folds back to position 0.
func normalizeSwara(swara string) (int, error) {
	if swara == "Sa" || swara == "Sa'" {
		return 0, nil
	}
	pos, ok := swaraPosition[swara]
	if !ok {
		return 0, fmt.Errorf("unknown swara %q", swara)
	}
	return pos, nil
}

func positionSet(swaras []string) (map[int]bool, error) {
	set := make(map[int]bool, len(swaras))
	for _, s := range swaras {
		pos, err := normalizeSwara(s)
		if err != nil {
			return nil, err
		}
		set[pos] = true
	}
	return set, nil
}

// ragaPositions returns the chromatic positions used by a raga's arohana.
// Swara names that fail to resolve are skipped rather than treated as errors;
// the table is validated at load time.
func ragaPositions(raga *reference.RagaDefinition) map[int]bool {
	set := make(map[int]bool, len(raga.Arohana))
	for _, s := range raga.Arohana {
		if pos, err := normalizeSwara(s); err == nil {
			set[pos] = true
		}
	}
	return set
}

// setScore measures how well the detected position set matches a raga.
// Coverage rewards hitting the raga's notes, purity rewards staying inside
// them. Foreign notes cost three times as much per note as missing ones.
func setScore(detected, ragaSet map[int]bool) float64 {
	if len(ragaSet) == 0 {
		return 0
	}

	common := 0
	foreign := 0
	for pos := range detected {
		if ragaSet[pos] {
			common++
		} else {
			foreign++
		}
	}
	missing := len(ragaSet) - common

	coverage := float64(common) / float64(len(ragaSet))
	purity := 0.0
	if len(detected) > 0 {
		purity = float64(common) / float64(len(detected))
	}

	score := 0.6*coverage + 0.4*purity - 0.15*float64(foreign) - 0.05*float64(missing)
	return math.Max(0, math.Min(1, score))
}

// sequenceBonus looks for three-note ascending runs inside the arohana and
// descending runs inside the avarohana. Worth at most 0.3.
func sequenceBonus(detected []int, raga *reference.RagaDefinition) float64 {
	if len(detected) < 3 {
		return 0
	}

	arohana := scalePositions(raga.Arohana)
	avarohana := scalePositions(raga.Avarohana)

	matches := 0
	for i := 0; i+2 < len(detected); i++ {
		a, b, c := detected[i], detected[i+1], detected[i+2]
		switch {
		case a < b && b < c:
			if containsTriple(arohana, a, b, c) {
				matches++
			}
		case a > b && b > c:
			if containsTriple(avarohana, a, b, c) {
				matches++
			}
		}
	}

	windows := len(detected) - 2
	if windows < 1 {
		windows = 1
	}
	return math.Min(0.3, 0.3*float64(matches)/float64(windows))
}

func scalePositions(scale []string) []int {
	positions := make([]int, 0, len(scale))
	for _, s := range scale {
		if pos, err := normalizeSwara(s); err == nil {
			positions = append(positions, pos)
		}
	}
	return positions
}

func containsTriple(scale []int, a, b, c int) bool {
	for j := 0; j+2 < len(scale); j++ {
		if scale[j] == a && scale[j+1] == b && scale[j+2] == c {
			return true
		}
	}
	return false
}

// Identify scores every raga against the detected swara sequence and returns
// up to topN candidates, highest confidence first. Candidates scoring at or
// below 0.1 are dropped. An unknown swara name in the input is an error.
func (m *Matcher) Identify(detectedSwaras []string, topN int) ([]Candidate, error) {
	if len(detectedSwaras) == 0 {
		return nil, nil
	}

	detectedSet, err := positionSet(detectedSwaras)
	if err != nil {
		return nil, err
	}
	detectedSeq := make([]int, len(detectedSwaras))
	for i, s := range detectedSwaras {
		detectedSeq[i], _ = normalizeSwara(s)
	}

	var candidates []Candidate
	for i := range m.ragas {
		raga := &m.ragas[i]
		ragaSet := ragaPositions(raga)

		set := setScore(detectedSet, ragaSet)
		bonus := sequenceBonus(detectedSeq, raga)
		total := math.Min(1, set+bonus)
		if total <= 0.1 {
			continue
		}

		candidates = append(candidates, Candidate{
			Raga:       raga,
			Confidence: round3(total),
			Details: MatchDetails{
				SetScore:          round3(set),
				SequenceBonus:     round3(bonus),
				DetectedPositions: sortedKeys(detectedSet),
				RagaPositions:     sortedKeys(ragaSet),
			},
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})
	if topN > 0 && len(candidates) > topN {
		candidates = candidates[:topN]
	}
	return candidates, nil
}

// ResolveEnharmonic picks the swara name for a chromatic position using raga
// context: a name appearing in the raga's own scales wins, otherwise the
// first canonical alternative.
func (m *Matcher) ResolveEnharmonic(position int, raga *reference.RagaDefinition) string {
	names := enharmonicMap[position]
	if len(names) == 0 {
		return fmt.Sprintf("pos_%d", position)
	}
	if len(names) == 1 || raga == nil {
		return names[0]
	}

	inScale := make(map[string]bool, len(raga.Arohana)+len(raga.Avarohana))
	for _, s := range raga.Arohana {
		inScale[s] = true
	}
	for _, s := range raga.Avarohana {
		inScale[s] = true
	}
	for _, name := range names {
		if inScale[name] {
			return name
		}
	}
	return names[0]
}

// RagaByNumber looks up a Melakarta raga by its number (1-72). Returns nil
// when out of range.
func (m *Matcher) RagaByNumber(number int) *reference.RagaDefinition {
	for i := range m.ragas {
		if m.ragas[i].Number == number {
			return &m.ragas[i]
		}
	}
	return nil
}

// RagaByName looks up a raga by name or alias, case-insensitively. Returns
// nil when no raga matches.
func (m *Matcher) RagaByName(name string) *reference.RagaDefinition {
	lower := strings.ToLower(name)
	for i := range m.ragas {
		raga := &m.ragas[i]
		if strings.ToLower(raga.Name) == lower {
			return raga
		}
		for _, alias := range raga.Aliases {
			if strings.ToLower(alias) == lower {
				return raga
			}
		}
	}
	return nil
}

// Ragas exposes the underlying raga table.
func (m *Matcher) Ragas() []reference.RagaDefinition {
	return m.ragas
}

func sortedKeys(set map[int]bool) []int {
	keys := make([]int, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
