// Package reference loads the static lookup tables the analysis pipeline
// depends on: the 12 swarasthana positions, the 72 Melakarta ragas, and the
// Sa tuning presets. Tables are loaded once, validated, and treated as
// read-only for the process lifetime; concurrent reads need no locking.
package reference

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

//go:embed configs/swarasthanas.json configs/melakarta_72.json configs/tuning.json
var embeddedConfigs embed.FS

// Swarasthana is one of the 12 chromatic swara positions.
type Swarasthana struct {
	Index             int               `json:"index"`
	ID                string            `json:"id"`
	Cents             float64           `json:"cents"`
	WesternEquivalent string            `json:"western_equivalent"`
	Names             map[string]string `json:"names"`
	FullNames         map[string]string `json:"full_names"`
	IsFixed           bool              `json:"is_fixed"`
	Aliases           []string          `json:"aliases"`
}

// RagaDefinition is one Melakarta parent raga.
type RagaDefinition struct {
	Number    int      `json:"number"`
	Name      string   `json:"name"`
	Arohana   []string `json:"arohana"`
	Avarohana []string `json:"avarohana"`
	MaType    string   `json:"ma_type"`
	RiGa      []string `json:"ri_ga"`
	DhaNi     []string `json:"dha_ni"`
	Aliases   []string `json:"aliases"`
}

// TuningPreset is a named Sa reference frequency.
type TuningPreset struct {
	Description      string  `json:"description"`
	ReferenceSaHz    float64 `json:"reference_sa_hz"`
	WesternReference string  `json:"western_reference"`
}

// Store holds all loaded reference tables.
type Store struct {
	Swarasthanas []Swarasthana
	Ragas        []RagaDefinition
	Tuning       map[string]TuningPreset
}

type swarasthanaFile struct {
	Swarasthanas []Swarasthana `json:"swarasthanas"`
}

type ragaFile struct {
	Ragas []RagaDefinition `json:"ragas"`
}

type tuningFile struct {
	Presets map[string]TuningPreset `json:"presets"`
}

// Load reads the embedded reference tables. Failure is fatal for the caller:
// the pipeline cannot run without valid tables.
func Load() (*Store, error) {
	read := func(name string) ([]byte, error) {
		return embeddedConfigs.ReadFile("configs/" + name)
	}
	return load(read)
}

// LoadFromDir reads the reference tables from an external configuration
// directory, overriding the embedded defaults.
func LoadFromDir(dir string) (*Store, error) {
	read := func(name string) ([]byte, error) {
		return os.ReadFile(filepath.Join(dir, name))
	}
	return load(read)
}

func load(read func(name string) ([]byte, error)) (*Store, error) {
	var sf swarasthanaFile
	data, err := read("swarasthanas.json")
	if err != nil {
		return nil, fmt.Errorf("reading swarasthanas table: %w", err)
	}
	if err := json.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parsing swarasthanas table: %w", err)
	}

	var rf ragaFile
	data, err = read("melakarta_72.json")
	if err != nil {
		return nil, fmt.Errorf("reading raga table: %w", err)
	}
	if err := json.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing raga table: %w", err)
	}

	var tf tuningFile
	data, err = read("tuning.json")
	if err != nil {
		return nil, fmt.Errorf("reading tuning presets: %w", err)
	}
	if err := json.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parsing tuning presets: %w", err)
	}

	store := &Store{
		Swarasthanas: sf.Swarasthanas,
		Ragas:        rf.Ragas,
		Tuning:       tf.Presets,
	}
	if err := store.validate(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *Store) validate() error {
	if len(s.Swarasthanas) != 12 {
		return fmt.Errorf("swarasthana table must have 12 entries, got %d", len(s.Swarasthanas))
	}
	seen := make(map[float64]string, 12)
	for i, sw := range s.Swarasthanas {
		if sw.ID == "" {
			return fmt.Errorf("swarasthana %d has empty id", i)
		}
		if sw.Cents < 0 || sw.Cents > 1190 {
			return fmt.Errorf("swarasthana %q cents %.1f outside [0, 1190]", sw.ID, sw.Cents)
		}
		if prev, dup := seen[sw.Cents]; dup {
			return fmt.Errorf("swarasthanas %q and %q share cents position %.1f", prev, sw.ID, sw.Cents)
		}
		seen[sw.Cents] = sw.ID
	}

	if len(s.Ragas) != 72 {
		return fmt.Errorf("raga table must have 72 entries, got %d", len(s.Ragas))
	}
	for i, r := range s.Ragas {
		if r.Number != i+1 {
			return fmt.Errorf("raga at index %d has number %d, want %d", i, r.Number, i+1)
		}
		if r.Name == "" {
			return fmt.Errorf("raga %d has empty name", r.Number)
		}
		if len(r.Arohana) == 0 || len(r.Avarohana) == 0 {
			return fmt.Errorf("raga %q has empty scale", r.Name)
		}
		if r.MaType != "shuddha" && r.MaType != "prati" {
			return fmt.Errorf("raga %q has unknown ma_type %q", r.Name, r.MaType)
		}
	}

	if len(s.Tuning) == 0 {
		return fmt.Errorf("tuning presets are empty")
	}
	for id, p := range s.Tuning {
		if p.ReferenceSaHz <= 0 {
			return fmt.Errorf("tuning preset %q has non-positive Sa frequency", id)
		}
	}

	return nil
}

// SwarasthanaByID returns the table entry with the given id, or nil.
func (s *Store) SwarasthanaByID(id string) *Swarasthana {
	for i := range s.Swarasthanas {
		if s.Swarasthanas[i].ID == id {
			return &s.Swarasthanas[i]
		}
	}
	return nil
}
