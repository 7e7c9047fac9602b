package service

import (
	"os"

	"github.com/shrutilabs/ragasense/internal/pitch"
	"github.com/shrutilabs/ragasense/internal/storage"
)

// Config holds the tunable knobs of the analysis service.
type Config struct {
	DBPath         string
	ConfigDir      string
	ReferenceSaHz  float64
	ToleranceCents float64
	Algorithm      pitch.Algorithm
	TopN           int
	Script         string
	Persist        bool
}

// DefaultConfig reads the environment overrides and fills in pipeline
// defaults: middle C as Sa, a 40 cent matching band, ACF tracking.
func DefaultConfig() Config {
	return Config{
		DBPath:         os.Getenv("RAGASENSE_DB_PATH"),
		ConfigDir:      os.Getenv("RAGASENSE_CONFIG_DIR"),
		ReferenceSaHz:  261.63,
		ToleranceCents: 40,
		Algorithm:      pitch.AlgorithmACF,
		TopN:           5,
		Script:         "iast",
		Persist:        true,
	}
}

// Overrides carries per-call parameter overrides for a single analysis.
// Zero-valued fields fall back to the service configuration; the service
// itself is never mutated after construction, so concurrent calls stay
// independent.
type Overrides struct {
	TonicHz   float64
	Algorithm pitch.Algorithm
	Script    string
	TopN      int
}

func (c Config) withOverrides(ov Overrides) Config {
	if ov.TonicHz > 0 {
		c.ReferenceSaHz = ov.TonicHz
	}
	if ov.Algorithm != "" {
		c.Algorithm = ov.Algorithm
	}
	if ov.Script != "" {
		c.Script = ov.Script
	}
	if ov.TopN > 0 {
		c.TopN = ov.TopN
	}
	return c
}

// Option mutates the service configuration at construction time.
type Option func(*AnalysisService)

// WithDBPath points the history store at a specific SQLite file.
func WithDBPath(path string) Option {
	return func(s *AnalysisService) { s.cfg.DBPath = path }
}

// WithConfigDir loads reference tables from a directory instead of the
// embedded copies.
func WithConfigDir(dir string) Option {
	return func(s *AnalysisService) { s.cfg.ConfigDir = dir }
}

// WithTonic sets the Sa reference frequency in Hz.
func WithTonic(hz float64) Option {
	return func(s *AnalysisService) { s.cfg.ReferenceSaHz = hz }
}

// WithTolerance sets the swara matching band in cents.
func WithTolerance(cents float64) Option {
	return func(s *AnalysisService) { s.cfg.ToleranceCents = cents }
}

// WithAlgorithm selects the pitch tracking backend.
func WithAlgorithm(alg pitch.Algorithm) Option {
	return func(s *AnalysisService) { s.cfg.Algorithm = alg }
}

// WithScript sets the notation display script.
func WithScript(script string) Option {
	return func(s *AnalysisService) { s.cfg.Script = script }
}

// WithTopN sets how many raga candidates to report.
func WithTopN(n int) Option {
	return func(s *AnalysisService) { s.cfg.TopN = n }
}

// WithoutPersistence disables the history store entirely.
func WithoutPersistence() Option {
	return func(s *AnalysisService) { s.cfg.Persist = false }
}

// WithLogger replaces the default logger.
func WithLogger(log Logger) Option {
	return func(s *AnalysisService) { s.log = log }
}

// WithStorage injects an already-open DB client, for tests and embedding.
func WithStorage(db *storage.DBClient) Option {
	return func(s *AnalysisService) { s.db = db }
}
