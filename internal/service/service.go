// Package service orchestrates the full analysis pipeline: audio decode,
// pitch tracking, transcription, gamaka classification, raga identification,
// notation rendering and history persistence.
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shrutilabs/ragasense/internal/audio"
	"github.com/shrutilabs/ragasense/internal/notation"
	"github.com/shrutilabs/ragasense/internal/pitch"
	"github.com/shrutilabs/ragasense/internal/raga"
	"github.com/shrutilabs/ragasense/internal/reference"
	"github.com/shrutilabs/ragasense/internal/storage"
	"github.com/shrutilabs/ragasense/pkg/logger"
)

// Logger is the minimal logging surface the service needs.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// GamakaSpan ties an ornament classification to its time window.
type GamakaSpan struct {
	StartMs float64            `json:"start_ms"`
	EndMs   float64            `json:"end_ms"`
	Result  pitch.GamakaResult `json:"result"`
}

// Result is the complete outcome of analyzing one recording.
type Result struct {
	ID              string                  `json:"id,omitempty"`
	Source          string                  `json:"source"`
	Algorithm       pitch.Algorithm         `json:"algorithm"`
	ReferenceSaHz   float64                 `json:"reference_sa_hz"`
	DurationMs      float64                 `json:"duration_ms"`
	Transcription   *notation.Transcription `json:"transcription"`
	Gamakas         []GamakaSpan            `json:"gamakas"`
	Candidates      []raga.Candidate        `json:"candidates"`
	Notation        string                  `json:"notation"`
	NotationCompact string                  `json:"notation_compact"`
}

// AnalysisService wires the pipeline stages together.
type AnalysisService struct {
	cfg      Config
	refs     *reference.Store
	matcher  *raga.Matcher
	renderer *notation.Renderer
	db       *storage.DBClient
	log      Logger
}

// NewAnalysisService builds a service with the default config, then applies
// options.
func NewAnalysisService(opts ...Option) (*AnalysisService, error) {
	s := &AnalysisService{
		cfg: DefaultConfig(),
		log: logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	var refs *reference.Store
	var err error
	if s.cfg.ConfigDir != "" {
		refs, err = reference.LoadFromDir(s.cfg.ConfigDir)
	} else {
		refs, err = reference.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("loading reference tables: %w", err)
	}
	s.refs = refs
	s.matcher = raga.NewMatcher(refs.Ragas)
	s.renderer = notation.NewRenderer(refs.Swarasthanas)

	if s.db == nil && s.cfg.Persist {
		var db *storage.DBClient
		if s.cfg.DBPath != "" {
			db, err = storage.NewDBClientWithPath(s.cfg.DBPath)
		} else {
			db, err = storage.NewDBClient()
		}
		if err != nil {
			return nil, fmt.Errorf("opening history store: %w", err)
		}
		s.db = db
	}

	return s, nil
}

// Close releases the history store.
func (s *AnalysisService) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// References exposes the loaded reference tables.
func (s *AnalysisService) References() *reference.Store { return s.refs }

// Matcher exposes the raga matcher for lookups.
func (s *AnalysisService) Matcher() *raga.Matcher { return s.matcher }

// Renderer exposes the notation renderer.
func (s *AnalysisService) Renderer() *notation.Renderer { return s.renderer }

// AnalyzeFile runs the full pipeline on a WAV file and persists the result
// when a history store is configured.
func (s *AnalysisService) AnalyzeFile(ctx context.Context, path string) (*Result, error) {
	return s.AnalyzeFileWith(ctx, path, Overrides{})
}

// AnalyzeFileWith runs the pipeline with per-call parameter overrides. The
// service configuration is copied for the call, never mutated.
func (s *AnalysisService) AnalyzeFileWith(ctx context.Context, path string, ov Overrides) (*Result, error) {
	s.log.Infof("Analyzing %s", path)

	samples, sampleRate, err := audio.ReadWavAsFloat64(path)
	if err != nil {
		return nil, fmt.Errorf("reading audio: %w", err)
	}

	return s.analyzeSamples(ctx, path, samples, sampleRate, s.cfg.withOverrides(ov))
}

// AnalyzeSamples runs the pipeline on already-decoded mono samples.
func (s *AnalysisService) AnalyzeSamples(ctx context.Context, source string, samples []float64, sampleRate int) (*Result, error) {
	return s.analyzeSamples(ctx, source, samples, sampleRate, s.cfg)
}

func (s *AnalysisService) analyzeSamples(ctx context.Context, source string, samples []float64, sampleRate int, cfg Config) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	detectOpts := pitch.DefaultDetectOptions()
	detectOpts.Algorithm = cfg.Algorithm
	contour, err := pitch.Detect(samples, sampleRate, detectOpts)
	if err != nil {
		return nil, fmt.Errorf("pitch tracking: %w", err)
	}
	s.log.Debugf("Tracked %d frames at %.0f ms hop", len(contour.Frames), contour.HopMs)

	return s.analyzeContour(ctx, source, contour, cfg)
}

// AnalyzeContour runs transcription, gamaka classification and raga
// identification on a pitch contour.
func (s *AnalysisService) AnalyzeContour(ctx context.Context, source string, contour *pitch.Contour) (*Result, error) {
	return s.analyzeContour(ctx, source, contour, s.cfg)
}

func (s *AnalysisService) analyzeContour(ctx context.Context, source string, contour *pitch.Contour, cfg Config) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	transcribeOpts := notation.DefaultTranscribeOptions()
	transcribeOpts.ReferenceSaHz = cfg.ReferenceSaHz
	transcribeOpts.ToleranceCents = cfg.ToleranceCents
	transcription := notation.TranscribeContour(contour, s.refs.Swarasthanas, transcribeOpts)
	s.log.Infof("Transcribed %d notes in %d phrases", transcription.NumNotes(), len(transcription.Phrases))

	segmentOpts := pitch.DefaultSegmentOptions()
	segmentOpts.ReferenceSaHz = cfg.ReferenceSaHz
	segments := pitch.SegmentContour(contour, segmentOpts)

	gamakas := make([]GamakaSpan, 0, len(segments))
	for i := range segments {
		seg := &segments[i]
		gamakas = append(gamakas, GamakaSpan{
			StartMs: seg.StartMs,
			EndMs:   seg.EndMs,
			Result:  pitch.ClassifyGamaka(seg, contour.HopMs),
		})
	}

	sequence := transcription.SwaraSequence()
	candidates, err := s.matcher.Identify(sequence, cfg.TopN)
	if err != nil {
		return nil, fmt.Errorf("raga identification: %w", err)
	}
	if len(candidates) > 0 {
		s.log.Infof("Top raga candidate: %s (%.3f)", candidates[0].Raga.Name, candidates[0].Confidence)
	} else {
		s.log.Warnf("No raga candidate cleared the confidence floor")
	}

	result := &Result{
		Source:          source,
		Algorithm:       contour.Algorithm,
		ReferenceSaHz:   cfg.ReferenceSaHz,
		DurationMs:      contour.DurationMs(),
		Transcription:   transcription,
		Gamakas:         gamakas,
		Candidates:      candidates,
		Notation:        s.renderer.RenderTranscription(transcription, cfg.Script, 8, true),
		NotationCompact: s.renderer.RenderTranscriptionCompact(transcription, cfg.Script),
	}

	if s.db != nil {
		record := &storage.Analysis{
			Source:          source,
			ReferenceSaHz:   cfg.ReferenceSaHz,
			Algorithm:       string(contour.Algorithm),
			DurationMs:      contour.DurationMs(),
			SwaraSequence:   strings.Join(sequence, " "),
			NotationCompact: result.NotationCompact,
		}
		if len(candidates) > 0 {
			record.TopRaga = candidates[0].Raga.Name
			record.TopRagaNumber = candidates[0].Raga.Number
			record.TopConfidence = candidates[0].Confidence
		}
		id, err := s.db.SaveAnalysis(record)
		if err != nil {
			s.log.Errorf("Failed to persist analysis: %v", err)
		} else {
			result.ID = id
		}
	}

	return result, nil
}

// History returns recent stored analyses, newest first.
func (s *AnalysisService) History(limit int) ([]storage.Analysis, error) {
	if s.db == nil {
		return nil, fmt.Errorf("history store disabled")
	}
	return s.db.ListAnalyses(limit)
}

// HistoryByID fetches one stored analysis.
func (s *AnalysisService) HistoryByID(id string) (*storage.Analysis, error) {
	if s.db == nil {
		return nil, fmt.Errorf("history store disabled")
	}
	return s.db.GetAnalysisByID(id)
}

// DeleteHistory removes one stored analysis.
func (s *AnalysisService) DeleteHistory(id string) error {
	if s.db == nil {
		return fmt.Errorf("history store disabled")
	}
	return s.db.DeleteAnalysisByID(id)
}
