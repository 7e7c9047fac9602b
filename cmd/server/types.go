package main

import (
	"fmt"
	"time"
)

// MaxUploadBytes caps multipart audio uploads (~100 MB, a few minutes of
// uncompressed stereo WAV).
const MaxUploadBytes = 100 << 20

// AnalyzeRequestParams are the optional form fields of POST /api/v1/analyze.
type AnalyzeRequestParams struct {
	TonicHz   float64
	Algorithm string
	Script    string
	TopN      int
}

// Validate checks the optional analyze parameters.
func (p *AnalyzeRequestParams) Validate() error {
	if p.TonicHz < 0 {
		return fmt.Errorf("tonic_hz must not be negative, got %g", p.TonicHz)
	}
	if p.Algorithm != "" && p.Algorithm != "acf" && p.Algorithm != "amdf" {
		return fmt.Errorf("unknown algorithm %q: use acf or amdf", p.Algorithm)
	}
	if p.TopN < 0 {
		return fmt.Errorf("top_n must not be negative, got %d", p.TopN)
	}
	return nil
}

// CandidateDTO is one ranked raga candidate in API responses.
type CandidateDTO struct {
	Number        int     `json:"number"`
	Name          string  `json:"name"`
	Confidence    float64 `json:"confidence"`
	SetScore      float64 `json:"set_score"`
	SequenceBonus float64 `json:"sequence_bonus"`
}

// GamakaDTO is one classified ornament window.
type GamakaDTO struct {
	StartMs    float64 `json:"start_ms"`
	EndMs      float64 `json:"end_ms"`
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
}

// AnalyzeResponse is the response for POST /api/v1/analyze.
type AnalyzeResponse struct {
	ID              string         `json:"id,omitempty"`
	Source          string         `json:"source"`
	Algorithm       string         `json:"algorithm"`
	ReferenceSaHz   float64        `json:"reference_sa_hz"`
	DurationMs      float64        `json:"duration_ms"`
	SwaraSequence   []string       `json:"swara_sequence"`
	UniqueSwaras    []string       `json:"unique_swaras"`
	PhraseCount     int            `json:"phrase_count"`
	NoteCount       int            `json:"note_count"`
	Candidates      []CandidateDTO `json:"candidates"`
	Gamakas         []GamakaDTO    `json:"gamakas"`
	Notation        string         `json:"notation"`
	NotationCompact string         `json:"notation_compact"`
}

// RagaDTO represents a raga in API responses.
type RagaDTO struct {
	Number    int      `json:"number"`
	Name      string   `json:"name"`
	Arohana   []string `json:"arohana"`
	Avarohana []string `json:"avarohana"`
	MaType    string   `json:"ma_type"`
	Aliases   []string `json:"aliases,omitempty"`
}

// ListRagasResponse is the response for GET /api/v1/ragas.
type ListRagasResponse struct {
	Ragas []RagaDTO `json:"ragas"`
	Count int       `json:"count"`
}

// AnalysisDTO represents a stored analysis in API responses.
type AnalysisDTO struct {
	ID              string    `json:"id"`
	Source          string    `json:"source"`
	ReferenceSaHz   float64   `json:"reference_sa_hz"`
	Algorithm       string    `json:"algorithm"`
	DurationMs      float64   `json:"duration_ms"`
	TopRaga         string    `json:"top_raga"`
	TopRagaNumber   int       `json:"top_raga_number"`
	TopConfidence   float64   `json:"top_confidence"`
	SwaraSequence   string    `json:"swara_sequence"`
	NotationCompact string    `json:"notation_compact"`
	CreatedAt       time.Time `json:"created_at"`
}

// ListHistoryResponse is the response for GET /api/v1/history.
type ListHistoryResponse struct {
	Analyses []AnalysisDTO `json:"analyses"`
	Count    int           `json:"count"`
}

// DeleteAnalysisResponse is the response for DELETE /api/v1/history/{id}.
type DeleteAnalysisResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}
