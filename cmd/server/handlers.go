package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/shrutilabs/ragasense/internal/pitch"
	"github.com/shrutilabs/ragasense/internal/service"
	"github.com/shrutilabs/ragasense/internal/storage"
	"github.com/shrutilabs/ragasense/pkg/logger"
)

// Server encapsulates the HTTP server and its dependencies
type Server struct {
	service *service.AnalysisService
	config  *ServerConfig
	log     service.Logger
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	DBPath         string
	AllowedOrigins []string
}

// NewServer creates a new server instance
func NewServer(svc *service.AnalysisService, config *ServerConfig) *Server {
	return &Server{
		service: svc,
		config:  config,
		log:     logger.GetLogger(),
	}
}

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("Failed to encode JSON response: %v", err)
	}
}

// respondError writes an error response
func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}

// handleRoot handles GET /
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"service": "RagaSense API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"health":         "GET /health",
			"analyze":        "POST /api/v1/analyze",
			"swarasthanas":   "GET /api/v1/swarasthanas",
			"ragas":          "GET /api/v1/ragas",
			"getRaga":        "GET /api/v1/ragas/{key}",
			"tuningPresets":  "GET /api/v1/tuning-presets",
			"history":        "GET /api/v1/history",
			"getAnalysis":    "GET /api/v1/history/{id}",
			"deleteAnalysis": "DELETE /api/v1/history/{id}",
		},
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// parseAnalyzeParams reads the optional form fields of an analyze request.
func parseAnalyzeParams(r *http.Request) (AnalyzeRequestParams, error) {
	var p AnalyzeRequestParams
	if v := r.FormValue("tonic_hz"); v != "" {
		hz, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return p, fmt.Errorf("invalid tonic_hz %q", v)
		}
		p.TonicHz = hz
	}
	p.Algorithm = r.FormValue("algorithm")
	p.Script = r.FormValue("script")
	if v := r.FormValue("top_n"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return p, fmt.Errorf("invalid top_n %q", v)
		}
		p.TopN = n
	}
	return p, p.Validate()
}

// handleAnalyze handles POST /api/v1/analyze (multipart WAV upload)
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Use POST")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		s.log.Errorf("Failed to parse form: %v", err)
		s.respondError(w, http.StatusBadRequest, "Failed to parse form data")
		return
	}

	params, err := parseAnalyzeParams(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "audio file is required")
		return
	}
	defer file.Close()

	tempFile := filepath.Join(os.TempDir(), fmt.Sprintf("upload_%d_%s", time.Now().UnixNano(), header.Filename))
	out, err := os.Create(tempFile)
	if err != nil {
		s.log.Errorf("Failed to create temp file: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to process upload")
		return
	}
	defer os.Remove(tempFile)

	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		s.log.Errorf("Failed to save file: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to save uploaded file")
		return
	}
	out.Close()

	overrides := service.Overrides{
		TonicHz:   params.TonicHz,
		Algorithm: pitch.Algorithm(params.Algorithm),
		Script:    params.Script,
		TopN:      params.TopN,
	}

	result, err := s.service.AnalyzeFileWith(ctx, tempFile, overrides)
	if err != nil {
		s.log.Errorf("Analysis failed: %v", err)
		s.respondError(w, http.StatusUnprocessableEntity, fmt.Sprintf("Analysis failed: %v", err))
		return
	}
	result.Source = header.Filename

	s.respondJSON(w, http.StatusOK, toAnalyzeResponse(result))
}

func toAnalyzeResponse(result *service.Result) AnalyzeResponse {
	resp := AnalyzeResponse{
		ID:              result.ID,
		Source:          result.Source,
		Algorithm:       string(result.Algorithm),
		ReferenceSaHz:   result.ReferenceSaHz,
		DurationMs:      result.DurationMs,
		SwaraSequence:   result.Transcription.SwaraSequence(),
		UniqueSwaras:    result.Transcription.UniqueSwaras,
		PhraseCount:     len(result.Transcription.Phrases),
		NoteCount:       result.Transcription.NumNotes(),
		Notation:        result.Notation,
		NotationCompact: result.NotationCompact,
	}
	for _, c := range result.Candidates {
		resp.Candidates = append(resp.Candidates, CandidateDTO{
			Number:        c.Raga.Number,
			Name:          c.Raga.Name,
			Confidence:    c.Confidence,
			SetScore:      c.Details.SetScore,
			SequenceBonus: c.Details.SequenceBonus,
		})
	}
	for _, g := range result.Gamakas {
		resp.Gamakas = append(resp.Gamakas, GamakaDTO{
			StartMs:    g.StartMs,
			EndMs:      g.EndMs,
			Type:       string(g.Result.Type),
			Confidence: g.Result.Confidence,
		})
	}
	return resp
}

// handleSwarasthanas handles GET /api/v1/swarasthanas
func (s *Server) handleSwarasthanas(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"swarasthanas": s.service.References().Swarasthanas,
		"count":        len(s.service.References().Swarasthanas),
	})
}

// handleTuningPresets handles GET /api/v1/tuning-presets
func (s *Server) handleTuningPresets(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"presets": s.service.References().Tuning,
	})
}

// handleRagas handles GET /api/v1/ragas
func (s *Server) handleRagas(w http.ResponseWriter, r *http.Request) {
	ragas := s.service.Matcher().Ragas()
	dtos := make([]RagaDTO, len(ragas))
	for i, rg := range ragas {
		dtos[i] = RagaDTO{
			Number:    rg.Number,
			Name:      rg.Name,
			Arohana:   rg.Arohana,
			Avarohana: rg.Avarohana,
			MaType:    rg.MaType,
			Aliases:   rg.Aliases,
		}
	}
	s.respondJSON(w, http.StatusOK, ListRagasResponse{Ragas: dtos, Count: len(dtos)})
}

// handleRaga handles GET /api/v1/ragas/{key} where key is a number, name or
// alias.
func (s *Server) handleRaga(w http.ResponseWriter, r *http.Request) {
	key := pathSuffix(r.URL.Path, "/api/v1/ragas/")
	if key == "" {
		s.handleRagas(w, r)
		return
	}

	raga := s.service.Matcher().RagaByName(key)
	if raga == nil {
		if number, err := strconv.Atoi(key); err == nil {
			raga = s.service.Matcher().RagaByNumber(number)
		}
	}
	if raga == nil {
		s.respondError(w, http.StatusNotFound, fmt.Sprintf("Raga %q not found", key))
		return
	}

	s.respondJSON(w, http.StatusOK, RagaDTO{
		Number:    raga.Number,
		Name:      raga.Name,
		Arohana:   raga.Arohana,
		Avarohana: raga.Avarohana,
		MaType:    raga.MaType,
		Aliases:   raga.Aliases,
	})
}

// handleHistory handles GET /api/v1/history
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	analyses, err := s.service.History(limit)
	if err != nil {
		s.log.Errorf("Failed to list history: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve history")
		return
	}

	dtos := make([]AnalysisDTO, len(analyses))
	for i, a := range analyses {
		dtos[i] = toAnalysisDTO(&a)
	}
	s.respondJSON(w, http.StatusOK, ListHistoryResponse{Analyses: dtos, Count: len(dtos)})
}

// handleHistoryItem handles GET and DELETE /api/v1/history/{id}
func (s *Server) handleHistoryItem(w http.ResponseWriter, r *http.Request) {
	id := pathSuffix(r.URL.Path, "/api/v1/history/")
	if id == "" {
		s.handleHistory(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		analysis, err := s.service.HistoryByID(id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				s.respondError(w, http.StatusNotFound, fmt.Sprintf("Analysis %s not found", id))
				return
			}
			s.log.Errorf("Failed to get analysis %s: %v", id, err)
			s.respondError(w, http.StatusInternalServerError, "Failed to retrieve analysis")
			return
		}
		s.respondJSON(w, http.StatusOK, toAnalysisDTO(analysis))

	case http.MethodDelete:
		if err := s.service.DeleteHistory(id); err != nil {
			s.log.Errorf("Failed to delete analysis %s: %v", id, err)
			s.respondError(w, http.StatusInternalServerError, "Failed to delete analysis")
			return
		}
		s.respondJSON(w, http.StatusOK, DeleteAnalysisResponse{
			Message: "Analysis deleted successfully",
			ID:      id,
		})

	default:
		s.respondError(w, http.StatusMethodNotAllowed, "Use GET or DELETE")
	}
}

func toAnalysisDTO(a *storage.Analysis) AnalysisDTO {
	return AnalysisDTO{
		ID:              a.ID,
		Source:          a.Source,
		ReferenceSaHz:   a.ReferenceSaHz,
		Algorithm:       a.Algorithm,
		DurationMs:      a.DurationMs,
		TopRaga:         a.TopRaga,
		TopRagaNumber:   a.TopRagaNumber,
		TopConfidence:   a.TopConfidence,
		SwaraSequence:   a.SwaraSequence,
		NotationCompact: a.NotationCompact,
		CreatedAt:       a.CreatedAt,
	}
}
