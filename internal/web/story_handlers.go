package web

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"go.uber.org/atomic"

	"Picture-Story/server/internal/engine"
	"Picture-Story/server/internal/models"
)

const (
	imagesField = "images"
	styleField  = "style"
)

// CycleRunner runs one generation cycle
type CycleRunner interface {
	Run(ctx context.Context, uploads []models.Upload, style models.Style) *engine.CycleOutcome
}

// CycleStats counts cycles by outcome
type CycleStats struct {
	Started          atomic.Int64
	Completed        atomic.Int64
	InvalidInput     atomic.Int64
	GenerationFailed atomic.Int64
	NarrationFailed  atomic.Int64
	AppErrors        atomic.Int64
}

func (s *CycleStats) observe(status models.CycleStatus) {
	switch status {
	case models.CycleCompleted:
		s.Completed.Inc()
	case models.CycleInvalidInput:
		s.InvalidInput.Inc()
	case models.CycleGenerationFailed:
		s.GenerationFailed.Inc()
	case models.CycleNarrationFailed:
		s.NarrationFailed.Inc()
	case models.CycleAppError:
		s.AppErrors.Inc()
	}
}

// Snapshot returns the counters keyed by name
func (s *CycleStats) Snapshot() map[string]int64 {
	return map[string]int64{
		"started":           s.Started.Load(),
		"completed":         s.Completed.Load(),
		"invalid_input":     s.InvalidInput.Load(),
		"generation_failed": s.GenerationFailed.Load(),
		"narration_failed":  s.NarrationFailed.Load(),
		"app_error":         s.AppErrors.Load(),
	}
}

// StoryHandlers handles the upload form and the story endpoints
type StoryHandlers struct {
	runner         CycleRunner
	pages          *Pages
	stats          *CycleStats
	maxUploadBytes int64
}

// NewStoryHandlers creates a new story handlers instance
func NewStoryHandlers(runner CycleRunner, pages *Pages, stats *CycleStats, maxUploadBytes int64) *StoryHandlers {
	return &StoryHandlers{
		runner:         runner,
		pages:          pages,
		stats:          stats,
		maxUploadBytes: maxUploadBytes,
	}
}

// AudioPayload carries narration inside a JSON response
type AudioPayload struct {
	MIMEType string `json:"mime_type"`
	Bytes    int    `json:"bytes"`
	Base64   string `json:"base64"`
}

// StoryResponse represents the JSON result of a cycle
type StoryResponse struct {
	Success    bool               `json:"success"`
	CycleID    string             `json:"cycle_id,omitempty"`
	Status     models.CycleStatus `json:"status,omitempty"`
	Style      models.Style       `json:"style,omitempty"`
	ImageCount int                `json:"image_count"`
	Heading    string             `json:"heading,omitempty"`
	Title      string             `json:"title,omitempty"`
	Story      string             `json:"story,omitempty"`
	Audio      *AudioPayload      `json:"audio,omitempty"`
	Warnings   []string           `json:"warnings,omitempty"`
	Error      string             `json:"error,omitempty"`
	DurationMs int64              `json:"duration_ms"`
}

// Index renders the upload form
func (h *StoryHandlers) Index(w http.ResponseWriter, r *http.Request) {
	h.pages.Render(w, http.StatusOK, "index", h.pages.FormView(""))
}

// Generate runs a cycle from the HTML form and renders the result page
func (h *StoryHandlers) Generate(w http.ResponseWriter, r *http.Request) {
	uploads, style, err := h.parseForm(w, r)
	if err != nil {
		h.pages.Render(w, uploadErrorStatus(err), "index", h.pages.FormView(style, err.Error()))
		return
	}

	outcome := h.run(r.Context(), uploads, style)
	h.pages.Render(w, http.StatusOK, "result", h.pages.ResultView(outcome))
}

// CreateStory runs a cycle and answers with JSON
func (h *StoryHandlers) CreateStory(w http.ResponseWriter, r *http.Request) {
	uploads, style, err := h.parseForm(w, r)
	if err != nil {
		writeJSON(w, uploadErrorStatus(err), StoryResponse{Success: false, Error: err.Error()})
		return
	}

	outcome := h.run(r.Context(), uploads, style)
	writeJSON(w, outcomeStatus(outcome.Status), toStoryResponse(outcome, len(uploads)))
}

// GetStyles lists the selectable styles
func (h *StoryHandlers) GetStyles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"styles": models.AllStyles,
	})
}

func (h *StoryHandlers) run(ctx context.Context, uploads []models.Upload, style models.Style) *engine.CycleOutcome {
	h.stats.Started.Inc()
	outcome := h.runner.Run(ctx, uploads, style)
	h.stats.observe(outcome.Status)
	return outcome
}

var (
	errUploadTooLarge = errors.New("The uploaded files are too large.")
	errBadStyle       = errors.New("Please select one of the available story styles.")
)

// parseForm reads the ordered image files and the style from a multipart
// request. Zero files is not an error here.
func (h *StoryHandlers) parseForm(w http.ResponseWriter, r *http.Request) ([]models.Upload, models.Style, error) {
	if r.ContentLength > h.maxUploadBytes {
		return nil, "", errUploadTooLarge
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, "", errUploadTooLarge
		}
		return nil, "", fmt.Errorf("invalid upload: %w", err)
	}

	style, err := models.ParseStyle(r.FormValue(styleField))
	if err != nil {
		return nil, "", errBadStyle
	}

	headers := r.MultipartForm.File[imagesField]
	uploads := make([]models.Upload, 0, len(headers))
	for _, fh := range headers {
		data, err := readPart(fh)
		if err != nil {
			return nil, style, fmt.Errorf("failed to read %q: %w", fh.Filename, err)
		}
		uploads = append(uploads, models.Upload{Filename: fh.Filename, Data: data})
	}
	return uploads, style, nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func uploadErrorStatus(err error) int {
	if errors.Is(err, errUploadTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func outcomeStatus(status models.CycleStatus) int {
	switch status {
	case models.CycleInvalidInput:
		return http.StatusBadRequest
	case models.CycleGenerationFailed:
		return http.StatusBadGateway
	case models.CycleAppError:
		return http.StatusInternalServerError
	default:
		return http.StatusOK
	}
}

func toStoryResponse(outcome *engine.CycleOutcome, imageCount int) StoryResponse {
	resp := StoryResponse{
		Success:    outcome.Status == models.CycleCompleted || outcome.Status == models.CycleNarrationFailed,
		CycleID:    outcome.ID,
		Status:     outcome.Status,
		Style:      outcome.Style,
		ImageCount: imageCount,
		Heading:    outcome.Heading,
		Title:      models.ExtractTitle(outcome.Story),
		Story:      outcome.Story,
		Warnings:   outcome.Warnings,
		Error:      outcome.Error,
		DurationMs: outcome.Duration.Milliseconds(),
	}
	if outcome.Audio != nil {
		resp.Audio = &AudioPayload{
			MIMEType: outcome.Audio.MIMEType,
			Bytes:    outcome.Audio.Size(),
			Base64:   base64.StdEncoding.EncodeToString(outcome.Audio.Data),
		}
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
