package web

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"Picture-Story/server/internal/config"
	"Picture-Story/server/internal/interfaces"
)

const (
	defaultHistoryLimit = 20
	journalStatsTimeout = 2 * time.Second
)

// WebSocket upgrader configuration
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Dependencies are the collaborators the router serves
type Dependencies struct {
	Runner   CycleRunner
	Journal  interfaces.Journal
	Hub      *ProgressHub
	Pages    *Pages
	Provider string
}

type Handlers struct {
	config    *config.Config
	hub       *ProgressHub
	journal   interfaces.Journal
	stats     *CycleStats
	provider  string
	startedAt time.Time
}

func NewHandlers(cfg *config.Config, hub *ProgressHub, journal interfaces.Journal, stats *CycleStats, provider string) *Handlers {
	return &Handlers{
		config:    cfg,
		hub:       hub,
		journal:   journal,
		stats:     stats,
		provider:  provider,
		startedAt: time.Now(),
	}
}

func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	subscribers := 0
	if h.hub != nil {
		subscribers = h.hub.GetClientCount()
	}
	body := map[string]interface{}{
		"status":         "ok",
		"service":        "picture-story",
		"provider":       h.provider,
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
		"cycles":         h.stats.Snapshot(),
		"subscribers":    subscribers,
	}
	if stats, ok := h.journal.(interfaces.JournalStats); ok {
		ctx, cancel := context.WithTimeout(r.Context(), journalStatsTimeout)
		defer cancel()
		counts, err := stats.CountByStatus(ctx)
		if err != nil {
			slog.WarnContext(r.Context(), "failed to count journal entries", "error", err)
		} else {
			body["journal"] = counts
		}
	}
	writeJSON(w, http.StatusOK, body)
}

// GetHistory lists the most recent journal entries
func (h *Handlers) GetHistory(w http.ResponseWriter, r *http.Request) {
	if h.journal == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "Journal not configured"})
		return
	}

	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	entries, err := h.journal.Recent(r.Context(), limit)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to read journal", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to read history"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}

// GetEventStream upgrades to a WebSocket that receives progress events
func (h *Handlers) GetEventStream(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "Hub not initialized"})
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	client := &Client{
		ID:   generateClientID(),
		Conn: conn,
		Send: make(chan []byte, 256),
		Hub:  h.hub,
	}

	welcome, _ := json.Marshal(map[string]interface{}{
		"type": "connected",
		"id":   client.ID,
		"time": time.Now().Unix(),
	})
	client.Send <- welcome

	h.hub.register <- client
	go client.readPump()
}

// corsMiddleware allows the configured origins
func corsMiddleware(allowed []string) func(http.Handler) http.Handler {
	allowAll := len(allowed) == 0
	for _, o := range allowed {
		if o == "*" {
			allowAll = true
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			switch {
			case allowAll:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case origin != "" && containsFold(allowed, origin):
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Set("Access-Control-Max-Age", "300")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// requestLogger logs one line per request
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		slog.InfoContext(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func NewRouter(cfg *config.Config, deps Dependencies) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware(cfg.Server.AllowedOrigins))

	stats := &CycleStats{}
	handlers := NewHandlers(cfg, deps.Hub, deps.Journal, stats, deps.Provider)
	storyHandlers := NewStoryHandlers(deps.Runner, deps.Pages, stats, cfg.Server.MaxUploadBytes)

	limit := func(next http.Handler) http.Handler { return next }
	if cfg.RateLimit.Enabled {
		limit = NewRateLimiter(cfg.RateLimit).Middleware
	}

	// Public routes
	r.Get("/", storyHandlers.Index)
	r.Get("/health", handlers.HealthCheck)
	r.With(limit).Post("/generate", storyHandlers.Generate)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.With(limit).Post("/story", storyHandlers.CreateStory)
		r.Get("/styles", storyHandlers.GetStyles)
		r.Get("/history", handlers.GetHistory)
		r.Get("/events", handlers.GetEventStream)
	})

	return r
}

// generateClientID generates a unique client ID
func generateClientID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return hex.EncodeToString([]byte(time.Now().String()))[:16]
	}
	return hex.EncodeToString(b)
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
