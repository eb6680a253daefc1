// Package server exposes scoring runs over a small JSON API.
package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/salesradar/salesradar/internal/model"
	"github.com/salesradar/salesradar/internal/ranker"
	"github.com/salesradar/salesradar/internal/store"
)

// Options tunes the router.
type Options struct {
	RatePerSecond  float64
	RateBurst      int
	AllowedOrigins []string
}

// Server owns the HTTP handlers. Scoring runs fresh on every request;
// results are small enough that caching is not worth the staleness.
type Server struct {
	store  store.Store
	ranker *ranker.Ranker
}

// New builds the chi router with CORS, per-IP rate limiting, and all
// API routes mounted.
func New(st store.Store, r *ranker.Ranker, opts Options) http.Handler {
	s := &Server{store: st, ranker: r}

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	router := chi.NewRouter()
	router.Use(middleware.RealIP)
	router.Use(requestLogger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	if opts.RatePerSecond > 0 {
		router.Use(newIPRateLimiter(opts.RatePerSecond, opts.RateBurst).middleware)
	}

	router.Get("/health", s.handleHealth)
	router.Route("/api", func(api chi.Router) {
		api.Get("/leads/ranked", s.handleRankedLeads)
		api.Get("/clients/ranked", s.handleRankedClients)
		api.Get("/scoring/geo/summary", s.handleGeoSummary)
		api.Get("/packs/potential", s.handlePackPotential)
		api.Get("/tickets/stats", s.handleTicketStats)
		api.Get("/admin/weights", s.handleGetWeights)
		api.Put("/admin/weights", s.handlePutWeights)
	})

	return router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRankedLeads(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := ranker.LeadRunOptions{
		Sector:   model.Sector(q.Get("sector")),
		State:    q.Get("state"),
		MinScore: queryFloat(q.Get("min_score")),
		Limit:    queryInt(q.Get("limit")),
	}
	if v := q.Get("status"); v != "" {
		opts.Status = model.ParseLeadStatus(v)
	}

	results, err := s.ranker.RankLeads(r.Context(), opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":   len(results),
		"results": results,
	})
}

func (s *Server) handleRankedClients(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	results, err := s.ranker.RankClients(r.Context(), ranker.ClientRunOptions{
		Sector:   model.Sector(q.Get("sector")),
		State:    q.Get("state"),
		RiskFlag: q.Get("risk_flag"),
		MinScore: queryFloat(q.Get("min_score")),
		Limit:    queryInt(q.Get("limit")),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":   len(results),
		"results": results,
	})
}

func (s *Server) handleGeoSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.ranker.GeoSummary(r.Context(), model.Sector(r.URL.Query().Get("sector")))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handlePackPotential(w http.ResponseWriter, r *http.Request) {
	potentials, err := s.ranker.PackPotentials(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":   len(potentials),
		"results": potentials,
	})
}

func (s *Server) handleTicketStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.TicketStats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleGetWeights(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.WeightEntries(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":   len(entries),
		"weights": entries,
	})
}

func (s *Server) handlePutWeights(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Weights []model.WeightEntry `json:"weights"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if len(body.Weights) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "weights is required"})
		return
	}
	for _, entry := range body.Weights {
		if strings.TrimSpace(entry.Key) == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "weight key is required"})
			return
		}
		if entry.Value < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "weight values must be non-negative"})
			return
		}
	}

	for _, entry := range body.Weights {
		if err := s.store.UpsertWeightEntry(r.Context(), entry); err != nil {
			writeError(w, err)
			return
		}
	}
	zap.L().Info("weights updated", zap.Int("count", len(body.Weights)))
	writeJSON(w, http.StatusOK, map[string]any{"updated": len(body.Weights)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, err error) {
	zap.L().Error("request failed", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

func queryInt(s string) int {
	v, _ := strconv.Atoi(s)
	return v
}

func queryFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
