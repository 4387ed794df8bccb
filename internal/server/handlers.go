package server

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/rmenon/pennywatch/internal/modules/execution"
	"github.com/rmenon/pennywatch/internal/modules/fundamentals"
	"github.com/rmenon/pennywatch/internal/modules/recommendations"
	"github.com/rmenon/pennywatch/internal/modules/scanner"
	"github.com/rmenon/pennywatch/internal/modules/strategy"
)

// Handlers serves the pipeline's tables read-only.
type Handlers struct {
	log         zerolog.Logger
	startupTime time.Time

	universe   *fundamentals.UniverseRepository
	candidates *scanner.Repository
	recs       *recommendations.Repository
	signals    *strategy.Repository
	ledger     *execution.Ledger
}

// NewHandlers creates the API handlers.
func NewHandlers(
	universe *fundamentals.UniverseRepository,
	candidates *scanner.Repository,
	recs *recommendations.Repository,
	signals *strategy.Repository,
	ledger *execution.Ledger,
	log zerolog.Logger,
) *Handlers {
	return &Handlers{
		log:         log.With().Str("component", "api").Logger(),
		startupTime: time.Now(),
		universe:    universe,
		candidates:  candidates,
		recs:        recs,
		signals:     signals,
		ledger:      ledger,
	}
}

// RegisterRoutes mounts all API routes on the router.
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/system", h.handleSystem)
		r.Get("/fundamentals", h.handleFundamentals)
		r.Get("/candidates", h.handleCandidates)
		r.Get("/recommendations", h.handleRecommendations)
		r.Get("/signals", h.handleSignals)
		r.Get("/executions", h.handleExecutions)
	})
}

func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, map[string]string{"status": "ok"})
}

func (h *Handlers) handleSystem(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"uptime_seconds": int(time.Since(h.startupTime).Seconds()),
		"goroutines":     runtime.NumGoroutine(),
	}

	if cpuPercents, err := cpu.Percent(0, false); err == nil && len(cpuPercents) > 0 {
		info["cpu_percent"] = cpuPercents[0]
	}
	if vmem, err := mem.VirtualMemory(); err == nil {
		info["memory_percent"] = vmem.UsedPercent
		info["memory_used_mb"] = vmem.Used / 1024 / 1024
	}

	h.respondJSON(w, info)
}

func (h *Handlers) handleFundamentals(w http.ResponseWriter, r *http.Request) {
	records, err := h.universe.GetAll()
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, records)
}

func (h *Handlers) handleCandidates(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.candidates.GetAll()
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, candidates)
}

func (h *Handlers) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	recs, err := h.recs.GetAll()
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, recs)
}

func (h *Handlers) handleSignals(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}

	signals, err := h.signals.GetByDate(date)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, signals)
}

func (h *Handlers) handleExecutions(w http.ResponseWriter, r *http.Request) {
	if date := r.URL.Query().Get("date"); date != "" {
		records, err := h.ledger.GetByDate(date)
		if err != nil {
			h.respondError(w, err)
			return
		}
		h.respondJSON(w, records)
		return
	}

	records, err := h.ledger.GetRecent(100)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, records)
}

func (h *Handlers) respondJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, err error) {
	h.log.Error().Err(err).Msg("Request failed")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
