package mediaserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/anatolykoptev/go_media/internal/engine"
	"github.com/anatolykoptev/go_media/internal/metrics"
)

const maxRequestBody = 1 << 20

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "go_media",
		"status":  "running",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	metrics.ScrapeRequests.Inc()

	var req engine.ScrapeRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	req.Topic = strings.TrimSpace(req.Topic)
	if req.Topic == "" {
		writeError(w, http.StatusBadRequest, "topic is required")
		return
	}

	mode, err := engine.ParseMediaMode(req.MediaMode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	provs, err := s.registry.Select(req.Providers)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	runID := req.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	q := engine.Query{
		Topic: req.Topic,
		Dates: engine.ParseSearchDates(req.SearchDates),
		Limit: engine.ClampTargetCount(req.TargetCount),
		Mode:  mode,
		RunID: runID,
	}

	log := slog.With("run_id", runID, "topic", q.Topic)
	log.Info("scrape started", "providers", providerNames(provs), "limit", q.Limit, "mode", string(q.Mode))

	records, details, aggSkipped := engine.Aggregate(r.Context(), provs, q)

	inserted, storeSkipped, err := s.gateway.Ingest(r.Context(), records)
	if err != nil {
		log.Error("ingest failed", "error", err, "inserted", inserted)
		writeJSON(w, statusForError(err), map[string]any{
			"error":    err.Error(),
			"inserted": inserted,
			"skipped":  aggSkipped + storeSkipped,
		})
		return
	}

	resp := engine.ScrapeResponse{
		Inserted: inserted,
		Skipped:  aggSkipped + storeSkipped,
		Details:  details,
	}

	metrics.ScrapeDuration.Observe(time.Since(start).Seconds())
	log.Info("scrape finished",
		"inserted", resp.Inserted,
		"skipped", resp.Skipped,
		"elapsed", time.Since(start).Round(time.Millisecond).String())
	writeJSON(w, http.StatusOK, resp)
}

func statusForError(err error) int {
	var verr *engine.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest
	}
	var rerr *engine.DatastoreReadError
	var werr *engine.DatastoreWriteError
	if errors.As(err, &rerr) || errors.As(err, &werr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func providerNames(provs []engine.Provider) []string {
	names := make([]string, 0, len(provs))
	for _, p := range provs {
		names = append(names, p.Name())
	}
	return names
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
