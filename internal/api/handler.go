package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"dailyreport/internal/models"
	"dailyreport/internal/pipeline"
)

// HistoryStore is the slice of the store the history endpoint needs.
type HistoryStore interface {
	ListLogs(ctx context.Context, userID int64, from, to time.Time) ([]*models.EmailLog, error)
}

type Handler struct {
	Orch  *pipeline.Orchestrator
	Store HistoryStore
	Log   *zap.Logger
}

type runRequest struct {
	UserID int64  `json:"user_id"`
	Date   string `json:"date,omitempty"` // ISO-8601 date, optional
	Force  bool   `json:"force,omitempty"`
}

// RunReport triggers the pipeline for one user synchronously and returns the
// run result. The delegation payload, when present, rides along for the
// browser to act on.
func (h *Handler) RunReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.UserID == 0 {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	opts := pipeline.Options{Force: req.Force}
	if req.Date != "" {
		d, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		opts.Date = &d
	}

	h.Log.Info("manual report run requested",
		zap.Int64("user_id", req.UserID),
		zap.String("date", req.Date),
		zap.Bool("force", req.Force),
	)

	res := h.Orch.Run(r.Context(), req.UserID, opts)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}

// History lists a user's delivery records, optionally bounded by from/to
// dates.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil || userID == 0 {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	var from, to time.Time
	if v := r.URL.Query().Get("from"); v != "" {
		if from, err = time.Parse("2006-01-02", v); err != nil {
			http.Error(w, "from must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		if to, err = time.Parse("2006-01-02", v); err != nil {
			http.Error(w, "to must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		// Inclusive upper bound: cover the whole "to" day.
		to = to.Add(24*time.Hour - time.Second)
	}

	logs, err := h.Store.ListLogs(r.Context(), userID, from, to)
	if err != nil {
		h.Log.Error("history query failed", zap.Int64("user_id", userID), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"user_id": userID,
		"count":   len(logs),
		"logs":    logs,
	})
}
