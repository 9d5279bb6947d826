// Package handler exposes the local record viewer over HTTP.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/victorxys/ExamBank-sub004/internal/cache"
	"github.com/victorxys/ExamBank-sub004/internal/fetch"
	"github.com/victorxys/ExamBank-sub004/internal/media"
	"github.com/victorxys/ExamBank-sub004/internal/model"
	"github.com/victorxys/ExamBank-sub004/internal/record"
	"github.com/victorxys/ExamBank-sub004/internal/view"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	fetcher record.Fetcher
	cache   *cache.Cache
	videos  *media.Resolver
}

// New creates a new Handler. videos may be nil when no playback proxy is
// configured.
func New(fetcher record.Fetcher, c *cache.Cache, videos *media.Resolver) *Handler {
	return &Handler{fetcher: fetcher, cache: c, videos: videos}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", h.handleHealth)
	r.Get("/records/{examID}/{subjectID}", h.handleRecord)
	r.Get("/video-url", h.handleVideoURL)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type recordResponse struct {
	Record        *model.ExamRecord `json:"record"`
	Sections      []view.Section    `json:"sections"`
	ScoreClass    string            `json:"score_class"`
	AccuracyClass string            `json:"accuracy_class"`
}

// handleRecord resolves one exam record through a request-scoped loader, so
// each request gets the full cache-then-fetch sequence and a cancellation
// scope tied to the client connection.
func (h *Handler) handleRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	params := record.Params{
		ExamID:    chi.URLParam(r, "examID"),
		SubjectID: chi.URLParam(r, "subjectID"),
		ExamTime:  q.Get("exam_time"),
	}

	ov, err := overridesFromQuery(q.Get("exam_title"), q.Get("username"),
		q.Get("attempt_number"), q.Get("total_score"), q.Get("accuracy_rate"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	l := record.NewLoader(h.fetcher, h.cache)
	defer l.Close()
	l.Load(ctx, params, ov)

	snap, err := l.Wait(ctx)
	if err != nil {
		// Client went away; there is nobody left to answer.
		slog.Debug("record request abandoned", "exam_id", params.ExamID, "error", err)
		return
	}

	if snap.State == record.StateError {
		status := http.StatusBadGateway
		var remote *fetch.RemoteError
		switch {
		case errors.Is(snap.Err, fetch.ErrMissingParams):
			status = http.StatusBadRequest
		case errors.As(snap.Err, &remote) && remote.StatusCode == http.StatusNotFound:
			status = http.StatusNotFound
		}
		writeError(w, status, snap.Message)
		return
	}

	wrongOnly := q.Get("wrong_only") == "1" || q.Get("wrong_only") == "true"
	writeJSON(w, http.StatusOK, recordResponse{
		Record:        snap.Record,
		Sections:      view.Sections(ctx, snap.Record, wrongOnly),
		ScoreClass:    view.ScoreClass(snap.Record.TotalScore),
		AccuracyClass: view.AccuracyClass(snap.Record.AccuracyRate),
	})
}

func (h *Handler) handleVideoURL(w http.ResponseWriter, r *http.Request) {
	if h.videos == nil {
		writeError(w, http.StatusNotFound, "no playback proxy configured")
		return
	}
	src := r.URL.Query().Get("src")
	if src == "" {
		writeError(w, http.StatusBadRequest, "src is required")
		return
	}
	resolved, err := h.videos.PlaybackURL(src)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": resolved})
}

func overridesFromQuery(title, username, attempt, score, accuracy string) (model.Overrides, error) {
	var ov model.Overrides
	if title != "" {
		ov.ExamTitle = &title
	}
	if username != "" {
		ov.Username = &username
	}
	if attempt != "" {
		n, err := strconv.Atoi(attempt)
		if err != nil {
			return ov, errors.New("invalid attempt_number")
		}
		ov.AttemptNumber = &n
	}
	if score != "" {
		f, err := strconv.ParseFloat(score, 64)
		if err != nil {
			return ov, errors.New("invalid total_score")
		}
		ov.TotalScore = &f
	}
	if accuracy != "" {
		f, err := strconv.ParseFloat(accuracy, 64)
		if err != nil {
			return ov, errors.New("invalid accuracy_rate")
		}
		ov.AccuracyRate = &f
	}
	return ov, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
