// Package handler is the thin HTTP layer over the activity service. It parses
// query parameters, delegates, and wraps every response in the
// {"success": bool, "data"|"error": ...} envelope. No business logic lives
// here.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"floorwatch/internal/activity/models"
	"floorwatch/internal/activity/service"
	dErrors "floorwatch/pkg/domainerrors"
	"floorwatch/pkg/platform/middleware/admin"
)

// Ingester is the slice of the ingestion gateway the HTTP layer needs.
type Ingester interface {
	Ingest(ctx context.Context, subjectID string, actions []string, scores []float64) error
}

// Handler exposes the analytics query surface and the HTTP ingest entry for
// out-of-process producers.
type Handler struct {
	svc        *service.Service
	gateway    Ingester
	logger     *slog.Logger
	adminToken string
}

// New builds the HTTP handler.
func New(svc *service.Service, gateway Ingester, logger *slog.Logger, adminToken string) *Handler {
	return &Handler{
		svc:        svc,
		gateway:    gateway,
		logger:     logger,
		adminToken: adminToken,
	}
}

// Router wires all routes with the standard middleware stack.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))

	r.Get("/healthz", h.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/ingest", h.handleIngest)

	r.Route("/analytics", func(r chi.Router) {
		r.Get("/snapshot", h.handleSnapshot)
		r.Get("/dashboard", h.handleDashboard)
		r.Get("/top-activities", h.handleTopActivities)
		r.Get("/timeline/{activity}", h.handleTimeline)
		r.Get("/employee/{id}", h.handleEmployee)
		r.Get("/employees", h.handleEmployees)
		r.Get("/hourly", h.handleHourly)
		r.Get("/trends/{activity}", h.handleTrend)
		r.Get("/alerts", h.handleAlerts)
		r.With(admin.RequireToken(h.adminToken, h.logger)).Post("/reset", h.handleReset)
	})

	return r
}

type ingestRequest struct {
	SubjectID string    `json:"subject_id"`
	Actions   []string  `json:"actions"`
	Scores    []float64 `json:"scores"`
}

func (h *Handler) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := h.gateway.Ingest(r.Context(), req.SubjectID, req.Actions, req.Scores); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusAccepted, map[string]string{"status": "recorded"})
}

func (h *Handler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, h.svc.Snapshot(r.Context(), queryInt(r, "time_window", 0)))
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, h.svc.Dashboard(r.Context(), queryInt(r, "time_window", 0)))
}

func (h *Handler) handleTopActivities(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, h.svc.TopActivities(r.Context(),
		queryInt(r, "limit", 0),
		queryInt(r, "time_window", 0),
	))
}

func (h *Handler) handleTimeline(w http.ResponseWriter, r *http.Request) {
	activity := chi.URLParam(r, "activity")
	minutes := queryInt(r, "minutes", 0)

	if activity == "all" {
		writeData(w, http.StatusOK, h.svc.TimelineAll(r.Context(), minutes))
		return
	}
	writeData(w, http.StatusOK, h.svc.Timeline(r.Context(), activity, minutes))
}

func (h *Handler) handleEmployee(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, h.svc.SubjectStats(r.Context(),
		chi.URLParam(r, "id"),
		queryInt(r, "time_window", 0),
	))
}

func (h *Handler) handleEmployees(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, h.svc.AllSubjectStats(r.Context(), queryInt(r, "time_window", 0)))
}

func (h *Handler) handleHourly(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, h.svc.Hourly(r.Context(), queryInt(r, "hours", 0)))
}

func (h *Handler) handleTrend(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, h.svc.Trend(r.Context(),
		chi.URLParam(r, "activity"),
		queryInt(r, "time_window", 0),
		queryInt(r, "intervals", 0),
	))
}

func (h *Handler) handleAlerts(w http.ResponseWriter, r *http.Request) {
	alerts := h.svc.Alerts(r.Context(), queryInt(r, "time_window", 0))
	if alerts == nil {
		alerts = []models.Alert{}
	}
	writeData(w, http.StatusOK, alerts)
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	h.svc.Reset(r.Context())
	writeData(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeData(w, http.StatusOK, map[string]string{"status": "ok"})
}

// queryInt parses an integer query parameter, falling back to def on absence
// or garbage. Query defaults live in the service; def here is usually 0,
// meaning "let the service decide".
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(dErrors.ToHTTPStatus(code))
	_ = json.NewEncoder(w).Encode(envelope{Success: false, Error: dErrors.MessageOf(err)})
}
