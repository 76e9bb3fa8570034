// Package incubator exposes incubation sessions over HTTP: starting a run,
// polling its result, streaming progress, and describing the agent panel.
package incubator

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/inceptionlabs/inception/backend/internal/config"
	"github.com/inceptionlabs/inception/backend/internal/model/agent"
	"github.com/inceptionlabs/inception/backend/internal/model/incubator"
	incubatorService "github.com/inceptionlabs/inception/backend/internal/service/incubator"
	"github.com/inceptionlabs/inception/backend/pkg/utils"
)

// streamPollInterval is how often the SSE feed re-reads session state.
const streamPollInterval = 2 * time.Second

// Handler serves the incubation endpoints.
type Handler struct {
	svc    *incubatorService.Service
	agents agent.Store
	cfg    config.IncubatorConfig
	poll   time.Duration
}

// New creates an incubator handler.
func New(svc *incubatorService.Service, agents agent.Store, cfg config.IncubatorConfig) *Handler {
	return &Handler{svc: svc, agents: agents, cfg: cfg, poll: streamPollInterval}
}

// RegisterRoutes mounts the incubator endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/incubator", h.handleStart)
	r.Get("/incubator-status", h.handleStatus)
	r.Get("/incubator-result/{taskID}", h.handleResult)
	r.Get("/incubator-stream/{taskID}", h.handleStream)
}

// handleStart accepts a business idea and kicks off a session.
func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		BusinessIdea string `json:"business_idea"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.svc.Start(r.Context(), payload.BusinessIdea)
	if err != nil {
		if errors.Is(err, incubatorService.ErrIdeaRequired) {
			utils.RespondError(w, http.StatusBadRequest, "business_idea is required")
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, "failed to start incubator session")
		return
	}

	utils.RespondJSON(w, http.StatusAccepted, map[string]any{
		"task_id":                    session.ID,
		"status":                     session.Status,
		"message":                    "Incubator session started. Poll /incubator-result/" + session.ID + " for progress.",
		"estimated_duration_minutes": int(h.svc.EstimatedDuration().Minutes()),
	})
}

// handleResult returns the session snapshot for a task identifier.
func (h *Handler) handleResult(w http.ResponseWriter, r *http.Request) {
	session, err := h.svc.Get(chi.URLParam(r, "taskID"))
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, "incubator task not found")
		return
	}

	utils.RespondJSON(w, http.StatusOK, resultPayload(session))
}

// handleStatus describes the pipeline configuration and the agent panel.
func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	analysts := h.agents.Analysts()
	panel := make([]map[string]any, 0, len(analysts))
	for _, def := range analysts {
		panel = append(panel, map[string]any{
			"role":        def.Role,
			"name":        def.Name,
			"expertise":   def.Expertise,
			"focus_areas": def.FocusAreas,
		})
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
		"config": map[string]any{
			"duration_minutes":      int(h.cfg.Duration.Minutes()),
			"wrap_up_minutes":       int(h.cfg.WrapUp.Minutes()),
			"agent_timeout_seconds": int(h.cfg.AgentTimeout.Seconds()),
			"agents_backend":        backendLabel(h.cfg.RemoteAgents),
			"synthesis_backend":     backendLabel(h.cfg.RemoteSynthesis),
		},
		"agents": panel,
	})
}

// handleStream feeds session progress over SSE until the run reaches a
// terminal status, then emits the full result as a named event.
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")

	session, err := h.svc.Get(taskID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, "incubator task not found")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	utils.SetupSSEHeaders(w)

	sent := sendProgress(w, flusher, session, 0)
	if session.Status.Terminal() {
		utils.SendSSEEvent(w, flusher, "result", resultPayload(session))
		return
	}

	ticker := time.NewTicker(h.poll)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			session, err = h.svc.Get(taskID)
			if err != nil {
				utils.SendSSEEvent(w, flusher, "error", map[string]string{"error": "incubator task not found"})
				return
			}
			sent = sendProgress(w, flusher, session, sent)
			if session.Status.Terminal() {
				utils.SendSSEEvent(w, flusher, "result", resultPayload(session))
				return
			}
		}
	}
}

// sendProgress pushes the progress lines the client has not seen yet and
// returns the new high-water mark. An empty frame doubles as a heartbeat.
func sendProgress(w http.ResponseWriter, flusher http.Flusher, session incubator.Session, sent int) int {
	utils.SendSSEChunk(w, flusher, map[string]any{
		"event":        "progress",
		"task_id":      session.ID,
		"status":       session.Status,
		"progress_log": session.ProgressLog[sent:],
	})
	return len(session.ProgressLog)
}

// resultPayload shapes the session for the result endpoint and the terminal
// stream event. Completed and failed sessions carry different fields.
func resultPayload(session incubator.Session) map[string]any {
	switch session.Status {
	case incubator.StatusCompleted:
		return map[string]any{
			"task_id":          session.ID,
			"status":           session.Status,
			"business_idea":    session.BusinessIdea,
			"agent_insights":   session.Insights,
			"business_plan":    session.BusinessPlan,
			"progress_log":     session.ProgressLog,
			"duration_minutes": session.DurationMinutes,
			"completed_agents": session.CompletedAgents(),
		}
	case incubator.StatusFailed:
		return map[string]any{
			"task_id":        session.ID,
			"status":         session.Status,
			"error":          session.Error,
			"agent_insights": session.Insights,
			"progress_log":   session.ProgressLog,
		}
	default:
		return map[string]any{
			"task_id":      session.ID,
			"status":       session.Status,
			"progress_log": session.ProgressLog,
		}
	}
}

func backendLabel(remote bool) string {
	if remote {
		return "remote"
	}
	return "local"
}
