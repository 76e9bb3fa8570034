// Package chat exposes the delegation-backed chat endpoint and its debug
// surfaces.
package chat

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/inceptionlabs/inception/backend/internal/model/thread"
	delegationService "github.com/inceptionlabs/inception/backend/internal/service/delegation"
	"github.com/inceptionlabs/inception/backend/internal/service/llm"
	threadService "github.com/inceptionlabs/inception/backend/internal/service/thread"
	"github.com/inceptionlabs/inception/backend/pkg/utils"
)

// Handler serves chat completions through the chief-executive delegation flow.
type Handler struct {
	delegation *delegationService.Service
	llm        *llm.Service
	threads    *threadService.Store
}

// New creates a chat handler.
func New(delegation *delegationService.Service, completions *llm.Service, threads *threadService.Store) *Handler {
	return &Handler{delegation: delegation, llm: completions, threads: threads}
}

// RegisterRoutes mounts the chat and debug endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)
	r.Get("/debug-grok", h.handleDebugGrok)
	r.Get("/debug-delegation", h.handleDebugDelegation)
}

// handleChat answers one user message. Clients send {"message"}; the legacy
// {"prompt"} key is accepted as a fallback. The exchange is appended to the
// shared thread unless the client names its own.
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Message  string `json:"message"`
		Prompt   string `json:"prompt"`
		ThreadID string `json:"thread_id"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	message := payload.Message
	if message == "" {
		message = payload.Prompt
	}

	answer, err := h.delegation.Respond(r.Context(), message)
	if err != nil {
		if errors.Is(err, delegationService.ErrMessageRequired) {
			utils.RespondError(w, http.StatusBadRequest, "message is required")
			return
		}
		utils.RespondError(w, http.StatusBadGateway, err.Error())
		return
	}

	threadID := payload.ThreadID
	if threadID == "" {
		threadID = threadService.SharedThreadID
	}

	body := map[string]any{"response": answer}
	length, err := h.threads.Append(threadID, thread.User(message), thread.Assistant(answer))
	if err != nil {
		// The answer still reaches the client when the transcript write fails.
		log.Printf("[chat] failed to persist thread %s: %v", threadID, err)
	} else {
		body["thread_length"] = length
	}

	utils.RespondJSON(w, http.StatusOK, body)
}

// handleDebugGrok pings the remote backend for a quick connectivity check.
func (h *Handler) handleDebugGrok(w http.ResponseWriter, r *http.Request) {
	response, err := h.llm.Complete(r.Context(), llm.BackendRemote, "", "Ping")
	if err != nil {
		utils.RespondJSON(w, http.StatusBadGateway, map[string]string{
			"status": "failed",
			"error":  err.Error(),
		})
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"status":   "working",
		"response": response,
	})
}

// handleDebugDelegation runs the canned delegation task and reports every
// stage. Failures land in the diagnostics body, not the HTTP status.
func (h *Handler) handleDebugDelegation(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.delegation.Diagnose(r.Context()))
}
