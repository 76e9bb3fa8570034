package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/inceptionlabs/inception/backend/internal/config"
	chatHandler "github.com/inceptionlabs/inception/backend/internal/handler/chat"
	incubatorHandler "github.com/inceptionlabs/inception/backend/internal/handler/incubator"
	middlewarePkg "github.com/inceptionlabs/inception/backend/internal/middleware"
	"github.com/inceptionlabs/inception/backend/internal/model/agent"
	delegationService "github.com/inceptionlabs/inception/backend/internal/service/delegation"
	incubatorService "github.com/inceptionlabs/inception/backend/internal/service/incubator"
	"github.com/inceptionlabs/inception/backend/internal/service/llm"
	threadService "github.com/inceptionlabs/inception/backend/internal/service/thread"
	"github.com/inceptionlabs/inception/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(cfg config.IncubatorConfig, agents agent.Store, incubatorSvc *incubatorService.Service, delegationSvc *delegationService.Service, completions *llm.Service, threads *threadService.Store) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprint(w, "Inception backend running")
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	chatHandler.New(delegationSvc, completions, threads).RegisterRoutes(r)
	incubatorHandler.New(incubatorSvc, agents, cfg).RegisterRoutes(r)

	return r
}
