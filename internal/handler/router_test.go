package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/inceptionlabs/inception/backend/internal/config"
	"github.com/inceptionlabs/inception/backend/internal/model/agent"
	delegationService "github.com/inceptionlabs/inception/backend/internal/service/delegation"
	incubatorService "github.com/inceptionlabs/inception/backend/internal/service/incubator"
	"github.com/inceptionlabs/inception/backend/internal/service/llm"
	"github.com/inceptionlabs/inception/backend/internal/service/memory"
	threadService "github.com/inceptionlabs/inception/backend/internal/service/thread"
)

// setupRouter builds the full route tree with no configured backends.
func setupRouter(t *testing.T) http.Handler {
	t.Helper()
	completions, err := llm.NewService(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("llm.NewService() error = %v", err)
	}

	incCfg := config.IncubatorConfig{
		Duration:     time.Hour,
		WrapUp:       time.Minute,
		AgentTimeout: 5 * time.Second,
	}
	agents := agent.NewMemoryStore(agent.Seed())
	mem := memory.NewStore(filepath.Join(t.TempDir(), "memory.yaml"))
	incubatorSvc := incubatorService.NewService(incCfg, completions, agents, mem)
	delegationSvc := delegationService.NewService(completions, config.DelegationConfig{
		ShortMaxChars:  140,
		RemoteForShort: true,
		StageTimeout:   time.Second,
	})

	threads := threadService.NewStore(filepath.Join(t.TempDir(), "chat_history"))

	return NewRouter(incCfg, agents, incubatorSvc, delegationSvc, completions, threads)
}

func TestHealthz(t *testing.T) {
	r := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %q", resp.Body.String())
	}
}

func TestRootBanner(t *testing.T) {
	r := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "Inception backend running") {
		t.Errorf("body = %q", resp.Body.String())
	}
}

func TestCORSPreflight(t *testing.T) {
	r := setupRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
	if got := resp.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestRouteSurface(t *testing.T) {
	r := setupRouter(t)

	tests := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{http.MethodGet, "/incubator-status", "", http.StatusOK},
		{http.MethodGet, "/debug-delegation", "", http.StatusOK},
		{http.MethodPost, "/chat", `{"message":"hi"}`, http.StatusBadGateway},
		{http.MethodGet, "/debug-grok", "", http.StatusBadGateway},
		{http.MethodGet, "/incubator-result/missing", "", http.StatusNotFound},
		{http.MethodGet, "/nope", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		var req *http.Request
		if tt.body != "" {
			req = httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
		} else {
			req = httptest.NewRequest(tt.method, tt.path, nil)
		}
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)

		if resp.Code != tt.want {
			t.Errorf("%s %s returned %d, want %d", tt.method, tt.path, resp.Code, tt.want)
		}
	}
}
