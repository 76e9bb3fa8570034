package incubator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/go-chi/chi/v5"

	"github.com/inceptionlabs/inception/backend/internal/config"
	"github.com/inceptionlabs/inception/backend/internal/model/agent"
	incubatorService "github.com/inceptionlabs/inception/backend/internal/service/incubator"
	"github.com/inceptionlabs/inception/backend/internal/service/llm"
	"github.com/inceptionlabs/inception/backend/internal/service/memory"
)

// scriptedModel replays queued replies in order.
type scriptedModel struct {
	mu      sync.Mutex
	replies []string
}

func (m *scriptedModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.replies) == 0 {
		return nil, errors.New("scripted model exhausted")
	}
	reply := m.replies[0]
	m.replies = m.replies[1:]
	return schema.AssistantMessage(reply, nil), nil
}

func (m *scriptedModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (m *scriptedModel) BindTools(tools []*schema.ToolInfo) error { return nil }

// gatedModel blocks every call until release is closed, keeping a session
// observably in flight.
type gatedModel struct {
	inner   *scriptedModel
	release chan struct{}
}

func (m *gatedModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	select {
	case <-m.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return m.inner.Generate(ctx, input, opts...)
}

func (m *gatedModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (m *gatedModel) BindTools(tools []*schema.ToolInfo) error { return nil }

func testConfig() config.IncubatorConfig {
	return config.IncubatorConfig{
		Duration:     time.Hour,
		WrapUp:       time.Minute,
		AgentTimeout: 5 * time.Second,
	}
}

func fullSessionReplies() []string {
	pad := strings.Repeat("solid findings with concrete recommendations. ", 3)
	return []string{
		"marketing: " + pad,
		"financial: " + pad,
		"market: " + pad,
		"technical: " + pad,
		"risk: " + pad,
		"A full business plan covering market, finances and execution.",
	}
}

func setup(t *testing.T, cfg config.IncubatorConfig, local model.ChatModel) (*chi.Mux, *Handler) {
	t.Helper()
	completions, err := llm.NewService(context.Background(), local, nil)
	if err != nil {
		t.Fatalf("llm.NewService() error = %v", err)
	}
	agents := agent.NewMemoryStore(agent.Seed())
	mem := memory.NewStore(filepath.Join(t.TempDir(), "memory.yaml"))
	svc := incubatorService.NewService(cfg, completions, agents, mem)
	handler := New(svc, agents, cfg)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, handler
}

func doJSON(r *chi.Mux, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func getResult(t *testing.T, r *chi.Mux, taskID string) map[string]any {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/incubator-result/"+taskID, nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("result returned %d: %s", resp.Code, resp.Body.String())
	}

	var body map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid result body: %v", err)
	}
	return body
}

func waitForStatus(t *testing.T, r *chi.Mux, taskID, want string) map[string]any {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		body := getResult(t, r, taskID)
		if body["status"] == want {
			return body
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("session %s never reached status %q", taskID, want)
	return nil
}

func TestStartAndCompleteSession(t *testing.T) {
	r, _ := setup(t, testConfig(), &scriptedModel{replies: fullSessionReplies()})

	resp := doJSON(r, http.MethodPost, "/incubator", `{"business_idea":"A subscription box for rare teas"}`)
	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", resp.Code, resp.Body.String())
	}

	var accepted struct {
		TaskID                   string `json:"task_id"`
		Status                   string `json:"status"`
		Message                  string `json:"message"`
		EstimatedDurationMinutes int    `json:"estimated_duration_minutes"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &accepted); err != nil {
		t.Fatalf("invalid accept body: %v", err)
	}
	if accepted.TaskID == "" {
		t.Fatal("accept body missing task_id")
	}
	if accepted.Status != "queued" {
		t.Errorf("status = %q, want queued", accepted.Status)
	}
	if accepted.EstimatedDurationMinutes != 60 {
		t.Errorf("estimated_duration_minutes = %d, want 60", accepted.EstimatedDurationMinutes)
	}
	if !strings.Contains(accepted.Message, accepted.TaskID) {
		t.Errorf("message %q does not reference the task id", accepted.Message)
	}

	body := waitForStatus(t, r, accepted.TaskID, "completed")

	insights, ok := body["agent_insights"].([]any)
	if !ok || len(insights) != 5 {
		t.Fatalf("agent_insights = %v", body["agent_insights"])
	}
	first, _ := insights[0].(map[string]any)
	if first["role"] != "marketing_expert" || first["status"] != "completed" {
		t.Errorf("first insight = %v", first)
	}
	if plan, _ := body["business_plan"].(string); plan == "" {
		t.Error("completed result missing business_plan")
	}
	if got, _ := body["completed_agents"].(float64); got != 5 {
		t.Errorf("completed_agents = %v, want 5", body["completed_agents"])
	}
	if _, ok := body["duration_minutes"]; !ok {
		t.Error("completed result missing duration_minutes")
	}
	if log, _ := body["progress_log"].([]any); len(log) == 0 {
		t.Error("completed result missing progress_log")
	}
}

func TestStartRejectsEmptyIdea(t *testing.T) {
	r, _ := setup(t, testConfig(), &scriptedModel{})

	resp := doJSON(r, http.MethodPost, "/incubator", `{"business_idea":"   "}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestStartRejectsMalformedBody(t *testing.T) {
	r, _ := setup(t, testConfig(), &scriptedModel{})

	resp := doJSON(r, http.MethodPost, "/incubator", `{broken`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestResultUnknownTask(t *testing.T) {
	r, _ := setup(t, testConfig(), &scriptedModel{})

	req := httptest.NewRequest(http.MethodGet, "/incubator-result/no-such-task", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestResultWhileProcessing(t *testing.T) {
	gate := make(chan struct{})
	local := &gatedModel{
		inner:   &scriptedModel{replies: fullSessionReplies()},
		release: gate,
	}
	r, _ := setup(t, testConfig(), local)

	resp := doJSON(r, http.MethodPost, "/incubator", `{"business_idea":"A subscription box for rare teas"}`)
	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.Code)
	}
	var accepted struct {
		TaskID string `json:"task_id"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &accepted); err != nil {
		t.Fatalf("invalid accept body: %v", err)
	}

	// With the gate closed the session cannot reach a terminal state.
	body := getResult(t, r, accepted.TaskID)
	status, _ := body["status"].(string)
	if status != "queued" && status != "processing" {
		t.Fatalf("in-flight status = %q", status)
	}
	if _, ok := body["business_plan"]; ok {
		t.Error("in-flight result exposes business_plan")
	}
	firstLog, ok := body["progress_log"].([]any)
	if !ok {
		t.Fatal("in-flight result missing progress_log")
	}

	again := getResult(t, r, accepted.TaskID)
	secondLog, ok := again["progress_log"].([]any)
	if !ok {
		t.Fatal("second poll missing progress_log")
	}
	if len(secondLog) < len(firstLog) {
		t.Errorf("progress_log shrank between polls: %d -> %d", len(firstLog), len(secondLog))
	}

	close(gate)
	waitForStatus(t, r, accepted.TaskID, "completed")
}

func TestStatusDescribesPanel(t *testing.T) {
	r, _ := setup(t, testConfig(), &scriptedModel{})

	req := httptest.NewRequest(http.MethodGet, "/incubator-status", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var body struct {
		Status string `json:"status"`
		Config struct {
			DurationMinutes     int    `json:"duration_minutes"`
			WrapUpMinutes       int    `json:"wrap_up_minutes"`
			AgentTimeoutSeconds int    `json:"agent_timeout_seconds"`
			AgentsBackend       string `json:"agents_backend"`
			SynthesisBackend    string `json:"synthesis_backend"`
		} `json:"config"`
		Agents []struct {
			Role      string `json:"role"`
			Name      string `json:"name"`
			Expertise string `json:"expertise"`
		} `json:"agents"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid status body: %v", err)
	}

	if body.Status != "ready" {
		t.Errorf("status = %q", body.Status)
	}
	if body.Config.DurationMinutes != 60 || body.Config.WrapUpMinutes != 1 || body.Config.AgentTimeoutSeconds != 5 {
		t.Errorf("config = %+v", body.Config)
	}
	if body.Config.AgentsBackend != "local" || body.Config.SynthesisBackend != "local" {
		t.Errorf("backends = %q/%q", body.Config.AgentsBackend, body.Config.SynthesisBackend)
	}
	if len(body.Agents) != 5 {
		t.Fatalf("agents = %d, want 5", len(body.Agents))
	}
	if body.Agents[0].Role != "marketing_expert" || body.Agents[0].Name == "" {
		t.Errorf("first agent = %+v", body.Agents[0])
	}
}

func TestStreamEmitsResultEvent(t *testing.T) {
	r, handler := setup(t, testConfig(), &scriptedModel{replies: fullSessionReplies()})
	handler.poll = 5 * time.Millisecond

	resp := doJSON(r, http.MethodPost, "/incubator", `{"business_idea":"A subscription box for rare teas"}`)
	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.Code)
	}
	var accepted struct {
		TaskID string `json:"task_id"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &accepted); err != nil {
		t.Fatalf("invalid accept body: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/incubator-stream/"+accepted.TaskID, nil)
	stream := httptest.NewRecorder()
	r.ServeHTTP(stream, req)

	if got := stream.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("Content-Type = %q", got)
	}
	out := stream.Body.String()
	if !strings.Contains(out, "data: ") {
		t.Fatalf("stream carried no frames: %q", out)
	}
	if !strings.Contains(out, "event: result") {
		t.Errorf("stream missing terminal result event: %q", out)
	}
	if !strings.Contains(out, `"status":"completed"`) {
		t.Errorf("terminal frame not completed: %q", out)
	}
	if !strings.Contains(out, fmt.Sprintf(`"task_id":"%s"`, accepted.TaskID)) {
		t.Errorf("stream frames missing task id: %q", out)
	}
}

func TestStreamUnknownTask(t *testing.T) {
	r, _ := setup(t, testConfig(), &scriptedModel{})

	req := httptest.NewRequest(http.MethodGet, "/incubator-stream/no-such-task", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}
