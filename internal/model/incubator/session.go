// Package incubator holds the session state produced by an incubation run.
package incubator

import (
	"time"

	"github.com/inceptionlabs/inception/backend/internal/model/agent"
)

// Status tracks a session or a single agent step through its lifecycle.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether s is a final state.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// AgentInsight is one specialist's terminal contribution to a session.
// Records are appended in panel order and never rewritten.
type AgentInsight struct {
	Role    agent.Role `json:"role"`
	Name    string     `json:"agent_name"`
	Status  Status     `json:"status"`
	Insight string     `json:"insight,omitempty"`
	Error   string     `json:"error,omitempty"`
}

// Session tracks one incubation run from submission to its terminal state.
// All mutation happens under the owning registry's lock; readers get copies.
type Session struct {
	ID              string         `json:"task_id"`
	BusinessIdea    string         `json:"business_idea"`
	Status          Status         `json:"status"`
	StartedAt       time.Time      `json:"started_at"`
	Deadline        time.Time      `json:"deadline"`
	Insights        []AgentInsight `json:"agent_insights"`
	BusinessPlan    string         `json:"business_plan,omitempty"`
	Error           string         `json:"error,omitempty"`
	ProgressLog     []string       `json:"progress_log"`
	DurationMinutes int            `json:"duration_minutes,omitempty"`
}

// Snapshot returns a copy safe to read outside the registry lock.
func (s *Session) Snapshot() Session {
	out := *s
	out.Insights = append([]AgentInsight(nil), s.Insights...)
	out.ProgressLog = append([]string(nil), s.ProgressLog...)
	return out
}

// CompletedAgents counts specialists whose analysis finished clean.
func (s *Session) CompletedAgents() int {
	n := 0
	for _, insight := range s.Insights {
		if insight.Status == StatusCompleted {
			n++
		}
	}
	return n
}

// CompletedInsights returns the clean analyses in panel order, ready to feed
// later prompts.
func (s *Session) CompletedInsights() []agent.PriorInsight {
	out := make([]agent.PriorInsight, 0, len(s.Insights))
	for _, insight := range s.Insights {
		if insight.Status != StatusCompleted {
			continue
		}
		out = append(out, agent.PriorInsight{
			Role: insight.Role,
			Name: insight.Name,
			Text: insight.Insight,
		})
	}
	return out
}
