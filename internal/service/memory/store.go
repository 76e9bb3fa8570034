// Package memory persists incubation history to the YAML memory file shared
// with the rest of the deployment.
package memory

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/inceptionlabs/inception/backend/internal/model/agent"
	"github.com/inceptionlabs/inception/backend/internal/model/incubator"
	"github.com/inceptionlabs/inception/backend/pkg/utils"
)

const (
	maxSessionRecords = 20
	maxInsightRecords = 100
	maxProgressLines  = 50

	planStorageRunes    = 5000
	insightStorageRunes = 1000
	ideaStorageRunes    = 200

	contextIdeaRunes    = 100
	contextInsightRunes = 300
)

// SessionRecord is one entry of the incubator_sessions collection.
type SessionRecord struct {
	SessionID         string            `yaml:"session_id"`
	BusinessIdea      string            `yaml:"business_idea"`
	StartTime         string            `yaml:"start_time"`
	EndTime           string            `yaml:"end_time"`
	Status            string            `yaml:"status"`
	AgentInsights     map[string]string `yaml:"agent_insights"`
	AgentStatus       map[string]string `yaml:"agent_status"`
	FinalBusinessPlan string            `yaml:"final_business_plan,omitempty"`
	ProgressLog       []string          `yaml:"progress_log"`
}

// InsightRecord is one entry of the agent_insights_history collection.
type InsightRecord struct {
	SessionID    string `yaml:"session_id"`
	AgentRole    string `yaml:"agent_role"`
	BusinessIdea string `yaml:"business_idea"`
	Insight      string `yaml:"insight"`
	Timestamp    string `yaml:"timestamp"`
}

// document is the full memory.yaml contents. Sections owned by other parts
// of the deployment ride along in Rest and survive rewrites untouched.
type document struct {
	IncubatorSessions    []SessionRecord `yaml:"incubator_sessions"`
	AgentInsightsHistory []InsightRecord `yaml:"agent_insights_history"`
	Rest                 map[string]any  `yaml:",inline"`
}

// Store appends incubation history to the memory file and serves prior
// sessions back as prompt context. It is safe for concurrent use from
// multiple goroutines.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore returns a Store writing to path. The file and its directory are
// created on first append.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the memory file location.
func (s *Store) Path() string {
	return s.path
}

// Append folds one terminal session into the memory file: the session record
// joins incubator_sessions (last 20 kept) and each completed analysis joins
// agent_insights_history (last 100 kept). The write is load-modify-rename so
// readers never observe a half-written file.
func (s *Store) Append(session incubator.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load()

	doc.IncubatorSessions = append(doc.IncubatorSessions, buildSessionRecord(session))
	if overflow := len(doc.IncubatorSessions) - maxSessionRecords; overflow > 0 {
		doc.IncubatorSessions = doc.IncubatorSessions[overflow:]
	}

	for _, insight := range session.Insights {
		if insight.Status != incubator.StatusCompleted {
			continue
		}
		doc.AgentInsightsHistory = append(doc.AgentInsightsHistory, InsightRecord{
			SessionID:    session.ID,
			AgentRole:    string(insight.Role),
			BusinessIdea: utils.TruncateRunes(session.BusinessIdea, ideaStorageRunes, ""),
			Insight:      utils.TruncateRunes(insight.Insight, insightStorageRunes, ""),
			Timestamp:    session.StartedAt.Format(time.RFC3339),
		})
	}
	if overflow := len(doc.AgentInsightsHistory) - maxInsightRecords; overflow > 0 {
		doc.AgentInsightsHistory = doc.AgentInsightsHistory[overflow:]
	}

	if err := s.save(doc); err != nil {
		return fmt.Errorf("failed to save memory file: %w", err)
	}
	return nil
}

// RecentContext renders same-role insights from the most recent sessions for
// inclusion in an analysis prompt. Empty when there is no usable history.
func (s *Store) RecentContext(role agent.Role, limit int) string {
	s.mu.Lock()
	doc := s.load()
	s.mu.Unlock()

	sessions := doc.IncubatorSessions
	if limit > 0 && len(sessions) > limit {
		sessions = sessions[len(sessions)-limit:]
	}

	var parts []string
	for _, record := range sessions {
		if record.AgentStatus[string(role)] != string(incubator.StatusCompleted) {
			continue
		}
		insight := record.AgentInsights[string(role)]
		if insight == "" {
			continue
		}
		parts = append(parts,
			fmt.Sprintf("Previous session - Business Idea: %s...", utils.TruncateRunes(record.BusinessIdea, contextIdeaRunes, "")),
			fmt.Sprintf("%s Insight: %s...", roleTitle(role), utils.TruncateRunes(insight, contextInsightRunes, "")),
			"---",
		)
	}

	return strings.Join(parts, "\n")
}

func buildSessionRecord(session incubator.Session) SessionRecord {
	insights := make(map[string]string, len(session.Insights))
	statuses := make(map[string]string, len(session.Insights))
	for _, insight := range session.Insights {
		statuses[string(insight.Role)] = string(insight.Status)
		if insight.Status == incubator.StatusCompleted {
			insights[string(insight.Role)] = insight.Insight
		} else {
			insights[string(insight.Role)] = insight.Error
		}
	}

	progress := session.ProgressLog
	if len(progress) > maxProgressLines {
		progress = progress[len(progress)-maxProgressLines:]
	}

	return SessionRecord{
		SessionID:         session.ID,
		BusinessIdea:      session.BusinessIdea,
		StartTime:         session.StartedAt.Format(time.RFC3339),
		EndTime:           session.Deadline.Format(time.RFC3339),
		Status:            string(session.Status),
		AgentInsights:     insights,
		AgentStatus:       statuses,
		FinalBusinessPlan: utils.TruncateRunes(session.BusinessPlan, planStorageRunes, ""),
		ProgressLog:       append([]string(nil), progress...),
	}
}

// load reads the memory file. A missing or unreadable file degrades to an
// empty document so sessions keep completing.
func (s *Store) load() document {
	var doc document

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[memory] failed to read %s: %v", s.path, err)
		}
		return doc
	}

	if err := yaml.Unmarshal(data, &doc); err != nil {
		log.Printf("[memory] failed to parse %s, starting fresh: %v", s.path, err)
		return document{}
	}
	return doc
}

func (s *Store) save(doc document) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal memory: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create memory dir: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp memory file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("rename temp memory file: %w", err)
	}
	return nil
}

// roleTitle renders a role identifier for prompt text, e.g.
// marketing_expert -> Marketing Expert.
func roleTitle(role agent.Role) string {
	words := strings.Split(string(role), "_")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
