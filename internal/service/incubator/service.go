// Package incubator coordinates incubation sessions: a fixed panel of
// specialist agents analyzes a business idea in sequence, a coordinator
// synthesizes their insights into a business plan, and every run is bounded
// by a wall-clock timeline.
package incubator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/inceptionlabs/inception/backend/internal/config"
	"github.com/inceptionlabs/inception/backend/internal/model/agent"
	"github.com/inceptionlabs/inception/backend/internal/model/incubator"
	"github.com/inceptionlabs/inception/backend/internal/service/llm"
	"github.com/inceptionlabs/inception/backend/internal/service/memory"
)

var (
	// ErrIdeaRequired rejects session starts without a business idea.
	ErrIdeaRequired = errors.New("business idea is required")
	// ErrTaskNotFound reports a lookup for an unknown task identifier.
	ErrTaskNotFound = errors.New("incubator task not found")
)

// maxTrackedSessions bounds the in-process registry. Finished sessions are
// evicted oldest first once the registry is over capacity; running sessions
// are never evicted.
const maxTrackedSessions = 100

// Service runs incubation sessions and keeps their state queryable by task
// identifier.
type Service struct {
	cfg    config.IncubatorConfig
	llm    *llm.Service
	agents agent.Store
	memory *memory.Store

	mu       sync.RWMutex
	sessions map[string]*incubator.Session
	order    []string
}

// NewService wires the session coordinator with its completion backends,
// agent panel and cross-session memory.
func NewService(cfg config.IncubatorConfig, completions *llm.Service, agents agent.Store, mem *memory.Store) *Service {
	return &Service{
		cfg:      cfg,
		llm:      completions,
		agents:   agents,
		memory:   mem,
		sessions: make(map[string]*incubator.Session),
	}
}

// Start validates the idea, registers a queued session and kicks off the
// pipeline in the background. The queued session is returned immediately;
// progress is retrieved via Get.
func (s *Service) Start(_ context.Context, businessIdea string) (incubator.Session, error) {
	idea := strings.TrimSpace(businessIdea)
	if idea == "" {
		return incubator.Session{}, ErrIdeaRequired
	}

	now := time.Now()
	session := &incubator.Session{
		ID:           uuid.NewString(),
		BusinessIdea: idea,
		Status:       incubator.StatusQueued,
		StartedAt:    now,
		Deadline:     now.Add(s.cfg.Duration),
		Insights:     []incubator.AgentInsight{},
		ProgressLog:  []string{},
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.order = append(s.order, session.ID)
	s.evictLocked()
	snapshot := session.Snapshot()
	s.mu.Unlock()

	timeline := NewTimeline(now, s.cfg.Duration, s.cfg.WrapUp)
	runCtx, cancel := context.WithDeadline(context.Background(), timeline.Deadline())
	go func() {
		defer cancel()
		s.run(runCtx, session.ID, idea, timeline)
	}()

	return snapshot, nil
}

// Get returns a point-in-time snapshot of the session.
func (s *Service) Get(taskID string) (incubator.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[taskID]
	if !ok {
		return incubator.Session{}, ErrTaskNotFound
	}
	return session.Snapshot(), nil
}

// EstimatedDuration is the configured session length, quoted back to callers
// when a session is accepted.
func (s *Service) EstimatedDuration() time.Duration {
	return s.cfg.Duration
}

// mutate applies fn to the live session under the registry lock. Unknown
// identifiers are ignored; the session may have been evicted.
func (s *Service) mutate(taskID string, fn func(*incubator.Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session, ok := s.sessions[taskID]; ok {
		fn(session)
	}
}

func (s *Service) addProgress(taskID, message string) {
	stamp := time.Now().Format("15:04:05")
	s.mutate(taskID, func(session *incubator.Session) {
		session.ProgressLog = append(session.ProgressLog, fmt.Sprintf("[%s] %s", stamp, message))
	})
	log.Printf("[incubator] %s: %s", taskID, message)
}

func (s *Service) appendInsight(taskID string, insight incubator.AgentInsight) {
	s.mutate(taskID, func(session *incubator.Session) {
		session.Insights = append(session.Insights, insight)
	})
}

// priorInsights returns the completed analyses collected so far, in panel
// order, for feeding later prompts.
func (s *Service) priorInsights(taskID string) []agent.PriorInsight {
	session, err := s.Get(taskID)
	if err != nil {
		return nil
	}
	return session.CompletedInsights()
}

// persist appends the terminal session to cross-session memory.
func (s *Service) persist(taskID string) {
	session, err := s.Get(taskID)
	if err != nil {
		return
	}
	if err := s.memory.Append(session); err != nil {
		log.Printf("[incubator] failed to persist session %s: %v", taskID, err)
	}
}

func (s *Service) evictLocked() {
	for len(s.order) > maxTrackedSessions {
		evicted := false
		for i, id := range s.order {
			session, ok := s.sessions[id]
			if ok && !session.Status.Terminal() {
				continue
			}
			delete(s.sessions, id)
			s.order = append(s.order[:i], s.order[i+1:]...)
			evicted = true
			break
		}
		if !evicted {
			return
		}
	}
}
