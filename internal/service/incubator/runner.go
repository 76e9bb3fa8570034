package incubator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/inceptionlabs/inception/backend/internal/model/agent"
	"github.com/inceptionlabs/inception/backend/internal/model/incubator"
	"github.com/inceptionlabs/inception/backend/internal/service/llm"
	"github.com/inceptionlabs/inception/backend/pkg/utils"
)

const (
	// minInsightRunes is the shortest analysis accepted as a real answer.
	minInsightRunes = 50
	// synthesisInsightRunes caps each insight handed to the synthesizer.
	synthesisInsightRunes    = 800
	synthesisTruncatedNotice = "\n[... content truncated for synthesis ...]"
	// maxSynthesisPromptRunes keeps the synthesis prompt inside the local
	// model's context window; overflow keeps the head and tail.
	maxSynthesisPromptRunes = 2500
)

// run drives one session through the agent panel and synthesis. It owns the
// session's status transitions from processing to a terminal state.
func (s *Service) run(ctx context.Context, taskID, businessIdea string, timeline Timeline) {
	s.mutate(taskID, func(session *incubator.Session) {
		session.Status = incubator.StatusProcessing
	})
	s.addProgress(taskID, "Starting incubator session for business idea evaluation")

	analysts := s.agents.Analysts()
	s.addProgress(taskID, fmt.Sprintf("Initialized %d specialized agents", len(analysts)))

	skipFrom := -1
	for i, def := range analysts {
		if timeline.ForceSynthesis(time.Now()) {
			s.addProgress(taskID, "Wrap-up reached before all agents completed")
			skipFrom = i
			break
		}
		s.runAgent(ctx, taskID, def, businessIdea, timeline)
	}

	if skipFrom >= 0 {
		for _, def := range analysts[skipFrom:] {
			s.appendInsight(taskID, incubator.AgentInsight{
				Role:   def.Role,
				Name:   def.Name,
				Status: incubator.StatusFailed,
				Error:  "session wrap-up reached before this agent could run",
			})
		}
	}

	s.synthesize(ctx, taskID, businessIdea, timeline)
}

// runAgent executes one specialist analysis and appends its terminal record.
// One attempt per agent; a timeout or backend error fails the step and the
// session moves on.
func (s *Service) runAgent(ctx context.Context, taskID string, def agent.Definition, businessIdea string, timeline Timeline) {
	s.addProgress(taskID, fmt.Sprintf("Running %s analysis...", def.Name))

	now := time.Now()
	minutesRemaining := -1
	if timeline.FinalStretch(now, s.cfg.AgentTimeout) {
		minutesRemaining = timeline.RemainingMinutes(now)
		s.addProgress(taskID, fmt.Sprintf("Wrap-up phase: %d minutes remaining", minutesRemaining))
	}

	prompt := agent.BuildAnalysisPrompt(def, businessIdea, s.priorInsights(taskID), minutesRemaining)
	if memCtx := s.memory.RecentContext(def.Role, 3); memCtx != "" {
		prompt = fmt.Sprintf("%s\n\n## Relevant Context from Previous Sessions\n%s\n\nPlease consider this context when providing your analysis.", prompt, memCtx)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.AgentTimeout)
	insight, err := s.llm.Complete(callCtx, s.agentBackend(), def.Persona, prompt)
	cancel()

	if err == nil && utf8.RuneCountInString(insight) < minInsightRunes {
		err = fmt.Errorf("%s returned empty or insufficient response", def.Name)
	}
	if err != nil {
		s.appendInsight(taskID, incubator.AgentInsight{
			Role:   def.Role,
			Name:   def.Name,
			Status: incubator.StatusFailed,
			Error:  err.Error(),
		})
		s.addProgress(taskID, fmt.Sprintf("%s analysis failed: %s", def.Name, utils.TruncateRunes(err.Error(), 100, "")))
		return
	}

	insight = strings.TrimSpace(strings.ReplaceAll(insight, agent.AnalysisCompleteMarker, ""))
	s.appendInsight(taskID, incubator.AgentInsight{
		Role:    def.Role,
		Name:    def.Name,
		Status:  incubator.StatusCompleted,
		Insight: insight,
	})
	s.addProgress(taskID, fmt.Sprintf("%s analysis completed (%d chars)", def.Name, utf8.RuneCountInString(insight)))
}

// synthesize runs the single consolidation attempt and moves the session to
// its terminal state. It always runs, even when no agent completed.
func (s *Service) synthesize(ctx context.Context, taskID, businessIdea string, timeline Timeline) {
	coordinator, ok := s.agents.FindByRole(agent.RoleCEACoordinator)
	if !ok {
		s.fail(taskID, "Synthesis failed: coordinator agent not configured")
		return
	}

	now := time.Now()
	s.addProgress(taskID, fmt.Sprintf("Starting synthesis phase (%d minutes elapsed)", timeline.ElapsedMinutes(now)))

	insights := s.priorInsights(taskID)
	for i := range insights {
		insights[i].Text = utils.TruncateRunes(insights[i].Text, synthesisInsightRunes, synthesisTruncatedNotice)
	}

	prompt := agent.BuildSynthesisPrompt(coordinator, businessIdea, insights, timeline.ElapsedMinutes(now))
	prompt = capSynthesisPrompt(prompt)

	callCtx, cancel := context.WithTimeout(ctx, 2*s.cfg.AgentTimeout)
	plan, err := s.llm.Complete(callCtx, s.synthesisBackend(), coordinator.Persona, prompt)
	cancel()

	if err != nil {
		message := "Synthesis failed: " + err.Error()
		if errors.Is(err, llm.ErrEmptyCompletion) {
			message = "Synthesis returned empty response"
		}
		s.fail(taskID, message)
		return
	}

	plan = strings.TrimSpace(strings.ReplaceAll(plan, agent.SynthesisCompleteMarker, ""))
	s.addProgress(taskID, fmt.Sprintf("Synthesis completed - Business plan generated (%d chars)", utf8.RuneCountInString(plan)))

	duration := timeline.ElapsedMinutes(time.Now())
	s.mutate(taskID, func(session *incubator.Session) {
		session.Status = incubator.StatusCompleted
		session.BusinessPlan = plan
		session.DurationMinutes = duration
	})
	s.addProgress(taskID, fmt.Sprintf("Incubator session completed successfully in %d minutes", duration))
	s.persist(taskID)
}

// fail records the terminal failure and persists the partial session.
func (s *Service) fail(taskID, message string) {
	s.mutate(taskID, func(session *incubator.Session) {
		session.Status = incubator.StatusFailed
		session.Error = message
	})
	s.addProgress(taskID, message)
	s.persist(taskID)
}

func (s *Service) agentBackend() llm.Backend {
	if s.cfg.RemoteAgents {
		return llm.BackendRemote
	}
	return llm.BackendLocal
}

func (s *Service) synthesisBackend() llm.Backend {
	if s.cfg.RemoteSynthesis {
		return llm.BackendRemote
	}
	return llm.BackendLocal
}

// capSynthesisPrompt bounds the rendered prompt, keeping its head and tail
// with a notice replacing the middle.
func capSynthesisPrompt(prompt string) string {
	runes := []rune(prompt)
	if len(runes) <= maxSynthesisPromptRunes {
		return prompt
	}

	log.Printf("[incubator] synthesis prompt too long (%d chars), truncating to %d", len(runes), maxSynthesisPromptRunes)
	keep := maxSynthesisPromptRunes/2 - 200
	return string(runes[:keep]) + "\n\n[... agent insights truncated for context ...]\n\n" + string(runes[len(runes)-keep:])
}
