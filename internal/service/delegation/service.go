// Package delegation implements the chief-executive-agent flow behind chat:
// short prompts fast-path to the remote model, longer tasks are analyzed by
// the local CEA, executed by the remote worker, and synthesized back into a
// deliverable.
package delegation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/inceptionlabs/inception/backend/internal/analysis/truncation"
	"github.com/inceptionlabs/inception/backend/internal/config"
	"github.com/inceptionlabs/inception/backend/internal/service/llm"
)

// Answer paths reported in diagnostics.
const (
	PathFast      = "fast"
	PathDelegated = "delegated"
	PathFallback  = "fallback"
)

// debugTask is the built-in exercise Diagnose runs end to end.
const debugTask = "Plan an ad campaign for coffee, delegate copy to worker."

// fastPathContinuations bounds the completion pass on fast-path answers.
const fastPathContinuations = 3

const (
	analyzeSystem = "You are CEA. Analyse and delegate the following task to the worker if needed.\n" +
		"Return either a JSON with keys: 'delegation': {'instruction':..., 'deliverable':...}\n" +
		"or plain text representing the worker instruction."
	synthesizeSystem = "You are CEA. Given this worker output, create the final deliverable for the user."
)

var (
	// ErrMessageRequired rejects chat requests without text.
	ErrMessageRequired = errors.New("chat message is required")
	// ErrNoBackend reports that neither chat backend is configured.
	ErrNoBackend = errors.New("no chat backend configured")
)

// Stage records a single model call made while answering one message.
type Stage struct {
	Name    string `json:"name"`
	Backend string `json:"backend"`
	Chars   int    `json:"chars"`
	Error   string `json:"error,omitempty"`
}

// Diagnostics describes how the delegation flow produced an answer.
type Diagnostics struct {
	Task      string  `json:"task,omitempty"`
	Path      string  `json:"path"`
	Stages    []Stage `json:"stages"`
	Answer    string  `json:"answer,omitempty"`
	Error     string  `json:"error,omitempty"`
	ElapsedMS int64   `json:"elapsed_ms"`
}

// Service answers chat messages by dispatching between the local CEA model
// and the remote worker.
type Service struct {
	llm *llm.Service
	cfg config.DelegationConfig
}

// NewService wires the delegation flow on top of the completion service.
func NewService(completions *llm.Service, cfg config.DelegationConfig) *Service {
	return &Service{llm: completions, cfg: cfg}
}

// Respond produces the chat answer for one user message.
func (s *Service) Respond(ctx context.Context, message string) (string, error) {
	return s.respond(ctx, &Diagnostics{}, message)
}

// Diagnose runs the built-in delegation exercise through the full CEA flow
// and reports every stage taken. Failures are recorded in the result rather
// than returned; seeing what broke is the point.
func (s *Service) Diagnose(ctx context.Context) *Diagnostics {
	diag := &Diagnostics{Task: debugTask, Stages: []Stage{}}
	started := time.Now()

	answer, err := s.delegate(ctx, diag, debugTask)
	diag.ElapsedMS = time.Since(started).Milliseconds()
	diag.Answer = answer
	if err != nil {
		diag.Error = err.Error()
	}
	return diag
}

func (s *Service) respond(ctx context.Context, diag *Diagnostics, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", ErrMessageRequired
	}

	if s.cfg.RemoteForShort && utf8.RuneCountInString(message) <= s.cfg.ShortMaxChars {
		diag.Path = PathFast
		if s.llm.Available(llm.BackendRemote) {
			answer, err := s.stage(ctx, diag, "fast", llm.BackendRemote, "", message)
			if err == nil {
				answer = s.continueList(ctx, diag, message, answer)
				answer = s.ensureComplete(ctx, diag, answer, fastPathContinuations)
				return finishAnswer(answer), nil
			}
			log.Printf("[delegation] fast path failed: %v", err)
		}
		return s.fallback(ctx, diag, message)
	}

	return s.delegate(ctx, diag, message)
}

// delegate runs the full CEA flow: analyze locally, hand the instruction to
// the remote worker, synthesize the deliverable locally. Any stage failure
// drops to a direct answer.
func (s *Service) delegate(ctx context.Context, diag *Diagnostics, message string) (string, error) {
	diag.Path = PathDelegated

	analysis, err := s.stage(ctx, diag, "cea_analyze", llm.BackendLocal, analyzeSystem,
		fmt.Sprintf("Task: %s\nRecent context: none", message))
	if err != nil {
		log.Printf("[delegation] CEA analysis failed: %v", err)
		return s.fallback(ctx, diag, message)
	}

	workerOut, err := s.stage(ctx, diag, "worker", llm.BackendRemote, "", workerInstruction(analysis))
	if err != nil {
		log.Printf("[delegation] worker failed: %v", err)
		return s.fallback(ctx, diag, message)
	}

	answer, err := s.stage(ctx, diag, "cea_synthesize", llm.BackendLocal, synthesizeSystem,
		fmt.Sprintf("Worker output: %s\nOriginal task: %s\nContext: none", workerOut, message))
	if err != nil {
		log.Printf("[delegation] CEA synthesis failed: %v", err)
		return s.fallback(ctx, diag, message)
	}

	if s.cfg.MaxContinuations > 0 {
		answer = s.continueList(ctx, diag, message, answer)
		answer = s.ensureComplete(ctx, diag, answer, s.cfg.MaxContinuations)
	}

	return finishAnswer(answer), nil
}

// fallback answers the message directly, local model first.
func (s *Service) fallback(ctx context.Context, diag *Diagnostics, message string) (string, error) {
	diag.Path = PathFallback

	backends := s.llm.Backends()
	if len(backends) == 0 {
		return "", ErrNoBackend
	}

	var lastErr error
	for _, backend := range backends {
		answer, err := s.stage(ctx, diag, "fallback", backend, "", message)
		if err == nil {
			return finishAnswer(answer), nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("all chat backends failed: %w", lastErr)
}

// stage runs one bounded completion and records it in the diagnostics.
func (s *Service) stage(ctx context.Context, diag *Diagnostics, name string, backend llm.Backend, system, query string) (string, error) {
	stageCtx, cancel := context.WithTimeout(ctx, s.cfg.StageTimeout)
	defer cancel()

	out, err := s.llm.Complete(stageCtx, backend, system, query)
	entry := Stage{Name: name, Backend: string(backend), Chars: utf8.RuneCountInString(out)}
	if err != nil {
		entry.Error = err.Error()
	}
	diag.Stages = append(diag.Stages, entry)
	return out, err
}

// continueList asks for the tail of a numbered list when the user requested
// "top N" and the answer stopped short. One request only; a continuation
// that does not resume at the expected number is discarded.
func (s *Service) continueList(ctx context.Context, diag *Diagnostics, message, answer string) string {
	target, ok := truncation.ListTarget(message)
	if !ok {
		return answer
	}
	last := truncation.LastListIndex(answer)
	if last == 0 || last >= target {
		return answer
	}

	prompt := fmt.Sprintf("You previously wrote the following answer.\n\n%s\n\nContinue the list from %d to %d. "+
		"Output ONLY the remaining items, one per line, using the same 'number. title  short description' format. "+
		"Do not repeat previous items.",
		strings.TrimSpace(answer), last+1, target)

	cont, err := s.stage(ctx, diag, "continuation", llm.BackendLocal, "", prompt)
	if err != nil {
		return answer
	}
	if !strings.Contains(cont, fmt.Sprintf("%d.", last+1)) {
		return answer
	}
	return appendBlock(answer, cont)
}

// ensureComplete requests bounded continuations until the answer no longer
// reads as truncated. Continuations run on the local model; any failure
// keeps what was already produced.
func (s *Service) ensureComplete(ctx context.Context, diag *Diagnostics, answer string, maxIters int) string {
	for i := 0; i < maxIters && !truncation.LooksComplete(answer); i++ {
		prompt := fmt.Sprintf("You previously wrote the following answer.\n\n%s\n\nContinue the answer until it is complete. "+
			"Do not repeat content. Keep the same format and finish any incomplete bullets or sentences. "+
			"When you are fully finished, append the token %s at the end.",
			strings.TrimSpace(answer), truncation.EndMarker)

		cont, err := s.stage(ctx, diag, "continuation", llm.BackendLocal, "", prompt)
		if err != nil {
			return answer
		}
		answer = truncation.MergeContinuation(answer, cont)
	}
	return answer
}

// workerInstruction extracts the instruction from the CEA analysis. The CEA
// is asked for a JSON delegation but may answer in plain text; both forms
// are accepted.
func workerInstruction(analysis string) string {
	trimmed := strings.TrimSpace(analysis)

	var payload struct {
		Instruction string `json:"instruction"`
		Delegation  struct {
			Instruction string `json:"instruction"`
		} `json:"delegation"`
	}
	if err := json.Unmarshal([]byte(trimmed), &payload); err == nil {
		if payload.Instruction != "" {
			return payload.Instruction
		}
		if payload.Delegation.Instruction != "" {
			return payload.Delegation.Instruction
		}
	}
	return trimmed
}

// appendBlock joins a continuation under the existing answer.
func appendBlock(base, cont string) string {
	sep := "\n\n"
	if strings.HasSuffix(base, "\n") {
		sep = "\n"
	}
	return base + sep + strings.TrimSpace(cont)
}

// finishAnswer strips the continuation terminator before the answer leaves
// the service.
func finishAnswer(answer string) string {
	return strings.TrimSpace(strings.ReplaceAll(answer, truncation.EndMarker, ""))
}
