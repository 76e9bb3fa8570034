// Package llm fronts the configured chat backends with one completion API.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

// Backend selects which configured model serves a completion.
type Backend string

const (
	// BackendLocal is the Ollama-served model running next to the app.
	BackendLocal Backend = "local"
	// BackendRemote is the hosted Grok API.
	BackendRemote Backend = "remote"
)

var (
	// ErrBackendUnavailable reports a completion routed to a backend that was
	// never configured.
	ErrBackendUnavailable = errors.New("llm backend unavailable")
	// ErrEmptyCompletion reports a backend answer with no usable text.
	ErrEmptyCompletion = errors.New("llm returned empty completion")
)

// Service runs single-shot completions against the configured chat models.
// Callers bound each call with a context deadline; there is no retry here.
type Service struct {
	chains map[Backend]compose.Runnable[map[string]any, *schema.Message]
}

// NewService compiles a completion chain per supplied model. A nil model is
// allowed and leaves the matching backend unavailable.
func NewService(ctx context.Context, local, remote model.ChatModel) (*Service, error) {
	svc := &Service{
		chains: make(map[Backend]compose.Runnable[map[string]any, *schema.Message]),
	}

	if local != nil {
		chain, err := compileChain(ctx, local)
		if err != nil {
			return nil, fmt.Errorf("failed to compile local chain: %w", err)
		}
		svc.chains[BackendLocal] = chain
	}

	if remote != nil {
		chain, err := compileChain(ctx, remote)
		if err != nil {
			return nil, fmt.Errorf("failed to compile remote chain: %w", err)
		}
		svc.chains[BackendRemote] = chain
	}

	return svc, nil
}

func compileChain(ctx context.Context, chatModel model.ChatModel) (compose.Runnable[map[string]any, *schema.Message], error) {
	template := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(template)
	chain.AppendChatModel(chatModel)

	return chain.Compile(ctx)
}

// Available reports whether the backend has a configured model.
func (s *Service) Available(backend Backend) bool {
	_, ok := s.chains[backend]
	return ok
}

// Backends lists the configured backends, local first.
func (s *Service) Backends() []Backend {
	out := make([]Backend, 0, len(s.chains))
	for _, backend := range []Backend{BackendLocal, BackendRemote} {
		if s.Available(backend) {
			out = append(out, backend)
		}
	}
	return out
}

// Complete runs one completion on the selected backend and returns the
// trimmed text. Empty output is an error so callers never mistake a silent
// backend for a finished answer.
func (s *Service) Complete(ctx context.Context, backend Backend, system, query string) (string, error) {
	chain, ok := s.chains[backend]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrBackendUnavailable, backend)
	}

	response, err := chain.Invoke(ctx, map[string]any{
		"system": system,
		"query":  query,
	})
	if err != nil {
		return "", fmt.Errorf("%s completion failed: %w", backend, err)
	}

	content := strings.TrimSpace(response.Content)
	if content == "" {
		return "", fmt.Errorf("%w: %s", ErrEmptyCompletion, backend)
	}

	log.Printf("[llm] %s completion finished, length=%d", backend, len(content))
	return content, nil
}
