// Package thread persists chat transcripts as JSON files, one per thread.
package thread

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/inceptionlabs/inception/backend/internal/model/thread"
)

// SharedThreadID names the communal thread used when a client does not
// supply its own identifier.
const SharedThreadID = "shared_global_thread"

// keepMessages bounds a stored thread: the system prompt plus the most
// recent turns.
const keepMessages = 20

// Store reads and writes chat threads under one directory. It is safe for
// concurrent use from multiple goroutines.
type Store struct {
	dir string
	mu  sync.Mutex
}

// NewStore returns a Store writing thread files under dir. The directory is
// created on first append.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Load returns the thread's messages. Unknown or unreadable threads start
// fresh with the system prompt.
func (s *Store) Load(threadID string) []thread.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(threadID)
}

// Append adds messages to the thread and persists it, returning the stored
// length. Threads keep the system prompt plus the most recent turns.
func (s *Store) Append(threadID string, messages ...thread.Message) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := append(s.load(threadID), messages...)
	if len(stored) > keepMessages {
		trimmed := make([]thread.Message, 0, keepMessages)
		trimmed = append(trimmed, stored[0])
		trimmed = append(trimmed, stored[len(stored)-(keepMessages-1):]...)
		stored = trimmed
	}

	if err := s.save(threadID, stored); err != nil {
		return 0, err
	}
	return len(stored), nil
}

func (s *Store) load(threadID string) []thread.Message {
	data, err := os.ReadFile(s.path(threadID))
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[thread] failed to read %s: %v", threadID, err)
		}
		return seedThread()
	}

	var messages []thread.Message
	if err := json.Unmarshal(data, &messages); err != nil {
		log.Printf("[thread] failed to parse %s, starting fresh: %v", threadID, err)
		return seedThread()
	}
	if len(messages) == 0 || messages[0].Role != thread.RoleSystem {
		messages = append(seedThread(), messages...)
	}
	return messages
}

func (s *Store) save(threadID string, messages []thread.Message) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create thread dir: %w", err)
	}

	data, err := json.MarshalIndent(messages, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal thread: %w", err)
	}

	path := s.path(threadID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp thread file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename temp thread file: %w", err)
	}
	return nil
}

// path maps a thread id to its file. Client-supplied identifiers are hashed
// so file names stay filesystem safe; the shared thread keeps its well-known
// name.
func (s *Store) path(threadID string) string {
	name := threadID
	if threadID != SharedThreadID {
		sum := sha256.Sum256([]byte(threadID))
		name = hex.EncodeToString(sum[:])[:24]
	}
	return filepath.Join(s.dir, name+".json")
}

func seedThread() []thread.Message {
	return []thread.Message{thread.System(thread.SystemPrompt)}
}
