// Package session persists conversations as append-only JSONL files. Every
// save appends one full-state snapshot line; loading reads only the last
// line, so earlier lines form a free audit history.
package session

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// snapshotVersion tags each JSONL line so the schema can evolve.
const snapshotVersion = 1

// ErrNotFound is returned when no file exists for a conversation id.
var ErrNotFound = errors.New("session not found")

// Message is one turn entry in a conversation transcript.
type Message struct {
	Role      string            `json:"role"`
	Content   string            `json:"content"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Conversation is the full state of one chat thread.
type Conversation struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	Channel   string    `json:"channel"`
	Messages  []Message `json:"messages"`
	State     string    `json:"state"`
	StartedAt time.Time `json:"started_at"`
}

// AddMessage appends a message with the current timestamp.
func (c *Conversation) AddMessage(role, content string, metadata map[string]string) {
	c.Messages = append(c.Messages, Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
		Metadata:  metadata,
	})
}

// snapshot is the on-disk line format.
type snapshot struct {
	Version int `json:"version"`
	Conversation
}

// Summary describes one stored conversation without its transcript.
type Summary struct {
	SessionID    string    `json:"session_id"`
	Channel      string    `json:"channel"`
	UserID       string    `json:"user_id"`
	MessageCount int       `json:"message_count"`
	StartedAt    time.Time `json:"started_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Store reads and writes conversation files under a single directory.
// Appends to the same conversation are serialized by a per-id mutex.
type Store struct {
	dir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore creates a store rooted at dir. The directory is created on the
// first save.
func NewStore(dir string) *Store {
	return &Store{
		dir:   dir,
		locks: make(map[string]*sync.Mutex),
	}
}

// Dir returns the directory backing this store.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) lock(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

func (s *Store) path(id string) string {
	// Conversation ids come from channel code, but keep path traversal out
	// of the sessions directory regardless.
	return filepath.Join(s.dir, filepath.Base(id)+".jsonl")
}

// Save appends one snapshot line holding the conversation's full state.
func (s *Store) Save(conv *Conversation) error {
	if conv.SessionID == "" {
		return fmt.Errorf("conversation has no session id")
	}

	l := s.lock(conv.SessionID)
	l.Lock()
	defer l.Unlock()

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create sessions dir: %w", err)
	}

	line, err := json.Marshal(snapshot{Version: snapshotVersion, Conversation: *conv})
	if err != nil {
		return fmt.Errorf("failed to marshal conversation: %w", err)
	}

	f, err := os.OpenFile(s.path(conv.SessionID), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open session file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to append snapshot: %w", err)
	}
	return nil
}

// Load returns the conversation's current state, i.e. the last snapshot
// line in its file. A missing file means the conversation does not exist.
func (s *Store) Load(id string) (*Conversation, error) {
	l := s.lock(id)
	l.Lock()
	defer l.Unlock()

	last, err := lastLine(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	if len(last) == 0 {
		return nil, fmt.Errorf("session file is empty: %s", id)
	}

	var snap snapshot
	if err := json.Unmarshal(last, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse session snapshot: %w", err)
	}

	conv := snap.Conversation
	return &conv, nil
}

// LoadOrCreate returns the stored conversation, or a fresh one when no
// file exists yet.
func (s *Store) LoadOrCreate(id, userID, channel string) (*Conversation, error) {
	conv, err := s.Load(id)
	if err == nil {
		return conv, nil
	}
	if errors.Is(err, ErrNotFound) {
		return &Conversation{
			SessionID: id,
			UserID:    userID,
			Channel:   channel,
			Messages:  []Message{},
			State:     "active",
			StartedAt: time.Now().UTC(),
		}, nil
	}
	return nil, err
}

// lastLine returns the final non-empty line of the file. Files stay small
// enough (bounded transcripts) that a forward scan is fine.
func lastLine(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var last []byte
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		if line := bytes.TrimSpace(scanner.Bytes()); len(line) > 0 {
			last = append(last[:0], line...)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return last, nil
}

// List returns summaries for stored conversations, newest first. A limit
// of 0 returns everything.
func (s *Store) List(limit int) ([]Summary, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var summaries []Summary
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".jsonl") {
			continue
		}

		id := strings.TrimSuffix(e.Name(), ".jsonl")
		conv, err := s.Load(id)
		if err != nil {
			continue
		}

		sum := Summary{
			SessionID:    conv.SessionID,
			Channel:      conv.Channel,
			UserID:       conv.UserID,
			MessageCount: len(conv.Messages),
			StartedAt:    conv.StartedAt,
			UpdatedAt:    conv.StartedAt,
		}
		if n := len(conv.Messages); n > 0 {
			sum.UpdatedAt = conv.Messages[n-1].Timestamp
		}
		summaries = append(summaries, sum)
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
	})

	if limit > 0 && len(summaries) > limit {
		summaries = summaries[:limit]
	}
	return summaries, nil
}

// Export renders a conversation's current state in the given format,
// either "json" or "csv".
func (s *Store) Export(id, format string) ([]byte, error) {
	conv, err := s.Load(id)
	if err != nil {
		return nil, err
	}

	switch format {
	case "json":
		return json.MarshalIndent(conv, "", "  ")
	case "csv":
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		if err := w.Write([]string{"timestamp", "role", "content"}); err != nil {
			return nil, err
		}
		for _, msg := range conv.Messages {
			record := []string{msg.Timestamp.Format(time.RFC3339), msg.Role, msg.Content}
			if err := w.Write(record); err != nil {
				return nil, err
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

// Cleanup deletes conversations whose last activity is older than the
// cutoff and returns how many were removed.
func (s *Store) Cleanup(olderThan time.Duration) (int, error) {
	summaries, err := s.List(0)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-olderThan)
	removed := 0
	for _, sum := range summaries {
		if !sum.UpdatedAt.Before(cutoff) {
			continue
		}
		if err := os.Remove(s.path(sum.SessionID)); err != nil {
			return removed, fmt.Errorf("failed to delete session %s: %w", sum.SessionID, err)
		}
		removed++
	}
	return removed, nil
}

// Delete removes a single conversation file.
func (s *Store) Delete(id string) error {
	if err := os.Remove(s.path(id)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// SnapshotCount reports how many snapshot lines the conversation file
// holds. Used by the verify command to sanity-check history growth.
func (s *Store) SnapshotCount(id string) (int, error) {
	f, err := os.Open(s.path(id))
	if err != nil {
		return 0, err
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		if len(bytes.TrimSpace(scanner.Bytes())) > 0 {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, err
	}
	return count, nil
}

// ConversationID derives the stable id for a channel/user pair, e.g.
// "slack_U123" or "terminal_local".
func ConversationID(channel, userID string) string {
	return channel + "_" + userID
}
