package conversation

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/adder-cli/adder/errors"
)

// Store keeps every conversation in a single JSON file, keyed by ID.
type Store struct {
	path          string
	conversations map[string]*Conversation
}

// OpenStore loads the store at path, tolerating a missing or corrupt
// file by starting empty.
func OpenStore(path string) *Store {
	s := &Store{
		path:          path,
		conversations: make(map[string]*Conversation),
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return s
	}
	if err := json.Unmarshal(data, &s.conversations); err != nil {
		s.conversations = make(map[string]*Conversation)
	}
	return s
}

// Save writes all conversations to disk. Best effort; callers may log
// the returned error but must not treat it as fatal.
func (s *Store) Save() error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, "could not create conversation directory")
		}
	}
	data, err := json.MarshalIndent(s.conversations, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "failed to serialize conversations")
	}
	return os.WriteFile(s.path, data, 0644)
}

// Create adds a new conversation seeded with the system prompt.
func (s *Store) Create(title, systemPrompt string) *Conversation {
	conv := New(title, systemPrompt)
	s.conversations[conv.ID] = conv
	return conv
}

// Get returns a conversation by ID, or nil.
func (s *Store) Get(id string) *Conversation {
	return s.conversations[id]
}

// Delete removes a conversation. Reports whether it existed.
func (s *Store) Delete(id string) bool {
	if _, ok := s.conversations[id]; !ok {
		return false
	}
	delete(s.conversations, id)
	return true
}

// List returns all conversations, newest first.
func (s *Store) List() []*Conversation {
	out := make([]*Conversation, 0, len(s.conversations))
	for _, conv := range s.conversations {
		out = append(out, conv)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Created.After(out[j].Created)
	})
	return out
}

// Search returns conversations whose title or non-system message
// content contains the query, case-insensitively.
func (s *Store) Search(query string) []*Conversation {
	query = strings.ToLower(query)
	var out []*Conversation
	for _, conv := range s.List() {
		if strings.Contains(strings.ToLower(conv.Title), query) {
			out = append(out, conv)
			continue
		}
		for _, msg := range conv.Messages {
			if msg.Role == RoleSystem {
				continue
			}
			if strings.Contains(strings.ToLower(msg.Content), query) {
				out = append(out, conv)
				break
			}
		}
	}
	return out
}
