// Package pending holds proposed write commands awaiting a yes/no answer.
//
// There is at most one proposal per chat. A new proposal replaces the old
// one. Expiry is checked lazily when a proposal is taken; nothing runs in
// the background.
package pending

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/clawback/internal/ledger"
	"github.com/mmynk/clawback/internal/parser"
)

// DefaultTTL is how long a proposal stays answerable.
const DefaultTTL = 5 * time.Minute

// ErrNoPending is returned when a chat has nothing to confirm.
var ErrNoPending = errors.New("no pending confirmation")

// Proposal is one outstanding write command.
type Proposal struct {
	ID     string
	ChatID string

	// Trip is the active trip when the command was proposed. Empty for a
	// trip command sent with no active trip.
	Trip string

	Command   parser.Command
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the proposal can no longer be confirmed at now.
func (p Proposal) Expired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}

// Store is a concurrency-safe map of chat ID to proposal.
type Store struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	slots map[string]Proposal
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates a Store. A non-positive ttl means DefaultTTL.
func New(ttl time.Duration, opts ...Option) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Store{
		ttl:   ttl,
		now:   time.Now,
		slots: make(map[string]Proposal),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL returns the proposal lifetime.
func (s *Store) TTL() time.Duration { return s.ttl }

// Propose stores cmd for chatID, replacing any earlier proposal.
func (s *Store) Propose(chatID, trip string, cmd parser.Command) Proposal {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	p := Proposal{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		Trip:      trip,
		Command:   cmd,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	s.slots[chatID] = p
	return p
}

// Take removes and returns the proposal for chatID. Checking expiry and
// clearing the slot happen under one lock, so an expired proposal can never
// be handed out. An expired proposal is dropped and
// ledger.ErrConfirmationExpired is returned.
func (s *Store) Take(chatID string) (Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.slots[chatID]
	if !ok {
		return Proposal{}, ErrNoPending
	}
	delete(s.slots, chatID)
	if p.Expired(s.now()) {
		return p, ledger.ErrConfirmationExpired
	}
	return p, nil
}

// Peek returns the live proposal for chatID without removing it.
func (s *Store) Peek(chatID string) (Proposal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.slots[chatID]
	if !ok || p.Expired(s.now()) {
		return Proposal{}, false
	}
	return p, true
}

// Discard drops the proposal for chatID, reporting whether one existed.
func (s *Store) Discard(chatID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.slots[chatID]
	delete(s.slots, chatID)
	return ok
}

// Prune drops expired proposals and returns the chat IDs removed.
func (s *Store) Prune() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var removed []string
	for id, p := range s.slots {
		if p.Expired(now) {
			delete(s.slots, id)
			removed = append(removed, id)
		}
	}
	sort.Strings(removed)
	return removed
}

// Snapshot returns every stored proposal, expired or not, ordered by chat ID.
func (s *Store) Snapshot() []Proposal {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Proposal, 0, len(s.slots))
	for _, p := range s.slots {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChatID < out[j].ChatID })
	return out
}

// Restore loads proposals, e.g. from storage on startup. Existing slots for
// the same chats are replaced.
func (s *Store) Restore(ps []Proposal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range ps {
		s.slots[p.ChatID] = p
	}
}

// Len returns the number of stored proposals.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.slots)
}
