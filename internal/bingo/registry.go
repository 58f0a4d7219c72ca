package bingo

import (
	"fmt"
	rand "math/rand/v2"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/addisbingo/engine/internal/gameid"
	"github.com/addisbingo/engine/internal/randutil"
)

// codeAttempts bounds the collision-retry loop for session codes. With a
// 32^5 code space the loop effectively never exhausts.
const codeAttempts = 100

// Registry is the process-wide session index. It maps session codes to
// sessions and player ids to the session each player currently occupies, and
// enforces the single-active-session invariant: a player belongs to at most
// one session, and that session's roster actually contains the player.
//
// Construct one explicitly and pass it to handlers; there is no package-level
// instance, so tests can run independent registries side by side.
type Registry struct {
	logger *log.Logger
	clock  quartz.Clock
	codes  *gameid.Generator

	callInterval  time.Duration
	derashPercent int
	bonus         int

	mu       sync.Mutex
	rng      *rand.Rand
	sessions map[string]*Session
	players  map[string]string // playerID -> session code
}

// RegistryOption configures a registry at construction time
type RegistryOption func(*Registry)

// WithRegistryCallInterval sets the call interval applied to new sessions
func WithRegistryCallInterval(d time.Duration) RegistryOption {
	return func(r *Registry) { r.callInterval = d }
}

// WithRegistryDerashPercent sets the house commission applied to new sessions
func WithRegistryDerashPercent(pct int) RegistryOption {
	return func(r *Registry) { r.derashPercent = pct }
}

// WithRegistryBonus sets the promotional bonus applied to new sessions
func WithRegistryBonus(amount int) RegistryOption {
	return func(r *Registry) { r.bonus = amount }
}

// WithCodeSource injects a deterministic randomness source for session codes
func WithCodeSource(src gameid.RandSource) RegistryOption {
	return func(r *Registry) { r.codes = gameid.NewGenerator(src) }
}

// NewRegistry creates an empty registry. The RNG seeds per-session draw
// sequences and board generation; the clock is shared by all sessions.
func NewRegistry(logger *log.Logger, rng *rand.Rand, clock quartz.Clock, opts ...RegistryOption) *Registry {
	r := &Registry{
		logger:       logger.WithPrefix("registry"),
		clock:        clock,
		codes:        gameid.NewGenerator(nil),
		callInterval: DefaultCallInterval,
		rng:          rng,
		sessions:     make(map[string]*Session),
		players:      make(map[string]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CreateSession creates a session in the waiting state and returns it. Codes
// are regenerated on collision until unused.
func (r *Registry) CreateSession(stake int) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var code string
	for i := 0; ; i++ {
		if i == codeAttempts {
			return nil, fmt.Errorf("could not allocate a session code after %d attempts", codeAttempts)
		}
		code = r.codes.Generate()
		if _, taken := r.sessions[code]; !taken {
			break
		}
	}

	sess := NewSession(code, stake, randutil.New(r.rng.Int64()), r.clock,
		WithCallInterval(r.callInterval),
		WithDerashPercent(r.derashPercent),
		WithBonus(r.bonus),
	)
	r.sessions[code] = sess
	r.logger.Info("Created session", "session", code, "stake", stake)
	return sess, nil
}

// GenerateBoard produces a fresh random board from the registry's RNG. The
// engine assigns boards itself; clients never supply their own.
func (r *Registry) GenerateBoard() Board {
	r.mu.Lock()
	defer r.mu.Unlock()
	return NewBoard(r.rng)
}

// JoinSession moves the player into the identified session, first evicting
// them from any session they currently occupy. The evict-then-add sequence is
// atomic with respect to other registry operations, so a player is never
// observed in two sessions. A join rejected by the target session leaves the
// player where they were; re-joining the session the player already occupies
// is rejected as a duplicate, never evicted first.
func (r *Registry) JoinSession(code, playerID string, board Board) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[code]
	if !ok {
		return ErrSessionNotFound
	}

	// Validate before evicting so a rejected join never mutates anything
	if err := sess.canJoin(playerID); err != nil {
		return err
	}

	r.evictLocked(playerID)

	if err := sess.AddPlayer(playerID, board); err != nil {
		return err
	}
	r.players[playerID] = code
	r.logger.Info("Player joined session", "session", code, "player", playerID, "players", sess.PlayerCount())
	return nil
}

// LeaveCurrentSession removes the player from whatever session they occupy.
// Safe to call for unknown players and after the session has been deleted; a
// disconnect mid-operation reduces to this call.
func (r *Registry) LeaveCurrentSession(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evictLocked(playerID)
}

// evictLocked removes the player from their current session, garbage-collects
// the session if it is now empty, and clears the player mapping. Caller holds
// r.mu.
func (r *Registry) evictLocked(playerID string) {
	code, ok := r.players[playerID]
	if !ok {
		return
	}
	if sess, exists := r.sessions[code]; exists {
		sess.RemovePlayer(playerID)
		if sess.PlayerCount() == 0 {
			delete(r.sessions, code)
			r.logger.Info("Deleted empty session", "session", code)
		}
	}
	delete(r.players, playerID)
}

// GetSession returns the session with the given code, if present.
func (r *Registry) GetSession(code string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[code]
	return sess, ok
}

// GetPlayerSession returns the session the player currently occupies, if any.
func (r *Registry) GetPlayerSession(playerID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	code, ok := r.players[playerID]
	if !ok {
		return nil, false
	}
	sess, ok := r.sessions[code]
	return sess, ok
}

// SessionCount returns the number of live sessions.
func (r *Registry) SessionCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
