package bingo

import (
	rand "math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/coder/quartz"
)

// Status is the lifecycle state of a session. Transitions are strictly
// waiting -> started -> finished; finished is terminal.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusStarted  Status = "started"
	StatusFinished Status = "finished"
)

// DefaultCallInterval is the minimum gap enforced between successive number
// calls on a session.
const DefaultCallInterval = 3000 * time.Millisecond

// MinPlayersToStart is the roster size required by Start. A single player is
// enough, matching the reference behaviour; competitive deployments raise the
// auto-start threshold at the relay instead.
const MinPlayersToStart = 1

// Payout is the settlement summary returned when a session ends. The engine
// computes the breakdown; it never moves funds.
type Payout struct {
	Winner string `json:"winner"`
	Stake  int    `json:"stake"`
	Bonus  int    `json:"bonus"`
	Derash int    `json:"derash"`
}

// Snapshot is a read-only view of a session for broadcast to clients. It is
// session-wide: it deliberately excludes per-player boards and marks, which
// the relay sends only to their owner.
type Snapshot struct {
	SessionID     string `json:"sessionId"`
	Status        Status `json:"status"`
	PlayerCount   int    `json:"playerCount"`
	CalledNumbers []int  `json:"calledNumbers"`
	CurrentCall   int    `json:"currentCall"`
	Bonus         int    `json:"bonus"`
	Derash        int    `json:"derash"`
	Winner        string `json:"winner,omitempty"`
}

type playerState struct {
	board  Board
	marked map[int]bool
}

// Session is the state machine for one bingo round. All mutating operations
// are mutually exclusive on the session's own mutex; operations on different
// sessions never contend.
type Session struct {
	code  string
	stake int

	clock         quartz.Clock
	rng           *rand.Rand
	callInterval  time.Duration
	derashPercent int
	events        *EventBus

	mu          sync.Mutex
	status      Status
	players     map[string]*playerState
	called      []int
	calledSet   [MaxNumber + 1]bool
	currentCall int
	bonus       int
	derash      int
	winner      string
	lastCall    time.Time
}

// SessionOption configures a session at construction time
type SessionOption func(*Session)

// WithCallInterval overrides the minimum gap between number calls
func WithCallInterval(d time.Duration) SessionOption {
	return func(s *Session) { s.callInterval = d }
}

// WithBonus seeds the session's promotional bonus amount
func WithBonus(amount int) SessionOption {
	return func(s *Session) { s.bonus = amount }
}

// WithDerashPercent sets the house commission taken from the pot at settlement
func WithDerashPercent(pct int) SessionOption {
	return func(s *Session) { s.derashPercent = pct }
}

// NewSession creates a session in the waiting state. The RNG drives number
// draws; the clock gates the call schedule.
func NewSession(code string, stake int, rng *rand.Rand, clock quartz.Clock, opts ...SessionOption) *Session {
	s := &Session{
		code:         code,
		stake:        stake,
		clock:        clock,
		rng:          rng,
		callInterval: DefaultCallInterval,
		events:       NewEventBus(),
		status:       StatusWaiting,
		players:      make(map[string]*playerState),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Code returns the session's short identifier
func (s *Session) Code() string { return s.code }

// Stake returns the per-player stake in currency units
func (s *Session) Stake() int { return s.stake }

// Events returns the session's event bus for subscription
func (s *Session) Events() *EventBus { return s.events }

// Status returns the current lifecycle state
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// PlayerCount returns the roster size
func (s *Session) PlayerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.players)
}

// PlayerBoard returns the board assigned to the given player
func (s *Session) PlayerBoard(playerID string) (Board, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[playerID]
	if !ok {
		return Board{}, false
	}
	return p.board, true
}

// MarkedNumbers returns a sorted copy of the player's marked set
func (s *Session) MarkedNumbers(playerID string) ([]int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[playerID]
	if !ok {
		return nil, false
	}
	out := make([]int, 0, len(p.marked))
	for n := range p.marked {
		out = append(out, n)
	}
	slices.Sort(out)
	return out, true
}

// canJoin reports whether AddPlayer would succeed for the given player. The
// registry uses it to validate a join before evicting the player elsewhere.
func (s *Session) canJoin(playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusWaiting {
		return ErrGameInProgress
	}
	if _, exists := s.players[playerID]; exists {
		return ErrDuplicatePlayer
	}
	return nil
}

// AddPlayer registers a player with an empty marked set. Valid only while the
// session is waiting.
func (s *Session) AddPlayer(playerID string, board Board) error {
	s.mu.Lock()
	if s.status != StatusWaiting {
		s.mu.Unlock()
		return ErrGameInProgress
	}
	if _, exists := s.players[playerID]; exists {
		s.mu.Unlock()
		return ErrDuplicatePlayer
	}
	s.players[playerID] = &playerState{
		board:  board,
		marked: make(map[int]bool),
	}
	ev := PlayerJoinedEvent{
		SessionID:   s.code,
		PlayerID:    playerID,
		PlayerCount: len(s.players),
		timestamp:   s.clock.Now(),
	}
	s.mu.Unlock()

	s.events.Publish(ev)
	return nil
}

// RemovePlayer deletes the player's record if present. Valid in any state and
// idempotent: removing an absent player reports false without error.
func (s *Session) RemovePlayer(playerID string) bool {
	s.mu.Lock()
	if _, exists := s.players[playerID]; !exists {
		s.mu.Unlock()
		return false
	}
	delete(s.players, playerID)
	ev := PlayerLeftEvent{
		SessionID:   s.code,
		PlayerID:    playerID,
		PlayerCount: len(s.players),
		timestamp:   s.clock.Now(),
	}
	s.mu.Unlock()

	s.events.Publish(ev)
	return true
}

// Start transitions the session to started and anchors the call schedule.
func (s *Session) Start() error {
	s.mu.Lock()
	if s.status != StatusWaiting {
		s.mu.Unlock()
		return ErrGameInProgress
	}
	if len(s.players) < MinPlayersToStart {
		s.mu.Unlock()
		return ErrNotEnoughPlayers
	}
	s.status = StatusStarted
	s.lastCall = s.clock.Now()
	ev := GameStartedEvent{SessionID: s.code, timestamp: s.lastCall}
	s.mu.Unlock()

	s.events.Publish(ev)
	return nil
}

// CallNumber draws one previously-uncalled number uniformly at random from
// [1, MaxNumber], appends it to the call record and returns it. The draw is
// without replacement across the session's lifetime. Calls arriving within
// the call interval of the previous draw fail with ErrCallTooSoon; a caller
// ticking faster than the interval gets the error, never corrupted state.
func (s *Session) CallNumber() (int, error) {
	s.mu.Lock()
	if s.status != StatusStarted {
		s.mu.Unlock()
		return 0, ErrGameNotInProgress
	}

	now := s.clock.Now()
	if !s.lastCall.IsZero() && now.Sub(s.lastCall) < s.callInterval {
		s.mu.Unlock()
		return 0, ErrCallTooSoon
	}

	available := make([]int, 0, MaxNumber-len(s.called))
	for n := 1; n <= MaxNumber; n++ {
		if !s.calledSet[n] {
			available = append(available, n)
		}
	}
	if len(available) == 0 {
		s.mu.Unlock()
		return 0, ErrAllNumbersCalled
	}

	n := available[s.rng.IntN(len(available))]
	s.called = append(s.called, n)
	s.calledSet[n] = true
	s.currentCall = n
	s.lastCall = now

	ev := NumberCalledEvent{
		SessionID:   s.code,
		Number:      n,
		CalledCount: len(s.called),
		timestamp:   now,
	}
	s.mu.Unlock()

	s.events.Publish(ev)
	return n, nil
}

// MarkNumber records a called number on the player's board. Marking a called
// number that is not on the board is a silent no-op reported as false;
// marking an uncalled number is an error.
func (s *Session) MarkNumber(playerID string, number int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[playerID]
	if !ok {
		return false, ErrPlayerNotFound
	}
	if number < 1 || number > MaxNumber || !s.calledSet[number] {
		return false, ErrNumberNotCalled
	}
	if !p.board.Contains(number) {
		return false, nil
	}
	p.marked[number] = true
	return true, nil
}

// CheckBingo reports whether the player's marked set covers a canonical line.
func (s *Session) CheckBingo(playerID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[playerID]
	if !ok {
		return false, ErrPlayerNotFound
	}
	return CheckWin(p.board, p.marked), nil
}

// End finishes the session, records the winner and returns the payout
// breakdown. The derash is the configured house percentage of the pot
// (stake x players). Ending an already-finished session is an error rather
// than silently overwriting the winner.
func (s *Session) End(winnerID string) (Payout, error) {
	s.mu.Lock()
	if s.status == StatusFinished {
		s.mu.Unlock()
		return Payout{}, ErrGameFinished
	}
	s.status = StatusFinished
	s.winner = winnerID
	pot := s.stake * len(s.players)
	s.derash = pot * s.derashPercent / 100

	payout := Payout{
		Winner: winnerID,
		Stake:  s.stake,
		Bonus:  s.bonus,
		Derash: s.derash,
	}
	ev := GameWonEvent{
		SessionID: s.code,
		Payout:    payout,
		timestamp: s.clock.Now(),
	}
	s.mu.Unlock()

	s.events.Publish(ev)
	return payout, nil
}

// Snapshot returns a read-only view of the session for broadcast.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	called := make([]int, len(s.called))
	copy(called, s.called)

	return Snapshot{
		SessionID:     s.code,
		Status:        s.status,
		PlayerCount:   len(s.players),
		CalledNumbers: called,
		CurrentCall:   s.currentCall,
		Bonus:         s.bonus,
		Derash:        s.derash,
		Winner:        s.winner,
	}
}
