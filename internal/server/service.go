package server

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/addisbingo/engine/internal/bingo"
)

// broadcaster is the slice of Server the game service needs; tests substitute
// a recorder.
type broadcaster interface {
	BroadcastToSession(sessionID string, msg *Message)
	SendToPlayer(playerID string, msg *Message) error
}

// GameService bridges WebSocket connections to the bingo engine. It owns the
// timer-driven caller: each started session gets a goroutine that ticks on
// the call interval and draws the next number. The engine itself never
// initiates I/O; everything flowing to clients goes through the broadcaster.
type GameService struct {
	registry *bingo.Registry
	relay    broadcaster
	logger   *log.Logger
	clock    quartz.Clock
	game     GameSettings

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	callers map[string]context.CancelFunc
}

// NewGameService creates a new game service on top of the registry
func NewGameService(registry *bingo.Registry, relay broadcaster, logger *log.Logger, clock quartz.Clock, game GameSettings) *GameService {
	ctx, cancel := context.WithCancel(context.Background())

	return &GameService{
		registry: registry,
		relay:    relay,
		logger:   logger.WithPrefix("game-service"),
		clock:    clock,
		game:     game,
		ctx:      ctx,
		cancel:   cancel,
		callers:  make(map[string]context.CancelFunc),
	}
}

// Stop cancels all running callers
func (gs *GameService) Stop() {
	gs.cancel()
}

// CreateSession creates a new session for the given stake and returns its
// code. Stakes are checked against the configured presets.
func (gs *GameService) CreateSession(stake int) (string, error) {
	if !gs.game.StakeAllowed(stake) {
		return "", fmt.Errorf("stake %d is not offered", stake)
	}

	sess, err := gs.registry.CreateSession(stake)
	if err != nil {
		return "", err
	}

	sess.Events().Subscribe(&sessionEventSubscriber{service: gs, session: sess})
	return sess.Code(), nil
}

// JoinSession generates a board, assigns it to the player and adds them to
// the session, evicting them from any session they already occupy. Returns
// the private board and a session snapshot for the joining player.
func (gs *GameService) JoinSession(sessionID, playerID string) (bingo.Board, bingo.Snapshot, error) {
	prev, hadPrev := gs.registry.GetPlayerSession(playerID)

	board := gs.registry.GenerateBoard()
	if err := gs.registry.JoinSession(sessionID, playerID, board); err != nil {
		return bingo.Board{}, bingo.Snapshot{}, err
	}

	// Eviction from the previous session may have emptied and deleted it;
	// retire its caller just as an explicit leave would
	if hadPrev {
		if _, alive := gs.registry.GetSession(prev.Code()); !alive {
			gs.stopCaller(prev.Code())
		}
	}

	sess, ok := gs.registry.GetSession(sessionID)
	if !ok {
		return bingo.Board{}, bingo.Snapshot{}, bingo.ErrSessionNotFound
	}

	gs.maybeStart(sess)
	return board, sess.Snapshot(), nil
}

// LeaveSession removes the player from their current session, if any. Safe
// for unknown players and equivalent to a disconnect.
func (gs *GameService) LeaveSession(playerID string) {
	sess, ok := gs.registry.GetPlayerSession(playerID)
	gs.registry.LeaveCurrentSession(playerID)
	if !ok {
		return
	}

	// If the session emptied out it was deleted; retire its caller
	if _, alive := gs.registry.GetSession(sess.Code()); !alive {
		gs.stopCaller(sess.Code())
	}
}

// MarkNumber records a called number on the player's board
func (gs *GameService) MarkNumber(sessionID, playerID string, number int) (bool, error) {
	sess, ok := gs.registry.GetSession(sessionID)
	if !ok {
		return false, bingo.ErrSessionNotFound
	}
	return sess.MarkNumber(playerID, number)
}

// ClaimBingo adjudicates a win claim. A valid claim ends the session and the
// resulting payout is broadcast by the session's event subscriber; an invalid
// claim returns ErrInvalidClaim for the caller alone.
func (gs *GameService) ClaimBingo(sessionID, playerID string) error {
	sess, ok := gs.registry.GetSession(sessionID)
	if !ok {
		return bingo.ErrSessionNotFound
	}
	if sess.Status() != bingo.StatusStarted {
		return bingo.ErrGameNotInProgress
	}

	won, err := sess.CheckBingo(playerID)
	if err != nil {
		return err
	}
	if !won {
		return bingo.ErrInvalidClaim
	}

	if _, err := sess.End(playerID); err != nil {
		return err
	}
	gs.stopCaller(sessionID)
	return nil
}

// GetState returns the session snapshot together with the requesting
// player's private board and marks, when they belong to the session. A
// reconnecting client uses the reply to rebuild its display.
func (gs *GameService) GetState(sessionID, playerID string) (StateData, error) {
	sess, ok := gs.registry.GetSession(sessionID)
	if !ok {
		return StateData{}, bingo.ErrSessionNotFound
	}

	state := StateData{Snapshot: sess.Snapshot()}
	if board, ok := sess.PlayerBoard(playerID); ok {
		state.Board = board.Numbers()
	}
	if marked, ok := sess.MarkedNumbers(playerID); ok {
		state.Marked = marked
	}
	return state, nil
}

// maybeStart starts the session and its caller once the configured roster
// threshold is reached.
func (gs *GameService) maybeStart(sess *bingo.Session) {
	if sess.PlayerCount() < gs.game.MinPlayers || sess.Status() != bingo.StatusWaiting {
		return
	}

	if err := sess.Start(); err != nil {
		// A concurrent join already started it
		if !errors.Is(err, bingo.ErrGameInProgress) {
			gs.logger.Error("Failed to start session", "session", sess.Code(), "error", err)
		}
		return
	}

	gs.startCaller(sess)
}

// startCaller launches the per-session goroutine that draws numbers on the
// call interval. The session's own gate makes over-eager ticks harmless, so
// the loop simply skips a CallTooSoon and keeps ticking.
func (gs *GameService) startCaller(sess *bingo.Session) {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	code := sess.Code()
	if _, running := gs.callers[code]; running {
		return
	}

	ctx, cancel := context.WithCancel(gs.ctx)
	gs.callers[code] = cancel

	logger := gs.logger.WithPrefix("caller").With("session", code)
	logger.Info("Starting number caller", "interval", gs.game.CallInterval())

	go func() {
		defer gs.stopCaller(code)

		waiter := gs.clock.TickerFunc(ctx, gs.game.CallInterval(), func() error {
			_, err := sess.CallNumber()
			if err == nil || errors.Is(err, bingo.ErrCallTooSoon) {
				return nil
			}
			// ErrAllNumbersCalled or ErrGameNotInProgress end the loop
			return err
		}, "caller", code)

		if err := waiter.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			logger.Info("Caller stopped", "reason", err)
		}
	}()
}

// stopCaller cancels a session's caller goroutine, if running
func (gs *GameService) stopCaller(sessionID string) {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if cancel, ok := gs.callers[sessionID]; ok {
		cancel()
		delete(gs.callers, sessionID)
	}
}

// sessionEventSubscriber forwards session events to connected clients
type sessionEventSubscriber struct {
	service *GameService
	session *bingo.Session
}

// OnEvent implements the bingo.EventSubscriber interface
func (sub *sessionEventSubscriber) OnEvent(event bingo.GameEvent) {
	switch e := event.(type) {
	case bingo.PlayerJoinedEvent, bingo.PlayerLeftEvent:
		sub.broadcastState()

	case bingo.GameStartedEvent:
		msg, err := NewMessage(MessageTypeGameStarted, GameStartedData{SessionID: e.SessionID})
		if err != nil {
			return
		}
		sub.service.relay.BroadcastToSession(e.SessionID, msg)
		sub.broadcastState()

	case bingo.NumberCalledEvent:
		msg, err := NewMessage(MessageTypeNumberCalled, NumberCalledData{
			SessionID:   e.SessionID,
			Number:      e.Number,
			CalledCount: e.CalledCount,
		})
		if err != nil {
			return
		}
		sub.service.relay.BroadcastToSession(e.SessionID, msg)

	case bingo.GameWonEvent:
		msg, err := NewMessage(MessageTypeGameWon, GameWonData{
			SessionID: e.SessionID,
			Winner:    e.Payout.Winner,
			Stake:     e.Payout.Stake,
			Bonus:     e.Payout.Bonus,
			Derash:    e.Payout.Derash,
		})
		if err != nil {
			return
		}
		sub.service.relay.BroadcastToSession(e.SessionID, msg)
	}
}

// broadcastState sends a fresh session snapshot to every participant
func (sub *sessionEventSubscriber) broadcastState() {
	snapshot := sub.session.Snapshot()
	msg, err := NewMessage(MessageTypeState, snapshot)
	if err != nil {
		return
	}
	sub.service.relay.BroadcastToSession(snapshot.SessionID, msg)
}
