package server

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/addisbingo/engine/internal/bingo"
)

// Message represents the base WebSocket message structure
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(messageType MessageType, data interface{}) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Client → Server Messages

type CreateSessionData struct {
	Stake int `json:"stake"`
}

type JoinSessionData struct {
	SessionID string `json:"sessionId"`
}

type MarkNumberData struct {
	SessionID string `json:"sessionId"`
	Number    int    `json:"number"`
}

type ClaimBingoData struct {
	SessionID string `json:"sessionId"`
}

type GetStateData struct {
	SessionID string `json:"sessionId"`
}

// Server → Client Messages

// WelcomeData carries the opaque player id assigned to the connection. The
// id identifies the player for the connection's whole lifetime.
type WelcomeData struct {
	PlayerID string `json:"playerId"`
}

type SessionCreatedData struct {
	SessionID string `json:"sessionId"`
	Stake     int    `json:"stake"`
}

// SessionJoinedData is sent only to the joining player: the board is private
// to its owner and never appears in session-wide broadcasts.
type SessionJoinedData struct {
	SessionID string         `json:"sessionId"`
	PlayerID  string         `json:"playerId"`
	Board     []int          `json:"board"`
	State     bingo.Snapshot `json:"state"`
}

type SessionLeftData struct {
	SessionID string `json:"sessionId"`
}

type NumberMarkedData struct {
	Number   int  `json:"number"`
	Accepted bool `json:"accepted"`
}

type NumberCalledData struct {
	SessionID   string `json:"sessionId"`
	Number      int    `json:"number"`
	CalledCount int    `json:"calledCount"`
}

type GameStartedData struct {
	SessionID string `json:"sessionId"`
}

type GameWonData struct {
	SessionID string `json:"sessionId"`
	Winner    string `json:"winner"`
	Stake     int    `json:"stake"`
	Bonus     int    `json:"bonus"`
	Derash    int    `json:"derash"`
}

// StateData answers a state request: the session-wide snapshot plus, when
// the requester belongs to the session, their private board and marks so a
// reconnecting client can rebuild its display.
type StateData struct {
	bingo.Snapshot
	Board  []int `json:"board,omitempty"`
	Marked []int `json:"marked,omitempty"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorCode maps engine errors onto stable wire codes. Unknown errors fall
// back to a generic code rather than leaking internals.
func errorCode(err error) string {
	switch {
	case errors.Is(err, bingo.ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, bingo.ErrPlayerNotFound):
		return "player_not_found"
	case errors.Is(err, bingo.ErrDuplicatePlayer):
		return "duplicate_player"
	case errors.Is(err, bingo.ErrGameInProgress):
		return "game_in_progress"
	case errors.Is(err, bingo.ErrGameNotInProgress):
		return "game_not_in_progress"
	case errors.Is(err, bingo.ErrGameFinished):
		return "game_finished"
	case errors.Is(err, bingo.ErrNotEnoughPlayers):
		return "not_enough_players"
	case errors.Is(err, bingo.ErrCallTooSoon):
		return "call_too_soon"
	case errors.Is(err, bingo.ErrAllNumbersCalled):
		return "all_numbers_called"
	case errors.Is(err, bingo.ErrNumberNotCalled):
		return "number_not_called"
	case errors.Is(err, bingo.ErrInvalidClaim):
		return "invalid_claim"
	default:
		return "internal_error"
	}
}
