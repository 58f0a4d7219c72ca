package bingo

import (
	"sync"
	"time"
)

// EventType represents a game event type with type safety
type EventType string

// EventType constants for session domain events
const (
	EventTypePlayerJoined EventType = "player_joined"
	EventTypePlayerLeft   EventType = "player_left"
	EventTypeGameStarted  EventType = "game_started"
	EventTypeNumberCalled EventType = "number_called"
	EventTypeGameWon      EventType = "game_won"
)

// String returns the string representation of the event type
func (et EventType) String() string {
	return string(et)
}

// GameEvent represents any event that occurs during a bingo session
type GameEvent interface {
	EventType() EventType
	Timestamp() time.Time
}

// EventSubscriber receives session events. Subscribers are invoked
// synchronously after the session releases its lock, so they may call back
// into the session (e.g. to take a snapshot) without deadlocking.
type EventSubscriber interface {
	OnEvent(event GameEvent)
}

// EventBus fans session events out to subscribers
type EventBus struct {
	mu          sync.RWMutex
	subscribers []EventSubscriber
}

// NewEventBus creates an empty event bus
func NewEventBus() *EventBus {
	return &EventBus{}
}

// Subscribe registers a subscriber for all future events
func (eb *EventBus) Subscribe(sub EventSubscriber) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.subscribers = append(eb.subscribers, sub)
}

// Publish delivers the event to every subscriber in registration order
func (eb *EventBus) Publish(event GameEvent) {
	eb.mu.RLock()
	subs := make([]EventSubscriber, len(eb.subscribers))
	copy(subs, eb.subscribers)
	eb.mu.RUnlock()

	for _, sub := range subs {
		sub.OnEvent(event)
	}
}

// PlayerJoinedEvent is published when a player is added to the roster
type PlayerJoinedEvent struct {
	SessionID   string
	PlayerID    string
	PlayerCount int
	timestamp   time.Time
}

func (e PlayerJoinedEvent) EventType() EventType { return EventTypePlayerJoined }
func (e PlayerJoinedEvent) Timestamp() time.Time { return e.timestamp }

// PlayerLeftEvent is published when a player is removed from the roster
type PlayerLeftEvent struct {
	SessionID   string
	PlayerID    string
	PlayerCount int
	timestamp   time.Time
}

func (e PlayerLeftEvent) EventType() EventType { return EventTypePlayerLeft }
func (e PlayerLeftEvent) Timestamp() time.Time { return e.timestamp }

// GameStartedEvent is published when a session transitions to started
type GameStartedEvent struct {
	SessionID string
	timestamp time.Time
}

func (e GameStartedEvent) EventType() EventType { return EventTypeGameStarted }
func (e GameStartedEvent) Timestamp() time.Time { return e.timestamp }

// NumberCalledEvent is published for each drawn number
type NumberCalledEvent struct {
	SessionID   string
	Number      int
	CalledCount int
	timestamp   time.Time
}

func (e NumberCalledEvent) EventType() EventType { return EventTypeNumberCalled }
func (e NumberCalledEvent) Timestamp() time.Time { return e.timestamp }

// GameWonEvent is published when a session ends with a winner
type GameWonEvent struct {
	SessionID string
	Payout    Payout
	timestamp time.Time
}

func (e GameWonEvent) EventType() EventType { return EventTypeGameWon }
func (e GameWonEvent) Timestamp() time.Time { return e.timestamp }
