package server

// MessageType represents a WebSocket message type with type safety
type MessageType string

// WebSocket message type constants
// These are used for client-server communication protocol
const (
	// Client to server messages
	MessageTypeCreateSession MessageType = "create_session"
	MessageTypeJoinSession   MessageType = "join_session"
	MessageTypeLeaveSession  MessageType = "leave_session"
	MessageTypeMarkNumber    MessageType = "mark_number"
	MessageTypeClaimBingo    MessageType = "claim_bingo"
	MessageTypeGetState      MessageType = "get_state"

	// Server to client messages
	MessageTypeWelcome        MessageType = "welcome"
	MessageTypeSessionCreated MessageType = "session_created"
	MessageTypeSessionJoined  MessageType = "session_joined"
	MessageTypeSessionLeft    MessageType = "session_left"
	MessageTypeNumberMarked   MessageType = "number_marked"
	MessageTypeNumberCalled   MessageType = "number_called"
	MessageTypeGameStarted    MessageType = "game_started"
	MessageTypeGameWon        MessageType = "game_won"
	MessageTypeState          MessageType = "state"
	MessageTypeError          MessageType = "error"
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}
