package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/addisbingo/engine/internal/bingo"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

var (
	ErrConnectionClosed = websocket.ErrCloseSent
)

// Connection represents a WebSocket connection to a client. Each connection
// is assigned an opaque player id at upgrade time; the id stands in for the
// player for the connection's whole duration.
type Connection struct {
	conn      *websocket.Conn
	send      chan *Message
	playerID  string
	sessionID string
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.RWMutex
	closeOnce sync.Once
	service   *GameService
}

// NewConnection creates a new connection wrapper
func NewConnection(conn *websocket.Conn, logger *log.Logger, service *GameService) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	playerID := uuid.NewString()

	return &Connection{
		conn:     conn,
		send:     make(chan *Message, 256),
		playerID: playerID,
		logger:   logger.WithPrefix("conn").With("player", playerID),
		ctx:      ctx,
		cancel:   cancel,
		service:  service,
	}
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()

	welcome, err := NewMessage(MessageTypeWelcome, WelcomeData{PlayerID: c.playerID})
	if err == nil {
		_ = c.SendMessage(welcome)
	}
}

// Close closes the connection
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
		err = c.conn.Close()
	})
	return err
}

// SendMessage sends a message to the client
func (c *Connection) SendMessage(msg *Message) error {
	defer func() {
		if r := recover(); r != nil {
			// Channel was closed, this is expected during shutdown
			c.logger.Debug("Attempted to send message on closed connection", "error", r)
		}
	}()

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.logger.Warn("Connection send buffer full, closing connection")
		_ = c.Close() // Ignore close errors
		return ErrConnectionClosed
	}
}

// PlayerID returns the opaque player id assigned to this connection
func (c *Connection) PlayerID() string {
	return c.playerID
}

// SetSession associates this connection with a session
func (c *Connection) SetSession(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionID = sessionID
}

// SessionID returns the associated session code
func (c *Connection) SessionID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionID
}

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }() // Ignore close errors during cleanup

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			break
		}

		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close() // Ignore close errors during cleanup
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// handleMessage processes incoming messages from the client. Malformed
// payloads are rejected at this boundary; errors from the engine go back to
// this connection only, never to the whole session.
func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("Received message", "type", msg.Type)

	if c.service == nil {
		c.sendError("service_unavailable", "Game service not available")
		return
	}

	switch msg.Type {
	case MessageTypeCreateSession:
		var data CreateSessionData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse create session data")
			return
		}
		c.handleCreateSession(data)

	case MessageTypeJoinSession:
		var data JoinSessionData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse join session data")
			return
		}
		c.handleJoinSession(data)

	case MessageTypeLeaveSession:
		c.handleLeaveSession()

	case MessageTypeMarkNumber:
		var data MarkNumberData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse mark number data")
			return
		}
		c.handleMarkNumber(data)

	case MessageTypeClaimBingo:
		var data ClaimBingoData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse claim data")
			return
		}
		c.handleClaimBingo(data)

	case MessageTypeGetState:
		var data GetStateData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse state request")
			return
		}
		c.handleGetState(data)

	default:
		c.sendError("unknown_message_type", "Unknown message type: "+msg.Type.String())
	}
}

// sendError sends an error message to the client
func (c *Connection) sendError(code, message string) {
	errorMsg, err := NewMessage(MessageTypeError, ErrorData{
		Code:    code,
		Message: message,
	})
	if err != nil {
		c.logger.Error("Failed to create error message", "error", err)
		return
	}

	_ = c.SendMessage(errorMsg) // Ignore send errors during error handling
}

// sendEngineError reports an engine failure to this connection only
func (c *Connection) sendEngineError(err error) {
	c.sendError(errorCode(err), err.Error())
}

func (c *Connection) handleCreateSession(data CreateSessionData) {
	c.logger.Info("Create session request", "stake", data.Stake)

	sessionID, err := c.service.CreateSession(data.Stake)
	if err != nil {
		c.sendEngineError(err)
		return
	}

	response, _ := NewMessage(MessageTypeSessionCreated, SessionCreatedData{
		SessionID: sessionID,
		Stake:     data.Stake,
	})
	_ = c.SendMessage(response) // Ignore send errors
}

func (c *Connection) handleJoinSession(data JoinSessionData) {
	c.logger.Info("Join session request", "session", data.SessionID)

	if data.SessionID == "" {
		c.sendError("invalid_message", "Session id required")
		return
	}

	board, state, err := c.service.JoinSession(data.SessionID, c.playerID)
	if err != nil {
		c.sendEngineError(err)
		return
	}

	c.SetSession(data.SessionID)

	response, _ := NewMessage(MessageTypeSessionJoined, SessionJoinedData{
		SessionID: data.SessionID,
		PlayerID:  c.playerID,
		Board:     board.Numbers(),
		State:     state,
	})
	_ = c.SendMessage(response) // Ignore send errors
}

func (c *Connection) handleLeaveSession() {
	c.logger.Info("Leave session request", "session", c.SessionID())

	sessionID := c.SessionID()
	c.service.LeaveSession(c.playerID)
	c.SetSession("")

	response, _ := NewMessage(MessageTypeSessionLeft, SessionLeftData{SessionID: sessionID})
	_ = c.SendMessage(response) // Ignore send errors
}

func (c *Connection) handleMarkNumber(data MarkNumberData) {
	if data.Number < 1 || data.Number > bingo.MaxNumber {
		c.sendError("invalid_message", "Number must be between 1 and 75")
		return
	}

	accepted, err := c.service.MarkNumber(data.SessionID, c.playerID, data.Number)
	if err != nil {
		c.sendEngineError(err)
		return
	}

	response, _ := NewMessage(MessageTypeNumberMarked, NumberMarkedData{
		Number:   data.Number,
		Accepted: accepted,
	})
	_ = c.SendMessage(response) // Ignore send errors
}

func (c *Connection) handleClaimBingo(data ClaimBingoData) {
	c.logger.Info("Bingo claim", "session", data.SessionID)

	// A valid claim is broadcast by the session's event subscriber; only the
	// failure comes back here.
	if err := c.service.ClaimBingo(data.SessionID, c.playerID); err != nil {
		c.sendEngineError(err)
	}
}

func (c *Connection) handleGetState(data GetStateData) {
	state, err := c.service.GetState(data.SessionID, c.playerID)
	if err != nil {
		c.sendEngineError(err)
		return
	}

	response, _ := NewMessage(MessageTypeState, state)
	_ = c.SendMessage(response) // Ignore send errors
}
