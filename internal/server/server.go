package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"
)

// Server accepts WebSocket connections and fans session broadcasts out to
// them. It performs no game logic itself; every message is routed to the
// GameService.
type Server struct {
	upgrader    websocket.Upgrader
	connections map[*Connection]bool
	register    chan *Connection
	unregister  chan *Connection
	logger      *log.Logger
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
	service     *GameService
	httpServer  *http.Server
}

// NewServer creates a new WebSocket server
func NewServer(logger *log.Logger) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// The board page is served from a separate origin
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		connections: make(map[*Connection]bool),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		logger:      logger.WithPrefix("server"),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// SetService sets the game service for the server
func (s *Server) SetService(service *GameService) {
	s.service = service
}

// Start starts the WebSocket server and blocks until it stops
func (s *Server) Start(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)

	s.httpServer = &http.Server{Addr: addr, Handler: mux}

	s.logger.Info("Starting WebSocket server", "addr", addr)

	g, ctx := errgroup.WithContext(s.ctx)
	g.Go(func() error {
		s.run(ctx)
		return nil
	})
	g.Go(func() error {
		return s.httpServer.ListenAndServe()
	})
	return g.Wait()
}

// Shutdown stops the server and closes all connections
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()

	s.mu.Lock()
	for conn := range s.connections {
		_ = conn.Close() // Ignore close errors during shutdown
	}
	s.mu.Unlock()

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// run handles connection lifecycle
func (s *Server) run(ctx context.Context) {
	for {
		select {
		case conn := <-s.register:
			s.mu.Lock()
			s.connections[conn] = true
			total := len(s.connections)
			s.mu.Unlock()
			s.logger.Info("Client connected", "player", conn.PlayerID(), "total", total)

		case conn := <-s.unregister:
			s.mu.Lock()
			_, ok := s.connections[conn]
			if ok {
				delete(s.connections, conn)
			}
			total := len(s.connections)
			s.mu.Unlock()

			if ok {
				// A disconnect is equivalent to leaving the current session
				if s.service != nil {
					s.service.LeaveSession(conn.PlayerID())
				}
				_ = conn.Close() // Ignore close errors during unregistration
				s.logger.Info("Client disconnected", "player", conn.PlayerID(), "total", total)
			}

		case <-ctx.Done():
			return
		}
	}
}

// handleWebSocket handles WebSocket upgrade requests
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := NewConnection(conn, s.logger, s.service)

	// The run loop exits once the server context is cancelled, so both
	// registration sends must not block past shutdown
	select {
	case s.register <- client:
	case <-s.ctx.Done():
		_ = client.Close()
		return
	}
	client.Start()

	// Connection cleanup is handled by the connection itself
	go func() {
		<-client.ctx.Done()
		select {
		case s.unregister <- client:
		case <-s.ctx.Done():
		}
	}()
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK %d", len(s.ConnectedPlayers())) // Ignore write errors for health check
}

// BroadcastToSession sends a message to all connections in a session
func (s *Server) BroadcastToSession(sessionID string, msg *Message) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for conn := range s.connections {
		if conn.SessionID() == sessionID {
			if err := conn.SendMessage(msg); err != nil {
				s.logger.Error("Failed to send message to client", "error", err, "player", conn.PlayerID())
			} else {
				count++
			}
		}
	}

	s.logger.Debug("Broadcasted message to session", "session", sessionID, "type", msg.Type, "recipients", count)
}

// SendToPlayer sends a message to a specific player
func (s *Server) SendToPlayer(playerID string, msg *Message) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for conn := range s.connections {
		if conn.PlayerID() == playerID {
			return conn.SendMessage(msg)
		}
	}

	return fmt.Errorf("player not connected: %s", playerID)
}

// ConnectedPlayers returns the ids of all connected players
func (s *Server) ConnectedPlayers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	players := make([]string, 0, len(s.connections))
	for conn := range s.connections {
		players = append(players, conn.PlayerID())
	}
	return players
}
