package gateway

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// InboundHandler receives every text frame a client sends, together with the
// sender's identity.
type InboundHandler func(chatID, participantID, displayName string, message []byte)

// ConnectionManager owns the WebSocket connections of every chat.
type ConnectionManager struct {
	// Connection pools organized by chat ID
	chatConnections map[string]map[*Connection]bool
	mu              sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig

	inbound     InboundHandler
	broadcastCh chan BroadcastMessage
}

// Connection represents one WebSocket client in one chat.
type Connection struct {
	ID            string
	ParticipantID string
	DisplayName   string
	ChatID        string
	Conn          *websocket.Conn
	Send          chan []byte
	Manager       *ConnectionManager

	ConnectedAt time.Time
	LastPing    time.Time
}

// ConnectionConfig holds configuration for WebSocket connections.
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// BroadcastMessage is one outbound frame, optionally targeted at a single
// participant.
type BroadcastMessage struct {
	ChatID        string
	Data          []byte
	ParticipantID string // if set, only send to this participant
}

// DefaultConnectionConfig returns default WebSocket configuration.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  4096,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// Allow all origins in development - restrict in production
			return true
		},
	}
}

// NewConnectionManager creates a connection manager. inbound may be nil for
// broadcast-only gateways.
func NewConnectionManager(config ConnectionConfig, inbound InboundHandler) *ConnectionManager {
	return &ConnectionManager{
		chatConnections: make(map[string]map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		inbound:     inbound,
		broadcastCh: make(chan BroadcastMessage, 1000),
	}
}

// Start begins processing broadcast messages. Blocks until ctx is done.
func (cm *ConnectionManager) Start(ctx context.Context) {
	log.Info().Msg("connection manager started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("connection manager shutting down")
			return
		case message := <-cm.broadcastCh:
			cm.handleBroadcast(message)
		}
	}
}

// UpgradeConnection upgrades an HTTP request to a WebSocket client of chatID.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request, chatID, participantID, displayName string) error {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade WebSocket connection")
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:            uuid.New().String(),
		ParticipantID: participantID,
		DisplayName:   displayName,
		ChatID:        chatID,
		Conn:          conn,
		Send:          make(chan []byte, 256),
		Manager:       cm,
		ConnectedAt:   time.Now(),
		LastPing:      time.Now(),
	}

	cm.registerConnection(connection)

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("connection_id", connection.ID).
		Str("participant_id", participantID).
		Str("chat_id", chatID).
		Msg("WebSocket connection established")

	return nil
}

func (cm *ConnectionManager) registerConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.chatConnections[conn.ChatID] == nil {
		cm.chatConnections[conn.ChatID] = make(map[*Connection]bool)
	}
	cm.chatConnections[conn.ChatID][conn] = true

	log.Debug().
		Str("connection_id", conn.ID).
		Str("chat_id", conn.ChatID).
		Int("total_connections", len(cm.chatConnections[conn.ChatID])).
		Msg("connection registered")
}

func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if connections, exists := cm.chatConnections[conn.ChatID]; exists {
		if _, exists := connections[conn]; exists {
			delete(connections, conn)
			close(conn.Send)

			if len(connections) == 0 {
				delete(cm.chatConnections, conn.ChatID)
			}

			log.Info().
				Str("connection_id", conn.ID).
				Str("participant_id", conn.ParticipantID).
				Str("chat_id", conn.ChatID).
				Msg("connection unregistered")
		}
	}
}

// BroadcastToChat sends a frame to every connection of a chat.
func (cm *ConnectionManager) BroadcastToChat(chatID string, data []byte) {
	select {
	case cm.broadcastCh <- BroadcastMessage{ChatID: chatID, Data: data}:
	default:
		log.Warn().Str("chat_id", chatID).Msg("broadcast channel full, dropping message")
	}
}

// SendToParticipant sends a frame only to one participant's connections.
func (cm *ConnectionManager) SendToParticipant(chatID, participantID string, data []byte) {
	select {
	case cm.broadcastCh <- BroadcastMessage{ChatID: chatID, Data: data, ParticipantID: participantID}:
	default:
		log.Warn().
			Str("chat_id", chatID).
			Str("participant_id", participantID).
			Msg("broadcast channel full, dropping direct message")
	}
}

// ParticipantChats returns the chat IDs a participant currently has open
// connections in. Used to route direct messages when only the participant is
// known.
func (cm *ConnectionManager) ParticipantChats(participantID string) []string {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	var chats []string
	for chatID, connections := range cm.chatConnections {
		for conn := range connections {
			if conn.ParticipantID == participantID {
				chats = append(chats, chatID)
				break
			}
		}
	}
	return chats
}

func (cm *ConnectionManager) handleBroadcast(message BroadcastMessage) {
	cm.mu.RLock()
	connections, exists := cm.chatConnections[message.ChatID]
	if !exists {
		cm.mu.RUnlock()
		return
	}

	var targets []*Connection
	for conn := range connections {
		if message.ParticipantID != "" && conn.ParticipantID != message.ParticipantID {
			continue
		}
		targets = append(targets, conn)
	}
	cm.mu.RUnlock()

	for _, conn := range targets {
		select {
		case conn.Send <- message.Data:
		default:
			// Connection is slow/dead, close it
			log.Warn().
				Str("connection_id", conn.ID).
				Str("participant_id", conn.ParticipantID).
				Msg("connection send buffer full, closing connection")
			cm.unregisterConnection(conn)
			conn.Conn.Close()
		}
	}

	log.Debug().
		Str("chat_id", message.ChatID).
		Int("connections", len(targets)).
		Msg("frame broadcasted")
}

// GetConnectionStats returns statistics about active connections.
func (cm *ConnectionManager) GetConnectionStats() map[string]interface{} {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	totalConnections := 0
	chatCounts := make(map[string]int)

	for chatID, connections := range cm.chatConnections {
		count := len(connections)
		totalConnections += count
		chatCounts[chatID] = count
	}

	return map[string]interface{}{
		"total_connections": totalConnections,
		"active_chats":      len(cm.chatConnections),
		"chat_connections":  chatCounts,
	}
}

// writePump handles sending messages to the WebSocket connection.
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		c.Manager.unregisterConnection(c)
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if !ok {
				// Channel was closed
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to send ping")
				return
			}
			c.LastPing = time.Now()
		}
	}
}

// readPump handles reading messages from the WebSocket connection.
func (c *Connection) readPump() {
	defer func() {
		c.Manager.unregisterConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		c.LastPing = time.Now()
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("unexpected WebSocket close error")
			}
			break
		}

		if c.Manager.inbound != nil {
			c.Manager.inbound(c.ChatID, c.ParticipantID, c.DisplayName, message)
		}
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}
