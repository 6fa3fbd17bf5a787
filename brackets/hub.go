package brackets

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Типы событий, которые внешний слой рассылает после успешных переходов
// состояния. Сам движок событий не публикует — он чистый; публикация
// происходит после сохранения нового состояния.
const (
	EventMatchCompleted      = "MATCH_COMPLETED"
	EventRoundGenerated      = "ROUND_GENERATED"
	EventTournamentStarted   = "TOURNAMENT_STARTED"
	EventTournamentCompleted = "TOURNAMENT_COMPLETED"
)

// Event — сообщение для подписчиков комнаты турнира.
type Event struct {
	Type         string      `json:"type"`
	TournamentID string      `json:"tournament_id"`
	Payload      interface{} `json:"payload,omitempty"`
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Client — одно WebSocket-подключение, привязанное к комнате турнира.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	room string
}

// Hub раздаёт события по комнатам. Комната создаётся при первом
// подписчике и удаляется вместе с последним.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	rooms      map[string]map[*Client]bool
	mu         sync.RWMutex
	logger     *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rooms:      make(map[string]map[*Client]bool),
		logger:     logger,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if _, ok := h.rooms[client.room]; !ok {
				h.rooms[client.room] = make(map[*Client]bool)
			}
			h.rooms[client.room][client] = true
			h.mu.Unlock()
			h.logger.Debug("ws client joined", slog.String("room", client.room))

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.rooms[client.room]; ok {
				if _, registered := clients[client]; registered {
					delete(clients, client)
					close(client.send)
					if len(clients) == 0 {
						delete(h.rooms, client.room)
					}
				}
			}
			h.mu.Unlock()
			h.logger.Debug("ws client left", slog.String("room", client.room))
		}
	}
}

// Publish отправляет событие всем подписчикам турнира. Медленные клиенты
// с переполненным буфером пропускают сообщение, рассылку это не блокирует.
func (h *Hub) Publish(event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to marshal ws event", slog.Any("error", err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.rooms[event.TournamentID] {
		select {
		case client.send <- payload:
		default:
			h.logger.Warn("ws client send buffer full, dropping event",
				slog.String("room", event.TournamentID), slog.String("type", event.Type))
		}
	}
}

// NewClient регистрирует подключение в комнате турнира и запускает его
// насосы чтения и записи.
func (h *Hub) NewClient(conn *websocket.Conn, tournamentID string) *Client {
	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, 256),
		room: tournamentID,
	}
	h.register <- client
	go client.writePump()
	go client.readPump()
	return client
}

// readPump только поддерживает соединение: входящие сообщения клиентов
// игнорируются, рассылка односторонняя.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
