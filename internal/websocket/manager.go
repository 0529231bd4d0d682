package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/Tonic56/crypto-market-watch/internal/models"
	"github.com/Tonic56/crypto-market-watch/storage/redis"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	sendBuffer = 64
)

// Subscriber is the alert bus the manager follows per connected user.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string) error
	Unsubscribe(ctx context.Context, channel string) error
}

type Client struct {
	Manager *Manager
	Conn    *websocket.Conn
	UserID  uuid.UUID
	Send    chan []byte
}

func NewClient(m *Manager, conn *websocket.Conn, userID uuid.UUID) *Client {
	return &Client{
		Manager: m,
		Conn:    conn,
		UserID:  userID,
		Send:    make(chan []byte, sendBuffer),
	}
}

// Manager pushes alert notifications to the websocket of their user.
// Without a subscriber it delivers notifications handed to Notify directly.
type Manager struct {
	clients    map[uuid.UUID]*Client
	mu         sync.RWMutex
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	log        *slog.Logger
	subscriber Subscriber
	messages   <-chan redis.Message
}

func NewManager(log *slog.Logger) *Manager {
	return &Manager{
		clients:    make(map[uuid.UUID]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        log,
	}
}

// WithSubscriber routes notifications through the redis bus.
func (m *Manager) WithSubscriber(sub Subscriber, messages <-chan redis.Message) *Manager {
	m.subscriber = sub
	m.messages = messages
	return m
}

func (m *Manager) Run(ctx context.Context) {
	if m.messages != nil {
		go m.listenToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			m.log.Info("Manager run loop stopping...")
			close(m.done)
			m.closeAll()
			return
		case client := <-m.register:
			m.registerClient(ctx, client)
		case client := <-m.unregister:
			m.unregisterClient(ctx, client)
		}
	}
}

// Register returns false once the manager has stopped.
func (m *Manager) Register(client *Client) bool {
	select {
	case m.register <- client:
		return true
	case <-m.done:
		return false
	}
}

func (m *Manager) Unregister(client *Client) {
	select {
	case m.unregister <- client:
	case <-m.done:
	}
}

// Notify implements the alert notifier for in-process delivery.
func (m *Manager) Notify(_ context.Context, n models.AlertNotification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}

	m.deliver(n.UserID, payload)
	return nil
}

func (m *Manager) listenToRedis(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			m.log.Info("Redis listener stopping...")
			return
		case msg, ok := <-m.messages:
			if !ok {
				m.log.Warn("manager redis subscriber channel closed")
				return
			}
			m.processRedisMessage(msg)
		}
	}
}

func (m *Manager) processRedisMessage(msg redis.Message) {
	userID, ok := redis.ParseAlertChannel(msg.Channel)
	if !ok {
		m.log.Warn("ignoring message on unknown channel", "channel", msg.Channel)
		return
	}

	m.deliver(userID, []byte(msg.Payload))
}

func (m *Manager) deliver(userID uuid.UUID, payload []byte) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	client, ok := m.clients[userID]
	if !ok {
		return
	}

	select {
	case client.Send <- payload:
	default:
		m.log.Warn("client send channel is full, dropping message", "userID", userID)
	}
}

func (m *Manager) registerClient(ctx context.Context, client *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if oldClient, exists := m.clients[client.UserID]; exists {
		m.log.Warn("client re-registering, closing old connection", "userID", client.UserID)
		close(oldClient.Send)
		oldClient.Conn.Close()
	}

	m.clients[client.UserID] = client
	m.log.Info("new client registered", "userID", client.UserID)

	if m.subscriber != nil {
		if err := m.subscriber.Subscribe(ctx, redis.AlertChannel(client.UserID)); err != nil {
			m.log.Error("manager: could not subscribe to alert channel", "userID", client.UserID, "error", err)
		}
	}
}

func (m *Manager) unregisterClient(ctx context.Context, client *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.clients[client.UserID]
	if !ok || current != client {
		return
	}

	delete(m.clients, client.UserID)
	close(client.Send)
	m.log.Info("client unregistered", "userID", client.UserID)

	if m.subscriber != nil {
		if err := m.subscriber.Unsubscribe(ctx, redis.AlertChannel(client.UserID)); err != nil {
			m.log.Error("manager: failed to unsubscribe from redis", "userID", client.UserID, "error", err)
		}
	}
}

func (m *Manager) closeAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, client := range m.clients {
		close(client.Send)
		delete(m.clients, id)
	}
}

func (m *Manager) connected(userID uuid.UUID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.clients[userID]
	return ok
}

func (c *Client) Writer() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.Manager.log.Warn("failed to write message to client", "userID", c.UserID)
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) Reader() {
	defer func() {
		c.Manager.Unregister(c)
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(512)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { c.Conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Manager.log.Warn("unexpected close error", "userID", c.UserID, "error", err)
			}
			break
		}
	}
}
