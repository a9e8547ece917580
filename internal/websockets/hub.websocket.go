package websockets

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	STATUS_UNAUTHENTICATED = iota
	STATUS_AUTHENTICATED
	STATUS_CLOSED

	AUTH_HANDSHAKE_TIMEOUT = 10 * time.Second
)

type Hub struct {
	register   chan *Client
	unregister chan *Client
	clients    map[string]*Client
	mutex      sync.RWMutex
}

func (h *Hub) run(m *Manager) {
	for {
		select {
		case client := <-h.register:
			m.registerClient(client)

		case client := <-h.unregister:
			func() {
				defer func() {
					if r := recover(); r != nil {
						_ = r
					}
				}()
				close(client.send)
			}()
			m.unregisterClient(client)
		}
	}
}

func (m *Manager) registerClient(client *Client) {
	log := m.log.Function("registerClient")

	m.hub.mutex.Lock()
	defer m.hub.mutex.Unlock()

	m.hub.clients[client.ID] = client

	log.Info("Client registered", "clientID", client.ID, "status", client.Status)
}

func (m *Manager) unregisterClient(client *Client) {
	log := m.log.Function("unregisterClient")

	m.hub.mutex.Lock()
	defer m.hub.mutex.Unlock()

	delete(m.hub.clients, client.ID)

	log.Info("Client unregistered", "clientID", client.ID, "userID", client.UserID)
}

// startAuthTimeout disconnects clients that never complete the auth
// handshake.
func (c *Client) startAuthTimeout() {
	log := c.Manager.log.Function("startAuthTimeout")

	go func() {
		time.Sleep(AUTH_HANDSHAKE_TIMEOUT)
		if c.Status == STATUS_UNAUTHENTICATED {
			log.Warn(
				"Client failed to authenticate within timeout, disconnecting",
				"clientID", c.ID,
				"timeout", AUTH_HANDSHAKE_TIMEOUT,
			)

			if err := c.Connection.Close(); err != nil {
				log.Er("failed to close connection after auth timeout", err, "clientID", c.ID)
			}
		}
	}()
}

// SendMessageToUser delivers a message to every open connection belonging
// to the user. Slow consumers get one bounded retry before disconnection.
func (m *Manager) SendMessageToUser(userID uuid.UUID, message Message) {
	log := m.log.Function("SendMessageToUser")

	m.hub.mutex.RLock()
	defer m.hub.mutex.RUnlock()

	sentCount := 0
	totalUserConnections := 0

	for clientID, client := range m.hub.clients {
		if client.Status == STATUS_AUTHENTICATED && client.UserID == userID {
			totalUserConnections++
			select {
			case client.send <- message:
				sentCount++
			default:
				go func(c *Client, cID string, msg Message) {
					select {
					case c.send <- msg:
						log.Info("Message sent after retry", "clientID", cID)
					case <-time.After(5 * time.Second):
						_ = log.Error("Client too slow, disconnecting", "clientID", cID)
						m.hub.unregister <- c
					}
				}(client, clientID, message)
			}
		}
	}

	if totalUserConnections == 0 {
		log.Debug("No connections found for user", "userID", userID)
		return
	}

	log.Debug(
		"Message sent to user connections",
		"userID", userID,
		"messageID", message.ID,
		"sentTo", sentCount,
	)
}
