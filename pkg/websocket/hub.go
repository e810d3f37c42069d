package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"
)

// Hub управляет всеми клиентами и рассылкой сообщений.
// Клиенты группируются по организации: обновления коллекции активов
// доставляются только подключениям своей организации.
type Hub struct {
	clients    map[*Client]bool
	orgClients map[string][]*Client
	Register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		orgClients: make(map[string][]*Client),
		Register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			h.clients[client] = true
			h.orgClients[client.OrgID] = append(h.orgClients[client.OrgID], client)
			log.Printf("Клиент зарегистрирован: orgID %s", client.OrgID)
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				clients := h.orgClients[client.OrgID]
				for i, c := range clients {
					if c == client {
						h.orgClients[client.OrgID] = append(clients[:i], clients[i+1:]...)
						break
					}
				}
				if len(h.orgClients[client.OrgID]) == 0 {
					delete(h.orgClients, client.OrgID)
				}
				log.Printf("Клиент отсоединен: orgID %s", client.OrgID)
			}
			h.mu.Unlock()
		}
	}
}

// SendMessageToOrg рассылает сообщение всем подключениям организации.
func (h *Hub) SendMessageToOrg(orgID string, payload interface{}, messageType string) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	envelope := Envelope{
		Type:      messageType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}

	messageBytes, err := json.Marshal(envelope)
	if err != nil {
		log.Printf("Ошибка сериализации сообщения для WebSocket: %v", err)
		return err
	}

	for _, client := range h.orgClients[orgID] {
		select {
		case client.Send <- messageBytes:
		default:
		}
	}

	return nil
}
