package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"talentbridge/internal/payments"
	"talentbridge/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Источники фильтрует обратный прокси
	},
}

// NotifyHub — единственный экземпляр хаба оповещений для всего приложения.
var NotifyHub = NewHub()

// NotifyMessage — сообщение клиенту панели.
// Тип "invalidation" несет список сброшенных ключей представлений:
// клиент перечитывает только то, что в нем перечислено.
type NotifyMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type hubClient struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID uint
}

// Hub держит подключения клиентов панели и рассылает им оповещения.
type Hub struct {
	clients    map[uint]*hubClient
	broadcast  chan []byte
	register   chan *hubClient
	unregister chan *hubClient
	mu         sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan []byte, 64),
		register:   make(chan *hubClient),
		unregister: make(chan *hubClient),
		clients:    make(map[uint]*hubClient),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.userID] = client
			h.mu.Unlock()
			slog.Info("Клиент оповещений подключен", "userID", client.userID)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.userID]; ok {
				delete(h.clients, client.userID)
				close(client.send)
			}
			h.mu.Unlock()
			slog.Info("Клиент оповещений отключен", "userID", client.userID)

		case message := <-h.broadcast:
			h.mu.Lock()
			for userID, client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Клиент не вычитывает — отключаем, пусть переподключится
					close(client.send)
					delete(h.clients, userID)
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastInvalidation рассылает список сброшенных ключей представлений.
func (h *Hub) BroadcastInvalidation(keys []string) {
	h.enqueue(NotifyMessage{Type: "invalidation", Payload: keys})
}

// BroadcastBudgetAlert сообщает о срабатывании бюджетного правила.
func (h *Hub) BroadcastBudgetAlert(businessID uint, rule string, period models.BudgetPeriod) {
	h.enqueue(NotifyMessage{Type: "budgetAlert", Payload: gin.H{
		"businessId": businessID,
		"rule":       rule,
		"used":       payments.ToMajorUnits(period.Used),
		"cap":        capMajor(period),
	}})
}

func (h *Hub) enqueue(msg NotifyMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Warn("Не удалось сериализовать оповещение", "error", err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
		slog.Warn("Очередь оповещений переполнена, сообщение отброшено", "type", msg.Type)
	}
}

func capMajor(period models.BudgetPeriod) interface{} {
	if period.Cap == nil {
		return nil
	}
	return payments.ToMajorUnits(*period.Cap)
}

// NotifyWSEndpoint поднимает websocket-соединение для клиента панели.
func NotifyWSEndpoint(c *gin.Context) {
	userID := c.GetUint("user_id")
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Warn("Не удалось открыть websocket", "error", err, "userID", userID)
		return
	}

	client := &hubClient{hub: NotifyHub, conn: conn, send: make(chan []byte, 16), userID: userID}
	NotifyHub.register <- client

	go client.writePump()
	go client.readPump()
}

func (cl *hubClient) writePump() {
	defer cl.conn.Close()
	for message := range cl.send {
		if err := cl.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}

// readPump только следит за закрытием соединения: клиенты панели
// ничего не присылают.
func (cl *hubClient) readPump() {
	defer func() {
		cl.hub.unregister <- cl
		cl.conn.Close()
	}()
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			return
		}
	}
}
