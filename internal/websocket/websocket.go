package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"frota-backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Константы для типов сообщений WebSocket
const (
	TripStatusUpdateType     = "TRIP_STATUS_UPDATE"
	DriverPositionUpdateType = "DRIVER_POSITION_UPDATE"
	GeofenceAlertType        = "GEOFENCE_ALERT"
	ServiceOrderUpdateType   = "SERVICE_ORDER_UPDATE"
)

// WebSocketMessage представляет формат сообщения WebSocket
type WebSocketMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// WebSocketManager управляет всеми подключениями WebSocket
type WebSocketManager struct {
	clientsByUser   map[uint]map[*websocket.Conn]bool
	clientsByTenant map[uint]map[*websocket.Conn]bool
	register        chan *WebSocketClient
	unregister      chan *WebSocketClient
	mutex           sync.RWMutex
}

// WebSocketClient представляет клиентское соединение WebSocket
type WebSocketClient struct {
	conn           *websocket.Conn
	userID         uint
	driverID       uint
	municipalityID uint
	clientID       string
}

// Глобальный менеджер WebSocket
var wsManager = NewWebSocketManager()

func NewWebSocketManager() *WebSocketManager {
	return &WebSocketManager{
		clientsByUser:   make(map[uint]map[*websocket.Conn]bool),
		clientsByTenant: make(map[uint]map[*websocket.Conn]bool),
		register:        make(chan *WebSocketClient),
		unregister:      make(chan *WebSocketClient),
	}
}

// Start запускает обработку регистраций WebSocket
func (manager *WebSocketManager) Start() {
	go func() {
		for {
			select {
			case client := <-manager.register:
				manager.mutex.Lock()
				if _, ok := manager.clientsByUser[client.userID]; !ok {
					manager.clientsByUser[client.userID] = make(map[*websocket.Conn]bool)
				}
				manager.clientsByUser[client.userID][client.conn] = true

				if _, ok := manager.clientsByTenant[client.municipalityID]; !ok {
					manager.clientsByTenant[client.municipalityID] = make(map[*websocket.Conn]bool)
				}
				manager.clientsByTenant[client.municipalityID][client.conn] = true
				manager.mutex.Unlock()
				log.Printf("WebSocket: клиент %s зарегистрирован (user=%d)", client.clientID, client.userID)

			case client := <-manager.unregister:
				manager.mutex.Lock()
				if conns, ok := manager.clientsByUser[client.userID]; ok {
					if _, exists := conns[client.conn]; exists {
						delete(conns, client.conn)
						client.conn.Close()
					}
					if len(conns) == 0 {
						delete(manager.clientsByUser, client.userID)
					}
				}
				if conns, ok := manager.clientsByTenant[client.municipalityID]; ok {
					delete(conns, client.conn)
					if len(conns) == 0 {
						delete(manager.clientsByTenant, client.municipalityID)
					}
				}
				manager.mutex.Unlock()
				log.Printf("WebSocket: клиент %s отключен", client.clientID)
			}
		}
	}()
}

// BroadcastToUser отправляет сообщение всем подключениям конкретного пользователя
func (manager *WebSocketManager) BroadcastToUser(userID uint, message *WebSocketMessage) {
	manager.mutex.RLock()
	defer manager.mutex.RUnlock()

	connections, exists := manager.clientsByUser[userID]
	if !exists || len(connections) == 0 {
		return
	}

	jsonMessage, err := json.Marshal(message)
	if err != nil {
		log.Printf("BroadcastToUser: ошибка при кодировании сообщения: %v", err)
		return
	}

	for conn := range connections {
		go func(c *websocket.Conn) {
			if err := c.WriteMessage(websocket.TextMessage, jsonMessage); err != nil {
				log.Printf("BroadcastToUser: ошибка при отправке сообщения: %v", err)
			}
		}(conn)
	}
}

// BroadcastToMunicipality отправляет сообщение всем подключениям тенанта
// (диспетчерам, наблюдающим за картой автопарка)
func (manager *WebSocketManager) BroadcastToMunicipality(municipalityID uint, message *WebSocketMessage) {
	manager.mutex.RLock()
	defer manager.mutex.RUnlock()

	connections, exists := manager.clientsByTenant[municipalityID]
	if !exists || len(connections) == 0 {
		return
	}

	jsonMessage, err := json.Marshal(message)
	if err != nil {
		log.Printf("BroadcastToMunicipality: ошибка при кодировании сообщения: %v", err)
		return
	}

	for conn := range connections {
		go func(c *websocket.Conn) {
			if err := c.WriteMessage(websocket.TextMessage, jsonMessage); err != nil {
				log.Printf("BroadcastToMunicipality: ошибка при отправке сообщения: %v", err)
			}
		}(conn)
	}
}

// positionMessage — сообщение с координатами от клиента-водителя
type positionMessage struct {
	Type      string  `json:"type"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Handler обрабатывает подключения WebSocket. Водители шлют свои координаты,
// каждая координата проходит через монитор геозон и транслируется
// диспетчерам муниципалитета.
func Handler(monitor *services.GeofenceMonitor) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Upgrade") != "websocket" {
			c.String(http.StatusBadRequest, "Требуется WebSocket соединение")
			return
		}

		userID, _ := c.Get("user_id")
		driverID, _ := c.Get("driver_id")
		municipalityID, _ := c.Get("municipality_id")

		wsUpgrader := websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Разрешаем подключения с любых источников
			},
		}

		conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("Ошибка обновления соединения до WebSocket: %v", err)
			return
		}

		client := &WebSocketClient{
			conn:           conn,
			userID:         userID.(uint),
			driverID:       driverID.(uint),
			municipalityID: municipalityID.(uint),
			clientID:       uuid.NewString(),
		}

		wsManager.register <- client
		go handleMessages(client, monitor)
	}
}

// handleMessages обрабатывает сообщения от клиента
func handleMessages(client *WebSocketClient, monitor *services.GeofenceMonitor) {
	defer func() {
		wsManager.unregister <- client
	}()

	for {
		_, message, err := client.conn.ReadMessage()
		if err != nil {
			break
		}

		var msg positionMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case "ping":
			pong, _ := json.Marshal(map[string]interface{}{"type": "pong", "time": time.Now().Unix()})
			client.conn.WriteMessage(websocket.TextMessage, pong)

		case "position":
			if client.driverID == 0 {
				continue
			}
			pos := services.Position{Latitude: msg.Latitude, Longitude: msg.Longitude}

			// Каждый пинг проходит через монитор геозон
			state, err := monitor.Evaluate(context.Background(), client.driverID, pos, time.Now())
			if err != nil {
				log.Printf("Ошибка монитора геозон для водителя %d: %v", client.driverID, err)
				continue
			}

			SendDriverPositionUpdate(client.municipalityID, client.driverID, msg.Latitude, msg.Longitude)
			if state.Raised {
				wsManager.BroadcastToMunicipality(client.municipalityID, &WebSocketMessage{
					Type:    GeofenceAlertType,
					Payload: state,
				})
			}
		}
	}
}

// SendTripStatusUpdate отправляет обновление статуса поездки
func SendTripStatusUpdate(userID uint, tripID uint, status string) {
	wsManager.BroadcastToUser(userID, &WebSocketMessage{
		Type:    TripStatusUpdateType,
		Payload: map[string]interface{}{"trip_id": tripID, "status": status},
	})
}

// SendServiceOrderUpdate отправляет обновление статуса заявки на обслуживание
func SendServiceOrderUpdate(municipalityID uint, orderID uint, status string) {
	wsManager.BroadcastToMunicipality(municipalityID, &WebSocketMessage{
		Type:    ServiceOrderUpdateType,
		Payload: map[string]interface{}{"order_id": orderID, "status": status},
	})
}

// SendDriverPositionUpdate транслирует позицию водителя диспетчерам тенанта
func SendDriverPositionUpdate(municipalityID, driverID uint, lat, lng float64) {
	wsManager.BroadcastToMunicipality(municipalityID, &WebSocketMessage{
		Type:    DriverPositionUpdateType,
		Payload: map[string]interface{}{"driver_id": driverID, "lat": lat, "lng": lng},
	})
}

// StartManager запускает менеджер WebSocket
func StartManager() {
	wsManager.Start()
}
