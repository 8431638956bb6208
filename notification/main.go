package main

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"cistatus/shared/config"
	"cistatus/shared/kafka"
	"cistatus/shared/message"
)

// WebSocketClient is one connected dashboard client. An empty branch means
// the client wants every branch.
type WebSocketClient struct {
	conn     *websocket.Conn
	branch   string
	clientID string
}

// NotificationService fans ingested build results out to WebSocket clients.
type NotificationService struct {
	clients      map[string]*WebSocketClient
	clientsMutex sync.RWMutex
	upgrader     websocket.Upgrader
}

func NewNotificationService() *NotificationService {
	return &NotificationService{
		clients: make(map[string]*WebSocketClient),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Dashboard origin is not restricted
			},
		},
	}
}

func (ns *NotificationService) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := ns.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("❌ Failed to upgrade connection: %v", err)
		return
	}

	branch := r.URL.Query().Get("branch")
	clientID := r.URL.Query().Get("clientId")

	if clientID == "" {
		log.Printf("⚠️ Missing clientId")
		conn.Close()
		return
	}

	client := &WebSocketClient{
		conn:     conn,
		branch:   branch,
		clientID: clientID,
	}

	ns.clientsMutex.Lock()
	ns.clients[clientID] = client
	ns.clientsMutex.Unlock()

	defer func() {
		ns.clientsMutex.Lock()
		delete(ns.clients, clientID)
		ns.clientsMutex.Unlock()
		conn.Close()
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("❌ WebSocket error: %v", err)
			}
			break
		}

		if messageType == websocket.PingMessage {
			conn.WriteMessage(websocket.PongMessage, data)
		}
	}
}

// BroadcastResult sends an ingested build result to every client subscribed
// to its branch (or to all branches).
func (ns *NotificationService) BroadcastResult(resultMsg message.BuildResultMessage) {
	ns.clientsMutex.RLock()
	defer ns.clientsMutex.RUnlock()

	wsMessage := map[string]interface{}{
		"type":       "result",
		"branch":     resultMsg.Branch,
		"buildNum":   resultMsg.BuildNum,
		"status":     resultMsg.Status,
		"author":     resultMsg.AuthorName,
		"buildUrl":   resultMsg.BuildURL,
		"commitHash": resultMsg.CommitHash,
		"subject":    resultMsg.Subject,
		"time":       resultMsg.BuildTime,
	}

	for clientID, client := range ns.clients {
		if client.branch == "" || client.branch == resultMsg.Branch {
			if err := client.conn.WriteJSON(wsMessage); err != nil {
				log.Printf("❌ Failed to send message to client %s: %v", clientID, err)
				// Client will be cleaned up by the connection handler
			}
		}
	}
}

func main() {
	port := config.GetEnv("PORT", "8085")
	kafkaBrokers := config.GetEnv("KAFKA_BROKERS", "kafka:29092")

	kafkaConsumer, err := kafka.NewConsumer(kafkaBrokers, "notification")
	if err != nil {
		log.Fatalf("❌ Failed to create Kafka consumer: %v", err)
	}
	defer kafkaConsumer.Close()

	if err := kafkaConsumer.Subscribe([]string{"build-results"}); err != nil {
		log.Fatalf("❌ Failed to subscribe to topics: %v", err)
	}

	notificationService := NewNotificationService()

	go func() {
		kafkaConsumer.ConsumeMessages(func(key, value []byte) error {
			var resultMsg message.BuildResultMessage
			if err := kafka.UnmarshalMessage(value, &resultMsg); err != nil || resultMsg.Branch == "" {
				log.Printf("⚠️ Ignoring invalid build-results message")
				return nil
			}
			notificationService.BroadcastResult(resultMsg)
			return nil
		})
	}()

	r := mux.NewRouter()

	r.HandleFunc("/ws", notificationService.HandleWebSocket)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	log.Printf("🌐 Notification Service is running on port %s...", port)
	log.Fatal(http.ListenAndServe(":"+port, r))
}
