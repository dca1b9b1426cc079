package main

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"grievanceBack/internal/ai"
	"grievanceBack/internal/services"
)

const (
	readLimit          = 1 << 20
	readDeadline       = 120 * time.Second // extended by pongs
	writeDeadline      = 5 * time.Second
	pingInterval       = 15 * time.Second
	firstHelloDeadline = 30 * time.Second // time allowed for the first {mobile} frame
)

var upgrader = websocket.Upgrader{
	CheckOrigin:       func(r *http.Request) bool { return true },
	ReadBufferSize:    1024,
	WriteBufferSize:   1024,
	EnableCompression: true,
}

type directNotification struct {
	mobile string
	n      services.StatusNotification
}

type wsClient struct {
	mobile string
	conn   *websocket.Conn
}

// NotificationHub pushes status updates to complainants, keyed by their
// mobile number. All access to clients happens in Run.
type NotificationHub struct {
	clients    map[string]*websocket.Conn
	direct     chan directNotification
	register   chan wsClient
	unregister chan wsClient
}

func NewNotificationHub() *NotificationHub {
	return &NotificationHub{
		clients:    make(map[string]*websocket.Conn),
		direct:     make(chan directNotification),
		register:   make(chan wsClient),
		unregister: make(chan wsClient),
	}
}

func (h *NotificationHub) Run() {
	for {
		select {
		case client := <-h.register:
			// a newer socket for the same mobile replaces the old one
			if old, ok := h.clients[client.mobile]; ok && old != nil && old != client.conn {
				_ = old.Close()
			}
			h.clients[client.mobile] = client.conn
			log.Printf("WS register mobile=%s", client.mobile)

		case client := <-h.unregister:
			if cur, ok := h.clients[client.mobile]; ok && cur == client.conn {
				_ = cur.Close()
				delete(h.clients, client.mobile)
				log.Printf("WS unregister mobile=%s", client.mobile)
			}

		case dn := <-h.direct:
			if conn, ok := h.clients[dn.mobile]; ok {
				_ = conn.SetWriteDeadline(time.Now().Add(writeDeadline))
				if err := conn.WriteJSON(dn.n); err != nil {
					log.Printf("notification send error to=%s: %v", dn.mobile, err)
					_ = conn.Close()
					delete(h.clients, dn.mobile)
				}
			}
		}
	}
}

// NotifyStatus implements services.StatusNotifier. Never blocks the caller
// when the hub is saturated; updates for offline users are dropped.
func (h *NotificationHub) NotifyStatus(mobile string, n services.StatusNotification) {
	select {
	case h.direct <- directNotification{mobile: mobile, n: n}:
	default:
		log.Printf("notification skip: hub busy, mobile=%s", mobile)
	}
}

// The first frame from the client must be { "mobile": "..." }.
func (app *application) NotificationWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("WebSocket upgrade error:", err)
		return
	}

	conn.SetReadLimit(readLimit)
	conn.SetReadDeadline(time.Now().Add(firstHelloDeadline))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readDeadline))
		return nil
	})

	var hello struct {
		Mobile string `json:"mobile"`
	}
	if err := conn.ReadJSON(&hello); err != nil || !ai.ValidMobile(hello.Mobile) {
		log.Println("invalid hello payload:", err)
		_ = writeClose(conn, websocket.ClosePolicyViolation, "mobile required")
		_ = conn.Close()
		return
	}
	conn.SetReadDeadline(time.Now().Add(readDeadline))

	mobile := ai.CleanMobile(hello.Mobile)
	client := wsClient{mobile: mobile, conn: conn}
	app.hub.register <- client

	go notificationPingLoop(app.hub, conn, mobile)
	go drainNotificationSocket(app.hub, conn, mobile)
}

func notificationPingLoop(hub *NotificationHub, conn *websocket.Conn, mobile string) {
	t := time.NewTicker(pingInterval)
	defer t.Stop()
	for range t.C {
		_ = conn.SetWriteDeadline(time.Now().Add(writeDeadline))
		if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
			_ = writeClose(conn, websocket.CloseGoingAway, "ping error")
			hub.unregister <- wsClient{mobile: mobile, conn: conn}
			return
		}
	}
}

// drainNotificationSocket keeps the read side alive for pongs and close
// frames; clients are not expected to send anything else.
func drainNotificationSocket(hub *NotificationHub, conn *websocket.Conn, mobile string) {
	defer func() {
		hub.unregister <- wsClient{mobile: mobile, conn: conn}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		conn.SetReadDeadline(time.Now().Add(readDeadline))
	}
}

func writeClose(conn *websocket.Conn, code int, reason string) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	return conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(writeDeadline),
	)
}
