package main

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"grievanceBack/internal/services"
)

const (
	chatWSMessageTypeChat  = "chat"
	chatWSMessageTypeReply = "reply"
	chatWSMessageTypeError = "error"
)

type chatWSMessage struct {
	Type      string `json:"type,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
	UseLLM    *bool  `json:"use_llm,omitempty"`
}

type chatWSResponse struct {
	Type      string               `json:"type"`
	RequestID string               `json:"request_id,omitempty"`
	Error     string               `json:"error,omitempty"`
	Result    *services.ChatResult `json:"result,omitempty"`
}

func (app *application) ChatWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	if app.assistantService == nil {
		http.Error(w, "assistant service unavailable", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("chat WS upgrade error:", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(readLimit)
	conn.SetReadDeadline(time.Now().Add(readDeadline))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readDeadline))
		return nil
	})

	stop := make(chan struct{})
	defer close(stop)
	go chatPingLoop(conn, stop)

	// the session sticks to the connection once the first turn assigns it
	sessionID := ""

	for {
		var msg chatWSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			log.Println("chat ws read error:", err)
			_ = writeClose(conn, websocket.CloseNormalClosure, "read error")
			return
		}
		conn.SetReadDeadline(time.Now().Add(readDeadline))

		if strings.TrimSpace(msg.Type) != "" && strings.TrimSpace(msg.Type) != chatWSMessageTypeChat {
			app.sendChatWSError(conn, msg.RequestID, "unknown message type")
			continue
		}

		message := strings.TrimSpace(msg.Message)
		if message == "" {
			app.sendChatWSError(conn, msg.RequestID, "message is required")
			continue
		}

		if strings.TrimSpace(msg.SessionID) != "" {
			sessionID = strings.TrimSpace(msg.SessionID)
		}
		useLLM := true
		if msg.UseLLM != nil {
			useLLM = *msg.UseLLM
		}

		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		result, err := app.assistantService.Chat(ctx, services.ChatParams{
			SessionID: sessionID,
			Message:   message,
			UseLLM:    useLLM,
		})
		cancel()
		if err != nil {
			log.Println("chat ws error:", err)
			app.sendChatWSError(conn, msg.RequestID, "failed to process message")
			continue
		}
		sessionID = result.SessionID

		resp := chatWSResponse{Type: chatWSMessageTypeReply, RequestID: msg.RequestID, Result: &result}
		if err := app.writeChatWSResponse(conn, resp); err != nil {
			log.Println("chat ws write error:", err)
			return
		}
	}
}

func chatPingLoop(conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = writeClose(conn, websocket.CloseGoingAway, "ping error")
				return
			}
		case <-stop:
			return
		}
	}
}

func (app *application) sendChatWSError(conn *websocket.Conn, requestID, message string) {
	resp := chatWSResponse{Type: chatWSMessageTypeError, RequestID: requestID, Error: message}
	if err := app.writeChatWSResponse(conn, resp); err != nil {
		log.Println("chat ws send error failed:", err)
	}
}

func (app *application) writeChatWSResponse(conn *websocket.Conn, resp chatWSResponse) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	return conn.WriteJSON(resp)
}
