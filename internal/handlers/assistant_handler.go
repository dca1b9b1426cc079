package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"grievanceBack/internal/services"
)

type AssistantHandler struct {
	Service *services.AssistantService
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	UseLLM    *bool  `json:"use_llm,omitempty"`
}

func (h *AssistantHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid input", http.StatusBadRequest)
		return
	}

	useLLM := true
	if req.UseLLM != nil {
		useLLM = *req.UseLLM
	}

	result, err := h.Service.Chat(r.Context(), services.ChatParams{
		SessionID: req.SessionID,
		Message:   req.Message,
		UseLLM:    useLLM,
	})
	if err != nil {
		log.Printf("Chat error: %v", err)
		http.Error(w, "Failed to process message", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}
