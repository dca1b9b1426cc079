package main

import (
	"database/sql"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"grievanceBack/internal/ai"
	"grievanceBack/internal/config"
	"grievanceBack/internal/handlers"
	"grievanceBack/internal/repositories"
	"grievanceBack/internal/services"
	"grievanceBack/utils"
)

type application struct {
	errorLog *log.Logger
	infoLog  *log.Logger
	db       *sql.DB
	cfg      config.Config

	complaintRepo *repositories.ComplaintRepository
	userRepo      *repositories.UserRepository

	complaintService *services.ComplaintService
	userService      *services.UserService
	assistantService *services.AssistantService
	sessionStore     services.ConversationStore

	complaintHandler *handlers.ComplaintHandler
	adminHandler     *handlers.AdminHandler
	assistantHandler *handlers.AssistantHandler
	userHandler      *handlers.UserHandler

	hub *NotificationHub
}

func initializeApp(db *sql.DB, cfg config.Config, errorLog, infoLog *log.Logger) *application {
	// Repositories
	complaintRepo := repositories.ComplaintRepository{DB: db}
	userRepo := repositories.UserRepository{DB: db}

	// Knowledge base
	kb := ai.DefaultKnowledgeBase()
	if cfg.Assistant.KnowledgeBase != "" {
		loaded, err := ai.LoadKnowledgeBase(cfg.Assistant.KnowledgeBase)
		if err != nil {
			errorLog.Printf("knowledge base %s: %v, using built-in entries", cfg.Assistant.KnowledgeBase, err)
		} else {
			kb = loaded
		}
	}

	rag := &services.RAGService{KB: kb, ComplaintRepo: &complaintRepo}

	hub := NewNotificationHub()

	// Services
	complaintService := &services.ComplaintService{
		ComplaintRepo: &complaintRepo,
		RAG:           rag,
		Notifier:      hub,
	}

	tokenManager, err := utils.NewManager(cfg.JWT.SigningKey)
	if err != nil {
		errorLog.Printf("token manager: %v, refresh tokens fall back to UUIDs", err)
	}

	userService := &services.UserService{
		UserRepo:     &userRepo,
		TokenManager: tokenManager,
		SigningKey:   cfg.JWT.SigningKey,
	}

	ttl := time.Duration(cfg.Assistant.SessionTTLSecs) * time.Second

	var sessions services.ConversationStore
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		sessions = services.NewRedisConversationStore(client, ttl)
		infoLog.Printf("chat sessions stored in redis at %s", cfg.Redis.Addr)
	} else {
		sessions = services.NewMemoryConversationStore(ttl)
	}

	var chatClient services.ChatCompletionClient
	apiKeyEnv := cfg.LLM.APIKeyEnv
	if apiKeyEnv == "" {
		apiKeyEnv = "GROQ_API_KEY"
	}
	if apiKey := os.Getenv(apiKeyEnv); apiKey != "" {
		chatClient = services.NewLLMClient(nil, apiKey, cfg.LLM.BaseURL)
	} else {
		infoLog.Printf("%s not set, assistant runs without the LLM", apiKeyEnv)
	}

	assistantService := services.NewAssistantService(
		complaintService, rag, kb, sessions, chatClient,
		cfg.LLM.Model, cfg.Assistant.MaxKB,
	)

	// Handlers
	complaintHandler := &handlers.ComplaintHandler{Service: complaintService, RAG: rag}
	adminHandler := &handlers.AdminHandler{Service: complaintService}
	assistantHandler := &handlers.AssistantHandler{Service: assistantService}
	userHandler := &handlers.UserHandler{Service: userService}

	return &application{
		errorLog:         errorLog,
		infoLog:          infoLog,
		db:               db,
		cfg:              cfg,
		complaintRepo:    &complaintRepo,
		userRepo:         &userRepo,
		complaintService: complaintService,
		userService:      userService,
		assistantService: assistantService,
		sessionStore:     sessions,
		complaintHandler: complaintHandler,
		adminHandler:     adminHandler,
		assistantHandler: assistantHandler,
		userHandler:      userHandler,
		hub:              hub,
	}
}
