package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"grievanceBack/internal/ai"
	"grievanceBack/internal/models"
)

type fakeChatClient struct {
	content  string
	err      error
	requests []ChatCompletionRequest
}

func (f *fakeChatClient) Complete(_ context.Context, req ChatCompletionRequest) (ChatCompletionResponse, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return ChatCompletionResponse{}, f.err
	}
	return ChatCompletionResponse{Content: f.content}, nil
}

func newTestAssistant(t *testing.T, client ChatCompletionClient) (*AssistantService, *ComplaintService) {
	t.Helper()

	repo := newTestRepo(t)
	kb := ai.DefaultKnowledgeBase()
	rag := &RAGService{KB: kb, ComplaintRepo: repo}
	complaints := &ComplaintService{ComplaintRepo: repo, RAG: rag}
	sessions := NewMemoryConversationStore(time.Hour)

	return NewAssistantService(complaints, rag, kb, sessions, client, "", 0), complaints
}

func TestChatRegistrationFlow(t *testing.T) {
	svc, complaints := newTestAssistant(t, nil)
	ctx := context.Background()

	turn := func(sessionID, message string) ChatResult {
		t.Helper()
		res, err := svc.Chat(ctx, ChatParams{SessionID: sessionID, Message: message, UseLLM: false})
		if err != nil {
			t.Fatalf("Chat(%q): %v", message, err)
		}
		return res
	}

	res := turn("", "I want to register a complaint")
	if res.SessionID == "" {
		t.Fatal("expected a session id")
	}
	if res.State != models.StepCollectingName {
		t.Fatalf("state = %q, want collecting_name", res.State)
	}
	sessionID := res.SessionID

	res = turn(sessionID, "Rahul Kumar")
	if res.State != models.StepCollectingMobile {
		t.Fatalf("state = %q, want collecting_mobile", res.State)
	}
	if !strings.Contains(res.Reply, "Rahul Kumar") {
		t.Fatalf("reply %q does not greet by name", res.Reply)
	}

	res = turn(sessionID, "+91-9876543210")
	if res.State != models.StepCollectingDetails {
		t.Fatalf("state = %q, want collecting_details", res.State)
	}

	res = turn(sessionID, "My laptop screen is completely broken")
	if res.ComplaintID == "" {
		t.Fatal("expected a complaint id after the final slot")
	}
	if res.State != models.StepInitial {
		t.Fatalf("state = %q, want initial after registration", res.State)
	}
	if !strings.Contains(res.Reply, res.ComplaintID) {
		t.Fatalf("reply %q does not mention the complaint id", res.Reply)
	}

	stored, err := complaints.GetByID(ctx, res.ComplaintID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Name != "Rahul Kumar" || stored.Mobile != "+919876543210" {
		t.Fatalf("stored = %+v", stored)
	}
	if stored.Category != models.CategoryHardware {
		t.Fatalf("category = %q, want Hardware", stored.Category)
	}
}

func TestChatOneShotExtraction(t *testing.T) {
	svc, _ := newTestAssistant(t, nil)
	ctx := context.Background()

	res, err := svc.Chat(ctx, ChatParams{
		Message: "My name is Priya Sharma, number 9876543210, my printer is broken",
		UseLLM:  false,
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	// name and mobile arrive in the first message, only details are missing
	if res.State != models.StepCollectingDetails {
		t.Fatalf("state = %q, want collecting_details", res.State)
	}

	res, err = svc.Chat(ctx, ChatParams{
		SessionID: res.SessionID,
		Message:   "The office printer jams on every page",
		UseLLM:    false,
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if res.ComplaintID == "" {
		t.Fatalf("expected registration to finish, reply %q", res.Reply)
	}
}

func TestChatInvalidMobileReasked(t *testing.T) {
	svc, _ := newTestAssistant(t, nil)
	ctx := context.Background()

	res, err := svc.Chat(ctx, ChatParams{Message: "please register my complaint", UseLLM: false})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	sessionID := res.SessionID

	if res, err = svc.Chat(ctx, ChatParams{SessionID: sessionID, Message: "Anita Desai", UseLLM: false}); err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if res.State != models.StepCollectingMobile {
		t.Fatalf("state = %q, want collecting_mobile", res.State)
	}

	// a junk mobile keeps the conversation on the same slot
	res, err = svc.Chat(ctx, ChatParams{SessionID: sessionID, Message: "it is 42", UseLLM: false})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if res.State != models.StepCollectingMobile {
		t.Fatalf("state = %q, want collecting_mobile again", res.State)
	}
}

func TestChatStatusCheck(t *testing.T) {
	svc, complaints := newTestAssistant(t, nil)
	ctx := context.Background()

	stored, _, err := complaints.Register(ctx, models.Complaint{
		Name:    "Vikram Singh",
		Mobile:  "+919812345678",
		Details: "wifi connection drops every hour",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	t.Run("by complaint id", func(t *testing.T) {
		res, err := svc.Chat(ctx, ChatParams{
			Message: "what is the status of " + stored.ComplaintID,
			UseLLM:  false,
		})
		if err != nil {
			t.Fatalf("Chat: %v", err)
		}
		if res.Intent != IntentCheckStatus {
			t.Fatalf("intent = %q", res.Intent)
		}
		if res.ComplaintID != stored.ComplaintID {
			t.Fatalf("complaint id = %q", res.ComplaintID)
		}
		if !strings.Contains(res.Reply, models.StatusRegistered) {
			t.Fatalf("reply %q does not mention the status", res.Reply)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		res, err := svc.Chat(ctx, ChatParams{Message: "status of CMP00000000", UseLLM: false})
		if err != nil {
			t.Fatalf("Chat: %v", err)
		}
		if !strings.Contains(res.Reply, "couldn't find") {
			t.Fatalf("reply = %q", res.Reply)
		}
	})

	t.Run("by mobile", func(t *testing.T) {
		res, err := svc.Chat(ctx, ChatParams{
			Message: "any update on my complaints? my number is +919812345678",
			UseLLM:  false,
		})
		if err != nil {
			t.Fatalf("Chat: %v", err)
		}
		if res.Intent != IntentCheckStatus {
			t.Fatalf("intent = %q", res.Intent)
		}
		if !strings.Contains(res.Reply, stored.ComplaintID) {
			t.Fatalf("reply %q does not list the complaint", res.Reply)
		}
	})
}

func TestChatGeneralAnswers(t *testing.T) {
	ctx := context.Background()

	t.Run("kb answer without llm", func(t *testing.T) {
		svc, _ := newTestAssistant(t, nil)
		res, err := svc.Chat(ctx, ChatParams{Message: "my wifi is very slow", UseLLM: false})
		if err != nil {
			t.Fatalf("Chat: %v", err)
		}
		if res.Source != "kb" {
			t.Fatalf("source = %q, want kb", res.Source)
		}
		if !strings.Contains(res.Reply, "Network connectivity") {
			t.Fatalf("reply = %q", res.Reply)
		}
	})

	t.Run("fallback without llm", func(t *testing.T) {
		svc, _ := newTestAssistant(t, nil)
		res, err := svc.Chat(ctx, ChatParams{Message: "tell me a story", UseLLM: false})
		if err != nil {
			t.Fatalf("Chat: %v", err)
		}
		if res.Source != "fallback" {
			t.Fatalf("source = %q, want fallback", res.Source)
		}
		if res.Reply != assistantFallbackAnswer {
			t.Fatalf("reply = %q", res.Reply)
		}
	})

	t.Run("llm reformats kb answer", func(t *testing.T) {
		client := &fakeChatClient{content: "Here is a friendlier network answer."}
		svc, _ := newTestAssistant(t, client)

		res, err := svc.Chat(ctx, ChatParams{Message: "my wifi is very slow", UseLLM: true})
		if err != nil {
			t.Fatalf("Chat: %v", err)
		}
		if res.Source != "kb+llm" {
			t.Fatalf("source = %q, want kb+llm", res.Source)
		}
		if res.Reply != "Here is a friendlier network answer." {
			t.Fatalf("reply = %q", res.Reply)
		}
	})

	t.Run("llm failure falls back to kb text", func(t *testing.T) {
		client := &fakeChatClient{err: errors.New("boom")}
		svc, _ := newTestAssistant(t, client)

		res, err := svc.Chat(ctx, ChatParams{Message: "my wifi is very slow", UseLLM: true})
		if err != nil {
			t.Fatalf("Chat: %v", err)
		}
		if res.Source != "kb" {
			t.Fatalf("source = %q, want kb", res.Source)
		}
		if !strings.Contains(res.Reply, "Network connectivity") {
			t.Fatalf("reply = %q", res.Reply)
		}
	})
}

func TestDetectIntentViaLLM(t *testing.T) {
	ctx := context.Background()

	t.Run("json intent honored", func(t *testing.T) {
		client := &fakeChatClient{
			content: `{"intent":"register_complaint","extracted_info":{"name":"Anita Desai","mobile":"9876501234","complaint_details":"","category":""}}`,
		}
		svc, _ := newTestAssistant(t, client)

		res, err := svc.Chat(ctx, ChatParams{Message: "hello I bought something faulty", UseLLM: true})
		if err != nil {
			t.Fatalf("Chat: %v", err)
		}
		if res.Intent != IntentRegisterComplaint {
			t.Fatalf("intent = %q", res.Intent)
		}
		// name and mobile came from the LLM extraction, so details are next
		if res.State != models.StepCollectingDetails {
			t.Fatalf("state = %q, want collecting_details", res.State)
		}
	})

	t.Run("llm failure falls back to rules", func(t *testing.T) {
		client := &fakeChatClient{err: errors.New("rate limited")}
		svc, _ := newTestAssistant(t, client)

		res, err := svc.Chat(ctx, ChatParams{Message: "my laptop is broken", UseLLM: true})
		if err != nil {
			t.Fatalf("Chat: %v", err)
		}
		if res.State != models.StepCollectingName {
			t.Fatalf("state = %q, want collecting_name via rule intent", res.State)
		}
	})

	t.Run("garbage json falls back to rules", func(t *testing.T) {
		client := &fakeChatClient{content: "certainly! the intent is..."}
		svc, _ := newTestAssistant(t, client)

		res, err := svc.Chat(ctx, ChatParams{Message: "I want to report a problem", UseLLM: true})
		if err != nil {
			t.Fatalf("Chat: %v", err)
		}
		if res.Intent != IntentRegisterComplaint {
			t.Fatalf("intent = %q", res.Intent)
		}
	})
}

func TestChatEmptyMessage(t *testing.T) {
	svc, _ := newTestAssistant(t, nil)

	res, err := svc.Chat(context.Background(), ChatParams{Message: "   "})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if res.SessionID == "" {
		t.Fatal("expected a session id")
	}
	if !strings.Contains(res.Reply, "register a new complaint") {
		t.Fatalf("reply = %q", res.Reply)
	}
}
