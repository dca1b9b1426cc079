package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"grievanceBack/internal/ai"
	"grievanceBack/internal/models"
)

const (
	assistantFallbackAnswer = "I'm sorry, I couldn't help with that right now. Could you rephrase your question or share more details?"
	assistantDefaultModel   = "mixtral-8x7b-32768"
	assistantDefaultMaxKB   = 3

	IntentRegisterComplaint = "register_complaint"
	IntentCheckStatus       = "check_status"
	IntentProvideInfo       = "provide_info"
	IntentGeneral           = "general"
)

type AssistantService struct {
	complaints *ComplaintService
	rag        *RAGService
	kb         *ai.KnowledgeBase
	sessions   ConversationStore
	client     ChatCompletionClient
	model      string
	maxKB      int
	timeout    time.Duration
}

type ChatParams struct {
	SessionID string
	Message   string
	UseLLM    bool
}

type ChatResult struct {
	SessionID   string `json:"session_id"`
	Reply       string `json:"reply"`
	Intent      string `json:"intent"`
	State       string `json:"state"`
	ComplaintID string `json:"complaint_id,omitempty"`
	Source      string `json:"source"` // "kb", "llm", "kb+llm", "fallback", "flow"
}

func NewAssistantService(
	complaints *ComplaintService,
	rag *RAGService,
	kb *ai.KnowledgeBase,
	sessions ConversationStore,
	client ChatCompletionClient,
	model string,
	maxKB int,
) *AssistantService {
	if strings.TrimSpace(model) == "" {
		model = assistantDefaultModel
	}
	if maxKB <= 0 {
		maxKB = assistantDefaultMaxKB
	}
	return &AssistantService{
		complaints: complaints,
		rag:        rag,
		kb:         kb,
		sessions:   sessions,
		client:     client,
		model:      model,
		maxKB:      maxKB,
		timeout:    25 * time.Second,
	}
}

// Chat runs one conversation turn: load the session, detect intent, fill
// registration slots or answer, and save the session back.
func (s *AssistantService) Chat(ctx context.Context, params ChatParams) (ChatResult, error) {
	message := strings.TrimSpace(params.Message)

	conv, err := s.loadSession(ctx, params.SessionID)
	if err != nil {
		return ChatResult{}, err
	}

	if message == "" {
		return ChatResult{
			SessionID: conv.SessionID,
			Reply:     "Hello! I can register a new complaint or check the status of an existing one. How can I help?",
			Intent:    IntentGeneral,
			State:     conv.Step,
			Source:    "flow",
		}, nil
	}

	intent, extracted := s.detectIntent(ctx, conv, message, params.UseLLM)

	result := ChatResult{SessionID: conv.SessionID, Intent: intent, State: conv.Step, Source: "flow"}

	switch {
	case conv.Step != models.StepInitial:
		// mid-registration, keep filling slots whatever the intent
		result.Intent = IntentProvideInfo
		s.applyExtracted(&conv, message, extracted)
		reply, complaintID, err := s.advanceRegistration(ctx, &conv)
		if err != nil {
			return ChatResult{}, err
		}
		result.Reply = reply
		result.ComplaintID = complaintID

	case extracted.ComplaintID != "":
		result.Intent = IntentCheckStatus
		result.Reply = s.statusReply(ctx, extracted.ComplaintID)
		result.ComplaintID = extracted.ComplaintID

	case intent == IntentCheckStatus && extracted.Mobile != "":
		result.Reply = s.mobileStatusReply(ctx, extracted.Mobile)

	case intent == IntentCheckStatus:
		result.Reply = "Sure, I can check that. Please share your complaint ID (like CMP1A2B3C4D) or the mobile number you registered with."

	case intent == IntentRegisterComplaint:
		conv.Step = models.StepCollectingName
		s.applyExtracted(&conv, "", extracted)
		reply, complaintID, err := s.advanceRegistration(ctx, &conv)
		if err != nil {
			return ChatResult{}, err
		}
		result.Reply = reply
		result.ComplaintID = complaintID

	default:
		answer, source := s.answerGeneral(ctx, message, params.UseLLM)
		result.Reply = answer
		result.Source = source
	}

	result.State = conv.Step
	if err := s.sessions.Save(ctx, conv); err != nil {
		return ChatResult{}, err
	}
	return result, nil
}

func (s *AssistantService) loadSession(ctx context.Context, sessionID string) (models.Conversation, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID != "" {
		conv, err := s.sessions.Get(ctx, sessionID)
		if err == nil {
			return conv, nil
		}
		if !errors.Is(err, models.ErrSessionNotFound) {
			return models.Conversation{}, err
		}
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	return models.Conversation{SessionID: sessionID, Step: models.StepInitial}, nil
}

type intentPayload struct {
	Intent        string `json:"intent"`
	ExtractedInfo struct {
		Name             string `json:"name"`
		Mobile           string `json:"mobile"`
		ComplaintDetails string `json:"complaint_details"`
		Category         string `json:"category"`
	} `json:"extracted_info"`
}

// detectIntent asks the LLM for a JSON classification and falls back to
// keyword rules whenever the LLM is off, fails, or answers nonsense.
func (s *AssistantService) detectIntent(ctx context.Context, conv models.Conversation, message string, useLLM bool) (string, ai.Extracted) {
	extracted := ai.ExtractDetails(message)

	if !useLLM || s.client == nil {
		return ruleIntent(conv, message, extracted), extracted
	}

	llmCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	systemPrompt := "" +
		"You are an intent classifier for a complaint management assistant.\n" +
		"Classify the user message into exactly one intent:\n" +
		"- register_complaint: the user wants to file a new complaint\n" +
		"- check_status: the user asks about an existing complaint\n" +
		"- provide_info: the user is answering a question (name, mobile, details)\n" +
		"- general: anything else\n\n" +
		"Respond with STRICT JSON only, no prose:\n" +
		`{"intent": "...", "extracted_info": {"name": "", "mobile": "", "complaint_details": "", "category": ""}}` + "\n" +
		"Leave fields empty when not present in the message. Never invent values."

	resp, err := s.client.Complete(llmCtx, ChatCompletionRequest{
		Model:       s.model,
		Temperature: 0.1,
		MaxTokens:   200,
		Messages: []ChatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: fmt.Sprintf("Conversation state: %s\nUser message: %s", conv.Step, message)},
		},
	})
	if err != nil {
		return ruleIntent(conv, message, extracted), extracted
	}

	payload, err := parseIntentJSON(resp.Content)
	if err != nil {
		return ruleIntent(conv, message, extracted), extracted
	}

	// regex extraction stays authoritative for IDs and numbers; the LLM
	// only supplements what the patterns missed
	if extracted.Name == "" {
		if name, ok := normalizeExtractedName(payload.ExtractedInfo.Name); ok {
			extracted.Name = name
		}
	}
	if extracted.Mobile == "" && ai.ValidMobile(payload.ExtractedInfo.Mobile) {
		extracted.Mobile = ai.CleanMobile(payload.ExtractedInfo.Mobile)
	}

	switch payload.Intent {
	case IntentRegisterComplaint, IntentCheckStatus, IntentProvideInfo, IntentGeneral:
		return payload.Intent, extracted
	default:
		return ruleIntent(conv, message, extracted), extracted
	}
}

func parseIntentJSON(content string) (intentPayload, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return intentPayload{}, errors.New("no json object in response")
	}

	var payload intentPayload
	if err := json.Unmarshal([]byte(content[start:end+1]), &payload); err != nil {
		return intentPayload{}, err
	}
	return payload, nil
}

func normalizeExtractedName(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || !ai.ValidName(raw) {
		return "", false
	}
	return raw, true
}

var registerWords = []string{
	"register", "complain", "complaint", "issue", "problem", "not working",
	"broken", "file a", "report", "faulty",
}

var statusWords = []string{"status", "track", "progress", "update on", "any news", "follow up"}

func ruleIntent(conv models.Conversation, message string, extracted ai.Extracted) string {
	lower := strings.ToLower(message)

	if extracted.ComplaintID != "" {
		return IntentCheckStatus
	}
	for _, w := range statusWords {
		if strings.Contains(lower, w) {
			return IntentCheckStatus
		}
	}
	if conv.Step != models.StepInitial {
		return IntentProvideInfo
	}
	for _, w := range registerWords {
		if strings.Contains(lower, w) {
			return IntentRegisterComplaint
		}
	}
	return IntentGeneral
}

// applyExtracted merges a turn's extracted fields into the session. The raw
// message doubles as the answer to whichever slot is being collected.
func (s *AssistantService) applyExtracted(conv *models.Conversation, message string, extracted ai.Extracted) {
	if conv.Name == "" && extracted.Name != "" {
		conv.Name = extracted.Name
	}
	if conv.Mobile == "" && extracted.Mobile != "" {
		conv.Mobile = extracted.Mobile
	}

	if message == "" {
		return
	}

	switch conv.Step {
	case models.StepCollectingName:
		if conv.Name == "" {
			if name, ok := ai.NameFromMessage(message); ok {
				conv.Name = name
			}
		}
	case models.StepCollectingMobile:
		if conv.Mobile == "" && ai.ValidMobile(message) {
			conv.Mobile = ai.CleanMobile(message)
		}
	case models.StepCollectingDetails:
		if conv.Details == "" {
			conv.Details = strings.TrimSpace(message)
		}
	}
}

// advanceRegistration asks for the next missing slot, or registers the
// complaint once name, mobile and details are all present.
func (s *AssistantService) advanceRegistration(ctx context.Context, conv *models.Conversation) (string, string, error) {
	switch {
	case conv.Name == "":
		conv.Step = models.StepCollectingName
		return "I'll help you register your complaint. May I have your name, please?", "", nil

	case conv.Mobile == "":
		conv.Step = models.StepCollectingMobile
		return fmt.Sprintf("Thank you, %s. Could you share your mobile number so we can keep you updated?", conv.Name), "", nil

	case conv.Details == "":
		conv.Step = models.StepCollectingDetails
		return "Got it. Now please describe the issue you're facing in as much detail as you can.", "", nil
	}

	stored, ack, err := s.complaints.Register(ctx, models.Complaint{
		Name:     conv.Name,
		Mobile:   conv.Mobile,
		Details:  conv.Details,
		Category: conv.Category,
	})
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidName):
			conv.Name = ""
			conv.Step = models.StepCollectingName
			return "That name doesn't look right. Could you tell me your name again?", "", nil
		case errors.Is(err, models.ErrInvalidMobile):
			conv.Mobile = ""
			conv.Step = models.StepCollectingMobile
			return "That mobile number doesn't look valid. Please share a 10-15 digit number, for example +919876543210.", "", nil
		case errors.Is(err, models.ErrEmptyDetails):
			conv.Details = ""
			conv.Step = models.StepCollectingDetails
			return "I still need a description of the issue. What exactly is going wrong?", "", nil
		}
		return "", "", err
	}

	// registration done, reset the session for the next conversation
	*conv = models.Conversation{SessionID: conv.SessionID, Step: models.StepInitial}

	reply := fmt.Sprintf(
		"Your complaint has been registered successfully!\n\nComplaint ID: %s\nCategory: %s\nExpected resolution: %s\n\n%s\n\nPlease save your complaint ID to check the status later.",
		stored.ComplaintID, stored.Category, ack.EstimatedResolution, ack.Response,
	)
	return reply, stored.ComplaintID, nil
}

func (s *AssistantService) statusReply(ctx context.Context, complaintID string) string {
	complaint, err := s.complaints.GetByID(ctx, complaintID)
	if err != nil {
		if errors.Is(err, models.ErrComplaintNotFound) {
			return fmt.Sprintf("I couldn't find a complaint with ID %s. Please double-check the ID and try again.", complaintID)
		}
		return assistantFallbackAnswer
	}

	return fmt.Sprintf(
		"Here's the status of your complaint %s:\n\nStatus: %s\nCategory: %s\nRegistered: %s\nDetails: %s",
		complaint.ComplaintID,
		complaint.Status,
		complaint.Category,
		complaint.CreatedAt.Format("2 Jan 2006"),
		complaint.Details,
	)
}

func (s *AssistantService) mobileStatusReply(ctx context.Context, mobile string) string {
	complaints, err := s.complaints.GetByMobile(ctx, mobile)
	if err != nil {
		return assistantFallbackAnswer
	}
	if len(complaints) == 0 {
		return fmt.Sprintf("I couldn't find any complaints registered with %s. Would you like to register a new one?", mobile)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "I found %d complaint(s) for %s:\n", len(complaints), mobile)
	for _, c := range complaints {
		fmt.Fprintf(&b, "\n%s - %s (%s), registered %s", c.ComplaintID, c.Status, c.Category, c.CreatedAt.Format("2 Jan 2006"))
	}
	b.WriteString("\n\nShare a complaint ID if you want the full details.")
	return b.String()
}

// answerGeneral follows the KB-first discipline: a confident KB hit is the
// answer (optionally reformatted by the LLM), a miss goes to the LLM with
// KB snippets as context, and everything else is the fixed fallback.
func (s *AssistantService) answerGeneral(ctx context.Context, question string, useLLM bool) (string, string) {
	var (
		bestEntry ai.KBEntry
		bestScore int
		found     bool
	)

	if s.kb != nil {
		bestEntry, bestScore, found = s.kb.FindBestMatch(question)
	}
	kbHasMatch := found && bestScore > 0

	if kbHasMatch {
		if useLLM && s.client != nil {
			return s.answerFromKBViaLLM(ctx, question, bestEntry)
		}
		return bestEntry.Response, "kb"
	}

	if !useLLM || s.client == nil {
		return assistantFallbackAnswer, "fallback"
	}

	llmCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	snippets := s.kb.TopEntries(question, s.maxKB)

	messages := []ChatMessage{
		{Role: "system", Content: "" +
			"You are a support assistant for a complaint management service.\n" +
			"Answer ONLY about registering complaints, checking complaint status, and the issue categories: Hardware, Software, Network, Account, Billing, Service.\n" +
			"Be brief and helpful. If the question is out of scope, say so and offer to register a complaint.\n" +
			"Use only the provided context; never invent complaint IDs, statuses or policies."},
	}
	if len(snippets) > 0 {
		messages = append(messages, ChatMessage{Role: "system", Content: buildKBContext(snippets)})
	}
	messages = append(messages, ChatMessage{Role: "user", Content: question})

	resp, err := s.client.Complete(llmCtx, ChatCompletionRequest{
		Model:       s.model,
		Temperature: 0.2,
		Messages:    messages,
	})

	answer := strings.TrimSpace(resp.Content)
	if err != nil || answer == "" {
		return assistantFallbackAnswer, "fallback"
	}

	if len(snippets) > 0 {
		return answer, "kb+llm"
	}
	return answer, "llm"
}

// answerFromKBViaLLM uses the LLM strictly as a formatter; the KB response
// stays the source of truth and any failure falls back to it untouched.
func (s *AssistantService) answerFromKBViaLLM(ctx context.Context, question string, entry ai.KBEntry) (string, string) {
	llmCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	systemPrompt := "" +
		"You are a support assistant for a complaint management service.\n" +
		"You are given a knowledge base answer (the source of truth) and the user's question.\n" +
		"Rewrite the answer so it directly addresses the question, keeping it short and friendly.\n" +
		"Do NOT add facts, features, timelines or promises that are not in the knowledge base answer."

	resp, err := s.client.Complete(llmCtx, ChatCompletionRequest{
		Model:       s.model,
		Temperature: 0.1,
		Messages: []ChatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "system", Content: "Knowledge base answer:\n\n" + entry.Response},
			{Role: "user", Content: question},
		},
	})

	answer := strings.TrimSpace(resp.Content)
	if err != nil || answer == "" {
		return entry.Response, "kb"
	}
	return answer, "kb+llm"
}

func buildKBContext(snippets []ai.ScoredEntry) string {
	var b strings.Builder
	b.WriteString("Knowledge base context:\n")
	for _, snippet := range snippets {
		fmt.Fprintf(&b, "Category: %s\nAnswer: %s\n", snippet.Entry.Category, snippet.Entry.Response)
		if snippet.Entry.ResolutionTime != "" {
			fmt.Fprintf(&b, "Typical resolution time: %s\n", snippet.Entry.ResolutionTime)
		}
		b.WriteString("\n")
	}
	return b.String()
}
