package ai

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

type KBEntry struct {
	ID                string   `json:"id"`
	Category          string   `json:"category"`
	Keywords          []string `json:"keywords"`
	Response          string   `json:"response"`
	FollowUpQuestions []string `json:"follow_up_questions,omitempty"`
	ResolutionTime    string   `json:"typical_resolution_time,omitempty"`
}

type KnowledgeBase struct {
	entries []KBEntry
}

type ScoredEntry struct {
	Entry KBEntry
	Score int
}

func LoadKnowledgeBase(path string) (*KnowledgeBase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read knowledge base: %w", err)
	}

	var entries []KBEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse knowledge base: %w", err)
	}

	return &KnowledgeBase{entries: entries}, nil
}

func NewKnowledgeBase(entries []KBEntry) *KnowledgeBase {
	return &KnowledgeBase{entries: entries}
}

// DefaultKnowledgeBase covers the common grievance scenarios. Used when no
// knowledge base file is configured.
func DefaultKnowledgeBase() *KnowledgeBase {
	return &KnowledgeBase{entries: []KBEntry{
		{
			ID:                "kb_001",
			Category:          "Hardware",
			Keywords:          []string{"laptop", "computer", "hardware", "mouse", "keyboard", "screen", "monitor", "printer"},
			Response:          "I understand you're experiencing hardware issues. This is quite common and we'll help resolve it quickly.",
			FollowUpQuestions: []string{"What specific hardware component is causing issues?", "When did the problem start?"},
			ResolutionTime:    "2-3 business days",
		},
		{
			ID:                "kb_002",
			Category:          "Software",
			Keywords:          []string{"software", "application", "app", "program", "crash", "bug", "error"},
			Response:          "Software issues can be frustrating. Let me help you get this resolved.",
			FollowUpQuestions: []string{"Which software/application is having issues?", "What error message do you see?"},
			ResolutionTime:    "1-2 business days",
		},
		{
			ID:                "kb_003",
			Category:          "Network",
			Keywords:          []string{"internet", "network", "wifi", "connection", "connectivity", "slow"},
			Response:          "Network connectivity issues can impact your productivity. We'll prioritize getting this fixed.",
			FollowUpQuestions: []string{"Is this affecting all devices or just one?", "When did you first notice the issue?"},
			ResolutionTime:    "4-6 hours",
		},
		{
			ID:                "kb_004",
			Category:          "Account",
			Keywords:          []string{"login", "password", "account", "access", "authentication", "locked"},
			Response:          "Account access issues need immediate attention for security reasons.",
			FollowUpQuestions: []string{"What happens when you try to login?", "Have you recently changed your password?"},
			ResolutionTime:    "2-4 hours",
		},
		{
			ID:                "kb_005",
			Category:          "Billing",
			Keywords:          []string{"bill", "billing", "payment", "invoice", "charge", "refund"},
			Response:          "I'll help you resolve this billing concern. Let me look into the details.",
			FollowUpQuestions: []string{"Which specific charge are you questioning?", "Do you have the invoice number?"},
			ResolutionTime:    "3-5 business days",
		},
		{
			ID:                "kb_006",
			Category:          "Service",
			Keywords:          []string{"service", "support", "customer service", "assistance", "rude", "delay"},
			Response:          "I apologize for any service issues you've experienced. We take this seriously.",
			FollowUpQuestions: []string{"Can you describe the specific service issue?", "When did this occur?"},
			ResolutionTime:    "1-2 business days",
		},
	}}
}

func (kb *KnowledgeBase) Entries() []KBEntry {
	if kb == nil {
		return nil
	}
	result := make([]KBEntry, len(kb.entries))
	copy(result, kb.entries)
	return result
}

func (kb *KnowledgeBase) FindBestMatch(question string) (KBEntry, int, bool) {
	if kb == nil {
		return KBEntry{}, 0, false
	}

	lowerQuestion := strings.ToLower(question)

	var best KBEntry
	bestScore := 0
	found := false

	for _, entry := range kb.entries {
		score := scoreEntry(entry, lowerQuestion)
		if !found || score > bestScore {
			best = entry
			bestScore = score
			found = true
		}
	}

	return best, bestScore, found
}

func (kb *KnowledgeBase) TopEntries(question string, limit int) []ScoredEntry {
	if kb == nil || limit <= 0 {
		return nil
	}

	lowerQuestion := strings.ToLower(question)

	scored := make([]ScoredEntry, 0, len(kb.entries))
	for _, entry := range kb.entries {
		score := scoreEntry(entry, lowerQuestion)
		if score <= 0 {
			// irrelevant entries stay out of the LLM context
			continue
		}
		scored = append(scored, ScoredEntry{
			Entry: entry,
			Score: score,
		})
	}

	if len(scored) == 0 {
		return nil
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Entry.ID < scored[j].Entry.ID
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}

	return scored
}

func scoreEntry(entry KBEntry, lowerQuestion string) int {
	if lowerQuestion == "" {
		return 0
	}

	score := 0

	for _, kw := range entry.Keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}

		// strong hit: the keyword appears whole
		if strings.Contains(lowerQuestion, kw) {
			score += 3
			continue
		}

		// weaker hit: the stem appears ("crashing" matches "crash")
		stem := stemWord(kw)
		if stem != "" && strings.Contains(lowerQuestion, stem) {
			score += 2
			continue
		}
	}

	return score
}

// stemWord trims common English suffixes so "connection", "connecting"
// and "connected" share a stem. Short words are left alone.
func stemWord(s string) string {
	if len(s) <= 4 {
		return ""
	}

	suffixes := []string{
		"ations", "ation",
		"ities", "ity",
		"ingly", "ing",
		"ions", "ion",
		"ies", "ied",
		"ers", "er",
		"ed", "es", "ly", "s",
	}

	for _, suf := range suffixes {
		if len(s) > len(suf)+2 && strings.HasSuffix(s, suf) {
			return s[:len(s)-len(suf)]
		}
	}

	return ""
}
