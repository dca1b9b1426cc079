package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"grievanceBack/internal/ai"
	"grievanceBack/internal/models"
	"grievanceBack/internal/repositories"
)

const (
	// entries scoring below these are treated as misses
	minContextScore    = 2
	minSimilarityScore = 2

	defaultSimilarLimit = 5
)

type RAGService struct {
	KB            *ai.KnowledgeBase
	ComplaintRepo *repositories.ComplaintRepository
}

type ContextualResponse struct {
	Response            string   `json:"response"`
	Category            string   `json:"category"`
	EstimatedResolution string   `json:"estimated_resolution"`
	FollowUpQuestions   []string `json:"follow_up_questions"`
	Score               int      `json:"score,omitempty"`
}

type SimilarComplaint struct {
	ComplaintID string `json:"complaint_id"`
	Details     string `json:"complaint_details"`
	Status      string `json:"status"`
	Category    string `json:"category"`
	Score       int    `json:"score"`
}

// ContextualResponse picks the best knowledge base match for the complaint
// details. A generic acknowledgement covers the misses.
func (s *RAGService) ContextualResponse(details string) ContextualResponse {
	entry, score, found := s.KB.FindBestMatch(details)
	if !found || score < minContextScore {
		return ContextualResponse{
			Response:            "Thank you for your complaint. We'll review it and get back to you soon.",
			Category:            models.CategoryOther,
			EstimatedResolution: "3-5 business days",
			FollowUpQuestions:   []string{"Could you provide more specific details about the issue?"},
		}
	}

	return ContextualResponse{
		Response:            entry.Response,
		Category:            entry.Category,
		EstimatedResolution: entry.ResolutionTime,
		FollowUpQuestions:   entry.FollowUpQuestions,
		Score:               score,
	}
}

// SimilarComplaints ranks stored complaints by token overlap with the query
// details. Results below the cutoff are dropped.
func (s *RAGService) SimilarComplaints(ctx context.Context, details string, limit int) ([]SimilarComplaint, error) {
	if limit <= 0 {
		limit = defaultSimilarLimit
	}

	complaints, err := s.ComplaintRepo.GetAllComplaints(ctx)
	if err != nil {
		return nil, err
	}

	queryTokens := tokenize(details)
	if len(queryTokens) == 0 {
		return nil, nil
	}

	var similar []SimilarComplaint
	for _, c := range complaints {
		score := overlapScore(queryTokens, c.Details)
		if score < minSimilarityScore {
			continue
		}
		similar = append(similar, SimilarComplaint{
			ComplaintID: c.ComplaintID,
			Details:     c.Details,
			Status:      c.Status,
			Category:    c.Category,
			Score:       score,
		})
	}

	sort.Slice(similar, func(i, j int) bool {
		if similar[i].Score != similar[j].Score {
			return similar[i].Score > similar[j].Score
		}
		return similar[i].ComplaintID < similar[j].ComplaintID
	})

	if len(similar) > limit {
		similar = similar[:limit]
	}
	return similar, nil
}

// StatusUpdateMessage drafts the user-facing message for a status change.
func (s *RAGService) StatusUpdateMessage(ctx context.Context, complaintID, status string) string {
	resolution := "3-5 business days"
	if complaint, err := s.ComplaintRepo.GetByComplaintID(ctx, complaintID); err == nil {
		if resp := s.ContextualResponse(complaint.Details); resp.EstimatedResolution != "" {
			resolution = resp.EstimatedResolution
		}
	}

	switch status {
	case models.StatusRegistered:
		return fmt.Sprintf("Your complaint %s has been registered successfully. Expected resolution time: %s.", complaintID, resolution)
	case models.StatusInProgress:
		return fmt.Sprintf("Good news! Your complaint %s is now being actively worked on by our technical team.", complaintID)
	case models.StatusUnderReview:
		return fmt.Sprintf("Your complaint %s is under review by our specialists. We're analyzing the issue thoroughly.", complaintID)
	case models.StatusResolved:
		return fmt.Sprintf("Great news! Your complaint %s has been resolved. Please verify if the issue is fixed.", complaintID)
	case models.StatusClosed:
		return fmt.Sprintf("Your complaint %s has been closed. Thank you for your patience.", complaintID)
	case models.StatusRejected:
		return fmt.Sprintf("Unfortunately, your complaint %s could not be processed. Please contact support for more details.", complaintID)
	default:
		return fmt.Sprintf("Your complaint %s status has been updated to: %s", complaintID, status)
	}
}

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true, "was": true,
	"my": true, "me": true, "i": true, "it": true, "to": true, "of": true,
	"and": true, "or": true, "in": true, "on": true, "for": true, "with": true,
	"not": true, "no": true, "very": true, "have": true, "has": true,
}

func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return (r < 'a' || r > 'z') && (r < '0' || r > '9')
	})
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < 3 || stopWords[f] {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

func overlapScore(queryTokens []string, text string) int {
	textTokens := make(map[string]bool)
	for _, t := range tokenize(text) {
		textTokens[t] = true
	}

	score := 0
	counted := make(map[string]bool)
	for _, t := range queryTokens {
		if counted[t] {
			continue
		}
		counted[t] = true
		if textTokens[t] {
			score++
		}
	}
	return score
}
