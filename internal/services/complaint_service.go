package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"grievanceBack/internal/ai"
	"grievanceBack/internal/models"
	"grievanceBack/internal/repositories"
)

// StatusNotification is pushed to subscribers when a complaint moves.
type StatusNotification struct {
	ComplaintID string `json:"complaint_id"`
	OldStatus   string `json:"old_status,omitempty"`
	NewStatus   string `json:"new_status"`
	Message     string `json:"message"`
}

// StatusNotifier delivers status notifications to connected clients.
// A nil notifier is fine; pushes are best effort.
type StatusNotifier interface {
	NotifyStatus(mobile string, n StatusNotification)
}

type ComplaintService struct {
	ComplaintRepo *repositories.ComplaintRepository
	RAG           *RAGService
	Notifier      StatusNotifier
}

// GenerateComplaintID builds IDs like CMP3F2A91BC.
func GenerateComplaintID() string {
	id := uuid.New()
	return "CMP" + strings.ToUpper(fmt.Sprintf("%x", id[:4]))
}

// Register validates, auto-categorizes when no category was given, and
// stores the complaint with its initial history row. Returns the stored
// record together with the contextual acknowledgement.
func (s *ComplaintService) Register(ctx context.Context, c models.Complaint) (models.Complaint, ContextualResponse, error) {
	if !ai.ValidName(c.Name) {
		return models.Complaint{}, ContextualResponse{}, models.ErrInvalidName
	}
	c.Mobile = ai.CleanMobile(c.Mobile)
	if !ai.ValidMobile(c.Mobile) {
		return models.Complaint{}, ContextualResponse{}, models.ErrInvalidMobile
	}
	if strings.TrimSpace(c.Details) == "" {
		return models.Complaint{}, ContextualResponse{}, models.ErrEmptyDetails
	}
	if c.Category == "" {
		c.Category = ai.Categorize(c.Details)
	} else if !models.ValidCategory(c.Category) {
		return models.Complaint{}, ContextualResponse{}, models.ErrInvalidCategory
	}

	c.ComplaintID = GenerateComplaintID()

	stored, err := s.ComplaintRepo.CreateComplaint(ctx, c)
	if err != nil {
		return models.Complaint{}, ContextualResponse{}, err
	}

	ack := s.RAG.ContextualResponse(stored.Details)
	return stored, ack, nil
}

func (s *ComplaintService) GetByID(ctx context.Context, complaintID string) (models.Complaint, error) {
	return s.ComplaintRepo.GetByComplaintID(ctx, strings.ToUpper(strings.TrimSpace(complaintID)))
}

func (s *ComplaintService) GetByMobile(ctx context.Context, mobile string) ([]models.Complaint, error) {
	return s.ComplaintRepo.GetByMobile(ctx, ai.CleanMobile(mobile))
}

// UpdateStatus validates the transition target, records it, and pushes a
// notification to the complainant when a notifier is attached.
func (s *ComplaintService) UpdateStatus(ctx context.Context, complaintID, status, notes string) error {
	if !models.ValidStatus(status) {
		return models.ErrInvalidStatus
	}

	complaint, err := s.ComplaintRepo.GetByComplaintID(ctx, complaintID)
	if err != nil {
		return err
	}

	if err := s.ComplaintRepo.UpdateStatus(ctx, complaintID, status, notes); err != nil {
		return err
	}

	if s.Notifier != nil {
		s.Notifier.NotifyStatus(complaint.Mobile, StatusNotification{
			ComplaintID: complaintID,
			OldStatus:   complaint.Status,
			NewStatus:   status,
			Message:     s.RAG.StatusUpdateMessage(ctx, complaintID, status),
		})
	}
	return nil
}

func (s *ComplaintService) GetHistory(ctx context.Context, complaintID string) ([]models.StatusChange, error) {
	if _, err := s.ComplaintRepo.GetByComplaintID(ctx, complaintID); err != nil {
		return nil, err
	}
	return s.ComplaintRepo.GetStatusHistory(ctx, complaintID)
}

func (s *ComplaintService) GetAll(ctx context.Context) ([]models.Complaint, error) {
	return s.ComplaintRepo.GetAllComplaints(ctx)
}

func (s *ComplaintService) Delete(ctx context.Context, complaintID string) error {
	return s.ComplaintRepo.DeleteComplaint(ctx, complaintID)
}

func (s *ComplaintService) GetStatistics(ctx context.Context) (models.ComplaintStats, error) {
	return s.ComplaintRepo.GetStatistics(ctx)
}

var statusProgression = map[string]string{
	models.StatusRegistered:  models.StatusInProgress,
	models.StatusInProgress:  models.StatusUnderReview,
	models.StatusUnderReview: models.StatusResolved,
}

// AdvanceStatus moves the complaint one step along the demo progression.
// Terminal statuses stay put and report no change.
func (s *ComplaintService) AdvanceStatus(ctx context.Context, complaintID string) (oldStatus, newStatus, message string, err error) {
	complaint, err := s.ComplaintRepo.GetByComplaintID(ctx, complaintID)
	if err != nil {
		return "", "", "", err
	}

	next, ok := statusProgression[complaint.Status]
	if !ok {
		return complaint.Status, complaint.Status, "No status change needed", nil
	}

	if err := s.UpdateStatus(ctx, complaintID, next, "Status updated automatically for demo"); err != nil {
		return "", "", "", err
	}

	return complaint.Status, next, s.RAG.StatusUpdateMessage(ctx, complaintID, next), nil
}
