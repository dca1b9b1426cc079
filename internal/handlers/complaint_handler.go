package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"grievanceBack/internal/models"
	"grievanceBack/internal/services"
)

type ComplaintHandler struct {
	Service *services.ComplaintService
	RAG     *services.RAGService
}

type registerComplaintRequest struct {
	Name     string `json:"name"`
	Mobile   string `json:"mobile"`
	Details  string `json:"complaint_details"`
	Category string `json:"category"`
}

type registerComplaintResponse struct {
	ComplaintID         string   `json:"complaint_id"`
	Status              string   `json:"status"`
	Category            string   `json:"category"`
	Message             string   `json:"message"`
	EstimatedResolution string   `json:"estimated_resolution"`
	FollowUpQuestions   []string `json:"follow_up_questions,omitempty"`
}

func (h *ComplaintHandler) RegisterComplaint(w http.ResponseWriter, r *http.Request) {
	var req registerComplaintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid input", http.StatusBadRequest)
		return
	}

	complaint, ack, err := h.Service.Register(r.Context(), models.Complaint{
		Name:     req.Name,
		Mobile:   req.Mobile,
		Details:  req.Details,
		Category: req.Category,
	})
	if err != nil {
		if validationError(err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Printf("RegisterComplaint error: %v", err)
		http.Error(w, "Failed to register complaint", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(registerComplaintResponse{
		ComplaintID:         complaint.ComplaintID,
		Status:              complaint.Status,
		Category:            complaint.Category,
		Message:             ack.Response,
		EstimatedResolution: ack.EstimatedResolution,
		FollowUpQuestions:   ack.FollowUpQuestions,
	})
}

func (h *ComplaintHandler) GetComplaintStatus(w http.ResponseWriter, r *http.Request) {
	complaintID := r.URL.Query().Get(":complaint_id")

	complaint, err := h.Service.GetByID(r.Context(), complaintID)
	if err != nil {
		if errors.Is(err, models.ErrComplaintNotFound) {
			http.Error(w, "Complaint not found", http.StatusNotFound)
			return
		}
		log.Printf("GetComplaintStatus error: %v", err)
		http.Error(w, "Failed to get complaint", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(complaint)
}

func (h *ComplaintHandler) GetUserComplaints(w http.ResponseWriter, r *http.Request) {
	mobile := r.URL.Query().Get(":mobile")

	complaints, err := h.Service.GetByMobile(r.Context(), mobile)
	if err != nil {
		log.Printf("GetUserComplaints error: %v", err)
		http.Error(w, "Failed to get complaints", http.StatusInternalServerError)
		return
	}
	if complaints == nil {
		complaints = []models.Complaint{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"mobile":     mobile,
		"count":      len(complaints),
		"complaints": complaints,
	})
}

func (h *ComplaintHandler) GetComplaintHistory(w http.ResponseWriter, r *http.Request) {
	complaintID := r.URL.Query().Get(":complaint_id")

	history, err := h.Service.GetHistory(r.Context(), complaintID)
	if err != nil {
		if errors.Is(err, models.ErrComplaintNotFound) {
			http.Error(w, "Complaint not found", http.StatusNotFound)
			return
		}
		log.Printf("GetComplaintHistory error: %v", err)
		http.Error(w, "Failed to get history", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"complaint_id": complaintID,
		"history":      history,
	})
}

// SimulateStatusUpdate advances the complaint one step along the demo
// progression and reports both sides of the change.
func (h *ComplaintHandler) SimulateStatusUpdate(w http.ResponseWriter, r *http.Request) {
	complaintID := r.URL.Query().Get(":complaint_id")

	oldStatus, newStatus, message, err := h.Service.AdvanceStatus(r.Context(), complaintID)
	if err != nil {
		if errors.Is(err, models.ErrComplaintNotFound) {
			http.Error(w, "Complaint not found", http.StatusNotFound)
			return
		}
		log.Printf("SimulateStatusUpdate error: %v", err)
		http.Error(w, "Failed to update status", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"complaint_id": complaintID,
		"old_status":   oldStatus,
		"new_status":   newStatus,
		"message":      message,
	})
}

func (h *ComplaintHandler) SimilarComplaints(w http.ResponseWriter, r *http.Request) {
	details := r.URL.Query().Get("complaint_details")
	if details == "" {
		http.Error(w, "Missing complaint_details parameter", http.StatusBadRequest)
		return
	}

	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		limit, _ = strconv.Atoi(l)
	}

	similar, err := h.RAG.SimilarComplaints(r.Context(), details, limit)
	if err != nil {
		log.Printf("SimilarComplaints error: %v", err)
		http.Error(w, "Failed to find similar complaints", http.StatusInternalServerError)
		return
	}
	if similar == nil {
		similar = []services.SimilarComplaint{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"count":   len(similar),
		"results": similar,
	})
}

func (h *ComplaintHandler) ContextualResponse(w http.ResponseWriter, r *http.Request) {
	details := r.URL.Query().Get("complaint_details")
	if details == "" {
		http.Error(w, "Missing complaint_details parameter", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.RAG.ContextualResponse(details))
}

func validationError(err error) bool {
	return errors.Is(err, models.ErrInvalidName) ||
		errors.Is(err, models.ErrInvalidMobile) ||
		errors.Is(err, models.ErrEmptyDetails) ||
		errors.Is(err, models.ErrInvalidCategory) ||
		errors.Is(err, models.ErrInvalidStatus)
}
