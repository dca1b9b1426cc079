package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"grievanceBack/internal/models"
	"grievanceBack/internal/services"
)

type AdminHandler struct {
	Service *services.ComplaintService
}

func (h *AdminHandler) GetAllComplaints(w http.ResponseWriter, r *http.Request) {
	complaints, err := h.Service.GetAll(r.Context())
	if err != nil {
		log.Printf("GetAllComplaints error: %v", err)
		http.Error(w, "Failed to get complaints", http.StatusInternalServerError)
		return
	}
	if complaints == nil {
		complaints = []models.Complaint{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"count":      len(complaints),
		"complaints": complaints,
	})
}

type updateStatusRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

func (h *AdminHandler) UpdateComplaintStatus(w http.ResponseWriter, r *http.Request) {
	complaintID := r.URL.Query().Get(":complaint_id")

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid input", http.StatusBadRequest)
		return
	}

	err := h.Service.UpdateStatus(r.Context(), complaintID, req.Status, req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidStatus):
			http.Error(w, "Invalid status", http.StatusBadRequest)
		case errors.Is(err, models.ErrComplaintNotFound):
			http.Error(w, "Complaint not found", http.StatusNotFound)
		default:
			log.Printf("UpdateComplaintStatus error: %v", err)
			http.Error(w, "Failed to update status", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"complaint_id": complaintID,
		"status":       req.Status,
	})
}

func (h *AdminHandler) DeleteComplaint(w http.ResponseWriter, r *http.Request) {
	complaintID := r.URL.Query().Get(":complaint_id")

	if err := h.Service.Delete(r.Context(), complaintID); err != nil {
		if errors.Is(err, models.ErrComplaintNotFound) {
			http.Error(w, "Complaint not found", http.StatusNotFound)
			return
		}
		log.Printf("DeleteComplaint error: %v", err)
		http.Error(w, "Failed to delete complaint", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.GetStatistics(r.Context())
	if err != nil {
		log.Printf("GetStats error: %v", err)
		http.Error(w, "Failed to get statistics", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}
