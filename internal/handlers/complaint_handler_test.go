package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bmizerany/pat"
	_ "github.com/mattn/go-sqlite3"

	"grievanceBack/internal/ai"
	"grievanceBack/internal/models"
	"grievanceBack/internal/repositories"
	"grievanceBack/internal/services"
)

func newTestService(t *testing.T) (*services.ComplaintService, *services.RAGService) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite3", "file:"+path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := repositories.CreateSchema(db); err != nil {
		t.Fatalf("create schema: %v", err)
	}

	repo := &repositories.ComplaintRepository{DB: db}
	rag := &services.RAGService{KB: ai.DefaultKnowledgeBase(), ComplaintRepo: repo}
	return &services.ComplaintService{ComplaintRepo: repo, RAG: rag}, rag
}

func newTestMux(h *ComplaintHandler, a *AdminHandler) *pat.PatternServeMux {
	mux := pat.New()
	mux.Post("/register-complaint", http.HandlerFunc(h.RegisterComplaint))
	mux.Get("/complaint-status/:complaint_id", http.HandlerFunc(h.GetComplaintStatus))
	mux.Get("/user-complaints/:mobile", http.HandlerFunc(h.GetUserComplaints))
	mux.Get("/complaint-history/:complaint_id", http.HandlerFunc(h.GetComplaintHistory))
	mux.Post("/simulate-status-update/:complaint_id", http.HandlerFunc(h.SimulateStatusUpdate))
	mux.Get("/similar-complaints", http.HandlerFunc(h.SimilarComplaints))
	mux.Get("/contextual-response", http.HandlerFunc(h.ContextualResponse))
	if a != nil {
		mux.Get("/admin/complaints", http.HandlerFunc(a.GetAllComplaints))
		mux.Put("/admin/complaint/:complaint_id/status", http.HandlerFunc(a.UpdateComplaintStatus))
		mux.Del("/admin/complaint/:complaint_id", http.HandlerFunc(a.DeleteComplaint))
		mux.Get("/admin/stats", http.HandlerFunc(a.GetStats))
	}
	return mux
}

func TestRegisterComplaintEndpoint(t *testing.T) {
	svc, rag := newTestService(t)
	mux := newTestMux(&ComplaintHandler{Service: svc, RAG: rag}, nil)

	t.Run("created", func(t *testing.T) {
		body := `{"name":"Rahul Kumar","mobile":"+919876543210","complaint_details":"my laptop is broken"}`
		req := httptest.NewRequest(http.MethodPost, "/register-complaint", strings.NewReader(body))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
		}

		var resp struct {
			ComplaintID         string `json:"complaint_id"`
			Status              string `json:"status"`
			Category            string `json:"category"`
			EstimatedResolution string `json:"estimated_resolution"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !strings.HasPrefix(resp.ComplaintID, "CMP") {
			t.Fatalf("complaint_id = %q", resp.ComplaintID)
		}
		if resp.Status != models.StatusRegistered || resp.Category != models.CategoryHardware {
			t.Fatalf("resp = %+v", resp)
		}
		if resp.EstimatedResolution == "" {
			t.Fatal("empty estimated_resolution")
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/register-complaint", bytes.NewReader([]byte("{nope")))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("invalid mobile", func(t *testing.T) {
		body := `{"name":"Rahul","mobile":"12","complaint_details":"x"}`
		req := httptest.NewRequest(http.MethodPost, "/register-complaint", strings.NewReader(body))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})
}

func TestComplaintStatusEndpoint(t *testing.T) {
	svc, rag := newTestService(t)
	mux := newTestMux(&ComplaintHandler{Service: svc, RAG: rag}, nil)

	stored, _, err := svc.Register(context.Background(), models.Complaint{
		Name:    "Asha Rao",
		Mobile:  "+919812345678",
		Details: "cannot login to my account",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	t.Run("found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/complaint-status/"+stored.ComplaintID, nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		var got models.Complaint
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got.ComplaintID != stored.ComplaintID || got.Status != models.StatusRegistered {
			t.Fatalf("got %+v", got)
		}
	})

	t.Run("lowercase id accepted", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/complaint-status/"+strings.ToLower(stored.ComplaintID), nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
	})

	t.Run("not found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/complaint-status/CMP00000000", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
	})
}

func TestUserComplaintsEndpoint(t *testing.T) {
	svc, rag := newTestService(t)
	mux := newTestMux(&ComplaintHandler{Service: svc, RAG: rag}, nil)

	if _, _, err := svc.Register(context.Background(), models.Complaint{
		Name:    "Dev Patel",
		Mobile:  "+919876500000",
		Details: "internet is slow",
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/user-complaints/+919876500000", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Count      int                `json:"count"`
		Complaints []models.Complaint `json:"complaints"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 1 || len(resp.Complaints) != 1 {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestSimulateStatusUpdateEndpoint(t *testing.T) {
	svc, rag := newTestService(t)
	mux := newTestMux(&ComplaintHandler{Service: svc, RAG: rag}, nil)

	stored, _, err := svc.Register(context.Background(), models.Complaint{
		Name:    "Meena Iyer",
		Mobile:  "+919811111111",
		Details: "billing dispute over last invoice",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/simulate-status-update/"+stored.ComplaintID, nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		OldStatus string `json:"old_status"`
		NewStatus string `json:"new_status"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.OldStatus != models.StatusRegistered || resp.NewStatus != models.StatusInProgress {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestSimilarComplaintsEndpoint(t *testing.T) {
	svc, rag := newTestService(t)
	mux := newTestMux(&ComplaintHandler{Service: svc, RAG: rag}, nil)

	t.Run("missing details", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/similar-complaints", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("empty result set", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/similar-complaints?complaint_details=laptop+screen+broken", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var resp struct {
			Count   int                         `json:"count"`
			Results []services.SimilarComplaint `json:"results"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Count != 0 || resp.Results == nil {
			t.Fatalf("resp = %+v, want empty non-nil results", resp)
		}
	})
}

func TestContextualResponseEndpoint(t *testing.T) {
	svc, rag := newTestService(t)
	mux := newTestMux(&ComplaintHandler{Service: svc, RAG: rag}, nil)

	req := httptest.NewRequest(http.MethodGet, "/contextual-response?complaint_details=wifi+keeps+dropping", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp services.ContextualResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Category != models.CategoryNetwork {
		t.Fatalf("category = %q, want Network", resp.Category)
	}
}
