package main

import (
	"net/http"

	"github.com/bmizerany/pat"
	"github.com/justinas/alice"
)

func (app *application) JWTMiddlewareWithRole(requiredRole string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return app.JWTMiddleware(next, requiredRole)
	}
}

func (app *application) routes() http.Handler {
	standardMiddleware := alice.New(app.recoverPanic, app.logRequest, secureHeaders)
	adminAuthMiddleware := standardMiddleware.Append(app.JWTMiddlewareWithRole("admin"))

	mux := pat.New()

	// Complaints
	mux.Post("/register-complaint", standardMiddleware.ThenFunc(app.complaintHandler.RegisterComplaint))
	mux.Get("/complaint-status/:complaint_id", standardMiddleware.ThenFunc(app.complaintHandler.GetComplaintStatus))
	mux.Get("/user-complaints/:mobile", standardMiddleware.ThenFunc(app.complaintHandler.GetUserComplaints))
	mux.Get("/complaint-history/:complaint_id", standardMiddleware.ThenFunc(app.complaintHandler.GetComplaintHistory))
	mux.Post("/simulate-status-update/:complaint_id", standardMiddleware.ThenFunc(app.complaintHandler.SimulateStatusUpdate))

	// Retrieval
	mux.Get("/similar-complaints", standardMiddleware.ThenFunc(app.complaintHandler.SimilarComplaints))
	mux.Get("/contextual-response", standardMiddleware.ThenFunc(app.complaintHandler.ContextualResponse))

	// Assistant
	mux.Post("/assistant/chat", standardMiddleware.ThenFunc(app.assistantHandler.Chat))
	mux.Get("/ws/chat", http.HandlerFunc(app.ChatWebSocketHandler))
	mux.Get("/ws/notifications", http.HandlerFunc(app.NotificationWebSocketHandler))

	// Admin
	mux.Post("/admin/sign_in", standardMiddleware.ThenFunc(app.userHandler.SignIn))
	mux.Get("/admin/complaints", adminAuthMiddleware.ThenFunc(app.adminHandler.GetAllComplaints))
	mux.Put("/admin/complaint/:complaint_id/status", adminAuthMiddleware.ThenFunc(app.adminHandler.UpdateComplaintStatus))
	mux.Del("/admin/complaint/:complaint_id", adminAuthMiddleware.ThenFunc(app.adminHandler.DeleteComplaint))
	mux.Get("/admin/stats", adminAuthMiddleware.ThenFunc(app.adminHandler.GetStats))

	return mux
}
