package http

import (
	"net/http"

	"akra-backend/internal/events"
	"akra-backend/internal/handlers"
	"akra-backend/internal/middleware"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	transactionHandler *handlers.TransactionHandler,
	deductionHandler *handlers.DeductionHandler,
	exportHandler *handlers.ExportHandler,
	topUpHandler *handlers.TopUpHandler,
	adminActionLogHandler *handlers.AdminActionLogHandler,
	systemSettingHandler *handlers.SystemSettingHandler,
	healthHandler *handlers.HealthHandler,
	hub *events.Hub,
	authMiddleware *middleware.AuthMiddleware,
) *mux.Router {
	r := mux.NewRouter()

	// Public API routes - Authentication
	r.HandleFunc("/auth/signup", authHandler.Signup).Methods("POST")
	r.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	admin := authMiddleware.RequireAdmin

	// Protected API routes - Transactions
	transactionsAPI := r.PathPrefix("/api/transactions").Subrouter()
	transactionsAPI.Use(authMiddleware.Authenticate)
	transactionsAPI.HandleFunc("", transactionHandler.Create).Methods("POST")
	transactionsAPI.HandleFunc("/mine", transactionHandler.ListMine).Methods("GET")
	transactionsAPI.HandleFunc("/reset", admin(http.HandlerFunc(transactionHandler.Reset)).ServeHTTP).Methods("POST")
	transactionsAPI.HandleFunc("/type/{entryType}", transactionHandler.ListByType).Methods("GET")
	transactionsAPI.HandleFunc("/{id}", admin(http.HandlerFunc(transactionHandler.Update)).ServeHTTP).Methods("PUT")
	transactionsAPI.HandleFunc("/{id}", admin(http.HandlerFunc(transactionHandler.Delete)).ServeHTTP).Methods("DELETE")

	// Protected API routes - Deductions (admin only)
	deductionsAPI := r.PathPrefix("/api/deductions").Subrouter()
	deductionsAPI.Use(authMiddleware.RequireAdmin)
	deductionsAPI.HandleFunc("/search", deductionHandler.Search).Methods("POST")
	deductionsAPI.HandleFunc("/calculate", deductionHandler.Calculate).Methods("POST")
	deductionsAPI.HandleFunc("/summary", deductionHandler.Summary).Methods("GET")
	deductionsAPI.HandleFunc("/apply", deductionHandler.Apply).Methods("POST")
	deductionsAPI.HandleFunc("/history", deductionHandler.History).Methods("GET")
	deductionsAPI.HandleFunc("/filter-save/{filterSaveID}", deductionHandler.UndoFilterSave).Methods("DELETE")
	deductionsAPI.HandleFunc("/{id}", deductionHandler.Undo).Methods("DELETE")

	// Protected API routes - Exports (admin only)
	exportAPI := r.PathPrefix("/api/export").Subrouter()
	exportAPI.Use(authMiddleware.RequireAdmin)
	exportAPI.HandleFunc("/text", exportHandler.Text).Methods("POST")
	exportAPI.HandleFunc("/pdf", exportHandler.PDF).Methods("POST")

	// Protected API routes - Top-ups
	topupsAPI := r.PathPrefix("/api/topups").Subrouter()
	topupsAPI.Use(authMiddleware.Authenticate)
	topupsAPI.HandleFunc("", topUpHandler.Request).Methods("POST")
	topupsAPI.HandleFunc("", admin(http.HandlerFunc(topUpHandler.List)).ServeHTTP).Methods("GET")
	topupsAPI.HandleFunc("/mine", topUpHandler.ListMine).Methods("GET")
	topupsAPI.HandleFunc("/order", topUpHandler.CreateOrder).Methods("POST")
	topupsAPI.HandleFunc("/verify", topUpHandler.Verify).Methods("POST")
	topupsAPI.HandleFunc("/{id}/approve", admin(http.HandlerFunc(topUpHandler.Approve)).ServeHTTP).Methods("POST")
	topupsAPI.HandleFunc("/{id}/reject", admin(http.HandlerFunc(topUpHandler.Reject)).ServeHTTP).Methods("POST")

	// Razorpay webhook (signature-verified, no JWT)
	r.HandleFunc("/webhooks/razorpay", topUpHandler.Webhook).Methods("POST")

	// Protected API routes - Users
	usersAPI := r.PathPrefix("/api/users").Subrouter()
	usersAPI.Use(authMiddleware.Authenticate)
	usersAPI.HandleFunc("/me", userHandler.Me).Methods("GET")
	usersAPI.HandleFunc("", admin(http.HandlerFunc(userHandler.List)).ServeHTTP).Methods("GET")
	usersAPI.HandleFunc("", admin(http.HandlerFunc(userHandler.Create)).ServeHTTP).Methods("POST")
	usersAPI.HandleFunc("/{id}", admin(http.HandlerFunc(userHandler.Get)).ServeHTTP).Methods("GET")
	usersAPI.HandleFunc("/{id}", admin(http.HandlerFunc(userHandler.Update)).ServeHTTP).Methods("PUT")
	usersAPI.HandleFunc("/{id}", admin(http.HandlerFunc(userHandler.Delete)).ServeHTTP).Methods("DELETE")

	// Protected API routes - Admin Action Logs (admin only)
	adminActionLogsAPI := r.PathPrefix("/api/admin-action-logs").Subrouter()
	adminActionLogsAPI.Use(authMiddleware.RequireAdmin)
	adminActionLogsAPI.HandleFunc("", adminActionLogHandler.List).Methods("GET")

	// Protected API routes - System Settings
	settingsAPI := r.PathPrefix("/api/settings").Subrouter()
	settingsAPI.Use(authMiddleware.Authenticate)
	settingsAPI.HandleFunc("", systemSettingHandler.List).Methods("GET")
	settingsAPI.HandleFunc("/{key}", admin(http.HandlerFunc(systemSettingHandler.Update)).ServeHTTP).Methods("PUT")

	// Websocket change feed for admin screens
	r.Handle("/ws/entries", authMiddleware.RequireAdmin(http.HandlerFunc(hub.ServeWS))).Methods("GET")

	// Health endpoints (no auth required - for Kubernetes probes)
	r.HandleFunc("/health", healthHandler.Health).Methods("GET")
	r.HandleFunc("/health/ready", healthHandler.Ready).Methods("GET")
	r.HandleFunc("/health/detailed", healthHandler.Detailed).Methods("GET")

	// Metrics endpoint (Prometheus format)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
