package handlers

import (
	"net/http"

	"akra-backend/internal/health"
	"akra-backend/pkg/utils"
)

type HealthHandler struct {
	Checker *health.HealthChecker
}

func NewHealthHandler(checker *health.HealthChecker) *HealthHandler {
	return &HealthHandler{Checker: checker}
}

// Health is the liveness endpoint.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready reports whether the database is reachable.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	status := h.Checker.CheckBasic()
	code := http.StatusOK
	if status.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	utils.JSON(w, code, status)
}

// Detailed adds cache and host resource information.
func (h *HealthHandler) Detailed(w http.ResponseWriter, r *http.Request) {
	status := h.Checker.CheckDetailed()
	code := http.StatusOK
	if status.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	utils.JSON(w, code, status)
}
