package handlers

import (
	"net/http"
	"strconv"

	"akra-backend/internal/repositories"
	"akra-backend/pkg/utils"
)

type AdminActionLogHandler struct {
	Repo *repositories.AdminActionLogRepository
}

func NewAdminActionLogHandler(repo *repositories.AdminActionLogRepository) *AdminActionLogHandler {
	return &AdminActionLogHandler{Repo: repo}
}

// List returns recent admin actions, optionally filtered by
// ?action_type=apply_deductions and limited by ?limit=.
func (h *AdminActionLogHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	logs, err := h.Repo.List(r.Context(), r.URL.Query().Get("action_type"), limit)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "Failed to list action logs")
		return
	}
	utils.JSON(w, http.StatusOK, logs)
}
