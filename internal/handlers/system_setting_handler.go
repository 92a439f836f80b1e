package handlers

import (
	"encoding/json"
	"net/http"

	"akra-backend/internal/cache"
	"akra-backend/internal/middleware"
	"akra-backend/internal/models"
	"akra-backend/internal/repositories"
	"akra-backend/pkg/utils"

	"github.com/gorilla/mux"
)

type SystemSettingHandler struct {
	Repo *repositories.SystemSettingRepository
}

func NewSystemSettingHandler(repo *repositories.SystemSettingRepository) *SystemSettingHandler {
	return &SystemSettingHandler{Repo: repo}
}

func (h *SystemSettingHandler) List(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Repo.List(r.Context())
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "Failed to list settings")
		return
	}
	utils.JSON(w, http.StatusOK, settings)
}

// Update upserts one setting by key (admin).
func (h *SystemSettingHandler) Update(w http.ResponseWriter, r *http.Request) {
	adminUserID, _ := middleware.GetUserIDFromContext(r.Context())
	key := mux.Vars(r)["key"]

	var req models.UpdateSettingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.Repo.Set(r.Context(), key, req.SettingValue, adminUserID); err != nil {
		utils.Error(w, http.StatusInternalServerError, "Failed to update setting")
		return
	}
	cache.InvalidateSettingCaches(r.Context())
	utils.JSON(w, http.StatusOK, map[string]string{"message": "Setting updated"})
}
