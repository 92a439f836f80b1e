package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"akra-backend/internal/middleware"
	"akra-backend/internal/models"
	"akra-backend/internal/services"
	"akra-backend/pkg/utils"

	"github.com/gorilla/mux"
)

type TransactionHandler struct {
	Service *services.TransactionService
}

func NewTransactionHandler(s *services.TransactionService) *TransactionHandler {
	return &TransactionHandler{Service: s}
}

// Create submits a new entry for the authenticated user.
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req models.CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	t, err := h.Service.Create(r.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInsufficientBalance),
			errors.Is(err, services.ErrAmountOverCap):
			utils.Error(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, services.ErrInvalidEntryType),
			errors.Is(err, services.ErrInvalidNumber),
			errors.Is(err, services.ErrInvalidAmounts):
			utils.Error(w, http.StatusBadRequest, err.Error())
		default:
			utils.Error(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	utils.JSON(w, http.StatusCreated, t)
}

// ListByType lists entries for one entry type. Admins asking for
// view=admin get amounts netted against deductions.
func (h *TransactionHandler) ListByType(w http.ResponseWriter, r *http.Request) {
	entryType := mux.Vars(r)["entryType"]

	role, _ := middleware.GetRoleFromContext(r.Context())
	adminView := role == "admin" && r.URL.Query().Get("view") == "admin"

	entries, err := h.Service.ListByType(r.Context(), entryType, adminView)
	if err != nil {
		if errors.Is(err, services.ErrInvalidEntryType) {
			utils.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		utils.Error(w, http.StatusInternalServerError, "Failed to list entries")
		return
	}
	utils.JSON(w, http.StatusOK, entries)
}

// ListMine lists the authenticated user's own entries.
func (h *TransactionHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	entries, err := h.Service.ListByUser(r.Context(), userID)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "Failed to list entries")
		return
	}
	utils.JSON(w, http.StatusOK, entries)
}

// Update rewrites an entry's amounts (admin).
func (h *TransactionHandler) Update(w http.ResponseWriter, r *http.Request) {
	adminUserID, _ := middleware.GetUserIDFromContext(r.Context())
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid transaction id")
		return
	}

	var req models.UpdateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	t, err := h.Service.Update(r.Context(), adminUserID, id, &req)
	if err != nil {
		if errors.Is(err, services.ErrInsufficientBalance) {
			utils.Error(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		utils.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, t)
}

// Delete removes an entry and refunds its owner (admin).
func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	adminUserID, _ := middleware.GetUserIDFromContext(r.Context())
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid transaction id")
		return
	}

	if err := h.Service.Delete(r.Context(), adminUserID, id); err != nil {
		utils.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, map[string]string{"message": "Entry deleted and refunded"})
}

// Reset wipes an entry type and refunds every owner (admin).
func (h *TransactionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	adminUserID, _ := middleware.GetUserIDFromContext(r.Context())

	var req struct {
		EntryType string `json:"entry_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	removed, err := h.Service.ResetEntryType(r.Context(), adminUserID, req.EntryType)
	if err != nil {
		if errors.Is(err, services.ErrInvalidEntryType) {
			utils.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, map[string]int64{"removed": removed})
}
