package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"akra-backend/internal/game"
	"akra-backend/internal/middleware"
	"akra-backend/internal/services"
	"akra-backend/pkg/utils"

	"github.com/gorilla/mux"
)

type DeductionHandler struct {
	Service *services.DeductionService
}

func NewDeductionHandler(s *services.DeductionService) *DeductionHandler {
	return &DeductionHandler{Service: s}
}

// Search runs the advanced-filter view over live amounts.
func (h *DeductionHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EntryType string `json:"entry_type"`
		Query     string `json:"query"`
		Kind      string `json:"kind"` // first | second
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	kind := game.KindFirst
	if req.Kind == string(game.KindSecond) {
		kind = game.KindSecond
	}

	results, err := h.Service.Search(r.Context(), req.EntryType, req.Query, kind)
	if err != nil {
		if errors.Is(err, services.ErrInvalidEntryType) {
			utils.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, results)
}

// CalculateRequest carries the limit-filter parameters.
type CalculateRequest struct {
	EntryType   string          `json:"entry_type"`
	FirstLimit  int64           `json:"first_limit"`
	SecondLimit int64           `json:"second_limit"`
	FirstCmp    game.Comparison `json:"first_cmp"`
	SecondCmp   game.Comparison `json:"second_cmp"`
}

// Calculate runs the limit-based filter view over live amounts.
func (h *DeductionHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req CalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	results, err := h.Service.Calculate(r.Context(), req.EntryType,
		req.FirstLimit, req.SecondLimit, req.FirstCmp, req.SecondCmp)
	if err != nil {
		if errors.Is(err, services.ErrInvalidEntryType) {
			utils.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, results)
}

// Summary returns per-number totals across the type's playable range.
func (h *DeductionHandler) Summary(w http.ResponseWriter, r *http.Request) {
	results, err := h.Service.Summary(r.Context(), r.URL.Query().Get("entry_type"))
	if err != nil {
		if errors.Is(err, services.ErrInvalidEntryType) {
			utils.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, results)
}

// Apply computes and persists a deduction batch.
func (h *DeductionHandler) Apply(w http.ResponseWriter, r *http.Request) {
	adminUserID, _ := middleware.GetUserIDFromContext(r.Context())

	var req services.ApplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.Service.Apply(r.Context(), adminUserID, &req)
	if err != nil {
		if errors.Is(err, services.ErrOperationInProgress) {
			utils.Error(w, http.StatusConflict, err.Error())
			return
		}
		utils.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	status := http.StatusOK
	if result.Critical {
		// Partial persistence: the admin must see this is not a clean apply.
		status = http.StatusMultiStatus
	}
	utils.JSON(w, status, result)
}

// Undo removes a single deduction.
func (h *DeductionHandler) Undo(w http.ResponseWriter, r *http.Request) {
	adminUserID, _ := middleware.GetUserIDFromContext(r.Context())
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid deduction id")
		return
	}

	if err := h.Service.UndoDeduction(r.Context(), adminUserID, id); err != nil {
		utils.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, map[string]string{"message": "Deduction removed"})
}

// UndoFilterSave removes every deduction of one apply batch.
func (h *DeductionHandler) UndoFilterSave(w http.ResponseWriter, r *http.Request) {
	adminUserID, _ := middleware.GetUserIDFromContext(r.Context())
	filterSaveID := mux.Vars(r)["filterSaveID"]

	removed, err := h.Service.UndoFilterSave(r.Context(), adminUserID, filterSaveID)
	if err != nil {
		utils.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, map[string]int64{"removed": removed})
}

// History lists recent deductions with their persisted filter context.
func (h *DeductionHandler) History(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	if filterSaveID := r.URL.Query().Get("filter_save_id"); filterSaveID != "" {
		items, err := h.Service.ListByFilterSave(r.Context(), filterSaveID)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		utils.JSON(w, http.StatusOK, items)
		return
	}

	items, err := h.Service.History(r.Context(), limit)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, items)
}
