package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"akra-backend/internal/game"
	"akra-backend/internal/services"
	"akra-backend/pkg/utils"
)

type ExportHandler struct {
	Deductions *services.DeductionService
	Exports    *services.ExportService
}

func NewExportHandler(deductions *services.DeductionService, exports *services.ExportService) *ExportHandler {
	return &ExportHandler{Deductions: deductions, Exports: exports}
}

type exportRequest struct {
	CalculateRequest
	Kind string `json:"kind"` // first | second, text export only
}

func (h *ExportHandler) calculate(r *http.Request, req *exportRequest) ([]game.CalcResult, error) {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		return nil, errors.New("invalid request body")
	}
	return h.Deductions.Calculate(r.Context(), req.EntryType,
		req.FirstLimit, req.SecondLimit, req.FirstCmp, req.SecondCmp)
}

// Text renders the current filter results as tab-separated clipboard text.
func (h *ExportHandler) Text(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	results, err := h.calculate(r, &req)
	if err != nil {
		utils.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	kind := game.KindFirst
	if req.Kind == string(game.KindSecond) {
		kind = game.KindSecond
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, h.Exports.Text(results, kind))
}

// PDF renders the current filter results as a printable summary.
func (h *ExportHandler) PDF(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	results, err := h.calculate(r, &req)
	if err != nil {
		utils.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	data, err := h.Exports.PDF(req.EntryType, results)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	filename := fmt.Sprintf("filter-results-%s-%s.pdf", req.EntryType, time.Now().Format("20060102-150405"))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
