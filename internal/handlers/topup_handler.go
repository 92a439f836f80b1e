package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"akra-backend/internal/middleware"
	"akra-backend/internal/models"
	"akra-backend/internal/services"
	"akra-backend/pkg/utils"

	"github.com/gorilla/mux"
)

type TopUpHandler struct {
	Service *services.TopUpService
}

func NewTopUpHandler(s *services.TopUpService) *TopUpHandler {
	return &TopUpHandler{Service: s}
}

// Request creates a manual top-up request for the authenticated user.
func (h *TopUpHandler) Request(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req models.CreateTopUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	t, err := h.Service.Request(r.Context(), userID, &req)
	if err != nil {
		utils.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	utils.JSON(w, http.StatusCreated, t)
}

// List returns top-up requests (admin), optionally ?status=pending.
func (h *TopUpHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, items)
}

// ListMine returns the authenticated user's own top-up requests.
func (h *TopUpHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	items, err := h.Service.ListByUser(r.Context(), userID)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, items)
}

// Approve settles a pending request and credits the balance (admin).
func (h *TopUpHandler) Approve(w http.ResponseWriter, r *http.Request) {
	adminUserID, _ := middleware.GetUserIDFromContext(r.Context())
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid top-up id")
		return
	}

	t, err := h.Service.Approve(r.Context(), adminUserID, id)
	if err != nil {
		utils.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, t)
}

// Reject declines a pending request (admin).
func (h *TopUpHandler) Reject(w http.ResponseWriter, r *http.Request) {
	adminUserID, _ := middleware.GetUserIDFromContext(r.Context())
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid top-up id")
		return
	}

	t, err := h.Service.Reject(r.Context(), adminUserID, id)
	if err != nil {
		utils.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, t)
}

// CreateOrder opens a Razorpay order for an online top-up.
func (h *TopUpHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req models.CreateOnlineTopUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.Service.CreateOrder(r.Context(), userID, &req)
	if err != nil {
		utils.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	utils.JSON(w, http.StatusCreated, resp)
}

// Verify settles an online payment from the checkout callback.
func (h *TopUpHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RazorpayOrderID   string `json:"razorpay_order_id"`
		RazorpayPaymentID string `json:"razorpay_payment_id"`
		RazorpaySignature string `json:"razorpay_signature"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	txn, err := h.Service.VerifyPayment(r.Context(),
		req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature)
	if err != nil {
		utils.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, txn)
}

// Webhook receives Razorpay server-to-server events.
func (h *TopUpHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Failed to read body")
		return
	}

	if !h.Service.VerifyWebhookSignature(body, r.Header.Get("X-Razorpay-Signature")) {
		utils.Error(w, http.StatusUnauthorized, "Invalid webhook signature")
		return
	}

	var payload struct {
		Event   string                 `json:"event"`
		Payload map[string]interface{} `json:"payload"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid webhook payload")
		return
	}

	if err := h.Service.ProcessWebhook(r.Context(), payload.Event, payload.Payload); err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
