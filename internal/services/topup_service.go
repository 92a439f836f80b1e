package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"

	"akra-backend/internal/cache"
	"akra-backend/internal/models"
	"akra-backend/internal/repositories"

	"github.com/jackc/pgx/v5/pgxpool"
	razorpay "github.com/razorpay/razorpay-go"
)

var ErrInvalidTopUpAmount = errors.New("top-up amount must be positive")

// TopUpService handles both the manual request/approve flow and online
// top-ups through Razorpay.
type TopUpService struct {
	db         *pgxpool.Pool
	topups     *repositories.TopUpRepository
	onlineTxns *repositories.OnlineTransactionRepository
	users      *repositories.UserRepository
	actionLogs *repositories.AdminActionLogRepository

	keyID         string
	keySecret     string
	webhookSecret string
}

func NewTopUpService(
	db *pgxpool.Pool,
	topups *repositories.TopUpRepository,
	onlineTxns *repositories.OnlineTransactionRepository,
	users *repositories.UserRepository,
	actionLogs *repositories.AdminActionLogRepository,
	keyID, keySecret, webhookSecret string,
) *TopUpService {
	return &TopUpService{
		db:            db,
		topups:        topups,
		onlineTxns:    onlineTxns,
		users:         users,
		actionLogs:    actionLogs,
		keyID:         keyID,
		keySecret:     keySecret,
		webhookSecret: webhookSecret,
	}
}

// Request records a manual top-up request pending admin approval.
func (s *TopUpService) Request(ctx context.Context, userID int, req *models.CreateTopUpRequest) (*models.TopUpRequest, error) {
	if req.Amount <= 0 {
		return nil, ErrInvalidTopUpAmount
	}
	t := &models.TopUpRequest{
		UserID: userID,
		Amount: req.Amount,
		Status: models.TopUpStatusPending,
		Note:   req.Note,
	}
	if err := s.topups.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create top-up request: %w", err)
	}
	return t, nil
}

// Approve settles a pending request and credits the user's balance in one
// database transaction.
func (s *TopUpService) Approve(ctx context.Context, adminUserID, id int) (*models.TopUpRequest, error) {
	req, err := s.topups.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("top-up request %d not found: %w", id, err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := s.topups.Decide(ctx, tx, id, models.TopUpStatusApproved, adminUserID); err != nil {
		return nil, err
	}
	if err := s.users.AdjustBalance(ctx, tx, req.UserID, req.Amount); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.logAction(adminUserID, models.ActionApproveTopUp, &id,
		fmt.Sprintf("approved top-up %d: credited %d to user %d", id, req.Amount, req.UserID))
	cache.InvalidateUserCaches(ctx)

	return s.topups.Get(ctx, id)
}

// Reject declines a pending request without touching the balance.
func (s *TopUpService) Reject(ctx context.Context, adminUserID, id int) (*models.TopUpRequest, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := s.topups.Decide(ctx, tx, id, models.TopUpStatusRejected, adminUserID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.logAction(adminUserID, models.ActionRejectTopUp, &id, fmt.Sprintf("rejected top-up %d", id))
	return s.topups.Get(ctx, id)
}

func (s *TopUpService) List(ctx context.Context, status string) ([]*models.TopUpRequest, error) {
	return s.topups.List(ctx, status)
}

func (s *TopUpService) ListByUser(ctx context.Context, userID int) ([]*models.TopUpRequest, error) {
	return s.topups.ListByUser(ctx, userID)
}

// OnlineEnabled reports whether Razorpay credentials are configured.
func (s *TopUpService) OnlineEnabled() bool {
	return s.keyID != "" && s.keySecret != ""
}

// CreateOrderResponse carries what the checkout widget needs.
type CreateOrderResponse struct {
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	KeyID    string `json:"key_id"`
}

// CreateOrder opens a Razorpay order for an online top-up and records the
// pending transaction.
func (s *TopUpService) CreateOrder(ctx context.Context, userID int, req *models.CreateOnlineTopUpRequest) (*CreateOrderResponse, error) {
	if req.Amount <= 0 {
		return nil, ErrInvalidTopUpAmount
	}
	if !s.OnlineEnabled() {
		return nil, errors.New("online top-ups are not configured")
	}

	client := razorpay.NewClient(s.keyID, s.keySecret)
	orderData := map[string]interface{}{
		"amount":   req.Amount, // already minor units
		"currency": "PKR",
		"receipt":  fmt.Sprintf("topup_%d_%d", userID, time.Now().Unix()),
		"notes": map[string]interface{}{
			"user_id": userID,
		},
	}
	order, err := client.Order.Create(orderData, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create razorpay order: %w", err)
	}
	orderID, _ := order["id"].(string)
	if orderID == "" {
		return nil, errors.New("razorpay order response missing id")
	}

	txn := &models.OnlineTransaction{
		RazorpayOrderID: orderID,
		UserID:          userID,
		Amount:          req.Amount,
		Status:          models.OnlineTxStatusPending,
	}
	if err := s.onlineTxns.Create(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to store online transaction: %w", err)
	}

	return &CreateOrderResponse{
		OrderID:  orderID,
		Amount:   req.Amount,
		Currency: "PKR",
		KeyID:    s.keyID,
	}, nil
}

// VerifyPayment checks the checkout signature and credits the balance.
// A replay for an already settled order returns the stored transaction
// without crediting twice.
func (s *TopUpService) VerifyPayment(ctx context.Context, orderID, paymentID, signature string) (*models.OnlineTransaction, error) {
	if !s.verifySignature(orderID, paymentID, signature) {
		_ = s.onlineTxns.MarkFailed(ctx, orderID, "invalid signature")
		return nil, errors.New("invalid payment signature")
	}

	txn, err := s.onlineTxns.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("order %s not found: %w", orderID, err)
	}
	if txn.Status == models.OnlineTxStatusSuccess {
		return txn, nil
	}

	if err := s.settle(ctx, orderID, paymentID, signature, txn); err != nil {
		return nil, err
	}
	return s.onlineTxns.GetByOrderID(ctx, orderID)
}

// settle marks the order successful and credits the balance atomically.
// MarkSuccess only transitions pending orders, so concurrent settles of
// the same order credit once.
func (s *TopUpService) settle(ctx context.Context, orderID, paymentID, signature string, txn *models.OnlineTransaction) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := s.onlineTxns.MarkSuccess(ctx, tx, orderID, paymentID, signature); err != nil {
		return err
	}
	if err := s.users.AdjustBalance(ctx, tx, txn.UserID, txn.Amount); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	cache.InvalidateUserCaches(ctx)
	log.Printf("[TopUp] credited %d to user %d for order %s", txn.Amount, txn.UserID, orderID)
	return nil
}

// ProcessWebhook handles payment.captured and payment.failed events.
func (s *TopUpService) ProcessWebhook(ctx context.Context, event string, payload map[string]interface{}) error {
	entity := webhookPaymentEntity(payload)
	orderID, _ := entity["order_id"].(string)
	if orderID == "" {
		return errors.New("missing order_id in webhook")
	}

	switch event {
	case "payment.captured":
		txn, err := s.onlineTxns.GetByOrderID(ctx, orderID)
		if err != nil {
			return fmt.Errorf("order %s not found: %w", orderID, err)
		}
		if txn.Status == models.OnlineTxStatusSuccess {
			log.Printf("[TopUp] order %s already settled, webhook ignored", orderID)
			return nil
		}
		paymentID, _ := entity["id"].(string)
		return s.settle(ctx, orderID, paymentID, "", txn)
	case "payment.failed":
		reason := "payment failed"
		if desc, ok := entity["error_description"].(string); ok && desc != "" {
			reason = desc
		}
		return s.onlineTxns.MarkFailed(ctx, orderID, reason)
	default:
		log.Printf("[TopUp] unhandled webhook event: %s", event)
		return nil
	}
}

func webhookPaymentEntity(payload map[string]interface{}) map[string]interface{} {
	paymentEntity, ok := payload["payment"].(map[string]interface{})
	if !ok {
		paymentEntity = payload
	}
	entity, ok := paymentEntity["entity"].(map[string]interface{})
	if !ok {
		entity = paymentEntity
	}
	return entity
}

// verifySignature checks the Razorpay checkout signature.
func (s *TopUpService) verifySignature(orderID, paymentID, signature string) bool {
	if s.keySecret == "" {
		return false
	}
	data := orderID + "|" + paymentID
	h := hmac.New(sha256.New, []byte(s.keySecret))
	h.Write([]byte(data))
	expected := hex.EncodeToString(h.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// VerifyWebhookSignature checks the webhook body signature. Skipped when
// no webhook secret is configured.
func (s *TopUpService) VerifyWebhookSignature(body []byte, signature string) bool {
	if s.webhookSecret == "" {
		return true
	}
	h := hmac.New(sha256.New, []byte(s.webhookSecret))
	h.Write(body)
	expected := hex.EncodeToString(h.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (s *TopUpService) logAction(adminUserID int, actionType string, targetID *int, description string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := s.actionLogs.Create(ctx, &models.AdminActionLog{
			AdminUserID: adminUserID,
			ActionType:  actionType,
			TargetType:  "topup",
			TargetID:    targetID,
			Description: description,
		})
		if err != nil {
			log.Printf("[AuditLog] failed to record %s: %v", actionType, err)
		}
	}()
}
