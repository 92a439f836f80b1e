package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"akra-backend/internal/cache"
	"akra-backend/internal/events"
	"akra-backend/internal/game"
	"akra-backend/internal/metrics"
	"akra-backend/internal/models"

	"github.com/jackc/pgx/v5"
)

var (
	ErrInvalidEntryType    = errors.New("invalid entry type")
	ErrInvalidNumber       = errors.New("number does not match entry type width")
	ErrInvalidAmounts      = errors.New("amounts must be non-negative and not both zero")
	ErrAmountOverCap       = errors.New("amount exceeds the configured maximum for this entry type")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

const entriesCacheTTL = 30 * time.Second

// txBeginner is satisfied by *pgxpool.Pool.
type txBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type transactionStore interface {
	Create(ctx context.Context, t *models.Transaction) error
	Get(ctx context.Context, id int) (*models.Transaction, error)
	ListByType(ctx context.Context, entryType string, adminView bool) ([]*models.Transaction, error)
	ListByUser(ctx context.Context, userID int) ([]*models.Transaction, error)
	UpdateAmounts(ctx context.Context, tx pgx.Tx, id int, first, second int64) error
	Delete(ctx context.Context, tx pgx.Tx, id int) error
	TotalsByUser(ctx context.Context, entryType string) (map[int]int64, error)
	DeleteByType(ctx context.Context, tx pgx.Tx, entryType string) (int64, error)
}

type balanceStore interface {
	GetBalance(ctx context.Context, userID int) (int64, error)
	AdjustBalance(ctx context.Context, tx pgx.Tx, userID int, delta int64) error
}

type settingStore interface {
	Get(ctx context.Context, key string) (string, error)
}

type TransactionService struct {
	db           txBeginner
	transactions transactionStore
	users        balanceStore
	settings     settingStore
	actionLogs   actionLogStore
	hub          *events.Hub
}

func NewTransactionService(
	db txBeginner,
	transactions transactionStore,
	users balanceStore,
	settings settingStore,
	actionLogs actionLogStore,
	hub *events.Hub,
) *TransactionService {
	return &TransactionService{
		db:           db,
		transactions: transactions,
		users:        users,
		settings:     settings,
		actionLogs:   actionLogs,
		hub:          hub,
	}
}

// Create validates and stores a new entry, debiting first+second from the
// submitting user's balance.
func (s *TransactionService) Create(ctx context.Context, userID int, req *models.CreateTransactionRequest) (*models.Transaction, error) {
	et, err := game.ParseEntryType(req.EntryType)
	if err != nil {
		return nil, ErrInvalidEntryType
	}
	number := et.Pad(req.Number)
	if !et.ValidNumber(number) {
		return nil, ErrInvalidNumber
	}
	if req.First < 0 || req.Second < 0 || (req.First == 0 && req.Second == 0) {
		return nil, ErrInvalidAmounts
	}

	if err := s.checkAmountCap(ctx, et, req.First, req.Second); err != nil {
		return nil, err
	}

	stake := req.First + req.Second
	balance, err := s.users.GetBalance(ctx, userID)
	if err != nil {
		return nil, err
	}
	if balance < stake {
		return nil, ErrInsufficientBalance
	}

	t := &models.Transaction{
		Number:    number,
		EntryType: string(et),
		First:     req.First,
		Second:    req.Second,
		UserID:    userID,
	}
	if err := s.transactions.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	if err := s.users.AdjustBalance(ctx, nil, userID, -stake); err != nil {
		// Entry exists but the debit failed; surface loudly, no auto-undo.
		log.Printf("[Transactions] CRITICAL: balance debit failed for user %d after creating entry %d: %v", userID, t.ID, err)
		return nil, fmt.Errorf("entry created but balance debit failed: %w", err)
	}

	metrics.EntriesCreatedTotal.WithLabelValues(string(et)).Inc()
	cache.InvalidateEntryCaches(ctx, string(et))
	s.hub.Publish(events.EventEntryCreated, string(et), t)
	return t, nil
}

// checkAmountCap enforces the optional per-type maximum from system
// settings against each amount. Blank or unparseable settings mean no cap.
func (s *TransactionService) checkAmountCap(ctx context.Context, et game.EntryType, first, second int64) error {
	key := map[game.EntryType]string{
		game.Open:   models.SettingMaxAmountOpen,
		game.Akra:   models.SettingMaxAmountAkra,
		game.Ring:   models.SettingMaxAmountRing,
		game.Packet: models.SettingMaxAmountPacket,
	}[et]

	value, err := s.settings.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	if value == "" {
		return nil
	}
	maxAmount, err := strconv.ParseInt(value, 10, 64)
	if err != nil || maxAmount <= 0 {
		return nil
	}
	if first > maxAmount || second > maxAmount {
		return ErrAmountOverCap
	}
	return nil
}

// ListByType returns entries for an entry type, cache-aside per view.
func (s *TransactionService) ListByType(ctx context.Context, entryType string, adminView bool) ([]*models.Transaction, error) {
	if _, err := game.ParseEntryType(entryType); err != nil {
		return nil, ErrInvalidEntryType
	}

	key := cache.EntriesKey(entryType, adminView)
	if data, ok := cache.GetCached(ctx, key); ok {
		var entries []*models.Transaction
		if err := json.Unmarshal(data, &entries); err == nil {
			return entries, nil
		}
	}

	entries, err := s.transactions.ListByType(ctx, entryType, adminView)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(entries); err == nil {
		cache.SetCached(ctx, key, data, entriesCacheTTL)
	}
	return entries, nil
}

func (s *TransactionService) ListByUser(ctx context.Context, userID int) ([]*models.Transaction, error) {
	return s.transactions.ListByUser(ctx, userID)
}

// Update rewrites an entry's amounts and moves the owner's balance by the
// inverse of the total change, in one database transaction. A raise the
// owner cannot afford is rejected.
func (s *TransactionService) Update(ctx context.Context, adminUserID, id int, req *models.UpdateTransactionRequest) (*models.Transaction, error) {
	if req.First < 0 || req.Second < 0 {
		return nil, ErrInvalidAmounts
	}

	old, err := s.transactions.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("transaction %d not found: %w", id, err)
	}

	delta := (req.First + req.Second) - (old.First + old.Second)
	if delta > 0 {
		balance, err := s.users.GetBalance(ctx, old.UserID)
		if err != nil {
			return nil, err
		}
		if balance < delta {
			return nil, ErrInsufficientBalance
		}
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := s.transactions.UpdateAmounts(ctx, tx, id, req.First, req.Second); err != nil {
		return nil, fmt.Errorf("failed to update amounts: %w", err)
	}
	if err := s.users.AdjustBalance(ctx, tx, old.UserID, -delta); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.logAction(adminUserID, models.ActionEditTransaction, "transaction", &id,
		fmt.Sprintf("edited entry %s/%s: %d/%d -> %d/%d",
			old.EntryType, old.Number, old.First, old.Second, req.First, req.Second))

	cache.InvalidateEntryCaches(ctx, old.EntryType)
	cache.InvalidateUserCaches(ctx)

	updated := *old
	updated.First = req.First
	updated.Second = req.Second
	s.hub.Publish(events.EventEntryUpdated, old.EntryType, &updated)
	return &updated, nil
}

// Delete removes an entry and refunds first+second to its owner.
func (s *TransactionService) Delete(ctx context.Context, adminUserID, id int) error {
	old, err := s.transactions.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("transaction %d not found: %w", id, err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := s.transactions.Delete(ctx, tx, id); err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	if err := s.users.AdjustBalance(ctx, tx, old.UserID, old.First+old.Second); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	s.logAction(adminUserID, models.ActionDeleteTransaction, "transaction", &id,
		fmt.Sprintf("deleted entry %s/%s (refunded %d)", old.EntryType, old.Number, old.First+old.Second))

	cache.InvalidateEntryCaches(ctx, old.EntryType)
	cache.InvalidateUserCaches(ctx)
	s.hub.Publish(events.EventEntryDeleted, old.EntryType, map[string]int{"id": id})
	return nil
}

// ResetEntryType deletes every entry of one type and refunds each owner
// the sum of their stakes, all in one database transaction.
func (s *TransactionService) ResetEntryType(ctx context.Context, adminUserID int, entryType string) (int64, error) {
	if _, err := game.ParseEntryType(entryType); err != nil {
		return 0, ErrInvalidEntryType
	}

	refunds, err := s.transactions.TotalsByUser(ctx, entryType)
	if err != nil {
		return 0, fmt.Errorf("failed to compute refunds: %w", err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	removed, err := s.transactions.DeleteByType(ctx, tx, entryType)
	if err != nil {
		return 0, fmt.Errorf("failed to reset %s: %w", entryType, err)
	}
	for userID, amount := range refunds {
		if err := s.users.AdjustBalance(ctx, tx, userID, amount); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}

	s.logAction(adminUserID, models.ActionResetEntryType, "entry_type", nil,
		fmt.Sprintf("reset %s: removed %d entries, refunded %d users", entryType, removed, len(refunds)))

	cache.InvalidateEntryCaches(ctx, entryType)
	cache.InvalidateUserCaches(ctx)
	s.hub.Publish(events.EventEntryTypeReset, entryType, map[string]int64{"removed": removed})
	return removed, nil
}

// logAction writes the audit record in the background; a failed write
// never fails the admin's request.
func (s *TransactionService) logAction(adminUserID int, actionType, targetType string, targetID *int, description string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := s.actionLogs.Create(ctx, &models.AdminActionLog{
			AdminUserID: adminUserID,
			ActionType:  actionType,
			TargetType:  targetType,
			TargetID:    targetID,
			Description: description,
		})
		if err != nil {
			log.Printf("[AuditLog] failed to record %s: %v", actionType, err)
		}
	}()
}
