package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync/atomic"
	"time"

	"akra-backend/internal/cache"
	"akra-backend/internal/events"
	"akra-backend/internal/game"
	"akra-backend/internal/metrics"
	"akra-backend/internal/models"
)

var ErrOperationInProgress = errors.New("a deduction operation is already in progress")

// persistTimeout bounds the batch write, not the plan computation.
const persistTimeout = 60 * time.Second

// Store interfaces keep the orchestrator testable against fakes.

type entryStore interface {
	ListByType(ctx context.Context, entryType string, adminView bool) ([]*models.Transaction, error)
	OriginalTotals(ctx context.Context, entryType string) (map[int]game.Amounts, error)
}

type deductionStore interface {
	SaveBatch(ctx context.Context, items []*models.AdminDeduction) *models.BatchResult
	Delete(ctx context.Context, id int) error
	DeleteByFilterSave(ctx context.Context, filterSaveID string) (int64, error)
	ListByFilterSave(ctx context.Context, filterSaveID string) ([]*models.AdminDeduction, error)
	List(ctx context.Context, limit int) ([]*models.AdminDeduction, error)
}

type actionLogStore interface {
	Create(ctx context.Context, log *models.AdminActionLog) error
}

// DeductionService orchestrates the admin filter-and-deduct workflow:
// search and calculate views over live amounts, plan computation, batch
// persistence, and undo. A single atomic flag serializes bulk applies and
// gates the websocket feed while one runs.
type DeductionService struct {
	entries    entryStore
	deductions deductionStore
	actionLogs actionLogStore
	hub        *events.Hub

	processing atomic.Bool
}

func NewDeductionService(entries entryStore, deductions deductionStore, actionLogs actionLogStore, hub *events.Hub) *DeductionService {
	s := &DeductionService{
		entries:    entries,
		deductions: deductions,
		actionLogs: actionLogs,
		hub:        hub,
	}
	if hub != nil {
		hub.Gate = func() bool { return !s.processing.Load() }
	}
	return s
}

// Processing reports whether a bulk apply is currently running.
func (s *DeductionService) Processing() bool {
	return s.processing.Load()
}

func (s *DeductionService) liveEntries(ctx context.Context, entryType string) ([]game.EntryAmounts, error) {
	if _, err := game.ParseEntryType(entryType); err != nil {
		return nil, ErrInvalidEntryType
	}
	rows, err := s.entries.ListByType(ctx, entryType, true)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s entries: %w", entryType, err)
	}
	out := make([]game.EntryAmounts, 0, len(rows))
	for _, t := range rows {
		out = append(out, game.EntryAmounts{
			ID:       t.ID,
			UnitID:   t.UnitID(),
			Number:   t.Number,
			UserID:   t.UserID,
			Username: t.Username,
			First:    t.First,
			Second:   t.Second,
		})
	}
	return out, nil
}

// Search runs the advanced-filter view: qualifying numbers for a pattern
// query with their contributing users, over live (netted) amounts.
func (s *DeductionService) Search(ctx context.Context, entryType, query string, kind game.AmountKind) ([]game.SearchResult, error) {
	entries, err := s.liveEntries(ctx, entryType)
	if err != nil {
		return nil, err
	}
	return game.SearchFilter(entries, query, kind), nil
}

// Calculate runs the limit-based filter view over live amounts.
func (s *DeductionService) Calculate(ctx context.Context, entryType string, firstLimit, secondLimit int64, firstCmp, secondCmp game.Comparison) ([]game.CalcResult, error) {
	entries, err := s.liveEntries(ctx, entryType)
	if err != nil {
		return nil, err
	}
	return game.LimitFilter(game.Aggregate(entries), firstLimit, secondLimit, firstCmp, secondCmp), nil
}

// Summary returns per-number totals over live amounts, covering the full
// playable range of the type with zero rows for numbers nobody played.
// Packet (10,000 numbers) lists only played numbers.
func (s *DeductionService) Summary(ctx context.Context, entryType string) ([]game.NumberSummary, error) {
	et, err := game.ParseEntryType(entryType)
	if err != nil {
		return nil, ErrInvalidEntryType
	}
	entries, err := s.liveEntries(ctx, entryType)
	if err != nil {
		return nil, err
	}
	byNumber := game.Aggregate(entries)

	if all := et.AllNumbers(); all != nil {
		out := make([]game.NumberSummary, 0, len(all))
		for _, n := range all {
			if row, ok := byNumber[n]; ok {
				out = append(out, *row)
			} else {
				out = append(out, game.NumberSummary{Number: n})
			}
		}
		return out, nil
	}

	out := make([]game.NumberSummary, 0, len(byNumber))
	for _, row := range byNumber {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

// ApplyRequest carries the targets plus the filter context that produced
// them; the context is persisted verbatim with every deduction.
type ApplyRequest struct {
	EntryType     string              `json:"entry_type"`
	DeductionType string              `json:"deduction_type"`
	Targets       []game.NumberTarget `json:"targets"`
	Metadata      models.DeductionMetadata `json:"metadata"`
}

// ApplyResult reports what one bulk apply did. Critical means rows failed
// to persist and the ledger may be inconsistent with what the admin saw.
type ApplyResult struct {
	FilterSaveID string             `json:"filter_save_id"`
	Planned      int                `json:"planned"`
	Batch        *models.BatchResult `json:"batch"`
	Shortfalls   []game.Shortfall   `json:"shortfalls,omitempty"`
	Warnings     []string           `json:"warnings,omitempty"`
	Critical     bool               `json:"critical"`
}

// Apply computes the deduction plan against pre-deduction totals and
// persists it. Only one apply runs at a time; a second caller is rejected
// immediately. Shortfalls and planning errors are warnings and do not
// block the batch; persistence failures of individual rows are reported
// as critical, with no rollback of rows already written.
func (s *DeductionService) Apply(ctx context.Context, adminUserID int, req *ApplyRequest) (result *ApplyResult, err error) {
	if !s.processing.CompareAndSwap(false, true) {
		return nil, ErrOperationInProgress
	}
	defer func() {
		s.processing.Store(false)
		if result != nil && result.Batch != nil && result.Batch.Success > 0 {
			cache.InvalidateEntryCaches(context.Background(), req.EntryType)
			s.hub.Publish(events.EventDeductionsApplied, req.EntryType, result)
		}
	}()

	if req.DeductionType != models.DeductionTypeFilter && req.DeductionType != models.DeductionTypeAdvancedFilter {
		return nil, fmt.Errorf("unknown deduction type %q", req.DeductionType)
	}
	if len(req.Targets) == 0 {
		return nil, errors.New("no targets to apply")
	}

	entries, err := s.liveEntries(ctx, req.EntryType)
	if err != nil {
		return nil, err
	}
	originals, err := s.entries.OriginalTotals(ctx, req.EntryType)
	if err != nil {
		return nil, err
	}

	plan := game.PlanDeductions(req.Targets, entries, originals)
	metrics.DeductionShortfallsTotal.Add(float64(len(plan.Shortfalls)))

	result = &ApplyResult{
		FilterSaveID: newFilterSaveID(),
		Planned:      len(plan.Items),
		Shortfalls:   plan.Shortfalls,
		Warnings:     plan.Errors,
		Batch:        &models.BatchResult{},
	}
	if len(plan.Items) == 0 {
		result.Warnings = append(result.Warnings, "nothing to deduct for the given targets")
		metrics.DeductionBatchesTotal.WithLabelValues("ok").Inc()
		return result, nil
	}

	meta := req.Metadata
	meta.EntryType = req.EntryType
	meta.FilterSaveID = result.FilterSaveID

	items := make([]*models.AdminDeduction, 0, len(plan.Items))
	for _, p := range plan.Items {
		m := meta
		m.NumberFiltered = p.Number
		items = append(items, &models.AdminDeduction{
			TransactionID:  p.TransactionID,
			AdminUserID:    adminUserID,
			DeductedFirst:  p.First,
			DeductedSecond: p.Second,
			DeductionType:  req.DeductionType,
			Metadata:       m,
		})
	}

	// Persistence gets its own deadline, detached from the request, so a
	// dropped client cannot abandon a half-written batch mid-flight.
	persistCtx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	result.Batch = s.deductions.SaveBatch(persistCtx, items)
	metrics.DeductionsAppliedTotal.Add(float64(result.Batch.Success))

	outcome := "ok"
	if result.Batch.Failed > 0 {
		result.Critical = true
		outcome = "partial"
		if result.Batch.Success == 0 {
			outcome = "failed"
		}
		log.Printf("[Deductions] CRITICAL: batch %s persisted %d/%d rows: %v",
			result.FilterSaveID, result.Batch.Success, len(items), result.Batch.Errors)
	}
	metrics.DeductionBatchesTotal.WithLabelValues(outcome).Inc()

	s.logAction(adminUserID, models.ActionApplyDeductions,
		fmt.Sprintf("applied %d deductions on %s (batch %s, %d failed)",
			result.Batch.Success, req.EntryType, result.FilterSaveID, result.Batch.Failed))

	return result, nil
}

// UndoDeduction removes one deduction record, restoring the amounts it
// had hidden from admin views.
func (s *DeductionService) UndoDeduction(ctx context.Context, adminUserID, id int) error {
	if err := s.deductions.Delete(ctx, id); err != nil {
		return err
	}
	s.logAction(adminUserID, models.ActionUndoDeduction, fmt.Sprintf("removed deduction %d", id))
	cache.InvalidateAllEntryCaches(ctx)
	s.hub.Publish(events.EventDeductionsUndone, "", map[string]int{"deduction_id": id})
	return nil
}

// UndoFilterSave removes every deduction written by one apply batch.
func (s *DeductionService) UndoFilterSave(ctx context.Context, adminUserID int, filterSaveID string) (int64, error) {
	removed, err := s.deductions.DeleteByFilterSave(ctx, filterSaveID)
	if err != nil {
		return 0, err
	}
	if removed == 0 {
		return 0, fmt.Errorf("no deductions found for batch %s", filterSaveID)
	}
	s.logAction(adminUserID, models.ActionUndoFilterSave,
		fmt.Sprintf("removed batch %s (%d deductions)", filterSaveID, removed))
	cache.InvalidateAllEntryCaches(ctx)
	s.hub.Publish(events.EventDeductionsUndone, "", map[string]string{"filter_save_id": filterSaveID})
	return removed, nil
}

// History returns recent deductions with their persisted filter context.
func (s *DeductionService) History(ctx context.Context, limit int) ([]*models.AdminDeduction, error) {
	return s.deductions.List(ctx, limit)
}

// ListByFilterSave returns the deductions of one apply batch.
func (s *DeductionService) ListByFilterSave(ctx context.Context, filterSaveID string) ([]*models.AdminDeduction, error) {
	return s.deductions.ListByFilterSave(ctx, filterSaveID)
}

func (s *DeductionService) logAction(adminUserID int, actionType, description string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := s.actionLogs.Create(ctx, &models.AdminActionLog{
			AdminUserID: adminUserID,
			ActionType:  actionType,
			TargetType:  "deduction",
			Description: description,
		})
		if err != nil {
			log.Printf("[AuditLog] failed to record %s: %v", actionType, err)
		}
	}()
}

// newFilterSaveID tags every deduction of one apply batch for group undo.
func newFilterSaveID() string {
	return fmt.Sprintf("fs-%d", time.Now().UnixNano())
}
