package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"akra-backend/internal/events"
	"akra-backend/internal/game"
	"akra-backend/internal/models"
)

type fakeEntryStore struct {
	entries   []*models.Transaction
	originals map[int]game.Amounts
	listErr   error
}

func (f *fakeEntryStore) ListByType(ctx context.Context, entryType string, adminView bool) ([]*models.Transaction, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*models.Transaction
	for _, t := range f.entries {
		if t.EntryType == entryType {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeEntryStore) OriginalTotals(ctx context.Context, entryType string) (map[int]game.Amounts, error) {
	return f.originals, nil
}

type fakeDeductionStore struct {
	mu      sync.Mutex
	saved   []*models.AdminDeduction
	failAll bool

	deleted       []int
	deleteErr     error
	batchesErased []string
	eraseCount    int64
}

func (f *fakeDeductionStore) SaveBatch(ctx context.Context, items []*models.AdminDeduction) *models.BatchResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := &models.BatchResult{}
	for i, item := range items {
		if f.failAll {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("item %d: connection refused", i))
			continue
		}
		f.saved = append(f.saved, item)
		result.Success++
	}
	return result
}

func (f *fakeDeductionStore) Delete(ctx context.Context, id int) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeDeductionStore) DeleteByFilterSave(ctx context.Context, filterSaveID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchesErased = append(f.batchesErased, filterSaveID)
	return f.eraseCount, nil
}

func (f *fakeDeductionStore) ListByFilterSave(ctx context.Context, filterSaveID string) ([]*models.AdminDeduction, error) {
	return nil, nil
}

func (f *fakeDeductionStore) List(ctx context.Context, limit int) ([]*models.AdminDeduction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saved, nil
}

type fakeActionLogStore struct {
	mu   sync.Mutex
	logs []*models.AdminActionLog
}

func (f *fakeActionLogStore) Create(ctx context.Context, l *models.AdminActionLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, l)
	return nil
}

func intPtr(v int) *int { return &v }

func newTestService(entries *fakeEntryStore, deductions *fakeDeductionStore) *DeductionService {
	return NewDeductionService(entries, deductions, &fakeActionLogStore{}, events.NewHub())
}

func TestApplyPersistsProportionalPlan(t *testing.T) {
	entries := &fakeEntryStore{
		entries: []*models.Transaction{
			{ID: 1, Number: "15", EntryType: "akra", First: 600, Second: 300, UserID: 10, Username: "ali"},
			{ID: 2, Number: "15", EntryType: "akra", First: 400, Second: 200, UserID: 11, Username: "bilal"},
		},
		originals: map[int]game.Amounts{
			1: {First: 600, Second: 300},
			2: {First: 400, Second: 200},
		},
	}
	deductions := &fakeDeductionStore{}
	svc := newTestService(entries, deductions)

	result, err := svc.Apply(context.Background(), 1, &ApplyRequest{
		EntryType:     "akra",
		DeductionType: models.DeductionTypeFilter,
		Targets:       []game.NumberTarget{{Number: "15", First: 500, Second: 0}},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if result.Batch.Success != 2 || result.Batch.Failed != 0 {
		t.Fatalf("batch = %+v, want 2 success", result.Batch)
	}
	if result.Critical {
		t.Error("clean batch flagged critical")
	}
	if result.FilterSaveID == "" {
		t.Error("missing filter save id")
	}

	// 60/40 split of the 500 target.
	got := map[int]int64{}
	for _, d := range deductions.saved {
		got[d.TransactionID] = d.DeductedFirst
		if d.Metadata.FilterSaveID != result.FilterSaveID {
			t.Errorf("deduction %d: filter_save_id %q, want %q", d.TransactionID, d.Metadata.FilterSaveID, result.FilterSaveID)
		}
		if d.Metadata.EntryType != "akra" || d.Metadata.NumberFiltered != "15" {
			t.Errorf("deduction %d: metadata %+v", d.TransactionID, d.Metadata)
		}
	}
	if got[1] != 300 || got[2] != 200 {
		t.Errorf("deducted first = %v, want {1:300 2:200}", got)
	}
}

func TestApplyShortfallStillCommits(t *testing.T) {
	entries := &fakeEntryStore{
		entries: []*models.Transaction{
			{ID: 1, Number: "07", EntryType: "akra", First: 100, Second: 0, UserID: 10},
		},
		originals: map[int]game.Amounts{1: {First: 100}},
	}
	deductions := &fakeDeductionStore{}
	svc := newTestService(entries, deductions)

	result, err := svc.Apply(context.Background(), 1, &ApplyRequest{
		EntryType:     "akra",
		DeductionType: models.DeductionTypeFilter,
		Targets:       []game.NumberTarget{{Number: "07", First: 250}},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if result.Batch.Success != 1 {
		t.Fatalf("batch = %+v, want the available 100 committed", result.Batch)
	}
	if len(result.Shortfalls) != 1 || result.Shortfalls[0].First != 150 {
		t.Fatalf("shortfalls = %+v, want one of 150", result.Shortfalls)
	}
	if result.Critical {
		t.Error("shortfall flagged critical; it is only a warning")
	}
}

func TestApplyPartialPersistFailureIsCritical(t *testing.T) {
	entries := &fakeEntryStore{
		entries: []*models.Transaction{
			{ID: 1, Number: "3", EntryType: "open", First: 100, UserID: 10},
		},
		originals: map[int]game.Amounts{1: {First: 100}},
	}
	deductions := &fakeDeductionStore{failAll: true}
	svc := newTestService(entries, deductions)

	result, err := svc.Apply(context.Background(), 1, &ApplyRequest{
		EntryType:     "open",
		DeductionType: models.DeductionTypeFilter,
		Targets:       []game.NumberTarget{{Number: "3", First: 50}},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !result.Critical {
		t.Error("persist failure not flagged critical")
	}
	if result.Batch.Failed != 1 {
		t.Errorf("batch = %+v, want 1 failed", result.Batch)
	}
}

func TestApplyRejectsConcurrentRun(t *testing.T) {
	svc := newTestService(&fakeEntryStore{}, &fakeDeductionStore{})
	svc.processing.Store(true)

	_, err := svc.Apply(context.Background(), 1, &ApplyRequest{
		EntryType:     "open",
		DeductionType: models.DeductionTypeFilter,
		Targets:       []game.NumberTarget{{Number: "3", First: 50}},
	})
	if !errors.Is(err, ErrOperationInProgress) {
		t.Fatalf("err = %v, want ErrOperationInProgress", err)
	}
	if !svc.Processing() {
		t.Error("rejected call cleared the processing flag of the running apply")
	}
}

func TestApplyClearsProcessingFlag(t *testing.T) {
	svc := newTestService(&fakeEntryStore{originals: map[int]game.Amounts{}}, &fakeDeductionStore{})

	if _, err := svc.Apply(context.Background(), 1, &ApplyRequest{
		EntryType:     "open",
		DeductionType: models.DeductionTypeFilter,
		Targets:       []game.NumberTarget{{Number: "3", First: 50}},
	}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if svc.Processing() {
		t.Error("processing flag still set after apply returned")
	}
}

func TestApplyValidatesRequest(t *testing.T) {
	svc := newTestService(&fakeEntryStore{}, &fakeDeductionStore{})

	if _, err := svc.Apply(context.Background(), 1, &ApplyRequest{
		EntryType:     "open",
		DeductionType: "bulk",
		Targets:       []game.NumberTarget{{Number: "3", First: 1}},
	}); err == nil {
		t.Error("unknown deduction type accepted")
	}
	if _, err := svc.Apply(context.Background(), 1, &ApplyRequest{
		EntryType:     "open",
		DeductionType: models.DeductionTypeFilter,
	}); err == nil {
		t.Error("empty target list accepted")
	}
	if _, err := svc.Apply(context.Background(), 1, &ApplyRequest{
		EntryType:     "lucky7",
		DeductionType: models.DeductionTypeFilter,
		Targets:       []game.NumberTarget{{Number: "3", First: 1}},
	}); !errors.Is(err, ErrInvalidEntryType) {
		t.Errorf("err = %v, want ErrInvalidEntryType", err)
	}
}

func TestApplySplitRowsDeductedPerRowWithinUnit(t *testing.T) {
	// Rows 1 and 3 are the same economic unit (3 split from 1). The unit's
	// originals count once, but the stored deductions are itemized per row
	// so admin-view netting reads every row back to zero; a deduction
	// larger than its row would be clamped by GREATEST(0, ...) and the
	// excess silently lost, letting a second apply over-deduct.
	entries := &fakeEntryStore{
		entries: []*models.Transaction{
			{ID: 1, Number: "42", EntryType: "akra", First: 60, UserID: 10},
			{ID: 3, Number: "42", EntryType: "akra", First: 40, UserID: 10, OriginalTransactionID: intPtr(1)},
		},
		originals: map[int]game.Amounts{1: {First: 100}},
	}
	deductions := &fakeDeductionStore{}
	svc := newTestService(entries, deductions)

	result, err := svc.Apply(context.Background(), 1, &ApplyRequest{
		EntryType:     "akra",
		DeductionType: models.DeductionTypeAdvancedFilter,
		Targets:       []game.NumberTarget{{Number: "42", First: 100}},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if result.Batch.Success != 2 {
		t.Fatalf("batch = %+v, want one deduction per physical row", result.Batch)
	}

	rowAmounts := map[int]int64{1: 60, 3: 40}
	var total int64
	for _, d := range deductions.saved {
		if d.DeductedFirst > rowAmounts[d.TransactionID] {
			t.Errorf("row %d: deduction %d exceeds the row's amount %d",
				d.TransactionID, d.DeductedFirst, rowAmounts[d.TransactionID])
		}
		total += d.DeductedFirst
	}
	if total != 100 {
		t.Errorf("total deducted = %d, want exactly the unit original 100", total)
	}
	if len(result.Shortfalls) != 0 {
		t.Errorf("shortfalls = %+v, want none", result.Shortfalls)
	}
}

func TestUndoFilterSave(t *testing.T) {
	deductions := &fakeDeductionStore{eraseCount: 3}
	svc := newTestService(&fakeEntryStore{}, deductions)

	removed, err := svc.UndoFilterSave(context.Background(), 1, "fs-123")
	if err != nil {
		t.Fatalf("UndoFilterSave: %v", err)
	}
	if removed != 3 {
		t.Errorf("removed = %d, want 3", removed)
	}

	deductions.eraseCount = 0
	if _, err := svc.UndoFilterSave(context.Background(), 1, "fs-missing"); err == nil {
		t.Error("unknown batch id accepted")
	}
}

func TestUndoDeduction(t *testing.T) {
	deductions := &fakeDeductionStore{}
	svc := newTestService(&fakeEntryStore{}, deductions)

	if err := svc.UndoDeduction(context.Background(), 1, 42); err != nil {
		t.Fatalf("UndoDeduction: %v", err)
	}
	if len(deductions.deleted) != 1 || deductions.deleted[0] != 42 {
		t.Errorf("deleted = %v, want [42]", deductions.deleted)
	}

	deductions.deleteErr = errors.New("no rows deleted")
	if err := svc.UndoDeduction(context.Background(), 1, 99); err == nil {
		t.Error("store error swallowed")
	}
}

func TestSearchUsesLiveAmounts(t *testing.T) {
	entries := &fakeEntryStore{
		entries: []*models.Transaction{
			{ID: 1, Number: "15", EntryType: "akra", First: 100, Second: 50, UserID: 10, Username: "ali"},
			{ID: 2, Number: "25", EntryType: "akra", First: 70, Second: 0, UserID: 11, Username: "bilal"},
		},
	}
	svc := newTestService(entries, &fakeDeductionStore{})

	results, err := svc.Search(context.Background(), "akra", "ends:5", game.KindFirst)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want both numbers ending in 5", len(results))
	}

	if _, err := svc.Search(context.Background(), "nope", "ends:5", game.KindFirst); !errors.Is(err, ErrInvalidEntryType) {
		t.Errorf("err = %v, want ErrInvalidEntryType", err)
	}
}

func TestSummaryCoversFullPlayableRange(t *testing.T) {
	entries := &fakeEntryStore{
		entries: []*models.Transaction{
			{ID: 1, Number: "3", EntryType: "open", First: 40, Second: 10, UserID: 10},
			{ID: 2, Number: "3", EntryType: "open", First: 20, UserID: 11},
		},
	}
	svc := newTestService(entries, &fakeDeductionStore{})

	rows, err := svc.Summary(context.Background(), "open")
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if len(rows) != 10 {
		t.Fatalf("rows = %d, want the full open range 0-9", len(rows))
	}
	if rows[3].Number != "3" || rows[3].FirstTotal != 60 || rows[3].SecondTotal != 10 || rows[3].EntryCount != 2 {
		t.Errorf("row 3 = %+v", rows[3])
	}
	for i, row := range rows {
		if i != 3 && (row.FirstTotal != 0 || row.EntryCount != 0) {
			t.Errorf("unplayed number %s has totals %+v", row.Number, row)
		}
	}
}

func TestSummaryPacketListsPlayedOnly(t *testing.T) {
	entries := &fakeEntryStore{
		entries: []*models.Transaction{
			{ID: 1, Number: "9001", EntryType: "packet", First: 10, UserID: 10},
			{ID: 2, Number: "0042", EntryType: "packet", First: 5, UserID: 11},
		},
	}
	svc := newTestService(entries, &fakeDeductionStore{})

	rows, err := svc.Summary(context.Background(), "packet")
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want only played numbers", len(rows))
	}
	if rows[0].Number != "0042" || rows[1].Number != "9001" {
		t.Errorf("rows out of order: %+v", rows)
	}

	if _, err := svc.Summary(context.Background(), "nope"); !errors.Is(err, ErrInvalidEntryType) {
		t.Errorf("err = %v, want ErrInvalidEntryType", err)
	}
}
