package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"akra-backend/internal/events"
	"akra-backend/internal/models"

	"github.com/jackc/pgx/v5"
)

// fakeTx embeds pgx.Tx for the methods the service never calls; Commit
// and Rollback are the only ones exercised.
type fakeTx struct {
	pgx.Tx
	committed bool
}

func (t *fakeTx) Commit(ctx context.Context) error   { t.committed = true; return nil }
func (t *fakeTx) Rollback(ctx context.Context) error { return nil }

type fakeBeginner struct {
	tx *fakeTx
}

func (b *fakeBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	b.tx = &fakeTx{}
	return b.tx, nil
}

type fakeTransactionStore struct {
	transactionStore
	byID    map[int]*models.Transaction
	updated map[int][2]int64
}

func (s *fakeTransactionStore) Get(ctx context.Context, id int) (*models.Transaction, error) {
	t, ok := s.byID[id]
	if !ok {
		return nil, errors.New("no rows")
	}
	return t, nil
}

func (s *fakeTransactionStore) UpdateAmounts(ctx context.Context, tx pgx.Tx, id int, first, second int64) error {
	if s.updated == nil {
		s.updated = make(map[int][2]int64)
	}
	s.updated[id] = [2]int64{first, second}
	return nil
}

type fakeBalanceStore struct {
	mu       sync.Mutex
	balances map[int]int64
}

func (s *fakeBalanceStore) GetBalance(ctx context.Context, userID int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balances[userID], nil
}

func (s *fakeBalanceStore) AdjustBalance(ctx context.Context, tx pgx.Tx, userID int, delta int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[userID] += delta
	return nil
}

type fakeSettingStore struct {
	values map[string]string
}

func (s *fakeSettingStore) Get(ctx context.Context, key string) (string, error) {
	return s.values[key], nil
}

func TestUpdateMovesBalanceInverselyToTotalChange(t *testing.T) {
	// Editing an entry's amounts moves the owner's balance by the inverse
	// of the total change: a raise debits the difference, a lowering
	// refunds it, and a raise beyond the balance is rejected untouched.
	tests := []struct {
		name        string
		newFirst    int64
		newSecond   int64
		wantBalance int64
		wantErr     error
	}{
		{name: "raise debits the difference", newFirst: 20, newSecond: 10, wantBalance: 80},
		{name: "lowering refunds the difference", newFirst: 5, newSecond: 0, wantBalance: 105},
		{name: "raise beyond balance rejected", newFirst: 200, newSecond: 100, wantBalance: 100, wantErr: ErrInsufficientBalance},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := &fakeTransactionStore{byID: map[int]*models.Transaction{
				7: {ID: 7, Number: "42", EntryType: "akra", First: 10, Second: 0, UserID: 3},
			}}
			balances := &fakeBalanceStore{balances: map[int]int64{3: 100}}
			db := &fakeBeginner{}
			svc := NewTransactionService(db, entries, balances, &fakeSettingStore{}, &fakeActionLogStore{}, events.NewHub())

			updated, err := svc.Update(context.Background(), 1, 7, &models.UpdateTransactionRequest{
				First:  tt.newFirst,
				Second: tt.newSecond,
			})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Update: err = %v, want %v", err, tt.wantErr)
			}
			if got := balances.balances[3]; got != tt.wantBalance {
				t.Errorf("balance = %d, want %d", got, tt.wantBalance)
			}
			if tt.wantErr != nil {
				if len(entries.updated) != 0 {
					t.Errorf("amounts written on rejected edit: %v", entries.updated)
				}
				return
			}
			if entries.updated[7] != [2]int64{tt.newFirst, tt.newSecond} {
				t.Errorf("stored amounts = %v, want [%d %d]", entries.updated[7], tt.newFirst, tt.newSecond)
			}
			if !db.tx.committed {
				t.Error("transaction never committed")
			}
			if updated.First != tt.newFirst || updated.Second != tt.newSecond {
				t.Errorf("returned entry = %+v", updated)
			}
		})
	}
}

func TestUpdateRejectsNegativeAmounts(t *testing.T) {
	svc := NewTransactionService(&fakeBeginner{}, &fakeTransactionStore{}, &fakeBalanceStore{balances: map[int]int64{}},
		&fakeSettingStore{}, &fakeActionLogStore{}, events.NewHub())

	_, err := svc.Update(context.Background(), 1, 7, &models.UpdateTransactionRequest{First: -1})
	if !errors.Is(err, ErrInvalidAmounts) {
		t.Fatalf("err = %v, want ErrInvalidAmounts", err)
	}
}

func TestCreateDebitsStakeAndValidates(t *testing.T) {
	tests := []struct {
		name        string
		req         models.CreateTransactionRequest
		wantBalance int64
		wantErr     error
	}{
		{
			name:        "valid entry debits first+second",
			req:         models.CreateTransactionRequest{Number: "7", EntryType: "akra", First: 30, Second: 20},
			wantBalance: 50,
		},
		{
			name:        "stake over balance rejected",
			req:         models.CreateTransactionRequest{Number: "07", EntryType: "akra", First: 90, Second: 20},
			wantBalance: 100,
			wantErr:     ErrInsufficientBalance,
		},
		{
			name:        "number too wide for type",
			req:         models.CreateTransactionRequest{Number: "123", EntryType: "akra", First: 10},
			wantBalance: 100,
			wantErr:     ErrInvalidNumber,
		},
		{
			name:        "both amounts zero",
			req:         models.CreateTransactionRequest{Number: "07", EntryType: "akra"},
			wantBalance: 100,
			wantErr:     ErrInvalidAmounts,
		},
		{
			name:        "unknown entry type",
			req:         models.CreateTransactionRequest{Number: "07", EntryType: "double", First: 10},
			wantBalance: 100,
			wantErr:     ErrInvalidEntryType,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			balances := &fakeBalanceStore{balances: map[int]int64{3: 100}}
			svc := NewTransactionService(&fakeBeginner{}, &fakeCreatingStore{}, balances,
				&fakeSettingStore{}, &fakeActionLogStore{}, events.NewHub())

			created, err := svc.Create(context.Background(), 3, &tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Create: err = %v, want %v", err, tt.wantErr)
			}
			if got := balances.balances[3]; got != tt.wantBalance {
				t.Errorf("balance = %d, want %d", got, tt.wantBalance)
			}
			if tt.wantErr == nil && created.Number != "07" {
				t.Errorf("number = %q, want padded %q", created.Number, "07")
			}
		})
	}
}

func TestCreateEnforcesAmountCap(t *testing.T) {
	balances := &fakeBalanceStore{balances: map[int]int64{3: 10000}}
	settings := &fakeSettingStore{values: map[string]string{models.SettingMaxAmountAkra: "500"}}
	svc := NewTransactionService(&fakeBeginner{}, &fakeCreatingStore{}, balances,
		settings, &fakeActionLogStore{}, events.NewHub())

	_, err := svc.Create(context.Background(), 3, &models.CreateTransactionRequest{
		Number: "07", EntryType: "akra", First: 501,
	})
	if !errors.Is(err, ErrAmountOverCap) {
		t.Fatalf("err = %v, want ErrAmountOverCap", err)
	}
	if _, err := svc.Create(context.Background(), 3, &models.CreateTransactionRequest{
		Number: "07", EntryType: "akra", First: 500, Second: 500,
	}); err != nil {
		t.Fatalf("at-cap entry rejected: %v", err)
	}
}

// fakeCreatingStore only supports Create.
type fakeCreatingStore struct {
	transactionStore
	created []*models.Transaction
}

func (s *fakeCreatingStore) Create(ctx context.Context, t *models.Transaction) error {
	t.ID = len(s.created) + 1
	s.created = append(s.created, t)
	return nil
}
