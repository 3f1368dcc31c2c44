package bank

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"gringotts-bot/internal/currency"
	"gringotts-bot/internal/features/cooldown"
	"gringotts-bot/internal/features/ledger"
	"gringotts-bot/internal/features/shop"
)

type mockLedger struct {
	mock.Mock
}

func (m *mockLedger) GetBalance(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockLedger) CanAfford(ctx context.Context, userID string, price int64) (bool, error) {
	args := m.Called(ctx, userID, price)
	return args.Bool(0), args.Error(1)
}

func (m *mockLedger) AdjustBalance(ctx context.Context, userID string, delta int64, username, txType, actorID, details string) (currency.Amount, int64, error) {
	args := m.Called(ctx, userID, delta, username, txType, actorID, details)
	return args.Get(0).(currency.Amount), args.Get(1).(int64), args.Error(2)
}

func (m *mockLedger) UpdateUsername(ctx context.Context, userID, username string) error {
	args := m.Called(ctx, userID, username)
	return args.Error(0)
}

func (m *mockLedger) GetProfile(ctx context.Context, userID string) (*ledger.Profile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Profile), args.Error(1)
}

func (m *mockLedger) SetProfile(ctx context.Context, userID, favoriteSpells, pets, bio string) error {
	args := m.Called(ctx, userID, favoriteSpells, pets, bio)
	return args.Error(0)
}

func (m *mockLedger) GetTransactions(ctx context.Context, userID string, limit int) ([]*ledger.Transaction, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.Transaction), args.Error(1)
}

func (m *mockLedger) TopByWealth(ctx context.Context, limit int) ([]*ledger.LeaderboardRow, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.LeaderboardRow), args.Error(1)
}

func (m *mockLedger) TopByTransactions(ctx context.Context, limit int) ([]*ledger.LeaderboardRow, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.LeaderboardRow), args.Error(1)
}

func (m *mockLedger) TopByIncome(ctx context.Context, limit int) ([]*ledger.LeaderboardRow, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.LeaderboardRow), args.Error(1)
}

func (m *mockLedger) FindInconsistentAccounts(ctx context.Context) ([]*ledger.AuditRow, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.AuditRow), args.Error(1)
}

type mockCatalog struct {
	mock.Mock
}

func (m *mockCatalog) GetItem(ctx context.Context, itemID int64) (*shop.Item, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shop.Item), args.Error(1)
}

func (m *mockCatalog) RetireItem(ctx context.Context, itemID int64) error {
	args := m.Called(ctx, itemID)
	return args.Error(0)
}

func (m *mockCatalog) GrantItem(ctx context.Context, userID string, itemID int64) (int64, error) {
	args := m.Called(ctx, userID, itemID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockCatalog) GetEntry(ctx context.Context, entryID int64) (*shop.OwnedItem, error) {
	args := m.Called(ctx, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shop.OwnedItem), args.Error(1)
}

func (m *mockCatalog) RemoveEntry(ctx context.Context, entryID int64) error {
	args := m.Called(ctx, entryID)
	return args.Error(0)
}

type mockPurchaser struct {
	mock.Mock
}

func (m *mockPurchaser) Purchase(ctx context.Context, userID, username string, itemID int64) (*PurchaseReceipt, error) {
	args := m.Called(ctx, userID, username, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*PurchaseReceipt), args.Error(1)
}

type mockGate struct {
	mock.Mock
}

func (m *mockGate) Check(ctx context.Context, userID string, kind cooldown.Kind, now time.Time, window time.Duration) (cooldown.Status, error) {
	args := m.Called(ctx, userID, kind, now, window)
	return args.Get(0).(cooldown.Status), args.Error(1)
}

func (m *mockGate) Record(ctx context.Context, userID string, kind cooldown.Kind, now time.Time) error {
	args := m.Called(ctx, userID, kind, now)
	return args.Error(0)
}
