package bank

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gringotts-bot/internal/common"
	"gringotts-bot/internal/config"
	"gringotts-bot/internal/currency"
	"gringotts-bot/internal/features/cooldown"
	"gringotts-bot/internal/features/ledger"
	"gringotts-bot/internal/features/shop"
)

type serviceMocks struct {
	ledger    *mockLedger
	catalog   *mockCatalog
	purchases *mockPurchaser
	gate      *mockGate
}

func newTestService(t *testing.T) (*Service, *serviceMocks) {
	t.Helper()

	m := &serviceMocks{
		ledger:    new(mockLedger),
		catalog:   new(mockCatalog),
		purchases: new(mockPurchaser),
		gate:      new(mockGate),
	}
	cfg := &config.Config{
		WorkCooldown:   time.Hour,
		IncomeCooldown: 168 * time.Hour,
	}
	svc := NewService(m.ledger, m.catalog, m.purchases, m.gate, cfg)
	// Детерминированное время и детерминированный бросок
	svc.now = func() time.Time { return time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC) }
	svc.roll = func(min, max int64) int64 { return min }
	return svc, m
}

func TestWork(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	t.Run("success credits and records cooldown", func(t *testing.T) {
		svc, m := newTestService(t)
		svc.roll = func(min, max int64) int64 { return 25 }

		m.gate.On("Check", ctx, "u1", cooldown.KindWork, now, time.Hour).
			Return(cooldown.Status{Ready: true}, nil)
		m.ledger.On("AdjustBalance", ctx, "u1", int64(25), "harry", ledger.TxTypeWork, "u1", "Заработок за работу: 25 Knuts").
			Return(currency.Split(125), int64(25), nil)
		m.gate.On("Record", ctx, "u1", cooldown.KindWork, now).Return(nil)

		res, err := svc.Work(ctx, "u1", "harry", WorkRate{Min: 10, Max: 50, Unit: currency.UnitKnut})
		require.NoError(t, err)
		assert.Equal(t, int64(25), res.Rolled)
		assert.Equal(t, int64(25), res.Knuts)
		assert.Equal(t, currency.Split(125), res.NewBalance)
		m.gate.AssertExpectations(t)
		m.ledger.AssertExpectations(t)
	})

	t.Run("sickle rate converts to knuts", func(t *testing.T) {
		svc, m := newTestService(t)
		svc.roll = func(min, max int64) int64 { return 3 }

		m.gate.On("Check", ctx, "u1", cooldown.KindWork, now, time.Hour).
			Return(cooldown.Status{Ready: true}, nil)
		// 3 сикля = 87 кнатов
		m.ledger.On("AdjustBalance", ctx, "u1", int64(87), "", ledger.TxTypeWork, "u1", "Заработок за работу: 3 Sickles").
			Return(currency.Split(87), int64(87), nil)
		m.gate.On("Record", ctx, "u1", cooldown.KindWork, now).Return(nil)

		res, err := svc.Work(ctx, "u1", "", WorkRate{Min: 1, Max: 5, Unit: currency.UnitSickle})
		require.NoError(t, err)
		assert.Equal(t, int64(87), res.Knuts)
	})

	t.Run("blocked by cooldown", func(t *testing.T) {
		svc, m := newTestService(t)

		m.gate.On("Check", ctx, "u1", cooldown.KindWork, now, time.Hour).
			Return(cooldown.Status{Ready: false, Remaining: 40 * time.Minute}, nil)

		_, err := svc.Work(ctx, "u1", "harry", WorkRate{Min: 10, Max: 50, Unit: currency.UnitKnut})
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrCooldownActive)

		var cdErr *common.CooldownError
		require.ErrorAs(t, err, &cdErr)
		assert.Equal(t, "work", cdErr.Activity)
		assert.Equal(t, 40*time.Minute, cdErr.Remaining)

		// Отказ не начисляет денег и не трогает таймер
		m.ledger.AssertNotCalled(t, "AdjustBalance",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything,
			mock.Anything, mock.Anything, mock.Anything)
		m.gate.AssertNotCalled(t, "Record", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("failed credit does not burn cooldown", func(t *testing.T) {
		svc, m := newTestService(t)

		m.gate.On("Check", ctx, "u1", cooldown.KindWork, now, time.Hour).
			Return(cooldown.Status{Ready: true}, nil)
		m.ledger.On("AdjustBalance", ctx, "u1", int64(10), "harry", ledger.TxTypeWork, "u1", mock.Anything).
			Return(currency.Amount{}, int64(0), errors.New("db down"))

		_, err := svc.Work(ctx, "u1", "harry", WorkRate{Min: 10, Max: 50, Unit: currency.UnitKnut})
		require.Error(t, err)
		m.gate.AssertNotCalled(t, "Record", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("record failure does not fail operation", func(t *testing.T) {
		svc, m := newTestService(t)

		m.gate.On("Check", ctx, "u1", cooldown.KindWork, now, time.Hour).
			Return(cooldown.Status{Ready: true}, nil)
		m.ledger.On("AdjustBalance", ctx, "u1", int64(10), "harry", ledger.TxTypeWork, "u1", mock.Anything).
			Return(currency.Split(10), int64(10), nil)
		m.gate.On("Record", ctx, "u1", cooldown.KindWork, now).Return(errors.New("db down"))

		res, err := svc.Work(ctx, "u1", "harry", WorkRate{Min: 10, Max: 50, Unit: currency.UnitKnut})
		require.NoError(t, err)
		assert.Equal(t, int64(10), res.Knuts)
	})

	t.Run("invalid rate", func(t *testing.T) {
		svc, _ := newTestService(t)

		_, err := svc.Work(ctx, "u1", "", WorkRate{Min: 0, Max: 50, Unit: currency.UnitKnut})
		assert.ErrorIs(t, err, common.ErrInvalidAmount)

		_, err = svc.Work(ctx, "u1", "", WorkRate{Min: 50, Max: 10, Unit: currency.UnitKnut})
		assert.ErrorIs(t, err, common.ErrInvalidAmount)
	})
}

func TestCollectIncome(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	t.Run("success converts unit and records", func(t *testing.T) {
		svc, m := newTestService(t)

		m.gate.On("Check", ctx, "u1", cooldown.KindIncome, now, 168*time.Hour).
			Return(cooldown.Status{Ready: true}, nil)
		// 5 сиклей = 145 кнатов
		m.ledger.On("AdjustBalance", ctx, "u1", int64(145), "harry", ledger.TxTypeIncome, "u1", "Периодический доход").
			Return(currency.Split(145), int64(145), nil)
		m.gate.On("Record", ctx, "u1", cooldown.KindIncome, now).Return(nil)

		res, err := svc.CollectIncome(ctx, "u1", "harry", IncomeRate{Amount: 5, Unit: currency.UnitSickle})
		require.NoError(t, err)
		assert.Equal(t, int64(145), res.Knuts)
		m.gate.AssertExpectations(t)
	})

	t.Run("blocked by cooldown", func(t *testing.T) {
		svc, m := newTestService(t)

		m.gate.On("Check", ctx, "u1", cooldown.KindIncome, now, 168*time.Hour).
			Return(cooldown.Status{Ready: false, Remaining: 24 * time.Hour}, nil)

		_, err := svc.CollectIncome(ctx, "u1", "harry", IncomeRate{Amount: 5, Unit: currency.UnitSickle})
		var cdErr *common.CooldownError
		require.ErrorAs(t, err, &cdErr)
		assert.Equal(t, "income", cdErr.Activity)
	})

	t.Run("invalid amount", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.CollectIncome(ctx, "u1", "", IncomeRate{Amount: 0, Unit: currency.UnitKnut})
		assert.ErrorIs(t, err, common.ErrInvalidAmount)
	})
}

func TestAdminAdjust(t *testing.T) {
	ctx := context.Background()

	t.Run("galleons convert to knuts", func(t *testing.T) {
		svc, m := newTestService(t)

		m.ledger.On("AdjustBalance", ctx, "u2", int64(986), "ron", ledger.TxTypeAdmin, "admin1", "Корректировка баланса: +2 Galleons. За победу в квиддиче").
			Return(currency.Split(986), int64(986), nil)

		res, err := svc.AdminAdjust(ctx, "u2", "ron", 2, currency.UnitGalleon, "admin1", "За победу в квиддиче")
		require.NoError(t, err)
		assert.Equal(t, int64(986), res.Requested)
		assert.Equal(t, int64(986), res.Applied)
	})

	t.Run("clamped debit reports applied delta", func(t *testing.T) {
		svc, m := newTestService(t)

		// Запросили -100, на счету было 40 — списалось только 40
		m.ledger.On("AdjustBalance", ctx, "u2", int64(-100), "", ledger.TxTypeAdmin, "admin1", "Корректировка баланса: -100 Knuts").
			Return(currency.Amount{}, int64(-40), nil)

		res, err := svc.AdminAdjust(ctx, "u2", "", -100, currency.UnitKnut, "admin1", "")
		require.NoError(t, err)
		assert.Equal(t, int64(-100), res.Requested)
		assert.Equal(t, int64(-40), res.Applied)
		assert.Equal(t, currency.Amount{}, res.NewBalance)
	})

	t.Run("zero amount rejected", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.AdminAdjust(ctx, "u2", "", 0, currency.UnitGalleon, "admin1", "")
		assert.ErrorIs(t, err, common.ErrInvalidAmount)
	})
}

func TestPurchase(t *testing.T) {
	ctx := context.Background()

	item := &shop.Item{ID: 7, Name: "Нимбус-2000", Price: 2465, Category: shop.CategoryBrooms}

	t.Run("success", func(t *testing.T) {
		svc, m := newTestService(t)

		receipt := &PurchaseReceipt{
			EntryID: 42, ItemID: 7, ItemName: "Нимбус-2000",
			Price: 2465, NewBalance: currency.Split(35),
		}
		m.catalog.On("GetItem", ctx, int64(7)).Return(item, nil)
		m.ledger.On("CanAfford", ctx, "u1", int64(2465)).Return(true, nil)
		m.purchases.On("Purchase", ctx, "u1", "harry", int64(7)).Return(receipt, nil)

		got, err := svc.Purchase(ctx, "u1", "harry", 7)
		require.NoError(t, err)
		assert.Equal(t, receipt, got)
		m.purchases.AssertExpectations(t)
	})

	t.Run("insufficient funds short-circuits", func(t *testing.T) {
		svc, m := newTestService(t)

		m.catalog.On("GetItem", ctx, int64(7)).Return(item, nil)
		m.ledger.On("CanAfford", ctx, "u1", int64(2465)).Return(false, nil)

		_, err := svc.Purchase(ctx, "u1", "harry", 7)
		assert.ErrorIs(t, err, common.ErrInsufficientBalance)
		m.purchases.AssertNotCalled(t, "Purchase", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown item", func(t *testing.T) {
		svc, m := newTestService(t)

		m.catalog.On("GetItem", ctx, int64(99)).Return(nil, common.ErrItemUnavailable)

		_, err := svc.Purchase(ctx, "u1", "harry", 99)
		assert.ErrorIs(t, err, common.ErrItemUnavailable)
	})
}

func TestConsumeEntry(t *testing.T) {
	ctx := context.Background()

	entry := &shop.OwnedItem{EntryID: 42, UserID: "u1", ItemID: 7, Name: "Нимбус-2000", Category: shop.CategoryBrooms}

	t.Run("use removes own entry", func(t *testing.T) {
		svc, m := newTestService(t)

		m.catalog.On("GetEntry", ctx, int64(42)).Return(entry, nil)
		m.catalog.On("RemoveEntry", ctx, int64(42)).Return(nil)

		got, err := svc.UseItem(ctx, "u1", 42)
		require.NoError(t, err)
		assert.Equal(t, entry, got)
		m.catalog.AssertExpectations(t)
	})

	t.Run("foreign entry looks like missing", func(t *testing.T) {
		svc, m := newTestService(t)

		m.catalog.On("GetEntry", ctx, int64(42)).Return(entry, nil)

		_, err := svc.DestroyItem(ctx, "intruder", 42)
		assert.ErrorIs(t, err, common.ErrInventoryEntryNotFound)
		m.catalog.AssertNotCalled(t, "RemoveEntry", mock.Anything, mock.Anything)
	})

	t.Run("missing entry", func(t *testing.T) {
		svc, m := newTestService(t)

		m.catalog.On("GetEntry", ctx, int64(404)).Return(nil, common.ErrInventoryEntryNotFound)

		_, err := svc.UseItem(ctx, "u1", 404)
		assert.ErrorIs(t, err, common.ErrInventoryEntryNotFound)
	})
}

func TestBalance(t *testing.T) {
	ctx := context.Background()

	t.Run("refreshes username and splits total", func(t *testing.T) {
		svc, m := newTestService(t)

		m.ledger.On("UpdateUsername", ctx, "u1", "harry").Return(nil)
		m.ledger.On("GetBalance", ctx, "u1").Return(int64(1080), nil)

		total, amount, err := svc.Balance(ctx, "u1", "harry")
		require.NoError(t, err)
		assert.Equal(t, int64(1080), total)
		assert.Equal(t, currency.Amount{Galleons: 2, Sickles: 3, Knuts: 7}, amount)
		m.ledger.AssertExpectations(t)
	})

	t.Run("empty username skips refresh", func(t *testing.T) {
		svc, m := newTestService(t)

		m.ledger.On("GetBalance", ctx, "u1").Return(int64(0), nil)

		total, amount, err := svc.Balance(ctx, "u1", "")
		require.NoError(t, err)
		assert.Equal(t, int64(0), total)
		assert.Equal(t, currency.Amount{}, amount)
		m.ledger.AssertNotCalled(t, "UpdateUsername", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("returns account profile", func(t *testing.T) {
		svc, m := newTestService(t)

		profile := &ledger.Profile{
			UserID: "u1", Username: "harry",
			FavoriteSpells: "Expelliarmus", Pets: "Hedwig", Bio: "Ловец",
		}
		m.ledger.On("GetProfile", ctx, "u1").Return(profile, nil)

		got, err := svc.Profile(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, profile, got)
	})

	t.Run("missing account", func(t *testing.T) {
		svc, m := newTestService(t)

		m.ledger.On("GetProfile", ctx, "ghost").Return(nil, common.ErrAccountNotFound)

		_, err := svc.Profile(ctx, "ghost")
		assert.ErrorIs(t, err, common.ErrAccountNotFound)
	})
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("writes all fields", func(t *testing.T) {
		svc, m := newTestService(t)

		m.ledger.On("SetProfile", ctx, "u1", "Expelliarmus", "Hedwig", "Ловец").Return(nil)

		require.NoError(t, svc.UpdateProfile(ctx, "u1", "Expelliarmus", "Hedwig", "Ловец"))
		m.ledger.AssertExpectations(t)
	})

	t.Run("store failure surfaces", func(t *testing.T) {
		svc, m := newTestService(t)

		m.ledger.On("SetProfile", ctx, "u1", "", "", "").Return(errors.New("db down"))

		assert.Error(t, svc.UpdateProfile(ctx, "u1", "", "", ""))
	})
}

func TestLeaderboard(t *testing.T) {
	ctx := context.Background()
	rows := []*ledger.LeaderboardRow{{UserID: "u1", Username: "harry", Value: 1080}}

	t.Run("dispatch by kind", func(t *testing.T) {
		svc, m := newTestService(t)

		m.ledger.On("TopByWealth", ctx, 10).Return(rows, nil)
		m.ledger.On("TopByTransactions", ctx, 10).Return(rows, nil)
		m.ledger.On("TopByIncome", ctx, 10).Return(rows, nil)

		for _, kind := range []LeaderboardKind{LeaderboardWealth, LeaderboardTransactions, LeaderboardIncome} {
			got, err := svc.Leaderboard(ctx, kind, 10)
			require.NoError(t, err)
			assert.Equal(t, rows, got)
		}
		m.ledger.AssertExpectations(t)
	})

	t.Run("unknown kind", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.Leaderboard(ctx, LeaderboardKind("fame"), 10)
		assert.Error(t, err)
	})
}

func TestAuditLedger(t *testing.T) {
	ctx := context.Background()

	t.Run("counts mismatches", func(t *testing.T) {
		svc, m := newTestService(t)

		m.ledger.On("FindInconsistentAccounts", ctx).Return([]*ledger.AuditRow{
			{UserID: "u1", Username: "harry", Balance: 100, LoggedSum: 90},
			{UserID: "u2", Username: "ron", Balance: 50, LoggedSum: 60},
		}, nil)

		n, err := svc.AuditLedger(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("clean ledger", func(t *testing.T) {
		svc, m := newTestService(t)

		m.ledger.On("FindInconsistentAccounts", ctx).Return([]*ledger.AuditRow{}, nil)

		n, err := svc.AuditLedger(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestDefaultRates(t *testing.T) {
	cfg := &config.Config{
		DefaultWorkMin: 10, DefaultWorkMax: 50, DefaultWorkUnit: "knut",
		DefaultIncomeAmount: 5, DefaultIncomeUnit: "sickle",
	}

	work := DefaultWorkRate(cfg)
	assert.Equal(t, WorkRate{Min: 10, Max: 50, Unit: currency.UnitKnut}, work)

	income := DefaultIncomeRate(cfg)
	assert.Equal(t, IncomeRate{Amount: 5, Unit: currency.UnitSickle}, income)
}
