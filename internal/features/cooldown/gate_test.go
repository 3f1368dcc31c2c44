package cooldown

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) LastActivity(ctx context.Context, userID string, kind Kind) (*time.Time, error) {
	args := m.Called(ctx, userID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*time.Time), args.Error(1)
}

func (m *mockStore) SetLastActivity(ctx context.Context, userID string, kind Kind, at time.Time) error {
	args := m.Called(ctx, userID, kind, at)
	return args.Error(0)
}

func TestGateCheck(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	window := time.Hour

	t.Run("first activity is ready", func(t *testing.T) {
		store := new(mockStore)
		store.On("LastActivity", ctx, "u1", KindWork).Return(nil, nil)

		status, err := NewGate(store).Check(ctx, "u1", KindWork, now, window)
		require.NoError(t, err)
		assert.True(t, status.Ready)
		assert.Zero(t, status.Remaining)
		store.AssertExpectations(t)
	})

	t.Run("blocked inside window", func(t *testing.T) {
		last := now.Add(-20 * time.Minute)
		store := new(mockStore)
		store.On("LastActivity", ctx, "u1", KindWork).Return(&last, nil)

		status, err := NewGate(store).Check(ctx, "u1", KindWork, now, window)
		require.NoError(t, err)
		assert.False(t, status.Ready)
		assert.Equal(t, 40*time.Minute, status.Remaining)
		assert.LessOrEqual(t, status.Remaining, window)
		// Заблокированная проверка не трогает сохранённый таймер
		store.AssertNotCalled(t, "SetLastActivity", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ready after window", func(t *testing.T) {
		last := now.Add(-2 * time.Hour)
		store := new(mockStore)
		store.On("LastActivity", ctx, "u1", KindIncome).Return(&last, nil)

		status, err := NewGate(store).Check(ctx, "u1", KindIncome, now, window)
		require.NoError(t, err)
		assert.True(t, status.Ready)
	})

	t.Run("ready exactly at window boundary", func(t *testing.T) {
		last := now.Add(-window)
		store := new(mockStore)
		store.On("LastActivity", ctx, "u1", KindWork).Return(&last, nil)

		status, err := NewGate(store).Check(ctx, "u1", KindWork, now, window)
		require.NoError(t, err)
		assert.True(t, status.Ready)
	})
}

func TestGateRecord(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	store := new(mockStore)
	store.On("SetLastActivity", ctx, "u1", KindWork, now).Return(nil)

	require.NoError(t, NewGate(store).Record(ctx, "u1", KindWork, now))
	store.AssertExpectations(t)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "work", KindWork.String())
	assert.Equal(t, "income", KindIncome.String())
}
