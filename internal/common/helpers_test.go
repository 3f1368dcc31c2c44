package common

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatDateTime(t *testing.T) {
	ts := time.Date(2026, 8, 30, 15, 4, 5, 0, time.UTC)
	assert.Equal(t, "30.08.2026 15:04", FormatDateTime(ts))
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Second, "меньше минуты"},
		{time.Minute, "1 мин"},
		{90 * time.Minute, "1 ч 30 мин"},
		{2 * time.Hour, "2 ч"},
		{49 * time.Hour, "2 д 1 ч"},
		{24*time.Hour + 5*time.Minute, "1 д 5 мин"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatDuration(tc.d), "для %s", tc.d)
	}
}

func TestCooldownError(t *testing.T) {
	err := &CooldownError{Activity: "work", Remaining: 40 * time.Minute}

	assert.ErrorIs(t, err, ErrCooldownActive)
	assert.Contains(t, err.Error(), "work")
	assert.Contains(t, err.Error(), "40 мин")

	// Обёрнутая ошибка тоже распознаётся
	wrapped := errors.Join(errors.New("context"), err)
	assert.ErrorIs(t, wrapped, ErrCooldownActive)

	var cdErr *CooldownError
	assert.True(t, errors.As(wrapped, &cdErr))
	assert.Equal(t, 40*time.Minute, cdErr.Remaining)
}
