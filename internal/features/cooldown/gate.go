// Package cooldown — gate.go содержит логику проверки таймеров.
// Проверка ничего не записывает: движок фиксирует таймер отдельным
// вызовом Record и только после того, как сама операция удалась.
// Так неудачная попытка работы не сжигает кулдаун.
package cooldown

import (
	"context"
	"time"
)

// store — то, что гейту нужно от репозитория.
type store interface {
	LastActivity(ctx context.Context, userID string, kind Kind) (*time.Time, error)
	SetLastActivity(ctx context.Context, userID string, kind Kind, at time.Time) error
}

// Gate решает, истёк ли кулдаун активности.
type Gate struct {
	repo store
}

// NewGate создаёт гейт поверх репозитория кулдаунов.
func NewGate(repo store) *Gate {
	return &Gate{repo: repo}
}

// Check проверяет, можно ли выполнять активность.
// Только чтение: заблокированная проверка не трогает сохранённый таймер.
// Имеет значение единственное сравнение: now < last + window.
func (g *Gate) Check(ctx context.Context, userID string, kind Kind, now time.Time, window time.Duration) (Status, error) {
	last, err := g.repo.LastActivity(ctx, userID, kind)
	if err != nil {
		return Status{}, err
	}
	if last == nil {
		// Первая активность — всегда готов
		return Status{Ready: true}, nil
	}

	readyAt := last.Add(window)
	if now.Before(readyAt) {
		return Status{Ready: false, Remaining: readyAt.Sub(now)}, nil
	}
	return Status{Ready: true}, nil
}

// Record фиксирует момент выполнения активности.
// Вызывается движком после успешного завершения операции.
func (g *Gate) Record(ctx context.Context, userID string, kind Kind, now time.Time) error {
	return g.repo.SetLastActivity(ctx, userID, kind, now)
}
