// Package cooldown — repository.go выполняет операции с таблицей cooldowns.
// Одна широкая строка на пользователя: по колонке на вид активности.
// Строки создаются при первой активности и никогда не удаляются.
package cooldown

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository предоставляет методы для работы с таймерами активностей.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий кулдаунов.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Запросы фиксированы на этапе компиляции — по паре на вид активности.
const (
	selectWorkQuery   = `SELECT work_last_at FROM cooldowns WHERE user_id = $1`
	selectIncomeQuery = `SELECT income_last_at FROM cooldowns WHERE user_id = $1`

	upsertWorkQuery = `
		INSERT INTO cooldowns (user_id, work_last_at)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET work_last_at = $2
	`
	upsertIncomeQuery = `
		INSERT INTO cooldowns (user_id, income_last_at)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET income_last_at = $2
	`
)

// queriesFor возвращает пару запросов для вида активности.
func queriesFor(kind Kind) (selectQ, upsertQ string, err error) {
	switch kind {
	case KindWork:
		return selectWorkQuery, upsertWorkQuery, nil
	case KindIncome:
		return selectIncomeQuery, upsertIncomeQuery, nil
	default:
		return "", "", fmt.Errorf("неизвестный вид активности: %d", kind)
	}
}

// LastActivity возвращает время последней активности пользователя.
// nil, если пользователь ещё ни разу не выполнял эту активность.
func (r *Repository) LastActivity(ctx context.Context, userID string, kind Kind) (*time.Time, error) {
	selectQ, _, err := queriesFor(kind)
	if err != nil {
		return nil, err
	}

	var last *time.Time
	err = r.db.QueryRow(ctx, selectQ, userID).Scan(&last)
	if errors.Is(err, pgx.ErrNoRows) {
		// Строки ещё нет — активность никогда не выполнялась
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения кулдауна %s: %w", kind, err)
	}
	return last, nil
}

// SetLastActivity записывает время активности.
// Создаёт строку пользователя, если её ещё нет.
func (r *Repository) SetLastActivity(ctx context.Context, userID string, kind Kind, at time.Time) error {
	_, upsertQ, err := queriesFor(kind)
	if err != nil {
		return err
	}

	if _, err := r.db.Exec(ctx, upsertQ, userID, at); err != nil {
		return fmt.Errorf("ошибка записи кулдауна %s: %w", kind, err)
	}
	return nil
}
