// Package postgres — tx.go выполняет многошаговые операции в сериализуемых
// транзакциях с ограниченным числом повторов.
//
// Повторяются только транзиентные конфликты (SQLSTATE 40001/40P01):
// логические отказы вроде нехватки средств выходят наружу сразу.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"gringotts-bot/internal/common"
)

// RetryPolicy задаёт число повторов и паузу между ними
// для транзиентных конфликтов хранилища.
type RetryPolicy struct {
	MaxRetries int
	Backoff    time.Duration
}

// RunSerializable выполняет fn внутри транзакции с уровнем SERIALIZABLE.
// При конфликте сериализации транзакция откатывается и повторяется
// до policy.MaxRetries раз с фиксированной паузой policy.Backoff.
// После исчерпания повторов возвращается common.ErrStorageContention.
//
// Начатая фиксация всегда доводится до коммита или отката —
// отмены «посередине» не бывает.
func RunSerializable(ctx context.Context, pool *pgxpool.Pool, policy RetryPolicy, fn func(tx pgx.Tx) error) error {
	var lastErr error
	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		if attempt > 0 {
			log.WithField("attempt", attempt).Debug("Повтор транзакции после конфликта сериализации")
			time.Sleep(policy.Backoff)
		}

		err := runOnce(ctx, pool, fn)
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("%w: %s", common.ErrStorageContention, lastErr)
}

// runOnce — одна попытка: begin, fn, commit (или rollback через defer).
func runOnce(ctx context.Context, pool *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// isRetryable распознаёт транзиентные конфликты PostgreSQL:
// 40001 — serialization_failure, 40P01 — deadlock_detected.
func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}
