// Package ledger — repository.go выполняет все операции с таблицами users и transactions.
// Все денежные операции выполняются в транзакциях БД для целостности данных:
// обновление баланса и запись в журнал — единое целое.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"gringotts-bot/internal/common"
	"gringotts-bot/internal/currency"
	"gringotts-bot/internal/db/postgres"
)

// Repository предоставляет методы для работы со счетами и журналом транзакций.
type Repository struct {
	db    *pgxpool.Pool
	retry postgres.RetryPolicy
}

// NewRepository создаёт новый репозиторий леджера.
func NewRepository(db *pgxpool.Pool, retry postgres.RetryPolicy) *Repository {
	return &Repository{db: db, retry: retry}
}

// GetBalance возвращает текущий баланс пользователя в кнатах.
// Для несуществующего счёта возвращает 0.
func (r *Repository) GetBalance(ctx context.Context, userID string) (int64, error) {
	query := `SELECT galleons, sickles, knuts FROM users WHERE user_id = $1`

	var a currency.Amount
	err := r.db.QueryRow(ctx, query, userID).Scan(&a.Galleons, &a.Sickles, &a.Knuts)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("ошибка получения баланса: %w", err)
	}
	if !a.Valid() {
		log.WithFields(log.Fields{
			"user_id": userID, "galleons": a.Galleons, "sickles": a.Sickles, "knuts": a.Knuts,
		}).Error("Номиналы счёта вне допустимых границ")
		return 0, common.ErrInvariantViolation
	}
	return a.Total(), nil
}

// CanAfford проверяет, хватает ли пользователю средств на цену price.
func (r *Repository) CanAfford(ctx context.Context, userID string, price int64) (bool, error) {
	balance, err := r.GetBalance(ctx, userID)
	if err != nil {
		return false, err
	}
	return balance >= price, nil
}

// UpdateUsername обновляет кэш отображаемого имени.
// Создаёт счёт с нулевым балансом, если его ещё нет.
func (r *Repository) UpdateUsername(ctx context.Context, userID, username string) error {
	query := `
		INSERT INTO users (user_id, username)
		VALUES ($1, $2)
		ON CONFLICT (user_id)
		DO UPDATE SET username = EXCLUDED.username, updated_at = NOW()
	`
	if _, err := r.db.Exec(ctx, query, userID, username); err != nil {
		return fmt.Errorf("ошибка обновления имени: %w", err)
	}
	return nil
}

// AdjustBalance атомарно изменяет баланс пользователя на delta кнатов
// и пишет запись в журнал. Баланс ниже нуля схлопывается в ноль;
// в журнал попадает фактически применённая дельта, чтобы сумма журнала
// всегда сходилась с балансом.
//
// Параметры:
//   - userID: чей счёт
//   - delta: дельта в кнатах (отрицательная для списаний)
//   - username: свежее отображаемое имя ("" — не обновлять)
//   - txType: тип транзакции для журнала
//   - actorID: кто вызвал операцию
//   - details: описание для истории
//
// Возвращает новый баланс по номиналам и применённую дельту.
func (r *Repository) AdjustBalance(ctx context.Context, userID string, delta int64, username, txType, actorID, details string) (currency.Amount, int64, error) {
	var newAmount currency.Amount
	var applied int64

	err := postgres.RunSerializable(ctx, r.db, r.retry, func(tx pgx.Tx) error {
		var err error
		newAmount, applied, err = r.AdjustBalanceTx(ctx, tx, userID, delta, username, txType, actorID, details)
		return err
	})
	if err != nil {
		return currency.Amount{}, 0, err
	}
	return newAmount, applied, nil
}

// AdjustBalanceTx — то же, что AdjustBalance, но внутри уже открытой
// транзакции. Используется движком, когда изменение баланса — лишь один
// шаг составной операции (например, покупки).
func (r *Repository) AdjustBalanceTx(ctx context.Context, tx pgx.Tx, userID string, delta int64, username, txType, actorID, details string) (currency.Amount, int64, error) {
	total, err := r.LockBalanceTx(ctx, tx, userID, username)
	if err != nil {
		return currency.Amount{}, 0, err
	}

	newTotal := currency.Normalize(total + delta)
	newAmount := currency.Split(newTotal)
	applied := newTotal - total

	_, err = tx.Exec(ctx, `
		UPDATE users
		SET galleons = $2, sickles = $3, knuts = $4, updated_at = NOW()
		WHERE user_id = $1
	`, userID, newAmount.Galleons, newAmount.Sickles, newAmount.Knuts)
	if err != nil {
		return currency.Amount{}, 0, fmt.Errorf("ошибка записи баланса: %w", err)
	}

	if err := r.RecordTransactionTx(ctx, tx, userID, applied, txType, actorID, details); err != nil {
		return currency.Amount{}, 0, err
	}
	return newAmount, applied, nil
}

// LockBalanceTx создаёт счёт при необходимости, блокирует его строку
// (FOR UPDATE) до конца транзакции и возвращает баланс в кнатах.
// Пока транзакция не завершится, никакая другая операция не сможет
// вклиниться между чтением и записью этого счёта.
func (r *Repository) LockBalanceTx(ctx context.Context, tx pgx.Tx, userID, username string) (int64, error) {
	// Ленивое создание счёта; свежее имя обновляет кэш, пустое — нет
	_, err := tx.Exec(ctx, `
		INSERT INTO users (user_id, username)
		VALUES ($1, NULLIF($2, ''))
		ON CONFLICT (user_id)
		DO UPDATE SET username = COALESCE(NULLIF($2, ''), users.username), updated_at = NOW()
	`, userID, username)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания счёта: %w", err)
	}

	var a currency.Amount
	err = tx.QueryRow(ctx, `
		SELECT galleons, sickles, knuts FROM users WHERE user_id = $1 FOR UPDATE
	`, userID).Scan(&a.Galleons, &a.Sickles, &a.Knuts)
	if err != nil {
		return 0, fmt.Errorf("ошибка чтения баланса: %w", err)
	}
	if !a.Valid() {
		log.WithFields(log.Fields{
			"user_id": userID, "galleons": a.Galleons, "sickles": a.Sickles, "knuts": a.Knuts,
		}).Error("Номиналы счёта вне допустимых границ")
		return 0, common.ErrInvariantViolation
	}
	return a.Total(), nil
}

// GetProfile возвращает профильные поля счёта.
// Для несуществующего счёта — common.ErrAccountNotFound: пустой профиль
// и отсутствующий счёт для отображения различаются.
func (r *Repository) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	query := `
		SELECT user_id, COALESCE(username, ''), favorite_spells, pets, bio
		FROM users
		WHERE user_id = $1
	`
	var p Profile
	err := r.db.QueryRow(ctx, query, userID).Scan(&p.UserID, &p.Username, &p.FavoriteSpells, &p.Pets, &p.Bio)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения профиля: %w", err)
	}
	return &p, nil
}

// SetProfile записывает профильные поля счёта.
// Счёт создаётся лениво, как и при любой другой первой записи.
func (r *Repository) SetProfile(ctx context.Context, userID, favoriteSpells, pets, bio string) error {
	query := `
		INSERT INTO users (user_id, favorite_spells, pets, bio)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id)
		DO UPDATE SET favorite_spells = $2, pets = $3, bio = $4, updated_at = NOW()
	`
	if _, err := r.db.Exec(ctx, query, userID, favoriteSpells, pets, bio); err != nil {
		return fmt.Errorf("ошибка записи профиля: %w", err)
	}
	return nil
}

// RecordTransactionTx добавляет одну неизменяемую запись в журнал внутри
// уже открытой транзакции. Если вставка упадёт, откатится и изменение
// баланса из того же шага.
func (r *Repository) RecordTransactionTx(ctx context.Context, tx pgx.Tx, userID string, amount int64, txType, actorID, details string) error {
	query := `
		INSERT INTO transactions (user_id, amount, type, actor_id, details)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := tx.Exec(ctx, query, userID, amount, txType, actorID, details); err != nil {
		return fmt.Errorf("ошибка записи транзакции: %w", err)
	}
	return nil
}

// GetTransactions возвращает последние N транзакций пользователя, новые первыми.
func (r *Repository) GetTransactions(ctx context.Context, userID string, limit int) ([]*Transaction, error) {
	query := `
		SELECT id, user_id, amount, type, actor_id, details, created_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY id DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения транзакций: %w", err)
	}
	defer rows.Close()

	var transactions []*Transaction
	for rows.Next() {
		var t Transaction
		err := rows.Scan(&t.ID, &t.UserID, &t.Amount, &t.Type, &t.ActorID, &t.Details, &t.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования транзакции: %w", err)
		}
		transactions = append(transactions, &t)
	}
	return transactions, rows.Err()
}

// TopByWealth возвращает топ-N счетов по балансу в кнатах.
// Один запрос — один консистентный снимок.
func (r *Repository) TopByWealth(ctx context.Context, limit int) ([]*LeaderboardRow, error) {
	query := `
		SELECT user_id, COALESCE(username, ''), (galleons * $1 + sickles * $2 + knuts) AS total
		FROM users
		ORDER BY total DESC
		LIMIT $3
	`
	return r.queryLeaderboard(ctx, query, currency.KnutsPerGalleon, currency.KnutsPerSickle, limit)
}

// TopByTransactions возвращает топ-N пользователей по числу транзакций.
func (r *Repository) TopByTransactions(ctx context.Context, limit int) ([]*LeaderboardRow, error) {
	query := `
		SELECT u.user_id, COALESCE(u.username, ''), COUNT(*) AS total
		FROM transactions t
		JOIN users u ON u.user_id = t.user_id
		GROUP BY u.user_id, u.username
		ORDER BY total DESC
		LIMIT $1
	`
	return r.queryLeaderboard(ctx, query, limit)
}

// TopByIncome возвращает топ-N пользователей по сумме полученного дохода.
func (r *Repository) TopByIncome(ctx context.Context, limit int) ([]*LeaderboardRow, error) {
	query := `
		SELECT u.user_id, COALESCE(u.username, ''), SUM(t.amount) AS total
		FROM transactions t
		JOIN users u ON u.user_id = t.user_id
		WHERE t.type = $1
		GROUP BY u.user_id, u.username
		ORDER BY total DESC
		LIMIT $2
	`
	return r.queryLeaderboard(ctx, query, TxTypeIncome, limit)
}

// queryLeaderboard — общий сканер для запросов таблицы лидеров.
func (r *Repository) queryLeaderboard(ctx context.Context, query string, args ...any) ([]*LeaderboardRow, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса таблицы лидеров: %w", err)
	}
	defer rows.Close()

	var result []*LeaderboardRow
	for rows.Next() {
		var row LeaderboardRow
		if err := rows.Scan(&row.UserID, &row.Username, &row.Value); err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки лидеров: %w", err)
		}
		result = append(result, &row)
	}
	return result, rows.Err()
}

// FindInconsistentAccounts находит счета, чей баланс не равен сумме журнала.
// Используется ночным аудитом: расхождение — признак бага, а не повод чинить.
func (r *Repository) FindInconsistentAccounts(ctx context.Context) ([]*AuditRow, error) {
	query := `
		SELECT u.user_id, COALESCE(u.username, ''),
		       (u.galleons * $1 + u.sickles * $2 + u.knuts) AS balance,
		       COALESCE(SUM(t.amount), 0) AS logged
		FROM users u
		LEFT JOIN transactions t ON t.user_id = u.user_id
		GROUP BY u.user_id, u.username, u.galleons, u.sickles, u.knuts
		HAVING (u.galleons * $1 + u.sickles * $2 + u.knuts) <> COALESCE(SUM(t.amount), 0)
	`
	rows, err := r.db.Query(ctx, query, currency.KnutsPerGalleon, currency.KnutsPerSickle)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса аудита: %w", err)
	}
	defer rows.Close()

	var result []*AuditRow
	for rows.Next() {
		var row AuditRow
		if err := rows.Scan(&row.UserID, &row.Username, &row.Balance, &row.LoggedSum); err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки аудита: %w", err)
		}
		result = append(result, &row)
	}
	return result, rows.Err()
}
