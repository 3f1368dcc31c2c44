// Package bank — repository.go выполняет покупку как единую транзакцию БД.
// Предмет, счёт, инвентарь и журнал меняются либо все вместе, либо никак:
// две конкурентные покупки одного пользователя не могут обе пройти по
// балансу, которого хватает лишь на одну.
package bank

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gringotts-bot/internal/common"
	"gringotts-bot/internal/db/postgres"
	"gringotts-bot/internal/features/ledger"
	"gringotts-bot/internal/features/shop"
)

// Repository выполняет составные операции движка, которым нужна
// одна общая транзакция поверх таблиц леджера и каталога.
type Repository struct {
	db     *pgxpool.Pool
	ledger *ledger.Repository
	shop   *shop.Repository
	retry  postgres.RetryPolicy
}

// NewRepository создаёт репозиторий составных операций.
func NewRepository(db *pgxpool.Pool, ledgerRepo *ledger.Repository, shopRepo *shop.Repository, retry postgres.RetryPolicy) *Repository {
	return &Repository{db: db, ledger: ledgerRepo, shop: shopRepo, retry: retry}
}

// Purchase покупает предмет: в одной сериализуемой транзакции
//  1. разрешает живой предмет с блокировкой строки — цена берётся отсюда,
//     а не из котировки вызывающего (закрывает гонку «цена поменялась
//     между показом и подтверждением»);
//  2. блокирует счёт и перепроверяет платёжеспособность;
//  3. списывает цену, выдаёт запись инвентаря и пишет журнал.
//
// Любой сбой откатывает всё: баланс остаётся ровно таким, каким был.
func (r *Repository) Purchase(ctx context.Context, userID, username string, itemID int64) (*PurchaseReceipt, error) {
	var receipt *PurchaseReceipt

	err := postgres.RunSerializable(ctx, r.db, r.retry, func(tx pgx.Tx) error {
		// Порядок блокировок фиксированный: сначала предмет, потом счёт
		it, err := r.shop.GetItemForUpdateTx(ctx, tx, itemID)
		if err != nil {
			return err
		}

		total, err := r.ledger.LockBalanceTx(ctx, tx, userID, username)
		if err != nil {
			return err
		}
		if total < it.Price {
			return common.ErrInsufficientBalance
		}

		newBalance, _, err := r.ledger.AdjustBalanceTx(ctx, tx, userID, -it.Price, username,
			ledger.TxTypePurchase, userID, fmt.Sprintf("Покупка «%s»", it.Name))
		if err != nil {
			return err
		}

		entryID, err := r.shop.GrantItemTx(ctx, tx, userID, it.ID, it.Category)
		if err != nil {
			return err
		}

		receipt = &PurchaseReceipt{
			EntryID:    entryID,
			ItemID:     it.ID,
			ItemName:   it.Name,
			Price:      it.Price,
			NewBalance: newBalance,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}
