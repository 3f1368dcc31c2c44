// Package shop — repository.go выполняет операции с таблицами shop_items,
// removed_shop_items и inventory. Снятие предмета с продажи — транзакция:
// копия в архив, пометка инвентаря и удаление живой строки происходят
// либо все вместе, либо никак.
package shop

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gringotts-bot/internal/common"
	"gringotts-bot/internal/db/postgres"
)

// Repository предоставляет методы для работы с каталогом и инвентарём.
type Repository struct {
	db    *pgxpool.Pool
	retry postgres.RetryPolicy
}

// NewRepository создаёт новый репозиторий магазина.
func NewRepository(db *pgxpool.Pool, retry postgres.RetryPolicy) *Repository {
	return &Repository{db: db, retry: retry}
}

const itemColumns = `id, name, price, category, COALESCE(description, ''), properties, required_role, added_by, added_at`

// GetItem возвращает предмет живого каталога.
// Если предмет не найден (или уже снят с продажи) — common.ErrItemUnavailable.
func (r *Repository) GetItem(ctx context.Context, itemID int64) (*Item, error) {
	query := `SELECT ` + itemColumns + ` FROM shop_items WHERE id = $1`
	return r.scanItem(r.db.QueryRow(ctx, query, itemID))
}

// GetItemForUpdateTx читает предмет с блокировкой строки внутри открытой
// транзакции. Используется покупкой, чтобы цена не поменялась и предмет
// не исчез между проверкой и списанием.
func (r *Repository) GetItemForUpdateTx(ctx context.Context, tx pgx.Tx, itemID int64) (*Item, error) {
	query := `SELECT ` + itemColumns + ` FROM shop_items WHERE id = $1 FOR UPDATE`
	return r.scanItem(tx.QueryRow(ctx, query, itemID))
}

func (r *Repository) scanItem(row pgx.Row) (*Item, error) {
	var it Item
	err := row.Scan(&it.ID, &it.Name, &it.Price, &it.Category, &it.Description,
		&it.Properties, &it.RequiredRole, &it.AddedBy, &it.AddedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrItemUnavailable
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения предмета: %w", err)
	}
	return &it, nil
}

// InsertItem добавляет предмет в живой каталог и возвращает его id.
// Проверка категорий и свойств — забота сервиса.
func (r *Repository) InsertItem(ctx context.Context, it *Item) (int64, error) {
	query := `
		INSERT INTO shop_items (name, price, category, description, properties, required_role, added_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	var id int64
	err := r.db.QueryRow(ctx, query,
		it.Name, it.Price, it.Category, it.Description, it.Properties, it.RequiredRole, it.AddedBy,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка добавления предмета: %w", err)
	}
	return id, nil
}

// RetireItem снимает предмет с продажи: копирует строку в removed_shop_items
// с сохранением id, помечает ссылающиеся записи инвентаря и удаляет живую
// строку. Всё — одна транзакция: при сбое на любом шаге живой предмет
// остаётся на месте и осиротевшей копии не появляется.
func (r *Repository) RetireItem(ctx context.Context, itemID int64) error {
	return postgres.RunSerializable(ctx, r.db, r.retry, func(tx pgx.Tx) error {
		it, err := r.GetItemForUpdateTx(ctx, tx, itemID)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO removed_shop_items (id, name, price, category, description, properties, added_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, it.ID, it.Name, it.Price, it.Category, it.Description, it.Properties, it.AddedBy)
		if err != nil {
			return fmt.Errorf("ошибка архивирования предмета: %w", err)
		}

		_, err = tx.Exec(ctx, `
			UPDATE inventory SET is_removed_item = TRUE
			WHERE item_id = $1 AND is_removed_item = FALSE
		`, itemID)
		if err != nil {
			return fmt.Errorf("ошибка пометки инвентаря: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM shop_items WHERE id = $1`, itemID); err != nil {
			return fmt.Errorf("ошибка удаления предмета из каталога: %w", err)
		}
		return nil
	})
}

// GrantItem выдаёт пользователю одну единицу предмета и возвращает id записи
// инвентаря. Категория денормализуется в запись на момент выдачи.
func (r *Repository) GrantItem(ctx context.Context, userID string, itemID int64, category string) (int64, error) {
	query := `
		INSERT INTO inventory (user_id, item_id, category)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	var id int64
	if err := r.db.QueryRow(ctx, query, userID, itemID, category).Scan(&id); err != nil {
		return 0, fmt.Errorf("ошибка выдачи предмета: %w", err)
	}
	return id, nil
}

// GrantItemTx — выдача предмета внутри открытой транзакции (шаг покупки).
func (r *Repository) GrantItemTx(ctx context.Context, tx pgx.Tx, userID string, itemID int64, category string) (int64, error) {
	query := `
		INSERT INTO inventory (user_id, item_id, category)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	var id int64
	if err := tx.QueryRow(ctx, query, userID, itemID, category).Scan(&id); err != nil {
		return 0, fmt.Errorf("ошибка выдачи предмета: %w", err)
	}
	return id, nil
}

// RemoveEntry удаляет одну запись инвентаря (операции «использовать»
// и «уничтожить»). Удаление несуществующей записи — ошибка, а не no-op.
func (r *Repository) RemoveEntry(ctx context.Context, entryID int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM inventory WHERE id = $1`, entryID)
	if err != nil {
		return fmt.Errorf("ошибка удаления записи инвентаря: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrInventoryEntryNotFound
	}
	return nil
}

// Запись инвентаря всегда разрешается ровно в один из двух источников:
// живой каталог либо архив — по флагу is_removed_item.
const ownedItemQuery = `
	SELECT i.id, i.user_id, i.item_id,
	       COALESCE(s.name, r.name) AS name,
	       i.category,
	       COALESCE(s.description, r.description, '') AS description,
	       COALESCE(s.properties, r.properties) AS properties,
	       i.is_removed_item,
	       i.obtained_at
	FROM inventory i
	LEFT JOIN shop_items s ON i.item_id = s.id AND i.is_removed_item = FALSE
	LEFT JOIN removed_shop_items r ON i.item_id = r.id AND i.is_removed_item = TRUE
`

// GetEntry возвращает одну разрешённую запись инвентаря.
func (r *Repository) GetEntry(ctx context.Context, entryID int64) (*OwnedItem, error) {
	var o OwnedItem
	err := r.db.QueryRow(ctx, ownedItemQuery+` WHERE i.id = $1`, entryID).Scan(
		&o.EntryID, &o.UserID, &o.ItemID, &o.Name, &o.Category,
		&o.Description, &o.Properties, &o.IsRemoved, &o.ObtainedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrInventoryEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения записи инвентаря: %w", err)
	}
	return &o, nil
}

// ListInventory возвращает инвентарь пользователя, сгруппированный
// по категориям. Снятые с продажи предметы разрешаются через архив.
func (r *Repository) ListInventory(ctx context.Context, userID string) ([]*OwnedItem, error) {
	rows, err := r.db.Query(ctx, ownedItemQuery+` WHERE i.user_id = $1 ORDER BY i.category, i.obtained_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения инвентаря: %w", err)
	}
	defer rows.Close()

	var items []*OwnedItem
	for rows.Next() {
		var o OwnedItem
		err := rows.Scan(&o.EntryID, &o.UserID, &o.ItemID, &o.Name, &o.Category,
			&o.Description, &o.Properties, &o.IsRemoved, &o.ObtainedAt)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования инвентаря: %w", err)
		}
		items = append(items, &o)
	}
	return items, rows.Err()
}

// ListCategories возвращает категории живого каталога с числом предметов.
func (r *Repository) ListCategories(ctx context.Context) ([]*CategoryCount, error) {
	query := `
		SELECT category, COUNT(*)
		FROM shop_items
		GROUP BY category
		ORDER BY category
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения категорий: %w", err)
	}
	defer rows.Close()

	var categories []*CategoryCount
	for rows.Next() {
		var c CategoryCount
		if err := rows.Scan(&c.Category, &c.Count); err != nil {
			return nil, fmt.Errorf("ошибка сканирования категории: %w", err)
		}
		categories = append(categories, &c)
	}
	return categories, rows.Err()
}

// ListItemsByCategory возвращает предметы живого каталога в категории.
func (r *Repository) ListItemsByCategory(ctx context.Context, category string) ([]*Item, error) {
	query := `SELECT ` + itemColumns + ` FROM shop_items WHERE category = $1 ORDER BY price, name`
	rows, err := r.db.Query(ctx, query, category)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения предметов категории: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		var it Item
		err := rows.Scan(&it.ID, &it.Name, &it.Price, &it.Category, &it.Description,
			&it.Properties, &it.RequiredRole, &it.AddedBy, &it.AddedAt)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования предмета: %w", err)
		}
		items = append(items, &it)
	}
	return items, rows.Err()
}
