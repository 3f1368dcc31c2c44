// Package shop управляет каталогом магазина и инвентарём пользователей.
// models.go описывает структуры таблиц shop_items, removed_shop_items
// и inventory, а также типизированные представления свойств экипировки.
package shop

import (
	"encoding/json"
	"fmt"
	"time"
)

// Зарезервированные категории экипировки. Обычный путь добавления предметов
// их не принимает — у каждой есть своя операция создания со своей схемой свойств.
const (
	CategoryWands       = "Wands"
	CategoryBrooms      = "Brooms"
	CategoryAccessories = "Accessories"
)

// IsReservedCategory сообщает, относится ли категория к экипировке.
func IsReservedCategory(category string) bool {
	return category == CategoryWands || category == CategoryBrooms || category == CategoryAccessories
}

// Item представляет предмет живого каталога.
type Item struct {
	ID           int64           `db:"id"`
	Name         string          `db:"name"`
	Price        int64           `db:"price"` // цена в кнатах, >= 0
	Category     string          `db:"category"`
	Description  string          `db:"description"`
	Properties   json.RawMessage `db:"properties"`    // открытая JSONB-схема, зависит от категории
	RequiredRole *string         `db:"required_role"` // опаковый токен, трактуется слоем интеракций
	AddedBy      string          `db:"added_by"`
	AddedAt      time.Time       `db:"added_at"`
}

// RemovedItem — снятый с продажи предмет. Полная копия строки живого
// каталога с исходным id: так записи инвентаря продолжают разрешаться
// после снятия, а новые покупки становятся невозможны.
type RemovedItem struct {
	ID          int64           `db:"id"`
	Name        string          `db:"name"`
	Price       int64           `db:"price"`
	Category    string          `db:"category"`
	Description string          `db:"description"`
	Properties  json.RawMessage `db:"properties"`
	AddedBy     string          `db:"added_by"`
	RemovedAt   time.Time       `db:"removed_at"`
}

// OwnedItem — запись инвентаря, разрешённая до предмета
// (живого или снятого с продажи). Одна запись — одна единица:
// три одинаковых аксессуара — три записи.
type OwnedItem struct {
	EntryID     int64           `db:"id"`
	UserID      string          `db:"user_id"`
	ItemID      int64           `db:"item_id"`
	Name        string          `db:"name"`
	Category    string          `db:"category"` // денормализован при выдаче — переживает снятие с продажи
	Description string          `db:"description"`
	Properties  json.RawMessage `db:"properties"`
	IsRemoved   bool            `db:"is_removed_item"` // предмет разрешается через removed_shop_items
	ObtainedAt  time.Time       `db:"obtained_at"`
}

// CategoryCount — категория каталога с числом предметов в ней.
type CategoryCount struct {
	Category string
	Count    int
}

// WandProperties — типизированное представление свойств волшебной палочки.
type WandProperties struct {
	Wood        string  `json:"wood"`
	Core        string  `json:"core"`
	Length      float64 `json:"length"`
	Flexibility string  `json:"flexibility"`
	Power       string  `json:"power"`
}

// BroomProperties — типизированное представление свойств метлы.
type BroomProperties struct {
	Wood    string  `json:"wood"`
	Bristle string  `json:"bristle"`
	Length  float64 `json:"length"`
	Speed   string  `json:"speed"`
}

// AccessoryProperties — типизированное представление свойств аксессуара.
type AccessoryProperties struct {
	Material    string `json:"material"`
	Type        string `json:"type"`
	Enchantment string `json:"enchantment"`
}

// DecodeProperties разбирает JSONB-свойства в типизированную структуру
// согласно категории. Для незарезервированных категорий возвращает nil:
// их свойства остаются открытой схемой.
func DecodeProperties(category string, raw json.RawMessage) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	switch category {
	case CategoryWands:
		var p WandProperties
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("ошибка разбора свойств палочки: %w", err)
		}
		return &p, nil
	case CategoryBrooms:
		var p BroomProperties
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("ошибка разбора свойств метлы: %w", err)
		}
		return &p, nil
	case CategoryAccessories:
		var p AccessoryProperties
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("ошибка разбора свойств аксессуара: %w", err)
		}
		return &p, nil
	default:
		return nil, nil
	}
}
