// Package ledger управляет счетами пользователей и журналом транзакций.
// models.go описывает структуры таблиц users и transactions.
package ledger

import "time"

// Account представляет счёт пользователя.
// Баланс хранится разложенным по трём номиналам; поля номиналов никогда
// не «уплывают» независимо — их рекомбинация всегда равна нормализованной
// сумме в кнатах. Счёт создаётся лениво при первой записи и не удаляется.
type Account struct {
	ID        int64     `db:"id"`         // ID записи
	UserID    string    `db:"user_id"`    // Опаковый ID пользователя (принадлежит платформе)
	Username  string    `db:"username"`   // Кэш последнего увиденного отображаемого имени
	Galleons  int64     `db:"galleons"`   // Галлеоны (>= 0)
	Sickles   int64     `db:"sickles"`    // Сикли (0..16)
	Knuts     int64     `db:"knuts"`      // Кнаты (0..28)
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Transaction представляет одну запись журнала. Журнал append-only:
// записи неизменяемы, сумма amount по пользователю всегда равна его
// текущему балансу в кнатах (журнал — источник истины, баланс — витрина).
type Transaction struct {
	ID        int64     `db:"id"`         // ID транзакции (монотонный)
	UserID    string    `db:"user_id"`    // Чей счёт затронут
	Amount    int64     `db:"amount"`     // Дельта в кнатах (отрицательная для списаний)
	Type      string    `db:"type"`       // Тип: work, income, purchase, admin, ...
	ActorID   string    `db:"actor_id"`   // Кто вызвал операцию (админ может отличаться от владельца)
	Details   string    `db:"details"`    // Свободное текстовое описание
	CreatedAt time.Time `db:"created_at"` // Время записи (назначается сервером)
}

// Типы транзакций
const (
	TxTypeWork     = "work"     // Заработок за работу
	TxTypeIncome   = "income"   // Периодический доход
	TxTypePurchase = "purchase" // Покупка в магазине
	TxTypeAdmin    = "admin"    // Корректировка администратором
)

// Profile — профильные поля счёта, не связанные с балансом.
// Живут в той же строке users, что и номиналы: профиль — свойство счёта,
// а не отдельная сущность.
type Profile struct {
	UserID         string `db:"user_id"`
	Username       string `db:"username"`
	FavoriteSpells string `db:"favorite_spells"`
	Pets           string `db:"pets"`
	Bio            string `db:"bio"`
}

// LeaderboardRow — строка таблицы лидеров.
type LeaderboardRow struct {
	UserID   string
	Username string
	Value    int64 // кнаты либо число транзакций, в зависимости от запроса
}

// AuditRow — счёт, чей баланс разошёлся с суммой журнала.
// Появление такой строки означает баг: аудит её логирует, а не чинит.
type AuditRow struct {
	UserID    string
	Username  string
	Balance   int64 // баланс из строки счёта, в кнатах
	LoggedSum int64 // сумма amount по журналу
}
