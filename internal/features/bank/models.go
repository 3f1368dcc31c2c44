// Package bank — движок транзакций: координирует многошаговые операции
// (покупка, работа, доход, админские корректировки, снятие с продажи)
// поверх леджера, каталога и таймеров активностей.
// models.go описывает тарифы и результаты операций.
package bank

import (
	"gringotts-bot/internal/currency"
)

// WorkRate — тариф работы. Таблицы роль→тариф живут в слое интеракций:
// он выбирает лучший тариф пользователя и передаёт его сюда простым
// значением на каждый вызов. Движок о ролях не знает.
type WorkRate struct {
	Min  int64         // нижняя граница броска
	Max  int64         // верхняя граница броска (включительно)
	Unit currency.Unit // номинал, в котором задан тариф
}

// IncomeRate — тариф периодического дохода (фиксированная сумма).
type IncomeRate struct {
	Amount int64
	Unit   currency.Unit
}

// WorkResult — итог команды работы.
type WorkResult struct {
	Rolled     int64           // выпавшая сумма в единицах тарифа
	Unit       currency.Unit   // номинал тарифа
	Knuts      int64           // начислено в кнатах
	NewBalance currency.Amount // баланс после начисления
}

// IncomeResult — итог сбора дохода.
type IncomeResult struct {
	Knuts      int64
	NewBalance currency.Amount
}

// AdjustResult — итог административной корректировки.
// Applied может отличаться от Requested: списание ниже нуля схлопывается.
type AdjustResult struct {
	Requested  int64 // запрошенная дельта в кнатах
	Applied    int64 // фактически применённая дельта
	NewBalance currency.Amount
}

// PurchaseReceipt — итог покупки.
type PurchaseReceipt struct {
	EntryID    int64  // id выданной записи инвентаря
	ItemID     int64  // id купленного предмета
	ItemName   string
	Price      int64 // цена в кнатах, прочитанная из каталога в момент покупки
	NewBalance currency.Amount
}

// LeaderboardKind — вид таблицы лидеров.
type LeaderboardKind string

const (
	LeaderboardWealth       LeaderboardKind = "wealth"       // по балансу
	LeaderboardTransactions LeaderboardKind = "transactions" // по числу транзакций
	LeaderboardIncome       LeaderboardKind = "income"       // по сумме дохода
)
