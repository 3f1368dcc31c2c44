// Package common — errors.go определяет пользовательские ошибки,
// которые используются во всех модулях банка.
// Эти ошибки позволяют слою интеракций различать типы проблем
// и отправлять пользователю понятные сообщения.
package common

import (
	"errors"
	"fmt"
	"time"
)

// Ошибки экономики (баланс, покупки)
var (
	// ErrInsufficientBalance — недостаточно кнатов на счёте
	ErrInsufficientBalance = errors.New("недостаточно средств на счёте")
	// ErrInvalidAmount — некорректная сумма (ноль или отрицательная)
	ErrInvalidAmount = errors.New("сумма должна быть положительной")
	// ErrAccountNotFound — счёт пользователя не найден.
	// Балансовые чтения трактуют отсутствие как ноль, но чтение профиля
	// различает пустой профиль и несуществующий счёт.
	ErrAccountNotFound = errors.New("счёт не найден")
	// ErrInvariantViolation — номиналы в строке счёта вышли за допустимые границы.
	// Такое состояние означает баг в предыдущей записи и никогда не «чинится» молча.
	ErrInvariantViolation = errors.New("нарушен инвариант номиналов счёта")
)

// Ошибки магазина и инвентаря
var (
	// ErrItemUnavailable — предмет не найден или снят с продажи
	ErrItemUnavailable = errors.New("предмет недоступен для покупки")
	// ErrInventoryEntryNotFound — запись инвентаря не найдена
	ErrInventoryEntryNotFound = errors.New("предмет не найден в инвентаре")
	// ErrReservedCategory — категория зарезервирована под экипировку,
	// для неё есть отдельные операции создания
	ErrReservedCategory = errors.New("категория зарезервирована под экипировку")
)

// Ошибки хранилища
var (
	// ErrStorageContention — конкурентный доступ к строкам БД не разрешился
	// за отведённое число повторов. Транзиентная ошибка, не бизнес-логика.
	ErrStorageContention = errors.New("хранилище перегружено, попробуйте позже")
)

// ErrCooldownActive — базовая ошибка кулдауна, используется с errors.Is.
var ErrCooldownActive = errors.New("кулдаун ещё не истёк")

// CooldownError сообщает, сколько осталось ждать до следующей активности.
type CooldownError struct {
	Activity  string        // какая активность заблокирована (work, income)
	Remaining time.Duration // сколько осталось ждать
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("кулдаун «%s»: осталось %s", e.Activity, FormatDuration(e.Remaining))
}

// Is позволяет проверять CooldownError через errors.Is(err, ErrCooldownActive).
func (e *CooldownError) Is(target error) bool {
	return target == ErrCooldownActive
}
