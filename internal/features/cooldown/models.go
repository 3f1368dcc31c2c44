// Package cooldown отслеживает таймеры активностей: когда пользователь
// в последний раз работал или собирал доход.
// models.go описывает виды активностей и результат проверки таймера.
package cooldown

import "time"

// Kind — вид отслеживаемой активности.
// Закрытое перечисление: каждому виду соответствует своя колонка
// в широкой строке таблицы cooldowns. Никакой подстановки имён
// колонок в SQL по строкам — только диспетчеризация по enum.
type Kind int

const (
	// KindWork — команда работы (короткий кулдаун)
	KindWork Kind = iota
	// KindIncome — сбор дохода (длинный кулдаун)
	KindIncome
)

// String возвращает имя активности для логов и сообщений об ошибках.
func (k Kind) String() string {
	switch k {
	case KindWork:
		return "work"
	case KindIncome:
		return "income"
	default:
		return "unknown"
	}
}

// Status — результат проверки таймера.
type Status struct {
	Ready     bool          // можно ли выполнять активность
	Remaining time.Duration // сколько осталось ждать (0, если Ready)
}
