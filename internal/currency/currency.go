// Package currency реализует трёхуровневую валюту банка:
// галлеоны, сикли и кнаты. Кнат — минимальная неделимая единица,
// все балансы и цены хранятся в кнатах.
//
// currency.go — чистые функции конвертации. Никакого состояния и БД.
package currency

// Курсы обмена волшебной валюты.
const (
	// SicklesPerGalleon — сиклей в одном галлеоне
	SicklesPerGalleon = 17
	// KnutsPerSickle — кнатов в одном сикле
	KnutsPerSickle = 29
	// KnutsPerGalleon — кнатов в одном галлеоне (17 * 29)
	KnutsPerGalleon = SicklesPerGalleon * KnutsPerSickle
)

// Amount — сумма, разложенная по номиналам.
// Инвариант: 0 <= Sickles < 17, 0 <= Knuts < 29, все поля неотрицательны.
type Amount struct {
	Galleons int64
	Sickles  int64
	Knuts    int64
}

// Split раскладывает сумму в кнатах по номиналам.
// Сначала выделяются галлеоны (div/mod 493), затем остаток
// делится на сикли и кнаты (div/mod 29).
// Отрицательные суммы нормализуются к нулю.
func Split(knuts int64) Amount {
	knuts = Normalize(knuts)
	rem := knuts % KnutsPerGalleon
	return Amount{
		Galleons: knuts / KnutsPerGalleon,
		Sickles:  rem / KnutsPerSickle,
		Knuts:    rem % KnutsPerSickle,
	}
}

// Total собирает сумму в кнатах обратно из номиналов.
// Обратна к Split для любого неотрицательного значения.
func (a Amount) Total() int64 {
	return a.Galleons*KnutsPerGalleon + a.Sickles*KnutsPerSickle + a.Knuts
}

// Valid проверяет, что номиналы лежат в допустимых границах.
// Выход за границы означает, что строка счёта повреждена.
func (a Amount) Valid() bool {
	return a.Galleons >= 0 &&
		a.Sickles >= 0 && a.Sickles < SicklesPerGalleon &&
		a.Knuts >= 0 && a.Knuts < KnutsPerSickle
}

// Normalize приводит сырое значение в кнатах к неотрицательному.
// Балансы никогда не уходят в минус — всё ниже нуля схлопывается в ноль.
func Normalize(knuts int64) int64 {
	if knuts < 0 {
		return 0
	}
	return knuts
}

// Unit — номинал, в котором слой интеракций задаёт суммы
// (ставки работы, доход, админские корректировки).
type Unit string

// Допустимые номиналы.
const (
	UnitGalleon Unit = "galleon"
	UnitSickle  Unit = "sickle"
	UnitKnut    Unit = "knut"
)

// InKnuts переводит n единиц номинала в кнаты.
// Неизвестный номинал трактуется как кнаты.
func (u Unit) InKnuts(n int64) int64 {
	switch u {
	case UnitGalleon:
		return n * KnutsPerGalleon
	case UnitSickle:
		return n * KnutsPerSickle
	default:
		return n
	}
}

// Name возвращает английское название номинала для отображения.
func (u Unit) Name() string {
	switch u {
	case UnitGalleon:
		return "Galleons"
	case UnitSickle:
		return "Sickles"
	default:
		return "Knuts"
	}
}
