// Package currency — format.go отвечает за человекочитаемое отображение сумм.
// Эмодзи номиналов приходят из конфигурации, поэтому форматтер — структура,
// а не набор глобальных функций.
package currency

import (
	"fmt"
	"strings"
)

// Formatter форматирует суммы с эмодзи номиналов.
type Formatter struct {
	GalleonEmoji string
	SickleEmoji  string
	KnutEmoji    string
}

// NewFormatter создаёт форматтер с заданными эмодзи.
func NewFormatter(galleon, sickle, knut string) *Formatter {
	return &Formatter{
		GalleonEmoji: galleon,
		SickleEmoji:  sickle,
		KnutEmoji:    knut,
	}
}

// Format возвращает развёрнутую строку суммы с полными названиями номиналов.
// Нулевые старшие номиналы опускаются; кнаты показываются, если сумма нулевая
// или кнаты — единственный ненулевой номинал.
//
// Примеры:
//
//	Format(1080) → "💰 **2** Galleons, 🥈 **3** Sickles, 🥉 **7** Knuts"
//	Format(0)    → "🥉 **0** Knuts"
func (f *Formatter) Format(knuts int64) string {
	if knuts <= 0 {
		return fmt.Sprintf("%s **0** Knuts", f.KnutEmoji)
	}

	a := Split(knuts)
	var parts []string
	if a.Galleons > 0 {
		parts = append(parts, fmt.Sprintf("%s **%d** Galleons", f.GalleonEmoji, a.Galleons))
	}
	if a.Sickles > 0 {
		parts = append(parts, fmt.Sprintf("%s **%d** Sickles", f.SickleEmoji, a.Sickles))
	}
	if a.Knuts > 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%s **%d** Knuts", f.KnutEmoji, a.Knuts))
	}
	return strings.Join(parts, ", ")
}

// FormatShort возвращает компактную строку суммы с однобуквенными суффиксами.
//
// Примеры:
//
//	FormatShort(1080) → "2G 3S 7K"
//	FormatShort(0)    → "0K"
func FormatShort(knuts int64) string {
	if knuts <= 0 {
		return "0K"
	}

	a := Split(knuts)
	var parts []string
	if a.Galleons > 0 {
		parts = append(parts, fmt.Sprintf("%dG", a.Galleons))
	}
	if a.Sickles > 0 {
		parts = append(parts, fmt.Sprintf("%dS", a.Sickles))
	}
	if a.Knuts > 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%dK", a.Knuts))
	}
	return strings.Join(parts, " ")
}
