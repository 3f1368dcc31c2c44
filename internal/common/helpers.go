// Package common содержит общие утилиты, используемые во всём проекте.
// Сюда входят: форматирование времени и длительностей для логов и ответов.
package common

import (
	"fmt"
	"strings"
	"time"
)

// FormatDateTime форматирует время в формат "02.01.2006 15:04" (день.месяц.год часы:минуты).
// Вызывается слоем интеракций при рендеринге истории транзакций —
// внутри движка даты наружу не форматируются.
func FormatDateTime(t time.Time) string {
	return t.Format("02.01.2006 15:04")
}

// FormatDuration форматирует длительность в читабельную строку вида "2 д 3 ч 15 мин".
// Нулевые старшие части опускаются; для длительностей меньше минуты — "меньше минуты".
//
// Примеры:
//
//	FormatDuration(90 * time.Minute)     → "1 ч 30 мин"
//	FormatDuration(49 * time.Hour)       → "2 д 1 ч"
//	FormatDuration(30 * time.Second)     → "меньше минуты"
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return "меньше минуты"
	}

	days := int(d / (24 * time.Hour))
	hours := int(d % (24 * time.Hour) / time.Hour)
	minutes := int(d % time.Hour / time.Minute)

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%d д", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%d ч", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%d мин", minutes))
	}
	return strings.Join(parts, " ")
}
