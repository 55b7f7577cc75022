package ui

import (
	"fmt"
	"strings"
	"time"

	"emiteNota/internal/batch"
)

// FormatStatus возвращает иконку, цвет и текст для результата записи
func FormatStatus(status batch.Status) (icon, color, text string) {
	switch status {
	case batch.StatusSucceeded:
		return IconCheckmark, ColorGreen, "emitida"
	case batch.StatusAmbiguous:
		return IconQuestion, ColorYellow, "без подтверждения"
	case batch.StatusFailed:
		return IconCross, ColorRed, "ошибка"
	default:
		return IconClock, ColorGray, "не обработана"
	}
}

// Checkbox рисует флажок строки обзора
func Checkbox(checked bool) string {
	if checked {
		return ColorGreen + "[x]" + ColorReset
	}
	return ColorGray + "[ ]" + ColorReset
}

// Money оставляет сумму как есть, только добавляет префикс
func Money(amount string) string {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return "-"
	}
	return "R$ " + amount
}

// Duration округляет до десятых секунды
func Duration(d time.Duration) string {
	return d.Round(100 * time.Millisecond).String()
}

// ClearScreen очищает терминал
func ClearScreen() {
	fmt.Print("\033[H\033[2J")
}
