// Package common — format.go содержит форматирование баллов и чисел
// для сообщений бота.
package common

import "fmt"

// FormatNumber форматирует число с разделителями тысяч (точками, как принято во Вьетнаме).
// Пример: FormatNumber(2350) → "2.350"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%s.%03d", FormatNumber(n/1000), n%1000)
}

// FormatPoints возвращает строку вида "1.250 BP".
func FormatPoints(points int64) string {
	return FormatNumber(points) + " BP"
}

// FormatPointsDelta создаёт строку вида "+10 BP" или "-50 BP".
//
//	FormatPointsDelta(10)  → "+10 BP"
//	FormatPointsDelta(-50) → "-50 BP"
func FormatPointsDelta(delta int64) string {
	if delta >= 0 {
		return "+" + FormatPoints(delta)
	}
	return FormatPoints(delta)
}
