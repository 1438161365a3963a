package utils

import (
	"math"
	"time"
)

// BeginningOfDay возвращает начало дня для t
func BeginningOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func BeginningOfYear(t time.Time) time.Time {
	return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
}

// ToCents переводит сумму в целые центы с округлением
func ToCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func FromCents(cents int64) float64 {
	return float64(cents) / 100
}

func RoundMoney(amount float64) float64 {
	return FromCents(ToCents(amount))
}
