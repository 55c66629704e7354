// Package common содержит общие утилиты, используемые во всём проекте.
// Сюда входят: работа с границей суток, форматирование дат и сумм.
package common

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultLocation возвращает часовой пояс по имени.
// Суточный лимит голосования сбрасывается в полночь именно этого пояса,
// поэтому пояс фиксируется один раз при старте и передаётся явно.
// Если пояс не загрузился — используем UTC+3 вручную.
func DefaultLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		loc = time.FixedZone("MSK", 3*60*60)
	}
	return loc
}

// DayStart возвращает начало текущих суток в заданном поясе.
// Все запросы «сколько потрачено сегодня» отсчитываются от этого момента.
func DayStart(loc *time.Location) time.Time {
	t := time.Now().In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// DayStartAt — то же, что DayStart, но для произвольного момента.
// Нужно тестам и пересчёту лимитов задним числом.
func DayStartAt(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// FormatDateTime форматирует время в формат "02.01.2006 15:04".
// Используется для отображения дат транзакций.
func FormatDateTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("02.01.2006 15:04")
}

// FormatAmount печатает денежную сумму без хвостовых нулей.
// Балансы после обмена могут быть дробными (7.5 мерита), целые
// суммы печатаются как целые.
func FormatAmount(d decimal.Decimal) string {
	return d.String()
}

// FormatSigned печатает сумму со знаком: "+10" или "-5".
func FormatSigned(d decimal.Decimal, plus bool) string {
	if plus {
		return "+" + d.String()
	}
	return "-" + d.String()
}

// FormatCurrency печатает сумму с названием валюты пространства.
// Пример: FormatCurrency(decimal.NewFromInt(150), "пленки") → "150 пленки".
// Название валюты хранится в пространстве и не склоняется.
func FormatCurrency(d decimal.Decimal, currency string) string {
	return fmt.Sprintf("%s %s", d.String(), currency)
}
