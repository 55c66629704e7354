// Package common — pluralize.go содержит функции правильного
// склонения русских числительных для сообщений бота.
package common

// PluralizeMerits возвращает правильную форму слова «мерит» для числа n.
//
// Правила русского языка:
//   - n%10==1 И n%100!=11 → "мерит" (1, 21, 31, 101, ...)
//   - n%10 в [2,3,4] И n%100 НЕ в [12,13,14] → "мерита" (2, 3, 4, 22, ...)
//   - Остальные случаи → "меритов" (0, 5-20, 25-30, 100, ...)
func PluralizeMerits(n int64) string {
	return pluralize(n, "мерит", "мерита", "меритов")
}

// PluralizeVotes возвращает правильную форму слова «голос».
func PluralizeVotes(n int64) string {
	return pluralize(n, "голос", "голоса", "голосов")
}

// PluralizeDays возвращает правильную форму слова «день».
func PluralizeDays(n int64) string {
	return pluralize(n, "день", "дня", "дней")
}

// pluralize выбирает форму слова для числа n по общим правилам.
func pluralize(n int64, one, few, many string) string {
	if n < 0 {
		n = -n
	}
	lastDigit := n % 10
	lastTwoDigits := n % 100

	// Единственное число: 1, 21, 31 (но НЕ 11, 111)
	if lastDigit == 1 && lastTwoDigits != 11 {
		return one
	}

	// Малое множественное: 2-4, 22-24 (но НЕ 12-14)
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 12 || lastTwoDigits > 14) {
		return few
	}

	return many
}
