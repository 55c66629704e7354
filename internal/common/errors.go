// Package common — errors.go определяет пользовательские ошибки,
// которые используются во всех модулях движка экономики.
// Обработчики сравнивают их через errors.Is и переводят
// в понятные пользователю сообщения; сам движок никогда
// не возвращает частичный успех.
package common

import "errors"

// Ошибки валидации
var (
	// ErrInvalidAmount — некорректная сумма (ноль, отрицательная или не целая)
	ErrInvalidAmount = errors.New("сумма должна быть положительной")
	// ErrInvalidTarget — цель операции не задана или задана дважды
	ErrInvalidTarget = errors.New("некорректная цель операции")
	// ErrTargetNotFound — публикация, транзакция или пространство не найдены
	ErrTargetNotFound = errors.New("цель операции не найдена")
	// ErrUserNotFound — пользователь не найден в базе
	ErrUserNotFound = errors.New("пользователь не найден")
)

// Ошибки голосования
var (
	// ErrSelfVote — попытка проголосовать за собственный контент
	ErrSelfVote = errors.New("нельзя голосовать за собственный контент")
	// ErrInsufficientFunds — лимита и кошелька вместе не хватает на голос
	ErrInsufficientFunds = errors.New("недостаточно средств для голоса")
	// ErrNestedTooDeep — голос за голос допускается только на один уровень
	ErrNestedTooDeep = errors.New("голосовать можно за публикацию или за голос по ней, глубже нельзя")
	// ErrPublicationPending — публикация ещё не прошла модерацию
	ErrPublicationPending = errors.New("публикация ещё не одобрена")
)

// Ошибки вывода и обмена
var (
	// ErrInsufficientBalance — вывод или обмен превышает доступный баланс
	ErrInsufficientBalance = errors.New("недостаточный баланс")
	// ErrNotAuthorized — вывод запросил не автор и не бенефициар
	ErrNotAuthorized = errors.New("операция доступна только автору")
	// ErrExchangeUnavailable — курс не определён (нет капитализации или обеспечения)
	ErrExchangeUnavailable = errors.New("обмен для этого пространства недоступен")
	// ErrConcurrencyConflict — конфликт параллельного обновления кошелька
	ErrConcurrencyConflict = errors.New("конфликт параллельного обновления")
)

// Ошибки модерации
var (
	// ErrNotAdmin — пользователь не является модератором
	ErrNotAdmin = errors.New("у вас нет прав модератора")
	// ErrWrongPassword — неверный пароль
	ErrWrongPassword = errors.New("неверный пароль")
	// ErrTooManyAttempts — слишком много неудачных попыток входа
	ErrTooManyAttempts = errors.New("слишком много попыток, подождите 1 час")
	// ErrSessionExpired — сессия истекла
	ErrSessionExpired = errors.New("сессия истекла, авторизуйтесь заново")
)
