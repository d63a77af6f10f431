// Package common — errors.go определяет доменные ошибки,
// которые используются во всех модулях бота.
// Операции движка никогда не паникуют: они возвращают неизменённый
// снимок профиля и одну из этих ошибок, а обработчики превращают её
// в понятное пользователю сообщение.
package common

import "errors"

// Ошибки экономики (баллы, магазин, пропуски)
var (
	// ErrInsufficientFunds — баллов меньше, чем стоимость операции
	ErrInsufficientFunds = errors.New("недостаточно баллов")
	// ErrInvalidAmount — некорректная сумма или количество минут (ноль или меньше)
	ErrInvalidAmount = errors.New("сумма должна быть положительной")
	// ErrNoPassesAvailable — нет пропусков вопроса в инвентаре
	ErrNoPassesAvailable = errors.New("нет доступных пропусков")
	// ErrUnknownItem — такого товара нет в магазине
	ErrUnknownItem = errors.New("неизвестный товар")
	// ErrAvatarNotOwned — аватар не куплен
	ErrAvatarNotOwned = errors.New("аватар не найден в инвентаре")
)

// Ошибки учёта времени
var (
	// ErrInvalidAppReference — приложение с таким id не отслеживается
	ErrInvalidAppReference = errors.New("приложение не найдено")
	// ErrInvalidLimit — лимит не может быть отрицательным
	ErrInvalidLimit = errors.New("лимит должен быть неотрицательным")
)

// Ошибки викторины
var (
	// ErrQuizNotActive — нет активного вопроса (или кнопка устарела)
	ErrQuizNotActive = errors.New("нет активного вопроса")
	// ErrQuizInProgress — есть вопрос без ответа (сменить можно только через пропуск)
	ErrQuizInProgress = errors.New("есть вопрос без ответа")
	// ErrQuizBusy — вопрос уже загружается
	ErrQuizBusy = errors.New("вопрос уже загружается")
	// ErrQuizNotAnswered — пояснение доступно только после ответа
	ErrQuizNotAnswered = errors.New("сначала ответьте на вопрос")
	// ErrInvalidOption — номер варианта вне диапазона
	ErrInvalidOption = errors.New("нет такого варианта ответа")
	// ErrExplanationLocked — пояснение ещё нельзя забрать
	ErrExplanationLocked = errors.New("пояснение ещё не прочитано")
	// ErrAlreadyClaimed — бонус за пояснение уже получен
	ErrAlreadyClaimed = errors.New("бонус за пояснение уже получен")
	// ErrRoundExpired — время раунда истекло
	ErrRoundExpired = errors.New("время раунда истекло")
	// ErrRoundFinished — раунд уже завершён
	ErrRoundFinished = errors.New("раунд уже завершён")
	// ErrEmptyText — прислан пустой текст для вопроса
	ErrEmptyText = errors.New("пустой текст")
	// ErrFeatureDisabled — режим отключён в настройках
	ErrFeatureDisabled = errors.New("режим временно отключён")
)

// Ошибки расписания и библиотеки
var (
	// ErrInvalidEvent — не удалось разобрать дату, время или название события
	ErrInvalidEvent = errors.New("некорректное событие")
	// ErrEventInPast — событие назначено на прошедшее время
	ErrEventInPast = errors.New("событие в прошлом")
	// ErrEventNotFound — нет события с таким номером
	ErrEventNotFound = errors.New("событие не найдено")
	// ErrDocumentNotFound — нет документа с таким номером
	ErrDocumentNotFound = errors.New("документ не найден")
	// ErrUnsupportedFile — из файла такого типа текст не извлекается
	ErrUnsupportedFile = errors.New("неподдерживаемый тип файла")
	// ErrFileTooLarge — файл больше допустимого размера
	ErrFileTooLarge = errors.New("файл слишком большой")
	// ErrLimitReached — у ученика уже максимум записей
	ErrLimitReached = errors.New("достигнут предел записей")
)

// Ошибки внешних провайдеров
var (
	// ErrProviderUnavailable — провайдер вопросов/отчётов упал или вернул мусор
	ErrProviderUnavailable = errors.New("провайдер недоступен")
)

// Ошибки родительского доступа
var (
	// ErrNotParent — пользователь не указан в PARENT_IDS
	ErrNotParent = errors.New("у вас нет родительского доступа")
	// ErrWrongPassword — неверный пароль
	ErrWrongPassword = errors.New("неверный пароль")
	// ErrTooManyAttempts — слишком много неудачных попыток входа
	ErrTooManyAttempts = errors.New("слишком много попыток, подождите 1 час")
	// ErrSessionExpired — сессия истекла
	ErrSessionExpired = errors.New("сессия истекла, авторизуйтесь заново")
	// ErrUserNotFound — пользователь не найден в базе
	ErrUserNotFound = errors.New("пользователь не найден")
)
