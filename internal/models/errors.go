package models

import "errors"

// Ошибки ядра сервиса. Обработчики транслируют их в HTTP статусы
// на границе запроса, внутри ядра коды статусов не используются
var (
	// ErrUnauthorized неверные, отсутствующие или просроченные учетные данные
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidInput отсутствующее или нечисловое поле, некорректный горизонт
	ErrInvalidInput = errors.New("invalid input")
	// ErrInsufficientData недостаточно истории для построения прогноза
	ErrInsufficientData = errors.New("not enough data")
	// ErrInternal сбой хранилища или иная внутренняя ошибка
	ErrInternal = errors.New("internal error")
)
