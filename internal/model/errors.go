package model

import (
	"errors"
	"fmt"
)

// ErrorCode классифицирует ошибки ядра расписания
type ErrorCode string

const (
	CodeValidation     ErrorCode = "VALIDATION"
	CodeConflict       ErrorCode = "CONFLICT"
	CodeNotFound       ErrorCode = "NOT_FOUND"
	CodeInvalidState   ErrorCode = "INVALID_STATE"
	CodeNotImplemented ErrorCode = "NOT_IMPLEMENTED"
)

// Error типизированная ошибка, которую сервисы возвращают вызывающему
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

// Is сравнивает ошибки по коду, чтобы errors.Is(err, ErrConflict) работал
// для любого сообщения
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Базовые значения для errors.Is
var (
	ErrValidation     = &Error{Code: CodeValidation, Message: "validation failed"}
	ErrConflict       = &Error{Code: CodeConflict, Message: "conflict"}
	ErrNotFound       = &Error{Code: CodeNotFound, Message: "not found"}
	ErrInvalidState   = &Error{Code: CodeInvalidState, Message: "invalid state"}
	ErrNotImplemented = &Error{Code: CodeNotImplemented, Message: "not implemented"}
)

func Validationf(format string, args ...any) error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...any) error {
	return &Error{Code: CodeConflict, Message: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

func InvalidStatef(format string, args ...any) error {
	return &Error{Code: CodeInvalidState, Message: fmt.Sprintf(format, args...)}
}

func NotImplementedf(format string, args ...any) error {
	return &Error{Code: CodeNotImplemented, Message: fmt.Sprintf(format, args...)}
}

// CodeOf возвращает код ошибки или пустую строку для нетипизированных ошибок
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
