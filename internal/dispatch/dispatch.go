// Package dispatch направляет типизированные команды и запросы ровно одному
// обработчику. Набор видов запросов закрыт, таблица обработчиков собирается
// при старте.
package dispatch

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tutoring_scheduler/internal/model"
)

// Kind вид запроса
type Kind string

// Request команда или запрос. Реализуется только типами этого пакета.
type Request interface {
	Kind() Kind
	isRequest()
}

// Handler обрабатывает запрос одного вида
type Handler func(ctx context.Context, req Request) (any, error)

// Middleware оборачивает обработчик
type Middleware func(next Handler) Handler

// Bus таблица обработчиков по видам запросов
type Bus struct {
	handlers   map[Kind]Handler
	middleware []Middleware
}

// NewBus middleware применяются в порядке перечисления: первый внешний
func NewBus(middleware ...Middleware) *Bus {
	return &Bus{
		handlers:   make(map[Kind]Handler),
		middleware: middleware,
	}
}

// Register регистрирует обработчик. Повторная регистрация вида это ошибка
// сборки приложения, поэтому паника.
func (b *Bus) Register(kind Kind, h Handler) {
	if _, exists := b.handlers[kind]; exists {
		panic(fmt.Sprintf("dispatch: handler for %q already registered", kind))
	}
	b.handlers[kind] = b.wrap(h)
}

// Registered зарегистрирован ли обработчик вида
func (b *Bus) Registered(kind Kind) bool {
	_, ok := b.handlers[kind]
	return ok
}

// Dispatch синхронно вызывает обработчик запроса
func (b *Bus) Dispatch(ctx context.Context, req Request) (any, error) {
	if req == nil {
		return nil, model.Validationf("request is required")
	}
	h, ok := b.handlers[req.Kind()]
	if !ok {
		h = b.wrap(notImplemented)
	}
	return h(ctx, req)
}

func (b *Bus) wrap(h Handler) Handler {
	for i := len(b.middleware) - 1; i >= 0; i-- {
		h = b.middleware[i](h)
	}
	return h
}

func notImplemented(_ context.Context, req Request) (any, error) {
	return nil, model.NotImplementedf("no handler registered for %s", req.Kind())
}

// Handle адаптирует типизированную функцию к Handler
func Handle[R Request, T any](fn func(ctx context.Context, req R) (T, error)) Handler {
	return func(ctx context.Context, req Request) (any, error) {
		typed, ok := req.(R)
		if !ok {
			return nil, fmt.Errorf("dispatch: unexpected request type %T for %s", req, req.Kind())
		}
		return fn(ctx, typed)
	}
}

// Execute вызывает Dispatch и приводит результат к T
func Execute[T any](ctx context.Context, b *Bus, req Request) (T, error) {
	var zero T
	out, err := b.Dispatch(ctx, req)
	if err != nil {
		return zero, err
	}
	if out == nil {
		return zero, nil
	}
	result, ok := out.(T)
	if !ok {
		return zero, fmt.Errorf("dispatch: %s returned %T, want %T", req.Kind(), out, zero)
	}
	return result, nil
}
