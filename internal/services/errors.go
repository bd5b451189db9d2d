package services

import (
	"fmt"
	"time"
)

// ValidationError — некорректный или нарушающий политику ввод.
// Возвращается вызывающей стороне синхронно и не ретраится.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ConflictKind — вид занятого ресурса в конфликте расписания.
type ConflictKind string

const (
	ConflictKindVehicle    ConflictKind = "VEHICLE"
	ConflictKindDriver     ConflictKind = "DRIVER"
	ConflictKindBlock      ConflictKind = "BLOCK"
	ConflictKindAssignment ConflictKind = "ASSIGNMENT"
)

// ConflictError — пересечение временных окон на общем ресурсе.
// Содержит вид конфликта и блокирующее окно для отображения пользователю.
type ConflictError struct {
	Kind    ConflictKind
	Message string
	Start   time.Time
	End     time.Time
}

func (e *ConflictError) Error() string {
	return e.Message
}

// StateError — операция над сущностью в терминальном или несовместимом
// состоянии (например, повторное закрытие закрытого периода аренды).
type StateError struct {
	Message string
}

func (e *StateError) Error() string {
	return e.Message
}

func NewStateError(format string, args ...interface{}) *StateError {
	return &StateError{Message: fmt.Sprintf(format, args...)}
}
