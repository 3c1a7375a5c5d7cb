// errors.go — ошибки бизнес-логики сервисного слоя.
package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bigkaa/gestion-module/internal/domain/model"
)

var (
	// ErrNotFound — запись не найдена. Нормальный исход для операций
	// по несуществующему id, а не исключительная ситуация.
	ErrNotFound = errors.New("запись не найдена")
)

// ValidationError — ошибка доменной валидации с разбивкой по полям.
// Не повторяется автоматически: вызывающий исправляет входные данные.
type ValidationError struct {
	// Violations — нарушения по отдельным полям
	Violations []model.FieldViolation
}

// Error возвращает перечень полей с нарушениями.
func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		fields = append(fields, v.Field)
	}
	return fmt.Sprintf("ошибка валидации полей: %s", strings.Join(fields, ", "))
}
