// filter.go — компилятор фильтров листинга.
// Превращает набор опциональных критериев в нормализованный предикат
// хранилища (repository.SearchParams). Компилятор не обращается к БД.
package service

import (
	"time"

	"github.com/bigkaa/gestion-module/internal/repository"
)

// FilterCriteria — критерии листинга записей.
// Все критерии опциональны и комбинируются через логическое И.
// IncludeClosed — явное имя неявного умолчания: закрытые записи
// листинг не возвращает, пока флаг не взведён (на текущем API
// он не взводится никогда; закрытые записи доступны по прямому id).
type FilterCriteria struct {
	// Q — подстрока в имени ИЛИ документе клиента
	Q *string
	// Category — точная типификация
	Category *string
	// AdvisorID — точный советник
	AdvisorID *string
	// From — нижняя граница created_at (включительно)
	From *time.Time
	// To — верхняя граница created_at (включительно)
	To *time.Time
	// IncludeClosed — включать закрытые записи (по умолчанию false)
	IncludeClosed bool
}

// Compile переводит критерии в предикат хранилища.
// Пустые строки эквивалентны отсутствию критерия.
func (c FilterCriteria) Compile() repository.SearchParams {
	params := repository.SearchParams{
		From:          c.From,
		To:            c.To,
		IncludeClosed: c.IncludeClosed,
	}
	if c.Q != nil && *c.Q != "" {
		params.Q = c.Q
	}
	if c.Category != nil && *c.Category != "" {
		params.Category = c.Category
	}
	if c.AdvisorID != nil && *c.AdvisorID != "" {
		params.AdvisorID = c.AdvisorID
	}
	return params
}
