// pagination.go — движок пагинации.
// Чистая арифметика страниц: offset из номера страницы, totalPages
// как ceil(total/limit). Страница за пределами диапазона — нормальное
// использование: пустые данные при корректных meta, без ошибки.
package service

import "github.com/bigkaa/gestion-module/internal/domain/model"

// PageParams — параметры страницы листинга.
// page >= 1, limit >= 1; проверка предусловий — обязанность вызывающего
// (Record Service), движок значения не исправляет.
type PageParams struct {
	// Page — номер страницы, начиная с 1
	Page int
	// Limit — количество записей на странице
	Limit int
}

// DefaultPageParams — значения по умолчанию: page=1, limit=10.
func DefaultPageParams() PageParams {
	return PageParams{Page: 1, Limit: 10}
}

// Offset возвращает количество пропускаемых записей: (page-1)*limit.
func (p PageParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// PageMeta — метаданные пагинации для ответа листинга.
type PageMeta struct {
	// Page — запрошенная страница
	Page int `json:"page"`
	// Limit — запрошенный лимит
	Limit int `json:"limit"`
	// Total — общее количество совпадений без учёта пагинации
	Total int `json:"total"`
	// TotalPages — ceil(total/limit); 0 при total = 0
	TotalPages int `json:"totalPages"`
}

// NewPageMeta вычисляет метаданные страницы из параметров и общего
// количества совпадений.
func NewPageMeta(p PageParams, total int) PageMeta {
	totalPages := 0
	if total > 0 {
		totalPages = (total + p.Limit - 1) / p.Limit
	}
	return PageMeta{
		Page:       p.Page,
		Limit:      p.Limit,
		Total:      total,
		TotalPages: totalPages,
	}
}

// Page — страница записей с метаданными.
type Page struct {
	// Data — записи текущей страницы
	Data []*model.Gestion
	// Meta — метаданные пагинации
	Meta PageMeta
}
