// validate.go — доменная валидация набора полей записи.
// Чистая функция без побочных эффектов: принимает набор полей-кандидатов
// и режим (Create/Update), возвращает нормализованный патч либо список
// нарушений по полям. Доменные инварианты проверяются здесь независимо
// от фронтальной валидации на транспортном слое — другие вызывающие
// могут её обходить.
package model

import (
	"fmt"
	"net/url"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// NotesMaxLen — максимальная длина примечаний в символах.
const NotesMaxLen = 1000

// Mode — режим валидации набора полей.
type Mode int

const (
	// ModeCreate — создание: clientDocument, clientName, advisorId
	// и category обязательны.
	ModeCreate Mode = iota
	// ModeUpdate — частичное обновление: все поля опциональны,
	// но переданные проверяются по тем же правилам.
	ModeUpdate
)

// Patch — набор полей-кандидатов для создания или изменения записи.
// nil — поле не передано (при обновлении — оставить без изменений).
type Patch struct {
	ClientDocument  *string
	ClientName      *string
	AdvisorID       *string
	Category        *string
	Subcategory     *string
	OfficialChannel *bool
	CommittedAmount *decimal.Decimal
	CommittedDate   *time.Time
	Notes           *string
	RecordingURL    *string
}

// FieldViolation — нарушение правила валидации для одного поля.
type FieldViolation struct {
	// Field — имя поля в wire-формате (clientDocument, category, ...)
	Field string `json:"field"`
	// Message — описание нарушения
	Message string `json:"message"`
}

// Validate проверяет патч в указанном режиме.
// Возвращает нормализованную копию патча (сумма округлена до 2 знаков,
// дата усечена до дня) либо непустой список нарушений.
func Validate(p *Patch, mode Mode) (*Patch, []FieldViolation) {
	var violations []FieldViolation

	// Обязательные поля режима Create
	if mode == ModeCreate {
		if p.ClientDocument == nil {
			violations = append(violations, FieldViolation{"clientDocument", "обязательное поле отсутствует"})
		}
		if p.ClientName == nil {
			violations = append(violations, FieldViolation{"clientName", "обязательное поле отсутствует"})
		}
		if p.AdvisorID == nil {
			violations = append(violations, FieldViolation{"advisorId", "обязательное поле отсутствует"})
		}
		if p.Category == nil {
			violations = append(violations, FieldViolation{"category", "обязательное поле отсутствует"})
		}
	}

	// Переданные поля проверяются в обоих режимах
	if p.ClientDocument != nil && *p.ClientDocument == "" {
		violations = append(violations, FieldViolation{"clientDocument", "значение не может быть пустым"})
	}
	if p.ClientName != nil && *p.ClientName == "" {
		violations = append(violations, FieldViolation{"clientName", "значение не может быть пустым"})
	}
	if p.AdvisorID != nil && *p.AdvisorID == "" {
		violations = append(violations, FieldViolation{"advisorId", "значение не может быть пустым"})
	}
	if p.Category != nil && !ValidCategory(Category(*p.Category)) {
		violations = append(violations, FieldViolation{
			Field:   "category",
			Message: fmt.Sprintf("недопустимая типификация %q", *p.Category),
		})
	}
	if p.CommittedAmount != nil && p.CommittedAmount.IsNegative() {
		violations = append(violations, FieldViolation{"committedAmount", "сумма не может быть отрицательной"})
	}
	if p.Notes != nil && utf8.RuneCountInString(*p.Notes) > NotesMaxLen {
		violations = append(violations, FieldViolation{
			Field:   "notes",
			Message: fmt.Sprintf("длина превышает %d символов", NotesMaxLen),
		})
	}
	if p.RecordingURL != nil && !validURI(*p.RecordingURL) {
		violations = append(violations, FieldViolation{"recordingUrl", "значение не является корректным URI"})
	}

	if len(violations) > 0 {
		return nil, violations
	}

	// Нормализация
	normalized := *p
	if p.CommittedAmount != nil {
		amount := p.CommittedAmount.Round(2)
		normalized.CommittedAmount = &amount
	}
	if p.CommittedDate != nil {
		day := p.CommittedDate.Truncate(24 * time.Hour)
		normalized.CommittedDate = &day
	}
	return &normalized, nil
}

// Apply переносит переданные поля патча в запись.
// Патч должен быть предварительно провалидирован. Поля id, status,
// createdAt и updatedAt патчем не затрагиваются.
func (p *Patch) Apply(g *Gestion) {
	if p.ClientDocument != nil {
		g.ClientDocument = *p.ClientDocument
	}
	if p.ClientName != nil {
		g.ClientName = *p.ClientName
	}
	if p.AdvisorID != nil {
		g.AdvisorID = *p.AdvisorID
	}
	if p.Category != nil {
		g.Category = Category(*p.Category)
	}
	if p.Subcategory != nil {
		g.Subcategory = p.Subcategory
	}
	if p.OfficialChannel != nil {
		g.OfficialChannel = *p.OfficialChannel
	}
	if p.CommittedAmount != nil {
		g.CommittedAmount = p.CommittedAmount
	}
	if p.CommittedDate != nil {
		g.CommittedDate = p.CommittedDate
	}
	if p.Notes != nil {
		g.Notes = p.Notes
	}
	if p.RecordingURL != nil {
		g.RecordingURL = p.RecordingURL
	}
}

// validURI проверяет, что значение — абсолютный URI со схемой и хостом.
func validURI(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}
