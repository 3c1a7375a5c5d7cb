// Пакет model — доменные модели Gestion Module.
// Gestion — запись о взаимодействии с клиентом (case record)
// в операции по взысканию задолженности (BPO).
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status — статус гестии.
type Status string

const (
	// StatusOpen — гестия открыта (состояние по умолчанию).
	StatusOpen Status = "Open"
	// StatusClosed — гестия закрыта (терминальное состояние, soft delete).
	StatusClosed Status = "Closed"
)

// Category — типификация гестии (результат контакта с клиентом).
type Category string

// Допустимые значения Category.
const (
	CategoryContactMade    Category = "ContactMade"
	CategoryNoContact      Category = "NoContact"
	CategoryPaymentPromise Category = "PaymentPromise"
	CategoryPaymentMade    Category = "PaymentMade"
	CategoryRefinancing    Category = "Refinancing"
	CategoryInformation    Category = "Information"
	CategoryEscalation     Category = "Escalation"
	CategoryOther          Category = "Other"
)

// Categories — полный список допустимых типификаций.
var Categories = []Category{
	CategoryContactMade,
	CategoryNoContact,
	CategoryPaymentPromise,
	CategoryPaymentMade,
	CategoryRefinancing,
	CategoryInformation,
	CategoryEscalation,
	CategoryOther,
}

// ValidCategory проверяет принадлежность значения к списку типификаций.
func ValidCategory(c Category) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Gestion — запись таблицы gestiones.
// Опциональные поля — указатели, nil = значение отсутствует (NULL в БД).
type Gestion struct {
	// ID — идентификатор, присваивается БД при вставке, неизменяем
	ID int64
	// ClientDocument — документ клиента (обязательное)
	ClientDocument string
	// ClientName — имя клиента (обязательное)
	ClientName string
	// AdvisorID — идентификатор советника (обязательное)
	AdvisorID string
	// Category — типификация (обязательное, из фиксированного списка)
	Category Category
	// Subcategory — субтипификация (опционально)
	Subcategory *string
	// OfficialChannel — контакт по официальному каналу (по умолчанию true)
	OfficialChannel bool
	// CommittedAmount — сумма обещанного платежа, >= 0 (опционально)
	CommittedAmount *decimal.Decimal
	// CommittedDate — дата обещанного платежа, без времени (опционально)
	CommittedDate *time.Time
	// Notes — примечания, максимум 1000 символов (опционально)
	Notes *string
	// RecordingURL — URL записи звонка (опционально)
	RecordingURL *string
	// Status — статус (Open/Closed)
	Status Status
	// CreatedAt — время создания записи, неизменяемо
	CreatedAt time.Time
	// UpdatedAt — время последнего изменения, обновляется при каждой мутации
	UpdatedAt time.Time
}
