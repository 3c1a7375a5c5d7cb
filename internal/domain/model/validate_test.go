package model

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// strPtr возвращает указатель на строку.
func strPtr(s string) *string {
	return &s
}

// decPtr возвращает указатель на decimal из строки.
func decPtr(t *testing.T, s string) *decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("decimal.NewFromString(%q) ошибка: %v", s, err)
	}
	return &d
}

// validCreatePatch возвращает минимально корректный патч для создания.
func validCreatePatch() *Patch {
	return &Patch{
		ClientDocument: strPtr("12345678"),
		ClientName:     strPtr("Juan Perez"),
		AdvisorID:      strPtr("adv-001"),
		Category:       strPtr("ContactMade"),
	}
}

// hasViolation проверяет наличие нарушения для поля.
func hasViolation(violations []FieldViolation, field string) bool {
	for _, v := range violations {
		if v.Field == field {
			return true
		}
	}
	return false
}

func TestValidate_CreateValid(t *testing.T) {
	normalized, violations := Validate(validCreatePatch(), ModeCreate)
	if violations != nil {
		t.Fatalf("Validate() вернул нарушения: %v", violations)
	}
	if normalized == nil {
		t.Fatal("Validate() вернул nil патч без нарушений")
	}
}

func TestValidate_CreateMissingRequired(t *testing.T) {
	_, violations := Validate(&Patch{}, ModeCreate)
	if len(violations) != 4 {
		t.Fatalf("нарушений = %d, ожидалось 4 (все обязательные поля)", len(violations))
	}
	for _, field := range []string{"clientDocument", "clientName", "advisorId", "category"} {
		if !hasViolation(violations, field) {
			t.Errorf("нет нарушения для обязательного поля %q", field)
		}
	}
}

func TestValidate_UpdateMissingFieldsAllowed(t *testing.T) {
	// В режиме Update отсутствующие поля не являются нарушением
	_, violations := Validate(&Patch{}, ModeUpdate)
	if violations != nil {
		t.Errorf("Validate(ModeUpdate) вернул нарушения для пустого патча: %v", violations)
	}
}

func TestValidate_EmptyPresentField(t *testing.T) {
	// Переданное, но пустое поле — нарушение в обоих режимах
	p := &Patch{ClientName: strPtr("")}
	_, violations := Validate(p, ModeUpdate)
	if !hasViolation(violations, "clientName") {
		t.Error("пустой clientName не отклонён в режиме Update")
	}
}

func TestValidate_InvalidCategory(t *testing.T) {
	p := validCreatePatch()
	p.Category = strPtr("Llamada")
	_, violations := Validate(p, ModeCreate)
	if !hasViolation(violations, "category") {
		t.Error("недопустимая категория не отклонена")
	}
}

func TestValidate_AllCategoriesAccepted(t *testing.T) {
	for _, c := range Categories {
		p := validCreatePatch()
		p.Category = strPtr(string(c))
		if _, violations := Validate(p, ModeCreate); violations != nil {
			t.Errorf("категория %q отклонена: %v", c, violations)
		}
	}
}

func TestValidate_NegativeAmount(t *testing.T) {
	p := validCreatePatch()
	p.CommittedAmount = decPtr(t, "-10.50")
	_, violations := Validate(p, ModeCreate)
	if !hasViolation(violations, "committedAmount") {
		t.Error("отрицательная сумма не отклонена")
	}
}

func TestValidate_ZeroAmountAllowed(t *testing.T) {
	p := validCreatePatch()
	p.CommittedAmount = decPtr(t, "0")
	if _, violations := Validate(p, ModeCreate); violations != nil {
		t.Errorf("нулевая сумма отклонена: %v", violations)
	}
}

func TestValidate_AmountNormalization(t *testing.T) {
	p := validCreatePatch()
	p.CommittedAmount = decPtr(t, "100.555")
	normalized, violations := Validate(p, ModeCreate)
	if violations != nil {
		t.Fatalf("Validate() вернул нарушения: %v", violations)
	}
	if got := normalized.CommittedAmount.StringFixed(2); got != "100.56" {
		t.Errorf("сумма = %s, ожидалось 100.56 (округление до 2 знаков)", got)
	}
	// Исходный патч не изменён
	if got := p.CommittedAmount.String(); got != "100.555" {
		t.Errorf("исходный патч изменён: %s", got)
	}
}

func TestValidate_DateTruncatedToDay(t *testing.T) {
	p := validCreatePatch()
	d := time.Date(2026, 3, 15, 14, 30, 45, 0, time.UTC)
	p.CommittedDate = &d
	normalized, violations := Validate(p, ModeCreate)
	if violations != nil {
		t.Fatalf("Validate() вернул нарушения: %v", violations)
	}
	want := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	if !normalized.CommittedDate.Equal(want) {
		t.Errorf("дата = %v, ожидалось %v (усечение до дня)", normalized.CommittedDate, want)
	}
}

func TestValidate_NotesTooLong(t *testing.T) {
	p := validCreatePatch()
	p.Notes = strPtr(strings.Repeat("д", NotesMaxLen+1))
	_, violations := Validate(p, ModeCreate)
	if !hasViolation(violations, "notes") {
		t.Error("примечания длиннее лимита не отклонены")
	}
}

func TestValidate_NotesRuneCount(t *testing.T) {
	// Длина в символах, не в байтах: NotesMaxLen кириллических символов
	// занимают 2*NotesMaxLen байт, но проходят валидацию.
	p := validCreatePatch()
	p.Notes = strPtr(strings.Repeat("д", NotesMaxLen))
	if _, violations := Validate(p, ModeCreate); violations != nil {
		t.Errorf("примечания ровно в %d символов отклонены: %v", NotesMaxLen, violations)
	}
}

func TestValidate_RecordingURL(t *testing.T) {
	tests := []struct {
		name  string
		url   string
		valid bool
	}{
		{"https URL", "https://recordings.example.com/call-42.mp3", true},
		{"http URL", "http://internal/rec/1", true},
		{"относительный путь", "/recordings/call.mp3", false},
		{"произвольная строка", "не URL", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validCreatePatch()
			p.RecordingURL = strPtr(tt.url)
			_, violations := Validate(p, ModeCreate)
			got := !hasViolation(violations, "recordingUrl")
			if got != tt.valid {
				t.Errorf("validURI(%q): valid = %v, ожидалось %v", tt.url, got, tt.valid)
			}
		})
	}
}

func TestPatch_Apply(t *testing.T) {
	g := &Gestion{
		ID:              42,
		ClientDocument:  "11111111",
		ClientName:      "Старое имя",
		AdvisorID:       "adv-001",
		Category:        CategoryNoContact,
		OfficialChannel: true,
		Status:          StatusOpen,
	}

	p := &Patch{
		ClientName: strPtr("Новое имя"),
		Category:   strPtr("PaymentPromise"),
		Notes:      strPtr("перезвонить в пятницу"),
	}
	p.Apply(g)

	if g.ClientName != "Новое имя" {
		t.Errorf("ClientName = %q, поле патча не применено", g.ClientName)
	}
	if g.Category != CategoryPaymentPromise {
		t.Errorf("Category = %q, поле патча не применено", g.Category)
	}
	if g.Notes == nil || *g.Notes != "перезвонить в пятницу" {
		t.Error("Notes не применены")
	}
	// Непереданные поля не тронуты
	if g.ClientDocument != "11111111" {
		t.Errorf("ClientDocument = %q, изменено непереданное поле", g.ClientDocument)
	}
	if g.ID != 42 || g.Status != StatusOpen {
		t.Error("Apply изменил id или status")
	}
}
