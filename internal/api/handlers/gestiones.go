// gestiones.go — обработчики /gestiones endpoints.
// CRUD гестий: создание, список с фильтрами и пагинацией, получение,
// полное и частичное обновление, мягкое закрытие.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	apierrors "github.com/bigkaa/gestion-module/internal/api/errors"
	"github.com/bigkaa/gestion-module/internal/domain/model"
	"github.com/bigkaa/gestion-module/internal/service"
)

// dateOnly — дата без времени в теле запроса.
// Принимает "YYYY-MM-DD" или полный RFC3339.
type dateOnly struct {
	time.Time
}

// UnmarshalJSON разбирает дату из строки JSON.
func (d *dateOnly) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		return nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("некорректная дата %q: ожидается YYYY-MM-DD или RFC3339", s)
	}
	d.Time = t
	return nil
}

// gestionRequest — тело запроса создания/обновления гестии.
// Все поля необязательные на уровне JSON: обязательность проверяет
// сервисный слой в зависимости от режима (create/update).
type gestionRequest struct {
	ClientDocument  *string          `json:"clientDocument"`
	ClientName      *string          `json:"clientName"`
	AdvisorID       *string          `json:"advisorId"`
	Category        *string          `json:"category"`
	Subcategory     *string          `json:"subcategory"`
	OfficialChannel *bool            `json:"officialChannel"`
	CommittedAmount *decimal.Decimal `json:"committedAmount"`
	CommittedDate   *dateOnly        `json:"committedDate"`
	Notes           *string          `json:"notes"`
	RecordingURL    *string          `json:"recordingUrl"`
}

// toPatch конвертирует тело запроса в доменный Patch.
func (req *gestionRequest) toPatch() *model.Patch {
	p := &model.Patch{
		ClientDocument:  req.ClientDocument,
		ClientName:      req.ClientName,
		AdvisorID:       req.AdvisorID,
		Category:        req.Category,
		Subcategory:     req.Subcategory,
		OfficialChannel: req.OfficialChannel,
		CommittedAmount: req.CommittedAmount,
		Notes:           req.Notes,
		RecordingURL:    req.RecordingURL,
	}
	if req.CommittedDate != nil {
		t := req.CommittedDate.Time
		p.CommittedDate = &t
	}
	return p
}

// gestionResponse — представление гестии в API.
type gestionResponse struct {
	ID              int64   `json:"id"`
	ClientDocument  string  `json:"clientDocument"`
	ClientName      string  `json:"clientName"`
	AdvisorID       string  `json:"advisorId"`
	Category        string  `json:"category"`
	Subcategory     *string `json:"subcategory"`
	OfficialChannel bool    `json:"officialChannel"`
	CommittedAmount *string `json:"committedAmount"`
	CommittedDate   *string `json:"committedDate"`
	Notes           *string `json:"notes"`
	RecordingURL    *string `json:"recordingUrl"`
	Status          string  `json:"status"`
	CreatedAt       string  `json:"createdAt"`
	UpdatedAt       string  `json:"updatedAt"`
}

// listResponse — ответ списка гестий: данные + метаданные пагинации.
type listResponse struct {
	Data []gestionResponse `json:"data"`
	Meta service.PageMeta  `json:"meta"`
}

// messageResponse — ответ с одним текстовым сообщением.
type messageResponse struct {
	Message string `json:"message"`
}

// CreateGestion — POST /gestiones.
// Создаёт новую гестию. Возвращает 201 с созданной записью.
func (h *APIHandler) CreateGestion(w http.ResponseWriter, r *http.Request) {
	var req gestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error(), nil)
		return
	}

	g, err := h.gestiones.Create(r.Context(), req.toPatch())
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			apierrors.ValidationError(w, "Ошибка валидации", verr.Violations)
			return
		}
		h.logger.Error("Ошибка создания гестии", "error", err)
		apierrors.InternalError(w, "Ошибка создания записи")
		return
	}

	writeJSON(w, http.StatusCreated, mapGestion(g))
}

// ListGestiones — GET /gestiones.
// Возвращает страницу гестий с фильтрами. Параметры запроса:
// page, limit, q, tipificacion, asesorId, desde, hasta.
// Закрытые записи по умолчанию исключаются.
func (h *APIHandler) ListGestiones(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	page := service.DefaultPageParams()
	page.Page = intParam(query.Get("page"), page.Page)
	page.Limit = intParam(query.Get("limit"), page.Limit)

	criteria := service.FilterCriteria{
		Q:         strParam(query.Get("q")),
		Category:  strParam(query.Get("tipificacion")),
		AdvisorID: strParam(query.Get("asesorId")),
	}

	var perr error
	if criteria.From, perr = dateParam(query.Get("desde"), false); perr != nil {
		apierrors.ValidationError(w, "Некорректный параметр desde: "+perr.Error(), nil)
		return
	}
	if criteria.To, perr = dateParam(query.Get("hasta"), true); perr != nil {
		apierrors.ValidationError(w, "Некорректный параметр hasta: "+perr.Error(), nil)
		return
	}

	result, err := h.gestiones.List(r.Context(), criteria, page)
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			apierrors.ValidationError(w, "Ошибка валидации параметров", verr.Violations)
			return
		}
		h.logger.Error("Ошибка получения списка гестий", "error", err)
		apierrors.InternalError(w, "Ошибка получения списка записей")
		return
	}

	data := make([]gestionResponse, len(result.Data))
	for i, g := range result.Data {
		data[i] = mapGestion(g)
	}

	writeJSON(w, http.StatusOK, listResponse{Data: data, Meta: result.Meta})
}

// GetGestion — GET /gestiones/{id}.
// Возвращает гестию по ID, включая закрытые.
func (h *APIHandler) GetGestion(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	g, err := h.gestiones.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			apierrors.NotFound(w, "Запись не найдена")
			return
		}
		h.logger.Error("Ошибка получения гестии", "gestion_id", id, "error", err)
		apierrors.InternalError(w, "Ошибка получения записи")
		return
	}

	writeJSON(w, http.StatusOK, mapGestion(g))
}

// UpdateGestion — PUT /gestiones/{id}.
// Полное обновление: требования к полям те же, что и при создании.
func (h *APIHandler) UpdateGestion(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, h.gestiones.UpdateFull)
}

// PatchGestion — PATCH /gestiones/{id}.
// Частичное обновление: отсутствующие и null-поля не изменяются.
func (h *APIHandler) PatchGestion(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, h.gestiones.UpdatePartial)
}

// update — общая часть PUT и PATCH обработчиков.
func (h *APIHandler) update(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, id int64, patch *model.Patch) (*model.Gestion, error),
) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req gestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error(), nil)
		return
	}

	g, err := op(r.Context(), id, req.toPatch())
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			apierrors.ValidationError(w, "Ошибка валидации", verr.Violations)
			return
		}
		if errors.Is(err, service.ErrNotFound) {
			apierrors.NotFound(w, "Запись не найдена")
			return
		}
		h.logger.Error("Ошибка обновления гестии", "gestion_id", id, "error", err)
		apierrors.InternalError(w, "Ошибка обновления записи")
		return
	}

	writeJSON(w, http.StatusOK, mapGestion(g))
}

// DeleteGestion — DELETE /gestiones/{id}.
// Мягкое закрытие: запись не удаляется, статус переводится в Closed.
// Повторное закрытие — no-op, тоже 200.
func (h *APIHandler) DeleteGestion(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if _, err := h.gestiones.SoftClose(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			apierrors.NotFound(w, "Запись не найдена")
			return
		}
		h.logger.Error("Ошибка закрытия гестии", "gestion_id", id, "error", err)
		apierrors.InternalError(w, "Ошибка закрытия записи")
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Запись закрыта"})
}

// pathID извлекает и валидирует {id} из пути.
func (h *APIHandler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		apierrors.ValidationError(w, "Некорректный ID записи: "+raw, nil)
		return 0, false
	}
	return id, true
}

// --- Разбор параметров запроса ---

// intParam разбирает целочисленный параметр; при ошибке возвращает def.
func intParam(raw string, def int) int {
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// strParam возвращает указатель на непустую строку или nil.
func strParam(raw string) *string {
	if raw == "" {
		return nil
	}
	return &raw
}

// dateParam разбирает параметр даты "YYYY-MM-DD" или RFC3339.
// Для endOfDay дата без времени означает конец суток (включительная
// верхняя граница диапазона created_at).
func dateParam(raw string, endOfDay bool) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		if endOfDay {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("ожидается YYYY-MM-DD или RFC3339, получено %q", raw)
	}
	return &t, nil
}

// --- Маппинг domain → API ---

// mapGestion конвертирует доменную модель в API-представление.
func mapGestion(g *model.Gestion) gestionResponse {
	resp := gestionResponse{
		ID:              g.ID,
		ClientDocument:  g.ClientDocument,
		ClientName:      g.ClientName,
		AdvisorID:       g.AdvisorID,
		Category:        string(g.Category),
		Subcategory:     g.Subcategory,
		OfficialChannel: g.OfficialChannel,
		Notes:           g.Notes,
		RecordingURL:    g.RecordingURL,
		Status:          string(g.Status),
		CreatedAt:       g.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:       g.UpdatedAt.UTC().Format(time.RFC3339),
	}

	if g.CommittedAmount != nil {
		s := g.CommittedAmount.StringFixed(2)
		resp.CommittedAmount = &s
	}
	if g.CommittedDate != nil {
		s := g.CommittedDate.Format("2006-01-02")
		resp.CommittedDate = &s
	}

	return resp
}
