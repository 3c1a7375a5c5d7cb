// gestion.go — сервис жизненного цикла записей гестий.
// Оркестрирует доменную валидацию, движок жизненного цикла,
// компилятор фильтров и пагинацию поверх хранилища (repository).
// Каждая мутация затрагивает ровно одну запись; атомарность
// read-modify-write обеспечивает хранилище (построчная атомарность).
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/gestion-module/internal/domain/model"
	"github.com/bigkaa/gestion-module/internal/repository"
)

// Prometheus-метрики операций с записями.
var (
	gestionesCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gm_gestiones_created_total",
		Help: "Общее количество созданных записей.",
	})
	gestionesClosedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gm_gestiones_closed_total",
		Help: "Общее количество закрытых записей (soft delete).",
	})
	listTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gm_list_total",
		Help: "Общее количество запросов листинга.",
	})
	listDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gm_list_duration_seconds",
		Help:    "Длительность запросов листинга.",
		Buckets: prometheus.DefBuckets,
	})
)

// GestionService — сервис записей гестий.
type GestionService struct {
	repo   repository.GestionRepository
	cache  *CacheService
	logger *slog.Logger
}

// NewGestionService создаёт сервис записей.
func NewGestionService(
	repo repository.GestionRepository,
	cache *CacheService,
	logger *slog.Logger,
) *GestionService {
	return &GestionService{
		repo:   repo,
		cache:  cache,
		logger: logger.With(slog.String("component", "gestion_service")),
	}
}

// Create создаёт запись из набора полей.
// Валидация в режиме Create: clientDocument, clientName, advisorId
// и category обязательны. id, createdAt и updatedAt присваивает
// хранилище; статус новой записи — всегда Open.
func (s *GestionService) Create(ctx context.Context, patch *model.Patch) (*model.Gestion, error) {
	normalized, violations := model.Validate(patch, model.ModeCreate)
	if violations != nil {
		return nil, &ValidationError{Violations: violations}
	}

	g := &model.Gestion{
		OfficialChannel: true,
		Status:          model.StatusOpen,
	}
	normalized.Apply(g)

	if err := s.repo.Insert(ctx, g); err != nil {
		return nil, fmt.Errorf("создание записи: %w", err)
	}

	gestionesCreatedTotal.Inc()
	s.cache.Set(g.ID, g)

	s.logger.Info("Запись создана",
		slog.Int64("id", g.ID),
		slog.String("advisor_id", g.AdvisorID),
		slog.String("category", string(g.Category)),
	)

	return g, nil
}

// Get возвращает запись по id.
// Сначала проверяет LRU-кэш, при промахе — запрос к PostgreSQL,
// результат кэшируется. Отсутствие записи — ErrNotFound, не сбой.
func (s *GestionService) Get(ctx context.Context, id int64) (*model.Gestion, error) {
	if g, ok := s.cache.Get(id); ok {
		s.logger.Debug("Кэш hit для записи", slog.Int64("id", id))
		return g, nil
	}

	g, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("получение записи: %w", err)
	}

	s.cache.Set(id, g)
	return g, nil
}

// UpdateFull полностью заменяет изменяемые поля записи.
// По контракту замены все обязательные поля должны присутствовать
// в payload — валидация в режиме Create.
func (s *GestionService) UpdateFull(ctx context.Context, id int64, patch *model.Patch) (*model.Gestion, error) {
	return s.update(ctx, id, patch, model.ModeCreate)
}

// UpdatePartial сливает переданные поля в существующую запись.
// Валидация в режиме Update: проверяются только переданные поля.
func (s *GestionService) UpdatePartial(ctx context.Context, id int64, patch *model.Patch) (*model.Gestion, error) {
	return s.update(ctx, id, patch, model.ModeUpdate)
}

// update — единый путь слияния для полного и частичного обновления,
// параметризованный режимом валидации (набором обязательных полей).
// Обновление не ограничено статусом: поля закрытой записи остаются
// редактируемыми, но сам статус через обновление не меняется.
func (s *GestionService) update(ctx context.Context, id int64, patch *model.Patch, mode model.Mode) (*model.Gestion, error) {
	normalized, violations := model.Validate(patch, mode)
	if violations != nil {
		return nil, &ValidationError{Violations: violations}
	}

	g, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("получение записи для обновления: %w", err)
	}

	normalized.Apply(g)

	if err := s.repo.Save(ctx, g); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("обновление записи: %w", err)
	}

	s.cache.Set(id, g)

	s.logger.Info("Запись обновлена", slog.Int64("id", id))
	return g, nil
}

// SoftClose переводит запись в терминальное состояние Closed.
// Идемпотентна: повторное закрытие — no-op, возвращающий текущее
// состояние без ошибки и без обновления updatedAt.
func (s *GestionService) SoftClose(ctx context.Context, id int64) (*model.Gestion, error) {
	g, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("получение записи для закрытия: %w", err)
	}

	if !g.Close() {
		s.logger.Debug("Запись уже закрыта", slog.Int64("id", id))
		return g, nil
	}

	if err := s.repo.Save(ctx, g); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("закрытие записи: %w", err)
	}

	gestionesClosedTotal.Inc()
	s.cache.Set(id, g)

	s.logger.Info("Запись закрыта", slog.Int64("id", id))
	return g, nil
}

// List возвращает страницу записей по критериям фильтрации.
// page и limit должны быть >= 1 — нарушение предусловия отклоняется
// как ValidationError, движок пагинации значения не исправляет.
// Страница за пределами totalPages — нормальный исход: пустые данные
// при корректных meta.
func (s *GestionService) List(ctx context.Context, criteria FilterCriteria, page PageParams) (*Page, error) {
	var violations []model.FieldViolation
	if page.Page < 1 {
		violations = append(violations, model.FieldViolation{Field: "page", Message: "значение должно быть >= 1"})
	}
	if page.Limit < 1 {
		violations = append(violations, model.FieldViolation{Field: "limit", Message: "значение должно быть >= 1"})
	}
	if violations != nil {
		return nil, &ValidationError{Violations: violations}
	}

	start := time.Now()
	listTotal.Inc()

	rows, total, err := s.repo.FindMatching(ctx, criteria.Compile(), page.Limit, page.Offset())
	if err != nil {
		return nil, fmt.Errorf("листинг записей: %w", err)
	}
	if rows == nil {
		rows = []*model.Gestion{}
	}

	duration := time.Since(start)
	listDuration.Observe(duration.Seconds())

	s.logger.Debug("Листинг выполнен",
		slog.Int("total", total),
		slog.Int("returned", len(rows)),
		slog.Duration("duration", duration),
	)

	return &Page{
		Data: rows,
		Meta: NewPageMeta(page, total),
	}, nil
}
