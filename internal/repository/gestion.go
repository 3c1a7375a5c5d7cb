package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/bigkaa/gestion-module/internal/domain/model"
)

// gestionColumns — список столбцов таблицы gestiones для SELECT-запросов.
// DRY: одно место для всех SELECT'ов.
const gestionColumns = `id, client_document, client_name, advisor_id, category,
	subcategory, official_channel, committed_amount, committed_date,
	notes, recording_url, status, created_at, updated_at`

// SearchParams — нормализованный предикат поиска записей.
// Все опциональные поля — указатели, nil = фильтр не применяется.
// По умолчанию закрытые записи исключаются; IncludeClosed = true
// отключает неявный фильтр по статусу.
type SearchParams struct {
	// Q — поиск по подстроке в имени ИЛИ документе клиента (ILIKE)
	Q *string
	// Category — точное совпадение типификации
	Category *string
	// AdvisorID — точное совпадение советника
	AdvisorID *string
	// From — нижняя граница created_at (включительно)
	From *time.Time
	// To — верхняя граница created_at (включительно)
	To *time.Time
	// IncludeClosed — включать закрытые записи (по умолчанию false)
	IncludeClosed bool
}

// GestionRepository — контракт хранилища записей гестий.
// Порядок выдачи FindMatching фиксирован: created_at DESC, id DESC —
// детерминированная сортировка при совпадающих метках времени.
type GestionRepository interface {
	// Insert создаёт запись; id, created_at и updated_at присваивает БД.
	Insert(ctx context.Context, g *model.Gestion) error
	// GetByID возвращает запись по id или ErrNotFound.
	GetByID(ctx context.Context, id int64) (*model.Gestion, error)
	// Save сохраняет уже провалидированную, полностью сформированную
	// запись; updated_at обновляется БД.
	Save(ctx context.Context, g *model.Gestion) error
	// FindMatching возвращает страницу записей по предикату и общее
	// количество совпадений без учёта limit/offset.
	FindMatching(ctx context.Context, params SearchParams, limit, offset int) ([]*model.Gestion, int, error)
}

// gestionRepo — реализация GestionRepository через pgx.
type gestionRepo struct {
	db DBTX
}

// NewGestionRepository создаёт репозиторий записей гестий.
func NewGestionRepository(db DBTX) GestionRepository {
	return &gestionRepo{db: db}
}

func (r *gestionRepo) Insert(ctx context.Context, g *model.Gestion) error {
	query := `
		INSERT INTO gestiones (client_document, client_name, advisor_id, category,
			subcategory, official_channel, committed_amount, committed_date,
			notes, recording_url, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		g.ClientDocument, g.ClientName, g.AdvisorID, string(g.Category),
		g.Subcategory, g.OfficialChannel, nullDecimal(g.CommittedAmount), g.CommittedDate,
		g.Notes, g.RecordingURL, string(g.Status),
	).Scan(&g.ID, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return fmt.Errorf("ошибка вставки записи: %w", err)
	}
	return nil
}

func (r *gestionRepo) GetByID(ctx context.Context, id int64) (*model.Gestion, error) {
	query := fmt.Sprintf(`SELECT %s FROM gestiones WHERE id = $1`, gestionColumns)

	g, err := scanGestion(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения записи: %w", err)
	}
	return g, nil
}

func (r *gestionRepo) Save(ctx context.Context, g *model.Gestion) error {
	query := `
		UPDATE gestiones
		SET client_document = $1, client_name = $2, advisor_id = $3, category = $4,
			subcategory = $5, official_channel = $6, committed_amount = $7,
			committed_date = $8, notes = $9, recording_url = $10, status = $11,
			updated_at = NOW()
		WHERE id = $12
		RETURNING updated_at`

	err := r.db.QueryRow(ctx, query,
		g.ClientDocument, g.ClientName, g.AdvisorID, string(g.Category),
		g.Subcategory, g.OfficialChannel, nullDecimal(g.CommittedAmount), g.CommittedDate,
		g.Notes, g.RecordingURL, string(g.Status), g.ID,
	).Scan(&g.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("ошибка сохранения записи: %w", err)
	}
	return nil
}

func (r *gestionRepo) FindMatching(ctx context.Context, params SearchParams, limit, offset int) ([]*model.Gestion, int, error) {
	// Построение WHERE-условия
	where, args := buildGestionWhere(params, 1)
	argNum := len(args) + 1

	// Запрос данных с пагинацией.
	// Сортировка фиксирована: новые записи первыми, при совпадении
	// created_at — tie-break по id.
	dataQuery := fmt.Sprintf(
		`SELECT %s FROM gestiones %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		gestionColumns, where, argNum, argNum+1,
	)
	dataArgs := append(append([]any{}, args...), limit, offset)

	rows, err := r.db.Query(ctx, dataQuery, dataArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка поиска записей: %w", err)
	}
	defer rows.Close()

	var result []*model.Gestion
	for rows.Next() {
		g, err := scanGestion(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("ошибка сканирования записи: %w", err)
		}
		result = append(result, g)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("ошибка итерации результатов: %w", err)
	}

	// Запрос общего количества (с теми же фильтрами, без LIMIT/OFFSET)
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM gestiones %s`, where)

	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчёта записей: %w", err)
	}

	return result, total, nil
}

// buildGestionWhere строит WHERE-условие и аргументы для поиска записей.
// startArg — номер первого $-параметра (для корректной нумерации).
func buildGestionWhere(params SearchParams, startArg int) (whereClause string, args []any) {
	var conditions []string
	argNum := startArg

	// Свободный текст: подстрока в имени ИЛИ документе клиента.
	// ILIKE — регистронезависимость соответствует collation исходного
	// хранилища.
	if params.Q != nil && *params.Q != "" {
		conditions = append(conditions,
			fmt.Sprintf("(client_name ILIKE $%d OR client_document ILIKE $%d)", argNum, argNum+1))
		pattern := "%" + *params.Q + "%"
		args = append(args, pattern, pattern)
		argNum += 2
	}

	// Точное совпадение типификации
	if params.Category != nil && *params.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argNum))
		args = append(args, *params.Category)
		argNum++
	}

	// Точное совпадение советника
	if params.AdvisorID != nil && *params.AdvisorID != "" {
		conditions = append(conditions, fmt.Sprintf("advisor_id = $%d", argNum))
		args = append(args, *params.AdvisorID)
		argNum++
	}

	// Диапазон created_at, границы включительно
	if params.From != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argNum))
		args = append(args, *params.From)
		argNum++
	}
	if params.To != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", argNum))
		args = append(args, *params.To)
		argNum++
	}

	// Неявный фильтр по статусу: закрытые записи не выдаются,
	// пока явно не запрошены
	if !params.IncludeClosed {
		conditions = append(conditions, "status != 'Closed'")
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}
	return where, args
}

// scanGestion сканирует одну строку выборки в модель.
func scanGestion(row pgx.Row) (*model.Gestion, error) {
	g := &model.Gestion{}
	var category, status string
	var amount decimal.NullDecimal

	err := row.Scan(
		&g.ID, &g.ClientDocument, &g.ClientName, &g.AdvisorID, &category,
		&g.Subcategory, &g.OfficialChannel, &amount, &g.CommittedDate,
		&g.Notes, &g.RecordingURL, &status, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	g.Category = model.Category(category)
	g.Status = model.Status(status)
	if amount.Valid {
		g.CommittedAmount = &amount.Decimal
	}
	return g, nil
}

// nullDecimal конвертирует опциональную сумму в NullDecimal для pgx.
func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}
