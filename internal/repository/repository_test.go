package repository

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bigkaa/gestion-module/internal/config"
	"github.com/bigkaa/gestion-module/internal/database"
	"github.com/bigkaa/gestion-module/internal/domain/model"
)

// setupTestDB запускает PostgreSQL контейнер, применяет миграции.
// Возвращает pgxpool.Pool; очистка через t.Cleanup.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("Пропуск интеграционного теста: TEST_INTEGRATION не установлена")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("gestiones_test"),
		postgres.WithUsername("gestiones"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Не удалось запустить PostgreSQL контейнер: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Ошибка остановки контейнера: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Не удалось получить host контейнера: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Не удалось получить port контейнера: %v", err)
	}

	// Настраиваем env для config.Load()
	t.Setenv("GM_DB_HOST", host)
	t.Setenv("GM_DB_PORT", port.Port())
	t.Setenv("GM_DB_NAME", "gestiones_test")
	t.Setenv("GM_DB_USER", "gestiones")
	t.Setenv("GM_DB_PASSWORD", "test-password")
	t.Setenv("GM_DB_SSL_MODE", "disable")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	// Применяем миграции
	if err := database.Migrate(cfg, logger); err != nil {
		t.Fatalf("Ошибка миграций: %v", err)
	}

	// Подключаемся
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		t.Fatalf("Ошибка подключения: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	return pool
}

// insertGestion вставляет запись и возвращает её.
func insertGestion(t *testing.T, repo GestionRepository, document, name, advisor string, category model.Category) *model.Gestion {
	t.Helper()
	g := &model.Gestion{
		ClientDocument:  document,
		ClientName:      name,
		AdvisorID:       advisor,
		Category:        category,
		OfficialChannel: true,
		Status:          model.StatusOpen,
	}
	if err := repo.Insert(context.Background(), g); err != nil {
		t.Fatalf("Insert() ошибка: %v", err)
	}
	return g
}

// --- Тесты GestionRepository ---

func TestGestionCRUD(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewGestionRepository(pool)

	amount := decimal.RequireFromString("1500.50")
	committedDate := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	notes := "обещал оплатить до первого числа"

	g := &model.Gestion{
		ClientDocument:  "12345678",
		ClientName:      "Juan Perez",
		AdvisorID:       "adv-001",
		Category:        model.CategoryPaymentPromise,
		OfficialChannel: true,
		CommittedAmount: &amount,
		CommittedDate:   &committedDate,
		Notes:           &notes,
		Status:          model.StatusOpen,
	}

	// Insert
	if err := repo.Insert(ctx, g); err != nil {
		t.Fatalf("Insert() ошибка: %v", err)
	}
	if g.ID == 0 {
		t.Error("ID не присвоен БД")
	}
	if g.CreatedAt.IsZero() || g.UpdatedAt.IsZero() {
		t.Error("CreatedAt/UpdatedAt не установлены")
	}

	// GetByID
	got, err := repo.GetByID(ctx, g.ID)
	if err != nil {
		t.Fatalf("GetByID() ошибка: %v", err)
	}
	if got.ClientName != "Juan Perez" {
		t.Errorf("ClientName = %q, хотели %q", got.ClientName, "Juan Perez")
	}
	if got.CommittedAmount == nil || !got.CommittedAmount.Equal(amount) {
		t.Errorf("CommittedAmount = %v, хотели %v", got.CommittedAmount, amount)
	}
	if got.Notes == nil || *got.Notes != notes {
		t.Errorf("Notes = %v, хотели %q", got.Notes, notes)
	}

	// Save
	got.ClientName = "Juan Alberto Perez"
	got.Status = model.StatusClosed
	prevUpdated := got.UpdatedAt
	if err := repo.Save(ctx, got); err != nil {
		t.Fatalf("Save() ошибка: %v", err)
	}
	if !got.UpdatedAt.After(prevUpdated) {
		t.Error("UpdatedAt не освежён при сохранении")
	}

	reread, err := repo.GetByID(ctx, got.ID)
	if err != nil {
		t.Fatalf("GetByID() после Save ошибка: %v", err)
	}
	if reread.ClientName != "Juan Alberto Perez" {
		t.Errorf("ClientName = %q после Save", reread.ClientName)
	}
	if reread.Status != model.StatusClosed {
		t.Errorf("Status = %q после Save, хотели Closed", reread.Status)
	}
}

func TestGestionGetByID_NotFound(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewGestionRepository(pool)

	_, err := repo.GetByID(context.Background(), 999999)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, ожидался ErrNotFound", err)
	}
}

func TestGestionSave_NotFound(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewGestionRepository(pool)

	g := &model.Gestion{
		ID:             999999,
		ClientDocument: "00000000",
		ClientName:     "Нет такого",
		AdvisorID:      "adv-000",
		Category:       model.CategoryOther,
		Status:         model.StatusOpen,
	}
	if err := repo.Save(context.Background(), g); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, ожидался ErrNotFound", err)
	}
}

func TestGestionFindMatching(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewGestionRepository(pool)

	insertGestion(t, repo, "11111111", "Juan Perez", "adv-001", model.CategoryContactMade)
	insertGestion(t, repo, "22222222", "Maria Gomez", "adv-002", model.CategoryPaymentPromise)
	closed := insertGestion(t, repo, "33333333", "Pedro Diaz", "adv-001", model.CategoryNoContact)

	// Закрываем третью запись
	closed.Status = model.StatusClosed
	if err := repo.Save(ctx, closed); err != nil {
		t.Fatalf("Save() ошибка: %v", err)
	}

	// Без фильтров: закрытая запись исключена
	rows, total, err := repo.FindMatching(ctx, SearchParams{}, 10, 0)
	if err != nil {
		t.Fatalf("FindMatching() ошибка: %v", err)
	}
	if total != 2 {
		t.Errorf("total = %d, хотели 2 (без закрытой)", total)
	}
	for _, g := range rows {
		if g.Status == model.StatusClosed {
			t.Errorf("закрытая запись id=%d попала в выдачу", g.ID)
		}
	}

	// IncludeClosed возвращает все
	_, total, err = repo.FindMatching(ctx, SearchParams{IncludeClosed: true}, 10, 0)
	if err != nil {
		t.Fatalf("FindMatching(IncludeClosed) ошибка: %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, хотели 3 (с закрытой)", total)
	}

	// Свободный текст по имени, регистронезависимо
	q := "perez"
	rows, total, err = repo.FindMatching(ctx, SearchParams{Q: &q}, 10, 0)
	if err != nil {
		t.Fatalf("FindMatching(Q) ошибка: %v", err)
	}
	if total != 1 || len(rows) != 1 || rows[0].ClientName != "Juan Perez" {
		t.Errorf("поиск по %q: total=%d rows=%d", q, total, len(rows))
	}

	// Свободный текст по документу
	qDoc := "2222"
	_, total, err = repo.FindMatching(ctx, SearchParams{Q: &qDoc}, 10, 0)
	if err != nil {
		t.Fatalf("FindMatching(Q документ) ошибка: %v", err)
	}
	if total != 1 {
		t.Errorf("поиск по документу %q: total = %d, хотели 1", qDoc, total)
	}

	// Фильтр по советнику (закрытая запись adv-001 исключена)
	advisor := "adv-001"
	_, total, err = repo.FindMatching(ctx, SearchParams{AdvisorID: &advisor}, 10, 0)
	if err != nil {
		t.Fatalf("FindMatching(AdvisorID) ошибка: %v", err)
	}
	if total != 1 {
		t.Errorf("фильтр по советнику: total = %d, хотели 1", total)
	}

	// Фильтр по типификации
	category := "PaymentPromise"
	rows, _, err = repo.FindMatching(ctx, SearchParams{Category: &category}, 10, 0)
	if err != nil {
		t.Fatalf("FindMatching(Category) ошибка: %v", err)
	}
	if len(rows) != 1 || rows[0].ClientName != "Maria Gomez" {
		t.Errorf("фильтр по типификации вернул %d записей", len(rows))
	}
}

func TestGestionFindMatching_OrderAndPagination(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewGestionRepository(pool)

	var ids []int64
	for i := 0; i < 5; i++ {
		g := insertGestion(t, repo, "10000000", "Cliente Pag", "adv-010", model.CategoryOther)
		ids = append(ids, g.ID)
	}

	// Первая страница: новые записи первыми. Вставки идут подряд,
	// created_at может совпадать — tie-break по id гарантирует
	// детерминированный порядок.
	rows, total, err := repo.FindMatching(ctx, SearchParams{}, 2, 0)
	if err != nil {
		t.Fatalf("FindMatching() ошибка: %v", err)
	}
	if total != 5 {
		t.Errorf("total = %d, хотели 5", total)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, хотели 2", len(rows))
	}
	if rows[0].ID != ids[4] || rows[1].ID != ids[3] {
		t.Errorf("порядок выдачи: %d, %d; хотели %d, %d", rows[0].ID, rows[1].ID, ids[4], ids[3])
	}

	// Вторая страница продолжает порядок
	rows, _, err = repo.FindMatching(ctx, SearchParams{}, 2, 2)
	if err != nil {
		t.Fatalf("FindMatching(offset) ошибка: %v", err)
	}
	if rows[0].ID != ids[2] || rows[1].ID != ids[1] {
		t.Errorf("вторая страница: %d, %d; хотели %d, %d", rows[0].ID, rows[1].ID, ids[2], ids[1])
	}

	// Страница за пределами диапазона: пусто, total корректен
	rows, total, err = repo.FindMatching(ctx, SearchParams{}, 2, 100)
	if err != nil {
		t.Fatalf("FindMatching(за пределами) ошибка: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("rows = %d за пределами диапазона, хотели 0", len(rows))
	}
	if total != 5 {
		t.Errorf("total = %d, хотели 5", total)
	}
}

func TestGestionFindMatching_DateRange(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewGestionRepository(pool)

	g := insertGestion(t, repo, "44444444", "Rango Fechas", "adv-020", model.CategoryInformation)

	// Диапазон, включающий created_at
	from := g.CreatedAt.Add(-time.Hour)
	to := g.CreatedAt.Add(time.Hour)
	_, total, err := repo.FindMatching(ctx, SearchParams{From: &from, To: &to}, 10, 0)
	if err != nil {
		t.Fatalf("FindMatching(диапазон) ошибка: %v", err)
	}
	if total != 1 {
		t.Errorf("total = %d внутри диапазона, хотели 1", total)
	}

	// Диапазон до создания записи
	before := g.CreatedAt.Add(-2 * time.Hour)
	_, total, err = repo.FindMatching(ctx, SearchParams{To: &before}, 10, 0)
	if err != nil {
		t.Fatalf("FindMatching(до создания) ошибка: %v", err)
	}
	if total != 0 {
		t.Errorf("total = %d вне диапазона, хотели 0", total)
	}
}
