// Точка входа Gestion Module — реестр гестий (записей управления делами).
// Загружает конфигурацию, применяет миграции, подключается к PostgreSQL,
// создаёт репозиторий, кэш и сервисный слой, запускает topologymetrics
// и HTTP-сервер с OpenAPI-валидацией и graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/stdlib"

	"github.com/bigkaa/gestion-module/internal/api/handlers"
	"github.com/bigkaa/gestion-module/internal/api/middleware"
	"github.com/bigkaa/gestion-module/internal/api/openapi"
	"github.com/bigkaa/gestion-module/internal/config"
	"github.com/bigkaa/gestion-module/internal/database"
	"github.com/bigkaa/gestion-module/internal/repository"
	"github.com/bigkaa/gestion-module/internal/server"
	"github.com/bigkaa/gestion-module/internal/service"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("Gestion Module запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
	)

	if os.Getenv("GM_DEPHEALTH_GROUP") == "" {
		logger.Warn("GM_DEPHEALTH_GROUP не задана, используется значение по умолчанию",
			slog.String("default", cfg.DephealthGroup),
		)
	}

	// 3. Применение миграций БД
	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Подключение к PostgreSQL (pgxpool)
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 4.1 Адаптер pgxpool → *sql.DB для topologymetrics (connection pool mode).
	// Проверка здоровья PostgreSQL идёт через существующий пул соединений,
	// что позволяет обнаружить его исчерпание.
	pgDB := stdlib.OpenDBFromPool(pool)
	defer pgDB.Close()

	// 5. Repository и кэш
	gestionRepo := repository.NewGestionRepository(pool)
	cache := service.NewCacheService(cfg.CacheSize, cfg.CacheTTL)

	// 6. Сервисный слой
	gestionSvc := service.NewGestionService(gestionRepo, cache, logger)

	// 7. topologymetrics — мониторинг зависимостей (PostgreSQL)
	dephealthSvc, dephealthErr := service.NewDephealthService(
		"gestion-module",
		cfg.DephealthGroup,
		pgDB,
		cfg.DatabaseDSN(),
		cfg.DephealthCheckInterval,
		cfg.DephealthIsEntry,
		logger,
	)
	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
	} else {
		if startErr := dephealthSvc.Start(ctx); startErr != nil {
			logger.Warn("Ошибка запуска topologymetrics",
				slog.String("error", startErr.Error()),
			)
		} else {
			logger.Info("topologymetrics запущен",
				slog.String("group", cfg.DephealthGroup),
				slog.String("check_interval", cfg.DephealthCheckInterval.String()),
			)
		}
	}

	// 8. API handlers
	pgChecker := database.NewReadinessChecker(pool)
	healthHandler := handlers.NewHealthHandler(pgChecker)
	apiHandler := handlers.NewAPIHandler(gestionSvc, healthHandler, logger)

	// 9. OpenAPI-валидация запросов
	openapiMW, err := middleware.OpenAPIValidator(openapi.Spec)
	if err != nil {
		logger.Error("Ошибка загрузки OpenAPI контракта", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 10. Создание и запуск HTTP-сервера.
	// Порядок middleware: логирование → метрики → OpenAPI-валидация.
	srv := server.New(cfg, logger, apiHandler,
		middleware.RequestLogger(logger),
		middleware.MetricsMiddleware(),
		openapiMW,
	)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 11. Graceful shutdown фоновых задач
	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}

	logger.Info("Gestion Module остановлен")
}
