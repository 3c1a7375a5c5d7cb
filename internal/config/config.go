// Пакет config — загрузка и валидация конфигурации Gestion Module
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации Gestion Module.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- HTTP Server Timeouts ---

	// Таймаут чтения HTTP-сервера (по умолчанию 30s)
	HTTPReadTimeout time.Duration
	// Таймаут записи HTTP-сервера (по умолчанию 60s)
	HTTPWriteTimeout time.Duration
	// Таймаут простоя HTTP-сервера (по умолчанию 120s)
	HTTPIdleTimeout time.Duration

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown (по умолчанию 5s)
	ShutdownTimeout time.Duration

	// --- PostgreSQL ---

	// Хост PostgreSQL
	DBHost string
	// Порт PostgreSQL
	DBPort int
	// Имя базы данных
	DBName string
	// Имя пользователя PostgreSQL
	DBUser string
	// Пароль пользователя PostgreSQL
	DBPassword string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string

	// --- Кэш записей ---

	// Максимальное количество записей в LRU-кэше
	CacheSize int
	// Время жизни записи в кэше
	CacheTTL time.Duration

	// --- Dephealth (topologymetrics) ---

	// Имя группы в метриках dephealth
	DephealthGroup string
	// Интервал проверки зависимостей
	DephealthCheckInterval time.Duration
	// Является ли сервис точкой входа (лейбл isentry)
	DephealthIsEntry bool
}

// Load загружает конфигурацию из переменных окружения.
// Возвращает ошибку, если обязательные переменные не заданы
// или значения некорректны.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// GM_PORT — порт HTTP-сервера (по умолчанию 8050)
	cfg.Port, err = getEnvInt("GM_PORT", 8050)
	if err != nil {
		return nil, fmt.Errorf("GM_PORT: %w", err)
	}

	// GM_LOG_LEVEL — уровень логирования (по умолчанию info)
	logLevel := getEnvDefault("GM_LOG_LEVEL", "info")
	cfg.LogLevel, err = parseLogLevel(logLevel)
	if err != nil {
		return nil, fmt.Errorf("GM_LOG_LEVEL: %w", err)
	}

	// GM_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("GM_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("GM_LOG_FORMAT: недопустимый формат %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- HTTP Server Timeouts ---

	// GM_HTTP_READ_TIMEOUT — таймаут чтения (по умолчанию 30s)
	cfg.HTTPReadTimeout, err = getEnvDuration("GM_HTTP_READ_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("GM_HTTP_READ_TIMEOUT: %w", err)
	}

	// GM_HTTP_WRITE_TIMEOUT — таймаут записи (по умолчанию 60s)
	cfg.HTTPWriteTimeout, err = getEnvDuration("GM_HTTP_WRITE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("GM_HTTP_WRITE_TIMEOUT: %w", err)
	}

	// GM_HTTP_IDLE_TIMEOUT — таймаут простоя (по умолчанию 120s)
	cfg.HTTPIdleTimeout, err = getEnvDuration("GM_HTTP_IDLE_TIMEOUT", 120*time.Second)
	if err != nil {
		return nil, fmt.Errorf("GM_HTTP_IDLE_TIMEOUT: %w", err)
	}

	// --- Graceful shutdown ---

	// GM_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("GM_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("GM_SHUTDOWN_TIMEOUT: %w", err)
	}

	// --- PostgreSQL ---

	// GM_DB_HOST — хост PostgreSQL (обязательная)
	cfg.DBHost, err = getEnvRequired("GM_DB_HOST")
	if err != nil {
		return nil, err
	}

	// GM_DB_PORT — порт PostgreSQL (по умолчанию 5432)
	cfg.DBPort, err = getEnvInt("GM_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("GM_DB_PORT: %w", err)
	}

	// GM_DB_NAME — имя базы данных (по умолчанию gestiones)
	cfg.DBName = getEnvDefault("GM_DB_NAME", "gestiones")

	// GM_DB_USER — имя пользователя (обязательная)
	cfg.DBUser, err = getEnvRequired("GM_DB_USER")
	if err != nil {
		return nil, err
	}

	// GM_DB_PASSWORD — пароль (обязательная)
	cfg.DBPassword, err = getEnvRequired("GM_DB_PASSWORD")
	if err != nil {
		return nil, err
	}

	// GM_DB_SSL_MODE — режим SSL (по умолчанию disable)
	cfg.DBSSLMode = getEnvDefault("GM_DB_SSL_MODE", "disable")
	switch cfg.DBSSLMode {
	case "disable", "require", "verify-ca", "verify-full":
	default:
		return nil, fmt.Errorf("GM_DB_SSL_MODE: недопустимое значение %q", cfg.DBSSLMode)
	}

	// --- Кэш записей ---

	// GM_CACHE_SIZE — размер LRU-кэша (по умолчанию 1000)
	cfg.CacheSize, err = getEnvInt("GM_CACHE_SIZE", 1000)
	if err != nil {
		return nil, fmt.Errorf("GM_CACHE_SIZE: %w", err)
	}
	if cfg.CacheSize <= 0 {
		return nil, fmt.Errorf("GM_CACHE_SIZE: значение должно быть положительным")
	}

	// GM_CACHE_TTL — TTL записи в кэше (по умолчанию 5m)
	cfg.CacheTTL, err = getEnvDuration("GM_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("GM_CACHE_TTL: %w", err)
	}

	// --- Dephealth ---

	// GM_DEPHEALTH_GROUP — имя группы в метриках (по умолчанию gestion)
	cfg.DephealthGroup = getEnvDefault("GM_DEPHEALTH_GROUP", "gestion")

	// GM_DEPHEALTH_CHECK_INTERVAL — интервал проверки (по умолчанию 30s)
	cfg.DephealthCheckInterval, err = getEnvDuration("GM_DEPHEALTH_CHECK_INTERVAL", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("GM_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// DEPHEALTH_ISENTRY — лейбл isentry=yes для всех зависимостей
	cfg.DephealthIsEntry = strings.EqualFold(getEnvDefault("DEPHEALTH_ISENTRY", "no"), "yes")

	return cfg, nil
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q", val)
	}
	return d, nil
}

// parseLogLevel конвертирует строковый уровень логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
