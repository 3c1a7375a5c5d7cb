// cache.go — LRU-кэш записей гестий с TTL.
// Обёртка над hashicorp/golang-lru/v2/expirable.
// Каждый экземпляр сервиса имеет собственный in-memory кэш
// (per-instance, stateless архитектура).
package service

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/gestion-module/internal/domain/model"
)

// Prometheus-метрики кэша.
var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gm_cache_hits_total",
		Help: "Общее количество попаданий в LRU-кэш записей.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gm_cache_misses_total",
		Help: "Общее количество промахов LRU-кэша записей.",
	})
)

// CacheService — LRU-кэш записей по id с автоматическим TTL.
type CacheService struct {
	cache *expirable.LRU[int64, *model.Gestion]
}

// NewCacheService создаёт LRU-кэш с указанным максимальным размером и TTL.
// maxSize — максимальное количество записей в кэше.
// ttl — время жизни записи после добавления.
func NewCacheService(maxSize int, ttl time.Duration) *CacheService {
	cache := expirable.NewLRU[int64, *model.Gestion](maxSize, nil, ttl)
	return &CacheService{cache: cache}
}

// Get возвращает запись из кэша по id.
// Возвращает (запись, true) при hit или (nil, false) при miss.
// Обновляет Prometheus-метрики hit/miss.
func (c *CacheService) Get(id int64) (*model.Gestion, bool) {
	val, ok := c.cache.Get(id)
	if ok {
		cacheHitsTotal.Inc()
		return val, true
	}
	cacheMissesTotal.Inc()
	return nil, false
}

// Set добавляет или обновляет запись в кэше.
func (c *CacheService) Set(id int64, g *model.Gestion) {
	c.cache.Add(id, g)
}

// Delete удаляет запись из кэша (инвалидация при мутации).
func (c *CacheService) Delete(id int64) {
	c.cache.Remove(id)
}
