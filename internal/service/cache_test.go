package service

import (
	"testing"
	"time"

	"github.com/bigkaa/gestion-module/internal/domain/model"
)

func TestCacheService_SetGet(t *testing.T) {
	cache := NewCacheService(10, 5*time.Minute)

	g := &model.Gestion{ID: 1, ClientName: "Juan Perez", Status: model.StatusOpen}
	cache.Set(1, g)

	got, ok := cache.Get(1)
	if !ok {
		t.Fatal("Get() после Set() — промах")
	}
	if got.ClientName != "Juan Perez" {
		t.Errorf("ClientName = %q, ожидалось Juan Perez", got.ClientName)
	}
}

func TestCacheService_Miss(t *testing.T) {
	cache := NewCacheService(10, 5*time.Minute)

	if _, ok := cache.Get(999); ok {
		t.Error("Get() несуществующего id вернул попадание")
	}
}

func TestCacheService_Delete(t *testing.T) {
	cache := NewCacheService(10, 5*time.Minute)

	cache.Set(1, &model.Gestion{ID: 1})
	cache.Delete(1)

	if _, ok := cache.Get(1); ok {
		t.Error("Get() после Delete() вернул попадание")
	}
}

func TestCacheService_Eviction(t *testing.T) {
	// LRU вытесняет самую старую запись при превышении размера
	cache := NewCacheService(2, 5*time.Minute)

	cache.Set(1, &model.Gestion{ID: 1})
	cache.Set(2, &model.Gestion{ID: 2})
	cache.Set(3, &model.Gestion{ID: 3})

	if _, ok := cache.Get(1); ok {
		t.Error("первая запись не вытеснена при переполнении")
	}
	if _, ok := cache.Get(3); !ok {
		t.Error("последняя запись отсутствует в кэше")
	}
}
