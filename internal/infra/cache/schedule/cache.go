package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m04kA/MedAppointmentService/internal/domain"
)

const (
	cacheName = "schedule_templates"
	keyPrefix = "appointments:schedule:v1"
)

// TemplateSource источник шаблонов расписания (репозиторий Postgres)
type TemplateSource interface {
	GetDoctor(ctx context.Context, id int64) (*domain.DoctorProfile, error)
	GetTemplates(ctx context.Context, filter domain.TemplateFilter) ([]domain.ScheduleTemplate, error)
}

// Client подмножество команд redis, которое использует кеш
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// Metrics счетчик обращений к кешу
type Metrics interface {
	IncCacheRequests(cache, result string)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Cache read-through кеш шаблонов расписания.
// Кеш только ускоряет чтение: при любой ошибке redis запрос уходит в источник,
// а занятость слотов всегда проверяется по БД.
type Cache struct {
	client  Client
	source  TemplateSource
	ttl     time.Duration
	metrics Metrics
	logger  Logger
}

// NewCache создает кеш поверх источника
func NewCache(client Client, source TemplateSource, ttl time.Duration, metrics Metrics, logger Logger) *Cache {
	return &Cache{
		client:  client,
		source:  source,
		ttl:     ttl,
		metrics: metrics,
		logger:  logger,
	}
}

// GetDoctor профиль врача не кешируется
func (c *Cache) GetDoctor(ctx context.Context, id int64) (*domain.DoctorProfile, error) {
	return c.source.GetDoctor(ctx, id)
}

// GetTemplates возвращает шаблоны из кеша или из источника
func (c *Cache) GetTemplates(ctx context.Context, filter domain.TemplateFilter) ([]domain.ScheduleTemplate, error) {
	key := cacheKey(filter)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var templates []domain.ScheduleTemplate
		if jsonErr := json.Unmarshal(raw, &templates); jsonErr == nil {
			c.metrics.IncCacheRequests(cacheName, "hit")
			return templates, nil
		}
		c.logger.Warn("ScheduleCache: corrupted entry key=%s, reloading", key)
		c.metrics.IncCacheRequests(cacheName, "error")
	case errors.Is(err, redis.Nil):
		c.metrics.IncCacheRequests(cacheName, "miss")
	default:
		c.logger.Warn("ScheduleCache: redis get key=%s failed: %v", key, err)
		c.metrics.IncCacheRequests(cacheName, "error")
	}

	templates, err := c.source.GetTemplates(ctx, filter)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(templates)
	if err != nil {
		c.logger.Error("ScheduleCache: marshal templates key=%s: %v", key, err)
		return templates, nil
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn("ScheduleCache: redis set key=%s failed: %v", key, err)
	}

	return templates, nil
}

func cacheKey(filter domain.TemplateFilter) string {
	return fmt.Sprintf("%s:doctor=%s:specialty=%s:day=%s",
		keyPrefix,
		optionalInt(filter.DoctorProfileID),
		optionalInt(filter.SpecialtyID),
		optionalWeekday(filter.DayOfWeek),
	)
}

func optionalInt(v *int64) string {
	if v == nil {
		return "*"
	}
	return strconv.FormatInt(*v, 10)
}

func optionalWeekday(v *time.Weekday) string {
	if v == nil {
		return "*"
	}
	return strconv.Itoa(int(*v))
}
