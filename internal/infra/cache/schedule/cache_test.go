package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/MedAppointmentService/internal/domain"
	"github.com/m04kA/MedAppointmentService/pkg/logger"
	"github.com/m04kA/MedAppointmentService/pkg/ptr"
)

type fakeClient struct {
	data   map[string]string
	getErr error
	setErr error
	sets   int
}

func newFakeClient() *fakeClient {
	return &fakeClient{data: make(map[string]string)}
}

func (f *fakeClient) Get(_ context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeClient) Set(_ context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	f.sets++
	if f.setErr != nil {
		return redis.NewStatusResult("", f.setErr)
	}
	f.data[key] = string(value.([]byte))
	return redis.NewStatusResult("OK", nil)
}

type fakeSource struct {
	templates []domain.ScheduleTemplate
	calls     int
	err       error
}

func (f *fakeSource) GetDoctor(_ context.Context, id int64) (*domain.DoctorProfile, error) {
	return &domain.DoctorProfile{ID: id, SpecialtyID: 7, IsActive: true}, nil
}

func (f *fakeSource) GetTemplates(_ context.Context, _ domain.TemplateFilter) ([]domain.ScheduleTemplate, error) {
	f.calls++
	return f.templates, f.err
}

type countingMetrics struct {
	results map[string]int
}

func (m *countingMetrics) IncCacheRequests(_, result string) {
	m.results[result]++
}

func newTestCache(client Client, source TemplateSource) (*Cache, *countingMetrics) {
	m := &countingMetrics{results: make(map[string]int)}
	return NewCache(client, source, time.Minute, m, logger.NewNop()), m
}

func sampleTemplates() []domain.ScheduleTemplate {
	return []domain.ScheduleTemplate{{
		ID:                  1,
		DoctorProfileID:     3,
		SpecialtyID:         7,
		DayOfWeek:           time.Monday,
		StartTime:           "09:00",
		EndTime:             "13:00",
		SlotDurationMinutes: 30,
	}}
}

func TestCache_MissThenHit(t *testing.T) {
	client := newFakeClient()
	source := &fakeSource{templates: sampleTemplates()}
	cache, m := newTestCache(client, source)
	filter := domain.TemplateFilter{DoctorProfileID: ptr.Ptr(int64(3))}

	first, err := cache.GetTemplates(context.Background(), filter)
	require.NoError(t, err)
	second, err := cache.GetTemplates(context.Background(), filter)
	require.NoError(t, err)

	assert.Equal(t, 1, source.calls)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, m.results["miss"])
	assert.Equal(t, 1, m.results["hit"])
}

func TestCache_RedisDownFallsThrough(t *testing.T) {
	client := newFakeClient()
	client.getErr = errors.New("connection refused")
	client.setErr = errors.New("connection refused")
	source := &fakeSource{templates: sampleTemplates()}
	cache, m := newTestCache(client, source)

	got, err := cache.GetTemplates(context.Background(), domain.TemplateFilter{})
	require.NoError(t, err)

	assert.Equal(t, sampleTemplates(), got)
	assert.Equal(t, 1, m.results["error"])
}

func TestCache_CorruptedEntryReloaded(t *testing.T) {
	client := newFakeClient()
	filter := domain.TemplateFilter{SpecialtyID: ptr.Ptr(int64(7))}
	client.data[cacheKey(filter)] = "{not json"
	source := &fakeSource{templates: sampleTemplates()}
	cache, _ := newTestCache(client, source)

	got, err := cache.GetTemplates(context.Background(), filter)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 1, source.calls)
}

func TestCache_SourceErrorNotCached(t *testing.T) {
	client := newFakeClient()
	source := &fakeSource{err: errors.New("db down")}
	cache, _ := newTestCache(client, source)

	_, err := cache.GetTemplates(context.Background(), domain.TemplateFilter{})
	assert.Error(t, err)
	assert.Equal(t, 0, client.sets)
}

func TestCacheKey(t *testing.T) {
	day := time.Friday
	key := cacheKey(domain.TemplateFilter{DoctorProfileID: ptr.Ptr(int64(12)), DayOfWeek: &day})
	assert.Equal(t, "appointments:schedule:v1:doctor=12:specialty=*:day=5", key)
}
