package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/lob-api/pkg/cache"
)

type failingCache struct{ err error }

func (f failingCache) Get(context.Context, string, interface{}) error                { return f.err }
func (f failingCache) Set(context.Context, string, interface{}, time.Duration) error { return f.err }
func (f failingCache) Delete(context.Context, string) error                          { return f.err }

func TestCacheServiceGetSetAndTake(t *testing.T) {
	metrics := NewMetricsService()
	svc := NewCacheService(cache.NewMemoryStore(), metrics, time.Minute, zap.NewNop())
	ctx := context.Background()

	var got string
	hit, err := svc.Get(ctx, "webauthn:challenge", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(ctx, "webauthn:challenge", "session-data", 0))

	hit, err = svc.Take(ctx, "webauthn:challenge", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "session-data", got)

	hit, err = svc.Take(ctx, "webauthn:challenge", &got)
	require.NoError(t, err)
	assert.False(t, hit, "ceremony state is single use")

	snapshot := metrics.Snapshot()
	assert.EqualValues(t, 1, snapshot.CacheHits)
	assert.EqualValues(t, 2, snapshot.CacheMisses)
}

func TestCacheServiceBackendErrors(t *testing.T) {
	boom := errors.New("redis down")
	svc := NewCacheService(failingCache{err: boom}, nil, 0, nil)

	var got string
	hit, err := svc.Get(context.Background(), "k", &got)
	assert.False(t, hit)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, svc.Set(context.Background(), "k", "v", time.Second), boom)
}

func TestCacheServiceDisabled(t *testing.T) {
	var svc *CacheService
	assert.False(t, svc.Enabled())

	disabled := NewCacheService(nil, nil, 0, nil)
	hit, err := disabled.Get(context.Background(), "k", new(string))
	assert.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, disabled.Set(context.Background(), "k", "v", 0))
}
