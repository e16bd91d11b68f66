package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	appErrors "github.com/noah-isme/lob-api/pkg/errors"
)

func TestCacheRepositoryWithoutClientMisses(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	ctx := context.Background()

	var dest map[string]string
	err := repo.Get(ctx, "nuget:bit.blazorui", &dest)
	assert.True(t, errors.Is(err, appErrors.ErrCacheMiss))
	assert.NoError(t, repo.Set(ctx, "nuget:bit.blazorui", map[string]string{"a": "b"}, time.Minute))
	assert.NoError(t, repo.Delete(ctx, "nuget:bit.blazorui"))
	assert.NoError(t, repo.Close())
}
