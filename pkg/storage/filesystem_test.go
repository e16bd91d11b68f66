package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	exists, err := store.Exists(ctx, "attachments/profiles/u1_256.png")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.Write(ctx, "attachments/profiles/u1_256.png", strings.NewReader("png"), "image/png"))

	exists, err = store.Exists(ctx, "attachments/profiles/u1_256.png")
	require.NoError(t, err)
	assert.True(t, exists)

	rc, err := store.OpenRead(ctx, "attachments/profiles/u1_256.png")
	require.NoError(t, err)
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	assert.Equal(t, "png", string(body))

	require.NoError(t, store.Delete(ctx, "attachments/profiles/u1_256.png"))
	_, err = store.OpenRead(ctx, "attachments/profiles/u1_256.png")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestLocalStorageRejectsTraversal(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	_, err = store.Exists(context.Background(), "../etc/passwd")
	assert.Error(t, err)
}
