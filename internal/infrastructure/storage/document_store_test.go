package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farmvet-auth.backend/internal/domain/entities"
)

func TestFileStore_Validate(t *testing.T) {
	store := NewFileStore(t.TempDir(), 0)

	assert.NoError(t, store.Validate(&entities.Document{Filename: "nid.JPG", Content: []byte("x")}))
	assert.NoError(t, store.Validate(&entities.Document{Filename: "nid.png", Size: 10}))
	assert.ErrorIs(t, store.Validate(&entities.Document{Filename: "nid.gif", Size: 10}), ErrUnsupportedType)
	assert.ErrorIs(t, store.Validate(&entities.Document{Filename: "nid", Size: 10}), ErrUnsupportedType)
	assert.ErrorIs(t, store.Validate(&entities.Document{Filename: "nid.jpeg"}), ErrEmptyDocument)
	assert.ErrorIs(t, store.Validate(&entities.Document{Filename: "nid.jpeg", Size: DefaultMaxBytes + 1}), ErrTooLarge)
	assert.NoError(t, store.Validate(&entities.Document{Filename: "nid.jpeg", Size: DefaultMaxBytes}))
}

func TestFileStore_SaveAndDelete(t *testing.T) {
	root := t.TempDir()
	store := NewFileStore(root, 1024)
	ctx := context.Background()
	id := uuid.New()

	path, err := store.Save(ctx, id, "nid", &entities.Document{Filename: "Card.PNG", Content: []byte("png-bytes")})
	require.NoError(t, err)
	assert.Contains(t, path, "nid/"+id.String())
	assert.Equal(t, ".png", filepath.Ext(path))

	content, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(path)))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(content))

	require.NoError(t, store.Delete(ctx, path))
	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(path)))
	assert.True(t, os.IsNotExist(err))

	// already removed
	assert.NoError(t, store.Delete(ctx, path))
	assert.Error(t, store.Delete(ctx, "../outside.png"))
}

func TestFileStore_SaveRejectsInvalid(t *testing.T) {
	store := NewFileStore(t.TempDir(), 4)
	_, err := store.Save(context.Background(), uuid.New(), "certificate", &entities.Document{Filename: "c.jpg", Content: []byte("too-big")})
	assert.ErrorIs(t, err, ErrTooLarge)
}
