package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ahadchat/server/model"
)

func TestFileStore_MissingFileIsEmpty(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "messages.json"))

	msgs, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestFileStore_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "messages.json")
	s := NewFileStore(path)

	_, err := Append(ctx, s, "A", "hi", base)
	require.NoError(t, err)
	_, err = Append(ctx, s, "B", "héllo", base)
	require.NoError(t, err)

	msgs, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "hi", msgs[0].Text)
	assert.Equal(t, "héllo", msgs[1].Text)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "\n  {\n    \"username\": \"A\",\n    \"message\": \"hi\"")
	assert.Contains(t, string(raw), "héllo")

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFileStore_ReloadIsIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "messages.json")
	s := NewFileStore(path)
	require.NoError(t, s.Save(ctx, []model.Message{
		{Username: "khizar", Text: "first", Timestamp: "2025-01-01 00:00:00"},
		{Username: "ahad", Text: "ünïcode", Timestamp: "2025-01-01 00:00:01"},
	}))
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	msgs, err := s.Load(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, msgs))

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestFileStore_CorruptFileIsUnavailable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s := NewFileStore(path)
	_, err := s.Load(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, ErrCorrupt)

	_, err = Append(context.Background(), s, "A", "hi", base)
	require.Error(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(raw))
}
