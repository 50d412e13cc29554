package defaults

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/abdul-hamid-achik/hitplate/packages/core/registry"
	"github.com/abdul-hamid-achik/hitplate/packages/core/vartype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "defaults.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	require.NoError(t, store.Set(ctx, "id", "1"))
	require.NoError(t, store.Set(ctx, "ID", "2"))

	value, ok, err := store.Get(ctx, "Id")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "2", value)

	require.NoError(t, store.Delete(ctx, "id"))
	_, ok, err = store.Get(ctx, "id")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_SaveReplacesEverything(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	require.NoError(t, store.Set(ctx, "old", "x"))
	require.NoError(t, store.Save(ctx, map[string]string{"a": "1", "b": "true"}))

	values, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "b": "true"}, values)
}

func TestStore_PersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "defaults.db")

	store, err := Open("sqlite:" + path)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "token", "abc"))
	require.NoError(t, store.Close())

	store, err = Open(path)
	require.NoError(t, err)
	defer store.Close()

	value, ok, err := store.Get(ctx, "token")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc", value)
	assert.Equal(t, path, store.Path())
}

func TestStore_InMemory(t *testing.T) {
	ctx := context.Background()
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Set(ctx, "a", "1"))
	values, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1"}, values)
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}

func TestStore_ApplyAndCollect(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	require.NoError(t, store.Save(ctx, map[string]string{
		"count":   "7",
		"flag":    "notabool",
		"unknown": "1",
		"ids":     "[1,2]",
	}))

	reg := registry.New()
	reg.Register(registry.NewVariable("count", vartype.Int, registry.SourceResponse, ""))
	reg.Register(registry.NewVariable("flag", vartype.Bool, registry.SourceResponse, ""))
	reg.Register(registry.NewVariable("ids", vartype.ArrayOf(vartype.Int), registry.SourceResponse, ""))

	rejected, err := store.Apply(ctx, reg)
	require.NoError(t, err)
	assert.Equal(t, []string{"flag"}, rejected)

	count, _ := reg.Get("count")
	assert.True(t, count.HasUserDefault())
	assert.Equal(t, int64(7), count.EffectiveDefault())

	ids, _ := reg.Get("ids")
	assert.Equal(t, []any{int64(1), int64(2)}, ids.UserDefault())

	assert.Equal(t, map[string]string{"count": "7", "ids": "[1,2]"}, Collect(reg))
}

func TestStore_SaveRegistry(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	require.NoError(t, store.Set(ctx, "kept", "x"))

	reg := registry.New()
	v := registry.NewVariable("name", vartype.String, registry.SourceRequest, "")
	require.True(t, v.SetUserDefaultFromString("bob"))
	reg.Register(v)

	require.NoError(t, store.SaveRegistry(ctx, reg))

	values, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"kept": "x", "name": "bob"}, values)
}
