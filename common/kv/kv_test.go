package kv

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/NeKzor/svm/common/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "test.db"), logger.New("error", "json"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

type testValue struct {
	Name string `json:"name"`
}

func TestSetAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, []string{"bin", "1.0.0", "windows", "sar.dll"}, testValue{Name: "sar.dll"}))

	var got testValue
	found, err := store.Get(ctx, []string{"bin", "1.0.0", "windows", "sar.dll"}, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "sar.dll", got.Name)
}

func TestGetAbsent(t *testing.T) {
	store := newTestStore(t)

	var got testValue
	found, err := store.Get(context.Background(), []string{"bin", "nope"}, &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSetOverwrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	key := []string{"latest", "release"}
	require.NoError(t, store.Set(ctx, key, testValue{Name: "first"}))
	require.NoError(t, store.Set(ctx, key, testValue{Name: "second"}))

	var got testValue
	found, err := store.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "second", got.Name)
}

func TestScanPrefixOrdering(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, []string{"bin", "1.0.0", "linux", "sar.so"}, testValue{Name: "sar.so"}))
	require.NoError(t, store.Set(ctx, []string{"bin", "1.0.0", "windows", "sar.dll"}, testValue{Name: "sar.dll"}))
	require.NoError(t, store.Set(ctx, []string{"bin", "2.0.0", "windows", "sar.dll"}, testValue{Name: "sar2.dll"}))
	require.NoError(t, store.Set(ctx, []string{"latest", "release"}, testValue{Name: "latest"}))

	var keys [][]string
	err := store.Scan(ctx, []string{"bin", "1.0.0"}, func(key []string, value []byte) error {
		keys = append(keys, key)
		var v testValue
		require.NoError(t, json.Unmarshal(value, &v))
		return nil
	})
	require.NoError(t, err)

	require.Len(t, keys, 2)
	// Ascending key order: linux before windows
	assert.Equal(t, []string{"bin", "1.0.0", "linux", "sar.so"}, keys[0])
	assert.Equal(t, []string{"bin", "1.0.0", "windows", "sar.dll"}, keys[1])
}

func TestScanPrefixIsTupleAware(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// "0.0.0-canary" shares the string prefix "0.0.0" but is a different
	// tuple part and must not match the "0.0.0" prefix scan.
	require.NoError(t, store.Set(ctx, []string{"bin", "0.0.0", "windows", "sar.dll"}, testValue{Name: "exact"}))
	require.NoError(t, store.Set(ctx, []string{"bin", "0.0.0-canary", "windows", "sar.dll"}, testValue{Name: "canary"}))

	var names []string
	err := store.Scan(ctx, []string{"bin", "0.0.0"}, func(key []string, value []byte) error {
		var v testValue
		require.NoError(t, json.Unmarshal(value, &v))
		names = append(names, v.Name)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"exact"}, names)
}

func TestScanEmptyPrefix(t *testing.T) {
	store := newTestStore(t)

	count := 0
	err := store.Scan(context.Background(), []string{"bin"}, func(key []string, value []byte) error {
		count++
		return nil
	})
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestKeyPartsRejectSeparator(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.Set(ctx, []string{"bin", "bad\x00part"}, testValue{})
	assert.Error(t, err)

	var got testValue
	_, err = store.Get(ctx, []string{"bin", "bad\x00part"}, &got)
	assert.Error(t, err)
}
