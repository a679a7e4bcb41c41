package localstorage

import (
	"testing"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type line struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := New(afero.NewMemMapFs())
	in := []line{{ID: "1", Quantity: 2}, {ID: "2", Quantity: 5}}

	require.NoError(t, store.Save(KeyCart, in))

	var out []line
	found, err := store.Load(KeyCart, &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, in, out)
}

func TestLoadMissingKey(t *testing.T) {
	store := New(nil)
	var out []line
	found, err := store.Load(KeyWishlist, &out)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, out)
}

func TestLoadCorruptValue(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/cart.json", []byte("{not json"), 0o644))

	var out []line
	found, err := New(fs).Load(KeyCart, &out)
	assert.Error(t, err)
	assert.False(t, found)
}

func TestRemoveAndKeys(t *testing.T) {
	store := New(afero.NewMemMapFs())
	require.NoError(t, store.Save(KeyCart, []line{}))
	require.NoError(t, store.Save(KeyUserProfile, map[string]any{"display_name": "Ada"}))

	keys, err := store.Keys()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{KeyCart, KeyUserProfile}, keys)

	require.NoError(t, store.Remove(KeyCart))
	require.NoError(t, store.Remove(KeyCart))

	keys, err = store.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{KeyUserProfile}, keys)
}

func TestInvalidKeys(t *testing.T) {
	store := New(nil)
	for _, key := range []string{"", "  ", "../escape", `a\b`, ".."} {
		assert.ErrorIs(t, store.Save(key, 1), ErrInvalidKey, key)
	}
}

func TestForDeviceIsolatesDevices(t *testing.T) {
	root := afero.NewMemMapFs()
	a, err := ForDevice(root, uuid.New())
	require.NoError(t, err)
	b, err := ForDevice(root, uuid.New())
	require.NoError(t, err)

	require.NoError(t, a.Save(KeyCart, []line{{ID: "a", Quantity: 1}}))

	var out []line
	found, err := b.Load(KeyCart, &out)
	require.NoError(t, err)
	assert.False(t, found)

	_, err = ForDevice(root, uuid.Nil)
	assert.Error(t, err)
}
