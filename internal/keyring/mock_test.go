package keyring

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockStore_ImplementsInterface(t *testing.T) {
	var _ Store = (*MockStore)(nil)
}

func TestMockStore_SetGetDelete(t *testing.T) {
	store := NewMockStore()

	require.NoError(t, store.Set(ServiceName, KeyConsumerKey, "test-key-123"))

	got, err := store.Get(ServiceName, KeyConsumerKey)
	require.NoError(t, err)
	assert.Equal(t, "test-key-123", got)

	require.NoError(t, store.Delete(ServiceName, KeyConsumerKey))

	_, err = store.Get(ServiceName, KeyConsumerKey)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMockStore_GetNotFound(t *testing.T) {
	_, err := NewMockStore().Get(ServiceName, "nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMockStore_Overwrite(t *testing.T) {
	store := NewMockStore()

	_ = store.Set(ServiceName, "key", "value1")
	_ = store.Set(ServiceName, "key", "value2")

	got, _ := store.Get(ServiceName, "key")
	assert.Equal(t, "value2", got)
}

func TestMockStore_WithError(t *testing.T) {
	testErr := errors.New("keyring unavailable")
	store := NewMockStore().WithError(testErr)

	_, err := store.Get(ServiceName, "key")
	assert.ErrorIs(t, err, testErr)
	assert.ErrorIs(t, store.Set(ServiceName, "key", "v"), testErr)
	assert.ErrorIs(t, store.Delete(ServiceName, "key"), testErr)
}

func TestMockStore_IsolatedByService(t *testing.T) {
	store := NewMockStore()

	_ = store.Set("service1", "key", "value1")
	_ = store.Set("service2", "key", "value2")

	got1, _ := store.Get("service1", "key")
	got2, _ := store.Get("service2", "key")
	assert.Equal(t, "value1", got1)
	assert.Equal(t, "value2", got2)
}
