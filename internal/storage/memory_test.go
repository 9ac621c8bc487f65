package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	t.Run("Get missing key", func(t *testing.T) {
		_, ok, err := m.Get(ctx, "nope")
		assert.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Set then Get", func(t *testing.T) {
		require.NoError(t, m.Set(ctx, "k", []byte(`{"a":1}`)))

		v, ok, err := m.Get(ctx, "k")
		assert.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []byte(`{"a":1}`), v)
	})

	t.Run("Returned value is a copy", func(t *testing.T) {
		require.NoError(t, m.Set(ctx, "copy", []byte("abc")))

		v, _, _ := m.Get(ctx, "copy")
		v[0] = 'X'

		again, _, _ := m.Get(ctx, "copy")
		assert.Equal(t, []byte("abc"), again)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, m.Set(ctx, "gone", []byte("x")))
		require.NoError(t, m.Delete(ctx, "gone"))

		_, ok, err := m.Get(ctx, "gone")
		assert.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestMemoryWatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := NewMemory()
	ch := m.Watch(ctx, "watched")

	require.NoError(t, m.Set(ctx, "watched", []byte("v1")))

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected a change event after Set")
	}

	// changes to other keys are not delivered
	require.NoError(t, m.Set(ctx, "other", []byte("v")))
	select {
	case <-ch:
		t.Fatal("unexpected event for unrelated key")
	case <-time.After(50 * time.Millisecond):
	}
}
