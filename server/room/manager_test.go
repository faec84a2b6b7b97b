package room

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ahadchat/server/store"
)

func TestManager_GetOrCreate(t *testing.T) {
	r, _ := newTestRoom(t, sharedSelection(store.VariantLocal, store.NewMemoryStore()))
	m := NewManager(r)

	sess := m.GetOrCreate("")
	require.NotEmpty(t, sess.ID)
	assert.Same(t, sess, m.GetOrCreate(sess.ID))

	other := m.GetOrCreate("unknown")
	assert.NotEqual(t, "unknown", other.ID)
	assert.Equal(t, 2, m.Len())

	got, ok := m.Get(sess.ID)
	assert.True(t, ok)
	assert.Same(t, sess, got)

	m.Delete(sess.ID)
	_, ok = m.Get(sess.ID)
	assert.False(t, ok)
}

func TestManager_SweepKeepsLoggedIn(t *testing.T) {
	r, clock := newTestRoom(t, sharedSelection(store.VariantLocal, store.NewMemoryStore()))
	m := NewManager(r)

	idle := m.GetOrCreate("")
	active := m.GetOrCreate("")
	_, err := r.Login(context.Background(), active, "ahad", "ahad123")
	require.NoError(t, err)

	clock.Advance(time.Hour)
	assert.Zero(t, m.Sweep(2*time.Hour))

	clock.Advance(2 * time.Hour)
	assert.Equal(t, 1, m.Sweep(2*time.Hour))

	_, ok := m.Get(idle.ID)
	assert.False(t, ok)
	_, ok = m.Get(active.ID)
	assert.True(t, ok)
}
