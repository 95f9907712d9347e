package storefront

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerGetOrCreate(t *testing.T) {
	e, _ := newTestEngine(t, newFakeResolver(), &fakeGateway{})
	m := NewManager(e, time.Hour)

	s, created := m.GetOrCreate("")
	require.True(t, created)
	require.NotEmpty(t, s.ID)

	again, created := m.GetOrCreate(s.ID)
	assert.False(t, created)
	assert.Same(t, s, again)

	other, created := m.GetOrCreate("forged-or-expired")
	assert.True(t, created)
	assert.NotEqual(t, "forged-or-expired", other.ID)
	assert.Equal(t, 2, m.Len())
}

func TestManagerSweepsIdleSessions(t *testing.T) {
	e, c := newTestEngine(t, newFakeResolver(), &fakeGateway{})
	m := NewManager(e, time.Hour)

	idle := m.Create()
	_, err := idle.AddItem(context.Background(), "cafe-x", 10)
	require.NoError(t, err)

	c.Advance(40 * time.Minute)
	active := m.Create()
	c.Advance(30 * time.Minute)

	assert.Equal(t, 1, m.Sweep())
	_, ok := m.Get(idle.ID)
	assert.False(t, ok)
	_, ok = m.Get(active.ID)
	assert.True(t, ok)

	_, err = idle.Cart()
	assert.ErrorIs(t, err, ErrNoTenant)
}

func TestManagerRemove(t *testing.T) {
	e, _ := newTestEngine(t, newFakeResolver(), &fakeGateway{})
	m := NewManager(e, 0)

	s := m.Create()
	m.Remove(s.ID)
	assert.Equal(t, 0, m.Len())
	m.Remove("unknown")
}

func TestManagerRunStopsWithContext(t *testing.T) {
	e, _ := newTestEngine(t, newFakeResolver(), &fakeGateway{})
	m := NewManager(e, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestManagerRunDefaultsNonPositiveInterval(t *testing.T) {
	e, _ := newTestEngine(t, newFakeResolver(), &fakeGateway{})
	m := NewManager(e, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NotPanics(t, func() { m.Run(ctx, 0) })
	assert.NotPanics(t, func() { m.Run(ctx, -time.Second) })
}
