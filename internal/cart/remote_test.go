package cart

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pcforge/storefront/internal/domain"
)

type mockCartAPI struct {
	m     sync.Mutex
	calls int
	items []domain.LineItem
	err   error
}

func (m *mockCartAPI) FetchCart(context.Context, string) ([]domain.LineItem, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.calls++
	return m.items, m.err
}

func (m *mockCartAPI) AddCartItem(context.Context, string, int64, int) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.calls++
	return m.err
}

func (m *mockCartAPI) RemoveCartItem(context.Context, string, int64) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.calls++
	return m.err
}

func (m *mockCartAPI) callCount() int {
	m.m.Lock()
	defer m.m.Unlock()
	return m.calls
}

func TestRemote_PassesThrough(t *testing.T) {
	backend := &mockCartAPI{items: []domain.LineItem{{ProductID: 1, Quantity: 2}}}
	sut := NewRemote(backend, zerolog.Nop())
	ctx := context.Background()

	items, err := sut.Fetch(ctx, "tok")
	require.NoError(t, err)
	assert.Len(t, items, 1)

	require.NoError(t, sut.Add(ctx, "tok", 1, 1))
	require.NoError(t, sut.Remove(ctx, "tok", 1))
	assert.Equal(t, 3, backend.callCount())
}

func TestRemote_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	backend := &mockCartAPI{err: fmt.Errorf("backend down")}
	sut := NewRemote(backend, zerolog.Nop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.Error(t, sut.Add(ctx, "tok", 1, 1))
	}
	callsBefore := backend.callCount()

	// breaker is open now: the call fails fast without reaching the backend
	err := sut.Add(ctx, "tok", 1, 1)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, callsBefore, backend.callCount())
}
