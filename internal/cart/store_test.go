package cart

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pcforge/storefront/internal/domain"
	"github.com/pcforge/storefront/internal/kv"
)

type mockRemote struct {
	m          sync.Mutex
	serverCart []domain.LineItem
	adds       []int64
	removes    []int64
	err        error
}

func (m *mockRemote) Fetch(context.Context, string) ([]domain.LineItem, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return append([]domain.LineItem(nil), m.serverCart...), nil
}

func (m *mockRemote) Add(_ context.Context, _ string, productID int64, _ int) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	m.adds = append(m.adds, productID)
	return nil
}

func (m *mockRemote) Remove(_ context.Context, _ string, productID int64) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	m.removes = append(m.removes, productID)
	return nil
}

type mockTokens struct {
	token string
}

func (m *mockTokens) Token() (string, bool) {
	return m.token, m.token != ""
}

func newTestStore(remote *mockRemote, tokens *mockTokens) *Store {
	return NewStore(kv.NewMemoryStore(), remote, tokens, zerolog.Nop())
}

func gpu(stock int) domain.LineItem {
	return domain.LineItem{ProductID: 1, Name: "RTX 4070", UnitPrice: 1000, Slug: "rtx-4070", Stock: stock}
}

func TestAddItem_NewItemGetsQuantityOne(t *testing.T) {
	sut := newTestStore(&mockRemote{}, &mockTokens{})

	require.NoError(t, sut.AddItem(context.Background(), gpu(5)))

	items := sut.Items()
	require.Len(t, items, 1)
	assert.Equal(t, int64(1), items[0].ProductID)
	assert.Equal(t, 1, items[0].Quantity)
}

func TestAddItem_RepeatAddIncrements(t *testing.T) {
	sut := newTestStore(&mockRemote{}, &mockTokens{})
	ctx := context.Background()

	require.NoError(t, sut.AddItem(ctx, gpu(5)))
	require.NoError(t, sut.AddItem(ctx, gpu(5)))
	require.NoError(t, sut.AddItem(ctx, gpu(5)))

	items := sut.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
}

func TestAddItem_StockLimit(t *testing.T) {
	sut := newTestStore(&mockRemote{}, &mockTokens{})
	ctx := context.Background()

	const limit = 3
	for i := 0; i < limit; i++ {
		require.NoError(t, sut.AddItem(ctx, gpu(limit)))
	}

	// the (L+1)th add is rejected and mutates nothing
	err := sut.AddItem(ctx, gpu(limit))
	assert.ErrorIs(t, err, ErrStockLimit)
	assert.Equal(t, limit, sut.Items()[0].Quantity)
}

func TestAddItem_ZeroStockRejected(t *testing.T) {
	sut := newTestStore(&mockRemote{}, &mockTokens{})

	err := sut.AddItem(context.Background(), gpu(0))
	assert.ErrorIs(t, err, ErrStockLimit)
	assert.Empty(t, sut.Items())
}

func TestAddItem_PushesDeltaWhenAuthenticated(t *testing.T) {
	remote := &mockRemote{}
	sut := newTestStore(remote, &mockTokens{token: "tok-user"})

	require.NoError(t, sut.AddItem(context.Background(), gpu(5)))

	assert.Equal(t, []int64{1}, remote.adds)
}

func TestAddItem_NoSyncWhenAnonymous(t *testing.T) {
	remote := &mockRemote{}
	sut := newTestStore(remote, &mockTokens{})

	require.NoError(t, sut.AddItem(context.Background(), gpu(5)))

	assert.Empty(t, remote.adds)
}

func TestAddItem_SyncFailureKeepsLocalMutation(t *testing.T) {
	remote := &mockRemote{err: fmt.Errorf("backend down")}
	sut := newTestStore(remote, &mockTokens{token: "tok-user"})

	require.NoError(t, sut.AddItem(context.Background(), gpu(5)))

	require.Len(t, sut.Items(), 1)
	failures := sut.SyncFailures()
	require.Len(t, failures, 1)
	assert.Equal(t, "add", failures[0].Op)
	assert.Equal(t, int64(1), failures[0].ProductID)
}

func TestRemoveItem_RemovesWholeLine(t *testing.T) {
	sut := newTestStore(&mockRemote{}, &mockTokens{})
	ctx := context.Background()

	require.NoError(t, sut.AddItem(ctx, gpu(5)))
	require.NoError(t, sut.AddItem(ctx, gpu(5)))
	require.NoError(t, sut.RemoveItem(ctx, 1))

	assert.Empty(t, sut.Items())
}

func TestRemoveItem_ThenAddYieldsQuantityOne(t *testing.T) {
	sut := newTestStore(&mockRemote{}, &mockTokens{})
	ctx := context.Background()

	require.NoError(t, sut.AddItem(ctx, gpu(5)))
	require.NoError(t, sut.AddItem(ctx, gpu(5)))
	require.NoError(t, sut.RemoveItem(ctx, 1))
	require.NoError(t, sut.AddItem(ctx, gpu(5)))

	items := sut.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Quantity)
}

func TestRemoveItem_PushesDeleteWhenAuthenticated(t *testing.T) {
	remote := &mockRemote{}
	sut := newTestStore(remote, &mockTokens{token: "tok-user"})
	ctx := context.Background()

	require.NoError(t, sut.AddItem(ctx, gpu(5)))
	require.NoError(t, sut.RemoveItem(ctx, 1))

	assert.Equal(t, []int64{1}, remote.removes)
}

func TestTotalPrice_Recomputed(t *testing.T) {
	sut := newTestStore(&mockRemote{}, &mockTokens{})
	ctx := context.Background()

	require.NoError(t, sut.AddItem(ctx, gpu(5)))
	require.NoError(t, sut.SetShippingPrice(ctx, 79))
	assert.Equal(t, float64(1079), sut.TotalPrice())

	require.NoError(t, sut.RemoveItem(ctx, 1))
	assert.Equal(t, float64(79), sut.TotalPrice())
}

func TestClear_Idempotent(t *testing.T) {
	sut := newTestStore(&mockRemote{}, &mockTokens{})
	ctx := context.Background()

	require.NoError(t, sut.AddItem(ctx, gpu(5)))
	require.NoError(t, sut.SetShippingPrice(ctx, 119))

	require.NoError(t, sut.Clear(ctx))
	require.NoError(t, sut.Clear(ctx))

	assert.Empty(t, sut.Items())
	assert.Zero(t, sut.ShippingPrice())
	assert.Zero(t, sut.TotalPrice())
}

func TestClear_DoesNotTouchRemote(t *testing.T) {
	remote := &mockRemote{}
	sut := newTestStore(remote, &mockTokens{token: "tok-user"})
	ctx := context.Background()

	require.NoError(t, sut.AddItem(ctx, gpu(5)))
	require.NoError(t, sut.Clear(ctx))

	assert.Empty(t, remote.removes)
}

func TestFetchServerCart_ServerWins(t *testing.T) {
	remote := &mockRemote{
		serverCart: []domain.LineItem{{ProductID: 1, Name: "SSD", UnitPrice: 500, Quantity: 2, Stock: 5}},
	}
	sut := newTestStore(remote, &mockTokens{token: "tok-user"})
	ctx := context.Background()

	// local-only item added before reconciliation
	require.NoError(t, sut.AddItem(ctx, domain.LineItem{ProductID: 9, Name: "Fan", UnitPrice: 10, Stock: 1}))

	require.NoError(t, sut.FetchServerCart(ctx))

	items := sut.Items()
	require.Len(t, items, 1)
	assert.Equal(t, int64(1), items[0].ProductID)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestFetchServerCart_KeepsShippingPrice(t *testing.T) {
	remote := &mockRemote{serverCart: []domain.LineItem{}}
	sut := newTestStore(remote, &mockTokens{token: "tok-user"})
	ctx := context.Background()

	require.NoError(t, sut.SetShippingPrice(ctx, 79))
	require.NoError(t, sut.FetchServerCart(ctx))

	assert.Equal(t, float64(79), sut.ShippingPrice())
}

func TestFetchServerCart_NoopWhenAnonymous(t *testing.T) {
	remote := &mockRemote{serverCart: []domain.LineItem{{ProductID: 1, Quantity: 2}}}
	sut := newTestStore(remote, &mockTokens{})
	ctx := context.Background()

	require.NoError(t, sut.AddItem(ctx, gpu(5)))
	require.NoError(t, sut.FetchServerCart(ctx))

	// local cart untouched, nothing fetched
	require.Len(t, sut.Items(), 1)
	assert.Equal(t, int64(1), sut.Items()[0].ProductID)
	assert.Equal(t, 1, sut.Items()[0].Quantity)
}

func TestFetchServerCart_FailureLeavesLocalState(t *testing.T) {
	remote := &mockRemote{}
	sut := newTestStore(remote, &mockTokens{token: "tok-user"})
	ctx := context.Background()

	require.NoError(t, sut.AddItem(ctx, gpu(5)))

	remote.m.Lock()
	remote.err = fmt.Errorf("backend down")
	remote.m.Unlock()

	err := sut.FetchServerCart(ctx)
	require.Error(t, err)
	require.Len(t, sut.Items(), 1)
}

func TestStore_RestoresPersistedCart(t *testing.T) {
	state := kv.NewMemoryStore()
	tokens := &mockTokens{}
	ctx := context.Background()

	first := NewStore(state, &mockRemote{}, tokens, zerolog.Nop())
	require.NoError(t, first.AddItem(ctx, gpu(5)))
	require.NoError(t, first.SetShippingPrice(ctx, 79))

	second := NewStore(state, &mockRemote{}, tokens, zerolog.Nop())
	require.Len(t, second.Items(), 1)
	assert.Equal(t, float64(1079), second.TotalPrice())
}

func TestStore_CorruptStateStartsEmpty(t *testing.T) {
	state := kv.NewMemoryStore()
	require.NoError(t, state.Put(context.Background(), "shopping-cart", []byte("not json")))

	sut := NewStore(state, &mockRemote{}, &mockTokens{}, zerolog.Nop())
	assert.Empty(t, sut.Items())
}

func TestSyncFailures_Bounded(t *testing.T) {
	remote := &mockRemote{err: fmt.Errorf("backend down")}
	sut := newTestStore(remote, &mockTokens{token: "tok-user"})
	ctx := context.Background()

	for i := 0; i < maxSyncFailures+10; i++ {
		require.NoError(t, sut.AddItem(ctx, domain.LineItem{ProductID: int64(i + 1), UnitPrice: 1, Stock: 1}))
	}

	assert.Len(t, sut.SyncFailures(), maxSyncFailures)
}
