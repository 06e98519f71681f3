package cartstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock Service ---

type mockService struct {
	serverItems []Item

	fetchErr  error
	addErr    error
	updateErr error
	removeErr error

	addCalls    int
	removeCalls int
	fetchCalls  int
}

func (m *mockService) Fetch(ctx context.Context) ([]Item, error) {
	m.fetchCalls++
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	items := make([]Item, len(m.serverItems))
	copy(items, m.serverItems)
	return items, nil
}

func (m *mockService) Add(ctx context.Context, productID, variantID *int64, quantity int) error {
	m.addCalls++
	if m.addErr != nil {
		return m.addErr
	}
	m.serverItems = append(m.serverItems, Item{
		ID:        int64(len(m.serverItems) + 1),
		ProductID: productID,
		VariantID: variantID,
		Quantity:  quantity,
		UnitPrice: 500,
	})
	return nil
}

func (m *mockService) UpdateQuantity(ctx context.Context, itemID int64, quantity int) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	for i := range m.serverItems {
		if m.serverItems[i].ID == itemID {
			m.serverItems[i].Quantity = quantity
		}
	}
	return nil
}

func (m *mockService) Remove(ctx context.Context, itemID int64) error {
	m.removeCalls++
	if m.removeErr != nil {
		return m.removeErr
	}
	kept := m.serverItems[:0]
	for _, it := range m.serverItems {
		if it.ID != itemID {
			kept = append(kept, it)
		}
	}
	m.serverItems = kept
	return nil
}

func pid(v int64) *int64 { return &v }

// --- Tests ---

func TestAddItemSuccessReconcilesWithServer(t *testing.T) {
	svc := &mockService{}
	store := New(svc)

	err := store.AddItem(context.Background(), pid(10), nil, 2, 500)
	require.NoError(t, err)

	state := store.State()
	require.Len(t, state.Items, 1)
	assert.Equal(t, int64(1), state.Items[0].ID, "temp ID should be replaced by the server row")
	assert.Equal(t, 2, state.Items[0].Quantity)
	assert.Equal(t, PendingNone, state.Items[0].Pending)
	// 500*2 = 1000 subtotal, +250 shipping, +100 tax
	assert.Equal(t, int64(1350), state.Total)
}

func TestAddItemFailureRollsBack(t *testing.T) {
	svc := &mockService{addErr: errors.New("insufficient stock")}
	store := New(svc)

	err := store.AddItem(context.Background(), pid(10), nil, 2, 500)
	require.Error(t, err)

	state := store.State()
	assert.Empty(t, state.Items, "failed add must restore the empty snapshot")
	assert.Equal(t, int64(0), state.Total)
	assert.Equal(t, 0, svc.fetchCalls, "no sync after a failed add")
}

func TestRemoveItemFailureRollsBack(t *testing.T) {
	svc := &mockService{
		serverItems: []Item{{ID: 1, ProductID: pid(10), Quantity: 3, UnitPrice: 1000}},
		removeErr:   errors.New("network down"),
	}
	store := New(svc)
	require.NoError(t, store.SyncWithServer(context.Background()))

	before := store.State()
	err := store.RemoveItem(context.Background(), 1)
	require.Error(t, err)

	after := store.State()
	assert.Equal(t, before.Items, after.Items)
	assert.Equal(t, before.Total, after.Total)
}

func TestRemoveItemPendingStopsCountingImmediately(t *testing.T) {
	// The optimistic total must exclude a pending-remove line even before
	// the server confirms.
	svc := &mockService{
		serverItems: []Item{
			{ID: 1, ProductID: pid(10), Quantity: 3, UnitPrice: 1000},
			{ID: 2, ProductID: pid(11), Quantity: 1, UnitPrice: 500},
		},
	}
	store := New(svc)
	require.NoError(t, store.SyncWithServer(context.Background()))

	err := store.RemoveItem(context.Background(), 1)
	require.NoError(t, err)

	state := store.State()
	require.Len(t, state.Items, 1)
	assert.Equal(t, int64(2), state.Items[0].ID)
	// 500 subtotal, +250 shipping, +50 tax
	assert.Equal(t, int64(800), state.Total)
}

func TestUpdateQuantityFailureRollsBack(t *testing.T) {
	svc := &mockService{
		serverItems: []Item{{ID: 1, ProductID: pid(10), Quantity: 2, UnitPrice: 500}},
		updateErr:   errors.New("clamped"),
	}
	store := New(svc)
	require.NoError(t, store.SyncWithServer(context.Background()))

	err := store.UpdateQuantity(context.Background(), 1, 9)
	require.Error(t, err)

	state := store.State()
	assert.Equal(t, 2, state.Items[0].Quantity)
}

func TestSyncWithServerOverwritesLocalState(t *testing.T) {
	svc := &mockService{addErr: errors.New("boom")}
	store := New(svc)

	// Seed some local optimistic state that the server knows nothing about.
	_ = store.AddItem(context.Background(), pid(10), nil, 1, 999)

	svc.serverItems = []Item{{ID: 7, ProductID: pid(20), Quantity: 4, UnitPrice: 1000}}
	require.NoError(t, store.SyncWithServer(context.Background()))

	state := store.State()
	require.Len(t, state.Items, 1)
	assert.Equal(t, int64(7), state.Items[0].ID, "server state wins unconditionally")
	// 4000 subtotal, free shipping, 400 tax
	assert.Equal(t, int64(4400), state.Total)
}

func TestAddItemMergesIntoExistingLine(t *testing.T) {
	svc := &mockService{
		serverItems: []Item{{ID: 1, ProductID: pid(10), Quantity: 1, UnitPrice: 500}},
	}
	store := New(svc)
	require.NoError(t, store.SyncWithServer(context.Background()))

	// Block the confirmation so we can observe the optimistic state shape.
	svc.addErr = errors.New("later")
	err := store.AddItem(context.Background(), pid(10), nil, 2, 500)
	require.Error(t, err)

	// Rolled back: the point is that no duplicate line was synthesized
	// before the failure (quantity merged in place).
	state := store.State()
	require.Len(t, state.Items, 1)
	assert.Equal(t, 1, state.Items[0].Quantity)
}
