// Package cartstore keeps an in-memory mirror of a server-side cart with
// optimistic updates.
//
// Mutations apply locally before the server call resolves; on failure the
// store rolls back to the snapshot taken just before the mutation and
// returns the error. A sync unconditionally replaces local state with the
// server's (the server wins, no merge). All access is serialized behind one
// mutex, so the store is a single-writer state container.
package cartstore

import (
	"context"
	"sync"

	"github.com/glowora/glowora-api/internal/pricing"
)

// PendingOp tags items whose server confirmation is outstanding. The tag is
// in-memory only; it is never persisted.
type PendingOp string

const (
	PendingNone   PendingOp = ""
	PendingAdd    PendingOp = "add"
	PendingRemove PendingOp = "remove"
)

// Item is one mirrored cart line.
type Item struct {
	ID        int64
	ProductID *int64
	VariantID *int64
	Quantity  int
	UnitPrice int64
	Pending   PendingOp
}

// Snapshot is the full observable state of the store.
type Snapshot struct {
	Items []Item
	Total int64
}

// Service is the server half of the cart. Fetch returns the authoritative
// cart contents; the mutating calls persist and return nothing further —
// callers re-fetch to reconcile.
type Service interface {
	Fetch(ctx context.Context) ([]Item, error)
	Add(ctx context.Context, productID, variantID *int64, quantity int) error
	UpdateQuantity(ctx context.Context, itemID int64, quantity int) error
	Remove(ctx context.Context, itemID int64) error
}

// Store mirrors the server cart. The zero value is not usable; use New.
type Store struct {
	mu      sync.Mutex
	svc     Service
	items   []Item
	total   int64
	tempIDs int64
}

func New(svc Service) *Store {
	return &Store{svc: svc}
}

// State returns a copy of the current items and total.
func (s *Store) State() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	items := make([]Item, len(s.items))
	copy(items, s.items)
	return Snapshot{Items: items, Total: s.total}
}

func (s *Store) restoreLocked(snap Snapshot) {
	s.items = snap.Items
	s.total = snap.Total
}

func (s *Store) recomputeTotalLocked() {
	lines := make([]pricing.Line, 0, len(s.items))
	for _, it := range s.items {
		if it.Pending == PendingRemove {
			continue
		}
		lines = append(lines, pricing.Line{UnitPrice: it.UnitPrice, Quantity: it.Quantity})
	}
	s.total = pricing.Calculate(lines).TotalAmount
}

// SyncWithServer replaces local state with the server's cart. Any local
// optimistic state is discarded, including in-flight pending items.
func (s *Store) SyncWithServer(ctx context.Context) error {
	items, err := s.svc.Fetch(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = items
	s.recomputeTotalLocked()
	return nil
}

// AddItem optimistically appends a synthesized pending item (or bumps the
// quantity of a matching line), then confirms with the server. On failure
// the pre-mutation snapshot is restored and the error returned. On success
// the store re-fetches to pick up the server-assigned row.
func (s *Store) AddItem(ctx context.Context, productID, variantID *int64, quantity int, unitPrice int64) error {
	s.mu.Lock()
	snap := s.snapshotLocked()

	if idx := s.findLineLocked(productID, variantID); idx >= 0 {
		s.items[idx].Quantity += quantity
		s.items[idx].Pending = PendingAdd
	} else {
		s.tempIDs--
		s.items = append(s.items, Item{
			ID:        s.tempIDs, // negative, cannot collide with server IDs
			ProductID: productID,
			VariantID: variantID,
			Quantity:  quantity,
			UnitPrice: unitPrice,
			Pending:   PendingAdd,
		})
	}
	s.recomputeTotalLocked()
	s.mu.Unlock()

	if err := s.svc.Add(ctx, productID, variantID, quantity); err != nil {
		s.mu.Lock()
		s.restoreLocked(snap)
		s.mu.Unlock()
		return err
	}

	return s.SyncWithServer(ctx)
}

// UpdateQuantity optimistically sets a line's quantity, then confirms.
func (s *Store) UpdateQuantity(ctx context.Context, itemID int64, quantity int) error {
	s.mu.Lock()
	snap := s.snapshotLocked()

	for i := range s.items {
		if s.items[i].ID == itemID {
			s.items[i].Quantity = quantity
			break
		}
	}
	s.recomputeTotalLocked()
	s.mu.Unlock()

	if err := s.svc.UpdateQuantity(ctx, itemID, quantity); err != nil {
		s.mu.Lock()
		s.restoreLocked(snap)
		s.mu.Unlock()
		return err
	}

	return s.SyncWithServer(ctx)
}

// RemoveItem optimistically marks a line as pending removal (it stops
// counting toward the total immediately), then confirms.
func (s *Store) RemoveItem(ctx context.Context, itemID int64) error {
	s.mu.Lock()
	snap := s.snapshotLocked()

	for i := range s.items {
		if s.items[i].ID == itemID {
			s.items[i].Pending = PendingRemove
			break
		}
	}
	s.recomputeTotalLocked()
	s.mu.Unlock()

	if err := s.svc.Remove(ctx, itemID); err != nil {
		s.mu.Lock()
		s.restoreLocked(snap)
		s.mu.Unlock()
		return err
	}

	return s.SyncWithServer(ctx)
}

func (s *Store) findLineLocked(productID, variantID *int64) int {
	for i, it := range s.items {
		if it.Pending == PendingRemove {
			continue
		}
		if productID != nil && it.ProductID != nil && *it.ProductID == *productID {
			return i
		}
		if variantID != nil && it.VariantID != nil && *it.VariantID == *variantID {
			return i
		}
	}
	return -1
}
