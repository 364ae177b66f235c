// Package cart maintains the per-device view of the server-held cart and
// applies local mutations to it. The server cart is canonical; the local
// snapshot is a cache refreshed wholesale by Fetch.
package cart

import (
	"context"
	"fmt"
	"log"
	"sync"

	"storefront-checkout/internal/backend"
	"storefront-checkout/internal/domain"
	"storefront-checkout/internal/pricing"
)

type backendClient interface {
	ShowCart(ctx context.Context, deviceID string) ([]backend.CartItem, error)
	AddItem(ctx context.Context, deviceID string, in backend.AddItemInput) error
	DeleteItem(ctx context.Context, deviceID, productID, variantSignature string) error
}

type Service struct {
	backend backendClient
	logger  *log.Logger

	mu        sync.RWMutex
	snapshots map[string]*snapshot
}

// snapshot is one device's cached cart. version counts local edits; a fetch
// that started before the latest edit must not overwrite those edits.
type snapshot struct {
	rows    []domain.CartRow
	version uint64
}

func New(backendClient backendClient, logger *log.Logger) *Service {
	return &Service{
		backend:   backendClient,
		logger:    logger,
		snapshots: make(map[string]*snapshot),
	}
}

// Fetch pulls the device's cart from the backend and replaces the local
// snapshot with the normalized rows. On backend failure the snapshot is left
// alone and an empty slice is returned together with the error, so callers
// render an empty cart and surface the failure instead of crashing. A fetch
// that resolves after a local edit is discarded and the edited rows win.
func (s *Service) Fetch(ctx context.Context, deviceID string) ([]domain.CartRow, error) {
	startVersion := s.editVersion(deviceID)

	items, err := s.backend.ShowCart(ctx, deviceID)
	if err != nil {
		return []domain.CartRow{}, fmt.Errorf("fetch cart: %w", err)
	}
	rows := normalizeItems(items)

	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snapshots[deviceID]
	if snap == nil {
		snap = &snapshot{}
		s.snapshots[deviceID] = snap
	}
	if snap.version != startVersion {
		// Edits happened while the fetch was in flight; the response is stale.
		s.logger.Printf("discarding stale cart fetch for device %s", deviceID)
		return copyRows(snap.rows), nil
	}
	snap.rows = rows
	return copyRows(rows), nil
}

// Rows returns a copy of the current local snapshot.
func (s *Service) Rows(deviceID string) []domain.CartRow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if snap := s.snapshots[deviceID]; snap != nil {
		return copyRows(snap.rows)
	}
	return []domain.CartRow{}
}

// AdjustQuantity applies a quantity delta to a row, clamped to a minimum of
// one. The change is purely local; quantities reach the server only when an
// order is submitted.
func (s *Service) AdjustQuantity(deviceID, rowID string, delta int) (domain.CartRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snapshots[deviceID]
	if snap == nil {
		return domain.CartRow{}, domain.ErrNotFound
	}
	for i := range snap.rows {
		if snap.rows[i].RowID != rowID {
			continue
		}
		qty := snap.rows[i].Quantity + delta
		if qty < 1 {
			qty = 1
		}
		snap.rows[i].Quantity = qty
		snap.rows[i].LineTotal = pricing.LineTotal(snap.rows[i].UnitPrice, qty)
		snap.version++
		return snap.rows[i], nil
	}
	return domain.CartRow{}, domain.ErrNotFound
}

// Remove drops a row from the local snapshot first, then issues the server
// deletion. When the server call fails the row is NOT restored: the removal
// stays applied and the error is returned for surfacing. Responsiveness is
// traded for strict consistency here; the next full fetch reconciles.
func (s *Service) Remove(ctx context.Context, deviceID, rowID string) error {
	s.mu.Lock()
	snap := s.snapshots[deviceID]
	if snap == nil {
		s.mu.Unlock()
		return domain.ErrNotFound
	}
	idx := -1
	for i := range snap.rows {
		if snap.rows[i].RowID == rowID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return domain.ErrNotFound
	}
	removed := snap.rows[idx]
	snap.rows = append(snap.rows[:idx], snap.rows[idx+1:]...)
	snap.version++
	s.mu.Unlock()

	if err := s.backend.DeleteItem(ctx, deviceID, removed.ProductID, removed.VariantSignature); err != nil {
		return fmt.Errorf("delete cart item %s: %w", rowID, err)
	}
	return nil
}

// Add places a product selection into the device's server-held cart. The
// authoritative row (id, resolved prices) arrives with the next Fetch.
func (s *Service) Add(ctx context.Context, deviceID string, in backend.AddItemInput) error {
	if in.ProductID == "" {
		return &domain.ValidationError{Missing: []string{"productId"}}
	}
	if in.Quantity < 1 {
		in.Quantity = 1
	}
	if err := s.backend.AddItem(ctx, deviceID, in); err != nil {
		return fmt.Errorf("add cart item: %w", err)
	}
	return nil
}

// Reset drops the local snapshot after a submitted order. The edit version is
// bumped so an in-flight fetch from before the reset cannot resurrect rows.
func (s *Service) Reset(deviceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snapshots[deviceID]
	if snap == nil {
		snap = &snapshot{}
		s.snapshots[deviceID] = snap
	}
	snap.rows = nil
	snap.version++
}

// normalizeItems converts the backend's loose item shapes into canonical
// rows: stable row identity, defensively parsed prices and a display-ready
// selection summary.
func normalizeItems(items []backend.CartItem) []domain.CartRow {
	rows := make([]domain.CartRow, 0, len(items))
	for _, item := range items {
		attrs := make([]domain.SelectedAttribute, 0, len(item.HumanAttrs))
		for _, a := range item.HumanAttrs {
			attrs = append(attrs, domain.SelectedAttribute{
				Name:       a.Name,
				Label:      a.Label,
				PriceDelta: pricing.ParseAmount(a.PriceDelta),
			})
		}

		base := pricing.ParseAmount(item.Price.BasePrice)
		delta := pricing.ParseAmount(item.Price.AttributesDelta)
		unit := pricing.ParseAmount(item.Price.UnitPrice)
		if unit.IsZero() {
			unit = base.Add(delta)
		}

		qty := item.Quantity
		if qty < 1 {
			qty = 1
		}

		row := domain.CartRow{
			RowID:            pricing.ResolveRowID(item.CartItemID, item.ProductID, item.VariantSignature),
			ProductID:        item.ProductID,
			VariantSignature: item.VariantSignature,
			ProductName:      item.ProductName,
			ProductImage:     item.ProductImage,
			SelectedSize:     item.SelectedSize,
			SelectedAttrs:    item.SelectedAttrs,
			HumanAttrs:       attrs,
			SelectionSummary: pricing.DescribeSelection(item.SelectedSize, attrs),
			BasePrice:        base,
			AttributesDelta:  delta,
			UnitPrice:        unit,
			Quantity:         qty,
		}
		row.LineTotal = pricing.LineTotal(row.UnitPrice, row.Quantity)
		rows = append(rows, row)
	}
	return rows
}

func copyRows(rows []domain.CartRow) []domain.CartRow {
	out := make([]domain.CartRow, len(rows))
	copy(out, rows)
	return out
}

func (s *Service) editVersion(deviceID string) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if snap := s.snapshots[deviceID]; snap != nil {
		return snap.version
	}
	return 0
}
