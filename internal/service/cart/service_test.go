package cart

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/shopspring/decimal"

	"storefront-checkout/internal/backend"
	"storefront-checkout/internal/domain"
)

type stubBackend struct {
	items     []backend.CartItem
	showErr   error
	addErr    error
	deleteErr error

	added   []backend.AddItemInput
	deleted []deleteCall
	onShow  func()
}

type deleteCall struct {
	deviceID         string
	productID        string
	variantSignature string
}

func (s *stubBackend) ShowCart(_ context.Context, _ string) ([]backend.CartItem, error) {
	if s.onShow != nil {
		s.onShow()
	}
	return s.items, s.showErr
}

func (s *stubBackend) AddItem(_ context.Context, _ string, in backend.AddItemInput) error {
	s.added = append(s.added, in)
	return s.addErr
}

func (s *stubBackend) DeleteItem(_ context.Context, deviceID, productID, variantSignature string) error {
	s.deleted = append(s.deleted, deleteCall{deviceID, productID, variantSignature})
	return s.deleteErr
}

func newService(b *stubBackend) *Service {
	return New(b, log.New(io.Discard, "", 0))
}

func TestFetchNormalizesRows(t *testing.T) {
	b := &stubBackend{items: []backend.CartItem{{
		ProductID:        "P1",
		VariantSignature: "red-cotton",
		Quantity:         2,
		SelectedSize:     "XL",
		SelectedAttrs:    map[string]string{"color": "red"},
		HumanAttrs: []backend.HumanAttribute{
			{Name: "Color", Label: "Red", PriceDelta: "2.50"},
		},
		Price: backend.PriceBreakdown{BasePrice: "10", AttributesDelta: "2.50"},
	}}}
	svc := newService(b)

	rows, err := svc.Fetch(context.Background(), "dev-1")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	row := rows[0]
	if row.RowID != "P1|red-cotton" {
		t.Fatalf("unexpected rowId %q", row.RowID)
	}
	// unitPrice missing from the payload: reconstructed as base + delta.
	if !row.UnitPrice.Equal(decimal.RequireFromString("12.5")) {
		t.Fatalf("unexpected unit price %s", row.UnitPrice)
	}
	if !row.LineTotal.Equal(decimal.RequireFromString("25")) {
		t.Fatalf("unexpected line total %s", row.LineTotal)
	}
	if row.SelectionSummary != "Size: XL | Color: Red" {
		t.Fatalf("unexpected summary %q", row.SelectionSummary)
	}
}

func TestFetchPrefersServerRowID(t *testing.T) {
	b := &stubBackend{items: []backend.CartItem{{
		CartItemID: "ci-7",
		ProductID:  "P1",
		Quantity:   1,
		Price:      backend.PriceBreakdown{UnitPrice: "5"},
	}}}
	svc := newService(b)

	rows, err := svc.Fetch(context.Background(), "dev-1")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if rows[0].RowID != "ci-7" {
		t.Fatalf("unexpected rowId %q", rows[0].RowID)
	}
}

func TestFetchMalformedPricesCoerceToZero(t *testing.T) {
	b := &stubBackend{items: []backend.CartItem{{
		ProductID: "P1",
		Quantity:  0, // missing quantity clamps to 1
		Price:     backend.PriceBreakdown{BasePrice: "oops", UnitPrice: ""},
	}}}
	svc := newService(b)

	rows, err := svc.Fetch(context.Background(), "dev-1")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	row := rows[0]
	if !row.UnitPrice.IsZero() || !row.LineTotal.IsZero() {
		t.Fatalf("expected zero prices, got %s / %s", row.UnitPrice, row.LineTotal)
	}
	if row.Quantity != 1 {
		t.Fatalf("expected quantity clamp to 1, got %d", row.Quantity)
	}
}

func TestFetchVariantsStayDistinct(t *testing.T) {
	b := &stubBackend{items: []backend.CartItem{
		{ProductID: "P1", VariantSignature: "red", Quantity: 1, Price: backend.PriceBreakdown{UnitPrice: "10"}},
		{ProductID: "P1", VariantSignature: "blue", Quantity: 1, Price: backend.PriceBreakdown{UnitPrice: "10"}},
	}}
	svc := newService(b)

	rows, err := svc.Fetch(context.Background(), "dev-1")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected both variant rows, got %d", len(rows))
	}
	if rows[0].RowID == rows[1].RowID {
		t.Fatalf("variant rows share rowId %q", rows[0].RowID)
	}

	// Each row is independently removable.
	if err := svc.Remove(context.Background(), "dev-1", "P1|red"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	remaining := svc.Rows("dev-1")
	if len(remaining) != 1 || remaining[0].RowID != "P1|blue" {
		t.Fatalf("unexpected remaining rows %+v", remaining)
	}
}

func TestFetchStableAcrossUnmodifiedFetches(t *testing.T) {
	b := &stubBackend{items: []backend.CartItem{
		{ProductID: "P1", VariantSignature: "red", Quantity: 1, Price: backend.PriceBreakdown{UnitPrice: "10"}},
	}}
	svc := newService(b)

	first, _ := svc.Fetch(context.Background(), "dev-1")
	second, _ := svc.Fetch(context.Background(), "dev-1")
	if first[0].RowID != second[0].RowID {
		t.Fatalf("rowId unstable: %q vs %q", first[0].RowID, second[0].RowID)
	}
}

func TestFetchErrorDegradesToEmptyCart(t *testing.T) {
	b := &stubBackend{items: []backend.CartItem{
		{ProductID: "P1", Quantity: 1, Price: backend.PriceBreakdown{UnitPrice: "10"}},
	}}
	svc := newService(b)
	if _, err := svc.Fetch(context.Background(), "dev-1"); err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	b.showErr = &domain.TransportError{Err: errors.New("connection refused")}
	rows, err := svc.Fetch(context.Background(), "dev-1")
	if err == nil {
		t.Fatalf("expected surfaced error")
	}
	if rows == nil || len(rows) != 0 {
		t.Fatalf("expected empty rows, got %+v", rows)
	}
	// The local snapshot is untouched by the failed fetch.
	if local := svc.Rows("dev-1"); len(local) != 1 {
		t.Fatalf("snapshot clobbered by failed fetch: %+v", local)
	}
}

func TestFetchStaleResponseDiscarded(t *testing.T) {
	b := &stubBackend{items: []backend.CartItem{
		{ProductID: "P1", Quantity: 2, Price: backend.PriceBreakdown{UnitPrice: "10"}},
	}}
	svc := newService(b)
	if _, err := svc.Fetch(context.Background(), "dev-1"); err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	// A local edit lands while the second fetch is in flight.
	b.onShow = func() {
		if _, err := svc.AdjustQuantity("dev-1", "P1", 3); err != nil {
			t.Fatalf("AdjustQuantity: %v", err)
		}
	}
	rows, err := svc.Fetch(context.Background(), "dev-1")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if rows[0].Quantity != 5 {
		t.Fatalf("stale fetch overwrote local edit: quantity %d", rows[0].Quantity)
	}
}

func TestAdjustQuantityClampsAtOne(t *testing.T) {
	b := &stubBackend{items: []backend.CartItem{
		{ProductID: "P1", Quantity: 2, Price: backend.PriceBreakdown{UnitPrice: "10"}},
	}}
	svc := newService(b)
	if _, err := svc.Fetch(context.Background(), "dev-1"); err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	row, err := svc.AdjustQuantity("dev-1", "P1", -5)
	if err != nil {
		t.Fatalf("AdjustQuantity: %v", err)
	}
	if row.Quantity != 1 {
		t.Fatalf("expected clamp to 1, got %d", row.Quantity)
	}

	row, err = svc.AdjustQuantity("dev-1", "P1", 4)
	if err != nil {
		t.Fatalf("AdjustQuantity: %v", err)
	}
	if row.Quantity != 5 {
		t.Fatalf("expected 5, got %d", row.Quantity)
	}
	if !row.LineTotal.Equal(decimal.RequireFromString("50")) {
		t.Fatalf("line total not recomputed: %s", row.LineTotal)
	}
	// No server traffic for quantity edits.
	if len(b.deleted) != 0 || len(b.added) != 0 {
		t.Fatalf("quantity edit must be local only")
	}
}

func TestAdjustQuantityUnknownRow(t *testing.T) {
	svc := newService(&stubBackend{})
	if _, err := svc.AdjustQuantity("dev-1", "missing", 1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRemoveIssuesServerDeletion(t *testing.T) {
	b := &stubBackend{items: []backend.CartItem{
		{ProductID: "P1", VariantSignature: "red", Quantity: 1, Price: backend.PriceBreakdown{UnitPrice: "10"}},
	}}
	svc := newService(b)
	if _, err := svc.Fetch(context.Background(), "dev-1"); err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if err := svc.Remove(context.Background(), "dev-1", "P1|red"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if len(b.deleted) != 1 {
		t.Fatalf("expected one deletion call, got %d", len(b.deleted))
	}
	call := b.deleted[0]
	if call.deviceID != "dev-1" || call.productID != "P1" || call.variantSignature != "red" {
		t.Fatalf("unexpected deletion call %+v", call)
	}
	if rows := svc.Rows("dev-1"); len(rows) != 0 {
		t.Fatalf("row not removed locally: %+v", rows)
	}
}

func TestRemoveFailureKeepsOptimisticRemoval(t *testing.T) {
	b := &stubBackend{
		items: []backend.CartItem{
			{ProductID: "P1", VariantSignature: "red", Quantity: 1, Price: backend.PriceBreakdown{UnitPrice: "10"}},
		},
		deleteErr: &domain.TransportError{Err: errors.New("connection refused")},
	}
	svc := newService(b)
	if _, err := svc.Fetch(context.Background(), "dev-1"); err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	err := svc.Remove(context.Background(), "dev-1", "P1|red")
	if err == nil {
		t.Fatalf("expected surfaced deletion error")
	}
	// The optimistic removal is not rolled back.
	if rows := svc.Rows("dev-1"); len(rows) != 0 {
		t.Fatalf("row restored after failed deletion: %+v", rows)
	}
}

func TestRemoveUnknownRow(t *testing.T) {
	svc := newService(&stubBackend{})
	if err := svc.Remove(context.Background(), "dev-1", "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAddValidatesProduct(t *testing.T) {
	b := &stubBackend{}
	svc := newService(b)

	err := svc.Add(context.Background(), "dev-1", backend.AddItemInput{})
	var vErr *domain.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(b.added) != 0 {
		t.Fatalf("backend called despite validation failure")
	}
}

func TestAddDefaultsQuantity(t *testing.T) {
	b := &stubBackend{}
	svc := newService(b)

	if err := svc.Add(context.Background(), "dev-1", backend.AddItemInput{ProductID: "P1"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if len(b.added) != 1 || b.added[0].Quantity != 1 {
		t.Fatalf("unexpected add calls %+v", b.added)
	}
}

func TestResetDropsSnapshot(t *testing.T) {
	b := &stubBackend{items: []backend.CartItem{
		{ProductID: "P1", Quantity: 1, Price: backend.PriceBreakdown{UnitPrice: "10"}},
	}}
	svc := newService(b)
	if _, err := svc.Fetch(context.Background(), "dev-1"); err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	svc.Reset("dev-1")
	if rows := svc.Rows("dev-1"); len(rows) != 0 {
		t.Fatalf("snapshot survived reset: %+v", rows)
	}
}
