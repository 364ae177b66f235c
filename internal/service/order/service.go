// Package order turns the live cart into a submitted order: delivery
// validation, draft assembly, submission and best-effort cart cleanup.
package order

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/shopspring/decimal"

	"storefront-checkout/internal/domain"
	"storefront-checkout/internal/pricing"
)

type backendClient interface {
	SaveOrder(ctx context.Context, draft domain.OrderDraft) (string, error)
	DeleteItem(ctx context.Context, deviceID, productID, variantSignature string) error
}

type Service struct {
	backend  backendClient
	logger   *log.Logger
	tax      decimal.Decimal
	shipping decimal.Decimal
}

func New(backendClient backendClient, tax, shipping decimal.Decimal, logger *log.Logger) *Service {
	return &Service{
		backend:  backendClient,
		logger:   logger,
		tax:      tax,
		shipping: shipping,
	}
}

// Validate blocks submission before any network call. An empty cart is
// reported distinctly from missing delivery fields; whitespace-only values
// count as missing.
func (s *Service) Validate(delivery domain.DeliveryInfo, rows []domain.CartRow) error {
	if len(rows) == 0 {
		return domain.ErrEmptyCart
	}
	var missing []string
	for _, field := range []struct {
		name  string
		value string
	}{
		{"email", delivery.Email},
		{"phone", delivery.Phone},
		{"address", delivery.Address},
		{"city", delivery.City},
	} {
		if strings.TrimSpace(field.value) == "" {
			missing = append(missing, field.name)
		}
	}
	if len(missing) > 0 {
		return &domain.ValidationError{Missing: missing}
	}
	return nil
}

// Assemble builds the submission payload: one item line per cart row with
// prices rounded to two decimals and the variant metadata carried verbatim,
// which the backend needs for fulfillment display.
func (s *Service) Assemble(rows []domain.CartRow, delivery domain.DeliveryInfo, deviceID, notes string) domain.OrderDraft {
	name := strings.TrimSpace(delivery.Name)
	if name == "" {
		name = "Guest"
	}
	delivery.Name = name

	items := make([]domain.ItemLine, 0, len(rows))
	for _, row := range rows {
		items = append(items, domain.ItemLine{
			ProductID:        row.ProductID,
			ProductName:      row.ProductName,
			Quantity:         row.Quantity,
			UnitPrice:        row.UnitPrice.Round(2),
			TotalPrice:       pricing.LineTotal(row.UnitPrice, row.Quantity).Round(2),
			SelectedSize:     row.SelectedSize,
			SelectedAttrs:    row.SelectedAttrs,
			HumanAttrs:       row.HumanAttrs,
			VariantSignature: row.VariantSignature,
		})
	}

	return domain.OrderDraft{
		UserName:   name,
		TotalPrice: pricing.Total(rows, s.tax, s.shipping).Round(2),
		Status:     "pending",
		Notes:      notes,
		DeviceUUID: deviceID,
		Items:      items,
		Delivery:   delivery,
	}
}

// Submit posts the draft. There is no automatic retry; a manual re-submit by
// the user is the recovery path.
func (s *Service) Submit(ctx context.Context, draft domain.OrderDraft) (string, error) {
	orderID, err := s.backend.SaveOrder(ctx, draft)
	if err != nil {
		return "", fmt.Errorf("submit order: %w", err)
	}
	return orderID, nil
}

// CleanupAfterSubmit deletes every submitted cart row server-side on a
// best-effort basis. The order is already committed, so failures are logged
// and never surfaced or retried; the server cart reconciles on the next
// full fetch.
func (s *Service) CleanupAfterSubmit(ctx context.Context, rows []domain.CartRow, deviceID string) {
	for _, row := range rows {
		if err := s.backend.DeleteItem(ctx, deviceID, row.ProductID, row.VariantSignature); err != nil {
			s.logger.Printf("cleanup cart row %s after order: %v", row.RowID, err)
		}
	}
}

// Checkout runs the full flow: validate, assemble, submit, clean up.
// Submission and cleanup are not cancellable once issued: a client that
// disconnects mid-checkout must not abort an order the backend may already
// have committed, nor leave fulfilled rows sitting in the server cart.
func (s *Service) Checkout(ctx context.Context, deviceID string, rows []domain.CartRow, delivery domain.DeliveryInfo, notes string) (string, domain.OrderDraft, error) {
	if err := s.Validate(delivery, rows); err != nil {
		return "", domain.OrderDraft{}, err
	}
	draft := s.Assemble(rows, delivery, deviceID, notes)
	ctx = context.WithoutCancel(ctx)
	orderID, err := s.Submit(ctx, draft)
	if err != nil {
		return "", domain.OrderDraft{}, err
	}
	s.CleanupAfterSubmit(ctx, rows, deviceID)
	return orderID, draft, nil
}
