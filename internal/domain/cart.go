package domain

import "github.com/shopspring/decimal"

// SelectedAttribute is one human-readable option choice on a cart row.
// PriceDelta is the amount the option adds on top of the base price.
type SelectedAttribute struct {
	Name       string          `json:"attributeName"`
	Label      string          `json:"optionLabel"`
	PriceDelta decimal.Decimal `json:"priceDelta"`
}

// CartRow is the canonical projection of one server cart entry. RowID is
// unique within a snapshot: the server-issued cart item id when present,
// otherwise productId plus variant signature.
type CartRow struct {
	RowID            string              `json:"rowId"`
	ProductID        string              `json:"productId"`
	VariantSignature string              `json:"variantSignature,omitempty"`
	ProductName      string              `json:"productName,omitempty"`
	ProductImage     string              `json:"productImage,omitempty"`
	SelectedSize     string              `json:"selectedSize,omitempty"`
	SelectedAttrs    map[string]string   `json:"selectedAttributes,omitempty"`
	HumanAttrs       []SelectedAttribute `json:"selectedAttributesHuman,omitempty"`
	SelectionSummary string              `json:"selectionSummary,omitempty"`
	BasePrice        decimal.Decimal     `json:"basePrice"`
	AttributesDelta  decimal.Decimal     `json:"attributesDelta"`
	UnitPrice        decimal.Decimal     `json:"unitPrice"`
	LineTotal        decimal.Decimal     `json:"lineTotal"`
	Quantity         int                 `json:"quantity"`
}
