package domain

import "github.com/shopspring/decimal"

// DeliveryInfo holds the delivery fields collected at checkout.
// Email, Phone, Address and City are required; Name defaults to "Guest".
type DeliveryInfo struct {
	Name         string `json:"name,omitempty"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Company      string `json:"company,omitempty"`
	Address      string `json:"address"`
	City         string `json:"city"`
	Zip          string `json:"zip,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

// ItemLine mirrors one cart row in a submitted order. Unit and total prices
// are rounded to two decimal places at assembly; variant metadata is carried
// verbatim for fulfillment display.
type ItemLine struct {
	ProductID        string              `json:"productId"`
	ProductName      string              `json:"productName,omitempty"`
	Quantity         int                 `json:"quantity"`
	UnitPrice        decimal.Decimal     `json:"unitPrice"`
	TotalPrice       decimal.Decimal     `json:"totalPrice"`
	SelectedSize     string              `json:"selectedSize,omitempty"`
	SelectedAttrs    map[string]string   `json:"selectedAttributes,omitempty"`
	HumanAttrs       []SelectedAttribute `json:"selectedAttributesHuman,omitempty"`
	VariantSignature string              `json:"variantSignature,omitempty"`
}

// OrderDraft is the submission-ready representation of the cart plus
// delivery information. It is derived on demand and never persisted locally.
type OrderDraft struct {
	UserName   string          `json:"userName"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	Status     string          `json:"status"`
	Notes      string          `json:"notes,omitempty"`
	DeviceUUID string          `json:"deviceUuid"`
	Items      []ItemLine      `json:"items"`
	Delivery   DeliveryInfo    `json:"delivery"`
}
