package domain

import (
	"encoding/json"
	"time"
)

// PaymentMethod is the settlement mode chosen at checkout.
type PaymentMethod string

const (
	// PaymentCOD indicates cash on delivery.
	PaymentCOD PaymentMethod = "COD"
	// PaymentPrepaid indicates payment was collected online.
	PaymentPrepaid PaymentMethod = "Prepaid"
)

// Order is the internal order record handed to the carrier integration.
// It is produced by the order-management system; the shipping feature only
// reads it. The shipping address arrives as free text and may itself be a
// JSON-encoded structure, depending on which storefront flow captured it.
type Order struct {
	// ID is the unique identifier for the order.
	ID string `json:"order_id"`
	// CustomerName is the customer's full name.
	CustomerName string `json:"customer_name"`
	// Email is the contact email for the customer.
	Email string `json:"email"`
	// Phone is the raw contact phone number as captured at checkout.
	Phone string `json:"phone"`
	// ShippingAddress is the free-text (or JSON-encoded) delivery address.
	ShippingAddress string `json:"shipping_address"`
	// Items contains the purchased line items.
	Items []OrderItem `json:"items"`
	// SubTotal is the sum of line totals before charges and discounts.
	SubTotal float64 `json:"sub_total"`
	// ShippingCharges is the shipping fee collected from the customer.
	ShippingCharges float64 `json:"shipping_charges"`
	// GiftwrapCharges is the optional giftwrap fee.
	GiftwrapCharges float64 `json:"giftwrap_charges"`
	// TransactionCharges is the payment gateway fee passed on, if any.
	TransactionCharges float64 `json:"transaction_charges"`
	// TotalDiscount is the total discount applied to the order.
	TotalDiscount float64 `json:"total_discount"`
	// Total is the final amount payable.
	Total float64 `json:"total"`
	// PaymentMethod is COD or Prepaid.
	PaymentMethod PaymentMethod `json:"payment_method"`
	// WeightKg is the parcel weight if the warehouse recorded one. Zero means unknown.
	WeightKg float64 `json:"weight_kg,omitempty"`
	// CreatedAt is when the order was placed.
	CreatedAt time.Time `json:"created_at"`
}

// OrderItem is a purchased product line.
type OrderItem struct {
	// ProductID identifies the product, when the line is a plain product.
	ProductID string `json:"product_id,omitempty"`
	// ComboID identifies the combo, when the line is a product bundle.
	ComboID string `json:"combo_id,omitempty"`
	// OfferID identifies the offer, when the line came from a promotion.
	OfferID string `json:"offer_id,omitempty"`
	// Name is the product display name. May embed a "(Shade: xxx)" suffix.
	Name string `json:"name"`
	// Quantity is the number of units purchased.
	Quantity int `json:"quantity"`
	// UnitPrice is the selling price per unit.
	UnitPrice float64 `json:"unit_price"`
	// Discount is the per-line discount amount.
	Discount float64 `json:"discount"`
	// Tax is the per-line tax amount.
	Tax float64 `json:"tax"`
	// HSNCode is the harmonized tariff code for the product.
	HSNCode string `json:"hsn_code,omitempty"`
	// SelectedShades carries the chosen shade/variant. Historical checkout
	// flows stored it in several shapes: a plain string, an array of strings,
	// an array of objects, or a single object. Kept raw and decoded lazily.
	SelectedShades json.RawMessage `json:"selected_shades,omitempty"`
}
