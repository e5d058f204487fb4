package domain

// WireOrder is the order schema the legacy carrier API expects. The modern
// API consumes a reshaped variant of the same data (see the modern backend).
type WireOrder struct {
	// OrderID is the merchant order identifier.
	OrderID string `json:"order_id"`
	// OrderDate is the order timestamp in the provider format "2006-01-02 15:04".
	OrderDate string `json:"order_date"`
	// PickupLocation is the registered warehouse name to ship from.
	PickupLocation string `json:"pickup_location"`
	// ChannelID is the optional sales channel identifier.
	ChannelID string `json:"channel_id,omitempty"`
	// BillingCustomerName is the customer's first name.
	BillingCustomerName string `json:"billing_customer_name"`
	// BillingLastName is the customer's last name.
	BillingLastName string `json:"billing_last_name"`
	// BillingAddress is the street portion of the address.
	BillingAddress string `json:"billing_address"`
	// BillingCity is the city.
	BillingCity string `json:"billing_city"`
	// BillingPincode is the 6-digit postal code.
	BillingPincode string `json:"billing_pincode"`
	// BillingState is the state, title-cased.
	BillingState string `json:"billing_state"`
	// BillingCountry is the country, always "India" for this integration.
	BillingCountry string `json:"billing_country"`
	// BillingEmail is the customer email.
	BillingEmail string `json:"billing_email"`
	// BillingPhone is the 10-digit customer phone.
	BillingPhone string `json:"billing_phone"`
	// ShippingIsBilling is always true; the storefront captures one address.
	ShippingIsBilling bool `json:"shipping_is_billing"`
	// OrderItems are the shipped line items. SKU is the line-item key and
	// must be unique within the order.
	OrderItems []WireOrderItem `json:"order_items"`
	// PaymentMethod is COD or Prepaid.
	PaymentMethod string `json:"payment_method"`
	// SubTotal is the order subtotal.
	SubTotal float64 `json:"sub_total"`
	// ShippingCharges is the shipping fee.
	ShippingCharges float64 `json:"shipping_charges"`
	// GiftwrapCharges is the giftwrap fee.
	GiftwrapCharges float64 `json:"giftwrap_charges"`
	// TransactionCharges is the gateway fee.
	TransactionCharges float64 `json:"transaction_charges"`
	// TotalDiscount is the total discount.
	TotalDiscount float64 `json:"total_discount"`
	// Length is the parcel length in cm.
	Length float64 `json:"length"`
	// Breadth is the parcel breadth in cm.
	Breadth float64 `json:"breadth"`
	// Height is the parcel height in cm.
	Height float64 `json:"height"`
	// Weight is the parcel weight in kg.
	Weight float64 `json:"weight"`
}

// WireOrderItem is a line item in the provider order schema.
type WireOrderItem struct {
	// Name is the product name.
	Name string `json:"name"`
	// SKU is the per-order-unique line item key.
	SKU string `json:"sku"`
	// Units is the quantity.
	Units int `json:"units"`
	// SellingPrice is the unit price.
	SellingPrice float64 `json:"selling_price"`
	// Discount is the per-line discount.
	Discount float64 `json:"discount"`
	// Tax is the per-line tax.
	Tax float64 `json:"tax"`
	// HSN is the harmonized tariff code.
	HSN string `json:"hsn,omitempty"`
}

// CreateOrderResult is what order creation returns to callers.
type CreateOrderResult struct {
	// OrderID is the provider-side order identifier.
	OrderID string `json:"order_id"`
	// ShipmentID is the provider-side shipment identifier.
	ShipmentID string `json:"shipment_id"`
	// AWB is the air waybill, empty when the provider assigns it asynchronously.
	AWB string `json:"awb_code,omitempty"`
}

// TrackingResult is the normalized tracking state of a shipment.
type TrackingResult struct {
	// AWB is the air waybill being tracked.
	AWB string `json:"awb_code"`
	// CourierName is the courier carrying the shipment.
	CourierName string `json:"courier_name"`
	// ShipmentStatus is the provider's coarse shipment status.
	ShipmentStatus string `json:"shipment_status"`
	// CurrentStatus is the latest human-readable status.
	CurrentStatus string `json:"current_status"`
	// EstimatedDeliveryDate is the provider ETA, verbatim.
	EstimatedDeliveryDate string `json:"estimated_delivery_date,omitempty"`
	// Events is the chronological activity timeline.
	Events []TrackingEvent `json:"activity_timeline"`
}

// TrackingEvent is a single scan in the shipment's journey.
type TrackingEvent struct {
	// Date is the event timestamp, verbatim from the provider.
	Date string `json:"date"`
	// Status is the provider status code/name at this event.
	Status string `json:"status"`
	// Activity describes what happened.
	Activity string `json:"activity"`
	// Location is where the scan happened.
	Location string `json:"location"`
}

// ServiceabilityQuery asks which couriers can carry a parcel between pincodes.
type ServiceabilityQuery struct {
	// PickupPincode is the origin postal code.
	PickupPincode string `json:"pickup_pincode"`
	// DeliveryPincode is the destination postal code.
	DeliveryPincode string `json:"delivery_pincode"`
	// WeightKg is the parcel weight in kilograms.
	WeightKg float64 `json:"weight"`
	// COD indicates cash-on-delivery settlement.
	COD bool `json:"cod"`
	// ProductMRP is the optional declared value.
	ProductMRP float64 `json:"product_mrp,omitempty"`
}

// CourierOption is one courier able to serve a serviceability query.
type CourierOption struct {
	// CourierID is the provider's courier company identifier.
	CourierID string `json:"courier_company_id"`
	// CourierName is the courier display name.
	CourierName string `json:"courier_name"`
	// Rate is the quoted freight charge, zero when the provider quoted none.
	Rate float64 `json:"rate"`
	// CODAvailable reports COD capability on this lane.
	CODAvailable bool `json:"cod_available"`
	// PrepaidAvailable reports prepaid capability on this lane.
	PrepaidAvailable bool `json:"prepaid_available"`
	// EstimatedDeliveryDays is the quoted transit time, verbatim.
	EstimatedDeliveryDays string `json:"estimated_delivery_days,omitempty"`
}

// ServiceabilityResult is the uniform serviceability answer for both API modes.
type ServiceabilityResult struct {
	// AvailableCourierCompanies lists couriers able to serve the lane.
	AvailableCourierCompanies []CourierOption `json:"available_courier_companies"`
}

// Document is a fetched shipping document (invoice, label or manifest).
type Document struct {
	// FileURL is where the provider hosted the generated file.
	FileURL string `json:"file_url"`
	// Content is the fetched PDF bytes.
	Content []byte `json:"-"`
	// ContentType is the MIME type reported by the document host.
	ContentType string `json:"content_type,omitempty"`
}

// PickupLocation is a registered warehouse/origin address at the provider.
type PickupLocation struct {
	// Name is the registered pickup location name.
	Name string `json:"pickup_location"`
	// Status is 1 when the location is active.
	Status int `json:"status"`
	// City is the warehouse city.
	City string `json:"city,omitempty"`
	// Pincode is the warehouse postal code.
	Pincode string `json:"pin_code,omitempty"`
}

// Active reports whether the pickup location is usable for new orders.
func (p PickupLocation) Active() bool {
	return p.Status == 1
}

// ZoneRateQuery asks for the zone-wise rate card between two pincodes.
type ZoneRateQuery struct {
	// FromPincode is the origin postal code.
	FromPincode string `json:"from_pincode"`
	// ToPincode is the destination postal code.
	ToPincode string `json:"to_pincode"`
	// WeightKg is the parcel weight in kilograms.
	WeightKg float64 `json:"shipment_weight"`
	// CODAmount is the COD amount, zero for prepaid.
	CODAmount float64 `json:"cod_amount,omitempty"`
}

// StoreOrderQuery filters the provider's store-order listing.
type StoreOrderQuery struct {
	// StoreID restricts results to one connected store, optional.
	StoreID string `json:"store_id,omitempty"`
	// FromDate is the inclusive start date (YYYY-MM-DD), optional.
	FromDate string `json:"from_date,omitempty"`
	// ToDate is the inclusive end date (YYYY-MM-DD), optional.
	ToDate string `json:"to_date,omitempty"`
}
