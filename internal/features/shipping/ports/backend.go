package ports

import (
	"context"
	"encoding/json"

	"carrier-gateway/internal/features/shipping/domain"
)

// CarrierBackend abstracts one generation of the provider API. Exactly one
// implementation is constructed per process, selected by credential presence.
// Operations a generation does not offer return domain.ErrNotSupported.
//
// Ancillary lookups return json.RawMessage because their payloads are
// provider-defined and passed through to callers without interpretation.
type CarrierBackend interface {
	// Mode names the API generation ("legacy" or "modern").
	Mode() string

	// CreateOrder registers an order with the provider. An empty AWB in the
	// result means assignment is still pending on the provider side.
	CreateOrder(ctx context.Context, order *domain.WireOrder) (*domain.CreateOrderResult, error)

	// TrackOrder returns tracking state by merchant order id.
	TrackOrder(ctx context.Context, orderID string) (*domain.TrackingResult, error)
	// TrackByAWB returns tracking state by air waybill.
	TrackByAWB(ctx context.Context, awb string) (*domain.TrackingResult, error)

	// CheckServiceability lists couriers able to serve a lane, with rates.
	CheckServiceability(ctx context.Context, query domain.ServiceabilityQuery) (*domain.ServiceabilityResult, error)

	// AssignAWB obtains the air waybill for a shipment. Returns
	// domain.ErrAWBNotAvailable while assignment is pending.
	AssignAWB(ctx context.Context, shipmentID, courierID string) (string, error)

	// OrderDetails returns the provider's raw order detail payload.
	OrderDetails(ctx context.Context, orderID string) (json.RawMessage, error)

	// FetchInvoice retrieves the invoice PDF for an order.
	FetchInvoice(ctx context.Context, orderID string) (*domain.Document, error)
	// FetchLabel retrieves the shipping label PDF for a shipment.
	FetchLabel(ctx context.Context, shipmentID string) (*domain.Document, error)
	// FetchManifest retrieves the manifest PDF covering the given AWBs.
	FetchManifest(ctx context.Context, awbs []string) (*domain.Document, error)

	// CancelOrder cancels an order by merchant order id.
	CancelOrder(ctx context.Context, orderID string) error
	// CancelByAWB cancels shipments by air waybill.
	CancelByAWB(ctx context.Context, awbs []string) (json.RawMessage, error)
	// UpdatePaymentByAWB flips shipments to prepaid after online settlement.
	UpdatePaymentByAWB(ctx context.Context, awbs []string) (json.RawMessage, error)
	// AirwaybillList lists AWBs registered in a date range (YYYY-MM-DD).
	AirwaybillList(ctx context.Context, fromDate, toDate string) (json.RawMessage, error)

	// States lists states for a country.
	States(ctx context.Context, countryID string) (json.RawMessage, error)
	// Cities lists cities for a state.
	Cities(ctx context.Context, stateID string) (json.RawMessage, error)
	// AddWarehouse registers a pickup warehouse with the provider.
	AddWarehouse(ctx context.Context, payload json.RawMessage) (json.RawMessage, error)
	// Warehouses lists registered warehouses, optionally filtered by id.
	Warehouses(ctx context.Context, warehouseID string) (json.RawMessage, error)
	// ZoneRate returns the zone-wise rate card for a lane.
	ZoneRate(ctx context.Context, query domain.ZoneRateQuery) (json.RawMessage, error)
	// Remittance lists COD remittances settled on a date.
	Remittance(ctx context.Context, date string) (json.RawMessage, error)
	// RemittanceDetails breaks a remittance down per shipment.
	RemittanceDetails(ctx context.Context, date string) (json.RawMessage, error)
	// Stores lists connected stores, optionally filtered by id.
	Stores(ctx context.Context, storeID string) (json.RawMessage, error)
	// StoreOrders lists store orders matching the query.
	StoreOrders(ctx context.Context, query domain.StoreOrderQuery) (json.RawMessage, error)
	// StoreOrderDetails returns one store order by order number.
	StoreOrderDetails(ctx context.Context, orderNumber string) (json.RawMessage, error)
	// NDRAction requests a delivery reattempt or return-to-origin for
	// shipments in non-delivery state.
	NDRAction(ctx context.Context, payload json.RawMessage) (json.RawMessage, error)

	// Close releases backend resources (background refresh timers).
	// Safe to call multiple times.
	Close() error
}
