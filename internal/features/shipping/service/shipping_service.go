package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"carrier-gateway/internal/core/cache"
	"carrier-gateway/internal/core/config"
	"carrier-gateway/internal/core/logger"
	ordersdomain "carrier-gateway/internal/features/orders/domain"
	"carrier-gateway/internal/features/shipping/converter"
	"carrier-gateway/internal/features/shipping/domain"
	"carrier-gateway/internal/features/shipping/ports"

	"go.uber.org/zap"
)

// ShippingService is the application façade over the carrier backend. It
// converts internal orders to the wire schema, delegates to whichever API
// generation is configured, and caches serviceability lookups.
type ShippingService struct {
	cfg       config.CarrierConfig
	backend   ports.CarrierBackend
	converter *converter.Converter
	cache     cache.Cache
	logger    *zap.Logger
}

// NewShippingService creates the service.
func NewShippingService(cfg config.CarrierConfig, backend ports.CarrierBackend, conv *converter.Converter, c cache.Cache) *ShippingService {
	return &ShippingService{
		cfg:       cfg,
		backend:   backend,
		converter: conv,
		cache:     c,
		logger:    logger.Get(),
	}
}

// Mode names the active API generation.
func (s *ShippingService) Mode() string { return s.backend.Mode() }

// CreateShipment converts the order and registers it with the provider.
// Converter fallback decisions are logged, never fatal.
func (s *ShippingService) CreateShipment(ctx context.Context, order *ordersdomain.Order) (*domain.CreateOrderResult, error) {
	wireOrder, diags := s.converter.Convert(order, s.cfg.PickupLocation)
	if len(diags) > 0 {
		s.logger.Info("Order converted with fallbacks",
			zap.String("order_id", order.ID),
			zap.Int("fallbacks", len(diags)),
		)
	}

	result, err := s.backend.CreateOrder(ctx, wireOrder)
	if err != nil {
		s.logger.Error("Failed to create shipment",
			zap.String("order_id", order.ID),
			zap.String("mode", s.backend.Mode()),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("Shipment created",
		zap.String("order_id", order.ID),
		zap.String("shipment_id", result.ShipmentID),
		zap.String("awb", result.AWB),
	)
	return result, nil
}

// TrackShipment returns tracking state by merchant order id.
func (s *ShippingService) TrackShipment(ctx context.Context, orderID string) (*domain.TrackingResult, error) {
	result, err := s.backend.TrackOrder(ctx, orderID)
	if err != nil {
		s.logTrackingFailure("order_id", orderID, err)
		return nil, err
	}
	return result, nil
}

// TrackByAWB returns tracking state by air waybill.
func (s *ShippingService) TrackByAWB(ctx context.Context, awb string) (*domain.TrackingResult, error) {
	result, err := s.backend.TrackByAWB(ctx, awb)
	if err != nil {
		s.logTrackingFailure("awb", awb, err)
		return nil, err
	}
	return result, nil
}

// logTrackingFailure logs at warn for the expected awb-pending condition and
// at error for everything else.
func (s *ShippingService) logTrackingFailure(idField, id string, err error) {
	if errors.Is(err, domain.ErrAWBNotAvailable) {
		s.logger.Warn("Tracking unavailable, AWB not assigned yet", zap.String(idField, id))
		return
	}
	s.logger.Error("Failed to track shipment", zap.String(idField, id), zap.Error(err))
}

// CheckServiceability answers which couriers can serve a lane, caching
// results. A cache failure degrades to a direct provider call.
func (s *ShippingService) CheckServiceability(ctx context.Context, query domain.ServiceabilityQuery) (*domain.ServiceabilityResult, error) {
	if query.PickupPincode == "" {
		query.PickupPincode = s.cfg.PickupPincode
	}

	key := serviceabilityCacheKey(query)
	if cached, err := s.cache.Get(ctx, key); err == nil {
		var result domain.ServiceabilityResult
		if err := json.Unmarshal(cached, &result); err == nil {
			return &result, nil
		}
		s.logger.Warn("Discarding unparseable serviceability cache entry", zap.String("key", key))
	}

	result, err := s.backend.CheckServiceability(ctx, query)
	if err != nil {
		s.logger.Error("Serviceability check failed",
			zap.String("delivery_pincode", query.DeliveryPincode),
			zap.Error(err),
		)
		return nil, err
	}

	if payload, err := json.Marshal(result); err == nil {
		ttl := time.Duration(s.cfg.ServiceabilityCacheTTLSeconds) * time.Second
		if err := s.cache.Set(ctx, key, payload, ttl); err != nil {
			s.logger.Warn("Failed to cache serviceability result", zap.String("key", key), zap.Error(err))
		}
	}

	return result, nil
}

func serviceabilityCacheKey(q domain.ServiceabilityQuery) string {
	cod := 0
	if q.COD {
		cod = 1
	}
	return fmt.Sprintf("serviceability:%s:%s:%.2f:%d", q.PickupPincode, q.DeliveryPincode, q.WeightKg, cod)
}

// AssignAWB requests courier assignment for a shipment.
func (s *ShippingService) AssignAWB(ctx context.Context, shipmentID, courierID string) (string, error) {
	awb, err := s.backend.AssignAWB(ctx, shipmentID, courierID)
	if err != nil {
		if errors.Is(err, domain.ErrAWBNotAvailable) {
			s.logger.Warn("AWB assignment still pending", zap.String("shipment_id", shipmentID))
		} else {
			s.logger.Error("AWB assignment failed", zap.String("shipment_id", shipmentID), zap.Error(err))
		}
		return "", err
	}
	return awb, nil
}

// OrderDetails returns the provider's raw order payload.
func (s *ShippingService) OrderDetails(ctx context.Context, orderID string) (json.RawMessage, error) {
	raw, err := s.backend.OrderDetails(ctx, orderID)
	if err != nil {
		s.logger.Error("Failed to fetch order details", zap.String("order_id", orderID), zap.Error(err))
		return nil, err
	}
	return raw, nil
}

// FetchInvoice retrieves the invoice PDF for an order.
func (s *ShippingService) FetchInvoice(ctx context.Context, orderID string) (*domain.Document, error) {
	doc, err := s.backend.FetchInvoice(ctx, orderID)
	if err != nil {
		s.logDocumentFailure("invoice", orderID, err)
		return nil, err
	}
	return doc, nil
}

// FetchLabel retrieves the shipping label PDF.
func (s *ShippingService) FetchLabel(ctx context.Context, shipmentID string) (*domain.Document, error) {
	doc, err := s.backend.FetchLabel(ctx, shipmentID)
	if err != nil {
		s.logDocumentFailure("label", shipmentID, err)
		return nil, err
	}
	return doc, nil
}

// FetchManifest retrieves the manifest PDF covering the given AWBs.
func (s *ShippingService) FetchManifest(ctx context.Context, awbs []string) (*domain.Document, error) {
	doc, err := s.backend.FetchManifest(ctx, awbs)
	if err != nil {
		s.logger.Error("Failed to fetch manifest", zap.Strings("awbs", awbs), zap.Error(err))
		return nil, err
	}
	return doc, nil
}

func (s *ShippingService) logDocumentFailure(kind, id string, err error) {
	if errors.Is(err, domain.ErrAWBNotAvailable) {
		s.logger.Warn("Document unavailable, AWB not assigned yet",
			zap.String("document", kind),
			zap.String("id", id),
		)
		return
	}
	s.logger.Error("Failed to fetch document",
		zap.String("document", kind),
		zap.String("id", id),
		zap.Error(err),
	)
}

// CancelShipment cancels an order by merchant order id.
func (s *ShippingService) CancelShipment(ctx context.Context, orderID string) error {
	if err := s.backend.CancelOrder(ctx, orderID); err != nil {
		s.logger.Error("Failed to cancel shipment", zap.String("order_id", orderID), zap.Error(err))
		return err
	}
	s.logger.Info("Shipment cancelled", zap.String("order_id", orderID))
	return nil
}

// CancelByAWB cancels shipments by air waybill.
func (s *ShippingService) CancelByAWB(ctx context.Context, awbs []string) (json.RawMessage, error) {
	return s.backend.CancelByAWB(ctx, awbs)
}

// UpdatePaymentByAWB flips shipments to prepaid after online settlement.
func (s *ShippingService) UpdatePaymentByAWB(ctx context.Context, awbs []string) (json.RawMessage, error) {
	return s.backend.UpdatePaymentByAWB(ctx, awbs)
}

// AirwaybillList lists AWBs registered in a date range.
func (s *ShippingService) AirwaybillList(ctx context.Context, fromDate, toDate string) (json.RawMessage, error) {
	return s.backend.AirwaybillList(ctx, fromDate, toDate)
}

// States lists states for a country.
func (s *ShippingService) States(ctx context.Context, countryID string) (json.RawMessage, error) {
	return s.backend.States(ctx, countryID)
}

// Cities lists cities for a state.
func (s *ShippingService) Cities(ctx context.Context, stateID string) (json.RawMessage, error) {
	return s.backend.Cities(ctx, stateID)
}

// AddWarehouse registers a pickup warehouse with the provider.
func (s *ShippingService) AddWarehouse(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	return s.backend.AddWarehouse(ctx, payload)
}

// Warehouses lists registered warehouses.
func (s *ShippingService) Warehouses(ctx context.Context, warehouseID string) (json.RawMessage, error) {
	return s.backend.Warehouses(ctx, warehouseID)
}

// ZoneRate returns the zone-wise rate card for a lane.
func (s *ShippingService) ZoneRate(ctx context.Context, query domain.ZoneRateQuery) (json.RawMessage, error) {
	return s.backend.ZoneRate(ctx, query)
}

// Remittance lists COD remittances settled on a date.
func (s *ShippingService) Remittance(ctx context.Context, date string) (json.RawMessage, error) {
	return s.backend.Remittance(ctx, date)
}

// RemittanceDetails breaks a remittance down per shipment.
func (s *ShippingService) RemittanceDetails(ctx context.Context, date string) (json.RawMessage, error) {
	return s.backend.RemittanceDetails(ctx, date)
}

// Stores lists connected stores.
func (s *ShippingService) Stores(ctx context.Context, storeID string) (json.RawMessage, error) {
	return s.backend.Stores(ctx, storeID)
}

// StoreOrders lists store orders matching the query.
func (s *ShippingService) StoreOrders(ctx context.Context, query domain.StoreOrderQuery) (json.RawMessage, error) {
	return s.backend.StoreOrders(ctx, query)
}

// StoreOrderDetails returns one store order by order number.
func (s *ShippingService) StoreOrderDetails(ctx context.Context, orderNumber string) (json.RawMessage, error) {
	return s.backend.StoreOrderDetails(ctx, orderNumber)
}

// NDRAction requests a reattempt or return-to-origin for non-delivered shipments.
func (s *ShippingService) NDRAction(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	return s.backend.NDRAction(ctx, payload)
}
