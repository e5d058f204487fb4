package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"carrier-gateway/internal/core/cache"
	"carrier-gateway/internal/core/config"
	ordersdomain "carrier-gateway/internal/features/orders/domain"
	"carrier-gateway/internal/features/shipping/converter"
	"carrier-gateway/internal/features/shipping/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockBackend is a controllable ports.CarrierBackend for service tests.
type mockBackend struct {
	createResult   *domain.CreateOrderResult
	createErr      error
	createdOrders  []*domain.WireOrder
	trackResult    *domain.TrackingResult
	trackErr       error
	svcResult      *domain.ServiceabilityResult
	svcErr         error
	svcCalls       int
	assignAWB      string
	assignErr      error
	cancelErr      error
	documentResult *domain.Document
	documentErr    error
}

func (m *mockBackend) Mode() string { return "mock" }

func (m *mockBackend) CreateOrder(ctx context.Context, order *domain.WireOrder) (*domain.CreateOrderResult, error) {
	m.createdOrders = append(m.createdOrders, order)
	return m.createResult, m.createErr
}

func (m *mockBackend) TrackOrder(ctx context.Context, orderID string) (*domain.TrackingResult, error) {
	return m.trackResult, m.trackErr
}

func (m *mockBackend) TrackByAWB(ctx context.Context, awb string) (*domain.TrackingResult, error) {
	return m.trackResult, m.trackErr
}

func (m *mockBackend) CheckServiceability(ctx context.Context, q domain.ServiceabilityQuery) (*domain.ServiceabilityResult, error) {
	m.svcCalls++
	return m.svcResult, m.svcErr
}

func (m *mockBackend) AssignAWB(ctx context.Context, shipmentID, courierID string) (string, error) {
	return m.assignAWB, m.assignErr
}

func (m *mockBackend) OrderDetails(ctx context.Context, orderID string) (json.RawMessage, error) {
	return json.RawMessage(`{"id": 1}`), nil
}

func (m *mockBackend) FetchInvoice(ctx context.Context, orderID string) (*domain.Document, error) {
	return m.documentResult, m.documentErr
}

func (m *mockBackend) FetchLabel(ctx context.Context, shipmentID string) (*domain.Document, error) {
	return m.documentResult, m.documentErr
}

func (m *mockBackend) FetchManifest(ctx context.Context, awbs []string) (*domain.Document, error) {
	return m.documentResult, m.documentErr
}

func (m *mockBackend) CancelOrder(ctx context.Context, orderID string) error { return m.cancelErr }

func (m *mockBackend) CancelByAWB(ctx context.Context, awbs []string) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

func (m *mockBackend) UpdatePaymentByAWB(ctx context.Context, awbs []string) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

func (m *mockBackend) AirwaybillList(ctx context.Context, fromDate, toDate string) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

func (m *mockBackend) States(ctx context.Context, countryID string) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

func (m *mockBackend) Cities(ctx context.Context, stateID string) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

func (m *mockBackend) AddWarehouse(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

func (m *mockBackend) Warehouses(ctx context.Context, warehouseID string) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

func (m *mockBackend) ZoneRate(ctx context.Context, q domain.ZoneRateQuery) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

func (m *mockBackend) Remittance(ctx context.Context, date string) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

func (m *mockBackend) RemittanceDetails(ctx context.Context, date string) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

func (m *mockBackend) Stores(ctx context.Context, storeID string) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

func (m *mockBackend) StoreOrders(ctx context.Context, q domain.StoreOrderQuery) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

func (m *mockBackend) StoreOrderDetails(ctx context.Context, orderNumber string) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

func (m *mockBackend) NDRAction(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

func (m *mockBackend) Close() error { return nil }

// failingCache always errors, simulating an unavailable Redis.
type failingCache struct{}

func (failingCache) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, errors.New("redis down")
}
func (failingCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return errors.New("redis down")
}
func (failingCache) Delete(ctx context.Context, key string) error { return errors.New("redis down") }
func (failingCache) Ping(ctx context.Context) error               { return errors.New("redis down") }
func (failingCache) Close() error                                 { return nil }

func testCarrierConfig() config.CarrierConfig {
	return config.CarrierConfig{
		PickupLocation:                "Primary",
		PickupPincode:                 "400001",
		ChannelID:                     "42",
		DefaultLengthCm:               10,
		DefaultBreadthCm:              10,
		DefaultHeightCm:               10,
		ServiceabilityCacheTTLSeconds: 300,
	}
}

func newTestService(t *testing.T, backend *mockBackend) (*ShippingService, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	redisCache, err := cache.NewRedisAdapter("redis://" + mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { redisCache.Close() })

	cfg := testCarrierConfig()
	return NewShippingService(cfg, backend, converter.New(cfg), redisCache), mr
}

func testOrder() *ordersdomain.Order {
	return &ordersdomain.Order{
		ID:              "ORD-1001",
		CustomerName:    "Priya Sharma",
		Email:           "priya@example.com",
		Phone:           "9876543210",
		ShippingAddress: "221B Baker Street, London, West Zone - 400001",
		Items: []ordersdomain.OrderItem{
			{ProductID: "LIP-ROUGE", Name: "Velvet Lipstick", Quantity: 2, UnitPrice: 499},
		},
		SubTotal:      998,
		Total:         998,
		PaymentMethod: ordersdomain.PaymentPrepaid,
		WeightKg:      0.6,
		CreatedAt:     time.Date(2026, 2, 14, 10, 30, 0, 0, time.UTC),
	}
}

// TestCreateShipment verifies conversion flows into the backend with the
// configured pickup location.
func TestCreateShipment(t *testing.T) {
	backend := &mockBackend{
		createResult: &domain.CreateOrderResult{OrderID: "501234", ShipmentID: "498765", AWB: "777001"},
	}
	svc, _ := newTestService(t, backend)

	result, err := svc.CreateShipment(context.Background(), testOrder())

	require.NoError(t, err)
	assert.Equal(t, "777001", result.AWB)
	require.Len(t, backend.createdOrders, 1)
	assert.Equal(t, "Primary", backend.createdOrders[0].PickupLocation)
	assert.Equal(t, "ORD-1001", backend.createdOrders[0].OrderID)
}

// TestCheckServiceability_Caching verifies the second identical query is
// served from Redis without touching the backend.
func TestCheckServiceability_Caching(t *testing.T) {
	backend := &mockBackend{
		svcResult: &domain.ServiceabilityResult{
			AvailableCourierCompanies: []domain.CourierOption{
				{CourierID: "24", CourierName: "BlueDart", Rate: 85.5, CODAvailable: true},
			},
		},
	}
	svc, _ := newTestService(t, backend)
	query := domain.ServiceabilityQuery{DeliveryPincode: "560001", WeightKg: 0.5}

	first, err := svc.CheckServiceability(context.Background(), query)
	require.NoError(t, err)
	second, err := svc.CheckServiceability(context.Background(), query)
	require.NoError(t, err)

	assert.Equal(t, 1, backend.svcCalls)
	assert.Equal(t, first, second)
}

// TestCheckServiceability_CacheExpiry verifies the backend is consulted again
// once the TTL elapses.
func TestCheckServiceability_CacheExpiry(t *testing.T) {
	backend := &mockBackend{svcResult: &domain.ServiceabilityResult{}}
	svc, mr := newTestService(t, backend)
	query := domain.ServiceabilityQuery{DeliveryPincode: "560001", WeightKg: 0.5}

	_, err := svc.CheckServiceability(context.Background(), query)
	require.NoError(t, err)

	mr.FastForward(301 * time.Second)

	_, err = svc.CheckServiceability(context.Background(), query)
	require.NoError(t, err)
	assert.Equal(t, 2, backend.svcCalls)
}

// TestCheckServiceability_CacheFailureDegrades verifies an unavailable cache
// never fails the lookup.
func TestCheckServiceability_CacheFailureDegrades(t *testing.T) {
	backend := &mockBackend{svcResult: &domain.ServiceabilityResult{}}
	cfg := testCarrierConfig()
	svc := NewShippingService(cfg, backend, converter.New(cfg), failingCache{})

	result, err := svc.CheckServiceability(context.Background(), domain.ServiceabilityQuery{DeliveryPincode: "560001"})

	require.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, 1, backend.svcCalls)
}

// TestCheckServiceability_DefaultPickupPincode verifies the configured origin
// is substituted when the query omits one.
func TestCheckServiceability_DefaultPickupPincode(t *testing.T) {
	backend := &mockBackend{svcResult: &domain.ServiceabilityResult{}}
	svc, mr := newTestService(t, backend)

	_, err := svc.CheckServiceability(context.Background(), domain.ServiceabilityQuery{DeliveryPincode: "560001"})
	require.NoError(t, err)

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.Contains(t, keys[0], "serviceability:400001:560001")
}

// TestAssignAWB_Pending verifies the pending sentinel passes through.
func TestAssignAWB_Pending(t *testing.T) {
	backend := &mockBackend{assignErr: domain.ErrAWBNotAvailable}
	svc, _ := newTestService(t, backend)

	_, err := svc.AssignAWB(context.Background(), "498765", "")
	assert.ErrorIs(t, err, domain.ErrAWBNotAvailable)
}

// TestTrackShipment_Errors verifies backend errors pass through unwrapped.
func TestTrackShipment_Errors(t *testing.T) {
	backend := &mockBackend{trackErr: domain.ErrAWBNotAvailable}
	svc, _ := newTestService(t, backend)

	_, err := svc.TrackShipment(context.Background(), "ORD-1001")
	assert.ErrorIs(t, err, domain.ErrAWBNotAvailable)

	backend.trackErr = domain.ErrForbidden
	_, err = svc.TrackByAWB(context.Background(), "777001")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

// TestFetchDocuments verifies the document calls delegate and surface errors.
func TestFetchDocuments(t *testing.T) {
	doc := &domain.Document{FileURL: "https://cdn/invoice.pdf", Content: []byte("%PDF"), ContentType: "application/pdf"}
	backend := &mockBackend{documentResult: doc}
	svc, _ := newTestService(t, backend)

	got, err := svc.FetchInvoice(context.Background(), "501234")
	require.NoError(t, err)
	assert.Equal(t, doc, got)

	backend.documentResult = nil
	backend.documentErr = domain.ErrDocumentURLMissing
	_, err = svc.FetchLabel(context.Background(), "498765")
	assert.ErrorIs(t, err, domain.ErrDocumentURLMissing)
}

// TestCancelShipment verifies delegation including the unsupported case.
func TestCancelShipment(t *testing.T) {
	backend := &mockBackend{}
	svc, _ := newTestService(t, backend)

	assert.NoError(t, svc.CancelShipment(context.Background(), "ORD-1001"))

	backend.cancelErr = domain.ErrNotSupported
	assert.ErrorIs(t, svc.CancelShipment(context.Background(), "ORD-1001"), domain.ErrNotSupported)
}
