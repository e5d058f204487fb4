package handler

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"carrier-gateway/internal/core/cache"
	"carrier-gateway/internal/core/config"
	"carrier-gateway/internal/features/shipping/converter"
	"carrier-gateway/internal/features/shipping/domain"
	"carrier-gateway/internal/features/shipping/ports"
	"carrier-gateway/internal/features/shipping/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubBackend overrides only the operations a test exercises; the embedded
// interface panics on anything unexpected.
type stubBackend struct {
	ports.CarrierBackend

	createResult *domain.CreateOrderResult
	createErr    error
	trackResult  *domain.TrackingResult
	trackErr     error
	svcResult    *domain.ServiceabilityResult
	svcErr       error
	document     *domain.Document
	documentErr  error
	cancelErr    error
}

func (s *stubBackend) Mode() string { return "stub" }

func (s *stubBackend) CreateOrder(ctx context.Context, order *domain.WireOrder) (*domain.CreateOrderResult, error) {
	return s.createResult, s.createErr
}

func (s *stubBackend) TrackOrder(ctx context.Context, orderID string) (*domain.TrackingResult, error) {
	return s.trackResult, s.trackErr
}

func (s *stubBackend) TrackByAWB(ctx context.Context, awb string) (*domain.TrackingResult, error) {
	return s.trackResult, s.trackErr
}

func (s *stubBackend) CheckServiceability(ctx context.Context, q domain.ServiceabilityQuery) (*domain.ServiceabilityResult, error) {
	return s.svcResult, s.svcErr
}

func (s *stubBackend) FetchInvoice(ctx context.Context, orderID string) (*domain.Document, error) {
	return s.document, s.documentErr
}

func (s *stubBackend) FetchLabel(ctx context.Context, shipmentID string) (*domain.Document, error) {
	return s.document, s.documentErr
}

func (s *stubBackend) CancelOrder(ctx context.Context, orderID string) error { return s.cancelErr }

func (s *stubBackend) States(ctx context.Context, countryID string) (json.RawMessage, error) {
	return json.RawMessage(`{"data": [{"state_id": 1, "state_name": "Maharashtra"}]}`), nil
}

func newTestApp(t *testing.T, backend ports.CarrierBackend) *fiber.App {
	t.Helper()

	mr := miniredis.RunT(t)
	redisCache, err := cache.NewRedisAdapter("redis://" + mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { redisCache.Close() })

	cfg := config.CarrierConfig{
		PickupLocation:                "Primary",
		PickupPincode:                 "400001",
		DefaultLengthCm:               10,
		DefaultBreadthCm:              10,
		DefaultHeightCm:               10,
		ServiceabilityCacheTTLSeconds: 300,
	}
	svc := service.NewShippingService(cfg, backend, converter.New(cfg), redisCache)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("requestid", "test-ray-id")
		return c.Next()
	})
	NewShippingHandler(svc).RegisterRoutes(app)
	return app
}

const orderPayload = `{
	"order_id": "ORD-1001",
	"customer_name": "Priya Sharma",
	"email": "priya@example.com",
	"phone": "9876543210",
	"shipping_address": "221B Baker Street, London, West Zone - 400001",
	"items": [{"product_id": "LIP-ROUGE", "name": "Velvet Lipstick", "quantity": 2, "unit_price": 499}],
	"sub_total": 998,
	"total": 998,
	"payment_method": "Prepaid",
	"weight_kg": 0.6
}`

// TestCreateShipment_Success verifies the created shipment is returned.
func TestCreateShipment_Success(t *testing.T) {
	app := newTestApp(t, &stubBackend{
		createResult: &domain.CreateOrderResult{OrderID: "501234", ShipmentID: "498765", AWB: "777001"},
	})

	req := httptest.NewRequest("POST", "/shipments", strings.NewReader(orderPayload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)

	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var result domain.CreateOrderResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, "777001", result.AWB)
}

// TestCreateShipment_Validation verifies bad payloads are rejected before the
// backend is touched.
func TestCreateShipment_Validation(t *testing.T) {
	app := newTestApp(t, &stubBackend{})

	req := httptest.NewRequest("POST", "/shipments", strings.NewReader(`{"order_id": ""}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)

	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var errResp ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
	assert.Equal(t, "test-ray-id", errResp.RayID)
}

// TestTrackShipment_AWBPending verifies the pending condition maps to 409.
func TestTrackShipment_AWBPending(t *testing.T) {
	app := newTestApp(t, &stubBackend{trackErr: domain.ErrAWBNotAvailable})

	resp, err := app.Test(httptest.NewRequest("GET", "/shipments/ORD-1001/tracking", nil))

	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

// TestTrackByAWB_Success verifies the tracking payload shape.
func TestTrackByAWB_Success(t *testing.T) {
	app := newTestApp(t, &stubBackend{
		trackResult: &domain.TrackingResult{
			AWB:           "777001",
			CourierName:   "BlueDart",
			CurrentStatus: "In Transit",
			Events:        []domain.TrackingEvent{{Status: "PKD", Activity: "Picked up"}},
		},
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/tracking/awb/777001", nil))

	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result domain.TrackingResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, "BlueDart", result.CourierName)
	assert.Len(t, result.Events, 1)
}

// TestCheckServiceability verifies parameter validation and the happy path.
func TestCheckServiceability(t *testing.T) {
	app := newTestApp(t, &stubBackend{
		svcResult: &domain.ServiceabilityResult{
			AvailableCourierCompanies: []domain.CourierOption{{CourierName: "BlueDart", Rate: 85.5}},
		},
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/serviceability", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/serviceability?delivery_pincode=560001&weight=0.5", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result domain.ServiceabilityResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	require.Len(t, result.AvailableCourierCompanies, 1)
	assert.Equal(t, "BlueDart", result.AvailableCourierCompanies[0].CourierName)
}

// TestGetInvoice_StreamsPDF verifies headers and body for document streaming.
func TestGetInvoice_StreamsPDF(t *testing.T) {
	pdf := []byte("%PDF-1.7 invoice")
	app := newTestApp(t, &stubBackend{
		document: &domain.Document{FileURL: "https://cdn/invoice.pdf", Content: pdf, ContentType: "application/pdf"},
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/shipments/ORD-1001/invoice", nil))

	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Equal(t, `inline; filename="invoice-ORD-1001.pdf"`, resp.Header.Get("Content-Disposition"))
}

// TestGetLabel_MissingDocument verifies the missing-URL condition maps to 404.
func TestGetLabel_MissingDocument(t *testing.T) {
	app := newTestApp(t, &stubBackend{documentErr: domain.ErrDocumentURLMissing})

	resp, err := app.Test(httptest.NewRequest("GET", "/labels/498765", nil))

	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

// TestCancelShipment_ErrorMapping verifies 501 for unsupported and 204 on success.
func TestCancelShipment_ErrorMapping(t *testing.T) {
	backend := &stubBackend{}
	app := newTestApp(t, backend)

	resp, err := app.Test(httptest.NewRequest("DELETE", "/shipments/ORD-1001", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	backend.cancelErr = domain.ErrNotSupported
	resp, err = app.Test(httptest.NewRequest("DELETE", "/shipments/ORD-1001", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotImplemented, resp.StatusCode)
}

// TestErrorMapping verifies rate-limit and upstream failures map distinctly.
func TestErrorMapping(t *testing.T) {
	backend := &stubBackend{trackErr: domain.ErrRateLimited}
	app := newTestApp(t, backend)

	resp, err := app.Test(httptest.NewRequest("GET", "/tracking/awb/777001", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)

	backend.trackErr = domain.ErrForbidden
	resp, err = app.Test(httptest.NewRequest("GET", "/tracking/awb/777001", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
}

// TestListStates_Passthrough verifies raw provider payloads pass through.
func TestListStates_Passthrough(t *testing.T) {
	app := newTestApp(t, &stubBackend{})

	resp, err := app.Test(httptest.NewRequest("GET", "/meta/states?country_id=101", nil))

	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body, "data")
}
