package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"carrier-gateway/internal/core/config"
	"carrier-gateway/internal/core/httpclient"
	"carrier-gateway/internal/core/logger"
	"carrier-gateway/internal/core/proxy"
	"carrier-gateway/internal/features/shipping/domain"

	"go.uber.org/zap"
)

const (
	// maxAuthRetries is how many extra attempts a 401 gets before giving up.
	maxAuthRetries = 2
	// authRetryDelay is the fixed backoff between re-authentication attempts.
	authRetryDelay = 500 * time.Millisecond
)

// LegacyBackend talks to the legacy API generation: bearer-token auth
// obtained through a login call, JSON bodies, errors signaled by HTTP status.
type LegacyBackend struct {
	cfg    config.CarrierConfig
	client *http.Client
	auth   *authSession
	logger *zap.Logger

	// retryDelay is authRetryDelay in production; shortened in tests.
	retryDelay time.Duration
}

// NewLegacyBackend creates a backend for the legacy API.
func NewLegacyBackend(cfg config.CarrierConfig, proxySettings proxy.Settings) *LegacyBackend {
	client := httpclient.NewClientWithProxy(time.Duration(cfg.RequestTimeoutSeconds)*time.Second, proxySettings)

	return &LegacyBackend{
		cfg:        cfg,
		client:     client,
		auth:       newAuthSession(cfg, client),
		logger:     logger.Get(),
		retryDelay: authRetryDelay,
	}
}

// Mode implements ports.CarrierBackend.
func (b *LegacyBackend) Mode() string { return "legacy" }

// Close stops the token refresher. Idempotent.
func (b *LegacyBackend) Close() error { return b.auth.Close() }

// request performs one authenticated call. On 401 it drops the token, forces
// re-authentication, waits a fixed delay and retries, up to maxAuthRetries
// extra attempts.
func (b *LegacyBackend) request(ctx context.Context, method, path string, query url.Values, body interface{}, retryCount int) (json.RawMessage, error) {
	if err := b.auth.authenticate(ctx, false); err != nil {
		return nil, err
	}

	endpoint := b.cfg.LegacyBaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.auth.bearer())

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError(err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		if retryCount < maxAuthRetries {
			b.logger.Warn("Carrier returned 401, re-authenticating",
				zap.String("path", path),
				zap.Int("attempt", retryCount+1),
			)
			b.auth.invalidate()
			if err := b.auth.authenticate(ctx, true); err != nil {
				return nil, err
			}
			time.Sleep(b.retryDelay)
			return b.request(ctx, method, path, query, body, retryCount+1)
		}
		return nil, fmt.Errorf("%w: %s %s", domain.ErrAuthExhausted, method, path)

	case resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: %s", domain.ErrForbidden, snippet(respBody))

	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: %s", domain.ErrRateLimited, snippet(respBody))

	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &domain.APIError{
			Status:     resp.StatusCode,
			StatusText: http.StatusText(resp.StatusCode),
			Body:       snippet(respBody),
		}
	}

	if !json.Valid(respBody) {
		return nil, &domain.DecodeError{
			Status:  resp.StatusCode,
			Snippet: snippet(respBody),
			Err:     fmt.Errorf("response is not valid JSON"),
		}
	}

	return respBody, nil
}

// CreateOrder posts the order in its native schema. When the provider rejects
// the pickup location and enumerates valid ones, the first active location is
// selected and the call retried exactly once.
func (b *LegacyBackend) CreateOrder(ctx context.Context, order *domain.WireOrder) (*domain.CreateOrderResult, error) {
	return b.createOrder(ctx, order, false)
}

func (b *LegacyBackend) createOrder(ctx context.Context, order *domain.WireOrder, pickupRetried bool) (*domain.CreateOrderResult, error) {
	raw, err := b.request(ctx, http.MethodPost, "/orders/create/adhoc", nil, order, 0)
	if err != nil {
		if !pickupRetried {
			if corrected, ok := b.correctPickupLocation(err); ok {
				b.logger.Warn("Wrong pickup location, retrying with first active one",
					zap.String("order_id", order.OrderID),
					zap.String("pickup_location", corrected),
				)
				retried := *order
				retried.PickupLocation = corrected
				return b.createOrder(ctx, &retried, true)
			}
		}
		return nil, err
	}

	var resp struct {
		OrderID    json.Number `json:"order_id"`
		ShipmentID json.Number `json:"shipment_id"`
		AWBCode    string      `json:"awb_code"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &domain.DecodeError{Status: http.StatusOK, Snippet: snippet(raw), Err: err}
	}

	return &domain.CreateOrderResult{
		OrderID:    resp.OrderID.String(),
		ShipmentID: resp.ShipmentID.String(),
		AWB:        resp.AWBCode,
	}, nil
}

// correctPickupLocation inspects a create-order failure for the provider's
// "wrong pickup location" shape, which enumerates the valid locations.
// Returns the first active location name when the failure matches.
func (b *LegacyBackend) correctPickupLocation(err error) (string, bool) {
	apiErr, ok := err.(*domain.APIError)
	if !ok {
		return "", false
	}
	if !strings.Contains(strings.ToLower(apiErr.Body), "pickup location") {
		return "", false
	}

	var failure struct {
		Message string `json:"message"`
		Data    struct {
			PickupLocations []domain.PickupLocation `json:"data"`
		} `json:"data"`
	}
	if jsonErr := json.Unmarshal([]byte(apiErr.Body), &failure); jsonErr != nil {
		return "", false
	}

	for _, loc := range failure.Data.PickupLocations {
		if loc.Active() {
			return loc.Name, true
		}
	}
	return "", false
}

// TrackOrder returns tracking state by merchant order id.
func (b *LegacyBackend) TrackOrder(ctx context.Context, orderID string) (*domain.TrackingResult, error) {
	query := url.Values{}
	query.Set("order_id", orderID)

	raw, err := b.request(ctx, http.MethodGet, "/courier/track", query, nil, 0)
	if err != nil {
		return nil, err
	}
	return parseLegacyTracking(raw)
}

// TrackByAWB returns tracking state by air waybill.
func (b *LegacyBackend) TrackByAWB(ctx context.Context, awb string) (*domain.TrackingResult, error) {
	raw, err := b.request(ctx, http.MethodGet, "/courier/track/awb/"+url.PathEscape(awb), nil, nil, 0)
	if err != nil {
		return nil, err
	}
	return parseLegacyTracking(raw)
}

// legacyTrackingResponse mirrors the subset of the provider tracking payload
// this integration consumes.
type legacyTrackingResponse struct {
	TrackingData struct {
		ShipmentStatus string `json:"shipment_status"`
		CurrentStatus  string `json:"current_status"`
		ETD            string `json:"etd"`
		ShipmentTrack  []struct {
			AWBCode     string `json:"awb_code"`
			CourierName string `json:"courier_name"`
		} `json:"shipment_track"`
		ShipmentTrackActivities []struct {
			Date     string `json:"date"`
			Status   string `json:"status"`
			Activity string `json:"activity"`
			Location string `json:"location"`
		} `json:"shipment_track_activities"`
	} `json:"tracking_data"`
}

func parseLegacyTracking(raw json.RawMessage) (*domain.TrackingResult, error) {
	var resp legacyTrackingResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &domain.DecodeError{Status: http.StatusOK, Snippet: snippet(raw), Err: err}
	}

	result := &domain.TrackingResult{
		ShipmentStatus:        resp.TrackingData.ShipmentStatus,
		CurrentStatus:         resp.TrackingData.CurrentStatus,
		EstimatedDeliveryDate: resp.TrackingData.ETD,
		Events:                make([]domain.TrackingEvent, 0, len(resp.TrackingData.ShipmentTrackActivities)),
	}

	if len(resp.TrackingData.ShipmentTrack) > 0 {
		result.AWB = resp.TrackingData.ShipmentTrack[0].AWBCode
		result.CourierName = resp.TrackingData.ShipmentTrack[0].CourierName
	}

	for _, activity := range resp.TrackingData.ShipmentTrackActivities {
		result.Events = append(result.Events, domain.TrackingEvent{
			Date:     activity.Date,
			Status:   activity.Status,
			Activity: activity.Activity,
			Location: activity.Location,
		})
	}

	return result, nil
}

// CheckServiceability issues the single legacy serviceability call.
func (b *LegacyBackend) CheckServiceability(ctx context.Context, q domain.ServiceabilityQuery) (*domain.ServiceabilityResult, error) {
	query := url.Values{}
	query.Set("pickup_postcode", q.PickupPincode)
	query.Set("delivery_postcode", q.DeliveryPincode)
	query.Set("weight", strconv.FormatFloat(q.WeightKg, 'f', 2, 64))
	if q.COD {
		query.Set("cod", "1")
	} else {
		query.Set("cod", "0")
	}
	if q.ProductMRP > 0 {
		query.Set("declared_value", strconv.FormatFloat(q.ProductMRP, 'f', 2, 64))
	}

	raw, err := b.request(ctx, http.MethodGet, "/courier/serviceability", query, nil, 0)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Data struct {
			AvailableCourierCompanies []struct {
				CourierCompanyID      json.Number `json:"courier_company_id"`
				CourierName           string      `json:"courier_name"`
				Rate                  float64     `json:"rate"`
				COD                   json.Number `json:"cod"`
				EstimatedDeliveryDays string      `json:"estimated_delivery_days"`
			} `json:"available_courier_companies"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &domain.DecodeError{Status: http.StatusOK, Snippet: snippet(raw), Err: err}
	}

	result := &domain.ServiceabilityResult{
		AvailableCourierCompanies: make([]domain.CourierOption, 0, len(resp.Data.AvailableCourierCompanies)),
	}
	for _, courier := range resp.Data.AvailableCourierCompanies {
		codAvailable := courier.COD.String() == "1"
		result.AvailableCourierCompanies = append(result.AvailableCourierCompanies, domain.CourierOption{
			CourierID:             courier.CourierCompanyID.String(),
			CourierName:           courier.CourierName,
			Rate:                  courier.Rate,
			CODAvailable:          codAvailable,
			PrepaidAvailable:      true,
			EstimatedDeliveryDays: courier.EstimatedDeliveryDays,
		})
	}

	return result, nil
}

// AssignAWB requests explicit courier assignment for a shipment.
func (b *LegacyBackend) AssignAWB(ctx context.Context, shipmentID, courierID string) (string, error) {
	payload := map[string]interface{}{
		"shipment_id": shipmentID,
	}
	if courierID != "" {
		payload["courier_id"] = courierID
	}

	raw, err := b.request(ctx, http.MethodPost, "/courier/assign/awb", nil, payload, 0)
	if err != nil {
		return "", err
	}

	var resp struct {
		Response struct {
			Data struct {
				AWBCode string `json:"awb_code"`
			} `json:"data"`
		} `json:"response"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", &domain.DecodeError{Status: http.StatusOK, Snippet: snippet(raw), Err: err}
	}

	if resp.Response.Data.AWBCode == "" {
		return "", domain.ErrAWBNotAvailable
	}
	return resp.Response.Data.AWBCode, nil
}

// OrderDetails returns the raw provider order payload.
func (b *LegacyBackend) OrderDetails(ctx context.Context, orderID string) (json.RawMessage, error) {
	return b.request(ctx, http.MethodGet, "/orders/show/"+url.PathEscape(orderID), nil, nil, 0)
}

// FetchInvoice generates the invoice, then fetches the PDF from the returned URL.
func (b *LegacyBackend) FetchInvoice(ctx context.Context, orderID string) (*domain.Document, error) {
	payload := map[string]interface{}{"ids": []string{orderID}}

	raw, err := b.request(ctx, http.MethodPost, "/orders/print/invoice", nil, payload, 0)
	if err != nil {
		return nil, err
	}
	return b.fetchDocumentFromResponse(ctx, raw, "invoice_url")
}

// FetchLabel generates the shipping label, then fetches the PDF bytes.
func (b *LegacyBackend) FetchLabel(ctx context.Context, shipmentID string) (*domain.Document, error) {
	payload := map[string]interface{}{"shipment_id": []string{shipmentID}}

	raw, err := b.request(ctx, http.MethodPost, "/courier/generate/label", nil, payload, 0)
	if err != nil {
		return nil, err
	}
	return b.fetchDocumentFromResponse(ctx, raw, "label_url")
}

// FetchManifest generates the manifest covering the given AWBs.
func (b *LegacyBackend) FetchManifest(ctx context.Context, awbs []string) (*domain.Document, error) {
	payload := map[string]interface{}{"awbs": awbs}

	raw, err := b.request(ctx, http.MethodPost, "/manifests/print", nil, payload, 0)
	if err != nil {
		return nil, err
	}
	return b.fetchDocumentFromResponse(ctx, raw, "manifest_url")
}

// fetchDocumentFromResponse extracts the named URL field and performs the
// secondary fetch of the document bytes.
func (b *LegacyBackend) fetchDocumentFromResponse(ctx context.Context, raw json.RawMessage, urlField string) (*domain.Document, error) {
	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, &domain.DecodeError{Status: http.StatusOK, Snippet: snippet(raw), Err: err}
	}

	fileURL, _ := fields[urlField].(string)
	if fileURL == "" {
		return nil, fmt.Errorf("%w: field %s", domain.ErrDocumentURLMissing, urlField)
	}

	return fetchDocument(ctx, b.client, fileURL)
}

// fetchDocument downloads a generated document from its hosted URL.
func fetchDocument(ctx context.Context, client *http.Client, fileURL string) (*domain.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create document request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &domain.APIError{
			Status:     resp.StatusCode,
			StatusText: http.StatusText(resp.StatusCode),
			Body:       snippet(body),
		}
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError(err)
	}

	return &domain.Document{
		FileURL:     fileURL,
		Content:     content,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

// CancelOrder cancels an order by merchant order id.
func (b *LegacyBackend) CancelOrder(ctx context.Context, orderID string) error {
	payload := map[string]interface{}{"ids": []string{orderID}}
	_, err := b.request(ctx, http.MethodPost, "/orders/cancel", nil, payload, 0)
	return err
}

// Warehouses lists the pickup locations registered with the provider. The
// warehouseID filter is a modern-API concept and is ignored here.
func (b *LegacyBackend) Warehouses(ctx context.Context, warehouseID string) (json.RawMessage, error) {
	return b.request(ctx, http.MethodGet, "/settings/company/pickup", nil, nil, 0)
}

// The operations below are only wired on the modern API generation.

func (b *LegacyBackend) CancelByAWB(ctx context.Context, awbs []string) (json.RawMessage, error) {
	return nil, fmt.Errorf("%w: cancel by awb", domain.ErrNotSupported)
}

func (b *LegacyBackend) UpdatePaymentByAWB(ctx context.Context, awbs []string) (json.RawMessage, error) {
	return nil, fmt.Errorf("%w: update payment by awb", domain.ErrNotSupported)
}

func (b *LegacyBackend) AirwaybillList(ctx context.Context, fromDate, toDate string) (json.RawMessage, error) {
	return nil, fmt.Errorf("%w: airwaybill list", domain.ErrNotSupported)
}

func (b *LegacyBackend) States(ctx context.Context, countryID string) (json.RawMessage, error) {
	return nil, fmt.Errorf("%w: state lookup", domain.ErrNotSupported)
}

func (b *LegacyBackend) Cities(ctx context.Context, stateID string) (json.RawMessage, error) {
	return nil, fmt.Errorf("%w: city lookup", domain.ErrNotSupported)
}

func (b *LegacyBackend) AddWarehouse(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	return nil, fmt.Errorf("%w: add warehouse", domain.ErrNotSupported)
}

func (b *LegacyBackend) ZoneRate(ctx context.Context, query domain.ZoneRateQuery) (json.RawMessage, error) {
	return nil, fmt.Errorf("%w: zone rate", domain.ErrNotSupported)
}

func (b *LegacyBackend) Remittance(ctx context.Context, date string) (json.RawMessage, error) {
	return nil, fmt.Errorf("%w: remittance", domain.ErrNotSupported)
}

func (b *LegacyBackend) RemittanceDetails(ctx context.Context, date string) (json.RawMessage, error) {
	return nil, fmt.Errorf("%w: remittance details", domain.ErrNotSupported)
}

func (b *LegacyBackend) Stores(ctx context.Context, storeID string) (json.RawMessage, error) {
	return nil, fmt.Errorf("%w: store lookup", domain.ErrNotSupported)
}

func (b *LegacyBackend) StoreOrders(ctx context.Context, query domain.StoreOrderQuery) (json.RawMessage, error) {
	return nil, fmt.Errorf("%w: store order list", domain.ErrNotSupported)
}

func (b *LegacyBackend) StoreOrderDetails(ctx context.Context, orderNumber string) (json.RawMessage, error) {
	return nil, fmt.Errorf("%w: store order details", domain.ErrNotSupported)
}

func (b *LegacyBackend) NDRAction(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	return nil, fmt.Errorf("%w: ndr action", domain.ErrNotSupported)
}
