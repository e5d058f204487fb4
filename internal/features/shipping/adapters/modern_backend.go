package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
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

const wireDateLayout = "2006-01-02"

// ModernBackend talks to the modern API generation: static access-token and
// secret-key credentials embedded in every request body, POST-only endpoints,
// and an application-level status_code carried inside 2xx responses.
type ModernBackend struct {
	cfg    config.CarrierConfig
	client *http.Client
	logger *zap.Logger

	now func() time.Time
}

// NewModernBackend creates a backend for the modern API.
func NewModernBackend(cfg config.CarrierConfig, proxySettings proxy.Settings) *ModernBackend {
	return &ModernBackend{
		cfg:    cfg,
		client: httpclient.NewClientWithProxy(time.Duration(cfg.RequestTimeoutSeconds)*time.Second, proxySettings),
		logger: logger.Get(),
		now:    time.Now,
	}
}

// Mode implements ports.CarrierBackend.
func (b *ModernBackend) Mode() string { return "modern" }

// Close is a no-op; the modern API holds no session state.
func (b *ModernBackend) Close() error { return nil }

// request posts the payload wrapped in the provider envelope with credentials
// injected, and validates both the HTTP status and the application-level
// status_code in the body.
func (b *ModernBackend) request(ctx context.Context, path string, data map[string]interface{}) (json.RawMessage, error) {
	payload := make(map[string]interface{}, len(data)+2)
	for k, v := range data {
		payload[k] = v
	}
	payload["access_token"] = b.cfg.ModernAccessToken
	payload["secret_key"] = b.cfg.ModernSecretKey

	body, err := json.Marshal(map[string]interface{}{"data": payload})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.cfg.ModernBaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

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

	var envelope struct {
		StatusCode json.Number `json:"status_code"`
		Message    string      `json:"message"`
		Remark     string      `json:"remark"`
	}
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, &domain.DecodeError{Status: resp.StatusCode, Snippet: snippet(respBody), Err: err}
	}

	// The provider reports failures inside 2xx responses via status_code.
	if code := envelope.StatusCode.String(); code != "" && code != "200" {
		statusCode, _ := strconv.Atoi(code)
		message := envelope.Message
		if message == "" {
			message = envelope.Remark
		}
		return nil, &domain.APIStatusError{
			StatusCode: statusCode,
			Message:    message,
			Body:       snippet(respBody),
		}
	}

	return respBody, nil
}

// CreateOrder syncs the order as a single-shipment batch. An AWB is usually
// assigned synchronously; when it is not, a best-effort lookup by order number
// runs and its failure degrades to an empty AWB rather than failing the create.
func (b *ModernBackend) CreateOrder(ctx context.Context, order *domain.WireOrder) (*domain.CreateOrderResult, error) {
	total := order.SubTotal + order.ShippingCharges + order.GiftwrapCharges + order.TransactionCharges - order.TotalDiscount

	codAmount := "0"
	if strings.EqualFold(order.PaymentMethod, "COD") {
		codAmount = strconv.FormatFloat(total, 'f', -1, 64)
	}

	products := make([]map[string]interface{}, 0, len(order.OrderItems))
	for _, item := range order.OrderItems {
		products = append(products, map[string]interface{}{
			"product_name":     item.Name,
			"product_sku":      item.SKU,
			"product_quantity": strconv.Itoa(item.Units),
			"product_price":    strconv.FormatFloat(item.SellingPrice, 'f', -1, 64),
			"product_hsn_code": item.HSN,
		})
	}

	shipment := map[string]interface{}{
		"order":           order.OrderID,
		"order_date":      order.OrderDate,
		"name":            strings.TrimSpace(order.BillingCustomerName + " " + order.BillingLastName),
		"add":             order.BillingAddress,
		"city":            order.BillingCity,
		"state":           order.BillingState,
		"pin":             order.BillingPincode,
		"country":         order.BillingCountry,
		"phone":           order.BillingPhone,
		"email":           order.BillingEmail,
		"payment_mode":    order.PaymentMethod,
		"cod_amount":      codAmount,
		"total_amount":    strconv.FormatFloat(total, 'f', -1, 64),
		"products":        products,
		"shipment_length": order.Length,
		"shipment_width":  order.Breadth,
		"shipment_height": order.Height,
		"weight":          order.Weight,
	}

	raw, err := b.request(ctx, "/order/add.json", map[string]interface{}{
		"shipments":      []map[string]interface{}{shipment},
		"pickup_address": order.PickupLocation,
	})
	if err != nil {
		return nil, err
	}

	var resp struct {
		Data map[string]struct {
			Status  string      `json:"status"`
			OrderID json.Number `json:"order_id"`
			Waybill string      `json:"waybill"`
			Remark  string      `json:"remark"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &domain.DecodeError{Status: http.StatusOK, Snippet: snippet(raw), Err: err}
	}

	result := &domain.CreateOrderResult{}
	for _, entry := range resp.Data {
		if !strings.EqualFold(entry.Status, "success") {
			return nil, &domain.APIStatusError{
				StatusCode: http.StatusOK,
				Message:    entry.Remark,
				Body:       snippet(raw),
			}
		}
		result.OrderID = entry.OrderID.String()
		result.ShipmentID = entry.OrderID.String()
		result.AWB = entry.Waybill
		break
	}

	if result.AWB == "" {
		awb, err := b.resolveAWB(ctx, order.OrderID)
		if err != nil {
			b.logger.Warn("AWB not resolvable right after order sync",
				zap.String("order_id", order.OrderID),
				zap.Error(err),
			)
		} else {
			result.AWB = awb
		}
	}

	return result, nil
}

// resolveAWB finds the air waybill for a merchant order number by scanning the
// provider's waybill registry over the configured trailing window.
func (b *ModernBackend) resolveAWB(ctx context.Context, orderID string) (string, error) {
	to := b.now()
	from := to.AddDate(0, 0, -b.cfg.AWBLookupWindowDays)

	raw, err := b.AirwaybillList(ctx, from.Format(wireDateLayout), to.Format(wireDateLayout))
	if err != nil {
		return "", err
	}

	var resp struct {
		Data []struct {
			AWBNumber   string `json:"awb_number"`
			OrderNumber string `json:"order_number"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", &domain.DecodeError{Status: http.StatusOK, Snippet: snippet(raw), Err: err}
	}

	for _, entry := range resp.Data {
		if entry.OrderNumber == orderID && entry.AWBNumber != "" {
			return entry.AWBNumber, nil
		}
	}
	return "", fmt.Errorf("%w: order %s", domain.ErrAWBNotAvailable, orderID)
}

// TrackOrder resolves the AWB for the order number, then tracks by AWB.
func (b *ModernBackend) TrackOrder(ctx context.Context, orderID string) (*domain.TrackingResult, error) {
	awb, err := b.resolveAWB(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return b.TrackByAWB(ctx, awb)
}

// TrackByAWB returns tracking state for one air waybill.
func (b *ModernBackend) TrackByAWB(ctx context.Context, awb string) (*domain.TrackingResult, error) {
	raw, err := b.request(ctx, "/order/track.json", map[string]interface{}{
		"awb_number_list": awb,
	})
	if err != nil {
		return nil, err
	}

	var resp struct {
		Data map[string]struct {
			CurrentStatus        string `json:"current_status"`
			CourierName          string `json:"logistic_name"`
			ExpectedDeliveryDate string `json:"expected_delivery_date"`
			ScanDetail           []struct {
				StatusDateTime string `json:"status_date_time"`
				Status         string `json:"status"`
				Remark         string `json:"status_remark"`
				Location       string `json:"status_location"`
			} `json:"scan_detail"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &domain.DecodeError{Status: http.StatusOK, Snippet: snippet(raw), Err: err}
	}

	entry, ok := resp.Data[awb]
	if !ok {
		return nil, fmt.Errorf("%w: awb %s", domain.ErrAWBNotAvailable, awb)
	}

	result := &domain.TrackingResult{
		AWB:                   awb,
		CourierName:           entry.CourierName,
		ShipmentStatus:        entry.CurrentStatus,
		CurrentStatus:         entry.CurrentStatus,
		EstimatedDeliveryDate: entry.ExpectedDeliveryDate,
		Events:                make([]domain.TrackingEvent, 0, len(entry.ScanDetail)),
	}
	for _, scan := range entry.ScanDetail {
		result.Events = append(result.Events, domain.TrackingEvent{
			Date:     scan.StatusDateTime,
			Status:   scan.Status,
			Activity: scan.Remark,
			Location: scan.Location,
		})
	}
	return result, nil
}

// CheckServiceability merges the pincode-coverage call with the rate-card
// call. Couriers are matched by name case-insensitively; a courier that
// serves the lane but has no rate entry is quoted at the cheapest known rate.
func (b *ModernBackend) CheckServiceability(ctx context.Context, q domain.ServiceabilityQuery) (*domain.ServiceabilityResult, error) {
	coverageRaw, err := b.request(ctx, "/pincode/check.json", map[string]interface{}{
		"pincode": q.DeliveryPincode,
	})
	if err != nil {
		return nil, err
	}

	var coverage struct {
		Data []struct {
			CourierID   json.Number `json:"courier_id"`
			CourierName string      `json:"logistic_name"`
			Prepaid     string      `json:"prepaid"`
			COD         string      `json:"cod"`
		} `json:"data"`
	}
	if err := json.Unmarshal(coverageRaw, &coverage); err != nil {
		return nil, &domain.DecodeError{Status: http.StatusOK, Snippet: snippet(coverageRaw), Err: err}
	}

	codAmount := 0.0
	if q.COD {
		codAmount = q.ProductMRP
	}
	rateRaw, err := b.request(ctx, "/rate/check.json", map[string]interface{}{
		"from_pincode":    q.PickupPincode,
		"to_pincode":      q.DeliveryPincode,
		"shipping_weight": q.WeightKg,
		"cod_amount":      codAmount,
		"payment_method":  paymentMethodKey(q.COD),
	})
	if err != nil {
		return nil, err
	}

	var rates struct {
		Data []struct {
			CourierName      string      `json:"logistic_name"`
			Rate             float64     `json:"rate"`
			ExpectedDelivery json.Number `json:"expected_delivery_days"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rateRaw, &rates); err != nil {
		return nil, &domain.DecodeError{Status: http.StatusOK, Snippet: snippet(rateRaw), Err: err}
	}

	rateByName := make(map[string]float64, len(rates.Data))
	etaByName := make(map[string]string, len(rates.Data))
	minRate := 0.0
	for _, rate := range rates.Data {
		key := strings.ToLower(rate.CourierName)
		rateByName[key] = rate.Rate
		etaByName[key] = rate.ExpectedDelivery.String()
		if minRate == 0 || (rate.Rate > 0 && rate.Rate < minRate) {
			minRate = rate.Rate
		}
	}

	result := &domain.ServiceabilityResult{
		AvailableCourierCompanies: make([]domain.CourierOption, 0, len(coverage.Data)),
	}
	for _, courier := range coverage.Data {
		key := strings.ToLower(courier.CourierName)
		rate, ok := rateByName[key]
		if !ok {
			rate = minRate
		}
		result.AvailableCourierCompanies = append(result.AvailableCourierCompanies, domain.CourierOption{
			CourierID:             courier.CourierID.String(),
			CourierName:           courier.CourierName,
			Rate:                  rate,
			CODAvailable:          strings.EqualFold(courier.COD, "Y"),
			PrepaidAvailable:      strings.EqualFold(courier.Prepaid, "Y"),
			EstimatedDeliveryDays: etaByName[key],
		})
	}
	return result, nil
}

func paymentMethodKey(cod bool) string {
	if cod {
		return "COD"
	}
	return "PREPAID"
}

// AssignAWB is implicit on the modern API: orders receive a waybill during
// sync, so assignment resolves the existing one by provider order id.
func (b *ModernBackend) AssignAWB(ctx context.Context, shipmentID, courierID string) (string, error) {
	return b.resolveAWB(ctx, shipmentID)
}

// OrderDetails returns the raw provider order payload by order number.
func (b *ModernBackend) OrderDetails(ctx context.Context, orderID string) (json.RawMessage, error) {
	return b.request(ctx, "/order/details.json", map[string]interface{}{
		"order_number": orderID,
	})
}

// FetchInvoice resolves the order's AWB, then fetches the invoice PDF.
func (b *ModernBackend) FetchInvoice(ctx context.Context, orderID string) (*domain.Document, error) {
	awb, err := b.resolveAWB(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return b.fetchDocumentByAWB(ctx, "/shipping/invoice.json", []string{awb})
}

// FetchLabel fetches the label PDF. The identifier is the air waybill on this
// generation; labels are keyed by AWB, not shipment id.
func (b *ModernBackend) FetchLabel(ctx context.Context, shipmentID string) (*domain.Document, error) {
	return b.fetchDocumentByAWB(ctx, "/shipping/label.json", []string{shipmentID})
}

// FetchManifest fetches the manifest PDF covering the given AWBs.
func (b *ModernBackend) FetchManifest(ctx context.Context, awbs []string) (*domain.Document, error) {
	return b.fetchDocumentByAWB(ctx, "/shipping/manifest.json", awbs)
}

func (b *ModernBackend) fetchDocumentByAWB(ctx context.Context, path string, awbs []string) (*domain.Document, error) {
	raw, err := b.request(ctx, path, map[string]interface{}{
		"awb_numbers": strings.Join(awbs, ","),
	})
	if err != nil {
		return nil, err
	}

	var resp struct {
		FileName string `json:"file_name"`
		URL      string `json:"url"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &domain.DecodeError{Status: http.StatusOK, Snippet: snippet(raw), Err: err}
	}

	fileURL := resp.URL
	if fileURL == "" {
		fileURL = resp.FileName
	}
	if fileURL == "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrDocumentURLMissing, path)
	}

	return fetchDocument(ctx, b.client, fileURL)
}

// CancelOrder by merchant order id does not exist on this generation; use
// CancelByAWB instead.
func (b *ModernBackend) CancelOrder(ctx context.Context, orderID string) error {
	return fmt.Errorf("%w: cancel by order id, use cancel by awb", domain.ErrNotSupported)
}

// CancelByAWB cancels shipments by air waybill.
func (b *ModernBackend) CancelByAWB(ctx context.Context, awbs []string) (json.RawMessage, error) {
	return b.request(ctx, "/order/cancel.json", map[string]interface{}{
		"awb_numbers": strings.Join(awbs, ","),
	})
}

// UpdatePaymentByAWB flips COD shipments to prepaid after online settlement.
func (b *ModernBackend) UpdatePaymentByAWB(ctx context.Context, awbs []string) (json.RawMessage, error) {
	return b.request(ctx, "/order/update_payment.json", map[string]interface{}{
		"awb_numbers": strings.Join(awbs, ","),
	})
}

// AirwaybillList lists waybills registered in the date range.
func (b *ModernBackend) AirwaybillList(ctx context.Context, fromDate, toDate string) (json.RawMessage, error) {
	return b.request(ctx, "/waybill/list.json", map[string]interface{}{
		"from_date": fromDate,
		"to_date":   toDate,
	})
}

// States lists states for a country.
func (b *ModernBackend) States(ctx context.Context, countryID string) (json.RawMessage, error) {
	return b.request(ctx, "/state/get.json", map[string]interface{}{
		"country_id": countryID,
	})
}

// Cities lists cities for a state.
func (b *ModernBackend) Cities(ctx context.Context, stateID string) (json.RawMessage, error) {
	return b.request(ctx, "/city/get.json", map[string]interface{}{
		"state_id": stateID,
	})
}

// AddWarehouse registers a pickup warehouse.
func (b *ModernBackend) AddWarehouse(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	fields, err := rawToMap(payload)
	if err != nil {
		return nil, err
	}
	return b.request(ctx, "/warehouse/add.json", fields)
}

// Warehouses lists registered warehouses, optionally filtered by id.
func (b *ModernBackend) Warehouses(ctx context.Context, warehouseID string) (json.RawMessage, error) {
	fields := map[string]interface{}{}
	if warehouseID != "" {
		fields["warehouse_id"] = warehouseID
	}
	return b.request(ctx, "/warehouse/get.json", fields)
}

// ZoneRate returns the zone-wise rate card for a lane.
func (b *ModernBackend) ZoneRate(ctx context.Context, q domain.ZoneRateQuery) (json.RawMessage, error) {
	return b.request(ctx, "/rate/zone.json", map[string]interface{}{
		"from_pincode":    q.FromPincode,
		"to_pincode":      q.ToPincode,
		"shipment_weight": q.WeightKg,
		"cod_amount":      q.CODAmount,
	})
}

// Remittance lists COD remittances settled on a date.
func (b *ModernBackend) Remittance(ctx context.Context, date string) (json.RawMessage, error) {
	return b.request(ctx, "/remittance/get.json", map[string]interface{}{
		"date": date,
	})
}

// RemittanceDetails breaks a remittance down per shipment.
func (b *ModernBackend) RemittanceDetails(ctx context.Context, date string) (json.RawMessage, error) {
	return b.request(ctx, "/remittance/details.json", map[string]interface{}{
		"date": date,
	})
}

// Stores lists connected stores, optionally filtered by id.
func (b *ModernBackend) Stores(ctx context.Context, storeID string) (json.RawMessage, error) {
	fields := map[string]interface{}{}
	if storeID != "" {
		fields["store_id"] = storeID
	}
	return b.request(ctx, "/store/get.json", fields)
}

// StoreOrders lists store orders matching the query.
func (b *ModernBackend) StoreOrders(ctx context.Context, q domain.StoreOrderQuery) (json.RawMessage, error) {
	fields := map[string]interface{}{}
	if q.StoreID != "" {
		fields["store_id"] = q.StoreID
	}
	if q.FromDate != "" {
		fields["from_date"] = q.FromDate
	}
	if q.ToDate != "" {
		fields["to_date"] = q.ToDate
	}
	return b.request(ctx, "/store/order/list.json", fields)
}

// StoreOrderDetails returns one store order by order number.
func (b *ModernBackend) StoreOrderDetails(ctx context.Context, orderNumber string) (json.RawMessage, error) {
	return b.request(ctx, "/store/order/details.json", map[string]interface{}{
		"order_number": orderNumber,
	})
}

// NDRAction requests a reattempt or return-to-origin for shipments in
// non-delivery state.
func (b *ModernBackend) NDRAction(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	fields, err := rawToMap(payload)
	if err != nil {
		return nil, err
	}
	return b.request(ctx, "/ndr/action.json", fields)
}

func rawToMap(payload json.RawMessage) (map[string]interface{}, error) {
	fields := map[string]interface{}{}
	if len(payload) == 0 {
		return fields, nil
	}
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}
	return fields, nil
}
