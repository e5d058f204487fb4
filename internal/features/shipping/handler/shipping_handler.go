package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	ordersdomain "carrier-gateway/internal/features/orders/domain"
	"carrier-gateway/internal/features/shipping/domain"
	"carrier-gateway/internal/features/shipping/service"

	"github.com/gofiber/fiber/v2"
)

// ShippingHandler handles HTTP requests for shipping operations. It is a thin
// boundary: validation and error mapping only, no business logic.
type ShippingHandler struct {
	shippingService *service.ShippingService
}

// NewShippingHandler creates a new ShippingHandler.
func NewShippingHandler(shippingService *service.ShippingService) *ShippingHandler {
	return &ShippingHandler{
		shippingService: shippingService,
	}
}

// ErrorResponse represents an error response with Ray ID.
type ErrorResponse struct {
	// Message is the error description.
	Message string `json:"message"`
	// RayID is the unique request identifier for tracing.
	RayID string `json:"ray_id,omitempty"`
}

// RegisterRoutes mounts all shipping routes on the app.
func (h *ShippingHandler) RegisterRoutes(app *fiber.App) {
	app.Post("/shipments", h.CreateShipment)
	app.Get("/shipments/:orderId", h.GetOrderDetails)
	app.Get("/shipments/:orderId/tracking", h.TrackShipment)
	app.Get("/shipments/:orderId/invoice", h.GetInvoice)
	app.Delete("/shipments/:orderId", h.CancelShipment)
	app.Post("/shipments/:shipmentId/awb", h.AssignAWB)
	app.Get("/labels/:shipmentId", h.GetLabel)
	app.Post("/manifests", h.GetManifest)

	app.Get("/tracking/awb/:awb", h.TrackByAWB)
	app.Get("/serviceability", h.CheckServiceability)

	app.Post("/awbs/cancel", h.CancelByAWB)
	app.Post("/awbs/payment", h.UpdatePaymentByAWB)
	app.Get("/awbs", h.ListAirwaybills)

	app.Get("/meta/states", h.ListStates)
	app.Get("/meta/cities", h.ListCities)
	app.Get("/warehouses", h.ListWarehouses)
	app.Post("/warehouses", h.AddWarehouse)
	app.Get("/rates/zone", h.GetZoneRate)
	app.Get("/remittance", h.GetRemittance)
	app.Get("/remittance/details", h.GetRemittanceDetails)
	app.Get("/stores", h.ListStores)
	app.Get("/stores/orders", h.ListStoreOrders)
	app.Get("/stores/orders/:orderNumber", h.GetStoreOrder)
	app.Post("/ndr/actions", h.NDRAction)
}

// rayID extracts the request id set by the requestid middleware.
func rayID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return ""
}

// respondError maps domain errors onto HTTP statuses.
func respondError(c *fiber.Ctx, err error) error {
	status := fiber.StatusBadGateway

	switch {
	case errors.Is(err, domain.ErrNotSupported):
		status = fiber.StatusNotImplemented
	case errors.Is(err, domain.ErrAWBNotAvailable):
		// Expected while the provider has not assigned a waybill; retry later.
		status = fiber.StatusConflict
	case errors.Is(err, domain.ErrRateLimited):
		status = fiber.StatusTooManyRequests
	case errors.Is(err, domain.ErrDocumentURLMissing):
		status = fiber.StatusNotFound
	}

	return c.Status(status).JSON(ErrorResponse{
		Message: err.Error(),
		RayID:   rayID(c),
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Message: message,
		RayID:   rayID(c),
	})
}

// streamDocument writes a fetched PDF inline.
func streamDocument(c *fiber.Ctx, doc *domain.Document, filename string) error {
	contentType := doc.ContentType
	if contentType == "" {
		contentType = "application/pdf"
	}
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", filename))
	return c.Send(doc.Content)
}

// CreateShipment godoc
// @Summary Register an order with the carrier
// @Description Converts the order to the carrier schema and creates a shipment
// @Tags shipments
// @Accept json
// @Produce json
// @Param order body ordersdomain.Order true "Order to ship"
// @Success 201 {object} domain.CreateOrderResult
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /shipments [post]
func (h *ShippingHandler) CreateShipment(c *fiber.Ctx) error {
	var order ordersdomain.Order
	if err := c.BodyParser(&order); err != nil {
		return badRequest(c, "invalid order payload: "+err.Error())
	}
	if order.ID == "" {
		return badRequest(c, "order id is required")
	}
	if len(order.Items) == 0 {
		return badRequest(c, "order has no items")
	}

	result, err := h.shippingService.CreateShipment(c.UserContext(), &order)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// TrackShipment godoc
// @Summary Track a shipment by order id
// @Tags shipments
// @Produce json
// @Param orderId path string true "Merchant order id"
// @Success 200 {object} domain.TrackingResult
// @Failure 409 {object} ErrorResponse
// @Router /shipments/{orderId}/tracking [get]
func (h *ShippingHandler) TrackShipment(c *fiber.Ctx) error {
	orderID := c.Params("orderId")
	if orderID == "" {
		return badRequest(c, "order id is required")
	}

	result, err := h.shippingService.TrackShipment(c.UserContext(), orderID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// TrackByAWB godoc
// @Summary Track a shipment by air waybill
// @Tags tracking
// @Produce json
// @Param awb path string true "Air waybill"
// @Success 200 {object} domain.TrackingResult
// @Router /tracking/awb/{awb} [get]
func (h *ShippingHandler) TrackByAWB(c *fiber.Ctx) error {
	awb := c.Params("awb")
	if awb == "" {
		return badRequest(c, "awb is required")
	}

	result, err := h.shippingService.TrackByAWB(c.UserContext(), awb)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// CheckServiceability godoc
// @Summary List couriers able to serve a lane
// @Tags serviceability
// @Produce json
// @Param delivery_pincode query string true "Destination pincode"
// @Param pickup_pincode query string false "Origin pincode, defaults to the configured warehouse"
// @Param weight query number false "Parcel weight in kg"
// @Param cod query boolean false "Cash on delivery"
// @Success 200 {object} domain.ServiceabilityResult
// @Router /serviceability [get]
func (h *ShippingHandler) CheckServiceability(c *fiber.Ctx) error {
	deliveryPincode := c.Query("delivery_pincode")
	if deliveryPincode == "" {
		return badRequest(c, "delivery_pincode query parameter is required")
	}

	weight, _ := strconv.ParseFloat(c.Query("weight", "0.5"), 64)
	declaredValue, _ := strconv.ParseFloat(c.Query("declared_value", "0"), 64)

	query := domain.ServiceabilityQuery{
		PickupPincode:   c.Query("pickup_pincode"),
		DeliveryPincode: deliveryPincode,
		WeightKg:        weight,
		COD:             c.QueryBool("cod"),
		ProductMRP:      declaredValue,
	}

	result, err := h.shippingService.CheckServiceability(c.UserContext(), query)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// AssignAWB godoc
// @Summary Request courier assignment for a shipment
// @Tags shipments
// @Produce json
// @Param shipmentId path string true "Shipment id"
// @Param courier_id query string false "Preferred courier id"
// @Success 200 {object} map[string]string
// @Failure 409 {object} ErrorResponse
// @Router /shipments/{shipmentId}/awb [post]
func (h *ShippingHandler) AssignAWB(c *fiber.Ctx) error {
	shipmentID := c.Params("shipmentId")
	if shipmentID == "" {
		return badRequest(c, "shipment id is required")
	}

	awb, err := h.shippingService.AssignAWB(c.UserContext(), shipmentID, c.Query("courier_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"awb_code": awb})
}

// GetOrderDetails godoc
// @Summary Get the provider's raw order payload
// @Tags shipments
// @Produce json
// @Param orderId path string true "Order id"
// @Success 200 {object} object
// @Router /shipments/{orderId} [get]
func (h *ShippingHandler) GetOrderDetails(c *fiber.Ctx) error {
	raw, err := h.shippingService.OrderDetails(c.UserContext(), c.Params("orderId"))
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(raw)
}

// GetInvoice godoc
// @Summary Download the invoice PDF for an order
// @Tags documents
// @Produce application/pdf
// @Param orderId path string true "Order id"
// @Success 200 {file} binary
// @Failure 404 {object} ErrorResponse
// @Router /shipments/{orderId}/invoice [get]
func (h *ShippingHandler) GetInvoice(c *fiber.Ctx) error {
	orderID := c.Params("orderId")

	doc, err := h.shippingService.FetchInvoice(c.UserContext(), orderID)
	if err != nil {
		return respondError(c, err)
	}
	return streamDocument(c, doc, "invoice-"+orderID+".pdf")
}

// GetLabel godoc
// @Summary Download the shipping label PDF
// @Tags documents
// @Produce application/pdf
// @Param shipmentId path string true "Shipment id (AWB on the modern API)"
// @Success 200 {file} binary
// @Router /labels/{shipmentId} [get]
func (h *ShippingHandler) GetLabel(c *fiber.Ctx) error {
	shipmentID := c.Params("shipmentId")

	doc, err := h.shippingService.FetchLabel(c.UserContext(), shipmentID)
	if err != nil {
		return respondError(c, err)
	}
	return streamDocument(c, doc, "label-"+shipmentID+".pdf")
}

// manifestRequest is the body for manifest generation.
type manifestRequest struct {
	// AWBs are the air waybills to include.
	AWBs []string `json:"awbs"`
}

// GetManifest godoc
// @Summary Download the manifest PDF for a set of AWBs
// @Tags documents
// @Accept json
// @Produce application/pdf
// @Param request body manifestRequest true "AWBs to include"
// @Success 200 {file} binary
// @Router /manifests [post]
func (h *ShippingHandler) GetManifest(c *fiber.Ctx) error {
	var req manifestRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid payload: "+err.Error())
	}
	if len(req.AWBs) == 0 {
		return badRequest(c, "at least one awb is required")
	}

	doc, err := h.shippingService.FetchManifest(c.UserContext(), req.AWBs)
	if err != nil {
		return respondError(c, err)
	}
	return streamDocument(c, doc, "manifest.pdf")
}

// CancelShipment godoc
// @Summary Cancel a shipment by order id
// @Tags shipments
// @Param orderId path string true "Order id"
// @Success 204
// @Failure 501 {object} ErrorResponse
// @Router /shipments/{orderId} [delete]
func (h *ShippingHandler) CancelShipment(c *fiber.Ctx) error {
	if err := h.shippingService.CancelShipment(c.UserContext(), c.Params("orderId")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// awbListRequest is the body for AWB-keyed batch operations.
type awbListRequest struct {
	// AWBs are the air waybills to act on.
	AWBs []string `json:"awbs"`
}

// CancelByAWB cancels shipments by air waybill.
func (h *ShippingHandler) CancelByAWB(c *fiber.Ctx) error {
	var req awbListRequest
	if err := c.BodyParser(&req); err != nil || len(req.AWBs) == 0 {
		return badRequest(c, "at least one awb is required")
	}
	raw, err := h.shippingService.CancelByAWB(c.UserContext(), req.AWBs)
	if err != nil {
		return respondError(c, err)
	}
	return sendRaw(c, raw)
}

// UpdatePaymentByAWB flips shipments to prepaid after online settlement.
func (h *ShippingHandler) UpdatePaymentByAWB(c *fiber.Ctx) error {
	var req awbListRequest
	if err := c.BodyParser(&req); err != nil || len(req.AWBs) == 0 {
		return badRequest(c, "at least one awb is required")
	}
	raw, err := h.shippingService.UpdatePaymentByAWB(c.UserContext(), req.AWBs)
	if err != nil {
		return respondError(c, err)
	}
	return sendRaw(c, raw)
}

// ListAirwaybills lists AWBs registered in a date range.
func (h *ShippingHandler) ListAirwaybills(c *fiber.Ctx) error {
	from, to := c.Query("from"), c.Query("to")
	if from == "" || to == "" {
		return badRequest(c, "from and to query parameters are required")
	}
	raw, err := h.shippingService.AirwaybillList(c.UserContext(), from, to)
	if err != nil {
		return respondError(c, err)
	}
	return sendRaw(c, raw)
}

// ListStates lists states for a country.
func (h *ShippingHandler) ListStates(c *fiber.Ctx) error {
	countryID := c.Query("country_id")
	if countryID == "" {
		return badRequest(c, "country_id query parameter is required")
	}
	raw, err := h.shippingService.States(c.UserContext(), countryID)
	if err != nil {
		return respondError(c, err)
	}
	return sendRaw(c, raw)
}

// ListCities lists cities for a state.
func (h *ShippingHandler) ListCities(c *fiber.Ctx) error {
	stateID := c.Query("state_id")
	if stateID == "" {
		return badRequest(c, "state_id query parameter is required")
	}
	raw, err := h.shippingService.Cities(c.UserContext(), stateID)
	if err != nil {
		return respondError(c, err)
	}
	return sendRaw(c, raw)
}

// ListWarehouses lists registered warehouses.
func (h *ShippingHandler) ListWarehouses(c *fiber.Ctx) error {
	raw, err := h.shippingService.Warehouses(c.UserContext(), c.Query("warehouse_id"))
	if err != nil {
		return respondError(c, err)
	}
	return sendRaw(c, raw)
}

// AddWarehouse registers a pickup warehouse with the provider.
func (h *ShippingHandler) AddWarehouse(c *fiber.Ctx) error {
	body := c.Body()
	if !json.Valid(body) {
		return badRequest(c, "invalid warehouse payload")
	}
	raw, err := h.shippingService.AddWarehouse(c.UserContext(), body)
	if err != nil {
		return respondError(c, err)
	}
	return sendRaw(c, raw)
}

// GetZoneRate returns the zone-wise rate card for a lane.
func (h *ShippingHandler) GetZoneRate(c *fiber.Ctx) error {
	from, to := c.Query("from_pincode"), c.Query("to_pincode")
	if from == "" || to == "" {
		return badRequest(c, "from_pincode and to_pincode query parameters are required")
	}

	weight, _ := strconv.ParseFloat(c.Query("weight", "0.5"), 64)
	codAmount, _ := strconv.ParseFloat(c.Query("cod_amount", "0"), 64)

	raw, err := h.shippingService.ZoneRate(c.UserContext(), domain.ZoneRateQuery{
		FromPincode: from,
		ToPincode:   to,
		WeightKg:    weight,
		CODAmount:   codAmount,
	})
	if err != nil {
		return respondError(c, err)
	}
	return sendRaw(c, raw)
}

// GetRemittance lists COD remittances settled on a date.
func (h *ShippingHandler) GetRemittance(c *fiber.Ctx) error {
	date := c.Query("date")
	if date == "" {
		return badRequest(c, "date query parameter is required")
	}
	raw, err := h.shippingService.Remittance(c.UserContext(), date)
	if err != nil {
		return respondError(c, err)
	}
	return sendRaw(c, raw)
}

// GetRemittanceDetails breaks a remittance down per shipment.
func (h *ShippingHandler) GetRemittanceDetails(c *fiber.Ctx) error {
	date := c.Query("date")
	if date == "" {
		return badRequest(c, "date query parameter is required")
	}
	raw, err := h.shippingService.RemittanceDetails(c.UserContext(), date)
	if err != nil {
		return respondError(c, err)
	}
	return sendRaw(c, raw)
}

// ListStores lists connected stores.
func (h *ShippingHandler) ListStores(c *fiber.Ctx) error {
	raw, err := h.shippingService.Stores(c.UserContext(), c.Query("store_id"))
	if err != nil {
		return respondError(c, err)
	}
	return sendRaw(c, raw)
}

// ListStoreOrders lists store orders matching the query.
func (h *ShippingHandler) ListStoreOrders(c *fiber.Ctx) error {
	raw, err := h.shippingService.StoreOrders(c.UserContext(), domain.StoreOrderQuery{
		StoreID:  c.Query("store_id"),
		FromDate: c.Query("from"),
		ToDate:   c.Query("to"),
	})
	if err != nil {
		return respondError(c, err)
	}
	return sendRaw(c, raw)
}

// GetStoreOrder returns one store order by order number.
func (h *ShippingHandler) GetStoreOrder(c *fiber.Ctx) error {
	raw, err := h.shippingService.StoreOrderDetails(c.UserContext(), c.Params("orderNumber"))
	if err != nil {
		return respondError(c, err)
	}
	return sendRaw(c, raw)
}

// NDRAction requests a reattempt or return-to-origin for non-delivered shipments.
func (h *ShippingHandler) NDRAction(c *fiber.Ctx) error {
	body := c.Body()
	if !json.Valid(body) {
		return badRequest(c, "invalid ndr payload")
	}
	raw, err := h.shippingService.NDRAction(c.UserContext(), body)
	if err != nil {
		return respondError(c, err)
	}
	return sendRaw(c, raw)
}

// sendRaw writes a raw provider payload as JSON.
func sendRaw(c *fiber.Ctx, raw json.RawMessage) error {
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(raw)
}
