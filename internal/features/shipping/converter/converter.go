package converter

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"carrier-gateway/internal/core/config"
	"carrier-gateway/internal/core/logger"
	ordersdomain "carrier-gateway/internal/features/orders/domain"
	"carrier-gateway/internal/features/shipping/domain"

	"go.uber.org/zap"
)

// Fallbacks substituted when order data fails validation. Order creation must
// never fail over bad address data; every substitution is reported in the
// returned diagnostics so integrators can detect degraded data quality.
const (
	fallbackCity    = "Mumbai"
	fallbackState   = "Maharashtra"
	fallbackPincode = "400001"
	fallbackPhone   = "9999999999"
	fallbackEmail   = "customer@noreply.invalid"
	fallbackCountry = "India"

	// Rough default when the warehouse recorded no weight: half a kilogram
	// per unit across all items.
	defaultUnitWeightKg = 0.5

	maxSKULength     = 18
	maxSKUCollisions = 50
)

var (
	pincodeRe   = regexp.MustCompile(`\d{6}`)
	exactPinRe  = regexp.MustCompile(`^\d{6}$`)
	nonDigitRe  = regexp.MustCompile(`\D`)
	nonAlnumRe  = regexp.MustCompile(`[^A-Z0-9]`)
	shadeNameRe = regexp.MustCompile(`\(Shade:\s*([^)]+)\)`)
	multiWSRe   = regexp.MustCompile(`\s+`)
)

// Converter turns internal order records into the provider's wire schema.
type Converter struct {
	cfg    config.CarrierConfig
	logger *zap.Logger
}

// New creates a Converter with the given carrier defaults.
func New(cfg config.CarrierConfig) *Converter {
	return &Converter{
		cfg:    cfg,
		logger: logger.Get(),
	}
}

// Convert builds the provider order payload from an internal order record.
// The returned diagnostics list one entry per fallback decision taken while
// repairing malformed fields. Output is deterministic for identical input.
func (c *Converter) Convert(order *ordersdomain.Order, pickupLocation string) (*domain.WireOrder, []string) {
	var diags []string

	addr := parseAddress(order.ShippingAddress)

	street := strings.TrimSpace(addr.Street)
	if len(street) < 3 {
		street = strings.TrimSpace(order.ShippingAddress)
		diags = append(diags, fmt.Sprintf("street too short, using raw address text for order %s", order.ID))
	}

	city := strings.TrimSpace(addr.City)
	if len(city) < 3 {
		city = fallbackCity
		diags = append(diags, fmt.Sprintf("city missing or too short, defaulted to %s for order %s", fallbackCity, order.ID))
	}

	state := strings.TrimSpace(addr.State)
	if len(state) < 3 {
		state = fallbackState
		diags = append(diags, fmt.Sprintf("state missing or too short, defaulted to %s for order %s", fallbackState, order.ID))
	} else {
		state = titleCase(strings.ReplaceAll(state, "_", " "))
	}

	pincode := strings.TrimSpace(addr.Pincode)
	if !exactPinRe.MatchString(pincode) {
		pincode = fallbackPincode
		diags = append(diags, fmt.Sprintf("pincode invalid, defaulted to %s for order %s", fallbackPincode, order.ID))
	}

	phone, ok := normalizePhone(order.Phone)
	if !ok {
		phone = fallbackPhone
		diags = append(diags, fmt.Sprintf("phone %q not a valid 10-digit number, using placeholder for order %s", order.Phone, order.ID))
	}

	email := strings.TrimSpace(order.Email)
	if email == "" {
		email = fallbackEmail
		diags = append(diags, fmt.Sprintf("email blank, using placeholder for order %s", order.ID))
	}

	firstName, lastName := splitName(order.CustomerName)

	items, itemDiags := c.convertItems(order)
	diags = append(diags, itemDiags...)

	weight := order.WeightKg
	if weight <= 0 {
		units := 0
		for _, item := range order.Items {
			units += item.Quantity
		}
		weight = defaultUnitWeightKg * float64(units)
		diags = append(diags, fmt.Sprintf("weight unknown, approximated as %.1fkg from %d units for order %s", weight, units, order.ID))
	}

	for _, d := range diags {
		c.logger.Warn("Order conversion fallback applied", zap.String("order_id", order.ID), zap.String("detail", d))
	}

	return &domain.WireOrder{
		OrderID:             order.ID,
		OrderDate:           order.CreatedAt.Format("2006-01-02 15:04"),
		PickupLocation:      pickupLocation,
		ChannelID:           c.cfg.ChannelID,
		BillingCustomerName: firstName,
		BillingLastName:     lastName,
		BillingAddress:      street,
		BillingCity:         city,
		BillingPincode:      pincode,
		BillingState:        state,
		BillingCountry:      fallbackCountry,
		BillingEmail:        email,
		BillingPhone:        phone,
		ShippingIsBilling:   true,
		OrderItems:          items,
		PaymentMethod:       string(order.PaymentMethod),
		SubTotal:            order.SubTotal,
		ShippingCharges:     order.ShippingCharges,
		GiftwrapCharges:     order.GiftwrapCharges,
		TransactionCharges:  order.TransactionCharges,
		TotalDiscount:       order.TotalDiscount,
		Length:              c.cfg.DefaultLengthCm,
		Breadth:             c.cfg.DefaultBreadthCm,
		Height:              c.cfg.DefaultHeightCm,
		Weight:              weight,
	}, diags
}

// convertItems maps order lines to wire items, guaranteeing per-order SKU
// uniqueness. The provider treats SKU as the line-item key, so two lines of
// the same product in different shades must not collide.
func (c *Converter) convertItems(order *ordersdomain.Order) ([]domain.WireOrderItem, []string) {
	var diags []string
	items := make([]domain.WireOrderItem, 0, len(order.Items))
	used := make(map[string]bool, len(order.Items))

	for i, item := range order.Items {
		base := item.ProductID
		if base == "" {
			base = item.ComboID
		}
		if base == "" {
			base = item.OfferID
		}
		if base == "" {
			base = fmt.Sprintf("ITEM-%02d", i)
			diags = append(diags, fmt.Sprintf("line %d has no product/combo/offer id, using positional sku seed", i))
		}

		sku := base
		if shade := extractShade(item); shade != "" {
			sku = base + "-" + slugifyShade(shade)
		}

		sku = dedupeSKU(sku, i, used)
		used[sku] = true

		items = append(items, domain.WireOrderItem{
			Name:         item.Name,
			SKU:          sku,
			Units:        item.Quantity,
			SellingPrice: item.UnitPrice,
			Discount:     item.Discount,
			Tax:          item.Tax,
			HSN:          item.HSNCode,
		})
	}

	return items, diags
}

// dedupeSKU resolves SKU collisions within one order: first a zero-padded
// line index, then a bounded incrementing counter.
func dedupeSKU(sku string, index int, used map[string]bool) string {
	if !used[sku] {
		return sku
	}

	indexed := fmt.Sprintf("%s-%02d", sku, index)
	if !used[indexed] {
		return indexed
	}

	for n := 1; n <= maxSKUCollisions; n++ {
		candidate := fmt.Sprintf("%s-%d", indexed, n)
		if !used[candidate] {
			return candidate
		}
	}
	return indexed
}

// extractShade reads the selected shade from its several historical shapes,
// falling back to a "(Shade: xxx)" suffix embedded in the product name.
func extractShade(item ordersdomain.OrderItem) string {
	if len(item.SelectedShades) > 0 {
		if shade := decodeShades(item.SelectedShades); shade != "" {
			return shade
		}
	}

	if m := shadeNameRe.FindStringSubmatch(item.Name); len(m) == 2 {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// decodeShades handles: "Rose", ["Rose"], [{"name":"Rose"}], {"name":"Rose"}.
func decodeShades(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		if len(list) == 0 {
			return ""
		}
		return decodeShades(list[0])
	}

	var obj map[string]interface{}
	if err := json.Unmarshal(raw, &obj); err == nil {
		for _, key := range []string{"name", "shadeName", "shade_name", "shade"} {
			if v, ok := obj[key].(string); ok && v != "" {
				return strings.TrimSpace(v)
			}
		}
	}
	return ""
}

// slugifyShade uppercases, strips non-alphanumerics and truncates the shade
// name so it fits the provider's SKU length limits.
func slugifyShade(shade string) string {
	slug := nonAlnumRe.ReplaceAllString(strings.ToUpper(shade), "")
	if len(slug) > maxSKULength {
		slug = slug[:maxSKULength]
	}
	return slug
}

// parsedAddress is the best-effort split of a free-text shipping address.
type parsedAddress struct {
	Street  string
	City    string
	State   string
	Pincode string
}

// parseAddress splits a free-text address into street/city/state/pincode.
// Addresses captured by older checkout flows may arrive JSON-encoded; those
// are unwrapped first and the extracted text parsed like any plain address.
func parseAddress(raw string) parsedAddress {
	text := strings.TrimSpace(raw)

	if strings.HasPrefix(text, "{") || strings.HasPrefix(text, "[") {
		if extracted, ok := extractAddressFromJSON(text); ok {
			text = extracted
		}
	}

	parts := splitParts(text)

	switch {
	case len(parts) >= 3:
		addr := parsedAddress{
			Street: parts[0],
			City:   parts[1],
		}
		last := parts[len(parts)-1]
		if pin := pincodeRe.FindString(last); pin != "" {
			addr.Pincode = pin
			remainder := strings.Replace(last, pin, "", 1)
			remainder = strings.ReplaceAll(remainder, "-", " ")
			addr.State = strings.TrimSpace(multiWSRe.ReplaceAllString(remainder, " "))
		} else {
			addr.State = last
		}
		return addr
	case len(parts) == 2:
		return parsedAddress{Street: parts[0], City: parts[1]}
	case len(parts) == 1:
		return parsedAddress{Street: parts[0]}
	default:
		return parsedAddress{}
	}
}

// extractAddressFromJSON unwraps JSON-encoded address payloads: either a
// multi-address structure whose first entry carries a delivery address, or an
// object with a direct shippingAddress/address field. Returns false when the
// payload cannot be interpreted, in which case the raw text is used as-is.
func extractAddressFromJSON(text string) (string, bool) {
	var payload interface{}
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return "", false
	}

	switch v := payload.(type) {
	case []interface{}:
		if len(v) == 0 {
			return "", false
		}
		if entry, ok := v[0].(map[string]interface{}); ok {
			return addressFieldFrom(entry)
		}
		if s, ok := v[0].(string); ok {
			return s, true
		}
	case map[string]interface{}:
		if s, ok := addressFieldFrom(v); ok {
			return s, true
		}
		if list, ok := v["addresses"].([]interface{}); ok && len(list) > 0 {
			if entry, ok := list[0].(map[string]interface{}); ok {
				return addressFieldFrom(entry)
			}
		}
	}
	return "", false
}

// addressFieldFrom picks the first recognized address field from an object.
func addressFieldFrom(obj map[string]interface{}) (string, bool) {
	for _, key := range []string{"deliveryAddress", "shippingAddress", "address"} {
		if s, ok := obj[key].(string); ok && strings.TrimSpace(s) != "" {
			return s, true
		}
	}
	return "", false
}

// splitParts splits on commas and drops empty segments.
func splitParts(text string) []string {
	var parts []string
	for _, p := range strings.Split(text, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}

// normalizePhone strips non-digits, removes a leading 91 country code
// (12 digits total) or leading 0 (11 digits total), and accepts only exact
// 10-digit results.
func normalizePhone(raw string) (string, bool) {
	digits := nonDigitRe.ReplaceAllString(raw, "")

	if len(digits) == 12 && strings.HasPrefix(digits, "91") {
		digits = digits[2:]
	} else if len(digits) == 11 && strings.HasPrefix(digits, "0") {
		digits = digits[1:]
	}

	if len(digits) != 10 {
		return "", false
	}
	return digits, true
}

// splitName splits a full name into first and last name. The provider
// requires both; a single-word name gets "." as last name.
func splitName(fullName string) (string, string) {
	parts := strings.Fields(fullName)
	switch len(parts) {
	case 0:
		return "Customer", "."
	case 1:
		return parts[0], "."
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}

// titleCase uppercases the first letter of each word and lowercases the rest.
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
