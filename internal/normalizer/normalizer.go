// Package normalizer turns raw return webhook payloads into models.ReturnEvent.
//
// Payloads come from a third party and are treated as untrusted: every lookup
// falls back to a zero value instead of failing the delivery.
package normalizer

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/PratikDhanave/returns-ledger-service/internal/models"
)

// ErrNotObject is returned when the body is not a JSON object.
var ErrNotObject = errors.New("normalizer: payload is not a JSON object")

// Normalize parses a webhook body. Only a body that is not a JSON object is an
// error; missing or mistyped fields become "" or 0.
func Normalize(body []byte) (models.ReturnEvent, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return models.ReturnEvent{}, errors.Join(ErrNotObject, err)
	}
	data, ok := raw.(map[string]interface{})
	if !ok {
		return models.ReturnEvent{}, ErrNotObject
	}
	return FromMap(data), nil
}

// FromMap normalizes an already decoded payload.
func FromMap(data map[string]interface{}) models.ReturnEvent {
	ev := models.ReturnEvent{
		ID:             stringAt(data, "id"),
		Status:         stringAt(data, "status"),
		CustomerName:   stringAt(data, "consumer_contact", "name"),
		TrackingNumber: stringAt(data, "return_shipment", "tracking_number"),
		BrandName:      stringAt(data, "brand", "name"),
	}

	products, _ := data["return_products"].([]interface{})
	for _, p := range products {
		item, ok := p.(map[string]interface{})
		if !ok {
			continue
		}
		ev.Items = append(ev.Items, models.ReturnLineItem{
			SKU:       stringAt(item, "fulfillment_product", "sku"),
			ProductID: stringAt(item, "fulfillment_product", "id"),
			Quantity:  ParseQuantity(item["amount_expected"]),
			Reason:    stringAt(item, "reason"),
		})
	}
	return ev
}

// Qualifying returns the items that produce a ledger row, in payload order.
func Qualifying(ev models.ReturnEvent) []models.ReturnLineItem {
	out := make([]models.ReturnLineItem, 0, len(ev.Items))
	for _, item := range ev.Items {
		if item.Quantity > 0 {
			out = append(out, item)
		}
	}
	return out
}

// ParseQuantity accepts integers, integral floats and numeric strings.
// Anything else, including negative numbers and fractions, yields 0.
func ParseQuantity(v interface{}) int {
	var f float64
	switch q := v.(type) {
	case json.Number:
		if n, err := q.Int64(); err == nil {
			return clamp(n)
		}
		parsed, err := q.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case float64:
		f = q
	case int:
		return clamp(int64(q))
	case int64:
		return clamp(q)
	case string:
		s := strings.TrimSpace(q)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return clamp(n)
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}

	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || f >= math.MaxInt64 {
		return 0
	}
	return clamp(int64(f))
}

func clamp(n int64) int {
	if n <= 0 || n > math.MaxInt {
		return 0
	}
	return int(n)
}

// stringAt walks nested objects and renders the leaf as a string.
func stringAt(data map[string]interface{}, path ...string) string {
	var cur interface{} = data
	for _, key := range path {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return ""
		}
		cur = m[key]
	}

	switch v := cur.(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}
