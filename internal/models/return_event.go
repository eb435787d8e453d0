package models

import "time"

// ReturnEvent is the normalized view of one inbound return webhook.
type ReturnEvent struct {
	ID             string
	Status         string
	CustomerName   string
	TrackingNumber string
	BrandName      string
	Items          []ReturnLineItem
}

// ReturnLineItem is a single returned product line.
// Quantity is the parsed amount_expected; 0 means absent or unparseable.
type ReturnLineItem struct {
	SKU       string
	ProductID string
	Quantity  int
	Reason    string
}

// LedgerRow is one write-once row appended to the returns ledger.
type LedgerRow struct {
	Timestamp      time.Time `json:"timestamp"`
	ReturnID       string    `json:"return_id"`
	Status         string    `json:"status"`
	CustomerName   string    `json:"customer_name"`
	TrackingNumber string    `json:"tracking_number"`
	BrandName      string    `json:"brand_name"`
	SKU            string    `json:"sku"`
	Quantity       int       `json:"quantity"`
	Reason         string    `json:"reason"`
	ProductName    string    `json:"product_name"`
}

// TimestampLayout is the ISO-8601 form written to the ledger.
const TimestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// NewLedgerRow combines event-level and item-level fields into a row.
func NewLedgerRow(ts time.Time, ev ReturnEvent, item ReturnLineItem, productName string) LedgerRow {
	return LedgerRow{
		Timestamp:      ts.UTC(),
		ReturnID:       ev.ID,
		Status:         ev.Status,
		CustomerName:   ev.CustomerName,
		TrackingNumber: ev.TrackingNumber,
		BrandName:      ev.BrandName,
		SKU:            item.SKU,
		Quantity:       item.Quantity,
		Reason:         item.Reason,
		ProductName:    productName,
	}
}

// Values returns the ordered scalar columns of the ledger sheet.
func (r LedgerRow) Values() []interface{} {
	return []interface{}{
		r.Timestamp.UTC().Format(TimestampLayout),
		r.ReturnID,
		r.Status,
		r.CustomerName,
		r.TrackingNumber,
		r.BrandName,
		r.SKU,
		r.Quantity,
		r.Reason,
		r.ProductName,
	}
}
