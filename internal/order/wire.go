package order

import (
	"encoding/json"
	"fmt"
	"time"
)

// The backend's /orders and /customers payloads, kept exactly as they travel.
// Nothing outside this file looks at these types: Decode* normalizes them
// into Order, Customer and Dataset once.

type WireItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

type WireOrder struct {
	ID                 string     `json:"id"`
	Status             string     `json:"status,omitempty"`
	StatusLabel        string     `json:"statusLabel,omitempty"`
	Customer           Contact    `json:"customer"`
	CreatedAt          string     `json:"createdAt,omitempty"`
	Date               string     `json:"date,omitempty"`
	Items              []WireItem `json:"items"`
	Shipping           float64    `json:"shipping"`
	TotalAmount        float64    `json:"totalAmount,omitempty"`
	Total              float64    `json:"total"`
	PaymentMethod      string     `json:"paymentMethod,omitempty"`
	TrackingNumber     string     `json:"trackingNumber,omitempty"`
	CancellationReason string     `json:"cancellationReason,omitempty"`
}

type WireBucket struct {
	Orders        []WireOrder `json:"orders"`
	Total         float64     `json:"total"`
	AverageBasket float64     `json:"averageBasket"`
}

// WireDataset accepts both the canonical bucket names and the French ones.
// Encoding always writes the canonical names.
type WireDataset struct {
	Pending          *WireBucket `json:"pending,omitempty"`
	Processing       *WireBucket `json:"processing,omitempty"`
	EnCoursLivraison *WireBucket `json:"enCoursLivraison,omitempty"`
	Delivered        *WireBucket `json:"delivered,omitempty"`
	Livre            *WireBucket `json:"livre,omitempty"`
	Cancelled        *WireBucket `json:"cancelled,omitempty"`
	Annule           *WireBucket `json:"annule,omitempty"`
	TotalOrders      float64     `json:"totalOrders"`
	AverageBasket    float64     `json:"averageBasket"`
}

type WireCustomer struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"createdAt,omitempty"`
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseDate reads the ISO-8601 variants the backend emits. Values without a
// zone are taken as UTC. ok is false for empty or unreadable input.
func ParseDate(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// normalize resolves the amount and date fallbacks and fills the status from
// the bucket when the order does not carry a valid one.
func (w WireOrder) normalize(bucket Status) Order {
	status, ok := ParseStatus(w.Status)
	if !ok {
		status = bucket
	}

	amount := w.TotalAmount
	if amount == 0 {
		amount = w.Total
	}
	if amount < 0 {
		amount = 0
	}

	created, ok := ParseDate(w.CreatedAt)
	if !ok {
		created, _ = ParseDate(w.Date)
	}

	label := w.StatusLabel
	if label == "" {
		label = status.Label()
	}

	items := make([]Item, 0, len(w.Items))
	for _, it := range w.Items {
		items = append(items, Item{ID: it.ID, Name: it.Name, Quantity: it.Quantity, Price: it.Price})
	}

	return Order{
		ID:                 w.ID,
		Status:             status,
		StatusLabel:        label,
		Customer:           w.Customer,
		CreatedAt:          created,
		Items:              items,
		Shipping:           w.Shipping,
		Amount:             amount,
		PaymentMethod:      w.PaymentMethod,
		TrackingNumber:     w.TrackingNumber,
		CancellationReason: w.CancellationReason,
	}
}

func toWireOrder(o Order) WireOrder {
	items := make([]WireItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, WireItem(it))
	}
	return WireOrder{
		ID:                 o.ID,
		Status:             o.Status.String(),
		StatusLabel:        o.StatusLabel,
		Customer:           o.Customer,
		CreatedAt:          formatDate(o.CreatedAt),
		Date:               formatDate(o.CreatedAt),
		Items:              items,
		Shipping:           o.Shipping,
		TotalAmount:        o.Amount,
		Total:              o.Amount,
		PaymentMethod:      o.PaymentMethod,
		TrackingNumber:     o.TrackingNumber,
		CancellationReason: o.CancellationReason,
	}
}

// firstBucket picks the canonical key over its French alias.
func firstBucket(candidates ...*WireBucket) *WireBucket {
	for _, b := range candidates {
		if b != nil {
			return b
		}
	}
	return nil
}

// DecodeDataset parses and normalizes a /orders payload.
func DecodeDataset(data []byte) (Dataset, error) {
	var w WireDataset
	if err := json.Unmarshal(data, &w); err != nil {
		return Dataset{}, fmt.Errorf("order: failed to decode orders payload: %w", err)
	}
	return FromWire(w), nil
}

// FromWire converts an already decoded payload. Missing buckets become empty.
func FromWire(w WireDataset) Dataset {
	raw := map[Status]*WireBucket{
		StatusPending:    w.Pending,
		StatusProcessing: firstBucket(w.Processing, w.EnCoursLivraison),
		StatusDelivered:  firstBucket(w.Delivered, w.Livre),
		StatusCancelled:  firstBucket(w.Cancelled, w.Annule),
	}

	d := Dataset{
		Buckets:       make(map[Status]Bucket, len(BucketOrder)),
		TotalOrders:   int(w.TotalOrders),
		AverageBasket: w.AverageBasket,
	}
	if d.TotalOrders < 0 {
		d.TotalOrders = 0
	}
	if d.AverageBasket < 0 {
		d.AverageBasket = 0
	}

	for _, s := range BucketOrder {
		wb := raw[s]
		if wb == nil {
			d.Buckets[s] = Bucket{Orders: []Order{}}
			continue
		}
		orders := make([]Order, 0, len(wb.Orders))
		for _, wo := range wb.Orders {
			orders = append(orders, wo.normalize(s))
		}
		d.Buckets[s] = Bucket{Orders: orders, Total: wb.Total, AverageBasket: wb.AverageBasket}
	}
	return d
}

// ToWire renders a dataset in the /orders payload shape.
func ToWire(d Dataset) WireDataset {
	bucket := func(s Status) *WireBucket {
		b := d.Buckets[s]
		orders := make([]WireOrder, 0, len(b.Orders))
		for _, o := range b.Orders {
			orders = append(orders, toWireOrder(o))
		}
		return &WireBucket{Orders: orders, Total: b.Total, AverageBasket: b.AverageBasket}
	}

	return WireDataset{
		Pending:       bucket(StatusPending),
		Processing:    bucket(StatusProcessing),
		Delivered:     bucket(StatusDelivered),
		Cancelled:     bucket(StatusCancelled),
		TotalOrders:   float64(d.TotalOrders),
		AverageBasket: d.AverageBasket,
	}
}

// DecodeCustomers parses a /customers payload. Customers whose creation date
// cannot be read keep a zero CreatedAt.
func DecodeCustomers(data []byte) ([]Customer, error) {
	var wire []WireCustomer
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("order: failed to decode customers payload: %w", err)
	}

	out := make([]Customer, 0, len(wire))
	for _, w := range wire {
		created, _ := ParseDate(w.CreatedAt)
		out = append(out, Customer{ID: w.ID, Name: w.Name, Email: w.Email, CreatedAt: created})
	}
	return out, nil
}

func CustomersToWire(customers []Customer) []WireCustomer {
	out := make([]WireCustomer, 0, len(customers))
	for _, c := range customers {
		out = append(out, WireCustomer{ID: c.ID, Name: c.Name, Email: c.Email, CreatedAt: formatDate(c.CreatedAt)})
	}
	return out
}
