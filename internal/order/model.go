package order

import (
	"time"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

var statusLabels = map[Status]string{
	StatusPending:    "En attente",
	StatusProcessing: "En cours de livraison",
	StatusShipped:    "Expédiée",
	StatusDelivered:  "Livrée",
	StatusCancelled:  "Annulée",
}

func (s Status) String() string {
	return string(s)
}

// Label is the French label shown in the storefront and admin views.
func (s Status) Label() string {
	return statusLabels[s]
}

func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// ParseStatus accepts the canonical names and the French aliases used by the
// upstream bucket keys.
func ParseStatus(raw string) (Status, bool) {
	switch raw {
	case "pending", "enAttente":
		return StatusPending, true
	case "processing", "enCoursLivraison":
		return StatusProcessing, true
	case "shipped", "expediee":
		return StatusShipped, true
	case "delivered", "livre":
		return StatusDelivered, true
	case "cancelled", "annule":
		return StatusCancelled, true
	}
	return "", false
}

// Contact is the customer as recorded on an order.
type Contact struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

type Item struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// Order is the canonical order. Amount is the trusted order total and is
// never recomputed from items. A zero CreatedAt means the date was missing
// or unreadable.
type Order struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"userId,omitempty"`
	Status             Status    `json:"status"`
	StatusLabel        string    `json:"statusLabel"`
	Customer           Contact   `json:"customer"`
	CreatedAt          time.Time `json:"date"`
	Items              []Item    `json:"items"`
	Shipping           float64   `json:"shipping"`
	Amount             float64   `json:"total"`
	PaymentMethod      string    `json:"paymentMethod"`
	TrackingNumber     string    `json:"trackingNumber,omitempty"`
	CancellationReason string    `json:"cancellationReason,omitempty"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

func (o Order) HasDate() bool {
	return !o.CreatedAt.IsZero()
}

// Customer is a registered shop customer.
type Customer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// Bucket is one status partition of the order dataset together with the
// aggregates the backend computed for it.
type Bucket struct {
	Orders        []Order
	Total         float64
	AverageBasket float64
}

// Dataset is the status-partitioned order set the dashboard aggregates.
type Dataset struct {
	Buckets       map[Status]Bucket
	TotalOrders   int
	AverageBasket float64
}

// BucketOrder is the fixed order in which buckets are flattened.
var BucketOrder = []Status{StatusPending, StatusProcessing, StatusDelivered, StatusCancelled}

// bucketFor maps a status to the bucket that carries it. Shipped orders travel
// with processing ones, the backend has no separate shipped partition.
func bucketFor(s Status) Status {
	if s == StatusShipped {
		return StatusProcessing
	}
	return s
}

// Flatten concatenates the buckets in BucketOrder.
func (d Dataset) Flatten() []Order {
	var n int
	for _, b := range d.Buckets {
		n += len(b.Orders)
	}

	out := make([]Order, 0, n)
	for _, s := range BucketOrder {
		out = append(out, d.Buckets[s].Orders...)
	}
	return out
}

// Partition builds a dataset from a flat order list, computing the per-bucket
// and overall aggregates the way the backend reports them.
func Partition(orders []Order) Dataset {
	d := Dataset{Buckets: make(map[Status]Bucket, len(BucketOrder))}
	for _, s := range BucketOrder {
		d.Buckets[s] = Bucket{Orders: []Order{}}
	}

	var sum float64
	for _, o := range orders {
		key := bucketFor(o.Status)
		b, ok := d.Buckets[key]
		if !ok {
			continue
		}
		b.Orders = append(b.Orders, o)
		b.Total += o.Amount
		d.Buckets[key] = b
		sum += o.Amount
		d.TotalOrders++
	}

	for s, b := range d.Buckets {
		if len(b.Orders) > 0 {
			b.AverageBasket = b.Total / float64(len(b.Orders))
			d.Buckets[s] = b
		}
	}
	if d.TotalOrders > 0 {
		d.AverageBasket = sum / float64(d.TotalOrders)
	}
	return d
}
