// Package dashboard aggregates the admin dashboard: sales KPIs, the 10-day
// sales trend, best sellers, recent orders, stock and customer counts.
//
// Aggregate is a pure function of its Input; everything that talks to the
// network or a database sits behind Source.
package dashboard

import (
	"fmt"

	"github.com/vasiliy-maslov/soap-shop/internal/catalog"
	"github.com/vasiliy-maslov/soap-shop/internal/order"
)

type Period string

const (
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

var periodDays = map[Period]int{
	PeriodWeek:  7,
	PeriodMonth: 30,
	PeriodYear:  365,
}

// Days is the rolling window length in calendar days.
func (p Period) Days() int {
	return periodDays[p]
}

// ParsePeriod defaults an empty value to month.
func ParsePeriod(raw string) (Period, error) {
	if raw == "" {
		return PeriodMonth, nil
	}
	p := Period(raw)
	if _, ok := periodDays[p]; !ok {
		return "", fmt.Errorf("unknown period %q", raw)
	}
	return p, nil
}

// TrendLength is the number of daily points in the sales trend.
const TrendLength = 10

type TrendPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

type SalesSummary struct {
	// TotalSales is AverageBasket × TotalOrders as reported upstream.
	TotalSales     float64        `json:"totalSales"`
	TotalOrders    int            `json:"totalOrders"`
	AverageBasket  float64        `json:"averageBasket"`
	PeriodSales    float64        `json:"periodSales"`
	PeriodOrders   int            `json:"periodOrders"`
	OrdersByStatus map[string]int `json:"ordersByStatus"`
}

type TopProduct struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Quantity   int     `json:"quantity"`
	Revenue    float64 `json:"revenue"`
	Percentage float64 `json:"percentage"`
}

type InventorySummary struct {
	TotalProducts  int     `json:"totalProducts"`
	TotalUnits     int     `json:"totalUnits"`
	LowStock       int     `json:"lowStock"`
	OutOfStock     int     `json:"outOfStock"`
	InventoryValue float64 `json:"inventoryValue"`
}

type CustomerSummary struct {
	NewCustomers   int `json:"newCustomers"`
	TotalCustomers int `json:"totalCustomers"`
}

type Summary struct {
	Period           Period           `json:"period"`
	SalesSummary     SalesSummary     `json:"salesSummary"`
	SalesTrend       []TrendPoint     `json:"salesTrend"`
	TopProducts      []TopProduct     `json:"topProducts"`
	RecentOrders     []order.Order    `json:"recentOrders"`
	InventorySummary InventorySummary `json:"inventorySummary"`
	CustomerSummary  CustomerSummary  `json:"customerSummary"`
}

// Empty is the summary rendered when the data could not be loaded: every
// count zero and every list empty, the trend included.
func Empty(p Period) Summary {
	return Summary{
		Period:       p,
		SalesSummary: SalesSummary{OrdersByStatus: map[string]int{}},
		SalesTrend:   []TrendPoint{},
		TopProducts:  []TopProduct{},
		RecentOrders: []order.Order{},
	}
}

// Input is everything one aggregation run reads.
type Input struct {
	Orders    order.Dataset     `json:"orders"`
	Customers []order.Customer  `json:"customers"`
	Products  []catalog.Product `json:"products"`
}
