package dashboard

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/soap-shop/internal/order"
)

const (
	recentOrdersLimit = 5
	topProductsLimit  = 5
	lowStockLimit     = 5
)

// Aggregate computes the dashboard for period as seen at now. Calendar days
// are taken in now's location.
func Aggregate(in Input, p Period, now time.Time) Summary {
	all := in.Orders.Flatten()
	cutoff := now.AddDate(0, 0, -p.Days())
	inPeriod := filterSince(all, cutoff)

	return Summary{
		Period:           p,
		SalesSummary:     salesSummary(in.Orders, all, inPeriod),
		SalesTrend:       salesTrend(inPeriod, now),
		TopProducts:      topProducts(inPeriod),
		RecentOrders:     recentOrders(all),
		InventorySummary: inventorySummary(in),
		CustomerSummary:  customerSummary(in.Customers, cutoff),
	}
}

// filterSince keeps orders dated at or after cutoff. Undated orders never
// match.
func filterSince(orders []order.Order, cutoff time.Time) []order.Order {
	out := make([]order.Order, 0, len(orders))
	for _, o := range orders {
		if o.HasDate() && !o.CreatedAt.Before(cutoff) {
			out = append(out, o)
		}
	}
	return out
}

func round2(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func salesSummary(d order.Dataset, all, inPeriod []order.Order) SalesSummary {
	avg := decimal.NewFromFloat(d.AverageBasket)

	periodSales := decimal.Zero
	for _, o := range inPeriod {
		periodSales = periodSales.Add(decimal.NewFromFloat(o.Amount))
	}

	byStatus := make(map[string]int, 5)
	for _, s := range []order.Status{
		order.StatusPending, order.StatusProcessing, order.StatusShipped, order.StatusDelivered, order.StatusCancelled,
	} {
		byStatus[string(s)] = 0
	}
	for _, o := range all {
		byStatus[string(o.Status)]++
	}

	return SalesSummary{
		TotalSales:     round2(avg.Mul(decimal.NewFromInt(int64(d.TotalOrders)))),
		TotalOrders:    d.TotalOrders,
		AverageBasket:  round2(avg),
		PeriodSales:    round2(periodSales),
		PeriodOrders:   len(inPeriod),
		OrdersByStatus: byStatus,
	}
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// salesTrend buckets order amounts into the TrendLength calendar days ending
// today, oldest first.
func salesTrend(orders []order.Order, now time.Time) []TrendPoint {
	loc := now.Location()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	days := make([]time.Time, TrendLength)
	index := make(map[string]int, TrendLength)
	for i := range days {
		days[i] = today.AddDate(0, 0, i-(TrendLength-1))
		index[dayKey(days[i])] = i
	}

	sums := make([]decimal.Decimal, TrendLength)
	for _, o := range orders {
		i, ok := index[dayKey(o.CreatedAt.In(loc))]
		if !ok {
			continue
		}
		sums[i] = sums[i].Add(decimal.NewFromFloat(o.Amount))
	}

	trend := make([]TrendPoint, TrendLength)
	for i, d := range days {
		trend[i] = TrendPoint{Date: d.Format("02/01"), Value: round2(sums[i])}
	}
	return trend
}

// topProducts ranks items sold in the period by quantity, then revenue. Each
// entry carries its share of all units sold.
func topProducts(orders []order.Order) []TopProduct {
	type tally struct {
		id, name string
		quantity int
		revenue  decimal.Decimal
	}

	byID := make(map[string]*tally)
	var seen []string
	totalQty := 0

	for _, o := range orders {
		for _, it := range o.Items {
			if it.Quantity <= 0 {
				continue
			}
			key := it.ID
			if key == "" {
				key = it.Name
			}
			t, ok := byID[key]
			if !ok {
				t = &tally{id: it.ID, name: it.Name}
				byID[key] = t
				seen = append(seen, key)
			}
			if t.name == "" {
				t.name = it.Name
			}
			t.quantity += it.Quantity
			t.revenue = t.revenue.Add(decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity))))
			totalQty += it.Quantity
		}
	}

	ranked := make([]*tally, 0, len(seen))
	for _, key := range seen {
		ranked = append(ranked, byID[key])
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].quantity != ranked[j].quantity {
			return ranked[i].quantity > ranked[j].quantity
		}
		return ranked[i].revenue.GreaterThan(ranked[j].revenue)
	})
	if len(ranked) > topProductsLimit {
		ranked = ranked[:topProductsLimit]
	}

	out := make([]TopProduct, 0, len(ranked))
	for _, t := range ranked {
		share := decimal.NewFromInt(int64(t.quantity)).Mul(decimal.NewFromInt(100)).Div(decimal.NewFromInt(int64(totalQty)))
		out = append(out, TopProduct{
			ID:         t.id,
			Name:       t.name,
			Quantity:   t.quantity,
			Revenue:    round2(t.revenue),
			Percentage: round2(share),
		})
	}
	return out
}

// recentOrders is the newest orders of the whole dataset, period ignored.
func recentOrders(all []order.Order) []order.Order {
	sorted := make([]order.Order, len(all))
	copy(sorted, all)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	if len(sorted) > recentOrdersLimit {
		sorted = sorted[:recentOrdersLimit]
	}
	return sorted
}

func inventorySummary(in Input) InventorySummary {
	value := decimal.Zero
	s := InventorySummary{TotalProducts: len(in.Products)}

	for _, p := range in.Products {
		stock := p.Stock
		if stock < 0 {
			stock = 0
		}
		s.TotalUnits += stock
		switch {
		case stock == 0:
			s.OutOfStock++
		case stock <= lowStockLimit:
			s.LowStock++
		}
		value = value.Add(decimal.NewFromFloat(p.Price).Mul(decimal.NewFromInt(int64(stock))))
	}

	s.InventoryValue = round2(value)
	return s
}

func customerSummary(customers []order.Customer, cutoff time.Time) CustomerSummary {
	s := CustomerSummary{TotalCustomers: len(customers)}
	for _, c := range customers {
		if !c.CreatedAt.IsZero() && !c.CreatedAt.Before(cutoff) {
			s.NewCustomers++
		}
	}
	return s
}
