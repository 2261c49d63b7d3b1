package order

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// StatusAll is the tab that lets every order through.
const StatusAll = "all"

type SortKey string

const (
	SortByDate     SortKey = "date"
	SortByTotal    SortKey = "total"
	SortByCustomer SortKey = "customer"
)

func (k SortKey) Valid() bool {
	switch k {
	case SortByDate, SortByTotal, SortByCustomer:
		return true
	}
	return false
}

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

type SortState struct {
	Key SortKey   `json:"key"`
	Dir Direction `json:"dir"`
}

// Select returns the state after the user picks key: the same key flips the
// direction, a different key starts ascending.
func (s SortState) Select(key SortKey) SortState {
	if s.Key == key {
		if s.Dir == Desc {
			return SortState{Key: key, Dir: Asc}
		}
		return SortState{Key: key, Dir: Desc}
	}
	return SortState{Key: key, Dir: Asc}
}

// Query is one admin list request. An empty Status means StatusAll and an
// empty Sort.Key keeps the filtered order.
type Query struct {
	Status string
	Search string
	Sort   SortState
}

// Apply filters by status tab, then by search term, then sorts. The input is
// never modified.
func Apply(orders []Order, q Query) []Order {
	out := make([]Order, 0, len(orders))
	term := strings.ToLower(q.Search)

	for _, o := range orders {
		if !matchesStatus(o, q.Status) {
			continue
		}
		if term != "" && !matchesSearch(o, term) {
			continue
		}
		out = append(out, o)
	}

	sortOrders(out, q.Sort)
	return out
}

func matchesStatus(o Order, tab string) bool {
	if tab == "" || tab == StatusAll {
		return true
	}
	return string(o.Status) == tab
}

func matchesSearch(o Order, term string) bool {
	return strings.Contains(strings.ToLower(o.ID), term) ||
		strings.Contains(strings.ToLower(o.Customer.Name), term) ||
		strings.Contains(strings.ToLower(o.Customer.Email), term)
}

func sortOrders(orders []Order, s SortState) {
	var compare func(a, b Order) int

	switch s.Key {
	case SortByDate:
		compare = func(a, b Order) int { return a.CreatedAt.Compare(b.CreatedAt) }
	case SortByTotal:
		compare = func(a, b Order) int {
			switch {
			case a.Amount < b.Amount:
				return -1
			case a.Amount > b.Amount:
				return 1
			}
			return 0
		}
	case SortByCustomer:
		// A collator keeps scratch buffers, so each sort gets its own.
		col := collate.New(language.French, collate.IgnoreCase)
		compare = func(a, b Order) int { return col.CompareString(a.Customer.Name, b.Customer.Name) }
	default:
		return
	}

	sign := 1
	if s.Dir == Desc {
		sign = -1
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return sign*compare(orders[i], orders[j]) < 0
	})
}

// CountByStatus returns the badge count for every tab, StatusAll included.
func CountByStatus(orders []Order) map[string]int {
	counts := map[string]int{StatusAll: len(orders)}
	for s := range statusLabels {
		counts[string(s)] = 0
	}
	for _, o := range orders {
		counts[string(o.Status)]++
	}
	return counts
}
