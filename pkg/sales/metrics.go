// Package sales summarises revenue over the whole order table: headline
// metrics, monthly trends, product and customer rankings.
//
// An order is one customer on one UTC day, the same unit the RFM frequency
// counts.
package sales

import (
	"sort"
	"time"

	"rfm-insights/pkg/models"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Metrics are the headline numbers of a dataset.
type Metrics struct {
	TotalRevenue       decimal.Decimal `json:"total_revenue"`
	Customers          int             `json:"customers"`
	Orders             int             `json:"orders"`
	Lines              int             `json:"lines"`
	Units              int             `json:"units"`
	AvgOrderValue      decimal.Decimal `json:"avg_order_value"`
	RevenuePerCustomer decimal.Decimal `json:"revenue_per_customer"`
	RepeatCustomerPct  float64         `json:"repeat_customer_pct"`
	GrowthPct          float64         `json:"growth_pct"` // last month vs the one before
	Top10SharePct      float64         `json:"top10_share_pct"`
}

type orderKey struct {
	customer string
	day      time.Time
}

// ComputeMetrics returns zero metrics for an empty input.
func ComputeMetrics(txs []models.Transaction) Metrics {
	var m Metrics
	orders := make(map[orderKey]struct{})
	ordersPer := make(map[string]int)
	revenuePer := make(map[string]decimal.Decimal)
	for _, t := range txs {
		m.TotalRevenue = m.TotalRevenue.Add(t.TotalAmount)
		m.Units += t.Quantity
		k := orderKey{t.CustomerID, t.OrderDay()}
		if _, seen := orders[k]; !seen {
			orders[k] = struct{}{}
			ordersPer[t.CustomerID]++
		}
		revenuePer[t.CustomerID] = revenuePer[t.CustomerID].Add(t.TotalAmount)
	}
	m.Lines = len(txs)
	m.Orders = len(orders)
	m.Customers = len(ordersPer)
	if m.Customers == 0 {
		return m
	}

	m.AvgOrderValue = m.TotalRevenue.DivRound(decimal.NewFromInt(int64(m.Orders)), 2)
	m.RevenuePerCustomer = m.TotalRevenue.DivRound(decimal.NewFromInt(int64(m.Customers)), 2)

	repeat := 0
	for _, n := range ordersPer {
		if n > 1 {
			repeat++
		}
	}
	m.RepeatCustomerPct = pct(decimal.NewFromInt(int64(repeat)), decimal.NewFromInt(int64(m.Customers)))

	if trends := MonthlyTrends(txs); len(trends) >= 2 {
		m.GrowthPct = growth(trends[len(trends)-1].Revenue, trends[len(trends)-2].Revenue)
	}

	top := decimal.Zero
	for _, c := range TopCustomers(txs, 10) {
		top = top.Add(c.Revenue)
	}
	m.Top10SharePct = pct(top, m.TotalRevenue)

	log.Debug().Int("orders", m.Orders).Int("customers", m.Customers).Msg("sales metrics computed")
	return m
}

// CustomerRevenue is one row of the top customers ranking.
type CustomerRevenue struct {
	CustomerID    string          `json:"customer_id"`
	Revenue       decimal.Decimal `json:"revenue"`
	Orders        int             `json:"orders"`
	AvgOrderValue decimal.Decimal `json:"avg_order_value"`
	LastOrderDate time.Time       `json:"last_order_date"`
}

// TopCustomers ranks customers by revenue, ties by id. n <= 0 keeps all.
func TopCustomers(txs []models.Transaction, n int) []CustomerRevenue {
	byID := make(map[string]*CustomerRevenue)
	days := make(map[orderKey]struct{})
	for _, t := range txs {
		c, ok := byID[t.CustomerID]
		if !ok {
			c = &CustomerRevenue{CustomerID: t.CustomerID}
			byID[t.CustomerID] = c
		}
		c.Revenue = c.Revenue.Add(t.TotalAmount)
		day := t.OrderDay()
		if _, seen := days[orderKey{t.CustomerID, day}]; !seen {
			days[orderKey{t.CustomerID, day}] = struct{}{}
			c.Orders++
		}
		if day.After(c.LastOrderDate) {
			c.LastOrderDate = day
		}
	}

	out := make([]CustomerRevenue, 0, len(byID))
	for _, c := range byID {
		c.AvgOrderValue = c.Revenue.DivRound(decimal.NewFromInt(int64(c.Orders)), 2)
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Revenue.Cmp(out[j].Revenue); c != 0 {
			return c > 0
		}
		return out[i].CustomerID < out[j].CustomerID
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// pct is part/whole in percent, two decimals. Zero whole gives 0.
func pct(part, whole decimal.Decimal) float64 {
	if whole.IsZero() {
		return 0
	}
	return part.Mul(hundred).DivRound(whole, 2).InexactFloat64()
}

// growth from prev to cur in percent. A non-positive base gives 0.
func growth(cur, prev decimal.Decimal) float64 {
	if !prev.IsPositive() {
		return 0
	}
	return pct(cur.Sub(prev), prev)
}
