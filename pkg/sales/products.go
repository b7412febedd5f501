package sales

import (
	"sort"

	"rfm-insights/pkg/models"

	"github.com/shopspring/decimal"
)

// ProductStat is one product ranked by revenue.
type ProductStat struct {
	Rank               int             `json:"rank"`
	Product            string          `json:"product_name"`
	Revenue            decimal.Decimal `json:"revenue"`
	Units              int             `json:"units"`
	Orders             int             `json:"orders"`
	Customers          int             `json:"customers"`
	SharePct           float64         `json:"revenue_share_pct"`
	CumulativeSharePct float64         `json:"cumulative_share_pct"`
}

// ProductPerformance ranks products by revenue, ties by name.
func ProductPerformance(txs []models.Transaction) []ProductStat {
	type agg struct {
		stat      ProductStat
		orders    map[orderKey]struct{}
		customers map[string]struct{}
	}
	total := decimal.Zero
	byName := make(map[string]*agg)
	for _, t := range txs {
		a, ok := byName[t.ProductName]
		if !ok {
			a = &agg{
				stat:      ProductStat{Product: t.ProductName},
				orders:    make(map[orderKey]struct{}),
				customers: make(map[string]struct{}),
			}
			byName[t.ProductName] = a
		}
		a.stat.Revenue = a.stat.Revenue.Add(t.TotalAmount)
		a.stat.Units += t.Quantity
		a.orders[orderKey{t.CustomerID, t.OrderDay()}] = struct{}{}
		a.customers[t.CustomerID] = struct{}{}
		total = total.Add(t.TotalAmount)
	}

	out := make([]ProductStat, 0, len(byName))
	for _, a := range byName {
		a.stat.Orders = len(a.orders)
		a.stat.Customers = len(a.customers)
		out = append(out, a.stat)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Revenue.Cmp(out[j].Revenue); c != 0 {
			return c > 0
		}
		return out[i].Product < out[j].Product
	})

	running := decimal.Zero
	for i := range out {
		out[i].Rank = i + 1
		out[i].SharePct = pct(out[i].Revenue, total)
		running = running.Add(out[i].Revenue)
		out[i].CumulativeSharePct = pct(running, total)
	}
	return out
}
