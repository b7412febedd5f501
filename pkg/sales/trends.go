package sales

import (
	"sort"
	"time"

	"rfm-insights/pkg/models"

	"github.com/shopspring/decimal"
)

const movingWindow = 3

// MonthlyTrend is one calendar month (UTC) of activity.
type MonthlyTrend struct {
	Month          time.Time       `json:"month"`
	Label          string          `json:"label"` // "2006-01"
	Revenue        decimal.Decimal `json:"revenue"`
	Orders         int             `json:"orders"`
	Customers      int             `json:"customers"`
	Units          int             `json:"units"`
	RevenueGrowth  float64         `json:"revenue_growth_pct"` // 0 for the first month
	MovingAvgRev3M decimal.Decimal `json:"moving_avg_revenue_3m"`
}

// MonthlyTrends lists the months that have at least one order, oldest first.
// The moving average covers up to three months ending at the row.
func MonthlyTrends(txs []models.Transaction) []MonthlyTrend {
	type agg struct {
		trend     MonthlyTrend
		orders    map[orderKey]struct{}
		customers map[string]struct{}
	}
	months := make(map[time.Time]*agg)
	for _, t := range txs {
		day := t.OrderDay()
		m := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
		a, ok := months[m]
		if !ok {
			a = &agg{
				trend:     MonthlyTrend{Month: m, Label: m.Format("2006-01")},
				orders:    make(map[orderKey]struct{}),
				customers: make(map[string]struct{}),
			}
			months[m] = a
		}
		a.trend.Revenue = a.trend.Revenue.Add(t.TotalAmount)
		a.trend.Units += t.Quantity
		a.orders[orderKey{t.CustomerID, day}] = struct{}{}
		a.customers[t.CustomerID] = struct{}{}
	}

	out := make([]MonthlyTrend, 0, len(months))
	for _, a := range months {
		a.trend.Orders = len(a.orders)
		a.trend.Customers = len(a.customers)
		out = append(out, a.trend)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month.Before(out[j].Month) })

	for i := range out {
		if i > 0 {
			out[i].RevenueGrowth = growth(out[i].Revenue, out[i-1].Revenue)
		}
		lo := max(0, i-movingWindow+1)
		sum := decimal.Zero
		for _, w := range out[lo : i+1] {
			sum = sum.Add(w.Revenue)
		}
		out[i].MovingAvgRev3M = sum.DivRound(decimal.NewFromInt(int64(i+1-lo)), 2)
	}
	return out
}
