package ingest

import (
	"sort"
	"time"

	"rfm-insights/pkg/models"
	"rfm-insights/pkg/rfm"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes a loaded dataset before any analysis runs.
type Summary struct {
	Records   int       `json:"total_records"`
	Customers int       `json:"unique_customers"`
	Products  int       `json:"unique_products"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Days      int       `json:"days"`

	Revenue          AmountStats   `json:"revenue"`
	Quantity         QuantityStats `json:"quantity"`
	LinesPerCustomer Distribution  `json:"lines_per_customer"`
}

// AmountStats describe line totals. StdDev is the sample deviation.
type AmountStats struct {
	Total  decimal.Decimal `json:"total"`
	Mean   decimal.Decimal `json:"mean"`
	Median decimal.Decimal `json:"median"`
	StdDev float64         `json:"std"`
}

type QuantityStats struct {
	Total int     `json:"total"`
	Mean  float64 `json:"mean"`
	Max   int     `json:"max"`
}

type Distribution struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std"`
	Min    float64 `json:"min"`
	Median float64 `json:"median"`
	Max    float64 `json:"max"`
}

// Summarize needs at least one transaction.
func Summarize(txs []models.Transaction) (*Summary, error) {
	if len(txs) == 0 {
		return nil, &models.InsufficientDataError{Reason: "no transactions to summarize"}
	}
	s := &Summary{Records: len(txs), Start: txs[0].OrderDate, End: txs[0].OrderDate}

	lines := make(map[string]int)
	products := make(map[string]struct{})
	amounts := make([]decimal.Decimal, 0, len(txs))
	for _, t := range txs {
		lines[t.CustomerID]++
		products[t.ProductName] = struct{}{}
		amounts = append(amounts, t.TotalAmount)
		s.Revenue.Total = s.Revenue.Total.Add(t.TotalAmount)
		s.Quantity.Total += t.Quantity
		s.Quantity.Max = max(s.Quantity.Max, t.Quantity)
		if t.OrderDate.Before(s.Start) {
			s.Start = t.OrderDate
		}
		if t.OrderDate.After(s.End) {
			s.End = t.OrderDate
		}
	}
	s.Customers = len(lines)
	s.Products = len(products)
	s.Days = rfm.DaysBetween(s.Start, s.End)

	n := decimal.NewFromInt(int64(len(txs)))
	s.Revenue.Mean = s.Revenue.Total.DivRound(n, 2)
	sort.Slice(amounts, func(i, j int) bool { return amounts[i].LessThan(amounts[j]) })
	mid := len(amounts) / 2
	if len(amounts)%2 == 1 {
		s.Revenue.Median = amounts[mid]
	} else {
		s.Revenue.Median = amounts[mid-1].Add(amounts[mid]).DivRound(decimal.NewFromInt(2), 2)
	}
	xs := make([]float64, len(amounts))
	for i, a := range amounts {
		xs[i] = a.InexactFloat64()
	}
	s.Revenue.StdDev = sampleStd(xs)
	s.Quantity.Mean = round2(float64(s.Quantity.Total) / float64(len(txs)))

	perCustomer := make([]float64, 0, len(lines))
	for _, c := range lines {
		perCustomer = append(perCustomer, float64(c))
	}
	sort.Float64s(perCustomer)
	s.LinesPerCustomer = Distribution{
		Mean:   round2(stat.Mean(perCustomer, nil)),
		StdDev: sampleStd(perCustomer),
		Min:    floats.Min(perCustomer),
		Median: median(perCustomer),
		Max:    floats.Max(perCustomer),
	}
	return s, nil
}

// sampleStd is 0 for fewer than two values.
func sampleStd(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	return round2(stat.StdDev(xs, nil))
}

// median of sorted xs, averaging the middle pair for even lengths.
func median(sorted []float64) float64 {
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return round2((sorted[mid-1] + sorted[mid]) / 2)
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
