// Package cohort groups customers by the calendar month of their first order
// and tracks, month after month, how many of them come back and what they spend.
package cohort

import (
	"fmt"
	"sort"
	"time"

	"rfm-insights/pkg/models"
	"rfm-insights/pkg/rfm"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Cohort is one row of the retention matrix. Slices are indexed by month
// offset, offset 0 being the acquisition month.
type Cohort struct {
	Month              time.Time         `json:"month"`
	Label              string            `json:"label"` // "MM/YYYY"
	Size               int               `json:"size"`
	Active             []int             `json:"active"`
	Retention          []float64         `json:"retention"`
	RevenuePerCustomer []decimal.Decimal `json:"revenue_per_customer"`
	CumulativeLTV      decimal.Decimal   `json:"cumulative_ltv"`
}

// Matrix is the retention matrix keyed by (cohort month, month offset).
type Matrix struct {
	Cohorts   []Cohort  `json:"cohorts"`
	LastMonth time.Time `json:"last_month"`
}

// Retention builds the matrix from all transactions. Every cohort spans the
// offsets up to the last month present in the data.
func Retention(txs []models.Transaction) (*Matrix, error) {
	if len(txs) == 0 {
		return nil, &models.InsufficientDataError{Reason: "no transactions to build cohorts from"}
	}
	if err := rfm.Validate(txs); err != nil {
		return nil, err
	}

	first := make(map[string]time.Time)
	var last time.Time
	for _, t := range txs {
		m := monthStart(t.OrderDate)
		if f, ok := first[t.CustomerID]; !ok || m.Before(f) {
			first[t.CustomerID] = m
		}
		if m.After(last) {
			last = m
		}
	}

	type cell struct {
		customers map[string]struct{}
		revenue   decimal.Decimal
	}
	cells := make(map[time.Time][]cell)
	sizes := make(map[time.Time]int)
	for _, m := range first {
		if _, ok := cells[m]; !ok {
			span := monthOffset(m, last) + 1
			row := make([]cell, span)
			for i := range row {
				row[i].customers = make(map[string]struct{})
			}
			cells[m] = row
		}
		sizes[m]++
	}
	for _, t := range txs {
		c := first[t.CustomerID]
		off := monthOffset(c, t.OrderDate)
		cells[c][off].customers[t.CustomerID] = struct{}{}
		cells[c][off].revenue = cells[c][off].revenue.Add(t.TotalAmount)
	}

	months := make([]time.Time, 0, len(cells))
	for m := range cells {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })

	matrix := &Matrix{Cohorts: make([]Cohort, 0, len(months)), LastMonth: last}
	for _, m := range months {
		row := cells[m]
		size := sizes[m]
		n := decimal.NewFromInt(int64(size))
		c := Cohort{
			Month:              m,
			Label:              formatMonth(m),
			Size:               size,
			Active:             make([]int, len(row)),
			Retention:          make([]float64, len(row)),
			RevenuePerCustomer: make([]decimal.Decimal, len(row)),
		}
		total := decimal.Zero
		for off, cl := range row {
			c.Active[off] = len(cl.customers)
			c.Retention[off] = float64(len(cl.customers)) / float64(size)
			c.RevenuePerCustomer[off] = cl.revenue.DivRound(n, 2)
			total = total.Add(cl.revenue)
		}
		c.CumulativeLTV = total.DivRound(n, 2)
		matrix.Cohorts = append(matrix.Cohorts, c)
	}

	log.Debug().Int("cohorts", len(matrix.Cohorts)).Str("last_month", formatMonth(last)).Msg("retention matrix built")
	return matrix, nil
}

// Fraction looks up the retention of the cohort acquired in month at offset.
func (m *Matrix) Fraction(month time.Time, offset int) (float64, bool) {
	month = monthStart(month)
	for _, c := range m.Cohorts {
		if c.Month.Equal(month) {
			if offset < 0 || offset >= len(c.Retention) {
				return 0, false
			}
			return c.Retention[offset], true
		}
	}
	return 0, false
}

// Window keeps the cohorts acquired between two MMYYYY months, inclusive.
// An empty bound leaves that side open.
func (m *Matrix) Window(startMonth, endMonth string) (*Matrix, error) {
	start, end := time.Time{}, m.LastMonth
	var err error
	if startMonth != "" {
		if start, err = parseMonth(startMonth); err != nil {
			return nil, &models.ConfigurationError{Key: "start_month", Reason: err.Error()}
		}
	}
	if endMonth != "" {
		if end, err = parseMonth(endMonth); err != nil {
			return nil, &models.ConfigurationError{Key: "end_month", Reason: err.Error()}
		}
	}
	if end.Before(start) {
		return nil, &models.ConfigurationError{Key: "end_month", Reason: fmt.Sprintf("%s is before start month %s", formatMonth(end), formatMonth(start))}
	}

	out := &Matrix{LastMonth: m.LastMonth}
	for _, c := range m.Cohorts {
		if !c.Month.Before(start) && !c.Month.After(end) {
			out.Cohorts = append(out.Cohorts, c)
		}
	}
	return out, nil
}

// AverageByOffset is the mean retention per offset over the cohorts old
// enough to have that offset.
func (m *Matrix) AverageByOffset() []float64 {
	var sums []float64
	var counts []int
	for _, c := range m.Cohorts {
		for off, r := range c.Retention {
			if off >= len(sums) {
				sums = append(sums, 0)
				counts = append(counts, 0)
			}
			sums[off] += r
			counts[off]++
		}
	}
	for i := range sums {
		sums[i] /= float64(counts[i])
	}
	return sums
}
