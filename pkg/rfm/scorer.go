// Package rfm computes per-customer Recency, Frequency and Monetary metrics
// and scores them into quintiles across the customer population.
package rfm

import (
	"fmt"
	"sort"
	"time"

	"rfm-insights/pkg/models"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const secondsPerDay = 24 * 60 * 60

type customerAgg struct {
	first    time.Time
	last     time.Time
	days     map[time.Time]struct{}
	monetary decimal.Decimal
}

// ComputeRFM builds one profile per distinct customer with recency, frequency,
// monetary and their 1..5 scores. Segment, CLV and churn are left empty.
//
// A zero analysisDate means "the latest order day in the data". Frequency
// counts distinct order days, so several lines bought on the same day are one
// order. Profiles are returned sorted by customer id.
func ComputeRFM(txs []models.Transaction, analysisDate time.Time) ([]models.CustomerProfile, error) {
	if len(txs) == 0 {
		return nil, &models.InsufficientDataError{Reason: "no transactions, at least one customer is required"}
	}
	if err := Validate(txs); err != nil {
		return nil, err
	}

	asOf := models.Day(analysisDate)
	if analysisDate.IsZero() {
		asOf = LatestOrderDay(txs)
	}

	aggs := make(map[string]*customerAgg)
	for _, t := range txs {
		day := t.OrderDay()
		if day.After(asOf) {
			return nil, &models.InvalidDataError{
				Field:  "order_date",
				Reason: fmt.Sprintf("customer %s ordered on %s, after analysis date %s", t.CustomerID, day.Format(time.DateOnly), asOf.Format(time.DateOnly)),
			}
		}
		a, ok := aggs[t.CustomerID]
		if !ok {
			a = &customerAgg{first: day, last: day, days: make(map[time.Time]struct{})}
			aggs[t.CustomerID] = a
		}
		if day.Before(a.first) {
			a.first = day
		}
		if day.After(a.last) {
			a.last = day
		}
		a.days[day] = struct{}{}
		a.monetary = a.monetary.Add(t.TotalAmount)
	}

	ids := make([]string, 0, len(aggs))
	for id := range aggs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	profiles := make([]models.CustomerProfile, len(ids))
	recency := make([]float64, len(ids))
	frequency := make([]float64, len(ids))
	monetary := make([]float64, len(ids))
	for i, id := range ids {
		a := aggs[id]
		p := models.CustomerProfile{
			CustomerID:     id,
			FirstOrderDate: a.first,
			LastOrderDate:  a.last,
			RecencyDays:    DaysBetween(a.last, asOf),
			Frequency:      len(a.days),
			Monetary:       a.monetary,
		}
		profiles[i] = p
		recency[i] = float64(p.RecencyDays)
		frequency[i] = float64(p.Frequency)
		monetary[i] = p.Monetary.InexactFloat64()
	}

	rScores := ReverseBins(recency)
	fScores := Bins(frequency)
	mScores := Bins(monetary)
	for i := range profiles {
		profiles[i].RecencyScore = rScores[i]
		profiles[i].FrequencyScore = fScores[i]
		profiles[i].MonetaryScore = mScores[i]
	}

	log.Debug().
		Int("customers", len(profiles)).
		Int("rows", len(txs)).
		Str("analysis_date", asOf.Format(time.DateOnly)).
		Msg("rfm scores computed")

	return profiles, nil
}

// Validate checks the loader guarantees the scorer relies on.
func Validate(txs []models.Transaction) error {
	for i, t := range txs {
		switch {
		case t.CustomerID == "":
			return &models.InvalidDataError{Field: "customer_id", Reason: fmt.Sprintf("empty on row %d", i)}
		case t.OrderDate.IsZero():
			return &models.InvalidDataError{Field: "order_date", Reason: fmt.Sprintf("missing on row %d", i)}
		case t.Quantity < 0:
			return &models.InvalidDataError{Field: "quantity", Reason: fmt.Sprintf("negative on row %d", i)}
		case t.UnitPrice.IsNegative():
			return &models.InvalidDataError{Field: "unit_price", Reason: fmt.Sprintf("negative on row %d", i)}
		case t.TotalAmount.IsNegative():
			return &models.InvalidDataError{Field: "total_amount", Reason: fmt.Sprintf("negative on row %d", i)}
		}
	}
	return nil
}

// LatestOrderDay is the default analysis date: the most recent order day.
func LatestOrderDay(txs []models.Transaction) time.Time {
	var latest time.Time
	for _, t := range txs {
		if d := t.OrderDay(); d.After(latest) {
			latest = d
		}
	}
	return latest
}

// DaysBetween counts whole calendar days from a to b (both truncated to UTC days).
func DaysBetween(a, b time.Time) int {
	return int((models.Day(b).Unix() - models.Day(a).Unix()) / secondsPerDay)
}
