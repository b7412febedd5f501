// Package clv projects customer lifetime value and derives churn risk.
package clv

import (
	"fmt"
	"time"

	"rfm-insights/pkg/models"
	"rfm-insights/pkg/rfm"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const (
	// DefaultHorizonMonths is the assumed retention horizon of a customer.
	DefaultHorizonMonths = 12

	daysPerMonth = 30
)

// Options tune the estimator.
type Options struct {
	HorizonMonths int
}

// EstimateCLVAndChurn returns copies of profiles with CLVEstimate and
// ChurnRisk filled in.
//
//	clv = AOV × orders per month × horizon months
//	    = monetary × horizon × 30 / tenure_days
//
// where tenure is the span between the first and last order day found in txs.
// A single-day customer (tenure 0) has no observable repeat rate and gets 0.
func EstimateCLVAndChurn(profiles []models.CustomerProfile, txs []models.Transaction, opts Options) ([]models.CustomerProfile, error) {
	horizon := opts.HorizonMonths
	if horizon == 0 {
		horizon = DefaultHorizonMonths
	}
	if horizon < 1 {
		return nil, &models.ConfigurationError{Key: "horizon_months", Reason: fmt.Sprintf("must be >= 1, got %d", horizon)}
	}

	spans := tenureSpans(txs)
	horizonDays := decimal.NewFromInt(int64(horizon * daysPerMonth))

	out := make([]models.CustomerProfile, len(profiles))
	copy(out, profiles)
	for i := range out {
		p := &out[i]
		if s, ok := spans[p.CustomerID]; ok {
			p.FirstOrderDate, p.LastOrderDate = s[0], s[1]
		}
		p.CLVEstimate = Estimate(p.Monetary, rfm.DaysBetween(p.FirstOrderDate, p.LastOrderDate), horizonDays)
		p.ChurnRisk = ChurnRiskFor(p.RecencyScore)
	}

	log.Debug().Int("customers", len(out)).Int("horizon_months", horizon).Msg("clv estimated")
	return out, nil
}

// Estimate applies the repeat factor horizonDays / tenureDays to monetary,
// rounded to cents. Non-positive tenure or monetary yields zero.
func Estimate(monetary decimal.Decimal, tenureDays int, horizonDays decimal.Decimal) decimal.Decimal {
	if tenureDays <= 0 || !monetary.IsPositive() {
		return decimal.Zero
	}
	return monetary.Mul(horizonDays).DivRound(decimal.NewFromInt(int64(tenureDays)), 2)
}

// ChurnRiskFor maps a recency score: ≤2 High, 3 Medium, ≥4 Low.
func ChurnRiskFor(recencyScore int) models.ChurnRisk {
	switch {
	case recencyScore <= 2:
		return models.ChurnHigh
	case recencyScore == 3:
		return models.ChurnMedium
	default:
		return models.ChurnLow
	}
}

func tenureSpans(txs []models.Transaction) map[string][2]time.Time {
	spans := make(map[string][2]time.Time)
	for _, t := range txs {
		day := t.OrderDay()
		s, ok := spans[t.CustomerID]
		if !ok {
			spans[t.CustomerID] = [2]time.Time{day, day}
			continue
		}
		if day.Before(s[0]) {
			s[0] = day
		}
		if day.After(s[1]) {
			s[1] = day
		}
		spans[t.CustomerID] = s
	}
	return spans
}
