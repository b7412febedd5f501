package geo

import (
	"sort"

	"rfm-insights/pkg/models"

	"github.com/shopspring/decimal"
)

// Concentration reads a Herfindahl-Hirschman index of customer shares.
type Concentration string

const (
	ConcentrationHigh     Concentration = "Highly Concentrated"
	ConcentrationModerate Concentration = "Moderately Concentrated"
	ConcentrationLow      Concentration = "Unconcentrated"
)

// ConcentrationFor uses the usual antitrust thresholds: above 2500 is high,
// above 1500 moderate.
func ConcentrationFor(hhi float64) Concentration {
	switch {
	case hhi > 2500:
		return ConcentrationHigh
	case hhi > 1500:
		return ConcentrationModerate
	default:
		return ConcentrationLow
	}
}

const marketPicks = 3

// Market is the customer base of one location.
type Market struct {
	Location           string          `json:"location"`
	Customers          int             `json:"customers"`
	Orders             int             `json:"orders"`
	Revenue            decimal.Decimal `json:"revenue"`
	RevenuePerCustomer decimal.Decimal `json:"revenue_per_customer"`
	OrdersPerCustomer  float64         `json:"orders_per_customer"`
	CustomerSharePct   float64         `json:"customer_share_pct"`
	// ExpansionScore is revenue per customer divided by customers: high
	// value and few customers score high.
	ExpansionScore float64 `json:"expansion_score"`
}

type Penetration struct {
	Markets       []Market      `json:"markets"` // by customers descending, ties by name
	Expansion     []string      `json:"expansion_opportunities"`
	Mature        []string      `json:"mature_markets"`
	HHI           float64       `json:"hhi"`
	Concentration Concentration `json:"concentration"`
}

// MarketPenetration scores every location. The Unknown bucket counts toward
// shares and the index but is never suggested as a market.
func MarketPenetration(txs []models.Transaction, level Level) Penetration {
	regions := Regional(txs, level)
	var p Penetration
	total := 0
	for _, r := range regions {
		total += r.Customers
	}
	hhi := decimal.Zero
	for _, r := range regions {
		customers := decimal.NewFromInt(int64(r.Customers))
		m := Market{
			Location:           r.Location,
			Customers:          r.Customers,
			Orders:             r.Orders,
			Revenue:            r.Revenue,
			RevenuePerCustomer: r.RevenuePerCustomer,
			OrdersPerCustomer:  decimal.NewFromInt(int64(r.Orders)).DivRound(customers, 2).InexactFloat64(),
			ExpansionScore:     r.Revenue.Div(customers).DivRound(customers, 4).InexactFloat64(),
		}
		share := customers.Mul(decimal.NewFromInt(100)).Div(decimal.NewFromInt(int64(total)))
		hhi = hhi.Add(share.Mul(share))
		m.CustomerSharePct = share.Round(2).InexactFloat64()
		p.Markets = append(p.Markets, m)
	}
	p.HHI = hhi.Round(2).InexactFloat64()
	p.Concentration = ConcentrationFor(p.HHI)

	sort.Slice(p.Markets, func(i, j int) bool {
		if p.Markets[i].Customers != p.Markets[j].Customers {
			return p.Markets[i].Customers > p.Markets[j].Customers
		}
		return p.Markets[i].Location < p.Markets[j].Location
	})
	p.Mature = pick(p.Markets)

	byScore := append([]Market(nil), p.Markets...)
	sort.SliceStable(byScore, func(i, j int) bool {
		if byScore[i].ExpansionScore != byScore[j].ExpansionScore {
			return byScore[i].ExpansionScore > byScore[j].ExpansionScore
		}
		return byScore[i].Location < byScore[j].Location
	})
	p.Expansion = pick(byScore)
	return p
}

func pick(ms []Market) []string {
	var out []string
	for _, m := range ms {
		if len(out) == marketPicks {
			break
		}
		if m.Location != unknown {
			out = append(out, m.Location)
		}
	}
	return out
}
