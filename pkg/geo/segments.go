package geo

import (
	"sort"

	"rfm-insights/pkg/models"

	"github.com/shopspring/decimal"
)

// SpendTier and FrequencyTier are terciles of customers within one location.
type (
	SpendTier     string
	FrequencyTier string
)

const (
	SpendLow    SpendTier = "Low Spender"
	SpendMedium SpendTier = "Medium Spender"
	SpendHigh   SpendTier = "High Spender"

	FrequencyOccasional FrequencyTier = "Occasional"
	FrequencyRegular    FrequencyTier = "Regular"
	FrequencyFrequent   FrequencyTier = "Frequent"
)

var (
	spendTiers     = [3]SpendTier{SpendLow, SpendMedium, SpendHigh}
	frequencyTiers = [3]FrequencyTier{FrequencyOccasional, FrequencyRegular, FrequencyFrequent}
)

// LocalCustomer is a customer's activity in one location. A customer who
// bought in two locations appears once per location.
type LocalCustomer struct {
	Location   string          `json:"location"`
	CustomerID string          `json:"customer_id"`
	Spent      decimal.Decimal `json:"total_spent"`
	Orders     int             `json:"orders"`
	Spending   SpendTier       `json:"spending_tier"`
	Frequency  FrequencyTier   `json:"frequency_tier"`
}

// CustomerTiers ranks customers inside each location by spend and by order
// count and cuts both rankings in thirds. Ties rank by customer id, so every
// customer gets a tier even when the values are all equal. Output is by
// location, then spend descending.
func CustomerTiers(txs []models.Transaction, level Level) []LocalCustomer {
	type key struct{ loc, customer string }
	byKey := make(map[key]*LocalCustomer)
	days := make(map[key]map[orderKey]struct{})
	for _, t := range txs {
		k := key{level.of(t), t.CustomerID}
		c, ok := byKey[k]
		if !ok {
			c = &LocalCustomer{Location: k.loc, CustomerID: k.customer}
			byKey[k] = c
			days[k] = make(map[orderKey]struct{})
		}
		c.Spent = c.Spent.Add(t.TotalAmount)
		days[k][orderKey{t.CustomerID, t.OrderDay()}] = struct{}{}
	}

	groups := make(map[string][]*LocalCustomer)
	for k, c := range byKey {
		c.Orders = len(days[k])
		groups[k.loc] = append(groups[k.loc], c)
	}
	for _, g := range groups {
		sort.Slice(g, func(i, j int) bool {
			if c := g[i].Spent.Cmp(g[j].Spent); c != 0 {
				return c < 0
			}
			return g[i].CustomerID < g[j].CustomerID
		})
		for r, c := range g {
			c.Spending = spendTiers[tercile(r+1, len(g))]
		}
		sort.Slice(g, func(i, j int) bool {
			if g[i].Orders != g[j].Orders {
				return g[i].Orders < g[j].Orders
			}
			return g[i].CustomerID < g[j].CustomerID
		})
		for r, c := range g {
			c.Frequency = frequencyTiers[tercile(r+1, len(g))]
		}
	}

	out := make([]LocalCustomer, 0, len(byKey))
	for _, c := range byKey {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Location != out[j].Location {
			return out[i].Location < out[j].Location
		}
		if c := out[i].Spent.Cmp(out[j].Spent); c != 0 {
			return c > 0
		}
		return out[i].CustomerID < out[j].CustomerID
	})
	return out
}

// tercile maps the 1-based rank r of n onto 0..2 with cut points at the
// linearly interpolated 1/3 and 2/3 quantiles of the ranks 1..n.
func tercile(r, n int) int {
	for i := 0; i < 2; i++ {
		if 3*(r-1) <= (i+1)*(n-1) {
			return i
		}
	}
	return 2
}

// LocationSegments is the RFM segment mix of the customers based in one
// location.
type LocationSegments struct {
	Location  string                 `json:"location"`
	Customers int                    `json:"customers"`
	Segments  map[models.Segment]int `json:"segments"`
}

// SegmentsByLocation places every profiled customer in the location where
// they spent the most (ties by name) and counts segments per location.
// Customers without a profile are ignored. Output is by customers
// descending, ties by name.
func SegmentsByLocation(txs []models.Transaction, profiles []models.CustomerProfile, level Level) []LocationSegments {
	spent := make(map[string]map[string]decimal.Decimal)
	for _, t := range txs {
		m, ok := spent[t.CustomerID]
		if !ok {
			m = make(map[string]decimal.Decimal)
			spent[t.CustomerID] = m
		}
		loc := level.of(t)
		m[loc] = m[loc].Add(t.TotalAmount)
	}

	byLoc := make(map[string]*LocationSegments)
	for _, p := range profiles {
		locs, ok := spent[p.CustomerID]
		if !ok {
			continue
		}
		home, best := "", decimal.Zero
		for loc, v := range locs {
			if home == "" || v.GreaterThan(best) || (v.Equal(best) && loc < home) {
				home, best = loc, v
			}
		}
		s, ok := byLoc[home]
		if !ok {
			s = &LocationSegments{Location: home, Segments: make(map[models.Segment]int)}
			byLoc[home] = s
		}
		s.Customers++
		s.Segments[p.Segment]++
	}

	out := make([]LocationSegments, 0, len(byLoc))
	for _, s := range byLoc {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Customers != out[j].Customers {
			return out[i].Customers > out[j].Customers
		}
		return out[i].Location < out[j].Location
	})
	return out
}
