// Package geo breaks revenue down by country, region or city.
package geo

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"rfm-insights/pkg/models"

	"github.com/shopspring/decimal"
)

// Level is the location column to group on.
type Level string

const (
	LevelCountry Level = "country"
	LevelRegion  Level = "region"
	LevelCity    Level = "city"
)

// Levels in coarse-to-fine order.
var Levels = []Level{LevelCountry, LevelRegion, LevelCity}

const unknown = "Unknown"

// ParseLevel accepts country, region or city; empty means country.
func ParseLevel(s string) (Level, error) {
	switch l := Level(strings.ToLower(strings.TrimSpace(s))); l {
	case "":
		return LevelCountry, nil
	case LevelCountry, LevelRegion, LevelCity:
		return l, nil
	}
	return "", &models.ConfigurationError{Key: "level", Reason: fmt.Sprintf("unknown geographic level %q (want country, region or city)", s)}
}

func (l Level) of(t models.Transaction) string {
	var v string
	switch l {
	case LevelRegion:
		v = t.Region
	case LevelCity:
		v = t.City
	default:
		v = t.Country
	}
	if v == "" {
		return unknown
	}
	return v
}

// Tier buckets a market share: ≤5 Emerging, ≤15 Growing, ≤30 Strong, else Dominant.
type Tier string

const (
	TierEmerging Tier = "Emerging"
	TierGrowing  Tier = "Growing"
	TierStrong   Tier = "Strong"
	TierDominant Tier = "Dominant"
)

func TierFor(sharePct float64) Tier {
	switch {
	case sharePct <= 5:
		return TierEmerging
	case sharePct <= 15:
		return TierGrowing
	case sharePct <= 30:
		return TierStrong
	default:
		return TierDominant
	}
}

// Region is one location at the chosen level.
type Region struct {
	Rank               int             `json:"rank"`
	Location           string          `json:"location"`
	Revenue            decimal.Decimal `json:"revenue"`
	Orders             int             `json:"orders"`
	Customers          int             `json:"customers"`
	Units              int             `json:"units"`
	RevenuePerCustomer decimal.Decimal `json:"revenue_per_customer"`
	SharePct           float64         `json:"market_share_pct"`
	Tier               Tier            `json:"tier"`
}

type orderKey struct {
	customer string
	day      time.Time
}

// Regional ranks locations by revenue, ties by name.
func Regional(txs []models.Transaction, level Level) []Region {
	type agg struct {
		region    Region
		orders    map[orderKey]struct{}
		customers map[string]struct{}
	}
	total := decimal.Zero
	byLoc := make(map[string]*agg)
	for _, t := range txs {
		loc := level.of(t)
		a, ok := byLoc[loc]
		if !ok {
			a = &agg{
				region:    Region{Location: loc},
				orders:    make(map[orderKey]struct{}),
				customers: make(map[string]struct{}),
			}
			byLoc[loc] = a
		}
		a.region.Revenue = a.region.Revenue.Add(t.TotalAmount)
		a.region.Units += t.Quantity
		a.orders[orderKey{t.CustomerID, t.OrderDay()}] = struct{}{}
		a.customers[t.CustomerID] = struct{}{}
		total = total.Add(t.TotalAmount)
	}

	out := make([]Region, 0, len(byLoc))
	for _, a := range byLoc {
		r := a.region
		r.Orders = len(a.orders)
		r.Customers = len(a.customers)
		r.RevenuePerCustomer = r.Revenue.DivRound(decimal.NewFromInt(int64(r.Customers)), 2)
		if !total.IsZero() {
			r.SharePct = r.Revenue.Mul(decimal.NewFromInt(100)).DivRound(total, 2).InexactFloat64()
		}
		r.Tier = TierFor(r.SharePct)
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Revenue.Cmp(out[j].Revenue); c != 0 {
			return c > 0
		}
		return out[i].Location < out[j].Location
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// LevelCoverage counts the distinct locations of one level.
type LevelCoverage struct {
	Level    Level  `json:"level"`
	Distinct int    `json:"distinct"`
	Top      string `json:"top"` // most order lines, ties by name
}

// Coverage reports every level, coarse to fine.
func Coverage(txs []models.Transaction) []LevelCoverage {
	out := make([]LevelCoverage, 0, len(Levels))
	for _, l := range Levels {
		counts := make(map[string]int)
		for _, t := range txs {
			counts[l.of(t)]++
		}
		c := LevelCoverage{Level: l, Distinct: len(counts)}
		best := 0
		for loc, n := range counts {
			if n > best || (n == best && loc < c.Top) {
				c.Top, best = loc, n
			}
		}
		out = append(out, c)
	}
	return out
}
