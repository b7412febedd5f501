package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

/*
LOAD → one order line as handed over by the loaders (CSV, MySQL, SQLite).
*/

// Transaction is one order line. TotalAmount is the authoritative revenue of
// the line; it is never recomputed from Quantity × UnitPrice.
type Transaction struct {
	CustomerID  string          `json:"customer_id"`
	OrderDate   time.Time       `json:"order_date"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Country     string          `json:"country,omitempty"`
	Region      string          `json:"region,omitempty"`
	City        string          `json:"city,omitempty"`
}

// OrderDay truncates the order date to its UTC calendar day.
func (t Transaction) OrderDay() time.Time {
	return Day(t.OrderDate)
}

// Day returns the UTC midnight of t.
func Day(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

/*
COMPUTE → per-customer profile built fresh on every analysis run.
*/

// Segment is the fixed customer segment taxonomy.
type Segment string

const (
	SegmentChampions          Segment = "Champions"
	SegmentLoyalCustomers     Segment = "Loyal Customers"
	SegmentPotentialLoyalists Segment = "Potential Loyalists"
	SegmentAtRisk             Segment = "At Risk"
	SegmentLostCustomers      Segment = "Lost Customers"
	SegmentOthers             Segment = "Others"
)

// Segments lists the taxonomy in display order.
var Segments = []Segment{
	SegmentChampions,
	SegmentLoyalCustomers,
	SegmentPotentialLoyalists,
	SegmentAtRisk,
	SegmentLostCustomers,
	SegmentOthers,
}

// ChurnRisk is the qualitative likelihood that a customer stopped buying.
type ChurnRisk string

const (
	ChurnLow    ChurnRisk = "Low"
	ChurnMedium ChurnRisk = "Medium"
	ChurnHigh   ChurnRisk = "High"
)

// CustomerProfile holds the RFM metrics, scores, segment and value estimates of
// one customer. Presentation code reads profiles; only the engine writes them.
type CustomerProfile struct {
	CustomerID     string          `json:"customer_id"`
	FirstOrderDate time.Time       `json:"first_order_date"`
	LastOrderDate  time.Time       `json:"last_order_date"`
	RecencyDays    int             `json:"recency_days"`
	Frequency      int             `json:"frequency"`
	Monetary       decimal.Decimal `json:"monetary"`
	RecencyScore   int             `json:"recency_score"`
	FrequencyScore int             `json:"frequency_score"`
	MonetaryScore  int             `json:"monetary_score"`
	Segment        Segment         `json:"rfm_segment"`
	CLVEstimate    decimal.Decimal `json:"clv_estimate"`
	ChurnRisk      ChurnRisk       `json:"churn_risk"`
}

// RFMCode renders the three scores as the usual "R F M" digit string, e.g. "545".
func (p CustomerProfile) RFMCode() string {
	return string([]byte{byte('0' + p.RecencyScore), byte('0' + p.FrequencyScore), byte('0' + p.MonetaryScore)})
}

/*
CONFIG → segmentation strategy selector
*/

// Strategy selects how segments are assigned. It is a closed set.
type Strategy string

const (
	StrategyRuleBased  Strategy = "rule_based"
	StrategyClustering Strategy = "clustering"
)

// ParseStrategy accepts "rule_based" or "clustering" (case-insensitive, '-' allowed).
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_") {
	case "", string(StrategyRuleBased):
		return StrategyRuleBased, nil
	case string(StrategyClustering):
		return StrategyClustering, nil
	}
	return "", &ConfigurationError{Key: "strategy", Reason: fmt.Sprintf("unknown strategy %q (want rule_based or clustering)", s)}
}
