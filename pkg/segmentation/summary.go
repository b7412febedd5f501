package segmentation

import (
	"rfm-insights/pkg/models"

	"github.com/shopspring/decimal"
)

// SegmentSummary aggregates the customers of one segment.
type SegmentSummary struct {
	Segment         models.Segment  `json:"segment"`
	Customers       int             `json:"customers"`
	CustomerShare   float64         `json:"customer_share_pct"`
	Revenue         decimal.Decimal `json:"revenue"`
	AvgRecencyDays  float64         `json:"avg_recency_days"`
	AvgFrequency    float64         `json:"avg_frequency"`
	AvgMonetary     decimal.Decimal `json:"avg_monetary"`
	AvgCLVEstimate  decimal.Decimal `json:"avg_clv_estimate"`
	HighChurnRiskPc float64         `json:"high_churn_risk_pct"`
}

// Summarize groups classified profiles per segment, in taxonomy order.
// Segments without customers are omitted.
func Summarize(profiles []models.CustomerProfile) []SegmentSummary {
	type acc struct {
		n        int
		revenue  decimal.Decimal
		clv      decimal.Decimal
		recency  int
		freq     int
		highRisk int
	}
	bySeg := make(map[models.Segment]*acc)
	for _, p := range profiles {
		a, ok := bySeg[p.Segment]
		if !ok {
			a = &acc{}
			bySeg[p.Segment] = a
		}
		a.n++
		a.revenue = a.revenue.Add(p.Monetary)
		a.clv = a.clv.Add(p.CLVEstimate)
		a.recency += p.RecencyDays
		a.freq += p.Frequency
		if p.ChurnRisk == models.ChurnHigh {
			a.highRisk++
		}
	}

	out := make([]SegmentSummary, 0, len(bySeg))
	for _, seg := range models.Segments {
		a, ok := bySeg[seg]
		if !ok {
			continue
		}
		n := decimal.NewFromInt(int64(a.n))
		out = append(out, SegmentSummary{
			Segment:         seg,
			Customers:       a.n,
			CustomerShare:   100 * float64(a.n) / float64(len(profiles)),
			Revenue:         a.revenue,
			AvgRecencyDays:  float64(a.recency) / float64(a.n),
			AvgFrequency:    float64(a.freq) / float64(a.n),
			AvgMonetary:     a.revenue.DivRound(n, 2),
			AvgCLVEstimate:  a.clv.DivRound(n, 2),
			HighChurnRiskPc: 100 * float64(a.highRisk) / float64(a.n),
		})
	}
	return out
}
