package segmentation

import "rfm-insights/pkg/models"

// rule is one row of the fixed segment table. Rules are evaluated top to
// bottom and the first match wins; thresholds never depend on the dataset.
type rule struct {
	segment models.Segment
	match   func(r, f, m int) bool
}

var rules = []rule{
	{models.SegmentChampions, func(r, f, m int) bool { return r >= 4 && f >= 4 && m >= 4 }},
	{models.SegmentLoyalCustomers, func(r, f, m int) bool { return f >= 3 && m >= 3 && r >= 3 }},
	{models.SegmentPotentialLoyalists, func(r, f, _ int) bool { return r >= 4 && f <= 2 }},
	{models.SegmentAtRisk, func(r, f, m int) bool { return r <= 2 && (f >= 3 || m >= 3) }},
	{models.SegmentLostCustomers, func(r, f, m int) bool { return r <= 2 && f <= 2 && m <= 2 }},
}

// ClassifyScores maps one (R, F, M) triple to its segment.
func ClassifyScores(r, f, m int) models.Segment {
	for _, rl := range rules {
		if rl.match(r, f, m) {
			return rl.segment
		}
	}
	return models.SegmentOthers
}

func ruleBased(profiles []models.CustomerProfile, _ int) ([]models.Segment, error) {
	out := make([]models.Segment, len(profiles))
	for i, p := range profiles {
		out[i] = ClassifyScores(p.RecencyScore, p.FrequencyScore, p.MonetaryScore)
	}
	return out, nil
}
