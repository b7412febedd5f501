// Package segmentation assigns exactly one customer segment per profile,
// either from the fixed RFM rule table or from k-means clusters.
package segmentation

import (
	"fmt"

	"rfm-insights/pkg/models"

	"github.com/rs/zerolog/log"
)

// segmenter is the shared signature of both strategies.
type segmenter func(profiles []models.CustomerProfile, k int) ([]models.Segment, error)

func segmenterFor(s models.Strategy) (segmenter, error) {
	switch s {
	case models.StrategyRuleBased:
		return ruleBased, nil
	case models.StrategyClustering:
		return clustered, nil
	}
	return nil, &models.ConfigurationError{Key: "strategy", Reason: fmt.Sprintf("unknown strategy %q", s)}
}

// ValidateK normalizes the cluster count: 0 selects DefaultK, anything
// outside [MinK, MaxK] is a configuration error.
func ValidateK(k int) (int, error) {
	if k == 0 {
		return DefaultK, nil
	}
	if k < MinK || k > MaxK {
		return 0, &models.ConfigurationError{Key: "k", Reason: fmt.Sprintf("must be between %d and %d, got %d", MinK, MaxK, k)}
	}
	return k, nil
}

// ClassifySegments returns copies of profiles with Segment set. k is only
// read by the clustering strategy. The input slice is not modified.
func ClassifySegments(profiles []models.CustomerProfile, strategy models.Strategy, k int) ([]models.CustomerProfile, error) {
	seg, err := segmenterFor(strategy)
	if err != nil {
		return nil, err
	}
	if strategy == models.StrategyClustering {
		if k, err = ValidateK(k); err != nil {
			return nil, err
		}
	}
	if len(profiles) == 0 {
		return nil, &models.InsufficientDataError{Reason: "no customer profiles to classify"}
	}

	segments, err := seg(profiles, k)
	if err != nil {
		return nil, fmt.Errorf("%s segmentation: %w", strategy, err)
	}

	out := make([]models.CustomerProfile, len(profiles))
	copy(out, profiles)
	for i := range out {
		out[i].Segment = segments[i]
	}

	log.Debug().
		Str("strategy", string(strategy)).
		Int("customers", len(out)).
		Msg("segments assigned")

	return out, nil
}
