package segmentation

import (
	"errors"
	"fmt"
	"testing"

	"rfm-insights/pkg/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyScores(t *testing.T) {
	tests := []struct {
		r, f, m int
		want    models.Segment
	}{
		{5, 5, 5, models.SegmentChampions},
		{4, 4, 4, models.SegmentChampions},
		{3, 3, 3, models.SegmentLoyalCustomers},
		{4, 4, 3, models.SegmentLoyalCustomers},
		{5, 1, 1, models.SegmentPotentialLoyalists},
		{4, 2, 5, models.SegmentPotentialLoyalists},
		{2, 3, 1, models.SegmentAtRisk},
		{1, 1, 5, models.SegmentAtRisk},
		{1, 1, 1, models.SegmentLostCustomers},
		{2, 2, 2, models.SegmentLostCustomers},
		{3, 1, 1, models.SegmentOthers},
		{4, 3, 2, models.SegmentOthers},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d%d%d", tt.r, tt.f, tt.m), func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyScores(tt.r, tt.f, tt.m))
		})
	}
}

func TestClassifyScores_TotalAndStable(t *testing.T) {
	known := map[models.Segment]bool{}
	for _, s := range models.Segments {
		known[s] = true
	}
	for r := 1; r <= 5; r++ {
		for f := 1; f <= 5; f++ {
			for m := 1; m <= 5; m++ {
				first := ClassifyScores(r, f, m)
				assert.True(t, known[first], "unknown segment %q", first)
				assert.Equal(t, first, ClassifyScores(r, f, m))
			}
		}
	}
}

func profile(id string, recency, freq int, monetary string, r, f, m int) models.CustomerProfile {
	return models.CustomerProfile{
		CustomerID:     id,
		RecencyDays:    recency,
		Frequency:      freq,
		Monetary:       decimal.RequireFromString(monetary),
		RecencyScore:   r,
		FrequencyScore: f,
		MonetaryScore:  m,
	}
}

func twoGroups() []models.CustomerProfile {
	return []models.CustomerProfile{
		profile("A1", 2, 10, "1000", 5, 5, 5),
		profile("A2", 2, 10, "1000", 5, 5, 5),
		profile("A3", 2, 10, "1000", 5, 5, 5),
		profile("B1", 200, 1, "10", 1, 1, 1),
		profile("B2", 200, 1, "10", 1, 1, 1),
		profile("B3", 200, 1, "10", 1, 1, 1),
	}
}

func TestClassifySegments_RuleBased(t *testing.T) {
	in := twoGroups()
	out, err := ClassifySegments(in, models.StrategyRuleBased, 0)
	require.NoError(t, err)
	require.Len(t, out, len(in))
	for i, p := range out {
		assert.Equal(t, in[i].CustomerID, p.CustomerID)
	}
	assert.Equal(t, models.SegmentChampions, out[0].Segment)
	assert.Equal(t, models.SegmentLostCustomers, out[5].Segment)
	assert.Empty(t, in[0].Segment, "input must not be mutated")
}

func TestClassifySegments_ClusteringSeparatesGroups(t *testing.T) {
	out, err := ClassifySegments(twoGroups(), models.StrategyClustering, 0)
	require.NoError(t, err)
	for _, p := range out[:3] {
		assert.Equal(t, models.SegmentChampions, p.Segment, p.CustomerID)
	}
	for _, p := range out[3:] {
		assert.Equal(t, models.SegmentLostCustomers, p.Segment, p.CustomerID)
	}
}

func TestClassifySegments_BothStrategiesAssignOneSegmentEach(t *testing.T) {
	var in []models.CustomerProfile
	for i := 0; i < 40; i++ {
		in = append(in, profile(fmt.Sprintf("C%03d", i), (i*37)%180, 1+i%7, fmt.Sprintf("%d.50", 20+(i*53)%900), 1+i%5, 1+(i/2)%5, 1+(i/3)%5))
	}
	for _, s := range []models.Strategy{models.StrategyRuleBased, models.StrategyClustering} {
		t.Run(string(s), func(t *testing.T) {
			first, err := ClassifySegments(in, s, 5)
			require.NoError(t, err)
			second, err := ClassifySegments(in, s, 5)
			require.NoError(t, err)
			require.Len(t, first, len(in))
			for i := range first {
				assert.NotEmpty(t, first[i].Segment)
				assert.Equal(t, first[i].Segment, second[i].Segment, "deterministic for %s", first[i].CustomerID)
			}
		})
	}
}

func TestClassifySegments_ClusteringSingleCustomer(t *testing.T) {
	out, err := ClassifySegments([]models.CustomerProfile{profile("C1", 0, 1, "5", 5, 1, 1)}, models.StrategyClustering, 4)
	require.NoError(t, err)
	assert.Equal(t, models.SegmentChampions, out[0].Segment)
}

func TestClassifySegments_Errors(t *testing.T) {
	tests := []struct {
		name     string
		profiles []models.CustomerProfile
		strategy models.Strategy
		k        int
		want     error
	}{
		{name: "unknown strategy", profiles: twoGroups(), strategy: "random", want: models.ErrConfiguration},
		{name: "k too small", profiles: twoGroups(), strategy: models.StrategyClustering, k: 1, want: models.ErrConfiguration},
		{name: "k too large", profiles: twoGroups(), strategy: models.StrategyClustering, k: 50, want: models.ErrConfiguration},
		{name: "no profiles", profiles: nil, strategy: models.StrategyRuleBased, want: models.ErrInsufficientData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ClassifySegments(tt.profiles, tt.strategy, tt.k)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestLabelClusters_Ladder(t *testing.T) {
	centroids := [][]float64{
		{0, 0, 0},
		{-1, 2, 2},
		{1, -2, -2},
		{0, 1, 0},
		{0, -1, 0},
	}
	assign := []int{0, 1, 2, 3, 4}
	labels := labelClusters(assign, centroids)
	assert.Equal(t, models.SegmentChampions, labels[1])
	assert.Equal(t, models.SegmentLoyalCustomers, labels[3])
	assert.Equal(t, models.SegmentPotentialLoyalists, labels[0])
	assert.Equal(t, models.SegmentAtRisk, labels[4])
	assert.Equal(t, models.SegmentLostCustomers, labels[2])
}
