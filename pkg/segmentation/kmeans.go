package segmentation

import (
	"math"
	"math/rand"
	"sort"

	"rfm-insights/pkg/models"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	DefaultK = 5
	MinK     = 2
	MaxK     = 8

	kmeansSeed     = 42
	kmeansRestarts = 10
	kmeansMaxIter  = 300
)

// clusterLadder names the middle-ranked clusters; rank 0 is always Champions
// and the last rank Lost Customers.
var clusterLadder = []models.Segment{
	models.SegmentLoyalCustomers,
	models.SegmentPotentialLoyalists,
	models.SegmentAtRisk,
}

func clustered(profiles []models.CustomerProfile, k int) ([]models.Segment, error) {
	points := standardize(profiles)
	if d := distinctRows(points); k > d {
		k = d
	}

	assign, centroids := kmeans(points, k, rand.New(rand.NewSource(kmeansSeed)))

	labels := labelClusters(assign, centroids)
	out := make([]models.Segment, len(profiles))
	for i, c := range assign {
		out[i] = labels[c]
	}
	return out, nil
}

// standardize turns (recency, frequency, monetary) into z-scores per column.
// A constant column becomes all zeros.
func standardize(profiles []models.CustomerProfile) [][]float64 {
	cols := make([][]float64, 3)
	for j := range cols {
		cols[j] = make([]float64, len(profiles))
	}
	for i, p := range profiles {
		cols[0][i] = float64(p.RecencyDays)
		cols[1][i] = float64(p.Frequency)
		cols[2][i] = p.Monetary.InexactFloat64()
	}

	points := make([][]float64, len(profiles))
	for i := range points {
		points[i] = make([]float64, 3)
	}
	for j, col := range cols {
		mean, std := stat.MeanStdDev(col, nil)
		for i, v := range col {
			if std == 0 || math.IsNaN(std) || math.IsInf(std, 0) {
				points[i][j] = 0
				continue
			}
			points[i][j] = (v - mean) / std
		}
	}
	return points
}

func distinctRows(points [][]float64) int {
	seen := make(map[[3]float64]struct{}, len(points))
	for _, p := range points {
		seen[[3]float64{p[0], p[1], p[2]}] = struct{}{}
	}
	return len(seen)
}

// kmeans runs Lloyd's algorithm from several k-means++ seeds drawn from rng
// and keeps the run with the lowest inertia (first one on ties).
func kmeans(points [][]float64, k int, rng *rand.Rand) ([]int, [][]float64) {
	var (
		bestAssign    []int
		bestCentroids [][]float64
		bestInertia   = math.Inf(1)
	)
	for run := 0; run < kmeansRestarts; run++ {
		centroids := seedPlusPlus(points, k, rng)
		assign, inertia := lloyd(points, centroids)
		if inertia < bestInertia {
			bestAssign, bestCentroids, bestInertia = assign, centroids, inertia
		}
	}
	return bestAssign, bestCentroids
}

func seedPlusPlus(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, append([]float64(nil), points[rng.Intn(len(points))]...))

	d2 := make([]float64, len(points))
	for len(centroids) < k {
		for i, p := range points {
			_, d2[i] = nearest(p, centroids)
		}
		total := floats.Sum(d2)
		if total == 0 {
			break
		}
		target := rng.Float64() * total
		pick := len(points) - 1
		var acc float64
		for i, d := range d2 {
			acc += d
			if acc >= target && d > 0 {
				pick = i
				break
			}
		}
		centroids = append(centroids, append([]float64(nil), points[pick]...))
	}
	return centroids
}

// lloyd refines centroids in place and returns the final assignment and inertia.
func lloyd(points, centroids [][]float64) ([]int, float64) {
	assign := make([]int, len(points))
	for i := range assign {
		assign[i] = -1
	}
	var inertia float64
	for iter := 0; iter < kmeansMaxIter; iter++ {
		changed := false
		inertia = 0
		for i, p := range points {
			c, d := nearest(p, centroids)
			inertia += d
			if assign[i] != c {
				assign[i] = c
				changed = true
			}
		}
		if !changed {
			break
		}

		sums := make([][]float64, len(centroids))
		counts := make([]int, len(centroids))
		for c := range sums {
			sums[c] = make([]float64, len(points[0]))
		}
		for i, p := range points {
			floats.Add(sums[assign[i]], p)
			counts[assign[i]]++
		}
		for c := range centroids {
			if counts[c] == 0 {
				continue
			}
			floats.Scale(1/float64(counts[c]), sums[c])
			centroids[c] = sums[c]
		}
	}
	return assign, inertia
}

// nearest returns the closest centroid (lowest index on ties) and the squared distance.
func nearest(p []float64, centroids [][]float64) (int, float64) {
	best, bestD := 0, math.Inf(1)
	for c, ctr := range centroids {
		d := floats.Distance(p, ctr, 2)
		if d*d < bestD {
			best, bestD = c, d*d
		}
	}
	return best, bestD
}

// labelClusters ranks non-empty clusters by standardized frequency + monetary
// (descending, lower recency first on ties) and walks the segment ladder.
func labelClusters(assign []int, centroids [][]float64) map[int]models.Segment {
	used := map[int]bool{}
	for _, c := range assign {
		used[c] = true
	}
	ranked := make([]int, 0, len(used))
	for c := range used {
		ranked = append(ranked, c)
	}
	sort.Slice(ranked, func(i, j int) bool {
		a, b := centroids[ranked[i]], centroids[ranked[j]]
		va, vb := a[1]+a[2], b[1]+b[2]
		if va != vb {
			return va > vb
		}
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		return ranked[i] < ranked[j]
	})

	labels := make(map[int]models.Segment, len(ranked))
	last := len(ranked) - 1
	for rank, c := range ranked {
		switch {
		case rank == 0:
			labels[c] = models.SegmentChampions
		case rank == last:
			labels[c] = models.SegmentLostCustomers
		case rank-1 < len(clusterLadder):
			labels[c] = clusterLadder[rank-1]
		default:
			labels[c] = models.SegmentOthers
		}
	}
	return labels
}
