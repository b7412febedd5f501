// Package analysis runs the full segmentation pipeline over one transaction
// table: RFM scoring, segment assignment, CLV and churn, segment summary.
//
// Analyze is pure: the same transactions and options always give the same
// result, and nothing is kept between calls.
package analysis

import (
	"fmt"
	"time"

	"rfm-insights/pkg/clv"
	"rfm-insights/pkg/models"
	"rfm-insights/pkg/rfm"
	"rfm-insights/pkg/segmentation"

	"github.com/rs/zerolog/log"
)

// DefaultMaxRows rejects datasets larger than this before any work starts.
const DefaultMaxRows = 100000

// Options configure one analysis run.
type Options struct {
	AnalysisDate  time.Time // zero: latest order day
	Strategy      models.Strategy
	K             int // clustering only; 0 selects segmentation.DefaultK
	HorizonMonths int // 0 selects clv.DefaultHorizonMonths
	MaxRows       int // 0 selects DefaultMaxRows, negative disables the guard
}

// Result is everything the presentation layer needs from one run.
type Result struct {
	AnalysisDate time.Time                     `json:"analysis_date"`
	Strategy     models.Strategy               `json:"strategy"`
	Rows         int                           `json:"rows"`
	Profiles     []models.CustomerProfile      `json:"profiles"`
	Segments     []segmentation.SegmentSummary `json:"segments"`
}

// Analyze runs rfm.ComputeRFM, segmentation.ClassifySegments and
// clv.EstimateCLVAndChurn, then summarises the segments.
func Analyze(txs []models.Transaction, opts Options) (*Result, error) {
	opts, err := opts.normalize()
	if err != nil {
		return nil, err
	}
	if err := CheckRows(len(txs), opts.MaxRows); err != nil {
		return nil, err
	}

	asOf := models.Day(opts.AnalysisDate)
	if opts.AnalysisDate.IsZero() && len(txs) > 0 {
		asOf = rfm.LatestOrderDay(txs)
	}

	profiles, err := rfm.ComputeRFM(txs, asOf)
	if err != nil {
		return nil, fmt.Errorf("compute rfm: %w", err)
	}
	profiles, err = segmentation.ClassifySegments(profiles, opts.Strategy, opts.K)
	if err != nil {
		return nil, fmt.Errorf("classify segments: %w", err)
	}
	profiles, err = clv.EstimateCLVAndChurn(profiles, txs, clv.Options{HorizonMonths: opts.HorizonMonths})
	if err != nil {
		return nil, fmt.Errorf("estimate clv: %w", err)
	}

	log.Debug().
		Int("rows", len(txs)).
		Int("customers", len(profiles)).
		Str("strategy", string(opts.Strategy)).
		Msg("analysis complete")

	return &Result{
		AnalysisDate: asOf,
		Strategy:     opts.Strategy,
		Rows:         len(txs),
		Profiles:     profiles,
		Segments:     segmentation.Summarize(profiles),
	}, nil
}

// CheckRows rejects a dataset of rows order lines when it exceeds maxRows.
// A non-positive maxRows disables the check.
func CheckRows(rows, maxRows int) error {
	if maxRows > 0 && rows > maxRows {
		return &models.InvalidDataError{Reason: fmt.Sprintf("dataset has %d rows, limit is %d", rows, maxRows)}
	}
	return nil
}

func (o Options) normalize() (Options, error) {
	if o.Strategy == "" {
		o.Strategy = models.StrategyRuleBased
	}
	if _, err := models.ParseStrategy(string(o.Strategy)); err != nil {
		return o, err
	}
	if o.Strategy == models.StrategyClustering {
		k, err := segmentation.ValidateK(o.K)
		if err != nil {
			return o, err
		}
		o.K = k
	}
	if o.HorizonMonths < 0 {
		return o, &models.ConfigurationError{Key: "horizon_months", Reason: fmt.Sprintf("must be >= 1, got %d", o.HorizonMonths)}
	}
	if o.MaxRows == 0 {
		o.MaxRows = DefaultMaxRows
	}
	return o, nil
}
