package main

import (
	"errors"
	"io"

	"rfm-insights/pkg/analysis"
	"rfm-insights/pkg/clv"
	"rfm-insights/pkg/cohort"
	"rfm-insights/pkg/config"
	"rfm-insights/pkg/geo"
	"rfm-insights/pkg/ingest"
	"rfm-insights/pkg/models"
	"rfm-insights/pkg/report"
	"rfm-insights/pkg/sales"
	"rfm-insights/pkg/segmentation"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var analysisBindings = map[string]string{
	"strategy": "analysis.strategy",
	"k":        "analysis.k",
	"horizon":  "analysis.horizon_months",
	"as-of":    "analysis.as_of",
}

func addAnalysisFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("strategy", "s", "rule_based", "segmentation strategy (rule_based, clustering)")
	cmd.Flags().IntP("k", "k", segmentation.DefaultK, "number of clusters for the clustering strategy (2-8)")
	cmd.Flags().Int("horizon", clv.DefaultHorizonMonths, "CLV horizon in months")
	cmd.Flags().String("as-of", "", "analysis date YYYY-MM-DD (default: latest order day)")
}

// analysisRun is what runAnalysis hands to analyze, segments and geo.
type analysisRun struct {
	cfg    *config.Config
	txs    []models.Transaction
	result *analysis.Result
}

func runAnalysis(cmd *cobra.Command) (*analysisRun, error) {
	cfg, err := loadConfig(cmd, analysisBindings)
	if err != nil {
		return nil, err
	}
	opts, err := cfg.Analysis.Options()
	if err != nil {
		return nil, err
	}
	txs, err := loadTransactions(cmd.Context(), cfg)
	if err != nil {
		return nil, err
	}
	res, err := analysis.Analyze(txs, opts)
	if err != nil {
		return nil, err
	}
	log.Info().
		Int("customers", len(res.Profiles)).
		Str("strategy", string(res.Strategy)).
		Str("as_of", res.AnalysisDate.Format("2006-01-02")).
		Msg("analysis done")
	return &analysisRun{cfg: cfg, txs: txs, result: res}, nil
}

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Score, segment and value every customer",
		Long: `Compute RFM metrics and 1-5 quintile scores per customer, assign segments,
estimate CLV over the horizon and derive churn risk.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			run, err := runAnalysis(cmd)
			if err != nil {
				return err
			}
			res := run.result
			limit, _ := cmd.Flags().GetInt("limit")
			return emit(cmd.OutOrStdout(), run.cfg, "rfm_analysis", res, func(w io.Writer) error {
				if err := report.Profiles(w, res.Profiles, limit); err != nil {
					return err
				}
				return report.Segments(w, res.Segments)
			})
		},
	}
	addAnalysisFlags(cmd)
	cmd.Flags().IntP("limit", "n", 50, "customers to print in table output (0: all)")
	return cmd
}

func segmentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "segments",
		Short: "Print the per-segment summary only",
		RunE: func(cmd *cobra.Command, _ []string) error {
			run, err := runAnalysis(cmd)
			if err != nil {
				return err
			}
			segments := run.result.Segments
			return emit(cmd.OutOrStdout(), run.cfg, "segment_summary", segments, func(w io.Writer) error {
				return report.Segments(w, segments)
			})
		},
	}
	addAnalysisFlags(cmd)
	return cmd
}

func cohortCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cohort",
		Short: "Monthly acquisition cohorts and their retention",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, nil)
			if err != nil {
				return err
			}
			txs, err := loadTransactions(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			m, err := cohort.Retention(txs)
			if err != nil {
				return err
			}
			start, _ := cmd.Flags().GetString("start-month")
			end, _ := cmd.Flags().GetString("end-month")
			if m, err = m.Window(start, end); err != nil {
				return err
			}
			return emit(cmd.OutOrStdout(), cfg, "cohort_retention", m, func(w io.Writer) error {
				return report.Retention(w, m)
			})
		},
	}
	cmd.Flags().String("start-month", "", "first cohort month MMYYYY")
	cmd.Flags().String("end-month", "", "last cohort month MMYYYY")
	return cmd
}

type salesReport struct {
	Metrics      sales.Metrics           `json:"metrics"`
	Monthly      []sales.MonthlyTrend    `json:"monthly_trends"`
	Products     []sales.ProductStat     `json:"products"`
	TopCustomers []sales.CustomerRevenue `json:"top_customers"`
	Seasonality  sales.Seasonality       `json:"seasonality"`
	Acquisition  []sales.Acquisition     `json:"acquisition"`
	Forecast     *sales.RevenueForecast  `json:"forecast,omitempty"`
}

func salesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sales",
		Short: "Revenue metrics, monthly trends, products and top customers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, nil)
			if err != nil {
				return err
			}
			txs, err := loadTransactions(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			top, _ := cmd.Flags().GetInt("top")
			periods, _ := cmd.Flags().GetInt("forecast-periods")
			r := salesReport{
				Metrics:      sales.ComputeMetrics(txs),
				Monthly:      sales.MonthlyTrends(txs),
				Products:     sales.ProductPerformance(txs),
				TopCustomers: sales.TopCustomers(txs, top),
				Seasonality:  sales.Seasonal(txs),
				Acquisition:  sales.AcquisitionTrends(txs),
			}
			r.Forecast, err = sales.Forecast(txs, periods)
			if errors.Is(err, models.ErrInsufficientData) {
				log.Warn().Err(err).Msg("forecast skipped")
			} else if err != nil {
				return err
			}
			return emit(cmd.OutOrStdout(), cfg, "sales_performance", r, func(w io.Writer) error {
				if err := report.Sales(w, r.Metrics, r.Monthly, r.Products, r.TopCustomers); err != nil {
					return err
				}
				if err := report.Seasonality(w, r.Seasonality); err != nil {
					return err
				}
				if err := report.Acquisition(w, r.Acquisition); err != nil {
					return err
				}
				return report.Forecast(w, r.Forecast)
			})
		},
	}
	cmd.Flags().Int("top", 20, "top customers to list")
	cmd.Flags().Int("forecast-periods", sales.DefaultForecastPeriods, "months to project")
	return cmd
}

type geoReport struct {
	Level       geo.Level              `json:"level"`
	Regions     []geo.Region           `json:"regions"`
	Coverage    []geo.LevelCoverage    `json:"coverage"`
	Penetration geo.Penetration        `json:"penetration"`
	Segments    []geo.LocationSegments `json:"segments"`
	Tiers       []geo.LocalCustomer    `json:"customer_tiers"`
}

func geoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "geo",
		Short: "Revenue, penetration and segments by country, region or city",
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, _ := cmd.Flags().GetString("level")
			level, err := geo.ParseLevel(raw)
			if err != nil {
				return err
			}
			run, err := runAnalysis(cmd)
			if err != nil {
				return err
			}
			txs := run.txs
			r := geoReport{
				Level:       level,
				Regions:     geo.Regional(txs, level),
				Coverage:    geo.Coverage(txs),
				Penetration: geo.MarketPenetration(txs, level),
				Segments:    geo.SegmentsByLocation(txs, run.result.Profiles, level),
				Tiers:       geo.CustomerTiers(txs, level),
			}
			return emit(cmd.OutOrStdout(), run.cfg, "geographic", r, func(w io.Writer) error {
				if err := report.Regions(w, r.Level, r.Regions, r.Coverage); err != nil {
					return err
				}
				if err := report.Penetration(w, r.Level, r.Penetration); err != nil {
					return err
				}
				if err := report.LocationSegments(w, r.Level, r.Segments); err != nil {
					return err
				}
				return report.Tiers(w, r.Tiers)
			})
		},
	}
	addAnalysisFlags(cmd)
	cmd.Flags().String("level", string(geo.LevelCountry), "country, region or city")
	return cmd
}

func summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Describe the loaded order lines",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, nil)
			if err != nil {
				return err
			}
			txs, err := loadTransactions(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			s, err := ingest.Summarize(txs)
			if err != nil {
				return err
			}
			return emit(cmd.OutOrStdout(), cfg, "data_summary", s, func(w io.Writer) error {
				return report.Summary(w, s)
			})
		},
	}
}
