package sales

import (
	"fmt"
	"sort"
	"time"

	"rfm-insights/pkg/models"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"
)

// PeriodRevenue is the revenue of one recurring period: a month of the
// year, a quarter or a weekday, summed over every year in the data.
type PeriodRevenue struct {
	Period  string          `json:"period"`
	Revenue decimal.Decimal `json:"revenue"`
	Orders  int             `json:"orders"`
}

// Seasonality lists only the periods that have orders, in calendar order.
type Seasonality struct {
	Months      []PeriodRevenue `json:"months"`
	Quarters    []PeriodRevenue `json:"quarters"`
	Weekdays    []PeriodRevenue `json:"weekdays"` // Monday first
	PeakMonth   string          `json:"peak_month"`
	LowMonth    string          `json:"low_month"`
	PeakQuarter string          `json:"peak_quarter"`
	PeakWeekday string          `json:"peak_weekday"`
	// Strength is the coefficient of variation (sample std / mean) of the
	// month-of-year revenues. 0 with fewer than two months.
	Strength float64 `json:"seasonality_strength"`
}

// Seasonal folds revenue onto month of year, quarter and weekday. Peaks and
// lows go to the earliest period on ties.
func Seasonal(txs []models.Transaction) Seasonality {
	var s Seasonality
	s.Months = fold(txs, 12, func(d time.Time) int { return int(d.Month()) - 1 },
		func(i int) string { return time.Month(i + 1).String() })
	s.Quarters = fold(txs, 4, func(d time.Time) int { return (int(d.Month()) - 1) / 3 },
		func(i int) string { return fmt.Sprintf("Q%d", i+1) })
	s.Weekdays = fold(txs, 7, func(d time.Time) int { return (int(d.Weekday()) + 6) % 7 },
		func(i int) string { return time.Weekday((i + 1) % 7).String() })

	s.PeakMonth, s.LowMonth = extremes(s.Months)
	s.PeakQuarter, _ = extremes(s.Quarters)
	s.PeakWeekday, _ = extremes(s.Weekdays)

	if len(s.Months) > 1 {
		xs := make([]float64, len(s.Months))
		for i, p := range s.Months {
			xs[i] = p.Revenue.InexactFloat64()
		}
		if mean, std := stat.MeanStdDev(xs, nil); mean > 0 {
			s.Strength = decimal.NewFromFloat(std / mean).Round(4).InexactFloat64()
		}
	}
	log.Debug().Str("peak_month", s.PeakMonth).Float64("strength", s.Strength).Msg("seasonality computed")
	return s
}

// fold buckets txs into n recurring periods and drops the empty ones.
func fold(txs []models.Transaction, n int, index func(time.Time) int, label func(int) string) []PeriodRevenue {
	revenue := make([]decimal.Decimal, n)
	orders := make([]map[orderKey]struct{}, n)
	for _, t := range txs {
		day := t.OrderDay()
		i := index(day)
		if orders[i] == nil {
			orders[i] = make(map[orderKey]struct{})
		}
		revenue[i] = revenue[i].Add(t.TotalAmount)
		orders[i][orderKey{t.CustomerID, day}] = struct{}{}
	}
	var out []PeriodRevenue
	for i := 0; i < n; i++ {
		if orders[i] == nil {
			continue
		}
		out = append(out, PeriodRevenue{Period: label(i), Revenue: revenue[i], Orders: len(orders[i])})
	}
	return out
}

func extremes(ps []PeriodRevenue) (peak, low string) {
	if len(ps) == 0 {
		return "", ""
	}
	hi, lo := ps[0], ps[0]
	for _, p := range ps[1:] {
		if p.Revenue.GreaterThan(hi.Revenue) {
			hi = p
		}
		if p.Revenue.LessThan(lo.Revenue) {
			lo = p
		}
	}
	return hi.Period, lo.Period
}

// Acquisition is one month of first purchases.
type Acquisition struct {
	Month        time.Time `json:"month"`
	Label        string    `json:"label"`
	NewCustomers int       `json:"new_customers"`
	Cumulative   int       `json:"cumulative_customers"`
	GrowthPct    float64   `json:"growth_pct"` // vs the previous listed month, 0 for the first
	MovingAvg3M  float64   `json:"moving_avg_3m"`
}

// AcquisitionTrends counts customers by the month of their first order.
// Months without a new customer are not listed.
func AcquisitionTrends(txs []models.Transaction) []Acquisition {
	first := make(map[string]time.Time)
	for _, t := range txs {
		day := t.OrderDay()
		if f, ok := first[t.CustomerID]; !ok || day.Before(f) {
			first[t.CustomerID] = day
		}
	}
	counts := make(map[time.Time]int)
	for _, day := range first {
		counts[time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)]++
	}

	out := make([]Acquisition, 0, len(counts))
	for m, n := range counts {
		out = append(out, Acquisition{Month: m, Label: m.Format("2006-01"), NewCustomers: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month.Before(out[j].Month) })

	total := 0
	for i := range out {
		total += out[i].NewCustomers
		out[i].Cumulative = total
		if i > 0 {
			out[i].GrowthPct = growth(decimal.NewFromInt(int64(out[i].NewCustomers)), decimal.NewFromInt(int64(out[i-1].NewCustomers)))
		}
		lo := max(0, i-movingWindow+1)
		sum := 0
		for _, a := range out[lo : i+1] {
			sum += a.NewCustomers
		}
		out[i].MovingAvg3M = decimal.NewFromInt(int64(sum)).DivRound(decimal.NewFromInt(int64(i+1-lo)), 2).InexactFloat64()
	}
	return out
}

// DefaultForecastPeriods is how many months Forecast projects by default.
const DefaultForecastPeriods = 3

// minForecastMonths is the history Forecast needs: three months give the two
// month-over-month changes it averages.
const minForecastMonths = 3

// Confidence grades a forecast by the size of its growth rate.
type Confidence string

const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

// ForecastPoint is one projected month.
type ForecastPoint struct {
	Month   time.Time       `json:"month"`
	Label   string          `json:"label"`
	Revenue decimal.Decimal `json:"revenue"`
}

type RevenueForecast struct {
	GrowthPct  float64         `json:"growth_pct"`
	Confidence Confidence      `json:"confidence"`
	Points     []ForecastPoint `json:"points"`
}

// Forecast compounds the last month's revenue by the mean month-over-month
// change of the last three months with orders. |growth| above 50% is Low
// confidence, above 20% Medium, otherwise High.
func Forecast(txs []models.Transaction, periods int) (*RevenueForecast, error) {
	if periods < 1 {
		return nil, &models.ConfigurationError{Key: "forecast_periods", Reason: fmt.Sprintf("must be >= 1, got %d", periods)}
	}
	trends := MonthlyTrends(txs)
	if len(trends) < minForecastMonths {
		return nil, &models.InsufficientDataError{Reason: fmt.Sprintf("forecast needs %d months with orders, got %d", minForecastMonths, len(trends))}
	}

	recent := trends[len(trends)-minForecastMonths:]
	rate := decimal.Zero
	for i := 1; i < len(recent); i++ {
		if prev := recent[i-1].Revenue; prev.IsPositive() {
			rate = rate.Add(recent[i].Revenue.Div(prev).Sub(decimal.NewFromInt(1)))
		}
	}
	rate = rate.Div(decimal.NewFromInt(int64(len(recent) - 1)))

	f := &RevenueForecast{GrowthPct: rate.Mul(hundred).Round(2).InexactFloat64()}
	switch g := rate.Abs(); {
	case g.GreaterThan(decimal.RequireFromString("0.5")):
		f.Confidence = ConfidenceLow
	case g.GreaterThan(decimal.RequireFromString("0.2")):
		f.Confidence = ConfidenceMedium
	default:
		f.Confidence = ConfidenceHigh
	}

	last := trends[len(trends)-1]
	cur := last.Revenue
	factor := decimal.NewFromInt(1).Add(rate)
	for i := 1; i <= periods; i++ {
		cur = cur.Mul(factor)
		m := last.Month.AddDate(0, i, 0)
		f.Points = append(f.Points, ForecastPoint{Month: m, Label: m.Format("2006-01"), Revenue: cur.Round(2)})
	}
	return f, nil
}
