package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"rfm-insights/pkg/geo"
	"rfm-insights/pkg/ingest"
	"rfm-insights/pkg/models"
	"rfm-insights/pkg/sales"
)

// Seasonality prints revenue by month of year, quarter and weekday.
func Seasonality(w io.Writer, s sales.Seasonality) error {
	rows := make([][]string, 0, len(s.Months)+len(s.Quarters)+len(s.Weekdays))
	for _, group := range [][]sales.PeriodRevenue{s.Months, s.Quarters, s.Weekdays} {
		for _, p := range group {
			rows = append(rows, []string{p.Period, p.Revenue.StringFixed(2), strconv.Itoa(p.Orders)})
		}
	}
	title := fmt.Sprintf("Seasonality (peak %s / %s / %s, low %s, strength %.2f)",
		s.PeakMonth, s.PeakQuarter, s.PeakWeekday, s.LowMonth, s.Strength)
	return section(w, title, Table([]string{"Period", "Revenue", "Orders"}, rows))
}

// Acquisition prints new customers per first-order month.
func Acquisition(w io.Writer, months []sales.Acquisition) error {
	rows := make([][]string, 0, len(months))
	for _, a := range months {
		rows = append(rows, []string{a.Label, strconv.Itoa(a.NewCustomers), strconv.Itoa(a.Cumulative),
			pct(a.GrowthPct), strconv.FormatFloat(a.MovingAvg3M, 'f', 2, 64)})
	}
	return section(w, "Customer acquisition", Table(
		[]string{"Month", "New", "Cumulative", "Growth", "3M avg"}, rows))
}

// Forecast prints projected months. A nil forecast prints nothing.
func Forecast(w io.Writer, f *sales.RevenueForecast) error {
	if f == nil {
		return nil
	}
	rows := make([][]string, 0, len(f.Points))
	for _, p := range f.Points {
		rows = append(rows, []string{p.Label, p.Revenue.StringFixed(2)})
	}
	title := fmt.Sprintf("Revenue forecast (%s/month, %s confidence)", pct(f.GrowthPct), f.Confidence)
	return section(w, title, Table([]string{"Month", "Revenue"}, rows))
}

func Penetration(w io.Writer, level geo.Level, p geo.Penetration) error {
	rows := make([][]string, 0, len(p.Markets))
	for _, m := range p.Markets {
		rows = append(rows, []string{m.Location, strconv.Itoa(m.Customers), pct(m.CustomerSharePct),
			m.RevenuePerCustomer.StringFixed(2), strconv.FormatFloat(m.OrdersPerCustomer, 'f', 2, 64),
			strconv.FormatFloat(m.ExpansionScore, 'f', 2, 64)})
	}
	title := fmt.Sprintf("Market penetration by %s (HHI %.0f, %s)", level, p.HHI, p.Concentration)
	if err := section(w, title, Table(
		[]string{"Location", "Customers", "Share", "Per customer", "Orders/customer", "Expansion"}, rows)); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Expansion: %v\nMature: %v\n", p.Expansion, p.Mature)
	return err
}

// LocationSegments prints the segment mix of each location.
func LocationSegments(w io.Writer, level geo.Level, mix []geo.LocationSegments) error {
	headers := []string{"Location", "Customers"}
	for _, s := range models.Segments {
		headers = append(headers, string(s))
	}
	rows := make([][]string, 0, len(mix))
	for _, l := range mix {
		row := []string{l.Location, strconv.Itoa(l.Customers)}
		for _, s := range models.Segments {
			row = append(row, strconv.Itoa(l.Segments[s]))
		}
		rows = append(rows, row)
	}
	return section(w, "Segments by "+string(level), Table(headers, rows))
}

// Tiers counts spend and frequency tiers per location.
func Tiers(w io.Writer, customers []geo.LocalCustomer) error {
	type counts struct {
		spend map[geo.SpendTier]int
		freq  map[geo.FrequencyTier]int
	}
	byLoc := make(map[string]*counts)
	var locs []string
	for _, c := range customers {
		n, ok := byLoc[c.Location]
		if !ok {
			n = &counts{spend: make(map[geo.SpendTier]int), freq: make(map[geo.FrequencyTier]int)}
			byLoc[c.Location] = n
			locs = append(locs, c.Location)
		}
		n.spend[c.Spending]++
		n.freq[c.Frequency]++
	}
	sort.Strings(locs)

	rows := make([][]string, 0, len(locs))
	for _, loc := range locs {
		n := byLoc[loc]
		rows = append(rows, []string{loc,
			strconv.Itoa(n.spend[geo.SpendHigh]), strconv.Itoa(n.spend[geo.SpendMedium]), strconv.Itoa(n.spend[geo.SpendLow]),
			strconv.Itoa(n.freq[geo.FrequencyFrequent]), strconv.Itoa(n.freq[geo.FrequencyRegular]), strconv.Itoa(n.freq[geo.FrequencyOccasional])})
	}
	return section(w, "Customer tiers", Table(
		[]string{"Location", "High", "Medium", "Low", "Frequent", "Regular", "Occasional"}, rows))
}

// Summary prints the dataset overview.
func Summary(w io.Writer, s *ingest.Summary) error {
	d := s.LinesPerCustomer
	rows := [][]string{
		{"Records", strconv.Itoa(s.Records)},
		{"Customers", strconv.Itoa(s.Customers)},
		{"Products", strconv.Itoa(s.Products)},
		{"First order", s.Start.Format(time.DateOnly)},
		{"Last order", s.End.Format(time.DateOnly)},
		{"Days covered", strconv.Itoa(s.Days)},
		{"Revenue", s.Revenue.Total.StringFixed(2)},
		{"Line mean / median", s.Revenue.Mean.StringFixed(2) + " / " + s.Revenue.Median.StringFixed(2)},
		{"Line std", strconv.FormatFloat(s.Revenue.StdDev, 'f', 2, 64)},
		{"Units (mean, max)", fmt.Sprintf("%d (%.2f, %d)", s.Quantity.Total, s.Quantity.Mean, s.Quantity.Max)},
		{"Lines per customer", fmt.Sprintf("mean %.2f, std %.2f, min %.0f, median %.1f, max %.0f", d.Mean, d.StdDev, d.Min, d.Median, d.Max)},
	}
	return section(w, "Dataset", Table([]string{"Metric", "Value"}, rows))
}
