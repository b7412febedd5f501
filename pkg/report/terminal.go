package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"rfm-insights/pkg/cohort"
	"rfm-insights/pkg/geo"
	"rfm-insights/pkg/models"
	"rfm-insights/pkg/sales"
	"rfm-insights/pkg/segmentation"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	// TitleStyle is used for section titles.
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")).MarginTop(1)

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Table renders rows under headers with a rounded border.
func Table(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...).
		Render()
}

func section(w io.Writer, title, body string) error {
	_, err := fmt.Fprintln(w, TitleStyle.Render(title)+"\n"+body)
	return err
}

// Profiles prints one line per customer. limit <= 0 prints all.
func Profiles(w io.Writer, profiles []models.CustomerProfile, limit int) error {
	if limit > 0 && len(profiles) > limit {
		profiles = profiles[:limit]
	}
	rows := make([][]string, 0, len(profiles))
	for _, p := range profiles {
		rows = append(rows, []string{
			p.CustomerID,
			strconv.Itoa(p.RecencyDays),
			strconv.Itoa(p.Frequency),
			p.Monetary.StringFixed(2),
			p.RFMCode(),
			string(p.Segment),
			p.CLVEstimate.StringFixed(2),
			string(p.ChurnRisk),
		})
	}
	return section(w, "Customers", Table(
		[]string{"Customer", "Recency (d)", "Frequency", "Monetary", "RFM", "Segment", "CLV", "Churn"}, rows))
}

// Segments prints the per-segment summary.
func Segments(w io.Writer, summaries []segmentation.SegmentSummary) error {
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, []string{
			string(s.Segment),
			strconv.Itoa(s.Customers),
			pct(s.CustomerShare),
			s.Revenue.StringFixed(2),
			fmt.Sprintf("%.1f", s.AvgRecencyDays),
			fmt.Sprintf("%.2f", s.AvgFrequency),
			s.AvgMonetary.StringFixed(2),
			s.AvgCLVEstimate.StringFixed(2),
			pct(s.HighChurnRiskPc),
		})
	}
	return section(w, "Segments", Table(
		[]string{"Segment", "Customers", "Share", "Revenue", "Avg recency", "Avg freq", "Avg monetary", "Avg CLV", "High churn"}, rows))
}

// Retention prints the cohort matrix, one column per month offset.
func Retention(w io.Writer, m *cohort.Matrix) error {
	width := 0
	for _, c := range m.Cohorts {
		width = max(width, len(c.Retention))
	}
	headers := []string{"Cohort", "Size", "LTV"}
	for off := 0; off < width; off++ {
		headers = append(headers, "M"+strconv.Itoa(off))
	}
	rows := make([][]string, 0, len(m.Cohorts)+1)
	for _, c := range m.Cohorts {
		row := []string{c.Label, strconv.Itoa(c.Size), c.CumulativeLTV.StringFixed(2)}
		for off := 0; off < width; off++ {
			if off < len(c.Retention) {
				row = append(row, pct(c.Retention[off]*100))
			} else {
				row = append(row, "")
			}
		}
		rows = append(rows, row)
	}
	avg := []string{"Average", "", ""}
	for _, r := range m.AverageByOffset() {
		avg = append(avg, pct(r*100))
	}
	rows = append(rows, avg)
	return section(w, "Cohort retention", Table(headers, rows))
}

// Sales prints headline metrics, monthly trends, products and top customers.
func Sales(w io.Writer, m sales.Metrics, trends []sales.MonthlyTrend, products []sales.ProductStat, top []sales.CustomerRevenue) error {
	headline := [][]string{
		{"Revenue", m.TotalRevenue.StringFixed(2)},
		{"Customers", strconv.Itoa(m.Customers)},
		{"Orders", strconv.Itoa(m.Orders)},
		{"Order lines", strconv.Itoa(m.Lines)},
		{"Units", strconv.Itoa(m.Units)},
		{"Avg order value", m.AvgOrderValue.StringFixed(2)},
		{"Revenue per customer", m.RevenuePerCustomer.StringFixed(2)},
		{"Repeat customers", pct(m.RepeatCustomerPct)},
		{"Month over month", pct(m.GrowthPct)},
		{"Top 10 share", pct(m.Top10SharePct)},
	}
	if err := section(w, "Sales", Table([]string{"Metric", "Value"}, headline)); err != nil {
		return err
	}

	rows := make([][]string, 0, len(trends))
	for _, t := range trends {
		rows = append(rows, []string{t.Label, t.Revenue.StringFixed(2), strconv.Itoa(t.Orders), strconv.Itoa(t.Customers),
			strconv.Itoa(t.Units), pct(t.RevenueGrowth), t.MovingAvgRev3M.StringFixed(2)})
	}
	if err := section(w, "Monthly trends", Table(
		[]string{"Month", "Revenue", "Orders", "Customers", "Units", "Growth", "3M avg"}, rows)); err != nil {
		return err
	}

	rows = rows[:0]
	for _, p := range products {
		rows = append(rows, []string{strconv.Itoa(p.Rank), p.Product, p.Revenue.StringFixed(2), strconv.Itoa(p.Units),
			strconv.Itoa(p.Orders), strconv.Itoa(p.Customers), pct(p.SharePct), pct(p.CumulativeSharePct)})
	}
	if err := section(w, "Products", Table(
		[]string{"#", "Product", "Revenue", "Units", "Orders", "Customers", "Share", "Cumulative"}, rows)); err != nil {
		return err
	}

	rows = rows[:0]
	for i, c := range top {
		rows = append(rows, []string{strconv.Itoa(i + 1), c.CustomerID, c.Revenue.StringFixed(2), strconv.Itoa(c.Orders),
			c.AvgOrderValue.StringFixed(2), c.LastOrderDate.Format(time.DateOnly)})
	}
	return section(w, "Top customers", Table(
		[]string{"#", "Customer", "Revenue", "Orders", "AOV", "Last order"}, rows))
}

// Regions prints a geographic breakdown and the coverage of each level.
func Regions(w io.Writer, level geo.Level, regions []geo.Region, coverage []geo.LevelCoverage) error {
	rows := make([][]string, 0, len(regions))
	for _, r := range regions {
		rows = append(rows, []string{strconv.Itoa(r.Rank), r.Location, r.Revenue.StringFixed(2), strconv.Itoa(r.Orders),
			strconv.Itoa(r.Customers), r.RevenuePerCustomer.StringFixed(2), pct(r.SharePct), string(r.Tier)})
	}
	if err := section(w, "Revenue by "+string(level), Table(
		[]string{"#", "Location", "Revenue", "Orders", "Customers", "Per customer", "Share", "Tier"}, rows)); err != nil {
		return err
	}

	rows = rows[:0]
	for _, c := range coverage {
		rows = append(rows, []string{string(c.Level), strconv.Itoa(c.Distinct), c.Top})
	}
	return section(w, "Coverage", Table([]string{"Level", "Distinct", "Top"}, rows))
}

func pct(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}
