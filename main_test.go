package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"rfm-insights/pkg/models"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const orders = `customer_id,order_date,product_name,quantity,unit_price,total_amount,country,region,city
C0001,2024-06-20,Laptop,1,45.99,45.99,France,IDF,Paris
C0001,2024-06-20,Mouse,1,39.99,39.99,France,IDF,Paris
C0001,2024-05-21,Desk,1,50.00,50.00,France,IDF,Paris
C0002,2024-06-30,Chair,2,20.00,40.00,Spain,Madrid,Madrid
C0003,2024-01-02,Lamp,1,15.00,15.00,,,
C0004,2024-03-15,Laptop,1,899.00,899.00,Italy,Lazio,Rome
C0004,2024-06-01,Mouse,3,9.50,28.50,Italy,Lazio,Rome
`

// execute runs the root command with fresh flag values; cobra keeps parsed
// values on the package-level commands between runs.
func execute(args ...string) (string, error) {
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execute(args...)
	require.NoError(t, err)
	return out
}

func writeOrders(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "orders.csv")
	require.NoError(t, os.WriteFile(path, []byte(orders), 0o600))
	return path
}

func TestAnalyzeJSONExport(t *testing.T) {
	csv := writeOrders(t)
	dir := t.TempDir()

	out := run(t, "analyze", "--csv", csv, "--output", "json", "--out-dir", dir, "--log-level", "error", "--as-of", "2024-06-30")
	path := strings.TrimSpace(out)
	require.True(t, strings.HasPrefix(filepath.Base(path), "rfm_analysis_"), out)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var env struct {
		Kind string `json:"kind"`
		Data struct {
			Profiles []struct {
				CustomerID  string `json:"customer_id"`
				Frequency   int    `json:"frequency"`
				Monetary    string `json:"monetary"`
				RecencyDays int    `json:"recency_days"`
			} `json:"profiles"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &env))
	assert.Equal(t, "rfm_analysis", env.Kind)
	require.Len(t, env.Data.Profiles, 4)

	c1 := env.Data.Profiles[0]
	assert.Equal(t, "C0001", c1.CustomerID)
	assert.Equal(t, 2, c1.Frequency)
	assert.Equal(t, "135.98", c1.Monetary)
	assert.Equal(t, 10, c1.RecencyDays)
}

func TestTableCommands(t *testing.T) {
	csv := writeOrders(t)

	out := run(t, "cohort", "--csv", csv, "--output", "table", "--log-level", "error")
	assert.Contains(t, out, "01/2024")

	out = run(t, "geo", "--csv", csv, "--output", "table", "--level", "city", "--log-level", "error")
	assert.Contains(t, out, "Paris")
	assert.Contains(t, out, "Market penetration by city")
	assert.Contains(t, out, "Segments by city")

	out = run(t, "sales", "--csv", csv, "--output", "table", "--top", "2", "--log-level", "error")
	assert.Contains(t, out, "Laptop")
	assert.Contains(t, out, "Seasonality")
	assert.Contains(t, out, "Revenue forecast")

	out = run(t, "summary", "--csv", csv, "--log-level", "error")
	assert.Contains(t, out, "Records")
	assert.Contains(t, out, "2024-01-02")
}

func TestSalesJSONForecast(t *testing.T) {
	csv := writeOrders(t)
	dir := t.TempDir()

	out := run(t, "sales", "--csv", csv, "-o", "json", "--out-dir", dir, "--forecast-periods", "2", "--log-level", "error")
	raw, err := os.ReadFile(strings.TrimSpace(out))
	require.NoError(t, err)
	var env struct {
		Data struct {
			Seasonality struct {
				PeakMonth string `json:"peak_month"`
			} `json:"seasonality"`
			Acquisition []struct {
				NewCustomers int `json:"new_customers"`
			} `json:"acquisition"`
			Forecast *struct {
				Points []struct {
					Label string `json:"label"`
				} `json:"points"`
			} `json:"forecast"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &env))
	assert.Equal(t, "March", env.Data.Seasonality.PeakMonth)
	require.Len(t, env.Data.Acquisition, 4)
	require.NotNil(t, env.Data.Forecast)
	require.Len(t, env.Data.Forecast.Points, 2)
	assert.Equal(t, "2024-07", env.Data.Forecast.Points[0].Label)
}

func TestVersion(t *testing.T) {
	assert.Contains(t, run(t, "version"), "rfm-insights")
}

func TestOutputFormatCaseInsensitive(t *testing.T) {
	csv := writeOrders(t)
	dir := t.TempDir()

	out := run(t, "segments", "--csv", csv, "--output", "JSON", "--out-dir", dir, "--log-level", "error")
	path := strings.TrimSpace(out)
	assert.True(t, strings.HasPrefix(filepath.Base(path), "segment_summary_"), out)
	assert.FileExists(t, path)
}

func TestMaxRowsEveryCommand(t *testing.T) {
	csv := writeOrders(t)
	dir := t.TempDir()

	for _, name := range []string{"analyze", "segments", "cohort", "sales", "geo", "summary"} {
		t.Run(name, func(t *testing.T) {
			out, err := execute(name, "--csv", csv, "--max-rows", "2", "--output", "json", "--out-dir", dir, "--log-level", "error")
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrInvalidData), "got %v", err)
			assert.Empty(t, out)

			_, err = execute(name, "--csv", csv, "--max-rows", "7", "--output", "json", "--out-dir", dir, "--log-level", "error")
			assert.NoError(t, err)
		})
	}
}

func TestMaxRowsFromEnv(t *testing.T) {
	csv := writeOrders(t)
	t.Setenv("RFM_ANALYSIS_MAX_ROWS", "2")

	_, err := execute("cohort", "--csv", csv, "--log-level", "error")
	assert.True(t, errors.Is(err, models.ErrInvalidData), "got %v", err)
}
