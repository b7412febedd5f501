package cohort

import (
	"errors"
	"testing"
	"time"

	"rfm-insights/pkg/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func order(id string, y int, m time.Month, d int, amount string) models.Transaction {
	return models.Transaction{
		CustomerID:  id,
		OrderDate:   time.Date(y, m, d, 10, 0, 0, 0, time.UTC),
		Quantity:    1,
		UnitPrice:   decimal.RequireFromString(amount),
		TotalAmount: decimal.RequireFromString(amount),
	}
}

func sample() []models.Transaction {
	return []models.Transaction{
		// January cohort: A, B, C, D
		order("A", 2024, time.January, 3, "100"),
		order("A", 2024, time.February, 9, "50"),
		order("A", 2024, time.March, 1, "25"),
		order("B", 2024, time.January, 20, "40"),
		order("B", 2024, time.March, 15, "60"),
		order("C", 2024, time.January, 31, "10"),
		order("D", 2024, time.January, 5, "30"),
		order("D", 2024, time.January, 25, "30"),
		// February cohort: E, F
		order("E", 2024, time.February, 2, "80"),
		order("F", 2024, time.February, 28, "20"),
		order("F", 2024, time.March, 3, "20"),
	}
}

func TestRetention(t *testing.T) {
	m, err := Retention(sample())
	require.NoError(t, err)
	require.Len(t, m.Cohorts, 2)

	jan := m.Cohorts[0]
	assert.Equal(t, "01/2024", jan.Label)
	assert.Equal(t, 4, jan.Size)
	assert.Equal(t, []int{4, 1, 2}, jan.Active)
	assert.Equal(t, []float64{1, 0.25, 0.5}, jan.Retention)
	assert.True(t, jan.CumulativeLTV.Equal(decimal.RequireFromString("86.25")), "ltv = %s", jan.CumulativeLTV)
	assert.True(t, jan.RevenuePerCustomer[0].Equal(decimal.RequireFromString("52.5")))

	feb := m.Cohorts[1]
	assert.Equal(t, "02/2024", feb.Label)
	assert.Equal(t, 2, feb.Size)
	assert.Equal(t, []float64{1, 0.5}, feb.Retention)

	got, ok := m.Fraction(time.Date(2024, 1, 17, 0, 0, 0, 0, time.UTC), 2)
	require.True(t, ok)
	assert.Equal(t, 0.5, got)
	_, ok = m.Fraction(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), 2)
	assert.False(t, ok)
}

func TestRetention_FractionsBounded(t *testing.T) {
	m, err := Retention(sample())
	require.NoError(t, err)
	for _, c := range m.Cohorts {
		require.NotEmpty(t, c.Retention)
		assert.Equal(t, 1.0, c.Retention[0], c.Label)
		for off, r := range c.Retention {
			assert.GreaterOrEqual(t, r, 0.0, "%s+%d", c.Label, off)
			assert.LessOrEqual(t, r, 1.0, "%s+%d", c.Label, off)
		}
	}
}

func TestRetention_Empty(t *testing.T) {
	_, err := Retention(nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInsufficientData))
}

func TestMatrixWindow(t *testing.T) {
	m, err := Retention(sample())
	require.NoError(t, err)

	w, err := m.Window("022024", "")
	require.NoError(t, err)
	require.Len(t, w.Cohorts, 1)
	assert.Equal(t, "02/2024", w.Cohorts[0].Label)

	w, err = m.Window("", "012024")
	require.NoError(t, err)
	require.Len(t, w.Cohorts, 1)
	assert.Equal(t, "01/2024", w.Cohorts[0].Label)

	for _, bounds := range [][2]string{{"032024", "012024"}, {"2024-01", ""}, {"", "+12024"}} {
		_, err = m.Window(bounds[0], bounds[1])
		require.Error(t, err, "%v", bounds)
		assert.True(t, errors.Is(err, models.ErrConfiguration), "%v: %v", bounds, err)
	}
}

func TestAverageByOffset(t *testing.T) {
	m, err := Retention(sample())
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0.375, 0.5}, m.AverageByOffset())
}
