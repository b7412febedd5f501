package ingest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"rfm-insights/pkg/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `customer_id,order_date,product_name,quantity,unit_price,total_amount,country,region,city
C0001,2024-03-01,Laptop,1,45.99,45.99,France,IDF,Paris
C0001,2024-03-01T14:30:00Z,Mouse,1,39.99,39.99,,,
C0002,2024-02-10 08:00:00,Desk,2,25.00,50.00,Spain,Madrid,Madrid
C0003,not-a-date,Desk,1,10,10,,,
C0004,2024-02-11,Desk,0,10,0,,,
,2024-02-11,Desk,1,10,10,,,
`

func TestReadCSV(t *testing.T) {
	res, err := ReadCSV(strings.NewReader(sample), Options{})
	require.NoError(t, err)
	assert.Equal(t, 6, res.Rows)
	assert.Equal(t, 3, res.Dropped)
	require.Len(t, res.Transactions, 3)

	first := res.Transactions[0]
	assert.Equal(t, "C0001", first.CustomerID)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), first.OrderDate)
	assert.True(t, first.TotalAmount.Equal(decimal.RequireFromString("45.99")))
	assert.Equal(t, "Paris", first.City)

	second := res.Transactions[1]
	assert.Equal(t, time.Date(2024, 3, 1, 14, 30, 0, 0, time.UTC), second.OrderDate)
	assert.Equal(t, Unknown, second.Country)
	assert.Equal(t, Unknown, second.Region)
	assert.Equal(t, Unknown, second.City)

	assert.Equal(t, 2, res.Transactions[2].Quantity)
}

func TestReadCSV_HeaderVariants(t *testing.T) {
	in := "\ufeffCustomer_ID; Order_Date; Product_Name; Quantity; Unit_Price; Total_Amount\nA;2024-01-01;X;1;2.5;2.5\n"
	res, err := ReadCSV(strings.NewReader(in), Options{Comma: ';'})
	require.NoError(t, err)
	require.Len(t, res.Transactions, 1)
	assert.Equal(t, Unknown, res.Transactions[0].Country)
}

func TestReadCSV_Errors(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		field string
	}{
		{name: "empty", in: ""},
		{name: "missing column", in: "customer_id,order_date,product_name,quantity,unit_price\nA,2024-01-01,X,1,1\n", field: "total_amount"},
		{name: "no valid rows", in: "customer_id,order_date,product_name,quantity,unit_price,total_amount\nA,bad,X,1,1,1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.in), Options{})
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrInvalidData), "got %v", err)
			var ide *models.InvalidDataError
			require.True(t, errors.As(err, &ide))
			assert.Equal(t, tt.field, ide.Field)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.csv")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	res, err := LoadFile(path, Options{})
	require.NoError(t, err)
	assert.Len(t, res.Transactions, 3)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.csv"), Options{})
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	for _, s := range []string{"2024-05-06", "2024-05-06T00:00:00Z", "2024-05-06 00:00:00"} {
		got, err := ParseDate(s)
		require.NoError(t, err, s)
		assert.Equal(t, time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC), got, s)
	}
	_, err := ParseDate("06/05/2024")
	assert.Error(t, err)
}
