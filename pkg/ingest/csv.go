// Package ingest turns order-line CSV exports into validated transactions.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"rfm-insights/pkg/models"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"
)

// Unknown fills blank location columns.
const Unknown = "Unknown"

var requiredColumns = []string{"customer_id", "order_date", "product_name", "quantity", "unit_price", "total_amount"}

var dateLayouts = []string{time.DateOnly, time.RFC3339, time.DateTime}

// Options tune ReadCSV.
type Options struct {
	Comma    rune // 0 means ','
	Progress bool // show a byte progress bar (LoadFile only)
}

// Result is what survived parsing. Dropped counts data rows that were
// rejected (bad date, bad number, non-positive amount, blank customer).
type Result struct {
	Transactions []models.Transaction
	Rows         int
	Dropped      int
}

// ReadCSV parses order lines. A missing required column, or a file with no
// usable row at all, is an InvalidDataError. Bad rows are skipped.
func ReadCSV(r io.Reader, opts Options) (*Result, error) {
	cr := csv.NewReader(r)
	if opts.Comma != 0 {
		cr.Comma = opts.Comma
	}
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &models.InvalidDataError{Reason: "empty csv"}
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				res.Rows++
				res.Dropped++
				log.Debug().Err(err).Msg("csv row skipped")
				continue
			}
			return nil, fmt.Errorf("read csv: %w", err)
		}
		res.Rows++
		t, err := parseRecord(rec, idx)
		if err != nil {
			res.Dropped++
			log.Debug().Int("row", res.Rows).Err(err).Msg("csv row dropped")
			continue
		}
		res.Transactions = append(res.Transactions, t)
	}

	if len(res.Transactions) == 0 {
		return nil, &models.InvalidDataError{Reason: fmt.Sprintf("no valid rows (%d read, %d dropped)", res.Rows, res.Dropped)}
	}
	log.Debug().Int("rows", res.Rows).Int("dropped", res.Dropped).Msg("csv parsed")
	return res, nil
}

// LoadFile opens path and parses it with ReadCSV.
func LoadFile(path string, opts Options) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if opts.Progress {
		st, err := f.Stat()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}
		bar := progressbar.DefaultBytes(st.Size(), "reading "+st.Name())
		defer bar.Close()
		r = io.TeeReader(f, bar)
	}

	res, err := ReadCSV(r, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.Info().Str("file", path).Int("rows", res.Rows).Int("dropped", res.Dropped).Msg("transactions loaded")
	return res, nil
}

func columnIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}
	for _, c := range requiredColumns {
		if _, ok := idx[c]; !ok {
			return nil, &models.InvalidDataError{Field: c, Reason: "missing required column"}
		}
	}
	return idx, nil
}

func parseRecord(rec []string, idx map[string]int) (models.Transaction, error) {
	get := func(col string) string {
		i, ok := idx[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	t := models.Transaction{
		CustomerID:  get("customer_id"),
		ProductName: get("product_name"),
		Country:     get("country"),
		Region:      get("region"),
		City:        get("city"),
	}

	var err error
	if t.OrderDate, err = ParseDate(get("order_date")); err != nil {
		return t, err
	}
	if t.Quantity, err = strconv.Atoi(get("quantity")); err != nil {
		return t, fmt.Errorf("quantity: %w", err)
	}
	if t.UnitPrice, err = decimal.NewFromString(get("unit_price")); err != nil {
		return t, fmt.Errorf("unit_price: %w", err)
	}
	if t.TotalAmount, err = decimal.NewFromString(get("total_amount")); err != nil {
		return t, fmt.Errorf("total_amount: %w", err)
	}
	return t, Accept(&t)
}

// Accept applies the row rules shared by every loader: a customer id, a
// date, strictly positive quantity and amounts. Blank locations become Unknown.
func Accept(t *models.Transaction) error {
	switch {
	case t.CustomerID == "":
		return fmt.Errorf("customer_id: blank")
	case t.OrderDate.IsZero():
		return fmt.Errorf("order_date: missing")
	case t.Quantity <= 0 || !t.UnitPrice.IsPositive() || !t.TotalAmount.IsPositive():
		return fmt.Errorf("non-positive quantity or amount")
	}
	for _, f := range []*string{&t.Country, &t.Region, &t.City} {
		if *f == "" {
			*f = Unknown
		}
	}
	return nil
}

// ParseDate accepts 2006-01-02, RFC3339 and "2006-01-02 15:04:05" (UTC).
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("order_date: unrecognised date %q", s)
}
