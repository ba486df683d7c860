package upload

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// Header aliases, matched case-insensitively, first hit wins.
var (
	dateHeaders        = []string{"date", "posted date", "transaction date"}
	descriptionHeaders = []string{"description", "payee", "memo"}
	amountHeaders      = []string{"amount", "debit", "credit"}
)

var dateLayouts = []string{"2006-01-02", "01/02/2006", "1/2/2006", "01-02-06", "1/2/06"}

// Row is one statement line. Amount is absolute; Type carries the sign.
type Row struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	Type        string
}

// ParseCSV reads up to limit rows (0 for all) from a CSV statement. Rows
// missing a field, with an unreadable date or amount, or with a zero amount
// are skipped.
func ParseCSV(r io.Reader, limit int) ([]Row, error) {
	records, err := gocsv.CSVToMaps(r)
	if err != nil {
		return nil, fmt.Errorf("error reading CSV: %w", err)
	}
	return collect(records, limit), nil
}

// ParseXLSX reads the first sheet of an Excel workbook with the first row
// as headers.
func ParseXLSX(r io.Reader, limit int) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("error opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("error reading sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := rows[0]
	records := make([]map[string]string, 0, len(rows)-1)
	for _, cells := range rows[1:] {
		record := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(cells) {
				record[name] = cells[i]
			}
		}
		records = append(records, record)
	}
	return collect(records, limit), nil
}

func collect(records []map[string]string, limit int) []Row {
	var out []Row
	for _, record := range records {
		if limit > 0 && len(out) >= limit {
			break
		}
		row, ok := parseRecord(normalizeKeys(record))
		if !ok {
			continue
		}
		out = append(out, row)
	}
	return out
}

func normalizeKeys(record map[string]string) map[string]string {
	out := make(map[string]string, len(record))
	for k, v := range record {
		out[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	return out
}

func parseRecord(record map[string]string) (Row, bool) {
	rawDate := lookup(record, dateHeaders)
	desc := lookup(record, descriptionHeaders)
	rawAmount := lookup(record, amountHeaders)
	if rawDate == "" || desc == "" || rawAmount == "" {
		return Row{}, false
	}

	date, ok := parseDate(rawDate)
	if !ok {
		return Row{}, false
	}
	amount, err := parseAmount(rawAmount)
	if err != nil || amount.IsZero() {
		return Row{}, false
	}

	typ := "income"
	if amount.IsNegative() {
		typ = "expense"
	}
	return Row{
		Date:        date,
		Description: desc,
		Amount:      amount.Abs().Round(2),
		Type:        typ,
	}, true
}

func lookup(record map[string]string, aliases []string) string {
	for _, alias := range aliases {
		if v := record[alias]; v != "" {
			return v
		}
	}
	return ""
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if d, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return d, true
		}
	}
	// Unformatted Excel cells hold the serial day number.
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		d, err := excelize.ExcelDateToTime(serial, false)
		if err == nil {
			return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	// Accountant style negatives: (12.50)
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = "-" + strings.Trim(s, "()")
	}
	return decimal.NewFromString(s)
}
