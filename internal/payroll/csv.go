package payroll

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/payroll-sentinel/internal/model"
)

// ErrInvalidCSV is returned for malformed payroll CSV input.
var ErrInvalidCSV = errors.New("invalid payroll CSV")

var requiredColumns = []string{"company_id", "pay_date", "amount"}

// ImportCSV reads payroll runs from CSV with a header row. Recognised columns
// are company_id, pay_date (YYYY-MM-DD), amount, employee_count and
// description; the first three are required. Every row is validated and the
// first bad row fails the whole import.
func ImportCSV(r io.Reader) ([]model.PayrollRun, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidCSV)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCSV, err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrInvalidCSV, name)
		}
	}

	field := func(record []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var runs []model.PayrollRun
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidCSV, line, err)
		}

		payDate, err := time.Parse(time.DateOnly, field(record, "pay_date"))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: pay_date: %v", ErrInvalidCSV, line, err)
		}

		amount, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimPrefix(field(record, "amount"), "$"), ",", ""))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: amount: %v", ErrInvalidCSV, line, err)
		}

		employees := 0
		if v := field(record, "employee_count"); v != "" {
			employees, err = strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: employee_count: %v", ErrInvalidCSV, line, err)
			}
		}

		run := model.PayrollRun{
			CompanyID:     field(record, "company_id"),
			PayDate:       payDate,
			Amount:        amount.Round(2).InexactFloat64(),
			EmployeeCount: employees,
			Description:   field(record, "description"),
			Status:        model.PayrollRunDraft,
		}
		if err := run.Validate(); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidCSV, line, err)
		}
		runs = append(runs, run)
	}

	return runs, nil
}
