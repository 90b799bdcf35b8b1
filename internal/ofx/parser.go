// Package ofx reads cash balances from OFX/QFX bank statement downloads.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/payroll-sentinel/internal/model"
)

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	tagFixRegex   = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// StatementBalance is the closing position of one bank statement.
type StatementBalance struct {
	AsOf      time.Time
	Available *float64
	AccountID string
	Ledger    float64
}

// Amount is the balance the statement makes spendable: available when the
// bank reports it, ledger otherwise.
func (s StatementBalance) Amount() float64 {
	if s.Available != nil {
		return *s.Available
	}
	return s.Ledger
}

// Parser implements OFX/QFX file parsing.
type Parser struct{}

// NewParser creates a new OFX parser.
func NewParser() *Parser {
	return &Parser{}
}

// preprocessOFX fixes common formatting issues in OFX files.
func (p *Parser) preprocessOFX(content string) string {
	// Trim any leading whitespace or blank lines before the header
	content = strings.TrimLeft(content, " \t\r\n")

	// Fix mixed-case SEVERITY values (should be INFO, WARN, or ERROR)
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)

	// Fix missing closing angle brackets in SGML-style OFX files
	content = tagFixRegex.ReplaceAllString(content, "$1>")

	return content
}

// ParseStatements returns the closing balance of every bank statement in the file.
// Credit card statements are liabilities and are skipped.
func (p *Parser) ParseStatements(_ context.Context, reader io.Reader) ([]StatementBalance, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(p.preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	var statements []StatementBalance
	for _, msg := range resp.Bank {
		stmt, ok := msg.(*ofxgo.StatementResponse)
		if !ok {
			continue
		}

		ledger, _ := stmt.BalAmt.Float64()
		sb := StatementBalance{
			AccountID: string(stmt.BankAcctFrom.AcctID),
			Ledger:    ledger,
			AsOf:      stmt.DtAsOf.Time,
		}
		if stmt.AvailBalAmt != nil {
			available, _ := stmt.AvailBalAmt.Float64()
			sb.Available = &available
			if stmt.AvailDtAsOf != nil && stmt.AvailDtAsOf.After(sb.AsOf) {
				sb.AsOf = stmt.AvailDtAsOf.Time
			}
		}
		statements = append(statements, sb)
	}

	slog.Debug("Parsed OFX balances",
		"bank_statements", len(statements),
		"cc_statements", len(resp.CreditCard))

	return statements, nil
}

// ParseBalance sums the closing balances of every bank statement in the file.
func (p *Parser) ParseBalance(ctx context.Context, reader io.Reader) (model.Balance, error) {
	statements, err := p.ParseStatements(ctx, reader)
	if err != nil {
		return model.Balance{}, err
	}
	if len(statements) == 0 {
		return model.Balance{}, fmt.Errorf("OFX file contains no bank statements")
	}

	total := decimal.Zero
	var asOf time.Time
	for _, s := range statements {
		total = total.Add(decimal.NewFromFloat(s.Amount()))
		if s.AsOf.After(asOf) {
			asOf = s.AsOf
		}
	}

	return model.Balance{
		Amount:   total.Round(2).InexactFloat64(),
		AsOf:     asOf,
		Accounts: len(statements),
	}, nil
}
