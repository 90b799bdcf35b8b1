package ofx

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/payroll-sentinel/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Sample OFX data for testing.
const sampleBankOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>USD
<BANKACCTFROM>
<BANKID>123456789
<ACCTID>1234567890
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240115120000[0:GMT]
<TRNAMT>-25.50
<FITID>2024011501
<NAME>STARBUCKS STORE #1234
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240120120000[0:GMT]
<TRNAMT>-125.00
<FITID>2024012001
<NAME>Whole Foods Market
</STMTTRN>
<STMTTRN>
<TRNTYPE>CHECK
<DTPOSTED>20240125120000[0:GMT]
<TRNAMT>-500.00
<FITID>2024012501
<CHECKNUM>1234
<NAME>CHECK #1234
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>1000.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

const sampleCreditCardOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<CREDITCARDMSGSRSV1>
<CCSTMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<CCSTMTRS>
<CURDEF>USD
<CCACCTFROM>
<ACCTID>4111111111111111
</CCACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240110120000[0:GMT]
<TRNAMT>-45.99
<FITID>CC2024011001
<NAME>AMAZON.COM*RT4Y7HG2
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240115120000[0:GMT]
<TRNAMT>-15.00
<FITID>CC2024011501
<NAME>NETFLIX.COM
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>-500.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</CCSTMTRS>
</CCSTMTTRNRS>
</CREDITCARDMSGSRSV1>
</OFX>`

func withAvailableBalance(ofx, amount, asOf string) string {
	avail := "</LEDGERBAL>\n<AVAILBAL>\n<BALAMT>" + amount + "\n<DTASOF>" + asOf + "\n</AVAILBAL>"
	return strings.Replace(ofx, "</LEDGERBAL>", avail, 1)
}

func TestParseStatements(t *testing.T) {
	parser := NewParser()
	ctx := context.Background()

	statements, err := parser.ParseStatements(ctx, strings.NewReader(sampleBankOFX))
	require.NoError(t, err)
	require.Len(t, statements, 1)
	assert.Equal(t, "1234567890", statements[0].AccountID)
	assert.InDelta(t, 1000.0, statements[0].Ledger, 0.001)
	assert.Nil(t, statements[0].Available)
	assert.InDelta(t, 1000.0, statements[0].Amount(), 0.001)
	assert.Equal(t, time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC), statements[0].AsOf.UTC())

	// Credit card statements are not cash.
	statements, err = parser.ParseStatements(ctx, strings.NewReader(sampleCreditCardOFX))
	require.NoError(t, err)
	assert.Empty(t, statements)
}

func TestParseBalance(t *testing.T) {
	tests := []struct {
		name       string
		ofxData    string
		wantAmount float64
		wantErr    bool
	}{
		{name: "ledger balance", ofxData: sampleBankOFX, wantAmount: 1000.00},
		{name: "available balance preferred", ofxData: withAvailableBalance(sampleBankOFX, "850.25", "20240201120000[0:GMT]"), wantAmount: 850.25},
		{name: "leading whitespace", ofxData: "\n\n  " + sampleBankOFX, wantAmount: 1000.00},
		{name: "credit card only", ofxData: sampleCreditCardOFX, wantErr: true},
		{name: "invalid OFX data", ofxData: "not valid OFX", wantErr: true},
		{name: "empty OFX", ofxData: "", wantErr: true},
	}

	parser := NewParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			balance, err := parser.ParseBalance(context.Background(), strings.NewReader(tt.ofxData))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.wantAmount, balance.Amount, 0.001)
			assert.Equal(t, 1, balance.Accounts)
		})
	}
}

func TestPreprocessOFX(t *testing.T) {
	parser := NewParser()

	got := parser.preprocessOFX("\n\t<OFX>\n<SEVERITY>Warn</SEVERITY>\n<CODE\n")
	assert.True(t, strings.HasPrefix(got, "<OFX>"))
	assert.Contains(t, got, "<SEVERITY>WARN</SEVERITY>")
	assert.Contains(t, got, "<CODE>")
}

func TestFileBalanceProvider(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "acme.qfx"), []byte(sampleBankOFX), 0o600))

	provider := NewFileBalanceProvider(dir)

	balance, err := provider.GetCurrentBalance(context.Background(), "acme")
	require.NoError(t, err)
	assert.InDelta(t, 1000.0, balance.Amount, 0.001)

	_, err = provider.GetCurrentBalance(context.Background(), "globex")
	require.ErrorIs(t, err, common.ErrNotFound)
}
