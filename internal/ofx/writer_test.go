package ofx

import (
	"bytes"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/cleared-dev/ptbn2ofx/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testStatement() *model.Statement {
	return &model.Statement{
		Currency:    "CZK",
		BankID:      "PTBNCZPP",
		AccountID:   "1000123456",
		AccountType: model.AccountTypeChecking,
		Transactions: []model.Transaction{
			{
				Date:     day(2025, 3, 5),
				DateUser: day(2025, 3, 7),
				Amount:   decimal.RequireFromString("-1234.50"),
				Payee:    "AMAZON EU",
				Memo:     "Držitel karty: Jan Novák|Platba kartou",
				TrnType:  model.TrnTypePOS,
				RefNum:   "TX0002",
				ID:       "b1a2c3",
			},
			{
				Date:     day(2025, 3, 3),
				DateUser: day(2025, 3, 3),
				Amount:   decimal.RequireFromString("45000"),
				Payee:    "ACME s.r.o.|ÚČ: 2001234567/2010",
				Memo:     "Mzda 02/2025|VS: 1234567890|Příchozí platba",
				TrnType:  model.TrnTypeXfer,
				CheckNum: "1234567890",
				RefNum:   "TX0001",
				ID:       "d4e5f6",
			},
		},
	}
}

func TestBuild(t *testing.T) {
	now := day(2025, 4, 1)
	resp, err := Build(testStatement(), Options{Org: "Partners Banka", Now: now})
	require.NoError(t, err)

	assert.Equal(t, ofxgo.OfxVersion203, resp.Version)
	assert.Equal(t, ofxgo.String("CES"), resp.Signon.Language)
	assert.Equal(t, ofxgo.String("Partners Banka"), resp.Signon.Org)
	assert.True(t, resp.Signon.DtServer.Time.Equal(now))

	require.Len(t, resp.Bank, 1)
	stmt, ok := resp.Bank[0].(*ofxgo.StatementResponse)
	require.True(t, ok)
	assert.Equal(t, "CZK", stmt.CurDef.String())
	assert.Equal(t, ofxgo.String("PTBNCZPP"), stmt.BankAcctFrom.BankID)
	assert.Equal(t, ofxgo.String("1000123456"), stmt.BankAcctFrom.AcctID)
	assert.Equal(t, ofxgo.AcctTypeChecking, stmt.BankAcctFrom.AcctType)
	assert.Len(t, string(stmt.TrnUID), 36)

	list := stmt.BankTranList
	require.NotNil(t, list)
	assert.True(t, list.DtStart.Time.Equal(day(2025, 3, 3)))
	assert.True(t, list.DtEnd.Time.Equal(day(2025, 3, 5)))
	assert.True(t, stmt.DtAsOf.Time.Equal(day(2025, 3, 5)))
	require.Len(t, list.Transactions, 2)

	card := list.Transactions[0]
	assert.Equal(t, ofxgo.TrnTypePOS, card.TrnType)
	assert.Equal(t, ofxgo.String("b1a2c3"), card.FiTID)
	assert.Equal(t, ofxgo.String("AMAZON EU"), card.Name)
	assert.Equal(t, ofxgo.String("TX0002"), card.RefNum)
	assert.Empty(t, card.CheckNum)
	require.NotNil(t, card.DtUser)
	assert.True(t, card.DtUser.Time.Equal(day(2025, 3, 7)))
	assert.Equal(t, "-2469/2", card.TrnAmt.Rat.String())

	salary := list.Transactions[1]
	assert.Equal(t, ofxgo.TrnTypeXfer, salary.TrnType)
	assert.Equal(t, ofxgo.String("1234567890"), salary.CheckNum)
	assert.Equal(t, "45000/1", salary.TrnAmt.Rat.String())
}

func TestBuild_EmptyStatement(t *testing.T) {
	now := day(2025, 4, 1)
	stmt := testStatement()
	stmt.Transactions = nil

	resp, err := Build(stmt, Options{Now: now})
	require.NoError(t, err)
	list := resp.Bank[0].(*ofxgo.StatementResponse).BankTranList
	assert.True(t, list.DtStart.Time.Equal(now))
	assert.True(t, list.DtEnd.Time.Equal(now))
	assert.Empty(t, list.Transactions)
}

func TestBuild_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*model.Statement, *Options)
		want   string
	}{
		{"currency", func(s *model.Statement, _ *Options) { s.Currency = "KORUNA" }, `currency "KORUNA"`},
		{"account type", func(s *model.Statement, _ *Options) { s.AccountType = "WALLET" }, `account type "WALLET"`},
		{"transaction type", func(s *model.Statement, _ *Options) { s.Transactions[1].TrnType = "GIFT" }, "transaction 2:"},
		{"version", func(_ *model.Statement, o *Options) { o.Version = "160" }, "unsupported OFX version"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt := testStatement()
			opts := Options{}
			tt.modify(stmt, &opts)
			_, err := Build(stmt, opts)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, testStatement(), Options{Org: "Partners Banka", Now: day(2025, 4, 1)})
	require.NoError(t, err)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "<?xml"))
	assert.Contains(t, out, "<CURDEF>CZK")
	assert.Contains(t, out, "<ACCTTYPE>CHECKING")
	assert.Contains(t, out, "<TRNTYPE>POS")
	assert.Contains(t, out, "<TRNTYPE>XFER")
	assert.Contains(t, out, "<DTPOSTED>20250305")
	assert.Contains(t, out, "<DTUSER>20250307")
	assert.Contains(t, out, "<TRNAMT>-1234.5")
	assert.Contains(t, out, "<FITID>b1a2c3")
	assert.Contains(t, out, "<CHECKNUM>1234567890")
	assert.Contains(t, out, "<NAME>AMAZON EU")
	assert.Contains(t, out, "Držitel karty: Jan Novák")

	// The output must be readable by an OFX client.
	parsed, err := ofxgo.ParseResponse(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, parsed.Bank, 1)
	stmt, ok := parsed.Bank[0].(*ofxgo.StatementResponse)
	require.True(t, ok)
	require.Len(t, stmt.BankTranList.Transactions, 2)
	assert.Equal(t, ofxgo.String("TX0001"), stmt.BankTranList.Transactions[1].RefNum)
}

func TestWrite_SGMLIsWindows1250(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, testStatement(), Options{Version: Version102, Now: day(2025, 4, 1)})
	require.NoError(t, err)

	raw := buf.String()
	assert.True(t, strings.HasPrefix(raw, "OFXHEADER:100"))
	assert.Contains(t, raw, "CHARSET:1250")
	assert.NotContains(t, raw, "CHARSET:1252")
	assert.NotContains(t, raw, "Novák", "body must not be UTF-8")
	assert.False(t, utf8.ValidString(raw))

	decoded, err := charmap.Windows1250.NewDecoder().String(raw)
	require.NoError(t, err)
	assert.Contains(t, decoded, "<TRNTYPE>POS")
	assert.Contains(t, decoded, "Držitel karty: Jan Novák")
	assert.Contains(t, decoded, "ÚČ: 2001234567/2010")
}

func TestWrite_SGMLUnencodableText(t *testing.T) {
	stmt := testStatement()
	stmt.Transactions[0].Memo = "Dárek 🎁"

	var buf bytes.Buffer
	err := Write(&buf, stmt, Options{Version: Version102})
	assert.ErrorIs(t, err, ErrUnencodable)

	buf.Reset()
	require.NoError(t, Write(&buf, stmt, Options{Version: Version203}))
	assert.Contains(t, buf.String(), "Dárek 🎁")
}

func TestWrite_EmptyAccountUsesPlaceholder(t *testing.T) {
	stmt := testStatement()
	stmt.AccountID = ""

	resp, err := Build(stmt, Options{})
	require.NoError(t, err)
	acct := resp.Bank[0].(*ofxgo.StatementResponse).BankAcctFrom
	assert.Equal(t, ofxgo.String(PlaceholderAccountID), acct.AcctID)

	for _, version := range []string{Version102, Version203} {
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, stmt, Options{Version: version}), "version %s", version)
		assert.Contains(t, buf.String(), "<ACCTID>UNKNOWN")
	}
}
