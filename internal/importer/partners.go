package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding"

	"github.com/cleared-dev/ptbn2ofx/internal/buildinfo"
	"github.com/cleared-dev/ptbn2ofx/internal/id"
	"github.com/cleared-dev/ptbn2ofx/internal/model"
)

// Column headers of the Partners Banka mobile app export.
const (
	colExecutionDate       = "Datum provedení"
	colSettlementDate      = "Datum zúčtování"
	colMessage             = "Zpráva pro příjemce"
	colCounterpartyName    = "Název protistrany"
	colVariableSymbol      = "Variabilní symbol"
	colConstantSymbol      = "Konstantní symbol"
	colSpecificSymbol      = "Specifický symbol"
	colTransactionID       = "Identifikace transakce"
	colAmount              = "Částka"
	colCurrency            = "Měna"
	colDirection           = "Směr úhrady"
	colOrigAmount          = "Původní částka úhrady"
	colOrigCurrency        = "Původní měna úhrady"
	colPaymentType         = "Typ úhrady"
	colCounterpartyAccount = "Číslo účtu protistrany"
	colCounterpartyBank    = "Kód banky protistrany"
	colCounterpartyIBAN    = "IBAN protistrany"
	colNoteToSelf          = "Poznámka pro mě"
	colCardHolder          = "Držitel karty"
	colCardNumber          = "Číslo karty"
)

const (
	partnersDateLayout = "2. 1. 2006"
	directionOutgoing  = "Odchozí"
	descSeparator      = "|"
)

// Columns holds the position of every column the parser reads.
type Columns struct {
	ExecutionDate       int
	SettlementDate      int
	Message             int
	CounterpartyName    int
	VariableSymbol      int
	ConstantSymbol      int
	SpecificSymbol      int
	TransactionID       int
	Amount              int
	Currency            int
	Direction           int
	OrigAmount          int
	OrigCurrency        int
	PaymentType         int
	CounterpartyAccount int
	CounterpartyBank    int
	CounterpartyIBAN    int
	NoteToSelf          int
	CardHolder          int
	CardNumber          int

	width int // minimum number of fields a data row must have
}

// ResolveColumns locates every required column in the header row.
// All missing columns are reported together in one ErrMissingColumn error.
func ResolveColumns(header []string) (*Columns, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		index[strings.TrimSpace(name)] = i
	}

	var c Columns
	fields := []struct {
		name string
		dst  *int
	}{
		{colExecutionDate, &c.ExecutionDate},
		{colSettlementDate, &c.SettlementDate},
		{colMessage, &c.Message},
		{colCounterpartyName, &c.CounterpartyName},
		{colVariableSymbol, &c.VariableSymbol},
		{colConstantSymbol, &c.ConstantSymbol},
		{colSpecificSymbol, &c.SpecificSymbol},
		{colTransactionID, &c.TransactionID},
		{colAmount, &c.Amount},
		{colCurrency, &c.Currency},
		{colDirection, &c.Direction},
		{colOrigAmount, &c.OrigAmount},
		{colOrigCurrency, &c.OrigCurrency},
		{colPaymentType, &c.PaymentType},
		{colCounterpartyAccount, &c.CounterpartyAccount},
		{colCounterpartyBank, &c.CounterpartyBank},
		{colCounterpartyIBAN, &c.CounterpartyIBAN},
		{colNoteToSelf, &c.NoteToSelf},
		{colCardHolder, &c.CardHolder},
		{colCardNumber, &c.CardNumber},
	}

	var missing []string
	for _, f := range fields {
		i, ok := index[f.name]
		if !ok {
			missing = append(missing, fmt.Sprintf("%q", f.name))
			continue
		}
		*f.dst = i
		if i+1 > c.width {
			c.width = i + 1
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return &c, nil
}

// PartnersParser parses Partners Banka CSV exports (mobile app, UTF-8).
type PartnersParser struct {
	logger Logger
}

var _ Parser = (*PartnersParser)(nil)

// NewPartnersParser creates a parser reporting diagnostics to logger.
// A nil logger discards them.
func NewPartnersParser(logger Logger) *PartnersParser {
	if logger == nil {
		logger = discardLogger()
	}
	return &PartnersParser{logger: logger}
}

// Format returns the parser name.
func (p *PartnersParser) Format() string { return "partners" }

// Parse reads a whole export and returns its settled transactions.
func (p *PartnersParser) Parse(r io.Reader) ([]model.Transaction, error) {
	var txns []model.Transaction
	err := p.Walk(r, func(txn model.Transaction) error {
		txns = append(txns, txn)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return txns, nil
}

// Walk streams an export, calling fn for each settled transaction in file
// order. The next row is not read until fn returns. An error from fn stops
// the walk and is returned as is.
func (p *PartnersParser) Walk(r io.Reader, fn func(model.Transaction) error) error {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading partners CSV header: %w", readError(err))
	}
	if !validText(header) {
		return fmt.Errorf("row 1: %w", ErrInvalidText)
	}

	cols, err := ResolveColumns(header)
	if err != nil {
		return fmt.Errorf("resolving partners CSV header: %w", err)
	}

	ids := id.NewSet()
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading partners CSV: %w", readError(err))
		}
		line, _ := cr.FieldPos(0)
		if !validText(rec) {
			return fmt.Errorf("row %d: %w", line, ErrInvalidText)
		}

		txn, ok, err := p.ParseRecord(cols, rec)
		if err != nil {
			return fmt.Errorf("row %d: %w", line, err)
		}
		if !ok {
			p.logger.Debug("skipping unsettled transaction", "row", line)
			continue
		}
		txn.ID = ids.Claim(txn.ID)

		if err := fn(txn); err != nil {
			return err
		}
	}
}

// ParseRecord converts one data row. It reports ok == false for rows that
// have no settlement date yet, typically card payments still being processed.
func (p *PartnersParser) ParseRecord(cols *Columns, rec []string) (txn model.Transaction, ok bool, err error) {
	if len(rec) < cols.width {
		return model.Transaction{}, false, fmt.Errorf("%w: expected at least %d fields, got %d", ErrShortRow, cols.width, len(rec))
	}
	row := trimFields(rec)

	var amount decimal.Decimal
	amountSet := row[cols.Amount] != ""
	if amountSet {
		amount, err = ParseAmount(row[cols.Amount])
		if err != nil {
			return model.Transaction{}, false, fmt.Errorf("parsing amount %q: %w", row[cols.Amount], err)
		}
		if row[cols.Direction] == directionOutgoing {
			amount = amount.Abs().Neg()
		}
	}

	origAmount := row[cols.OrigAmount]
	if origAmount != "" {
		d, err := ParseAmount(origAmount)
		if err != nil {
			return model.Transaction{}, false, fmt.Errorf("parsing original amount %q: %w", origAmount, err)
		}
		origAmount = formatOrigAmount(d)
	}

	if row[cols.SettlementDate] == "" {
		return model.Transaction{}, false, nil
	}
	if !amountSet {
		return model.Transaction{}, false, ErrMissingAmount
	}

	dateUser, err := time.Parse(partnersDateLayout, row[cols.SettlementDate])
	if err != nil {
		return model.Transaction{}, false, fmt.Errorf("parsing settlement date %q: %w", row[cols.SettlementDate], err)
	}
	date, err := time.Parse(partnersDateLayout, row[cols.ExecutionDate])
	if err != nil {
		return model.Transaction{}, false, fmt.Errorf("parsing execution date %q: %w", row[cols.ExecutionDate], err)
	}

	paymentType := row[cols.PaymentType]
	trnType, known := Classify(paymentType)
	if !known {
		p.logger.Warn("unexpected payment type, using XFER",
			"type", paymentType,
			"report", buildinfo.IssuesURL)
	}

	txn = model.Transaction{
		Date:     date,
		DateUser: dateUser,
		Amount:   amount,
		Payee:    composePayee(row, cols),
		Memo:     composeMemo(row, cols, origAmount),
		TrnType:  trnType,
		CheckNum: row[cols.VariableSymbol],
		RefNum:   row[cols.TransactionID],
	}
	txn.ID = id.TransactionID(txn)
	return txn, true, nil
}

// ParseAmount parses a Czech formatted number: spaces group thousands and a
// comma marks decimals ("1 234,50"). Plain numbers ("100", "-5.5") parse too.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\u202f':
			return -1
		}
		return r
	}, s)
	return decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
}

// formatOrigAmount renders the foreign amount for the memo with at least one
// decimal place: 49.9, 100.0, -5.0.
func formatOrigAmount(d decimal.Decimal) string {
	s := d.String()
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// readError marks decoder failures on invalid UTF-8 with ErrInvalidText.
func readError(err error) error {
	if errors.Is(err, encoding.ErrInvalidUTF8) {
		return fmt.Errorf("%w: %w", ErrInvalidText, err)
	}
	return err
}

func validText(rec []string) bool {
	for _, v := range rec {
		if !utf8.ValidString(v) {
			return false
		}
	}
	return true
}

func trimFields(rec []string) []string {
	row := make([]string, len(rec))
	for i, v := range rec {
		row[i] = strings.TrimSpace(v)
	}
	return row
}

// descBuilder joins description parts with "|", never starting with one.
type descBuilder struct {
	strings.Builder
}

func newDescBuilder(base string) *descBuilder {
	b := &descBuilder{}
	b.WriteString(base)
	return b
}

// add appends prefix+value when value is not empty.
func (b *descBuilder) add(prefix, value string) {
	if value == "" {
		return
	}
	if b.Len() > 0 {
		b.WriteString(descSeparator)
	}
	b.WriteString(prefix)
	b.WriteString(value)
}

// composePayee builds "name|ÚČ: account/bank|IBAN iban".
// The bank code is glued to whatever precedes it, without a separator.
func composePayee(row []string, cols *Columns) string {
	b := newDescBuilder(row[cols.CounterpartyName])
	b.add("ÚČ: ", row[cols.CounterpartyAccount])
	if bank := row[cols.CounterpartyBank]; bank != "" {
		b.WriteString("/" + bank)
	}
	b.add("IBAN ", row[cols.CounterpartyIBAN])
	return b.String()
}

func composeMemo(row []string, cols *Columns, origAmount string) string {
	message := row[cols.Message]
	b := newDescBuilder(message)
	if note := row[cols.NoteToSelf]; note != message {
		b.add("", note)
	}
	b.add("VS: ", row[cols.VariableSymbol])
	b.add("KS: ", row[cols.ConstantSymbol])
	b.add("SS: ", row[cols.SpecificSymbol])
	b.add("Držitel karty: ", row[cols.CardHolder])
	b.add("Číslo karty: ", row[cols.CardNumber])
	if orig := row[cols.OrigCurrency]; orig != "" && orig != row[cols.Currency] {
		b.add("Původní měna: ", origAmount+orig)
	}
	b.add("", row[cols.PaymentType])
	return b.String()
}
