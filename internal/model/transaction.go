package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TrnType is the OFX transaction type code assigned to a statement line.
type TrnType string

const (
	TrnTypeDebit TrnType = "DEBIT"
	TrnTypeInt   TrnType = "INT"
	TrnTypeXfer  TrnType = "XFER"
	TrnTypePOS   TrnType = "POS"
	TrnTypeOther TrnType = "OTHER"
)

// Transaction is one normalized statement line parsed from a bank export.
type Transaction struct {
	Date     time.Time       // execution date
	DateUser time.Time       // settlement date
	Amount   decimal.Decimal // negative = outgoing, positive = incoming
	Payee    string
	Memo     string
	TrnType  TrnType
	CheckNum string // variable symbol
	RefNum   string // bank transaction identification
	ID       string
}
