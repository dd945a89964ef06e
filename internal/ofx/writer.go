// Package ofx renders parsed statements as OFX bank statement responses.
package ofx

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"time"

	"github.com/aclindsa/ofxgo"
	"github.com/google/uuid"
	"golang.org/x/text/encoding/charmap"

	"github.com/cleared-dev/ptbn2ofx/internal/model"
)

var (
	// ErrUnsupportedVersion means the requested OFX version cannot be written.
	ErrUnsupportedVersion = errors.New("unsupported OFX version")

	// ErrUnencodable means statement text has characters outside windows-1250,
	// which OFX 1.02 documents are written in.
	ErrUnencodable = errors.New("text cannot be written as windows-1250, use OFX version 203")
)

const (
	// Version102 is SGML OFX as written by most desktop finance tools.
	// Text is encoded as windows-1250 and the header says CHARSET:1250.
	Version102 = "102"
	// Version203 is XML OFX. It is the default because it declares UTF-8.
	Version203 = "203"

	// PlaceholderAccountID is written to ACCTID when no account is configured.
	PlaceholderAccountID = "UNKNOWN"
)

var charsetHeader = regexp.MustCompile(`(?m)^CHARSET:[^\r\n]*`)

// Options control the document envelope. The zero value is usable.
type Options struct {
	Version  string    // Version102 or Version203, default Version203
	Org      string    // FI>ORG in the signon response
	Language string    // ISO 639-2, default "CES"
	Now      time.Time // DTSERVER, default time.Now()
}

// Write encodes stmt as an OFX statement download and writes it to w.
func Write(w io.Writer, stmt *model.Statement, opts Options) error {
	resp, err := Build(stmt, opts)
	if err != nil {
		return err
	}
	buf, err := resp.Marshal()
	if err != nil {
		return fmt.Errorf("marshaling OFX: %w", err)
	}
	doc := buf.Bytes()
	if resp.Version == ofxgo.OfxVersion102 {
		if doc, err = toWindows1250(doc); err != nil {
			return err
		}
	}
	if _, err := w.Write(doc); err != nil {
		return fmt.Errorf("writing OFX: %w", err)
	}
	return nil
}

// Build assembles the ofxgo response for stmt without serializing it.
func Build(stmt *model.Statement, opts Options) (*ofxgo.Response, error) {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	lang := opts.Language
	if lang == "" {
		lang = "CES"
	}

	cur, err := ofxgo.NewCurrSymbol(stmt.Currency)
	if err != nil {
		return nil, fmt.Errorf("currency %q: %w", stmt.Currency, err)
	}
	acctType, err := ofxgo.NewAcctType(string(stmt.AccountType))
	if err != nil {
		return nil, fmt.Errorf("account type %q: %w", stmt.AccountType, err)
	}

	txns := make([]ofxgo.Transaction, 0, len(stmt.Transactions))
	for i, t := range stmt.Transactions {
		txn, err := transaction(t)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i+1, err)
		}
		txns = append(txns, txn)
	}

	acctID := stmt.AccountID
	if acctID == "" {
		acctID = PlaceholderAccountID
	}

	start, end := stmt.StartDate(), stmt.EndDate()
	if len(stmt.Transactions) == 0 {
		start, end = now, now
	}

	resp := &ofxgo.Response{
		Version: ofxgo.OfxVersion203,
		Signon: ofxgo.SignonResponse{
			Status:   ofxgo.Status{Code: 0, Severity: "INFO"},
			DtServer: ofxgo.Date{Time: now},
			Language: ofxgo.String(lang),
			Org:      ofxgo.String(opts.Org),
			Fid:      ofxgo.String(stmt.BankID),
		},
		Bank: []ofxgo.Message{&ofxgo.StatementResponse{
			TrnUID: ofxgo.UID(uuid.New().String()),
			Status: ofxgo.Status{Code: 0, Severity: "INFO"},
			CurDef: *cur,
			BankAcctFrom: ofxgo.BankAcct{
				BankID:   ofxgo.String(stmt.BankID),
				AcctID:   ofxgo.String(acctID),
				AcctType: acctType,
			},
			BankTranList: &ofxgo.TransactionList{
				DtStart:      ofxgo.Date{Time: start},
				DtEnd:        ofxgo.Date{Time: end},
				Transactions: txns,
			},
			DtAsOf: ofxgo.Date{Time: end},
		}},
	}

	switch opts.Version {
	case "", Version203:
	case Version102:
		resp.Version = ofxgo.OfxVersion102
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedVersion, opts.Version)
	}
	return resp, nil
}

// toWindows1250 re-encodes an SGML document marshaled as UTF-8 and rewrites
// its CHARSET header to match.
func toWindows1250(doc []byte) ([]byte, error) {
	i := bytes.IndexByte(doc, '<')
	if i < 0 {
		i = len(doc)
	}
	header := charsetHeader.ReplaceAll(doc[:i], []byte("CHARSET:1250"))
	body, err := charmap.Windows1250.NewEncoder().Bytes(doc[i:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnencodable, err)
	}
	return append(header, body...), nil
}

func transaction(t model.Transaction) (ofxgo.Transaction, error) {
	trnType, err := ofxgo.NewTrnType(string(t.TrnType))
	if err != nil {
		return ofxgo.Transaction{}, fmt.Errorf("transaction type %q: %w", t.TrnType, err)
	}

	var amt ofxgo.Amount
	if _, ok := amt.Rat.SetString(t.Amount.String()); !ok {
		return ofxgo.Transaction{}, fmt.Errorf("amount %q is not a number", t.Amount.String())
	}

	txn := ofxgo.Transaction{
		TrnType:  trnType,
		DtPosted: ofxgo.Date{Time: t.Date},
		TrnAmt:   amt,
		FiTID:    ofxgo.String(t.ID),
		CheckNum: ofxgo.String(t.CheckNum),
		RefNum:   ofxgo.String(t.RefNum),
		Name:     ofxgo.String(t.Payee),
		Memo:     ofxgo.String(t.Memo),
	}
	if !t.DateUser.IsZero() {
		txn.DtUser = &ofxgo.Date{Time: t.DateUser}
	}
	return txn, nil
}
