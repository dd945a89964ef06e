package importer

import (
	"strings"

	"github.com/cleared-dev/ptbn2ofx/internal/model"
)

// paymentTypes maps "Typ úhrady" prefixes to transaction types. First match wins.
var paymentTypes = []struct {
	prefix  string
	trnType model.TrnType
}{
	{"Daň z úroku", model.TrnTypeDebit},
	{"Úroky", model.TrnTypeInt},
	{"Příchozí platba", model.TrnTypeXfer},
	{"Odchozí platba", model.TrnTypeXfer},
	{"Platba kartou", model.TrnTypePOS},
}

// Classify returns the transaction type for a payment type label.
// Unknown labels map to XFER with ok == false.
func Classify(paymentType string) (trnType model.TrnType, ok bool) {
	for _, pt := range paymentTypes {
		if strings.HasPrefix(paymentType, pt.prefix) {
			return pt.trnType, true
		}
	}
	return model.TrnTypeXfer, false
}
