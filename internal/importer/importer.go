package importer

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/cleared-dev/ptbn2ofx/internal/model"
)

// Logger receives parser diagnostics. *log.Logger from charmbracelet/log satisfies it.
type Logger interface {
	Debug(msg interface{}, keyvals ...interface{})
	Warn(msg interface{}, keyvals ...interface{})
}

// Parser converts a bank CSV export into Transactions, either all at once or
// one transaction at a time.
type Parser interface {
	Parse(r io.Reader) ([]model.Transaction, error)
	Walk(r io.Reader, fn func(model.Transaction) error) error
	Format() string
}

func discardLogger() Logger {
	return log.New(io.Discard)
}
