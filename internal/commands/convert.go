package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ptbn2ofx/internal/config"
	"github.com/cleared-dev/ptbn2ofx/internal/importer"
	"github.com/cleared-dev/ptbn2ofx/internal/model"
	"github.com/cleared-dev/ptbn2ofx/internal/ofx"
)

func newConvertCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert <input.csv> <output.ofx>",
		Short: "Convert a Partners Banka CSV export to an OFX statement",
		Long: `Convert a Partners Banka CSV export to an OFX statement.

Transactions that are not settled yet are left out. Use "-" as the output
to write the statement to stdout.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := opts.settings(cmd)
			if err != nil {
				return err
			}
			logger := opts.newLogger(cmd)
			parser := importer.NewPartnersParser(logger)

			stmt, err := readStatement(cmd.Context(), parser, settings, args[0])
			if err != nil {
				return err
			}
			if settings.Account == "" {
				logger.Warn("no account configured, set --account or PTBN2OFX_ACCOUNT",
					"acctid", ofx.PlaceholderAccountID)
			}

			if args[1] == "-" {
				return writeStatement(cmd.OutOrStdout(), stmt, settings)
			}
			if err := writeStatementFile(args[1], stmt, settings); err != nil {
				return err
			}
			logger.Info("wrote statement",
				"format", parser.Format(),
				"transactions", len(stmt.Transactions),
				"output", args[1])
			return nil
		},
	}
	cmd.Flags().String("ofx-version", "", "OFX version to write: 102 (SGML) or 203 (XML, default)")
	cmd.Flags().String("org", "", "FI organization name in the signon response")
	return cmd
}

// openExport opens the export at path and decodes it from charset.
func openExport(path, charset string) (io.Reader, func() error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening input: %w", err)
	}
	r, err := importer.Decode(f, charset)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return r, f.Close, nil
}

// newStatement creates an empty statement described by settings.
func newStatement(settings *config.Settings) *model.Statement {
	return &model.Statement{
		Currency:    settings.Currency,
		BankID:      settings.Bank,
		AccountID:   settings.Account,
		AccountType: model.AccountType(settings.AccountType),
	}
}

// readStatement streams the export at path into a statement, checking ctx
// between transactions.
func readStatement(ctx context.Context, parser importer.Parser, settings *config.Settings, path string) (*model.Statement, error) {
	r, closeInput, err := openExport(path, settings.Charset)
	if err != nil {
		return nil, err
	}
	defer closeInput()

	stmt := newStatement(settings)
	err = parser.Walk(r, func(txn model.Transaction) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stmt.Transactions = append(stmt.Transactions, txn)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return stmt, nil
}

func writeStatement(w io.Writer, stmt *model.Statement, settings *config.Settings) error {
	return ofx.Write(w, stmt, ofx.Options{
		Version: settings.OFXVersion,
		Org:     settings.Org,
	})
}

// writeStatementFile writes the OFX document to path, removing the file again on failure.
func writeStatementFile(path string, stmt *model.Statement, settings *config.Settings) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	if err := writeStatement(f, stmt, settings); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing output: %w", err)
	}
	return nil
}
