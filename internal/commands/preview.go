package commands

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/ptbn2ofx/internal/config"
	"github.com/cleared-dev/ptbn2ofx/internal/importer"
	"github.com/cleared-dev/ptbn2ofx/internal/model"
)

const previewPayeeWidth = 32

func newPreviewCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "preview <input.csv>",
		Short: "Show the transactions a conversion would write",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := opts.settings(cmd)
			if err != nil {
				return err
			}
			stmt, err := previewStatement(importer.NewPartnersParser(opts.newLogger(cmd)), settings, args[0])
			if err != nil {
				return err
			}
			printPreview(cmd.OutOrStdout(), stmt)
			return nil
		},
	}
}

// previewStatement parses the whole export at path in one call.
func previewStatement(parser importer.Parser, settings *config.Settings, path string) (*model.Statement, error) {
	r, closeInput, err := openExport(path, settings.Charset)
	if err != nil {
		return nil, err
	}
	defer closeInput()

	txns, err := parser.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	stmt := newStatement(settings)
	stmt.Transactions = txns
	return stmt, nil
}

func printPreview(w io.Writer, stmt *model.Statement) {
	headerStyle := lipgloss.NewStyle().Bold(true)
	inStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10"))  // green
	outStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // red
	memoStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8")) // gray

	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-10s  %-5s  %12s  %-*s  %s",
		"DATE", "TYPE", "AMOUNT", previewPayeeWidth, "PAYEE", "MEMO")))

	var in, out decimal.Decimal
	for _, t := range stmt.Transactions {
		style := inStyle
		if t.Amount.IsNegative() {
			style = outStyle
			out = out.Add(t.Amount)
		} else {
			in = in.Add(t.Amount)
		}
		fmt.Fprintf(w, "%s  %-5s  %s  %-*s  %s\n",
			t.Date.Format("2006-01-02"),
			t.TrnType,
			style.Render(fmt.Sprintf("%12s", t.Amount.StringFixed(2))),
			previewPayeeWidth, truncate(t.Payee, previewPayeeWidth),
			memoStyle.Render(t.Memo))
	}

	if len(stmt.Transactions) == 0 {
		fmt.Fprintln(w, "\nNo settled transactions")
		return
	}
	fmt.Fprintf(w, "\n%d transaction(s) from %s to %s: in %s, out %s, net %s %s\n",
		len(stmt.Transactions),
		stmt.StartDate().Format("2006-01-02"),
		stmt.EndDate().Format("2006-01-02"),
		in.StringFixed(2), out.StringFixed(2), in.Add(out).StringFixed(2),
		stmt.Currency)
}

// truncate shortens s to at most n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
