package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/GeorgePPP/bill-splitter/internal/extract"
	"github.com/GeorgePPP/bill-splitter/internal/models"
	"github.com/GeorgePPP/bill-splitter/internal/receipt"
)

// errNotReconciled is returned after a reconciliation failure has been printed.
var errNotReconciled = errors.New("receipt did not reconcile")

var reconcileCmd = &cobra.Command{
	Use:   "reconcile <receipt.json>",
	Short: "Check a receipt's totals and detect its tax scenario",
	Long: `Reads an extracted receipt (JSON, "-" for stdin), expands multi-quantity
items into unit items, and checks that items, subtotal, charges and grand
total agree. Prints the validated receipt, or the reason it does not add up.`,
	Args: cobra.ExactArgs(1),
	RunE: runReconcile,
}

var normalizeCmd = &cobra.Command{
	Use:   "normalize <receipt.json>",
	Short: "Expand receipt items into unit items",
	Args:  cobra.ExactArgs(1),
	RunE:  runNormalize,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(normalizeCmd)
}

func loadReceipt(cmd *cobra.Command, path string) (*models.RawReceipt, error) {
	data, err := readInput(cmd, path)
	if err != nil {
		return nil, err
	}
	raw, err := extract.DecodeReceipt(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode receipt: %w", err)
	}
	return raw, nil
}

func runReconcile(cmd *cobra.Command, args []string) error {
	raw, err := loadReceipt(cmd, args[0])
	if err != nil {
		return err
	}

	validated, err := receipt.ReconcileRaw(raw)
	if err != nil {
		var rerr *receipt.ReconciliationError
		if !errors.As(err, &rerr) {
			return err
		}
		if outputJSON {
			if err := printJSON(cmd, reconcileFailure(rerr)); err != nil {
				return err
			}
		} else {
			printFailure(cmd.OutOrStdout(), rerr)
		}
		return errNotReconciled
	}

	if outputJSON {
		return printJSON(cmd, validated)
	}
	fmt.Fprintln(cmd.OutOrStdout(), receipt.FormatReceiptSummary(validated))
	return nil
}

func runNormalize(cmd *cobra.Command, args []string) error {
	raw, err := loadReceipt(cmd, args[0])
	if err != nil {
		return err
	}

	items := receipt.Normalize(raw.Items)
	if outputJSON {
		return printJSON(cmd, items)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, receipt.FormatItemList(items))
	fmt.Fprintf(out, "Items total: %s\n", receipt.FormatCurrency(receipt.Sum(items)))
	return nil
}

type failureOutput struct {
	Kind        string              `json:"kind"`
	Message     string              `json:"message"`
	UserMessage string              `json:"user_message"`
	Diagnostics receipt.Diagnostics `json:"diagnostics"`
}

func reconcileFailure(err *receipt.ReconciliationError) failureOutput {
	return failureOutput{
		Kind:        err.Kind(),
		Message:     err.Error(),
		UserMessage: err.UserMessage(),
		Diagnostics: err.Diagnostics,
	}
}

func printFailure(w io.Writer, err *receipt.ReconciliationError) {
	d := err.Diagnostics
	fmt.Fprintln(w, err.UserMessage())
	fmt.Fprintf(w, "  %s\n", err.Error())
	fmt.Fprintf(w, "  Items total: %s\n", receipt.FormatCurrency(d.ItemsTotal))
	if !d.StatedSubtotal.IsZero() {
		fmt.Fprintf(w, "  Stated subtotal: %s\n", receipt.FormatCurrency(d.StatedSubtotal))
	}
	fmt.Fprintf(w, "  Charges: %s\n", receipt.FormatCurrency(d.ChargesTotal))
	fmt.Fprintf(w, "  Grand total: %s\n", receipt.FormatCurrency(d.GrandTotal))
	for _, m := range d.ItemMismatches {
		fmt.Fprintf(w, "  Item %d (%s): %dx %s should be %s, receipt shows %s\n",
			m.Index, m.Name, m.Quantity, receipt.FormatCurrency(m.UnitPrice),
			receipt.FormatCurrency(m.Calculated), receipt.FormatCurrency(m.Provided))
	}
}
