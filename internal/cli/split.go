package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/GeorgePPP/bill-splitter/internal/calculator"
	"github.com/GeorgePPP/bill-splitter/internal/extract"
	"github.com/GeorgePPP/bill-splitter/internal/models"
	"github.com/GeorgePPP/bill-splitter/internal/receipt"
)

var splitCmd = &cobra.Command{
	Use:   "split <request.json>",
	Short: "Split a receipt between participants",
	Long: `Reads a split request (JSON, "-" for stdin) with a receipt, participants,
item assignments and optional distribution modes and payer. The receipt is
reconciled first; assignments refer to its unit items by index.`,
	Args: cobra.ExactArgs(1),
	RunE: runSplit,
}

func init() {
	rootCmd.AddCommand(splitCmd)
}

// splitRequest is the split input file. The receipt is decoded leniently.
type splitRequest struct {
	Receipt      json.RawMessage          `json:"receipt"`
	Participants []models.Participant     `json:"participants"`
	Assignments  []models.ItemAssignment  `json:"assignments"`
	Modes        models.DistributionModes `json:"modes"`
	PayerID      string                   `json:"payer_id"`
}

type splitOutput struct {
	Receipt     *models.ValidatedReceipt `json:"receipt"`
	Result      *models.SplitResult      `json:"result"`
	Settlements []models.DebtEdge        `json:"settlements,omitempty"`
}

func runSplit(cmd *cobra.Command, args []string) error {
	data, err := readInput(cmd, args[0])
	if err != nil {
		return err
	}
	var req splitRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("failed to decode split request: %w", err)
	}
	if len(req.Receipt) == 0 {
		return errors.New("split request has no receipt")
	}
	raw, err := extract.DecodeReceipt(req.Receipt)
	if err != nil {
		return fmt.Errorf("failed to decode receipt: %w", err)
	}

	modes, err := parseModes(req.Modes)
	if err != nil {
		return err
	}

	validated, err := receipt.ReconcileRaw(raw)
	if err != nil {
		var rerr *receipt.ReconciliationError
		if errors.As(err, &rerr) {
			printFailure(cmd.ErrOrStderr(), rerr)
			return errNotReconciled
		}
		return err
	}

	result, err := calculator.Allocate(validated, req.Participants, req.Assignments, modes)
	if err != nil {
		return err
	}

	out := splitOutput{Receipt: validated, Result: result}
	if req.PayerID != "" {
		out.Settlements, err = calculator.SettleUp(result, req.PayerID)
		if err != nil {
			return err
		}
	}

	if outputJSON {
		return printJSON(cmd, out)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, receipt.FormatSplitSummary(result))
	if len(out.Settlements) > 0 {
		names := make(map[string]string, len(result.People))
		for _, p := range result.People {
			names[p.ParticipantID] = p.Name
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Settle up:")
		for _, e := range out.Settlements {
			fmt.Fprintf(w, "  %s owes %s %s\n", names[e.From], names[e.To], receipt.FormatCurrency(e.Amount))
		}
	}
	return nil
}

func parseModes(m models.DistributionModes) (models.DistributionModes, error) {
	var err error
	if m.Tax, err = models.ParseDistributionMode(string(m.Tax)); err != nil {
		return m, fmt.Errorf("tax mode: %w", err)
	}
	if m.ServiceCharge, err = models.ParseDistributionMode(string(m.ServiceCharge)); err != nil {
		return m, fmt.Errorf("service charge mode: %w", err)
	}
	if m.Discount, err = models.ParseDistributionMode(string(m.Discount)); err != nil {
		return m, fmt.Errorf("discount mode: %w", err)
	}
	return m, nil
}
