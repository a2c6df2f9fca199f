package receipt

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/GeorgePPP/bill-splitter/internal/models"
)

// FormatCurrency renders amount rounded to cents with a leading dollar sign.
// Negative amounts render as -$1.50.
func FormatCurrency(amount decimal.Decimal) string {
	if amount.IsNegative() {
		return "-$" + amount.Abs().StringFixed(2)
	}
	return "$" + amount.StringFixed(2)
}

// FormatItemList renders one line per item as "2x Name @ $1.00 = $2.00".
func FormatItemList(items []models.ReceiptItem) string {
	if len(items) == 0 {
		return "No items"
	}
	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, fmt.Sprintf("%dx %s @ %s = %s",
			item.Quantity, item.Name, FormatCurrency(item.UnitPrice), FormatCurrency(item.TotalPrice)))
	}
	return strings.Join(lines, "\n")
}

// FormatReceiptSummary renders a validated receipt for a terminal.
func FormatReceiptSummary(v *models.ValidatedReceipt) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Scenario: %s\n", v.Scenario)
	fmt.Fprintf(&b, "Items: %d\n", len(v.Items))
	for _, line := range strings.Split(FormatItemList(v.Items), "\n") {
		fmt.Fprintf(&b, "  %s\n", line)
	}
	fmt.Fprintf(&b, "Subtotal: %s\n", FormatCurrency(v.Subtotal))
	for _, c := range v.Charges {
		if c.Percent.Valid {
			fmt.Fprintf(&b, "%s (%s%%): %s\n", c.Name, c.Percent.Decimal.StringFixed(2), FormatCurrency(c.Amount))
		} else {
			fmt.Fprintf(&b, "%s: %s\n", c.Name, FormatCurrency(c.Amount))
		}
	}
	fmt.Fprintf(&b, "Total: %s", FormatCurrency(v.GrandTotal))
	if len(v.ItemMismatches) > 0 {
		fmt.Fprintf(&b, "\nWarning: %d item(s) do not match quantity x unit price", len(v.ItemMismatches))
	}
	return b.String()
}

// FormatSplitSummary renders each participant's share followed by the split
// sum and any warnings.
func FormatSplitSummary(result *models.SplitResult) string {
	var b strings.Builder
	for _, p := range result.People {
		fmt.Fprintf(&b, "%s:\n", p.Name)
		for _, item := range p.Items {
			if len(item.SharedWith) > 0 {
				fmt.Fprintf(&b, "  %s: %s (shared with %s)\n",
					item.Name, FormatCurrency(item.ShareAmount), strings.Join(item.SharedWith, ", "))
			} else {
				fmt.Fprintf(&b, "  %s: %s\n", item.Name, FormatCurrency(item.ShareAmount))
			}
		}
		fmt.Fprintf(&b, "  Subtotal: %s\n", FormatCurrency(p.Subtotal))
		if !p.TaxShare.IsZero() {
			fmt.Fprintf(&b, "  Tax: %s\n", FormatCurrency(p.TaxShare))
		}
		if !p.ServiceChargeShare.IsZero() {
			fmt.Fprintf(&b, "  Service charge: %s\n", FormatCurrency(p.ServiceChargeShare))
		}
		if !p.DiscountShare.IsZero() {
			fmt.Fprintf(&b, "  Discount: %s\n", FormatCurrency(p.DiscountShare.Neg()))
		}
		fmt.Fprintf(&b, "  Total: %s\n\n", FormatCurrency(p.Total))
	}

	fmt.Fprintf(&b, "Grand Total: %s", FormatCurrency(result.Totals.SplitSum))
	if result.Totals.ChargesIncluded {
		b.WriteString(" (taxes and charges included in item prices)")
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(&b, "\nWarning: %s", w)
	}
	if result.ValidationWarning != "" {
		fmt.Fprintf(&b, "\nWarning: %s", result.ValidationWarning)
	}
	return b.String()
}
