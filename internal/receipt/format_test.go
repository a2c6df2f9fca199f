package receipt

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/GeorgePPP/bill-splitter/internal/models"
)

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "$0.00"},
		{"5.5", "$5.50"},
		{"1.005", "$1.01"},
		{"-2.25", "-$2.25"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatCurrency(dec(tt.in)), tt.in)
	}
}

func TestFormatItemList(t *testing.T) {
	assert.Equal(t, "No items", FormatItemList(nil))
	assert.Equal(t,
		"2x Beer @ $3.00 = $6.00\n1x Nuts @ $2.50 = $2.50",
		FormatItemList([]models.ReceiptItem{
			item("Beer", 2, "3", "6"),
			item("Nuts", 1, "2.5", "2.5"),
		}),
	)
}

func TestFormatReceiptSummary(t *testing.T) {
	v, err := Reconcile(
		[]models.ReceiptItem{item("Pasta", 1, "10", "10")},
		dec("10"),
		[]models.ChargeLine{charge("GST", "1")},
		dec("11"),
	)
	assert.NoError(t, err)

	out := FormatReceiptSummary(v)
	assert.Contains(t, out, "Scenario: tax_exclusive")
	assert.Contains(t, out, "1x Pasta @ $10.00 = $10.00")
	assert.Contains(t, out, "GST (10.00%): $1.00")
	assert.Contains(t, out, "Total: $11.00")
}

func TestFormatSplitSummary(t *testing.T) {
	result := &models.SplitResult{
		People: []models.PersonSplit{
			{
				ParticipantID: "a",
				Name:          "Alice",
				Items: []models.PersonItem{
					{Name: "Pizza", ShareAmount: dec("5"), SharedWith: []string{"Bob"}},
				},
				Subtotal:      dec("5"),
				TaxShare:      dec("0.5"),
				DiscountShare: dec("1"),
				Total:         dec("4.5"),
			},
		},
		Totals:            models.SplitTotals{SplitSum: dec("4.5")},
		Warnings:          []string{"1 item(s) were not assigned to anyone"},
		ValidationWarning: "split sum differs from grand total",
	}

	out := FormatSplitSummary(result)
	assert.Contains(t, out, "Alice:")
	assert.Contains(t, out, "Pizza: $5.00 (shared with Bob)")
	assert.Contains(t, out, "Tax: $0.50")
	assert.Contains(t, out, "Discount: -$1.00")
	assert.NotContains(t, out, "Service charge")
	assert.Contains(t, out, "Grand Total: $4.50")
	assert.Contains(t, out, "Warning: 1 item(s) were not assigned to anyone")
	assert.Contains(t, out, "Warning: split sum differs from grand total")
}
