package models

import "github.com/shopspring/decimal"

// TaxScenario is the accounting scenario a receipt was found to follow.
type TaxScenario string

const (
	// NoTaxes means the receipt carries no charge lines; items equal the grand total.
	NoTaxes TaxScenario = "no_taxes"

	// TaxExclusive means item prices exclude charges; subtotal + charges = grand total.
	TaxExclusive TaxScenario = "tax_exclusive"

	// TaxInclusive means item prices already include charges; items = grand total.
	TaxInclusive TaxScenario = "tax_inclusive"
)

// MaxQuantity is the largest item quantity accepted from a receipt. Larger
// quantities are treated as malformed.
const MaxQuantity = 1000

// ReceiptItem is one line item as printed on a receipt.
type ReceiptItem struct {
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// ChargeLine is a tax, service charge or discount line.
// A negative Amount is a discount.
type ChargeLine struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`

	// Percent is computed during reconciliation relative to the pre-charge
	// base. It is null until the receipt has been reconciled.
	Percent decimal.NullDecimal `json:"percent"`
}

// StoreInfo identifies the merchant that issued a receipt.
type StoreInfo struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

// RawReceipt is the best-effort structured guess returned by extraction.
// None of its numbers are trusted until the receipt is reconciled.
type RawReceipt struct {
	ReceiptNumber string        `json:"receipt_number,omitempty"`
	Date          string        `json:"date,omitempty"`
	Time          string        `json:"time,omitempty"`
	Store         StoreInfo     `json:"store"`
	Items         []ReceiptItem `json:"items"`

	// Subtotal is zero when the receipt does not state one.
	Subtotal       decimal.Decimal `json:"subtotal"`
	TaxesOrCharges []ChargeLine    `json:"taxes_or_charges"`
	GrandTotal     decimal.Decimal `json:"grand_total"`

	PaymentMethod string `json:"payment_method,omitempty"`
	TransactionID string `json:"transaction_id,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

// ItemMismatch records an item whose printed total disagrees with
// quantity × unit price. Mismatches are advisory only.
type ItemMismatch struct {
	Index      int             `json:"index"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Provided   decimal.Decimal `json:"provided_total"`
	Calculated decimal.Decimal `json:"calculated_total"`
	Difference decimal.Decimal `json:"difference"`
}

// ValidatedReceipt is a receipt whose numbers have been reconciled.
// Subtotal is always the resolved value, never the "not stated" zero.
type ValidatedReceipt struct {
	Items          []ReceiptItem   `json:"items"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	StatedSubtotal decimal.Decimal `json:"stated_subtotal"`
	Charges        []ChargeLine    `json:"taxes_or_charges"`
	GrandTotal     decimal.Decimal `json:"grand_total"`
	Scenario       TaxScenario     `json:"tax_scenario"`

	ItemsTotal     decimal.Decimal `json:"items_total"`
	ChargesTotal   decimal.Decimal `json:"charges_total"`
	ItemMismatches []ItemMismatch  `json:"item_mismatches,omitempty"`
}
