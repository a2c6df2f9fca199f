package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Participant is one person splitting a bill.
// The ID is opaque and owned by the caller.
type Participant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ItemAssignment assigns one receipt item to one or more participants.
type ItemAssignment struct {
	// ItemIndex is the position of the item in ValidatedReceipt.Items.
	ItemIndex int `json:"item_index"`

	// ParticipantIDs lists who shares the item.
	ParticipantIDs []string `json:"participant_ids"`

	// Shares holds optional custom weights keyed by participant ID.
	// Weights are normalized to sum to 1; nil means an equal split.
	Shares map[string]decimal.Decimal `json:"shares,omitempty"`
}

// DistributionMode selects how an aggregate charge is spread across participants.
type DistributionMode string

const (
	// Proportional spreads a charge by each participant's item subtotal.
	Proportional DistributionMode = "proportional"

	// Equal spreads a charge evenly across all participants.
	Equal DistributionMode = "equal"
)

// ParseDistributionMode maps a wire value to a DistributionMode.
// An empty string means Proportional.
func ParseDistributionMode(s string) (DistributionMode, error) {
	switch DistributionMode(s) {
	case "", Proportional:
		return Proportional, nil
	case Equal:
		return Equal, nil
	default:
		return "", fmt.Errorf("unknown distribution mode %q", s)
	}
}

// DistributionModes selects a mode per charge bucket.
type DistributionModes struct {
	Tax           DistributionMode `json:"tax"`
	ServiceCharge DistributionMode `json:"service_charge"`
	Discount      DistributionMode `json:"discount"`
}

// PersonItem is one participant's share of one item.
type PersonItem struct {
	ItemIndex   int             `json:"item_index"`
	Name        string          `json:"name"`
	ShareRatio  decimal.Decimal `json:"share_ratio"`
	ShareAmount decimal.Decimal `json:"share_amount"`

	// SharedWith names the other participants on the item.
	// Empty when the participant has the item alone.
	SharedWith []string `json:"shared_with,omitempty"`
}

// PersonSplit is one participant's calculated share of a bill.
type PersonSplit struct {
	ParticipantID string       `json:"participant_id"`
	Name          string       `json:"name"`
	Items         []PersonItem `json:"items"`

	// Subtotal is the sum of this participant's rounded item shares.
	Subtotal decimal.Decimal `json:"subtotal"`

	TaxShare           decimal.Decimal `json:"tax_share"`
	ServiceChargeShare decimal.Decimal `json:"service_charge_share"`
	DiscountShare      decimal.Decimal `json:"discount_share"`

	// Total is subtotal + tax + service charge - discount, or just the
	// subtotal when the receipt's charges are already included in prices.
	Total decimal.Decimal `json:"total"`
}

// UnassignedItem is a receipt item that no valid assignment covered.
type UnassignedItem struct {
	Index      int             `json:"index"`
	Name       string          `json:"name"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// SplitTotals are the aggregate amounts of a split.
type SplitTotals struct {
	ItemsTotal    decimal.Decimal `json:"items_total"`
	Tax           decimal.Decimal `json:"tax"`
	ServiceCharge decimal.Decimal `json:"service_charge"`
	Discount      decimal.Decimal `json:"discount"`
	GrandTotal    decimal.Decimal `json:"grand_total"`

	// SplitSum is the sum of every participant's Total.
	SplitSum decimal.Decimal `json:"split_sum"`

	// ChargesIncluded is set for tax-inclusive receipts, where charge
	// shares are informational and already part of item prices.
	ChargesIncluded bool `json:"charges_included"`
}

// SplitResult is the output of a split calculation.
type SplitResult struct {
	People          []PersonSplit    `json:"people"`
	Totals          SplitTotals      `json:"totals"`
	UnassignedItems []UnassignedItem `json:"unassigned_items,omitempty"`

	// Warnings are non-fatal problems with the assignments.
	Warnings []string `json:"warnings,omitempty"`

	// ValidationWarning is set when the split sum drifts from the grand total.
	ValidationWarning string `json:"validation_warning,omitempty"`
}

// DebtEdge represents a debt from one participant to another.
type DebtEdge struct {
	From   string          `json:"from"` // Participant who owes
	To     string          `json:"to"`   // Participant who is owed
	Amount decimal.Decimal `json:"amount"`
}
