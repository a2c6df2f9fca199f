package calculator

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/GeorgePPP/bill-splitter/internal/models"
)

var ErrUnknownPayer = errors.New("payer is not a participant")

var cent = decimal.New(1, -2)

// SettleUp returns who owes the payer what once payerID has paid the whole
// bill. Amounts below one cent are dropped.
func SettleUp(result *models.SplitResult, payerID string) ([]models.DebtEdge, error) {
	if result == nil {
		return nil, ErrNoReceipt
	}
	return SettleContributions(result, map[string]decimal.Decimal{
		payerID: result.Totals.SplitSum,
	})
}

// SettleContributions settles a split where several participants paid part
// of the bill. paid maps participant ID to the amount that participant put in.
//
// Algorithm:
// - net balance = paid - split total, per participant
// - debtors (net < 0) are matched greedily against creditors (net > 0) in
//   participant order until both sides are settled
func SettleContributions(result *models.SplitResult, paid map[string]decimal.Decimal) ([]models.DebtEdge, error) {
	if result == nil {
		return nil, ErrNoReceipt
	}

	net := make(map[string]decimal.Decimal, len(result.People))
	for _, p := range result.People {
		net[p.ParticipantID] = p.Total.Neg()
	}
	for id, amount := range paid {
		if _, ok := net[id]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownPayer, id)
		}
		net[id] = net[id].Add(amount)
	}

	// Create lists of creditors (owed money) and debtors (owe money)
	var creditors, debtors []string
	for _, p := range result.People {
		switch n := net[p.ParticipantID]; {
		case n.IsPositive():
			creditors = append(creditors, p.ParticipantID)
		case n.IsNegative():
			debtors = append(debtors, p.ParticipantID)
			net[p.ParticipantID] = n.Neg()
		}
	}

	var edges []models.DebtEdge
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		debtor, creditor := debtors[i], creditors[j]

		// Amount to settle is minimum of what debtor owes and creditor is owed
		amount := decimal.Min(net[debtor], net[creditor])
		if amount.GreaterThanOrEqual(cent) {
			edges = append(edges, models.DebtEdge{
				From:   debtor,
				To:     creditor,
				Amount: amount.Round(2),
			})
		}

		net[debtor] = net[debtor].Sub(amount)
		net[creditor] = net[creditor].Sub(amount)

		if net[debtor].LessThan(cent) {
			i++
		}
		if net[creditor].LessThan(cent) {
			j++
		}
	}

	return edges, nil
}
