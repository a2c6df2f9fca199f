package calculator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/GeorgePPP/bill-splitter/internal/models"
)

var (
	ErrNoParticipants = errors.New("must have at least one participant")
	ErrNoReceipt      = errors.New("a validated receipt is required")
)

// SplitTolerance is the drift between the split sum and the grand total
// above which a validation warning is attached to the result.
var SplitTolerance = decimal.New(5, -2)

// Bucket is the aggregate a charge line is totalled into.
type Bucket int

const (
	BucketTax Bucket = iota
	BucketServiceCharge
	BucketDiscount
)

func (b Bucket) String() string {
	switch b {
	case BucketServiceCharge:
		return "service_charge"
	case BucketDiscount:
		return "discount"
	default:
		return "tax"
	}
}

// Classify buckets a charge line: negative amounts are discounts, names
// mentioning "service" or "svc" are service charges, everything else is tax.
func Classify(c models.ChargeLine) Bucket {
	if c.Amount.IsNegative() {
		return BucketDiscount
	}
	name := strings.ToLower(c.Name)
	if strings.Contains(name, "service") || strings.Contains(name, "svc") {
		return BucketServiceCharge
	}
	return BucketTax
}

// bucketTotals sums charge lines per bucket. Discounts are returned positive.
func bucketTotals(charges []models.ChargeLine) (tax, service, discount decimal.Decimal) {
	for _, c := range charges {
		switch Classify(c) {
		case BucketDiscount:
			discount = discount.Add(c.Amount.Abs())
		case BucketServiceCharge:
			service = service.Add(c.Amount)
		default:
			tax = tax.Add(c.Amount)
		}
	}
	return tax, service, discount
}

// Allocate splits a validated receipt across participants.
//
// Item costs go to the participants they are assigned to, using custom share
// weights when given and an equal split otherwise. Tax, service charge and
// discount are then spread per the selected DistributionModes, either by
// each participant's item subtotal or evenly.
//
// Invalid assignments never fail the calculation; they are skipped and
// reported in SplitResult.Warnings. Items nobody is assigned to are listed in
// SplitResult.UnassignedItems and left out of every subtotal.
func Allocate(receipt *models.ValidatedReceipt, participants []models.Participant, assignments []models.ItemAssignment, modes models.DistributionModes) (*models.SplitResult, error) {
	if receipt == nil {
		return nil, ErrNoReceipt
	}
	if len(participants) == 0 {
		return nil, ErrNoParticipants
	}

	result := &models.SplitResult{}
	warn := func(format string, args ...any) {
		result.Warnings = append(result.Warnings, fmt.Sprintf(format, args...))
	}

	// Initialize splits for all participants, in input order
	var order []string
	people := make(map[string]*models.PersonSplit)
	for _, p := range participants {
		if _, exists := people[p.ID]; exists {
			warn("duplicate participant %q ignored", p.ID)
			continue
		}
		order = append(order, p.ID)
		people[p.ID] = &models.PersonSplit{
			ParticipantID: p.ID,
			Name:          p.Name,
			Items:         []models.PersonItem{},
		}
	}

	// Assign item costs
	covered := make(map[int]bool)
	for _, a := range assignments {
		if a.ItemIndex < 0 || a.ItemIndex >= len(receipt.Items) {
			warn("invalid item index %d", a.ItemIndex)
			continue
		}
		item := receipt.Items[a.ItemIndex]
		if covered[a.ItemIndex] {
			warn("item %d (%s) is assigned more than once; later assignment ignored", a.ItemIndex, item.Name)
			continue
		}

		valid := validParticipants(a.ParticipantIDs, people, func(id string) {
			warn("unknown participant %q on item %d (%s)", id, a.ItemIndex, item.Name)
		})
		if len(valid) == 0 {
			warn("no valid participants for item %d (%s)", a.ItemIndex, item.Name)
			continue
		}
		covered[a.ItemIndex] = true

		ratios := shareRatios(valid, a.Shares)
		for _, id := range valid {
			p := people[id]
			amount := item.TotalPrice.Mul(ratios[id]).Round(2)

			var sharedWith []string
			if len(valid) > 1 {
				for _, other := range valid {
					if other != id {
						sharedWith = append(sharedWith, people[other].Name)
					}
				}
			}

			p.Items = append(p.Items, models.PersonItem{
				ItemIndex:   a.ItemIndex,
				Name:        item.Name,
				ShareRatio:  ratios[id],
				ShareAmount: amount,
				SharedWith:  sharedWith,
			})
			p.Subtotal = p.Subtotal.Add(amount)
		}
	}

	for i, item := range receipt.Items {
		if !covered[i] {
			result.UnassignedItems = append(result.UnassignedItems, models.UnassignedItem{
				Index:      i,
				Name:       item.Name,
				TotalPrice: item.TotalPrice,
			})
		}
	}
	if len(result.UnassignedItems) > 0 {
		warn("%d item(s) were not assigned to anyone and are excluded from the split", len(result.UnassignedItems))
	}

	tax, service, discount := bucketTotals(receipt.Charges)
	result.Totals = models.SplitTotals{
		ItemsTotal:      receipt.ItemsTotal,
		Tax:             tax,
		ServiceCharge:   service,
		Discount:        discount,
		GrandTotal:      receipt.GrandTotal,
		ChargesIncluded: receipt.Scenario == models.TaxInclusive,
	}

	// Distribute charges
	n := decimal.NewFromInt(int64(len(order)))
	sumSubtotals := decimal.Zero
	for _, id := range order {
		sumSubtotals = sumSubtotals.Add(people[id].Subtotal)
	}

	splitSum := decimal.Zero
	for _, id := range order {
		p := people[id]

		proportion := decimal.NewFromInt(1).Div(n)
		if sumSubtotals.IsPositive() {
			proportion = p.Subtotal.Div(sumSubtotals)
		}

		p.Subtotal = p.Subtotal.Round(2)
		p.TaxShare = distribute(tax, modes.Tax, proportion, n)
		p.ServiceChargeShare = distribute(service, modes.ServiceCharge, proportion, n)
		p.DiscountShare = distribute(discount, modes.Discount, proportion, n)

		if result.Totals.ChargesIncluded {
			p.Total = p.Subtotal
		} else {
			p.Total = p.Subtotal.Add(p.TaxShare).Add(p.ServiceChargeShare).Sub(p.DiscountShare)
		}

		splitSum = splitSum.Add(p.Total)
		result.People = append(result.People, *p)
	}
	result.Totals.SplitSum = splitSum

	// Validate split
	drift := splitSum.Sub(receipt.GrandTotal).Abs()
	if drift.GreaterThan(SplitTolerance) {
		result.ValidationWarning = fmt.Sprintf(
			"split total %s differs from receipt total %s by %s",
			splitSum.StringFixed(2), receipt.GrandTotal.StringFixed(2), drift.StringFixed(2),
		)
	}

	return result, nil
}

// validParticipants returns the known, de-duplicated ids in listed order,
// calling unknown for each id that is not a participant.
func validParticipants(ids []string, people map[string]*models.PersonSplit, unknown func(string)) []string {
	seen := make(map[string]bool, len(ids))
	var valid []string
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if _, ok := people[id]; !ok {
			unknown(id)
			continue
		}
		valid = append(valid, id)
	}
	return valid
}

// shareRatios normalizes custom weights over ids so they sum to 1.
// Negative and missing weights count as zero; when no weight is positive the
// item is split equally.
func shareRatios(ids []string, shares map[string]decimal.Decimal) map[string]decimal.Decimal {
	ratios := make(map[string]decimal.Decimal, len(ids))

	total := decimal.Zero
	for _, id := range ids {
		total = total.Add(decimal.Max(shares[id], decimal.Zero))
	}

	if len(shares) == 0 || !total.IsPositive() {
		equal := decimal.NewFromInt(1).Div(decimal.NewFromInt(int64(len(ids))))
		for _, id := range ids {
			ratios[id] = equal
		}
		return ratios
	}

	for _, id := range ids {
		ratios[id] = decimal.Max(shares[id], decimal.Zero).Div(total)
	}
	return ratios
}

func distribute(amount decimal.Decimal, mode models.DistributionMode, proportion, n decimal.Decimal) decimal.Decimal {
	if mode == models.Equal {
		return amount.Div(n).Round(2)
	}
	return amount.Mul(proportion).Round(2)
}
