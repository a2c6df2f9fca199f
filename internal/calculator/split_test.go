package calculator

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/GeorgePPP/bill-splitter/internal/models"
	"github.com/GeorgePPP/bill-splitter/internal/receipt"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func checkAmount(t *testing.T, label string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(d(want)) {
		t.Errorf("%s = %s, want %s", label, got.String(), want)
	}
}

func unitItem(name, total string) models.ReceiptItem {
	return models.ReceiptItem{Name: name, Quantity: 1, UnitPrice: d(total), TotalPrice: d(total)}
}

// reconciled builds a validated receipt through the reconciler so tests run
// against the same shape the service produces.
func reconciled(t *testing.T, items []models.ReceiptItem, subtotal string, charges []models.ChargeLine, grandTotal string) *models.ValidatedReceipt {
	t.Helper()
	v, err := receipt.Reconcile(items, d(subtotal), charges, d(grandTotal))
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	return v
}

func people(names ...string) []models.Participant {
	out := make([]models.Participant, len(names))
	for i, n := range names {
		out[i] = models.Participant{ID: strings.ToLower(n), Name: n}
	}
	return out
}

func assign(index int, ids ...string) models.ItemAssignment {
	return models.ItemAssignment{ItemIndex: index, ParticipantIDs: ids}
}

func byID(result *models.SplitResult, id string) models.PersonSplit {
	for _, p := range result.People {
		if p.ParticipantID == id {
			return p
		}
	}
	return models.PersonSplit{}
}

func TestAllocate(t *testing.T) {
	tests := []struct {
		name         string
		receipt      func(t *testing.T) *models.ValidatedReceipt
		participants []models.Participant
		assignments  []models.ItemAssignment
		modes        models.DistributionModes
		wantErr      error
		validateFunc func(t *testing.T, result *models.SplitResult)
	}{
		{
			name: "one item shared equally with proportional tax",
			receipt: func(t *testing.T) *models.ValidatedReceipt {
				return reconciled(t, []models.ReceiptItem{unitItem("Pasta", "10")}, "10",
					[]models.ChargeLine{{Name: "Tax", Amount: d("1")}}, "11")
			},
			participants: people("Alice", "Bob"),
			assignments:  []models.ItemAssignment{assign(0, "alice", "bob")},
			validateFunc: func(t *testing.T, result *models.SplitResult) {
				for _, id := range []string{"alice", "bob"} {
					p := byID(result, id)
					checkAmount(t, id+" subtotal", p.Subtotal, "5.00")
					checkAmount(t, id+" tax", p.TaxShare, "0.50")
					checkAmount(t, id+" total", p.Total, "5.50")
				}
				checkAmount(t, "split sum", result.Totals.SplitSum, "11")
				if result.ValidationWarning != "" {
					t.Errorf("unexpected validation warning: %s", result.ValidationWarning)
				}
			},
		},
		{
			name: "proportional tax follows item subtotals",
			receipt: func(t *testing.T) *models.ValidatedReceipt {
				return reconciled(t, []models.ReceiptItem{unitItem("Pizza", "20"), unitItem("Salad", "10")}, "30",
					[]models.ChargeLine{{Name: "Tax", Amount: d("3")}}, "33")
			},
			participants: people("Alice", "Bob"),
			assignments:  []models.ItemAssignment{assign(0, "alice", "bob"), assign(1, "alice")},
			validateFunc: func(t *testing.T, result *models.SplitResult) {
				// Alice: subtotal = 10 + 10 = 20, tax = 3 * 20/30 = 2, total = 22
				// Bob: subtotal = 10, tax = 1, total = 11
				alice := byID(result, "alice")
				checkAmount(t, "Alice subtotal", alice.Subtotal, "20")
				checkAmount(t, "Alice tax", alice.TaxShare, "2")
				checkAmount(t, "Alice total", alice.Total, "22")
				bob := byID(result, "bob")
				checkAmount(t, "Bob subtotal", bob.Subtotal, "10")
				checkAmount(t, "Bob total", bob.Total, "11")

				if len(alice.Items) != 2 {
					t.Fatalf("Alice items = %d, want 2", len(alice.Items))
				}
				if got := alice.Items[0].SharedWith; len(got) != 1 || got[0] != "Bob" {
					t.Errorf("Alice pizza shared with %v, want [Bob]", got)
				}
				if got := alice.Items[1].SharedWith; len(got) != 0 {
					t.Errorf("Alice salad shared with %v, want none", got)
				}
			},
		},
		{
			name: "equal tax ignores item subtotals",
			receipt: func(t *testing.T) *models.ValidatedReceipt {
				return reconciled(t, []models.ReceiptItem{unitItem("Pizza", "20"), unitItem("Salad", "10")}, "30",
					[]models.ChargeLine{{Name: "Tax", Amount: d("3")}}, "33")
			},
			participants: people("Alice", "Bob"),
			assignments:  []models.ItemAssignment{assign(0, "alice"), assign(1, "bob")},
			modes:        models.DistributionModes{Tax: models.Equal},
			validateFunc: func(t *testing.T, result *models.SplitResult) {
				checkAmount(t, "Alice tax", byID(result, "alice").TaxShare, "1.50")
				checkAmount(t, "Bob tax", byID(result, "bob").TaxShare, "1.50")
				checkAmount(t, "Alice total", byID(result, "alice").Total, "21.50")
				checkAmount(t, "Bob total", byID(result, "bob").Total, "11.50")
			},
		},
		{
			name: "service charge and discount buckets",
			receipt: func(t *testing.T) *models.ValidatedReceipt {
				return reconciled(t, []models.ReceiptItem{unitItem("Steak", "30"), unitItem("Soup", "10")}, "40",
					[]models.ChargeLine{
						{Name: "GST", Amount: d("4")},
						{Name: "Service Charge", Amount: d("4")},
						{Name: "Promo", Amount: d("-8")},
					}, "40")
			},
			participants: people("Alice", "Bob"),
			assignments:  []models.ItemAssignment{assign(0, "alice"), assign(1, "bob")},
			modes:        models.DistributionModes{Discount: models.Equal},
			validateFunc: func(t *testing.T, result *models.SplitResult) {
				checkAmount(t, "tax total", result.Totals.Tax, "4")
				checkAmount(t, "service total", result.Totals.ServiceCharge, "4")
				checkAmount(t, "discount total", result.Totals.Discount, "8")

				alice := byID(result, "alice")
				checkAmount(t, "Alice tax", alice.TaxShare, "3")
				checkAmount(t, "Alice service", alice.ServiceChargeShare, "3")
				checkAmount(t, "Alice discount", alice.DiscountShare, "4")
				checkAmount(t, "Alice total", alice.Total, "32")

				bob := byID(result, "bob")
				checkAmount(t, "Bob total", bob.Total, "8")
				checkAmount(t, "split sum", result.Totals.SplitSum, "40")
			},
		},
		{
			name: "custom shares are normalized",
			receipt: func(t *testing.T) *models.ValidatedReceipt {
				return reconciled(t, []models.ReceiptItem{unitItem("Wine", "9")}, "0", nil, "9")
			},
			participants: people("Alice", "Bob"),
			assignments: []models.ItemAssignment{{
				ItemIndex:      0,
				ParticipantIDs: []string{"alice", "bob"},
				Shares:         map[string]decimal.Decimal{"alice": d("2"), "bob": d("1")},
			}},
			validateFunc: func(t *testing.T, result *models.SplitResult) {
				checkAmount(t, "Alice subtotal", byID(result, "alice").Subtotal, "6")
				checkAmount(t, "Bob subtotal", byID(result, "bob").Subtotal, "3")
			},
		},
		{
			name: "zero custom shares fall back to equal",
			receipt: func(t *testing.T) *models.ValidatedReceipt {
				return reconciled(t, []models.ReceiptItem{unitItem("Wine", "9")}, "0", nil, "9")
			},
			participants: people("Alice", "Bob"),
			assignments: []models.ItemAssignment{{
				ItemIndex:      0,
				ParticipantIDs: []string{"alice", "bob"},
				Shares:         map[string]decimal.Decimal{"alice": d("0"), "bob": d("0")},
			}},
			validateFunc: func(t *testing.T, result *models.SplitResult) {
				checkAmount(t, "Alice subtotal", byID(result, "alice").Subtotal, "4.50")
				checkAmount(t, "Bob subtotal", byID(result, "bob").Subtotal, "4.50")
			},
		},
		{
			name: "negative share counts as zero",
			receipt: func(t *testing.T) *models.ValidatedReceipt {
				return reconciled(t, []models.ReceiptItem{unitItem("Wine", "9")}, "0", nil, "9")
			},
			participants: people("Alice", "Bob"),
			assignments: []models.ItemAssignment{{
				ItemIndex:      0,
				ParticipantIDs: []string{"alice", "bob"},
				Shares:         map[string]decimal.Decimal{"alice": d("-1"), "bob": d("1")},
			}},
			validateFunc: func(t *testing.T, result *models.SplitResult) {
				checkAmount(t, "Alice subtotal", byID(result, "alice").Subtotal, "0")
				checkAmount(t, "Bob subtotal", byID(result, "bob").Subtotal, "9")
			},
		},
		{
			name: "three way split rounds each share",
			receipt: func(t *testing.T) *models.ValidatedReceipt {
				return reconciled(t, []models.ReceiptItem{unitItem("Cake", "10")}, "0", nil, "10")
			},
			participants: people("Alice", "Bob", "Carol"),
			assignments:  []models.ItemAssignment{assign(0, "alice", "bob", "carol")},
			validateFunc: func(t *testing.T, result *models.SplitResult) {
				for _, p := range result.People {
					checkAmount(t, p.Name+" subtotal", p.Subtotal, "3.33")
					if len(p.Items[0].SharedWith) != 2 {
						t.Errorf("%s shared with %v, want two names", p.Name, p.Items[0].SharedWith)
					}
				}
				checkAmount(t, "split sum", result.Totals.SplitSum, "9.99")
				if result.ValidationWarning != "" {
					t.Errorf("drift within tolerance should not warn: %s", result.ValidationWarning)
				}
			},
		},
		{
			name: "invalid assignments become warnings",
			receipt: func(t *testing.T) *models.ValidatedReceipt {
				return reconciled(t, []models.ReceiptItem{unitItem("Pizza", "20"), unitItem("Salad", "10")}, "30", nil, "30")
			},
			participants: people("Alice", "Bob"),
			assignments: []models.ItemAssignment{
				assign(5, "alice"),
				assign(0, "alice", "mallory"),
				assign(1, "mallory"),
			},
			validateFunc: func(t *testing.T, result *models.SplitResult) {
				checkAmount(t, "Alice subtotal", byID(result, "alice").Subtotal, "20")
				if len(result.UnassignedItems) != 1 || result.UnassignedItems[0].Index != 1 {
					t.Fatalf("unassigned = %+v, want salad only", result.UnassignedItems)
				}
				wantWarnings := []string{
					"invalid item index 5",
					`unknown participant "mallory" on item 0`,
					"no valid participants for item 1",
					"1 item(s) were not assigned",
				}
				joined := strings.Join(result.Warnings, "\n")
				for _, w := range wantWarnings {
					if !strings.Contains(joined, w) {
						t.Errorf("warnings missing %q:\n%s", w, joined)
					}
				}
				if result.ValidationWarning == "" {
					t.Error("expected validation warning for unassigned salad")
				}
			},
		},
		{
			name: "no priced items spreads charges equally",
			receipt: func(t *testing.T) *models.ValidatedReceipt {
				return reconciled(t, []models.ReceiptItem{unitItem("Pizza", "30")}, "30",
					[]models.ChargeLine{{Name: "Tax", Amount: d("3")}}, "33")
			},
			participants: people("Alice", "Bob"),
			validateFunc: func(t *testing.T, result *models.SplitResult) {
				checkAmount(t, "Alice tax", byID(result, "alice").TaxShare, "1.50")
				checkAmount(t, "Bob tax", byID(result, "bob").TaxShare, "1.50")
			},
		},
		{
			name: "tax inclusive totals exclude embedded charges",
			receipt: func(t *testing.T) *models.ValidatedReceipt {
				return reconciled(t, []models.ReceiptItem{unitItem("Burger", "11"), unitItem("Fries", "11")}, "0",
					[]models.ChargeLine{{Name: "VAT", Amount: d("2")}}, "22")
			},
			participants: people("Alice", "Bob"),
			assignments:  []models.ItemAssignment{assign(0, "alice"), assign(1, "bob")},
			validateFunc: func(t *testing.T, result *models.SplitResult) {
				if !result.Totals.ChargesIncluded {
					t.Error("ChargesIncluded = false, want true")
				}
				alice := byID(result, "alice")
				checkAmount(t, "Alice tax", alice.TaxShare, "1")
				checkAmount(t, "Alice total", alice.Total, "11")
				checkAmount(t, "split sum", result.Totals.SplitSum, "22")
			},
		},
		{
			name: "duplicates are ignored",
			receipt: func(t *testing.T) *models.ValidatedReceipt {
				return reconciled(t, []models.ReceiptItem{unitItem("Pizza", "20")}, "0", nil, "20")
			},
			participants: append(people("Alice", "Bob"), models.Participant{ID: "alice", Name: "Alice Again"}),
			assignments:  []models.ItemAssignment{assign(0, "alice"), assign(0, "bob")},
			validateFunc: func(t *testing.T, result *models.SplitResult) {
				if len(result.People) != 2 {
					t.Fatalf("people = %d, want 2", len(result.People))
				}
				checkAmount(t, "Alice subtotal", byID(result, "alice").Subtotal, "20")
				checkAmount(t, "Bob subtotal", byID(result, "bob").Subtotal, "0")
				if len(result.Warnings) != 2 {
					t.Errorf("warnings = %v, want 2", result.Warnings)
				}
			},
		},
		{
			name: "results keep participant order",
			receipt: func(t *testing.T) *models.ValidatedReceipt {
				return reconciled(t, []models.ReceiptItem{unitItem("Pizza", "20")}, "0", nil, "20")
			},
			participants: people("Zoe", "Adam", "Mia"),
			assignments:  []models.ItemAssignment{assign(0, "mia")},
			validateFunc: func(t *testing.T, result *models.SplitResult) {
				var got []string
				for _, p := range result.People {
					got = append(got, p.Name)
				}
				if strings.Join(got, ",") != "Zoe,Adam,Mia" {
					t.Errorf("order = %v", got)
				}
			},
		},
		{
			name: "no participants should error",
			receipt: func(t *testing.T) *models.ValidatedReceipt {
				return reconciled(t, []models.ReceiptItem{unitItem("Pizza", "20")}, "0", nil, "20")
			},
			participants: []models.Participant{},
			wantErr:      ErrNoParticipants,
		},
		{
			name:         "nil receipt should error",
			receipt:      func(t *testing.T) *models.ValidatedReceipt { return nil },
			participants: people("Alice"),
			wantErr:      ErrNoReceipt,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Allocate(tt.receipt(t), tt.participants, tt.assignments, tt.modes)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Allocate() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Allocate() unexpected error = %v", err)
			}
			if tt.validateFunc != nil {
				tt.validateFunc(t, result)
			}
		})
	}
}

func TestAllocateConservesGrandTotal(t *testing.T) {
	items := []models.ReceiptItem{
		unitItem("Ramen", "14.90"),
		unitItem("Gyoza", "7.45"),
		unitItem("Edamame", "4.20"),
		unitItem("Beer", "8.00"),
		unitItem("Beer", "8.00"),
	}
	charges := []models.ChargeLine{
		{Name: "Service Charge 10%", Amount: d("4.26")},
		{Name: "GST 9%", Amount: d("4.22")},
	}
	v := reconciled(t, items, "42.55", charges, "51.03")

	modes := []models.DistributionModes{
		{},
		{Tax: models.Equal},
		{Tax: models.Equal, ServiceCharge: models.Equal},
	}
	for _, m := range modes {
		result, err := Allocate(v, people("Ann", "Ben", "Cat"), []models.ItemAssignment{
			assign(0, "ann"),
			assign(1, "ann", "ben", "cat"),
			assign(2, "ben", "cat"),
			assign(3, "ben"),
			assign(4, "cat"),
		}, m)
		if err != nil {
			t.Fatalf("Allocate() error = %v", err)
		}
		drift := result.Totals.SplitSum.Sub(v.GrandTotal).Abs()
		if drift.GreaterThan(SplitTolerance) {
			t.Errorf("modes %+v: split sum %s drifts %s from %s", m, result.Totals.SplitSum, drift, v.GrandTotal)
		}
		if result.ValidationWarning != "" {
			t.Errorf("modes %+v: unexpected validation warning %q", m, result.ValidationWarning)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		line models.ChargeLine
		want Bucket
	}{
		{models.ChargeLine{Name: "GST", Amount: d("1")}, BucketTax},
		{models.ChargeLine{Name: "Service Charge", Amount: d("1")}, BucketServiceCharge},
		{models.ChargeLine{Name: "SVC 10%", Amount: d("1")}, BucketServiceCharge},
		{models.ChargeLine{Name: "Member discount", Amount: d("-1")}, BucketDiscount},
		{models.ChargeLine{Name: "Service refund", Amount: d("-1")}, BucketDiscount},
	}

	for _, tt := range tests {
		if got := Classify(tt.line); got != tt.want {
			t.Errorf("Classify(%q) = %v, want %v", tt.line.Name, got, tt.want)
		}
	}
}
