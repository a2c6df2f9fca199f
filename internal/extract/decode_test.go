package extract

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func amountEq(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

func TestDecodeReceiptUnifiedSchema(t *testing.T) {
	data := []byte(`{
		"receipt_number": "RCP-001",
		"date": "2024-03-01",
		"store": {"name": "Corner Cafe", "address": "1 Main St", "phone": "555-0100"},
		"items": [
			{"name": "Latte", "quantity": 2, "unit_price": 4.5, "total_price": 9.0},
			{"name": " Muffin ", "quantity": "1", "unit_price": "$3.25", "total_price": "$3.25"}
		],
		"subtotal": 12.25,
		"taxes_or_charges": [
			{"name": "GST", "amount": 0.98},
			{"name": "Member Discount", "amount": 1.00}
		],
		"grand_total": "12.23",
		"payment_method": "Visa"
	}`)

	r, err := DecodeReceipt(data)
	require.NoError(t, err)

	assert.Equal(t, "RCP-001", r.ReceiptNumber)
	assert.Equal(t, "Corner Cafe", r.Store.Name)
	assert.Equal(t, "555-0100", r.Store.Phone)
	require.Len(t, r.Items, 2)
	assert.Equal(t, 2, r.Items[0].Quantity)
	amountEq(t, "9", r.Items[0].TotalPrice)
	assert.Equal(t, "Muffin", r.Items[1].Name)
	amountEq(t, "3.25", r.Items[1].UnitPrice)
	amountEq(t, "12.25", r.Subtotal)
	require.Len(t, r.TaxesOrCharges, 2)
	amountEq(t, "0.98", r.TaxesOrCharges[0].Amount)
	amountEq(t, "-1", r.TaxesOrCharges[1].Amount)
	amountEq(t, "12.23", r.GrandTotal)
	assert.Equal(t, "Visa", r.PaymentMethod)
}

func TestDecodeReceiptLegacySchema(t *testing.T) {
	data := []byte("Here is the JSON:\n```json\n" + `{
		"store": "Noodle Bar",
		"items": [
			{"name": "Ramen", "quantity": 1, "unit_price": 12, "total": 12},
			{"name": "Tea", "unit_price": 2, "total": 2}
		],
		"subtotal": "",
		"tax": 1.12,
		"service_charge": "1.40",
		"discount": 0.5,
		"total_amount": 16.02,
		"transaction_id": 998877
	}` + "\n```")

	r, err := DecodeReceipt(data)
	require.NoError(t, err)

	assert.Equal(t, "Noodle Bar", r.Store.Name)
	require.Len(t, r.Items, 2)
	amountEq(t, "12", r.Items[0].TotalPrice)
	assert.Equal(t, 1, r.Items[1].Quantity, "missing quantity defaults to one")
	assert.True(t, r.Subtotal.IsZero())
	require.Len(t, r.TaxesOrCharges, 3)
	assert.Equal(t, "Tax", r.TaxesOrCharges[0].Name)
	assert.Equal(t, "Service Charge", r.TaxesOrCharges[1].Name)
	amountEq(t, "1.40", r.TaxesOrCharges[1].Amount)
	assert.Equal(t, "Discount", r.TaxesOrCharges[2].Name)
	amountEq(t, "-0.5", r.TaxesOrCharges[2].Amount)
	amountEq(t, "16.02", r.GrandTotal)
	assert.Equal(t, "998877", r.TransactionID)
}

func TestDecodeReceiptGrandTotalFallbacks(t *testing.T) {
	tests := []struct {
		name string
		json string
		want string
	}{
		{"grand_total wins", `{"grand_total": 10, "total_amount": 11, "total": 12}`, "10"},
		{"total_amount next", `{"grand_total": null, "total_amount": 11, "total": 12}`, "11"},
		{"total last", `{"total": "12.00"}`, "12"},
		{"missing", `{"items": []}`, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := DecodeReceipt([]byte(tt.json))
			require.NoError(t, err)
			amountEq(t, tt.want, r.GrandTotal)
		})
	}
}

func TestDecodeReceiptQuantity(t *testing.T) {
	tests := []struct {
		name     string
		quantity string
		want     int
	}{
		{"integer", `3`, 3},
		{"string", `"4"`, 4},
		{"at limit", `1000`, 1000},
		{"missing", `null`, 1},
		{"fractional", `2.5`, 1},
		{"zero", `0`, 1},
		{"negative", `-2`, 1},
		{"over limit", `3000000`, 1},
		{"exponent overflows int64", `1e19`, 1},
		{"exponent within range", `2e1`, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := []byte(`{"items": [{"name": "Tea", "quantity": ` + tt.quantity + `, "unit_price": 1, "total_price": 1}], "grand_total": 1}`)
			r, err := DecodeReceipt(data)
			require.NoError(t, err)
			require.Len(t, r.Items, 1)
			assert.Equal(t, tt.want, r.Items[0].Quantity)
		})
	}
}

func TestDecodeReceiptMalformed(t *testing.T) {
	for _, in := range []string{"", "no json here", `{"items": [}`} {
		_, err := DecodeReceipt([]byte(in))
		assert.ErrorIs(t, err, ErrMalformedResponse, in)
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"12.50", "12.50", true},
		{"$1,234.50", "1234.50", true},
		{"RM 12.00", "12.00", true},
		{"12,50", "12.50", true},
		{"1,234", "1234", true},
		{"-$5.00", "-5.00", true},
		{"(3.00)", "-3.00", true},
		{"2 pcs", "2", true},
		{"", "0", false},
		{"n/a", "0", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseAmount(tt.in)
			assert.Equal(t, tt.ok, ok)
			amountEq(t, tt.want, got)
		})
	}
}
