package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/GeorgePPP/bill-splitter/internal/models"
)

// DecodeReceipt parses an extractor's JSON into a RawReceipt.
//
// Both field naming generations are accepted: "total" or "total_price" on
// items, "grand_total", "total_amount" or "total" for the grand total, and
// either a unified "taxes_or_charges" list or the flat "tax",
// "service_charge" and "discount" fields. Numbers may be JSON numbers or
// strings carrying currency symbols and thousands separators. Surrounding
// prose or markdown code fences are ignored.
func DecodeReceipt(data []byte) (*models.RawReceipt, error) {
	body := extractJSON(data)
	if body == nil {
		return nil, fmt.Errorf("%w: no JSON object found", ErrMalformedResponse)
	}

	var w wireReceipt
	if err := json.Unmarshal(body, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return w.toModel(), nil
}

// extractJSON returns the outermost {...} span in data.
func extractJSON(data []byte) []byte {
	start := bytes.IndexByte(data, '{')
	end := bytes.LastIndexByte(data, '}')
	if start < 0 || end <= start {
		return nil
	}
	return data[start : end+1]
}

type wireReceipt struct {
	ReceiptNumber flexString   `json:"receipt_number"`
	Date          flexString   `json:"date"`
	Time          flexString   `json:"time"`
	Store         wireStore    `json:"store"`
	Items         []wireItem   `json:"items"`
	Subtotal      flexNumber   `json:"subtotal"`
	Charges       []wireCharge `json:"taxes_or_charges"`

	// Legacy flat charge fields
	Tax           flexNumber `json:"tax"`
	ServiceCharge flexNumber `json:"service_charge"`
	Discount      flexNumber `json:"discount"`

	GrandTotal  flexNumber `json:"grand_total"`
	TotalAmount flexNumber `json:"total_amount"`
	Total       flexNumber `json:"total"`

	PaymentMethod flexString `json:"payment_method"`
	TransactionID flexString `json:"transaction_id"`
	Notes         flexString `json:"notes"`
}

type wireItem struct {
	Name       flexString `json:"name"`
	Quantity   flexNumber `json:"quantity"`
	UnitPrice  flexNumber `json:"unit_price"`
	TotalPrice flexNumber `json:"total_price"`
	Total      flexNumber `json:"total"`
}

type wireCharge struct {
	Name   flexString `json:"name"`
	Amount flexNumber `json:"amount"`
}

var maxQuantity = decimal.NewFromInt(models.MaxQuantity)

// decodeQuantity returns the item quantity, or 1 when it is missing,
// fractional or outside 1..models.MaxQuantity.
func decodeQuantity(n flexNumber) int {
	if !n.set {
		return 1
	}
	if !n.IsInteger() || n.LessThan(decimal.NewFromInt(1)) || n.GreaterThan(maxQuantity) {
		slog.Warn("Ignoring implausible item quantity", "quantity", n.String())
		return 1
	}
	return int(n.IntPart())
}

func (w wireReceipt) toModel() *models.RawReceipt {
	r := &models.RawReceipt{
		ReceiptNumber: string(w.ReceiptNumber),
		Date:          string(w.Date),
		Time:          string(w.Time),
		Store:         models.StoreInfo(w.Store),
		Items:         make([]models.ReceiptItem, 0, len(w.Items)),
		Subtotal:      w.Subtotal.Decimal,
		GrandTotal:    firstSet(w.GrandTotal, w.TotalAmount, w.Total),
		PaymentMethod: string(w.PaymentMethod),
		TransactionID: string(w.TransactionID),
		Notes:         string(w.Notes),
	}

	for _, it := range w.Items {
		qty := decodeQuantity(it.Quantity)
		r.Items = append(r.Items, models.ReceiptItem{
			Name:       strings.TrimSpace(string(it.Name)),
			Quantity:   qty,
			UnitPrice:  it.UnitPrice.Decimal,
			TotalPrice: firstSet(it.TotalPrice, it.Total),
		})
	}

	if w.Charges != nil {
		r.TaxesOrCharges = make([]models.ChargeLine, 0, len(w.Charges))
		for _, c := range w.Charges {
			amount := c.Amount.Decimal
			name := strings.TrimSpace(string(c.Name))
			if amount.IsPositive() && strings.Contains(strings.ToLower(name), "discount") {
				amount = amount.Neg()
			}
			r.TaxesOrCharges = append(r.TaxesOrCharges, models.ChargeLine{Name: name, Amount: amount})
		}
		return r
	}

	r.TaxesOrCharges = []models.ChargeLine{}
	if !w.Tax.IsZero() {
		r.TaxesOrCharges = append(r.TaxesOrCharges, models.ChargeLine{Name: "Tax", Amount: w.Tax.Decimal})
	}
	if !w.ServiceCharge.IsZero() {
		r.TaxesOrCharges = append(r.TaxesOrCharges, models.ChargeLine{Name: "Service Charge", Amount: w.ServiceCharge.Decimal})
	}
	if !w.Discount.IsZero() {
		r.TaxesOrCharges = append(r.TaxesOrCharges, models.ChargeLine{Name: "Discount", Amount: w.Discount.Abs().Neg()})
	}
	return r
}

// firstSet returns the first non-zero value, or zero.
func firstSet(values ...flexNumber) decimal.Decimal {
	for _, v := range values {
		if v.set && !v.IsZero() {
			return v.Decimal
		}
	}
	return decimal.Zero
}

// wireStore accepts either an object or a bare store name.
type wireStore models.StoreInfo

func (s *wireStore) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		s.Name = name
		return nil
	}
	var obj struct {
		Name    flexString `json:"name"`
		Address flexString `json:"address"`
		Phone   flexString `json:"phone"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil
	}
	*s = wireStore{Name: string(obj.Name), Address: string(obj.Address), Phone: string(obj.Phone)}
	return nil
}

// flexString accepts strings, numbers and null.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	*s = flexString(data)
	return nil
}

// flexNumber accepts JSON numbers, numeric strings with currency symbols or
// separators, and null. Unparseable values decode as zero.
type flexNumber struct {
	decimal.Decimal
	set bool
}

func (n *flexNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	raw := string(data)
	if data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil
		}
	} else if d, err := decimal.NewFromString(raw); err == nil {
		n.Decimal = d
		n.set = true
		return nil
	}
	if d, ok := ParseAmount(raw); ok {
		n.Decimal = d
		n.set = true
	}
	return nil
}

// ParseAmount parses a money string such as "$1,234.50", "RM 12.00",
// "12,50" or "(3.00)". Parenthesized amounts are negative.
func ParseAmount(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',':
			b.WriteRune(r)
		case r == '-' && b.Len() == 0:
			negative = !negative
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return decimal.Zero, false
	}

	// A lone comma followed by exactly two digits is a decimal comma.
	if !strings.Contains(cleaned, ".") {
		if i := strings.LastIndexByte(cleaned, ','); i >= 0 && len(cleaned)-i-1 == 2 && strings.Count(cleaned, ",") == 1 {
			cleaned = cleaned[:i] + "." + cleaned[i+1:]
		}
	}
	cleaned = strings.ReplaceAll(cleaned, ",", "")

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}
