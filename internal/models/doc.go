// Package models defines the domain records shared by the receipt pipeline.
//
// # Pipeline
//
// Records flow through three pure stages and are never mutated in place:
//   - RawReceipt: the untrusted guess produced by OCR + LLM extraction
//   - ValidatedReceipt: the reconciled receipt with a resolved subtotal and
//     tax scenario
//   - SplitResult: per-participant amounts derived from a ValidatedReceipt
//     and the caller's item assignments
//
// # Money
//
// All amounts are decimal.Decimal. They serialize as JSON numbers, not
// strings, so API payloads stay readable by plain JSON clients.
//
// # Storage records
//
// Receipt, SplitRecord and Session wrap the pipeline records with the IDs and
// timestamps the storage layer assigns. The core packages never see them.
package models

import "github.com/shopspring/decimal"

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}
