package model

import "github.com/shopspring/decimal"

// Money fields serialize as bare JSON numbers, matching the shapes the
// frontend already consumes.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}
