package treasury

import "github.com/shopspring/decimal"

// BillTermDays is the maturity of a 13-week bill.
const BillTermDays = 91

var (
	daysPerYear = decimal.NewFromInt(360)
	faceValue   = decimal.NewFromInt(100)
)

// DiscountRate converts an auction price per 100 face into the bank discount
// rate d = 360 * (1 - P/F) / M, returned as a fraction.
func DiscountRate(pricePer100 decimal.Decimal, maturityDays int) decimal.Decimal {
	return daysPerYear.Mul(decimal.NewFromInt(1).Sub(pricePer100.Div(faceValue))).
		Div(decimal.NewFromInt(int64(maturityDays)))
}
