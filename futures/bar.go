package futures

import (
	"cloud.google.com/go/civil"

	"github.com/meenmo/spvix/marketdata/cboe"
)

// Bar is one end-of-day row of a VIX futures contract.
type Bar struct {
	Date          civil.Date
	ContractMonth cboe.ContractMonth
	Open          float64
	High          float64
	Low           float64
	Close         float64
	Settle        float64
	Change        float64
	Volume        int64
	EFP           int64
	OpenInterest  int64
}

// Unlisted reports whether the row is the exchange's placeholder for a
// contract that did not trade yet: every price, volume and interest field is
// exactly zero.
func (b Bar) Unlisted() bool {
	return b.Open == 0 && b.High == 0 && b.Low == 0 && b.Close == 0 && b.Settle == 0 &&
		b.Volume == 0 && b.EFP == 0 && b.OpenInterest == 0
}
