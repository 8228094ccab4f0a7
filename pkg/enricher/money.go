// pkg/enricher/money.go
package enricher

import (
	"github.com/cockroachdb/apd/v3"
)

// weeksPerMonth is the average number of weeks in a month, used to
// normalize weekly billing to a monthly equivalent.
const weeksPerMonth = "4.33"

// monthlyEquivalent converts a plan price to monthly recurring revenue
// for the given billing cycle, quantized to 2 decimal places with
// half-even rounding. Unrecognized cycles contribute nothing. Decimal
// arithmetic keeps the division exact before the final quantize, so
// yearly 120.00 is exactly 10.00, not a float artifact.
func monthlyEquivalent(price float64, cycle string) float64 {
	var p apd.Decimal
	if _, err := p.SetFloat64(price); err != nil {
		return 0
	}

	ctx := apd.BaseContext.WithPrecision(34)

	var monthly apd.Decimal
	switch cycle {
	case "monthly":
		monthly.Set(&p)
	case "quarterly":
		ctx.Quo(&monthly, &p, apd.New(3, 0))
	case "yearly":
		ctx.Quo(&monthly, &p, apd.New(12, 0))
	case "weekly":
		var weeks apd.Decimal
		weeks.SetString(weeksPerMonth)
		ctx.Mul(&monthly, &p, &weeks)
	default:
		return 0
	}

	var rounded apd.Decimal
	if _, err := ctx.Quantize(&rounded, &monthly, -2); err != nil {
		return 0
	}

	out, err := rounded.Float64()
	if err != nil {
		return 0
	}
	return out
}
