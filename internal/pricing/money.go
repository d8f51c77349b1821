package pricing

import (
	"fmt"
	"math"
	"strconv"
)

// Amount is a price in minor currency units (piastres, cents).
type Amount int64

// Major renders the amount in major units with two decimals.
func (a Amount) Major() string {
	sign := ""
	v := int64(a)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// FromMajor converts a whole major-unit price into minor units.
func FromMajor(major int64) Amount {
	return Amount(major * 100)
}

// Percent is a percentage expressed in hundredths of a percent, so 12.5% is 1250.
type Percent int64

// PercentOf builds a Percent from a whole percentage.
func PercentOf(whole int64) Percent {
	return Percent(whole * 100)
}

// ParsePercent converts a stored decimal percentage into a Percent, rounding to
// the nearest hundredth. Values outside 0..100 are configuration errors.
func ParsePercent(v float64) (Percent, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v > 100 {
		return 0, newConfigurationError("percentage", strconv.FormatFloat(v, 'f', -1, 64), "percentage must be between 0 and 100")
	}
	return Percent(math.Round(v * 100)), nil
}

func (p Percent) String() string {
	return fmt.Sprintf("%d.%02d%%", int64(p)/100, int64(p)%100)
}

// Of returns round(a × p / 100) to the nearest minor unit, half away from zero.
func (p Percent) Of(a Amount) (Amount, error) {
	return mulDivRound(a, int64(p), 10000)
}

// centiSquareMeters converts an area into hundredths of a square meter.
func centiSquareMeters(area float64) int64 {
	return int64(math.Round(area * 100))
}

// mulDivRound computes round(a × num / den) with overflow detection.
func mulDivRound(a Amount, num, den int64) (Amount, error) {
	if den <= 0 {
		return 0, newInvariantError(fmt.Sprintf("non-positive divisor %d", den))
	}
	x := int64(a)
	if x != 0 && num != 0 {
		if (x*num)/num != x {
			return 0, newInvariantError(fmt.Sprintf("overflow multiplying %d by %d", x, num))
		}
	}
	prod := x * num
	q := prod / den
	r := prod % den
	if r < 0 {
		r = -r
	}
	if 2*r >= den {
		if prod < 0 {
			q--
		} else {
			q++
		}
	}
	return Amount(q), nil
}

func addAmounts(a, b Amount) (Amount, error) {
	s := a + b
	if (b > 0 && s < a) || (b < 0 && s > a) {
		return 0, newInvariantError(fmt.Sprintf("overflow adding %d and %d", a, b))
	}
	return s, nil
}

func maxAmount(a, b Amount) Amount {
	if a > b {
		return a
	}
	return b
}
