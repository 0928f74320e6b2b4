package costbenefit

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
)

// DescribeROI summarizes rounded upfront cost against savings by the target
// year.
func DescribeROI(upfront, savings float64, targetYear int) string {
	if upfront == 0 {
		return NoCostROI
	}
	net := savings - upfront
	if net > 0 {
		return fmt.Sprintf(
			"Investing approximately $%s in recommended measures could lead to estimated long-term savings of $%s by %d, resulting in a net benefit of $%s.",
			money(upfront), money(savings), targetYear, money(net))
	}
	return fmt.Sprintf(
		"The estimated upfront cost is $%s. Long-term savings are projected at $%s by %d, so the initial investment outweighs them, resulting in a net cost of $%s.",
		money(upfront), money(savings), targetYear, money(-net))
}

// money formats whole amounts with thousands separators and keeps up to two
// decimals otherwise. Values are rounded to cents first.
func money(v float64) string {
	v = math.Round(v*100) / 100
	if v == math.Trunc(v) {
		return humanize.Comma(int64(v))
	}
	return humanize.CommafWithDigits(v, 2)
}

func percent(fraction float64) string {
	return fmt.Sprintf("%.1f%%", fraction*100)
}
