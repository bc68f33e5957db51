package backtest

import "fmt"

// Percent is a ratio expressed in percent: 5.25 renders as "5.25%".
type Percent float64

// PercentOf converts a plain ratio (0.0525) into a Percent (5.25).
func PercentOf(ratio float64) Percent { return Percent(ratio * 100) }

func (p Percent) Equal(q Percent) bool {
	// it has to be compared with some precision
	const precision = 0.0001
	diff := p - q
	if diff < 0 {
		diff = -diff
	}
	return diff < precision
}

func (p Percent) String() string {
	return fmt.Sprintf("%.2f%%", float64(p))
}

func (p Percent) SignedString() string {
	res := fmt.Sprintf("%+.2f%%", float64(p))
	if res == "+0.00%" {
		return "-"
	}
	return res
}
