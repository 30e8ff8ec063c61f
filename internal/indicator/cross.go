package indicator

import "math"

// Crossover directions.
const (
	CrossNone = 0
	CrossUp   = 1
	CrossDown = -1
)

// CrossAt reports a crossover of series a over series b at index i, using
// inclusive semantics on the current bar: an exact touch after being on the
// other side counts as a cross.
func CrossAt(a, b []float64, i int) int {
	if i <= 0 || i >= len(a) || i >= len(b) {
		return CrossNone
	}
	if anyNaN(a[i], a[i-1], b[i], b[i-1]) {
		return CrossNone
	}
	if a[i-1] < b[i-1] && a[i] >= b[i] {
		return CrossUp
	}
	if a[i-1] > b[i-1] && a[i] <= b[i] {
		return CrossDown
	}
	return CrossNone
}

// StrictCrossAt uses the opposite convention: equality on the previous bar
// may start the cross, but the current bar must be strictly beyond.
func StrictCrossAt(a, b []float64, i int) int {
	if i <= 0 || i >= len(a) || i >= len(b) {
		return CrossNone
	}
	if anyNaN(a[i], a[i-1], b[i], b[i-1]) {
		return CrossNone
	}
	if a[i-1] <= b[i-1] && a[i] > b[i] {
		return CrossUp
	}
	if a[i-1] >= b[i-1] && a[i] < b[i] {
		return CrossDown
	}
	return CrossNone
}

// RecentCross finds the most recent crossover within the last `window` bars
// (the last bar included).
func RecentCross(a, b []float64, window int) (idx, dir int) {
	n := len(a)
	start := n - window
	if start < 1 {
		start = 1
	}
	for i := n - 1; i >= start; i-- {
		if d := CrossAt(a, b, i); d != CrossNone {
			return i, d
		}
	}
	return -1, CrossNone
}

// HasRecentStrictCross reports whether a strict crossover in the given
// direction happened within the last `window` bars.
func HasRecentStrictCross(a, b []float64, dir, window int) bool {
	n := len(a)
	for back := 0; back < window && n-1-back >= 1; back++ {
		i := n - 1 - back
		if StrictCrossAt(a, b, i) == dir {
			return true
		}
	}
	return false
}

func anyNaN(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}
