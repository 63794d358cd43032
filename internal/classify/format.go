package classify

import (
	"math"
	"math/big"
	"strconv"
)

// Fixed formats v with the given number of decimals. Exact ties round away
// from zero, so 0.25 becomes "0.3" and -0.25 becomes "-0.3".
func Fixed(v float64, digits int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', digits, 64)
	}
	scale := math.Pow10(digits)
	if isTie(v, scale) {
		v += math.Copysign(0.5/scale, v)
	}
	return strconv.FormatFloat(v, 'f', digits, 64)
}

// isTie reports whether v*scale sits exactly halfway between two integers.
func isTie(v, scale float64) bool {
	f := new(big.Float).SetPrec(256).SetFloat64(v)
	f.Mul(f, new(big.Float).SetPrec(256).SetFloat64(scale*2))
	if !f.IsInt() {
		return false
	}
	n, _ := f.Int(nil)
	return n.Bit(0) == 1
}
