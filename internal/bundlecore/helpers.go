package bundlecore

import (
	"math/big"
)

var gwei = big.NewInt(1_000_000_000)

func GweiToWei(g int64) *big.Int {
	x := new(big.Int).SetInt64(g)
	return x.Mul(x, gwei)
}

// FormatGwei renders wei as gwei with two decimals.
func FormatGwei(x *big.Int) string { return fmtGwei(x) }

func fmtGwei(x *big.Int) string {
	if x == nil {
		return "0"
	}
	r := new(big.Rat).SetFrac(new(big.Int).Set(x), gwei)
	return r.FloatString(2)
}
