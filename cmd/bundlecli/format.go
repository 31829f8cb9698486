package main

import (
	"math/big"
)

func formatEther(v *big.Int) string {
	if v == nil {
		return "0"
	}
	s := new(big.Rat).SetFrac(v, big.NewInt(1_000_000_000_000_000_000))
	return s.FloatString(6)
}

// formatUnits renders base units of a token with the given decimals.
func formatUnits(v *big.Int, decimals int) string {
	if v == nil {
		return "0"
	}
	den := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	return new(big.Rat).SetFrac(v, den).FloatString(decimals)
}
