// Package primality holds the demo workload the ppool command feeds
// through the pool: stateless primality checks of unsigned integers.
package primality

import (
	"math/bits"
)

// Method selects the primality algorithm.
type Method string

const (
	TrialDivision Method = "trial"
	MillerRabin   Method = "miller-rabin"
)

// Valid reports whether m names a known method.
func (m Method) Valid() bool {
	return m == TrialDivision || m == MillerRabin
}

// IsPrime tests n with the given method. Unknown methods use Miller-Rabin.
func IsPrime(n uint64, m Method) bool {
	if m == TrialDivision {
		return trialDivision(n)
	}
	return millerRabin(n)
}

// trialDivision checks 2, 3 and then candidates of the form 6k±1.
func trialDivision(n uint64) bool {
	if n == 2 || n == 3 {
		return true
	}
	if n < 2 || n%2 == 0 || n%3 == 0 {
		return false
	}
	for i := uint64(5); i <= n/i; i += 6 {
		if n%i == 0 || n%(i+2) == 0 {
			return false
		}
	}
	return true
}

// mrBases is a deterministic witness set for every n < 2^64.
var mrBases = [...]uint64{2, 3, 5, 7, 11, 13, 17, 19, 23, 29, 31, 37}

func millerRabin(n uint64) bool {
	if n < 2 {
		return false
	}
	for _, p := range mrBases {
		if n%p == 0 {
			return n == p
		}
	}

	d := n - 1
	s := bits.TrailingZeros64(d)
	d >>= uint(s)

next:
	for _, a := range mrBases {
		x := powMod(a, d, n)
		if x == 1 || x == n-1 {
			continue
		}
		for r := 1; r < s; r++ {
			x = mulMod(x, x, n)
			if x == n-1 {
				continue next
			}
		}
		return false
	}
	return true
}

func mulMod(a, b, m uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	_, rem := bits.Div64(hi%m, lo, m)
	return rem
}

// powMod computes base^exp mod m by square-and-multiply.
func powMod(base, exp, m uint64) uint64 {
	result := uint64(1)
	base %= m
	for exp > 0 {
		if exp&1 == 1 {
			result = mulMod(result, base, m)
		}
		base = mulMod(base, base, m)
		exp >>= 1
	}
	return result
}
