package primality

import "testing"

func TestKnownValues(t *testing.T) {
	tests := []struct {
		n    uint64
		want bool
	}{
		{0, false},
		{1, false},
		{2, true},
		{3, true},
		{4, false},
		{25, false},
		{97, true},
		{561, false}, // Carmichael
		{7919, true},
		{1_000_000_007, true},
		{1_000_000_007 * 3, false},
	}
	for _, m := range []Method{TrialDivision, MillerRabin} {
		for _, tc := range tests {
			if got := IsPrime(tc.n, m); got != tc.want {
				t.Errorf("IsPrime(%d, %s) = %v; want %v", tc.n, m, got, tc.want)
			}
		}
	}
}

func TestMethodsAgree(t *testing.T) {
	for n := uint64(0); n < 20_000; n++ {
		if a, b := trialDivision(n), millerRabin(n); a != b {
			t.Fatalf("n=%d: trial=%v miller-rabin=%v", n, a, b)
		}
	}
}

func TestLargeMillerRabin(t *testing.T) {
	const largestPrime64 = 18446744073709551557 // 2^64 - 59
	if !IsPrime(largestPrime64, MillerRabin) {
		t.Fatal("2^64-59 should be prime")
	}
	if IsPrime(largestPrime64-2, MillerRabin) {
		t.Fatal("2^64-61 should be composite")
	}
}

func TestMethodValid(t *testing.T) {
	if !TrialDivision.Valid() || !MillerRabin.Valid() || Method("sieve").Valid() {
		t.Fatal("unexpected Method.Valid result")
	}
}
