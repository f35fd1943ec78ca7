// Package prime reports whether a number is prime using trial division.
package prime

import "fmt"

// IsPrime tests n by trial division from 2 up to n/2 inclusive. Any n for which that range is
// empty (n < 4, including zero and negatives) is reported as prime.
func IsPrime(n int64) bool {
	for i := int64(2); i <= n/2; i++ {
		if n%i == 0 {
			return false
		}
	}
	return true
}

// Describe returns the human-readable result for n.
func Describe(n int64) string {
	return message(n, IsPrime(n))
}

// Checker selects between the trial-division behavior above and the mathematical definition.
// The zero value behaves exactly like IsPrime.
type Checker struct {
	// Strict reports numbers below 2 as not prime.
	Strict bool
}

func (c Checker) IsPrime(n int64) bool {
	if c.Strict && n < 2 {
		return false
	}
	return IsPrime(n)
}

func (c Checker) Describe(n int64) string {
	return message(n, c.IsPrime(n))
}

func message(n int64, prime bool) string {
	if prime {
		return fmt.Sprintf("%d is a prime number", n)
	}
	return fmt.Sprintf("%d is not a prime number", n)
}
