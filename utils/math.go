package utils

// AbsInt returns the absolute value of the given int.
func AbsInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// MaxInt returns the maximum of two ints.
func MaxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// MinInt returns the minimum of two ints.
func MinInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// ClampF64 restricts n to [lo, hi].
func ClampF64(n, lo, hi float64) float64 {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
