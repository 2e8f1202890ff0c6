package cryptox

// SecureCompare reports whether two secrets are equal without leaking, via
// timing, where they first differ. Inputs of different length are rejected
// up front; the length itself is not treated as a secret. Equal-length
// inputs are always walked in full, accumulating XORed bytes into a single
// result rather than returning at the first mismatch.
func SecureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}

	var result byte
	for i := 0; i < len(a); i++ {
		result |= a[i] ^ b[i]
	}
	return result == 0
}
