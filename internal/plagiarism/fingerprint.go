package plagiarism

import (
	"math/bits"
	"strings"
)

const trigramSize = 3

// Fingerprint is a 64-bit locality-sensitive signature of a token stream.
// It is only used to prune pairs, never as a similarity score.
type Fingerprint struct {
	SubmissionID string
	Bits         uint64
}

// polyHash is the 32-bit rolling hash h = h*31 + c, read as a signed int32
func polyHash(s string) int32 {
	var h int32
	for i := 0; i < len(s); i++ {
		h = (h << 5) - h + int32(s[i])
	}
	return h
}

// bitIndex maps a trigram hash to abs(h) mod 64; math.MinInt32 maps to bit 0
func bitIndex(h int32) uint {
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return uint(v % FingerprintBits)
}

// GenerateFingerprint ORs one bit per token trigram into a uint64.
// Streams shorter than three tokens produce a zero fingerprint.
func GenerateFingerprint(submissionID string, tokens TokenStream) Fingerprint {
	fp := Fingerprint{SubmissionID: submissionID}
	if len(tokens) < trigramSize {
		return fp
	}

	for i := 0; i <= len(tokens)-trigramSize; i++ {
		trigram := strings.Join(tokens[i:i+trigramSize], "")
		fp.Bits |= 1 << bitIndex(polyHash(trigram))
	}

	return fp
}

// HammingDistance returns the number of differing bits
func HammingDistance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}
