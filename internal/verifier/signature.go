package verifier

import (
	"clipcast/internal/textutil"
)

const (
	// signatureTokenMinLen filters noise words; only tokens longer than this
	// survive into the signature.
	signatureTokenMinLen = 3
	// signatureTokenCap bounds the signature so pathological descriptions
	// cannot inflate the match threshold.
	signatureTokenCap = 10
)

// Signature builds the normalized token signature used to recognize an item
// in the external listing: diacritics folded, lowercased, whitespace split,
// short tokens dropped, deduped, capped.
func Signature(text string) []string {
	return textutil.DedupeTokens(textutil.Tokens(text, signatureTokenMinLen), signatureTokenCap)
}

// matchThreshold is the minimum number of signature tokens a candidate must
// contain to count as a sighting.
func matchThreshold(signature []string) int {
	threshold := len(signature)
	if threshold > 3 {
		threshold = 3
	}
	if threshold < 1 {
		threshold = 1
	}
	return threshold
}

// scoreCandidate counts how many signature tokens appear among the
// candidate's normalized tokens.
func scoreCandidate(signature []string, candidate string) int {
	present := make(map[string]struct{})
	for _, token := range textutil.Tokens(candidate, 0) {
		present[token] = struct{}{}
	}
	score := 0
	for _, token := range signature {
		if _, ok := present[token]; ok {
			score++
		}
	}
	return score
}
