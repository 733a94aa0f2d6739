package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldTransformer decomposes Unicode text and drops combining marks, so
// accented characters compare equal to their ASCII base forms.
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// FoldDiacritics lowercases text and strips diacritical marks.
func FoldDiacritics(text string) string {
	folded, _, err := transform.String(foldTransformer, text)
	if err != nil {
		folded = text
	}
	return strings.ToLower(folded)
}

// Tokens splits text on whitespace after diacritic folding, keeping only
// tokens longer than minLen runes.
func Tokens(text string, minLen int) []string {
	fields := strings.Fields(FoldDiacritics(text))
	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		if len([]rune(field)) <= minLen {
			continue
		}
		tokens = append(tokens, field)
	}
	return tokens
}

// DedupeTokens removes duplicates while preserving first-seen order, keeping
// at most limit tokens. A limit <= 0 keeps everything.
func DedupeTokens(tokens []string, limit int) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		out = append(out, token)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
