package textutil_test

import (
	"reflect"
	"testing"

	"clipcast/internal/textutil"
)

func TestFoldDiacritics(t *testing.T) {
	if got := textutil.FoldDiacritics("Café MÜNCHËN"); got != "cafe munchen" {
		t.Fatalf("unexpected fold: %q", got)
	}
}

func TestTokensFiltersShort(t *testing.T) {
	got := textutil.Tokens("the Quick brown fox ate", 3)
	want := []string{"quick", "brown"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected tokens: %v", got)
	}
}

func TestDedupeTokensPreservesOrderAndCaps(t *testing.T) {
	got := textutil.DedupeTokens([]string{"a", "b", "a", "c", "b", "d"}, 3)
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected dedupe: %v", got)
	}
}

func TestSanitizeToken(t *testing.T) {
	cases := map[string]string{
		"My Video (final).mp4": "my_video__final__mp4",
		"":                     "unknown",
		"___":                  "unknown",
		"Clip-01":              "clip-01",
	}
	for input, want := range cases {
		if got := textutil.SanitizeToken(input); got != want {
			t.Fatalf("SanitizeToken(%q) = %q, want %q", input, got, want)
		}
	}
}
