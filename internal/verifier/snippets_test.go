package verifier_test

import (
	"testing"

	"clipcast/internal/verifier"
)

func TestExtractSnippetsPrefersJSONFields(t *testing.T) {
	body := []byte(`{"videos":[{"title":"First clip","views":10},{"description":"Second clip description"}]}`)
	snippets := verifier.ExtractSnippets(body, 20)
	if len(snippets) != 2 {
		t.Fatalf("expected 2 snippets, got %v", snippets)
	}
}

func TestExtractSnippetsFallsBackToMarkup(t *testing.T) {
	body := []byte(`<html><body><h2>A sufficiently long video caption here</h2><span>ok</span></body></html>`)
	snippets := verifier.ExtractSnippets(body, 20)
	if len(snippets) != 1 {
		t.Fatalf("expected 1 markup snippet, got %v", snippets)
	}
	if snippets[0] != "A sufficiently long video caption here" {
		t.Fatalf("unexpected snippet: %q", snippets[0])
	}
}

func TestExtractSnippetsFallsBackToLines(t *testing.T) {
	body := []byte("first line\n\nsecond line\n")
	snippets := verifier.ExtractSnippets(body, 20)
	if len(snippets) != 2 {
		t.Fatalf("expected 2 line snippets, got %v", snippets)
	}
}

func TestExtractSnippetsRespectsLimit(t *testing.T) {
	body := []byte("a\nb\nc\nd\n")
	snippets := verifier.ExtractSnippets(body, 2)
	if len(snippets) != 2 {
		t.Fatalf("expected limit of 2, got %v", snippets)
	}
}
