package verifier

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ListingSource fetches the public listing page and extracts candidate text
// snippets. Extraction tries several strategies in order and keeps the first
// one that yields anything: structured JSON fields, tag-stripped text runs,
// then raw lines.
type ListingSource struct {
	url    string
	client *http.Client
}

// snippetFieldNames are the JSON keys whose string values count as candidates.
var snippetFieldNames = map[string]struct{}{
	"title":       {},
	"description": {},
	"caption":     {},
	"text":        {},
}

// NewListingSource builds a source for the given listing URL.
func NewListingSource(url string, timeout time.Duration) *ListingSource {
	return &ListingSource{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// FetchSnippets implements SnippetSource.
func (s *ListingSource) FetchSnippets(ctx context.Context, limit int) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build listing request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch listing: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("listing returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read listing body: %w", err)
	}

	return ExtractSnippets(body, limit), nil
}

// ExtractSnippets pulls candidate snippets out of a listing payload.
func ExtractSnippets(body []byte, limit int) []string {
	if limit <= 0 {
		limit = 20
	}
	if snippets := jsonSnippets(body, limit); len(snippets) > 0 {
		return snippets
	}
	if snippets := markupSnippets(string(body), limit); len(snippets) > 0 {
		return snippets
	}
	return lineSnippets(string(body), limit)
}

func jsonSnippets(body []byte, limit int) []string {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil
	}
	var snippets []string
	collectJSONSnippets(doc, &snippets, limit)
	return snippets
}

func collectJSONSnippets(node any, snippets *[]string, limit int) {
	if len(*snippets) >= limit {
		return
	}
	switch value := node.(type) {
	case map[string]any:
		for key, child := range value {
			if text, ok := child.(string); ok {
				if _, wanted := snippetFieldNames[strings.ToLower(key)]; wanted && strings.TrimSpace(text) != "" {
					*snippets = append(*snippets, text)
					if len(*snippets) >= limit {
						return
					}
					continue
				}
			}
			collectJSONSnippets(child, snippets, limit)
		}
	case []any:
		for _, child := range value {
			collectJSONSnippets(child, snippets, limit)
			if len(*snippets) >= limit {
				return
			}
		}
	}
}

// markupSnippets strips tags and keeps text runs long enough to carry a
// description.
func markupSnippets(body string, limit int) []string {
	if !strings.Contains(body, "<") {
		return nil
	}
	var snippets []string
	var current strings.Builder
	inTag := false
	flush := func() {
		text := strings.Join(strings.Fields(current.String()), " ")
		current.Reset()
		if len(text) >= 20 {
			snippets = append(snippets, text)
		}
	}
	for _, r := range body {
		switch {
		case r == '<':
			inTag = true
			flush()
		case r == '>':
			inTag = false
		case !inTag:
			current.WriteRune(r)
		}
		if len(snippets) >= limit {
			return snippets
		}
	}
	flush()
	if len(snippets) > limit {
		snippets = snippets[:limit]
	}
	return snippets
}

func lineSnippets(body string, limit int) []string {
	var snippets []string
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		snippets = append(snippets, trimmed)
		if len(snippets) >= limit {
			break
		}
	}
	return snippets
}
