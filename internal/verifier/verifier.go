package verifier

import (
	"context"
	"log/slog"
	"time"

	"clipcast/internal/config"
	"clipcast/internal/logging"
	"clipcast/internal/store"
)

// SnippetSource fetches candidate text snippets from the external listing.
// Implementations apply their own fallback extraction strategies and return
// at most limit snippets.
type SnippetSource interface {
	FetchSnippets(ctx context.Context, limit int) ([]string, error)
}

// Verifier confirms that a posted item actually became visible downstream,
// independently of the uploader's own success signal.
type Verifier struct {
	source        SnippetSource
	timeout       time.Duration
	retryInterval time.Duration
	maxCandidates int
	logger        *slog.Logger
}

// New constructs a verifier from configuration. The timeout floor from config
// normalization keeps a misconfigured verifier from giving up instantly.
func New(cfg *config.Config, source SnippetSource, logger *slog.Logger) *Verifier {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Verifier{
		source:        source,
		timeout:       time.Duration(cfg.Verifier.TimeoutSeconds) * time.Second,
		retryInterval: time.Duration(cfg.Verifier.RetryIntervalSeconds) * time.Second,
		maxCandidates: cfg.Verifier.MaxCandidates,
		logger:        logging.WithComponent(logger, "verifier"),
	}
}

// Confirm polls the listing until the item's signature is sighted or the
// deadline passes. It never returns an error: every failure degrades to a
// false result plus a log line.
func (v *Verifier) Confirm(ctx context.Context, item *store.Item) bool {
	logger := v.logger.With(
		logging.String(logging.FieldAccount, item.Account),
		logging.String(logging.FieldItemKey, item.ItemKey),
	)

	signature := Signature(item.VerificationText())
	if len(signature) == 0 {
		logger.Warn("empty verification signature, cannot verify item")
		return false
	}
	threshold := matchThreshold(signature)
	deadline := time.Now().Add(v.timeout)

	for round := 1; ; round++ {
		if ctx.Err() != nil {
			logger.Warn("verification interrupted", logging.Int("rounds", round-1))
			return false
		}

		snippets, err := v.source.FetchSnippets(ctx, v.maxCandidates)
		if err != nil {
			logger.Warn("listing fetch failed, retrying",
				logging.Int("round", round),
				logging.Error(err),
			)
		} else {
			for _, snippet := range snippets {
				if score := scoreCandidate(signature, snippet); score >= threshold {
					logger.Info("item sighted in listing",
						logging.Int("round", round),
						logging.Int("score", score),
						logging.Int("threshold", threshold),
					)
					return true
				}
			}
		}

		if time.Now().After(deadline) {
			logger.Warn("verification exhausted without sighting",
				logging.Int("rounds", round),
				logging.Duration("timeout", v.timeout),
			)
			return false
		}

		select {
		case <-ctx.Done():
			logger.Warn("verification interrupted", logging.Int("rounds", round))
			return false
		case <-time.After(v.retryInterval):
		}
	}
}
