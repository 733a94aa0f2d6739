package uploader

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"

	"clipcast/internal/config"
	"clipcast/internal/logging"
	"clipcast/internal/store"
)

// transientError marks failures worth retrying on a later cycle: network
// faults and server-side rejections that say nothing about the item itself.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }

func (e *transientError) Unwrap() error { return e.err }

func (e *transientError) ErrorKind() string { return "transient" }

// HTTPUploader posts items to the configured endpoint as multipart uploads.
// A shared rate limiter keeps all account workers collectively under the
// platform's request budget.
type HTTPUploader struct {
	endpoint  string
	authToken string
	client    *http.Client
	limiter   *rate.Limiter
	logger    *slog.Logger
}

// NewHTTP builds the production uploader from configuration.
func NewHTTP(cfg *config.Config, logger *slog.Logger) *HTTPUploader {
	if logger == nil {
		logger = logging.NewNop()
	}
	rpm := cfg.Publisher.RequestsPerMinute
	if rpm <= 0 {
		rpm = 1
	}
	interval := time.Minute / time.Duration(rpm)
	return &HTTPUploader{
		endpoint:  cfg.Publisher.Endpoint,
		authToken: cfg.Publisher.AuthToken,
		client:    &http.Client{Timeout: time.Duration(cfg.Publisher.RequestTimeout) * time.Second},
		limiter:   rate.NewLimiter(rate.Every(interval), 1),
		logger:    logging.WithComponent(logger, "uploader"),
	}
}

// PostItem implements Uploader.
func (u *HTTPUploader) PostItem(ctx context.Context, item *store.Item) error {
	if u.endpoint == "" {
		return fmt.Errorf("publisher endpoint not configured")
	}
	if err := u.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	file, err := os.Open(item.SourcePath)
	if err != nil {
		return fmt.Errorf("open source file: %w", err)
	}
	defer file.Close()

	body, contentType := multipartBody(item, file)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, body)
	if err != nil {
		return fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	if u.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+u.authToken)
	}

	start := time.Now()
	resp, err := u.client.Do(req)
	if err != nil {
		return &transientError{err: fmt.Errorf("upload request: %w", err)}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return &transientError{err: fmt.Errorf("upload rejected with status %d", resp.StatusCode)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("upload rejected with status %d", resp.StatusCode)
	}

	u.logger.Info("item uploaded",
		logging.String(logging.FieldAccount, item.Account),
		logging.String(logging.FieldItemKey, item.ItemKey),
		logging.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// multipartBody streams the source file into a multipart payload so large
// videos never load fully into memory.
func multipartBody(item *store.Item, file *os.File) (io.Reader, string) {
	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	go func() {
		var err error
		defer func() { pw.CloseWithError(err) }()
		defer writer.Close()

		fields := map[string]string{
			"account":     item.Account,
			"title":       item.Title,
			"description": item.Description,
			"tags":        item.Tags,
		}
		for name, value := range fields {
			if writeErr := writer.WriteField(name, value); writeErr != nil {
				err = writeErr
				return
			}
		}

		part, partErr := writer.CreateFormFile("video", filepath.Base(item.SourcePath))
		if partErr != nil {
			err = partErr
			return
		}
		_, err = io.Copy(part, file)
	}()

	return pr, writer.FormDataContentType()
}
