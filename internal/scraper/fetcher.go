package scraper

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/NemoKam/VSrapInformer/internal/config"
)

// Fetcher issues GET requests against the storefront with a bounded flat-delay
// retry policy. Exhausting the attempts is a normal outcome for callers: they
// treat it as "no more data available" rather than a crash.
type Fetcher struct {
	client      *http.Client
	maxAttempts int
	retryDelay  time.Duration
	logger      *slog.Logger
}

func NewFetcher(cfg *config.Config, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		client:      &http.Client{Timeout: cfg.ScraperHTTPTimeout},
		maxAttempts: cfg.ScraperMaxAttempts,
		retryDelay:  cfg.ScraperRetryDelay,
		logger:      logger,
	}
}

// Fetch retrieves url, retrying on network errors and non-2xx statuses with a
// fixed delay between attempts. After maxAttempts failures it returns the last
// error.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(f.retryDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		body, err := f.fetchOnce(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
		f.logger.Debug("fetch attempt failed", "url", url, "attempt", attempt, "err", err)
	}
	return nil, fmt.Errorf("fetch %s: attempts exhausted: %w", url, lastErr)
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
