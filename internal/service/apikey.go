package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/nutrilog/backend/internal/logger"
)

const (
	apiKeyCacheKey = "config:apikey"
	apiKeyCacheTTL = 24 * time.Hour
)

// RemoteKeyProvider fetches the recognition API key from a published CSV
// (row keyed "apikey") and caches it in Redis for 24 hours.
type RemoteKeyProvider struct {
	sheetURL string
	redis    *redis.Client
	client   *http.Client
}

var _ KeyProvider = (*RemoteKeyProvider)(nil)

// NewRemoteKeyProvider creates a new RemoteKeyProvider instance
func NewRemoteKeyProvider(sheetURL string, redisClient *redis.Client) *RemoteKeyProvider {
	return &RemoteKeyProvider{
		sheetURL: sheetURL,
		redis:    redisClient,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

// APIKey returns the cached key, refreshing it from the remote CSV when the
// cache entry has expired.
func (p *RemoteKeyProvider) APIKey(ctx context.Context) (string, error) {
	if p.sheetURL == "" {
		return "", ErrKeyUnavailable
	}

	if p.redis != nil {
		key, err := p.redis.Get(ctx, apiKeyCacheKey).Result()
		if err == nil && key != "" {
			return key, nil
		}
		if err != nil && err != redis.Nil {
			logger.L().Warn("api key cache read failed", zap.Error(err))
		}
	}

	key, err := p.fetch(ctx)
	if err != nil {
		return "", err
	}

	if p.redis != nil {
		if err := p.redis.Set(ctx, apiKeyCacheKey, key, apiKeyCacheTTL).Err(); err != nil {
			// A failed cache write only costs the next caller a refetch.
			logger.L().Warn("api key cache write failed", zap.Error(err))
		}
	}
	return key, nil
}

func (p *RemoteKeyProvider) fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", p.sheetURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch key sheet: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("key sheet request failed with status %d", resp.StatusCode)
	}

	reader := csv.NewReader(resp.Body)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return "", fmt.Errorf("failed to parse key sheet CSV: %w", err)
	}

	for _, row := range rows {
		if len(row) >= 2 && strings.EqualFold(strings.TrimSpace(row[0]), "apikey") {
			if key := strings.TrimSpace(row[1]); key != "" {
				return key, nil
			}
		}
	}
	return "", fmt.Errorf("%w: no apikey row in key sheet", ErrKeyUnavailable)
}
