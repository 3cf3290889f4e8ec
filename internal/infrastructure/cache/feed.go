package cache

import (
	"context"
	"errors"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"

	"topar_market/internal/domain/service/listing"
	"topar_market/pkg/contextx"
	"topar_market/pkg/logx"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

const feedTTL = 30 * time.Second

// FeedCache хранит страницы ленты в redis с коротким TTL. Мутации ленту не
// инвалидируют, устаревание ограничено TTL. Ошибки redis не фатальны и
// превращаются в промах.
type FeedCache struct {
	client *redis.Client
}

func NewFeedCache(client *redis.Client) *FeedCache {
	return &FeedCache{client: client}
}

func (c *FeedCache) Get(ctx context.Context, key string) (*listing.FeedPage, bool) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			contextx.LoggerFromContextOrDefault(ctx).Warn("feed cache get", logx.Error(err))
		}

		return nil, false
	}

	var page listing.FeedPage
	if err := json.Unmarshal(payload, &page); err != nil {
		contextx.LoggerFromContextOrDefault(ctx).Warn("feed cache decode", logx.Error(err))

		return nil, false
	}

	return &page, true
}

func (c *FeedCache) Set(ctx context.Context, key string, page *listing.FeedPage) {
	payload, err := json.Marshal(page)
	if err != nil {
		contextx.LoggerFromContextOrDefault(ctx).Warn("feed cache encode", logx.Error(err))

		return
	}

	if err := c.client.Set(ctx, key, payload, feedTTL).Err(); err != nil {
		contextx.LoggerFromContextOrDefault(ctx).Warn("feed cache set", logx.Error(err))
	}
}
