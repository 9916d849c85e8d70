package app

import (
	"context"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"
	temporalsdkclient "go.temporal.io/sdk/client"

	"github.com/yungbote/storefront-backend/internal/platform/cache"
	"github.com/yungbote/storefront-backend/internal/platform/gcp"
	"github.com/yungbote/storefront-backend/internal/platform/logger"
	"github.com/yungbote/storefront-backend/internal/platform/payments"
	"github.com/yungbote/storefront-backend/internal/platform/sendgrid"
	"github.com/yungbote/storefront-backend/internal/realtime/bus"
	"github.com/yungbote/storefront-backend/internal/temporalx"
)

// Clients holds connections to the outside world. Optional clients are nil
// when their configuration is absent.
type Clients struct {
	Cache    cache.Cache
	Redis    *goredis.Client
	Bus      bus.Bus
	Bucket   gcp.MediaBucket
	Gateway  payments.Gateway
	Mail     sendgrid.Client
	Temporal temporalsdkclient.Client
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var out Clients

	if strings.TrimSpace(cfg.Redis.Addr) != "" {
		c, rdb, err := cache.NewRedis(log, cfg.Redis)
		if err != nil {
			return out, fmt.Errorf("init redis: %w", err)
		}
		out.Cache, out.Redis = c, rdb
		b, err := bus.NewRedisBus(log, rdb, cfg.RedisChannel)
		if err != nil {
			out.Close(log)
			return out, fmt.Errorf("init redis bus: %w", err)
		}
		out.Bus = b
	} else {
		log.Warn("REDIS_ADDR not set; using in-process cache and realtime fanout")
		out.Cache = cache.NewMemory()
	}

	bucket, err := resolveMediaBucket(ctx, log, cfg.MediaBucket)
	if err != nil {
		out.Close(log)
		return out, err
	}
	out.Bucket = bucket

	gw, err := payments.New(log, cfg.Payments)
	if err != nil {
		log.Warn("Payments gateway disabled; checkout will fail until configured", "error", err)
	} else {
		out.Gateway = gw
	}

	mail, err := sendgrid.New(log, cfg.SendGrid)
	if err != nil {
		out.Close(log)
		return out, fmt.Errorf("init sendgrid: %w", err)
	}
	out.Mail = mail

	tc, err := temporalx.NewClient(ctx, log, cfg.Temporal)
	if err != nil {
		out.Close(log)
		return out, fmt.Errorf("init temporal: %w", err)
	}
	out.Temporal = tc
	return out, nil
}

func (c *Clients) Close(log *logger.Logger) {
	if c.Temporal != nil {
		c.Temporal.Close()
		c.Temporal = nil
	}
	if c.Bucket != nil {
		if err := c.Bucket.Close(); err != nil {
			log.Warn("Close media bucket", "error", err)
		}
		c.Bucket = nil
	}
	if c.Bus != nil {
		_ = c.Bus.Close()
		c.Bus = nil
	}
	if c.Cache != nil {
		if err := c.Cache.Close(); err != nil {
			log.Warn("Close cache", "error", err)
		}
		c.Cache = nil
	}
}
