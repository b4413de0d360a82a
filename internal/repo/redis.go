package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

import (
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

import (
	"github.com/nanjiek/pixiu-cats/internal/config"
	"github.com/nanjiek/pixiu-cats/internal/util"
)

// Key templates. The scope sits in a hash tag so per-scope keys of a
// cluster deployment land on one slot.
const (
	keyQuotaTmpl  = "%s:quota:{%s}"
	keyClientTmpl = "%s:quota:{%s}:%s"
)

// QuotaResult is the decoded reply of ScriptQuota.
type QuotaResult struct {
	Allowed      bool
	Remaining    int64
	RetryAfterMs int64
}

type RedisRepo struct {
	Prefix         string
	Cli            redis.UniversalClient
	logger         *zap.Logger
	defaultTimeout time.Duration
}

// Option customizes a RedisRepo.
type Option func(*RedisRepo)

// WithClient injects an existing client instead of dialing one.
func WithClient(cli redis.UniversalClient) Option {
	return func(r *RedisRepo) { r.Cli = cli }
}

// NewRedis connects to a single node or a cluster depending on how many
// addresses are configured, and pings it once.
func NewRedis(cfg config.RedisCfg, logger *zap.Logger, opts ...Option) (*RedisRepo, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &RedisRepo{
		Prefix:         cfg.Prefix,
		logger:         logger,
		defaultTimeout: durationOrDefault(cfg.OpTimeoutMs, 100),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.Cli == nil {
		addrs := normalizeAddrs(cfg)
		if len(addrs) == 0 {
			return nil, errors.New("no redis addresses configured")
		}
		r.Cli = redis.NewUniversalClient(buildOptions(cfg))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := r.Cli.Ping(ctx).Err(); err != nil {
		logger.Error("redis ping failed", zap.Error(err))
		_ = r.Cli.Close()
		return nil, fmt.Errorf("redis connect failed: %w", err)
	}

	return r, nil
}

func (r *RedisRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.defaultTimeout)
}

// KeyQuota is the bucket key of a scope, optionally narrowed to a hashed
// client dimension.
func (r *RedisRepo) KeyQuota(scope, dimKey string) string {
	if dimKey == "" {
		return fmt.Sprintf(keyQuotaTmpl, r.Prefix, scope)
	}
	return fmt.Sprintf(keyClientTmpl, r.Prefix, scope, dimKey)
}

// TakeQuota runs ScriptQuota against key.
func (r *RedisRepo) TakeQuota(parentCtx context.Context, key string, capacity int64, window time.Duration, now time.Time) (QuotaResult, error) {
	if capacity <= 0 || window < time.Millisecond {
		return QuotaResult{}, fmt.Errorf("invalid quota %d per %s", capacity, window)
	}
	ctx, cancel := r.withTimeout(parentCtx)
	defer cancel()

	windowMs := window.Milliseconds()
	ttlMs := windowMs + 1000

	res, err := ScriptQuota.Run(ctx, r.Cli, []string{key}, capacity, windowMs, now.UnixMilli(), ttlMs).Result()
	if err != nil {
		return QuotaResult{}, fmt.Errorf("quota script failed for key %s: %w", key, err)
	}
	return parseQuotaReply(res)
}

func parseQuotaReply(res interface{}) (QuotaResult, error) {
	values, ok := res.([]interface{})
	if !ok || len(values) < 3 {
		return QuotaResult{}, fmt.Errorf("unexpected quota reply: %v", res)
	}
	return QuotaResult{
		Allowed:      util.ToInt64(values[0]) == 1,
		Remaining:    util.ToInt64(values[1]),
		RetryAfterMs: util.ToInt64(values[2]),
	}, nil
}

func (r *RedisRepo) Close() error {
	return r.Cli.Close()
}

func normalizeAddrs(cfg config.RedisCfg) []string {
	if len(cfg.Addrs) > 0 {
		return cfg.Addrs
	}
	if cfg.Addr == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(cfg.Addr, ",") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func buildOptions(cfg config.RedisCfg) *redis.UniversalOptions {
	return &redis.UniversalOptions{
		Addrs:           normalizeAddrs(cfg),
		Password:        cfg.Password,
		DB:              cfg.DB,
		PoolSize:        atLeast(cfg.PoolSize, 10),
		MinIdleConns:    atLeast(cfg.MinIdleConns, 2),
		DialTimeout:     durationOrDefault(cfg.DialTimeoutMs, 800),
		ReadTimeout:     durationOrDefault(cfg.ReadTimeoutMs, 800),
		WriteTimeout:    durationOrDefault(cfg.WriteTimeoutMs, 800),
		MaxRetries:      atLeast(cfg.MaxRetries, 2),
		MinRetryBackoff: durationOrDefault(cfg.MinRetryBackoffMs, 8),
		MaxRetryBackoff: durationOrDefault(cfg.MaxRetryBackoffMs, 512),
	}
}

func atLeast(val, def int) int {
	if val > def {
		return val
	}
	return def
}

func durationOrDefault(ms int, defMs int) time.Duration {
	if ms <= 0 {
		ms = defMs
	}
	return time.Duration(ms) * time.Millisecond
}
