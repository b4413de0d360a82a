package repo

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

import (
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

import (
	"github.com/nanjiek/pixiu-cats/internal/config"
)

func TestNormalizeAddrs(t *testing.T) {
	addrs := normalizeAddrs(config.RedisCfg{Addr: "127.0.0.1:6379, 127.0.0.2:6379"})
	assert.Equal(t, []string{"127.0.0.1:6379", "127.0.0.2:6379"}, addrs)

	explicit := normalizeAddrs(config.RedisCfg{Addr: "ignored:1", Addrs: []string{"a:1"}})
	assert.Equal(t, []string{"a:1"}, explicit)

	assert.Nil(t, normalizeAddrs(config.RedisCfg{}))
}

func TestKeyTemplates(t *testing.T) {
	r := &RedisRepo{Prefix: "pixiu:cats"}

	assert.Equal(t, "pixiu:cats:quota:{low_request}", r.KeyQuota("low_request", ""))
	assert.Equal(t, "pixiu:cats:quota:{low_request}:abc123", r.KeyQuota("low_request", "abc123"))
}

func TestBuildOptionsDefaults(t *testing.T) {
	opts := buildOptions(config.RedisCfg{Addr: "127.0.0.1:6379"})

	assert.Equal(t, []string{"127.0.0.1:6379"}, opts.Addrs)
	assert.Equal(t, 10, opts.PoolSize)
	assert.Equal(t, 800*time.Millisecond, opts.ReadTimeout)
	assert.Equal(t, 2, opts.MaxRetries)
}

func TestParseQuotaReply(t *testing.T) {
	res, err := parseQuotaReply([]interface{}{int64(0), int64(0), int64(42000)})
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, int64(42000), res.RetryAfterMs)

	res, err = parseQuotaReply([]interface{}{int64(1), int64(4), int64(0)})
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, int64(4), res.Remaining)

	_, err = parseQuotaReply("OK")
	assert.Error(t, err)
	_, err = parseQuotaReply([]interface{}{int64(1)})
	assert.Error(t, err)
}

func TestNewRedisWithoutAddress(t *testing.T) {
	_, err := NewRedis(config.RedisCfg{}, zap.NewNop())
	assert.Error(t, err)
}

var epoch = time.UnixMilli(1_715_342_400_000)

func newMiniRepo(t *testing.T) (*RedisRepo, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	r, err := NewRedis(config.RedisCfg{Addr: mr.Addr(), Prefix: "test", OpTimeoutMs: 1000}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r, mr
}

func TestTakeQuotaOnePerMinute(t *testing.T) {
	r, mr := newMiniRepo(t)
	ctx := context.Background()
	key := r.KeyQuota("low_request", "")

	res, err := r.TakeQuota(ctx, key, 1, time.Minute, epoch)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, int64(0), res.Remaining)
	assert.Equal(t, 61*time.Second, mr.TTL(key))

	res, err = r.TakeQuota(ctx, key, 1, time.Minute, epoch.Add(59*time.Second))
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, int64(1000), res.RetryAfterMs)

	res, err = r.TakeQuota(ctx, key, 1, time.Minute, epoch.Add(60*time.Second))
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestTakeQuotaRetryAfterTracksWindow(t *testing.T) {
	r, _ := newMiniRepo(t)
	ctx := context.Background()

	cases := []struct {
		name     string
		capacity int64
		window   time.Duration
		used     int
		elapsed  time.Duration
		retryMs  int64
	}{
		{"hourly single token", 1, time.Hour, 1, 15 * time.Minute, (45 * time.Minute).Milliseconds()},
		{"hundred per hour", 100, time.Hour, 100, 0, 36_000},
		{"hundred per hour partly refilled", 100, time.Hour, 100, 30 * time.Second, 6_000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			key := r.KeyQuota(tc.name, "")
			for i := 0; i < tc.used; i++ {
				res, err := r.TakeQuota(ctx, key, tc.capacity, tc.window, epoch)
				require.NoError(t, err)
				require.True(t, res.Allowed, "take %d", i)
			}
			res, err := r.TakeQuota(ctx, key, tc.capacity, tc.window, epoch.Add(tc.elapsed))
			require.NoError(t, err)
			assert.False(t, res.Allowed)
			assert.Equal(t, tc.retryMs, res.RetryAfterMs)
		})
	}
}

func TestTakeQuotaConcurrentAdmitsOne(t *testing.T) {
	r, _ := newMiniRepo(t)
	key := r.KeyQuota("low_request", "")

	var allowed atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := r.TakeQuota(context.Background(), key, 1, time.Minute, epoch)
			if err == nil && res.Allowed {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(1), allowed.Load())
}

func TestTakeQuotaRejectsBadRate(t *testing.T) {
	r, _ := newMiniRepo(t)
	ctx := context.Background()

	_, err := r.TakeQuota(ctx, "k", 0, time.Minute, epoch)
	assert.Error(t, err)
	_, err = r.TakeQuota(ctx, "k", 5, 500*time.Microsecond, epoch)
	assert.Error(t, err)
}

func TestTakeQuotaStoreDown(t *testing.T) {
	r, mr := newMiniRepo(t)
	mr.SetError("ERR quota store unavailable")

	_, err := r.TakeQuota(context.Background(), "k", 1, time.Minute, epoch)
	assert.Error(t, err)
}
