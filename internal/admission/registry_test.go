package admission

import (
	"context"
	"net/http"
	"testing"
	"time"
)

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

import (
	"github.com/nanjiek/pixiu-cats/internal/access"
	"github.com/nanjiek/pixiu-cats/internal/config"
	"github.com/nanjiek/pixiu-cats/internal/identity"
	"github.com/nanjiek/pixiu-cats/internal/limiter"
	"github.com/nanjiek/pixiu-cats/internal/paginate"
)

func TestBuildDefaults(t *testing.T) {
	eps, err := Build(config.Default(), limiter.NewMemoryStore(), nil)
	require.NoError(t, err)

	cats := eps[config.EndpointCats]
	require.NotNil(t, cats)
	assert.Equal(t, access.OwnerOrReadOnly{}, cats.Access.Policy)
	assert.Equal(t, paginate.PageNumber{Size: 2}, cats.Pager)
	require.NotNil(t, cats.Throttle)
	assert.Equal(t, 2, cats.Throttle.(*limiter.Chain).Len())

	users := eps[config.EndpointUsers]
	assert.Equal(t, access.ReadOnly{}, users.Access.Policy)
	assert.Equal(t, paginate.None{}, users.Pager)
	assert.Nil(t, users.Throttle)

	ach := eps[config.EndpointAchievements]
	assert.Equal(t, paginate.StrategyEnvelope, ach.Pager.Name())
}

func TestBuildRejectsBadRate(t *testing.T) {
	cfg := config.Default()
	cfg.Throttle.Scopes["low_request"] = config.ScopeCfg{Rate: "1/fortnight"}
	_, err := Build(cfg, limiter.NewMemoryStore(), nil)
	assert.ErrorContains(t, err, "low_request")
}

func TestBuildRejectsBadPolicy(t *testing.T) {
	cfg := config.Default()
	ep := cfg.Endpoints[config.EndpointCats]
	ep.Access = "owner_only"
	cfg.Endpoints[config.EndpointCats] = ep
	_, err := Build(cfg, limiter.NewMemoryStore(), nil)
	assert.ErrorContains(t, err, "endpoints.cats")
}

func TestRegistryReloadKeepsQuotaState(t *testing.T) {
	cfg := config.Default()
	cfg.Throttle.Blackout.Timezone = "UTC"
	quota := limiter.NewMemoryStore()
	reg, err := NewRegistry(cfg, quota, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"achievements", "cats", "users"}, reg.Names())

	ep, ok := reg.Get(config.EndpointCats)
	require.True(t, ok)
	req := limiter.Request{Endpoint: "cats", Method: http.MethodGet, Identity: identity.Anonymous("1.2.3.4"), Now: noon}
	dec, err := ep.Throttle.Allow(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, dec.Allowed)

	next := config.Default()
	next.Throttle.Blackout.Timezone = "UTC"
	cats := next.Endpoints[config.EndpointCats]
	cats.Pagination.PageSize = 3
	next.Endpoints[config.EndpointCats] = cats
	require.NoError(t, reg.Reload(next))

	ep, _ = reg.Get(config.EndpointCats)
	assert.Equal(t, paginate.PageNumber{Size: 3}, ep.Pager)

	req.Now = noon.Add(10 * time.Second)
	dec, err = ep.Throttle.Allow(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, dec.Allowed, "quota consumed before reload still counts")
}

func TestRegistryReloadErrorKeepsCurrent(t *testing.T) {
	reg, err := NewRegistry(config.Default(), limiter.NewMemoryStore(), nil)
	require.NoError(t, err)

	bad := config.Default()
	ep := bad.Endpoints[config.EndpointUsers]
	ep.Pagination.Strategy = "cursor"
	bad.Endpoints[config.EndpointUsers] = ep

	assert.Error(t, reg.Reload(bad))
	users, ok := reg.Get(config.EndpointUsers)
	require.True(t, ok)
	assert.Equal(t, paginate.None{}, users.Pager)

	_, ok = reg.Get("dogs")
	assert.False(t, ok)
}
