package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

import (
	"gopkg.in/yaml.v3"
)

// ServerCfg holds the HTTP listener settings.
type ServerCfg struct {
	HTTPAddr            string `yaml:"httpAddr"`            // e.g. ":8080"
	ReadHeaderTimeoutMs int    `yaml:"readHeaderTimeoutMs"` // default 5000
	TrustForwardedFor   bool   `yaml:"trustForwardedFor"`   // set only behind a proxy that overwrites X-Forwarded-*
	ShutdownTimeoutMs   int    `yaml:"shutdownTimeoutMs"`   // default 5000
}

// LoggingCfg configures the zap logger.
type LoggingCfg struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // json | console
}

// RedisCfg holds the connection settings of the shared throttle store.
type RedisCfg struct {
	Addr              string   `yaml:"addr"`              // e.g. "127.0.0.1:6379", comma separated for a cluster
	Addrs             []string `yaml:"addrs"`             // optional explicit address list
	Password          string   `yaml:"password"`          //
	DB                int      `yaml:"db"`                // ignored in cluster mode
	Prefix            string   `yaml:"prefix"`            // key prefix
	PoolSize          int      `yaml:"poolSize"`          //
	MinIdleConns      int      `yaml:"minIdleConns"`      //
	MaxRetries        int      `yaml:"maxRetries"`        //
	ReadTimeoutMs     int      `yaml:"readTimeoutMs"`     //
	WriteTimeoutMs    int      `yaml:"writeTimeoutMs"`    //
	DialTimeoutMs     int      `yaml:"dialTimeoutMs"`     //
	OpTimeoutMs       int      `yaml:"opTimeoutMs"`       // per-command deadline
	MinRetryBackoffMs int      `yaml:"minRetryBackoffMs"` //
	MaxRetryBackoffMs int      `yaml:"maxRetryBackoffMs"` //
}

// BlackoutCfg is the time-of-day block window.
type BlackoutCfg struct {
	StartHour int    `yaml:"startHour"` // inclusive
	EndHour   int    `yaml:"endHour"`   // exclusive
	Timezone  string `yaml:"timezone"`  // IANA name, "Local" or "UTC"
}

// ScopeCfg is a named quota bucket.
type ScopeCfg struct {
	Rate string   `yaml:"rate"` // "1/minute", "100/day", ...
	Dims []string `yaml:"dims"` // empty: shared by all callers; ["client"]: one bucket per caller
}

// ThrottleCfg holds the throttle state backend and the named scopes.
type ThrottleCfg struct {
	Store      string              `yaml:"store"`      // memory | redis
	FailPolicy string              `yaml:"failPolicy"` // fail-open | fail-closed
	Blackout   BlackoutCfg         `yaml:"blackout"`   //
	Scopes     map[string]ScopeCfg `yaml:"scopes"`     //
}

// PaginationCfg selects the listing strategy of an endpoint.
type PaginationCfg struct {
	Strategy string `yaml:"strategy"` // page_number | envelope | limit_offset | none
	PageSize int    `yaml:"pageSize"` // page_number / envelope page size, default limit for limit_offset
	MaxLimit int    `yaml:"maxLimit"` // upper bound for ?limit=
}

// EndpointThrottleCfg binds throttle rules to an endpoint.
type EndpointThrottleCfg struct {
	Blackout bool     `yaml:"blackout"`
	Scopes   []string `yaml:"scopes"`
}

// EndpointCfg is the static admission configuration of one resource.
type EndpointCfg struct {
	Access         string              `yaml:"access"` // owner_or_read_only | authenticated_or_read_only | read_only | public
	Throttle       EndpointThrottleCfg `yaml:"throttle"`
	Pagination     PaginationCfg       `yaml:"pagination"`
	FilterFields   []string            `yaml:"filterFields"`
	SearchFields   []string            `yaml:"searchFields"`
	OrderingFields []string            `yaml:"orderingFields"`
	Ordering       []string            `yaml:"ordering"` // default sort keys, "-" prefix for descending
}

// UserCfg seeds the read-only users resource.
type UserCfg struct {
	Username  string `yaml:"username"`
	FirstName string `yaml:"firstName"`
	LastName  string `yaml:"lastName"`
}

// ReloadCfg controls config file polling. SIGHUP reloads regardless.
type ReloadCfg struct {
	PollIntervalMs int `yaml:"pollIntervalMs"` // 0 disables polling
}

// Config is the full service configuration.
type Config struct {
	Server    ServerCfg              `yaml:"server"`
	Logging   LoggingCfg             `yaml:"logging"`
	Redis     RedisCfg               `yaml:"redis"`
	Throttle  ThrottleCfg            `yaml:"throttle"`
	Reload    ReloadCfg              `yaml:"reload"`
	Endpoints map[string]EndpointCfg `yaml:"endpoints"`
	Users     []UserCfg              `yaml:"users"`
}

// Endpoint names served by the API.
const (
	EndpointCats         = "cats"
	EndpointUsers        = "users"
	EndpointAchievements = "achievements"
)

// Load reads a YAML file, expands ${ENV} references, applies defaults and
// validates the result.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

// Parse decodes configuration from YAML bytes.
func Parse(b []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(b))
	var c Config
	if err := yaml.Unmarshal([]byte(expanded), &c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	c := &Config{}
	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = ":8080"
	}
	if c.Server.ReadHeaderTimeoutMs <= 0 {
		c.Server.ReadHeaderTimeoutMs = 5000
	}
	if c.Server.ShutdownTimeoutMs <= 0 {
		c.Server.ShutdownTimeoutMs = 5000
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "pixiu:cats"
	}
	if c.Throttle.Store == "" {
		c.Throttle.Store = "memory"
	}
	if c.Throttle.FailPolicy == "" {
		c.Throttle.FailPolicy = "fail-closed"
	}
	if c.Throttle.Blackout == (BlackoutCfg{}) {
		c.Throttle.Blackout = BlackoutCfg{StartHour: 3, EndHour: 5}
	}
	if c.Throttle.Blackout.Timezone == "" {
		c.Throttle.Blackout.Timezone = "Local"
	}
	if c.Throttle.Scopes == nil {
		c.Throttle.Scopes = map[string]ScopeCfg{"low_request": {Rate: "1/minute"}}
	}
	if c.Endpoints == nil {
		c.Endpoints = map[string]EndpointCfg{}
	}
	for name, def := range DefaultEndpoints() {
		if _, ok := c.Endpoints[name]; !ok {
			c.Endpoints[name] = def
		}
	}
	for name, ep := range c.Endpoints {
		if ep.Pagination.Strategy == "" {
			ep.Pagination.Strategy = "page_number"
		}
		if ep.Pagination.PageSize <= 0 {
			ep.Pagination.PageSize = 2
		}
		c.Endpoints[name] = ep
	}
}

// DefaultEndpoints mirrors the reference deployment: cats are owner-guarded,
// throttled and paged two at a time; users are public and read-only;
// achievements use the links envelope.
func DefaultEndpoints() map[string]EndpointCfg {
	return map[string]EndpointCfg{
		EndpointCats: {
			Access:         "owner_or_read_only",
			Throttle:       EndpointThrottleCfg{Blackout: true, Scopes: []string{"low_request"}},
			Pagination:     PaginationCfg{Strategy: "page_number", PageSize: 2},
			FilterFields:   []string{"color", "birth_year"},
			SearchFields:   []string{"name"},
			OrderingFields: []string{"name", "birth_year"},
			Ordering:       []string{"birth_year"},
		},
		EndpointUsers: {
			Access:         "read_only",
			Pagination:     PaginationCfg{Strategy: "none"},
			SearchFields:   []string{"username"},
			OrderingFields: []string{"username"},
			Ordering:       []string{"username"},
		},
		EndpointAchievements: {
			Access:         "authenticated_or_read_only",
			Pagination:     PaginationCfg{Strategy: "envelope", PageSize: 10},
			SearchFields:   []string{"name"},
			OrderingFields: []string{"name"},
			Ordering:       []string{"name"},
		},
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.Throttle.Store) {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("throttle.store: unknown store %q", c.Throttle.Store))
	}
	b := c.Throttle.Blackout
	if b.StartHour < 0 || b.StartHour > 23 || b.EndHour < 0 || b.EndHour > 24 {
		errs = append(errs, fmt.Errorf("throttle.blackout: hours out of range [%d, %d)", b.StartHour, b.EndHour))
	}
	for name, s := range c.Throttle.Scopes {
		if strings.TrimSpace(s.Rate) == "" {
			errs = append(errs, fmt.Errorf("throttle.scopes.%s: rate is required", name))
		}
	}
	for name, ep := range c.Endpoints {
		switch name {
		case EndpointCats, EndpointUsers, EndpointAchievements:
		default:
			errs = append(errs, fmt.Errorf("endpoints.%s: unknown endpoint", name))
		}
		for _, scope := range ep.Throttle.Scopes {
			if _, ok := c.Throttle.Scopes[scope]; !ok {
				errs = append(errs, fmt.Errorf("endpoints.%s: undefined throttle scope %q", name, scope))
			}
		}
		if ep.Pagination.Strategy != "none" && len(ep.Ordering) == 0 {
			errs = append(errs, fmt.Errorf("endpoints.%s: paginated endpoints need a default ordering", name))
		}
	}
	if c.Reload.PollIntervalMs < 0 {
		errs = append(errs, errors.New("reload.pollIntervalMs: must not be negative"))
	}
	if c.Throttle.Store == "redis" && c.Redis.Addr == "" && len(c.Redis.Addrs) == 0 {
		errs = append(errs, errors.New("redis: address is required when throttle.store is redis"))
	}
	return errors.Join(errs...)
}
