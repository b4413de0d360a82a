// Package reload applies configuration changes to a running service,
// either on demand or by polling a Source.
package reload

import (
	"context"
	"sync"
	"time"
)

import (
	"go.uber.org/zap"
)

import (
	"github.com/nanjiek/pixiu-cats/internal/config"
)

// Applier installs a new configuration. admission.Registry implements it.
type Applier interface {
	Reload(cfg *config.Config) error
}

// Poller periodically pulls the configuration and applies it when its
// version changes. A failed fetch or apply keeps the last good config.
type Poller struct {
	source   Source
	target   Applier
	interval time.Duration
	lastVer  string
	log      *zap.Logger
	mu       sync.Mutex
}

func NewPoller(src Source, target Applier, interval time.Duration, logger *zap.Logger) *Poller {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{source: src, target: target, interval: interval, log: logger}
}

// SyncOnce pulls and applies once. It reports whether a new version was
// applied.
func (p *Poller) SyncOnce(ctx context.Context) (bool, error) {
	return p.pull(ctx)
}

// Start records the current version, then polls until ctx is done.
func (p *Poller) Start(ctx context.Context) {
	if _, err := p.pull(ctx); err != nil {
		p.log.Warn("config pull failed on startup", zap.Error(err))
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := p.pull(ctx); err != nil {
				p.log.Warn("config pull failed", zap.Error(err))
			}
		}
	}
}

// Prime marks version as already applied, so the first poll after startup
// does not rebuild what was just built.
func (p *Poller) Prime(version string) {
	p.mu.Lock()
	p.lastVer = version
	p.mu.Unlock()
}

func (p *Poller) pull(ctx context.Context) (bool, error) {
	payload, err := p.source.Fetch(ctx)
	if err != nil {
		return false, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if payload.Version != "" && payload.Version == p.lastVer {
		return false, nil
	}
	if err := p.target.Reload(payload.Config); err != nil {
		return false, err
	}
	p.lastVer = payload.Version
	p.log.Info("config applied", zap.String("version", payload.Version))
	return true, nil
}
