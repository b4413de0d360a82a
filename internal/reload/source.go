package reload

import (
	"context"
	"fmt"
	"os"
)

import (
	"github.com/nanjiek/pixiu-cats/internal/config"
	"github.com/nanjiek/pixiu-cats/internal/util"
)

// Payload is a parsed configuration and a version identifying its content.
type Payload struct {
	Config  *config.Config
	Version string
}

// Source fetches the current configuration.
type Source interface {
	Fetch(ctx context.Context) (Payload, error)
}

// FileSource reads a YAML config file. The version is a hash of the file
// bytes, so touching the file without editing it is not a change.
type FileSource struct {
	Path string
}

func (f FileSource) Fetch(ctx context.Context) (Payload, error) {
	if err := ctx.Err(); err != nil {
		return Payload{}, err
	}
	b, err := os.ReadFile(f.Path)
	if err != nil {
		return Payload{}, fmt.Errorf("read %s: %w", f.Path, err)
	}
	cfg, err := config.Parse(b)
	if err != nil {
		return Payload{}, fmt.Errorf("parse %s: %w", f.Path, err)
	}
	return Payload{Config: cfg, Version: util.FNV64(string(b))}, nil
}
