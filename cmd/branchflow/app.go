package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/branchflow"
	"github.com/aretw0/branchflow/internal/config"
	"github.com/aretw0/branchflow/internal/metrics"
	"github.com/aretw0/branchflow/pkg/adapters/file"
	"github.com/aretw0/branchflow/pkg/adapters/memory"
	redisAdapter "github.com/aretw0/branchflow/pkg/adapters/redis"
	"github.com/aretw0/branchflow/pkg/domain"
	"github.com/aretw0/branchflow/pkg/flowfile"
	"github.com/aretw0/branchflow/pkg/persistence/middleware"
	"github.com/aretw0/branchflow/pkg/ports"
)

// newEngine builds the analysis engine from the loaded config.
func newEngine(c config.Config, hooks ...domain.AnalysisHooks) *branchflow.Engine {
	opts := []branchflow.Option{
		branchflow.WithLogger(logger),
		branchflow.WithCycleMode(c.CycleMode()),
		branchflow.WithMultipleStartCheck(c.Analysis.MultipleStart),
	}
	if c.Analysis.NodeWidth > 0 {
		opts = append(opts, branchflow.WithNodeWidth(c.Analysis.NodeWidth))
	}
	if len(hooks) > 0 {
		opts = append(opts, branchflow.WithHooks(metrics.Combine(hooks...)))
	}
	return branchflow.New(opts...)
}

// backend is the configured flow store plus, for redis, its locker.
type backend struct {
	store  ports.FlowStore
	locker ports.DistributedLocker
	close  func() error
}

func openBackend(c config.Config) (*backend, error) {
	b, err := openStore(c)
	if err != nil {
		return nil, err
	}
	if !c.Store.Encryption.Enabled() {
		return b, nil
	}

	active, fallback, err := c.Store.Encryption.Keys()
	if err != nil {
		return nil, err
	}
	mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    active,
		FallbackKeys: fallback,
	})
	if err != nil {
		return nil, err
	}
	b.store = middleware.Chain(b.store, mw)
	return b, nil
}

func openStore(c config.Config) (*backend, error) {
	switch c.Store.Backend {
	case config.BackendMemory:
		return &backend{store: memory.NewStore(), close: func() error { return nil }}, nil
	case config.BackendFile:
		return &backend{store: file.New(c.Store.Dir), close: func() error { return nil }}, nil
	case config.BackendRedis:
		prefix := c.Store.Redis.Prefix
		if prefix == "" {
			prefix = redisAdapter.DefaultPrefix
		}
		opts := []redisAdapter.Option{redisAdapter.WithPrefix(prefix)}
		if c.Store.Redis.TTL > 0 {
			opts = append(opts, redisAdapter.WithTTL(c.Store.Redis.TTL))
		}
		store := redisAdapter.New(c.Store.Redis.Addr, c.Store.Redis.Password, c.Store.Redis.DB, opts...)
		return &backend{
			store:  store,
			locker: redisAdapter.NewLocker(store.Client(), prefix),
			close:  store.Close,
		}, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", c.Store.Backend)
}

// loadFlow reads a flow from a directory of node documents, a JSON/YAML file,
// or stdin when path is "-".
func loadFlow(ctx context.Context, path string, stdin io.Reader) (domain.Flow, error) {
	if path == "-" {
		return flowfile.Read(stdin, flowfile.FormatJSON)
	}

	info, err := os.Stat(path)
	if err != nil {
		return domain.Flow{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	if info.IsDir() {
		logger.Debug("Loading flow directory", "dir", path)
		return branchflow.LoadDir(ctx, path)
	}
	return flowfile.Load(path)
}

// flowName labels reports: the path, or "stdin".
func flowName(path string) string {
	if path == "-" {
		return "stdin"
	}
	return path
}

// openOutput returns stdout for "" or "-", otherwise creates path.
func openOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	return f, f.Close, nil
}
