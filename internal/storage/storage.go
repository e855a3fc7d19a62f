// Package storage picks and connects the output backend of a batch run
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/UnendingLoop/ImageBatcher/internal/storage/localstorage"
	"github.com/UnendingLoop/ImageBatcher/internal/storage/miniostorage"
	"github.com/wb-go/wbf/zlog"
)

const (
	BackendLocal = "local"
	BackendMinio = "minio"
)

// OutputStorage receives encoded results keyed by "<subfolder>/<file name>".
type OutputStorage interface {
	EnsureDir(ctx context.Context, dir string) error
	Put(ctx context.Context, key string, size int64, contentType string, r io.Reader) error
}

// NewOutputStorage returns the local filesystem rooted at localRoot or a MinIO
// client; the MinIO connection is retried attempts times, delay apart.
func NewOutputStorage(ctx context.Context, backend, localRoot string, mcfg miniostorage.Config, attempts int, delay time.Duration) (OutputStorage, error) {
	switch backend {
	case "", BackendLocal:
		return localstorage.New(localRoot), nil
	case BackendMinio:
	default:
		return nil, fmt.Errorf("unknown output backend %q", backend)
	}

	var lastErr error
	for i := range max(attempts, 1) {
		zlog.Logger.Info().Int("attempt", i+1).Str("addr", mcfg.Addr).Msg("Connecting to IMG-storage...")
		client, err := miniostorage.NewMinioClient(ctx, mcfg)
		if err == nil {
			zlog.Logger.Info().Msg("Successfully connected IMG-storage!")
			return client, nil
		}
		lastErr = err
		zlog.Logger.Warn().Err(err).Dur("retry_in", delay).Msg("Failed to init connection to IMG-storage")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	return nil, fmt.Errorf("connect to IMG-storage: %w", lastErr)
}
