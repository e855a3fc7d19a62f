package storage

import (
	"context"
	"testing"
	"time"

	"github.com/UnendingLoop/ImageBatcher/internal/storage/localstorage"
	"github.com/UnendingLoop/ImageBatcher/internal/storage/miniostorage"
	"github.com/stretchr/testify/require"
)

func TestNewOutputStorage(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	for _, backend := range []string{"", BackendLocal} {
		s, err := NewOutputStorage(ctx, backend, dir, miniostorage.Config{}, 1, time.Millisecond)
		require.NoError(t, err)
		require.IsType(t, &localstorage.FileSystem{}, s)
	}

	_, err := NewOutputStorage(ctx, "ftp", dir, miniostorage.Config{}, 1, time.Millisecond)
	require.Error(t, err)
}

func TestNewOutputStorage_MinioCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// an invalid endpoint fails fast inside minio.New, the cancelled context stops the retry loop
	_, err := NewOutputStorage(ctx, BackendMinio, "", miniostorage.Config{Addr: "bad addr:::"}, 3, time.Hour)
	require.ErrorIs(t, err, context.Canceled)
}
