package pipeline

import (
	"context"
	"io"
	"io/fs"
	"sync"

	"github.com/UnendingLoop/ImageBatcher/internal/model"
)

type mockSource struct {
	listFn func(ctx context.Context, dir string) ([]string, error)
	openFn func(ctx context.Context, path string) (io.ReadCloser, error)
	statFn func(path string) (fs.FileInfo, error)
}

func (m *mockSource) List(ctx context.Context, dir string) ([]string, error) {
	return m.listFn(ctx, dir)
}

func (m *mockSource) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	return m.openFn(ctx, path)
}

func (m *mockSource) Stat(path string) (fs.FileInfo, error) {
	return m.statFn(path)
}

type mockStorage struct {
	ensureDirFn func(ctx context.Context, dir string) error
	putFn       func(ctx context.Context, key string, size int64, contentType string, r io.Reader) error
}

func (m *mockStorage) EnsureDir(ctx context.Context, dir string) error {
	return m.ensureDirFn(ctx, dir)
}

func (m *mockStorage) Put(ctx context.Context, key string, size int64, contentType string, r io.Reader) error {
	return m.putFn(ctx, key, size, contentType, r)
}

type mockPublisher struct {
	mu        sync.Mutex
	sent      []model.FileResult
	err       error
	publishFn func(ctx context.Context, res model.FileResult)
}

func (m *mockPublisher) Publish(ctx context.Context, res model.FileResult) error {
	m.mu.Lock()
	m.sent = append(m.sent, res)
	m.mu.Unlock()

	if m.publishFn != nil {
		m.publishFn(ctx, res)
	}
	return m.err
}

func (m *mockPublisher) results() []model.FileResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.FileResult(nil), m.sent...)
}
