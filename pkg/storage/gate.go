package storage

import (
	"context"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/studynotes-api/pkg/errors"
)

// Gate hands out the process-wide blob store once its connection is ready.
// Until Open is called, Store fails fast with ErrStoreNotReady.
type Gate struct {
	mu    sync.RWMutex
	store BlobStore
}

// NewGate returns a closed gate.
func NewGate() *Gate {
	return &Gate{}
}

// Open publishes a connected store to callers.
func (g *Gate) Open(store BlobStore) {
	g.mu.Lock()
	g.store = store
	g.mu.Unlock()
}

// Store returns the connected store or ErrStoreNotReady.
func (g *Gate) Store() (BlobStore, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.store == nil {
		return nil, appErrors.ErrStoreNotReady
	}
	return g.store, nil
}

// Ready reports whether the store has been published.
func (g *Gate) Ready() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.store != nil
}

// Close shuts the gate and releases the store when it holds resources.
func (g *Gate) Close(ctx context.Context) error {
	g.mu.Lock()
	store := g.store
	g.store = nil
	g.mu.Unlock()

	switch s := store.(type) {
	case interface{ Disconnect(context.Context) error }:
		return s.Disconnect(ctx)
	case io.Closer:
		return s.Close()
	}
	return nil
}

// Connect dials the backend until it succeeds or ctx ends, then opens the gate.
func Connect(ctx context.Context, gate *Gate, dial DialFunc, retry time.Duration, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if retry <= 0 {
		retry = 5 * time.Second
	}

	for attempt := 1; ; attempt++ {
		store, err := dial(ctx)
		if err == nil {
			gate.Open(store)
			logger.Info("blob store ready", zap.Int("attempt", attempt))
			return nil
		}
		logger.Warn("blob store not reachable, retrying", zap.Int("attempt", attempt), zap.Duration("retry_in", retry), zap.Error(err))

		timer := time.NewTimer(retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
