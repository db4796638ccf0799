package http

import (
	"fmt"
	"sync"
	"time"

	"sgdreg/ml"
)

// ModelHolder publishes the model being served. Published models are never mutated;
// a reload replaces the pointer and bumps the version.
type ModelHolder struct {
	path string

	mu       sync.RWMutex
	model    *ml.LinearRegression
	version  uint64
	loadedAt time.Time
}

// NewModelHolder loads the model at path.
func NewModelHolder(path string) (*ModelHolder, error) {
	h := &ModelHolder{path: path}
	if err := h.Reload(); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *ModelHolder) Path() string {
	return h.path
}

// Snapshot returns the current model and its version.
func (h *ModelHolder) Snapshot() (*ml.LinearRegression, uint64) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.model, h.version
}

func (h *ModelHolder) LoadedAt() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.loadedAt
}

// Reload reads the model file again. On failure the current model stays in place.
func (h *ModelHolder) Reload() error {
	model, err := ml.Load(h.path)
	if err != nil {
		return fmt.Errorf("reload model: %w", err)
	}
	h.Swap(model)
	return nil
}

func (h *ModelHolder) Swap(model *ml.LinearRegression) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.model = model.Clone()
	h.version++
	h.loadedAt = time.Now()
}
