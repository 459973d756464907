// Package plugin holds the named-function registry the kernel pipeline
// resolves its capabilities through. Adding a capability means registering
// one more function under a (group, name) key, not touching the pipeline.
package plugin

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	contractx "github.com/kittipos/callroom/rag/contract"
)

// Func is the uniform plugin calling convention: string inputs in, one
// string payload out. Structured payloads are JSON-encoded by convention.
type Func func(ctx context.Context, inputs map[string]string) (string, error)

// Key identifies a registered function.
type Key struct {
	Group string
	Name  string
}

func (k Key) String() string {
	return k.Group + "." + k.Name
}

// Registry is a concurrency-safe (group, name) → Func table. Registration
// normally happens once during startup; the lock keeps late re-registration
// safe against concurrent Invoke calls.
type Registry struct {
	mu    sync.RWMutex
	funcs map[Key]Func
	order []Key
}

func NewRegistry() *Registry {
	return &Registry{funcs: make(map[Key]Func)}
}

// Register stores fn under (group, name) and returns the previously
// registered function, if any. Re-registration is last-write-wins and is
// logged so a collision is deterministic, never silent.
func (r *Registry) Register(group, name string, fn Func) (prev Func, replaced bool) {
	key := Key{Group: group, Name: name}

	r.mu.Lock()
	defer r.mu.Unlock()

	prev, replaced = r.funcs[key]
	r.funcs[key] = fn
	if replaced {
		log.Warn().Str("plugin", key.String()).Msg("plugin re-registered, previous function replaced")
	} else {
		r.order = append(r.order, key)
	}
	return prev, replaced
}

// Invoke looks up (group, name) and calls it. A missing key fails with
// ErrPluginNotFound; a function failure is wrapped in ErrPluginExecution so
// callers can tell the two apart.
func (r *Registry) Invoke(ctx context.Context, group, name string, inputs map[string]string) (string, error) {
	key := Key{Group: group, Name: name}

	r.mu.RLock()
	fn, ok := r.funcs[key]
	r.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("%w: %s", contractx.ErrPluginNotFound, key)
	}

	out, err := fn(ctx, inputs)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", contractx.ErrPluginExecution, key, err)
	}
	return out, nil
}

// List returns the registered keys in first-registration order. Overwriting
// a key keeps its original position.
func (r *Registry) List() []Key {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Key(nil), r.order...)
}
