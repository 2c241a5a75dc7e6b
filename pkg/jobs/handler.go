package jobs

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

type Handler interface {
	Handle(ctx context.Context, d Delivery) error
}

type HandlerFunc func(ctx context.Context, d Delivery) error

func (f HandlerFunc) Handle(ctx context.Context, d Delivery) error {
	return f(ctx, d)
}

// Mux routes deliveries to the handler registered for their kind.
type Mux struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewMux() *Mux {
	return &Mux{handlers: map[string]Handler{}}
}

func (m *Mux) Handle(kind string, h Handler) {
	if kind == "" {
		panic("jobs: empty kind")
	}
	if h == nil {
		panic("jobs: nil handler for " + kind)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.handlers[kind]; dup {
		panic("jobs: duplicate handler for " + kind)
	}
	m.handlers[kind] = h
}

func (m *Mux) HandleFunc(kind string, fn func(ctx context.Context, d Delivery) error) {
	if fn == nil {
		panic("jobs: nil handler for " + kind)
	}
	m.Handle(kind, HandlerFunc(fn))
}

func (m *Mux) Kinds() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.handlers))
	for k := range m.handlers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Dispatch has the shape of HandlerFunc. Unknown kinds fail permanently.
func (m *Mux) Dispatch(ctx context.Context, d Delivery) error {
	m.mu.RLock()
	h, ok := m.handlers[d.Meta.Kind]
	m.mu.RUnlock()
	if !ok {
		return Permanent(fmt.Errorf("%w: %q", ErrNoHandler, d.Meta.Kind))
	}
	return h.Handle(ctx, d)
}
