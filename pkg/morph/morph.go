// Package morph maps model types to the stable short keys stored in
// polymorphic columns (detailable_type, notifiable_type, auditable_type, ...).
package morph

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

type Registry struct {
	mu     sync.RWMutex
	byKey  map[string]reflect.Type
	byType map[reflect.Type]string
}

func NewRegistry() *Registry {
	return &Registry{
		byKey:  make(map[string]reflect.Type),
		byType: make(map[reflect.Type]string),
	}
}

// Register binds key to the type of model. Pointer and value forms resolve to the same key.
func (r *Registry) Register(key string, model any) error {
	if key == "" {
		return fmt.Errorf("morph: empty key")
	}
	t := typeOf(model)
	if t == nil {
		return fmt.Errorf("morph: nil model for key %q", key)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byKey[key]; ok && existing != t {
		return fmt.Errorf("morph: key %q already bound to %s", key, existing)
	}
	if existing, ok := r.byType[t]; ok && existing != key {
		return fmt.Errorf("morph: %s already bound to key %q", t, existing)
	}
	r.byKey[key] = t
	r.byType[t] = key
	return nil
}

func (r *Registry) MustRegister(key string, model any) {
	if err := r.Register(key, model); err != nil {
		panic(err)
	}
}

// KeyOf is the reverse lookup from a model (or its type) to its key.
func (r *Registry) KeyOf(model any) (string, bool) {
	t := typeOf(model)
	if t == nil {
		return "", false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	key, ok := r.byType[t]
	return key, ok
}

func (r *Registry) MustKeyOf(model any) string {
	key, ok := r.KeyOf(model)
	if !ok {
		panic(fmt.Sprintf("morph: %s is not registered", typeOf(model)))
	}
	return key
}

func (r *Registry) TypeOf(key string) (reflect.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byKey[key]
	return t, ok
}

func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.byKey))
	for k := range r.byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func typeOf(model any) reflect.Type {
	if model == nil {
		return nil
	}
	t, ok := model.(reflect.Type)
	if !ok {
		t = reflect.TypeOf(model)
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}
