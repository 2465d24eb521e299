package core

import (
	"reflect"
	"sort"
	"sync"
)

// Assigns is a thread-safe store for the values a component exposes to
// templates and tests. It remembers which keys changed since the last render.
type Assigns struct {
	data    map[string]any
	changed map[string]bool
	mu      sync.RWMutex
}

// NewAssigns creates a new assigns store.
func NewAssigns() *Assigns {
	return &Assigns{
		data:    make(map[string]any),
		changed: make(map[string]bool),
	}
}

// Get retrieves a value from the store.
func (a *Assigns) Get(key string) any {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.data[key]
}

// GetString retrieves a string value.
func (a *Assigns) GetString(key string) string {
	if v, ok := a.Get(key).(string); ok {
		return v
	}
	return ""
}

// GetBool retrieves a bool value.
func (a *Assigns) GetBool(key string) bool {
	if v, ok := a.Get(key).(bool); ok {
		return v
	}
	return false
}

// Set stores a value. The key is marked changed only when the value differs.
func (a *Assigns) Set(key string, value any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.set(key, value)
}

// SetAll sets multiple values at once.
func (a *Assigns) SetAll(values map[string]any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for key, value := range values {
		a.set(key, value)
	}
}

func (a *Assigns) set(key string, value any) {
	if prev, ok := a.data[key]; ok && reflect.DeepEqual(prev, value) {
		return
	}
	a.data[key] = value
	a.changed[key] = true
}

// Data returns a shallow copy of all data.
func (a *Assigns) Data() map[string]any {
	a.mu.RLock()
	defer a.mu.RUnlock()

	result := make(map[string]any, len(a.data))
	for k, v := range a.data {
		result[k] = v
	}
	return result
}

// HasChanges reports whether any key changed since the last call to Changed.
func (a *Assigns) HasChanges() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.changed) > 0
}

// Changed returns the sorted keys changed since the previous call and
// clears the tracking.
func (a *Assigns) Changed() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	keys := make([]string, 0, len(a.changed))
	for k := range a.changed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	a.changed = make(map[string]bool)
	return keys
}
