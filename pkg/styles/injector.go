// Package styles renders inline style blocks that must appear at most once
// per page.
package styles

import (
	"fmt"
	"html"
	"strings"
	"sync"
)

// Injector collects style blocks keyed by element id.
type Injector struct {
	order []string
	css   map[string]string
	mu    sync.Mutex
}

// NewInjector creates an empty injector.
func NewInjector() *Injector {
	return &Injector{
		css: make(map[string]string),
	}
}

// Inject adds a style block unless one with the same id exists.
// It reports whether the block was added.
func (in *Injector) Inject(id, css string) bool {
	in.mu.Lock()
	defer in.mu.Unlock()

	if _, ok := in.css[id]; ok {
		return false
	}
	in.css[id] = css
	in.order = append(in.order, id)
	return true
}

// Has reports whether id was injected.
func (in *Injector) Has(id string) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	_, ok := in.css[id]
	return ok
}

// Head renders every block as a <style> element, in injection order.
func (in *Injector) Head() string {
	in.mu.Lock()
	defer in.mu.Unlock()

	var sb strings.Builder
	for _, id := range in.order {
		sb.WriteString(fmt.Sprintf(`<style id="%s">`, html.EscapeString(id)))
		sb.WriteString(in.css[id])
		sb.WriteString("</style>\n")
	}
	return sb.String()
}
