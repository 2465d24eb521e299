// Package testing drives live components in unit tests without a browser or
// a WebSocket connection.
package testing

import (
	"bytes"
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/gabrielmiguelok/slidedeck/pkg/core"
)

// LiveViewTest is a harness around one mounted component.
type LiveViewTest struct {
	component core.Component
	socket    *MockSocket
	params    core.Params
	session   core.Session
	rendered  string
	events    []core.Event
	t         *testing.T
}

// MountOption configures the test mount.
type MountOption func(*LiveViewTest)

// WithParams sets mount parameters.
func WithParams(params core.Params) MountOption {
	return func(lvt *LiveViewTest) {
		lvt.params = params
	}
}

// WithSession sets session data.
func WithSession(session core.Session) MountOption {
	return func(lvt *LiveViewTest) {
		lvt.session = session
	}
}

// Mount mounts comp behind a mock socket and renders it once.
func Mount(t *testing.T, comp core.Component, opts ...MountOption) *LiveViewTest {
	t.Helper()

	lvt := &LiveViewTest{
		component: comp,
		socket:    NewMockSocket(),
		params:    core.Params{},
		session:   core.Session{},
		t:         t,
	}
	for _, opt := range opts {
		opt(lvt)
	}

	socket := core.NewSocket(lvt.socket.ID, lvt.socket)
	if setter, ok := comp.(interface{ SetSocket(*core.Socket) }); ok {
		setter.SetSocket(socket)
	}

	ctx := core.BuildContext(context.Background(), socket, lvt.session, lvt.params)
	if err := comp.Mount(ctx, lvt.params, lvt.session); err != nil {
		t.Fatalf("Mount failed: %v", err)
	}

	lvt.render()
	return lvt
}

// EventOption configures an event.
type EventOption func(*core.Event)

// WithPayload merges payload into the event.
func WithPayload(payload map[string]any) EventOption {
	return func(e *core.Event) {
		for k, v := range payload {
			e.Payload[k] = v
		}
	}
}

// WithValue sets one payload value, the way lv-value-* attributes do.
func WithValue(key string, value any) EventOption {
	return func(e *core.Event) {
		e.Payload[key] = value
	}
}

// Push sends a named event and re-renders.
func (lvt *LiveViewTest) Push(event string, opts ...EventOption) *LiveViewTest {
	lvt.t.Helper()

	e := core.Event{Type: event, Payload: make(map[string]any)}
	for _, opt := range opts {
		opt(&e)
	}
	lvt.pushEvent(e)
	return lvt
}

// Click sends the event named by an lv-click attribute.
func (lvt *LiveViewTest) Click(event string, opts ...EventOption) *LiveViewTest {
	lvt.t.Helper()
	return lvt.Push(event, opts...)
}

// Keydown sends a keydown event carrying key.
func (lvt *LiveViewTest) Keydown(key string) *LiveViewTest {
	lvt.t.Helper()
	return lvt.Push("keydown", WithValue("key", key))
}

// PushError sends an event that is expected to fail and returns the error.
func (lvt *LiveViewTest) PushError(event string, opts ...EventOption) error {
	lvt.t.Helper()

	e := core.Event{Type: event, Payload: make(map[string]any)}
	for _, opt := range opts {
		opt(&e)
	}
	lvt.events = append(lvt.events, e)

	err := lvt.component.HandleEvent(lvt.context(), e.Type, e.Payload)
	if err == nil {
		lvt.t.Errorf("expected %s to fail", event)
	}
	lvt.render()
	return err
}

func (lvt *LiveViewTest) pushEvent(e core.Event) {
	lvt.t.Helper()
	lvt.events = append(lvt.events, e)

	if err := lvt.component.HandleEvent(lvt.context(), e.Type, e.Payload); err != nil {
		lvt.t.Errorf("HandleEvent(%s) failed: %v", e.Type, err)
		return
	}
	lvt.render()
}

func (lvt *LiveViewTest) context() context.Context {
	return core.BuildContext(context.Background(), nil, lvt.session, lvt.params)
}

func (lvt *LiveViewTest) render() {
	lvt.t.Helper()

	ctx := lvt.context()
	renderer := lvt.component.Render(ctx)
	if renderer == nil {
		lvt.t.Fatal("Render returned nil")
	}

	var buf bytes.Buffer
	if err := renderer.Render(ctx, &buf); err != nil {
		lvt.t.Fatalf("Render failed: %v", err)
	}
	lvt.rendered = buf.String()
}

// Rendered returns the current rendered HTML.
func (lvt *LiveViewTest) Rendered() string {
	return lvt.rendered
}

// AssertHasElement verifies a fragment such as `id="about"` is rendered.
func (lvt *LiveViewTest) AssertHasElement(fragment string) *LiveViewTest {
	lvt.t.Helper()

	if !strings.Contains(lvt.rendered, fragment) {
		lvt.t.Errorf("Element not found: %s\nRendered HTML:\n%s", fragment, lvt.rendered)
	}
	return lvt
}

// AssertText verifies the rendered output contains text.
func (lvt *LiveViewTest) AssertText(text string) *LiveViewTest {
	lvt.t.Helper()

	if !strings.Contains(lvt.rendered, text) {
		lvt.t.Errorf("Text not found: %q\nRendered HTML:\n%s", text, lvt.rendered)
	}
	return lvt
}

// AssertNoText verifies the rendered output does not contain text.
func (lvt *LiveViewTest) AssertNoText(text string) *LiveViewTest {
	lvt.t.Helper()

	if strings.Contains(lvt.rendered, text) {
		lvt.t.Errorf("Text should not exist: %q", text)
	}
	return lvt
}

// AssertAssign verifies an assign value on components exposing Assigns().
func (lvt *LiveViewTest) AssertAssign(key string, expected any) *LiveViewTest {
	lvt.t.Helper()

	getter, ok := lvt.component.(interface{ Assigns() *core.Assigns })
	if !ok {
		lvt.t.Fatalf("component %s does not expose assigns", lvt.component.Name())
	}

	actual := getter.Assigns().Get(key)
	if !reflect.DeepEqual(actual, expected) {
		lvt.t.Errorf("Assign %s mismatch:\n  Expected: %v (%T)\n  Actual:   %v (%T)",
			key, expected, expected, actual, actual)
	}
	return lvt
}

// HTML returns an HTMLAssert over the current render.
func (lvt *LiveViewTest) HTML() *HTMLAssert {
	return NewHTMLAssert(lvt.t, lvt.rendered)
}

// Socket returns the mock socket.
func (lvt *LiveViewTest) Socket() *MockSocket {
	return lvt.socket
}

// Component returns the component under test.
func (lvt *LiveViewTest) Component() core.Component {
	return lvt.component
}

// Events returns all events that were pushed.
func (lvt *LiveViewTest) Events() []core.Event {
	return lvt.events
}

// Close terminates the component.
func (lvt *LiveViewTest) Close() {
	if err := lvt.component.Terminate(lvt.context(), core.TerminateNormal); err != nil {
		lvt.t.Errorf("Terminate failed: %v", err)
	}
}
