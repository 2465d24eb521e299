package slides

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/gabrielmiguelok/slidedeck/pkg/logging"
)

type fakePanel struct {
	id      string
	visible bool
	scroll  int
	hides   int
}

func (p *fakePanel) Show()         { p.visible = true }
func (p *fakePanel) Hide()         { p.visible = false; p.hides++ }
func (p *fakePanel) ResetScroll()  { p.scroll = 0 }
func (p *fakePanel) Visible() bool { return p.visible }

type fakeLink struct {
	label  string
	active bool
}

func (l *fakeLink) Label() string     { return l.label }
func (l *fakeLink) SetActive(on bool) { l.active = on }
func (l *fakeLink) Active() bool      { return l.active }

type fixture struct {
	switcher *Switcher
	panels   map[Name]*fakePanel
	links    []*fakeLink
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	f := &fixture{panels: make(map[Name]*fakePanel)}
	entries := make([]NavEntry, 0, len(DefaultOrder))
	bindings := make([]Binding, 0, len(DefaultOrder))
	for _, name := range DefaultOrder {
		// Navigation text is written the way a page would show it.
		link := &fakeLink{label: " " + string(name[:1]) + strings.ToLower(string(name[1:])) + " "}
		panel := &fakePanel{id: strings.ToLower(string(name)), scroll: 120}
		f.links = append(f.links, link)
		f.panels[name] = panel
		entries = append(entries, link)
		bindings = append(bindings, Binding{Name: name, Container: panel})
	}
	f.switcher = New(entries, bindings, opts...)
	return f
}

func (f *fixture) assertOnly(t *testing.T, want Name) {
	t.Helper()

	if got := f.switcher.Current(); got != want {
		t.Fatalf("current = %s, want %s", got, want)
	}

	visible := 0
	for name, p := range f.panels {
		if p.visible {
			visible++
			if name != want {
				t.Errorf("section %s visible, want only %s", name, want)
			}
		}
	}
	if visible != 1 {
		t.Errorf("visible sections = %d, want 1", visible)
	}

	active := 0
	for _, l := range f.links {
		if l.active {
			active++
			if Normalize(l.label) != want {
				t.Errorf("nav entry %q active, want %s", l.label, want)
			}
		}
	}
	if active != 1 {
		t.Errorf("active nav entries = %d, want 1", active)
	}
}

func TestNew_ActivatesHome(t *testing.T) {
	f := newFixture(t)

	f.assertOnly(t, Home)
	if f.panels[Home].scroll != 0 {
		t.Errorf("home scroll = %d, want 0", f.panels[Home].scroll)
	}
	for _, name := range DefaultOrder[1:] {
		if f.panels[name].hides == 0 {
			t.Errorf("section %s was never hidden at init", name)
		}
	}
}

func TestNew_WithDefault(t *testing.T) {
	f := newFixture(t, WithDefault(Works))
	f.assertOnly(t, Works)
}

func TestActivate_EverySection(t *testing.T) {
	for _, name := range DefaultOrder {
		t.Run(string(name), func(t *testing.T) {
			f := newFixture(t)
			if !f.switcher.Activate(string(name)) {
				t.Fatalf("Activate(%s) = false", name)
			}
			f.assertOnly(t, name)
		})
	}
}

func TestActivate_MixedCase(t *testing.T) {
	f := newFixture(t)

	if !f.switcher.Activate("services") {
		t.Fatal("Activate(services) = false")
	}
	f.assertOnly(t, Services)
	if f.panels[Home].visible {
		t.Error("home still visible")
	}
}

func TestActivate_SameSectionTwice(t *testing.T) {
	f := newFixture(t)

	f.switcher.Activate("about")
	f.panels[About].scroll = 300
	f.switcher.Activate("ABOUT")

	f.assertOnly(t, About)
	if f.panels[About].scroll != 0 {
		t.Errorf("scroll = %d, want reset to 0", f.panels[About].scroll)
	}
}

func TestActivate_Unmapped(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewSlogLogger(logging.WithOutput(&buf), logging.WithLevel(slog.LevelDebug))
	f := newFixture(t, WithLogger(logger))
	f.switcher.Activate("contact")

	before := make(map[Name]bool)
	for name, p := range f.panels {
		before[name] = p.visible
	}

	if f.switcher.Activate("NONEXISTENT") {
		t.Fatal("Activate(NONEXISTENT) = true, want false")
	}

	f.assertOnly(t, Contact)
	for name, p := range f.panels {
		if p.visible != before[name] {
			t.Errorf("section %s visibility changed", name)
		}
	}
	if !strings.Contains(buf.String(), "NONEXISTENT") {
		t.Errorf("expected diagnostic naming the section, got:\n%s", buf.String())
	}
}

func TestActivateRelative(t *testing.T) {
	tests := []struct {
		name  string
		start Name
		dir   Direction
		want  Name
	}{
		{"next from home", Home, Next, About},
		{"previous from services", Services, Previous, About},
		{"next wraps", Contact, Next, Home},
		{"previous wraps", Home, Previous, Contact},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.switcher.Activate(string(tt.start))

			got := f.switcher.ActivateRelative(tt.dir)
			if got != tt.want {
				t.Errorf("ActivateRelative(%s) = %s, want %s", tt.dir, got, tt.want)
			}
			f.assertOnly(t, tt.want)
		})
	}
}

func TestActivateRelative_CyclicClosure(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < len(DefaultOrder); i++ {
		f.switcher.ActivateRelative(Next)
	}
	f.assertOnly(t, Home)

	for i := 0; i < len(DefaultOrder); i++ {
		f.switcher.ActivateRelative(Previous)
	}
	f.assertOnly(t, Home)
}

func TestActivateRelative_Inverse(t *testing.T) {
	for _, start := range DefaultOrder {
		f := newFixture(t)
		f.switcher.Activate(string(start))

		f.switcher.ActivateRelative(Next)
		f.switcher.ActivateRelative(Previous)
		f.assertOnly(t, start)

		f.switcher.ActivateRelative(Previous)
		f.switcher.ActivateRelative(Next)
		f.assertOnly(t, start)
	}
}

func TestAddSection(t *testing.T) {
	f := newFixture(t)
	f.switcher.Activate("blogs")

	extra := &fakePanel{id: "faq", visible: true}
	f.switcher.AddSection("faq", extra)

	if extra.visible {
		t.Error("added section should start hidden")
	}
	if f.switcher.Current() != Blogs {
		t.Errorf("current = %s, want BLOGS", f.switcher.Current())
	}

	names := f.switcher.Names()
	if names[len(names)-1] != "FAQ" {
		t.Errorf("last name = %s, want FAQ", names[len(names)-1])
	}

	if !f.switcher.Activate("faq") {
		t.Fatal("Activate(faq) = false")
	}
	if !extra.visible {
		t.Error("added section not visible after activation")
	}
	for name, p := range f.panels {
		if p.visible {
			t.Errorf("section %s still visible", name)
		}
	}
}

// Added sections have no navigation entry, so while one is current no entry
// is marked; returning to a configured section marks its entry again.
func TestAddSection_CurrentHasNoEntry(t *testing.T) {
	f := newFixture(t)
	f.switcher.AddSection("faq", &fakePanel{id: "faq"})

	active := func() int {
		n := 0
		for _, l := range f.links {
			if l.Active() {
				n++
			}
		}
		return n
	}

	if !f.switcher.Activate("faq") {
		t.Fatal("Activate(faq) = false")
	}
	if n := active(); n != 0 {
		t.Errorf("%d entries active while FAQ is current, want 0", n)
	}

	f.switcher.ActivateRelative(Next)
	if f.switcher.Current() != Home {
		t.Fatalf("current = %s, want HOME after wrapping", f.switcher.Current())
	}
	if n := active(); n != 1 || !f.links[0].Active() {
		t.Errorf("only the Home entry should be active, %d active", n)
	}
}

func TestAddSection_ReplacesContainer(t *testing.T) {
	f := newFixture(t)
	replacement := &fakePanel{id: "works-v2"}

	f.switcher.AddSection(Works, replacement)

	if got := f.switcher.Len(); got != len(DefaultOrder) {
		t.Errorf("Len() = %d, want %d", got, len(DefaultOrder))
	}
	c, _ := f.switcher.Container(Works)
	if c != replacement {
		t.Error("last write should win")
	}

	f.switcher.Activate("works")
	if !replacement.visible || f.panels[Works].visible {
		t.Error("replacement container should be the visible one")
	}
}

func TestAddSection_ReplacesCurrent(t *testing.T) {
	f := newFixture(t)
	replacement := &fakePanel{id: "home-v2"}

	f.switcher.AddSection(Home, replacement)

	if f.panels[Home].visible {
		t.Error("old home container still visible")
	}
	if !replacement.visible {
		t.Error("replacement of the current section should be shown")
	}
}

func TestHandleClick(t *testing.T) {
	f := newFixture(t)

	if !f.switcher.HandleClick("  Contact\n") {
		t.Fatal("HandleClick(Contact) = false")
	}
	f.assertOnly(t, Contact)

	if f.switcher.HandleClick("Pricing") {
		t.Error("HandleClick(Pricing) = true, want false")
	}
	f.assertOnly(t, Contact)
}

func TestHandleKey(t *testing.T) {
	tests := []struct {
		key         string
		intercepted bool
		want        Name
	}{
		{KeyArrowDown, true, About},
		{KeyArrowRight, true, About},
		{KeyArrowUp, true, Contact},
		{KeyArrowLeft, true, Contact},
		{"Enter", false, Home},
		{"a", false, Home},
		{"", false, Home},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			f := newFixture(t)
			if got := f.switcher.HandleKey(tt.key); got != tt.intercepted {
				t.Errorf("HandleKey(%q) = %v, want %v", tt.key, got, tt.intercepted)
			}
			f.assertOnly(t, tt.want)
		})
	}
}

func TestNew_Inert(t *testing.T) {
	panel := &fakePanel{}

	tests := []struct {
		name     string
		entries  []NavEntry
		bindings []Binding
	}{
		{"no entries", nil, []Binding{{Name: Home, Container: panel}}},
		{"no bindings", []NavEntry{&fakeLink{label: "Home"}}, nil},
		{"nil containers", []NavEntry{&fakeLink{label: "Home"}}, []Binding{{Name: Home}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(tt.entries, tt.bindings)
			if !s.Inert() {
				t.Fatal("expected inert switcher")
			}
			if s.Activate("home") {
				t.Error("inert Activate should return false")
			}
			if got := s.ActivateRelative(Next); got != Home {
				t.Errorf("inert ActivateRelative = %s, want HOME", got)
			}
			// Arrow keys are still claimed so the page never scrolls.
			if !s.HandleKey(KeyArrowDown) {
				t.Error("inert HandleKey should still intercept arrows")
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize("  wOrKs\t"); got != Works {
		t.Errorf("Normalize = %q, want WORKS", got)
	}
}
