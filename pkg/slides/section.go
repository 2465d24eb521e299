// Package slides implements the one-section-at-a-time navigation used by the
// slideshow page. A Switcher owns the mapping from section names to
// presentable containers and keeps exactly one of them visible.
package slides

import "strings"

// Name identifies a section. Names are compared in their normalized form.
type Name string

// Built-in section names, in navigation order.
const (
	Home     Name = "HOME"
	About    Name = "ABOUT"
	Services Name = "SERVICES"
	Works    Name = "WORKS"
	Blogs    Name = "BLOGS"
	Contact  Name = "CONTACT"
)

// DefaultSection is activated when a switcher is built.
const DefaultSection = Home

// DefaultOrder is the navigation order of the built-in sections.
var DefaultOrder = []Name{Home, About, Services, Works, Blogs, Contact}

// Normalize trims surrounding whitespace and upper-cases s.
func Normalize(s string) Name {
	return Name(strings.ToUpper(strings.TrimSpace(s)))
}

// String implements fmt.Stringer.
func (n Name) String() string {
	return string(n)
}

// Direction is a relative move through the section order.
type Direction int

const (
	// Next moves forward, wrapping from the last section to the first.
	Next Direction = iota
	// Previous moves backward, wrapping from the first section to the last.
	Previous
)

func (d Direction) String() string {
	switch d {
	case Next:
		return "next"
	case Previous:
		return "previous"
	default:
		return "unknown"
	}
}

// Keyboard keys that move through the sections.
const (
	KeyArrowUp    = "ArrowUp"
	KeyArrowDown  = "ArrowDown"
	KeyArrowLeft  = "ArrowLeft"
	KeyArrowRight = "ArrowRight"
)

// DirectionForKey maps an arrow key to a direction.
// ok is false for every other key.
func DirectionForKey(key string) (dir Direction, ok bool) {
	switch key {
	case KeyArrowDown, KeyArrowRight:
		return Next, true
	case KeyArrowUp, KeyArrowLeft:
		return Previous, true
	default:
		return 0, false
	}
}

// Presentable is a content container whose visibility the switcher controls.
// Containers are owned by the page; the switcher never creates them.
type Presentable interface {
	Show()
	Hide()
	ResetScroll()
	Visible() bool
}

// NavEntry is a navigation link tied to a section through its text.
type NavEntry interface {
	// Label returns the human readable text of the link.
	Label() string

	// SetActive toggles the active marker.
	SetActive(active bool)

	// Active reports whether the active marker is set.
	Active() bool
}

// Binding associates a section name with its container.
type Binding struct {
	Name      Name
	Container Presentable
}

// Navigator is the handle the page exposes for section navigation.
type Navigator interface {
	Activate(name string) bool
	ActivateRelative(dir Direction) Name
	AddSection(name Name, container Presentable)
	Current() Name
	Names() []Name
}
