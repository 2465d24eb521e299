package site

import (
	"fmt"
	"html"
	"strings"

	"github.com/gabrielmiguelok/slidedeck/pkg/slides"
)

// NavLink is a sidebar entry. Its text names the section it opens.
type NavLink struct {
	label  string
	active bool
}

// NewNavLink creates an inactive link.
func NewNavLink(label string) *NavLink {
	return &NavLink{label: label}
}

// LabelFor returns the link text of a section: the name in title case.
func LabelFor(name slides.Name) string {
	s := strings.ToLower(name.String())
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func (l *NavLink) Label() string         { return l.label }
func (l *NavLink) SetActive(active bool) { l.active = active }
func (l *NavLink) Active() bool          { return l.active }

func (l *NavLink) render(sb *strings.Builder) {
	class := "nav-item"
	if l.active {
		class += " active"
	}
	label := html.EscapeString(l.label)
	sb.WriteString(fmt.Sprintf(
		`<li class="%s"><a href="#" lv-click="navigate" lv-value-section="%s">%s</a></li>`,
		class, label, label,
	))
	sb.WriteString("\n")
}

var _ slides.NavEntry = (*NavLink)(nil)
