package site

import (
	"fmt"
	"html"
	"strings"

	"github.com/gabrielmiguelok/slidedeck/pkg/slides"
)

// Panel is one section container of the page.
type Panel struct {
	name    slides.Name
	id      string
	title   string
	body    string
	visible bool

	// scrollResets counts ResetScroll calls; the client script scrolls the
	// panel to the top whenever the rendered value changes.
	scrollResets int
}

// NewPanel creates a hidden panel. body is trusted HTML.
func NewPanel(name slides.Name, id, title, body string) *Panel {
	return &Panel{
		name:  name,
		id:    id,
		title: title,
		body:  body,
	}
}

func (p *Panel) Show()         { p.visible = true }
func (p *Panel) Hide()         { p.visible = false }
func (p *Panel) ResetScroll()  { p.scrollResets++ }
func (p *Panel) Visible() bool { return p.visible }

// Name returns the section name the panel is bound to.
func (p *Panel) Name() slides.Name {
	return p.name
}

// ID returns the element id.
func (p *Panel) ID() string {
	return p.id
}

// ScrollResets returns how many times the panel was scrolled to the top.
func (p *Panel) ScrollResets() int {
	return p.scrollResets
}

func (p *Panel) render(sb *strings.Builder) {
	display := "none"
	if p.visible {
		display = "block"
	}

	sb.WriteString(fmt.Sprintf(
		`<main id="%s" class="section" data-section="%s" data-scroll-reset="%d" style="display: %s;">`,
		html.EscapeString(p.id), html.EscapeString(p.name.String()), p.scrollResets, display,
	))
	if p.title != "" {
		sb.WriteString(fmt.Sprintf(`<h1 class="section-title">%s</h1>`, html.EscapeString(p.title)))
	}
	sb.WriteString(`<div class="section-body">`)
	sb.WriteString(p.body)
	sb.WriteString("</div></main>\n")
}

var _ slides.Presentable = (*Panel)(nil)
