// Package site builds the slideshow page: a sidebar of navigation links and
// one panel per configured section, of which exactly one is shown.
package site

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/gabrielmiguelok/slidedeck/internal/config"
	"github.com/gabrielmiguelok/slidedeck/pkg/core"
	"github.com/gabrielmiguelok/slidedeck/pkg/logging"
	"github.com/gabrielmiguelok/slidedeck/pkg/sidebar"
	"github.com/gabrielmiguelok/slidedeck/pkg/slides"
	"github.com/gabrielmiguelok/slidedeck/pkg/styles"
)

// ComponentName is the name the page registers under.
const ComponentName = "slideshow"

// ClientScript is the path the page loads the client script from.
const ClientScript = "/_live/slidedeck.js"

// Page event errors.
var (
	ErrUnknownEvent = errors.New("unknown event")
	ErrBadPayload   = errors.New("bad event payload")
)

// Assign keys exposed by the page.
const (
	AssignCurrent  = "current_section"
	AssignSections = "sections"
	AssignMenuOpen = "menu_open"
)

// Page is the slideshow component. One instance serves one connection.
type Page struct {
	core.BaseComponent

	site    config.SiteConfig
	content *Content
	logger  logging.Logger

	panels   []*Panel
	links    []*NavLink
	added    int
	switcher *slides.Switcher
	menu     *sidebar.Menu
	styles   *styles.Injector
}

// NewPage creates an unmounted page for site.
func NewPage(site config.SiteConfig, content *Content) *Page {
	return &Page{
		site:    site,
		content: content,
	}
}

// Name implements core.Component.
func (p *Page) Name() string {
	return ComponentName
}

// Navigator returns the section navigation handle, nil before Mount.
func (p *Page) Navigator() slides.Navigator {
	if p.switcher == nil {
		return nil
	}
	return p.switcher
}

// Menu returns the mobile menu, nil before Mount.
func (p *Page) Menu() *sidebar.Menu {
	return p.menu
}

// Mount builds panels and links from the site configuration and shows the
// default section, or the one named by the "section" query parameter.
func (p *Page) Mount(ctx context.Context, params core.Params, session core.Session) error {
	p.logger = logging.L(ctx).With(logging.String("component", ComponentName))

	p.panels = p.panels[:0]
	p.links = p.links[:0]
	p.added = 0
	bindings := make([]slides.Binding, 0, len(p.site.Sections))
	entries := make([]slides.NavEntry, 0, len(p.site.Sections))

	for _, sec := range p.site.Sections {
		name := slides.Normalize(sec.Name)
		doc := p.loadSection(sec)
		title := sec.Title
		if doc.Title != "" {
			title = doc.Title
		}
		panel := NewPanel(name, sec.ID, title, doc.HTML)
		link := NewNavLink(LabelFor(name))

		p.panels = append(p.panels, panel)
		p.links = append(p.links, link)
		bindings = append(bindings, slides.Binding{Name: name, Container: panel})
		entries = append(entries, link)
	}

	p.switcher = slides.New(entries, bindings,
		slides.WithLogger(p.logger),
		slides.WithDefault(slides.Normalize(p.site.Default)),
	)
	if deep := params.Get("section"); deep != "" {
		p.switcher.Activate(deep)
	}

	p.menu = sidebar.New(sidebar.Parts{Toggle: true, Sidebar: true, Overlay: true}, p.logger)

	p.styles = styles.NewInjector()
	p.styles.Inject(styles.LayoutID, styles.LayoutCSS)
	p.styles.Inject(styles.SlideshowID, styles.SlideshowCSS)

	p.syncAssigns()
	return nil
}

// loadSection renders the section file. A missing or broken file leaves
// the panel empty.
func (p *Page) loadSection(sec config.SectionConfig) Document {
	doc, err := p.content.Load(sec.File)
	if err != nil {
		if !errors.Is(err, ErrNoContentFile) {
			p.logger.Warn("section content unavailable",
				logging.String("section", sec.Name),
				logging.Err(err),
			)
		}
		return Document{}
	}
	return doc
}

// HandleEvent implements core.Component.
func (p *Page) HandleEvent(ctx context.Context, event string, payload map[string]any) error {
	switch event {
	case "navigate":
		p.switcher.HandleClick(core.PayloadString(payload, "section"))

	case "keydown":
		p.switcher.HandleKey(core.PayloadString(payload, "key"))

	case "menu_toggle":
		p.menu.Toggle()

	case "overlay_click":
		p.menu.ClickOverlay()

	case "outside_click":
		p.menu.ClickOutside(
			core.PayloadBool(payload, "inside_sidebar"),
			core.PayloadBool(payload, "inside_toggle"),
		)

	case "resize":
		width, ok := core.PayloadInt(payload, "width")
		if !ok {
			return fmt.Errorf("%w: resize needs a numeric width", ErrBadPayload)
		}
		p.menu.Resize(width)

	case "add_section":
		if err := p.addSection(payload); err != nil {
			return err
		}

	default:
		return fmt.Errorf("%w: %s", ErrUnknownEvent, event)
	}

	p.syncAssigns()
	return nil
}

// addSection registers a panel sent by the client. An existing name keeps
// its place and id on the page and gets the new panel.
func (p *Page) addSection(payload map[string]any) error {
	name := slides.Normalize(core.PayloadString(payload, "name"))
	if name == "" {
		return fmt.Errorf("%w: add_section needs a name", ErrBadPayload)
	}

	at := -1
	for i, existing := range p.panels {
		if existing.Name() == name {
			at = i
			break
		}
	}
	if at < 0 && p.added >= p.maxRuntimeSections() {
		return fmt.Errorf("%w: at most %d sections can be added", ErrBadPayload, p.maxRuntimeSections())
	}

	body, err := p.content.Render(core.PayloadString(payload, "body"))
	if err != nil {
		return fmt.Errorf("rendering section %s: %w", name, err)
	}
	title := core.PayloadString(payload, "title")

	if at >= 0 {
		p.panels[at] = NewPanel(name, p.panels[at].ID(), title, body)
		p.switcher.AddSection(name, p.panels[at])
		return nil
	}

	panel := NewPanel(name, p.runtimeID(name), title, body)
	p.panels = append(p.panels, panel)
	p.added++
	p.switcher.AddSection(name, panel)
	return nil
}

func (p *Page) maxRuntimeSections() int {
	if p.site.MaxRuntimeSections > 0 {
		return p.site.MaxRuntimeSections
	}
	return config.DefaultMaxRuntimeSections
}

// runtimeID returns an element id for an added section that no other panel
// uses.
func (p *Page) runtimeID(name slides.Name) string {
	base := "added-" + strings.ToLower(name.String())
	id := base
	for n := 2; p.hasPanelID(id); n++ {
		id = fmt.Sprintf("%s-%d", base, n)
	}
	return id
}

func (p *Page) hasPanelID(id string) bool {
	for _, panel := range p.panels {
		if panel.ID() == id {
			return true
		}
	}
	return false
}

func (p *Page) syncAssigns() {
	names := p.switcher.Names()
	sections := make([]string, len(names))
	for i, n := range names {
		sections[i] = n.String()
	}

	p.Assigns().SetAll(map[string]any{
		AssignCurrent:  p.switcher.Current().String(),
		AssignSections: sections,
		AssignMenuOpen: p.menu.Open(),
	})
}

// Render implements core.Component.
func (p *Page) Render(ctx context.Context) core.Renderer {
	return core.RendererFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, p.document())
		return err
	})
}

func (p *Page) document() string {
	head := HeadConfig{
		Title:       p.site.Title,
		Description: p.site.Description,
		Language:    p.site.Language,
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n")
	sb.WriteString(fmt.Sprintf("<html lang=\"%s\">\n", html.EscapeString(head.lang())))
	renderHead(&sb, head, p.styles.Head())
	sb.WriteString("<body>\n")
	p.renderRoot(&sb)
	sb.WriteString(fmt.Sprintf("<script src=\"%s\" defer></script>\n", ClientScript))
	sb.WriteString("</body>\n</html>\n")
	return sb.String()
}

// renderRoot writes the part of the page the client swaps on every render.
func (p *Page) renderRoot(sb *strings.Builder) {
	sb.WriteString(fmt.Sprintf("<div id=\"lv-root\" data-current=\"%s\">\n", html.EscapeString(p.switcher.Current().String())))

	sb.WriteString(fmt.Sprintf(
		"<button class=\"menu-toggle\" lv-click=\"menu_toggle\" aria-label=\"Menu\" aria-expanded=\"%t\">&#9776;</button>\n",
		p.menu.Open(),
	))
	if p.menu.HasOverlay() {
		class := "mobile-overlay"
		if p.menu.OverlayVisible() {
			class += " active"
		}
		sb.WriteString(fmt.Sprintf("<div class=\"%s\" lv-click=\"overlay_click\"></div>\n", class))
	}

	sb.WriteString("<div class=\"layout\">\n")

	sidebarClass := "sidebar"
	if p.menu.Open() {
		sidebarClass += " active"
	}
	sb.WriteString(fmt.Sprintf("<nav class=\"%s\"><ul>\n", sidebarClass))
	for _, l := range p.links {
		l.render(sb)
	}
	sb.WriteString("</ul></nav>\n")

	sb.WriteString("<div class=\"main-sections\">\n")
	for _, panel := range p.panels {
		panel.render(sb)
	}
	sb.WriteString("</div>\n</div>\n</div>\n")
}
