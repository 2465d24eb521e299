// Package sidebar implements the collapsible navigation sidebar shown on
// narrow viewports.
package sidebar

import (
	"github.com/gabrielmiguelok/slidedeck/pkg/logging"
)

// Breakpoint is the viewport width above which the sidebar is always closed.
const Breakpoint = 768

// Menu tracks whether the sidebar is open. The optional dimming overlay
// follows the sidebar in lockstep.
type Menu struct {
	open       bool
	overlay    bool
	hasOverlay bool
	inert      bool
	logger     logging.Logger
}

// Parts describes which page elements are present.
type Parts struct {
	Toggle  bool
	Sidebar bool
	Overlay bool
}

// New creates a closed menu. Without a toggle or a sidebar the menu is inert
// and every call is a no-op.
func New(parts Parts, logger logging.Logger) *Menu {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	m := &Menu{
		hasOverlay: parts.Overlay,
		logger:     logger,
	}
	if !parts.Toggle || !parts.Sidebar {
		logger.Warn("sidebar: toggle or sidebar missing, menu disabled",
			logging.Bool("toggle", parts.Toggle),
			logging.Bool("sidebar", parts.Sidebar),
		)
		m.inert = true
	}
	return m
}

// Open reports whether the sidebar is open.
func (m *Menu) Open() bool {
	return m.open
}

// OverlayVisible reports whether the overlay is shown.
func (m *Menu) OverlayVisible() bool {
	return m.overlay
}

// HasOverlay reports whether the page has an overlay element.
func (m *Menu) HasOverlay() bool {
	return m.hasOverlay
}

// Inert reports whether the menu is disabled.
func (m *Menu) Inert() bool {
	return m.inert
}

// Toggle flips the sidebar.
func (m *Menu) Toggle() {
	if m.inert {
		return
	}
	m.set(!m.open)
}

// ClickOverlay closes the sidebar.
func (m *Menu) ClickOverlay() {
	if m.inert || !m.hasOverlay {
		return
	}
	m.set(false)
}

// ClickOutside closes the sidebar when the click landed on neither the
// sidebar nor the toggle.
func (m *Menu) ClickOutside(insideSidebar, insideToggle bool) {
	if m.inert || insideSidebar || insideToggle {
		return
	}
	m.set(false)
}

// Resize closes the sidebar once the viewport is wider than Breakpoint.
func (m *Menu) Resize(width int) {
	if m.inert || width <= Breakpoint {
		return
	}
	m.set(false)
}

func (m *Menu) set(open bool) {
	m.open = open
	if m.hasOverlay {
		m.overlay = open
	}
}
