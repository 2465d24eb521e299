package slides

import (
	"github.com/gabrielmiguelok/slidedeck/pkg/logging"
)

// Switcher shows exactly one section at a time.
//
// After construction of a non-inert switcher, exactly one container is
// visible and exactly one navigation entry is active, and both correspond to
// Current. Switcher is not safe for concurrent use; the live page delivers
// events to it one at a time.
type Switcher struct {
	order      []Name
	containers map[Name]Presentable
	entries    []NavEntry
	current    Name
	inert      bool
	logger     logging.Logger
}

// Option configures a Switcher.
type Option func(*switcherConfig)

type switcherConfig struct {
	logger      logging.Logger
	defaultName Name
}

// WithLogger sets the diagnostics logger.
func WithLogger(logger logging.Logger) Option {
	return func(c *switcherConfig) {
		c.logger = logger
	}
}

// WithDefault overrides the section activated at construction.
func WithDefault(name Name) Option {
	return func(c *switcherConfig) {
		c.defaultName = name
	}
}

// New builds a switcher from navigation entries and explicit bindings.
// The order of bindings is the order used by ActivateRelative.
//
// Missing entries or bindings leave the switcher inert: every activation is a
// no-op. This is logged, never returned as an error.
func New(entries []NavEntry, bindings []Binding, opts ...Option) *Switcher {
	cfg := &switcherConfig{
		logger:      logging.NopLogger{},
		defaultName: DefaultSection,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	s := &Switcher{
		containers: make(map[Name]Presentable, len(bindings)),
		entries:    entries,
		current:    cfg.defaultName,
		logger:     cfg.logger,
	}

	if len(entries) == 0 {
		s.logger.Error("slides: no navigation entries found")
		s.inert = true
	}
	if len(bindings) == 0 {
		s.logger.Error("slides: no section containers found")
		s.inert = true
	}

	for _, b := range bindings {
		if b.Container == nil {
			s.logger.Warn("slides: section has no container", logging.String("section", b.Name.String()))
			continue
		}
		s.register(Normalize(string(b.Name)), b.Container)
	}

	if s.inert {
		return s
	}
	if len(s.order) == 0 {
		s.logger.Error("slides: every section binding was empty")
		s.inert = true
		return s
	}

	s.logger.Debug("slides: sections mapped", logging.Int("count", len(s.order)))

	if !s.Activate(string(cfg.defaultName)) {
		// Default not mapped; fall back to the first section so the
		// one-visible invariant holds from the start.
		s.Activate(string(s.order[0]))
	}
	return s
}

func (s *Switcher) register(name Name, container Presentable) {
	if _, exists := s.containers[name]; !exists {
		s.order = append(s.order, name)
	}
	s.containers[name] = container
	container.Hide()
}

// Inert reports whether the switcher was built without entries or sections.
func (s *Switcher) Inert() bool {
	return s.inert
}

// Current returns the active section.
func (s *Switcher) Current() Name {
	return s.current
}

// Names returns the known sections in navigation order.
func (s *Switcher) Names() []Name {
	names := make([]Name, len(s.order))
	copy(names, s.order)
	return names
}

// Len returns the number of mapped sections.
func (s *Switcher) Len() int {
	return len(s.order)
}

// Container returns the container mapped to name.
func (s *Switcher) Container(name Name) (Presentable, bool) {
	c, ok := s.containers[Normalize(string(name))]
	return c, ok
}

// Activate makes the named section the only visible one.
// It reports false, leaving all state untouched, when name is not mapped.
func (s *Switcher) Activate(name string) bool {
	if s.inert {
		return false
	}

	target := Normalize(name)
	container, ok := s.containers[target]
	if !ok {
		s.logger.Warn("slides: section not found", logging.String("section", target.String()))
		return false
	}

	// Every container is hidden, the target included, so nothing stale
	// survives two activations in a row.
	for _, n := range s.order {
		s.containers[n].Hide()
	}

	container.Show()
	container.ResetScroll()
	s.current = target
	s.markActive(target)

	s.logger.Debug("slides: section activated", logging.String("section", target.String()))
	return true
}

// ActivateRelative moves one section forward or backward with wraparound
// and returns the section that is now current.
func (s *Switcher) ActivateRelative(dir Direction) Name {
	n := len(s.order)
	if s.inert || n == 0 {
		return s.current
	}

	idx := s.indexOf(s.current)
	var next int
	switch dir {
	case Previous:
		next = (idx - 1 + n) % n
	default:
		next = (idx + 1) % n
	}

	s.Activate(string(s.order[next]))
	return s.current
}

// AddSection registers a late section. The container starts hidden and the
// current section does not change. An existing name keeps its position and
// gets the new container.
func (s *Switcher) AddSection(name Name, container Presentable) {
	if container == nil {
		s.logger.Warn("slides: add section without container", logging.String("section", name.String()))
		return
	}

	target := Normalize(string(name))
	prev, replaced := s.containers[target]
	if replaced && prev != container {
		prev.Hide()
	}
	s.register(target, container)
	s.logger.Info("slides: section added", logging.String("section", target.String()))

	// Swapping the container of the visible section keeps one section on
	// screen.
	if replaced && !s.inert && target == s.current {
		container.Show()
		container.ResetScroll()
	}
}

// HandleClick activates the section named by a navigation entry's text.
func (s *Switcher) HandleClick(label string) bool {
	name := Normalize(label)
	if _, ok := s.containers[name]; !ok {
		s.logger.Warn("slides: no section for navigation entry", logging.String("label", name.String()))
		return false
	}
	return s.Activate(string(name))
}

// HandleKey moves through the sections on arrow keys. It reports whether the
// key belongs to the switcher, in which case the browser default (scrolling)
// must be suppressed. Other keys are left alone.
func (s *Switcher) HandleKey(key string) bool {
	dir, ok := DirectionForKey(key)
	if !ok {
		return false
	}
	s.ActivateRelative(dir)
	return true
}

func (s *Switcher) markActive(name Name) {
	for _, e := range s.entries {
		e.SetActive(Normalize(e.Label()) == name)
	}
}

// indexOf returns the position of name in the order, or 0 if absent.
func (s *Switcher) indexOf(name Name) int {
	for i, n := range s.order {
		if n == name {
			return i
		}
	}
	return 0
}

var _ Navigator = (*Switcher)(nil)
