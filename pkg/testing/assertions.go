package testing

import (
	"fmt"
	"regexp"
	"strings"
	"testing"
)

// HTMLAssert provides HTML-specific assertions over a rendered fragment.
type HTMLAssert struct {
	t    *testing.T
	html string
}

// NewHTMLAssert creates a new HTML assertion helper.
func NewHTMLAssert(t *testing.T, html string) *HTMLAssert {
	return &HTMLAssert{t: t, html: html}
}

// HasElement asserts that the HTML contains the tag and every attr fragment.
func (ha *HTMLAssert) HasElement(tag string, attrs ...string) *HTMLAssert {
	ha.t.Helper()

	if !strings.Contains(ha.html, "<"+tag) {
		ha.t.Errorf("Element <%s> not found in HTML:\n%s", tag, ha.html)
		return ha
	}
	for _, attr := range attrs {
		if !strings.Contains(ha.html, attr) {
			ha.t.Errorf("Attribute %q not found in HTML:\n%s", attr, ha.html)
		}
	}
	return ha
}

// HasClass asserts that some class attribute includes class.
func (ha *HTMLAssert) HasClass(class string) *HTMLAssert {
	ha.t.Helper()

	pattern := fmt.Sprintf(`class="[^"]*\b%s\b[^"]*"`, regexp.QuoteMeta(class))
	if !regexp.MustCompile(pattern).MatchString(ha.html) {
		ha.t.Errorf("class %q not found in HTML:\n%s", class, ha.html)
	}
	return ha
}

// HasID asserts that the HTML contains an element with a specific ID.
func (ha *HTMLAssert) HasID(id string) *HTMLAssert {
	ha.t.Helper()

	if !strings.Contains(ha.html, fmt.Sprintf(`id="%s"`, id)) {
		ha.t.Errorf("id %q not found in HTML:\n%s", id, ha.html)
	}
	return ha
}

// Count returns how many times fragment occurs.
func (ha *HTMLAssert) Count(fragment string) int {
	return strings.Count(ha.html, fragment)
}
