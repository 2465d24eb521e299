package site

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"gopkg.in/yaml.v3"
)

// ErrNoContentFile is returned when a section declares no file.
var ErrNoContentFile = errors.New("section has no content file")

var frontMatterDelim = []byte("---")

// Document is a rendered section body.
type Document struct {
	Title       string
	Description string
	HTML        string
}

type frontMatter struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

// Content renders section bodies from markdown.
type Content struct {
	dir     string
	trusted goldmark.Markdown
	safe    goldmark.Markdown
}

// NewContent creates a loader reading files below dir.
func NewContent(dir string) *Content {
	return &Content{
		dir: dir,
		// Files belong to the site author and may embed raw HTML.
		trusted: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				highlighting.NewHighlighting(
					highlighting.WithStyle("github"),
				),
			),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
			goldmark.WithRendererOptions(
				html.WithUnsafe(),
			),
		),
		// Bodies sent by a client over the socket never get raw HTML through.
		safe: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
		),
	}
}

// Dir returns the content directory.
func (c *Content) Dir() string {
	return c.dir
}

// Path resolves a content file name.
func (c *Content) Path(name string) string {
	return filepath.Join(c.dir, name)
}

// Load reads and renders one markdown file with optional YAML front matter.
func (c *Content) Load(name string) (Document, error) {
	if name == "" {
		return Document{}, ErrNoContentFile
	}

	data, err := os.ReadFile(c.Path(name))
	if err != nil {
		return Document{}, fmt.Errorf("reading %s: %w", name, err)
	}

	meta, body, err := splitFrontMatter(data)
	if err != nil {
		return Document{}, fmt.Errorf("front matter of %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := c.trusted.Convert(body, &buf); err != nil {
		return Document{}, fmt.Errorf("rendering %s: %w", name, err)
	}

	return Document{
		Title:       meta.Title,
		Description: meta.Description,
		HTML:        buf.String(),
	}, nil
}

// Render converts untrusted markdown to HTML. Raw HTML is dropped.
func (c *Content) Render(src string) (string, error) {
	var buf bytes.Buffer
	if err := c.safe.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// splitFrontMatter separates a leading "---" delimited YAML block. Data
// without one is returned unchanged.
func splitFrontMatter(data []byte) (frontMatter, []byte, error) {
	var meta frontMatter

	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	first, rest, ok := bytes.Cut(data, []byte("\n"))
	if !ok || !bytes.Equal(bytes.TrimRight(first, "\r"), frontMatterDelim) {
		return meta, data, nil
	}

	// The leading newline lets an empty block ("---\n---") match.
	block, body, ok := bytes.Cut(append([]byte("\n"), rest...), []byte("\n---"))
	if !ok {
		return meta, data, nil
	}
	if _, after, found := bytes.Cut(body, []byte("\n")); found {
		body = after
	} else {
		body = nil
	}

	if err := yaml.Unmarshal(block, &meta); err != nil {
		return meta, nil, err
	}
	return meta, body, nil
}
