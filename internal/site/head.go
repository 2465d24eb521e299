package site

import (
	"fmt"
	"html"
	"strings"
)

// HeadConfig carries the document metadata of the page.
type HeadConfig struct {
	// Title is the page title (shown in browser tab and search results)
	Title string
	// Description is the meta description
	Description string
	// Language is the page language (default: "en")
	Language string
	// ThemeColor is the mobile browser theme color
	ThemeColor string
}

// renderHead writes the <head> element; styles is the output of the style
// injector.
func renderHead(sb *strings.Builder, cfg HeadConfig, styles string) {
	themeColor := cfg.ThemeColor
	if themeColor == "" {
		themeColor = "#16161f"
	}

	sb.WriteString("<head>\n")
	sb.WriteString(`<meta charset="UTF-8">` + "\n")
	sb.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1.0">` + "\n")
	sb.WriteString(fmt.Sprintf("<title>%s</title>\n", html.EscapeString(cfg.Title)))

	if cfg.Description != "" {
		sb.WriteString(fmt.Sprintf(`<meta name="description" content="%s">`+"\n", html.EscapeString(cfg.Description)))
	}
	sb.WriteString(fmt.Sprintf(`<meta name="theme-color" content="%s">`+"\n", html.EscapeString(themeColor)))

	sb.WriteString(`<meta property="og:type" content="website">` + "\n")
	if cfg.Title != "" {
		sb.WriteString(fmt.Sprintf(`<meta property="og:title" content="%s">`+"\n", html.EscapeString(cfg.Title)))
	}
	if cfg.Description != "" {
		sb.WriteString(fmt.Sprintf(`<meta property="og:description" content="%s">`+"\n", html.EscapeString(cfg.Description)))
	}

	sb.WriteString(styles)
	sb.WriteString("</head>\n")
}

func (cfg HeadConfig) lang() string {
	if cfg.Language == "" {
		return "en"
	}
	return cfg.Language
}
