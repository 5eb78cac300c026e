// Package metatags assembles the <head> tags for a page from a set of optional fields.
package metatags

import (
	"html"
	"strings"
)

// OpenGraphType is the og:type value emitted for every page.
const OpenGraphType = "website"

// Fields are the page attributes a caller may supply. Empty fields are
// treated as absent.
type Fields struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	Keywords      string `json:"keywords"`
	Author        string `json:"author"`
	OGTitle       string `json:"ogTitle"`
	OGDescription string `json:"ogDescription"`
	OGImage       string `json:"ogImage"`
	TwitterCard   string `json:"twitterCard"`
	TwitterSite   string `json:"twitterSite"`
	Canonical     string `json:"canonical"`
}

// Options controls rendering.
type Options struct {
	// Escape HTML-escapes field values. Off by default: values are copied
	// into the markup verbatim, so untrusted input can inject markup.
	Escape bool
}

// Generate renders one tag per line in a fixed order. Only og:type is
// emitted unconditionally; og:title and twitter:title fall back to Title,
// og:description and twitter:description fall back to Description.
func Generate(f Fields, opts Options) string {
	value := func(s string) string {
		if opts.Escape {
			return html.EscapeString(s)
		}
		return s
	}

	var b strings.Builder

	title := firstNonEmpty(f.OGTitle, f.Title)
	description := firstNonEmpty(f.OGDescription, f.Description)

	if f.Title != "" {
		b.WriteString("<title>" + value(f.Title) + "</title>\n")
	}
	if f.Description != "" {
		metaName(&b, "description", value(f.Description))
	}
	if f.Keywords != "" {
		metaName(&b, "keywords", value(f.Keywords))
	}
	if f.Author != "" {
		metaName(&b, "author", value(f.Author))
	}

	if title != "" {
		metaProperty(&b, "og:title", value(title))
	}
	if description != "" {
		metaProperty(&b, "og:description", value(description))
	}
	if f.OGImage != "" {
		metaProperty(&b, "og:image", value(f.OGImage))
	}
	metaProperty(&b, "og:type", OpenGraphType)

	if f.TwitterCard != "" {
		metaName(&b, "twitter:card", value(f.TwitterCard))
	}
	if f.TwitterSite != "" {
		metaName(&b, "twitter:site", "@"+value(TwitterHandle(f.TwitterSite)))
	}
	if title != "" {
		metaName(&b, "twitter:title", value(title))
	}
	if description != "" {
		metaName(&b, "twitter:description", value(description))
	}
	if f.OGImage != "" {
		metaName(&b, "twitter:image", value(f.OGImage))
	}

	if f.Canonical != "" {
		b.WriteString(`<link rel="canonical" href="`)
		b.WriteString(value(f.Canonical))
		b.WriteString("\" />\n")
	}

	return b.String()
}

// TwitterHandle removes the first "@" from site so it can be prefixed
// exactly once.
func TwitterHandle(site string) string {
	return strings.Replace(site, "@", "", 1)
}

func metaName(b *strings.Builder, name, content string) {
	b.WriteString(`<meta name="`)
	b.WriteString(name)
	b.WriteString(`" content="`)
	b.WriteString(content)
	b.WriteString("\" />\n")
}

func metaProperty(b *strings.Builder, property, content string) {
	b.WriteString(`<meta property="`)
	b.WriteString(property)
	b.WriteString(`" content="`)
	b.WriteString(content)
	b.WriteString("\" />\n")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
