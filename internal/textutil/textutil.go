// Package textutil converts draft and release bodies into plain text suitable
// for prompts and compact context briefs.
package textutil

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

var whitespaceRun = regexp.MustCompile(`[ \t\r\f\v]+`)
var blankLines = regexp.MustCompile(`\n{3,}`)

// HTMLToText extracts readable text from an HTML fragment. Block elements are
// separated by newlines; script and style content is dropped.
func HTMLToText(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return normalize(fragment)
	}

	doc.Find("script, style, noscript").Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("p, div, li, h1, h2, h3, h4, h5, h6, tr, blockquote, pre").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	return normalize(doc.Text())
}

// MarkdownToHTML renders Markdown with the common extensions enabled.
func MarkdownToHTML(source string) string {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse([]byte(source))

	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return string(markdown.Render(doc, renderer))
}

// DraftToText turns a draft body, written in Markdown or HTML, into plain text.
func DraftToText(body string) string {
	if LooksLikeHTML(body) {
		return HTMLToText(body)
	}
	return HTMLToText(MarkdownToHTML(body))
}

// LooksLikeHTML reports whether the text starts with markup.
func LooksLikeHTML(body string) bool {
	trimmed := strings.TrimSpace(body)
	if !strings.HasPrefix(trimmed, "<") {
		return false
	}
	lower := strings.ToLower(trimmed)
	for _, prefix := range []string{"<!doctype", "<html", "<p", "<div", "<h1", "<h2", "<h3", "<section", "<article", "<span", "<ul", "<ol", "<table", "<img", "<br"} {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// Truncate returns at most limit runes of s. A non-positive limit yields "".
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}

func normalize(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(whitespaceRun.ReplaceAllString(line, " "))
	}
	joined := strings.Join(lines, "\n")
	joined = blankLines.ReplaceAllString(joined, "\n\n")
	return strings.TrimSpace(joined)
}
