// Package comment extracts documentation fragments from Go test sources.
package comment

import (
	"bytes"
	"errors"
	"fmt"
	"go/ast"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/net/html"
)

// InternalDirective marks a doc comment that must not be documented.
const InternalDirective = "//testdocgen:internal"

// ErrNoCode is returned when a comment has no code block at the requested index.
var ErrNoCode = errors.New("comment: code block not found")

// Comment is a doc comment split into a one-line summary and a description.
type Comment struct {
	Summary     string
	Description string
	Internal    bool
}

// FromGroup builds a Comment from a doc comment group. names are the ways the
// documented identifier may be spelled; a leading "name " in the text, as Go
// doc comments are written, is dropped from the summary.
func FromGroup(cg *ast.CommentGroup, names ...string) Comment {
	if cg == nil {
		return Comment{}
	}
	c := Parse(cg.Text(), names...)
	for _, line := range cg.List {
		if strings.TrimSpace(line.Text) == InternalDirective {
			c.Internal = true
		}
	}
	return c
}

// Parse splits raw comment text. The summary is the first paragraph, ending
// early at a line that closes a sentence; the description is everything after.
func Parse(text string, names ...string) Comment {
	lines := strings.Split(strings.Trim(text, "\n"), "\n")

	var summary []string
	i := 0
	for ; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			if len(summary) > 0 {
				break
			}
			continue
		}
		summary = append(summary, line)
		if strings.HasSuffix(line, ".") || strings.HasSuffix(line, "!") || strings.HasSuffix(line, "?") {
			i++
			break
		}
	}

	var desc string
	if i < len(lines) {
		desc = strings.TrimRight(strings.Trim(strings.Join(lines[i:], "\n"), "\n"), " \t\n")
	}

	return Comment{
		Summary:     stripName(strings.Join(summary, " "), names),
		Description: desc,
	}
}

func stripName(summary string, names []string) string {
	for _, name := range names {
		if name == "" {
			continue
		}
		rest, ok := strings.CutPrefix(summary, name+" ")
		if !ok {
			continue
		}
		r, size := utf8.DecodeRuneInString(rest)
		return string(unicode.ToUpper(r)) + rest[size:]
	}
	return summary
}

// Empty reports whether the comment carries no text at all.
func (c Comment) Empty() bool {
	return strings.TrimSpace(c.Summary) == "" && strings.TrimSpace(c.Description) == ""
}

// Markdown renders the comment as a level-one heading followed by its description.
func (c Comment) Markdown() string {
	var md string
	if s := strings.TrimSpace(c.Summary); s != "" {
		md = "# " + s
	}
	md += "\n\n" + c.Description
	return strings.TrimSpace(md)
}

// HTML converts Markdown() to HTML.
func (c Comment) HTML() (string, error) {
	var buf bytes.Buffer
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	if err := md.Convert([]byte(c.Markdown()), &buf); err != nil {
		return "", fmt.Errorf("convert comment: %w", err)
	}
	return buf.String(), nil
}

// CodeBlocks returns the text of every pre > code element in the HTML view,
// in document order.
func (c Comment) CodeBlocks() ([]string, error) {
	out, err := c.HTML()
	if err != nil {
		return nil, err
	}
	doc, err := html.Parse(strings.NewReader(out))
	if err != nil {
		return nil, fmt.Errorf("parse comment html: %w", err)
	}

	var blocks []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "code" && n.Parent != nil &&
			n.Parent.Type == html.ElementNode && n.Parent.Data == "pre" {
			blocks = append(blocks, textContent(n))
			return
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	walk(doc)
	return blocks, nil
}

// Code returns the i-th code block.
func (c Comment) Code(i int) (string, error) {
	blocks, err := c.CodeBlocks()
	if err != nil {
		return "", err
	}
	if i < 0 || i >= len(blocks) {
		return "", fmt.Errorf("%w: index %d of %d", ErrNoCode, i, len(blocks))
	}
	return blocks[i], nil
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return buf.String()
}
