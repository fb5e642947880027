package render

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/dgallion1/testdocgen/internal/doctree"
	"github.com/fumiama/go-docx"
)

// maxDocxHeading is the deepest built-in Word heading style.
const maxDocxHeading = 9

// imageRef matches a block made only of Markdown image references.
var imageRef = regexp.MustCompile(`^(!\[[^\]]*\]\([^)]*\)\s*)+$`)

// DOCX writes t as a Word document. Headings use the HeadingN paragraph
// styles; each blank-line separated block of content becomes a paragraph.
// Image references are left out since their paths only resolve for the
// Markdown and HTML outputs.
func DOCX(w io.Writer, t *doctree.Tree) error {
	doc := docx.New().WithDefaultTheme()

	for _, s := range Sections(t) {
		if s.Heading != "" {
			level := min(s.Level, maxDocxHeading)
			doc.AddParagraph().Style(fmt.Sprintf("Heading%d", level)).AddText(s.Heading)
		}
		for _, block := range strings.Split(s.Content, "\n\n") {
			block = strings.TrimSpace(block)
			if block == "" || imageRef.MatchString(block) {
				continue
			}
			doc.AddParagraph().AddText(block)
		}
	}

	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("write docx: %w", err)
	}
	return nil
}
