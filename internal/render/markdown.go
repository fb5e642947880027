package render

import (
	"strings"

	"github.com/dgallion1/testdocgen/internal/doctree"
)

// maxATXLevel is the deepest heading CommonMark recognizes.
const maxATXLevel = 6

// Markdown renders the tree as ATX-heading Markdown. A heading uses as many
// '#' as the node's level; blocks are separated by one blank line.
func Markdown(t *doctree.Tree) string {
	return markdown(t, 0)
}

// markdown renders t, capping heading levels at maxLevel when it is positive.
func markdown(t *doctree.Tree, maxLevel int) string {
	var blocks []string
	for _, s := range Sections(t) {
		if s.Heading != "" {
			level := s.Level
			if maxLevel > 0 {
				level = min(level, maxLevel)
			}
			blocks = append(blocks, strings.Repeat("#", level)+" "+s.Heading)
		}
		if s.Content != "" {
			blocks = append(blocks, s.Content)
		}
	}
	if len(blocks) == 0 {
		return ""
	}
	return strings.Join(blocks, "\n\n") + "\n"
}
