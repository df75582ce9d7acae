package chunker

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/toc"
)

// mdParser is shared; goldmark parsers are safe for concurrent use.
var mdParser = goldmark.New(
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
	),
)

// splitMarkdown pre-splits markdown at H1/H2 boundaries so chunks do not
// straddle sections, then size-bounds each section with the recursive
// splitter. Documents without headers go straight to the splitter.
func (s *Splitter) splitMarkdown(content string) []string {
	sections := markdownSections([]byte(content))
	if len(sections) == 0 {
		return s.SplitText(content, genericSeparators)
	}

	var chunks []string
	for _, section := range sections {
		chunks = append(chunks, s.SplitText(section, genericSeparators)...)
	}
	return chunks
}

// markdownSections returns the document split into H1/H2 sections, in source
// order. Returns nil when the document has no headers.
func markdownSections(source []byte) []string {
	reader := text.NewReader(source)
	doc := mdParser.Parser().Parse(reader)

	tree, err := toc.Inspect(doc, source,
		toc.MinDepth(1),
		toc.MaxDepth(2),
		toc.Compact(true),
	)
	if err != nil || len(tree.Items) == 0 {
		return nil
	}

	// Collect section start offsets from the heading nodes.
	starts := headingStarts(doc, source, 2)
	if len(starts) == 0 {
		return nil
	}

	var sections []string
	// Preamble before the first header belongs to the first section.
	if starts[0] > 0 {
		lead := strings.TrimSpace(string(source[:starts[0]]))
		if lead != "" {
			sections = append(sections, lead)
		}
	}
	for i, start := range starts {
		end := len(source)
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		section := strings.TrimSpace(string(source[start:end]))
		if section != "" {
			sections = append(sections, section)
		}
	}
	return sections
}

// headingStarts returns source offsets of headings up to maxLevel, in order.
// Each offset is the beginning of the heading's source line, so the "#"
// markers stay with the section they open.
func headingStarts(doc ast.Node, source []byte, maxLevel int) []int {
	var starts []int
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || n.Kind() != ast.KindHeading {
			return ast.WalkContinue, nil
		}
		heading := n.(*ast.Heading)
		if heading.Level > maxLevel || heading.Lines().Len() == 0 {
			return ast.WalkContinue, nil
		}
		// The line segment starts at the heading text, after the markers.
		starts = append(starts, lineStart(source, heading.Lines().At(0).Start))
		return ast.WalkContinue, nil
	})
	return starts
}

func lineStart(source []byte, offset int) int {
	for offset > 0 && source[offset-1] != '\n' {
		offset--
	}
	return offset
}
