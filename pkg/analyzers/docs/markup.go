package docs

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var markdown = goldmark.New()

// markdownText returns the text content of a Markdown document: text
// nodes, code and autolink labels. Raw HTML, link targets and markup
// characters are dropped.
func markdownText(src []byte) string {
	root := markdown.Parser().Parse(text.NewReader(src))

	var buf bytes.Buffer

	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		if n.Type() == ast.TypeBlock {
			buf.WriteByte('\n')
		}

		switch node := n.(type) {
		case *ast.Text:
			buf.Write(node.Segment.Value(src))

			if node.SoftLineBreak() || node.HardLineBreak() {
				buf.WriteByte('\n')
			}
		case *ast.String:
			buf.Write(node.Value)
		case *ast.AutoLink:
			buf.Write(node.Label(src))
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				buf.Write(seg.Value(src))
			}

			return ast.WalkSkipChildren, nil
		case *ast.HTMLBlock, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		}

		return ast.WalkContinue, nil
	})

	return buf.String()
}

var (
	rstDirective = regexp.MustCompile(`^\s*\.\.(\s|$)`)
	rstField     = regexp.MustCompile(`^\s*:[\w -]+:\s*`)
	rstRole      = regexp.MustCompile(`:[\w-]+:` + "`")
	rstLink      = regexp.MustCompile("`([^`<]*?)\\s*<[^>]*>`_{1,2}")

	adocAttribute = regexp.MustCompile(`^:!?[\w-]+!?:`)
	adocTitle     = regexp.MustCompile(`^=+\s+`)
	adocBlockAttr = regexp.MustCompile(`^\[.*\]\s*$`)
	adocMacro     = regexp.MustCompile(`\b(?:link|https?|mailto|xref|image|include|footnote|kbd|btn|menu)::?[^\[\s]*\[([^\]]*)\]`)

	inlineMarks = regexp.MustCompile("[*`]+|__+|\\b_|_\\b")
)

// rstText strips reStructuredText markup line by line: directives,
// comments and targets, section adornments, field markers and inline
// markup.
func rstText(src []byte) string {
	var out strings.Builder

	for _, line := range strings.Split(string(src), "\n") {
		switch {
		case rstDirective.MatchString(line), isAdornment(line):
			out.WriteByte('\n')

			continue
		}

		line = rstField.ReplaceAllString(line, "")
		line = rstLink.ReplaceAllString(line, "$1")
		line = rstRole.ReplaceAllString(line, "`")
		line = inlineMarks.ReplaceAllString(line, "")

		out.WriteString(line)
		out.WriteByte('\n')
	}

	return out.String()
}

// asciidocText strips AsciiDoc markup line by line: attribute entries,
// block attributes and delimiters, comments, title markers, macros and
// inline formatting.
func asciidocText(src []byte) string {
	var out strings.Builder

	for _, line := range strings.Split(string(src), "\n") {
		trimmed := strings.TrimSpace(line)

		switch {
		case adocAttribute.MatchString(line),
			adocBlockAttr.MatchString(trimmed),
			strings.HasPrefix(trimmed, "//"),
			isAdornment(trimmed):
			out.WriteByte('\n')

			continue
		}

		line = adocTitle.ReplaceAllString(line, "")
		line = adocMacro.ReplaceAllString(line, "$1")
		line = inlineMarks.ReplaceAllString(line, "")

		out.WriteString(line)
		out.WriteByte('\n')
	}

	return out.String()
}

const adornmentChars = "=-~^\"'`#*+:._"

// isAdornment reports whether line is a run of at least three copies of
// one punctuation character: a section underline or a block delimiter.
func isAdornment(line string) bool {
	line = strings.TrimRight(line, " \t")
	if len(line) < 3 || !strings.ContainsRune(adornmentChars, rune(line[0])) {
		return false
	}

	return strings.Count(line, line[:1]) == len(line)
}
