package complexity

import "strings"

// strip blanks out comments and the contents of string literals. Quotes
// stay, newlines stay, so line numbers and brace structure survive.
func strip(src string, lang *language) string {
	var b strings.Builder

	b.Grow(len(src))

	for i := 0; i < len(src); {
		if open, closer, ok := blockCommentAt(src, i, lang); ok {
			i = skipBlock(&b, src, i+len(open), closer)

			continue
		}

		if lineCommentAt(src, i, lang) {
			for i < len(src) && src[i] != '\n' {
				i++
			}

			continue
		}

		if d, ok := stringAt(src, i, lang); ok {
			b.WriteString(d.open)
			i = skipString(&b, src, i+len(d.open), d)

			continue
		}

		b.WriteByte(src[i])
		i++
	}

	return b.String()
}

func blockCommentAt(src string, i int, lang *language) (open, closer string, ok bool) {
	for _, pair := range lang.blockComments {
		if strings.HasPrefix(src[i:], pair[0]) {
			return pair[0], pair[1], true
		}
	}

	return "", "", false
}

func lineCommentAt(src string, i int, lang *language) bool {
	for _, marker := range lang.lineComments {
		if strings.HasPrefix(src[i:], marker) {
			return true
		}
	}

	return false
}

func stringAt(src string, i int, lang *language) (stringDelim, bool) {
	for _, d := range lang.strings {
		if strings.HasPrefix(src[i:], d.open) {
			return d, true
		}
	}

	return stringDelim{}, false
}

// skipBlock consumes a block comment body, keeping only its newlines, and
// returns the index after closer.
func skipBlock(b *strings.Builder, src string, i int, closer string) int {
	for i < len(src) {
		if strings.HasPrefix(src[i:], closer) {
			return i + len(closer)
		}

		if src[i] == '\n' {
			b.WriteByte('\n')
		}

		i++
	}

	return i
}

// skipString consumes a string body. Unterminated single-line strings end
// at the newline.
func skipString(b *strings.Builder, src string, i int, d stringDelim) int {
	multiline := len(d.open) > 1 || d.open == "`"

	for i < len(src) {
		switch {
		case d.escapes && src[i] == '\\' && i+1 < len(src):
			if src[i+1] == '\n' {
				b.WriteByte('\n')
			} else {
				b.WriteString("  ")
			}

			i += 2

			continue
		case strings.HasPrefix(src[i:], d.close):
			b.WriteString(d.close)

			return i + len(d.close)
		case src[i] == '\n':
			b.WriteByte('\n')

			if !multiline {
				return i + 1
			}
		default:
			b.WriteByte(' ')
		}

		i++
	}

	return i
}

// countDecisions returns the number of decision points on one stripped line.
func countDecisions(line string, lang *language) int {
	n := len(lang.decisions.FindAllStringIndex(line, -1))

	for _, op := range lang.operators {
		n += strings.Count(line, op)
	}

	if lang.ternary {
		n += countTernaries(line)
	}

	return n
}

// countBranches returns, per stripped line, the branch entries of blocks
// opened after lang.branches. Only entries directly inside such a block
// count, so lambda arrows in an entry body are ignored.
func countBranches(lines []string, lang *language) []int {
	counts := make([]int, len(lines))
	if lang.branches == nil {
		return counts
	}

	var (
		depth   int
		blocks  []int
		pending bool
	)

	for ln, line := range lines {
		starts := map[int]bool{}
		for _, m := range lang.branches.FindAllStringIndex(line, -1) {
			starts[m[0]] = true
		}

		entry := 0

		for i := 0; i < len(line); i++ {
			if starts[i] {
				pending = true
			}

			inBlock := len(blocks) > 0 && blocks[len(blocks)-1] == depth

			switch {
			case line[i] == '{':
				depth++

				if pending {
					blocks = append(blocks, depth)
					pending = false
					entry = i + 1
				}
			case line[i] == '}':
				if inBlock {
					blocks = blocks[:len(blocks)-1]
				}

				depth--
			case line[i] == ';' && inBlock:
				entry = i + 1
			case line[i] == '-' && i+1 < len(line) && line[i+1] == '>' && inBlock:
				if !elseEntry(line[entry:i]) {
					counts[ln]++
				}

				i++
			}
		}
	}

	return counts
}

func elseEntry(cond string) bool {
	cond = strings.TrimSpace(cond)

	return cond == "else" || strings.HasPrefix(cond, "else ")
}

// countTernaries counts "?" used as a conditional operator. Optional
// chaining, null coalescing and type suffixes such as "Int?" are skipped.
func countTernaries(line string) int {
	n := 0

	for i := 0; i < len(line); i++ {
		if line[i] != '?' {
			continue
		}

		if i+1 < len(line) && strings.IndexByte(".?:=", line[i+1]) >= 0 {
			i++

			continue
		}

		if i > 0 && !ternaryPrefix(line[i-1]) {
			continue
		}

		n++
	}

	return n
}

func ternaryPrefix(c byte) bool {
	return c == ' ' || c == '\t' || c == ')' || c == ']' || (c >= '0' && c <= '9')
}

// indentOf returns the width of the leading whitespace of line.
func indentOf(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}
