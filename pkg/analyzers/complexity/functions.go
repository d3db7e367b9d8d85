package complexity

import (
	"strings"
)

// headerLookahead bounds how far below a header its body may open.
const headerLookahead = 10

// span is one function-like unit found in a file. Lines are 0-based.
type span struct {
	name       string
	start, end int
	decisions  int
}

// findFunctions locates function headers and their bodies in stripped lines.
func findFunctions(lines []string, lang *language) []span {
	var spans []span

	for i, line := range lines {
		name, nameEnd, ok := matchHeader(line, lang)
		if !ok {
			continue
		}

		end, found := bodyEnd(lines, i, nameEnd, lang)
		if !found {
			continue
		}

		spans = append(spans, span{name: name, start: i, end: end})
	}

	return spans
}

// matchHeader returns the function name and the column right after it.
func matchHeader(line string, lang *language) (string, int, bool) {
	for _, re := range lang.headers {
		m := re.FindStringSubmatchIndex(line)
		if m == nil {
			continue
		}

		if capturesReserved(line, m) {
			continue
		}

		last := len(m)/2 - 1
		if m[2*last] < 0 {
			continue
		}

		return line[m[2*last]:m[2*last+1]], m[2*last+1], true
	}

	return "", 0, false
}

func capturesReserved(line string, m []int) bool {
	for g := 1; g < len(m)/2; g++ {
		if m[2*g] < 0 {
			continue
		}

		word := strings.Trim(line[m[2*g]:m[2*g+1]], " \t*&")
		if reserved[word] {
			return true
		}
	}

	return false
}

func bodyEnd(lines []string, header, col int, lang *language) (int, bool) {
	switch lang.body {
	case indentBody:
		return indentEnd(lines, header, col)
	case endBody:
		return keywordEnd(lines, header, lang)
	default:
		return braceEnd(lines, header, col, lang)
	}
}

// braceEnd scans from the header for the opening brace of the body, then
// returns the line of the matching close. A ";" first means a declaration.
func braceEnd(lines []string, header, col int, lang *language) (int, bool) {
	depth := 0
	limit := min(len(lines), header+headerLookahead+1)

	for ln := header; ln < limit; ln++ {
		line := lines[ln]
		if ln == header {
			line = line[col:]
		}

		for j := 0; j < len(line); j++ {
			switch c := line[j]; c {
			case '(', '[':
				depth++
			case ')', ']':
				depth--
			case ';':
				if depth == 0 {
					return 0, false
				}
			case '{':
				if depth == 0 {
					return matchBrace(lines, ln, offset(ln, header, col)+j), true
				}
			case '=':
				if depth == 0 && lang.exprBodies && isAssign(line, j) {
					return exprEnd(lines, ln, offset(ln, header, col)+j+1)
				}
			}
		}

		if depth == 0 && !continuesToBrace(lines, ln, lang) {
			return 0, false
		}
	}

	return 0, false
}

func offset(ln, header, col int) int {
	if ln == header {
		return col
	}

	return 0
}

// continuesToBrace reports whether a header that ended on line ln at paren
// depth 0 may still open its body on the next non-blank line.
func continuesToBrace(lines []string, ln int, lang *language) bool {
	for next := ln + 1; next < len(lines); next++ {
		trimmed := strings.TrimSpace(lines[next])
		if trimmed == "" {
			continue
		}

		return trimmed[0] == '{' || (lang.exprBodies && trimmed[0] == '=')
	}

	return false
}

func isAssign(line string, j int) bool {
	if j+1 < len(line) && (line[j+1] == '=' || line[j+1] == '>') {
		return false
	}

	return j == 0 || strings.IndexByte("=!<>", line[j-1]) < 0
}

// exprEnd handles "= expr" bodies. "= {" is a block body after all.
func exprEnd(lines []string, ln, col int) (int, bool) {
	rest := strings.TrimSpace(lines[ln][col:])
	if rest != "" {
		if rest[0] == '{' {
			return matchBrace(lines, ln, col+strings.IndexByte(lines[ln][col:], '{')), true
		}

		return ln, true
	}

	for next := ln + 1; next < len(lines); next++ {
		if trimmed := strings.TrimSpace(lines[next]); trimmed != "" {
			if trimmed[0] == '{' {
				return matchBrace(lines, next, strings.IndexByte(lines[next], '{')), true
			}

			return next, true
		}
	}

	return ln, true
}

// matchBrace returns the line holding the brace that closes the one at
// lines[ln][col]. An unbalanced body runs to the end of the file.
func matchBrace(lines []string, ln, col int) int {
	depth := 0

	for ; ln < len(lines); ln++ {
		line := lines[ln]

		for j := col; j < len(line); j++ {
			switch line[j] {
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					return ln
				}
			}
		}

		col = 0
	}

	return len(lines) - 1
}

// indentEnd finds the end of the header (the ":" at paren depth 0), then
// the last line indented deeper than the header.
func indentEnd(lines []string, header, col int) (int, bool) {
	depth := 0
	headerEnd := -1

	for ln := header; ln < len(lines) && ln <= header+headerLookahead && headerEnd < 0; ln++ {
		line := lines[ln]
		if ln == header {
			line = line[col:]
		}

		for j := 0; j < len(line); j++ {
			switch line[j] {
			case '(', '[', '{':
				depth++
			case ')', ']', '}':
				depth--
			case ':':
				if depth == 0 {
					headerEnd = ln
				}
			}

			if headerEnd >= 0 {
				break
			}
		}
	}

	if headerEnd < 0 {
		return 0, false
	}

	base := indentOf(lines[header])
	end := headerEnd

	for ln := headerEnd + 1; ln < len(lines); ln++ {
		if strings.TrimSpace(lines[ln]) == "" {
			continue
		}

		if indentOf(lines[ln]) <= base {
			break
		}

		end = ln
	}

	return end, true
}

// keywordEnd tracks opener/closer keywords from the header until the block
// it opened is closed.
func keywordEnd(lines []string, header int, lang *language) (int, bool) {
	depth := 0

	for ln := header; ln < len(lines); ln++ {
		line := lines[ln]

		depth += len(lang.openers.FindAllStringIndex(line, -1))
		if lang.lineOpeners != nil && lang.lineOpeners.MatchString(line) {
			depth++
		}

		depth -= len(lang.closers.FindAllStringIndex(line, -1))

		if depth <= 0 {
			return ln, true
		}
	}

	return len(lines) - 1, true
}

// attribute adds each line's decisions to the innermost span covering it.
func attribute(lines []string, spans []span, lang *language) {
	branches := countBranches(lines, lang)

	for ln, line := range lines {
		n := countDecisions(line, lang) + branches[ln]
		if n == 0 {
			continue
		}

		inner := -1

		for k := range spans {
			if ln < spans[k].start || ln > spans[k].end {
				continue
			}

			if inner < 0 || spans[k].end-spans[k].start < spans[inner].end-spans[inner].start {
				inner = k
			}
		}

		if inner >= 0 {
			spans[inner].decisions += n
		}
	}
}
