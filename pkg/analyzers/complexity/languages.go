package complexity

import "regexp"

// bodyStyle tells how a function body is delimited.
type bodyStyle int

const (
	braceBody  bodyStyle = iota // { ... }
	indentBody                  // deeper indentation than the header
	endBody                     // closed by an "end" keyword
)

// stringDelim describes one kind of string literal.
type stringDelim struct {
	open, close string
	escapes     bool
}

// language is the lexical description of one language. Every field is data;
// the scanner in lexer.go and functions.go is shared.
type language struct {
	name string

	lineComments  []string
	blockComments [][2]string
	strings       []stringDelim

	headers []*regexp.Regexp
	body    bodyStyle

	// decisions matches decision keywords; each match adds one path.
	decisions *regexp.Regexp
	// operators are counted textually, e.g. "&&".
	operators []string
	ternary   bool
	// exprBodies allows "fun f() = expr" style bodies.
	exprBodies bool
	// branches opens a brace block whose "->" entries are branches, each
	// adding one path except the else entry.
	branches *regexp.Regexp

	// openers and closers drive endBody nesting. lineOpeners only open a
	// block when they start the statement.
	openers     *regexp.Regexp
	lineOpeners *regexp.Regexp
	closers     *regexp.Regexp
}

var (
	cQuotes = []stringDelim{
		{open: `"`, close: `"`, escapes: true},
		{open: `'`, close: `'`, escapes: true},
	}
	cComments      = [][2]string{{"/*", "*/"}}
	cLineComments  = []string{"//"}
	cFamilyDecide  = regexp.MustCompile(`\b(if|for|while|case|catch)\b`)
	logicOperators = []string{"&&", "||"}
)

// reserved words that function-header patterns can accidentally capture as
// a name or return type.
var reserved = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "catch": true, "return": true,
	"else": true, "new": true, "throw": true, "delete": true, "do": true, "case": true,
	"function": true, "sizeof": true, "typeof": true, "await": true, "using": true,
	"foreach": true, "lock": true, "yield": true, "goto": true, "elif": true,
}

var jsHeaders = []*regexp.Regexp{
	regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*([A-Za-z_$][\w$]*)\s*(?:<[^>]*>)?\s*\(`),
	regexp.MustCompile(`^\s*(?:export\s+)?(?:const|let|var)\s+([A-Za-z_$][\w$]*)\s*(?::[^=]+)?=\s*(?:async\s+)?(?:function\b[^(]*\(|\([^)]*\)\s*(?::[^=]+)?=>|[A-Za-z_$][\w$]*\s*=>)`),
	regexp.MustCompile(`^\s*(?:(?:public|private|protected|static|async|readonly|override|get|set)\s+)*([A-Za-z_$][\w$]*)\s*(?:<[^>]*>)?\s*\([^;]*$`),
}

var languages = []*language{
	{
		name:          "Go",
		lineComments:  cLineComments,
		blockComments: cComments,
		strings: []stringDelim{
			{open: `"`, close: `"`, escapes: true},
			{open: "`", close: "`"},
			{open: `'`, close: `'`, escapes: true},
		},
		headers: []*regexp.Regexp{
			regexp.MustCompile(`^\s*func\s+(?:\([^)]*\)\s*)?([A-Za-z_]\w*)\s*[\[(]`),
		},
		body:      braceBody,
		decisions: regexp.MustCompile(`\b(if|for|case)\b`),
		operators: logicOperators,
	},
	{
		name:         "Python",
		lineComments: []string{"#"},
		strings: []stringDelim{
			{open: `"""`, close: `"""`, escapes: true},
			{open: `'''`, close: `'''`, escapes: true},
			{open: `"`, close: `"`, escapes: true},
			{open: `'`, close: `'`, escapes: true},
		},
		headers: []*regexp.Regexp{
			regexp.MustCompile(`^\s*(?:async\s+)?def\s+([A-Za-z_]\w*)\s*\(`),
		},
		body:      indentBody,
		decisions: regexp.MustCompile(`\b(if|elif|for|while|except|and|or|case)\b`),
	},
	{
		name:          "JavaScript",
		lineComments:  cLineComments,
		blockComments: cComments,
		strings:       append(append([]stringDelim{}, cQuotes...), stringDelim{open: "`", close: "`", escapes: true}),
		headers:       jsHeaders,
		body:          braceBody,
		decisions:     cFamilyDecide,
		operators:     logicOperators,
		ternary:       true,
	},
	{
		name:          "TypeScript",
		lineComments:  cLineComments,
		blockComments: cComments,
		strings:       append(append([]stringDelim{}, cQuotes...), stringDelim{open: "`", close: "`", escapes: true}),
		headers:       jsHeaders,
		body:          braceBody,
		decisions:     cFamilyDecide,
		operators:     logicOperators,
		ternary:       true,
	},
	{
		name:          "Java",
		lineComments:  cLineComments,
		blockComments: cComments,
		strings:       cQuotes,
		headers: []*regexp.Regexp{
			regexp.MustCompile(`^\s*(?:@\w+\s+)*(?:(?:public|private|protected|static|final|abstract|synchronized|native|default|strictfp)\s+)*(?:<[^>]*>\s+)?([\w<>\[\],.?]+)\s+([A-Za-z_]\w*)\s*\([^;]*$`),
			regexp.MustCompile(`^\s*(?:(?:public|private|protected)\s+)+([A-Z]\w*)\s*\([^;]*$`),
		},
		body:      braceBody,
		decisions: cFamilyDecide,
		operators: logicOperators,
		ternary:   true,
	},
	{
		name:          "C#",
		lineComments:  cLineComments,
		blockComments: cComments,
		strings:       cQuotes,
		headers: []*regexp.Regexp{
			regexp.MustCompile(`^\s*(?:\[[^\]]*\]\s*)*(?:(?:public|private|protected|internal|static|virtual|override|abstract|sealed|async|extern|unsafe|new|partial|readonly)\s+)*([\w<>\[\],.?]+)\s+([A-Za-z_]\w*)\s*(?:<[^>]*>)?\s*\([^;]*$`),
			regexp.MustCompile(`^\s*(?:(?:public|private|protected|internal)\s+)+([A-Z]\w*)\s*\([^;]*$`),
		},
		body:      braceBody,
		decisions: regexp.MustCompile(`\b(if|for|foreach|while|case|catch)\b`),
		operators: append([]string{"??"}, logicOperators...),
		ternary:   true,
	},
	{
		name:          "C",
		lineComments:  cLineComments,
		blockComments: cComments,
		strings:       cQuotes,
		headers: []*regexp.Regexp{
			regexp.MustCompile(`^\s*(?:(?:static|inline|extern|const|unsigned|signed|struct|enum)\s+)*([\w]+[\s*]+)\**([A-Za-z_]\w*)\s*\([^;]*$`),
		},
		body:      braceBody,
		decisions: regexp.MustCompile(`\b(if|for|while|case)\b`),
		operators: logicOperators,
		ternary:   true,
	},
	{
		name:          "C++",
		lineComments:  cLineComments,
		blockComments: cComments,
		strings:       cQuotes,
		headers: []*regexp.Regexp{
			regexp.MustCompile(`^\s*(?:template\s*<[^>]*>\s*)?(?:(?:static|inline|virtual|explicit|constexpr|extern|const|unsigned|signed)\s+)*([\w:<>,]+[\s*&]+)[*&]*([A-Za-z_~][\w:~]*)\s*\([^;]*$`),
		},
		body:      braceBody,
		decisions: cFamilyDecide,
		operators: logicOperators,
		ternary:   true,
	},
	{
		name:          "Kotlin",
		lineComments:  cLineComments,
		blockComments: cComments,
		strings: []stringDelim{
			{open: `"""`, close: `"""`},
			{open: `"`, close: `"`, escapes: true},
			{open: `'`, close: `'`, escapes: true},
		},
		headers: []*regexp.Regexp{
			regexp.MustCompile(`^\s*(?:(?:public|private|protected|internal|override|open|suspend|inline|operator|infix|tailrec|abstract|final)\s+)*fun\s+(?:<[^>]*>\s*)?(?:[\w.]+\.)?([A-Za-z_]\w*)\s*\(`),
		},
		body:       braceBody,
		decisions:  regexp.MustCompile(`\b(if|for|while|catch)\b`),
		operators:  append([]string{"?:"}, logicOperators...),
		exprBodies: true,
		branches:   regexp.MustCompile(`\bwhen\b`),
	},
	{
		name:          "Swift",
		lineComments:  cLineComments,
		blockComments: cComments,
		strings: []stringDelim{
			{open: `"""`, close: `"""`},
			{open: `"`, close: `"`, escapes: true},
		},
		headers: []*regexp.Regexp{
			regexp.MustCompile(`^\s*(?:(?:public|private|fileprivate|internal|open|static|class|override|mutating|final|@\w+)\s+)*func\s+([A-Za-z_]\w*)`),
		},
		body:      braceBody,
		decisions: regexp.MustCompile(`\b(if|guard|for|while|case|catch)\b`),
		operators: append([]string{"??"}, logicOperators...),
		ternary:   true,
	},
	{
		name:          "Scala",
		lineComments:  cLineComments,
		blockComments: cComments,
		strings: []stringDelim{
			{open: `"""`, close: `"""`},
			{open: `"`, close: `"`, escapes: true},
		},
		headers: []*regexp.Regexp{
			regexp.MustCompile(`^\s*(?:(?:override|private|protected|final|implicit|def)\s+)*def\s+([A-Za-z_]\w*)`),
		},
		body:       braceBody,
		decisions:  regexp.MustCompile(`\b(if|for|while|case|catch)\b`),
		operators:  logicOperators,
		exprBodies: true,
	},
	{
		name:          "Rust",
		lineComments:  cLineComments,
		blockComments: cComments,
		// Single quotes are lifetimes as often as char literals.
		strings: []stringDelim{{open: `"`, close: `"`, escapes: true}},
		headers: []*regexp.Regexp{
			regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?(?:(?:async|const|unsafe|extern(?:\s+"[^"]*")?)\s+)*fn\s+([A-Za-z_]\w*)`),
		},
		body:      braceBody,
		decisions: regexp.MustCompile(`\b(if|for|while)\b|=>`),
		operators: logicOperators,
	},
	{
		name:          "PHP",
		lineComments:  []string{"//", "#"},
		blockComments: cComments,
		strings:       cQuotes,
		headers: []*regexp.Regexp{
			regexp.MustCompile(`^\s*(?:(?:public|private|protected|static|abstract|final)\s+)*function\s+&?([A-Za-z_]\w*)\s*\(`),
		},
		body:      braceBody,
		decisions: regexp.MustCompile(`\b(if|elseif|for|foreach|while|case|catch|and|or)\b`),
		operators: append([]string{"??"}, logicOperators...),
		ternary:   true,
	},
	{
		name:          "Ruby",
		lineComments:  []string{"#"},
		blockComments: [][2]string{{"=begin", "=end"}},
		strings:       cQuotes,
		headers: []*regexp.Regexp{
			regexp.MustCompile(`^\s*def\s+(?:self\.)?([A-Za-z_]\w*[?!=]?)`),
		},
		body:        endBody,
		decisions:   regexp.MustCompile(`\b(if|unless|elsif|while|until|for|when|rescue|and|or)\b`),
		operators:   logicOperators,
		ternary:     true,
		openers:     regexp.MustCompile(`\b(def|class|module|case|begin|do)\b`),
		lineOpeners: regexp.MustCompile(`^\s*(?:\w+\s*=\s*)?(if|unless|while|until|for)\b`),
		closers:     regexp.MustCompile(`\bend\b`),
	},
	{
		name:          "Lua",
		lineComments:  []string{"--"},
		blockComments: [][2]string{{"--[[", "]]"}},
		strings:       cQuotes,
		headers: []*regexp.Regexp{
			regexp.MustCompile(`^\s*(?:local\s+)?function\s+([\w.:]+)\s*\(`),
			regexp.MustCompile(`^\s*(?:local\s+)?([\w.]+)\s*=\s*function\s*\(`),
		},
		body:      endBody,
		decisions: regexp.MustCompile(`\b(if|elseif|for|while|repeat|and|or)\b`),
		openers:   regexp.MustCompile(`\b(function|if|do|repeat)\b`),
		closers:   regexp.MustCompile(`\b(end|until)\b`),
	},
}

var languagesByName = func() map[string]*language {
	m := make(map[string]*language, len(languages))
	for _, l := range languages {
		m[l.name] = l
	}

	return m
}()

// aliases maps enry language names onto the table that scans them.
var aliases = map[string]string{
	"TSX":  "TypeScript",
	"JSX":  "JavaScript",
	"Hack": "PHP",
}

// skipExtensions are never analyzed for complexity.
var skipExtensions = []string{".md", ".txt", ".json", ".xml", ".yaml", ".yml", ".lock", ".min.js"}
