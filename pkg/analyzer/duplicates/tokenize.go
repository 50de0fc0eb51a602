package duplicates

import "strings"

// tokenize splits normalized code into tokens: string literals,
// numbers, identifiers, operators, and delimiters.
func tokenize(content string) []string {
	var tokens []string
	runes := []rune(content)
	i := 0

	for i < len(runes) {
		c := runes[i]

		if isWhitespace(c) {
			i++
			continue
		}

		if c == '"' || c == '\'' || c == '`' {
			tokens = append(tokens, collectStringLiteral(runes, &i, c))
			continue
		}

		if isDigit(c) || (c == '-' && i+1 < len(runes) && isDigit(runes[i+1])) {
			tokens = append(tokens, collectNumber(runes, &i))
			continue
		}

		if isIdentifierStart(c) {
			tokens = append(tokens, collectIdentifier(runes, &i))
			continue
		}

		if op := collectOperator(runes, &i); op != "" {
			tokens = append(tokens, op)
			continue
		}

		tokens = append(tokens, string(c))
		i++
	}

	return tokens
}

// collectStringLiteral collects a string literal including quotes.
func collectStringLiteral(runes []rune, i *int, quote rune) string {
	var sb strings.Builder
	sb.WriteRune(runes[*i])
	*i++

	for *i < len(runes) {
		c := runes[*i]
		sb.WriteRune(c)
		*i++

		if c == quote {
			break
		}
		if c == '\\' && *i < len(runes) {
			sb.WriteRune(runes[*i])
			*i++
		}
	}

	return sb.String()
}

// collectNumber collects a numeric literal, including hex/binary/octal
// prefixes and exponents.
func collectNumber(runes []rune, i *int) string {
	var sb strings.Builder

	if runes[*i] == '-' {
		sb.WriteRune('-')
		*i++
	}

	for *i < len(runes) {
		c := runes[*i]
		if isDigit(c) || c == '.' || c == '_' || c == 'x' || c == 'X' ||
			c == 'b' || c == 'B' || c == 'o' || c == 'O' ||
			(c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') ||
			c == 'e' || c == 'E' {
			sb.WriteRune(c)
			*i++
		} else {
			break
		}
	}

	return sb.String()
}

func collectIdentifier(runes []rune, i *int) string {
	var sb strings.Builder

	for *i < len(runes) {
		c := runes[*i]
		if isIdentifierChar(c) {
			sb.WriteRune(c)
			*i++
		} else {
			break
		}
	}

	return sb.String()
}

// collectOperator collects multi-character operators, longest first.
func collectOperator(runes []rune, i *int) string {
	if *i >= len(runes) {
		return ""
	}

	if *i+2 < len(runes) {
		op3 := string(runes[*i : *i+3])
		if op3 == "<<=" || op3 == ">>=" || op3 == "..." || op3 == "===" || op3 == "!==" {
			*i += 3
			return op3
		}
	}

	if *i+1 < len(runes) {
		op2 := string(runes[*i : *i+2])
		switch op2 {
		case "==", "!=", "<=", ">=", "&&", "||", "<<", ">>",
			"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=",
			"++", "--", "->", "=>", "::", "..", "??", ":=":
			*i += 2
			return op2
		}
	}

	return ""
}

func isDigit(c rune) bool {
	return c >= '0' && c <= '9'
}

func isIdentifierStart(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

func isIdentifierChar(c rune) bool {
	return isIdentifierStart(c) || isDigit(c)
}

func isWhitespace(c rune) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// keywords across the supported languages. Keywords are structural and
// kept verbatim during canonicalization.
var keywords = map[string]bool{
	// Go
	"func": true, "return": true, "if": true, "else": true, "for": true,
	"range": true, "switch": true, "case": true, "default": true, "break": true,
	"continue": true, "goto": true, "fallthrough": true, "defer": true,
	"go": true, "select": true, "chan": true, "map": true, "struct": true,
	"interface": true, "type": true, "var": true, "const": true, "package": true,
	"import": true, "nil": true, "true": true, "false": true,
	// Python
	"def": true, "class": true, "elif": true, "try": true, "except": true,
	"finally": true, "with": true, "lambda": true, "yield": true, "assert": true,
	"raise": true, "pass": true, "del": true, "global": true, "nonlocal": true,
	"and": true, "or": true, "not": true, "is": true, "from": true, "in": true,
	"as": true, "while": true, "None": true, "True": true, "False": true,
	// JavaScript/TypeScript
	"function": true, "let": true, "new": true, "this": true, "super": true,
	"extends": true, "implements": true, "export": true, "throw": true,
	"catch": true, "instanceof": true, "typeof": true, "void": true,
	"delete": true, "debugger": true, "async": true, "await": true,
	"static": true, "enum": true, "null": true, "undefined": true,
	// Java
	"public": true, "private": true, "protected": true, "final": true,
	"abstract": true, "synchronized": true, "throws": true,
	"int": true, "long": true, "double": true, "float": true, "boolean": true,
	"char": true, "byte": true, "short": true,
	// Ruby
	"end": true, "do": true, "then": true, "module": true, "begin": true,
	"rescue": true, "ensure": true, "unless": true, "until": true,
	"elsif": true, "when": true, "require": true, "self": true,
}

func isKeyword(token string) bool {
	return keywords[token]
}

// isLiteral checks if a token is a string or numeric literal.
func isLiteral(token string) bool {
	if len(token) == 0 {
		return false
	}
	if token[0] == '"' || token[0] == '\'' || token[0] == '`' {
		return true
	}
	if token[0] >= '0' && token[0] <= '9' {
		return true
	}
	if len(token) > 1 && token[0] == '-' && token[1] >= '0' && token[1] <= '9' {
		return true
	}
	return false
}

// operators and delimiters, kept verbatim during canonicalization.
var operators = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "%": true,
	"=": true, "==": true, "!=": true, "<": true, ">": true,
	"<=": true, ">=": true, "&&": true, "||": true, "!": true,
	"&": true, "|": true, "^": true, "<<": true, ">>": true,
	"+=": true, "-=": true, "*=": true, "/=": true, "%=": true,
	"&=": true, "|=": true, "^=": true, "<<=": true, ">>=": true,
	"++": true, "--": true, "->": true, "=>": true, "::": true,
	"..": true, "...": true, "?": true, ":": true, ":=": true,
	"===": true, "!==": true, "??": true,
	"(": true, ")": true, "[": true, "]": true, "{": true, "}": true,
	",": true, ";": true, ".": true,
}

func isOperatorOrDelimiter(token string) bool {
	return operators[token]
}

// isComment checks if a trimmed line is comment-only.
func isComment(line string) bool {
	return strings.HasPrefix(line, "//") ||
		strings.HasPrefix(line, "#") ||
		strings.HasPrefix(line, "/*") ||
		strings.HasPrefix(line, "*") ||
		strings.HasPrefix(line, "*/")
}
