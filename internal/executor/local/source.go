package local

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// normalizeSource prepares snippet text for writing to disk: no BOM, LF line
// endings, valid UTF-8 in NFC form.
func normalizeSource(code string) string {
	code = strings.TrimPrefix(code, "\ufeff")
	code = strings.ReplaceAll(code, "\r\n", "\n")
	code = strings.ToValidUTF8(code, "\uFFFD")
	return norm.NFC.String(code)
}

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokNumber
	tokPunct
)

type token struct {
	kind tokenKind
	text string
}

// tokenize splits C-family source (Java, C#, C++) into identifiers, numbers
// and single-character punctuation. Comments and string/char literals are
// dropped so that words inside them never look like declarations.
// Preprocessor lines are kept; "#include" yields "#" and "include".
func tokenize(src string) []token {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v':
			i++

		case strings.HasPrefix(src[i:], "//"):
			end := strings.IndexByte(src[i:], '\n')
			if end < 0 {
				return toks
			}
			i += end + 1

		case strings.HasPrefix(src[i:], "/*"):
			end := strings.Index(src[i+2:], "*/")
			if end < 0 {
				return toks
			}
			i += 2 + end + 2

		case strings.HasPrefix(src[i:], `"""`):
			// Java text block.
			end := strings.Index(src[i+3:], `"""`)
			if end < 0 {
				return toks
			}
			i += 3 + end + 3

		case strings.HasPrefix(src[i:], `@"`):
			// C# verbatim string, quotes doubled inside.
			i = skipVerbatim(src, i+2)

		case strings.HasPrefix(src[i:], `R"`) && rawDelimiter(src[i+2:]) >= 0:
			// C++ raw string R"delim( ... )delim".
			d := rawDelimiter(src[i+2:])
			closer := ")" + src[i+2:i+2+d] + `"`
			start := i + 2 + d + 1
			end := strings.Index(src[start:], closer)
			if end < 0 {
				return toks
			}
			i = start + end + len(closer)

		case c == '"' || c == '\'':
			i = skipQuoted(src, i+1, c)

		case isIdentStart(src, i):
			j := i
			for j < len(src) && isIdentPart(src, j) {
				_, size := utf8.DecodeRuneInString(src[j:])
				j += size
			}
			toks = append(toks, token{kind: tokIdent, text: src[i:j]})
			i = j

		case c >= '0' && c <= '9':
			j := i + 1
			for j < len(src) && (isIdentPart(src, j) || src[j] == '.') {
				_, size := utf8.DecodeRuneInString(src[j:])
				j += size
			}
			toks = append(toks, token{kind: tokNumber, text: src[i:j]})
			i = j

		default:
			_, size := utf8.DecodeRuneInString(src[i:])
			toks = append(toks, token{kind: tokPunct, text: src[i : i+size]})
			i += size
		}
	}
	return toks
}

func skipQuoted(src string, i int, quote byte) int {
	for i < len(src) {
		switch src[i] {
		case '\\':
			i += 2
		case quote:
			return i + 1
		case '\n':
			// Unterminated literal; resume on the next line.
			return i + 1
		default:
			i++
		}
	}
	return i
}

func skipVerbatim(src string, i int) int {
	for i < len(src) {
		if src[i] == '"' {
			if i+1 < len(src) && src[i+1] == '"' {
				i += 2
				continue
			}
			return i + 1
		}
		i++
	}
	return i
}

// rawDelimiter returns the length of a C++ raw string delimiter followed by
// '(' at the start of s, or -1.
func rawDelimiter(s string) int {
	for i := 0; i < len(s) && i <= 16; i++ {
		switch s[i] {
		case '(':
			return i
		case ' ', ')', '\\', '\t', '\n', '"':
			return -1
		}
	}
	return -1
}

func isIdentStart(src string, i int) bool {
	r, _ := utf8.DecodeRuneInString(src[i:])
	return r == '_' || r == '$' || unicode.IsLetter(r)
}

func isIdentPart(src string, i int) bool {
	r, _ := utf8.DecodeRuneInString(src[i:])
	return r == '_' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func hasIdent(toks []token, name string) bool {
	for _, t := range toks {
		if t.kind == tokIdent && t.text == name {
			return true
		}
	}
	return false
}

// hasSequence reports whether the identifiers in names appear back to back.
func hasSequence(toks []token, names ...string) bool {
	for i := 0; i+len(names) <= len(toks); i++ {
		match := true
		for j, name := range names {
			if toks[i+j].kind != tokIdent || toks[i+j].text != name {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// declaredClass returns the name following the first "class" keyword that
// starts a declaration. "Foo.class" literals are not declarations.
func declaredClass(toks []token) (string, bool) {
	for i, t := range toks {
		if t.kind != tokIdent || t.text != "class" {
			continue
		}
		if i > 0 && toks[i-1].kind == tokPunct && toks[i-1].text == "." {
			continue
		}
		if i+1 < len(toks) && toks[i+1].kind == tokIdent {
			return toks[i+1].text, true
		}
	}
	return "", false
}

// javaIdentifier accepts the same names the tokenizer produces, so any
// detected class is also a valid entry point.
var javaIdentifier = regexp.MustCompile(`^[\p{L}_$][\p{L}\p{Nd}_$]*$`)
