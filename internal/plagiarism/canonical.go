package plagiarism

import (
	"regexp"
	"strings"
)

// CanonicalText is the normalized form of one submission's code
type CanonicalText struct {
	SubmissionID string
	Text         string
}

const identifierPlaceholder = "VAR"

// keywords survive identifier normalization, matched case-insensitively
var keywords = map[string]struct{}{
	"if": {}, "else": {}, "for": {}, "while": {}, "function": {}, "return": {},
	"var": {}, "let": {}, "const": {}, "class": {}, "def": {}, "import": {}, "from": {},
}

var (
	blockCommentRegex = regexp.MustCompile(`(?s)/\*.*?\*/`)
	lineCommentRegex  = regexp.MustCompile(`//[^\n]*`)
	hashCommentRegex  = regexp.MustCompile(`#[^\n]*`)
	whitespaceRegex   = regexp.MustCompile(`\s+`)
)

// Canonicalize strips comments, collapses whitespace, replaces non-keyword
// identifiers with a placeholder and lower-cases the result.
// language is informational only; the same rules apply to every language.
func Canonicalize(submissionID, code, language string) CanonicalText {
	text := blockCommentRegex.ReplaceAllString(code, " ")
	text = lineCommentRegex.ReplaceAllString(text, " ")
	text = hashCommentRegex.ReplaceAllString(text, " ")
	text = whitespaceRegex.ReplaceAllString(text, " ")
	text = normalizeIdentifiers(text)
	text = strings.TrimSpace(strings.ToLower(text))

	return CanonicalText{SubmissionID: submissionID, Text: text}
}

// normalizeIdentifiers rewrites every maximal word run that starts with a
// letter or underscore. Runs starting with a digit are left untouched.
func normalizeIdentifiers(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	for i := 0; i < len(text); {
		c := text[i]
		if !isWordByte(c) {
			b.WriteByte(c)
			i++
			continue
		}

		j := i
		for j < len(text) && isWordByte(text[j]) {
			j++
		}
		word := text[i:j]
		if isIdentStart(c) && !isKeyword(word) {
			b.WriteString(identifierPlaceholder)
		} else {
			b.WriteString(word)
		}
		i = j
	}

	return b.String()
}

func isKeyword(word string) bool {
	_, ok := keywords[strings.ToLower(word)]
	return ok
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isWordByte(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
