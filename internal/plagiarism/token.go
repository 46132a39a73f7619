package plagiarism

// TokenStream is the ordered token sequence of a canonical text
type TokenStream []string

// single-character operator and punctuation tokens
var punctuation = [256]bool{
	'{': true, '}': true, '(': true, ')': true, ';': true, ',': true,
	'+': true, '-': true, '/': true, '*': true, '=': true, '<': true,
	'>': true, '!': true, '&': true, '|': true,
}

// Tokenize scans canonical text into identifier/keyword runs and single
// punctuation characters. Anything else is dropped.
func Tokenize(text string) TokenStream {
	tokens := make(TokenStream, 0, len(text)/2)

	for i := 0; i < len(text); {
		c := text[i]
		switch {
		case isIdentStart(c):
			j := i + 1
			for j < len(text) && isWordByte(text[j]) {
				j++
			}
			tokens = append(tokens, text[i:j])
			i = j
		case punctuation[c]:
			tokens = append(tokens, text[i:i+1])
			i++
		default:
			i++
		}
	}

	return tokens
}
