// Package catalog implements the mediator catalog crawl: the structural
// tokenizer for category documents, the quality-tier selector, the run-scoped
// visited set, and the depth-first crawl state machine.
package catalog

import (
	"io"
	"regexp"
	"strings"
	"unicode/utf8"
)

// TokenKind identifies a recognized field in a category document.
type TokenKind int

const (
	TokenKey TokenKind = iota
	TokenName
	TokenTitle
	TokenURL
)

func (k TokenKind) String() string {
	switch k {
	case TokenKey:
		return "key"
	case TokenName:
		return "name"
	case TokenTitle:
		return "title"
	case TokenURL:
		return "progressiveDownloadURL"
	default:
		return "unknown"
	}
}

// Token is one typed field extracted from a category document.
type Token struct {
	Kind  TokenKind
	Value string
}

// fieldRegex matches the four recognized field pairs after the document has
// been split into segments. The value part keeps any escaped characters; the
// tokenizer unescapes it before emitting.
var fieldRegex = regexp.MustCompile(`^"(key|name|title|progressiveDownloadURL)":"(.*)"$`)

var fieldKinds = map[string]TokenKind{
	"key":                    TokenKey,
	"name":                   TokenName,
	"title":                  TokenTitle,
	"progressiveDownloadURL": TokenURL,
}

// Tokenizer converts a raw category document into an ordered sequence of
// typed tokens. It splits the text at the structural delimiters { } [ ] ,
// while respecting quoted strings, so delimiter characters embedded in a
// quoted value never split it. The sequence is lazy, finite and
// non-restartable: Next scans forward on demand and returns io.EOF when the
// document is exhausted.
type Tokenizer struct {
	doc string
	pos int
}

// NewTokenizer wraps one fetched category document.
func NewTokenizer(doc string) *Tokenizer {
	return &Tokenizer{doc: doc}
}

// Next returns the next recognized token, or io.EOF after the last one.
// Unrecognized fields are skipped silently; the field-ordering contract
// ("key" before "name", "title" before its URL) is enforced by the crawl
// state machine, not here.
func (t *Tokenizer) Next() (Token, error) {
	for {
		segment, ok := t.nextSegment()
		if !ok {
			return Token{}, io.EOF
		}
		m := fieldRegex.FindStringSubmatch(strings.TrimSpace(segment))
		if m == nil {
			continue
		}
		return Token{Kind: fieldKinds[m[1]], Value: unescape(m[2])}, nil
	}
}

// nextSegment returns the next run of text between top-level structural
// delimiters. Quotes toggle delimiter interpretation off, and a backslash
// escapes the following character inside quotes.
func (t *Tokenizer) nextSegment() (string, bool) {
	if t.pos >= len(t.doc) {
		return "", false
	}
	start := t.pos
	inQuote := false
	escaped := false
	for t.pos < len(t.doc) {
		c := t.doc[t.pos]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inQuote:
			escaped = true
		case c == '"':
			inQuote = !inQuote
		case !inQuote && isDelimiter(c):
			segment := t.doc[start:t.pos]
			t.pos++
			return segment, true
		}
		t.pos++
	}
	return t.doc[start:], true
}

func isDelimiter(c byte) bool {
	switch c {
	case '{', '}', '[', ']', ',':
		return true
	}
	return false
}

// unescape resolves JSON-style escapes in a field value. Unknown escapes keep
// the character following the backslash.
func unescape(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'u':
			if i+4 < len(s) {
				if r, ok := decodeHexRune(s[i+1 : i+5]); ok {
					b.WriteRune(r)
					i += 4
					continue
				}
			}
			b.WriteByte('u')
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

func decodeHexRune(hex string) (rune, bool) {
	var r rune
	for _, c := range hex {
		r <<= 4
		switch {
		case c >= '0' && c <= '9':
			r += c - '0'
		case c >= 'a' && c <= 'f':
			r += c - 'a' + 10
		case c >= 'A' && c <= 'F':
			r += c - 'A' + 10
		default:
			return 0, false
		}
	}
	if !utf8.ValidRune(r) {
		return 0, false
	}
	return r, true
}
