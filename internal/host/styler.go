package host

import (
	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
)

// Style ids follow the numbering of the Scintilla C-family lexer so the
// default ignorable set {1,2,3,4,6,7,9} means comments, numbers, strings,
// characters and preprocessor lines.
const (
	StyleDefault      = 0
	StyleComment      = 1
	StyleCommentLine  = 2
	StyleCommentDoc   = 3
	StyleNumber       = 4
	StyleKeyword      = 5
	StyleString       = 6
	StyleCharacter    = 7
	StylePreprocessor = 9
	StyleOperator     = 10
	StyleIdentifier   = 11
)

// StyleOf maps a chroma token type to a style id.
func StyleOf(tt chroma.TokenType) int {
	switch {
	case tt == chroma.CommentSingle || tt == chroma.CommentHashbang:
		return StyleCommentLine
	case tt == chroma.CommentPreproc || tt == chroma.CommentPreprocFile:
		return StylePreprocessor
	case tt == chroma.LiteralStringDoc:
		return StyleCommentDoc
	case tt.InCategory(chroma.Comment):
		return StyleComment
	case tt == chroma.LiteralStringChar:
		return StyleCharacter
	case tt.InSubCategory(chroma.LiteralString):
		return StyleString
	case tt.InSubCategory(chroma.LiteralNumber):
		return StyleNumber
	case tt.InCategory(chroma.Keyword):
		return StyleKeyword
	case tt.InCategory(chroma.Operator), tt == chroma.Punctuation:
		return StyleOperator
	case tt.InCategory(chroma.Name):
		return StyleIdentifier
	default:
		return StyleDefault
	}
}

// Styler assigns style ids to buffer text with a chroma lexer.
type Styler struct {
	lexer chroma.Lexer
}

// NewStyler picks a lexer by file name, then by content, and falls back to
// plain text.
func NewStyler(filename, text string) *Styler {
	lexer := lexers.Match(filename)
	if lexer == nil {
		lexer = lexers.Analyse(text)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	return &Styler{lexer: chroma.Coalesce(lexer)}
}

// NewStylerFor uses the named lexer, or plain text if the name is unknown.
func NewStylerFor(language string) *Styler {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	return &Styler{lexer: chroma.Coalesce(lexer)}
}

// Language returns the lexer name.
func (s *Styler) Language() string {
	return s.lexer.Config().Name
}

// Styles returns one style id per rune of text.
func (s *Styler) Styles(text string) ([]int, error) {
	n := len([]rune(text))
	styles := make([]int, 0, n)

	// Line endings are kept as-is so token offsets match buffer positions.
	it, err := s.lexer.Tokenise(&chroma.TokeniseOptions{State: "root"}, text)
	if err != nil {
		return nil, err
	}
	for tok := it(); tok != chroma.EOF; tok = it() {
		style := StyleOf(tok.Type)
		for range tok.Value {
			if len(styles) == n {
				break
			}
			styles = append(styles, style)
		}
	}
	for len(styles) < n {
		styles = append(styles, StyleDefault)
	}
	return styles, nil
}

// Restyle recomputes the buffer's styles and writes back the smallest span
// that changed, so listeners see one style-change notification covering it.
// It reports the span written.
func (s *Styler) Restyle(b *Buffer) (pos, length int, err error) {
	styles, err := s.Styles(b.Text())
	if err != nil {
		return 0, 0, err
	}
	old := b.Styles()

	first := 0
	for first < len(styles) && styles[first] == old[first] {
		first++
	}
	if first == len(styles) {
		return 0, 0, nil
	}
	last := len(styles) - 1
	for last > first && styles[last] == old[last] {
		last--
	}

	if err := b.SetStyles(first, styles[first:last+1]); err != nil {
		return 0, 0, err
	}
	return first, last + 1 - first, nil
}
