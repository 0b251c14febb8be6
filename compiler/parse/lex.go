package parse

import (
	"context"
	"fmt"
	"sort"

	"tlog.app/go/tlog"

	"github.com/slowlang/slowc/compiler/ast"
)

type (
	Token interface{}

	Char    byte
	Punct   string // two byte operators
	Keyword string
	Ident   string
	Number  string
	Quoted  string // char and string literals, quotes included

	UnexpectedError struct {
		Pos   ast.Pos
		Token Token
		Want  string
	}

	BadCharError struct {
		Pos  ast.Pos
		Char byte
	}
)

var keywords = map[string]bool{
	"var":      true,
	"proc":     true,
	"if":       true,
	"else":     true,
	"loop":     true,
	"while":    true,
	"break":    true,
	"continue": true,
	"return":   true,
}

var puncts = []string{"==", "!=", "<=", ">=", "->"}

// next returns the token at st, its start and end.
// Newlines are tokens. nil means end of input.
func (s *State) next(ctx context.Context, st int) (tk Token, tst, i int) {
	if tr := tlog.SpanFromContext(ctx); tr.If("next_token") {
		defer func(st int) {
			tr.Printw("next token", "st", st, "tk", tk, "tst", tst, "i", i)
		}(st)
	}

	st = s.skipSpaces(st)
	i = st

	if i == len(s.b) {
		return nil, st, i
	}

	c := s.b[i]

	for _, p := range puncts {
		if i+len(p) <= len(s.b) && string(s.b[i:i+len(p)]) == p {
			return Punct(p), st, i + len(p)
		}
	}

	switch {
	case isLetter(c):
		e := i
		for e < len(s.b) && (isLetter(s.b[e]) || isDigit(s.b[e])) {
			e++
		}

		w := string(s.b[i:e])
		if keywords[w] {
			return Keyword(w), st, e
		}

		return Ident(w), st, e
	case isDigit(c):
		e := i
		for e < len(s.b) && isDigit(s.b[e]) {
			e++
		}

		return Number(s.b[i:e]), st, e
	case c == '"' || c == '\'':
		e := i + 1
		for e < len(s.b) && s.b[e] != c && s.b[e] != '\n' {
			if s.b[e] == '\\' {
				e++
			}

			e++
		}

		if e >= len(s.b) || s.b[e] != c {
			return BadCharError{Pos: s.pos(i), Char: c}, st, e
		}

		return Quoted(s.b[i : e+1]), st, e + 1
	}

	switch c {
	case '(', ')', '[', ']', '{', '}', ',', ':', ';', '=', '+', '-', '*', '/', '%', '&', '|', '!', '<', '>', '\n':
		return Char(c), st, i + 1
	}

	return BadCharError{Pos: s.pos(i), Char: c}, st, i + 1
}

// skipSpaces skips blanks and comments but not newlines.
func (s *State) skipSpaces(i int) int {
	for i < len(s.b) {
		switch {
		case s.b[i] == ' ' || s.b[i] == '\t' || s.b[i] == '\r':
			i++
		case s.b[i] == '/' && i+1 < len(s.b) && s.b[i+1] == '/':
			for i < len(s.b) && s.b[i] != '\n' {
				i++
			}
		default:
			return i
		}
	}

	return i
}

// skipNewlines skips blank lines and statement separators.
func (s *State) skipNewlines(ctx context.Context, i int) int {
	for {
		tk, _, e := s.next(ctx, i)
		if tk != Char('\n') && tk != Char(';') {
			return i
		}

		i = e
	}
}

func (s *State) pos(off int) ast.Pos {
	l := sort.Search(len(s.lines), func(j int) bool { return s.lines[j] > off })

	return ast.Pos{Line: l, Col: off - s.lines[l-1] + 1}
}

func isLetter(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func (s *State) unexpected(tk Token, tst int, want string) error {
	if e, ok := tk.(BadCharError); ok {
		return e
	}

	return UnexpectedError{Pos: s.pos(tst), Token: tk, Want: want}
}

func (e UnexpectedError) Error() string {
	return fmt.Sprintf("%d:%d: unexpected %s, want %s", e.Pos.Line, e.Pos.Col, tokenString(e.Token), e.Want)
}

func (e BadCharError) Error() string {
	return fmt.Sprintf("%d:%d: bad character %q", e.Pos.Line, e.Pos.Col, e.Char)
}

func tokenString(tk Token) string {
	switch tk := tk.(type) {
	case nil:
		return "end of file"
	case Char:
		if tk == '\n' {
			return "newline"
		}

		return fmt.Sprintf("%q", string(tk))
	case Punct:
		return fmt.Sprintf("%q", string(tk))
	case Keyword:
		return "keyword " + string(tk)
	case Ident:
		return "identifier " + string(tk)
	case Number:
		return "number " + string(tk)
	case Quoted:
		return "literal " + string(tk)
	default:
		return fmt.Sprintf("%v", tk)
	}
}
