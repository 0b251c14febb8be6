package ast

import (
	"strconv"

	"tlog.app/go/errors"

	"github.com/slowlang/slowc/compiler/tp"
)

// ParseLiteral decodes literal text. Scalars are returned in v,
// string literals in s.
func ParseLiteral(text string) (t tp.Type, v int64, s []byte, err error) {
	if text == "" {
		return nil, 0, nil, errors.New("empty literal")
	}

	switch text {
	case "true":
		return tp.Bool{}, 1, nil, nil
	case "false":
		return tp.Bool{}, 0, nil, nil
	}

	switch text[0] {
	case '\'':
		if len(text) < 3 || text[len(text)-1] != '\'' {
			return nil, 0, nil, errors.New("bad char literal: %s", text)
		}

		s, err = unescape(text[1 : len(text)-1])
		if err != nil {
			return nil, 0, nil, errors.Wrap(err, "char literal")
		}

		if len(s) != 1 {
			return nil, 0, nil, errors.New("char literal must hold one byte: %s", text)
		}

		return tp.Char{}, int64(s[0]), nil, nil
	case '"':
		if len(text) < 2 || text[len(text)-1] != '"' {
			return nil, 0, nil, errors.New("bad string literal: %s", text)
		}

		s, err = unescape(text[1 : len(text)-1])
		if err != nil {
			return nil, 0, nil, errors.Wrap(err, "string literal")
		}

		return tp.Array{X: tp.Char{}}, 0, s, nil
	}

	v, err = strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil, 0, nil, errors.Wrap(err, "int literal")
	}

	return tp.Int{}, v, nil, nil
}

func unescape(q string) (r []byte, err error) {
	for i := 0; i < len(q); i++ {
		c := q[i]

		if c != '\\' {
			r = append(r, c)
			continue
		}

		i++
		if i == len(q) {
			return nil, errors.New("unterminated escape")
		}

		switch q[i] {
		case 'n':
			c = '\n'
		case 't':
			c = '\t'
		case 'r':
			c = '\r'
		case '0':
			c = 0
		case '\\', '\'', '"':
			c = q[i]
		default:
			return nil, errors.New("unknown escape: \\%c", q[i])
		}

		r = append(r, c)
	}

	return r, nil
}
