package tp

import (
	"strings"

	"tlog.app/go/errors"
)

type (
	// Type is a primitive value type. A nil Type means "not typed yet"
	// and is what the analyzer leaves behind on failed expressions.
	Type interface {
		Size() int
		String() string
	}

	Void struct{}

	Bool struct{}

	Int struct{}

	Char struct{}

	Array struct {
		X Type
	}
)

const PtrSize = 8

func (Void) Size() int  { return 0 }
func (Bool) Size() int  { return 1 }
func (Int) Size() int   { return 8 }
func (Char) Size() int  { return 1 }
func (Array) Size() int { return PtrSize }

func (Void) String() string { return "Void" }
func (Bool) String() string { return "Bool" }
func (Int) String() string  { return "Int" }
func (Char) String() string { return "Char" }

func (x Array) String() string {
	return "[" + Name(x.X) + "]"
}

// Name is String that tolerates the nil type.
func Name(t Type) string {
	if t == nil {
		return "<untyped>"
	}

	return t.String()
}

func IsVoid(t Type) bool {
	_, ok := t.(Void)
	return ok
}

func Elem(t Type) (Type, bool) {
	a, ok := t.(Array)
	if !ok {
		return nil, false
	}

	return a.X, true
}

func Parse(s string) (Type, error) {
	switch s {
	case "Int":
		return Int{}, nil
	case "Bool":
		return Bool{}, nil
	case "Char":
		return Char{}, nil
	}

	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") && len(s) > 2 {
		x, err := Parse(s[1 : len(s)-1])
		if err != nil {
			return nil, err
		}

		return Array{X: x}, nil
	}

	return nil, errors.New("undefined type: %q", s)
}

// Mangle renders t in a form usable inside assembly labels.
func Mangle(t Type) string {
	switch t := t.(type) {
	case Int:
		return "int"
	case Bool:
		return "bool"
	case Char:
		return "char"
	case Array:
		return "arr" + Mangle(t.X)
	default:
		return "void"
	}
}
