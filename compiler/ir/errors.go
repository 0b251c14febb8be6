package ir

import (
	"fmt"

	"tlog.app/go/loc"
)

// InternalError is a compiler defect: the input was supposed to be
// checked already, so there is nothing the user can fix.
type InternalError struct {
	Msg string
	PC  loc.PC
}

func (e InternalError) Error() string {
	name, file, line := e.PC.NameFileLine()

	return fmt.Sprintf("internal error: %s (at %s %s:%d)", e.Msg, name, file, line)
}

// Panicf aborts the compilation with an InternalError.
func Panicf(format string, args ...any) {
	panic(InternalError{
		Msg: fmt.Sprintf(format, args...),
		PC:  loc.Caller(1),
	})
}
