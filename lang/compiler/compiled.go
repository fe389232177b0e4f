package compiler

import (
	"fmt"
	"sort"

	"github.com/quelang/que/lang/token"
)

// Error is a single compile-time diagnostic, carrying the position it
// refers to and a free-form message (spec §6: diagnostics are prefixed
// "<filename>:<line>:<col>: " when printed).
type Error struct {
	Pos token.Pos
	Msg string
}

func (e *Error) Error() string {
	line, col := e.Pos.LineCol()
	return fmt.Sprintf("%d:%d: %s", line, col, e.Msg)
}

// ErrorList accumulates compile-time diagnostics, mirroring the shape of
// go/scanner.ErrorList (which mna/nenuphar's scanner package re-exports as
// its own ErrorList/Error types). Only the first error is ever meaningful
// for this compiler's panic-mode recovery (spec §4.2, §7: "the first is
// reported, subsequent ones suppressed"), but ErrorList keeps every
// diagnostic added to it so tooling built on top of the compiler (tests,
// an eventual language server) is not limited to one error per run.
type ErrorList []*Error

// Add appends an Error to the list.
func (el *ErrorList) Add(pos token.Pos, msg string) {
	*el = append(*el, &Error{Pos: pos, Msg: msg})
}

func (el ErrorList) Len() int      { return len(el) }
func (el ErrorList) Swap(i, j int) { el[i], el[j] = el[j], el[i] }
func (el ErrorList) Less(i, j int) bool {
	return el[i].Pos < el[j].Pos
}

// Sort sorts an ErrorList by source position.
func (el ErrorList) Sort() { sort.Sort(el) }

func (el ErrorList) Error() string {
	switch len(el) {
	case 0:
		return "no errors"
	case 1:
		return el[0].Error()
	default:
		return fmt.Sprintf("%s (and %d more errors)", el[0].Error(), len(el)-1)
	}
}

// Err returns an error equivalent to el, or nil if el is empty. The result
// implements Unwrap() []error so callers may use errors.Is/As across the
// full list.
func (el ErrorList) Err() error {
	if len(el) == 0 {
		return nil
	}
	return el
}

// Unwrap lets errors.Is/errors.As traverse every diagnostic in the list.
func (el ErrorList) Unwrap() []error {
	errs := make([]error, len(el))
	for i, e := range el {
		errs[i] = e
	}
	return errs
}
