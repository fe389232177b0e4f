// Package io implements Que's standard io library: the print and input
// CFUNCTIONs, grounded on original_source/src/stdlib/io.c's io_print/
// io_input. It is installed as a global table named "io" via
// embed.State.OpenLibrary("io", io.Open), corresponding to the reference's
// io_bootstrap/Que_LoadLibrary.
package io

import (
	"bufio"
	"fmt"

	"github.com/quelang/que/lang/value"
)

// Open returns a new "io" table bound with print and input, ready to be
// installed on a State with State.LoadTable(io.Open(), "io").
func Open() *value.Table {
	var stdin *bufio.Reader // lazily bound to the first host that calls input

	t := value.NewTable()
	t.InsertString("print", &value.CFunction{Name: "print", Fn: print_})
	t.InsertString("input", &value.CFunction{Name: "input", Fn: func(host value.Host, argc int) error {
		if stdin == nil {
			stdin = bufio.NewReader(host.Stdin())
		}
		return input(stdin, host, argc)
	}})
	return t
}

// print_ implements io.print: it accepts exactly one argument and writes its
// displayable form followed by a newline to the host's Stdout, then leaves a
// NIL result on the stack (spec: a CFUNCTION leaves caller_top+1 values on
// success).
func print_(host value.Host, argc int) error {
	if argc != 1 {
		return fmt.Errorf("print accepts exactly 1 argument, got %d", argc)
	}
	v := host.Pop()
	fmt.Fprintln(host.Stdout(), v.String())
	host.Push(value.Nil{})
	return nil
}

// input implements io.input: it accepts no arguments, reads one line from
// stdin, and pushes it as a STRING with the trailing newline stripped.
func input(stdin *bufio.Reader, host value.Host, argc int) error {
	if argc != 0 {
		return fmt.Errorf("input accepts no arguments, got %d", argc)
	}
	line, err := stdin.ReadString('\n')
	if err != nil && line == "" {
		return fmt.Errorf("input string was too long or stream closed")
	}
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	host.Push(value.NewString(line))
	return nil
}
