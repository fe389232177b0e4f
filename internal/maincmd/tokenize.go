package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/quelang/que/lang/lexer"
	"github.com/quelang/que/lang/token"
)

func (c *Cmd) Tokenize(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return TokenizeFile(stdio, args[0])
}

// TokenizeFile runs only the lexer phase over the file at path and prints
// one line per token, in the style of nenuphar's TokenizeFiles.
func TokenizeFile(stdio mainer.Stdio, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s\n", err)
		return fmt.Errorf("%w: %v", errLoadFailure, err)
	}

	var lexErr error
	l := lexer.New(src, func(pos token.Pos, msg string) {
		line, col := pos.LineCol()
		lexErr = fmt.Errorf("%s:%d:%d: %s", path, line, col, msg)
	})

	for {
		tok := l.Next()
		line, col := tok.Pos.LineCol()
		fmt.Fprintf(stdio.Stdout, "%s:%d:%d: %s", path, line, col, tok.Kind)
		if tok.Lit != "" {
			fmt.Fprintf(stdio.Stdout, " %q", tok.Lit)
		}
		fmt.Fprintln(stdio.Stdout)
		if tok.Kind == token.EOF {
			break
		}
	}
	if lexErr != nil {
		fmt.Fprintf(stdio.Stderr, "%s\n", lexErr)
		return fmt.Errorf("%w: %v", errLoadFailure, lexErr)
	}
	return nil
}
