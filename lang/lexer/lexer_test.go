package lexer

import (
	"fmt"
	"testing"

	"github.com/quelang/que/lang/token"
	"github.com/stretchr/testify/require"
)

func scanAll(t *testing.T, src string) []Tok {
	t.Helper()
	var errs []string
	l := New([]byte(src), func(pos token.Pos, msg string) {
		errs = append(errs, msg)
	})
	var toks []Tok
	for {
		tok := l.Next()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	if len(errs) > 0 {
		t.Logf("lexer errors: %v", errs)
	}
	return toks
}

func kinds(toks []Tok) []token.Token {
	out := make([]token.Token, len(toks))
	for i, tk := range toks {
		out[i] = tk.Kind
	}
	return out
}

func TestLexSimpleDeclaration(t *testing.T) {
	toks := scanAll(t, "let x = 1 + 2\n")
	require.Equal(t, []token.Token{
		token.LET, token.IDENT, token.EQ, token.INT, token.PLUS, token.INT, token.EOL, token.EOF,
	}, kinds(toks))
}

func TestLexIndentDedentBalanced(t *testing.T) {
	src := "function f():\n        let x = 1\n        let y = 2\nlet z = 3\n"
	toks := scanAll(t, src)

	var indents, dedents int
	for _, tk := range toks {
		switch tk.Kind {
		case token.INDENT:
			indents++
		case token.DEDENT:
			dedents++
		}
	}
	require.Equal(t, indents, dedents, "every INDENT must be matched by exactly one DEDENT")
	require.Equal(t, 1, indents)
}

func TestLexIndentNotMultipleOfWidthIsError(t *testing.T) {
	var msgs []string
	l := New([]byte("   let x = 1\n"), func(pos token.Pos, msg string) {
		msgs = append(msgs, msg)
	})
	tok := l.Next()
	require.Equal(t, token.ERROR, tok.Kind)
	require.Contains(t, msgs[0], "invalid number of spaces for indent")
}

func TestLexNestedIndentation(t *testing.T) {
	src := "function f():\n        function g():\n                let a = 1\n        let b = 2\nlet c = 3\n"
	toks := scanAll(t, src)
	kindsGot := kinds(toks)

	var depth, maxDepth int
	for _, k := range kindsGot {
		if k == token.INDENT {
			depth++
			if depth > maxDepth {
				maxDepth = depth
			}
		}
		if k == token.DEDENT {
			depth--
		}
	}
	require.Equal(t, 0, depth)
	require.Equal(t, 2, maxDepth)
}

// TestStringEscapeIsRaw pins spec §4.1's unconditional `\x` escape: the byte
// after a backslash is always consumed and left as-is, there is no escape
// table, so `\n` inside a string literal yields the two bytes '\' and 'n',
// both kept in the literal, not a newline.
func TestStringEscapeIsRaw(t *testing.T) {
	toks := scanAll(t, `"a\nb"`+"\n")
	require.Equal(t, token.STRING, toks[0].Kind)
	require.Equal(t, `a\nb`, toks[0].Lit, "the escaped byte is kept raw in the literal, not interpreted as a newline")
}

// TestStringEscapedQuoteDoesNotTerminate pins the other half of the
// unconditional `\x` rule: a backslash-quote inside a string does not close
// it, because the lexer unconditionally consumes whatever follows a
// backslash.
func TestStringEscapedQuoteDoesNotTerminate(t *testing.T) {
	toks := scanAll(t, `"a\"b"`+"\n")
	require.Equal(t, token.STRING, toks[0].Kind)
	require.Equal(t, `a\"b`, toks[0].Lit)
}

func TestLexCharLiteral(t *testing.T) {
	toks := scanAll(t, "'a'\n")
	require.Equal(t, token.CHAR, toks[0].Kind)
	require.Equal(t, "a", toks[0].Lit)
}

func TestLexCharLiteralMissingQuoteIsError(t *testing.T) {
	toks := scanAll(t, "'ab\n")
	require.Equal(t, token.ERROR, toks[0].Kind)
}

func TestLexFloatAndInt(t *testing.T) {
	toks := scanAll(t, "1 2.5\n")
	require.Equal(t, token.INT, toks[0].Kind)
	require.Equal(t, "1", toks[0].Lit)
	require.Equal(t, token.FLOAT, toks[1].Kind)
	require.Equal(t, "2.5", toks[1].Lit)
}

func TestLexKeywordsVsIdentifiers(t *testing.T) {
	cases := []struct {
		lit  string
		want token.Token
	}{
		{"function", token.FUNCTION},
		{"let", token.LET},
		{"return", token.RETURN},
		{"while", token.WHILE},
		{"break", token.BREAK},
		{"continue", token.CONTINUE},
		{"if", token.IF},
		{"else", token.ELSE},
		{"nil", token.NIL},
		{"true", token.TRUE},
		{"false", token.FALSE},
		{"functio", token.IDENT},
		{"falsey", token.IDENT},
		{"x", token.IDENT},
	}
	for _, tt := range cases {
		t.Run(tt.lit, func(t *testing.T) {
			toks := scanAll(t, tt.lit+"\n")
			require.Equal(t, tt.want, toks[0].Kind)
		})
	}
}

func TestLexOperators(t *testing.T) {
	src := "( ) [ ] , : . + - * ** / << >> > >= < <= & | ^ ~ && || ! == != =\n"
	want := []token.Token{
		token.LPAREN, token.RPAREN, token.LBRACK, token.RBRACK, token.COMMA, token.COLON, token.DOT,
		token.PLUS, token.MINUS, token.STAR, token.STARSTAR, token.SLASH,
		token.LTLT, token.GTGT, token.GT, token.GE, token.LT, token.LE,
		token.AMP, token.PIPE, token.CARET, token.TILDE, token.ANDAND, token.OROR,
		token.BANG, token.EQEQ, token.BANGEQ, token.EQ, token.EOL, token.EOF,
	}
	toks := scanAll(t, src)
	require.Equal(t, want, kinds(toks))
}

func TestLexEOFIsSticky(t *testing.T) {
	l := New([]byte(""), nil)
	require.Equal(t, token.EOF, l.Next().Kind)
	require.Equal(t, token.EOF, l.Next().Kind)
}

func ExampleLexer_Next() {
	l := New([]byte("let x = 1\n"), nil)
	for {
		tok := l.Next()
		fmt.Println(tok.Kind)
		if tok.Kind == token.EOF {
			break
		}
	}
	// Output:
	// let
	// identifier
	// =
	// int literal
	// newline
	// end of file
}
