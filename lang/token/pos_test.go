package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMakePosLineCol(t *testing.T) {
	cases := []struct {
		line, col int
	}{
		{1, 1},
		{10, 4},
		{MaxLines, MaxCols},
	}
	for _, tt := range cases {
		p := MakePos(tt.line, tt.col)
		line, col := p.LineCol()
		require.Equal(t, tt.line, line)
		require.Equal(t, tt.col, col)
	}
}

func TestPosUnknown(t *testing.T) {
	require.True(t, Pos(0).Unknown())
	require.False(t, MakePos(1, 1).Unknown())
	require.True(t, MakePos(0, 1).Unknown())
	require.True(t, MakePos(1, 0).Unknown())
}
