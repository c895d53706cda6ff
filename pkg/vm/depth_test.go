package vm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kristofer/smog/pkg/compiler"
	"github.com/kristofer/smog/pkg/parser"
	"github.com/kristofer/smog/pkg/value"
)

func TestMaxCallDepthExceededIsStackOverflow(t *testing.T) {
	p := parser.New(`
fn loop(n) {
return loop(n + 1)
}
loop(0)
`)
	program, err := p.Parse()
	require.NoError(t, err)
	co, err := compiler.New().Compile(program)
	require.NoError(t, err)

	vm := NewWithConfig(64, 10)
	_, err = vm.Run(co)
	var rerr *RuntimeError
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, KindStackOverflow, rerr.Kind)
}

func TestNoMaxCallDepthAllowsDeepButBoundedRecursion(t *testing.T) {
	p := parser.New(`
fn countdown(n) {
if n <= 0 {
return 0
} else {
return countdown(n - 1)
}
}
countdown(500)
`)
	program, err := p.Parse()
	require.NoError(t, err)
	co, err := compiler.New().Compile(program)
	require.NoError(t, err)

	v, err := New().Run(co)
	require.NoError(t, err)
	require.Equal(t, value.Int{Value: 0}, v)
}
