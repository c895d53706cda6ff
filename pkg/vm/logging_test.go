package vm

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/smog/pkg/compiler"
	"github.com/kristofer/smog/pkg/parser"
)

func TestSessionIDIsStableAndUniquePerVM(t *testing.T) {
	a := New()
	b := New()
	require.NotEmpty(t, a.SessionID())
	require.NotEmpty(t, b.SessionID())
	require.NotEqual(t, a.SessionID(), b.SessionID())
	require.Equal(t, a.SessionID(), a.SessionID())
}

func TestAttachLoggerTracesEachInstruction(t *testing.T) {
	p := parser.New("1 + 2")
	program, err := p.Parse()
	require.NoError(t, err)
	co, err := compiler.New().Compile(program)
	require.NoError(t, err)

	var buf bytes.Buffer
	log := zerolog.New(&buf).Level(zerolog.DebugLevel)

	machine := New()
	machine.AttachLogger(log)
	_, err = machine.Run(co)
	require.NoError(t, err)

	require.Contains(t, buf.String(), "\"session\"")
	require.Contains(t, buf.String(), "\"op\"")
}

func TestNoLoggerProducesNoOutput(t *testing.T) {
	p := parser.New("1 + 2")
	program, err := p.Parse()
	require.NoError(t, err)
	co, err := compiler.New().Compile(program)
	require.NoError(t, err)

	machine := New()
	_, err = machine.Run(co)
	require.NoError(t, err)
	require.Nil(t, machine.logger)
}
