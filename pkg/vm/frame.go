package vm

import (
	"github.com/kristofer/smog/pkg/bytecode"
	"github.com/kristofer/smog/pkg/value"
)

// Frame is one activation of a code object: its own variable slots,
// sized and Null-initialized to match the code object's variable_names.
type Frame struct {
	Code      *bytecode.CodeObject
	Variables []value.Value
	IP        int
}

// NewFrame allocates a frame for co with every slot set to Null.
func NewFrame(co *bytecode.CodeObject) *Frame {
	vars := make([]value.Value, len(co.VariableNames))
	for i := range vars {
		vars[i] = value.NullValue
	}
	return &Frame{Code: co, Variables: vars}
}
