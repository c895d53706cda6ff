package value

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kristofer/smog/pkg/bytecode"
)

func TestTruthy(t *testing.T) {
	require.True(t, Truthy(Bool{true}))
	require.False(t, Truthy(Bool{false}))
	require.True(t, Truthy(Int{1}))
	require.False(t, Truthy(Int{0}))
	require.True(t, Truthy(Float{0.1}))
	require.False(t, Truthy(Float{0}))
	require.True(t, Truthy(String{"x"}))
	require.False(t, Truthy(String{""}))
	require.False(t, Truthy(NullValue))

	l := NewList(1)
	require.False(t, Truthy(l))
	l.Push(Int{1})
	require.True(t, Truthy(l))

	m := NewMap(2)
	require.False(t, Truthy(m))
	require.NoError(t, m.Insert(String{"a"}, Int{1}))
	require.True(t, Truthy(m))
}

func TestMapInsertGetRemove(t *testing.T) {
	m := NewMap(1)
	require.NoError(t, m.Insert(String{"a"}, Int{1}))
	require.NoError(t, m.Insert(String{"b"}, Int{2}))
	require.Equal(t, 2, m.Len())

	v, ok, err := m.Get(String{"a"})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, Int{1}, v)

	_, ok, err = m.Get(String{"missing"})
	require.NoError(t, err)
	require.False(t, ok)

	removed, ok, err := m.Remove(String{"a"})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, Int{1}, removed)
	require.Equal(t, 1, m.Len())
}

func TestMapPreservesInsertionOrder(t *testing.T) {
	m := NewMap(1)
	require.NoError(t, m.Insert(String{"z"}, Int{1}))
	require.NoError(t, m.Insert(String{"a"}, Int{2}))
	require.NoError(t, m.Insert(String{"m"}, Int{3}))

	keys := m.Keys()
	require.Equal(t, []Value{String{"z"}, String{"a"}, String{"m"}}, keys)
}

func TestMapOverwriteKeepsPosition(t *testing.T) {
	m := NewMap(1)
	require.NoError(t, m.Insert(String{"a"}, Int{1}))
	require.NoError(t, m.Insert(String{"b"}, Int{2}))
	require.NoError(t, m.Insert(String{"a"}, Int{9}))

	require.Equal(t, []Value{String{"a"}, String{"b"}}, m.Keys())
	v, _, _ := m.Get(String{"a"})
	require.Equal(t, Int{9}, v)
}

func TestMapRejectsUnhashableKey(t *testing.T) {
	m := NewMap(1)
	err := m.Insert(NewList(2), Int{1})
	require.ErrorIs(t, err, ErrUnhashable)
}

func TestListPushPopPopAt(t *testing.T) {
	l := NewList(1)
	l.Push(Int{1})
	l.Push(Int{2})
	l.Push(Int{3})
	require.Equal(t, 3, l.Len())

	v, ok := l.Pop()
	require.True(t, ok)
	require.Equal(t, Int{3}, v)

	v, ok = l.PopAt(0)
	require.True(t, ok)
	require.Equal(t, Int{1}, v)
	require.Equal(t, 1, l.Len())
}

func TestEqualPromotesIntToFloat(t *testing.T) {
	require.True(t, Equal(Int{2}, Float{2.0}))
	require.True(t, Equal(Float{2.0}, Int{2}))
	require.False(t, Equal(Int{2}, Float{2.1}))
}

func TestEqualAcrossUnrelatedTypesIsFalseNotError(t *testing.T) {
	require.False(t, Equal(Int{1}, String{"1"}))
	require.False(t, Equal(NullValue, Bool{false}))
}

func TestCompareNumericPromotion(t *testing.T) {
	r, err := Compare(Int{1}, Float{2.0})
	require.NoError(t, err)
	require.Equal(t, -1, r)
}

func TestCompareStringsByLength(t *testing.T) {
	// "b" has length 1, "aa" has length 2: "b" < "aa" even though
	// lexicographically "aa" < "b". This is intentional.
	r, err := Compare(String{"b"}, String{"aa"})
	require.NoError(t, err)
	require.Equal(t, -1, r)
}

func TestCompareCrossTypeIsError(t *testing.T) {
	_, err := Compare(Int{1}, String{"1"})
	require.ErrorIs(t, err, ErrNotOrderable)
}

func TestFunctionImplementsNestedCodeObject(t *testing.T) {
	var fn *Function = &Function{ID: 1, Body: bytecode.NewCodeObject(1)}
	var n bytecode.NestedCodeObject = fn
	require.Equal(t, fn.Body, n.DisassemblyBody())
}

func TestMethodBindCopiesRatherThanMutatesOriginal(t *testing.T) {
	fn := &Function{ID: 1, Parameters: []string{"self"}}
	m := &Method{ID: 1, Function: fn}
	bound := m.Bind(Int{42})

	require.Nil(t, m.Caller)
	require.Equal(t, Int{42}, bound.Caller)
}

func TestInstanceAttributesAreIndependentPerInstance(t *testing.T) {
	cls := &Class{ID: 1, Name: "A"}
	a := NewInstance(1, cls)
	b := NewInstance(2, cls)
	a.Attributes["x"] = Int{1}

	_, ok := b.Attributes["x"]
	require.False(t, ok)
}
