package vm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kristofer/smog/pkg/value"
)

// These integration tests chain several language features together
// rather than exercising one instruction at a time.

func TestClassMethodBuildsAndReturnsAList(t *testing.T) {
	v := run(t, `
class Counter {
fn init(self) {
self.values = []
}
fn record(self, n) {
self.values.push(n)
return self
}
fn total(self) {
s = 0
i = 0
while i < self.values.len() {
s = s + self.values.get(i)
i = i + 1
}
return s
}
}
c = Counter()
c.record(1)
c.record(2)
c.record(3)
c.total()
`)
	require.Equal(t, value.Int{Value: 6}, v)
}

func TestMapOfListsNestedAccess(t *testing.T) {
	v := run(t, `
m = {"evens": [2, 4], "odds": [1, 3]}
m.get("evens").get(1)
`)
	require.Equal(t, value.Int{Value: 4}, v)
}

func TestRecursiveFunctionComputesFactorial(t *testing.T) {
	v := run(t, `
fn fact(n) {
if n <= 1 {
return 1
} else {
return n * fact(n - 1)
}
}
fact(5)
`)
	require.Equal(t, value.Int{Value: 120}, v)
}

func TestSubclassOverridesParentMethod(t *testing.T) {
	v := run(t, `
class Shape {
fn area(self) {
return 0
}
}
class Square(Shape) {
fn init(self, side) {
self.side = side
}
fn area(self) {
return self.side * self.side
}
}
Square(4).area()
`)
	require.Equal(t, value.Int{Value: 16}, v)
}
