package object

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefineAndGet(t *testing.T) {
	env := NewEnvironment()

	val, err := env.Define("x", &Integer{Value: 1})
	require.NoError(t, err)
	assert.Equal(t, "1", val.Inspect())

	got, ok := env.Get("x")
	require.True(t, ok)
	assert.Equal(t, "1", got.Inspect())

	_, ok = env.Get("y")
	assert.False(t, ok)
}

func TestRedeclarationInSameScope(t *testing.T) {
	env := NewEnvironment()

	_, err := env.Define("x", &Integer{Value: 1})
	require.NoError(t, err)

	_, err = env.Define("x", &Integer{Value: 2})
	require.Error(t, err)
	assert.Equal(t, "'x' is already defined in this scope", err.Error())
}

func TestShadowingInInnerScope(t *testing.T) {
	outer := NewEnvironment()
	_, err := outer.Define("x", &Integer{Value: 1})
	require.NoError(t, err)

	inner := NewEnclosedEnvironment(outer)
	_, err = inner.Define("x", &Integer{Value: 2})
	require.NoError(t, err)

	got, ok := inner.Get("x")
	require.True(t, ok)
	assert.Equal(t, "2", got.Inspect())

	// the outer binding is untouched
	got, ok = outer.Get("x")
	require.True(t, ok)
	assert.Equal(t, "1", got.Inspect())
}

func TestGetWalksTheChain(t *testing.T) {
	outer := NewEnvironment()
	_, _ = outer.Define("x", &Integer{Value: 10})

	mid := NewEnclosedEnvironment(outer)
	inner := NewEnclosedEnvironment(mid)

	got, ok := inner.Get("x")
	require.True(t, ok)
	assert.Equal(t, "10", got.Inspect())
}

func TestAssignMutatesNearestDefiningScope(t *testing.T) {
	outer := NewEnvironment()
	_, _ = outer.Define("x", &Integer{Value: 1})

	inner := NewEnclosedEnvironment(outer)
	_, err := inner.Assign("x", &Integer{Value: 5})
	require.NoError(t, err)

	got, _ := outer.Get("x")
	assert.Equal(t, "5", got.Inspect())
}

func TestAssignPrefersInnerShadow(t *testing.T) {
	outer := NewEnvironment()
	_, _ = outer.Define("x", &Integer{Value: 1})

	inner := NewEnclosedEnvironment(outer)
	_, _ = inner.Define("x", &Integer{Value: 2})

	_, err := inner.Assign("x", &Integer{Value: 3})
	require.NoError(t, err)

	gotInner, _ := inner.Get("x")
	assert.Equal(t, "3", gotInner.Inspect())
	gotOuter, _ := outer.Get("x")
	assert.Equal(t, "1", gotOuter.Inspect())
}

func TestAssignUnknownNameFails(t *testing.T) {
	env := NewEnvironment()

	_, err := env.Assign("missing", &Integer{Value: 1})
	require.Error(t, err)
	assert.Equal(t, "'missing' is not defined in any accessible scope", err.Error())
}
