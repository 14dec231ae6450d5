package tyck

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vito/tyck/pkg/hm"
)

func TestSessionKeepsDeclarations(t *testing.T) {
	ctx := context.Background()
	sess := NewSession(hm.NewEnv(hm.Binding{Name: "flag", Type: hm.Boolean}))

	ty, err := sess.Eval(ctx, "const inc = (n: number) => n + 1")
	require.NoError(t, err)
	assert.Equal(t, "(n: number) => number", ty.String())

	ty, err = sess.Eval(ctx, "function pick(n: number): number { return flag ? inc(n) : n }")
	require.NoError(t, err)
	assert.Equal(t, "(n: number) => number", ty.String())

	ty, err = sess.Eval(ctx, "pick(inc(1))")
	require.NoError(t, err)
	assert.Equal(t, hm.Number, ty)

	assert.Equal(t, []string{"flag", "inc", "pick"}, sess.Env().Names())
}

func TestSessionDiscardsFailedInput(t *testing.T) {
	ctx := context.Background()
	sess := NewSession(nil)

	_, err := sess.Eval(ctx, "const a = 1; const b = a + true")
	require.ErrorIs(t, err, NotANumber)
	_, found := sess.Env().Lookup("a")
	assert.False(t, found)

	_, err = sess.Eval(ctx, "const")
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestSessionReset(t *testing.T) {
	ctx := context.Background()
	base := hm.NewEnv(hm.Binding{Name: "n", Type: hm.Number})
	sess := NewSession(base)

	_, err := sess.Eval(ctx, "const m = n + n")
	require.NoError(t, err)
	assert.Equal(t, 2, sess.Env().Len())

	sess.Reset()
	assert.Same(t, base, sess.Env())

	_, err = sess.Eval(ctx, "m")
	require.ErrorIs(t, err, UnknownVariable)
}
