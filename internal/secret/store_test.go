package secret

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvStore(t *testing.T) {
	s := NewEnvStore("FLTEST")
	assert.Equal(t, "FLTEST_DB_LOCAL_1", s.VarName("db:local-1"))

	t.Setenv(s.VarName("db:local"), "s3cret")
	v, err := s.Get("db:local")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", string(v))

	require.NoError(t, s.Delete("db:local"))
	v, err = s.Get("db:local")
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestChain(t *testing.T) {
	first := NewEnvStore("FLTEST_A")
	second := NewEnvStore("FLTEST_B")
	c := Chain{first, second}

	t.Setenv(second.VarName("k"), "from-b")
	v, err := c.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "from-b", string(v))

	t.Setenv(first.VarName("k"), "from-a")
	v, err = c.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "from-a", string(v))

	v, err = c.Get("absent")
	require.NoError(t, err)
	assert.Empty(t, v)

	assert.NoError(t, Chain{}.Set("k", nil))
}

func TestIsNotFound(t *testing.T) {
	assert.False(t, isNotFound(nil))
	assert.False(t, isNotFound(assert.AnError))
}
