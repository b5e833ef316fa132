package idgen

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextUnpadded(t *testing.T) {
	g, err := New("SR")
	require.NoError(t, err)

	var got []string
	for i := 0; i < 38; i++ {
		id, err := g.Next()
		require.NoError(t, err)
		got = append(got, id)
	}
	assert.Equal(t, "SR0", got[0])
	assert.Equal(t, "SR9", got[9])
	assert.Equal(t, "SRA", got[10])
	assert.Equal(t, "SRZ", got[35])
	assert.Equal(t, "SR10", got[36])
	assert.Equal(t, "SR11", got[37])
}

func TestNextPadded(t *testing.T) {
	g, err := New("x_", WithWidth(5), WithStart(36))
	require.NoError(t, err)

	id, err := g.Next()
	require.NoError(t, err)
	assert.Equal(t, "x_00010", id)
}

func TestMonotonic(t *testing.T) {
	for _, width := range []int{0, 3} {
		g, err := New("P", WithWidth(width))
		require.NoError(t, err)

		seen := map[string]bool{}
		prev := ""
		for i := 0; i < 5000; i++ {
			id, err := g.Next()
			require.NoError(t, err)
			require.False(t, seen[id], "repeated id %s", id)
			seen[id] = true
			if prev != "" {
				require.Equal(t, -1, Compare(prev, id), "width %d: %s !< %s", width, prev, id)
			}
			prev = id
		}
	}
}

func TestExhausted(t *testing.T) {
	g, err := New("", WithWidth(1), WithStart(34))
	require.NoError(t, err)

	id, err := g.Next()
	require.NoError(t, err)
	assert.Equal(t, "Y", id)
	id, err = g.Next()
	require.NoError(t, err)
	assert.Equal(t, "Z", id)

	_, err = g.Next()
	assert.ErrorIs(t, err, ErrExhausted)
	_, err = g.Next()
	assert.ErrorIs(t, err, ErrExhausted)
}

func TestExhaustedUnpadded(t *testing.T) {
	g, err := New("", WithStart(math.MaxUint64))
	require.NoError(t, err)

	_, err = g.Next()
	require.NoError(t, err)
	_, err = g.Next()
	assert.ErrorIs(t, err, ErrExhausted)
}

func TestStartOutOfRange(t *testing.T) {
	_, err := New("SR", WithWidth(2), WithStart(36*36))
	assert.ErrorIs(t, err, ErrExhausted)

	_, err = New("SR", WithWidth(-1))
	assert.Error(t, err)
}

func TestReset(t *testing.T) {
	g, err := New("SR")
	require.NoError(t, err)
	_, _ = g.Next()
	_, _ = g.Next()

	require.NoError(t, g.Reset(0))
	id, err := g.Next()
	require.NoError(t, err)
	assert.Equal(t, "SR0", id)
}

func TestFormat(t *testing.T) {
	cases := []struct {
		n     uint64
		width int
		want  string
	}{
		{0, 0, "0"},
		{35, 0, "Z"},
		{36, 0, "10"},
		{1295, 0, "ZZ"},
		{7, 4, "0007"},
		{math.MaxUint64, 0, "3W5E11264SGSF"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Format(c.n, c.width), "Format(%d, %d)", c.n, c.width)
	}
}
