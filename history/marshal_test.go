package history

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalOmitsZeroes(t *testing.T) {
	h := New(0)
	push(t, h, "A")
	js, err := json.Marshal(h.Marshal(false))
	require.NoError(t, err)
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(js, &m))
	for _, k := range []string{"expired", "last", "unique", "seed", "history"} {
		_, have := m[k]
		assert.False(t, have, k)
	}
	assert.Equal(t, 0.0, m["index"])
}

func TestUnmarshalForSave(t *testing.T) {
	ctx := context.Background()
	h := New(2)
	push(t, h, "A", "B", "C")
	_, err := h.GoTo(ctx, 0)
	require.NoError(t, err)

	js, err := json.Marshal(h.MarshalForSave())
	require.NoError(t, err)
	var s State
	require.NoError(t, json.Unmarshal(js, &s))

	g := New(2)
	require.NoError(t, g.UnmarshalForSave(ctx, &s))
	assert.Equal(t, 0, g.ActiveIndex())
	assert.Equal(t, 2, g.Size())
	assert.Equal(t, 1, g.Expired())
	assert.Equal(t, "A", g.ExpiredLast())
	assert.Equal(t, "B", g.Active().Title)
}

func TestUnmarshalIsAtomic(t *testing.T) {
	ctx := context.Background()
	h := New(0)
	push(t, h, "A", "B")

	good := h.Marshal(false)
	three := 3
	seed := "s"

	bad := []*State{
		nil,
		{Index: good.Index},
		{Delta: good.Delta},
		{Delta: good.Delta, Index: &three},
		{Delta: good.Delta, Index: good.Index, Seed: &seed},
		{Delta: []interface{}{"junk"}, Index: good.Index},
	}

	g := New(0)
	push(t, g, "X")
	for i, s := range bad {
		err := g.Unmarshal(ctx, s, false)
		var bs *BadState
		assert.ErrorAs(t, err, &bs, i)
		assert.Equal(t, []string{"X"}, g.Passages(), i)
	}
}

func TestUnmarshalNeedsSeed(t *testing.T) {
	ctx := context.Background()
	h := New(0)
	push(t, h, "A")
	s := h.Marshal(false)

	g := New(0)
	require.NoError(t, g.InitPRNG("seeded", false))
	var bs *BadState
	assert.ErrorAs(t, g.Unmarshal(ctx, s, false), &bs)
	assert.True(t, g.IsEmpty())
}
