package vars

import (
	"testing"

	"github.com/Comcast/tale/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scope() *core.Scope {
	s := core.NewScope()
	s.Story["obj"] = map[string]interface{}{
		"a": []interface{}{10.0, 20.0},
		"b": map[string]interface{}{"c d": "deep"},
	}
	s.Temp["i"] = 1.0
	s.Temp["key"] = "a"
	return s
}

func TestGetPath(t *testing.T) {
	s := scope()
	assert.Equal(t, 20.0, Get(s, "$obj.a[1]"))
	assert.Equal(t, "deep", Get(s, `$obj.b["c d"]`))
	assert.Equal(t, "deep", Get(s, `$obj['b']['c d']`))
	assert.Equal(t, 2.0, Get(s, "$obj.a.length"))
	assert.Equal(t, 20.0, Get(s, "$obj.a[_i]"))
}

func TestGetMissing(t *testing.T) {
	s := scope()
	assert.True(t, core.IsUndefined(Get(s, "$obj.a[5]")))
	assert.True(t, core.IsUndefined(Get(s, "$nope.a.b")))
	assert.True(t, core.IsUndefined(Get(s, "_obj")))
}

func TestResolveMalformed(t *testing.T) {
	s := scope()
	for _, text := range []string{"", "obj", "$", "$obj.", "$obj[", "$obj.a[1] + 2", "$obj..a"} {
		assert.Nil(t, Resolve(s, text), text)
	}
	p := Resolve(s, "$obj.a[1]")
	require.NotNil(t, p)
	assert.Equal(t, []interface{}{"obj", "a", 1.0}, p.Names)
}

func TestSetPath(t *testing.T) {
	s := scope()
	require.True(t, Set(s, "$obj.a[1]", 99.0))
	assert.Equal(t, 99.0, Get(s, "$obj.a[1]"))

	require.True(t, Set(s, "_fresh", "x"))
	assert.Equal(t, "x", s.Temp["fresh"])

	// No auto-vivification.
	assert.False(t, Set(s, "$missing.a", 1.0))
	assert.False(t, s.Story.Has("missing"))
}

func TestSetGrowsArray(t *testing.T) {
	s := scope()
	require.True(t, Set(s, "$obj.a[3]", 40.0))
	xs := Get(s, "$obj.a").([]interface{})
	require.Len(t, xs, 4)
	assert.True(t, core.IsUndefined(xs[2]))
	assert.Equal(t, 40.0, xs[3])
}

func TestDelete(t *testing.T) {
	s := scope()
	p := Resolve(s, "$obj.b")
	require.NotNil(t, p)
	assert.True(t, p.Delete())
	assert.False(t, Has(s, "$obj.b"))
}

func TestDeleteByText(t *testing.T) {
	s := scope()
	assert.True(t, Delete(s, "$obj.b"))
	assert.False(t, Has(s, "$obj.b"))
	assert.False(t, Delete(s, "not a path"))
}
