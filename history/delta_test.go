package history

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/Comcast/tale/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func moments() []*Moment {
	return []*Moment{
		NewMoment("Start", nil),
		NewMoment("Hall", map[string]interface{}{
			"gold":  10.0,
			"items": []interface{}{"lamp", "rope", "key"},
			"flags": map[string]interface{}{"lit": true},
		}),
		NewMoment("Hall", map[string]interface{}{
			"gold":  10.0,
			"items": []interface{}{"lamp", "rope", "key"},
			"flags": map[string]interface{}{"lit": true},
		}),
		NewMoment("Cellar", map[string]interface{}{
			"gold":  7.5,
			"items": []interface{}{"lamp"},
			"flags": map[string]interface{}{"lit": false, "wet": nil},
			"when":  time.UnixMilli(1500000000000).UTC(),
		}),
		NewMoment("Attic", map[string]interface{}{
			"items": []interface{}{"lamp", "map", "coin", "a", "b", "c", "d", "e", "f", "g", "h", "i"},
			"flags": "gone",
			"when":  time.UnixMilli(1500000001000).UTC(),
		}),
	}
}

func TestDeltaRoundTrip(t *testing.T) {
	h := moments()
	delta := DeltaEncode(h)
	require.Len(t, delta, len(h))

	// Identical neighbors encode as no diff.
	assert.Nil(t, delta[2])

	got, err := DeltaDecode(delta)
	require.NoError(t, err)
	require.Len(t, got, len(h))
	for i := range h {
		assert.Equal(t, h[i].Title, got[i].Title, i)
		assert.Equal(t, h[i].Variables, got[i].Variables, i)
	}
}

func TestDeltaRoundTripThroughJSON(t *testing.T) {
	h := moments()[:3]
	js, err := json.Marshal(DeltaEncode(h))
	require.NoError(t, err)

	var delta []interface{}
	require.NoError(t, json.Unmarshal(js, &delta))

	got, err := DeltaDecode(delta)
	require.NoError(t, err)
	for i := range h {
		assert.Equal(t, h[i].Variables, got[i].Variables, i)
	}
}

func TestDeltaUndefinedThroughJSON(t *testing.T) {
	h := []*Moment{
		NewMoment("Start", map[string]interface{}{
			"u":  core.Undefined,
			"xs": []interface{}{1.0, core.Undefined},
		}),
		NewMoment("Hall", map[string]interface{}{
			"u": 2.0,
			"v": core.Undefined,
		}),
	}
	js, err := json.Marshal(DeltaEncode(h))
	require.NoError(t, err)

	var delta []interface{}
	require.NoError(t, json.Unmarshal(js, &delta))

	got, err := DeltaDecode(delta)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, core.IsUndefined(got[0].Variables["u"]))
	assert.Equal(t, []interface{}{1.0, core.Undefined}, got[0].Variables["xs"])
	assert.Equal(t, 2.0, got[1].Variables["u"])
	assert.True(t, core.IsUndefined(got[1].Variables["v"]))

	// The moments themselves are untouched by encoding.
	assert.True(t, core.IsUndefined(h[0].Variables["u"]))
}

func TestDeltaEmpty(t *testing.T) {
	delta := DeltaEncode(nil)
	assert.Len(t, delta, 0)
	got, err := DeltaDecode(delta)
	require.NoError(t, err)
	assert.Len(t, got, 0)
}

func TestDiffSplice(t *testing.T) {
	d := Diff(
		map[string]interface{}{"xs": []interface{}{1.0, 2.0, 3.0, 4.0}},
		map[string]interface{}{"xs": []interface{}{1.0, 5.0}},
	)
	want := map[string]interface{}{
		"xs": map[string]interface{}{
			"1": []interface{}{float64(OpCopy), 5.0},
			"~": []interface{}{float64(OpSpliceArray), 2.0, 3.0},
		},
	}
	assert.Equal(t, want, d)
}

func TestDiffDelete(t *testing.T) {
	d := Diff(
		map[string]interface{}{"a": 1.0, "b": 2.0},
		map[string]interface{}{"a": 1.0},
	)
	assert.Equal(t, map[string]interface{}{"b": float64(OpDelete)}, d)

	p, err := Patch(map[string]interface{}{"a": 1.0, "b": 2.0}, d)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"a": 1.0}, p)
}

func TestPatchRejectsJunk(t *testing.T) {
	_, err := Patch(map[string]interface{}{}, map[string]interface{}{"a": []interface{}{9.0}})
	assert.Error(t, err)
	_, err = Patch(map[string]interface{}{}, "nope")
	assert.Error(t, err)
}
