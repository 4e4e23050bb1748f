package history

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Comcast/tale/core"
)

// Diff operations.  A diff maps keys to either OpDelete, a nested
// diff (map[string]interface{}), or an operation array whose first
// element is the operation.
const (
	OpDelete      = 0
	OpSpliceArray = 1
	OpCopy        = 2
	OpCopyDate    = 3
)

// Diff describes how to turn orig into dest, which should be the
// same kind of container: both maps or both arrays.  It returns nil
// when there's no difference.
//
// Operation codes are float64s so that a diff looks the same before
// and after a trip through JSON.
func Diff(orig, dest interface{}) map[string]interface{} {
	origKeys := keysOf(orig)
	destKeys := keysOf(dest)
	_, origIsArray := orig.([]interface{})

	keys := make([]string, 0, len(origKeys)+len(destKeys))
	keys = append(keys, origKeys...)
	keys = append(keys, destKeys...)
	sort.Strings(keys)
	keys = dedup(keys)

	diffed := make(map[string]interface{})
	var splice string
	var spliceOp []interface{}

	for _, key := range keys {
		origP, inOrig := lookup(orig, key)
		destP, inDest := lookup(dest, key)

		switch {
		case inOrig && inDest:
			if sameScalar(origP, destP) {
				continue
			}
			if core.TypeOf(origP) != core.TypeOf(destP) {
				diffed[key] = copyOp(destP)
				continue
			}
			if core.TypeOf(origP) != "object" || origP == nil {
				diffed[key] = []interface{}{float64(OpCopy), destP}
				continue
			}
			if tag(origP) != tag(destP) {
				diffed[key] = copyOp(destP)
				continue
			}
			switch o := origP.(type) {
			case time.Time:
				d := destP.(time.Time)
				if o.UnixMilli() != d.UnixMilli() {
					diffed[key] = []interface{}{float64(OpCopyDate), float64(d.UnixMilli())}
				}
			case map[string]interface{}, core.Store, []interface{}:
				if recurse := Diff(origP, destP); recurse != nil {
					diffed[key] = recurse
				}
			default:
				if !reflect.DeepEqual(origP, destP) {
					diffed[key] = copyOp(destP)
				}
			}

		case inOrig:
			n, numeric := arrayIndex(key)
			if origIsArray && numeric {
				if spliceOp == nil {
					splice = "~"
					for contains(keys, splice) {
						splice += "~"
					}
					spliceOp = []interface{}{float64(OpSpliceArray), float64(n), float64(n)}
					diffed[splice] = spliceOp
				}
				if float64(n) < spliceOp[1].(float64) {
					spliceOp[1] = float64(n)
				}
				if float64(n) > spliceOp[2].(float64) {
					spliceOp[2] = float64(n)
				}
			} else {
				diffed[key] = float64(OpDelete)
			}

		default:
			diffed[key] = copyOp(destP)
		}
	}

	if len(diffed) == 0 {
		return nil
	}
	return diffed
}

// Patch applies a diff made by Diff to a copy of orig.
//
// Keys are applied in sorted order, so array indexes come before
// the splice key.
func Patch(orig interface{}, diffed interface{}) (interface{}, error) {
	patched := core.Clone(orig)
	if diffed == nil {
		return patched, nil
	}
	d, is := diffed.(map[string]interface{})
	if !is {
		return nil, fmt.Errorf("bad diff (%T)", diffed)
	}

	for _, key := range core.SortedKeys(d) {
		var err error
		switch op := d[key].(type) {
		case float64, int:
			if core.ToNumber(op) != OpDelete {
				return nil, fmt.Errorf("bad diff operation %v at %q", op, key)
			}
			patched = remove(patched, key)
		case []interface{}:
			if len(op) == 0 {
				return nil, fmt.Errorf("empty diff operation at %q", key)
			}
			switch int(core.ToNumber(op[0])) {
			case OpSpliceArray:
				if len(op) != 3 {
					return nil, fmt.Errorf("bad splice at %q", key)
				}
				patched, err = spliceOut(patched, int(core.ToNumber(op[1])), int(core.ToNumber(op[2])))
			case OpCopy:
				if len(op) != 2 {
					return nil, fmt.Errorf("bad copy at %q", key)
				}
				patched, err = put(patched, key, core.Clone(op[1]))
			case OpCopyDate:
				if len(op) != 2 {
					return nil, fmt.Errorf("bad date copy at %q", key)
				}
				ms := core.ToNumber(op[1])
				if math.IsNaN(ms) {
					return nil, fmt.Errorf("bad date at %q", key)
				}
				patched, err = put(patched, key, time.UnixMilli(int64(ms)).UTC())
			default:
				return nil, fmt.Errorf("unknown diff operation %v at %q", op[0], key)
			}
		case map[string]interface{}:
			child, _ := lookup(patched, key)
			var sub interface{}
			if sub, err = Patch(child, op); err == nil {
				patched, err = put(patched, key, sub)
			}
		default:
			return nil, fmt.Errorf("bad diff value (%T) at %q", op, key)
		}
		if err != nil {
			return nil, err
		}
	}

	return patched, nil
}

func keysOf(x interface{}) []string {
	switch vv := x.(type) {
	case map[string]interface{}:
		return core.SortedKeys(vv)
	case core.Store:
		return core.SortedKeys(vv.Map())
	case []interface{}:
		acc := make([]string, len(vv))
		for i := range vv {
			acc[i] = strconv.Itoa(i)
		}
		return acc
	}
	return nil
}

func lookup(x interface{}, key string) (interface{}, bool) {
	switch vv := x.(type) {
	case map[string]interface{}:
		y, have := vv[key]
		return y, have
	case core.Store:
		y, have := vv[key]
		return y, have
	case []interface{}:
		if i, ok := arrayIndex(key); ok && i < len(vv) {
			return vv[i], true
		}
	}
	return nil, false
}

func put(x interface{}, key string, v interface{}) (interface{}, error) {
	switch vv := x.(type) {
	case map[string]interface{}:
		vv[key] = v
		return vv, nil
	case core.Store:
		vv[key] = v
		return vv, nil
	case []interface{}:
		i, ok := arrayIndex(key)
		if !ok {
			return nil, fmt.Errorf("non-index key %q for an array", key)
		}
		for len(vv) <= i {
			vv = append(vv, core.Undefined)
		}
		vv[i] = v
		return vv, nil
	case nil:
		// Patching into a missing container builds a map.
		return map[string]interface{}{key: v}, nil
	}
	return nil, fmt.Errorf("can't set %q in a %T", key, x)
}

func remove(x interface{}, key string) interface{} {
	switch vv := x.(type) {
	case map[string]interface{}:
		delete(vv, key)
	case core.Store:
		delete(vv, key)
	}
	return x
}

func spliceOut(x interface{}, from, to int) (interface{}, error) {
	xs, is := x.([]interface{})
	if !is {
		return nil, fmt.Errorf("splice of a %T", x)
	}
	if from < 0 || to < from || len(xs) <= from {
		return nil, fmt.Errorf("bad splice [%d,%d] of %d", from, to, len(xs))
	}
	if len(xs) <= to {
		to = len(xs) - 1
	}
	return append(xs[:from:from], xs[to+1:]...), nil
}

func copyOp(x interface{}) []interface{} {
	return []interface{}{float64(OpCopy), core.Clone(x)}
}

func sameScalar(x, y interface{}) bool {
	switch x.(type) {
	case nil, bool, float64, string:
		switch y.(type) {
		case nil, bool, float64, string:
			return x == y
		}
	}
	return core.IsUndefined(x) && core.IsUndefined(y)
}

func tag(x interface{}) string {
	switch x.(type) {
	case nil:
		return "Null"
	case []interface{}:
		return "Array"
	case time.Time:
		return "Date"
	case map[string]interface{}, core.Store:
		return "Object"
	}
	return fmt.Sprintf("%T", x)
}

func arrayIndex(key string) (int, bool) {
	if key == "" || strings.TrimLeft(key, "0123456789") != "" {
		return 0, false
	}
	n, err := strconv.Atoi(key)
	return n, err == nil
}

func dedup(sorted []string) []string {
	acc := sorted[:0]
	for i, s := range sorted {
		if i == 0 || sorted[i-1] != s {
			acc = append(acc, s)
		}
	}
	return acc
}

func contains(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}
