package core

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
)

type undefined struct{}

func (undefined) String() string {
	return "undefined"
}

// MarshalJSON writes null, which is the closest JSON can get.
func (undefined) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// Undefined is the value of a missing property.
//
// A Store can hold Undefined explicitly, which is different from
// not holding the key at all.
var Undefined interface{} = undefined{}

// IsUndefined reports whether x is Undefined.
func IsUndefined(x interface{}) bool {
	_, is := x.(undefined)
	return is
}

// IsNullish reports whether x is nil or Undefined.
func IsNullish(x interface{}) bool {
	return x == nil || IsUndefined(x)
}

// Clone makes a structural deep copy of x.
//
// Maps, slices, and Stores are copied recursively.  Everything else
// is returned as is.  Sharing between parts of x is not preserved.
func Clone(x interface{}) interface{} {
	switch vv := x.(type) {
	case map[string]interface{}:
		acc := make(map[string]interface{}, len(vv))
		for k, v := range vv {
			acc[k] = Clone(v)
		}
		return acc
	case Store:
		return vv.Copy()
	case []interface{}:
		acc := make([]interface{}, len(vv))
		for i, v := range vv {
			acc[i] = Clone(v)
		}
		return acc
	default:
		return x
	}
}

// Normalize converts x into the value model in place where it can.
//
// Integers of every width become float64.  Maps with interface{}
// keys (which most YAML parsers produce) become
// map[string]interface{}.  Typed slices and maps from evaluators
// become []interface{} and map[string]interface{}.
func Normalize(x interface{}) interface{} {
	switch vv := x.(type) {
	case int:
		return float64(vv)
	case int8:
		return float64(vv)
	case int16:
		return float64(vv)
	case int32:
		return float64(vv)
	case int64:
		return float64(vv)
	case uint:
		return float64(vv)
	case uint8:
		return float64(vv)
	case uint16:
		return float64(vv)
	case uint32:
		return float64(vv)
	case uint64:
		return float64(vv)
	case float32:
		return float64(vv)
	case json.Number:
		f, err := vv.Float64()
		if err != nil {
			return vv.String()
		}
		return f
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(vv))
		for k, v := range vv {
			m[fmt.Sprintf("%v", k)] = Normalize(v)
		}
		return m
	case map[string]interface{}:
		for k, v := range vv {
			vv[k] = Normalize(v)
		}
		return vv
	case Store:
		for k, v := range vv {
			vv[k] = Normalize(v)
		}
		return vv
	case []interface{}:
		for i, v := range vv {
			vv[i] = Normalize(v)
		}
		return vv
	case []string:
		acc := make([]interface{}, len(vv))
		for i, s := range vv {
			acc[i] = s
		}
		return acc
	case []float64:
		acc := make([]interface{}, len(vv))
		for i, f := range vv {
			acc[i] = f
		}
		return acc
	case []map[string]interface{}:
		acc := make([]interface{}, len(vv))
		for i, m := range vv {
			acc[i] = Normalize(m)
		}
		return acc
	default:
		return x
	}
}

// Truthy follows JavaScript's ToBoolean.
func Truthy(x interface{}) bool {
	switch vv := x.(type) {
	case nil:
		return false
	case undefined:
		return false
	case bool:
		return vv
	case float64:
		return vv != 0 && !math.IsNaN(vv)
	case int:
		return vv != 0
	case int64:
		return vv != 0
	case string:
		return vv != ""
	default:
		return true
	}
}

// TypeOf follows JavaScript's typeof operator.
func TypeOf(x interface{}) string {
	switch x.(type) {
	case undefined:
		return "undefined"
	case bool:
		return "boolean"
	case float64, int, int64:
		return "number"
	case string:
		return "string"
	default:
		if f, is := x.(Callable); is && f != nil {
			return "function"
		}
		return "object"
	}
}

// Callable marks values that behave like functions when they come
// back from an Evaluator.
type Callable interface {
	Call(args ...interface{}) (interface{}, error)
}

// FormatNumber prints a number the way JavaScript's ToString does
// for the common cases.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		// JavaScript writes 1e-7, never 1e-07.
		s = strings.Replace(s, "e-0", "e-", 1)
		return strings.Replace(s, "e+0", "e+", 1)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ToString follows JavaScript's String().
func ToString(x interface{}) string {
	switch vv := x.(type) {
	case nil:
		return "null"
	case undefined:
		return "undefined"
	case string:
		return vv
	case bool:
		if vv {
			return "true"
		}
		return "false"
	case float64:
		return FormatNumber(vv)
	case int:
		return strconv.Itoa(vv)
	case int64:
		return strconv.FormatInt(vv, 10)
	case []interface{}:
		parts := make([]string, len(vv))
		for i, y := range vv {
			if IsNullish(y) {
				continue
			}
			parts[i] = ToString(y)
		}
		return strings.Join(parts, ",")
	case map[string]interface{}, Store:
		return "[object Object]"
	case time.Time:
		return vv.Format("Mon Jan 02 2006 15:04:05 GMT-0700 (MST)")
	case fmt.Stringer:
		return vv.String()
	default:
		return fmt.Sprintf("%v", x)
	}
}

var (
	decimalNumber = regexp2.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?$`, regexp2.None)
	radixNumber   = regexp2.MustCompile(`^0(?:[xX][0-9A-Fa-f]+|[oO][0-7]+|[bB][01]+)$`, regexp2.None)
)

// ToNumber follows JavaScript's Number().  Unparsable input gives
// NaN.
func ToNumber(x interface{}) float64 {
	switch vv := x.(type) {
	case nil:
		return 0
	case undefined:
		return math.NaN()
	case bool:
		if vv {
			return 1
		}
		return 0
	case float64:
		return vv
	case int:
		return float64(vv)
	case int64:
		return float64(vv)
	case string:
		return parseNumber(vv)
	case time.Time:
		return float64(vv.UnixMilli())
	case []interface{}:
		switch len(vv) {
		case 0:
			return 0
		case 1:
			return ToNumber(ToString(vv[0]))
		}
		return math.NaN()
	default:
		return math.NaN()
	}
}

func parseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return 0
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	if ok, _ := radixNumber.MatchString(s); ok {
		base := 16
		switch s[1] {
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		n, err := strconv.ParseUint(s[2:], base, 64)
		if err != nil {
			return math.NaN()
		}
		return float64(n)
	}
	if ok, _ := decimalNumber.MatchString(s); !ok {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// Out of range still gives +Inf or -Inf, which is what we want.
		if ne, is := err.(*strconv.NumError); is && ne.Err == strconv.ErrRange {
			return f
		}
		return math.NaN()
	}
	return f
}

// SortedKeys returns the keys of m in order.
func SortedKeys(m map[string]interface{}) []string {
	acc := make([]string, 0, len(m))
	for k := range m {
		acc = append(acc, k)
	}
	sort.Strings(acc)
	return acc
}
