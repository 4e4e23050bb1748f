package goja

import (
	"strconv"

	"github.com/Comcast/tale/core"

	"github.com/dop251/goja"
)

// toJS converts a value from the value model into native JavaScript
// values.  Maps and slices are copied, so the code can change them
// freely.
func toJS(o *goja.Runtime, x interface{}) goja.Value {
	switch vv := x.(type) {
	case nil:
		return goja.Null()
	case map[string]interface{}:
		obj := o.NewObject()
		for k, v := range vv {
			obj.Set(k, toJS(o, v))
		}
		return obj
	case core.Store:
		return toJS(o, map[string]interface{}(vv))
	case []interface{}:
		acc := make([]interface{}, len(vv))
		for i, v := range vv {
			acc[i] = toJS(o, v)
		}
		return o.NewArray(acc...)
	case *jsFunc:
		return vv.v
	}
	if core.IsUndefined(x) {
		return goja.Undefined()
	}
	return o.ToValue(x)
}

// fromJS converts a JavaScript value into the value model.
func fromJS(o *goja.Runtime, v goja.Value) interface{} {
	if v == nil || goja.IsUndefined(v) {
		return core.Undefined
	}
	if goja.IsNull(v) {
		return nil
	}
	if _, is := goja.AssertFunction(v); is {
		return &jsFunc{o: o, v: v}
	}
	if obj, is := v.(*goja.Object); is {
		switch obj.ClassName() {
		case "Array":
			n := int(obj.Get("length").ToInteger())
			acc := make([]interface{}, n)
			for i := 0; i < n; i++ {
				acc[i] = fromJS(o, obj.Get(strconv.Itoa(i)))
			}
			return acc
		case "Object":
			m := make(map[string]interface{}, len(obj.Keys()))
			for _, k := range obj.Keys() {
				m[k] = fromJS(o, obj.Get(k))
			}
			return m
		}
	}

	return core.Normalize(v.Export())
}

// export returns the properties of a JavaScript object, or an empty
// map if v isn't one.
func export(o *goja.Runtime, v goja.Value) map[string]interface{} {
	obj, is := v.(*goja.Object)
	if !is {
		return map[string]interface{}{}
	}
	m := make(map[string]interface{}, len(obj.Keys()))
	for _, k := range obj.Keys() {
		m[k] = fromJS(o, obj.Get(k))
	}
	return m
}

// jsFunc is a JavaScript function that came back from Eval.
type jsFunc struct {
	o *goja.Runtime
	v goja.Value
}

func (f *jsFunc) Call(args ...interface{}) (interface{}, error) {
	fn, is := goja.AssertFunction(f.v)
	if !is {
		return nil, nil
	}
	vs := make([]goja.Value, len(args))
	for i, x := range args {
		vs[i] = toJS(f.o, x)
	}
	v, err := fn(goja.Undefined(), vs...)
	if err != nil {
		return nil, err
	}
	return fromJS(f.o, v), nil
}
