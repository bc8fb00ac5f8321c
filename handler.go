package portal

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"
)

// Reply answers an inbound event that asked for a reply. Only the first
// call has an effect. A non-nil err is sent as an exception.
type Reply func(result any, err error)

type eventHandler struct {
	rv         reflect.Value
	id         uintptr
	inputArgs  []reflect.Type
	outputArgs []reflect.Type

	once    bool
	removed bool
	// Internal handlers can't be removed with Off.
	internal bool
}

// newEventHandler accepts a function or a pointer to a function. Only
// handlers created from a pointer have an identity (the pointer), so only
// they can be removed one by one.
func newEventHandler(v any) *eventHandler {
	rv, id := funcValue(v)

	rt := rv.Type()

	inputArgs := make([]reflect.Type, rt.NumIn())
	for i := range inputArgs {
		inputArgs[i] = rt.In(i)
	}

	outputArgs := make([]reflect.Type, rt.NumOut())
	for i := range outputArgs {
		outputArgs[i] = rt.Out(i)
	}
	if len(outputArgs) > 2 || (len(outputArgs) == 2 && outputArgs[1] != errorInterface) {
		panic("portal: handler must return (T), (error) or (T, error)")
	}

	return &eventHandler{
		rv:         rv,
		id:         id,
		inputArgs:  inputArgs,
		outputArgs: outputArgs,
	}
}

func newInternalHandler(v any) *eventHandler {
	h := newEventHandler(v)
	h.internal = true
	return h
}

func isFunc(v any) bool {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	return rv.Kind() == reflect.Func && !rv.IsNil()
}

func funcValue(v any) (rv reflect.Value, id uintptr) {
	rv = reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && !rv.IsNil() && rv.Elem().Kind() == reflect.Func {
		id = rv.Pointer()
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Func || rv.IsNil() {
		panic("portal: function expected")
	}
	return
}

// handlerID returns the identity of a handler passed to Off.
func handlerID(v any) uintptr {
	rv, id := funcValue(v)
	if id == 0 {
		panic("portal: a handler can only be removed through the pointer it was added with, got " + rv.Type().String())
	}
	return id
}

// call binds args to the parameters of the handler and calls it. A panic
// inside the handler is recovered and returned as err.
func (f *eventHandler) call(unmarshal func([]byte, any) error, args []any, reply Reply) (result any, err error) {
	in, err := f.bind(unmarshal, args, reply)
	if err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			var ok bool
			err, ok = r.(error)
			if !ok {
				err = fmt.Errorf("portal: handler error: %v", r)
			}
		}
	}()

	var ret []reflect.Value
	if f.rv.Type().IsVariadic() {
		ret = f.rv.CallSlice(in)
	} else {
		ret = f.rv.Call(in)
	}

	for i, v := range ret {
		if f.outputArgs[i] == errorInterface {
			if !v.IsNil() {
				err = v.Interface().(error)
			}
			continue
		}
		result = v.Interface()
	}
	return
}

func (f *eventHandler) bind(unmarshal func([]byte, any) error, args []any, reply Reply) ([]reflect.Value, error) {
	var (
		in       = make([]reflect.Value, len(f.inputArgs))
		variadic = f.rv.Type().IsVariadic()
		n        = 0
	)

	for i, rt := range f.inputArgs {
		if rt == replyType {
			if reply == nil {
				reply = func(any, error) {}
			}
			in[i] = reflect.ValueOf(reply)
			continue
		}

		if variadic && i == len(f.inputArgs)-1 {
			var rest []any
			if n < len(args) {
				rest = args[n:]
			}
			slice := reflect.MakeSlice(rt, len(rest), len(rest))
			for j, arg := range rest {
				v, err := bindArg(unmarshal, arg, rt.Elem())
				if err != nil {
					return nil, fmt.Errorf("portal: cannot bind argument %d: %w", n+j, err)
				}
				slice.Index(j).Set(v)
			}
			in[i] = slice
			break
		}

		if n >= len(args) {
			in[i] = reflect.Zero(rt)
			continue
		}
		v, err := bindArg(unmarshal, args[n], rt)
		if err != nil {
			return nil, fmt.Errorf("portal: cannot bind argument %d: %w", n, err)
		}
		in[i] = v
		n++
	}
	return in, nil
}

func bindArg(unmarshal func([]byte, any) error, arg any, rt reflect.Type) (reflect.Value, error) {
	if arg == nil {
		return reflect.Zero(rt), nil
	}

	if raw, ok := arg.(json.RawMessage); ok && rt != rawMessageType && rt != bytesType {
		if len(raw) == 0 {
			return reflect.Zero(rt), nil
		}
		ptr := reflect.New(rt)
		if err := unmarshal(raw, ptr.Interface()); err != nil {
			return reflect.Value{}, err
		}
		return ptr.Elem(), nil
	}

	av := reflect.ValueOf(arg)
	if av.Type().AssignableTo(rt) {
		return av, nil
	}

	if m, ok := arg.(map[string]any); ok && isStructLike(rt) {
		ptr := reflect.New(rt)
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			TagName:          "json",
			WeaklyTypedInput: true,
			Result:           ptr.Interface(),
		})
		if err != nil {
			return reflect.Value{}, wrapInternalError(err)
		}
		if err := decoder.Decode(m); err != nil {
			return reflect.Value{}, err
		}
		return ptr.Elem(), nil
	}

	if av.Type().ConvertibleTo(rt) && av.Kind() != reflect.String && rt.Kind() != reflect.String {
		return av.Convert(rt), nil
	}
	return reflect.Value{}, fmt.Errorf("%s is not assignable to %s", av.Type(), rt)
}

func isStructLike(rt reflect.Type) bool {
	if rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	return rt.Kind() == reflect.Struct || rt.Kind() == reflect.Map
}

var (
	errorInterface = reflect.TypeOf((*error)(nil)).Elem()
	replyType      = reflect.TypeOf(Reply(nil))
	rawMessageType = reflect.TypeOf(json.RawMessage(nil))
	bytesType      = reflect.TypeOf([]byte(nil))
)
