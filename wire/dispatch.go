package wire

import (
	"fmt"
	"reflect"

	"github.com/johnsiilver/xpc/handle"
)

// encodeValue is the single dispatch point every aggregate codec and Encode
// itself goes through: a Codec implementation wins if present, a known
// primitive kind is written directly, and everything else falls back to the
// reflection-driven struct/slice/map walker in reflect.go.
func encodeValue(enc *Encoder, v any) error {
	if m, ok := v.(Marshaler); ok {
		return m.MarshalWire(enc)
	}
	if h, ok := v.(*handle.Handle); ok {
		if h == nil {
			return fmt.Errorf("wire: cannot encode a nil *handle.Handle")
		}
		enc.PutHandle(h)
		return nil
	}
	if ok, err := encodePrimitive(enc, v); ok {
		return err
	}
	return reflectEncode(enc, reflect.ValueOf(v))
}

// decodeValue mirrors encodeValue: out must be a non-nil pointer.
func decodeValue(dec *Decoder, out any) error {
	if u, ok := out.(Unmarshaler); ok {
		return u.UnmarshalWire(dec)
	}
	if hp, ok := out.(**handle.Handle); ok {
		h, err := dec.GetHandle()
		if err != nil {
			return err
		}
		*hp = h
		return nil
	}
	if ok, err := decodePrimitive(dec, out); ok {
		return err
	}
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("wire: Decode target must be a non-nil pointer, got %T", out)
	}
	return reflectDecode(dec, rv.Elem())
}
