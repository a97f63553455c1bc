package wire

import (
	"fmt"
	"reflect"
)

// reflectEncode implements the "reflection-based registry populated at
// startup" realization spec section 9 sanctions for the compile-time
// derivation step this module does not have a code generator for. It walks
// structs field-by-field in declaration order (spec section 4.2 rule 4),
// slices element-by-element with a length prefix (rule 2), fixed-size
// arrays element-by-element without one, maps as a length prefix followed by
// key/value pairs, and recurses through pointers.
func reflectEncode(enc *Encoder, rv reflect.Value) error {
	if !rv.IsValid() {
		return fmt.Errorf("wire: cannot encode invalid value")
	}

	switch rv.Kind() {
	case reflect.Ptr:
		if rv.IsNil() {
			return fmt.Errorf("wire: cannot encode nil pointer of type %s", rv.Type())
		}
		return encodeValue(enc, rv.Elem().Interface())

	case reflect.Struct:
		t := rv.Type()
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			if err := encodeValue(enc, rv.Field(i).Interface()); err != nil {
				return fmt.Errorf("wire: encoding field %s.%s: %w", t.Name(), f.Name, err)
			}
		}
		return nil

	case reflect.Slice:
		enc.PutUint64Len(rv.Len())
		for i := 0; i < rv.Len(); i++ {
			if err := encodeValue(enc, rv.Index(i).Interface()); err != nil {
				return fmt.Errorf("wire: encoding element %d: %w", i, err)
			}
		}
		return nil

	case reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if err := encodeValue(enc, rv.Index(i).Interface()); err != nil {
				return fmt.Errorf("wire: encoding element %d: %w", i, err)
			}
		}
		return nil

	case reflect.Map:
		enc.PutUint64Len(rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			if err := encodeValue(enc, iter.Key().Interface()); err != nil {
				return fmt.Errorf("wire: encoding map key: %w", err)
			}
			if err := encodeValue(enc, iter.Value().Interface()); err != nil {
				return fmt.Errorf("wire: encoding map value: %w", err)
			}
		}
		return nil

	default:
		if bt, ok := scalarBuiltin(rv.Kind()); ok {
			return encodeValue(enc, rv.Convert(bt).Interface())
		}
		return fmt.Errorf("wire: type %s is not transmittable: no Codec, no primitive case, no reflection rule", rv.Type())
	}
}

// scalarBuiltin returns the builtin type backing a named scalar kind (e.g.
// type ID int, type Celsius float64, type Status uint8), so a defined type
// that only differs from a builtin by name can still reach
// encodePrimitive/decodePrimitive, which match on exact dynamic type rather
// than underlying kind.
func scalarBuiltin(kind reflect.Kind) (reflect.Type, bool) {
	switch kind {
	case reflect.Bool:
		return reflect.TypeOf(false), true
	case reflect.Int:
		return reflect.TypeOf(int(0)), true
	case reflect.Int8:
		return reflect.TypeOf(int8(0)), true
	case reflect.Int16:
		return reflect.TypeOf(int16(0)), true
	case reflect.Int32:
		return reflect.TypeOf(int32(0)), true
	case reflect.Int64:
		return reflect.TypeOf(int64(0)), true
	case reflect.Uint:
		return reflect.TypeOf(uint(0)), true
	case reflect.Uint8:
		return reflect.TypeOf(uint8(0)), true
	case reflect.Uint16:
		return reflect.TypeOf(uint16(0)), true
	case reflect.Uint32:
		return reflect.TypeOf(uint32(0)), true
	case reflect.Uint64:
		return reflect.TypeOf(uint64(0)), true
	case reflect.Float32:
		return reflect.TypeOf(float32(0)), true
	case reflect.Float64:
		return reflect.TypeOf(float64(0)), true
	case reflect.String:
		return reflect.TypeOf(""), true
	default:
		return nil, false
	}
}

// reflectDecode is reflectEncode's inverse. out must be addressable
// (rv.Elem() of a pointer).
func reflectDecode(dec *Decoder, rv reflect.Value) error {
	if !rv.CanSet() {
		return fmt.Errorf("wire: decode target of type %s is not settable", rv.Type())
	}

	switch rv.Kind() {
	case reflect.Ptr:
		if rv.IsNil() {
			rv.Set(reflect.New(rv.Type().Elem()))
		}
		return decodeValue(dec, rv.Interface())

	case reflect.Struct:
		t := rv.Type()
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			if err := decodeValue(dec, rv.Field(i).Addr().Interface()); err != nil {
				return fmt.Errorf("wire: decoding field %s.%s: %w", t.Name(), f.Name, err)
			}
		}
		return nil

	case reflect.Slice:
		n, err := dec.GetUint64Len()
		if err != nil {
			return err
		}
		out := reflect.MakeSlice(rv.Type(), n, n)
		for i := 0; i < n; i++ {
			if err := decodeValue(dec, out.Index(i).Addr().Interface()); err != nil {
				return fmt.Errorf("wire: decoding element %d: %w", i, err)
			}
		}
		rv.Set(out)
		return nil

	case reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if err := decodeValue(dec, rv.Index(i).Addr().Interface()); err != nil {
				return fmt.Errorf("wire: decoding element %d: %w", i, err)
			}
		}
		return nil

	case reflect.Map:
		n, err := dec.GetUint64Len()
		if err != nil {
			return err
		}
		out := reflect.MakeMapWithSize(rv.Type(), n)
		kt := rv.Type().Key()
		vt := rv.Type().Elem()
		for i := 0; i < n; i++ {
			k := reflect.New(kt).Elem()
			if err := decodeValue(dec, k.Addr().Interface()); err != nil {
				return fmt.Errorf("wire: decoding map key: %w", err)
			}
			v := reflect.New(vt).Elem()
			if err := decodeValue(dec, v.Addr().Interface()); err != nil {
				return fmt.Errorf("wire: decoding map value: %w", err)
			}
			out.SetMapIndex(k, v)
		}
		rv.Set(out)
		return nil

	default:
		bt, ok := scalarBuiltin(rv.Kind())
		if !ok {
			return fmt.Errorf("wire: type %s is not transmittable: no Codec, no primitive case, no reflection rule", rv.Type())
		}
		tmp := reflect.New(bt)
		if err := decodeValue(dec, tmp.Interface()); err != nil {
			return err
		}
		rv.Set(tmp.Elem().Convert(rv.Type()))
		return nil
	}
}
