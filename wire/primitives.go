package wire

import (
	"fmt"
	"math"
)

// encodePrimitive writes v directly if it is one of the fixed leaf types
// spec section 4.2 rule 1 names. The bool return reports whether v matched a
// primitive case at all; callers fall through to the reflection codec when
// it does not.
func encodePrimitive(enc *Encoder, v any) (bool, error) {
	switch x := v.(type) {
	case bool:
		if x {
			enc.PutBytes([]byte{1})
		} else {
			enc.PutBytes([]byte{0})
		}
	case int8:
		enc.PutBytes([]byte{byte(x)})
	case uint8:
		enc.PutBytes([]byte{x})
	case int16:
		putUint(enc, 2, uint64(uint16(x)))
	case uint16:
		putUint(enc, 2, uint64(x))
	case int32:
		putUint(enc, 4, uint64(uint32(x)))
	case uint32:
		putUint(enc, 4, uint64(x))
	case int64:
		putUint(enc, 8, uint64(x))
	case uint64:
		putUint(enc, 8, x)
	case int:
		putUint(enc, 8, uint64(int64(x)))
	case uint:
		putUint(enc, 8, uint64(x))
	case float32:
		putUint(enc, 4, uint64(math.Float32bits(x)))
	case float64:
		putUint(enc, 8, math.Float64bits(x))
	case string:
		enc.PutUint64Len(len(x))
		enc.PutBytes([]byte(x))
	case []byte:
		enc.PutUint64Len(len(x))
		enc.PutBytes(x)
	default:
		return false, nil
	}
	return true, nil
}

func putUint(enc *Encoder, width int, v uint64) {
	buf := make([]byte, width)
	for i := 0; i < width; i++ {
		buf[i] = byte(v >> (8 * i))
	}
	enc.PutBytes(buf)
}

func getUint(dec *Decoder, width int) (uint64, error) {
	b, err := dec.GetBytes(width)
	if err != nil {
		return 0, err
	}
	var v uint64
	for i := 0; i < width; i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v, nil
}

// decodePrimitive mirrors encodePrimitive; out must be a pointer to one of
// the matched types.
func decodePrimitive(dec *Decoder, out any) (bool, error) {
	switch p := out.(type) {
	case *bool:
		b, err := dec.GetBytes(1)
		if err != nil {
			return true, err
		}
		switch b[0] {
		case 0:
			*p = false
		case 1:
			*p = true
		default:
			return true, dec.fail(fmt.Errorf("%w: bool byte %d is neither 0 nor 1", ErrMalformed, b[0]))
		}
	case *int8:
		b, err := dec.GetBytes(1)
		if err != nil {
			return true, err
		}
		*p = int8(b[0])
	case *uint8:
		b, err := dec.GetBytes(1)
		if err != nil {
			return true, err
		}
		*p = b[0]
	case *int16:
		v, err := getUint(dec, 2)
		if err != nil {
			return true, err
		}
		*p = int16(uint16(v))
	case *uint16:
		v, err := getUint(dec, 2)
		if err != nil {
			return true, err
		}
		*p = uint16(v)
	case *int32:
		v, err := getUint(dec, 4)
		if err != nil {
			return true, err
		}
		*p = int32(uint32(v))
	case *uint32:
		v, err := getUint(dec, 4)
		if err != nil {
			return true, err
		}
		*p = uint32(v)
	case *int64:
		v, err := getUint(dec, 8)
		if err != nil {
			return true, err
		}
		*p = int64(v)
	case *uint64:
		v, err := getUint(dec, 8)
		if err != nil {
			return true, err
		}
		*p = v
	case *int:
		v, err := getUint(dec, 8)
		if err != nil {
			return true, err
		}
		*p = int(int64(v))
	case *uint:
		v, err := getUint(dec, 8)
		if err != nil {
			return true, err
		}
		*p = uint(v)
	case *float32:
		v, err := getUint(dec, 4)
		if err != nil {
			return true, err
		}
		*p = math.Float32frombits(uint32(v))
	case *float64:
		v, err := getUint(dec, 8)
		if err != nil {
			return true, err
		}
		*p = math.Float64frombits(v)
	case *string:
		n, err := dec.GetUint64Len()
		if err != nil {
			return true, err
		}
		b, err := dec.GetBytes(n)
		if err != nil {
			return true, err
		}
		*p = string(b)
	case *[]byte:
		n, err := dec.GetUint64Len()
		if err != nil {
			return true, err
		}
		b, err := dec.GetBytes(n)
		if err != nil {
			return true, err
		}
		cp := make([]byte, n)
		copy(cp, b)
		*p = cp
	default:
		return false, nil
	}
	return true, nil
}
