package wire

import (
	"fmt"
	"reflect"
)

// newPtrTo returns a settable *T pointing at a zero T, where T is v's
// concrete type, as an any wrapping that pointer.
func newPtrTo(v any) any {
	rt := reflect.TypeOf(v)
	return reflect.New(rt).Interface()
}

// derefPtr is newPtrTo's inverse: given the any produced by newPtrTo (after
// it has been populated via decodeValue), return the pointed-to value.
func derefPtr(ptr any) any {
	return reflect.ValueOf(ptr).Elem().Interface()
}

// VariantSet describes a closed sum type: an ordered list of concrete Go
// types that together make up every case of the variant. The discriminant
// written ahead of the payload is the smallest unsigned width that can index
// every case, per spec section 4.2 rule 3 ("the smallest unsigned width that
// admits every variant").
//
// User code builds one VariantSet per sum type and uses Encode/Decode on it
// rather than trying to make an interface type itself a Codec, since Go
// interfaces carry no exhaustive case list of their own to walk.
type VariantSet struct {
	cases []func() any // zero-value constructors, one per case, in declared order
}

// NewVariantSet declares the cases of a sum type in discriminant order. Each
// zero must be a function returning a new zero value of that case's type,
// e.g. func() any { return MyCase{} }.
func NewVariantSet(zero ...func() any) *VariantSet {
	return &VariantSet{cases: zero}
}

func (vs *VariantSet) discriminantWidth() int {
	switch {
	case len(vs.cases) <= 1<<8:
		return 1
	case len(vs.cases) <= 1<<16:
		return 2
	default:
		return 4
	}
}

// Encode writes the discriminant for whichever case constructs a value
// matching v's concrete type, followed by v's own encoding. v must be one of
// the concrete types passed to NewVariantSet (compared by fmt's %T so the
// caller does not need to hand VariantSet a reflect.Type table).
func (vs *VariantSet) Encode(enc *Encoder, v any) error {
	tag := fmt.Sprintf("%T", v)
	for i, zero := range vs.cases {
		if fmt.Sprintf("%T", zero()) == tag {
			putUint(enc, vs.discriminantWidth(), uint64(i))
			return encodeValue(enc, v)
		}
	}
	return fmt.Errorf("wire: %s is not a registered case of this VariantSet", tag)
}

// Decode reads a discriminant and returns the matching case's decoded value
// as an any. The caller type-switches on the result.
func (vs *VariantSet) Decode(dec *Decoder) (any, error) {
	idx, err := getUint(dec, vs.discriminantWidth())
	if err != nil {
		return nil, err
	}
	if int(idx) >= len(vs.cases) {
		return nil, dec.fail(fmt.Errorf("%w: discriminant %d out of range for %d cases", ErrMalformed, idx, len(vs.cases)))
	}
	out := vs.cases[idx]()
	ptr := newPtrTo(out)
	if err := decodeValue(dec, ptr); err != nil {
		return nil, err
	}
	return derefPtr(ptr), nil
}
