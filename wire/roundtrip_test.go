package wire_test

import (
	"os"
	"testing"

	"github.com/kylelemons/godebug/pretty"

	"github.com/johnsiilver/xpc/handle"
	"github.com/johnsiilver/xpc/wire"
)

type point struct {
	X int32
	Y int32
}

type payload struct {
	Name   string
	Points []point
	Tags   map[string]uint8
	Flag   bool
	Big    uint64
}

func TestRoundTripAggregate(t *testing.T) {
	in := payload{
		Name:   "hello",
		Points: []point{{1, 2}, {3, 4}, {-5, 6}},
		Tags:   map[string]uint8{"a": 1, "b": 2},
		Flag:   true,
		Big:    1 << 40,
	}

	f, err := wire.Encode(in)
	if err != nil {
		t.Fatalf("Encode: %s", err)
	}

	got, err := wire.Decode[payload](f)
	if err != nil {
		t.Fatalf("Decode: %s", err)
	}

	if diff := pretty.Compare(in, got); diff != "" {
		t.Fatalf("round trip differs (-want +got):\n%s", diff)
	}
}

func TestRoundTripPrimitives(t *testing.T) {
	tests := []any{
		int8(-12), uint8(200), int16(-3000), uint16(60000),
		int32(-70000), uint32(4000000000), int64(-1 << 40), uint64(1 << 63),
		float32(3.5), float64(-2.25), true, false, "", "unicode ☃", []byte{1, 2, 3},
	}

	for _, want := range tests {
		f, err := wire.Encode(want)
		if err != nil {
			t.Fatalf("Encode(%v): %s", want, err)
		}

		switch want.(type) {
		case int8:
			got, err := wire.Decode[int8](f)
			checkPrim(t, want, got, err)
		case uint8:
			got, err := wire.Decode[uint8](f)
			checkPrim(t, want, got, err)
		case int16:
			got, err := wire.Decode[int16](f)
			checkPrim(t, want, got, err)
		case uint16:
			got, err := wire.Decode[uint16](f)
			checkPrim(t, want, got, err)
		case int32:
			got, err := wire.Decode[int32](f)
			checkPrim(t, want, got, err)
		case uint32:
			got, err := wire.Decode[uint32](f)
			checkPrim(t, want, got, err)
		case int64:
			got, err := wire.Decode[int64](f)
			checkPrim(t, want, got, err)
		case uint64:
			got, err := wire.Decode[uint64](f)
			checkPrim(t, want, got, err)
		case float32:
			got, err := wire.Decode[float32](f)
			checkPrim(t, want, got, err)
		case float64:
			got, err := wire.Decode[float64](f)
			checkPrim(t, want, got, err)
		case bool:
			got, err := wire.Decode[bool](f)
			checkPrim(t, want, got, err)
		case string:
			got, err := wire.Decode[string](f)
			checkPrim(t, want, got, err)
		case []byte:
			got, err := wire.Decode[[]byte](f)
			if err != nil {
				t.Fatalf("Decode: %s", err)
			}
			if diff := pretty.Compare(want, got); diff != "" {
				t.Fatalf("round trip differs (-want +got):\n%s", diff)
			}
		}
	}
}

func checkPrim[T comparable](t *testing.T, want any, got T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("Decode: %s", err)
	}
	if want.(T) != got {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestBoolMustBeZeroOrOne(t *testing.T) {
	f := wire.Frame{Payload: []byte{7}}
	if _, err := wire.Decode[bool](f); err == nil {
		t.Fatalf("expected ErrMalformed decoding bool byte 7, got nil")
	}
}

func TestLeftoverBytesIsMalformed(t *testing.T) {
	f, err := wire.Encode(int32(5))
	if err != nil {
		t.Fatalf("Encode: %s", err)
	}
	f.Payload = append(f.Payload, 0xFF)
	if _, err := wire.Decode[int32](f); err == nil {
		t.Fatalf("expected ErrMalformed for leftover bytes, got nil")
	}
}

func TestShortReadIsMalformed(t *testing.T) {
	f := wire.Frame{Payload: []byte{1, 2}}
	if _, err := wire.Decode[int64](f); err == nil {
		t.Fatalf("expected ErrMalformed for short read, got nil")
	}
}

type withHandle struct {
	Label string
	File  *handle.Handle
}

func TestHandleLeafRoundTrips(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %s", err)
	}
	defer r.Close()

	h := handle.Wrap(w)
	in := withHandle{Label: "fd", File: h}

	f, err := wire.Encode(in)
	if err != nil {
		t.Fatalf("Encode: %s", err)
	}
	if len(f.Handles) != 1 {
		t.Fatalf("got %d handles in frame, want 1", len(f.Handles))
	}
	if !h.Moved() {
		t.Fatalf("source Handle was not marked moved after Encode")
	}

	// Without an intervening transport hop, decode hands back the very same
	// *handle.Handle object placed in the Frame by Encode (a real send/recv
	// round trip through the transport package produces a distinct Handle
	// wrapping the peer-duplicated descriptor; that path is exercised in
	// transport's and channel's own tests). Here we only check that the
	// frame carries the handle and that Encode's ownership transfer ran.
	got, err := wire.Decode[withHandle](f)
	if err != nil {
		t.Fatalf("Decode: %s", err)
	}
	if got.Label != in.Label {
		t.Fatalf("got label %q, want %q", got.Label, in.Label)
	}
	if got.File != h {
		t.Fatalf("expected decode to hand back the same in-memory Handle when no transport hop occurred")
	}
}

func TestEncodeNilHandleIsError(t *testing.T) {
	f, err := wire.Encode(withHandle{Label: "x"})
	if err == nil {
		t.Fatalf("expected an error encoding a nil Handle field, got frame %+v", f)
	}
}

type ID int
type Celsius float64
type Status uint8

type reading struct {
	Who  ID
	Temp Celsius
	At   Status
}

func TestNamedScalarTypesRoundTrip(t *testing.T) {
	f, err := wire.Encode(ID(42))
	if err != nil {
		t.Fatalf("Encode(ID): %s", err)
	}
	if got, err := wire.Decode[ID](f); err != nil || got != 42 {
		t.Fatalf("Decode(ID): got (%v, %v), want (42, nil)", got, err)
	}

	in := reading{Who: 7, Temp: -40.5, At: 3}
	f, err = wire.Encode(in)
	if err != nil {
		t.Fatalf("Encode(reading): %s", err)
	}
	got, err := wire.Decode[reading](f)
	if err != nil {
		t.Fatalf("Decode(reading): %s", err)
	}
	if diff := pretty.Compare(in, got); diff != "" {
		t.Fatalf("round trip differs (-want +got):\n%s", diff)
	}
}

type shape interface{ isShape() }
type circle struct{ Radius float64 }
type square struct{ Side float64 }

func (circle) isShape() {}
func (square) isShape() {}

func TestVariantSet(t *testing.T) {
	vs := wire.NewVariantSet(
		func() any { return circle{} },
		func() any { return square{} },
	)

	enc := wire.NewEncoder()
	if err := vs.Encode(enc, square{Side: 4}); err != nil {
		t.Fatalf("Encode: %s", err)
	}

	dec := wire.NewDecoder(enc.Frame())
	got, err := vs.Decode(dec)
	if err != nil {
		t.Fatalf("Decode: %s", err)
	}
	sq, ok := got.(square)
	if !ok {
		t.Fatalf("got %T, want square", got)
	}
	if sq.Side != 4 {
		t.Fatalf("got side %v, want 4", sq.Side)
	}
}
