/*
Package wire implements the serialization format described by the transport
layer's frame contract: a byte payload plus an ordered list of out-of-band
handles, produced from and reconstructed into arbitrary aggregate Go values.

Primitives use a fixed little-endian encoding (encoding/binary.LittleEndian,
the same choice the teacher's diskslice package makes for its on-disk index).
Variable-length sequences are prefixed with a uint64 length. Aggregates
serialize fields in declaration order. A value containing Handles can be
encoded only once; Encode marks every Handle it touches as moved.
*/
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/johnsiilver/xpc/handle"
)

// endian is the byte order for every fixed-width field this package writes.
var endian = binary.LittleEndian

var (
	// ErrMalformed indicates the frame violated a serializer invariant: a
	// bad discriminant, an overflowing length, a short read, or leftover
	// bytes after the outermost value was decoded.
	ErrMalformed = errors.New("wire: malformed frame")

	// ErrHandleCount indicates the frame did not carry as many handles as
	// the schema being decoded requires.
	ErrHandleCount = errors.New("wire: handle count mismatch")
)

// Frame is one transport message: a byte payload plus the ordered handles it
// encloses. Frame is the unit Encode produces and Decode consumes.
type Frame struct {
	Payload []byte
	Handles []*handle.Handle
}

// Codec is implemented by every transmittable type that needs custom wire
// behavior (channel endpoints); *handle.Handle is special-cased by
// encodeValue/decodeValue, and everything else falls back to the
// reflection-driven codec in reflect.go.
//
// The two halves are split into separate interfaces, Marshaler and
// Unmarshaler, because a type such as channel.Sender[T] naturally
// implements MarshalWire on its value receiver but UnmarshalWire on a
// pointer receiver (Decode always writes through a pointer); requiring both
// methods on one value's method set would make such types invisible to
// encodeValue's type assertion.
type Codec interface {
	Marshaler
	Unmarshaler
}

// Marshaler is the encode half of Codec.
type Marshaler interface {
	MarshalWire(enc *Encoder) error
}

// Unmarshaler is the decode half of Codec.
type Unmarshaler interface {
	UnmarshalWire(dec *Decoder) error
}

// Encoder accumulates a Frame's payload and handle list as a value is
// serialized.
type Encoder struct {
	frame Frame
}

// NewEncoder returns an Encoder with an empty Frame.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Frame returns the accumulated Frame. Call this once encoding is complete.
func (e *Encoder) Frame() Frame {
	return e.frame
}

// PutBytes appends raw bytes to the payload without any length prefix. Used
// by primitive codecs; aggregate codecs should write a PutUint64Len prefix
// ahead of anything variable-length.
func (e *Encoder) PutBytes(b []byte) {
	e.frame.Payload = append(e.frame.Payload, b...)
}

// PutUint64Len writes a uint64 length prefix.
func (e *Encoder) PutUint64Len(n int) {
	var buf [8]byte
	endian.PutUint64(buf[:], uint64(n))
	e.PutBytes(buf[:])
}

// PutHandle appends h to the handle list and writes the one-byte placeholder
// spec section 4.2 rule 5 requires, then marks h moved. Encoding the same
// Handle twice is a programmer error and panics via handle.Handle's own
// use-after-move guard.
func (e *Encoder) PutHandle(h *handle.Handle) {
	e.frame.Payload = append(e.frame.Payload, 0)
	e.frame.Handles = append(e.frame.Handles, h)
	handle.MarkMoved(h)
}

// Decoder walks a Frame's payload and handle list with an internal cursor.
// A Decoder that has returned ErrMalformed or ErrHandleCount is poisoned:
// every subsequent call also fails, since the cursor position can no longer
// be trusted (spec's "malformed frame poisons the endpoint" policy, at the
// codec layer).
type Decoder struct {
	frame    Frame
	pos      int
	handleAt int
	poisoned bool
}

// NewDecoder returns a Decoder over f.
func NewDecoder(f Frame) *Decoder {
	return &Decoder{frame: f}
}

// Done reports whether the payload has been fully consumed. Call after the
// outermost UnmarshalWire returns to check for the "leftover bytes" failure
// mode spec section 4.2 names.
func (d *Decoder) Done() bool {
	return d.pos == len(d.frame.Payload)
}

func (d *Decoder) fail(err error) error {
	d.poisoned = true
	return err
}

// GetBytes reads exactly n raw bytes.
func (d *Decoder) GetBytes(n int) ([]byte, error) {
	if d.poisoned {
		return nil, ErrMalformed
	}
	if n < 0 || d.pos+n > len(d.frame.Payload) {
		return nil, d.fail(fmt.Errorf("%w: short read wanting %d bytes", ErrMalformed, n))
	}
	b := d.frame.Payload[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

// GetUint64Len reads a uint64 length prefix.
func (d *Decoder) GetUint64Len() (int, error) {
	b, err := d.GetBytes(8)
	if err != nil {
		return 0, err
	}
	n := endian.Uint64(b)
	if n > uint64(len(d.frame.Payload)) {
		return 0, d.fail(fmt.Errorf("%w: length %d exceeds frame size", ErrMalformed, n))
	}
	return int(n), nil
}

// GetHandle consumes the next placeholder byte and the next handle in
// sequence. Returns ErrHandleCount if the frame ran out of handles.
func (d *Decoder) GetHandle() (*handle.Handle, error) {
	if _, err := d.GetBytes(1); err != nil {
		return nil, err
	}
	if d.handleAt >= len(d.frame.Handles) {
		return nil, d.fail(ErrHandleCount)
	}
	h := d.frame.Handles[d.handleAt]
	d.handleAt++
	return h, nil
}

// Encode serializes v into a Frame. v must implement Codec or be a type the
// reflection-driven fallback codec (reflect.go) can walk.
func Encode(v any) (Frame, error) {
	enc := NewEncoder()
	if err := encodeValue(enc, v); err != nil {
		return Frame{}, err
	}
	return enc.Frame(), nil
}

// Decode reconstructs a value of type T from f. Every enclosed Handle is
// owned by the returned value.
func Decode[T any](f Frame) (T, error) {
	var out T
	dec := NewDecoder(f)
	if err := decodeValue(dec, &out); err != nil {
		return out, err
	}
	if !dec.Done() {
		return out, fmt.Errorf("%w: %d leftover bytes after outermost value", ErrMalformed, len(f.Payload)-dec.pos)
	}
	if dec.handleAt != len(f.Handles) {
		return out, fmt.Errorf("%w: %d unclaimed handles left in frame", ErrMalformed, len(f.Handles)-dec.handleAt)
	}
	return out, nil
}
