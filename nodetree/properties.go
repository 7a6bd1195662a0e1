package nodetree

import (
	"encoding/binary"
	"fmt"
)

var ErrUnexpectedEnd = fmt.Errorf("%w: read past end of properties", ErrInvalidFormat)

// PropertyReader is a sequential little-endian cursor over node properties.
//
// The first failed read is remembered: later reads return zero values and
// Err reports the failure.
type PropertyReader struct {
	data []byte
	pos  int
	err  error
}

func NewPropertyReader(data []byte) *PropertyReader {
	return &PropertyReader{data: data}
}

// Err returns the first read error.
func (r *PropertyReader) Err() error {
	return r.err
}

// Len returns the number of unread bytes.
func (r *PropertyReader) Len() int {
	return len(r.data) - r.pos
}

func (r *PropertyReader) next(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || n > r.Len() {
		r.err = fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrUnexpectedEnd, n, r.pos, r.Len())
		return nil
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *PropertyReader) U8() uint8 {
	b := r.next(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *PropertyReader) U16() uint16 {
	b := r.next(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *PropertyReader) U32() uint32 {
	b := r.next(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *PropertyReader) U64() uint64 {
	b := r.next(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

// Bytes returns the next n bytes. The result aliases the node properties.
func (r *PropertyReader) Bytes(n int) []byte {
	return r.next(n)
}

// LenString reads a string prefixed with its u16 length.
func (r *PropertyReader) LenString() string {
	n := r.U16()
	return string(r.next(int(n)))
}

func (r *PropertyReader) Skip(n int) {
	r.next(n)
}
