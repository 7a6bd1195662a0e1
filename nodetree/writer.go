package nodetree

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

var errUnbalanced = errors.New("nodetree: unbalanced node end")

// Writer encodes a node tree. Property data is escaped on the fly.
//
// The first error is remembered and returned by Close; writes after an error
// are dropped.
type Writer struct {
	w       *bufio.Writer
	depth   int
	started bool
	err     error
	scratch [8]byte
}

// NewWriter writes the identifier and returns a writer for the root node.
func NewWriter(w io.Writer, identifier Identifier) *Writer {
	writer := &Writer{w: bufio.NewWriter(w)}
	_, writer.err = writer.w.Write(identifier[:])
	return writer
}

func (w *Writer) raw(b byte) {
	if w.err == nil {
		w.err = w.w.WriteByte(b)
	}
}

func (w *Writer) data(p []byte) {
	if w.err != nil {
		return
	}
	if w.depth == 0 {
		w.err = errors.New("nodetree: property data outside of a node")
		return
	}
	for _, b := range p {
		if b == Start || b == End || b == Escape {
			w.raw(Escape)
		}
		w.raw(b)
	}
}

// StartNode opens a child of the current node (or the root).
func (w *Writer) StartNode(nodeType uint8) {
	if w.err == nil && w.depth == 0 && w.started {
		w.err = errors.New("nodetree: second root node")
		return
	}
	w.raw(Start)
	w.raw(nodeType)
	w.depth++
	w.started = true
}

// EndNode closes the current node.
func (w *Writer) EndNode() {
	if w.depth == 0 {
		if w.err == nil {
			w.err = errUnbalanced
		}
		return
	}
	w.raw(End)
	w.depth--
}

func (w *Writer) U8(v uint8) {
	w.scratch[0] = v
	w.data(w.scratch[:1])
}

func (w *Writer) U16(v uint16) {
	binary.LittleEndian.PutUint16(w.scratch[:], v)
	w.data(w.scratch[:2])
}

func (w *Writer) U32(v uint32) {
	binary.LittleEndian.PutUint32(w.scratch[:], v)
	w.data(w.scratch[:4])
}

func (w *Writer) U64(v uint64) {
	binary.LittleEndian.PutUint64(w.scratch[:], v)
	w.data(w.scratch[:8])
}

func (w *Writer) Bytes(p []byte) {
	w.data(p)
}

// LenString writes s prefixed with its u16 length.
func (w *Writer) LenString(s string) {
	if w.err == nil && len(s) > math.MaxUint16 {
		w.err = fmt.Errorf("nodetree: string too long (%d bytes)", len(s))
		return
	}
	w.U16(uint16(len(s)))
	w.data([]byte(s))
}

// WriteNode writes n and its subtree.
func (w *Writer) WriteNode(n *Node) {
	w.StartNode(n.Type)
	w.data(n.props)
	for _, child := range n.Children {
		w.WriteNode(child)
	}
	w.EndNode()
}

// Err returns the first write error.
func (w *Writer) Err() error {
	return w.err
}

// Close checks that every node was closed and flushes buffered data.
// It does not close the underlying writer.
func (w *Writer) Close() error {
	if w.err != nil {
		return w.err
	}
	if !w.started {
		return errors.New("nodetree: no root node written")
	}
	if w.depth != 0 {
		return fmt.Errorf("nodetree: %d unterminated nodes", w.depth)
	}
	return w.w.Flush()
}

// Marshal encodes a whole tree.
func Marshal(tree *Tree) ([]byte, error) {
	var buffer bytes.Buffer
	w := NewWriter(&buffer, tree.Identifier)
	w.WriteNode(tree.Root)
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
