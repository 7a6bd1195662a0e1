// Package nodetree implements the escaped node-tree framing shared by the
// item definition and map file formats.
//
// A file is a fixed-size identifier followed by a single root node. A node
// starts with Start and a type byte, continues with property bytes and child
// nodes, and ends with End. Property bytes equal to Start, End or Escape are
// preceded by Escape.
package nodetree

import (
	"errors"
	"fmt"
)

const (
	Escape byte = 0xFD
	Start  byte = 0xFE
	End    byte = 0xFF
)

// IdentifierLength is the length of the file identifier preceding the root node.
const IdentifierLength = 4

var ErrInvalidFormat = errors.New("invalid node tree")

type Identifier [IdentifierLength]byte

// Node is a decoded node with its unescaped property bytes.
type Node struct {
	Type     uint8
	Children []*Node

	props []byte
}

// NewNode creates a node with the given (unescaped) properties.
func NewNode(nodeType uint8, props []byte) *Node {
	return &Node{Type: nodeType, props: props}
}

// Properties returns a fresh reader over the node properties.
func (n *Node) Properties() *PropertyReader {
	return NewPropertyReader(n.props)
}

func (n *Node) PropertyBytes() []byte {
	return n.props
}

// AddChild appends a child node and returns it.
func (n *Node) AddChild(child *Node) *Node {
	n.Children = append(n.Children, child)
	return child
}

type Tree struct {
	Identifier Identifier
	Root       *Node
}

// Parse decodes a whole file. It keeps an explicit stack of open nodes and
// fails on any framing error; no partial tree is returned.
func Parse(data []byte) (*Tree, error) {
	if len(data) < IdentifierLength+2 {
		return nil, fmt.Errorf("%w: file too short (%d bytes)", ErrInvalidFormat, len(data))
	}

	tree := &Tree{}
	copy(tree.Identifier[:], data)

	if data[IdentifierLength] != Start {
		return nil, fmt.Errorf("%w: missing root node", ErrInvalidFormat)
	}
	tree.Root = &Node{Type: data[IdentifierLength+1]}

	stack := []*Node{tree.Root}
	for i := IdentifierLength + 2; i < len(data); i++ {
		b := data[i]
		switch b {
		case Start:
			if len(stack) == 0 {
				return nil, fmt.Errorf("%w: node after root at offset %d", ErrInvalidFormat, i)
			}
			i++
			if i == len(data) {
				return nil, fmt.Errorf("%w: missing node type at offset %d", ErrInvalidFormat, i)
			}
			child := stack[len(stack)-1].AddChild(&Node{Type: data[i]})
			stack = append(stack, child)
		case End:
			if len(stack) == 0 {
				return nil, fmt.Errorf("%w: unbalanced node end at offset %d", ErrInvalidFormat, i)
			}
			stack = stack[:len(stack)-1]
		default:
			if b == Escape {
				i++
				if i == len(data) {
					return nil, fmt.Errorf("%w: dangling escape at offset %d", ErrInvalidFormat, i-1)
				}
			}
			if len(stack) == 0 {
				return nil, fmt.Errorf("%w: data after root at offset %d", ErrInvalidFormat, i)
			}
			top := stack[len(stack)-1]
			top.props = append(top.props, data[i])
		}
	}

	if len(stack) != 0 {
		return nil, fmt.Errorf("%w: %d unterminated nodes", ErrInvalidFormat, len(stack))
	}

	return tree, nil
}

// EscapeData returns data with every control byte preceded by Escape.
func EscapeData(data []byte) []byte {
	result := make([]byte, 0, len(data))
	for _, b := range data {
		if b == Start || b == End || b == Escape {
			result = append(result, Escape)
		}
		result = append(result, b)
	}
	return result
}

// Unescape reverses EscapeData. Unescaped Start or End bytes are framing, not
// data, and make the input invalid.
func Unescape(data []byte) ([]byte, error) {
	result := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		switch data[i] {
		case Escape:
			i++
			if i == len(data) {
				return nil, fmt.Errorf("%w: dangling escape", ErrInvalidFormat)
			}
		case Start, End:
			return nil, fmt.Errorf("%w: unescaped control byte 0x%02X at offset %d", ErrInvalidFormat, data[i], i)
		}
		result = append(result, data[i])
	}
	return result, nil
}
