// Copyright (c) 2024 The interfaces Authors
//
// Permission to use, copy, modify, and/or distribute this software for any
// purpose with or without fee is hereby granted.
//
// THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH
// REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY
// AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT,
// INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM
// LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR
// OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR
// PERFORMANCE OF THIS SOFTWARE.
//
// SPDX-License-Identifier: 0BSD

package syntax

import (
	"fmt"
	"iter"
)

type Span struct {
	start, len uint32
}

func NewSpan(start, len uint32) Span {
	return Span{start, len}
}

func (s *Span) Start() uint32 {
	return s.start
}

func (s *Span) End() uint32 {
	return s.start + s.len
}

func (s *Span) Len() uint32 {
	return s.len
}

// LineCol maps a byte offset within src to a 1-based line and column.
// Columns count runes, not bytes.
func LineCol(src []byte, offset uint32) (line, col int) {
	line, col = 1, 1
	if int(offset) > len(src) {
		offset = uint32(len(src))
	}
	for _, r := range string(src[:offset]) {
		if r == '\n' {
			line += 1
			col = 1
		} else {
			col += 1
		}
	}
	return line, col
}

// NodeKind identifies the grammar production that produced a node. Only
// productions in this set are observable; whitespace, newlines and
// comments are absorbed by the parser.
type NodeKind uint8

const (
	N_INVALID NodeKind = iota

	N_INCLUDE
	N_INCLUDE_FILEPATH

	N_NS
	N_NS_NAME

	N_USING_DIRECTIVE

	N_TYPE_NAME
	N_TYPE_REF

	N_INTERFACE
	N_INTERFACE_BASE

	N_FIELD
	N_FIELD_IS_REF
	N_FIELD_TYPE
	N_FIELD_IS_REPEATED
	N_FIELD_NAME
	N_FIELD_ID

	N_ATTR
	N_ATTR_PATH
	N_ATTR_VALUE_STRING
	N_ATTR_VALUE_BOOL
	N_ATTR_VALUE_INT
	N_ATTR_VALUE_FLOAT
)

func (k NodeKind) String() string {
	switch k {
	case N_INCLUDE:
		return "include"
	case N_INCLUDE_FILEPATH:
		return "include_filepath"
	case N_NS:
		return "ns"
	case N_NS_NAME:
		return "ns_name"
	case N_USING_DIRECTIVE:
		return "using_directive"
	case N_TYPE_NAME:
		return "type_name"
	case N_TYPE_REF:
		return "type_ref"
	case N_INTERFACE:
		return "interface"
	case N_INTERFACE_BASE:
		return "interface_base"
	case N_FIELD:
		return "field"
	case N_FIELD_IS_REF:
		return "field_is_ref"
	case N_FIELD_TYPE:
		return "field_type"
	case N_FIELD_IS_REPEATED:
		return "field_is_repeated"
	case N_FIELD_NAME:
		return "field_name"
	case N_FIELD_ID:
		return "field_id"
	case N_ATTR:
		return "attr"
	case N_ATTR_PATH:
		return "attr_path"
	case N_ATTR_VALUE_STRING:
		return "attr_value_string"
	case N_ATTR_VALUE_BOOL:
		return "attr_value_bool"
	case N_ATTR_VALUE_INT:
		return "attr_value_int"
	case N_ATTR_VALUE_FLOAT:
		return "attr_value_float"
	default:
		return fmt.Sprintf("NodeKind(%d)", uint8(k))
	}
}

// IsAttrValue reports whether nodes of this kind carry an attribute payload.
func (k NodeKind) IsAttrValue() bool {
	switch k {
	case N_ATTR_VALUE_STRING, N_ATTR_VALUE_BOOL, N_ATTR_VALUE_INT, N_ATTR_VALUE_FLOAT:
		return true
	}
	return false
}

type Node struct {
	kind       NodeKind
	text       string
	span       Span
	childNodes []*Node
}

func (n *Node) Kind() NodeKind {
	return n.kind
}

// Text returns the source text matched by the node, including the text
// of its children.
func (n *Node) Text() string {
	return n.text
}

func (n *Node) Span() Span {
	return n.span
}

func (n *Node) String() string {
	return n.kind.String()
}

func (n *Node) ChildNodes() iter.Seq[*Node] {
	return iterChildren(n.childNodes)
}

func iterChildren(childNodes []*Node) iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for _, child := range childNodes {
			if !yield(child) {
				return
			}
		}
	}
}

// Event is a node-begin or node-end notification.
type Event struct {
	Begin bool
	Node  *Node
}

func (e Event) String() string {
	if e.Begin {
		return e.Node.kind.String() + " begin"
	}
	return e.Node.kind.String() + " end"
}

// Handler receives the events of a parsed file in depth-first order.
// Returning an error aborts the walk.
type Handler interface {
	NodeBegin(node *Node) error
	NodeEnd(node *Node) error
}

// File is the result of a successful parse. Its events are only
// observable after the whole source matched the grammar.
type File struct {
	childNodes []*Node
}

func (f *File) ChildNodes() iter.Seq[*Node] {
	return iterChildren(f.childNodes)
}

func (f *File) Events() iter.Seq[Event] {
	return func(yield func(Event) bool) {
		for _, node := range f.childNodes {
			if !walkEvents(node, yield) {
				return
			}
		}
	}
}

func walkEvents(node *Node, yield func(Event) bool) bool {
	if !yield(Event{Begin: true, Node: node}) {
		return false
	}
	for _, child := range node.childNodes {
		if !walkEvents(child, yield) {
			return false
		}
	}
	return yield(Event{Begin: false, Node: node})
}

func (f *File) Walk(h Handler) error {
	for event := range f.Events() {
		var err error
		if event.Begin {
			err = h.NodeBegin(event.Node)
		} else {
			err = h.NodeEnd(event.Node)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
