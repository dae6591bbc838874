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

package compiler

import (
	"fmt"

	"github.com/MaDcz/interfaces/syntax"
)

type builderFrame struct {
	builder Builder
	anchor  *syntax.Node
}

// diagram is the second pass. It adds the IR of one root file to root,
// resolving against the registry populated by the indexer.
type diagram struct {
	c     *compileCtx
	d     dispatcher
	root  *FileBuilder
	stack []builderFrame
}

var _ syntax.Handler = (*diagram)(nil)

func (c *compileCtx) newDiagram(root *FileBuilder) *diagram {
	return &diagram{
		c:     c,
		d:     dispatcher{logger: c.logger},
		root:  root,
		stack: []builderFrame{{builder: root}},
	}
}

func (g *diagram) top() Builder {
	return g.stack[len(g.stack)-1].builder
}

func (g *diagram) push(b Builder, node *syntax.Node) {
	b.setParent(g.top())
	g.c.logger.Debug("pushing builder", "builder", fmt.Sprintf("%T", b), "depth", len(g.stack))
	g.stack = append(g.stack, builderFrame{b, node})
}

func (g *diagram) pop(node *syntax.Node) Builder {
	top := len(g.stack) - 1
	if top < 1 || g.stack[top].anchor != node {
		panic("compiler: builder stack mismatch")
	}
	b := g.stack[top].builder
	g.stack = g.stack[:top]
	g.c.logger.Debug("popping builder", "builder", fmt.Sprintf("%T", b), "depth", top)
	return b
}

func topAs[T Builder](g *diagram) T {
	b, ok := g.top().(T)
	if !ok {
		panic(fmt.Sprintf("compiler: expected %T on top of builder stack, got %T", b, g.top()))
	}
	return b
}

func (g *diagram) NodeBegin(node *syntax.Node) error {
	if handled, err := g.d.process(node); handled {
		return err
	}

	switch kind := node.Kind(); kind {
	case syntax.N_INCLUDE, syntax.N_INCLUDE_FILEPATH:
	case syntax.N_NS:
		b := NewNamespaceBuilder()
		b.span = node.Span()
		g.push(b, node)
	case syntax.N_NS_NAME:
		topAs[*NamespaceBuilder](g).SetName(node.Text())
	case syntax.N_USING_DIRECTIVE:
		b := NewUsingBuilder()
		b.span = node.Span()
		g.push(b, node)
	case syntax.N_INTERFACE:
		b := NewInterfaceBuilder()
		b.span = node.Span()
		g.push(b, node)
	case syntax.N_TYPE_NAME:
		switch b := g.top().(type) {
		case *InterfaceBuilder:
			b.SetName(node.Text())
		case *UsingBuilder:
			b.SetName(node.Text())
		default:
			panic("unreachable")
		}
	case syntax.N_INTERFACE_BASE:
		g.d.employ(g.baseNode, node)
	case syntax.N_FIELD:
		b := NewFieldBuilder()
		b.span = node.Span()
		g.push(b, node)
	case syntax.N_FIELD_IS_REF:
		topAs[*FieldBuilder](g).SetRef(true)
	case syntax.N_FIELD_TYPE:
		b := topAs[*FieldBuilder](g)
		b.SetType(node.Text())
		b.typeSpan = node.Span()
	case syntax.N_FIELD_IS_REPEATED:
		topAs[*FieldBuilder](g).SetRepeated(true)
	case syntax.N_FIELD_NAME:
		topAs[*FieldBuilder](g).SetName(node.Text())
	case syntax.N_FIELD_ID:
		id, ok := syntax.FieldId(node)
		if !ok {
			panic("unreachable")
		}
		topAs[*FieldBuilder](g).SetID(id)
	case syntax.N_ATTR:
		b := NewAttributeBuilder()
		b.span = node.Span()
		g.push(b, node)
	case syntax.N_ATTR_PATH:
		topAs[*AttributeBuilder](g).SetPath(node.Text())
	case syntax.N_ATTR_VALUE_STRING, syntax.N_ATTR_VALUE_BOOL, syntax.N_ATTR_VALUE_INT, syntax.N_ATTR_VALUE_FLOAT:
		return topAs[*AttributeBuilder](g).SetValue(kind, node.Text())
	default:
		panic("unreachable")
	}
	return nil
}

// baseNode captures the base reference of an interface as a whole and
// swallows the ns_name and type_name nodes inside it.
func (g *diagram) baseNode(node *syntax.Node) error {
	if node.Kind() != syntax.N_TYPE_REF {
		panic("unreachable")
	}
	b := topAs[*InterfaceBuilder](g)
	b.SetBase(node.Text())
	b.baseSpan = node.Span()
	g.d.employ(nil, node)
	return nil
}

func (g *diagram) NodeEnd(node *syntax.Node) error {
	if !g.d.end(node) {
		return nil
	}

	switch node.Kind() {
	case syntax.N_NS, syntax.N_INTERFACE, syntax.N_FIELD:
		b := g.pop(node)
		if err := b.validate(g.c.registry); err != nil {
			return err
		}
		return g.top().Add(b)
	case syntax.N_USING_DIRECTIVE:
		g.pop(node)
	case syntax.N_ATTR:
		attr := g.pop(node).(*AttributeBuilder)
		return attr.Apply(g.top())
	}
	return nil
}

func (c *compileCtx) build(filePath string, file *syntax.File, root *FileBuilder) error {
	g := c.newDiagram(root)
	if err := file.Walk(g); err != nil {
		return inFile(err, filePath)
	}
	g.d.finish()
	if len(g.stack) != 1 {
		panic("compiler: unbalanced builder stack at end of file")
	}
	return nil
}
