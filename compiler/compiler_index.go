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
	"github.com/MaDcz/interfaces/ir"
	"github.com/MaDcz/interfaces/syntax"
)

type indexScope struct {
	kind   syntax.NodeKind
	anchor *syntax.Node
	name   string
	record *Record
	attrs  ir.Attributes
}

func (s *indexScope) attributes() ir.Attributes {
	if s.record != nil {
		if s.record.Attributes == nil {
			s.record.Attributes = make(ir.Attributes)
		}
		return s.record.Attributes
	}
	if s.attrs == nil {
		s.attrs = make(ir.Attributes)
	}
	return s.attrs
}

// indexer is the first pass. It registers every `using` declaration and
// interface definition of one file, and recursively indexes the files it
// includes.
type indexer struct {
	c      *compileCtx
	file   string
	d      dispatcher
	scopes []*indexScope
	attr   *AttributeBuilder
}

var _ syntax.Handler = (*indexer)(nil)

func (c *compileCtx) newIndexer(file string) *indexer {
	return &indexer{
		c:    c,
		file: file,
		d:    dispatcher{logger: c.logger},
	}
}

func (x *indexer) NodeBegin(node *syntax.Node) error {
	if handled, err := x.d.process(node); handled {
		return err
	}

	switch node.Kind() {
	case syntax.N_INCLUDE:
	case syntax.N_INCLUDE_FILEPATH:
		return x.include(node)
	case syntax.N_NS, syntax.N_USING_DIRECTIVE, syntax.N_INTERFACE:
		scope := &indexScope{kind: node.Kind(), anchor: node}
		if node.Kind() != syntax.N_NS {
			scope.record = &Record{File: x.file, Span: node.Span()}
		}
		x.scopes = append(x.scopes, scope)
	case syntax.N_NS_NAME:
		x.topScope(syntax.N_NS).name = node.Text()
	case syntax.N_TYPE_NAME:
		return x.register(node)
	case syntax.N_INTERFACE_BASE:
		// The base reference holds ns_name and type_name nodes that
		// must not be taken for declarations.
		x.d.employ(nil, node)
	case syntax.N_FIELD:
		x.d.employ(nil, node)
	case syntax.N_ATTR:
		x.attr = NewAttributeBuilder()
		x.attr.span = node.Span()
		x.d.employ(x.attrNode, node)
	default:
		panic("unreachable")
	}
	return nil
}

func (x *indexer) attrNode(node *syntax.Node) error {
	switch kind := node.Kind(); {
	case kind == syntax.N_ATTR_PATH:
		x.attr.SetPath(node.Text())
	case kind.IsAttrValue():
		return x.attr.SetValue(kind, node.Text())
	}
	return nil
}

func (x *indexer) NodeEnd(node *syntax.Node) error {
	if !x.d.end(node) {
		return nil
	}

	switch node.Kind() {
	case syntax.N_NS, syntax.N_USING_DIRECTIVE, syntax.N_INTERFACE:
		top := len(x.scopes) - 1
		if top < 0 || x.scopes[top].anchor != node {
			panic("compiler: index scope mismatch")
		}
		x.scopes = x.scopes[:top]
	case syntax.N_ATTR:
		if len(x.scopes) == 0 {
			panic("unreachable")
		}
		attr := x.attr
		x.attr = nil
		if err := attr.validate(nil); err != nil {
			return err
		}
		attr.store(x.scopes[len(x.scopes)-1].attributes())
	}
	return nil
}

func (x *indexer) topScope(kind syntax.NodeKind) *indexScope {
	if len(x.scopes) == 0 || x.scopes[len(x.scopes)-1].kind != kind {
		panic("unreachable")
	}
	return x.scopes[len(x.scopes)-1]
}

func (x *indexer) register(node *syntax.Node) error {
	if len(x.scopes) == 0 {
		panic("unreachable")
	}
	scope := x.scopes[len(x.scopes)-1]
	scope.name = node.Text()
	scope.record.Span = node.Span()

	var namespaces []string
	for _, s := range x.scopes {
		if s.kind == syntax.N_NS {
			namespaces = append(namespaces, s.name)
		}
	}
	fullName := joinName(namespaces, scope.name)

	switch scope.kind {
	case syntax.N_USING_DIRECTIVE:
		return x.c.registry.Declare(fullName, scope.record)
	case syntax.N_INTERFACE:
		return x.c.registry.Define(fullName, scope.record)
	}
	panic("unreachable")
}

func (x *indexer) include(node *syntax.Node) error {
	filePath, err := x.c.loader.Resolve(node.Text(), node.Span())
	if err != nil {
		return inFile(err, x.file)
	}
	return inFile(x.c.indexFile(filePath, node.Span()), x.file)
}

// indexFile reads, parses and indexes one included file, unless it was
// already indexed in this compilation.
func (c *compileCtx) indexFile(filePath string, span syntax.Span) error {
	enter, err := c.loader.Enter(filePath, span)
	if err != nil || !enter {
		return err
	}
	src, err := c.loader.Read(filePath)
	if err != nil {
		return err
	}
	file, err := syntax.Parse(src)
	if err != nil {
		return errSyntax(filePath, err)
	}
	if err := c.index(filePath, file); err != nil {
		return err
	}
	c.loader.Leave(filePath)
	return nil
}

func (c *compileCtx) index(filePath string, file *syntax.File) error {
	x := c.newIndexer(filePath)
	if err := file.Walk(x); err != nil {
		return inFile(err, filePath)
	}
	x.d.finish()
	if len(x.scopes) != 0 {
		panic("compiler: unbalanced index scopes at end of file")
	}
	return nil
}
