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
	"slices"
	"strings"

	"github.com/MaDcz/interfaces/ir"
	"github.com/MaDcz/interfaces/syntax"
)

// Builder constructs one IR node. The set of builders is closed: *FileBuilder,
// *NamespaceBuilder, *InterfaceBuilder, *FieldBuilder, *AttributeBuilder and
// *UsingBuilder.
//
// The parent of a builder is a non-owning back reference used to compute
// its enclosing namespaces. Parents own their children through Add.
type Builder interface {
	Parent() Builder
	Add(child Builder) error
	Attributes() ir.Attributes

	setParent(parent Builder)
	validate(reg *Registry) error
}

var (
	_ Builder = (*FileBuilder)(nil)
	_ Builder = (*NamespaceBuilder)(nil)
	_ Builder = (*InterfaceBuilder)(nil)
	_ Builder = (*FieldBuilder)(nil)
	_ Builder = (*AttributeBuilder)(nil)
	_ Builder = (*UsingBuilder)(nil)
)

type builderBase struct {
	parent Builder
	attrs  ir.Attributes
	span   syntax.Span
}

func (b *builderBase) Parent() Builder {
	return b.parent
}

func (b *builderBase) setParent(parent Builder) {
	b.parent = parent
}

// Attributes returns the builder's attribute bag, creating it if needed.
func (b *builderBase) Attributes() ir.Attributes {
	if b.attrs == nil {
		b.attrs = make(ir.Attributes)
	}
	return b.attrs
}

func (b *builderBase) builtAttributes() ir.Attributes {
	if len(b.attrs) == 0 {
		return nil
	}
	return b.attrs
}

// EnclosingNamespaces returns the names of the namespace builders that
// enclose b, outermost first. Other builder kinds do not open a scope.
func EnclosingNamespaces(b Builder) []string {
	var namespaces []string
	for parent := b.Parent(); parent != nil; parent = parent.Parent() {
		if ns, ok := parent.(*NamespaceBuilder); ok {
			namespaces = append(namespaces, ns.name)
		}
	}
	slices.Reverse(namespaces)
	return namespaces
}

func builderName(b Builder) string {
	switch b := b.(type) {
	case *FileBuilder:
		return "file"
	case *NamespaceBuilder:
		return fmt.Sprintf("namespace '%s'", b.name)
	case *InterfaceBuilder:
		return fmt.Sprintf("interface '%s'", b.name)
	case *FieldBuilder:
		return fmt.Sprintf("field '%s'", b.name)
	case *AttributeBuilder:
		return fmt.Sprintf("attribute '@%s'", b.Path())
	case *UsingBuilder:
		return fmt.Sprintf("using '%s'", b.name)
	case nil:
		return "<nil>"
	}
	panic("unreachable")
}

func addContent(parent Builder, content *[]Builder, child Builder) error {
	switch child.(type) {
	case *NamespaceBuilder, *InterfaceBuilder:
		child.setParent(parent)
		*content = append(*content, child)
		return nil
	}
	return errUnsupportedChild(parent, child)
}

func buildContent(reg *Registry, content []Builder) ([]ir.Node, error) {
	nodes := make([]ir.Node, 0, len(content))
	for _, child := range content {
		var node ir.Node
		var err error
		switch child := child.(type) {
		case *NamespaceBuilder:
			node, err = child.Build(reg)
		case *InterfaceBuilder:
			node, err = child.Build(reg)
		default:
			panic("unreachable")
		}
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// FileBuilder is the root of a builder tree. It produces the root package,
// which carries the `using` summary of the registry.
type FileBuilder struct {
	builderBase
	content []Builder
}

func NewFileBuilder() *FileBuilder {
	return &FileBuilder{}
}

func (b *FileBuilder) Add(child Builder) error {
	return addContent(b, &b.content, child)
}

func (b *FileBuilder) validate(reg *Registry) error {
	return nil
}

func (b *FileBuilder) Build(reg *Registry) (*ir.Package, error) {
	if err := b.validate(reg); err != nil {
		return nil, err
	}
	using, err := reg.Using()
	if err != nil {
		return nil, err
	}
	children, err := buildContent(reg, b.content)
	if err != nil {
		return nil, err
	}
	pkg := &ir.Package{
		Attributes: b.builtAttributes(),
		Children:   children,
	}
	if len(using) > 0 {
		pkg.Using = using
	}
	return pkg, nil
}

type NamespaceBuilder struct {
	builderBase
	name    string
	content []Builder
}

func NewNamespaceBuilder() *NamespaceBuilder {
	return &NamespaceBuilder{}
}

func (b *NamespaceBuilder) Name() string {
	return b.name
}

func (b *NamespaceBuilder) SetName(name string) {
	b.name = strings.TrimSpace(name)
}

func (b *NamespaceBuilder) Add(child Builder) error {
	return addContent(b, &b.content, child)
}

func (b *NamespaceBuilder) validate(reg *Registry) error {
	if b.name == "" {
		return errMissingName("Namespace", b.span)
	}
	return nil
}

func (b *NamespaceBuilder) Build(reg *Registry) (*ir.Package, error) {
	if err := b.validate(reg); err != nil {
		return nil, err
	}
	children, err := buildContent(reg, b.content)
	if err != nil {
		return nil, err
	}
	return &ir.Package{
		Name:       b.name,
		Attributes: b.builtAttributes(),
		Children:   children,
	}, nil
}

type InterfaceBuilder struct {
	builderBase
	name     string
	base     string
	baseSpan syntax.Span
	fields   []*FieldBuilder

	fullBase string
}

func NewInterfaceBuilder() *InterfaceBuilder {
	return &InterfaceBuilder{}
}

func (b *InterfaceBuilder) Name() string {
	return b.name
}

func (b *InterfaceBuilder) SetName(name string) {
	b.name = strings.TrimSpace(name)
}

// SetBase records the base interface reference as written.
func (b *InterfaceBuilder) SetBase(ref string) {
	b.base = strings.TrimSpace(ref)
}

func (b *InterfaceBuilder) Add(child Builder) error {
	field, ok := child.(*FieldBuilder)
	if !ok {
		return errUnsupportedChild(b, child)
	}
	field.setParent(b)
	b.fields = append(b.fields, field)
	return nil
}

func (b *InterfaceBuilder) validate(reg *Registry) error {
	if b.name == "" {
		return errMissingName("Interface", b.span)
	}
	b.fullBase = ""
	if b.base != "" {
		namespaces := EnclosingNamespaces(b)
		fullBase, ok := reg.Resolve(b.base, namespaces)
		if !ok {
			return errUnresolvedType(b.base, namespaces, b.baseSpan)
		}
		b.fullBase = fullBase
	}
	return nil
}

func (b *InterfaceBuilder) Build(reg *Registry) (*ir.Interface, error) {
	if err := b.validate(reg); err != nil {
		return nil, err
	}
	out := &ir.Interface{
		Name:       b.name,
		Base:       b.fullBase,
		Attributes: b.builtAttributes(),
		Fields:     make([]*ir.Field, 0, len(b.fields)),
	}
	for _, field := range b.fields {
		built, err := field.Build(reg)
		if err != nil {
			return nil, err
		}
		out.Fields = append(out.Fields, built)
	}
	return out, nil
}

type FieldBuilder struct {
	builderBase
	typ      string
	typeSpan syntax.Span
	name     string
	id       uint32
	repeated bool
	ref      bool

	fullType string
}

func NewFieldBuilder() *FieldBuilder {
	return &FieldBuilder{}
}

func (b *FieldBuilder) Name() string {
	return b.name
}

func (b *FieldBuilder) SetType(typ string) {
	b.typ = strings.TrimSpace(typ)
}

func (b *FieldBuilder) SetName(name string) {
	b.name = strings.TrimSpace(name)
}

// SetID records the explicit field ordinal; zero means none was given.
func (b *FieldBuilder) SetID(id uint32) {
	b.id = id
}

func (b *FieldBuilder) SetRepeated(repeated bool) {
	b.repeated = repeated
}

func (b *FieldBuilder) SetRef(ref bool) {
	b.ref = ref
}

func (b *FieldBuilder) Add(child Builder) error {
	return errUnsupportedChild(b, child)
}

func (b *FieldBuilder) validate(reg *Registry) error {
	if b.typ == "" {
		return errMissingType(b.name, b.span)
	}
	if b.name == "" {
		return errMissingName("Field", b.span)
	}
	namespaces := EnclosingNamespaces(b)
	fullType, ok := reg.Resolve(b.typ, namespaces)
	if !ok {
		return errUnresolvedType(b.typ, namespaces, b.typeSpan)
	}
	b.fullType = fullType
	return nil
}

func (b *FieldBuilder) Build(reg *Registry) (*ir.Field, error) {
	if err := b.validate(reg); err != nil {
		return nil, err
	}
	return &ir.Field{
		Name:       b.name,
		Type:       strings.Split(b.typ, "."),
		FullType:   strings.Split(b.fullType, "."),
		Repeated:   b.repeated,
		Ref:        b.ref,
		ID:         b.id,
		Attributes: b.builtAttributes(),
	}, nil
}

// UsingBuilder stands in for a `using` directive while building. It takes
// part in indexing only and produces nothing in the IR.
type UsingBuilder struct {
	builderBase
	name string
}

func NewUsingBuilder() *UsingBuilder {
	return &UsingBuilder{}
}

func (b *UsingBuilder) SetName(name string) {
	b.name = strings.TrimSpace(name)
}

func (b *UsingBuilder) Add(child Builder) error {
	return errUnsupportedChild(b, child)
}

func (b *UsingBuilder) validate(reg *Registry) error {
	return nil
}
