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

// Package ir defines the resolved, language-neutral model produced by the
// compiler and consumed by code generators.
package ir

import (
	"iter"
	"maps"
	"slices"
	"strings"
)

const (
	TreatmentValue     = "value_type"
	TreatmentReference = "reference_type"
)

// Attributes is a free-form annotation bag. Values are string, bool,
// int64, float64, or a nested Attributes.
type Attributes map[string]any

// Lookup walks a dotted attribute path.
func (a Attributes) Lookup(path string) (any, bool) {
	parts := strings.Split(path, ".")
	current := a
	for ii, part := range parts {
		value, ok := current[part]
		if !ok {
			return nil, false
		}
		if ii == len(parts)-1 {
			return value, true
		}
		nested, ok := value.(Attributes)
		if !ok {
			return nil, false
		}
		current = nested
	}
	return nil, false
}

// Keys returns the attribute names in sorted order.
func (a Attributes) Keys() []string {
	return slices.Sorted(maps.Keys(a))
}

// Node is a child of a Package: either *Package or *Interface.
type Node interface {
	node()
}

type Package struct {
	// Empty for the root package.
	Name       string
	Attributes Attributes
	// Only set on the root package.
	Using    map[string]UsingInfo
	Children []Node
}

func (*Package) node() {}

// UsingNames returns the keys of the using summary in sorted order.
func (p *Package) UsingNames() []string {
	return slices.Sorted(maps.Keys(p.Using))
}

// Interfaces yields every interface in the package tree along with its
// fully-qualified name, depth first.
func (p *Package) Interfaces() iter.Seq2[string, *Interface] {
	return func(yield func(string, *Interface) bool) {
		walkInterfaces(p, nil, yield)
	}
}

func walkInterfaces(p *Package, prefix []string, yield func(string, *Interface) bool) bool {
	if p.Name != "" {
		prefix = append(slices.Clip(prefix), p.Name)
	}
	for _, child := range p.Children {
		switch child := child.(type) {
		case *Package:
			if !walkInterfaces(child, prefix, yield) {
				return false
			}
		case *Interface:
			fullName := strings.Join(append(slices.Clip(prefix), child.Name), ".")
			if !yield(fullName, child) {
				return false
			}
		}
	}
	return true
}

type UsingInfo struct {
	// TreatmentValue, TreatmentReference, or empty if unknown.
	Treatment string
}

type Interface struct {
	Name string
	// Fully-qualified name of the base interface, if any.
	Base       string
	Attributes Attributes
	Fields     []*Field
}

func (*Interface) node() {}

type Field struct {
	Name string
	// Dotted path as written in the source.
	Type []string
	// Resolved fully-qualified type name.
	FullType   []string
	Repeated   bool
	Ref        bool
	ID         uint32
	Attributes Attributes
}

func (f *Field) TypeName() string {
	return strings.Join(f.Type, ".")
}

func (f *Field) FullTypeName() string {
	return strings.Join(f.FullType, ".")
}
