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
	"strconv"
	"strings"

	"github.com/MaDcz/interfaces/ir"
	"github.com/MaDcz/interfaces/syntax"
)

// AttributeBuilder decodes one `@path(value)` annotation. Without a
// payload the value is boolean true.
type AttributeBuilder struct {
	builderBase
	path  []string
	value any
}

func NewAttributeBuilder() *AttributeBuilder {
	return &AttributeBuilder{value: true}
}

func (b *AttributeBuilder) Path() string {
	return strings.Join(b.path, ".")
}

func (b *AttributeBuilder) Value() any {
	return b.value
}

func (b *AttributeBuilder) SetPath(path string) {
	b.path = strings.Split(strings.TrimSpace(path), ".")
}

// SetValue decodes a literal of the given node kind. String literals
// include their quotes; their content is taken verbatim.
func (b *AttributeBuilder) SetValue(kind syntax.NodeKind, text string) error {
	switch kind {
	case syntax.N_ATTR_VALUE_STRING:
		if len(text) < 2 || text[0] != '"' || text[len(text)-1] != '"' {
			return errMalformedAttribute(b.Path(), "unquoted string "+strconv.Quote(text), b.span)
		}
		b.value = text[1 : len(text)-1]
	case syntax.N_ATTR_VALUE_BOOL:
		switch strings.ToLower(text) {
		case "true":
			b.value = true
		case "false":
			b.value = false
		default:
			return errMalformedAttribute(b.Path(), "invalid boolean "+strconv.Quote(text), b.span)
		}
	case syntax.N_ATTR_VALUE_INT:
		value, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return errMalformedAttribute(b.Path(), "invalid integer "+strconv.Quote(text), b.span)
		}
		b.value = value
	case syntax.N_ATTR_VALUE_FLOAT:
		value, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return errMalformedAttribute(b.Path(), "invalid float "+strconv.Quote(text), b.span)
		}
		b.value = value
	default:
		return errMalformedAttribute(b.Path(), "unsupported value kind "+kind.String(), b.span)
	}
	return nil
}

func (b *AttributeBuilder) Add(child Builder) error {
	return errUnsupportedChild(b, child)
}

func (b *AttributeBuilder) validate(reg *Registry) error {
	if len(b.path) == 0 || (len(b.path) == 1 && b.path[0] == "") {
		return errMalformedAttribute("", "missing path", b.span)
	}
	for _, part := range b.path {
		if part == "" {
			return errMalformedAttribute(b.Path(), "empty path segment", b.span)
		}
	}
	return nil
}

// Apply stores the value in the attribute bag of target. Every segment
// but the last is set to a new empty map, so an earlier annotation with
// the same first segment is replaced rather than merged.
func (b *AttributeBuilder) Apply(target Builder) error {
	if err := b.validate(nil); err != nil {
		return err
	}
	b.store(target.Attributes())
	return nil
}

func (b *AttributeBuilder) store(dest ir.Attributes) {
	for _, part := range b.path[:len(b.path)-1] {
		nested := make(ir.Attributes)
		dest[part] = nested
		dest = nested
	}
	dest[b.path[len(b.path)-1]] = b.value
}
