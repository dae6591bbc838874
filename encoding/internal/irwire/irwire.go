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

// Package irwire is the object shape shared by the JSON and MessagePack
// encodings of the IR.
package irwire

import (
	"fmt"

	"github.com/MaDcz/interfaces/ir"
)

const (
	KindPackage   = "package"
	KindInterface = "interface"
	KindField     = "field"
)

type Package struct {
	Kind       string           `json:"kind"`
	Name       string           `json:"name,omitempty"`
	Attributes ir.Attributes    `json:"attributes,omitempty"`
	Using      map[string]Using `json:"using,omitempty"`
	Children   []any            `json:"children"`
}

type Using struct {
	Treatment string `json:"treatment,omitempty"`
}

type Interface struct {
	Kind       string        `json:"kind"`
	Name       string        `json:"name"`
	Base       string        `json:"base,omitempty"`
	Attributes ir.Attributes `json:"attributes,omitempty"`
	Fields     []*Field      `json:"fields"`
}

type Field struct {
	Kind       string        `json:"kind"`
	Name       string        `json:"name"`
	Type       []string      `json:"type"`
	FullType   []string      `json:"full_type"`
	Repeated   bool          `json:"repeated"`
	Ref        bool          `json:"ref"`
	ID         uint32        `json:"id,omitempty"`
	Attributes ir.Attributes `json:"attributes,omitempty"`
}

func FromPackage(pkg *ir.Package) *Package {
	out := &Package{
		Kind:       KindPackage,
		Name:       pkg.Name,
		Attributes: pkg.Attributes,
		Children:   make([]any, 0, len(pkg.Children)),
	}
	if len(pkg.Using) > 0 {
		out.Using = make(map[string]Using, len(pkg.Using))
		for name, info := range pkg.Using {
			out.Using[name] = Using{Treatment: info.Treatment}
		}
	}
	for _, child := range pkg.Children {
		switch child := child.(type) {
		case *ir.Package:
			out.Children = append(out.Children, FromPackage(child))
		case *ir.Interface:
			out.Children = append(out.Children, fromInterface(child))
		default:
			panic(fmt.Sprintf("irwire: unhandled node %T", child))
		}
	}
	return out
}

func fromInterface(iface *ir.Interface) *Interface {
	out := &Interface{
		Kind:       KindInterface,
		Name:       iface.Name,
		Base:       iface.Base,
		Attributes: iface.Attributes,
		Fields:     make([]*Field, 0, len(iface.Fields)),
	}
	for _, field := range iface.Fields {
		out.Fields = append(out.Fields, &Field{
			Kind:       KindField,
			Name:       field.Name,
			Type:       field.Type,
			FullType:   field.FullType,
			Repeated:   field.Repeated,
			Ref:        field.Ref,
			ID:         field.ID,
			Attributes: field.Attributes,
		})
	}
	return out
}
