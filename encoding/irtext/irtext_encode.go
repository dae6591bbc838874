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

// Package irtext renders the IR as indented, deterministic text.
package irtext

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/MaDcz/interfaces/ir"
)

func Encode(pkg *ir.Package) string {
	var buf strings.Builder
	EncodeTo(pkg, &buf)
	return buf.String()
}

func EncodeTo(pkg *ir.Package, w io.Writer) error {
	e := encoder{w: w}
	e.visitPackage(pkg)
	return e.err
}

type encoder struct {
	w      io.Writer
	indent int
	err    error
}

func (e *encoder) line(s string) {
	if e.err != nil {
		return
	}
	if indent := strings.Repeat("\t", e.indent); indent != "" {
		if _, err := io.WriteString(e.w, indent); err != nil {
			e.err = err
			return
		}
	}
	if _, err := io.WriteString(e.w, s); err != nil {
		e.err = err
		return
	}
	if _, err := io.WriteString(e.w, "\n"); err != nil {
		e.err = err
		return
	}
}

func (e *encoder) linef(format string, a ...any) {
	e.line(fmt.Sprintf(format, a...))
}

func (e *encoder) block(header string, body func()) {
	e.line(header + " {")
	e.indent += 1
	body()
	e.indent -= 1
	e.line("}")
}

func (e *encoder) visitPackage(pkg *ir.Package) {
	e.block("package", func() {
		if pkg.Name != "" {
			e.linef("name = %s", quote(pkg.Name))
		}
		for _, name := range pkg.UsingNames() {
			if treatment := pkg.Using[name].Treatment; treatment != "" {
				e.linef("using %s = %s", quote(name), quote(treatment))
			} else {
				e.linef("using %s", quote(name))
			}
		}
		e.visitAttributes("attributes", pkg.Attributes)
		for _, child := range pkg.Children {
			switch child := child.(type) {
			case *ir.Package:
				e.visitPackage(child)
			case *ir.Interface:
				e.visitInterface(child)
			default:
				panic(fmt.Sprintf("irtext: unhandled node %T", child))
			}
		}
	})
}

func (e *encoder) visitInterface(iface *ir.Interface) {
	e.block("interface", func() {
		e.linef("name = %s", quote(iface.Name))
		if iface.Base != "" {
			e.linef("base = %s", quote(iface.Base))
		}
		e.visitAttributes("attributes", iface.Attributes)
		for _, field := range iface.Fields {
			e.visitField(field)
		}
	})
}

func (e *encoder) visitField(field *ir.Field) {
	e.block("field", func() {
		e.linef("name = %s", quote(field.Name))
		e.linef("type = %s", quote(field.TypeName()))
		e.linef("full_type = %s", quote(field.FullTypeName()))
		e.linef("repeated = %s", fmtScalar(field.Repeated))
		e.linef("ref = %s", fmtScalar(field.Ref))
		if field.ID != 0 {
			e.linef("id = %d", field.ID)
		}
		e.visitAttributes("attributes", field.Attributes)
	})
}

func (e *encoder) visitAttributes(name string, attrs ir.Attributes) {
	if len(attrs) == 0 {
		return
	}
	e.linef("%s = {", name)
	e.indent += 1
	for _, key := range attrs.Keys() {
		value := attrs[key]
		if nested, ok := value.(ir.Attributes); ok {
			if len(nested) == 0 {
				e.linef("%s = {}", key)
				continue
			}
			e.visitAttributes(key, nested)
			continue
		}
		e.linef("%s = %s", key, fmtScalar(value))
	}
	e.indent -= 1
	e.line("}")
}

func fmtScalar(value any) string {
	switch value := value.(type) {
	case bool:
		if value {
			return ".true"
		}
		return ".false"
	case int64:
		return strconv.FormatInt(value, 10)
	case float64:
		s := strconv.FormatFloat(value, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eEINa") {
			s += ".0"
		}
		return s
	case string:
		return quote(value)
	}
	panic(fmt.Sprintf("irtext: unhandled attribute value %v (%T)", value, value))
}

func quote(text string) string {
	var buf strings.Builder
	buf.WriteByte('"')
	for _, c := range text {
		if c == '\\' || c == '"' {
			buf.WriteByte('\\')
			buf.WriteRune(c)
			continue
		}
		if c == '\t' {
			buf.WriteString("\\t")
			continue
		}
		if c == '\n' {
			buf.WriteString("\\n")
			continue
		}
		if c < 0x20 || c == 0x7F {
			fmt.Fprintf(&buf, "\\x%02X", c)
			continue
		}
		buf.WriteRune(c)
	}
	buf.WriteByte('"')
	return buf.String()
}
