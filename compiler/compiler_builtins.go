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

var builtinTypes = []struct {
	name      string
	treatment Treatment
}{
	{"int", ValueType},
	{"int32", ValueType},
	{"uint", ValueType},
	{"uint32", ValueType},
	{"float", ValueType},
	{"double", ValueType},
	{"bool", ValueType},
	{"string", ReferenceType},
	{"bytes", ReferenceType},
}

// BuiltinTypes returns the names that are resolvable without any
// declaration, in table order.
func BuiltinTypes() []string {
	names := make([]string, 0, len(builtinTypes))
	for _, builtin := range builtinTypes {
		names = append(names, builtin.name)
	}
	return names
}
