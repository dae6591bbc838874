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

// Package irjson encodes the IR as JSON.
package irjson

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/MaDcz/interfaces/encoding/internal/irwire"
	"github.com/MaDcz/interfaces/ir"
)

// Encode returns the indented JSON form of pkg, with a trailing newline.
func Encode(pkg *ir.Package) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeTo(pkg, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func EncodeTo(pkg *ir.Package, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(irwire.FromPackage(pkg))
}

// Compact is Encode without indentation, for embedding in other messages.
func Compact(pkg *ir.Package) ([]byte, error) {
	return json.Marshal(irwire.FromPackage(pkg))
}
