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

// Package irpack encodes the IR as MessagePack. Objects use the same key
// names as the JSON encoding.
package irpack

import (
	"bytes"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/MaDcz/interfaces/encoding/internal/irwire"
	"github.com/MaDcz/interfaces/ir"
)

func Encode(pkg *ir.Package) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeTo(pkg, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func EncodeTo(pkg *ir.Package, w io.Writer) error {
	enc := msgpack.NewEncoder(w)
	enc.SetCustomStructTag("json")
	enc.SetSortMapKeys(true)
	return enc.Encode(irwire.FromPackage(pkg))
}
