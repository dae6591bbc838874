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


//go:build wasip1

package main

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// buffers keeps memory handed to the host reachable until the instance
// is discarded.
var buffers = make(map[uint32][]byte)

func main() {}

func keep(buf []byte) uint32 {
	ptr := uint32(uintptr(unsafe.Pointer(unsafe.SliceData(buf))))
	buffers[ptr] = buf
	return ptr
}

//go:wasmexport iface_codegen_allocate
func ifaceCodegenAllocate(size uint32) uint32 {
	if size > math.MaxInt32 {
		return 0
	}
	// Zero-length requests still need a distinct address.
	return keep(make([]byte, max(size, 1)))
}

//go:wasmexport iface_codegen_generate
func ifaceCodegenGenerate(requestPtr, requestLen, responsePtrPtr uint32) uint32 {
	requestBuf := buffers[requestPtr]
	if uint32(len(requestBuf)) < requestLen {
		requestBuf = nil
	} else {
		requestBuf = requestBuf[:requestLen]
	}

	slot := buffers[responsePtrPtr]
	if len(slot) < 4 {
		return 2
	}

	responseBuf, rc := generate(requestBuf)
	framed := make([]byte, 4+len(responseBuf))
	binary.LittleEndian.PutUint32(framed, uint32(len(responseBuf)))
	copy(framed[4:], responseBuf)

	binary.LittleEndian.PutUint32(slot[:4], keep(framed))
	return rc
}
