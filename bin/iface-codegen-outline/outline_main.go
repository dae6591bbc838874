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


//go:build !wasip1

package main

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"

	"github.com/MaDcz/interfaces/compiler"
	"github.com/MaDcz/interfaces/encoding/irjson"
)

func main() {
	args := os.Args[1:]
	if len(args) != 1 {
		log.Fatalf("usage: %s FILE", os.Args[0])
	}
	srcPath := args[0]

	result, err := compiler.CompileFile(
		srcPath,
		compiler.WithIncludePaths([]string{filepath.Dir(srcPath)}),
	)
	if err != nil {
		log.Fatal(err)
	}
	pkgJSON, err := irjson.Compact(result.Package)
	if err != nil {
		log.Fatal(err)
	}
	requestBuf, err := json.Marshal(codegenRequest{
		Language: "outline",
		Package:  pkgJSON,
	})
	if err != nil {
		log.Fatal(err)
	}

	content, err := generateOutline(requestBuf)
	if err != nil {
		log.Fatal(err)
	}
	if _, err := os.Stdout.WriteString(content); err != nil {
		log.Fatal(err)
	}
}
