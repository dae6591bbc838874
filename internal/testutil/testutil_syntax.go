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

package testutil

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/MaDcz/interfaces/syntax"
)

// TestdataFS returns the repository's top-level testdata directory.
func TestdataFS() (fs.FS, error) {
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		return nil, fmt.Errorf("testutil: unable to locate source directory")
	}
	root := filepath.Join(filepath.Dir(thisFile), "..", "..", "testdata")
	if _, err := os.Stat(root); err != nil {
		return nil, err
	}
	return os.DirFS(root), nil
}

func SpanOrDie(t *testing.T, raw interface{}) syntax.Span {
	t.Helper()
	obj, ok := raw.(map[string]interface{})
	if !ok {
		t.Fatalf("expected span object, got %#v", raw)
	}
	start := uint32OrDie(t, obj["start"])
	spanLen := uint32OrDie(t, obj["len"])
	return syntax.NewSpan(start, spanLen)
}

func uint32OrDie(t *testing.T, raw interface{}) uint32 {
	t.Helper()
	switch value := raw.(type) {
	case json.Number:
		n, err := value.Int64()
		if err != nil || n < 0 || n > 0xFFFFFFFF {
			t.Fatalf("expected uint32, got %q", value)
		}
		return uint32(n)
	case float64:
		return uint32(value)
	}
	t.Fatalf("expected number, got %#v", raw)
	return 0
}

// DumpTree renders the node tree of a parsed file, one node per line.
// Leaf nodes also show their matched text.
func DumpTree(file *syntax.File) string {
	var buf strings.Builder
	for node := range file.ChildNodes() {
		dumpNode(&buf, node, 0)
	}
	return buf.String()
}

func dumpNode(buf *strings.Builder, node *syntax.Node, indent int) {
	buf.WriteString(strings.Repeat("    ", indent))
	buf.WriteString(node.Kind().String())
	hasChildren := false
	for range node.ChildNodes() {
		hasChildren = true
		break
	}
	if !hasChildren {
		buf.WriteString(" ")
		quoted, _ := json.Marshal(node.Text())
		buf.Write(quoted)
	}
	buf.WriteString("\n")
	for child := range node.ChildNodes() {
		dumpNode(buf, child, indent+1)
	}
}

// DumpEvents renders the begin/end event stream of a parsed file.
func DumpEvents(file *syntax.File) string {
	var buf strings.Builder
	for event := range file.Events() {
		buf.WriteString(event.String())
		buf.WriteString("\n")
	}
	return buf.String()
}
