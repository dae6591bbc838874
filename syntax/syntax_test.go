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

package syntax_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"testing"

	"github.com/MaDcz/interfaces/internal/testutil"
	"github.com/MaDcz/interfaces/syntax"
)

var testdata fs.FS

func init() {
	var err error
	testdata, err = testutil.TestdataFS()
	if err != nil {
		panic(err)
	}
}

func specTest(t *testing.T, testName string) {
	t.Parallel()

	srcPath := fmt.Sprintf("syntax/%s/%s.iface", testName, testName)
	src, err := fs.ReadFile(testdata, srcPath)
	testutil.AssertNoError(t, err)

	expectOK := fmt.Sprintf("syntax/%s/expect_ok.txt", testName)
	expectErr := fmt.Sprintf("syntax/%s/expect_err.json", testName)

	if _, err := fs.Stat(testdata, expectErr); err == nil {
		testExpectErr(t, src, expectErr)
	} else {
		testExpectOK(t, src, expectOK)
	}
}

func testExpectOK(t *testing.T, src []byte, expectPath string) {
	expectText, err := fs.ReadFile(testdata, expectPath)
	testutil.AssertNoError(t, err)

	file, err := syntax.Parse(src)
	testutil.AssertNoError(t, err)

	testutil.ExpectNoDiff(t, string(expectText), testutil.DumpTree(file))
}

func testExpectErr(t *testing.T, src []byte, expectPath string) {
	expectJSON, err := fs.ReadFile(testdata, expectPath)
	testutil.AssertNoError(t, err)

	test := make(map[string]interface{})
	decoder := json.NewDecoder(bytes.NewReader(expectJSON))
	decoder.UseNumber()
	testutil.AssertNoError(t, decoder.Decode(&test))

	file, err := syntax.Parse(src)
	testutil.AssertError(t, err)
	testutil.ExpectTrue(t, file == nil)

	parseErr := testutil.AssertErrorAs[*syntax.Error](t, err)
	code, err := test["code"].(json.Number).Int64()
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, uint32(code), parseErr.Code())
	if pattern, ok := test["message_pattern"].(string); ok {
		testutil.ExpectMatch(t, pattern, parseErr.Message())
	}

	expectSpan := testutil.SpanOrDie(t, test["error_span"])
	testutil.ExpectEq(t, expectSpan, parseErr.Span())
}

func TestSyntax(t *testing.T) {
	t.Parallel()

	testDirs, err := fs.ReadDir(testdata, "syntax")
	testutil.AssertNoError(t, err)

	for _, testDir := range testDirs {
		if testDir.IsDir() {
			testName := testDir.Name()
			t.Run(testName, func(t *testing.T) {
				specTest(t, testName)
			})
		}
	}
}

func TestEventOrder(t *testing.T) {
	t.Parallel()

	file, err := syntax.Parse([]byte("namespace a { using T; }"))
	testutil.AssertNoError(t, err)

	want := "" +
		"ns begin\n" +
		"ns_name begin\n" +
		"ns_name end\n" +
		"using_directive begin\n" +
		"type_name begin\n" +
		"type_name end\n" +
		"using_directive end\n" +
		"ns end\n"
	testutil.ExpectNoDiff(t, want, testutil.DumpEvents(file))
}

type recordingHandler struct {
	events []string
	failAt int
}

func (h *recordingHandler) record(node *syntax.Node, suffix string) error {
	h.events = append(h.events, node.Kind().String()+suffix)
	if len(h.events) == h.failAt {
		return fmt.Errorf("stop")
	}
	return nil
}

func (h *recordingHandler) NodeBegin(node *syntax.Node) error {
	return h.record(node, "+")
}

func (h *recordingHandler) NodeEnd(node *syntax.Node) error {
	return h.record(node, "-")
}

func TestWalkStopsOnHandlerError(t *testing.T) {
	t.Parallel()

	file, err := syntax.Parse([]byte("interface A { int x; }"))
	testutil.AssertNoError(t, err)

	h := &recordingHandler{failAt: 3}
	testutil.AssertError(t, file.Walk(h))
	testutil.ExpectSliceEq(t, []string{"interface+", "type_name+", "type_name-"}, h.events)
}

func TestNodeText(t *testing.T) {
	t.Parallel()

	src := "namespace a {\n  interface B : c.D { x.Y[] zs = 7; }\n}"
	file, err := syntax.Parse([]byte(src))
	testutil.AssertNoError(t, err)

	var texts []string
	for event := range file.Events() {
		if !event.Begin {
			continue
		}
		node := event.Node
		span := node.Span()
		testutil.ExpectEq(t, src[span.Start():span.End()], node.Text())
		switch node.Kind() {
		case syntax.N_INTERFACE_BASE, syntax.N_TYPE_REF, syntax.N_FIELD_TYPE, syntax.N_FIELD_IS_REPEATED:
			texts = append(texts, node.Text())
		}
	}
	testutil.ExpectSliceEq(t, []string{": c.D", "c.D", "x.Y", "[]"}, texts)
}

func TestIncludePathText(t *testing.T) {
	t.Parallel()

	src := `include "sub/dir.iface";`
	file, err := syntax.Parse([]byte(src))
	testutil.AssertNoError(t, err)

	for node := range file.ChildNodes() {
		testutil.ExpectEq(t, syntax.N_INCLUDE, node.Kind())
		testutil.ExpectEq(t, src, node.Text())
		for child := range node.ChildNodes() {
			testutil.ExpectEq(t, syntax.N_INCLUDE_FILEPATH, child.Kind())
			testutil.ExpectEq(t, "sub/dir.iface", child.Text())
			testutil.ExpectEq(t, syntax.NewSpan(9, 13), child.Span())
		}
	}
}

func TestFieldId(t *testing.T) {
	t.Parallel()

	file, err := syntax.Parse([]byte("interface A { int x = 4294967295; }"))
	testutil.AssertNoError(t, err)

	found := false
	for event := range file.Events() {
		if event.Begin && event.Node.Kind() == syntax.N_FIELD_ID {
			id, ok := syntax.FieldId(event.Node)
			testutil.ExpectTrue(t, ok)
			testutil.ExpectEq(t, uint32(4294967295), id)
			found = true
		}
	}
	testutil.ExpectTrue(t, found)

	_, err = syntax.Parse([]byte("interface A { int x = 4294967296; }"))
	parseErr := testutil.AssertErrorAs[*syntax.Error](t, err)
	testutil.ExpectEq(t, uint32(2022), parseErr.Code())
}

func TestDottedNamesAreContiguous(t *testing.T) {
	t.Parallel()

	for _, src := range []string{
		"using a .b;",
		"using a. b;",
		"interface A { a . B x; }",
		"interface A { int[ ] x; }",
	} {
		t.Run(src, func(t *testing.T) {
			_, err := syntax.Parse([]byte(src))
			testutil.AssertError(t, err)
		})
	}
}

func TestLineCol(t *testing.T) {
	t.Parallel()

	src := []byte("ab\ncd\néf")
	tests := []struct {
		offset    uint32
		line, col int
	}{
		{0, 1, 1},
		{2, 1, 3},
		{3, 2, 1},
		{4, 2, 2},
		{6, 3, 1},
		{8, 3, 2},
		{100, 3, 3},
	}
	for _, test := range tests {
		line, col := syntax.LineCol(src, test.offset)
		testutil.ExpectEq(t, test.line, line)
		testutil.ExpectEq(t, test.col, col)
	}
}

func TestNodeKindStrings(t *testing.T) {
	t.Parallel()

	testutil.ExpectEq(t, "interface_base", syntax.N_INTERFACE_BASE.String())
	testutil.ExpectEq(t, "attr_value_float", syntax.N_ATTR_VALUE_FLOAT.String())
	testutil.ExpectEq(t, "NodeKind(200)", syntax.NodeKind(200).String())
	testutil.ExpectTrue(t, syntax.N_ATTR_VALUE_INT.IsAttrValue())
	testutil.ExpectFalse(t, syntax.N_ATTR_PATH.IsAttrValue())
}
