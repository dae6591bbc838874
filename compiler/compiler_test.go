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

package compiler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/MaDcz/interfaces/compiler"
	"github.com/MaDcz/interfaces/encoding/irtext"
	"github.com/MaDcz/interfaces/internal/testutil"
	"github.com/MaDcz/interfaces/ir"
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

func compileCase(testName string, opts ...compiler.CompileOption) (*compiler.CompileResult, error) {
	dir := path.Join("compile", testName)
	opts = append([]compiler.CompileOption{
		compiler.WithFS(testdata),
		compiler.WithIncludePaths([]string{dir}),
	}, opts...)
	return compiler.CompileFile(path.Join(dir, testName+".iface"), opts...)
}

func specTest(t *testing.T, testName string) {
	t.Parallel()

	expectOK := fmt.Sprintf("compile/%s/expect_ok.txt", testName)
	expectErr := fmt.Sprintf("compile/%s/expect_err.json", testName)

	if _, err := fs.Stat(testdata, expectErr); err == nil {
		testExpectErr(t, testName, expectErr)
	} else {
		testExpectOK(t, testName, expectOK)
	}
}

func testExpectOK(t *testing.T, testName string, expectPath string) {
	expectText, err := fs.ReadFile(testdata, expectPath)
	testutil.AssertNoError(t, err)

	result, err := compileCase(testName)
	testutil.AssertNoError(t, err)

	testutil.ExpectNoDiff(t, string(expectText), irtext.Encode(result.Package))
}

func testExpectErr(t *testing.T, testName string, expectPath string) {
	expectJSON, err := fs.ReadFile(testdata, expectPath)
	testutil.AssertNoError(t, err)

	test := make(map[string]interface{})
	decoder := json.NewDecoder(bytes.NewReader(expectJSON))
	decoder.UseNumber()
	testutil.AssertNoError(t, decoder.Decode(&test))

	result, err := compileCase(testName)
	testutil.AssertError(t, err)
	testutil.ExpectTrue(t, result == nil)

	compileErr := testutil.AssertErrorAs[*compiler.Error](t, err)
	testutil.ExpectEq(t, test["kind"].(string), compileErr.Kind().String())
	code, err := test["code"].(json.Number).Int64()
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, uint32(code), compileErr.Code())
	if pattern, ok := test["message_pattern"].(string); ok {
		testutil.ExpectMatch(t, pattern, compileErr.Message())
	}
	if file, ok := test["file"].(string); ok {
		testutil.ExpectEq(t, path.Join("compile", testName, file), compileErr.File())
	}
	if rawSpan, ok := test["error_span"]; ok {
		testutil.ExpectEq(t, testutil.SpanOrDie(t, rawSpan), compileErr.Span())
	}
}

func TestCompile(t *testing.T) {
	t.Parallel()

	testDirs, err := fs.ReadDir(testdata, "compile")
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

func TestCompileResultFiles(t *testing.T) {
	t.Parallel()

	result, err := compileCase("include_transitive")
	testutil.AssertNoError(t, err)
	testutil.ExpectSliceEq(t, []string{
		"compile/include_transitive/include_transitive.iface",
		"compile/include_transitive/b.iface",
		"compile/include_transitive/c.iface",
	}, result.Files)

	info, ok := result.Registry.Lookup("lib.Base")
	testutil.AssertTrue(t, ok)
	testutil.ExpectEq(t, "compile/include_transitive/c.iface", info.Definition.File)
}

func TestCyclicIncludeChain(t *testing.T) {
	t.Parallel()

	_, err := compileCase("cyclic_include")
	compileErr := testutil.AssertErrorAs[*compiler.Error](t, err)
	testutil.ExpectSliceEq(t, []string{
		"compile/cyclic_include/cyclic_include.iface",
		"compile/cyclic_include/b.iface",
		"compile/cyclic_include/cyclic_include.iface",
	}, compileErr.IncludeChain())
}

func TestCompileStdin(t *testing.T) {
	t.Parallel()

	result, err := compiler.Compile([]byte("interface A { string s; }"))
	testutil.AssertNoError(t, err)
	testutil.ExpectSliceEq(t, []string{"<stdin>"}, result.Files)

	_, err = compiler.Compile([]byte("interface A { Nope n; }"))
	compileErr := testutil.AssertErrorAs[*compiler.Error](t, err)
	testutil.ExpectEq(t, compiler.UnresolvedType, compileErr.Kind())
	testutil.ExpectEq(t, "<stdin>", compileErr.File())
	testutil.ExpectEq(t, "E3002: Unresolved type 'Nope' in the root namespace", err.Error())
}

func TestCompileSyntaxError(t *testing.T) {
	t.Parallel()

	_, err := compiler.Compile([]byte("interface A {"), compiler.WithSourcePath("-"))
	compileErr := testutil.AssertErrorAs[*compiler.Error](t, err)
	testutil.ExpectEq(t, compiler.Syntax, compileErr.Kind())
	testutil.ExpectEq(t, "<stdin>", compileErr.File())

	syntaxErr := testutil.AssertErrorAs[*syntax.Error](t, err)
	testutil.ExpectEq(t, compileErr.Code(), syntaxErr.Code())
}

func TestCompileFileMissing(t *testing.T) {
	t.Parallel()

	_, err := compiler.CompileFile("compile/no_such_case.iface", compiler.WithFS(testdata))
	compileErr := testutil.AssertErrorAs[*compiler.Error](t, err)
	testutil.ExpectEq(t, compiler.Io, compileErr.Kind())
	testutil.ExpectTrue(t, errors.Is(err, fs.ErrNotExist))
}

func TestWithRegistry(t *testing.T) {
	t.Parallel()

	reg := compiler.NewRegistry()
	testutil.AssertNoError(t, reg.Declare("ext.Clock", &compiler.Record{}))

	result, err := compiler.Compile(
		[]byte("namespace ext { interface Alarm { Clock clock; } }"),
		compiler.WithRegistry(reg),
	)
	testutil.AssertNoError(t, err)
	testutil.ExpectTrue(t, result.Registry == reg)

	var names []string
	for name, iface := range result.Package.Interfaces() {
		names = append(names, name)
		testutil.ExpectEq(t, "ext.Clock", iface.Fields[0].FullTypeName())
	}
	testutil.ExpectSliceEq(t, []string{"ext.Alarm"}, names)
}

func TestIndex(t *testing.T) {
	t.Parallel()

	src := `
@treatment("value_type") using geo.Point;
namespace geo {
	interface Point { double x; double y; }
	interface Shape {}
}
`
	reg, err := compiler.Index([]byte(src))
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, len(compiler.BuiltinTypes())+2, reg.Len())

	point, ok := reg.Lookup("geo.Point")
	testutil.AssertTrue(t, ok)
	testutil.ExpectTrue(t, point.Declared())
	testutil.ExpectTrue(t, point.Defined())
	treatment, err := point.ResolvedTreatment()
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, compiler.ValueType, treatment)

	shape, ok := reg.Lookup("geo.Shape")
	testutil.AssertTrue(t, ok)
	testutil.ExpectFalse(t, shape.Declared())
	testutil.ExpectTrue(t, shape.Defined())
	treatment, err = shape.ResolvedTreatment()
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, compiler.TreatmentUnknown, treatment)
}

func TestIndexDoesNotBuild(t *testing.T) {
	t.Parallel()

	_, err := compiler.Index([]byte("interface A { Missing m; }"))
	testutil.ExpectNoError(t, err)
}

func TestIncludeFromOS(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteFile(t, filepath.Join(dir, "lib.iface"), "namespace lib { interface Base {} }\n")
	testutil.WriteFile(t, filepath.Join(dir, "root.iface"), "include \"lib.iface\";\ninterface Leaf : lib.Base {}\n")

	result, err := compiler.CompileFile(
		filepath.Join(dir, "root.iface"),
		compiler.WithIncludePaths([]string{dir}),
	)
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, 2, len(result.Files))

	for _, iface := range result.Package.Interfaces() {
		testutil.ExpectEq(t, "lib.Base", iface.Base)
	}
}

type recordingHandler struct {
	messages []string
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordingHandler) Handle(_ context.Context, record slog.Record) error {
	h.messages = append(h.messages, record.Message)
	return nil
}

func (h *recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordingHandler) WithGroup(string) slog.Handler      { return h }

func TestWithLogger(t *testing.T) {
	t.Parallel()

	h := &recordingHandler{}
	dir := "compile/include_transitive"
	_, err := compiler.CompileFiles(
		[]string{dir + "/include_transitive.iface", dir + "/b.iface"},
		compiler.WithFS(testdata),
		compiler.WithIncludePaths([]string{dir}),
		compiler.WithLogger(slog.New(h)),
	)
	testutil.AssertNoError(t, err)

	for _, message := range []string{
		"indexing file",
		"indexed file",
		"skipping indexed file",
		"defined type",
		"employing override",
		"releasing override",
		"pushing builder",
		"popping builder",
	} {
		testutil.ExpectSliceContains(t, h.messages, message)
	}
}

func TestCompileFiles(t *testing.T) {
	t.Parallel()

	dir := "compile/include_transitive"
	opts := []compiler.CompileOption{
		compiler.WithFS(testdata),
		compiler.WithIncludePaths([]string{dir}),
	}
	result, err := compiler.CompileFiles([]string{
		dir + "/include_transitive.iface",
		dir + "/b.iface",
		dir + "/include_transitive.iface",
	}, opts...)
	testutil.AssertNoError(t, err)

	// b.iface was indexed through the first root, and becomes a root of
	// its own only for the build pass.
	testutil.ExpectSliceEq(t, []string{
		dir + "/include_transitive.iface",
		dir + "/b.iface",
		dir + "/c.iface",
	}, result.Files)
	var names []string
	for _, child := range result.Package.Children {
		names = append(names, child.(*ir.Interface).Name)
	}
	testutil.ExpectSliceEq(t, []string{"Leaf", "Mid"}, names)
}

func TestCompileSourcesShareRegistry(t *testing.T) {
	t.Parallel()

	result, err := compiler.CompileSources([]compiler.Source{
		{Path: "a.iface", Src: []byte("namespace a { interface A { b.B peer; } }")},
		{Path: "b.iface", Src: []byte("namespace b { interface B : a.A {} }")},
	}, compiler.WithFS(fstest.MapFS{}))
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, 2, len(result.Package.Children))
	_, ok := result.Package.Using["b.B"]
	testutil.ExpectTrue(t, ok)

	_, err = compiler.CompileSources([]compiler.Source{
		{Path: "a.iface", Src: []byte("interface Dup {}")},
		{Path: "b.iface", Src: []byte("interface Dup {}")},
	}, compiler.WithFS(fstest.MapFS{}))
	compileErr := testutil.AssertErrorAs[*compiler.Error](t, err)
	testutil.ExpectEq(t, compiler.Redefinition, compileErr.Kind())
	testutil.ExpectEq(t, "b.iface", compileErr.File())

	_, err = compiler.CompileSources(nil)
	testutil.AssertError(t, err)
}

func TestRegistryResolve(t *testing.T) {
	t.Parallel()

	reg := compiler.NewRegistry()
	for _, name := range []string{"T", "a.T", "a.b.T", "a.U"} {
		testutil.AssertNoError(t, reg.Declare(name, &compiler.Record{}))
	}

	tests := []struct {
		relative   string
		namespaces []string
		want       string
		ok         bool
	}{
		{"T", []string{"a", "b"}, "a.b.T", true},
		{"T", []string{"a", "c"}, "a.T", true},
		{"T", []string{"x"}, "T", true},
		{"T", nil, "T", true},
		{"U", []string{"a", "b"}, "a.U", true},
		{"U", nil, "", false},
		{"b.T", []string{"a"}, "a.b.T", true},
		{"int", []string{"a", "b"}, "int", true},
		{"a.b", nil, "", false},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%s in %v", test.relative, test.namespaces), func(t *testing.T) {
			got, ok := reg.Resolve(test.relative, test.namespaces)
			testutil.ExpectEq(t, test.ok, ok)
			testutil.ExpectEq(t, test.want, got)
		})
	}
}

func TestRegistryMerge(t *testing.T) {
	t.Parallel()

	reg := compiler.NewRegistry()
	testutil.AssertNoError(t, reg.Define("X", &compiler.Record{File: "x.iface"}))
	testutil.AssertNoError(t, reg.Declare("X", &compiler.Record{File: "y.iface"}))

	err := reg.Define("X", &compiler.Record{File: "z.iface", Span: syntax.NewSpan(3, 1)})
	compileErr := testutil.AssertErrorAs[*compiler.Error](t, err)
	testutil.ExpectEq(t, compiler.Redefinition, compileErr.Kind())
	testutil.ExpectEq(t, "z.iface", compileErr.File())
	testutil.ExpectEq(t, syntax.NewSpan(3, 1), compileErr.Span())

	err = reg.Declare("bytes", &compiler.Record{})
	compileErr = testutil.AssertErrorAs[*compiler.Error](t, err)
	testutil.ExpectEq(t, compiler.Redefinition, compileErr.Kind())

	info, _ := reg.Lookup("X")
	testutil.ExpectEq(t, "x.iface", info.Definition.File)
	testutil.ExpectEq(t, "y.iface", info.Declaration.File)
}

func TestRegistryUsing(t *testing.T) {
	t.Parallel()

	reg := compiler.NewRegistry()
	testutil.AssertNoError(t, reg.Declare("Ref", &compiler.Record{
		Attributes: ir.Attributes{"treatment": ir.TreatmentReference},
	}))
	testutil.AssertNoError(t, reg.Define("Plain", &compiler.Record{}))

	using, err := reg.Using()
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, reg.Len(), len(using))
	testutil.ExpectEq(t, ir.TreatmentReference, using["Ref"].Treatment)
	testutil.ExpectEq(t, "", using["Plain"].Treatment)
	testutil.ExpectEq(t, ir.TreatmentValue, using["uint32"].Treatment)
	testutil.ExpectEq(t, ir.TreatmentReference, using["string"].Treatment)

	testutil.AssertNoError(t, reg.Define("Odd", &compiler.Record{
		File:       "odd.iface",
		Attributes: ir.Attributes{"treatment": true},
	}))
	_, err = reg.Using()
	compileErr := testutil.AssertErrorAs[*compiler.Error](t, err)
	testutil.ExpectEq(t, compiler.InvalidTreatment, compileErr.Kind())
	testutil.ExpectEq(t, "odd.iface", compileErr.File())
}

func TestBuiltinTypes(t *testing.T) {
	t.Parallel()

	testutil.ExpectSliceEq(t, []string{
		"int", "int32", "uint", "uint32", "float", "double", "bool", "string", "bytes",
	}, compiler.BuiltinTypes())

	reg := compiler.NewRegistry()
	for _, name := range compiler.BuiltinTypes() {
		info, ok := reg.Lookup(name)
		testutil.AssertTrue(t, ok)
		testutil.ExpectTrue(t, info.Builtin)
	}
}

func TestErrorKindStrings(t *testing.T) {
	t.Parallel()

	testutil.ExpectEq(t, "MalformedAttribute", compiler.MalformedAttribute.String())
	testutil.ExpectEq(t, "Io", compiler.Io.String())
	testutil.ExpectEq(t, "ErrorKind(99)", compiler.ErrorKind(99).String())
}
