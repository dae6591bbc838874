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
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/MaDcz/interfaces/compiler"
	"github.com/MaDcz/interfaces/internal/testutil"
	"github.com/MaDcz/interfaces/ir"
	"github.com/MaDcz/interfaces/syntax"
)

func expectKind(t *testing.T, kind compiler.ErrorKind, err error) *compiler.Error {
	t.Helper()
	compileErr := testutil.AssertErrorAs[*compiler.Error](t, err)
	testutil.ExpectEq(t, kind, compileErr.Kind())
	return compileErr
}

func TestBuilderTree(t *testing.T) {
	t.Parallel()

	reg := compiler.NewRegistry()
	testutil.AssertNoError(t, reg.Define("a.b.Thing", &compiler.Record{}))

	file := compiler.NewFileBuilder()
	nsA := compiler.NewNamespaceBuilder()
	nsA.SetName("a")
	nsB := compiler.NewNamespaceBuilder()
	nsB.SetName(" b ")
	iface := compiler.NewInterfaceBuilder()
	iface.SetName("Thing")
	field := compiler.NewFieldBuilder()
	field.SetType("Thing")
	field.SetName("next")
	field.SetRef(true)

	testutil.AssertNoError(t, iface.Add(field))
	testutil.AssertNoError(t, nsB.Add(iface))
	testutil.AssertNoError(t, nsA.Add(nsB))
	testutil.AssertNoError(t, file.Add(nsA))

	testutil.ExpectSliceEq(t, []string{"a", "b"}, compiler.EnclosingNamespaces(field))
	testutil.ExpectSliceEq(t, []string{"a", "b"}, compiler.EnclosingNamespaces(iface))
	testutil.ExpectEq(t, 0, len(compiler.EnclosingNamespaces(nsA)))
	testutil.ExpectEq(t, "b", nsB.Name())

	pkg, err := file.Build(reg)
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, reg.Len(), len(pkg.Using))

	for name, built := range pkg.Interfaces() {
		testutil.ExpectEq(t, "a.b.Thing", name)
		testutil.ExpectSliceEq(t, []string{"Thing"}, built.Fields[0].Type)
		testutil.ExpectSliceEq(t, []string{"a", "b", "Thing"}, built.Fields[0].FullType)
		testutil.ExpectTrue(t, built.Fields[0].Ref)
		testutil.ExpectTrue(t, built.Attributes == nil)
	}
}

func TestBuilderMissingName(t *testing.T) {
	t.Parallel()

	reg := compiler.NewRegistry()

	_, err := compiler.NewNamespaceBuilder().Build(reg)
	testutil.ExpectMatch(t, "^Namespace declared without a name$", expectKind(t, compiler.MissingName, err).Message())

	_, err = compiler.NewInterfaceBuilder().Build(reg)
	testutil.ExpectMatch(t, "^Interface declared without a name$", expectKind(t, compiler.MissingName, err).Message())

	field := compiler.NewFieldBuilder()
	field.SetType("int")
	_, err = field.Build(reg)
	testutil.ExpectMatch(t, "^Field declared without a name$", expectKind(t, compiler.MissingName, err).Message())
}

func TestBuilderMissingType(t *testing.T) {
	t.Parallel()

	field := compiler.NewFieldBuilder()
	field.SetName("x")
	_, err := field.Build(compiler.NewRegistry())
	testutil.ExpectMatch(t, "^Field 'x' declared without a type$", expectKind(t, compiler.MissingType, err).Message())

	_, err = compiler.NewFieldBuilder().Build(compiler.NewRegistry())
	expectKind(t, compiler.MissingType, err)
}

func TestBuilderUnsupportedChild(t *testing.T) {
	t.Parallel()

	iface := compiler.NewInterfaceBuilder()
	iface.SetName("I")
	ns := compiler.NewNamespaceBuilder()
	ns.SetName("n")
	field := compiler.NewFieldBuilder()
	field.SetName("f")

	tests := []struct {
		parent  compiler.Builder
		child   compiler.Builder
		message string
	}{
		{compiler.NewFileBuilder(), field, "^Unsupported child builder field 'f' for file$"},
		{ns, field, "^Unsupported child builder field 'f' for namespace 'n'$"},
		{iface, ns, "^Unsupported child builder namespace 'n' for interface 'I'$"},
		{field, iface, "^Unsupported child builder interface 'I' for field 'f'$"},
		{compiler.NewAttributeBuilder(), field, "for attribute"},
		{compiler.NewUsingBuilder(), field, "for using"},
		{ns, compiler.NewUsingBuilder(), "^Unsupported child builder using"},
	}
	for _, test := range tests {
		err := test.parent.Add(test.child)
		testutil.ExpectMatch(t, test.message, expectKind(t, compiler.UnsupportedChild, err).Message())
	}
	testutil.ExpectTrue(t, field.Parent() == nil)
}

func TestBuilderUnresolvedBase(t *testing.T) {
	t.Parallel()

	ns := compiler.NewNamespaceBuilder()
	ns.SetName("n")
	iface := compiler.NewInterfaceBuilder()
	iface.SetName("I")
	iface.SetBase("Missing")
	testutil.AssertNoError(t, ns.Add(iface))

	_, err := ns.Build(compiler.NewRegistry())
	compileErr := expectKind(t, compiler.UnresolvedType, err)
	testutil.ExpectEq(t, `Unresolved type 'Missing' in namespace "n"`, compileErr.Message())
}

func newAttr(t *testing.T, path string, kind syntax.NodeKind, text string) *compiler.AttributeBuilder {
	t.Helper()
	attr := compiler.NewAttributeBuilder()
	attr.SetPath(path)
	testutil.AssertNoError(t, attr.SetValue(kind, text))
	return attr
}

func TestAttributeValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind syntax.NodeKind
		text string
		want any
	}{
		{syntax.N_ATTR_VALUE_STRING, `"hello"`, "hello"},
		{syntax.N_ATTR_VALUE_STRING, `""`, ""},
		{syntax.N_ATTR_VALUE_STRING, `"a\b"`, `a\b`},
		{syntax.N_ATTR_VALUE_BOOL, "true", true},
		{syntax.N_ATTR_VALUE_BOOL, "False", false},
		{syntax.N_ATTR_VALUE_BOOL, "TRUE", true},
		{syntax.N_ATTR_VALUE_INT, "42", int64(42)},
		{syntax.N_ATTR_VALUE_INT, "007", int64(7)},
		{syntax.N_ATTR_VALUE_FLOAT, "3.5", 3.5},
	}
	for _, test := range tests {
		attr := newAttr(t, "x", test.kind, test.text)
		testutil.ExpectEq(t, test.want, attr.Value())
	}

	testutil.ExpectEq(t, any(true), compiler.NewAttributeBuilder().Value())
}

func TestAttributeValueErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind syntax.NodeKind
		text string
	}{
		{syntax.N_ATTR_VALUE_INT, "99999999999999999999"},
		{syntax.N_ATTR_VALUE_BOOL, "yes"},
		{syntax.N_ATTR_VALUE_STRING, "bare"},
		{syntax.N_ATTR_PATH, "x"},
	}
	for _, test := range tests {
		attr := compiler.NewAttributeBuilder()
		attr.SetPath("x")
		expectKind(t, compiler.MalformedAttribute, attr.SetValue(test.kind, test.text))
	}
}

func TestAttributeApply(t *testing.T) {
	t.Parallel()

	target := compiler.NewInterfaceBuilder()
	for _, attr := range []*compiler.AttributeBuilder{
		newAttr(t, "doc", syntax.N_ATTR_VALUE_STRING, `"flat"`),
		newAttr(t, "doc.summary", syntax.N_ATTR_VALUE_STRING, `"first"`),
		newAttr(t, "doc.owner", syntax.N_ATTR_VALUE_STRING, `"team"`),
		newAttr(t, "doc.summary", syntax.N_ATTR_VALUE_STRING, `"second"`),
		newAttr(t, "a.b.c", syntax.N_ATTR_VALUE_INT, "1"),
		newAttr(t, "limit", syntax.N_ATTR_VALUE_INT, "1"),
		newAttr(t, "limit", syntax.N_ATTR_VALUE_INT, "2"),
	} {
		testutil.AssertNoError(t, attr.Apply(target))
	}
	flag := compiler.NewAttributeBuilder()
	flag.SetPath("flag")
	testutil.AssertNoError(t, flag.Apply(target))

	attrs := target.Attributes()
	testutil.ExpectSliceEq(t, []string{"a", "doc", "flag", "limit"}, attrs.Keys())
	testutil.ExpectMapEq(t, ir.Attributes{"summary": "second"}, attrs["doc"].(ir.Attributes))
	testutil.ExpectEq(t, any(int64(2)), attrs["limit"])

	value, ok := attrs.Lookup("a.b.c")
	testutil.AssertTrue(t, ok)
	testutil.ExpectEq(t, any(int64(1)), value)
	value, ok = attrs.Lookup("flag")
	testutil.AssertTrue(t, ok)
	testutil.ExpectEq(t, any(true), value)
	_, ok = attrs.Lookup("doc.summary.deeper")
	testutil.ExpectFalse(t, ok)
}

func TestAttributeSharedPrefixReplaces(t *testing.T) {
	t.Parallel()

	result, err := compiler.Compile([]byte(`@doc.summary("hello") @doc.owner("team") interface A {}`))
	testutil.AssertNoError(t, err)
	iface := result.Package.Children[0].(*ir.Interface)
	testutil.ExpectSliceEq(t, []string{"doc"}, iface.Attributes.Keys())
	testutil.ExpectMapEq(t, ir.Attributes{"owner": "team"}, iface.Attributes["doc"].(ir.Attributes))
}

func TestAttributeMalformedPath(t *testing.T) {
	t.Parallel()

	for _, path := range []string{"", "a..b", ".a", "a."} {
		attr := compiler.NewAttributeBuilder()
		attr.SetPath(path)
		expectKind(t, compiler.MalformedAttribute, attr.Apply(compiler.NewFileBuilder()))
	}
}

func TestLoaderResolve(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"first/shared.iface":  {Data: []byte("")},
		"second/shared.iface": {Data: []byte("")},
		"second/only.iface":   {Data: []byte("")},
		"second/dir.iface":    {Mode: 0o755 | fs.ModeDir},
	}
	loader := compiler.NewLoader([]string{"first", "second"}, fsys)

	got, err := loader.Resolve("shared.iface", syntax.Span{})
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, "first/shared.iface", got)

	got, err = loader.Resolve("./only.iface", syntax.Span{})
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, "second/only.iface", got)

	_, err = loader.Resolve("dir.iface", syntax.NewSpan(9, 9))
	compileErr := expectKind(t, compiler.IncludeNotFound, err)
	testutil.ExpectEq(t, syntax.NewSpan(9, 9), compileErr.Span())
	testutil.ExpectContains(t, "[first, second]", compileErr.Message())
}

func TestLoaderEnterLeave(t *testing.T) {
	t.Parallel()

	loader := compiler.NewLoader(nil, fstest.MapFS{})

	enter, err := loader.Enter("a", syntax.Span{})
	testutil.AssertNoError(t, err)
	testutil.ExpectTrue(t, enter)
	enter, err = loader.Enter("b", syntax.Span{})
	testutil.AssertNoError(t, err)
	testutil.ExpectTrue(t, enter)

	_, err = loader.Enter("a", syntax.Span{})
	compileErr := expectKind(t, compiler.CyclicInclude, err)
	testutil.ExpectSliceEq(t, []string{"a", "b", "a"}, compileErr.IncludeChain())
	testutil.ExpectEq(t, "Include cycle detected: a -> b -> a", compileErr.Message())

	loader.Leave("b")
	enter, err = loader.Enter("b", syntax.Span{})
	testutil.AssertNoError(t, err)
	testutil.ExpectFalse(t, enter)

	loader.Leave("a")
	testutil.ExpectSliceEq(t, []string{"a", "b"}, loader.Files())
}

func TestLoaderLeaveMismatchPanics(t *testing.T) {
	t.Parallel()

	loader := compiler.NewLoader(nil, fstest.MapFS{})
	_, err := loader.Enter("a", syntax.Span{})
	testutil.AssertNoError(t, err)

	defer func() {
		testutil.ExpectTrue(t, recover() != nil)
	}()
	loader.Leave("b")
}
