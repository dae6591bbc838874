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

import (
	"errors"
	"fmt"
	"strings"

	"github.com/MaDcz/interfaces/syntax"
)

type ErrorKind uint8

const (
	Syntax ErrorKind = iota + 1
	MissingName
	MissingType
	UnresolvedType
	Redefinition
	UnsupportedChild
	MalformedAttribute
	CyclicInclude
	IncludeNotFound
	InvalidTreatment
	Io
)

func (k ErrorKind) String() string {
	switch k {
	case Syntax:
		return "Syntax"
	case MissingName:
		return "MissingName"
	case MissingType:
		return "MissingType"
	case UnresolvedType:
		return "UnresolvedType"
	case Redefinition:
		return "Redefinition"
	case UnsupportedChild:
		return "UnsupportedChild"
	case MalformedAttribute:
		return "MalformedAttribute"
	case CyclicInclude:
		return "CyclicInclude"
	case IncludeNotFound:
		return "IncludeNotFound"
	case InvalidTreatment:
		return "InvalidTreatment"
	case Io:
		return "Io"
	default:
		return fmt.Sprintf("ErrorKind(%d)", uint8(k))
	}
}

// Error is returned for any source that parses but cannot be compiled,
// and wraps syntax errors with the path of the file they occurred in.
type Error struct {
	kind    ErrorKind
	code    uint32
	message string
	span    syntax.Span
	file    string
	chain   []string
	cause   error
}

var _ error = (*Error)(nil)

func (err *Error) Error() string {
	return fmt.Sprintf("E%d: %s", err.code, err.message)
}

func (err *Error) Kind() ErrorKind {
	return err.kind
}

func (err *Error) Code() uint32 {
	return err.code
}

func (err *Error) Message() string {
	return err.message
}

func (err *Error) Span() syntax.Span {
	return err.span
}

// File is the path of the source file the error was detected in. It is
// empty for errors not tied to a file.
func (err *Error) File() string {
	return err.file
}

// IncludeChain is the sequence of files that formed an include cycle.
func (err *Error) IncludeChain() []string {
	return err.chain
}

func (err *Error) Unwrap() error {
	return err.cause
}

// inFile attaches a file path to err if it does not already have one.
var errNoSources = errors.New("compiler: no source files")

func inFile(err error, file string) error {
	var compileErr *Error
	if errors.As(err, &compileErr) && compileErr.file == "" {
		compileErr.file = file
	}
	return err
}

func errSyntax(file string, err error) error {
	var syntaxErr *syntax.Error
	if !errors.As(err, &syntaxErr) {
		return errIo(file, err)
	}
	return &Error{
		kind:    Syntax,
		code:    syntaxErr.Code(),
		message: syntaxErr.Message(),
		span:    syntaxErr.Span(),
		file:    file,
		cause:   err,
	}
}

func errMissingName(construct string, span syntax.Span) error {
	return &Error{
		kind:    MissingName,
		code:    3000,
		message: fmt.Sprintf("%s declared without a name", construct),
		span:    span,
	}
}

func errMissingType(fieldName string, span syntax.Span) error {
	message := "Field declared without a type"
	if fieldName != "" {
		message = fmt.Sprintf("Field '%s' declared without a type", fieldName)
	}
	return &Error{
		kind:    MissingType,
		code:    3001,
		message: message,
		span:    span,
	}
}

func errUnresolvedType(name string, namespaces []string, span syntax.Span) error {
	scope := "the root namespace"
	if len(namespaces) > 0 {
		scope = fmt.Sprintf("namespace %q", strings.Join(namespaces, "."))
	}
	return &Error{
		kind:    UnresolvedType,
		code:    3002,
		message: fmt.Sprintf("Unresolved type '%s' in %s", name, scope),
		span:    span,
	}
}

func errRedefinition(name string, span syntax.Span) error {
	return &Error{
		kind:    Redefinition,
		code:    3003,
		message: fmt.Sprintf("Type '%s' redefinition", name),
		span:    span,
	}
}

func errRedefinitionBuiltin(name string, span syntax.Span) error {
	return &Error{
		kind:    Redefinition,
		code:    3003,
		message: fmt.Sprintf("Type '%s' redefines a built-in type", name),
		span:    span,
	}
}

func errUnsupportedChild(parent, child Builder) error {
	return &Error{
		kind: UnsupportedChild,
		code: 3004,
		message: fmt.Sprintf(
			"Unsupported child builder %s for %s",
			builderName(child), builderName(parent),
		),
	}
}

func errMalformedAttribute(path, reason string, span syntax.Span) error {
	message := fmt.Sprintf("Malformed attribute: %s", reason)
	if path != "" {
		message = fmt.Sprintf("Malformed attribute '@%s': %s", path, reason)
	}
	return &Error{
		kind:    MalformedAttribute,
		code:    3005,
		message: message,
		span:    span,
	}
}

func errCyclicInclude(chain []string, span syntax.Span) error {
	return &Error{
		kind: CyclicInclude,
		code: 3006,
		message: fmt.Sprintf(
			"Include cycle detected: %s",
			strings.Join(chain, " -> "),
		),
		span:  span,
		chain: chain,
	}
}

func errIncludeNotFound(path string, searchDirs []string, span syntax.Span) error {
	return &Error{
		kind: IncludeNotFound,
		code: 3007,
		message: fmt.Sprintf(
			"Included file %q not found in search paths [%s]",
			path, strings.Join(searchDirs, ", "),
		),
		span: span,
	}
}

func errInvalidTreatment(typeName string, treatment any) error {
	return &Error{
		kind: InvalidTreatment,
		code: 3008,
		message: fmt.Sprintf(
			"Invalid treatment %#v for type '%s'",
			treatment, typeName,
		),
	}
}

func errIo(path string, err error) error {
	return &Error{
		kind:    Io,
		code:    3009,
		message: fmt.Sprintf("Failed to read %q: %v", path, err),
		file:    path,
		cause:   err,
	}
}
