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
	"iter"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/MaDcz/interfaces/ir"
	"github.com/MaDcz/interfaces/syntax"
)

type Treatment uint8

const (
	TreatmentUnknown Treatment = iota
	ValueType
	ReferenceType
)

func (t Treatment) String() string {
	switch t {
	case ValueType:
		return ir.TreatmentValue
	case ReferenceType:
		return ir.TreatmentReference
	default:
		return ""
	}
}

func parseTreatment(value any) (Treatment, bool) {
	s, ok := value.(string)
	if !ok {
		return TreatmentUnknown, false
	}
	switch s {
	case ir.TreatmentValue:
		return ValueType, true
	case ir.TreatmentReference:
		return ReferenceType, true
	}
	return TreatmentUnknown, false
}

// Record is the part of the source that declared or defined a type.
type Record struct {
	File       string
	Span       syntax.Span
	Attributes ir.Attributes
}

type TypeInfo struct {
	Name    string
	Builtin bool
	// Set for built-ins; user types take their treatment from the
	// `treatment` attribute of their records.
	Treatment   Treatment
	Declaration *Record
	Definition  *Record
}

func (info *TypeInfo) Declared() bool {
	return info.Declaration != nil
}

func (info *TypeInfo) Defined() bool {
	return info.Definition != nil
}

// ResolvedTreatment picks the intrinsic treatment first, then the
// declaration's attribute, then the definition's.
func (info *TypeInfo) ResolvedTreatment() (Treatment, error) {
	if info.Treatment != TreatmentUnknown {
		return info.Treatment, nil
	}
	for _, record := range []*Record{info.Declaration, info.Definition} {
		if record == nil {
			continue
		}
		value, ok := record.Attributes["treatment"]
		if !ok || value == "" {
			continue
		}
		treatment, ok := parseTreatment(value)
		if !ok {
			return TreatmentUnknown, inFile(errInvalidTreatment(info.Name, value), record.File)
		}
		return treatment, nil
	}
	return TreatmentUnknown, nil
}

// Registry maps fully-qualified type names to their metadata. A Registry
// is scoped to one compilation and is written only while indexing.
type Registry struct {
	types  map[string]*TypeInfo
	logger *slog.Logger
}

// NewRegistry returns a registry pre-seeded with the built-in types.
func NewRegistry() *Registry {
	r := &Registry{
		types:  make(map[string]*TypeInfo),
		logger: discardLogger,
	}
	for _, builtin := range builtinTypes {
		r.types[builtin.name] = &TypeInfo{
			Name:      builtin.name,
			Builtin:   true,
			Treatment: builtin.treatment,
		}
	}
	return r
}

func (r *Registry) Lookup(name string) (*TypeInfo, bool) {
	info, ok := r.types[name]
	return info, ok
}

func (r *Registry) Len() int {
	return len(r.types)
}

// Names returns every registered name in sorted order.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.types))
}

// All yields every entry in name order.
func (r *Registry) All() iter.Seq[*TypeInfo] {
	return func(yield func(*TypeInfo) bool) {
		for _, name := range r.Names() {
			if !yield(r.types[name]) {
				return
			}
		}
	}
}

// Declare records a `using` directive for name. A name may be declared
// once, and it completes an existing definition-only entry.
func (r *Registry) Declare(name string, record *Record) error {
	info, err := r.entry(name, record)
	if err != nil {
		return err
	}
	if info.Declaration != nil {
		return inFile(errRedefinition(name, record.Span), record.File)
	}
	info.Declaration = record
	r.logger.Debug("declared type", "name", name, "file", record.File)
	return nil
}

// Define records an interface definition for name. A name may be defined
// once, and it completes an existing declaration-only entry.
func (r *Registry) Define(name string, record *Record) error {
	info, err := r.entry(name, record)
	if err != nil {
		return err
	}
	if info.Definition != nil {
		return inFile(errRedefinition(name, record.Span), record.File)
	}
	info.Definition = record
	r.logger.Debug("defined type", "name", name, "file", record.File)
	return nil
}

func (r *Registry) entry(name string, record *Record) (*TypeInfo, error) {
	if info, ok := r.types[name]; ok {
		if info.Builtin {
			return nil, inFile(errRedefinitionBuiltin(name, record.Span), record.File)
		}
		return info, nil
	}
	info := &TypeInfo{Name: name}
	r.types[name] = info
	return info, nil
}

// Resolve finds the fully-qualified name of a relative type reference
// made from within the given namespace path, probing the innermost
// namespace first and the root namespace last.
func (r *Registry) Resolve(relative string, namespaces []string) (string, bool) {
	for ii := len(namespaces); ii >= 0; ii-- {
		candidate := joinName(namespaces[:ii], relative)
		if _, ok := r.types[candidate]; ok {
			return candidate, true
		}
	}
	return "", false
}

// Using computes the root package's summary of every registered type.
func (r *Registry) Using() (map[string]ir.UsingInfo, error) {
	using := make(map[string]ir.UsingInfo, len(r.types))
	for info := range r.All() {
		treatment, err := info.ResolvedTreatment()
		if err != nil {
			return nil, err
		}
		using[info.Name] = ir.UsingInfo{Treatment: treatment.String()}
	}
	return using, nil
}

func joinName(namespaces []string, name string) string {
	if len(namespaces) == 0 {
		return name
	}
	return strings.Join(namespaces, ".") + "." + name
}
