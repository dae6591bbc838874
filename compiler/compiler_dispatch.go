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
	"log/slog"

	"github.com/MaDcz/interfaces/syntax"
)

// nodeFunc receives the begin events of every descendant of an
// override's anchor node.
type nodeFunc func(node *syntax.Node) error

type override struct {
	fn     nodeFunc
	anchor *syntax.Node
}

// dispatcher holds the scoped overrides of one event consumer. While an
// override is installed it receives every begin event, and the default
// handling of the consumer does not run. Overrides are removed at the end
// event of their anchor, in strict LIFO order.
type dispatcher struct {
	overrides []override
	logger    *slog.Logger
}

// employ installs fn for the subtree of anchor. A nil fn swallows every
// event in that subtree.
func (d *dispatcher) employ(fn nodeFunc, anchor *syntax.Node) {
	if anchor == nil {
		panic("compiler: override installed without an anchor node")
	}
	if fn == nil {
		fn = func(*syntax.Node) error { return nil }
	}
	d.logger.Debug("employing override", "node", anchor.Kind().String(), "depth", len(d.overrides)+1)
	d.overrides = append(d.overrides, override{fn, anchor})
}

// process routes a begin event to the innermost override, reporting
// whether one was installed.
func (d *dispatcher) process(node *syntax.Node) (bool, error) {
	if len(d.overrides) == 0 {
		return false, nil
	}
	return true, d.overrides[len(d.overrides)-1].fn(node)
}

// release removes the innermost override if node is its anchor.
func (d *dispatcher) release(node *syntax.Node) bool {
	top := len(d.overrides) - 1
	if top < 0 || d.overrides[top].anchor != node {
		return false
	}
	d.logger.Debug("releasing override", "node", node.Kind().String(), "depth", top+1)
	d.overrides = d.overrides[:top]
	if top > 0 && d.overrides[top-1].anchor == node {
		panic("compiler: override anchored twice to the same node")
	}
	return true
}

// end reports whether the end event of node belongs to default handling.
// That is the case when node anchored the innermost override, or when no
// override is installed at all.
func (d *dispatcher) end(node *syntax.Node) bool {
	if d.release(node) {
		return true
	}
	return len(d.overrides) == 0
}

// finish asserts that every override was released.
func (d *dispatcher) finish() {
	if len(d.overrides) != 0 {
		panic("compiler: unbalanced override stack at end of file")
	}
}
