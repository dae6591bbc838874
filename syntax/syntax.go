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

package syntax

import (
	"strconv"
	"strings"
)

var keywords = map[string]struct{}{
	"include":   {},
	"namespace": {},
	"using":     {},
	"interface": {},
}

// Parse matches src against the grammar. No events are observable unless
// the entire source parses.
func Parse(src []byte) (*File, error) {
	ctx, err := newParseCtx(src)
	if err != nil {
		return nil, err
	}
	return parseFile(ctx)
}

type parseCtx struct {
	src       []byte
	tokens    *Tokens
	haveToken bool
	token     Token
	err       error
	consumed  uint32
	offset    uint32
	lastEnd   uint32
}

func newParseCtx(src []byte) (*parseCtx, error) {
	tokens, err := NewTokens(src)
	if err != nil {
		return nil, err
	}
	return &parseCtx{
		src:    src,
		tokens: tokens,
	}, nil
}

func (ctx *parseCtx) ensureToken() error {
	if ctx.err != nil {
		return ctx.err
	}
	if ctx.haveToken {
		return nil
	}
	if err := ctx.tokens.Next(&ctx.token); err != nil {
		ctx.err = err
		return ctx.err
	}
	ctx.haveToken = true
	return nil
}

func (ctx *parseCtx) readToken() string {
	return string(ctx.src[ctx.offset : ctx.offset+uint32(ctx.token.Len)])
}

func (ctx *parseCtx) tokenSpan() Span {
	return Span{
		start: ctx.offset,
		len:   uint32(ctx.token.Len),
	}
}

func (ctx *parseCtx) consumeToken() Span {
	span := ctx.tokenSpan()
	ctx.consumed += uint32(ctx.token.Len)
	ctx.offset += uint32(ctx.token.Len)
	ctx.haveToken = false
	if ctx.token.Kind != T_SPACE && ctx.token.Kind != T_NEWLINE && ctx.token.Kind != T_COMMENT {
		ctx.lastEnd = ctx.offset
	}
	return span
}

func (ctx *parseCtx) loop(yield func(struct{}) bool) {
	if ctx.err != nil {
		return
	}
	for {
		consumed := ctx.consumed
		if !yield(struct{}{}) {
			return
		}
		if ctx.err != nil {
			return
		}
		if consumed == ctx.consumed {
			return
		}
	}
}

func (ctx *parseCtx) comments() {
	for _ = range ctx.loop {
		if err := ctx.ensureToken(); err != nil {
			return
		}
		switch ctx.token.Kind {
		case T_SPACE, T_NEWLINE, T_COMMENT:
			ctx.consumeToken()
		default:
			return
		}
	}
}

func (ctx *parseCtx) sigil(kind TokenKind) {
	if err := ctx.ensureToken(); err != nil {
		return
	}
	if ctx.token.Kind != kind {
		ctx.err = errExpectedSigil(
			kind,
			ctx.token.Kind,
			ctx.readToken(),
			ctx.tokenSpan(),
		)
		return
	}
	ctx.consumeToken()
}

func (ctx *parseCtx) trySigil(kind TokenKind) bool {
	if err := ctx.ensureToken(); err != nil {
		return false
	}
	if ctx.token.Kind != kind {
		return false
	}
	ctx.consumeToken()
	return true
}

func (ctx *parseCtx) peekKeyword() string {
	if err := ctx.ensureToken(); err != nil {
		return ""
	}
	if ctx.token.Kind != T_IDENT {
		return ""
	}
	return ctx.readToken()
}

func (ctx *parseCtx) tryKeyword(keyword string) bool {
	if ctx.peekKeyword() != keyword {
		return false
	}
	ctx.consumeToken()
	return true
}

func (ctx *parseCtx) leaf(kind NodeKind) *Node {
	text := ctx.readToken()
	span := ctx.consumeToken()
	return &Node{
		kind: kind,
		text: text,
		span: span,
	}
}

func (ctx *parseCtx) finish(kind NodeKind, start uint32, childNodes []*Node) *Node {
	if ctx.err != nil {
		return nil
	}
	return &Node{
		kind:       kind,
		text:       string(ctx.src[start:ctx.lastEnd]),
		span:       Span{start: start, len: ctx.lastEnd - start},
		childNodes: childNodes,
	}
}

// declName reads a single identifier that names a declaration.
func (ctx *parseCtx) declName(kind NodeKind) *Node {
	if err := ctx.ensureToken(); err != nil {
		return nil
	}
	if ctx.token.Kind != T_IDENT {
		ctx.err = errExpectedIdent(ctx.token.Kind, ctx.readToken(), ctx.tokenSpan())
		return nil
	}
	if _, reserved := keywords[ctx.readToken()]; reserved {
		ctx.err = errKeywordAsIdent(ctx.readToken(), ctx.tokenSpan())
		return nil
	}
	return ctx.leaf(kind)
}

type identSegment struct {
	text string
	span Span
}

// dottedIdent reads `ident ("." ident)*` with no trivia between segments.
func (ctx *parseCtx) dottedIdent() []identSegment {
	if err := ctx.ensureToken(); err != nil {
		return nil
	}
	if ctx.token.Kind != T_IDENT {
		ctx.err = errExpectedTypeName(ctx.token.Kind, ctx.readToken(), ctx.tokenSpan())
		return nil
	}
	var segments []identSegment
	for _ = range ctx.loop {
		if err := ctx.ensureToken(); err != nil {
			return nil
		}
		if ctx.token.Kind != T_IDENT {
			ctx.err = errExpectedIdent(ctx.token.Kind, ctx.readToken(), ctx.tokenSpan())
			return nil
		}
		text := ctx.readToken()
		segments = append(segments, identSegment{text, ctx.consumeToken()})
		if !ctx.trySigil(T_DOT) {
			break
		}
	}
	if ctx.err != nil {
		return nil
	}
	return segments
}

func joinSegments(kind NodeKind, segments []identSegment) *Node {
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		parts = append(parts, seg.text)
	}
	first, last := segments[0].span, segments[len(segments)-1].span
	return &Node{
		kind: kind,
		text: strings.Join(parts, "."),
		span: Span{start: first.start, len: last.End() - first.start},
	}
}

func parseFile(ctx *parseCtx) (*File, error) {
	var childNodes []*Node
	for _ = range ctx.loop {
		ctx.comments()
		if err := ctx.ensureToken(); err != nil {
			return nil, err
		}
		if ctx.token.Kind == T_EOF {
			break
		}
		if block := parseBlock(ctx); block != nil {
			childNodes = append(childNodes, block)
		}
	}
	if ctx.err != nil {
		return nil, ctx.err
	}
	return &File{childNodes: childNodes}, nil
}

func parseBlock(ctx *parseCtx) *Node {
	if err := ctx.ensureToken(); err != nil {
		return nil
	}
	start := ctx.offset
	attrs := parseAttrs(ctx)
	if err := ctx.ensureToken(); err != nil {
		return nil
	}

	switch keyword := ctx.peekKeyword(); keyword {
	case "include":
		if len(attrs) > 0 {
			ctx.err = errAttributesOnInclude(ctx.tokenSpan())
			return nil
		}
		return parseInclude(ctx, start)
	case "namespace":
		return parseNamespace(ctx, start, attrs)
	case "using":
		return parseUsingDirective(ctx, start, attrs)
	case "interface":
		return parseInterface(ctx, start, attrs)
	case "":
		if len(attrs) > 0 {
			ctx.err = errDanglingAttributes(ctx.token.Kind, ctx.readToken(), ctx.tokenSpan())
		} else {
			ctx.err = errExpectedDeclaration(ctx.token.Kind, ctx.readToken(), ctx.tokenSpan())
		}
	default:
		ctx.err = errUnknownDeclaration(keyword, ctx.tokenSpan())
	}
	return nil
}

func parseInclude(ctx *parseCtx, start uint32) *Node {
	ctx.tryKeyword("include")
	ctx.comments()
	if err := ctx.ensureToken(); err != nil {
		return nil
	}
	if ctx.token.Kind != T_TEXT_LIT {
		ctx.err = errExpectedTextLit(ctx.token.Kind, ctx.readToken(), ctx.tokenSpan())
		return nil
	}
	quoted := ctx.readToken()
	span := ctx.consumeToken()
	path := &Node{
		kind: N_INCLUDE_FILEPATH,
		text: quoted[1 : len(quoted)-1],
		span: Span{start: span.start + 1, len: span.len - 2},
	}
	ctx.comments()
	ctx.sigil(T_SEMICOLON)
	return ctx.finish(N_INCLUDE, start, []*Node{path})
}

func parseNamespace(ctx *parseCtx, start uint32, attrs []*Node) *Node {
	ctx.tryKeyword("namespace")
	ctx.comments()
	childNodes := attrs
	if name := ctx.declName(N_NS_NAME); name != nil {
		childNodes = append(childNodes, name)
	}
	ctx.comments()
	ctx.sigil(T_OPEN_CURL)
	for _ = range ctx.loop {
		ctx.comments()
		if ctx.trySigil(T_CLOSE_CURL) {
			return ctx.finish(N_NS, start, childNodes)
		}
		if err := ctx.ensureToken(); err != nil {
			return nil
		}
		if ctx.token.Kind == T_EOF {
			ctx.sigil(T_CLOSE_CURL)
			return nil
		}
		if block := parseBlock(ctx); block != nil {
			childNodes = append(childNodes, block)
		}
	}
	return nil
}

func parseUsingDirective(ctx *parseCtx, start uint32, attrs []*Node) *Node {
	ctx.tryKeyword("using")
	ctx.comments()
	childNodes := attrs
	if segments := ctx.dottedIdent(); segments != nil {
		childNodes = append(childNodes, joinSegments(N_TYPE_NAME, segments))
	}
	ctx.comments()
	ctx.sigil(T_SEMICOLON)
	return ctx.finish(N_USING_DIRECTIVE, start, childNodes)
}

func parseInterface(ctx *parseCtx, start uint32, attrs []*Node) *Node {
	ctx.tryKeyword("interface")
	ctx.comments()
	childNodes := attrs
	if name := ctx.declName(N_TYPE_NAME); name != nil {
		childNodes = append(childNodes, name)
	}
	ctx.comments()
	if base := parseInterfaceBase(ctx); base != nil {
		childNodes = append(childNodes, base)
		ctx.comments()
	}
	ctx.sigil(T_OPEN_CURL)
	for _ = range ctx.loop {
		ctx.comments()
		if ctx.trySigil(T_CLOSE_CURL) {
			return ctx.finish(N_INTERFACE, start, childNodes)
		}
		if err := ctx.ensureToken(); err != nil {
			return nil
		}
		if ctx.token.Kind == T_EOF {
			ctx.sigil(T_CLOSE_CURL)
			return nil
		}
		if field := parseField(ctx); field != nil {
			childNodes = append(childNodes, field)
		}
	}
	return nil
}

func parseInterfaceBase(ctx *parseCtx) *Node {
	if err := ctx.ensureToken(); err != nil {
		return nil
	}
	start := ctx.offset
	if !ctx.trySigil(T_COLON) {
		return nil
	}
	ctx.comments()
	typeRef := parseTypeRef(ctx)
	if typeRef == nil {
		return nil
	}
	return ctx.finish(N_INTERFACE_BASE, start, []*Node{typeRef})
}

// parseTypeRef emits one ns_name per leading segment and a type_name for
// the last one.
func parseTypeRef(ctx *parseCtx) *Node {
	segments := ctx.dottedIdent()
	if segments == nil {
		return nil
	}
	childNodes := make([]*Node, 0, len(segments))
	for ii, seg := range segments {
		kind := N_NS_NAME
		if ii == len(segments)-1 {
			kind = N_TYPE_NAME
		}
		childNodes = append(childNodes, &Node{
			kind: kind,
			text: seg.text,
			span: seg.span,
		})
	}
	typeRef := joinSegments(N_TYPE_REF, segments)
	typeRef.childNodes = childNodes
	return typeRef
}

func parseField(ctx *parseCtx) *Node {
	start := ctx.offset
	childNodes := parseAttrs(ctx)
	if err := ctx.ensureToken(); err != nil {
		return nil
	}
	if len(childNodes) > 0 && ctx.token.Kind != T_IDENT {
		ctx.err = errDanglingAttributes(ctx.token.Kind, ctx.readToken(), ctx.tokenSpan())
		return nil
	}

	if ctx.peekKeyword() == "ref" {
		childNodes = append(childNodes, ctx.leaf(N_FIELD_IS_REF))
		ctx.comments()
	}

	segments := ctx.dottedIdent()
	if segments == nil {
		return nil
	}
	childNodes = append(childNodes, joinSegments(N_FIELD_TYPE, segments))
	ctx.comments()

	if err := ctx.ensureToken(); err != nil {
		return nil
	}
	if ctx.token.Kind == T_OPEN_SQUARE {
		repeatedStart := ctx.offset
		ctx.consumeToken()
		ctx.sigil(T_CLOSE_SQUARE)
		if ctx.err != nil {
			return nil
		}
		childNodes = append(childNodes, &Node{
			kind: N_FIELD_IS_REPEATED,
			text: "[]",
			span: Span{start: repeatedStart, len: ctx.lastEnd - repeatedStart},
		})
		ctx.comments()
	}

	if err := ctx.ensureToken(); err != nil {
		return nil
	}
	if ctx.token.Kind != T_IDENT {
		ctx.err = errExpectedIdent(ctx.token.Kind, ctx.readToken(), ctx.tokenSpan())
		return nil
	}
	childNodes = append(childNodes, ctx.leaf(N_FIELD_NAME))
	ctx.comments()

	if ctx.trySigil(T_EQ) {
		ctx.comments()
		if id := parseFieldId(ctx); id != nil {
			childNodes = append(childNodes, id)
		}
		ctx.comments()
	}

	childNodes = append(childNodes, parseAttrs(ctx)...)
	ctx.sigil(T_SEMICOLON)
	return ctx.finish(N_FIELD, start, childNodes)
}

func parseFieldId(ctx *parseCtx) *Node {
	if err := ctx.ensureToken(); err != nil {
		return nil
	}
	if ctx.token.Kind != T_INT_LIT {
		ctx.err = errExpectedFieldId(ctx.token.Kind, ctx.readToken(), ctx.tokenSpan())
		return nil
	}
	token := ctx.readToken()
	if token[0] == '0' {
		ctx.err = errFieldIdInvalid(token, ctx.tokenSpan())
		return nil
	}
	if _, err := strconv.ParseUint(token, 10, 32); err != nil {
		ctx.err = errFieldIdInvalid(token, ctx.tokenSpan())
		return nil
	}
	return ctx.leaf(N_FIELD_ID)
}

func parseAttrs(ctx *parseCtx) []*Node {
	var attrs []*Node
	for _ = range ctx.loop {
		if err := ctx.ensureToken(); err != nil {
			return nil
		}
		if ctx.token.Kind != T_AT {
			break
		}
		if attr := parseAttr(ctx); attr != nil {
			attrs = append(attrs, attr)
		}
		ctx.comments()
	}
	return attrs
}

func parseAttr(ctx *parseCtx) *Node {
	start := ctx.offset
	ctx.sigil(T_AT)
	if err := ctx.ensureToken(); err != nil {
		return nil
	}
	if ctx.token.Kind != T_IDENT {
		ctx.err = errExpectedIdent(ctx.token.Kind, ctx.readToken(), ctx.tokenSpan())
		return nil
	}
	segments := ctx.dottedIdent()
	if segments == nil {
		return nil
	}
	childNodes := []*Node{joinSegments(N_ATTR_PATH, segments)}

	// Lookahead past trivia; an open paren can never start a declaration.
	ctx.comments()
	if ctx.trySigil(T_OPEN_PAREN) {
		ctx.comments()
		if value := parseAttrValue(ctx); value != nil {
			childNodes = append(childNodes, value)
		}
		ctx.comments()
		ctx.sigil(T_CLOSE_PAREN)
	}
	return ctx.finish(N_ATTR, start, childNodes)
}

func parseAttrValue(ctx *parseCtx) *Node {
	if err := ctx.ensureToken(); err != nil {
		return nil
	}
	switch ctx.token.Kind {
	case T_TEXT_LIT:
		return ctx.leaf(N_ATTR_VALUE_STRING)
	case T_INT_LIT:
		return ctx.leaf(N_ATTR_VALUE_INT)
	case T_FLOAT_LIT:
		return ctx.leaf(N_ATTR_VALUE_FLOAT)
	case T_IDENT:
		switch strings.ToLower(ctx.readToken()) {
		case "true", "false":
			return ctx.leaf(N_ATTR_VALUE_BOOL)
		}
	}
	ctx.err = errExpectedAttrValue(ctx.token.Kind, ctx.readToken(), ctx.tokenSpan())
	return nil
}

// FieldId returns the numeric ordinal of a field_id node.
func FieldId(node *Node) (uint32, bool) {
	if node.kind != N_FIELD_ID {
		return 0, false
	}
	value, err := strconv.ParseUint(node.text, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(value), true
}
