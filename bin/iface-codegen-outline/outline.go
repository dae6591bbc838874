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


// Command iface-codegen-outline is a codegen plugin that renders a
// compiled package as a plain-text outline of its interfaces.
//
// Built for GOOS=wasip1 with -buildmode=c-shared it exports the plugin
// ABI expected by "iface codegen". Built natively it compiles the file
// named on the command line and prints the outline to stdout.
package main

import (
	"encoding/json"
	"fmt"
	"strings"
)

const outputName = "outline.txt"

type codegenRequest struct {
	Language string          `json:"language"`
	Package  json.RawMessage `json:"package"`
}

type codegenResponse struct {
	Error       string       `json:"error,omitempty"`
	OutputFiles []outputFile `json:"output_files"`
}

type outputFile struct {
	Path    []string `json:"path"`
	Content string   `json:"content"`
}

// node decodes both package and interface objects of the JSON IR.
type node struct {
	Kind     string   `json:"kind"`
	Name     string   `json:"name"`
	Base     string   `json:"base"`
	Children []*node  `json:"children"`
	Fields   []*field `json:"fields"`
}

type field struct {
	Name     string   `json:"name"`
	FullType []string `json:"full_type"`
	Repeated bool     `json:"repeated"`
	Ref      bool     `json:"ref"`
	ID       uint32   `json:"id"`
}

// generate handles one encoded request. The returned status is nonzero
// when the response carries an error.
func generate(requestBuf []byte) ([]byte, uint32) {
	var response codegenResponse
	content, err := generateOutline(requestBuf)
	if err != nil {
		response.Error = err.Error()
	} else {
		response.OutputFiles = []outputFile{{
			Path:    []string{outputName},
			Content: content,
		}}
	}
	responseBuf, err := json.Marshal(response)
	if err != nil {
		return []byte(`{"error":"Failed to encode response"}`), 1
	}
	if response.Error != "" {
		return responseBuf, 1
	}
	return responseBuf, 0
}

func generateOutline(requestBuf []byte) (string, error) {
	var request codegenRequest
	if err := json.Unmarshal(requestBuf, &request); err != nil {
		return "", fmt.Errorf("Invalid codegen request: %w", err)
	}
	if request.Language != "outline" {
		return "", fmt.Errorf("Unsupported language %q", request.Language)
	}
	var pkg node
	if err := json.Unmarshal(request.Package, &pkg); err != nil {
		return "", fmt.Errorf("Invalid package: %w", err)
	}
	if pkg.Kind != "package" {
		return "", fmt.Errorf("Expected a package, got %q", pkg.Kind)
	}
	var c outline
	c.emitPackage(&pkg, nil)
	return c.out.String(), nil
}

type outline struct {
	out strings.Builder
}

func (c *outline) emitPackage(pkg *node, scope []string) {
	if pkg.Name != "" {
		scope = append(scope, pkg.Name)
	}
	for _, child := range pkg.Children {
		switch child.Kind {
		case "package":
			c.emitPackage(child, scope)
		case "interface":
			c.emitInterface(child, scope)
		}
	}
}

func (c *outline) emitInterface(iface *node, scope []string) {
	name := strings.Join(append(scope[:len(scope):len(scope)], iface.Name), ".")
	if c.out.Len() > 0 {
		c.out.WriteString("\n")
	}
	if iface.Base != "" {
		fmt.Fprintf(&c.out, "interface %s : %s\n", name, iface.Base)
	} else {
		fmt.Fprintf(&c.out, "interface %s\n", name)
	}
	for _, f := range iface.Fields {
		var line strings.Builder
		line.WriteString("\t")
		if f.Ref {
			line.WriteString("ref ")
		}
		line.WriteString(strings.Join(f.FullType, "."))
		if f.Repeated {
			line.WriteString("[]")
		}
		line.WriteString(" ")
		line.WriteString(f.Name)
		if f.ID != 0 {
			fmt.Fprintf(&line, " = %d", f.ID)
		}
		c.out.WriteString(line.String())
		c.out.WriteString("\n")
	}
}
