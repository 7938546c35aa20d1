package compiler

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"go.trai.ch/loom/internal/core/domain"
)

type emitInput struct {
	document   domain.HostDocument
	directives []directive
	nodes      []node
	tagHelpers []domain.TagHelper
	checksum   string
}

// emit renders the generated Go source for one document. Output is fully
// deterministic: directive and tag-helper order is preserved from the input.
func emit(in emitInput) string {
	var b strings.Builder

	fmt.Fprintf(&b, "// Code generated by loom. DO NOT EDIT.\n")
	fmt.Fprintf(&b, "// loom:checksum %s\n", in.checksum)
	fmt.Fprintf(&b, "// source: %s\n\n", in.document.TargetPath)

	fmt.Fprintf(&b, "package %s\n\n", packageName(in.directives))

	hasExpr := false
	for _, n := range in.nodes {
		if n.kind == nodeExpr {
			hasExpr = true
			break
		}
	}

	b.WriteString("import (\n")
	if hasExpr {
		b.WriteString("\t\"fmt\"\n")
	}
	b.WriteString("\t\"io\"\n")
	if hasExpr {
		b.WriteString("\n\t\"go.trai.ch/loom/pkg/weftrt\"\n")
	}
	b.WriteString(")\n\n")

	var comments []string
	for _, d := range in.directives {
		if d.name == "using" {
			comments = append(comments, fmt.Sprintf("// using %s", d.value))
		}
	}
	for _, helper := range in.tagHelpers {
		comments = append(comments, fmt.Sprintf("// taghelper %s (%s)", helper.Name, helper.Assembly))
	}
	if len(comments) > 0 {
		b.WriteString(strings.Join(comments, "\n"))
		b.WriteString("\n\n")
	}

	fmt.Fprintf(&b, "// %s renders %s.\n", renderFuncName(in.document), in.document.TargetPath)
	fmt.Fprintf(&b, "func %s(w io.Writer, model any) error {\n", renderFuncName(in.document))

	for _, n := range in.nodes {
		switch n.kind {
		case nodeLiteral:
			fmt.Fprintf(&b, "\tif _, err := io.WriteString(w, %s); err != nil {\n\t\treturn err\n\t}\n", strconv.Quote(n.text))
		case nodeExpr:
			fmt.Fprintf(&b, "\tif _, err := fmt.Fprint(w, weftrt.Eval(model, %s)); err != nil {\n\t\treturn err\n\t}\n", strconv.Quote(n.text))
		}
	}

	b.WriteString("\treturn nil\n")
	b.WriteString("}\n")
	return b.String()
}

// packageName returns the last @namespace directive's final segment, or the
// default package when no namespace is declared.
func packageName(directives []directive) string {
	name := "weft"
	for _, d := range directives {
		if d.name == "namespace" {
			parts := strings.Split(d.value, ".")
			name = parts[len(parts)-1]
		}
	}
	return sanitizeIdent(strings.ToLower(name))
}

// renderFuncName derives the exported render function name from the target
// path: pages/index.weft becomes RenderPagesIndex.
func renderFuncName(doc domain.HostDocument) string {
	target := strings.TrimSuffix(doc.TargetPath, path.Ext(doc.TargetPath))

	prefix := "Render"
	if doc.Kind == domain.FileKindComponent {
		prefix = "Component"
	}

	var b strings.Builder
	b.WriteString(prefix)
	for _, segment := range strings.FieldsFunc(target, func(r rune) bool {
		return r == '/' || r == '_' || r == '-' || r == '.'
	}) {
		b.WriteString(strings.ToUpper(segment[:1]) + segment[1:])
	}
	return sanitizeIdent(b.String())
}

func sanitizeIdent(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch {
		case isIdentPart(s[i]):
			b.WriteByte(s[i])
		default:
			// drop
		}
	}
	if b.Len() == 0 {
		return "weft"
	}
	return b.String()
}
