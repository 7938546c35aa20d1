package compiler

import (
	"strings"

	"go.trai.ch/zerr"
)

// directive is one template directive, e.g. "@using site.shared".
type directive struct {
	name  string
	value string
}

type nodeKind int

const (
	nodeLiteral nodeKind = iota
	nodeExpr
)

// node is one body fragment: literal markup or an embedded expression.
type node struct {
	kind nodeKind
	text string
}

// parsed is the structured form of one template.
type parsed struct {
	directives []directive
	nodes      []node
}

var errDanglingAt = zerr.New("'@' must be followed by an identifier, '(' or '@'")

// parse splits a template into directives and body nodes. Directives occupy
// whole lines; the remaining lines form the body, where '@expr' and '@(expr)'
// embed expressions and '@@' escapes a literal '@'.
func parse(text string) (parsed, error) {
	var out parsed
	var body strings.Builder

	for line := range strings.Lines(text) {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "@using "):
			out.directives = append(out.directives, directive{
				name:  "using",
				value: strings.TrimSpace(strings.TrimPrefix(trimmed, "@using ")),
			})
		case strings.HasPrefix(trimmed, "@namespace "):
			out.directives = append(out.directives, directive{
				name:  "namespace",
				value: strings.TrimSpace(strings.TrimPrefix(trimmed, "@namespace ")),
			})
		default:
			body.WriteString(line)
		}
	}

	nodes, err := parseBody(body.String())
	if err != nil {
		return parsed{}, err
	}
	out.nodes = nodes
	return out, nil
}

func parseBody(body string) ([]node, error) {
	var nodes []node
	var literal strings.Builder

	flush := func() {
		if literal.Len() > 0 {
			nodes = append(nodes, node{kind: nodeLiteral, text: literal.String()})
			literal.Reset()
		}
	}

	for i := 0; i < len(body); {
		ch := body[i]
		if ch != '@' {
			literal.WriteByte(ch)
			i++
			continue
		}

		if i+1 >= len(body) {
			return nil, errDanglingAt
		}

		next := body[i+1]
		switch {
		case next == '@':
			literal.WriteByte('@')
			i += 2
		case next == '(':
			expr, rest, err := scanParenExpr(body[i+1:])
			if err != nil {
				return nil, err
			}
			flush()
			nodes = append(nodes, node{kind: nodeExpr, text: expr})
			i = len(body) - len(rest)
		case isIdentStart(next):
			expr, rest := scanIdentExpr(body[i+1:])
			flush()
			nodes = append(nodes, node{kind: nodeExpr, text: expr})
			i = len(body) - len(rest)
		default:
			return nil, errDanglingAt
		}
	}

	flush()
	return nodes, nil
}

// scanParenExpr consumes a balanced parenthesized expression starting at '('.
func scanParenExpr(s string) (expr, rest string, err error) {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return s[1:i], s[i+1:], nil
			}
		}
	}
	return "", "", zerr.New("unbalanced parentheses in expression")
}

// scanIdentExpr consumes a dotted identifier chain, e.g. "model.Title".
func scanIdentExpr(s string) (expr, rest string) {
	i := 0
	for i < len(s) {
		if isIdentPart(s[i]) {
			i++
			continue
		}
		if s[i] == '.' && i+1 < len(s) && isIdentStart(s[i+1]) {
			i += 2
			continue
		}
		break
	}
	return s[:i], s[i:]
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || (ch >= '0' && ch <= '9')
}
