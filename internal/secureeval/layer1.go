// layer1.go — the static AST screen (spec §4.5 Layer 1). Parses the
// candidate expression with goja's own parser so the blocked-pattern
// catalog is checked against a real ECMAScript AST rather than a
// lexical/regex approximation. This parser is the package's only use of
// goja: layer2.go is a round-trip to the peer and layer3.go only renders
// wrapper text.
package secureeval

import (
	"strings"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/parser"
)

// blockedCalls is the Layer-1 catalog of disallowed call targets, bare or
// qualified by a global receiver (spec §4.5).
var blockedCalls = map[string]bool{
	"fetch": true, "eval": true, "atob": true, "btoa": true, "Function": true,
	"XMLHttpRequest": true, "WebSocket": true, "EventSource": true,
	"Worker": true, "SharedWorker": true, "RTCPeerConnection": true, "Image": true,
}

var blockedMemberChains = map[string]bool{
	"navigator.sendBeacon": true,
	"localStorage":         true,
	"sessionStorage":       true,
	"document.cookie":      true,
	"document.write":       true,
	"document.writeln":     true,
	"location.assign":      true,
	"location.replace":     true,
	"document.defaultView": true,
	"Object.getOwnPropertyDescriptor":  true,
	"Object.getOwnPropertyDescriptors": true,
	"Reflect":                          true,
}

var globalReceivers = map[string]bool{
	"window": true, "globalThis": true, "self": true, "top": true, "parent": true, "frames": true, "this": true,
}

var obfuscationPrimitives = map[string]bool{
	"String.fromCharCode": true, "String.raw": true,
}

var prototypeWalkNames = map[string]bool{
	"__proto__": true, "constructor": true,
}

// sensitiveProperties is the set of trailing property names that are
// blocked regardless of which identifier they're read off — derived from
// blockedMemberChains so e.g. "document.cookie" and an arbitrary
// variable's bracket-form `x["cookie"]` are caught by the same name.
var sensitiveProperties = func() map[string]bool {
	names := map[string]bool{}
	for chain := range blockedMemberChains {
		if idx := strings.LastIndex(chain, "."); idx >= 0 {
			names[chain[idx+1:]] = true
		}
	}
	return names
}()

// dangerousElementTags is the Layer-1 catalog of tag names that
// document.createElement must never be called with (spec §4.5): both can
// execute attacker-controlled script once inserted into the DOM.
var dangerousElementTags = map[string]bool{
	"script": true, "iframe": true,
}

// blockedPattern is returned by the walker to name what it found.
type blockedPattern struct {
	Chain string
}

// screenSource parses source and walks it for blocked patterns. A syntax
// error is deliberately passed through unflagged: the page will fail it at
// runtime and nothing dangerous can execute (spec §4.5).
func screenSource(source string) (blocked bool, chain string) {
	program, err := parser.ParseFile(nil, "", source, 0)
	if err != nil {
		return false, ""
	}
	w := &walker{}
	for _, stmt := range program.Body {
		w.walkStatement(stmt)
		if w.found != nil {
			return true, w.found.Chain
		}
	}
	return false, ""
}

type walker struct {
	found *blockedPattern
}

func (w *walker) flag(chain string) {
	if w.found == nil {
		w.found = &blockedPattern{Chain: chain}
	}
}

func (w *walker) walkStatement(s ast.Statement) {
	if w.found != nil || s == nil {
		return
	}
	switch n := s.(type) {
	case *ast.ExpressionStatement:
		w.walkExpression(n.Expression)
	case *ast.VariableStatement:
		for _, decl := range n.List {
			if decl != nil {
				w.walkExpression(decl.Initializer)
			}
		}
	case *ast.LexicalDeclaration:
		for _, decl := range n.List {
			if decl != nil {
				w.walkExpression(decl.Initializer)
			}
		}
	case *ast.BlockStatement:
		for _, inner := range n.List {
			w.walkStatement(inner)
		}
	case *ast.IfStatement:
		w.walkExpression(n.Test)
		w.walkStatement(n.Consequent)
		w.walkStatement(n.Alternate)
	case *ast.ReturnStatement:
		w.walkExpression(n.Argument)
	case *ast.ForStatement:
		w.walkStatement(n.Initializer)
		w.walkExpression(n.Test)
		w.walkExpression(n.Update)
		w.walkStatement(n.Body)
	}
}

// walkExpression covers the expression shapes the blocked-pattern
// catalog names: calls, member access (dot and bracket), assignment,
// the comma operator, new-expressions, and string/template literals used
// as navigation targets or timer bodies.
func (w *walker) walkExpression(e ast.Expression) {
	if w.found != nil || e == nil {
		return
	}
	switch n := e.(type) {
	case *ast.CallExpression:
		w.checkCallTarget(n.Callee)
		w.checkTimerStringBody(n)
		w.checkCreateElement(n)
		w.walkExpression(n.Callee)
		for _, arg := range n.ArgumentList {
			w.walkExpression(arg)
		}
	case *ast.ImportCallExpression:
		w.flag("import()")
	case *ast.NewExpression:
		w.checkCallTarget(n.Callee)
		w.walkExpression(n.Callee)
		for _, arg := range n.ArgumentList {
			w.walkExpression(arg)
		}
	case *ast.DotExpression:
		chain := memberChain(n)
		name := n.Identifier.Name.String()
		base, isIdent := identifierName(n.Left)
		isGlobal := isIdent && globalReceivers[base]
		if blockedMemberChains[chain] || prototypeWalkNames[name] || (isGlobal && blockedCalls[name]) || (isIdent && blockedMemberChains[base]) {
			w.flag(chain)
			return
		}
		w.walkExpression(n.Left)
	case *ast.BracketExpression:
		base, baseOK := identifierName(n.Left)
		if baseOK && globalReceivers[base] {
			w.flag(base + "[computed]")
			return
		}
		// Bracket-form property access bypasses the dot-form chain
		// lookup above; check the literal key itself so `x["__proto__"]`
		// or `document["cookie"]` on a non-global base is still caught.
		if lit, ok := n.Member.(*ast.StringLiteral); ok {
			prop := lit.Value.String()
			if prototypeWalkNames[prop] || sensitiveProperties[prop] {
				w.flag(prop + "[bracket]")
				return
			}
			if baseOK {
				if chain := base + "." + prop; blockedMemberChains[chain] || (globalReceivers[base] && blockedCalls[prop]) {
					w.flag(chain)
					return
				}
			}
		}
		w.walkExpression(n.Left)
		w.walkExpression(n.Member)
	case *ast.AssignExpression:
		if id, ok := identifierName(n.Right); ok && blockedCalls[id] {
			w.flag("assign:" + id)
			return
		}
		w.walkExpression(n.Left)
		w.walkExpression(n.Right)
	case *ast.SequenceExpression:
		// Comma-operator bypass: (0, fetch)(...) — the call target check
		// already unwraps this via checkCallTarget on the outer call.
		for _, item := range n.Sequence {
			w.walkExpression(item)
		}
	case *ast.StringLiteral:
		if strings.HasPrefix(strings.TrimSpace(n.Value.String()), "javascript:") {
			w.flag("javascript:")
		}
	case *ast.Identifier:
		// A bare identifier is never itself blocked (spec §4.5: "fetch
		// used purely as an identifier" is non-blocked); only call and
		// assignment contexts above check identifier names.
	}
}

// checkCreateElement flags document.createElement("script"|"iframe")
// (spec §4.5): either tag can run attacker-controlled script once
// attached to the document, so the element type is checked at the call
// site rather than waiting for an assignment or insertion to flag.
func (w *walker) checkCreateElement(call *ast.CallExpression) {
	dot, ok := call.Callee.(*ast.DotExpression)
	if !ok || memberChain(dot) != "document.createElement" {
		return
	}
	if len(call.ArgumentList) == 0 {
		return
	}
	lit, ok := call.ArgumentList[0].(*ast.StringLiteral)
	if !ok {
		return
	}
	if tag := strings.ToLower(strings.TrimSpace(lit.Value.String())); dangerousElementTags[tag] {
		w.flag("document.createElement(" + tag + ")")
	}
}

// checkCallTarget inspects a call/new callee for a direct or
// global-qualified reference to a blocked API, and for the comma-operator
// bypass form (0, BLOCKED)(...).
func (w *walker) checkCallTarget(callee ast.Expression) {
	if seq, ok := callee.(*ast.SequenceExpression); ok && len(seq.Sequence) > 0 {
		callee = seq.Sequence[len(seq.Sequence)-1]
	}
	switch n := callee.(type) {
	case *ast.Identifier:
		if blockedCalls[n.Name.String()] {
			w.flag(n.Name.String())
		}
	case *ast.DotExpression:
		chain := memberChain(n)
		name := n.Identifier.Name.String()
		if blockedCalls[name] {
			if base, ok := identifierName(n.Left); !ok || globalReceivers[base] {
				w.flag(chain)
			}
			return
		}
		if obfuscationPrimitives[chain] || blockedMemberChains[chain] {
			w.flag(chain)
		}
	}
}

// checkTimerStringBody flags setTimeout/setInterval called with a string
// or template-literal first argument (spec §4.5).
func (w *walker) checkTimerStringBody(call *ast.CallExpression) {
	name, ok := identifierName(call.Callee)
	if !ok {
		if dot, isDot := call.Callee.(*ast.DotExpression); isDot {
			name = dot.Identifier.Name.String()
		} else {
			return
		}
	}
	if name != "setTimeout" && name != "setInterval" {
		return
	}
	if len(call.ArgumentList) == 0 {
		return
	}
	switch call.ArgumentList[0].(type) {
	case *ast.StringLiteral, *ast.TemplateLiteral:
		w.flag(name + "(string)")
	}
}

func identifierName(e ast.Expression) (string, bool) {
	if id, ok := e.(*ast.Identifier); ok {
		return id.Name.String(), true
	}
	if _, ok := e.(*ast.ThisExpression); ok {
		return "this", true
	}
	return "", false
}

// memberChain renders a DotExpression chain as "a.b.c" for catalog lookup.
func memberChain(n *ast.DotExpression) string {
	base, _ := identifierName(n.Left)
	if base == "" {
		if inner, ok := n.Left.(*ast.DotExpression); ok {
			base = memberChain(inner)
		}
	}
	if base == "" {
		return n.Identifier.Name.String()
	}
	return base + "." + n.Identifier.Name.String()
}
