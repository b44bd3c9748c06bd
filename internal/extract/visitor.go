package extract

import (
	"fmt"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"constbox/internal/errors"
)

// visitor performs a pre-order walk of one syntax tree, tracking the
// enclosing-namespace stack. The node-kind set is closed: module, class and
// constant assignment introduce Definitions, constant / scope_resolution
// tokens produce References, and every other kind recurses generically so
// nested forms anywhere in a subtree are still found.
type visitor struct {
	source []byte
	file   string
	deny   DenySet
	stack  []string
	out    FileResult
}

func (v *visitor) walk(node *sitter.Node) error {
	switch node.Kind() {
	case "module":
		return v.onModule(node)
	case "class":
		return v.onClass(node)
	case "assignment", "operator_assignment":
		return v.onAssignment(node)
	case "constant", "scope_resolution":
		return v.onConstant(node)
	default:
		return v.walkChildren(node)
	}
}

func (v *visitor) walkChildren(node *sitter.Node) error {
	for i := uint(0); i < node.NamedChildCount(); i++ {
		if err := v.walk(node.NamedChild(i)); err != nil {
			return err
		}
	}
	return nil
}

func (v *visitor) onModule(node *sitter.Node) error {
	name, err := v.declaredName(node)
	if err != nil {
		return err
	}
	v.defineScope(node, name)

	v.stack = append(v.stack, name)
	err = v.walkField(node, "body")
	v.stack = v.stack[:len(v.stack)-1]
	return err
}

func (v *visitor) onClass(node *sitter.Node) error {
	name, err := v.declaredName(node)
	if err != nil {
		return err
	}
	v.defineScope(node, name)

	// The superclass expression is visited with the class already on the
	// stack, so `class Foo < Bar` records Bar with caller ...::Foo.
	v.stack = append(v.stack, name)
	err = v.walkField(node, "superclass")
	if err == nil {
		err = v.walkField(node, "body")
	}
	v.stack = v.stack[:len(v.stack)-1]
	return err
}

// defineScope records a Definition for a namespace-introducing node at its
// keyword position, with extent covering the body span.
func (v *visitor) defineScope(node *sitter.Node, name string) {
	v.out.Definitions = append(v.out.Definitions, Definition{
		Namespace: v.qualified(name),
		File:      v.file,
		Line:      int(node.StartPosition().Row) + 1,
		Extent:    int(node.EndPosition().Row-node.StartPosition().Row) + 1,
	})
}

func (v *visitor) onAssignment(node *sitter.Node) error {
	left := node.ChildByFieldName("left")
	if left == nil {
		return v.walkChildren(node)
	}
	switch left.Kind() {
	case "constant", "scope_resolution":
	default:
		// Not a constant assignment; plain variable targets and the
		// assigned value are walked generically.
		return v.walkChildren(node)
	}

	quals, name, err := v.scopedName(left)
	if err != nil {
		return err
	}
	// Explicit qualifiers on an assignment target are kept in collection
	// order (innermost first). References reverse the chain; assignment
	// targets never did, and recorded corpora depend on the strings.
	segs := make([]string, 0, len(v.stack)+len(quals)+1)
	segs = append(segs, v.stack...)
	segs = append(segs, quals...)
	segs = append(segs, name)

	nameNode := left
	if left.Kind() == "scope_resolution" {
		if n := left.ChildByFieldName("name"); n != nil {
			nameNode = n
		}
	}
	v.out.Definitions = append(v.out.Definitions, Definition{
		Namespace: strings.Join(segs, Separator),
		File:      v.file,
		Line:      int(nameNode.StartPosition().Row) + 1,
		Extent:    1,
	})
	// For a plain assignment the value is not descended into. Operator
	// assignments (X ||= ...) still have their value walked.
	if node.Kind() == "operator_assignment" {
		return v.walkField(node, "right")
	}
	return nil
}

func (v *visitor) onConstant(node *sitter.Node) error {
	quals, name, err := v.scopedName(node)
	if err != nil {
		return err
	}
	// Rebuild the token as written: qualifiers were collected innermost
	// first, the written order is outermost first.
	for i, j := 0, len(quals)-1; i < j; i, j = i+1, j-1 {
		quals[i], quals[j] = quals[j], quals[i]
	}
	token := strings.Join(append(quals, name), Separator)
	if v.deny.Contains(token) {
		// Built-in names produce nothing and are never descended into.
		return nil
	}
	v.out.References = append(v.out.References, Reference{
		Namespace:       token,
		CallerNamespace: strings.Join(v.stack, Separator),
		File:            v.file,
		Line:            int(node.StartPosition().Row) + 1,
	})
	return nil
}

// declaredName resolves the name of a module/class node to its final
// segment. A name node that is not a constant path is a structural
// assumption violation and aborts the run.
func (v *visitor) declaredName(node *sitter.Node) (string, error) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return "", v.structural(node, "declaration has no name node")
	}
	switch nameNode.Kind() {
	case "constant":
		return v.text(nameNode), nil
	case "scope_resolution":
		inner := nameNode.ChildByFieldName("name")
		if inner == nil {
			return "", v.structural(nameNode, "scoped name has no final segment")
		}
		return v.text(inner), nil
	default:
		return "", v.structural(nameNode, fmt.Sprintf("assumed name node was a constant but found %s", nameNode.Kind()))
	}
}

// scopedName splits a constant or scope_resolution node into its explicit
// scope qualifiers (collected innermost first) and final name.
func (v *visitor) scopedName(node *sitter.Node) ([]string, string, error) {
	if node.Kind() == "constant" {
		return nil, v.text(node), nil
	}
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil, "", v.structural(node, "scoped name has no final segment")
	}
	var quals []string
	for cur := node.ChildByFieldName("scope"); cur != nil; {
		switch cur.Kind() {
		case "scope_resolution":
			if n := cur.ChildByFieldName("name"); n != nil {
				quals = append(quals, v.text(n))
			}
			cur = cur.ChildByFieldName("scope")
		case "constant":
			quals = append(quals, v.text(cur))
			cur = nil
		default:
			// self::C and friends; the runtime-valued part of the
			// chain is dropped, only literal constants remain.
			cur = nil
		}
	}
	return quals, v.text(nameNode), nil
}

func (v *visitor) qualified(name string) string {
	if len(v.stack) == 0 {
		return name
	}
	return strings.Join(v.stack, Separator) + Separator + name
}

func (v *visitor) walkField(node *sitter.Node, field string) error {
	child := node.ChildByFieldName(field)
	if child == nil {
		return nil
	}
	return v.walk(child)
}

func (v *visitor) text(node *sitter.Node) string {
	return string(v.source[node.StartByte():node.EndByte()])
}

func (v *visitor) structural(node *sitter.Node, msg string) error {
	err := errors.New(errors.CodeParse, msg)
	err = errors.AddContext(err, errors.CtxPath, v.file)
	return errors.AddContext(err, "line", int(node.StartPosition().Row)+1)
}
