package graph

import (
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
)

// Complexity weights.
const (
	scalarCost = 1
	objectCost = 0
	listFactor = 10
)

func isIntrospectionField(name string) bool {
	return strings.HasPrefix(name, "__")
}

// operationDepth returns the nesting depth of the deepest field. Root fields
// sit at depth 0.
func operationDepth(op *ast.OperationDefinition) int {
	return selectionDepth(op.SelectionSet, 0)
}

func selectionDepth(set ast.SelectionSet, level int) int {
	deepest := level
	for _, sel := range set {
		var d int
		switch s := sel.(type) {
		case *ast.Field:
			if isIntrospectionField(s.Name) {
				continue
			}
			if len(s.SelectionSet) == 0 {
				d = level
			} else {
				d = selectionDepth(s.SelectionSet, level+1)
			}
		case *ast.FragmentSpread:
			if s.Definition == nil {
				continue
			}
			d = selectionDepth(s.Definition.SelectionSet, level)
		case *ast.InlineFragment:
			d = selectionDepth(s.SelectionSet, level)
		}
		if d > deepest {
			deepest = d
		}
	}
	return deepest
}

// operationComplexity scores an operation: leaves cost scalarCost, objects
// objectCost plus their selections, and every list wrapper multiplies the
// field's cost by listFactor.
func operationComplexity(op *ast.OperationDefinition) int {
	return selectionComplexity(op.SelectionSet)
}

func selectionComplexity(set ast.SelectionSet) int {
	total := 0
	for _, sel := range set {
		switch s := sel.(type) {
		case *ast.Field:
			total += fieldComplexity(s)
		case *ast.FragmentSpread:
			if s.Definition != nil {
				total += selectionComplexity(s.Definition.SelectionSet)
			}
		case *ast.InlineFragment:
			total += selectionComplexity(s.SelectionSet)
		}
	}
	return total
}

func fieldComplexity(f *ast.Field) int {
	if isIntrospectionField(f.Name) {
		return 0
	}
	cost := scalarCost
	if len(f.SelectionSet) > 0 {
		cost = objectCost + selectionComplexity(f.SelectionSet)
	}
	if f.Definition != nil {
		for t := f.Definition.Type; t != nil; t = t.Elem {
			if t.Elem != nil {
				cost *= listFactor
			}
		}
	}
	return cost
}

// usesIntrospection reports whether the operation selects __schema or __type
// anywhere, fragments included.
func usesIntrospection(set ast.SelectionSet) bool {
	for _, sel := range set {
		switch s := sel.(type) {
		case *ast.Field:
			if s.Name == "__schema" || s.Name == "__type" {
				return true
			}
			if usesIntrospection(s.SelectionSet) {
				return true
			}
		case *ast.FragmentSpread:
			if s.Definition != nil && usesIntrospection(s.Definition.SelectionSet) {
				return true
			}
		case *ast.InlineFragment:
			if usesIntrospection(s.SelectionSet) {
				return true
			}
		}
	}
	return false
}
