package planner

import (
	"fmt"

	"github.com/n9te9/federation-core/schema"
	"github.com/n9te9/graphql-parser/ast"
)

// OperationFromDocument implements the planner-facing half of §6's "Planner
// input": given a validated executable operation document and an optional
// operation name, it expands fragment spreads/inline fragments into the
// normalized Selection tree Plan consumes. Validation of the document
// itself (the parser/validator of §1) is assumed to have already happened;
// this function only reshapes an already-valid document.
func OperationFromDocument(doc *ast.Document, operationName string) (Operation, error) {
	op, err := findOperation(doc, operationName)
	if err != nil {
		return Operation{}, err
	}

	fragments := collectFragments(doc)
	kind, err := rootKindOf(op)
	if err != nil {
		return Operation{}, err
	}

	sels, err := expandSelections(op.SelectionSet, fragments, map[string]bool{})
	if err != nil {
		return Operation{}, err
	}

	return Operation{RootKind: kind, Selections: sels}, nil
}

func findOperation(doc *ast.Document, name string) (*ast.OperationDefinition, error) {
	var found *ast.OperationDefinition
	var only *ast.OperationDefinition
	count := 0
	for _, def := range doc.Definitions {
		op, ok := def.(*ast.OperationDefinition)
		if !ok {
			continue
		}
		count++
		only = op
		if name != "" && op.Name != nil && op.Name.String() == name {
			found = op
		}
	}
	if name != "" {
		if found == nil {
			return nil, fmt.Errorf("no operation named %q in document", name)
		}
		return found, nil
	}
	if count != 1 {
		return nil, fmt.Errorf("document must contain exactly one operation when no operation name is given, found %d", count)
	}
	return only, nil
}

func rootKindOf(op *ast.OperationDefinition) (schema.RootKind, error) {
	switch op.Operation {
	case ast.Query:
		return schema.RootQuery, nil
	case ast.Mutation:
		return schema.RootMutation, nil
	case ast.Subscription:
		return schema.RootSubscription, nil
	default:
		return schema.RootQuery, fmt.Errorf("unknown operation kind %v", op.Operation)
	}
}

func collectFragments(doc *ast.Document) map[string]*ast.FragmentDefinition {
	out := make(map[string]*ast.FragmentDefinition)
	for _, def := range doc.Definitions {
		if f, ok := def.(*ast.FragmentDefinition); ok {
			out[f.Name.String()] = f
		}
	}
	return out
}

// expandSelections converts a parser selection set into the planner's
// normalized Selection tree, inlining fragment spreads and inline
// fragments into explicit type-condition selections (§3 "Graph path ... an
// OpPathElement"). inProgress guards against cyclic fragment spreads.
func expandSelections(sels []ast.Selection, fragments map[string]*ast.FragmentDefinition, inProgress map[string]bool) ([]Selection, error) {
	var out []Selection
	for _, s := range sels {
		switch sel := s.(type) {
		case *ast.Field:
			children, err := expandSelections(sel.SelectionSet, fragments, inProgress)
			if err != nil {
				return nil, err
			}
			out = append(out, Selection{
				Field:         sel,
				DeferLabel:    deferLabelOf(sel.Directives),
				SubSelections: children,
			})
		case *ast.InlineFragment:
			if sel.TypeCondition == nil {
				children, err := expandSelections(sel.SelectionSet, fragments, inProgress)
				if err != nil {
					return nil, err
				}
				out = append(out, children...)
				continue
			}
			typeName := sel.TypeCondition.Name.String()
			children, err := expandSelections(sel.SelectionSet, fragments, inProgress)
			if err != nil {
				return nil, err
			}
			out = append(out, Selection{
				IsTypeCondition: true,
				TypeCondition:   typeName,
				DeferLabel:      deferLabelOf(sel.Directives),
				SubSelections:   children,
			})
		case *ast.FragmentSpread:
			name := sel.Name.String()
			if inProgress[name] {
				return nil, fmt.Errorf("cyclic fragment spread on %q", name)
			}
			frag, ok := fragments[name]
			if !ok {
				return nil, fmt.Errorf("fragment %q not found", name)
			}
			inProgress[name] = true
			children, err := expandSelections(frag.SelectionSet, fragments, inProgress)
			delete(inProgress, name)
			if err != nil {
				return nil, err
			}
			out = append(out, Selection{
				IsTypeCondition: true,
				TypeCondition:   frag.TypeCondition.Name.String(),
				DeferLabel:      deferLabelOf(sel.Directives),
				SubSelections:   children,
			})
		}
	}
	return out, nil
}

// deferLabelOf extracts the @defer(label:) argument, if present, from a
// field or fragment's directive list (§6 "Defer{primary, deferred:
// [{label, path, subselection, node}]}").
func deferLabelOf(directives []*ast.Directive) string {
	d := schema.FindDirective(directives, "defer")
	if d == nil {
		return ""
	}
	label, _ := schema.StringArgument(d, "label")
	return label
}
