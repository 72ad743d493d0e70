package planner

import (
	"testing"

	"github.com/n9te9/federation-core/schema"
	"github.com/n9te9/graphql-parser/ast"
	"github.com/n9te9/graphql-parser/lexer"
	"github.com/n9te9/graphql-parser/parser"
)

func parseDoc(t *testing.T, src string) *ast.Document {
	t.Helper()
	l := lexer.New(src)
	p := parser.New(l)
	doc := p.ParseDocument()
	if len(p.Errors()) > 0 {
		t.Fatalf("parse error: %v", p.Errors())
	}
	return doc
}

func TestOperationFromDocument_ExpandsInlineFragmentsAndFragmentSpreads(t *testing.T) {
	doc := parseDoc(t, `
		query {
			product(upc: "1") {
				upc
				... on Product { name }
				...Weight
			}
		}
		fragment Weight on Product {
			weight
		}
	`)

	op, err := OperationFromDocument(doc, "")
	if err != nil {
		t.Fatalf("OperationFromDocument() error = %v", err)
	}
	if op.RootKind != schema.RootQuery {
		t.Errorf("RootKind = %v, want Query", op.RootKind)
	}
	if len(op.Selections) != 1 || op.Selections[0].Field.Name.String() != "product" {
		t.Fatalf("expected a single top-level product selection, got %+v", op.Selections)
	}

	sub := op.Selections[0].SubSelections
	names := map[string]bool{}
	for _, s := range sub {
		if s.Field != nil {
			names[s.Field.Name.String()] = true
			continue
		}
		if s.IsTypeCondition && s.TypeCondition == "Product" {
			for _, c := range s.SubSelections {
				if c.Field != nil {
					names[c.Field.Name.String()] = true
				}
			}
		}
	}
	if !names["upc"] || !names["name"] || !names["weight"] {
		t.Errorf("expected upc, plus name (from inline fragment) and weight (from fragment spread) under Product type-condition selections, got %+v", sub)
	}
}

func TestOperationFromDocument_RequiresOperationNameWhenAmbiguous(t *testing.T) {
	doc := parseDoc(t, `
		query A { a: __typename }
		query B { b: __typename }
	`)

	if _, err := OperationFromDocument(doc, ""); err == nil {
		t.Fatalf("expected an error when the document has multiple operations and no name is given")
	}

	op, err := OperationFromDocument(doc, "B")
	if err != nil {
		t.Fatalf("OperationFromDocument(name=B) error = %v", err)
	}
	if len(op.Selections) != 1 || op.Selections[0].Field.Alias.String() != "b" {
		t.Errorf("expected operation B's selection, got %+v", op.Selections)
	}
}
