package schema

import (
	"fmt"
	"strings"

	"github.com/n9te9/graphql-parser/ast"
	"github.com/n9te9/graphql-parser/lexer"
	"github.com/n9te9/graphql-parser/parser"
)

// FieldSet is the parsed form of a join__FieldSet scalar value: the
// selection syntax accepted by @key, @requires, and @provides, e.g. "id" or
// "id sku { upc }" (§6).
type FieldSet struct {
	Raw        string
	Selections []ast.Selection
}

// ParseFieldSet parses a field-set scalar value against typeName, wrapping it
// in a throwaway fragment so the host grammar's ordinary selection-set
// parser does the work. An empty value parses to an empty, non-nil FieldSet.
func ParseFieldSet(typeName, value string) (*FieldSet, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return &FieldSet{Raw: value}, nil
	}

	src := fmt.Sprintf("fragment FieldSet_ on %s { %s }", typeName, value)
	l := lexer.New(src)
	p := parser.New(l)
	doc := p.ParseDocument()
	if len(p.Errors()) > 0 {
		return nil, fmt.Errorf("invalid field set %q on %s: %v", value, typeName, p.Errors())
	}

	for _, def := range doc.Definitions {
		if frag, ok := def.(*ast.FragmentDefinition); ok {
			return &FieldSet{Raw: value, Selections: frag.SelectionSet}, nil
		}
	}

	return nil, fmt.Errorf("invalid field set %q on %s: no selections produced", value, typeName)
}

// NormalizeFieldSetValue coerces a @key/@requires/@provides "fields:"
// argument given as a list of strings or an enum into the single
// space-separated string form v2 subgraphs use (schema upgrader step 1).
func NormalizeFieldSetValue(raw ast.Value) string {
	switch v := raw.(type) {
	case *ast.ListValue:
		parts := make([]string, 0, len(v.Values))
		for _, item := range v.Values {
			parts = append(parts, strings.Trim(item.String(), `"`))
		}
		return strings.Join(parts, " ")
	default:
		return strings.Trim(raw.String(), `"`)
	}
}

// TopLevelFieldNames returns the names of the selections at the top level of
// the field set, ignoring nested sub-selections and inline fragments. It is
// the identity of a @key's field set used for representation construction.
func (fs *FieldSet) TopLevelFieldNames() []string {
	if fs == nil {
		return nil
	}

	names := make([]string, 0, len(fs.Selections))
	for _, sel := range fs.Selections {
		if f, ok := sel.(*ast.Field); ok {
			names = append(names, f.Name.String())
		}
	}
	return names
}

// String renders the field set back to its space-separated scalar form,
// used both when re-emitting @key/@requires/@provides arguments in the
// supergraph and when building the debug Fetch(...) serialization (§6).
func (fs *FieldSet) String() string {
	if fs == nil {
		return ""
	}
	return fs.Raw
}

// IsEmpty reports whether the field set carries no selections.
func (fs *FieldSet) IsEmpty() bool {
	return fs == nil || len(fs.Selections) == 0
}

// ReferencesField reports whether the field set, at any depth, selects a
// field named fieldName. Used by the upgrader's
// remove_inactive_requires_and_provides_from_subgraph equivalent and by the
// planner to decide whether a condition touches external fields.
func (fs *FieldSet) ReferencesField(fieldName string) bool {
	if fs == nil {
		return false
	}
	return selectionsReferenceField(fs.Selections, fieldName)
}

func selectionsReferenceField(sels []ast.Selection, fieldName string) bool {
	for _, sel := range sels {
		switch s := sel.(type) {
		case *ast.Field:
			if s.Name.String() == fieldName {
				return true
			}
			if selectionsReferenceField(s.SelectionSet, fieldName) {
				return true
			}
		case *ast.InlineFragment:
			if selectionsReferenceField(s.SelectionSet, fieldName) {
				return true
			}
		}
	}
	return false
}
