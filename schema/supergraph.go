package schema

import (
	"fmt"

	"github.com/n9te9/graphql-parser/ast"
	"github.com/n9te9/graphql-parser/lexer"
	"github.com/n9te9/graphql-parser/parser"
)

// Supergraph is the output of composition (C1) and the input to the query
// graph builder (C2): a merged schema document plus the per-subgraph
// schemas it was merged from, which the planner still needs for
// subgraph-local field resolution.
type Supergraph struct {
	Schema    *ast.Document
	Subgraphs []*Subgraph
	// GraphEnumNames maps subgraph name -> join__Graph enum value.
	GraphEnumNames map[string]string
}

// ParseSupergraph parses a previously-composed supergraph SDL document
// (e.g. one loaded from disk by the planner CLI) without access to the
// original subgraph inputs. Subgraphs is left empty; callers needing
// subgraph-local facts must supply them separately.
func ParseSupergraph(sdl []byte) (*Supergraph, error) {
	l := lexer.New(string(sdl))
	p := parser.New(l)
	doc := p.ParseDocument()
	if len(p.Errors()) > 0 {
		return nil, fmt.Errorf("parse error: %v", p.Errors())
	}

	sg := &Supergraph{Schema: doc, GraphEnumNames: make(map[string]string)}
	sg.indexGraphEnum()
	return sg, nil
}

func (sg *Supergraph) indexGraphEnum() {
	for _, def := range sg.Schema.Definitions {
		enum, ok := def.(*ast.EnumTypeDefinition)
		if !ok || enum.Name.String() != "join__Graph" {
			continue
		}
		for _, v := range enum.Values {
			d := FindDirective(v.Directives, "join__graph")
			if d == nil {
				continue
			}
			name, _ := StringArgument(d, "name")
			sg.GraphEnumNames[name] = v.Name.String()
		}
	}
}

// SubgraphByName returns the original per-subgraph facade, if the
// supergraph retains it (i.e. it was produced by composition.Merge in this
// process rather than loaded from a persisted SDL file).
func (sg *Supergraph) SubgraphByName(name string) *Subgraph {
	for _, s := range sg.Subgraphs {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// ObjectType returns the merged ObjectTypeDefinition for name, if any.
func (sg *Supergraph) ObjectType(name string) (*ast.ObjectTypeDefinition, bool) {
	for _, def := range sg.Schema.Definitions {
		if o, ok := def.(*ast.ObjectTypeDefinition); ok && o.Name.String() == name {
			return o, true
		}
	}
	return nil, false
}

// InterfaceType returns the merged InterfaceTypeDefinition for name, if any.
func (sg *Supergraph) InterfaceType(name string) (*ast.InterfaceTypeDefinition, bool) {
	for _, def := range sg.Schema.Definitions {
		if i, ok := def.(*ast.InterfaceTypeDefinition); ok && i.Name.String() == name {
			return i, true
		}
	}
	return nil, false
}

// UnionType returns the merged UnionTypeDefinition for name, if any.
func (sg *Supergraph) UnionType(name string) (*ast.UnionTypeDefinition, bool) {
	for _, def := range sg.Schema.Definitions {
		if u, ok := def.(*ast.UnionTypeDefinition); ok && u.Name.String() == name {
			return u, true
		}
	}
	return nil, false
}

// IsCompositeType reports whether name names an object, interface, or union
// type in the supergraph (a type that can carry a selection set).
func (sg *Supergraph) IsCompositeType(name string) bool {
	if _, ok := sg.ObjectType(name); ok {
		return true
	}
	if _, ok := sg.InterfaceType(name); ok {
		return true
	}
	if _, ok := sg.UnionType(name); ok {
		return true
	}
	return false
}

// IsAbstractType reports whether name is an interface or union.
func (sg *Supergraph) IsAbstractType(name string) bool {
	if _, ok := sg.InterfaceType(name); ok {
		return true
	}
	if _, ok := sg.UnionType(name); ok {
		return true
	}
	return false
}

// PossibleTypes returns the concrete object-type names that can appear at
// an abstract type position: implementors for an interface, members for a
// union, or {name} itself for an object type.
func (sg *Supergraph) PossibleTypes(name string) []string {
	if u, ok := sg.UnionType(name); ok {
		out := make([]string, 0, len(u.Types))
		for _, t := range u.Types {
			out = append(out, t.Name.String())
		}
		return out
	}

	if _, ok := sg.InterfaceType(name); ok {
		var out []string
		for _, def := range sg.Schema.Definitions {
			o, ok := def.(*ast.ObjectTypeDefinition)
			if !ok {
				continue
			}
			for _, impl := range o.Interfaces {
				if impl.Name.String() == name {
					out = append(out, o.Name.String())
					break
				}
			}
		}
		return out
	}

	if _, ok := sg.ObjectType(name); ok {
		return []string{name}
	}

	return nil
}

// FieldType returns the declared type of typeName.fieldName across object
// and interface definitions, including the built-in __typename.
func (sg *Supergraph) FieldType(typeName, fieldName string) (ast.Type, bool) {
	if fieldName == "__typename" {
		return &ast.NonNullType{Type: &ast.NamedType{Name: ast.Name("String")}}, true
	}

	if o, ok := sg.ObjectType(typeName); ok {
		for _, f := range o.Fields {
			if f.Name.String() == fieldName {
				return f.Type, true
			}
		}
	}
	if i, ok := sg.InterfaceType(typeName); ok {
		for _, f := range i.Fields {
			if f.Name.String() == fieldName {
				return f.Type, true
			}
		}
	}
	return nil, false
}

// RootTypeName returns the concrete type name for a root operation kind, as
// declared by the supergraph's schema { ... } block (defaulting to the
// conventional Query/Mutation/Subscription names).
func (sg *Supergraph) RootTypeName(kind RootKind) string {
	for _, def := range sg.Schema.Definitions {
		sd, ok := def.(*ast.SchemaDefinition)
		if !ok {
			continue
		}
		for _, ot := range sd.OperationTypes {
			if ot.Operation == kind.token() {
				return ot.Type.Name.String()
			}
		}
	}
	return kind.defaultTypeName()
}

// JoinTypeApplications returns every @join__type application on the merged
// definition named typeName, in supergraph emission order.
func JoinTypeApplications(directives []*ast.Directive) []*ast.Directive {
	return FindDirectives(directives, "join__type")
}

// JoinFieldApplications returns every @join__field application on a merged
// field definition.
func JoinFieldApplications(field *ast.FieldDefinition) []*ast.Directive {
	return FindDirectives(field.Directives, "join__field")
}
