package schema

import "github.com/n9te9/graphql-parser/ast"

// TypeKind classifies a type-system definition the way the composition
// merger needs to (§4.1 phase 3: "create a stub of the same kind").
type TypeKind int

const (
	KindUnknown TypeKind = iota
	KindObject
	KindInterface
	KindUnion
	KindEnum
	KindInputObject
	KindScalar
)

func (k TypeKind) String() string {
	switch k {
	case KindObject:
		return "OBJECT"
	case KindInterface:
		return "INTERFACE"
	case KindUnion:
		return "UNION"
	case KindEnum:
		return "ENUM"
	case KindInputObject:
		return "INPUT_OBJECT"
	case KindScalar:
		return "SCALAR"
	default:
		return "UNKNOWN"
	}
}

// DefinitionName returns the type name carried by any top-level type
// definition or extension node, or "" for definitions without one (schema
// definitions, directive definitions).
func DefinitionName(def ast.Definition) string {
	switch d := def.(type) {
	case *ast.ObjectTypeDefinition:
		return d.Name.String()
	case *ast.ObjectTypeExtension:
		return d.Name.String()
	case *ast.InterfaceTypeDefinition:
		return d.Name.String()
	case *ast.UnionTypeDefinition:
		return d.Name.String()
	case *ast.EnumTypeDefinition:
		return d.Name.String()
	case *ast.InputObjectTypeDefinition:
		return d.Name.String()
	case *ast.ScalarTypeDefinition:
		return d.Name.String()
	default:
		return ""
	}
}

// KindOf classifies def the way the merger needs (§4.1 phase 3).
func KindOf(def ast.Definition) TypeKind {
	switch def.(type) {
	case *ast.ObjectTypeDefinition, *ast.ObjectTypeExtension:
		return KindObject
	case *ast.InterfaceTypeDefinition:
		return KindInterface
	case *ast.UnionTypeDefinition:
		return KindUnion
	case *ast.EnumTypeDefinition:
		return KindEnum
	case *ast.InputObjectTypeDefinition:
		return KindInputObject
	case *ast.ScalarTypeDefinition:
		return KindScalar
	default:
		return KindUnknown
	}
}

// DirectivesOf returns the directive applications on a type-level
// definition, regardless of which concrete node kind it is.
func DirectivesOf(def ast.Definition) []*ast.Directive {
	switch d := def.(type) {
	case *ast.ObjectTypeDefinition:
		return d.Directives
	case *ast.ObjectTypeExtension:
		return d.Directives
	case *ast.InterfaceTypeDefinition:
		return d.Directives
	case *ast.UnionTypeDefinition:
		return d.Directives
	case *ast.EnumTypeDefinition:
		return d.Directives
	case *ast.InputObjectTypeDefinition:
		return d.Directives
	case *ast.ScalarTypeDefinition:
		return d.Directives
	default:
		return nil
	}
}

// DescriptionOf returns the doc-comment text attached to a type-level
// definition, or "" if it carries none. Used by the merger's "first
// non-null wins, conflict emits a hint" description-merge rule (§4.1 phase
// 3).
func DescriptionOf(def ast.Definition) string {
	switch d := def.(type) {
	case *ast.ObjectTypeDefinition:
		return d.Description
	case *ast.ObjectTypeExtension:
		return ""
	case *ast.InterfaceTypeDefinition:
		return d.Description
	case *ast.UnionTypeDefinition:
		return d.Description
	case *ast.EnumTypeDefinition:
		return d.Description
	case *ast.InputObjectTypeDefinition:
		return d.Description
	case *ast.ScalarTypeDefinition:
		return d.Description
	default:
		return ""
	}
}

// FieldsOf returns the field definitions of an object/interface-shaped
// definition, or nil for kinds without fields.
func FieldsOf(def ast.Definition) []*ast.FieldDefinition {
	switch d := def.(type) {
	case *ast.ObjectTypeDefinition:
		return d.Fields
	case *ast.ObjectTypeExtension:
		return d.Fields
	case *ast.InterfaceTypeDefinition:
		return d.Fields
	default:
		return nil
	}
}

// ImplementsOf returns the interface list of an object-shaped definition.
func ImplementsOf(def ast.Definition) []*ast.NamedType {
	switch d := def.(type) {
	case *ast.ObjectTypeDefinition:
		return d.Interfaces
	case *ast.ObjectTypeExtension:
		return d.Interfaces
	default:
		return nil
	}
}

// FindDirective returns the first application of the named directive, or
// nil if absent.
func FindDirective(directives []*ast.Directive, name string) *ast.Directive {
	for _, d := range directives {
		if d.Name == name {
			return d
		}
	}
	return nil
}

// FindDirectives returns every application of the named directive (a field
// or type can carry a repeatable directive, e.g. multiple @key).
func FindDirectives(directives []*ast.Directive, name string) []*ast.Directive {
	var out []*ast.Directive
	for _, d := range directives {
		if d.Name == name {
			out = append(out, d)
		}
	}
	return out
}

// StringArgument returns the string value of a directive argument, unquoted.
func StringArgument(d *ast.Directive, name string) (string, bool) {
	for _, arg := range d.Arguments {
		if arg.Name.String() == name {
			return NormalizeFieldSetValue(arg.Value), true
		}
	}
	return "", false
}

// BoolArgument returns the boolean value of a directive argument.
func BoolArgument(d *ast.Directive, name string) (bool, bool) {
	for _, arg := range d.Arguments {
		if arg.Name.String() == name {
			if bv, ok := arg.Value.(*ast.BooleanValue); ok {
				return bool(*bv), true
			}
			return arg.Value.String() == "true", true
		}
	}
	return false, false
}

// NamedTypeName unwraps List/NonNull wrappers down to the named type.
func NamedTypeName(t ast.Type) string {
	switch typ := t.(type) {
	case *ast.NamedType:
		return typ.Name.String()
	case *ast.ListType:
		return NamedTypeName(typ.Type)
	case *ast.NonNullType:
		return NamedTypeName(typ.Type)
	default:
		return ""
	}
}

// IsNonNull reports whether t is (transitively, through List) non-null at
// its outermost position.
func IsNonNull(t ast.Type) bool {
	_, ok := t.(*ast.NonNullType)
	return ok
}
