package composition

import (
	"fmt"

	"github.com/n9te9/graphql-parser/ast"
)

// These builders mirror, field for field, the directive-definition and
// applied-directive shapes apollo-federation's merge.rs builds in
// add_core_feature_link/add_core_feature_join and the join_*_applied_directive
// helpers (see SPEC_FULL.md "Supplemented features").

func namedType(name string) *ast.NamedType { return &ast.NamedType{Name: ast.Name(name)} }

func nonNull(t ast.Type) ast.Type { return &ast.NonNullType{Type: t} }

func listOf(t ast.Type) ast.Type { return &ast.ListType{Type: t} }

func stringArg(name, value string) *ast.Argument {
	return &ast.Argument{Name: ast.Name(name), Value: &ast.StringValue{Value: value}}
}

func boolArg(name string, value bool) *ast.Argument {
	return &ast.Argument{Name: ast.Name(name), Value: ast.BooleanValue(value).Ptr()}
}

func enumArg(name, value string) *ast.Argument {
	return &ast.Argument{Name: ast.Name(name), Value: &ast.EnumValue{Value: value}}
}

// linkDirective builds @link(url: "...", for: PURPOSE?).
func linkDirective(url string, forExecution bool) *ast.Directive {
	args := []*ast.Argument{stringArg("url", url)}
	if forExecution {
		args = append(args, enumArg("for", "EXECUTION"))
	}
	return &ast.Directive{Name: "link", Arguments: args}
}

const (
	linkSpecURL = "https://specs.apollo.dev/link/v1.0"
	joinSpecURL = "https://specs.apollo.dev/join/v0.3"
)

// schemaDefinitionDirectives returns the @link applications placed on the
// supergraph's schema definition (§4.1 phase 2).
func schemaDefinitionDirectives() []*ast.Directive {
	return []*ast.Directive{
		linkDirective(linkSpecURL, false),
		linkDirective(joinSpecURL, true),
	}
}

// coreFeatureDefinitions returns the directive/scalar/enum definitions
// every supergraph must carry for the link and join core features (§4.1
// phase 2, §6 "Required directive definitions").
func coreFeatureDefinitions() []ast.Definition {
	return []ast.Definition{
		linkPurposeEnum(),
		linkImportScalar(),
		linkDirectiveDefinition(),
		joinFieldSetScalar(),
		joinGraphDirectiveDefinition(),
		joinTypeDirectiveDefinition(),
		joinFieldDirectiveDefinition(),
		joinImplementsDirectiveDefinition(),
		joinUnionMemberDirectiveDefinition(),
		joinEnumValueDirectiveDefinition(),
	}
}

func linkPurposeEnum() *ast.EnumTypeDefinition {
	return &ast.EnumTypeDefinition{
		Name: ast.Name("link__Purpose"),
		Values: []*ast.EnumValueDefinition{
			{Name: ast.Name("SECURITY")},
			{Name: ast.Name("EXECUTION")},
		},
	}
}

func linkImportScalar() *ast.ScalarTypeDefinition {
	return &ast.ScalarTypeDefinition{Name: ast.Name("link__Import")}
}

func joinFieldSetScalar() *ast.ScalarTypeDefinition {
	return &ast.ScalarTypeDefinition{Name: ast.Name("join__FieldSet")}
}

func linkDirectiveDefinition() *ast.DirectiveDefinition {
	return &ast.DirectiveDefinition{
		Name: ast.Name("link"),
		Arguments: []*ast.InputValueDefinition{
			{Name: ast.Name("url"), Type: namedType("String")},
			{Name: ast.Name("as"), Type: namedType("String")},
			{Name: ast.Name("for"), Type: namedType("link__Purpose")},
			{Name: ast.Name("import"), Type: listOf(namedType("link__Import"))},
		},
		Locations: []string{"SCHEMA"},
		Repeatable: true,
	}
}

func joinGraphDirectiveDefinition() *ast.DirectiveDefinition {
	return &ast.DirectiveDefinition{
		Name: ast.Name("join__graph"),
		Arguments: []*ast.InputValueDefinition{
			{Name: ast.Name("name"), Type: nonNull(namedType("String"))},
			{Name: ast.Name("url"), Type: nonNull(namedType("String"))},
		},
		Locations: []string{"ENUM_VALUE"},
	}
}

func joinTypeDirectiveDefinition() *ast.DirectiveDefinition {
	return &ast.DirectiveDefinition{
		Name: ast.Name("join__type"),
		Arguments: []*ast.InputValueDefinition{
			{Name: ast.Name("graph"), Type: nonNull(namedType("join__Graph"))},
			{Name: ast.Name("key"), Type: namedType("join__FieldSet")},
			{Name: ast.Name("extension"), Type: namedType("Boolean")},
			{Name: ast.Name("resolvable"), Type: namedType("Boolean")},
			{Name: ast.Name("isInterfaceObject"), Type: namedType("Boolean")},
		},
		Locations:  []string{"OBJECT", "INTERFACE", "UNION", "ENUM", "INPUT_OBJECT", "SCALAR"},
		Repeatable: true,
	}
}

func joinFieldDirectiveDefinition() *ast.DirectiveDefinition {
	return &ast.DirectiveDefinition{
		Name: ast.Name("join__field"),
		Arguments: []*ast.InputValueDefinition{
			{Name: ast.Name("graph"), Type: namedType("join__Graph")},
			{Name: ast.Name("requires"), Type: namedType("join__FieldSet")},
			{Name: ast.Name("provides"), Type: namedType("join__FieldSet")},
			{Name: ast.Name("type"), Type: namedType("String")},
			{Name: ast.Name("external"), Type: namedType("Boolean")},
			{Name: ast.Name("override"), Type: namedType("String")},
			{Name: ast.Name("usedOverridden"), Type: namedType("Boolean")},
		},
		Locations:  []string{"FIELD_DEFINITION", "INPUT_FIELD_DEFINITION"},
		Repeatable: true,
	}
}

func joinImplementsDirectiveDefinition() *ast.DirectiveDefinition {
	return &ast.DirectiveDefinition{
		Name: ast.Name("join__implements"),
		Arguments: []*ast.InputValueDefinition{
			{Name: ast.Name("graph"), Type: nonNull(namedType("join__Graph"))},
			{Name: ast.Name("interface"), Type: nonNull(namedType("String"))},
		},
		Locations:  []string{"OBJECT", "INTERFACE"},
		Repeatable: true,
	}
}

func joinUnionMemberDirectiveDefinition() *ast.DirectiveDefinition {
	return &ast.DirectiveDefinition{
		Name: ast.Name("join__unionMember"),
		Arguments: []*ast.InputValueDefinition{
			{Name: ast.Name("graph"), Type: nonNull(namedType("join__Graph"))},
			{Name: ast.Name("member"), Type: nonNull(namedType("String"))},
		},
		Locations:  []string{"UNION"},
		Repeatable: true,
	}
}

func joinEnumValueDirectiveDefinition() *ast.DirectiveDefinition {
	return &ast.DirectiveDefinition{
		Name: ast.Name("join__enumValue"),
		Arguments: []*ast.InputValueDefinition{
			{Name: ast.Name("graph"), Type: nonNull(namedType("join__Graph"))},
		},
		Locations:  []string{"ENUM_VALUE"},
		Repeatable: true,
	}
}

// joinGraphEnum builds the join__Graph enum with one value per subgraph,
// each carrying @join__graph(name:, url:) (§6).
func joinGraphEnum(names []string, enumValue map[string]string, urls map[string]string) *ast.EnumTypeDefinition {
	values := make([]*ast.EnumValueDefinition, 0, len(names))
	for _, name := range names {
		values = append(values, &ast.EnumValueDefinition{
			Name: ast.Name(enumValue[name]),
			Directives: []*ast.Directive{{
				Name: "join__graph",
				Arguments: []*ast.Argument{
					stringArg("name", name),
					stringArg("url", urls[name]),
				},
			}},
		})
	}
	return &ast.EnumTypeDefinition{Name: ast.Name("join__Graph"), Values: values}
}

// joinTypeApplication builds one @join__type(graph: G[, key: "...",
// resolvable: B, extension: B, isInterfaceObject: B]) application.
func joinTypeApplication(graphEnumValue string, key string, resolvable, extension, isInterfaceObject bool, hasKey bool) *ast.Directive {
	args := []*ast.Argument{{Name: ast.Name("graph"), Value: &ast.EnumValue{Value: graphEnumValue}}}
	if hasKey {
		args = append(args, stringArg("key", key))
		if !resolvable {
			args = append(args, boolArg("resolvable", false))
		}
	}
	if extension {
		args = append(args, boolArg("extension", true))
	}
	if isInterfaceObject {
		args = append(args, boolArg("isInterfaceObject", true))
	}
	return &ast.Directive{Name: "join__type", Arguments: args}
}

// joinFieldApplication builds one @join__field(graph:, requires:, provides:,
// external:, override:, usedOverridden:) application. graph is omitted
// (empty string) for the @fromContext-only shape; that case does not arise
// in this spec's scope and graph is always populated here.
func joinFieldApplication(graphEnumValue, requires, provides string, external bool, override string, usedOverridden bool) *ast.Directive {
	args := []*ast.Argument{{Name: ast.Name("graph"), Value: &ast.EnumValue{Value: graphEnumValue}}}
	if requires != "" {
		args = append(args, stringArg("requires", requires))
	}
	if provides != "" {
		args = append(args, stringArg("provides", provides))
	}
	if external {
		args = append(args, boolArg("external", true))
	}
	if override != "" {
		args = append(args, stringArg("override", override))
	}
	if usedOverridden {
		args = append(args, boolArg("usedOverridden", true))
	}
	return &ast.Directive{Name: "join__field", Arguments: args}
}

func joinImplementsApplication(graphEnumValue, interfaceName string) *ast.Directive {
	return &ast.Directive{
		Name: "join__implements",
		Arguments: []*ast.Argument{
			{Name: ast.Name("graph"), Value: &ast.EnumValue{Value: graphEnumValue}},
			stringArg("interface", interfaceName),
		},
	}
}

func joinUnionMemberApplication(graphEnumValue, member string) *ast.Directive {
	return &ast.Directive{
		Name: "join__unionMember",
		Arguments: []*ast.Argument{
			{Name: ast.Name("graph"), Value: &ast.EnumValue{Value: graphEnumValue}},
			stringArg("member", member),
		},
	}
}

func joinEnumValueApplication(graphEnumValue string) *ast.Directive {
	return &ast.Directive{
		Name: "join__enumValue",
		Arguments: []*ast.Argument{
			{Name: ast.Name("graph"), Value: &ast.EnumValue{Value: graphEnumValue}},
		},
	}
}

func invalidSubgraphNameError(name string) *Error {
	return &Error{
		Code:      ErrInvalidSubgraphName,
		Message:   fmt.Sprintf("subgraph name %q cannot be transformed into a valid join__Graph enum value", name),
		Subgraphs: []string{name},
	}
}
