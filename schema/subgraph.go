package schema

import (
	"fmt"

	"github.com/n9te9/graphql-parser/ast"
	"github.com/n9te9/graphql-parser/lexer"
	"github.com/n9te9/graphql-parser/parser"
	"github.com/n9te9/graphql-parser/token"
)

// Key is a parsed @key(fields:, resolvable:) application.
type Key struct {
	FieldSet   *FieldSet
	Resolvable bool
}

// Override is a parsed @override(from:, label:) application.
type Override struct {
	From  string
	Label string
}

// Subgraph is the SubgraphMetadata facade of §3: a validated GraphQL schema
// plus the federation directives the merger, query graph, and planner read
// off it. It never mutates the underlying AST after ParseSubgraph returns
// except through the upgrader, which is explicit about running before any
// other consumer sees the subgraph.
type Subgraph struct {
	Name   string
	URL    string
	SDL    string
	Schema *ast.Document

	// federationVersion is "1" or "2", detected once at parse time from the
	// presence of an @link to the federation spec.
	federationVersion string
}

// ParseSubgraph parses a subgraph's SDL and classifies its federation
// version. It does not resolve cross-subgraph information; that is the
// composition merger's job.
func ParseSubgraph(name, url string, sdl []byte) (*Subgraph, error) {
	l := lexer.New(string(sdl))
	p := parser.New(l)
	doc := p.ParseDocument()
	if len(p.Errors()) > 0 {
		return nil, fmt.Errorf("subgraph %s: parse error: %v", name, p.Errors())
	}

	sg := &Subgraph{
		Name:   name,
		URL:    url,
		SDL:    string(sdl),
		Schema: doc,
	}
	sg.federationVersion = detectFederationVersion(doc)

	return sg, nil
}

func detectFederationVersion(doc *ast.Document) string {
	for _, def := range doc.Definitions {
		sd, ok := def.(*ast.SchemaDefinition)
		if !ok {
			continue
		}
		for _, d := range sd.Directives {
			if d.Name != "link" {
				continue
			}
			if url, ok := StringArgument(d, "url"); ok {
				if len(url) >= len("https://specs.apollo.dev/federation/v2.0") &&
					containsFederationV2(url) {
					return "2"
				}
			}
		}
	}
	return "1"
}

func containsFederationV2(url string) bool {
	const marker = "/federation/v2."
	for i := 0; i+len(marker) <= len(url); i++ {
		if url[i:i+len(marker)] == marker {
			return true
		}
	}
	return false
}

// IsFederationV2 reports whether the subgraph declared a federation/v2.x
// @link. Subgraphs without one are federation v1 and must pass through the
// schema upgrader before composition.
func (s *Subgraph) IsFederationV2() bool {
	return s.federationVersion == "2"
}

// Definitions returns the named type-system definitions in the subgraph,
// indexed by name. Where a name has several definitions (a base and its
// `extend type` extensions), only the first in document order is kept;
// ObjectDefinitions returns all of them for an object type.
func (s *Subgraph) Definitions() map[string]ast.Definition {
	out := make(map[string]ast.Definition)
	for _, def := range s.Schema.Definitions {
		if name := DefinitionName(def); name != "" {
			if _, exists := out[name]; !exists {
				out[name] = def
			}
		}
	}
	return out
}

// ObjectDefinitions returns every ObjectTypeDefinition and
// ObjectTypeExtension sharing typeName, base first.
func (s *Subgraph) ObjectDefinitions(typeName string) []ast.Definition {
	var out []ast.Definition
	var exts []ast.Definition
	for _, def := range s.Schema.Definitions {
		switch d := def.(type) {
		case *ast.ObjectTypeDefinition:
			if d.Name.String() == typeName {
				out = append(out, d)
			}
		case *ast.ObjectTypeExtension:
			if d.Name.String() == typeName {
				exts = append(exts, d)
			}
		}
	}
	return append(out, exts...)
}

// Keys returns the @key applications declared directly on typeName (on its
// base definition and any extensions), in declaration order. The first
// element is the type's "first key" for the purposes of the join-field
// implicit-key rule (§8 property 3).
func (s *Subgraph) Keys(typeName string) []Key {
	var keys []Key
	for _, def := range s.ObjectDefinitions(typeName) {
		for _, d := range FindDirectives(DirectivesOf(def), "key") {
			fields, _ := StringArgument(d, "fields")
			resolvable := true
			if v, ok := BoolArgument(d, "resolvable"); ok {
				resolvable = v
			}
			fs, err := ParseFieldSet(typeName, fields)
			if err != nil {
				fs = &FieldSet{Raw: fields}
			}
			keys = append(keys, Key{FieldSet: fs, Resolvable: resolvable})
		}
	}
	return keys
}

// fieldAndParent locates a field definition across an object/interface type
// and its extensions.
func (s *Subgraph) fieldAndParent(typeName, fieldName string) (*ast.FieldDefinition, ast.Definition) {
	for _, def := range s.Schema.Definitions {
		name := DefinitionName(def)
		if name != typeName {
			continue
		}
		for _, f := range FieldsOf(def) {
			if f.Name.String() == fieldName {
				return f, def
			}
		}
	}
	return nil, nil
}

// IsExternal reports @external(typeName.fieldName) (classifier of §3).
func (s *Subgraph) IsExternal(typeName, fieldName string) bool {
	f, _ := s.fieldAndParent(typeName, fieldName)
	if f == nil {
		return false
	}
	return FindDirective(f.Directives, "external") != nil
}

// IsShareable reports @shareable(typeName.fieldName), including the
// type-level @shareable that marks every field of an object shareable.
func (s *Subgraph) IsShareable(typeName, fieldName string) bool {
	f, parent := s.fieldAndParent(typeName, fieldName)
	if f == nil {
		return false
	}
	if FindDirective(f.Directives, "shareable") != nil {
		return true
	}
	return FindDirective(DirectivesOf(parent), "shareable") != nil
}

// Requires returns the @requires field set on typeName.fieldName, or nil.
func (s *Subgraph) Requires(typeName, fieldName string) *FieldSet {
	f, _ := s.fieldAndParent(typeName, fieldName)
	if f == nil {
		return nil
	}
	d := FindDirective(f.Directives, "requires")
	if d == nil {
		return nil
	}
	fields, _ := StringArgument(d, "fields")
	fieldParentType := s.fieldTypeName(typeName, fieldName)
	_ = fieldParentType
	fs, _ := ParseFieldSet(typeName, fields)
	return fs
}

// Provides returns the @provides field set on typeName.fieldName, or nil.
func (s *Subgraph) Provides(typeName, fieldName string) *FieldSet {
	f, _ := s.fieldAndParent(typeName, fieldName)
	if f == nil {
		return nil
	}
	d := FindDirective(f.Directives, "provides")
	if d == nil {
		return nil
	}
	fields, _ := StringArgument(d, "fields")
	returnType := NamedTypeName(f.Type)
	fs, _ := ParseFieldSet(returnType, fields)
	return fs
}

// Override returns the @override(from:, label:) application on
// typeName.fieldName, or nil.
func (s *Subgraph) Override(typeName, fieldName string) *Override {
	f, _ := s.fieldAndParent(typeName, fieldName)
	if f == nil {
		return nil
	}
	d := FindDirective(f.Directives, "override")
	if d == nil {
		return nil
	}
	from, _ := StringArgument(d, "from")
	label, _ := StringArgument(d, "label")
	return &Override{From: from, Label: label}
}

// IsInterfaceObjectType reports @interfaceObject on typeName (object type
// standing in for an interface of the same name, §4.2).
func (s *Subgraph) IsInterfaceObjectType(typeName string) bool {
	for _, def := range s.ObjectDefinitions(typeName) {
		if FindDirective(DirectivesOf(def), "interfaceObject") != nil {
			return true
		}
	}
	return false
}

// IsEntity reports whether typeName carries at least one @key in this
// subgraph.
func (s *Subgraph) IsEntity(typeName string) bool {
	return len(s.Keys(typeName)) > 0
}

// IsExtension reports whether typeName is declared (in this subgraph) only
// via `extend type`/`extend interface`, with no base definition.
func (s *Subgraph) IsExtension(typeName string) bool {
	hasBase, hasExt := false, false
	for _, def := range s.Schema.Definitions {
		if DefinitionName(def) != typeName {
			continue
		}
		switch def.(type) {
		case *ast.ObjectTypeExtension:
			hasExt = true
		case *ast.ObjectTypeDefinition:
			hasBase = true
		}
	}
	return hasExt && !hasBase
}

// HasExtendsDirective reports @extends on typeName, the v1 alternative to
// `extend type` syntax for marking an extension.
func (s *Subgraph) HasExtendsDirective(typeName string) bool {
	for _, def := range s.ObjectDefinitions(typeName) {
		if FindDirective(DirectivesOf(def), "extends") != nil {
			return true
		}
	}
	return false
}

func (s *Subgraph) fieldTypeName(typeName, fieldName string) string {
	f, _ := s.fieldAndParent(typeName, fieldName)
	if f == nil {
		return ""
	}
	return NamedTypeName(f.Type)
}

// RootKind is one of the three root-operation kinds (§3 "RootTypeResolution
// {kind: query|mutation|subscription}").
type RootKind int

const (
	RootQuery RootKind = iota
	RootMutation
	RootSubscription
)

func (k RootKind) defaultTypeName() string {
	switch k {
	case RootMutation:
		return "Mutation"
	case RootSubscription:
		return "Subscription"
	default:
		return "Query"
	}
}

func (k RootKind) token() token.Token {
	return k.Token()
}

// Token returns the lexer token for the root operation kind, as used in a
// schema { query: ..., mutation: ..., subscription: ... } block's
// OperationTypeDefinition.Operation field.
func (k RootKind) Token() token.Token {
	switch k {
	case RootMutation:
		return token.MUTATION
	case RootSubscription:
		return token.SUBSCRIPTION
	default:
		return token.QUERY
	}
}

// RootTypeName returns the concrete type name bound to a root operation
// kind ("Query"/"Mutation"/"Subscription" by default, or whatever the
// subgraph's `schema { ... }` block declares).
func (s *Subgraph) RootTypeName(kind RootKind) string {
	for _, def := range s.Schema.Definitions {
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

	if _, ok := s.Definitions()[kind.defaultTypeName()]; ok {
		return kind.defaultTypeName()
	}
	return ""
}

// DeclaresRootType reports whether this subgraph declares a root type for
// the given operation kind at all (used when wiring
// SubgraphEnteringTransition edges — §4.2 "Root").
func (s *Subgraph) DeclaresRootType(kind RootKind) bool {
	return s.RootTypeName(kind) != ""
}
