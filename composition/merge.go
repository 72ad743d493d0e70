package composition

import (
	"sort"
	"strings"

	"github.com/n9te9/federation-core/schema"
	"github.com/n9te9/graphql-parser/ast"
)

// federationInternalPrefixes are the type-name prefixes skipped during type
// merging (§4.1 phase 3: "skip types whose name starts with federation__ or
// link__").
var federationInternalPrefixes = []string{"federation__", "link__"}

// federationInternalNames are the exact type names skipped alongside the
// prefixes above.
var federationInternalNames = map[string]bool{
	"_Any":     true,
	"_Service": true,
	"_Entity":  true,
}

func isFederationInternalType(name string) bool {
	if federationInternalNames[name] {
		return true
	}
	for _, prefix := range federationInternalPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// executableDirectiveLocations are the locations that make a directive
// definition "executable" rather than type-system-only (§4.1 phase 4).
var executableDirectiveLocations = map[string]bool{
	"QUERY":               true,
	"MUTATION":            true,
	"SUBSCRIPTION":        true,
	"FIELD":               true,
	"FRAGMENT_DEFINITION": true,
	"FRAGMENT_SPREAD":     true,
	"INLINE_FRAGMENT":     true,
	"VARIABLE_DEFINITION": true,
}

func isExecutableDirective(locations []string) bool {
	for _, loc := range locations {
		if executableDirectiveLocations[loc] {
			return true
		}
	}
	return false
}

// merger accumulates the in-progress supergraph across the phases of §4.1.
type merger struct {
	subgraphs      []*schema.Subgraph
	graphEnumName  map[string]string // subgraph name -> join__Graph enum value
	urls           map[string]string
	errors         []*Error
	hints          []Hint
	types          map[string]ast.Definition // output type definitions, by name
	typeOrder      []string                  // first-seen order, for deterministic emission
	directiveDefs  map[string]*ast.DirectiveDefinition
	directiveOrder []string
}

// Merge implements C1's public contract: given an ordered collection of
// validated subgraph schemas, produce a supergraph schema whose type system
// is the merge of its inputs and whose every type/field application is
// traceable via @join__* to the subgraphs that contribute it (§4.1).
//
// Composition is deterministic: inputs are sorted by subgraph name before
// merging (§8 property 1).
func Merge(subgraphs []*schema.Subgraph) *MergeResult {
	sorted := make([]*schema.Subgraph, len(subgraphs))
	copy(sorted, subgraphs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	m := &merger{
		subgraphs:     sorted,
		graphEnumName: make(map[string]string),
		urls:          make(map[string]string),
		types:         make(map[string]ast.Definition),
		directiveDefs: make(map[string]*ast.DirectiveDefinition),
	}

	// Phase 1: legacy upgrade. Skipped entirely if every input is already v2.
	needsUpgrade := false
	for _, sg := range m.subgraphs {
		if !sg.IsFederationV2() {
			needsUpgrade = true
			break
		}
	}
	if needsUpgrade {
		for _, sg := range m.subgraphs {
			if sg.IsFederationV2() {
				continue
			}
			if err := UpgradeSchema(sg); err != nil {
				m.errors = append(m.errors, err)
			}
		}
	}

	names := make([]string, 0, len(m.subgraphs))
	for _, sg := range m.subgraphs {
		names = append(names, sg.Name)
		m.urls[sg.Name] = sg.URL
	}
	m.graphEnumName = schema.DeduplicateGraphEnumNames(names)
	for _, sg := range m.subgraphs {
		if !isValidEnumSeed(sg.Name) {
			// Still transformable (DeduplicateGraphEnumNames never fails to
			// produce a name), but an empty/all-symbol subgraph name is
			// reported for operator visibility.
			m.errors = append(m.errors, invalidSubgraphNameError(sg.Name))
		}
	}

	// Phase 3: type merging.
	for _, sg := range m.subgraphs {
		m.mergeSubgraphTypes(sg)
	}

	// Phase 4: executable directive merging.
	for _, sg := range m.subgraphs {
		m.mergeExecutableDirectives(sg)
	}

	sg := m.buildSupergraphDocument()
	result := &MergeResult{
		Supergraph: sg,
		Hints:      m.hints,
		Errors:     m.errors,
	}
	if result.OK() {
		result.Errors = nil
	} else {
		result.Errors = sortedErrors(m.errors)
	}
	return result
}

func isValidEnumSeed(name string) bool {
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return true
		}
	}
	return false
}

// mergeSubgraphTypes runs phase 3 for a single subgraph: for every
// non-built-in, non-federation-internal type it declares, create-or-merge
// the corresponding supergraph stub.
func (m *merger) mergeSubgraphTypes(sg *schema.Subgraph) {
	seen := make(map[string]bool)
	for _, def := range sg.Schema.Definitions {
		name := schema.DefinitionName(def)
		if name == "" || seen[name] || isFederationInternalType(name) {
			continue
		}
		seen[name] = true
		m.mergeType(sg, name)
	}
}

func (m *merger) mergeType(sg *schema.Subgraph, typeName string) {
	defs := collectTypeDefinitions(sg, typeName)
	if len(defs) == 0 {
		return
	}
	kind := schema.KindOf(defs[0])

	// @interfaceObject: an object type standing in for an interface of the
	// same name contributes to the supergraph's *interface*.
	if kind == schema.KindObject && sg.IsInterfaceObjectType(typeName) {
		kind = schema.KindInterface
	}

	existing, ok := m.types[typeName]
	if !ok {
		existing = stubDefinition(kind, typeName)
		m.types[typeName] = existing
		m.typeOrder = append(m.typeOrder, typeName)
	} else if schema.KindOf(existing) != kind {
		m.errors = append(m.errors, &Error{
			Code:     ErrTypeKindMismatch,
			Message:  "type kind mismatch across subgraphs",
			TypeName: typeName,
			Subgraphs: []string{sg.Name},
		})
		return
	}

	m.mergeDescription(existing, defs, typeName)
	m.mergeTypeDirectives(existing, sg, typeName)

	switch d := existing.(type) {
	case *ast.ObjectTypeDefinition:
		m.mergeObjectLike(d.Name.String(), &d.Interfaces, &d.Fields, sg, defs)
	case *ast.InterfaceTypeDefinition:
		m.mergeInterfaceLike(d.Name.String(), &d.Fields, sg, defs, kind == schema.KindInterface && schema.KindOf(defs[0]) == schema.KindObject)
	case *ast.UnionTypeDefinition:
		m.mergeUnion(d, sg, defs)
	case *ast.EnumTypeDefinition:
		m.mergeEnum(d, sg, defs)
	case *ast.InputObjectTypeDefinition:
		m.mergeInputObject(d, defs)
	case *ast.ScalarTypeDefinition:
		// No per-graph annotation for scalars (§4.1 phase 3).
	}
}

// collectTypeDefinitions gathers every base/extension definition sharing
// typeName within a single subgraph, base first.
func collectTypeDefinitions(sg *schema.Subgraph, typeName string) []ast.Definition {
	if defs := sg.ObjectDefinitions(typeName); len(defs) > 0 {
		return defs
	}
	var out []ast.Definition
	for _, def := range sg.Schema.Definitions {
		if schema.DefinitionName(def) == typeName {
			out = append(out, def)
		}
	}
	return out
}

func stubDefinition(kind schema.TypeKind, name string) ast.Definition {
	n := ast.Name(name)
	switch kind {
	case schema.KindObject:
		return &ast.ObjectTypeDefinition{Name: n}
	case schema.KindInterface:
		return &ast.InterfaceTypeDefinition{Name: n}
	case schema.KindUnion:
		return &ast.UnionTypeDefinition{Name: n}
	case schema.KindEnum:
		return &ast.EnumTypeDefinition{Name: n}
	case schema.KindInputObject:
		return &ast.InputObjectTypeDefinition{Name: n}
	default:
		return &ast.ScalarTypeDefinition{Name: n}
	}
}

func (m *merger) mergeDescription(existing ast.Definition, defs []ast.Definition, typeName string) {
	cur := schema.DescriptionOf(existing)
	for _, def := range defs {
		d := schema.DescriptionOf(def)
		if d == "" {
			continue
		}
		if cur == "" {
			setDescription(existing, d)
			cur = d
		} else if cur != d {
			m.hints = append(m.hints, Hint{
				Message:  "conflicting descriptions, first non-null definition wins",
				TypeName: typeName,
			})
		}
	}
}

func setDescription(def ast.Definition, desc string) {
	switch d := def.(type) {
	case *ast.ObjectTypeDefinition:
		d.Description = desc
	case *ast.InterfaceTypeDefinition:
		d.Description = desc
	case *ast.UnionTypeDefinition:
		d.Description = desc
	case *ast.EnumTypeDefinition:
		d.Description = desc
	case *ast.InputObjectTypeDefinition:
		d.Description = desc
	case *ast.ScalarTypeDefinition:
		d.Description = desc
	}
}

// mergeTypeDirectives emits the @join__type application(s) for this
// subgraph's contribution to typeName (§4.1 phase 3).
func (m *merger) mergeTypeDirectives(existing ast.Definition, sg *schema.Subgraph, typeName string) {
	graphEnum := m.graphEnumName[sg.Name]
	keys := sg.Keys(typeName)
	isExtension := sg.IsExtension(typeName) || sg.HasExtendsDirective(typeName)
	isInterfaceObject := sg.IsInterfaceObjectType(typeName)

	directives := directivesOf(existing)

	if len(keys) == 0 {
		d := joinTypeApplication(graphEnum, "", true, isExtension, isInterfaceObject, false)
		appendDirective(existing, append(*directives, d))
		return
	}
	for _, key := range keys {
		d := joinTypeApplication(graphEnum, key.FieldSet.String(), key.Resolvable, isExtension, isInterfaceObject, true)
		appendDirective(existing, append(*directives, d))
		directives = directivesOf(existing)
	}
}

func directivesOf(def ast.Definition) *[]*ast.Directive {
	switch d := def.(type) {
	case *ast.ObjectTypeDefinition:
		return &d.Directives
	case *ast.InterfaceTypeDefinition:
		return &d.Directives
	case *ast.UnionTypeDefinition:
		return &d.Directives
	case *ast.EnumTypeDefinition:
		return &d.Directives
	case *ast.InputObjectTypeDefinition:
		return &d.Directives
	case *ast.ScalarTypeDefinition:
		return &d.Directives
	default:
		return &[]*ast.Directive{}
	}
}

func appendDirective(def ast.Definition, directives []*ast.Directive) {
	switch d := def.(type) {
	case *ast.ObjectTypeDefinition:
		d.Directives = directives
	case *ast.InterfaceTypeDefinition:
		d.Directives = directives
	case *ast.UnionTypeDefinition:
		d.Directives = directives
	case *ast.EnumTypeDefinition:
		d.Directives = directives
	case *ast.InputObjectTypeDefinition:
		d.Directives = directives
	case *ast.ScalarTypeDefinition:
		d.Directives = directives
	}
}

// mergeObjectLike merges `implements` (set union, one @join__implements per
// contribution) and fields for an object-kind output type.
func (m *merger) mergeObjectLike(typeName string, implements *[]*ast.NamedType, fields *[]*ast.FieldDefinition, sg *schema.Subgraph, defs []ast.Definition) {
	graphEnum := m.graphEnumName[sg.Name]
	seenImpl := make(map[string]bool)
	for _, i := range *implements {
		seenImpl[i.Name.String()] = true
	}
	for _, def := range defs {
		for _, iface := range schema.ImplementsOf(def) {
			name := iface.Name.String()
			if !seenImpl[name] {
				*implements = append(*implements, iface)
				seenImpl[name] = true
			}
			existing := m.findDefinition(typeName)
			appendDirective(existing, append(*directivesOf(existing), joinImplementsApplication(graphEnum, name)))
		}
	}

	m.mergeFields(typeName, fields, sg, defs)
}

// mergeInterfaceLike merges fields for an interface-kind output type,
// including the case where the contributing subgraph's definition is an
// @interfaceObject object type standing in for this interface.
func (m *merger) mergeInterfaceLike(typeName string, fields *[]*ast.FieldDefinition, sg *schema.Subgraph, defs []ast.Definition, fromInterfaceObject bool) {
	m.mergeFields(typeName, fields, sg, defs)
}

func (m *merger) findDefinition(typeName string) ast.Definition {
	return m.types[typeName]
}

// mergeFields implements the field-merge rule of §4.1 phase 3: first
// subgraph contributes the definition, subsequent contributors emit an
// additional @join__field; fields in every contributor's first key receive
// no per-graph annotation.
func (m *merger) mergeFields(typeName string, fields *[]*ast.FieldDefinition, sg *schema.Subgraph, defs []ast.Definition) {
	graphEnum := m.graphEnumName[sg.Name]

	byName := make(map[string]*ast.FieldDefinition, len(*fields))
	for _, f := range *fields {
		byName[f.Name.String()] = f
	}

	for _, def := range defs {
		for _, f := range schema.FieldsOf(def) {
			fieldName := f.Name.String()
			if fieldName == "_service" || fieldName == "_entities" {
				continue
			}

			out, exists := byName[fieldName]
			if !exists {
				out = cloneFieldDefinition(f)
				*fields = append(*fields, out)
				byName[fieldName] = out
			} else if out.Description == "" && f.Description != "" {
				out.Description = f.Description
			}

			if m.isImplicitKeyField(typeName, fieldName) {
				continue
			}

			req := sg.Requires(typeName, fieldName)
			prov := sg.Provides(typeName, fieldName)
			override := sg.Override(typeName, fieldName)
			overrideFrom := ""
			if override != nil {
				overrideFrom = override.From
			}
			external := sg.IsExternal(typeName, fieldName)

			d := joinFieldApplication(graphEnum, req.String(), prov.String(), external, overrideFrom, false)
			out.Directives = append(out.Directives, d)
		}
	}
}

func cloneFieldDefinition(f *ast.FieldDefinition) *ast.FieldDefinition {
	return &ast.FieldDefinition{
		Name:        f.Name,
		Arguments:   f.Arguments,
		Type:        f.Type,
		Description: f.Description,
	}
}

// isImplicitKeyField reports whether fieldName is part of the first @key of
// every subgraph contributing typeName's parent type (§8 property 3). A
// field meeting this rule carries no per-graph @join__field application
// because it is implicit on every graph declaring the key.
func (m *merger) isImplicitKeyField(typeName, fieldName string) bool {
	contributors := 0
	inFirstKey := 0
	for _, sg := range m.subgraphs {
		if len(sg.ObjectDefinitions(typeName)) == 0 {
			continue
		}
		contributors++
		keys := sg.Keys(typeName)
		if len(keys) == 0 {
			return false
		}
		found := false
		for _, n := range keys[0].FieldSet.TopLevelFieldNames() {
			if n == fieldName {
				found = true
				break
			}
		}
		if found {
			inFirstKey++
		}
	}
	return contributors > 0 && contributors == inFirstKey
}

func (m *merger) mergeUnion(u *ast.UnionTypeDefinition, sg *schema.Subgraph, defs []ast.Definition) {
	graphEnum := m.graphEnumName[sg.Name]
	seen := make(map[string]bool)
	for _, t := range u.Types {
		seen[t.Name.String()] = true
	}
	for _, def := range defs {
		ud, ok := def.(*ast.UnionTypeDefinition)
		if !ok {
			continue
		}
		for _, t := range ud.Types {
			name := t.Name.String()
			if !seen[name] {
				u.Types = append(u.Types, t)
				seen[name] = true
			}
			u.Directives = append(u.Directives, joinUnionMemberApplication(graphEnum, name))
		}
	}
}

func (m *merger) mergeEnum(e *ast.EnumTypeDefinition, sg *schema.Subgraph, defs []ast.Definition) {
	graphEnum := m.graphEnumName[sg.Name]
	byName := make(map[string]*ast.EnumValueDefinition, len(e.Values))
	for _, v := range e.Values {
		byName[v.Name.String()] = v
	}
	for _, def := range defs {
		ed, ok := def.(*ast.EnumTypeDefinition)
		if !ok {
			continue
		}
		for _, v := range ed.Values {
			name := v.Name.String()
			out, exists := byName[name]
			if !exists {
				out = &ast.EnumValueDefinition{Name: v.Name, Description: v.Description}
				e.Values = append(e.Values, out)
				byName[name] = out
			}
			out.Directives = append(out.Directives, joinEnumValueApplication(graphEnum))
		}
	}
}

// mergeInputObject preserves first-declared fields without intersecting
// across subgraphs (§4.1 phase 3 "for input objects..."; nullability
// disagreement across subgraphs is an explicit Open Question, see
// DESIGN.md).
func (m *merger) mergeInputObject(io *ast.InputObjectTypeDefinition, defs []ast.Definition) {
	seen := make(map[string]bool, len(io.Fields))
	for _, f := range io.Fields {
		seen[f.Name.String()] = true
	}
	for _, def := range defs {
		iod, ok := def.(*ast.InputObjectTypeDefinition)
		if !ok {
			continue
		}
		for _, f := range iod.Fields {
			name := f.Name.String()
			if seen[name] {
				continue
			}
			seen[name] = true
			io.Fields = append(io.Fields, f)
		}
	}
}

// mergeExecutableDirectives implements phase 4: copy verbatim every
// executable directive definition, first definition wins.
func (m *merger) mergeExecutableDirectives(sg *schema.Subgraph) {
	for _, def := range sg.Schema.Definitions {
		dd, ok := def.(*ast.DirectiveDefinition)
		if !ok {
			continue
		}
		if !isExecutableDirective(dd.Locations) {
			continue
		}
		name := dd.Name.String()
		if _, exists := m.directiveDefs[name]; exists {
			continue
		}
		m.directiveDefs[name] = dd
		m.directiveOrder = append(m.directiveOrder, name)
	}
}

// buildSupergraphDocument assembles the final schema.Supergraph: phase 2's
// core-feature injection, the merged types in deterministic order, the
// copied executable directives, and phase 5's schema-definition merge.
func (m *merger) buildSupergraphDocument() *schema.Supergraph {
	doc := &ast.Document{}

	names := make([]string, 0, len(m.subgraphs))
	for _, sg := range m.subgraphs {
		names = append(names, sg.Name)
	}
	sort.Strings(names)

	doc.Definitions = append(doc.Definitions, m.schemaDefinition())
	for _, d := range coreFeatureDefinitions() {
		doc.Definitions = append(doc.Definitions, d)
	}
	doc.Definitions = append(doc.Definitions, joinGraphEnum(names, m.graphEnumName, m.urls))

	for _, name := range m.typeOrder {
		doc.Definitions = append(doc.Definitions, m.types[name])
	}
	for _, name := range m.directiveOrder {
		doc.Definitions = append(doc.Definitions, m.directiveDefs[name])
	}

	sg := &schema.Supergraph{
		Schema:         doc,
		Subgraphs:      m.subgraphs,
		GraphEnumNames: make(map[string]string, len(m.graphEnumName)),
	}
	for name, enumVal := range m.graphEnumName {
		sg.GraphEnumNames[name] = enumVal
	}
	return sg
}

// schemaDefinition implements phase 5: adopt each subgraph's root-operation
// declarations, later wins, with a hint on conflict.
func (m *merger) schemaDefinition() *ast.SchemaDefinition {
	sd := &ast.SchemaDefinition{Directives: schemaDefinitionDirectives()}
	roots := map[schema.RootKind]string{}
	for _, sg := range m.subgraphs {
		for _, kind := range []schema.RootKind{schema.RootQuery, schema.RootMutation, schema.RootSubscription} {
			if !sg.DeclaresRootType(kind) {
				continue
			}
			name := sg.RootTypeName(kind)
			if prev, ok := roots[kind]; ok && prev != name {
				m.hints = append(m.hints, Hint{
					Message: "conflicting root operation type across subgraphs, last subgraph wins",
				})
			}
			roots[kind] = name
		}
	}
	for _, kind := range []schema.RootKind{schema.RootQuery, schema.RootMutation, schema.RootSubscription} {
		name, ok := roots[kind]
		if !ok {
			continue
		}
		sd.OperationTypes = append(sd.OperationTypes, &ast.OperationTypeDefinition{
			Operation: kind.Token(),
			Type:      namedType(name),
		})
	}
	return sd
}
