package composition

import (
	"testing"

	"github.com/n9te9/federation-core/schema"
)

func mustParseSubgraph(t *testing.T, name, url, sdl string) *schema.Subgraph {
	t.Helper()
	sg, err := schema.ParseSubgraph(name, url, []byte(sdl))
	if err != nil {
		t.Fatalf("ParseSubgraph(%s) error = %v", name, err)
	}
	return sg
}

func TestMerge_TwoSubgraphsExtendingAnEntity(t *testing.T) {
	products := mustParseSubgraph(t, "products", "http://products", `
		extend schema @link(url: "https://specs.apollo.dev/federation/v2.3", import: ["@key"])

		type Query {
			product(upc: String!): Product
		}

		type Product @key(fields: "upc") {
			upc: String!
			name: String
		}
	`)

	shipping := mustParseSubgraph(t, "shipping", "http://shipping", `
		extend schema @link(url: "https://specs.apollo.dev/federation/v2.3", import: ["@key", "@external", "@requires"])

		extend type Product @key(fields: "upc") {
			upc: String! @external
			weight: Int @external
			shippingEstimate: Int @requires(fields: "weight")
		}
	`)

	result := Merge([]*schema.Subgraph{products, shipping})
	if !result.OK() {
		for _, e := range result.Errors {
			t.Errorf("unexpected composition error: %s", e.Error())
		}
		t.FailNow()
	}

	obj, ok := result.Supergraph.ObjectType("Product")
	if !ok {
		t.Fatalf("merged supergraph has no Product type")
	}

	names := make(map[string]bool, len(obj.Fields))
	for _, f := range obj.Fields {
		names[f.Name.String()] = true
	}
	for _, want := range []string{"upc", "name", "weight", "shippingEstimate"} {
		if !names[want] {
			t.Errorf("merged Product is missing field %q", want)
		}
	}
}

func TestMerge_IsDeterministicRegardlessOfInputOrder(t *testing.T) {
	a := mustParseSubgraph(t, "alpha", "", `
		type Query { a: String }
		type Widget @key(fields: "id") { id: ID! }
	`)
	b := mustParseSubgraph(t, "beta", "", `
		extend type Widget @key(fields: "id") { id: ID! @external name: String }
	`)

	r1 := Merge([]*schema.Subgraph{a, b})
	r2 := Merge([]*schema.Subgraph{b, a})

	if !r1.OK() || !r2.OK() {
		t.Fatalf("composition failed: r1.Errors=%v r2.Errors=%v", r1.Errors, r2.Errors)
	}
	if r1.Supergraph.Schema.String() != r2.Supergraph.Schema.String() {
		t.Errorf("Merge is not order-independent:\n--- a,b ---\n%s\n--- b,a ---\n%s",
			r1.Supergraph.Schema.String(), r2.Supergraph.Schema.String())
	}
}

func TestMerge_ExtensionWithNoBaseIsAnError(t *testing.T) {
	onlyExtension := mustParseSubgraph(t, "shipping", "", `
		extend type Product @key(fields: "upc") {
			upc: String! @external
			weight: Int
		}
	`)

	result := Merge([]*schema.Subgraph{onlyExtension})
	if result.OK() {
		t.Fatalf("expected composition to fail for an extension with no base definition anywhere")
	}

	found := false
	for _, e := range result.Errors {
		if e.Code == ErrExtensionWithNoBase {
			found = true
		}
	}
	if !found {
		t.Errorf("expected %s among errors, got %v", ErrExtensionWithNoBase, result.Errors)
	}
}

func TestMerge_JoinGraphEnumIsDeduplicated(t *testing.T) {
	a := mustParseSubgraph(t, "products", "", `type Query { a: String }`)
	b := mustParseSubgraph(t, "PRODUCTS", "", `type Query { b: String }`)

	result := Merge([]*schema.Subgraph{a, b})
	if !result.OK() {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}

	names := result.Supergraph.GraphEnumNames
	if names["products"] == names["PRODUCTS"] {
		t.Errorf("expected distinct join__Graph enum values for colliding subgraph names, got %q twice", names["products"])
	}
}
