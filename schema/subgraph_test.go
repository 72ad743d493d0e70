package schema

import "testing"

func TestParseSubgraph_IsFederationV2(t *testing.T) {
	tests := []struct {
		name string
		sdl  string
		want bool
	}{
		{
			name: "federation v2 link",
			sdl: `
				extend schema @link(url: "https://specs.apollo.dev/federation/v2.3", import: ["@key"])

				type Query {
					product(upc: String!): Product
				}
				type Product @key(fields: "upc") {
					upc: String!
					name: String
				}
			`,
			want: true,
		},
		{
			name: "federation v1, no link",
			sdl: `
				type Query {
					product(upc: String!): Product
				}
				type Product {
					upc: String!
				}
			`,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sg, err := ParseSubgraph("products", "http://products", []byte(tt.sdl))
			if err != nil {
				t.Fatal(err)
			}
			if got := sg.IsFederationV2(); got != tt.want {
				t.Errorf("IsFederationV2() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSubgraph_Keys(t *testing.T) {
	sdl := `
		extend schema @link(url: "https://specs.apollo.dev/federation/v2.3")

		type Product @key(fields: "upc") @key(fields: "sku", resolvable: false) {
			upc: String!
			sku: String!
			name: String
		}
	`
	sg, err := ParseSubgraph("products", "", []byte(sdl))
	if err != nil {
		t.Fatal(err)
	}

	keys := sg.Keys("Product")
	if len(keys) != 2 {
		t.Fatalf("Keys() returned %d keys, want 2", len(keys))
	}
	if !keys[0].Resolvable {
		t.Errorf("Keys()[0].Resolvable = false, want true")
	}
	if keys[1].Resolvable {
		t.Errorf("Keys()[1].Resolvable = true, want false")
	}
	if !sg.IsEntity("Product") {
		t.Errorf("IsEntity(Product) = false, want true")
	}
}

func TestSubgraph_IsExternalAndShareable(t *testing.T) {
	sdl := `
		type Product @key(fields: "upc") {
			upc: String! @external
			name: String @shareable
		}
	`
	sg, err := ParseSubgraph("products", "", []byte(sdl))
	if err != nil {
		t.Fatal(err)
	}

	if !sg.IsExternal("Product", "upc") {
		t.Errorf("IsExternal(Product.upc) = false, want true")
	}
	if sg.IsExternal("Product", "name") {
		t.Errorf("IsExternal(Product.name) = true, want false")
	}
	if !sg.IsShareable("Product", "name") {
		t.Errorf("IsShareable(Product.name) = false, want true")
	}
}

func TestSubgraph_RequiresProvides(t *testing.T) {
	sdl := `
		type Product @key(fields: "upc") {
			upc: String!
			weight: Int @external
			shippingEstimate: Int @requires(fields: "weight")
			reviews: [Review] @provides(fields: "body")
		}
		type Review {
			body: String
		}
	`
	sg, err := ParseSubgraph("products", "", []byte(sdl))
	if err != nil {
		t.Fatal(err)
	}

	req := sg.Requires("Product", "shippingEstimate")
	if req == nil || req.IsEmpty() {
		t.Fatalf("Requires(shippingEstimate) = %v, want non-empty field set", req)
	}
	if !req.ReferencesField("weight") {
		t.Errorf("Requires(shippingEstimate) does not reference weight")
	}

	prov := sg.Provides("Product", "reviews")
	if prov == nil || prov.IsEmpty() {
		t.Fatalf("Provides(reviews) = %v, want non-empty field set", prov)
	}
	if !prov.ReferencesField("body") {
		t.Errorf("Provides(reviews) does not reference body")
	}
}

func TestSubgraph_RootTypeName(t *testing.T) {
	sdl := `
		type Query {
			product(upc: String!): Product
		}
		type Product {
			upc: String!
		}
	`
	sg, err := ParseSubgraph("products", "", []byte(sdl))
	if err != nil {
		t.Fatal(err)
	}

	if got := sg.RootTypeName(RootQuery); got != "Query" {
		t.Errorf("RootTypeName(RootQuery) = %q, want %q", got, "Query")
	}
	if sg.DeclaresRootType(RootMutation) {
		t.Errorf("DeclaresRootType(RootMutation) = true, want false")
	}
}
