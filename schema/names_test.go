package schema

import "testing"

func TestGraphEnumName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "lowercase", in: "products", want: "PRODUCTS"},
		{name: "hyphenated", in: "product-catalog", want: "PRODUCT_CATALOG"},
		{name: "leading digit", in: "9lives", want: "_9LIVES"},
		{name: "empty", in: "", want: "_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GraphEnumName(tt.in); got != tt.want {
				t.Errorf("GraphEnumName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDeduplicateGraphEnumNames(t *testing.T) {
	names := []string{"products", "PRODUCTS", "products-v2", "reviews"}
	got := DeduplicateGraphEnumNames(names)

	want := map[string]string{
		"products":    "PRODUCTS",
		"PRODUCTS":    "PRODUCTS_2",
		"products-v2": "PRODUCTS_V2",
		"reviews":     "REVIEWS",
	}

	for k, v := range want {
		if got[k] != v {
			t.Errorf("DeduplicateGraphEnumNames()[%q] = %q, want %q", k, got[k], v)
		}
	}
}

func TestParseFieldSet(t *testing.T) {
	fs, err := ParseFieldSet("Product", "upc sku")
	if err != nil {
		t.Fatal(err)
	}
	if fs.IsEmpty() {
		t.Fatalf("ParseFieldSet(%q) is empty", "upc sku")
	}
	if !fs.ReferencesField("upc") || !fs.ReferencesField("sku") {
		t.Errorf("ParseFieldSet(%q) does not reference expected fields: %v", "upc sku", fs.TopLevelFieldNames())
	}
	if fs.ReferencesField("name") {
		t.Errorf("ParseFieldSet(%q) unexpectedly references name", "upc sku")
	}

	empty, err := ParseFieldSet("Product", "")
	if err != nil {
		t.Fatal(err)
	}
	if !empty.IsEmpty() {
		t.Errorf("ParseFieldSet(\"\") should be empty")
	}
}
