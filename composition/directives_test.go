package composition

import (
	"testing"

	"github.com/n9te9/graphql-parser/ast"
)

func argByName(args []*ast.Argument, name string) *ast.Argument {
	for _, a := range args {
		if a.Name.String() == name {
			return a
		}
	}
	return nil
}

func TestJoinTypeApplication_OmitsResolvableWhenTrue(t *testing.T) {
	d := joinTypeApplication("PRODUCTS", "upc", true, false, false, true)
	if d.Name != "join__type" {
		t.Fatalf("Name = %q, want join__type", d.Name)
	}
	if argByName(d.Arguments, "resolvable") != nil {
		t.Errorf("resolvable: true should be omitted (it's the default)")
	}
	key := argByName(d.Arguments, "key")
	if key == nil || key.Value.(*ast.StringValue).Value != "upc" {
		t.Errorf("expected key: \"upc\", got %v", key)
	}
}

func TestJoinTypeApplication_EmitsResolvableFalse(t *testing.T) {
	d := joinTypeApplication("SHIPPING", "upc", false, false, false, true)
	resolvable := argByName(d.Arguments, "resolvable")
	if resolvable == nil {
		t.Fatalf("expected an explicit resolvable argument when resolvable=false")
	}
	if bool(*resolvable.Value.(*ast.BooleanValue)) != false {
		t.Errorf("resolvable = %v, want false", resolvable.Value)
	}
}

func TestJoinTypeApplication_NoKeyOmitsKeyAndResolvable(t *testing.T) {
	d := joinTypeApplication("PRODUCTS", "", true, true, false, false)
	if argByName(d.Arguments, "key") != nil {
		t.Errorf("expected no key argument when hasKey is false")
	}
	if argByName(d.Arguments, "resolvable") != nil {
		t.Errorf("expected no resolvable argument when hasKey is false")
	}
	ext := argByName(d.Arguments, "extension")
	if ext == nil || bool(*ext.Value.(*ast.BooleanValue)) != true {
		t.Errorf("expected extension: true, got %v", ext)
	}
}

func TestJoinFieldApplication_OmitsEmptyOptionalArguments(t *testing.T) {
	d := joinFieldApplication("SHIPPING", "", "", false, "", false)
	if len(d.Arguments) != 1 {
		t.Fatalf("Arguments = %+v, want just graph when every optional is empty/false", d.Arguments)
	}
	if d.Arguments[0].Name.String() != "graph" {
		t.Errorf("Arguments[0].Name = %q, want graph", d.Arguments[0].Name.String())
	}
}

func TestJoinFieldApplication_IncludesRequiresAndOverride(t *testing.T) {
	d := joinFieldApplication("SHIPPING", "weight", "", true, "products", true)
	requires := argByName(d.Arguments, "requires")
	if requires == nil || requires.Value.(*ast.StringValue).Value != "weight" {
		t.Errorf("expected requires: \"weight\", got %v", requires)
	}
	if argByName(d.Arguments, "external") == nil {
		t.Errorf("expected an external argument when external=true")
	}
	override := argByName(d.Arguments, "override")
	if override == nil || override.Value.(*ast.StringValue).Value != "products" {
		t.Errorf("expected override: \"products\", got %v", override)
	}
	if argByName(d.Arguments, "usedOverridden") == nil {
		t.Errorf("expected a usedOverridden argument when usedOverridden=true")
	}
}

func TestJoinGraphEnum_OneValuePerSubgraphWithNameAndURL(t *testing.T) {
	names := []string{"products", "shipping"}
	enumValue := map[string]string{"products": "PRODUCTS", "shipping": "SHIPPING"}
	urls := map[string]string{"products": "http://products", "shipping": "http://shipping"}

	e := joinGraphEnum(names, enumValue, urls)
	if len(e.Values) != 2 {
		t.Fatalf("Values = %+v, want 2 entries", e.Values)
	}
	for i, name := range names {
		v := e.Values[i]
		if v.Name.String() != enumValue[name] {
			t.Errorf("Values[%d].Name = %q, want %q", i, v.Name.String(), enumValue[name])
		}
		if len(v.Directives) != 1 || v.Directives[0].Name != "join__graph" {
			t.Fatalf("Values[%d].Directives = %+v, want a single join__graph directive", i, v.Directives)
		}
		urlArg := argByName(v.Directives[0].Arguments, "url")
		if urlArg == nil || urlArg.Value.(*ast.StringValue).Value != urls[name] {
			t.Errorf("Values[%d] url = %v, want %q", i, urlArg, urls[name])
		}
	}
}
