package planner

import "testing"

func TestTriggerStore_AddFieldTriggerUsesAliasAsResponseKey(t *testing.T) {
	doc := parseDoc(t, `query { renamed: name }`)
	op, err := OperationFromDocument(doc, "")
	if err != nil {
		t.Fatalf("OperationFromDocument() error = %v", err)
	}
	field := op.Selections[0].Field

	var store TriggerStore
	idx := store.AddFieldTrigger(field, "")
	got := store.get(idx)

	if got.Kind != TriggerOpPathElement {
		t.Errorf("Kind = %v, want TriggerOpPathElement", got.Kind)
	}
	if got.Element.FieldName != "name" {
		t.Errorf("FieldName = %q, want %q", got.Element.FieldName, "name")
	}
	if got.Element.ResponseKey != "renamed" {
		t.Errorf("ResponseKey = %q, want the alias %q", got.Element.ResponseKey, "renamed")
	}
}

func TestTriggerStore_AddFieldTriggerFallsBackToFieldNameWithoutAlias(t *testing.T) {
	doc := parseDoc(t, `query { name }`)
	op, err := OperationFromDocument(doc, "")
	if err != nil {
		t.Fatalf("OperationFromDocument() error = %v", err)
	}
	field := op.Selections[0].Field

	var store TriggerStore
	idx := store.AddFieldTrigger(field, "deferred")
	got := store.get(idx)

	if got.Element.ResponseKey != "name" {
		t.Errorf("ResponseKey = %q, want %q", got.Element.ResponseKey, "name")
	}
	if got.Element.DeferLabel != "deferred" {
		t.Errorf("DeferLabel = %q, want %q", got.Element.DeferLabel, "deferred")
	}
}

func TestTriggerStore_AddTypeConditionTriggerIndicesAreStable(t *testing.T) {
	var store TriggerStore
	first := store.AddTypeConditionTrigger("Product")
	second := store.AddTypeConditionTrigger("Shipment")

	if first == second {
		t.Fatalf("expected distinct indices, got %d and %d", first, second)
	}
	if got := store.get(first); !got.Element.IsTypeCondition || got.Element.TypeCondition != "Product" {
		t.Errorf("get(first) = %+v, want IsTypeCondition=true TypeCondition=Product", got)
	}
	if got := store.get(second); got.Element.TypeCondition != "Shipment" {
		t.Errorf("get(second) = %+v, want TypeCondition=Shipment", got)
	}
}
