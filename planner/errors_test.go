package planner

import "testing"

func TestPathsLimitExceededError(t *testing.T) {
	err := pathsLimitExceededError(42)
	if err.Kind != ErrPathsLimitExceeded {
		t.Errorf("Kind = %v, want ErrPathsLimitExceeded", err.Kind)
	}
	if err.Error() == "" {
		t.Errorf("Error() is empty")
	}
}

func TestUnadvanceables_FormatsLazily(t *testing.T) {
	called := false
	closures := []unadvanceable{
		{format: func() string { called = true; return "no post-require key" }},
	}
	if called {
		t.Fatalf("format closure must not run before unadvanceables is called")
	}
	got := unadvanceables(closures)
	if !called {
		t.Errorf("expected unadvanceables to invoke the format closure")
	}
	if len(got) != 1 || got[0] != "no post-require key" {
		t.Errorf("unadvanceables() = %v, want [%q]", got, "no post-require key")
	}
}

func TestSatisfiabilityDiagnostic_Error(t *testing.T) {
	d := &SatisfiabilityDiagnostic{
		Kind:         DiagUnsatisfiableRequiresCondition,
		FromSubgraph: "shipping",
		ToSubgraph:   "products",
		Details:      "weight is never reachable",
	}
	got := d.Error()
	want := "UnsatisfiableRequiresCondition: weight is never reachable"
	if got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
