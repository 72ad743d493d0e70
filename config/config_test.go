package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	productsSDL := writeTempFile(t, dir, "products.graphql", "type Query { a: String }")

	manifest := writeTempFile(t, dir, "fedgraph.yaml", `
service_name: test-gateway
subgraphs:
  - name: products
    url: http://products.internal
    sdl_path: `+productsSDL+`
planner:
  max_evaluated_plans: 500
  paths_limit: 10
opentelemetry:
  tracing:
    enable: true
`)

	m, err := Load(manifest)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if m.ServiceName != "test-gateway" {
		t.Errorf("ServiceName = %q, want %q", m.ServiceName, "test-gateway")
	}
	if len(m.Subgraphs) != 1 || m.Subgraphs[0].Name != "products" {
		t.Fatalf("Subgraphs = %+v, want one entry named products", m.Subgraphs)
	}
	if m.Planner.MaxEvaluatedPlans != 500 || m.Planner.PathsLimit != 10 {
		t.Errorf("Planner = %+v, want MaxEvaluatedPlans=500 PathsLimit=10", m.Planner)
	}
	if !m.Opentelemetry.TracingSetting.Enable {
		t.Errorf("Opentelemetry.TracingSetting.Enable = false, want true")
	}

	sdls, err := m.ReadSubgraphSDLs()
	if err != nil {
		t.Fatalf("ReadSubgraphSDLs() error = %v", err)
	}
	if string(sdls["products"]) != "type Query { a: String }" {
		t.Errorf("ReadSubgraphSDLs()[products] = %q", sdls["products"])
	}
}

func TestLoad_DefaultsServiceName(t *testing.T) {
	dir := t.TempDir()
	manifest := writeTempFile(t, dir, "fedgraph.yaml", "subgraphs: []\n")

	m, err := Load(manifest)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if m.ServiceName != "fedgraph" {
		t.Errorf("ServiceName = %q, want default %q", m.ServiceName, "fedgraph")
	}
}

func TestPlannerSettings_ToPlannerConfig(t *testing.T) {
	s := PlannerSettings{
		MaxEvaluatedPlans:       1000,
		PathsLimit:              5,
		TypeConditionedFetching: true,
		ExperimentalParallelism: 4,
	}
	got := s.ToPlannerConfig()
	if got.MaxEvaluatedPlans != 1000 || got.PathsLimit != 5 || !got.TypeConditionedFetching || got.ExperimentalParallelism != 4 {
		t.Errorf("ToPlannerConfig() = %+v, want fields to match PlannerSettings", got)
	}
}
