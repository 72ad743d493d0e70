// Package config loads the YAML-based configuration consumed by the
// fedgraph CLI: the subgraph manifest composition reads, and the planner
// tunables of §5/§6, following the teacher's gateway.yaml convention
// (server/gateway.go's loadGatewaySetting).
package config

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/n9te9/federation-core/planner"
)

// SubgraphEntry is one row of the subgraph manifest: a name, its serving
// URL (carried through to the supergraph's join__Graph url argument), and
// the path to its SDL file on disk.
type SubgraphEntry struct {
	Name    string `yaml:"name"`
	URL     string `yaml:"url"`
	SDLPath string `yaml:"sdl_path"`
}

// TracingSetting mirrors the teacher's Opentelemetry.TracingSetting shape
// (server/gateway.go).
type TracingSetting struct {
	Enable bool `yaml:"enable"`
}

// OpentelemetrySetting groups the tracing knobs under one YAML key.
type OpentelemetrySetting struct {
	TracingSetting TracingSetting `yaml:"tracing"`
}

// Manifest is the top-level fedgraph.yaml document.
type Manifest struct {
	ServiceName    string               `yaml:"service_name"`
	Subgraphs      []SubgraphEntry      `yaml:"subgraphs"`
	Planner        PlannerSettings      `yaml:"planner"`
	Opentelemetry  OpentelemetrySetting `yaml:"opentelemetry"`
}

// PlannerSettings is the YAML-facing mirror of planner.PlannerConfig; it is
// translated by ToPlannerConfig rather than embedding the planner package's
// type directly, so the config schema stays stable even if the planner's
// internal representation changes.
type PlannerSettings struct {
	MaxEvaluatedPlans       int  `yaml:"max_evaluated_plans"`
	PathsLimit              int  `yaml:"paths_limit"`
	TypeConditionedFetching bool `yaml:"type_conditioned_fetching"`
	ExperimentalParallelism int  `yaml:"experimental_parallelism"`
}

// Load reads and parses a manifest file from path.
func Load(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config %s: %w", path, err)
	}
	defer f.Close()

	b, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if m.ServiceName == "" {
		m.ServiceName = "fedgraph"
	}
	return &m, nil
}

// ToPlannerConfig translates the YAML-facing planner settings into
// planner.PlannerConfig.
func (s PlannerSettings) ToPlannerConfig() planner.PlannerConfig {
	return planner.PlannerConfig{
		MaxEvaluatedPlans:       s.MaxEvaluatedPlans,
		PathsLimit:              s.PathsLimit,
		TypeConditionedFetching: s.TypeConditionedFetching,
		ExperimentalParallelism: s.ExperimentalParallelism,
	}
}

// ReadSubgraphSDLs loads every subgraph's SDL file named in the manifest,
// keyed by subgraph name.
func (m *Manifest) ReadSubgraphSDLs() (map[string][]byte, error) {
	out := make(map[string][]byte, len(m.Subgraphs))
	for _, s := range m.Subgraphs {
		b, err := os.ReadFile(s.SDLPath)
		if err != nil {
			return nil, fmt.Errorf("read subgraph %s SDL at %s: %w", s.Name, s.SDLPath, err)
		}
		out[s.Name] = b
	}
	return out, nil
}
