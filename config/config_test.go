package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/rank"
	"github.com/rushteam/shoprec/rerank"
)

const pipelineYAML = `
pipeline:
  name: homepage
  nodes:
    - type: rank.hybrid
      config:
        content_weight: 0.6
        collaborative_weight: 0.2
        popularity_weight: 0.2
    - type: filter.diversity
      config:
        max_per_category: 2
    - type: rerank.topn
      config:
        n: 10
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestBuildPipelineFromYAML(t *testing.T) {
	cfg, err := pipeline.LoadFromYAML(writeConfig(t, pipelineYAML))
	if err != nil {
		t.Fatalf("LoadFromYAML: %v", err)
	}
	if cfg.Pipeline.Name != "homepage" {
		t.Errorf("name = %s, want homepage", cfg.Pipeline.Name)
	}

	if err := ValidatePipelineConfig(cfg); err != nil {
		t.Fatalf("ValidatePipelineConfig: %v", err)
	}

	p, err := cfg.BuildPipeline(DefaultFactory())
	if err != nil {
		t.Fatalf("BuildPipeline: %v", err)
	}
	if len(p.Nodes) != 3 {
		t.Fatalf("nodes = %d, want 3", len(p.Nodes))
	}

	hybrid, ok := p.Nodes[0].(*rank.HybridNode)
	if !ok {
		t.Fatalf("first node = %T, want *rank.HybridNode", p.Nodes[0])
	}
	if hybrid.Alpha != 0.6 || hybrid.Beta != 0.2 || hybrid.Gamma != 0.2 {
		t.Errorf("weights = %v/%v/%v, want 0.6/0.2/0.2", hybrid.Alpha, hybrid.Beta, hybrid.Gamma)
	}
	if topn, ok := p.Nodes[2].(*rerank.TopNNode); !ok || topn.N != 10 {
		t.Errorf("last node = %T, want *rerank.TopNNode with n=10", p.Nodes[2])
	}
}

func TestConfiguredPipelineRuns(t *testing.T) {
	cfg, err := pipeline.LoadFromYAML(writeConfig(t, pipelineYAML))
	if err != nil {
		t.Fatalf("LoadFromYAML: %v", err)
	}
	p, err := cfg.BuildPipeline(DefaultFactory())
	if err != nil {
		t.Fatalf("BuildPipeline: %v", err)
	}

	items := []*core.Candidate{}
	for _, id := range []string{"a", "b", "c"} {
		c := core.NewCandidate(&core.Product{ID: id, Category: "X", Stock: 1, IsActive: true})
		c.PutSignal(core.SignalContent, 0.5)
		items = append(items, c)
	}
	items[1].PutSignal(core.SignalContent, 1.0)

	out, err := p.Run(context.Background(), &core.RecommendContext{Scene: core.SceneHomepage}, items)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(out) != 3 || out[0].ID != "b" {
		t.Errorf("configured pipeline output = %v, want b first", out)
	}
}

func TestValidatePipelineConfig_UnknownType(t *testing.T) {
	cfg := &pipeline.Config{}
	cfg.Pipeline.Nodes = []pipeline.NodeConfig{{Type: "rank.quantum"}}

	if err := ValidatePipelineConfig(cfg); err == nil {
		t.Errorf("unknown node type must be rejected")
	}
}

func TestSupportedTypesIncludesBuiltins(t *testing.T) {
	types := SupportedTypes()
	want := map[string]bool{
		"rank.hybrid":      false,
		"rerank.topn":      false,
		"filter.diversity": false,
		"filter.rules":     false,
	}
	for _, typ := range types {
		if _, ok := want[typ]; ok {
			want[typ] = true
		}
	}
	for typ, seen := range want {
		if !seen {
			t.Errorf("builtin type %s not registered", typ)
		}
	}
}
