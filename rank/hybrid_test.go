package rank

import (
	"context"
	"testing"

	"github.com/rushteam/shoprec/core"
)

func candidateWith(id string, signals map[string]float64) *core.Candidate {
	c := core.NewCandidate(&core.Product{ID: id, Name: id})
	for name, v := range signals {
		c.PutSignal(name, v)
	}
	return c
}

func TestHybridScore(t *testing.T) {
	tests := []struct {
		name                            string
		alpha, beta, gamma              float64
		content, collaborative, popular float64
		want                            float64
	}{
		{
			name:  "default weights",
			alpha: 0.5, beta: 0.3, gamma: 0.2,
			content: 1.0, collaborative: 1.0, popular: 1.0,
			want: 1.0,
		},
		{
			name:  "missing signals contribute zero",
			alpha: 0.5, beta: 0.3, gamma: 0.2,
			content: 0.8, collaborative: 0, popular: 0,
			want: 0.4,
		},
		{
			name:  "popularity only",
			alpha: 0.5, beta: 0.3, gamma: 0.2,
			content: 0, collaborative: 0, popular: 0.5,
			want: 0.1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HybridScore(tt.alpha, tt.beta, tt.gamma, tt.content, tt.collaborative, tt.popular)
			if diff := got - tt.want; diff > 1e-12 || diff < -1e-12 {
				t.Errorf("HybridScore() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHybridNode_NormalizesPerSignal(t *testing.T) {
	node := &HybridNode{Alpha: 0.5, Beta: 0.3, Gamma: 0.2}

	// collaborative raw scores on different scale (co-purchase frequency)
	items := []*core.Candidate{
		candidateWith("p1", map[string]float64{core.SignalContent: 0.8, core.SignalCollaborative: 10}),
		candidateWith("p2", map[string]float64{core.SignalContent: 0.4, core.SignalCollaborative: 5}),
	}

	out, err := node.Process(context.Background(), nil, items)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	// p1: 0.5*1.0 + 0.3*1.0 = 0.8, p2: 0.5*0.5 + 0.3*0.5 = 0.4
	if out[0].ID != "p1" || out[1].ID != "p2" {
		t.Fatalf("unexpected order: %s, %s", out[0].ID, out[1].ID)
	}
	if got := out[0].Score; got < 0.8-1e-12 || got > 0.8+1e-12 {
		t.Errorf("p1 score = %v, want 0.8", got)
	}
	if got := out[1].Score; got < 0.4-1e-12 || got > 0.4+1e-12 {
		t.Errorf("p2 score = %v, want 0.4", got)
	}
}

func TestHybridNode_MissingSignalNotPenalized(t *testing.T) {
	node := &HybridNode{Alpha: 0.5, Beta: 0.3, Gamma: 0.2}

	items := []*core.Candidate{
		candidateWith("a", map[string]float64{core.SignalContent: 0.9}),
		candidateWith("b", map[string]float64{core.SignalPopularity: 1.0}),
	}

	out, err := node.Process(context.Background(), nil, items)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	// a = 0.5, b = 0.2: content-only candidate still wins
	if out[0].ID != "a" {
		t.Errorf("want content candidate first, got %s", out[0].ID)
	}
	if out[1].Score != 0.2 {
		t.Errorf("popularity-only score = %v, want 0.2", out[1].Score)
	}
}

func TestHybridNode_Deterministic(t *testing.T) {
	node := &HybridNode{Alpha: 0.5, Beta: 0.3, Gamma: 0.2}

	build := func() []*core.Candidate {
		return []*core.Candidate{
			candidateWith("p3", map[string]float64{core.SignalContent: 0.5}),
			candidateWith("p1", map[string]float64{core.SignalContent: 0.5}),
			candidateWith("p2", map[string]float64{core.SignalContent: 0.9}),
		}
	}

	first, err := node.Process(context.Background(), nil, build())
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	for i := 0; i < 10; i++ {
		next, err := node.Process(context.Background(), nil, build())
		if err != nil {
			t.Fatalf("Process() error = %v", err)
		}
		for j := range first {
			if first[j].ID != next[j].ID {
				t.Fatalf("run %d: order differs at %d: %s vs %s", i, j, first[j].ID, next[j].ID)
			}
		}
	}

	// equal scores break ties by ID ascending
	if first[1].ID != "p1" || first[2].ID != "p3" {
		t.Errorf("tie break order = %s, %s, want p1, p3", first[1].ID, first[2].ID)
	}
}

func TestHybridNode_NegativeWeightsRejected(t *testing.T) {
	node := &HybridNode{Alpha: -0.1, Beta: 0.3, Gamma: 0.2}
	_, err := node.Process(context.Background(), nil, []*core.Candidate{
		candidateWith("p1", nil),
	})
	if !core.IsInvalidRequest(err) {
		t.Errorf("want INVALID_REQUEST, got %v", err)
	}
}

func TestHybridNode_FusedScoreRetained(t *testing.T) {
	node := &HybridNode{Alpha: 0.5, Beta: 0.3, Gamma: 0.2}
	items := []*core.Candidate{
		candidateWith("p1", map[string]float64{core.SignalContent: 1.0}),
	}
	out, err := node.Process(context.Background(), nil, items)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	fused, ok := out[0].Meta["fused_score"].(float64)
	if !ok || fused != out[0].Score {
		t.Errorf("fused_score meta = %v, want %v", out[0].Meta["fused_score"], out[0].Score)
	}
}
