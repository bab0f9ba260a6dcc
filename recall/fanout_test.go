package recall

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rushteam/shoprec/core"
)

// stubSource 是测试用召回源
type stubSource struct {
	name  string
	items []*core.Candidate
	err   error
	delay time.Duration
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Recall(ctx context.Context, _ *core.RecommendContext) ([]*core.Candidate, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.items, nil
}

func stubCandidate(id, signal string, value float64) *core.Candidate {
	c := core.NewCandidate(&core.Product{ID: id, Name: id})
	c.PutSignal(signal, value)
	return c
}

func TestFanout_MergesSignalsMaxWins(t *testing.T) {
	fanout := &Fanout{
		Sources: []Source{
			&stubSource{name: "content", items: []*core.Candidate{
				stubCandidate("p1", core.SignalContent, 0.9),
			}},
			&stubSource{name: "popular", items: []*core.Candidate{
				stubCandidate("p1", core.SignalPopularity, 0.7),
				stubCandidate("p2", core.SignalPopularity, 0.6),
			}},
		},
	}

	out, err := fanout.Process(context.Background(), &core.RecommendContext{}, nil)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("merged pool size = %d, want 2", len(out))
	}

	// p1 carries both signals after merge
	p1 := out[0]
	if p1.ID != "p1" {
		t.Fatalf("first candidate = %s, want p1 (source order)", p1.ID)
	}
	if p1.Signal(core.SignalContent) != 0.9 || p1.Signal(core.SignalPopularity) != 0.7 {
		t.Errorf("p1 signals = %v, want both content and popularity", p1.Signals)
	}
}

func TestFanout_SameSignalKeepsMax(t *testing.T) {
	fanout := &Fanout{
		Sources: []Source{
			&stubSource{name: "a", items: []*core.Candidate{
				stubCandidate("p1", core.SignalCollaborative, 3),
			}},
			&stubSource{name: "b", items: []*core.Candidate{
				stubCandidate("p1", core.SignalCollaborative, 8),
			}},
		},
	}

	out, err := fanout.Process(context.Background(), &core.RecommendContext{}, nil)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("pool size = %d, want 1", len(out))
	}
	// duplicate hit must not inflate the signal, max wins
	if got := out[0].Signal(core.SignalCollaborative); got != 8 {
		t.Errorf("merged signal = %v, want 8", got)
	}
}

func TestFanout_FailingSourceIsolated(t *testing.T) {
	fanout := &Fanout{
		Sources: []Source{
			&stubSource{name: "broken", err: errors.New("connection refused")},
			&stubSource{name: "popular", items: []*core.Candidate{
				stubCandidate("p1", core.SignalPopularity, 0.5),
			}},
		},
	}

	out, err := fanout.Process(context.Background(), &core.RecommendContext{}, nil)
	if err != nil {
		t.Fatalf("failing source must not abort the request: %v", err)
	}
	if len(out) != 1 || out[0].ID != "p1" {
		t.Errorf("surviving pool = %v, want [p1]", out)
	}
}

func TestFanout_TimeoutIsolated(t *testing.T) {
	fanout := &Fanout{
		Timeout: 10 * time.Millisecond,
		Sources: []Source{
			&stubSource{name: "slow", delay: 200 * time.Millisecond, items: []*core.Candidate{
				stubCandidate("slow1", core.SignalContent, 0.9),
			}},
			&stubSource{name: "fast", items: []*core.Candidate{
				stubCandidate("fast1", core.SignalPopularity, 0.5),
			}},
		},
	}

	out, err := fanout.Process(context.Background(), &core.RecommendContext{}, nil)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(out) != 1 || out[0].ID != "fast1" {
		t.Errorf("timed-out source should contribute nothing, got %v", out)
	}
}

func TestFanout_DeterministicOrder(t *testing.T) {
	build := func() *Fanout {
		return &Fanout{
			Sources: []Source{
				&stubSource{name: "a", delay: 5 * time.Millisecond, items: []*core.Candidate{
					stubCandidate("p1", core.SignalContent, 0.9),
					stubCandidate("p2", core.SignalContent, 0.8),
				}},
				&stubSource{name: "b", items: []*core.Candidate{
					stubCandidate("p3", core.SignalPopularity, 0.7),
				}},
			},
		}
	}

	want := []string{"p1", "p2", "p3"}
	for i := 0; i < 5; i++ {
		out, err := build().Process(context.Background(), &core.RecommendContext{}, nil)
		if err != nil {
			t.Fatalf("Process() error = %v", err)
		}
		if len(out) != len(want) {
			t.Fatalf("pool size = %d, want %d", len(out), len(want))
		}
		for j := range want {
			// merge order follows source declaration even when b finishes first
			if out[j].ID != want[j] {
				t.Fatalf("run %d: order = %v, want %v", i, out, want)
			}
		}
	}
}

func TestFanout_RecallSourceLabel(t *testing.T) {
	fanout := &Fanout{
		Sources: []Source{
			&stubSource{name: "recall.popular", items: []*core.Candidate{
				stubCandidate("p1", core.SignalPopularity, 0.5),
			}},
		},
	}

	out, err := fanout.Process(context.Background(), &core.RecommendContext{}, nil)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	lbl, ok := out[0].Labels["recall_source"]
	if !ok || lbl.Value != "recall.popular" {
		t.Errorf("recall_source label = %+v, want recall.popular", lbl)
	}
}
