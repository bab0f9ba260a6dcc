package dsl

import (
	"testing"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pkg/utils"
)

func testCandidate() *core.Candidate {
	c := core.NewCandidate(&core.Product{
		ID:         "p1",
		Name:       "Wireless Headphones",
		Category:   "Electronics",
		PriceCents: 7999,
		Stock:      3,
		IsActive:   true,
	})
	c.Score = 0.82
	c.PutLabel("recall_source", utils.Label{Value: "recall.content", Source: "recall"})
	return c
}

func testRctx() *core.RecommendContext {
	return &core.RecommendContext{
		Scene:  core.SceneHomepage,
		UserID: "u1",
	}
}

func TestEval_Evaluate(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		want    bool
		wantErr bool
	}{
		{"empty expression passes", "", true, false},
		{"category match", `product.category == "Electronics"`, true, false},
		{"category blacklist", `product.category != "Gift Cards"`, true, false},
		{"stock and active", `product.in_stock && product.is_active`, true, false},
		{"price threshold", `product.price_cents < 5000`, false, false},
		{"score threshold", `item.score > 0.7`, true, false},
		{"scene guard", `rctx.scene == "homepage"`, true, false},
		{"label value access", `label.recall_source.contains("content")`, true, false},
		{"combined rule", `item.score > 0.1 || rctx.scene == "cart"`, true, false},
		{"syntax error", `product.category ==`, false, true},
		{"non-boolean result", `product.price_cents`, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEval(testCandidate(), testRctx())
			got, err := e.Evaluate(tt.expr)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Evaluate(%q) error = %v, wantErr %v", tt.expr, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Evaluate(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestEval_NilProduct(t *testing.T) {
	c := core.NewCandidate(nil)
	c.ID = "ghost"
	e := NewEval(c, testRctx())

	// product map is empty but expressions over item still work
	got, err := e.Evaluate(`item.id == "ghost"`)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !got {
		t.Errorf("item.id lookup failed for catalog-less candidate")
	}
}
