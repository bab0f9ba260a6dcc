package filter

import (
	"context"
	"testing"

	"github.com/rushteam/shoprec/core"
)

func product(id, category string) *core.Candidate {
	return core.NewCandidate(&core.Product{
		ID:       id,
		Name:     id,
		Category: category,
		Stock:    1,
		IsActive: true,
	})
}

func ids(items []*core.Candidate) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestDiversityNode_DemotesInsteadOfDropping(t *testing.T) {
	node := &DiversityNode{MaxPerCategory: 3}

	items := []*core.Candidate{
		product("e1", "Electronics"),
		product("e2", "Electronics"),
		product("e3", "Electronics"),
		product("e4", "Electronics"),
		product("b1", "Books"),
		product("e5", "Electronics"),
	}

	out, err := node.Process(context.Background(), nil, items)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(out) != len(items) {
		t.Fatalf("diversity must not drop candidates: got %d, want %d", len(out), len(items))
	}

	want := []string{"e1", "e2", "e3", "b1", "e4", "e5"}
	got := ids(out)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}

	// demoted candidates carry the label
	if lbl, ok := out[4].Labels["diversity"]; !ok || lbl.Value != "demoted" {
		t.Errorf("demoted candidate missing diversity label: %+v", out[4].Labels)
	}
}

func TestDiversityNode_DemotedFillShortResults(t *testing.T) {
	// 20 candidates from 2 categories, cap 3 per category, limit 10:
	// the diverse head only holds 6, the demoted tail must fill the rest.
	node := &DiversityNode{MaxPerCategory: 3}

	items := make([]*core.Candidate, 0, 20)
	for i := 0; i < 10; i++ {
		items = append(items, product("e"+string(rune('0'+i)), "Electronics"))
		items = append(items, product("b"+string(rune('0'+i)), "Books"))
	}

	out, err := node.Process(context.Background(), nil, items)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	limit := 10
	top := out[:limit]
	if len(top) != limit {
		t.Fatalf("want %d results after truncation, got %d", limit, len(top))
	}

	// head is capped, remainder comes from demoted tail in stable order
	headCounts := map[string]int{}
	for _, it := range out[:6] {
		headCounts[it.Product.Category]++
	}
	if headCounts["Electronics"] != 3 || headCounts["Books"] != 3 {
		t.Errorf("diverse head counts = %v, want 3+3", headCounts)
	}
}

func TestDiversityNode_UnknownCategoryBucketed(t *testing.T) {
	node := &DiversityNode{MaxPerCategory: 1}

	items := []*core.Candidate{
		product("x1", ""),
		product("x2", ""),
	}
	out, err := node.Process(context.Background(), nil, items)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	// empty categories share the Unknown bucket
	if _, ok := out[1].Labels["diversity"]; !ok {
		t.Errorf("second empty-category candidate should be demoted")
	}
}

func TestNode_DropsWithReason(t *testing.T) {
	node := &Node{Filters: []Filter{&StockFilter{}}}
	rctx := &core.RecommendContext{Scene: core.SceneHomepage}

	inStock := product("ok", "Electronics")
	outOfStock := product("gone", "Electronics")
	outOfStock.Product.Stock = 0

	out, err := node.Process(context.Background(), rctx, []*core.Candidate{inStock, outOfStock})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(out) != 1 || out[0].ID != "ok" {
		t.Fatalf("want only in-stock candidate, got %v", ids(out))
	}
	if lbl, ok := outOfStock.Labels["filtered"]; !ok || lbl.Source != "filter.stock" {
		t.Errorf("dropped candidate missing filter reason: %+v", outOfStock.Labels)
	}
}

func TestStockFilter_ExcludesSeedAndCart(t *testing.T) {
	f := &StockFilter{}
	rctx := &core.RecommendContext{
		Scene:          core.SceneCart,
		ProductID:      "seed",
		CartProductIDs: []string{"c1"},
	}

	tests := []struct {
		name string
		item *core.Candidate
		want bool
	}{
		{"seed product filtered", product("seed", "A"), true},
		{"cart product filtered", product("c1", "A"), true},
		{"inactive filtered", func() *core.Candidate {
			c := product("p", "A")
			c.Product.IsActive = false
			return c
		}(), true},
		{"nil product filtered", core.NewCandidate(nil), true},
		{"sellable kept", product("p2", "A"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.ShouldFilter(context.Background(), rctx, tt.item)
			if err != nil {
				t.Fatalf("ShouldFilter() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ShouldFilter() = %v, want %v", got, tt.want)
			}
		})
	}
}
