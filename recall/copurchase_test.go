package recall

import (
	"context"
	"testing"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/store"
)

func copurchaseFixture(t *testing.T) (*CoPurchaseSource, *store.MemoryOrderStore) {
	t.Helper()
	orders := store.NewMemoryOrderStore()
	catalog := store.NewMemoryCatalog()
	for _, id := range []string{"p1", "p2", "p3", "p4", "p5", "c1", "c2", "c3", "c4"} {
		catalog.PutProduct(&core.Product{ID: id, Name: id, Stock: 1, IsActive: true})
	}
	return &CoPurchaseSource{Orders: orders, Catalog: catalog}, orders
}

func TestCoPurchaseSource_ProductSeed(t *testing.T) {
	src, orders := copurchaseFixture(t)
	orders.AddOrder([]string{"p1", "p2"})
	orders.AddOrder([]string{"p1", "p2", "p3"})

	out, err := src.Recall(context.Background(), &core.RecommendContext{
		Scene:     core.SceneProduct,
		ProductID: "p1",
	})
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if len(out) != 2 || out[0].ID != "p2" || out[1].ID != "p3" {
		t.Fatalf("candidates = %v, want [p2 p3]", out)
	}
	// seed itself never comes back
	for _, c := range out {
		if c.ID == "p1" {
			t.Errorf("seed leaked into co-purchase results")
		}
	}
	if out[0].Signal(core.SignalCollaborative) != 2 {
		t.Errorf("p2 frequency = %v, want 2", out[0].Signal(core.SignalCollaborative))
	}
}

func TestCoPurchaseSource_CartTakesFirstThreeSeeds(t *testing.T) {
	src, orders := copurchaseFixture(t)
	// c4 is the fourth cart item, its co-purchases must be ignored
	orders.AddOrder([]string{"c1", "p1"})
	orders.AddOrder([]string{"c2", "p2"})
	orders.AddOrder([]string{"c3", "p3"})
	orders.AddOrder([]string{"c4", "p4"})
	orders.AddOrder([]string{"c4", "p4"})

	out, err := src.Recall(context.Background(), &core.RecommendContext{
		Scene:          core.SceneCart,
		CartProductIDs: []string{"c1", "c2", "c3", "c4"},
	})
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	for _, c := range out {
		if c.ID == "p4" {
			t.Errorf("fourth cart item contributed seeds: %v", out)
		}
	}
	if len(out) != 3 {
		t.Errorf("candidates = %d, want 3 (one per seeded cart item)", len(out))
	}
}

func TestCoPurchaseSource_FrequenciesSumAcrossSeeds(t *testing.T) {
	src, orders := copurchaseFixture(t)
	// p5 co-occurs with both cart items
	orders.AddOrder([]string{"c1", "p5"})
	orders.AddOrder([]string{"c2", "p5"})
	orders.AddOrder([]string{"c1", "p1"})

	out, err := src.Recall(context.Background(), &core.RecommendContext{
		Scene:          core.SceneCart,
		CartProductIDs: []string{"c1", "c2"},
	})
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if len(out) == 0 || out[0].ID != "p5" {
		t.Fatalf("candidates = %v, want p5 first (summed across seeds)", out)
	}
	if out[0].Signal(core.SignalCollaborative) != 2 {
		t.Errorf("p5 signal = %v, want 2", out[0].Signal(core.SignalCollaborative))
	}
}

func TestCoPurchaseSource_HomepageHasNoSeeds(t *testing.T) {
	src, orders := copurchaseFixture(t)
	orders.AddOrder([]string{"p1", "p2"})

	out, err := src.Recall(context.Background(), &core.RecommendContext{
		Scene:  core.SceneHomepage,
		UserID: "u1",
	})
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("homepage has no co-purchase seeds, got %v", out)
	}
}
