package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rushteam/shoprec/core"
)

func newTestStore(t *testing.T) *MemoryStore {
	t.Helper()
	s := NewMemoryStore()
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMemoryStore_GetSet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, core.ErrStoreNotFound) {
		t.Errorf("missing key: want ErrStoreNotFound, got %v", err)
	}

	if err := s.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := s.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Errorf("Get = %q, %v, want v", got, err)
	}

	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, "k"); !errors.Is(err, core.ErrStoreNotFound) {
		t.Errorf("deleted key: want ErrStoreNotFound, got %v", err)
	}
}

func TestMemoryStore_TTLExpiry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Set(ctx, "k", []byte("v"), 1); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := s.Get(ctx, "k"); err != nil {
		t.Fatalf("fresh key should be readable: %v", err)
	}

	// lazy expiry on read, no cleanup tick needed
	time.Sleep(1100 * time.Millisecond)
	if _, err := s.Get(ctx, "k"); !errors.Is(err, core.ErrStoreNotFound) {
		t.Errorf("expired key: want ErrStoreNotFound, got %v", err)
	}
}

func TestMemoryStore_ZRangeOrdering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	members := map[string]float64{
		"p3": 0.5,
		"p1": 0.9,
		"p2": 0.9, // tie with p1
		"p4": 0.1,
	}
	for m, score := range members {
		if err := s.ZAdd(ctx, "popular", score, m); err != nil {
			t.Fatalf("ZAdd: %v", err)
		}
	}

	got, err := s.ZRange(ctx, "popular", 0, 2)
	if err != nil {
		t.Fatalf("ZRange: %v", err)
	}
	// score desc, member asc on ties
	want := []string{"p1", "p2", "p3"}
	if len(got) != len(want) {
		t.Fatalf("ZRange = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ZRange = %v, want %v", got, want)
		}
	}
}

func TestMemoryStore_Hash(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.HSet(ctx, "product:p1", "name", []byte("Headphones")); err != nil {
		t.Fatalf("HSet: %v", err)
	}
	if err := s.HSet(ctx, "product:p1", "category", []byte("Electronics")); err != nil {
		t.Fatalf("HSet: %v", err)
	}

	got, err := s.HGet(ctx, "product:p1", "name")
	if err != nil || string(got) != "Headphones" {
		t.Errorf("HGet = %q, %v", got, err)
	}

	all, err := s.HGetAll(ctx, "product:p1")
	if err != nil || len(all) != 2 {
		t.Errorf("HGetAll = %v, %v, want 2 fields", all, err)
	}
}

func TestMemoryOrderStore_CoPurchased(t *testing.T) {
	orders := NewMemoryOrderStore()
	orders.AddOrder([]string{"p1", "p2"})
	orders.AddOrder([]string{"p1", "p2", "p3"})
	orders.AddOrder([]string{"p1", "p4"})

	got, err := orders.CoPurchased(context.Background(), "p1", 10)
	if err != nil {
		t.Fatalf("CoPurchased: %v", err)
	}
	// p2 twice, p3 and p4 once (ID asc on tie)
	want := []core.CoPurchase{
		{ProductID: "p2", Frequency: 2},
		{ProductID: "p3", Frequency: 1},
		{ProductID: "p4", Frequency: 1},
	}
	if len(got) != len(want) {
		t.Fatalf("CoPurchased = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("CoPurchased = %v, want %v", got, want)
		}
	}

	limited, err := orders.CoPurchased(context.Background(), "p1", 1)
	if err != nil || len(limited) != 1 || limited[0].ProductID != "p2" {
		t.Errorf("limit 1 = %v, %v, want [p2]", limited, err)
	}

	empty, err := orders.CoPurchased(context.Background(), "never-sold", 5)
	if err != nil || len(empty) != 0 {
		t.Errorf("unknown product = %v, %v, want empty", empty, err)
	}
}

func TestMemoryLedger_OrderAndValidation(t *testing.T) {
	ledger := NewMemoryLedger()
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	// recorded out of order, listed by time ascending
	events := []*core.Interaction{
		{UserID: "u1", ProductID: "p2", Kind: core.InteractionView, CreatedAt: base.Add(2 * time.Hour)},
		{UserID: "u1", ProductID: "p1", Kind: core.InteractionPurchase, CreatedAt: base},
		{UserID: "u2", ProductID: "p1", Kind: core.InteractionView, CreatedAt: base.Add(time.Hour)},
	}
	for _, it := range events {
		if err := ledger.Record(ctx, it); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	got, err := ledger.ListByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(got) != 2 || got[0].ProductID != "p1" || got[1].ProductID != "p2" {
		t.Errorf("u1 history not time-ascending: %v", got)
	}
	for _, it := range got {
		if it.ID == "" {
			t.Errorf("ledger must assign an id")
		}
	}

	if err := ledger.Record(ctx, &core.Interaction{ProductID: "p1", Kind: core.InteractionView}); !core.IsInvalidRequest(err) {
		t.Errorf("missing user: want INVALID_REQUEST, got %v", err)
	}
	if err := ledger.Record(ctx, &core.Interaction{UserID: "u1", Kind: "unknown"}); !core.IsInvalidRequest(err) {
		t.Errorf("unknown kind: want INVALID_REQUEST, got %v", err)
	}
}
