package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/rushteam/shoprec/core"
)

// MemoryLedger 是内存实现的行为账本（append-only）。
// 只追加、不修改、不删除；ListByUser 返回拷贝切片，调用方可自由排序截断。
type MemoryLedger struct {
	mu     sync.RWMutex
	byUser map[string][]*core.Interaction
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		byUser: make(map[string][]*core.Interaction),
	}
}

func (m *MemoryLedger) Record(ctx context.Context, it *core.Interaction) error {
	if it == nil || it.UserID == "" {
		return core.NewDomainError(core.ModuleLedger, core.ErrorCodeInvalidRequest,
			"interaction must carry a user id")
	}
	if !it.Kind.Valid() {
		return core.NewDomainError(core.ModuleLedger, core.ErrorCodeInvalidRequest,
			"unknown interaction kind: "+string(it.Kind))
	}

	cp := *it
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.byUser[cp.UserID] = append(m.byUser[cp.UserID], &cp)
	return nil
}

func (m *MemoryLedger) ListByUser(ctx context.Context, userID string) ([]*core.Interaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := m.byUser[userID]
	out := make([]*core.Interaction, len(list))
	copy(out, list)

	// 按时间升序，同一时刻按 ID 升序（可复现）
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

var _ core.InteractionLedger = (*MemoryLedger)(nil)
