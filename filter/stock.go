package filter

import (
	"context"

	"github.com/rushteam/shoprec/core"
)

// StockFilter 过滤不可售候选：无库存、已下架、或落在请求排除集中
// （种子商品、购物车已有商品）。
type StockFilter struct{}

func (f *StockFilter) Name() string {
	return "filter.stock"
}

func (f *StockFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Candidate,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	if rctx.Excluded(item.ID) {
		return true, nil
	}
	p := item.Product
	if p == nil {
		// 目录缺失的候选视为不可售
		return true, nil
	}
	if !p.IsActive || !p.InStock() {
		return true, nil
	}
	return false, nil
}

var _ Filter = (*StockFilter)(nil)
