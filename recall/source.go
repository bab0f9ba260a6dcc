package recall

import (
	"context"

	"github.com/rushteam/shoprec/core"
)

// Source 表示一个可复用的召回源（内容/协同/共购/热度）。
// 你可以把它理解为"可并发 fan-out 的策略单元"。
//
// 约定：召回源失败（超时、依赖异常）只贡献空池，由 Fanout 隔离，
// 不中断同一请求内的其他召回源。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Candidate, error)
}
