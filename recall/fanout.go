package recall

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/pkg/utils"
)

// Fanout 是一个 Recall Node：并发执行多个召回源，并按信号合并结果。
// 支持超时、限流。
//
// 合并规则：同一商品被多个召回源命中时按 Candidate.Merge 合并
// （信号 max-wins，商品引用 first-seen），合并顺序按 Sources 声明顺序，
// 与各 goroutine 的完成顺序无关，保证同样输入产出同样的池。
type Fanout struct {
	Sources       []Source
	Timeout       time.Duration // 每个召回源的超时时间
	MaxConcurrent int           // 最大并发数（0 表示无限制）
	Logger        *zap.Logger
}

func (n *Fanout) Name() string        { return "recall.fanout" }
func (n *Fanout) Kind() pipeline.Kind { return pipeline.KindRecall }

func (n *Fanout) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Candidate,
) ([]*core.Candidate, error) {
	if len(n.Sources) == 0 {
		return nil, nil
	}

	logger := n.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// 各源结果按声明顺序落位，合并阶段不受完成顺序影响
	results := make([][]*core.Candidate, len(n.Sources))
	eg, egCtx := errgroup.WithContext(ctx)

	// 限流：使用 semaphore 控制并发数
	var sem chan struct{}
	if n.MaxConcurrent > 0 {
		sem = make(chan struct{}, n.MaxConcurrent)
	}

	for i, src := range n.Sources {
		idx, s := i, src

		eg.Go(func() error {
			if sem != nil {
				sem <- struct{}{}
				defer func() { <-sem }()
			}

			recallCtx := egCtx
			if n.Timeout > 0 {
				var cancel context.CancelFunc
				recallCtx, cancel = context.WithTimeout(egCtx, n.Timeout)
				defer cancel()
			}

			items, err := s.Recall(recallCtx, rctx)
			if err != nil {
				// 失败源贡献空池，不中断其他召回源
				logger.Warn("recall source failed",
					zap.String("source", s.Name()),
					zap.String("request_id", rctx.RequestID),
					zap.Error(err))
				return nil
			}

			for _, it := range items {
				it.PutLabel("recall_source", utils.Label{Value: s.Name(), Source: "recall"})
				it.PutLabel("recall_priority", utils.Label{Value: strconv.Itoa(idx), Source: "recall"})
			}

			results[idx] = items
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return n.merge(results), nil
}

// merge 按声明顺序合并各源结果：同 ID 候选信号 max-wins，首现顺序保留。
func (n *Fanout) merge(results [][]*core.Candidate) []*core.Candidate {
	seen := make(map[string]*core.Candidate)
	out := make([]*core.Candidate, 0)
	for _, items := range results {
		for _, it := range items {
			if it == nil || it.ID == "" {
				continue
			}
			if old, ok := seen[it.ID]; ok {
				old.Merge(it)
				continue
			}
			seen[it.ID] = it
			out = append(out, it)
		}
	}
	return out
}

var _ pipeline.Node = (*Fanout)(nil)
