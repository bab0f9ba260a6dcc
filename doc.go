// Package shoprec 是电商场景的混合推荐引擎（Shop Recommender）。
//
// 设计要点：
// - Pipeline-first: 推荐逻辑通过 Node 串联（Recall → Rank → ReRank → Filter）
// - 混合打分: 内容相似 + 协同信号 + 全局热度，归一化后加权融合
// - 账本驱动: 行为账本是个性化的唯一事实来源，偏好向量全量重算（幂等）
// - 降级优先: 模型服务失败回退融合序，召回源失败贡献空池，热度兜底冷启动
package shoprec

import "github.com/rushteam/shoprec/pipeline"

// 轻量 facade：便于用户直接 import "shoprec" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindRank        = pipeline.KindRank
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)
