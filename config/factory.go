package config

import (
	"time"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/feature"
	"github.com/rushteam/shoprec/filter"
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/pkg/conv"
	"github.com/rushteam/shoprec/rank"
	"github.com/rushteam/shoprec/recall"
	"github.com/rushteam/shoprec/rerank"
)

// 无外部依赖的 Node 在 init 中注册，开箱即用。
// 需要存储/模型服务的 Node 通过 RegisterXXX 闭包注入依赖后注册。
func init() {
	Register("rank.hybrid", buildHybridNode)
	Register("rerank.topn", buildTopNNode)
	Register("filter.diversity", buildDiversityNode)
	Register("filter.rules", buildRuleFilterNode)
}

func buildHybridNode(config map[string]interface{}) (pipeline.Node, error) {
	return &rank.HybridNode{
		Alpha: conv.ConfigGetFloat(config, "content_weight", 0.5),
		Beta:  conv.ConfigGetFloat(config, "collaborative_weight", 0.3),
		Gamma: conv.ConfigGetFloat(config, "popularity_weight", 0.2),
	}, nil
}

func buildTopNNode(config map[string]interface{}) (pipeline.Node, error) {
	return &rerank.TopNNode{
		N: conv.ConfigGetInt(config, "n", 0),
	}, nil
}

func buildDiversityNode(config map[string]interface{}) (pipeline.Node, error) {
	return &filter.DiversityNode{
		MaxPerCategory: conv.ConfigGetInt(config, "max_per_category", 3),
	}, nil
}

func buildRuleFilterNode(config map[string]interface{}) (pipeline.Node, error) {
	filters := []filter.Filter{&filter.StockFilter{}}
	if exprs := conv.SliceAnyToString(config["expressions"]); len(exprs) > 0 {
		filters = append(filters, &filter.RuleFilter{Expressions: exprs})
	}
	return &filter.Node{Filters: filters}, nil
}

// RegisterFanout 注册 recall.fanout 节点，召回源由调用方装配后注入。
//
// 支持的 config：
//   - timeout: 单源超时秒数
//   - max_concurrent: 最大并发数
func RegisterFanout(sources []recall.Source) {
	Register("recall.fanout", func(config map[string]interface{}) (pipeline.Node, error) {
		fanout := &recall.Fanout{Sources: sources}
		if sec := conv.ConfigGetInt(config, "timeout", 0); sec > 0 {
			fanout.Timeout = time.Duration(sec) * time.Second
		}
		fanout.MaxConcurrent = conv.ConfigGetInt(config, "max_concurrent", 0)
		return fanout, nil
	})
}

// RegisterCrossEncoder 注册 rerank.cross_encoder 节点。
//
// 支持的 config：
//   - top_k: 进入重排的候选数
//   - timeout: 模型调用超时秒数
func RegisterCrossEncoder(scorer core.CrossScorer, catalog core.Catalog) {
	Register("rerank.cross_encoder", func(config map[string]interface{}) (pipeline.Node, error) {
		node := &rerank.CrossEncoderNode{
			Scorer:  scorer,
			Catalog: catalog,
			TopK:    conv.ConfigGetInt(config, "top_k", 20),
		}
		if sec := conv.ConfigGetInt(config, "timeout", 0); sec > 0 {
			node.Timeout = time.Duration(sec) * time.Second
		}
		return node, nil
	})
}

// RegisterFeatureEnrich 注册 feature.enrich 节点。
//
// 支持的 config：
//   - features: 要拉取的特征名列表
//   - trending_feature: 并入热度信号的特征名
//   - timeout: 特征服务超时秒数
func RegisterFeatureEnrich(features core.FeatureService) {
	Register("feature.enrich", func(config map[string]interface{}) (pipeline.Node, error) {
		node := &feature.EnrichNode{
			Features:        features,
			FeatureNames:    conv.SliceAnyToString(config["features"]),
			TrendingFeature: conv.ConfigGet[string](config, "trending_feature", ""),
		}
		if sec := conv.ConfigGetInt(config, "timeout", 0); sec > 0 {
			node.Timeout = time.Duration(sec) * time.Second
		}
		return node, nil
	})
}
