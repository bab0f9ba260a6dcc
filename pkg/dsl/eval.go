package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/shoprec/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
)

// initCELEnv 初始化 CEL 环境，定义变量
func initCELEnv() (*cel.Env, error) {
	env, err := cel.NewEnv(
		cel.Variable("item", cel.DynType),
		cel.Variable("product", cel.DynType),
		cel.Variable("label", cel.DynType),
		cel.Variable("rctx", cel.DynType),
	)
	return env, err
}

// getCELEnv 获取或创建 CEL 环境
func getCELEnv() (*cel.Env, error) {
	var err error
	celEnvOnce.Do(func() {
		celEnv, err = initCELEnv()
	})
	return celEnv, err
}

// Eval 是业务规则 DSL 解释器，使用 CEL (Common Expression Language) 实现。
// 业务规则过滤（filter.RuleFilter）用它表达"保留条件"，返回 false 的候选被剔除。
//
// 表达式语法（CEL 标准语法）：
//   - 库存与上架：product.in_stock && product.is_active
//   - 数值：item.score > 0.7 / product.price_cents < 10000
//   - 场景：rctx.scene == "cart" / rctx.product_id != item.id
//   - 标签：label.recall_source.contains("content")
//
// 示例：
//   - `product.category != "Gift Cards"` → 类目黑名单
//   - `item.score > 0.1 || rctx.scene == "homepage"` → 低分候选仅首页保留
type Eval struct {
	item *core.Candidate
	rctx *core.RecommendContext
	env  *cel.Env
}

// NewEval 创建一个新的 DSL 解释器。
func NewEval(item *core.Candidate, rctx *core.RecommendContext) *Eval {
	env, _ := getCELEnv()
	return &Eval{
		item: item,
		rctx: rctx,
		env:  env,
	}
}

// Evaluate 解析并执行 DSL 表达式，返回布尔结果。
// 空表达式恒为 true。
//
// 注意：CEL 访问不存在的 key 会报错，检查存在性请用 label.key != null。
func (e *Eval) Evaluate(expr string) (bool, error) {
	if expr == "" {
		return true, nil
	}

	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return false, fmt.Errorf("compile error: %v", issues.Err())
	}

	prg, err := e.env.Program(ast)
	if err != nil {
		return false, fmt.Errorf("program error: %v", err)
	}

	out, _, err := prg.Eval(e.buildInput())
	if err != nil {
		return false, fmt.Errorf("eval error: %v", err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}

	return result, nil
}

// buildInput 构建 CEL 表达式的输入数据
func (e *Eval) buildInput() map[string]interface{} {
	labels := make(map[string]interface{})
	labelAccessor := make(map[string]interface{})
	for k, v := range e.item.Labels {
		labels[k] = map[string]interface{}{
			"value":  v.Value,
			"source": v.Source,
		}
		// label.recall_source 直接访问 value
		labelAccessor[k] = v.Value
	}

	item := map[string]interface{}{
		"id":      e.item.ID,
		"score":   e.item.Score,
		"signals": e.item.Signals,
		"meta":    e.item.Meta,
		"labels":  labels,
	}

	product := map[string]interface{}{}
	if p := e.item.Product; p != nil {
		product = map[string]interface{}{
			"id":          p.ID,
			"name":        p.Name,
			"category":    p.Category,
			"price_cents": p.PriceCents,
			"stock":       p.Stock,
			"in_stock":    p.InStock(),
			"is_active":   p.IsActive,
			"popularity":  p.PopularityScore,
			"price_band":  p.PriceBand(),
		}
	}

	rctx := map[string]interface{}{
		"request_id": e.rctx.RequestID,
		"scene":      string(e.rctx.Scene),
		"user_id":    e.rctx.UserID,
		"product_id": e.rctx.ProductID,
		"query":      e.rctx.Query,
		"limit":      e.rctx.Limit,
		"params":     e.rctx.Params,
	}

	return map[string]interface{}{
		"item":    item,
		"product": product,
		"label":   labelAccessor,
		"rctx":    rctx,
	}
}
