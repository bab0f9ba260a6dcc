package utils

// Label 是推荐链路中的可解释标记：候选从召回到重排的每一步都可以打标，
// 最终随结果透传给调用方做归因分析。
type Label struct {
	Value  string `json:"value"`
	Source string `json:"source"` // recall / rank / rerank / rule / engine ...
}

// MergeLabel 合并同名 Label，默认策略是保留历史：
// - Value: 以 '|' 累积
// - Source: 以 ',' 累积
//
// 需要覆盖语义（后写覆盖先写）时由上层直接赋值，不走此函数。
func MergeLabel(existing Label, incoming Label) Label {
	if existing.Value == "" {
		return incoming
	}
	if incoming.Value == "" {
		return existing
	}

	merged := existing
	merged.Value = existing.Value + "|" + incoming.Value
	switch {
	case existing.Source == "":
		merged.Source = incoming.Source
	case incoming.Source == "":
		merged.Source = existing.Source
	default:
		merged.Source = existing.Source + "," + incoming.Source
	}
	return merged
}
