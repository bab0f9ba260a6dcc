package core

import "time"

// Entry 是结果的对外线格式：{product_id, score, position}。
// position 由调用方在后续埋点时作为 recommendation_position 回传，
// 与 request_id 一起完成归因。
type Entry struct {
	ProductID string  `json:"product_id"`
	Score     float64 `json:"score"`
	Position  int     `json:"position"`
}

// Result 是一次推荐请求的最终产出：有序候选 + 请求元信息。
// write-once：生成后返回调用方，不再修改。
type Result struct {
	RequestID   string
	Scene       Scene
	UserID      string
	GeneratedAt time.Time

	// Items 最终有序候选，Position 已标注（1-based）
	Items []*Candidate
}

// Entries 导出对外线格式。
func (r *Result) Entries() []Entry {
	out := make([]Entry, 0, len(r.Items))
	for _, it := range r.Items {
		if it == nil {
			continue
		}
		out = append(out, Entry{
			ProductID: it.ID,
			Score:     it.Score,
			Position:  it.Position,
		})
	}
	return out
}
