package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rushteam/shoprec/core"
)

// CrossEncoderClient 是 query-document 交叉打分服务的 REST 客户端，
// 实现 core.CrossScorer。
//
// 对接的推理服务需要暴露：
//
//	POST {Endpoint}/score
//	请求：{"query": "...", "documents": ["...", ...]}
//	响应：{"scores": [0.91, ...]}
//
// 调用方（rerank.CrossEncoderNode）把失败视为降级信号，
// 此客户端只负责把异常翻译成 UPSTREAM_MODEL_FAILURE。
type CrossEncoderClient struct {
	// Endpoint 服务端点，如 "http://localhost:8081"
	Endpoint string

	// Timeout 超时时间
	Timeout time.Duration

	httpClient *http.Client
}

// NewCrossEncoderClient 创建交叉打分客户端。
func NewCrossEncoderClient(endpoint string, opts ...CrossEncoderOption) *CrossEncoderClient {
	c := &CrossEncoderClient{
		Endpoint: endpoint,
		Timeout:  5 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.httpClient = &http.Client{Timeout: c.Timeout}
	return c
}

// CrossEncoderOption 客户端配置选项
type CrossEncoderOption func(*CrossEncoderClient)

// WithCrossEncoderTimeout 设置超时时间
func WithCrossEncoderTimeout(timeout time.Duration) CrossEncoderOption {
	return func(c *CrossEncoderClient) {
		c.Timeout = timeout
	}
}

type scoreRequest struct {
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
}

type scoreResponse struct {
	Scores []float64 `json:"scores"`
}

// ScorePairs 实现 core.CrossScorer 接口
func (c *CrossEncoderClient) ScorePairs(ctx context.Context, query string, docs []string) ([]float64, error) {
	if len(docs) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(scoreRequest{Query: query, Documents: docs})
	if err != nil {
		return nil, fmt.Errorf("cross encoder marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint+"/score", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("cross encoder create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, core.NewDomainError(core.ModuleService, core.ErrorCodeUpstreamModelFailure,
			"cross encoder request: "+err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, core.NewDomainError(core.ModuleService, core.ErrorCodeUpstreamModelFailure,
			fmt.Sprintf("cross encoder status %d: %s", resp.StatusCode, string(data)))
	}

	var parsed scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, core.NewDomainError(core.ModuleService, core.ErrorCodeUpstreamModelFailure,
			"cross encoder decode response: "+err.Error())
	}

	if len(parsed.Scores) != len(docs) {
		return nil, core.NewDomainError(core.ModuleService, core.ErrorCodeUpstreamModelFailure,
			fmt.Sprintf("cross encoder score count mismatch: want %d, got %d", len(docs), len(parsed.Scores)))
	}

	return parsed.Scores, nil
}

var _ core.CrossScorer = (*CrossEncoderClient)(nil)
