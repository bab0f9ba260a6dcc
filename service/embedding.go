// Package service 封装远程模型推理服务的客户端实现
// （文本向量化、query-document 交叉打分）。
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

// EmbeddingClient 是文本向量化服务的 REST 客户端，实现 core.Embedder。
//
// 对接的推理服务需要暴露：
//
//	POST {Endpoint}/embed
//	请求：{"texts": ["..."]}
//	响应：{"embeddings": [[...]]}
//
// 工程特征：
//   - 模型黑盒：只约定维度与接口，不关心模型结构
//   - 批量接口：商品批量 embedding 用 EmbedBatch，减少往返
type EmbeddingClient struct {
	// Endpoint 服务端点，如 "http://localhost:8080"
	Endpoint string

	// Dimension 声明维度，响应维度不符时报错
	Dimension int

	// Timeout 超时时间
	Timeout time.Duration

	httpClient *http.Client
}

// NewEmbeddingClient 创建文本向量化客户端。
func NewEmbeddingClient(endpoint string, dimension int, opts ...EmbeddingOption) *EmbeddingClient {
	c := &EmbeddingClient{
		Endpoint:  endpoint,
		Dimension: dimension,
		Timeout:   30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.httpClient = &http.Client{Timeout: c.Timeout}
	return c
}

// EmbeddingOption 客户端配置选项
type EmbeddingOption func(*EmbeddingClient)

// WithEmbeddingTimeout 设置超时时间
func WithEmbeddingTimeout(timeout time.Duration) EmbeddingOption {
	return func(c *EmbeddingClient) {
		c.Timeout = timeout
	}
}

type embedRequest struct {
	Texts []string `json:"texts"`
}

type embedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

// Embed 实现 core.Embedder 接口
func (c *EmbeddingClient) Embed(ctx context.Context, text string) ([]float64, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch 批量向量化，响应与 texts 等长且维度一致。
func (c *EmbeddingClient) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(embedRequest{Texts: texts})
	if err != nil {
		return nil, fmt.Errorf("embedding marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint+"/embed", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("embedding create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, core.NewDomainError(core.ModuleService, core.ErrorCodeUpstreamModelFailure,
			"embedding service request: "+err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, core.NewDomainError(core.ModuleService, core.ErrorCodeUpstreamModelFailure,
			fmt.Sprintf("embedding service status %d: %s", resp.StatusCode, string(data)))
	}

	var parsed embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, core.NewDomainError(core.ModuleService, core.ErrorCodeUpstreamModelFailure,
			"embedding decode response: "+err.Error())
	}

	if len(parsed.Embeddings) != len(texts) {
		return nil, core.NewDomainError(core.ModuleService, core.ErrorCodeUpstreamModelFailure,
			fmt.Sprintf("embedding count mismatch: want %d, got %d", len(texts), len(parsed.Embeddings)))
	}
	for _, v := range parsed.Embeddings {
		if c.Dimension > 0 && len(v) != c.Dimension {
			return nil, core.NewDomainError(core.ModuleService, core.ErrorCodeConsistency,
				fmt.Sprintf("embedding dimension mismatch: want %d, got %d", c.Dimension, len(v)))
		}
	}

	return parsed.Embeddings, nil
}

var _ core.Embedder = (*EmbeddingClient)(nil)
