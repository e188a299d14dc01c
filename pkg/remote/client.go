// Package remote 提供了访问远端商品/AI 后端服务的类型化客户端。
// 客户端本身不持有任何状态，所有操作只做网络 I/O。
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"deco-front-go/internal/config"
)

// Client 是远端目录后端的 HTTP 客户端。
// token 在所有方法中都是可选参数：为空时请求不带 Authorization 头，
// 读操作照常工作，写操作由调用方决定是否跳过。
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient 创建一个新的远端后端客户端实例。
func NewClient(cfg config.BackendConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
	}
}

// doJSON 发送一个 JSON 请求并将响应解码到 out（out 为 nil 时丢弃响应体）。
// 非 2xx 响应返回一个通用错误；调用方应将其视为"没有更多数据"而不是无限重试。
func (c *Client) doJSON(ctx context.Context, method, path, token string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	setAuth(req, token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("backend returned status %d for %s", resp.StatusCode, path)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode backend response: %w", err)
	}
	return nil
}

// doMutation 与 doJSON 类似，但在失败时优先透出服务端的 detail 错误文本，
// 而不是一个笼统的"请求失败"。
func (c *Client) doMutation(ctx context.Context, method, path, token string, body interface{}, out interface{}, fallback string) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	setAuth(req, token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return detailError(resp.Body, fallback)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode backend response: %w", err)
	}
	return nil
}

// detailError 从错误响应体中提取 {"detail": "..."}，取不到时退回 fallback 文本。
func detailError(body io.Reader, fallback string) error {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(body).Decode(&payload); err == nil && payload.Detail != "" {
		return fmt.Errorf("%s", payload.Detail)
	}
	return fmt.Errorf("%s", fallback)
}

// setAuth 在 token 非空时附加 Bearer 授权头。
func setAuth(req *http.Request, token string) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}
