package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"deco-front-go/internal/model"
)

// HistoryEntry 是发送给后端的一条历史消息。
// Role 使用后端的词汇表："user" 或 "model"（助手消息需要由调用方转换）。
type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatResult 是一次对话调用的返回值。
type ChatResult struct {
	Answer          string          `json:"answer"`
	Products        []model.Product `json:"products,omitempty"`
	SimulationImage string          `json:"simulation_image,omitempty"`
}

// Chat 发送一轮对话请求。history 应当只包含有文本内容的历史消息。
func (c *Client) Chat(ctx context.Context, query string, history []HistoryEntry, image, token string) (ChatResult, error) {
	if history == nil {
		history = []HistoryEntry{}
	}
	body := map[string]interface{}{
		"query":   query,
		"history": history,
	}
	if image != "" {
		body["image"] = image
	}
	var result ChatResult
	if err := c.doJSON(ctx, http.MethodPost, "/chat/", token, body, &result); err != nil {
		return ChatResult{}, err
	}
	return result, nil
}

// TranscriptEntry 是后端数据库中保存的一条对话消息。
type TranscriptEntry struct {
	Role     string          `json:"role"`
	Content  string          `json:"content"`
	Products []model.Product `json:"products,omitempty"`
}

// GetChatHistory 获取后端保存的服务器侧对话记录。
func (c *Client) GetChatHistory(ctx context.Context, token string) ([]TranscriptEntry, error) {
	var entries []TranscriptEntry
	if err := c.doJSON(ctx, http.MethodGet, "/chat/history/", token, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// SearchByImage 以图搜图：上传图片文件，返回相似商品列表。不带文本查询。
func (c *Client) SearchByImage(ctx context.Context, fileName string, file io.Reader) ([]model.Product, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to read image file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search/", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("backend returned status %d for image search", resp.StatusCode)
	}
	var products []model.Product
	if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	return products, nil
}

// UploadImage 上传一张图片，返回可访问的完整 URL。
// 后端返回相对根路径的 /uploads/xxx，需要在 base 上去掉 /api 前缀拼接。
func (c *Client) UploadImage(ctx context.Context, fileName string, file io.Reader, token string) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return "", fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("failed to read image file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finish multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload/image", &buf)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	setAuth(req, token)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("backend returned status %d for image upload", resp.StatusCode)
	}
	var result struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}
	return strings.TrimSuffix(c.baseURL, "/api") + result.URL, nil
}
