package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"deco-front-go/internal/model"
)

// ErrSaveTimeout 表示资料保存在限定时间内没有完成。
// 这是资料保存路径特有的失败，调用方应把它与普通网络错误区分开。
var ErrSaveTimeout = errors.New("profile save timed out")

// profileSaveTimeout 是资料保存的硬超时，对齐前端的 10 秒 abort。
const profileSaveTimeout = 10 * time.Second

// GetProjects 获取远端保存的项目集合。
func (c *Client) GetProjects(ctx context.Context, token string) ([]model.Project, error) {
	var projects []model.Project
	if err := c.doJSON(ctx, http.MethodGet, "/projects/", token, nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// SaveProjects 将完整的项目集合整体推送到远端。
func (c *Client) SaveProjects(ctx context.Context, projects []model.Project, token string) error {
	if projects == nil {
		projects = []model.Project{}
	}
	return c.doJSON(ctx, http.MethodPost, "/projects/", token, projects, nil)
}

// GetProfile 获取经理名片资料。
func (c *Client) GetProfile(ctx context.Context, token string) (model.UserProfile, error) {
	var profile model.UserProfile
	if err := c.doJSON(ctx, http.MethodGet, "/profile/", token, nil, &profile); err != nil {
		return model.UserProfile{}, err
	}
	return profile, nil
}

// SaveProfile 保存经理名片资料。超过硬超时返回 ErrSaveTimeout。
func (c *Client) SaveProfile(ctx context.Context, profile model.UserProfile, token string) (model.UserProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, profileSaveTimeout)
	defer cancel()

	var saved model.UserProfile
	err := c.doJSON(ctx, http.MethodPut, "/profile/", token, profile, &saved)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return model.UserProfile{}, ErrSaveTimeout
		}
		return model.UserProfile{}, err
	}
	return saved, nil
}

// CurrencyRate 获取当前汇率。该操作永不失败：
// 任何错误都会退化为内置的回退汇率，而不是向调用方抛出。
func (c *Client) CurrencyRate(ctx context.Context) model.CurrencyRate {
	fallback := model.CurrencyRate{Currency: "RUB", Rate: 105.0, Source: "fallback_client"}
	var rate model.CurrencyRate
	if err := c.doJSON(ctx, http.MethodGet, "/currency/rate", "", nil, &rate); err != nil {
		return fallback
	}
	if rate.Rate == 0 {
		return fallback
	}
	return rate
}

// PrintProject 获取服务端渲染的报价单 HTML。
func (c *Client) PrintProject(ctx context.Context, slug, token string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/print/"+url.PathEscape(slug), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	setAuth(req, token)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", detailError(resp.Body, "failed to generate proposal")
	}
	html, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read proposal body: %w", err)
	}
	return string(html), nil
}
