package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"deco-front-go/internal/model"
)

// DefaultSource 是未选择任何来源时使用的来源标识。
const DefaultSource = "catalog"

// ListProductsOptions 是商品列表查询的全部筛选参数。
// 零值字段（以及 "all"/"default" 哨兵值）不会出现在请求中，
// 但 source、limit、skip 总是会发送。
type ListProductsOptions struct {
	Query       string
	Limit       int
	Color       string
	Sources     []string
	Offset      int
	Category    string
	Sort        string
	Brands      []string
	StockStatus string
	Token       string
}

// ListProducts 按筛选条件分页获取商品列表。
func (c *Client) ListProducts(ctx context.Context, opts ListProductsOptions) (model.ProductPage, error) {
	params := url.Values{}
	if opts.Query != "" {
		params.Set("query", opts.Query)
	}
	if opts.Color != "" && opts.Color != "all" {
		params.Set("color", opts.Color)
	}
	if opts.Category != "" && opts.Category != "all" {
		params.Set("category", opts.Category)
	}
	if brand := joinFilter(opts.Brands); brand != "" {
		params.Set("brand", brand)
	}
	if opts.Sort != "" && opts.Sort != "default" {
		params.Set("sort", opts.Sort)
	}
	if opts.StockStatus != "" && opts.StockStatus != "all" {
		params.Set("stock_status", opts.StockStatus)
	}
	params.Set("source", sourceParam(opts.Sources))
	params.Set("limit", strconv.Itoa(opts.Limit))
	params.Set("skip", strconv.Itoa(opts.Offset))

	var page model.ProductPage
	if err := c.doJSON(ctx, http.MethodGet, "/products/?"+params.Encode(), opts.Token, nil, &page); err != nil {
		return model.ProductPage{}, err
	}
	return page, nil
}

// ListCategories 获取指定来源下的分类列表；brand 为可选筛选。
func (c *Client) ListCategories(ctx context.Context, sources []string, brand string) ([]model.Facet, error) {
	params := url.Values{}
	params.Set("source", sourceParam(sources))
	if brand != "" && brand != "all" {
		params.Set("brand", brand)
	}
	var facets []model.Facet
	if err := c.doJSON(ctx, http.MethodGet, "/products/categories/?"+params.Encode(), "", nil, &facets); err != nil {
		return nil, err
	}
	return facets, nil
}

// ListBrands 获取指定来源下的品牌列表。
func (c *Client) ListBrands(ctx context.Context, sources []string) ([]model.Facet, error) {
	params := url.Values{}
	params.Set("source", sourceParam(sources))
	var facets []model.Facet
	if err := c.doJSON(ctx, http.MethodGet, "/products/brands/?"+params.Encode(), "", nil, &facets); err != nil {
		return nil, err
	}
	return facets, nil
}

// GetProduct 获取单个商品详情。
func (c *Client) GetProduct(ctx context.Context, slug string) (model.Product, error) {
	var product model.Product
	if err := c.doJSON(ctx, http.MethodGet, "/products/"+url.PathEscape(slug)+"/", "", nil, &product); err != nil {
		return model.Product{}, err
	}
	return product, nil
}

// ListSources 获取可用的目录来源。
func (c *Client) ListSources(ctx context.Context, token string) ([]model.Facet, error) {
	var sources []model.Facet
	if err := c.doJSON(ctx, http.MethodGet, "/products/sources/", token, nil, &sources); err != nil {
		return nil, err
	}
	return sources, nil
}

// UpdatePrice 修改商品价格，返回更新后的商品。
func (c *Client) UpdatePrice(ctx context.Context, slug string, price float64, currency, token string) (model.Product, error) {
	if currency == "" {
		currency = "EUR"
	}
	body := map[string]interface{}{"price": price, "currency": currency}
	var resp struct {
		Status  string        `json:"status"`
		Message string        `json:"message"`
		Product model.Product `json:"product"`
	}
	err := c.doMutation(ctx, http.MethodPut, "/products/"+url.PathEscape(slug)+"/price", token, body, &resp, "failed to update price")
	if err != nil {
		return model.Product{}, err
	}
	return resp.Product, nil
}

// UpdateTitle 修改商品标题。
func (c *Client) UpdateTitle(ctx context.Context, slug, title, token string) error {
	body := map[string]string{"title": title}
	return c.doMutation(ctx, http.MethodPut, "/products/"+url.PathEscape(slug)+"/title", token, body, nil, "failed to update title")
}

// UpdateImage 替换商品主图。
func (c *Client) UpdateImage(ctx context.Context, slug, imageURL, token string) error {
	body := map[string]string{"image_url": imageURL}
	return c.doMutation(ctx, http.MethodPut, "/products/"+url.PathEscape(slug)+"/image", token, body, nil, "failed to update image")
}

// DeleteImage 删除商品的一张图片。
func (c *Client) DeleteImage(ctx context.Context, slug, imageURL, token string) error {
	body := map[string]string{"image_url": imageURL}
	return c.doMutation(ctx, http.MethodDelete, "/products/"+url.PathEscape(slug)+"/image", token, body, nil, "failed to delete image")
}

// DeleteProduct 删除一个商品。
func (c *Client) DeleteProduct(ctx context.Context, slug, token string) error {
	return c.doMutation(ctx, http.MethodDelete, "/products/"+url.PathEscape(slug), token, nil, nil, "failed to delete product")
}

// RenameSource 重命名一个目录来源。
func (c *Client) RenameSource(ctx context.Context, sourceID, name, token string) error {
	body := map[string]string{"name": name}
	return c.doMutation(ctx, http.MethodPut, "/products/sources/"+url.PathEscape(sourceID)+"/rename", token, body, nil, "failed to rename source")
}

// DeleteSource 删除一个目录来源及其全部商品。
func (c *Client) DeleteSource(ctx context.Context, sourceID, token string) error {
	return c.doMutation(ctx, http.MethodDelete, "/products/sources/"+url.PathEscape(sourceID), token, nil, nil, "failed to delete source")
}

// ImportCatalog 以 multipart 形式上传一份目录文件，返回新建来源的标识。
func (c *Client) ImportCatalog(ctx context.Context, fileName string, file io.Reader, name, token string) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return "", fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("failed to read import file: %w", err)
	}
	if err := writer.WriteField("name", name); err != nil {
		return "", fmt.Errorf("failed to build multipart body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finish multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/products/import/", &buf)
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
		return "", detailError(resp.Body, "import failed")
	}
	var result struct {
		Status   string `json:"status"`
		Message  string `json:"message"`
		SourceID string `json:"source_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode import response: %w", err)
	}
	return result.SourceID, nil
}

// sourceParam 将来源集合拼接为请求参数；空集合或包含 "all" 时退回默认来源。
func sourceParam(sources []string) string {
	joined := joinFilter(sources)
	if joined == "" {
		return DefaultSource
	}
	return joined
}

// joinFilter 将多选筛选值拼接成逗号分隔串；包含 "all" 哨兵时视为未筛选。
func joinFilter(values []string) string {
	if len(values) == 0 {
		return ""
	}
	for _, v := range values {
		if v == "all" {
			return ""
		}
	}
	return strings.Join(values, ",")
}
