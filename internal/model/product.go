// Package model 包含了应用的数据模型定义。
package model

// Product 代表目录中的一件商品。
// Slug 是商品的稳定唯一标识，所有去重逻辑（如"已保存到项目"判断）都以它为键。
// 注意：slug 唯一性只在单一来源内有保证，跨来源同名 slug 会被视为同一商品，
// 这与前端原有行为一致。
type Product struct {
	Slug        string            `json:"slug"`
	Name        string            `json:"name"`
	Title       string            `json:"title,omitempty"`
	Brand       string            `json:"brand,omitempty"`
	Source      string            `json:"source,omitempty"`
	Price       *float64          `json:"price,omitempty"`
	Currency    string            `json:"currency,omitempty"`
	Article     string            `json:"article,omitempty"`
	Description string            `json:"description,omitempty"`
	MainImage   string            `json:"main_image,omitempty"`
	Images      []string          `json:"images,omitempty"`
	Gallery     []string          `json:"gallery,omitempty"`
	Dimensions  string            `json:"dimensions,omitempty"`
	Material    string            `json:"material,omitempty"`
	Materials   []string          `json:"materials,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	Parameters  map[string]string `json:"parameters,omitempty"`
}

// ProductPage 是商品列表接口的一页结果。
type ProductPage struct {
	Items []Product `json:"items"`
	Total int       `json:"total"`
}

// Facet 是一个可筛选维度（分类、品牌、来源）的一个可选值。
type Facet struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
