package model

// Project 代表用户自建的商品集合（项目/看板）。
// Items 按加入时间倒序排列（最新在前），且同一 slug 不会出现两次。
// 去重只在加入时执行，不在加载时执行：损坏的持久化快照可能悄悄违反该约束。
type Project struct {
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	Items []Product `json:"items"`
}

// ContainsSlug 判断项目中是否已存在指定 slug 的商品。
func (p *Project) ContainsSlug(slug string) bool {
	for _, item := range p.Items {
		if item.Slug == slug {
			return true
		}
	}
	return false
}
