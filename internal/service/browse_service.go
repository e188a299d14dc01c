// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"sync"
	"time"

	"deco-front-go/internal/model"
	"deco-front-go/pkg/debounce"
	"deco-front-go/pkg/log"
	"deco-front-go/pkg/remote"
)

// CatalogBrowser 是浏览引擎依赖的远端目录能力子集。
type CatalogBrowser interface {
	ListProducts(ctx context.Context, opts remote.ListProductsOptions) (model.ProductPage, error)
	ListCategories(ctx context.Context, sources []string, brand string) ([]model.Facet, error)
	ListBrands(ctx context.Context, sources []string) ([]model.Facet, error)
}

// BrowseState 是引擎状态的一份只读快照，交给渲染端使用。
type BrowseState struct {
	Query      string          `json:"query"`
	Sources    []string        `json:"sources"`
	Category   string          `json:"category"`
	Brands     []string        `json:"brands"`
	Sort       string          `json:"sort"`
	Items      []model.Product `json:"items"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	HasMore    bool            `json:"has_more"`
	Loading    bool            `json:"loading"`
	Categories []model.Facet   `json:"categories"`
	BrandList  []model.Facet   `json:"brand_list"`
}

// FilterUpdate 描述一次筛选变更；为 nil 的字段保持原值。
type FilterUpdate struct {
	Query    *string  `json:"query,omitempty"`
	Sources  []string `json:"sources,omitempty"`
	Category *string  `json:"category,omitempty"`
	Brands   []string `json:"brands,omitempty"`
	Sort     *string  `json:"sort,omitempty"`
}

// BrowseEngine 是单个客户端的目录分页状态机。
//
// 任何筛选字段（防抖后的搜索词、分类、来源、品牌、排序）的变化都会原子地
// 清空已累积的商品并把页码重置为 1；每次拉取都携带一个代数计数器，
// 迟到的旧代响应会被整体丢弃，保证列表永远不会混入被取代的筛选状态的结果。
type BrowseEngine struct {
	mu     sync.Mutex
	client CatalogBrowser

	pageSize int
	token    string

	query    string
	sources  []string
	category string
	brands   []string
	sort     string

	items   []model.Product
	total   int
	page    int
	hasMore bool
	loading bool

	// gen 在每次筛选变更时自增；拉取开始时捕获，应用结果前比对。
	gen uint64
	// facetGen 独立保护分面加载，迟到的旧分面同样被丢弃。
	facetGen uint64

	categories []model.Facet
	brandList  []model.Facet

	queryDebounce *debounce.Debouncer[string]
}

// NewBrowseEngine 创建一个新的浏览引擎。
func NewBrowseEngine(client CatalogBrowser, pageSize int, debounceDelay time.Duration) *BrowseEngine {
	e := &BrowseEngine{
		client:   client,
		pageSize: pageSize,
		page:     1,
		hasMore:  true,
		sort:     "relevance",
		category: "all",
	}
	e.queryDebounce = debounce.New(debounceDelay, func(q string) {
		e.applyQuery(q)
	})
	return e
}

// SetToken 记录本客户端当前的 Bearer token，供后续拉取透传。
func (e *BrowseEngine) SetToken(token string) {
	e.mu.Lock()
	e.token = token
	e.mu.Unlock()
}

// UpdateFilters 应用一次筛选变更。搜索词走防抖通道，其余字段立即生效。
// 来源变化会额外触发分类与品牌的重新加载，并把两者的选择重置为 "all"。
func (e *BrowseEngine) UpdateFilters(ctx context.Context, update FilterUpdate) BrowseState {
	if update.Query != nil {
		e.queryDebounce.Set(*update.Query)
	}

	e.mu.Lock()
	changed := false
	sourcesChanged := false
	if update.Sources != nil && !equalStrings(e.sources, update.Sources) {
		e.sources = append([]string(nil), update.Sources...)
		// 来源换了之后旧的分类/品牌选择可能不再有效，回到哨兵值
		e.category = "all"
		e.brands = nil
		changed = true
		sourcesChanged = true
	}
	if update.Category != nil && e.category != *update.Category {
		e.category = *update.Category
		changed = true
	}
	if update.Brands != nil && !equalStrings(e.brands, update.Brands) {
		e.brands = append([]string(nil), update.Brands...)
		changed = true
	}
	if update.Sort != nil && e.sort != *update.Sort {
		e.sort = *update.Sort
		changed = true
	}

	if !changed {
		state := e.stateLocked()
		e.mu.Unlock()
		return state
	}

	gen := e.resetLocked()
	sources := append([]string(nil), e.sources...)
	e.mu.Unlock()

	if sourcesChanged {
		// 分面加载与商品拉取解耦，互不阻塞
		go e.reloadFacets(context.Background(), sources)
	}
	e.fetch(ctx, gen)
	return e.State()
}

// DropSource 在某个来源被删除或改名后把它从当前选择中移除。
// 选择确实变化时按来源变更处理：重置分面选择并重新拉取。
func (e *BrowseEngine) DropSource(ctx context.Context, sourceID string) {
	e.mu.Lock()
	kept := e.sources[:0]
	for _, s := range e.sources {
		if s == sourceID {
			continue
		}
		kept = append(kept, s)
	}
	if len(kept) == len(e.sources) {
		e.mu.Unlock()
		return
	}
	e.sources = kept
	e.category = "all"
	e.brands = nil
	gen := e.resetLocked()
	sources := append([]string(nil), e.sources...)
	e.mu.Unlock()

	go e.reloadFacets(context.Background(), sources)
	e.fetch(ctx, gen)
}

// applyQuery 是防抖计时器到期后的入口：应用新搜索词并重新拉取。
func (e *BrowseEngine) applyQuery(q string) {
	e.mu.Lock()
	if e.query == q {
		e.mu.Unlock()
		return
	}
	e.query = q
	gen := e.resetLocked()
	e.mu.Unlock()

	e.fetch(context.Background(), gen)
}

// NextPage 是无限滚动的续页信号（可见性回调或手动"加载更多"都走这里）。
// 只有在还有数据且当前没有拉取在途时才推进页码。
func (e *BrowseEngine) NextPage(ctx context.Context) BrowseState {
	e.mu.Lock()
	if !e.hasMore || e.loading {
		state := e.stateLocked()
		e.mu.Unlock()
		return state
	}
	e.page++
	gen := e.gen
	e.mu.Unlock()

	e.fetch(ctx, gen)
	return e.State()
}

// State 返回当前状态的一份拷贝。
func (e *BrowseEngine) State() BrowseState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked()
}

// resetLocked 执行筛选变更的原子重置：清空列表、回到第一页、作废在途拉取。
// 返回新的代数，调用方据此发起拉取。调用方必须持有锁。
func (e *BrowseEngine) resetLocked() uint64 {
	e.items = nil
	e.page = 1
	e.hasMore = true
	e.loading = false
	e.gen++
	return e.gen
}

// fetch 以给定代数执行一次商品拉取。
// 网络调用不持锁；应用结果前重新校验代数，旧代结果被丢弃。
func (e *BrowseEngine) fetch(ctx context.Context, gen uint64) {
	e.mu.Lock()
	if gen != e.gen || !e.hasMore {
		e.mu.Unlock()
		return
	}
	e.loading = true
	opts := remote.ListProductsOptions{
		Query:    e.query,
		Limit:    e.pageSize,
		Sources:  append([]string(nil), e.sources...),
		Offset:   (e.page - 1) * e.pageSize,
		Category: e.category,
		Sort:     e.sort,
		Brands:   append([]string(nil), e.brands...),
		Token:    e.token,
	}
	page := e.page
	e.mu.Unlock()

	result, err := e.client.ListProducts(ctx, opts)

	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.gen {
		// 筛选已经变了，这是一个被取代的响应
		return
	}
	e.loading = false
	if err != nil {
		// 失败即停止续页，避免重试风暴；已渲染的条目保持不动
		log.Errorf("拉取商品列表失败: %v", err)
		e.hasMore = false
		return
	}

	e.total = result.Total
	if len(result.Items) < e.pageSize {
		e.hasMore = false
	}
	if page == 1 {
		e.items = result.Items
	} else {
		e.items = append(e.items, result.Items...)
	}
}

// reloadFacets 重新加载当前来源下的分类与品牌。
// 任一失败只记录日志并保留旧分面；迟到的旧代分面同样被丢弃。
func (e *BrowseEngine) reloadFacets(ctx context.Context, sources []string) {
	e.mu.Lock()
	e.facetGen++
	gen := e.facetGen
	e.mu.Unlock()

	categories, catErr := e.client.ListCategories(ctx, sources, "")
	brands, brandErr := e.client.ListBrands(ctx, sources)

	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.facetGen {
		return
	}
	if catErr != nil {
		log.Errorf("加载分类列表失败: %v", catErr)
	} else {
		e.categories = categories
	}
	if brandErr != nil {
		log.Errorf("加载品牌列表失败: %v", brandErr)
	} else {
		e.brandList = brands
	}
}

func (e *BrowseEngine) stateLocked() BrowseState {
	return BrowseState{
		Query:      e.query,
		Sources:    append([]string(nil), e.sources...),
		Category:   e.category,
		Brands:     append([]string(nil), e.brands...),
		Sort:       e.sort,
		Items:      append([]model.Product(nil), e.items...),
		Total:      e.total,
		Page:       e.page,
		HasMore:    e.hasMore,
		Loading:    e.loading,
		Categories: append([]model.Facet(nil), e.categories...),
		BrandList:  append([]model.Facet(nil), e.brandList...),
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// BrowseService 管理各客户端的浏览引擎实例。
type BrowseService interface {
	Engine(clientKey string) *BrowseEngine
}

type browseService struct {
	mu            sync.Mutex
	client        CatalogBrowser
	pageSize      int
	debounceDelay time.Duration
	engines       map[string]*BrowseEngine
}

// NewBrowseService 创建一个新的 BrowseService 实例。
func NewBrowseService(client CatalogBrowser, pageSize int, debounceDelay time.Duration) BrowseService {
	return &browseService{
		client:        client,
		pageSize:      pageSize,
		debounceDelay: debounceDelay,
		engines:       make(map[string]*BrowseEngine),
	}
}

// Engine 返回指定客户端的引擎，不存在时创建。
func (s *browseService) Engine(clientKey string) *BrowseEngine {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.engines[clientKey]; ok {
		return e
	}
	e := NewBrowseEngine(s.client, s.pageSize, s.debounceDelay)
	s.engines[clientKey] = e
	return e
}
