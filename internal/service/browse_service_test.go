package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"deco-front-go/internal/model"
	"deco-front-go/pkg/remote"
)

// fakeCatalog 是 CatalogBrowser 的可编程假实现。
type fakeCatalog struct {
	mu       sync.Mutex
	requests []remote.ListProductsOptions
	respond  func(opts remote.ListProductsOptions) (model.ProductPage, error)

	categories []model.Facet
	brands     []model.Facet
	facetErr   error
}

func (f *fakeCatalog) ListProducts(ctx context.Context, opts remote.ListProductsOptions) (model.ProductPage, error) {
	f.mu.Lock()
	f.requests = append(f.requests, opts)
	f.mu.Unlock()
	return f.respond(opts)
}

func (f *fakeCatalog) ListCategories(ctx context.Context, sources []string, brand string) ([]model.Facet, error) {
	return f.categories, f.facetErr
}

func (f *fakeCatalog) ListBrands(ctx context.Context, sources []string) ([]model.Facet, error) {
	return f.brands, f.facetErr
}

func (f *fakeCatalog) lastRequest() remote.ListProductsOptions {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

// pageOf 生成一页确定性的商品，slug 由偏移量决定。
func pageOf(offset, count, total int) model.ProductPage {
	items := make([]model.Product, count)
	for i := range items {
		items[i] = model.Product{Slug: fmt.Sprintf("item-%d", offset+i)}
	}
	return model.ProductPage{Items: items, Total: total}
}

func TestBrowseEnginePagination(t *testing.T) {
	const pageSize = 3
	catalog := &fakeCatalog{
		respond: func(opts remote.ListProductsOptions) (model.ProductPage, error) {
			remaining := 7 - opts.Offset
			if remaining > pageSize {
				remaining = pageSize
			}
			return pageOf(opts.Offset, remaining, 7), nil
		},
	}
	engine := NewBrowseEngine(catalog, pageSize, time.Millisecond)

	category := "chairs"
	state := engine.UpdateFilters(context.Background(), FilterUpdate{Category: &category})
	if len(state.Items) != 3 || state.Page != 1 || !state.HasMore {
		t.Fatalf("after first fetch: items=%d page=%d hasMore=%v", len(state.Items), state.Page, state.HasMore)
	}
	if got := catalog.lastRequest(); got.Offset != 0 || got.Limit != pageSize {
		t.Errorf("first request offset/limit = %d/%d, want 0/%d", got.Offset, got.Limit, pageSize)
	}

	state = engine.NextPage(context.Background())
	if len(state.Items) != 6 || state.Page != 2 || !state.HasMore {
		t.Fatalf("after second page: items=%d page=%d hasMore=%v", len(state.Items), state.Page, state.HasMore)
	}
	if got := catalog.lastRequest(); got.Offset != pageSize {
		t.Errorf("second request offset = %d, want %d", got.Offset, pageSize)
	}

	// 第三页不满一页，翻页到此为止
	state = engine.NextPage(context.Background())
	if len(state.Items) != 7 || state.HasMore {
		t.Fatalf("after last page: items=%d hasMore=%v", len(state.Items), state.HasMore)
	}
	if state.Items[6].Slug != "item-6" {
		t.Errorf("items out of order: last slug = %s", state.Items[6].Slug)
	}

	// hasMore 为 false 之后 NextPage 是空操作
	before := len(catalog.requests)
	state = engine.NextPage(context.Background())
	if len(catalog.requests) != before {
		t.Error("NextPage fetched past the end of the catalog")
	}
	if state.Page != 3 {
		t.Errorf("page advanced to %d after exhaustion", state.Page)
	}
}

func TestBrowseEngineFilterChangeResets(t *testing.T) {
	catalog := &fakeCatalog{
		respond: func(opts remote.ListProductsOptions) (model.ProductPage, error) {
			return pageOf(opts.Offset, 2, 10), nil
		},
	}
	engine := NewBrowseEngine(catalog, 2, time.Millisecond)

	category := "chairs"
	engine.UpdateFilters(context.Background(), FilterUpdate{Category: &category})
	engine.NextPage(context.Background())
	if state := engine.State(); state.Page != 2 || len(state.Items) != 4 {
		t.Fatalf("precondition: page=%d items=%d", state.Page, len(state.Items))
	}

	sort := "price_asc"
	state := engine.UpdateFilters(context.Background(), FilterUpdate{Sort: &sort})
	if state.Page != 1 {
		t.Errorf("page = %d after filter change, want 1", state.Page)
	}
	if len(state.Items) != 2 {
		t.Errorf("items = %d after filter change, want fresh first page", len(state.Items))
	}
	if got := catalog.lastRequest(); got.Offset != 0 || got.Sort != "price_asc" {
		t.Errorf("refetch offset/sort = %d/%s, want 0/price_asc", got.Offset, got.Sort)
	}

	// 同值变更不触发重置
	before := len(catalog.requests)
	state = engine.UpdateFilters(context.Background(), FilterUpdate{Sort: &sort})
	if len(catalog.requests) != before {
		t.Error("no-op filter update triggered a refetch")
	}
}

func TestBrowseEngineErrorStopsPagination(t *testing.T) {
	catalog := &fakeCatalog{
		respond: func(opts remote.ListProductsOptions) (model.ProductPage, error) {
			if opts.Offset > 0 {
				return model.ProductPage{}, errors.New("backend down")
			}
			return pageOf(0, 2, 10), nil
		},
	}
	engine := NewBrowseEngine(catalog, 2, time.Millisecond)

	category := "chairs"
	engine.UpdateFilters(context.Background(), FilterUpdate{Category: &category})
	state := engine.NextPage(context.Background())

	if state.HasMore {
		t.Error("hasMore = true after fetch error, want fail-closed")
	}
	if len(state.Items) != 2 {
		t.Errorf("items = %d, want the already rendered page kept", len(state.Items))
	}

	before := len(catalog.requests)
	engine.NextPage(context.Background())
	if len(catalog.requests) != before {
		t.Error("NextPage retried after a failed fetch")
	}
}

func TestBrowseEngineDiscardsStaleFetch(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	catalog := &fakeCatalog{
		respond: func(opts remote.ListProductsOptions) (model.ProductPage, error) {
			if opts.Category == "slow" {
				close(started)
				<-release
				return model.ProductPage{Items: []model.Product{{Slug: "stale"}}, Total: 1}, nil
			}
			return model.ProductPage{Items: []model.Product{{Slug: "fresh"}}, Total: 1}, nil
		},
	}
	engine := NewBrowseEngine(catalog, 40, time.Millisecond)

	slow := "slow"
	done := make(chan struct{})
	go func() {
		engine.UpdateFilters(context.Background(), FilterUpdate{Category: &slow})
		close(done)
	}()
	<-started

	// 慢请求还在途中，筛选已经变了
	fast := "fast"
	engine.UpdateFilters(context.Background(), FilterUpdate{Category: &fast})
	close(release)
	<-done

	state := engine.State()
	if len(state.Items) != 1 || state.Items[0].Slug != "fresh" {
		t.Errorf("items = %+v, want stale response discarded", state.Items)
	}
}

func TestBrowseEngineSourceChangeResetsFacetSelection(t *testing.T) {
	catalog := &fakeCatalog{
		respond: func(opts remote.ListProductsOptions) (model.ProductPage, error) {
			return model.ProductPage{}, nil
		},
		categories: []model.Facet{{ID: "sofas", Name: "Диваны"}},
		brands:     []model.Facet{{ID: "hay", Name: "HAY"}},
	}
	engine := NewBrowseEngine(catalog, 40, time.Millisecond)

	category := "chairs"
	engine.UpdateFilters(context.Background(), FilterUpdate{
		Category: &category,
		Brands:   []string{"vitra"},
	})

	state := engine.UpdateFilters(context.Background(), FilterUpdate{Sources: []string{"partner"}})
	if state.Category != "all" {
		t.Errorf("category = %q after source change, want all", state.Category)
	}
	if len(state.Brands) != 0 {
		t.Errorf("brands = %v after source change, want cleared", state.Brands)
	}
	if got := catalog.lastRequest(); got.Category != "all" || len(got.Brands) != 0 {
		t.Errorf("refetch still carries old facets: category=%q brands=%v", got.Category, got.Brands)
	}

	// 分面异步加载，给它一点时间
	deadline := time.Now().Add(time.Second)
	for {
		state = engine.State()
		if len(state.Categories) == 1 && len(state.BrandList) == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("facets never loaded: %+v / %+v", state.Categories, state.BrandList)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestBrowseEngineDropSource(t *testing.T) {
	catalog := &fakeCatalog{
		respond: func(opts remote.ListProductsOptions) (model.ProductPage, error) {
			return model.ProductPage{}, nil
		},
	}
	engine := NewBrowseEngine(catalog, 40, time.Millisecond)
	engine.UpdateFilters(context.Background(), FilterUpdate{Sources: []string{"own", "partner"}})
	category := "chairs"
	engine.UpdateFilters(context.Background(), FilterUpdate{Category: &category})

	engine.DropSource(context.Background(), "own")
	state := engine.State()
	if len(state.Sources) != 1 || state.Sources[0] != "partner" {
		t.Errorf("sources = %v after drop, want [partner]", state.Sources)
	}
	if state.Category != "all" {
		t.Errorf("category = %q after drop, want reset to all", state.Category)
	}
	if got := catalog.lastRequest(); len(got.Sources) != 1 || got.Sources[0] != "partner" {
		t.Errorf("refetch sources = %v", got.Sources)
	}

	// 未选中的来源被删除时不做任何事
	catalog.mu.Lock()
	before := len(catalog.requests)
	catalog.mu.Unlock()
	engine.DropSource(context.Background(), "unrelated")
	catalog.mu.Lock()
	after := len(catalog.requests)
	catalog.mu.Unlock()
	if after != before {
		t.Error("dropping an unselected source triggered a refetch")
	}
}

func TestBrowseEngineDebouncedQuery(t *testing.T) {
	catalog := &fakeCatalog{
		respond: func(opts remote.ListProductsOptions) (model.ProductPage, error) {
			return model.ProductPage{Items: []model.Product{{Slug: "hit-" + opts.Query}}, Total: 1}, nil
		},
	}
	engine := NewBrowseEngine(catalog, 40, 20*time.Millisecond)

	for _, q := range []string{"к", "кр", "кресло"} {
		q := q
		engine.UpdateFilters(context.Background(), FilterUpdate{Query: &q})
	}

	deadline := time.Now().Add(time.Second)
	for {
		state := engine.State()
		if state.Query == "кресло" && len(state.Items) == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("debounced query never applied: %+v", state)
		}
		time.Sleep(5 * time.Millisecond)
	}

	catalog.mu.Lock()
	requests := len(catalog.requests)
	catalog.mu.Unlock()
	if requests != 1 {
		t.Errorf("requests = %d, want a single debounced fetch", requests)
	}
}
