package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"deco-front-go/internal/config"
)

func newTestClient(baseURL string) *Client {
	return NewClient(config.BackendConfig{BaseURL: baseURL, TimeoutSeconds: 5})
}

func TestListProductsParamOmission(t *testing.T) {
	tests := []struct {
		name string
		opts ListProductsOptions
		want url.Values
		omit []string
	}{
		{
			name: "默认参数只带 source/limit/skip",
			opts: ListProductsOptions{Limit: 40},
			want: url.Values{"source": {"catalog"}, "limit": {"40"}, "skip": {"0"}},
			omit: []string{"query", "category", "brand", "sort", "color", "stock_status"},
		},
		{
			name: "哨兵值 all 与 default 不发送",
			opts: ListProductsOptions{Limit: 40, Category: "all", Sort: "default", Color: "all", StockStatus: "all"},
			want: url.Values{"source": {"catalog"}, "limit": {"40"}, "skip": {"0"}},
			omit: []string{"category", "sort", "color", "stock_status"},
		},
		{
			name: "品牌列表包含 all 时整体省略",
			opts: ListProductsOptions{Limit: 40, Brands: []string{"vitra", "all"}},
			want: url.Values{"source": {"catalog"}},
			omit: []string{"brand"},
		},
		{
			name: "实际筛选值全部发送",
			opts: ListProductsOptions{
				Query:    "стул",
				Limit:    40,
				Offset:   80,
				Category: "chairs",
				Sort:     "price_asc",
				Sources:  []string{"own", "partner"},
				Brands:   []string{"vitra", "hay"},
			},
			want: url.Values{
				"query":    {"стул"},
				"category": {"chairs"},
				"sort":     {"price_asc"},
				"source":   {"own,partner"},
				"brand":    {"vitra,hay"},
				"limit":    {"40"},
				"skip":     {"80"},
			},
		},
		{
			name: "空来源列表退回默认来源",
			opts: ListProductsOptions{Limit: 40, Sources: []string{"all"}},
			want: url.Values{"source": {"catalog"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got url.Values
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.URL.Query()
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"items":[],"total":0}`))
			}))
			defer srv.Close()

			client := newTestClient(srv.URL)
			if _, err := client.ListProducts(context.Background(), tt.opts); err != nil {
				t.Fatalf("ListProducts: %v", err)
			}

			for key, want := range tt.want {
				if got.Get(key) != want[0] {
					t.Errorf("param %s = %q, want %q", key, got.Get(key), want[0])
				}
			}
			for _, key := range tt.omit {
				if got.Has(key) {
					t.Errorf("param %s should be omitted, got %q", key, got.Get(key))
				}
			}
		})
	}
}

func TestListProductsAlwaysSendsPagination(t *testing.T) {
	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		w.Write([]byte(`{"items":[],"total":0}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	if _, err := client.ListProducts(context.Background(), ListProductsOptions{Limit: 40, Offset: 120}); err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if got.Get("limit") != "40" || got.Get("skip") != "120" {
		t.Errorf("limit/skip = %q/%q, want 40/120", got.Get("limit"), got.Get("skip"))
	}
}

func TestUpdatePriceSurfacesDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"detail":"редактирование запрещено"}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	_, err := client.UpdatePrice(context.Background(), "chair-1", 99.0, "EUR", "tok")
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Error() != "редактирование запрещено" {
		t.Errorf("error = %q, want backend detail text", err.Error())
	}
}

func TestUpdatePriceFallbackMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`oops`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	_, err := client.UpdatePrice(context.Background(), "chair-1", 99.0, "", "tok")
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Error() == "" || err.Error() == "oops" {
		t.Errorf("error = %q, want fallback text", err.Error())
	}
}

func TestCurrencyRateFallback(t *testing.T) {
	t.Run("后端不可达", func(t *testing.T) {
		client := newTestClient("http://127.0.0.1:1")
		rate := client.CurrencyRate(context.Background())
		if rate.Rate != 105.0 || rate.Currency != "RUB" || rate.Source != "fallback_client" {
			t.Errorf("rate = %+v, want built-in fallback", rate)
		}
	})

	t.Run("零汇率视为无效", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"currency":"RUB","rate":0,"source":"backend"}`))
		}))
		defer srv.Close()
		rate := newTestClient(srv.URL).CurrencyRate(context.Background())
		if rate.Source != "fallback_client" {
			t.Errorf("rate = %+v, want fallback", rate)
		}
	})

	t.Run("正常汇率透传", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"currency":"RUB","rate":98.5,"source":"cbr"}`))
		}))
		defer srv.Close()
		rate := newTestClient(srv.URL).CurrencyRate(context.Background())
		if rate.Rate != 98.5 || rate.Source != "cbr" {
			t.Errorf("rate = %+v, want backend value", rate)
		}
	})
}

func TestSetAuthOnlyWithToken(t *testing.T) {
	var header string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Get("Authorization")
		w.Write([]byte(`{"items":[],"total":0}`))
	}))
	defer srv.Close()
	client := newTestClient(srv.URL)

	if _, err := client.ListProducts(context.Background(), ListProductsOptions{Limit: 40}); err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if header != "" {
		t.Errorf("anonymous request carries Authorization %q", header)
	}

	if _, err := client.ListProducts(context.Background(), ListProductsOptions{Limit: 40, Token: "abc"}); err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if header != "Bearer abc" {
		t.Errorf("Authorization = %q, want Bearer abc", header)
	}
}
