package pagination_test

import (
	"net/url"
	"testing"

	"github.com/JaimeStill/stager/pkg/pagination"
)

func TestFinalize(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		var cfg pagination.Config
		if err := cfg.Finalize(nil); err != nil {
			t.Fatalf("Finalize error: %v", err)
		}
		if cfg.DefaultPageSize != 20 || cfg.MaxPageSize != 100 {
			t.Errorf("Config = %+v, want 20/100", cfg)
		}
	})

	t.Run("default exceeds max", func(t *testing.T) {
		cfg := pagination.Config{DefaultPageSize: 50, MaxPageSize: 10}
		if err := cfg.Finalize(nil); err == nil {
			t.Error("Finalize error = nil, want error")
		}
	})

	t.Run("env override", func(t *testing.T) {
		t.Setenv("TEST_PAGE_MAX", "40")
		var cfg pagination.Config
		if err := cfg.Finalize(&pagination.ConfigEnv{MaxPageSize: "TEST_PAGE_MAX"}); err != nil {
			t.Fatalf("Finalize error: %v", err)
		}
		if cfg.MaxPageSize != 40 {
			t.Errorf("MaxPageSize = %d, want 40", cfg.MaxPageSize)
		}
	})
}

func TestPageRequestFromQuery(t *testing.T) {
	cfg := pagination.Config{DefaultPageSize: 10, MaxPageSize: 25}

	tests := []struct {
		query      string
		wantPage   int
		wantSize   int
		wantOffset int
	}{
		{"", 1, 10, 0},
		{"page=3&page_size=5", 3, 5, 10},
		{"page=-2&page_size=500", 1, 25, 0},
		{"page=abc", 1, 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			values, _ := url.ParseQuery(tt.query)
			req := pagination.PageRequestFromQuery(values, cfg)
			if req.Page != tt.wantPage || req.PageSize != tt.wantSize {
				t.Errorf("PageRequest = %+v, want page %d size %d", req, tt.wantPage, tt.wantSize)
			}
			if req.Offset() != tt.wantOffset {
				t.Errorf("Offset = %d, want %d", req.Offset(), tt.wantOffset)
			}
		})
	}
}

func TestNewPageResult(t *testing.T) {
	tests := []struct {
		total, size, want int
	}{
		{0, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{25, 6, 5},
	}

	for _, tt := range tests {
		r := pagination.NewPageResult[string](nil, tt.total, 1, tt.size)
		if r.TotalPages != tt.want {
			t.Errorf("TotalPages(%d/%d) = %d, want %d", tt.total, tt.size, r.TotalPages, tt.want)
		}
		if r.Data == nil {
			t.Error("Data = nil, want empty slice")
		}
	}
}
