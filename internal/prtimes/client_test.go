package prtimes

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{BaseURL: server.URL + "/api/", Token: "test-token", MinInterval: time.Millisecond})
}

func TestCategoryReleases(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/categories/3/releases" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q", got)
		}
		q := r.URL.Query()
		if q.Get("per_page") != "24" || q.Get("page") != "0" || q.Get("from_date") != "2025-07-01" || q.Get("to_date") != "2025-07-31" {
			t.Errorf("Unexpected query %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"release_id": 1, "title": "A", "like": 5}, {"release_id": 2, "title": "B", "like": 9}]`))
	})

	releases, err := client.CategoryReleases(context.Background(), 3, ReleaseQuery{PerPage: 24, FromDate: "2025-07-01", ToDate: "2025-07-31"})
	if err != nil {
		t.Fatalf("CategoryReleases failed: %v", err)
	}
	if len(releases) != 2 || releases[1].Like != 9 {
		t.Errorf("Unexpected releases: %+v", releases)
	}
}

func TestCompaniesAndStatistics(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/companies":
			_, _ = w.Write([]byte(`[{"company_id": 10, "company_name": "テスト", "industry": "サービス業"}]`))
		case "/api/companies/10/releases/77/statistics":
			_, _ = w.Write([]byte(`{"page_view": 120, "unique_user": 80}`))
		default:
			http.NotFound(w, r)
		}
	})

	companies, err := client.Companies(context.Background(), 100, 0)
	if err != nil || len(companies) != 1 || companies[0].Industry != "サービス業" {
		t.Fatalf("Companies = %+v, %v", companies, err)
	}

	stats, err := client.ReleaseStatistics(context.Background(), 10, 77)
	if err != nil {
		t.Fatalf("ReleaseStatistics failed: %v", err)
	}
	if stats["page_view"] != float64(120) {
		t.Errorf("Unexpected statistics: %v", stats)
	}
}

func TestErrorTaxonomy(t *testing.T) {
	tests := []struct {
		status      int
		auth        bool
		unavailable bool
	}{
		{http.StatusBadRequest, false, false},
		{http.StatusUnauthorized, true, false},
		{http.StatusForbidden, true, false},
		{http.StatusNotFound, false, false},
		{http.StatusInternalServerError, false, true},
		{http.StatusServiceUnavailable, false, true},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"message": "nope"}`))
			})

			_, err := client.CompanyReleases(context.Background(), 1, ReleaseQuery{})

			var se *StatusError
			if !errors.As(err, &se) || se.StatusCode != tt.status {
				t.Fatalf("Expected StatusError %d, got %v", tt.status, err)
			}
			if errors.Is(err, ErrAuth) != tt.auth {
				t.Errorf("errors.Is(ErrAuth) = %v, want %v", !tt.auth, tt.auth)
			}
			if errors.Is(err, ErrUnavailable) != tt.unavailable {
				t.Errorf("errors.Is(ErrUnavailable) = %v, want %v", !tt.unavailable, tt.unavailable)
			}
			payload, ok := se.Payload().(map[string]any)
			if !ok || payload["message"] != "nope" {
				t.Errorf("Unexpected payload %v", se.Payload())
			}
		})
	}
}

func TestTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, Timeout: 50 * time.Millisecond, MinInterval: time.Millisecond})

	_, err := client.CategoryReleases(context.Background(), 1, ReleaseQuery{})
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Timeout should be classed as unavailable, got %v", err)
	}
	if !IsTimeout(err) {
		t.Errorf("IsTimeout should be true for %v", err)
	}
}

func TestTransportError(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:1", MinInterval: time.Millisecond})

	_, err := client.Companies(context.Background(), 1, 0)
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Connection failure should be classed as unavailable, got %v", err)
	}
	if errors.Is(err, ErrAuth) {
		t.Error("Connection failure is not an auth error")
	}
}

func TestInvalidJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	})

	if _, err := client.CategoryReleases(context.Background(), 1, ReleaseQuery{}); err == nil {
		t.Error("Expected a parse error")
	}
}

func TestNewClientDefaults(t *testing.T) {
	client := NewClient(Config{})
	if client.BaseURL() != DefaultBaseURL || client.timeout != DefaultTimeout {
		t.Errorf("Unexpected defaults: %s %v", client.BaseURL(), client.timeout)
	}
	if client.Configured() {
		t.Error("Client without token should not report configured")
	}
}
