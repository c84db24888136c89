package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"plain", `<html><head><title> e-Search </title></head></html>`, "e-Search"},
		{"no title", `<html><body>hi</body></html>`, ""},
		{"empty title", `<title></title><p>x</p>`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractTitle(tt.html))
		})
	}
}

func TestCheck_Reachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "Chrome")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><head><title>Search By Name</title></head></html>`))
	}))
	defer srv.Close()

	st := New(time.Second, 0).Check(context.Background(), Target{Name: "urban-by-name", URL: srv.URL})

	assert.True(t, st.Reachable)
	assert.Equal(t, http.StatusOK, st.StatusCode)
	assert.Equal(t, "Search By Name", st.Title)
	assert.Empty(t, st.Error)
	assert.Equal(t, "urban-by-name", st.Site)
}

func TestCheck_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	st := New(time.Second, 0).Check(context.Background(), Target{Name: "rural", URL: srv.URL})

	assert.False(t, st.Reachable)
	assert.Equal(t, http.StatusBadGateway, st.StatusCode)
}

func TestCheck_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	st := New(time.Second, 0).Check(context.Background(), Target{Name: "gone", URL: url})

	assert.False(t, st.Reachable)
	assert.NotEmpty(t, st.Error)
}

func TestCheckAll_KeepsOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/slow" {
			time.Sleep(50 * time.Millisecond)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	targets := []Target{
		{Name: "a", URL: srv.URL + "/slow"},
		{Name: "b", URL: srv.URL + "/fast"},
		{Name: "c", URL: srv.URL + "/fast"},
	}

	got := New(time.Second, 0).CheckAll(context.Background(), targets)

	require.Len(t, got, 3)
	for i, st := range got {
		assert.Equal(t, targets[i].Name, st.Site)
		assert.True(t, st.Reachable)
	}
}

func TestCheckAll_ReusesRecentResults(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := New(time.Second, time.Minute)
	targets := []Target{{Name: "rural", URL: srv.URL}}

	first := p.CheckAll(context.Background(), targets)
	second := p.CheckAll(context.Background(), targets)

	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, first, second)
}
