package websearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoogleSearcher_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "test-key", q.Get("key"))
		assert.Equal(t, "engine", q.Get("cx"))
		assert.Equal(t, "spring poem", q.Get("q"))
		assert.Equal(t, "5", q.Get("num"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[
			{"title":"First","link":"https://a.example","snippet":"alpha"},
			{"title":"Second","link":"https://b.example","snippet":"beta"}
		]}`))
	}))
	defer server.Close()

	s := NewGoogleSearcher(Config{
		BaseURL:    server.URL,
		APIKey:     "test-key",
		EngineID:   "engine",
		Timeout:    time.Second,
		MaxResults: 5,
	})

	results, err := s.Search(context.Background(), "  spring\n poem ")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "First", results[0].Title)
	assert.Equal(t, "https://a.example", results[0].URL)
	assert.Equal(t, "alpha", results[0].Snippet)
	assert.Equal(t, "Second", results[1].Title)
}

func TestGoogleSearcher_NoItems(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"searchInformation":{"totalResults":"0"}}`))
	}))
	defer server.Close()

	s := NewGoogleSearcher(Config{BaseURL: server.URL, Timeout: time.Second})
	results, err := s.Search(context.Background(), "nothing matches")
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestGoogleSearcher_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"message":"quota"}}`))
	}))
	defer server.Close()

	s := NewGoogleSearcher(Config{BaseURL: server.URL, Timeout: time.Second})
	_, err := s.Search(context.Background(), "query")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestGoogleSearcher_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	s := NewGoogleSearcher(Config{BaseURL: server.URL, Timeout: 20 * time.Millisecond})
	_, err := s.Search(context.Background(), "query")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSearchTimeout)
}

func TestGoogleSearcher_EmptyQuerySkipsRequest(t *testing.T) {
	s := NewGoogleSearcher(Config{BaseURL: "http://127.0.0.1:1", Timeout: time.Second})
	results, err := s.Search(context.Background(), "   ")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestTruncateQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
		max   int
		want  string
	}{
		{name: "short", query: "hello world", max: 20, want: "hello world"},
		{name: "collapses whitespace", query: "hello \n\t world", max: 20, want: "hello world"},
		{name: "cuts at word boundary", query: "the quick brown fox", max: 12, want: "the quick"},
		{name: "boundary right after cut", query: "the quick brown", max: 9, want: "the quick"},
		{name: "single long word", query: "abcdefghij", max: 4, want: "abcd"},
		{name: "no limit", query: "a b c", max: 0, want: "a b c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TruncateQuery(tt.query, tt.max))
		})
	}
}

func TestTruncateQuery_CountsRunes(t *testing.T) {
	query := strings.Repeat("é", 10)
	got := TruncateQuery(query, 4)
	assert.Equal(t, 4, utf8.RuneCountInString(got))
}
