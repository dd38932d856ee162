package google

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soba-ai/soba/pkg/search"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestClient_Search(t *testing.T) {
	t.Run("fetches hit pages and extracts readable text", func(t *testing.T) {
		page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `<html><head><title>Release Notes</title></head><body>
				<article><h1>Go 1.25</h1><p>Go 1.25 adds a new garbage collector mode
				and improves build times. The release also ships several runtime
				fixes that matter for long running services.</p>
				<p>See the full notes for details on compatibility.</p></article>
				</body></html>`)
		}))
		defer page.Close()

		api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "golang 1.25 release", r.URL.Query().Get("q"))
			assert.Equal(t, "3", r.URL.Query().Get("num"))
			assert.Equal(t, "test-key", r.URL.Query().Get("key"))
			assert.Equal(t, "test-cse", r.URL.Query().Get("cx"))
			fmt.Fprintf(w, `{"items":[{"title":"Go 1.25 Release Notes","link":%q,"snippet":"Go 1.25 is released"}]}`, page.URL)
		}))
		defer api.Close()

		client := New("test-key", "test-cse", testLogger(), WithEndpoint(api.URL))

		results, err := client.Search(context.Background(), "golang 1.25 release", 3)
		require.NoError(t, err)
		require.Len(t, results, 1)

		assert.Equal(t, page.URL, results[0].URL)
		assert.Equal(t, "Go 1.25 Release Notes", results[0].Title)
		assert.Contains(t, results[0].Content, "garbage collector")
		assert.NotContains(t, results[0].Content, "<p>")
	})

	t.Run("snippet fallback when page fetch fails", func(t *testing.T) {
		api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `{"items":[{"title":"Dead Page","link":"http://127.0.0.1:1/nowhere","snippet":"the snippet text"}]}`)
		}))
		defer api.Close()

		client := New("test-key", "test-cse", testLogger(), WithEndpoint(api.URL))

		results, err := client.Search(context.Background(), "anything", 3)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "the snippet text", results[0].Content)
	})

	t.Run("no items means empty result set", func(t *testing.T) {
		api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `{}`)
		}))
		defer api.Close()

		client := New("test-key", "test-cse", testLogger(), WithEndpoint(api.URL))

		results, err := client.Search(context.Background(), "extremely obscure query", 3)
		require.NoError(t, err)
		assert.NotNil(t, results)
		assert.Empty(t, results)
	})

	t.Run("API failure is wrapped with the query", func(t *testing.T) {
		api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "quota exceeded", http.StatusTooManyRequests)
		}))
		defer api.Close()

		client := New("test-key", "test-cse", testLogger(), WithEndpoint(api.URL))

		_, err := client.Search(context.Background(), "anything", 3)
		require.Error(t, err)
		var searchErr *search.Error
		require.ErrorAs(t, err, &searchErr)
		assert.Equal(t, "anything", searchErr.Query)
	})

	t.Run("blank query rejected", func(t *testing.T) {
		client := New("test-key", "test-cse", testLogger())
		_, err := client.Search(context.Background(), "  ", 3)
		assert.ErrorIs(t, err, search.ErrEmptyQuery)
	})
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "collapses blank runs and trims lines",
			input: "  first line  \n\n\n\n  second line\n   \nthird line  ",
			want:  "first line\nsecond line\nthird line",
		},
		{
			name:  "already clean",
			input: "one\ntwo",
			want:  "one\ntwo",
		},
		{
			name:  "only whitespace",
			input: "   \n\n  \n",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanText(tt.input))
		})
	}
}

func TestTruncateRunes(t *testing.T) {
	t.Run("multibyte text is cut on rune boundaries", func(t *testing.T) {
		input := strings.Repeat("あ", 6000)
		got := truncateRunes(input, maxContentRunes)
		assert.Equal(t, maxContentRunes, len([]rune(got)))
		assert.True(t, strings.HasPrefix(input, got))
	})

	t.Run("short text untouched", func(t *testing.T) {
		assert.Equal(t, "short", truncateRunes("short", maxContentRunes))
	})
}
