package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetch(t *testing.T) {
	ctx := context.Background()

	t.Run("fresh fetch returns body and revision markers", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Empty(t, r.Header.Get("If-None-Match"))
			w.Header().Set("ETag", `"v1"`)
			w.Header().Set("Last-Modified", "Mon, 01 Sep 2025 10:00:00 GMT")
			_, _ = w.Write([]byte("BEGIN:VCALENDAR\nEND:VCALENDAR"))
		}))
		defer srv.Close()

		doc, err := NewFetcher(srv.URL, time.Second).Fetch(ctx, "", "")
		require.NoError(t, err)
		assert.False(t, doc.NotModified)
		assert.NotEmpty(t, doc.Body)
		assert.Equal(t, `"v1"`, doc.ETag)
		assert.Equal(t, "Mon, 01 Sep 2025 10:00:00 GMT", doc.LastModified)
	})

	t.Run("conditional headers are sent and 304 short-circuits", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, `"v1"`, r.Header.Get("If-None-Match"))
			assert.Equal(t, "Mon, 01 Sep 2025 10:00:00 GMT", r.Header.Get("If-Modified-Since"))
			w.WriteHeader(http.StatusNotModified)
		}))
		defer srv.Close()

		doc, err := NewFetcher(srv.URL, time.Second).Fetch(ctx, `"v1"`, "Mon, 01 Sep 2025 10:00:00 GMT")
		require.NoError(t, err)
		assert.True(t, doc.NotModified)
		assert.Empty(t, doc.Body)
	})

	t.Run("non-2xx status is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		_, err := NewFetcher(srv.URL, time.Second).Fetch(ctx, "", "")
		assert.Error(t, err)
	})

	t.Run("empty URL is an error", func(t *testing.T) {
		_, err := NewFetcher("", time.Second).Fetch(ctx, "", "")
		assert.Error(t, err)
	})
}
