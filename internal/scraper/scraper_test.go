package scraper_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"aira/internal/scraper"
)

func TestFetch(t *testing.T) {
	t.Run("HTMLPage", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.NotEmpty(t, r.Header.Get("User-Agent"))
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write([]byte(`<html><head><title>T</title><style>p{color:red}</style></head>
				<body><nav>Menu Home</nav><p>Hello   world</p><script>alert(1)</script><footer>legal</footer></body></html>`))
		}))
		defer ts.Close()

		s := scraper.New(5 * time.Second)
		got, err := s.Fetch(context.Background(), ts.URL)
		assert.NoError(t, err)
		assert.Contains(t, got, "Hello world")
		assert.NotContains(t, got, "alert")
		assert.NotContains(t, got, "color:red")
		assert.NotContains(t, got, "Menu Home")
		assert.NotContains(t, got, "legal")
	})

	t.Run("PlainText", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/plain")
			w.Write([]byte("plain\n\ntext  body"))
		}))
		defer ts.Close()

		s := scraper.New(5 * time.Second)
		got, err := s.Fetch(context.Background(), ts.URL)
		assert.NoError(t, err)
		assert.Equal(t, "plain text body", got)
	})

	t.Run("NonSuccessStatus", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer ts.Close()

		s := scraper.New(5 * time.Second)
		_, err := s.Fetch(context.Background(), ts.URL)
		assert.ErrorContains(t, err, "status 404")
	})

	t.Run("BinaryContentType", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/octet-stream")
			w.Write([]byte{0x00, 0x01})
		}))
		defer ts.Close()

		s := scraper.New(5 * time.Second)
		_, err := s.Fetch(context.Background(), ts.URL)
		assert.ErrorContains(t, err, "unsupported content type")
	})

	t.Run("NetworkError", func(t *testing.T) {
		s := scraper.New(time.Second)
		_, err := s.Fetch(context.Background(), "http://127.0.0.1:1/nothing-here")
		assert.Error(t, err)
	})

	t.Run("ContextCancelled", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(2 * time.Second)
		}))
		defer ts.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		s := scraper.New(10 * time.Second)
		_, err := s.Fetch(ctx, ts.URL)
		assert.Error(t, err)
	})
}

func TestExtract(t *testing.T) {
	t.Run("StripsChrome", func(t *testing.T) {
		got := scraper.Extract(`<html><body><header>top</header><main>real <b>content</b> here</main></body></html>`)
		assert.Equal(t, "real content here", got)
	})

	t.Run("MalformedHTML", func(t *testing.T) {
		got := scraper.Extract(`<p>unclosed paragraph with <em>emphasis`)
		assert.Contains(t, got, "unclosed paragraph with emphasis")
	})

	t.Run("EmptyDocument", func(t *testing.T) {
		assert.Equal(t, "", scraper.Extract(""))
		assert.Equal(t, "", scraper.Extract("<html><body><script>x()</script></body></html>"))
	})
}
