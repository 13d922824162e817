package main

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProxy(t *testing.T) *ImageProxy {
	t.Helper()
	cfg := &Config{}
	cfg.Database = filepath.Join(t.TempDir(), "cache.db")
	cfg.ImageCacheSeconds = 3600

	log := discardLogger()
	store := NewStore(cfg, log)
	reqCache := NewReqCache(store, time.Hour, log)
	return NewImageProxy(cfg, reqCache, log)
}

func TestProxyRequiresSrc(t *testing.T) {
	p := newTestProxy(t)

	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/proxy", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "src")
}

func TestProxyRejectsNonHTTPSchemes(t *testing.T) {
	p := newTestProxy(t)

	for _, src := range []string{"ftp://example.com/a.png", "file:///etc/passwd", "::::"} {
		rec := httptest.NewRecorder()
		p.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/proxy?src="+url.QueryEscape(src), nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, "src %q", src)
	}
}

func TestProxyStreamsUpstreamAndCaches(t *testing.T) {
	var hits int64
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		w.Header().Set("Content-Type", "image/png")
		fmt.Fprint(w, "png-bytes")
	}))
	defer upstream.Close()

	p := newTestProxy(t)
	src := upstream.URL + "/photo.png"

	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/proxy?src="+url.QueryEscape(src), nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "png-bytes", rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, src, rec.Header().Get("X-Original-URL"))
	assert.Contains(t, rec.Header().Get("Cache-Control"), "max-age=3600")

	// second hit is served from the store
	rec = httptest.NewRecorder()
	p.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/proxy?src="+url.QueryEscape(src), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "png-bytes", rec.Body.String())
	assert.Equal(t, int64(1), atomic.LoadInt64(&hits))
}

func TestProxyReportsUpstreamFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	upstream.Close()

	p := newTestProxy(t)

	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/proxy?src="+url.QueryEscape(upstream.URL+"/x.png"), nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestProxyPassesThroughUpstreamStatus(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer upstream.Close()

	p := newTestProxy(t)

	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/proxy?src="+url.QueryEscape(upstream.URL+"/x.png"), nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "404")
}
