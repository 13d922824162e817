package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// ImageProxy serves /proxy?src=<url>, the single egress point every
// rewritten result link funnels through. Upstream responses are cached in
// the sqlite-backed Store.
type ImageProxy struct {
	cache        *ReqCache
	client       *http.Client
	cacheSeconds int
	log          *logrus.Logger
}

func NewImageProxy(cfg *Config, cache *ReqCache, log *logrus.Logger) *ImageProxy {
	return &ImageProxy{
		cache:        cache,
		client:       &http.Client{Timeout: 30 * time.Second},
		cacheSeconds: cfg.ImageCacheSeconds,
		log:          log,
	}
}

func (p *ImageProxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	src := r.URL.Query().Get("src")
	if src == "" {
		writeJSONError(w, http.StatusBadRequest, `image URL parameter "src" is required`)
		return
	}
	decoded, err := url.QueryUnescape(src)
	if err != nil {
		decoded = src
	}

	u, err := url.Parse(decoded)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		writeJSONError(w, http.StatusBadRequest, "invalid image URL provided")
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, decoded, nil)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid image URL provided")
		return
	}
	req.Header.Set("User-Agent", searchUserAgent)
	req.Header.Set("Accept", verifyAccept)

	resp, err := p.cache.CachedFetch(req, p.client)
	if err != nil {
		p.log.WithError(err).WithField("url", decoded).Warn("proxy fetch failed")
		writeJSONError(w, http.StatusBadGateway, "failed to fetch source image")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		writeJSONError(w, http.StatusBadGateway, "source returned status "+strconv.Itoa(resp.StatusCode))
		return
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age="+strconv.Itoa(p.cacheSeconds)+", immutable")
	w.Header().Set("X-Original-URL", decoded)
	if _, err := io.Copy(w, resp.Body); err != nil {
		p.log.WithError(err).Debug("proxy copy interrupted")
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   message,
	})
}
