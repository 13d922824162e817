package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"strconv"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/sirupsen/logrus"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	var cfg Config
	loadConfig(&cfg, log)

	store := NewStore(&cfg, log)
	reqCache := NewReqCache(store, time.Duration(cfg.ImageCacheSeconds)*time.Second, log)
	verifier := NewVerifier(log)
	backend := NewGoogleClient(cfg.Google.APIKey, cfg.Google.CSEID, log)
	aggregator := NewAggregator(&cfg, backend, verifier, log)
	proxy := NewImageProxy(&cfg, reqCache, log)

	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, "Not Found")
	})

	http.Handle("/proxy", proxy)

	http.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		q, hasQ := r.URL.Query()["q"]
		if !hasQ {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, "Query Search Parameter ?q= missing")
			return
		}
		search := strings.Join(q, " ")

		count := 10
		if v := r.URL.Query().Get("count"); v != "" {
			if n, err := strconv.ParseInt(v, 10, 0); err == nil && n >= 1 && n <= 100 {
				count = int(n)
			}
		}
		order := SortOriginal
		if r.URL.Query().Get("order") == string(SortRandom) {
			order = SortRandom
		}

		payload, err := aggregator.Search(r.Context(), search, count, order)
		if err != nil {
			var cfgErr *ConfigError
			var upErr *UpstreamError
			switch {
			case errors.Is(err, ErrEmptyQuery):
				w.WriteHeader(http.StatusBadRequest)
			case errors.As(err, &cfgErr):
				w.WriteHeader(http.StatusInternalServerError)
			case errors.As(err, &upErr):
				w.WriteHeader(http.StatusBadGateway)
			default:
				w.WriteHeader(http.StatusInternalServerError)
			}
			fmt.Fprint(w, err.Error())
			return
		}

		w.Header().Set("Content-Type", "application/json")
		body := brotli.HTTPCompressor(w, r)
		defer body.Close()
		enc := json.NewEncoder(body)
		indent := ""
		if cfg.Debug.PrettyJson {
			indent = "  "
		}
		enc.SetIndent("", indent)
		if err := enc.Encode(payload); err != nil {
			log.WithError(err).Error("failed to encode search response")
		}
	})

	log.Infof("Starting server on :%s", cfg.Server.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Server.Port, nil))
}
