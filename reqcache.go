package main

import (
	"bufio"
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"net/http"
	"net/http/httputil"
	"time"

	"github.com/sirupsen/logrus"
)

// ReqCache caches whole upstream HTTP responses in the Store, keyed by a
// hash of the serialized request.
type ReqCache struct {
	store *Store
	ttl   time.Duration
	log   *logrus.Logger
}

func NewReqCache(store *Store, ttl time.Duration, log *logrus.Logger) *ReqCache {
	rc := &ReqCache{
		store: store,
		ttl:   ttl,
		log:   log,
	}
	go rc.purgeExpired()
	return rc
}

func (rc *ReqCache) purgeExpired() {
	for {
		rc.store.DeleteBefore(time.Now().Unix())
		time.Sleep(1 * time.Hour)
	}
}

// CachedFetch serves the stored response for req when one exists, and
// otherwise performs the fetch and stores the dumped response with an
// expiry.
func (rc *ReqCache) CachedFetch(req *http.Request, client *http.Client) (*http.Response, error) {
	reqBytes, _ := httputil.DumpRequest(req, true)
	md5Hash := md5.Sum(reqBytes)
	reqHash := hex.EncodeToString(md5Hash[:])
	if data, ok := rc.store.GetResponse(reqHash); ok {
		res, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(data)), req)
		if err == nil {
			return res, nil
		}
		rc.log.WithError(err).Warn("problems decoding cached response")
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	respBytes, err := httputil.DumpResponse(resp, true)
	if err != nil {
		return nil, err
	}
	rc.log.WithField("host", req.URL.Host).Debug("response cache miss")
	rc.store.StoreResponse(reqHash, respBytes, time.Now().Add(rc.ttl).Unix())
	return http.ReadResponse(bufio.NewReader(bytes.NewReader(respBytes)), req)
}
