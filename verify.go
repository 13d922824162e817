package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/apibillme/cache"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	verifyTimeout     = 6 * time.Second
	verifyByteRange   = "bytes=0-2048"
	verifyAccept      = "image/webp,image/apng,image/jpeg,image/png,image/gif,image/*,*/*;q=0.5"
	verifyUserAgent   = "Mozilla/5.0 (compatible; ImageSearchVerifier/1.0)"
	verifyConcurrency = 4
)

// Verifier confirms that candidate links actually serve image bytes rather
// than HTML error pages hiding behind an image URL. Verdicts are memoized
// so repeated searches do not refetch the same links.
type Verifier struct {
	client   *http.Client
	verdicts cache.Cache
	log      *logrus.Logger
}

func NewVerifier(log *logrus.Logger) *Verifier {
	return &Verifier{
		client:   &http.Client{Timeout: verifyTimeout},
		verdicts: cache.New(1024, cache.WithTTL(15*time.Minute)),
		log:      log,
	}
}

// VerifyLink fetches the first couple of KB of link and decides whether it
// is image content. Any failure counts as "not an image".
func (v *Verifier) VerifyLink(ctx context.Context, link string) bool {
	if verdict, ok := v.verdicts.Get(link); ok {
		if b, ok := verdict.(bool); ok {
			return b
		}
	}
	ok := v.fetchAndInspect(ctx, link)
	v.verdicts.Set(link, ok)
	return ok
}

func (v *Verifier) fetchAndInspect(ctx context.Context, link string) bool {
	ctx, cancel := context.WithTimeout(ctx, verifyTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return false
	}
	req.Header.Set("Range", verifyByteRange)
	req.Header.Set("Accept", verifyAccept)
	req.Header.Set("User-Agent", verifyUserAgent)

	resp, err := v.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if strings.HasPrefix(contentType, "image/") {
		return true
	}
	// HTML, plain text and JSON are reliably not images; anything else is
	// ambiguous and gets the magic-byte check.
	if strings.Contains(contentType, "text/html") ||
		strings.Contains(contentType, "text/plain") ||
		strings.Contains(contentType, "application/json") {
		return false
	}

	head, err := io.ReadAll(io.LimitReader(resp.Body, 2048))
	if err != nil {
		return false
	}
	return hasImageSignature(head)
}

// hasImageSignature matches buf against the magic bytes of the common
// raster formats.
func hasImageSignature(buf []byte) bool {
	if len(buf) < 8 {
		return false
	}
	switch {
	case buf[0] == 0xFF && buf[1] == 0xD8 && buf[2] == 0xFF: // JPEG
		return true
	case bytes.HasPrefix(buf, []byte{0x89, 0x50, 0x4E, 0x47}): // PNG
		return true
	case bytes.HasPrefix(buf, []byte("GIF87a")) || bytes.HasPrefix(buf, []byte("GIF89a")):
		return true
	case bytes.HasPrefix(buf, []byte("RIFF")) && len(buf) >= 12 && bytes.Equal(buf[8:12], []byte("WEBP")):
		return true
	case buf[0] == 0x42 && buf[1] == 0x4D: // BMP
		return true
	case bytes.HasPrefix(buf, []byte{0x49, 0x49, 0x2A, 0x00}): // TIFF LE
		return true
	case bytes.HasPrefix(buf, []byte{0x4D, 0x4D, 0x00, 0x2A}): // TIFF BE
		return true
	}
	return false
}

// FilterVerified runs VerifyLink over items with bounded concurrency and
// stops issuing fetches once target links have been accepted. The input
// order is preserved in the output.
func (v *Verifier) FilterVerified(ctx context.Context, items []ImageData, target int) []ImageData {
	if target <= 0 || len(items) == 0 {
		return nil
	}

	var mu sync.Mutex
	accepted := make([]bool, len(items))
	count := 0

	g := new(errgroup.Group)
	g.SetLimit(verifyConcurrency)
	for i := range items {
		i := i
		g.Go(func() error {
			mu.Lock()
			done := count >= target
			mu.Unlock()
			if done {
				return nil
			}
			if !v.VerifyLink(ctx, items[i].Link) {
				return nil
			}
			mu.Lock()
			if count < target {
				accepted[i] = true
				count++
			}
			mu.Unlock()
			return nil
		})
	}
	// Workers never return errors; failures resolve to a false verdict.
	_ = g.Wait()

	out := make([]ImageData, 0, target)
	for i := range items {
		if accepted[i] {
			out = append(out, items[i])
			if len(out) == target {
				break
			}
		}
	}
	return out
}
