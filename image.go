package main

import "context"

// ImageData is one image result as served to clients. ImageURL is the
// proxied link; Link keeps the raw upstream URL for verification.
type ImageData struct {
	Title      string    `json:"title"`
	Link       string    `json:"link"`
	Image      ImageInfo `json:"image"`
	ImageURL   string    `json:"imageUrl"`
	PreviewURL string    `json:"previewUrl,omitempty"`
}

// ImageInfo carries the image metadata the backend declares for a result.
type ImageInfo struct {
	ContextLink   string `json:"contextLink"`
	Height        int    `json:"height"`
	Width         int    `json:"width"`
	ByteSize      int    `json:"byteSize"`
	ThumbnailLink string `json:"thumbnailLink"`
}

// ImageSearchResponse is the unit of caching and the payload served by
// /search.
type ImageSearchResponse struct {
	Results      []ImageData `json:"results"`
	TotalResults string      `json:"totalResults"`
	SearchTime   float64     `json:"searchTime"`
}

// SortOrder selects how merged results are presented.
type SortOrder string

const (
	SortOriginal SortOrder = "original"
	SortRandom   SortOrder = "random"
)

// ImageSearcher is the backend search contract the aggregator fans out on.
type ImageSearcher interface {
	Search(ctx context.Context, query string, num int, start int) (*GoogleSearchResponse, error)
}

// LinkVerifier filters candidates down to links that actually serve image
// content.
type LinkVerifier interface {
	FilterVerified(ctx context.Context, items []ImageData, target int) []ImageData
}
