package offlinecache

import (
	"net/http"
	"path"
	"strings"
)

// Classification is the category assigned to an intercepted GET request.
// It determines the strategy and target partition family used to serve it.
type Classification int

const (
	ClassAPI Classification = iota
	ClassImage
	ClassStaticAsset
	ClassNavigation
	ClassDynamic
)

func (c Classification) String() string {
	switch c {
	case ClassAPI:
		return "api"
	case ClassImage:
		return "image"
	case ClassStaticAsset:
		return "static-asset"
	case ClassNavigation:
		return "navigation"
	case ClassDynamic:
		return "dynamic"
	}
	return "unknown"
}

var imageExtensions = map[string]struct{}{
	".avif": {},
	".gif":  {},
	".ico":  {},
	".jpeg": {},
	".jpg":  {},
	".png":  {},
	".svg":  {},
	".webp": {},
}

// Classifier maps a request to its Classification.
// It is pure: no side effects, same answer for the same request.
type Classifier struct {
	// APIPrefix is the reserved path prefix of the aggregator REST API.
	APIPrefix string
	// AssetPrefix is the reserved path prefix of versioned build assets.
	AssetPrefix string
	// ImageHosts are the allow-listed cross-origin image hosts.
	ImageHosts map[string]struct{}
}

// Classify returns the classification for a request. The boolean is false
// when the request must bypass the cache entirely: non-GET methods and
// cross-origin requests to hosts outside the image allow-list.
func (c Classifier) Classify(r *http.Request) (Classification, bool) {
	if r.Method != http.MethodGet {
		return 0, false
	}
	if r.URL.Host != "" {
		if _, ok := c.ImageHosts[r.URL.Host]; !ok {
			return 0, false
		}
		return ClassImage, true
	}
	switch {
	case strings.HasPrefix(r.URL.Path, c.APIPrefix):
		return ClassAPI, true
	case c.hasImageExtension(r.URL.Path):
		return ClassImage, true
	case strings.HasPrefix(r.URL.Path, c.AssetPrefix):
		return ClassStaticAsset, true
	case strings.Contains(r.Header.Get("Accept"), "text/html"):
		return ClassNavigation, true
	}
	return ClassDynamic, true
}

func (c Classifier) hasImageExtension(p string) bool {
	_, ok := imageExtensions[strings.ToLower(path.Ext(p))]
	return ok
}
