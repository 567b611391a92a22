package offlinecache

import (
	"time"

	"github.com/ssatama/rescue-dog-aggregator-sub012/cache"
)

const (
	// How long NetworkFirst waits for the origin before serving from cache.
	apiTimeout        = 5 * time.Second
	navigationTimeout = 3 * time.Second
)

// route binds a classification to its strategy, target partition family,
// and the request headers its cache key varies on.
type route struct {
	strategy Strategy
	family   cache.Family
	vary     []string
}

// Dispatcher routes a classified request to its strategy.
// The table is static: dispatch is a pure lookup.
type Dispatcher struct {
	routes map[Classification]route
}

func newDispatcher(be backend, fallback FallbackFunc) *Dispatcher {
	return &Dispatcher{
		routes: map[Classification]route{
			ClassAPI: {
				strategy: &NetworkFirst{backend: be, timeout: apiTimeout},
				family:   cache.FamilyAPI,
			},
			ClassNavigation: {
				strategy: &NetworkFirst{backend: be, timeout: navigationTimeout, fallback: fallback},
				family:   cache.FamilyDynamic,
			},
			ClassImage: {
				strategy: &CacheFirst{backend: be},
				family:   cache.FamilyImage,
			},
			ClassStaticAsset: {
				strategy: &CacheFirst{backend: be},
				family:   cache.FamilyShell,
			},
			ClassDynamic: {
				strategy: &StaleWhileRevalidate{backend: be},
				family:   cache.FamilyDynamic,
				vary:     []string{"Accept"},
			},
		},
	}
}

// Route returns the route for a classification.
func (d *Dispatcher) Route(class Classification) route {
	return d.routes[class]
}
