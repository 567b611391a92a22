package offlinecache

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/ssatama/rescue-dog-aggregator-sub012/cache"
	cachekey "github.com/ssatama/rescue-dog-aggregator-sub012/pkg/cache-key"
)

// Version states. A new version starts cold, becomes installed once the
// app-shell is pre-cached, and serves requests only once active.
const (
	stateNew int32 = iota
	stateInstalled
	stateActive
)

// ErrNotInstalled is returned when Activate is called before a successful Install.
var ErrNotInstalled = errors.New("cache version not installed")

type Config struct {
	// Storage for cache partitions. Defaults to an in-memory store.
	Cache cache.Store
	// URL of the origin server. Origins with paths are not supported.
	OriginURL url.URL
	// Version names the deployable cache generation. Partitions are named
	// <family>-<version>; bump it on every change to caching behavior or
	// the pre-cache manifest. Defaults to "v1".
	Version string
	// Precache lists the app-shell paths fetched and stored during Install.
	// Defaults to the root page and the offline page.
	Precache []string
	// OfflinePath is the pre-cached page served to navigations when both
	// network and cache miss. Defaults to "/offline".
	OfflinePath string
	// APIPrefix is the reserved path prefix of the aggregator REST API.
	// Defaults to "/api/".
	APIPrefix string
	// AssetPrefix is the reserved path prefix of versioned build assets.
	// Defaults to "/_next/static/".
	AssetPrefix string
	// ImageHosts are the allow-listed cross-origin image hosts.
	ImageHosts []string
	// Logger to use. The global zerolog logger is used if nil.
	Logger *zerolog.Logger
}

// OfflineCache is the request-interception layer: it classifies every
// outgoing GET request, routes it to a caching strategy bound to a
// versioned partition, and survives loss of network connectivity.
// It implements http.Handler and proxies everything it does not cache.
type OfflineCache struct {
	store       cache.Store
	registry    cache.Registry
	classifier  Classifier
	dispatcher  *Dispatcher
	lifecycle   *Lifecycle
	evictor     *Evictor
	be          backend
	client      http.Client
	originURL   url.URL
	offlinePath string
	log         zerolog.Logger
	state       atomic.Int32
}

// New creates an OfflineCache for the given origin. The returned cache
// bypasses all traffic until Install and Activate have completed.
func New(config Config) *OfflineCache {
	var logger zerolog.Logger
	if config.Logger == nil {
		logger = zerolog.New(zerolog.NewConsoleWriter())
	} else {
		logger = *config.Logger
	}

	if config.Cache == nil {
		config.Cache = cache.NewMemStore()
	}
	if config.Version == "" {
		config.Version = "v1"
	}
	if config.OfflinePath == "" {
		config.OfflinePath = "/offline"
	}
	if config.Precache == nil {
		config.Precache = []string{"/", config.OfflinePath}
	}
	if config.APIPrefix == "" {
		config.APIPrefix = "/api/"
	}
	if config.AssetPrefix == "" {
		config.AssetPrefix = "/_next/static/"
	}
	if config.ImageHosts == nil {
		config.ImageHosts = []string{"images.rescuedogs.me", "res.cloudinary.com"}
	}

	logger = logger.With().
		Str("origin", config.OriginURL.String()).
		Str("version", config.Version).
		Logger()

	imageHosts := make(map[string]struct{}, len(config.ImageHosts))
	for _, host := range config.ImageHosts {
		imageHosts[host] = struct{}{}
	}

	o := &OfflineCache{
		store:    config.Cache,
		registry: cache.Registry{Version: config.Version},
		classifier: Classifier{
			APIPrefix:   config.APIPrefix,
			AssetPrefix: config.AssetPrefix,
			ImageHosts:  imageHosts,
		},
		originURL:   config.OriginURL,
		offlinePath: config.OfflinePath,
		log:         logger,
		client: http.Client{
			// do not follow redirects
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}

	o.be = backend{store: o.store, fetch: o.fetch, log: logger}
	o.dispatcher = newDispatcher(o.be, o.offlineFallback)
	o.lifecycle = &Lifecycle{
		store:    o.store,
		registry: o.registry,
		fetch:    o.fetch,
		precache: config.Precache,
		log:      logger,
	}
	o.evictor = &Evictor{
		store:    o.store,
		registry: o.registry,
		limit:    imageEntryLimit,
		log:      logger,
	}
	return o
}

// Install pre-populates the app-shell partition for this version.
// It must succeed before Activate; a failed install leaves the previous
// version's partitions serving.
func (o *OfflineCache) Install(ctx context.Context) error {
	if err := o.lifecycle.Install(ctx); err != nil {
		return err
	}
	o.state.CompareAndSwap(stateNew, stateInstalled)
	return nil
}

// Activate prunes partitions from other versions and starts routing
// requests through this version's strategies.
func (o *OfflineCache) Activate(ctx context.Context) error {
	if o.state.Load() == stateNew {
		return ErrNotInstalled
	}
	if err := o.lifecycle.Activate(ctx); err != nil {
		return err
	}
	o.state.Store(stateActive)
	return nil
}

// Active reports whether requests are routed through the cache.
func (o *OfflineCache) Active() bool {
	return o.state.Load() == stateActive
}

// ServeHTTP implements the http.Handler interface.
// It is the main entry point for request interception.
func (o *OfflineCache) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	class, intercept := o.classifier.Classify(r)
	if !intercept || !o.Active() {
		cs := CacheStatus{}
		if r.Method != http.MethodGet {
			cs.Forward(fwdMethod)
		} else {
			cs.Forward(fwdBypass)
		}
		w.Header().Add("Cache-Status", cs.String())
		if err := o.bypass(w, r); err != nil {
			o.log.Error().Err(err).Str("url", r.URL.String()).Msg("Could not reach origin")
			http.Error(w, "Could not get response", http.StatusBadGateway)
		}
		return
	}

	rt := o.dispatcher.Route(class)
	partition := o.registry.Name(rt.family)
	key := cachekey.ForRequest(r)
	if len(rt.vary) > 0 {
		key = cachekey.WithVary(key, r, rt.vary...)
	}

	res, cs, err := rt.strategy.Serve(r, partition, key)
	if err != nil {
		o.log.Debug().Err(err).Str("url", r.URL.String()).Str("class", class.String()).Msg("Request failed")
		w.Header().Add("Cache-Status", cs.String())
		http.Error(w, "Could not get response", http.StatusBadGateway)
		return
	}
	o.logRequest(r, class, cs)
	sendResponse(w, res, cs)
}

// offlineFallback synthesizes the response for a navigation that misses
// both network and cache: the pre-cached offline page if present,
// otherwise a plain-text 503.
func (o *OfflineCache) offlineFallback(r *http.Request) (*http.Response, CacheStatus) {
	cs := CacheStatus{}
	cs.Detail("offline")
	shell := o.registry.Name(cache.FamilyShell)
	if res, hit := o.be.lookup(shell, cachekey.ForGet(o.offlinePath)); hit {
		cs.Hit()
		return res, cs
	}
	cs.Forward(fwdMiss)
	body := "You are offline and this page has not been cached."
	return &http.Response{
		Status:        http.StatusText(http.StatusServiceUnavailable),
		StatusCode:    http.StatusServiceUnavailable,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        http.Header{"Content-Type": []string{"text/plain; charset=utf-8"}},
		Body:          io.NopCloser(strings.NewReader(body)),
		ContentLength: int64(len(body)),
	}, cs
}

func (o *OfflineCache) logRequest(r *http.Request, class Classification, cs CacheStatus) {
	isHit := 0
	if cs.status == cacheStatusHit {
		isHit = 1
	}
	o.log.Debug().
		Str("method", r.Method).
		Str("url", r.URL.String()).
		Str("class", class.String()).
		Int("hit", isHit).
		Msg("Sending response to client")
}
