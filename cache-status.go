package offlinecache

import "fmt"

const (
	cacheStatusHit = "hit"
	cacheStatusFwd = "fwd"
)

const (
	// The cache was not active or was configured to not handle this request.
	fwdBypass = "bypass"

	// The request method's semantics require the request to be forwarded.
	fwdMethod = "method"

	// The cache did not contain a response that matched the request.
	fwdMiss = "miss"

	// The cache did not contain a response for this URI; the response
	// was fetched from the network and stored. Responses that are not
	// cacheable report a plain miss instead.
	fwdUriMiss = "uri-miss"
)

// CacheStatus describes how a response was produced, surfaced to clients
// in the Cache-Status response header.
type CacheStatus struct {
	status    string
	detail    string
	fwdReason string
}

// Hit marks the response as served from the cache.
func (cs *CacheStatus) Hit() {
	cs.status = cacheStatusHit
}

// Forward marks the response as fetched (or attempted) from the network.
func (cs *CacheStatus) Forward(reason string) {
	cs.status = cacheStatusFwd
	cs.fwdReason = reason
}

func (cs *CacheStatus) Detail(detail string) {
	cs.detail = detail
}

func (cs CacheStatus) String() string {
	status := fmt.Sprintf("Offline-Cache; %s", cs.status)
	if cs.status == cacheStatusFwd && cs.fwdReason != "" {
		status = fmt.Sprintf("%s=%s", status, cs.fwdReason)
	}
	if cs.detail != "" {
		status = status + "; detail=" + cs.detail
	}
	return status
}
