// Package loader routes picker display requests to the right decode
// strategy.
//
// A session owns a bounded FIFO cache of generated video thumbnails
// and an in-flight set that collapses duplicate concurrent requests
// into one decode. Display targets are recycled list cells, so every
// asynchronous completion re-checks the target's binding before
// showing anything; stale results are dropped silently.
//
// Decode work runs on a bounded pool rather than a goroutine per
// request, and the cache and in-flight set are guarded by a single
// mutex because completions must see both consistently.
package loader
